// Package attest defines the fixed-layout batch output shared by the
// aggregation side and the authenticity gateway, plus verifying-key
// fingerprints used to whitelist attestation producers.
package attest

import (
	"encoding/binary"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"univip-hook/internal/domain"
)

// PayloadSize is the exact encoded batch output length:
// 4-byte epoch followed by 32 x (20-byte user, 2-byte discount).
const PayloadSize = 4 + domain.MaxSegments*(common.AddressLength+2)

// EncodeBatchOutput packs an epoch and 32 user/discount pairs into the
// attested payload, big-endian, in segment order. This layout is the sole
// contract between aggregation and the gateway.
func EncodeBatchOutput(epoch uint32, users [domain.MaxSegments]common.Address, discounts [domain.MaxSegments]uint16) []byte {
	out := make([]byte, PayloadSize)
	binary.BigEndian.PutUint32(out[0:4], epoch)

	off := 4
	for i := 0; i < domain.MaxSegments; i++ {
		copy(out[off:off+common.AddressLength], users[i].Bytes())
		off += common.AddressLength
		binary.BigEndian.PutUint16(out[off:off+2], discounts[i])
		off += 2
	}
	return out
}

// DecodeBatchOutput reverses EncodeBatchOutput. The payload length is strict;
// anything other than PayloadSize bytes is malformed.
func DecodeBatchOutput(payload []byte) (uint32, [domain.MaxSegments]common.Address, [domain.MaxSegments]uint16, error) {
	var users [domain.MaxSegments]common.Address
	var discounts [domain.MaxSegments]uint16

	if len(payload) != PayloadSize {
		return 0, users, discounts, fmt.Errorf("payload is %d bytes, want %d", len(payload), PayloadSize)
	}

	epoch := binary.BigEndian.Uint32(payload[0:4])
	off := 4
	for i := 0; i < domain.MaxSegments; i++ {
		users[i] = common.BytesToAddress(payload[off : off+common.AddressLength])
		off += common.AddressLength
		discounts[i] = binary.BigEndian.Uint16(payload[off : off+2])
		off += 2
	}
	return epoch, users, discounts, nil
}

// Fingerprint derives the whitelist key for an attestation producer: the
// keccak256 hash of its serialized verifying key.
func Fingerprint(vk []byte) common.Hash {
	return crypto.Keccak256Hash(vk)
}
