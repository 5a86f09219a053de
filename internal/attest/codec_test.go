package attest

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"

	"univip-hook/internal/domain"
)

func TestPayloadSize(t *testing.T) {
	if PayloadSize != 708 {
		t.Fatalf("payload size is %d, want 708", PayloadSize)
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	var users [domain.MaxSegments]common.Address
	var discounts [domain.MaxSegments]uint16
	for i := range users {
		users[i] = common.BytesToAddress([]byte{byte(i + 1), 0xaa, byte(i)})
		discounts[i] = uint16(i * 313)
	}
	// Boundary values.
	discounts[0] = 0
	discounts[31] = domain.MaxDiscountBps

	payload := EncodeBatchOutput(42, users, discounts)
	if len(payload) != PayloadSize {
		t.Fatalf("encoded %d bytes, want %d", len(payload), PayloadSize)
	}

	epoch, gotUsers, gotDiscounts, err := DecodeBatchOutput(payload)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if epoch != 42 {
		t.Errorf("epoch = %d, want 42", epoch)
	}
	if gotUsers != users {
		t.Error("users did not round-trip")
	}
	if gotDiscounts != discounts {
		t.Error("discounts did not round-trip")
	}
}

func TestDecodeBatchOutput_RejectsWrongLength(t *testing.T) {
	for _, n := range []int{0, 4, PayloadSize - 1, PayloadSize + 1, 2 * PayloadSize} {
		if _, _, _, err := DecodeBatchOutput(make([]byte, n)); err == nil {
			t.Errorf("decode accepted %d-byte payload", n)
		}
	}
}

func TestFingerprint_Deterministic(t *testing.T) {
	vk := []byte("verifying key bytes")
	if Fingerprint(vk) != Fingerprint(vk) {
		t.Error("fingerprint not deterministic")
	}
	if Fingerprint(vk) == Fingerprint([]byte("other key")) {
		t.Error("distinct keys collided")
	}
}
