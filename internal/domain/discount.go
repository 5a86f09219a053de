package domain

import "github.com/ethereum/go-ethereum/common"

// DiscountRecord is one persisted per-user discount, created and updated only
// through an authenticated batch apply. It persists until overwritten.
type DiscountRecord struct {
	User        common.Address
	DiscountBps uint16 // [0,10000]
}

// Attestation is a verifiable claim that an aggregation was computed
// correctly: the fingerprint of the verifying key that authenticates the
// payload, plus the fixed-layout batch output.
type Attestation struct {
	VKFingerprint common.Hash
	Payload       []byte
}
