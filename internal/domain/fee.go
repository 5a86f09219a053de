package domain

import "github.com/ethereum/go-ethereum/common"

// Fee scaling: fees are expressed in parts per million, 1e6 = 100%.
const (
	FeePPMScale = 1_000_000
	// LPFeeCap bounds any computed swap fee to the 24-bit fee range.
	LPFeeCap = 0xFFFFFF
)

// PoolID identifies one pool; it is the hash of the pool key.
type PoolID = common.Hash

// PoolFeeState is the externally sourced dynamic fee pair for a pool,
// read-only to this engine.
type PoolFeeState struct {
	BaseFee  uint32 // ppm
	SurgeFee uint32 // ppm
}

// PoolParams is the per-pool configuration owned by the admin surface.
type PoolParams struct {
	ManualFee        uint32 // ppm, used only when ManualFeeSet
	ManualFeeSet     bool
	ProtocolSharePPM uint32 // share of the swap fee withheld for reinvestment
}

// RelayState carries the computed fee and the pre-swap price tick between the
// two callback phases of one swap. It is scoped to exactly one swap execution:
// created at pre-swap, consumed and discarded at post-swap, never stored.
type RelayState struct {
	DiscountedFee uint32 // ppm
	PreSwapTick   int32
	// Active is set by the pre-swap phase and cleared when the post-swap
	// phase consumes the relay; a cleared relay must not be read again.
	Active bool
}
