package hook

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"univip-hook/internal/domain"
	"univip-hook/internal/storage"
)

// Blender computes the swap-time fee for a (pool, user) pair from the three
// fee sources and the user's attested discount.
type Blender struct {
	params    storage.PoolParamsStore
	discounts storage.DiscountStore
	fees      FeeSource
}

// NewBlender creates a fee blender.
func NewBlender(params storage.PoolParamsStore, discounts storage.DiscountStore, fees FeeSource) *Blender {
	return &Blender{params: params, discounts: discounts, fees: fees}
}

// ComputeFee returns the discounted swap fee in ppm.
//
// The base component is the pool's manual override when one is configured,
// otherwise base+surge from the dynamic fee source. The user's discount is
// then applied as floor(fee * (10000-disc) / 10000), so the result never
// exceeds the base component and a full 10000 bps discount yields exactly 0.
// The blended fee is capped to the 24-bit fee range.
func (bl *Blender) ComputeFee(ctx context.Context, pool domain.PoolID, user common.Address) (uint32, error) {
	base, err := bl.baseComponent(ctx, pool)
	if err != nil {
		return 0, err
	}

	disc, err := bl.discounts.GetDiscount(ctx, user)
	if err != nil {
		return 0, fmt.Errorf("read discount for %s: %w", user.Hex(), err)
	}

	return ApplyDiscount(base, disc), nil
}

// baseComponent resolves the pre-discount fee for a pool.
func (bl *Blender) baseComponent(ctx context.Context, pool domain.PoolID) (uint32, error) {
	manual, set, err := bl.fees.GetManualFee(ctx, pool)
	if err != nil {
		return 0, fmt.Errorf("read manual fee: %w", err)
	}
	if set {
		return manual, nil
	}

	state, err := bl.fees.GetFeeState(ctx, pool)
	if err != nil {
		return 0, fmt.Errorf("read fee state: %w", err)
	}
	// Sum in uint64 so a pathological base+surge clamps to the fee cap
	// instead of wrapping.
	sum := uint64(state.BaseFee) + uint64(state.SurgeFee)
	if sum > domain.LPFeeCap {
		return domain.LPFeeCap, nil
	}
	return uint32(sum), nil
}

// ApplyDiscount applies a basis-point discount to a ppm fee, flooring, and
// caps the result to the 24-bit fee range. Discounts above 10000 bps clamp to
// a full discount.
func ApplyDiscount(feePPM uint32, discountBps uint16) uint32 {
	if discountBps >= domain.MaxDiscountBps {
		return 0
	}
	// uint64 headroom: fee < 2^32, multiplier <= 10000.
	out := uint64(feePPM) * uint64(domain.MaxDiscountBps-discountBps) / uint64(domain.MaxDiscountBps)
	if out > domain.LPFeeCap {
		return domain.LPFeeCap
	}
	return uint32(out)
}
