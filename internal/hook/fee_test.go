package hook

import (
	"context"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"univip-hook/internal/domain"
	"univip-hook/internal/storage/memory"
)

// stubFeeSource serves fixed fee state, with the manual override read through
// the params store so admin writes show up like they do in production.
type stubFeeSource struct {
	params *memory.PoolParamsStore
	state  domain.PoolFeeState
}

func (s *stubFeeSource) GetManualFee(ctx context.Context, pool domain.PoolID) (uint32, bool, error) {
	p, err := s.params.GetParams(ctx, pool)
	if err != nil {
		return 0, false, err
	}
	return p.ManualFee, p.ManualFeeSet, nil
}

func (s *stubFeeSource) GetFeeState(_ context.Context, _ domain.PoolID) (domain.PoolFeeState, error) {
	return s.state, nil
}

func newTestBlender(base, surge uint32) (*Blender, *memory.PoolParamsStore, *memory.DiscountStore) {
	params := memory.NewPoolParamsStore()
	discounts := memory.NewDiscountStore()
	fees := &stubFeeSource{params: params, state: domain.PoolFeeState{BaseFee: base, SurgeFee: surge}}
	return NewBlender(params, discounts, fees), params, discounts
}

var (
	feePool = common.HexToHash("0x01")
	feeUser = common.HexToAddress("0x0a")
)

func TestComputeFee_NoDiscountPassesBaseThrough(t *testing.T) {
	bl, _, _ := newTestBlender(10000, 0)

	fee, err := bl.ComputeFee(context.Background(), feePool, feeUser)
	require.NoError(t, err)
	assert.Equal(t, uint32(10000), fee)
}

func TestComputeFee_HalfDiscount(t *testing.T) {
	bl, _, discounts := newTestBlender(10000, 0)
	ctx := context.Background()
	require.NoError(t, discounts.Upsert(ctx, feeUser, 5000))

	fee, err := bl.ComputeFee(ctx, feePool, feeUser)
	require.NoError(t, err)
	assert.Equal(t, uint32(5000), fee)
}

func TestComputeFee_ManualOverrideWithDiscount(t *testing.T) {
	bl, params, discounts := newTestBlender(10000, 2000)
	ctx := context.Background()
	require.NoError(t, params.SetManualFee(ctx, feePool, 5000))
	require.NoError(t, discounts.Upsert(ctx, feeUser, 2000))

	fee, err := bl.ComputeFee(ctx, feePool, feeUser)
	require.NoError(t, err)
	// Manual 5000 replaces base+surge; 20% discount → 4000.
	assert.Equal(t, uint32(4000), fee)
}

func TestComputeFee_SurgeAddsToBase(t *testing.T) {
	bl, _, _ := newTestBlender(3000, 2000)

	fee, err := bl.ComputeFee(context.Background(), feePool, feeUser)
	require.NoError(t, err)
	assert.Equal(t, uint32(5000), fee)
}

func TestComputeFee_HugeBaseAndSurgeClampToCap(t *testing.T) {
	// base+surge would wrap uint32 to 1; the sum must clamp to the fee cap
	// instead.
	bl, _, _ := newTestBlender(0x80000000, 0x80000001)

	fee, err := bl.ComputeFee(context.Background(), feePool, feeUser)
	require.NoError(t, err)
	assert.Equal(t, uint32(domain.LPFeeCap), fee)
}

func TestApplyDiscount_Bounds(t *testing.T) {
	// Never exceeds the input, exact endpoints, floor rounding.
	for _, fee := range []uint32{0, 1, 9999, 10000, domain.LPFeeCap} {
		for _, disc := range []uint16{0, 1, 3333, 9999, 10000} {
			out := ApplyDiscount(fee, disc)
			assert.LessOrEqual(t, out, fee, "fee=%d disc=%d", fee, disc)
		}
		assert.Equal(t, fee, ApplyDiscount(fee, 0))
		assert.Equal(t, uint32(0), ApplyDiscount(fee, 10000))
	}

	// floor(9999 * 6667 / 10000) = 6666.
	assert.Equal(t, uint32(6666), ApplyDiscount(9999, 3333))

	// Blended fees above the 24-bit range clamp to the cap.
	assert.Equal(t, uint32(domain.LPFeeCap), ApplyDiscount(0xFFFFFFFF, 0))
}
