package hook

import (
	"context"
	"fmt"

	"univip-hook/internal/domain"
	"univip-hook/internal/storage"
)

// StoreFeeSource serves the manual override from the pool params store and a
// configured base/surge state for the dynamic component. Pools without a
// dynamic controller run on the defaults.
type StoreFeeSource struct {
	params   storage.PoolParamsStore
	defaults domain.PoolFeeState
}

// NewStoreFeeSource creates a FeeSource over the params store.
func NewStoreFeeSource(params storage.PoolParamsStore, defaults domain.PoolFeeState) *StoreFeeSource {
	return &StoreFeeSource{params: params, defaults: defaults}
}

// Compile-time interface check.
var _ FeeSource = (*StoreFeeSource)(nil)

// GetManualFee reports the pool's manual override, when configured.
func (s *StoreFeeSource) GetManualFee(ctx context.Context, pool domain.PoolID) (uint32, bool, error) {
	p, err := s.params.GetParams(ctx, pool)
	if err != nil {
		return 0, false, fmt.Errorf("read pool params: %w", err)
	}
	return p.ManualFee, p.ManualFeeSet, nil
}

// GetFeeState returns the dynamic fee state for the pool.
func (s *StoreFeeSource) GetFeeState(_ context.Context, _ domain.PoolID) (domain.PoolFeeState, error) {
	return s.defaults, nil
}
