package memory

import (
	"context"
	"sync"

	"univip-hook/internal/domain"
	"univip-hook/internal/storage"
)

// PoolParamsStore is an in-memory implementation of storage.PoolParamsStore.
type PoolParamsStore struct {
	mu   sync.RWMutex
	data map[domain.PoolID]domain.PoolParams
}

// NewPoolParamsStore creates a new in-memory pool params store.
func NewPoolParamsStore() *PoolParamsStore {
	return &PoolParamsStore{
		data: make(map[domain.PoolID]domain.PoolParams),
	}
}

// Compile-time interface check.
var _ storage.PoolParamsStore = (*PoolParamsStore)(nil)

// SetManualFee configures a manual fee override for the pool.
func (s *PoolParamsStore) SetManualFee(_ context.Context, pool domain.PoolID, feePPM uint32) error {
	if feePPM > domain.LPFeeCap {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	p := s.data[pool]
	p.ManualFee = feePPM
	p.ManualFeeSet = true
	s.data[pool] = p
	return nil
}

// ClearManualFee removes the manual fee override for the pool.
func (s *PoolParamsStore) ClearManualFee(_ context.Context, pool domain.PoolID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p := s.data[pool]
	p.ManualFee = 0
	p.ManualFeeSet = false
	s.data[pool] = p
	return nil
}

// SetProtocolShare configures the protocol share for the pool.
func (s *PoolParamsStore) SetProtocolShare(_ context.Context, pool domain.PoolID, sharePPM uint32) error {
	if sharePPM > domain.FeePPMScale {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	p := s.data[pool]
	p.ProtocolSharePPM = sharePPM
	s.data[pool] = p
	return nil
}

// GetParams returns the pool's params; absent pools read as zero-valued.
func (s *PoolParamsStore) GetParams(_ context.Context, pool domain.PoolID) (domain.PoolParams, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.data[pool], nil
}
