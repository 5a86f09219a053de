// Package memory provides in-memory store implementations, used by unit tests
// and single-process deployments without a database.
package memory

import (
	"context"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"univip-hook/internal/domain"
	"univip-hook/internal/storage"
)

// DiscountStore is an in-memory implementation of storage.DiscountStore.
type DiscountStore struct {
	mu   sync.RWMutex
	data map[common.Address]uint16
}

// NewDiscountStore creates a new in-memory discount store.
func NewDiscountStore() *DiscountStore {
	return &DiscountStore{
		data: make(map[common.Address]uint16),
	}
}

// Compile-time interface check.
var _ storage.DiscountStore = (*DiscountStore)(nil)

// Upsert overwrites the user's discount unconditionally.
func (s *DiscountStore) Upsert(_ context.Context, user common.Address, bps uint16) error {
	if bps > domain.MaxDiscountBps {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.data[user] = bps
	return nil
}

// GetDiscount returns the user's discount; absent users read as 0.
func (s *DiscountStore) GetDiscount(_ context.Context, user common.Address) (uint16, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.data[user], nil
}

// Len returns the number of stored discounts (test helper).
func (s *DiscountStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.data)
}
