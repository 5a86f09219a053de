package memory

import (
	"context"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"univip-hook/internal/storage"
)

// WhitelistStore is an in-memory implementation of storage.WhitelistStore.
type WhitelistStore struct {
	mu   sync.RWMutex
	data map[common.Hash]struct{}
}

// NewWhitelistStore creates a new in-memory whitelist store.
func NewWhitelistStore() *WhitelistStore {
	return &WhitelistStore{
		data: make(map[common.Hash]struct{}),
	}
}

// Compile-time interface check.
var _ storage.WhitelistStore = (*WhitelistStore)(nil)

// Add whitelists a fingerprint; re-adding is a no-op.
func (s *WhitelistStore) Add(_ context.Context, fp common.Hash) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.data[fp] = struct{}{}
	return nil
}

// Remove deletes a fingerprint; removing an absent entry is a no-op.
func (s *WhitelistStore) Remove(_ context.Context, fp common.Hash) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.data, fp)
	return nil
}

// Contains reports whether a fingerprint is whitelisted.
func (s *WhitelistStore) Contains(_ context.Context, fp common.Hash) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.data[fp]
	return ok, nil
}
