package memory

import (
	"context"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"univip-hook/internal/storage"
)

// epochApply is one recorded attestation apply.
type epochApply struct {
	epoch     uint32
	users     int
	appliedAt time.Time
}

// EpochStore is an in-memory implementation of storage.EpochStore.
type EpochStore struct {
	mu   sync.RWMutex
	data map[common.Hash][]epochApply
}

// NewEpochStore creates a new in-memory epoch store.
func NewEpochStore() *EpochStore {
	return &EpochStore{
		data: make(map[common.Hash][]epochApply),
	}
}

// Compile-time interface check.
var _ storage.EpochStore = (*EpochStore)(nil)

// RecordApply logs a successful attestation apply.
func (s *EpochStore) RecordApply(_ context.Context, fp common.Hash, epoch uint32, users int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.data[fp] = append(s.data[fp], epochApply{epoch: epoch, users: users, appliedAt: time.Now()})
	return nil
}

// LastEpoch returns the most recently applied epoch for a fingerprint.
func (s *EpochStore) LastEpoch(_ context.Context, fp common.Hash) (uint32, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	applies := s.data[fp]
	if len(applies) == 0 {
		return 0, storage.ErrNotFound
	}
	return applies[len(applies)-1].epoch, nil
}
