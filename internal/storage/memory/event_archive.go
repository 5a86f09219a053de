package memory

import (
	"context"
	"math/big"
	"sort"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"univip-hook/internal/domain"
	"univip-hook/internal/storage"
)

// EventArchive is an in-memory implementation of storage.EventArchive.
type EventArchive struct {
	mu      sync.RWMutex
	records []domain.EventRecord
}

// NewEventArchive creates a new in-memory event archive.
func NewEventArchive() *EventArchive {
	return &EventArchive{}
}

// Compile-time interface check.
var _ storage.EventArchive = (*EventArchive)(nil)

// InsertBatch appends records to the archive.
func (a *EventArchive) InsertBatch(_ context.Context, records []*domain.EventRecord) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	for _, r := range records {
		if r == nil || r.Amount == nil {
			return storage.ErrInvalidInput
		}
		cp := *r
		cp.Amount = new(big.Int).Set(r.Amount)
		a.records = append(a.records, cp)
	}
	return nil
}

// GetByPoolRange returns records with start < block < end, ordered by
// (user, block, log position) so same-user records come out contiguous.
func (a *EventArchive) GetByPoolRange(_ context.Context, pool common.Address, start, end uint64) ([]*domain.EventRecord, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	var result []*domain.EventRecord
	for i := range a.records {
		r := a.records[i]
		if r.Source != pool || r.BlockNumber <= start || r.BlockNumber >= end {
			continue
		}
		cp := r
		cp.Amount = new(big.Int).Set(r.Amount)
		result = append(result, &cp)
	}

	sort.SliceStable(result, func(i, j int) bool {
		ci := result[i].User.Cmp(result[j].User)
		if ci != 0 {
			return ci < 0
		}
		if result[i].BlockNumber != result[j].BlockNumber {
			return result[i].BlockNumber < result[j].BlockNumber
		}
		return result[i].LogPos < result[j].LogPos
	})
	return result, nil
}

// UserVolume sums abs(amount) for one user in the range.
func (a *EventArchive) UserVolume(_ context.Context, pool common.Address, user common.Address, start, end uint64) (*big.Int, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	total := new(big.Int)
	abs := new(big.Int)
	for i := range a.records {
		r := &a.records[i]
		if r.Source != pool || r.User != user || r.BlockNumber <= start || r.BlockNumber >= end {
			continue
		}
		total.Add(total, abs.Abs(r.Amount))
	}
	return total, nil
}
