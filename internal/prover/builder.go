// Package prover assembles fixed-shape batches from the event archive and
// produces attested aggregation results.
package prover

import (
	"context"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"univip-hook/internal/domain"
	"univip-hook/internal/storage"
)

// ErrBatchOverflow is returned when a block range holds more records than one
// 32x128 batch can carry; callers should narrow the range and retry.
var ErrBatchOverflow = errors.New("records exceed batch capacity")

// BatchBuilder packs archived ledger events into aggregation batches.
type BatchBuilder struct {
	archive storage.EventArchive
}

// NewBatchBuilder creates a batch builder over an event archive.
func NewBatchBuilder(archive storage.EventArchive) *BatchBuilder {
	return &BatchBuilder{archive: archive}
}

// Build pulls the pool's records with start < block < end, groups them per
// user and packs them into at most 32 segments of 128 records each. A user
// whose records exceed one segment spans adjacent segments, so the
// adjacent-merge pass credits the full volume to the run's last segment.
// Unused segments stay zero-valued padding.
func (bb *BatchBuilder) Build(ctx context.Context, pool common.Address, hook common.Address, poolID common.Hash, epoch uint32, start, end uint64, tiers domain.TierConfig) (*domain.Batch, error) {
	records, err := bb.archive.GetByPoolRange(ctx, pool, start, end)
	if err != nil {
		return nil, fmt.Errorf("load archive range: %w", err)
	}

	b := &domain.Batch{
		Epoch:      epoch,
		PoolID:     poolID,
		PoolAddr:   pool,
		HookAddr:   hook,
		BlockStart: start,
		BlockEnd:   end,
		Tiers:      tiers,
	}

	seg := 0
	for i := 0; i < len(records); {
		if seg >= domain.MaxSegments {
			return nil, fmt.Errorf("%w: %d records for range [%d,%d]", ErrBatchOverflow, len(records), start, end)
		}
		owner := records[i].User
		b.Segments[seg].Owner = owner
		for i < len(records) && records[i].User == owner && len(b.Segments[seg].Records) < domain.SegmentCapacity {
			b.Segments[seg].Records = append(b.Segments[seg].Records, *records[i])
			i++
		}
		seg++
	}
	return b, nil
}
