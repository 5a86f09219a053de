// Package aggregation implements the fixed-shape batch computation: record
// validation, per-segment volume accumulation with an adjacent-merge pass, and
// tier resolution. The whole package is pure and side-effect free; batches are
// independent and may be computed in parallel off the settlement path.
package aggregation

import (
	"univip-hook/internal/domain"
)

// ValidateRecord reports whether a record matches the batch's declared event
// sources and falls strictly inside its block range. A failing record is
// masked to a zero contribution by the aggregator, never a hard abort.
func ValidateRecord(b *domain.Batch, r *domain.EventRecord) bool {
	if r.IsPadding() {
		return false
	}
	if r.Source != b.PoolAddr {
		return false
	}
	if r.EventID != SwapEventID {
		return false
	}
	// Range is exclusive on both ends, matching the attested claim.
	if r.BlockNumber <= b.BlockStart || r.BlockNumber >= b.BlockEnd {
		return false
	}
	return true
}
