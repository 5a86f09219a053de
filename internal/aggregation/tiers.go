package aggregation

import (
	"math/big"

	"univip-hook/internal/domain"
)

// ResolveTier maps an aggregated volume to a discount in basis points.
//
// Starting from zero, each tier in configured order overwrites the discount
// when the volume strictly exceeds that tier's minimum, so the result is the
// discount of the highest tier exceeded, provided the schedule is supplied
// ascending. A misordered schedule is not detected here; it resolves to
// whatever the overwrite order yields (see domain.TierConfig.Validate).
func ResolveTier(cfg domain.TierConfig, volume *big.Int) uint16 {
	var disc uint16
	for i := range cfg {
		if cfg[i].MinVolume == nil {
			continue
		}
		if volume.Cmp(cfg[i].MinVolume) > 0 {
			disc = cfg[i].DiscountBps
		}
	}
	return disc
}
