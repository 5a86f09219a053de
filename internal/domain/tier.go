package domain

import (
	"fmt"
	"math/big"
)

// MaxDiscountBps is the full-discount bound: 10000 bps = 100%.
const MaxDiscountBps = 10000

// Tier maps a minimum aggregated volume to a discount in basis points.
type Tier struct {
	MinVolume   *big.Int
	DiscountBps uint16
}

// TierConfig is the fixed tier schedule for one batch. Resolution assumes the
// schedule is sorted ascending by MinVolume with non-decreasing discounts; the
// resolver itself never checks this (see Validate).
type TierConfig [TierCount]Tier

// Validate checks the schedule invariants: strictly ascending minimums and
// non-decreasing discounts, all within [0,10000] bps. The aggregation path
// deliberately does not call this; callers configuring tiers should.
func (c TierConfig) Validate() error {
	for i := range c {
		if c[i].MinVolume == nil {
			return fmt.Errorf("tier %d: nil min volume", i)
		}
		if c[i].DiscountBps > MaxDiscountBps {
			return fmt.Errorf("tier %d: discount %d exceeds %d bps", i, c[i].DiscountBps, MaxDiscountBps)
		}
		if i == 0 {
			continue
		}
		if c[i].MinVolume.Cmp(c[i-1].MinVolume) <= 0 {
			return fmt.Errorf("tier %d: min volume not strictly ascending", i)
		}
		if c[i].DiscountBps < c[i-1].DiscountBps {
			return fmt.Errorf("tier %d: discount decreases", i)
		}
	}
	return nil
}

// ZeroTiers returns an all-zero schedule (no volume ever strictly exceeds a
// zero minimum twice over, so only volumes > 0 reach tier 0's discount).
func ZeroTiers() TierConfig {
	var cfg TierConfig
	for i := range cfg {
		cfg[i].MinVolume = new(big.Int)
	}
	return cfg
}
