package circuit

import (
	"fmt"
	"math/big"

	"univip-hook/internal/aggregation"
	"univip-hook/internal/domain"
)

// maxAmount bounds each witnessed record amount (see amountBits).
var maxAmount = new(big.Int).Lsh(big.NewInt(1), amountBits)

// NewAssignment builds a full circuit assignment from a batch. The declared
// discounts are taken from the pure aggregation pass, so a valid batch always
// solves; tampering with either side breaks the constraint system.
//
// Records that fail the source/event binding are zeroed here: that check is
// the witness builder's responsibility, mirroring how the proof system's data
// layer attests receipt provenance before amounts ever reach the arithmetic.
func NewAssignment(b *domain.Batch) (*VolumeTierCircuit, error) {
	_, discounts := aggregation.ComputeDiscounts(b)

	a := &VolumeTierCircuit{
		Epoch:      b.Epoch,
		PoolID:     new(big.Int).SetBytes(b.PoolID.Bytes()),
		BlockStart: b.BlockStart,
		BlockEnd:   b.BlockEnd,
	}
	for j, tier := range b.Tiers {
		min := tier.MinVolume
		if min == nil {
			min = new(big.Int)
		}
		if min.BitLen() >= 64 {
			return nil, fmt.Errorf("tier %d minimum exceeds the comparator bound", j)
		}
		a.TierMin[j] = new(big.Int).Set(min)
		a.TierDisc[j] = tier.DiscountBps
	}

	for i := range b.Segments {
		seg := &b.Segments[i]
		a.Owners[i] = new(big.Int).SetBytes(seg.Owner.Bytes())
		a.Discounts[i] = discounts[i]

		for j := 0; j < domain.SegmentCapacity; j++ {
			slot := i*domain.SegmentCapacity + j
			a.RecordUsers[slot] = 0
			a.RecordAmounts[slot] = 0
			a.RecordBlocks[slot] = 0
			if j >= len(seg.Records) {
				continue
			}
			r := &seg.Records[j]
			if r.IsPadding() || r.Source != b.PoolAddr || r.EventID != aggregation.SwapEventID {
				continue
			}
			abs := new(big.Int).Abs(r.Amount)
			if abs.Cmp(maxAmount) >= 0 {
				return nil, fmt.Errorf("segment %d record %d: amount exceeds %d bits", i, j, amountBits)
			}
			a.RecordUsers[slot] = new(big.Int).SetBytes(r.User.Bytes())
			a.RecordAmounts[slot] = abs
			a.RecordBlocks[slot] = r.BlockNumber
		}
	}

	return a, nil
}
