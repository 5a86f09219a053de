// Package circuit provides the succinct-proof rendition of the batch
// aggregation. The constraint system mirrors internal/aggregation exactly:
// masked per-slot accumulation, one adjacent-merge pass, and tier overwrite
// resolution, all expressed as uniform select operations so every batch
// produces an identical circuit shape regardless of its contents.
package circuit

import (
	"math/big"

	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/std/math/cmp"

	"univip-hook/internal/domain"
)

// MaxRecords is the flattened record grid: 32 segments x 128 slots.
const MaxRecords = domain.MaxSegments * domain.SegmentCapacity

// amountBits bounds every per-record amount witness; 4096 records of up to
// 2^48 keep every intermediate sum far below 2^64, the comparator bound.
const amountBits = 48

// VolumeTierCircuit proves that the declared per-segment discounts follow
// from the record grid under the published tier schedule and block range.
//
// Record amounts are supplied as absolute values; source and event-identifier
// binding is asserted by the data layer that feeds the witness (the witness
// builder zeroes any record that fails it), while block-range membership is
// constrained in-circuit.
type VolumeTierCircuit struct {
	// Public inputs: the attested claim.
	Epoch      frontend.Variable                     `gnark:",public"`
	PoolID     frontend.Variable                     `gnark:",public"`
	BlockStart frontend.Variable                     `gnark:",public"`
	BlockEnd   frontend.Variable                     `gnark:",public"`
	TierMin    [domain.TierCount]frontend.Variable   `gnark:",public"`
	TierDisc   [domain.TierCount]frontend.Variable   `gnark:",public"`
	Owners     [domain.MaxSegments]frontend.Variable `gnark:",public"`
	Discounts  [domain.MaxSegments]frontend.Variable `gnark:",public"`

	// Witness: the flattened record grid, segment-major.
	RecordUsers   [MaxRecords]frontend.Variable `gnark:",secret"`
	RecordAmounts [MaxRecords]frontend.Variable `gnark:",secret"`
	RecordBlocks  [MaxRecords]frontend.Variable `gnark:",secret"`
}

// Define implements frontend.Circuit.
func (c *VolumeTierCircuit) Define(api frontend.API) error {
	bound := new(big.Int).Lsh(big.NewInt(1), 64)
	comparator := cmp.NewBoundedComparator(api, bound, false)

	var totals [domain.MaxSegments]frontend.Variable
	for i := 0; i < domain.MaxSegments; i++ {
		total := frontend.Variable(0)
		for j := 0; j < domain.SegmentCapacity; j++ {
			r := i*domain.SegmentCapacity + j
			api.ToBinary(c.RecordAmounts[r], amountBits)

			owned := api.IsZero(api.Sub(c.RecordUsers[r], c.Owners[i]))
			afterStart := comparator.IsLess(c.BlockStart, c.RecordBlocks[r])
			beforeEnd := comparator.IsLess(c.RecordBlocks[r], c.BlockEnd)
			mask := api.Mul(owned, api.Mul(afterStart, beforeEnd))

			// Selected add: every slot contributes, masked to zero when the
			// record is foreign or out of range.
			total = api.Add(total, api.Mul(c.RecordAmounts[r], mask))
		}
		totals[i] = total
	}

	// Adjacent merge: a run of equal owners accumulates forward, so the last
	// segment of the run carries the full volume.
	for i := 1; i < domain.MaxSegments; i++ {
		same := api.IsZero(api.Sub(c.Owners[i], c.Owners[i-1]))
		totals[i] = api.Add(totals[i], api.Mul(totals[i-1], same))
	}

	// Tier overwrite: highest tier whose minimum is strictly exceeded wins,
	// given an ascending schedule.
	for i := 0; i < domain.MaxSegments; i++ {
		disc := frontend.Variable(0)
		for j := 0; j < domain.TierCount; j++ {
			exceeded := comparator.IsLess(c.TierMin[j], totals[i])
			disc = api.Select(exceeded, c.TierDisc[j], disc)
		}
		api.AssertIsEqual(disc, c.Discounts[i])
	}

	return nil
}
