package aggregation

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"univip-hook/internal/domain"
)

// SwapEventID is the topic of the pool swap event whose amount field feeds the
// volume sum. HookEventID marks the per-swap origin event emitted by the hook.
var (
	SwapEventID = crypto.Keccak256Hash([]byte("Swap(bytes32,address,int128,int128,uint160,uint128,int24,uint24)"))
	HookEventID = crypto.Keccak256Hash([]byte("SwapOrigin(bytes32,address)"))
)

// AggregateVolumes computes the per-segment trading volume for a batch.
//
// Every one of the 32x128 slots contributes abs(Amount) to its segment's sum
// only when the record's embedded identity matches the segment's declared
// owner and the record validates; the contribution is selected rather than
// skipped so the pass is uniform across all slots. After the per-segment sums,
// one adjacent-merge pass folds segment i-1 into segment i whenever their
// declared owners are equal: a user occupying k consecutive segments carries
// the full sum only in the last segment of the run. Non-adjacent repeats of
// the same identity are not merged; that is observable behavior, kept as is.
func AggregateVolumes(b *domain.Batch) [domain.MaxSegments]domain.UserVolume {
	var out [domain.MaxSegments]domain.UserVolume

	for i := range b.Segments {
		seg := &b.Segments[i]
		total := new(big.Int)
		abs := new(big.Int)
		for j := 0; j < domain.SegmentCapacity; j++ {
			contribution := selectContribution(b, seg, j, abs)
			total.Add(total, contribution)
		}
		out[i] = domain.UserVolume{User: seg.Owner, Volume: total}
	}

	// Adjacent merge: same declared owner in consecutive slots accumulates
	// forward, so the last segment of a run holds the run's full volume.
	for i := 1; i < domain.MaxSegments; i++ {
		if b.Segments[i].Owner == b.Segments[i-1].Owner {
			out[i].Volume.Add(out[i].Volume, out[i-1].Volume)
		}
	}

	return out
}

// selectContribution returns abs(amount) for slot j of seg when the record is
// valid and owned by the segment, zero otherwise. abs is scratch space reused
// across slots.
func selectContribution(b *domain.Batch, seg *domain.Segment, j int, abs *big.Int) *big.Int {
	zero := big.NewInt(0)
	if j >= len(seg.Records) {
		return zero
	}
	r := &seg.Records[j]
	owned := r.User == seg.Owner
	valid := ValidateRecord(b, r)
	if !(owned && valid) {
		return zero
	}
	return abs.Abs(r.Amount)
}

// ComputeDiscounts runs the full pass for a batch: volumes, then tier
// resolution per segment, in segment order.
func ComputeDiscounts(b *domain.Batch) ([domain.MaxSegments]common.Address, [domain.MaxSegments]uint16) {
	volumes := AggregateVolumes(b)

	var users [domain.MaxSegments]common.Address
	var discounts [domain.MaxSegments]uint16
	for i := range volumes {
		users[i] = volumes[i].User
		discounts[i] = ResolveTier(b.Tiers, volumes[i].Volume)
	}
	return users, discounts
}
