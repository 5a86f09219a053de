package domain

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// Batch shape constants. The aggregation operates over a fixed 32x128 grid of
// record slots; unused slots hold zero-valued padding records.
const (
	MaxSegments     = 32  // user slots per batch
	SegmentCapacity = 128 // records per user slot
	TierCount       = 5   // discount tiers per batch
)

// EventRecord is one ledger event attributed to a swap. Records are externally
// sourced and immutable; a zero-valued record is padding.
type EventRecord struct {
	Source      common.Address // contract that emitted the event
	EventID     common.Hash    // event signature topic
	LogPos      uint32         // log index within the transaction
	BlockNumber uint64         // block containing the event
	TxHash      common.Hash    // transaction hash
	User        common.Address // trader identity embedded in the event
	Amount      *big.Int       // signed raw swap amount
}

// IsPadding reports whether the record is an empty slot.
func (r *EventRecord) IsPadding() bool {
	return r.Amount == nil || (r.Amount.Sign() == 0 && r.User == (common.Address{}))
}

// Segment is the fixed-capacity slice of a batch attributed to one user slot.
// Records beyond len(Records) are implicit padding.
type Segment struct {
	Owner   common.Address
	Records []EventRecord
}

// Batch is one fixed-shape aggregation input: an epoch, the event-source
// binding, a declared block range, the tier schedule and up to 32 segments.
type Batch struct {
	Epoch      uint32
	PoolID     common.Hash    // unique pool identifier (hash of the pool key)
	PoolAddr   common.Address // contract expected to emit swap events
	HookAddr   common.Address // contract expected to emit origin events
	BlockStart uint64
	BlockEnd   uint64
	Tiers      TierConfig
	Segments   [MaxSegments]Segment
}

// UserVolume is a per-segment aggregation result, transient per pass.
type UserVolume struct {
	User   common.Address
	Volume *big.Int
}
