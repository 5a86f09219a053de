package storage

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"univip-hook/internal/domain"
)

// DiscountStore is the durable map from user identity to discount percentage.
// The only writer is the authenticity gateway on a verified attestation;
// readers are fee computations. Updates are independent per-key upserts.
type DiscountStore interface {
	// Upsert overwrites the user's discount unconditionally.
	// Returns ErrInvalidInput if bps exceeds 10000.
	Upsert(ctx context.Context, user common.Address, bps uint16) error

	// GetDiscount returns the user's discount in basis points.
	// Absent users read as 0 (no discount), never ErrNotFound.
	GetDiscount(ctx context.Context, user common.Address) (uint16, error)
}

// WhitelistStore holds the set of verifying-key fingerprints whose
// attestations the gateway accepts. A fingerprint must be explicitly added
// before any attestation carrying it is honored.
type WhitelistStore interface {
	// Add whitelists a fingerprint. Adding an existing entry is a no-op.
	Add(ctx context.Context, fp common.Hash) error

	// Remove deletes a fingerprint. Removing an absent entry is a no-op.
	Remove(ctx context.Context, fp common.Hash) error

	// Contains reports whether a fingerprint is whitelisted.
	Contains(ctx context.Context, fp common.Hash) (bool, error)
}

// PoolParamsStore holds per-pool fee configuration owned by the admin surface.
type PoolParamsStore interface {
	// SetManualFee configures a manual fee override (ppm) for the pool.
	SetManualFee(ctx context.Context, pool domain.PoolID, feePPM uint32) error

	// ClearManualFee removes the manual fee override for the pool.
	ClearManualFee(ctx context.Context, pool domain.PoolID) error

	// SetProtocolShare configures the protocol share (ppm) for the pool.
	SetProtocolShare(ctx context.Context, pool domain.PoolID, sharePPM uint32) error

	// GetParams returns the pool's params. Absent pools read as zero-valued
	// params (no override, no protocol share), never ErrNotFound.
	GetParams(ctx context.Context, pool domain.PoolID) (domain.PoolParams, error)
}

// EpochStore records applied attestation epochs per fingerprint, as an audit
// trail for batch applies. It does not gate upserts (epoch ordering is not
// enforced at the store layer).
type EpochStore interface {
	// RecordApply logs a successful attestation apply.
	RecordApply(ctx context.Context, fp common.Hash, epoch uint32, users int) error

	// LastEpoch returns the most recently applied epoch for a fingerprint.
	// Returns ErrNotFound if the fingerprint has never applied a batch.
	LastEpoch(ctx context.Context, fp common.Hash) (uint32, error)
}

// EventArchive stores raw ledger event records as ingested, and serves them
// back to the batch builder grouped so same-user records come out contiguous.
type EventArchive interface {
	// InsertBatch appends records to the archive.
	InsertBatch(ctx context.Context, records []*domain.EventRecord) error

	// GetByPoolRange returns records from the pool source with
	// start < block < end (strict), ordered by (user, block, log position).
	GetByPoolRange(ctx context.Context, pool common.Address, start, end uint64) ([]*domain.EventRecord, error)

	// UserVolume returns the summed absolute amount for one user in the range,
	// for reporting and cross-checks against attested batches.
	UserVolume(ctx context.Context, pool common.Address, user common.Address, start, end uint64) (*big.Int, error)
}
