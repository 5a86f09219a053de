package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/jackc/pgx/v5"

	"univip-hook/internal/storage"
)

// EpochStore implements storage.EpochStore using PostgreSQL.
type EpochStore struct {
	pool *Pool
}

// NewEpochStore creates a new EpochStore.
func NewEpochStore(pool *Pool) *EpochStore {
	return &EpochStore{pool: pool}
}

// Compile-time interface check.
var _ storage.EpochStore = (*EpochStore)(nil)

// RecordApply logs a successful attestation apply.
func (s *EpochStore) RecordApply(ctx context.Context, fp common.Hash, epoch uint32, users int) error {
	query := `
		INSERT INTO epoch_applies (fingerprint, epoch, users, applied_at)
		VALUES ($1, $2, $3, now())
	`
	if _, err := s.pool.Exec(ctx, query, fp.Bytes(), int64(epoch), users); err != nil {
		return fmt.Errorf("record apply: %w", err)
	}
	return nil
}

// LastEpoch returns the most recently applied epoch for a fingerprint.
func (s *EpochStore) LastEpoch(ctx context.Context, fp common.Hash) (uint32, error) {
	query := `
		SELECT epoch FROM epoch_applies
		WHERE fingerprint = $1
		ORDER BY id DESC LIMIT 1
	`

	var epoch int64
	err := s.pool.QueryRow(ctx, query, fp.Bytes()).Scan(&epoch)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, storage.ErrNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("last epoch: %w", err)
	}
	return uint32(epoch), nil
}
