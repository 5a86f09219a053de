package postgres

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"univip-hook/internal/storage"
)

// WhitelistStore implements storage.WhitelistStore using PostgreSQL.
type WhitelistStore struct {
	pool *Pool
}

// NewWhitelistStore creates a new WhitelistStore.
func NewWhitelistStore(pool *Pool) *WhitelistStore {
	return &WhitelistStore{pool: pool}
}

// Compile-time interface check.
var _ storage.WhitelistStore = (*WhitelistStore)(nil)

// Add whitelists a fingerprint; re-adding is a no-op.
func (s *WhitelistStore) Add(ctx context.Context, fp common.Hash) error {
	query := `
		INSERT INTO whitelist (fingerprint, added_at)
		VALUES ($1, now())
		ON CONFLICT (fingerprint) DO NOTHING
	`
	if _, err := s.pool.Exec(ctx, query, fp.Bytes()); err != nil {
		return fmt.Errorf("add fingerprint: %w", err)
	}
	return nil
}

// Remove deletes a fingerprint; removing an absent entry is a no-op.
func (s *WhitelistStore) Remove(ctx context.Context, fp common.Hash) error {
	query := `DELETE FROM whitelist WHERE fingerprint = $1`
	if _, err := s.pool.Exec(ctx, query, fp.Bytes()); err != nil {
		return fmt.Errorf("remove fingerprint: %w", err)
	}
	return nil
}

// Contains reports whether a fingerprint is whitelisted.
func (s *WhitelistStore) Contains(ctx context.Context, fp common.Hash) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM whitelist WHERE fingerprint = $1)`

	var ok bool
	if err := s.pool.QueryRow(ctx, query, fp.Bytes()).Scan(&ok); err != nil {
		return false, fmt.Errorf("check fingerprint: %w", err)
	}
	return ok, nil
}
