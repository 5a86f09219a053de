package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/jackc/pgx/v5"

	"univip-hook/internal/domain"
	"univip-hook/internal/storage"
)

// DiscountStore implements storage.DiscountStore using PostgreSQL.
type DiscountStore struct {
	pool *Pool
}

// NewDiscountStore creates a new DiscountStore.
func NewDiscountStore(pool *Pool) *DiscountStore {
	return &DiscountStore{pool: pool}
}

// Compile-time interface check.
var _ storage.DiscountStore = (*DiscountStore)(nil)

// Upsert overwrites the user's discount unconditionally.
func (s *DiscountStore) Upsert(ctx context.Context, user common.Address, bps uint16) error {
	if bps > domain.MaxDiscountBps {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO discounts (user_addr, discount_bps, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (user_addr)
		DO UPDATE SET discount_bps = EXCLUDED.discount_bps, updated_at = now()
	`

	if _, err := s.pool.Exec(ctx, query, user.Bytes(), int32(bps)); err != nil {
		return fmt.Errorf("upsert discount: %w", err)
	}
	return nil
}

// GetDiscount returns the user's discount; absent users read as 0.
func (s *DiscountStore) GetDiscount(ctx context.Context, user common.Address) (uint16, error) {
	query := `SELECT discount_bps FROM discounts WHERE user_addr = $1`

	var bps int32
	err := s.pool.QueryRow(ctx, query, user.Bytes()).Scan(&bps)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("get discount: %w", err)
	}
	return uint16(bps), nil
}
