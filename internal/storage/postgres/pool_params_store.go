package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"univip-hook/internal/domain"
	"univip-hook/internal/storage"
)

// PoolParamsStore implements storage.PoolParamsStore using PostgreSQL.
type PoolParamsStore struct {
	pool *Pool
}

// NewPoolParamsStore creates a new PoolParamsStore.
func NewPoolParamsStore(pool *Pool) *PoolParamsStore {
	return &PoolParamsStore{pool: pool}
}

// Compile-time interface check.
var _ storage.PoolParamsStore = (*PoolParamsStore)(nil)

// SetManualFee configures a manual fee override for the pool.
func (s *PoolParamsStore) SetManualFee(ctx context.Context, pool domain.PoolID, feePPM uint32) error {
	if feePPM > domain.LPFeeCap {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO pool_params (pool_id, manual_fee, manual_fee_set, protocol_share_ppm)
		VALUES ($1, $2, TRUE, 0)
		ON CONFLICT (pool_id)
		DO UPDATE SET manual_fee = EXCLUDED.manual_fee, manual_fee_set = TRUE
	`
	if _, err := s.pool.Exec(ctx, query, pool.Bytes(), int64(feePPM)); err != nil {
		return fmt.Errorf("set manual fee: %w", err)
	}
	return nil
}

// ClearManualFee removes the manual fee override for the pool.
func (s *PoolParamsStore) ClearManualFee(ctx context.Context, pool domain.PoolID) error {
	query := `
		UPDATE pool_params SET manual_fee = 0, manual_fee_set = FALSE
		WHERE pool_id = $1
	`
	if _, err := s.pool.Exec(ctx, query, pool.Bytes()); err != nil {
		return fmt.Errorf("clear manual fee: %w", err)
	}
	return nil
}

// SetProtocolShare configures the protocol share for the pool.
func (s *PoolParamsStore) SetProtocolShare(ctx context.Context, pool domain.PoolID, sharePPM uint32) error {
	if sharePPM > domain.FeePPMScale {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO pool_params (pool_id, manual_fee, manual_fee_set, protocol_share_ppm)
		VALUES ($1, 0, FALSE, $2)
		ON CONFLICT (pool_id)
		DO UPDATE SET protocol_share_ppm = EXCLUDED.protocol_share_ppm
	`
	if _, err := s.pool.Exec(ctx, query, pool.Bytes(), int64(sharePPM)); err != nil {
		return fmt.Errorf("set protocol share: %w", err)
	}
	return nil
}

// GetParams returns the pool's params; absent pools read as zero-valued.
func (s *PoolParamsStore) GetParams(ctx context.Context, pool domain.PoolID) (domain.PoolParams, error) {
	query := `
		SELECT manual_fee, manual_fee_set, protocol_share_ppm
		FROM pool_params WHERE pool_id = $1
	`

	var (
		manualFee int64
		set       bool
		share     int64
	)
	err := s.pool.QueryRow(ctx, query, pool.Bytes()).Scan(&manualFee, &set, &share)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.PoolParams{}, nil
	}
	if err != nil {
		return domain.PoolParams{}, fmt.Errorf("get pool params: %w", err)
	}
	return domain.PoolParams{
		ManualFee:        uint32(manualFee),
		ManualFeeSet:     set,
		ProtocolSharePPM: uint32(share),
	}, nil
}
