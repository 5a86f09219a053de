package clickhouse

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"univip-hook/internal/domain"
	"univip-hook/internal/storage"
)

// EventArchive implements storage.EventArchive using ClickHouse.
type EventArchive struct {
	conn *Conn
}

// NewEventArchive creates a new EventArchive.
func NewEventArchive(conn *Conn) *EventArchive {
	return &EventArchive{conn: conn}
}

// Compile-time interface check.
var _ storage.EventArchive = (*EventArchive)(nil)

// InsertBatch appends records to the archive. Padding records are skipped;
// they carry no information and would collide in the sort key.
func (s *EventArchive) InsertBatch(ctx context.Context, records []*domain.EventRecord) error {
	if len(records) == 0 {
		return nil
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO swap_events (
			pool_addr, event_id, user_addr, block_number, log_pos, tx_hash, amount
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, r := range records {
		if r.IsPadding() {
			continue
		}
		err = batch.Append(
			string(r.Source[:]), string(r.EventID[:]), string(r.User[:]),
			r.BlockNumber, r.LogPos, string(r.TxHash[:]), r.Amount,
		)
		if err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}

	return nil
}

// GetByPoolRange returns records with start < block < end (strict bounds),
// ordered so same-user records come out contiguous.
func (s *EventArchive) GetByPoolRange(ctx context.Context, pool common.Address, start, end uint64) ([]*domain.EventRecord, error) {
	rows, err := s.conn.Query(ctx, `
		SELECT pool_addr, event_id, user_addr, block_number, log_pos, tx_hash, amount
		FROM swap_events
		WHERE pool_addr = ? AND block_number > ? AND block_number < ?
		ORDER BY user_addr, block_number, log_pos
	`, string(pool[:]), start, end)
	if err != nil {
		return nil, fmt.Errorf("query swap events: %w", err)
	}
	defer rows.Close()

	var records []*domain.EventRecord
	for rows.Next() {
		var (
			poolAddr string
			eventID  string
			userAddr string
			block    uint64
			logPos   uint32
			txHash   string
			amount   big.Int
		)
		if err := rows.Scan(&poolAddr, &eventID, &userAddr, &block, &logPos, &txHash, &amount); err != nil {
			return nil, fmt.Errorf("scan swap event: %w", err)
		}

		r := &domain.EventRecord{
			Source:      common.BytesToAddress([]byte(poolAddr)),
			EventID:     common.BytesToHash([]byte(eventID)),
			User:        common.BytesToAddress([]byte(userAddr)),
			BlockNumber: block,
			LogPos:      logPos,
			TxHash:      common.BytesToHash([]byte(txHash)),
			Amount:      new(big.Int).Set(&amount),
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate swap events: %w", err)
	}

	return records, nil
}

// UserVolume returns the summed absolute amount for one user in the range.
// Users with no records in the range read as zero.
func (s *EventArchive) UserVolume(ctx context.Context, pool common.Address, user common.Address, start, end uint64) (*big.Int, error) {
	row := s.conn.QueryRow(ctx, `
		SELECT sum(abs(amount))
		FROM swap_events
		WHERE pool_addr = ? AND user_addr = ? AND block_number > ? AND block_number < ?
	`, string(pool[:]), string(user[:]), start, end)

	var total big.Int
	if err := row.Scan(&total); err != nil {
		return nil, fmt.Errorf("scan user volume: %w", err)
	}
	return new(big.Int).Set(&total), nil
}
