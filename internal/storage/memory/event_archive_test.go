package memory

import (
	"context"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"

	"univip-hook/internal/domain"
)

func archiveRecord(pool, user common.Address, block uint64, logPos uint32, amount int64) *domain.EventRecord {
	return &domain.EventRecord{
		Source:      pool,
		BlockNumber: block,
		LogPos:      logPos,
		User:        user,
		Amount:      big.NewInt(amount),
	}
}

func TestEventArchive_RangeIsStrict(t *testing.T) {
	archive := NewEventArchive()
	ctx := context.Background()
	pool := common.HexToAddress("0xaa")
	user := common.HexToAddress("0x01")

	err := archive.InsertBatch(ctx, []*domain.EventRecord{
		archiveRecord(pool, user, 100, 0, 1), // == start, excluded
		archiveRecord(pool, user, 101, 0, 2),
		archiveRecord(pool, user, 199, 0, 3),
		archiveRecord(pool, user, 200, 0, 4), // == end, excluded
	})
	if err != nil {
		t.Fatalf("InsertBatch failed: %v", err)
	}

	records, err := archive.GetByPoolRange(ctx, pool, 100, 200)
	if err != nil {
		t.Fatalf("GetByPoolRange failed: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
}

func TestEventArchive_OrderGroupsUsers(t *testing.T) {
	archive := NewEventArchive()
	ctx := context.Background()
	pool := common.HexToAddress("0xaa")
	u1 := common.HexToAddress("0x01")
	u2 := common.HexToAddress("0x02")

	// Interleaved by block; must come back grouped per user.
	_ = archive.InsertBatch(ctx, []*domain.EventRecord{
		archiveRecord(pool, u2, 110, 0, 1),
		archiveRecord(pool, u1, 111, 0, 2),
		archiveRecord(pool, u2, 112, 0, 3),
		archiveRecord(pool, u1, 113, 0, 4),
	})

	records, err := archive.GetByPoolRange(ctx, pool, 100, 200)
	if err != nil {
		t.Fatalf("GetByPoolRange failed: %v", err)
	}
	if len(records) != 4 {
		t.Fatalf("expected 4 records, got %d", len(records))
	}
	want := []common.Address{u1, u1, u2, u2}
	for i, r := range records {
		if r.User != want[i] {
			t.Errorf("record %d: user %s, want %s", i, r.User.Hex(), want[i].Hex())
		}
	}
}

func TestEventArchive_UserVolume(t *testing.T) {
	archive := NewEventArchive()
	ctx := context.Background()
	pool := common.HexToAddress("0xaa")
	user := common.HexToAddress("0x01")
	other := common.HexToAddress("0x02")

	_ = archive.InsertBatch(ctx, []*domain.EventRecord{
		archiveRecord(pool, user, 110, 0, 100),
		archiveRecord(pool, user, 111, 0, -40),
		archiveRecord(pool, other, 112, 0, 999),
	})

	vol, err := archive.UserVolume(ctx, pool, user, 100, 200)
	if err != nil {
		t.Fatalf("UserVolume failed: %v", err)
	}
	if vol.Cmp(big.NewInt(140)) != 0 {
		t.Errorf("expected 140, got %s", vol)
	}
}
