package postgres_test

import (
	"context"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"univip-hook/internal/storage"
	"univip-hook/internal/storage/postgres"
)

func TestDiscountStore_UpsertAndGet(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := postgres.NewDiscountStore(pool)
	ctx := context.Background()

	alice := common.HexToAddress("0xaaaa")

	// Absent users read as zero discount.
	bps, err := store.GetDiscount(ctx, alice)
	require.NoError(t, err)
	assert.Equal(t, uint16(0), bps)

	require.NoError(t, store.Upsert(ctx, alice, 3000))

	bps, err = store.GetDiscount(ctx, alice)
	require.NoError(t, err)
	assert.Equal(t, uint16(3000), bps)

	// Upsert overwrites unconditionally, including with zero.
	require.NoError(t, store.Upsert(ctx, alice, 0))

	bps, err = store.GetDiscount(ctx, alice)
	require.NoError(t, err)
	assert.Equal(t, uint16(0), bps)
}

func TestDiscountStore_RejectsOversizedDiscount(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := postgres.NewDiscountStore(pool)
	ctx := context.Background()

	err := store.Upsert(ctx, common.HexToAddress("0xaaaa"), 10001)
	assert.ErrorIs(t, err, storage.ErrInvalidInput)
}
