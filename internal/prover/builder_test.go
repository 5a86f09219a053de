package prover

import (
	"context"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"univip-hook/internal/aggregation"
	"univip-hook/internal/attest"
	"univip-hook/internal/domain"
	"univip-hook/internal/storage/memory"
)

var (
	proverPool   = common.HexToAddress("0xaa")
	proverHook   = common.HexToAddress("0xbb")
	proverPoolID = common.HexToHash("0x1234")
)

func archived(user common.Address, block uint64, amount int64) *domain.EventRecord {
	return &domain.EventRecord{
		Source:      proverPool,
		EventID:     aggregation.SwapEventID,
		BlockNumber: block,
		User:        user,
		Amount:      big.NewInt(amount),
	}
}

func TestBuild_GroupsUsersIntoSegments(t *testing.T) {
	archive := memory.NewEventArchive()
	ctx := context.Background()
	u1 := common.HexToAddress("0x01")
	u2 := common.HexToAddress("0x02")

	require.NoError(t, archive.InsertBatch(ctx, []*domain.EventRecord{
		archived(u2, 110, 5),
		archived(u1, 111, 10),
		archived(u2, 112, 7),
	}))

	bb := NewBatchBuilder(archive)
	b, err := bb.Build(ctx, proverPool, proverHook, proverPoolID, 1, 100, 200, domain.ZeroTiers())
	require.NoError(t, err)

	assert.Equal(t, u1, b.Segments[0].Owner)
	assert.Len(t, b.Segments[0].Records, 1)
	assert.Equal(t, u2, b.Segments[1].Owner)
	assert.Len(t, b.Segments[1].Records, 2)
	assert.Equal(t, common.Address{}, b.Segments[2].Owner)
}

func TestBuild_LargeUserSpansAdjacentSegments(t *testing.T) {
	archive := memory.NewEventArchive()
	ctx := context.Background()
	u1 := common.HexToAddress("0x01")

	var records []*domain.EventRecord
	for i := 0; i < domain.SegmentCapacity+10; i++ {
		records = append(records, archived(u1, 101+uint64(i%90), 1))
	}
	require.NoError(t, archive.InsertBatch(ctx, records))

	bb := NewBatchBuilder(archive)
	b, err := bb.Build(ctx, proverPool, proverHook, proverPoolID, 1, 100, 200, domain.ZeroTiers())
	require.NoError(t, err)

	assert.Equal(t, u1, b.Segments[0].Owner)
	assert.Len(t, b.Segments[0].Records, domain.SegmentCapacity)
	assert.Equal(t, u1, b.Segments[1].Owner)
	assert.Len(t, b.Segments[1].Records, 10)

	// The adjacent run credits the whole volume to the run's last segment.
	volumes := aggregation.AggregateVolumes(b)
	assert.Zero(t, volumes[1].Volume.Cmp(big.NewInt(int64(domain.SegmentCapacity+10))))
}

func TestBuild_Overflow(t *testing.T) {
	archive := memory.NewEventArchive()
	ctx := context.Background()

	// 33 distinct users cannot fit 32 segments.
	var records []*domain.EventRecord
	for i := 0; i < domain.MaxSegments+1; i++ {
		user := common.BytesToAddress([]byte{byte(i + 1)})
		records = append(records, archived(user, 110, 1))
	}
	require.NoError(t, archive.InsertBatch(ctx, records))

	bb := NewBatchBuilder(archive)
	_, err := bb.Build(ctx, proverPool, proverHook, proverPoolID, 1, 100, 200, domain.ZeroTiers())
	require.ErrorIs(t, err, ErrBatchOverflow)
}

func TestProduce_AttestationDecodesToComputedDiscounts(t *testing.T) {
	archive := memory.NewEventArchive()
	ctx := context.Background()
	u1 := common.HexToAddress("0x01")

	require.NoError(t, archive.InsertBatch(ctx, []*domain.EventRecord{
		archived(u1, 110, 600),
	}))

	tiers := domain.TierConfig{
		{MinVolume: big.NewInt(100), DiscountBps: 1000},
		{MinVolume: big.NewInt(500), DiscountBps: 3000},
		{MinVolume: big.NewInt(1000), DiscountBps: 5000},
		{MinVolume: big.NewInt(5000), DiscountBps: 7000},
		{MinVolume: big.NewInt(10000), DiscountBps: 9000},
	}

	bb := NewBatchBuilder(archive)
	b, err := bb.Build(ctx, proverPool, proverHook, proverPoolID, 42, 100, 200, tiers)
	require.NoError(t, err)

	producer := NewProducer([]byte("test verifying key"))
	att := producer.Produce(b)

	assert.Equal(t, attest.Fingerprint([]byte("test verifying key")), att.VKFingerprint)

	epoch, users, discounts, err := attest.DecodeBatchOutput(att.Payload)
	require.NoError(t, err)
	assert.Equal(t, uint32(42), epoch)
	assert.Equal(t, u1, users[0])
	assert.Equal(t, uint16(3000), discounts[0])
}
