package ingestion

import (
	"context"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"univip-hook/internal/storage/memory"
)

// stubChain serves a fixed head and canned logs, recording queries.
type stubChain struct {
	head    uint64
	logs    []types.Log
	queries []ethereum.FilterQuery
}

func (s *stubChain) HeaderByNumber(_ context.Context, _ *big.Int) (*types.Header, error) {
	return &types.Header{Number: new(big.Int).SetUint64(s.head)}, nil
}

func (s *stubChain) FilterLogs(_ context.Context, q ethereum.FilterQuery) ([]types.Log, error) {
	s.queries = append(s.queries, q)
	var out []types.Log
	for _, lg := range s.logs {
		if lg.BlockNumber >= q.FromBlock.Uint64() && lg.BlockNumber <= q.ToBlock.Uint64() {
			out = append(out, lg)
		}
	}
	return out, nil
}

func TestMonitorProcessNewBlocks(t *testing.T) {
	tx := common.HexToHash("0x01")
	trader := common.HexToAddress("0xaaaa")
	chain := &stubChain{
		head: 120,
		logs: []types.Log{
			swapLog(tx, 110, 0, common.Address{}, big.NewInt(300)),
			originLog(tx, 110, 1, trader),
		},
	}
	archive := memory.NewEventArchive()

	m := NewMonitor(chain, archive, MonitorConfig{
		PoolAddr:   testPool,
		HookAddr:   testHook,
		StartBlock: 101,
	}, nil)
	m.lastProcessed = 100

	require.NoError(t, m.ProcessNewBlocks(context.Background()))
	assert.Equal(t, uint64(120), m.LastProcessed())

	got, err := archive.GetByPoolRange(context.Background(), testPool, 100, 120)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, trader, got[0].User)
	assert.Equal(t, int64(300), got[0].Amount.Int64())

	// The filter asks for both contracts and both topics.
	require.Len(t, chain.queries, 1)
	assert.Equal(t, []common.Address{testPool, testHook}, chain.queries[0].Addresses)
}

func TestMonitorRespectsBatchSize(t *testing.T) {
	chain := &stubChain{head: 5000}
	archive := memory.NewEventArchive()

	m := NewMonitor(chain, archive, MonitorConfig{BatchSize: 1000}, nil)
	m.lastProcessed = 100

	require.NoError(t, m.ProcessNewBlocks(context.Background()))
	assert.Equal(t, uint64(1100), m.LastProcessed())

	require.Len(t, chain.queries, 1)
	assert.Equal(t, uint64(101), chain.queries[0].FromBlock.Uint64())
	assert.Equal(t, uint64(1100), chain.queries[0].ToBlock.Uint64())
}

func TestMonitorNoNewBlocks(t *testing.T) {
	chain := &stubChain{head: 100}
	m := NewMonitor(chain, memory.NewEventArchive(), MonitorConfig{}, nil)
	m.lastProcessed = 100

	require.NoError(t, m.ProcessNewBlocks(context.Background()))
	assert.Empty(t, chain.queries)
	assert.Equal(t, uint64(100), m.LastProcessed())
}

func TestCollectorFlushesOnBlockBoundary(t *testing.T) {
	archive := memory.NewEventArchive()
	c := NewCollector(archive, testHook, nil)
	ctx := context.Background()

	tx1 := common.HexToHash("0x01")
	tx2 := common.HexToHash("0x02")
	alice := common.HexToAddress("0xaaaa")

	require.NoError(t, c.Add(ctx, swapLog(tx1, 100, 0, common.Address{}, big.NewInt(10))))
	require.NoError(t, c.Add(ctx, originLog(tx1, 100, 1, alice)))

	// Block 100 is still buffered.
	got, err := archive.GetByPoolRange(ctx, testPool, 0, 1000)
	require.NoError(t, err)
	assert.Empty(t, got)

	// A block-101 log flushes block 100 with the pairing intact.
	require.NoError(t, c.Add(ctx, swapLog(tx2, 101, 0, common.Address{}, big.NewInt(20))))

	got, err = archive.GetByPoolRange(ctx, testPool, 0, 1000)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, alice, got[0].User)

	require.NoError(t, c.Flush(ctx))
	got, err = archive.GetByPoolRange(ctx, testPool, 0, 1000)
	require.NoError(t, err)
	assert.Len(t, got, 2)
}
