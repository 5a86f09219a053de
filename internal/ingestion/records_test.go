package ingestion

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"univip-hook/internal/aggregation"
)

var (
	testPool   = common.HexToAddress("0x1111")
	testHook   = common.HexToAddress("0x2222")
	testPoolID = common.HexToHash("0x99")
)

func swapLog(tx common.Hash, block uint64, index uint, sender common.Address, amount0 *big.Int) types.Log {
	data := make([]byte, swapDataWords*32)
	word := amount0
	if amount0.Sign() < 0 {
		// two's complement in the first word
		word = new(big.Int).Add(amount0, new(big.Int).Lsh(big.NewInt(1), 256))
	}
	word.FillBytes(data[:32])
	return types.Log{
		Address:     testPool,
		Topics:      []common.Hash{aggregation.SwapEventID, testPoolID, common.BytesToHash(sender.Bytes())},
		Data:        data,
		BlockNumber: block,
		TxHash:      tx,
		Index:       index,
	}
}

func originLog(tx common.Hash, block uint64, index uint, trader common.Address) types.Log {
	return types.Log{
		Address:     testHook,
		Topics:      []common.Hash{aggregation.HookEventID, testPoolID, common.BytesToHash(trader.Bytes())},
		BlockNumber: block,
		TxHash:      tx,
		Index:       index,
	}
}

func TestBuildRecords_PairsSwapWithOrigin(t *testing.T) {
	tx := common.HexToHash("0x01")
	router := common.HexToAddress("0x4242")
	trader := common.HexToAddress("0xaaaa")

	records := BuildRecords(testHook, []types.Log{
		swapLog(tx, 100, 0, router, big.NewInt(500)),
		originLog(tx, 100, 1, trader),
	})

	require.Len(t, records, 1)
	assert.Equal(t, trader, records[0].User)
	assert.Equal(t, testPool, records[0].Source)
	assert.Equal(t, aggregation.SwapEventID, records[0].EventID)
	assert.Equal(t, uint64(100), records[0].BlockNumber)
	assert.Equal(t, int64(500), records[0].Amount.Int64())
}

func TestBuildRecords_FallsBackToSenderWithoutOrigin(t *testing.T) {
	tx := common.HexToHash("0x02")
	router := common.HexToAddress("0xbbbb")

	records := BuildRecords(testHook, []types.Log{
		swapLog(tx, 100, 0, router, big.NewInt(7)),
	})

	require.Len(t, records, 1)
	assert.Equal(t, router, records[0].User)
}

func TestBuildRecords_IgnoresOriginFromForeignContract(t *testing.T) {
	tx := common.HexToHash("0x06")
	router := common.HexToAddress("0xbbbb")
	spoofed := common.HexToAddress("0xdddd")

	forged := originLog(tx, 100, 1, spoofed)
	forged.Address = common.HexToAddress("0x9999")

	records := BuildRecords(testHook, []types.Log{
		swapLog(tx, 100, 0, router, big.NewInt(500)),
		forged,
	})

	require.Len(t, records, 1)
	assert.Equal(t, router, records[0].User)
}

func TestBuildRecords_PairsByOrderWithinTx(t *testing.T) {
	tx := common.HexToHash("0x03")
	alice := common.HexToAddress("0xaaaa")
	bob := common.HexToAddress("0xbbbb")

	// Two swaps and two origins in one transaction, interleaved out of
	// slice order; log index decides the pairing.
	records := BuildRecords(testHook, []types.Log{
		originLog(tx, 100, 1, alice),
		swapLog(tx, 100, 2, common.Address{}, big.NewInt(20)),
		swapLog(tx, 100, 0, common.Address{}, big.NewInt(10)),
		originLog(tx, 100, 3, bob),
	})

	require.Len(t, records, 2)
	assert.Equal(t, alice, records[0].User)
	assert.Equal(t, int64(10), records[0].Amount.Int64())
	assert.Equal(t, bob, records[1].User)
	assert.Equal(t, int64(20), records[1].Amount.Int64())
}

func TestBuildRecords_NegativeAmount(t *testing.T) {
	tx := common.HexToHash("0x04")

	records := BuildRecords(testHook, []types.Log{
		swapLog(tx, 100, 0, common.HexToAddress("0xcc"), big.NewInt(-1234)),
	})

	require.Len(t, records, 1)
	assert.Equal(t, int64(-1234), records[0].Amount.Int64())
}

func TestBuildRecords_SkipsMalformedLogs(t *testing.T) {
	tx := common.HexToHash("0x05")
	short := swapLog(tx, 100, 0, common.HexToAddress("0xcc"), big.NewInt(1))
	short.Data = short.Data[:31]

	records := BuildRecords(testHook, []types.Log{
		short,
		{TxHash: tx, BlockNumber: 100, Index: 1}, // no topics
	})
	assert.Empty(t, records)
}

func TestSignedWord(t *testing.T) {
	word := make([]byte, 32)
	big.NewInt(42).FillBytes(word)
	assert.Equal(t, int64(42), signedWord(word).Int64())

	neg := new(big.Int).Add(big.NewInt(-42), new(big.Int).Lsh(big.NewInt(1), 256))
	neg.FillBytes(word)
	assert.Equal(t, int64(-42), signedWord(word).Int64())
}
