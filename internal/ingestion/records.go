package ingestion

import (
	"math/big"
	"sort"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"univip-hook/internal/aggregation"
	"univip-hook/internal/domain"
)

// swapDataWords is the ABI data payload of the pool swap event:
// amount0, amount1, sqrtPriceX96, liquidity, tick, fee.
const swapDataWords = 6

// BuildRecords turns raw pool and hook logs into archive records. Pool swap
// logs carry the signed amount; hook origin logs carry the trader behind the
// router. Within one transaction the i-th swap pairs with the i-th origin, in
// log order. Only origin logs emitted by the hook contract participate in
// pairing; swaps with no origin fall back to the swap sender.
func BuildRecords(hook common.Address, logs []types.Log) []*domain.EventRecord {
	byTx := make(map[common.Hash][]types.Log)
	var txOrder []common.Hash
	for _, lg := range logs {
		if _, seen := byTx[lg.TxHash]; !seen {
			txOrder = append(txOrder, lg.TxHash)
		}
		byTx[lg.TxHash] = append(byTx[lg.TxHash], lg)
	}

	var records []*domain.EventRecord
	for _, tx := range txOrder {
		group := byTx[tx]
		sort.Slice(group, func(i, j int) bool { return group[i].Index < group[j].Index })

		var swaps, origins []types.Log
		for _, lg := range group {
			if len(lg.Topics) == 0 {
				continue
			}
			switch lg.Topics[0] {
			case aggregation.SwapEventID:
				swaps = append(swaps, lg)
			case aggregation.HookEventID:
				if lg.Address == hook {
					origins = append(origins, lg)
				}
			}
		}

		for i, swap := range swaps {
			r := decodeSwap(swap)
			if r == nil {
				continue
			}
			if i < len(origins) && len(origins[i].Topics) >= 3 {
				r.User = common.BytesToAddress(origins[i].Topics[2].Bytes())
			}
			records = append(records, r)
		}
	}
	return records
}

// decodeSwap extracts a record from one pool swap log. Returns nil for logs
// whose shape does not match the event.
func decodeSwap(lg types.Log) *domain.EventRecord {
	if len(lg.Topics) < 3 || len(lg.Data) < swapDataWords*32 {
		return nil
	}
	return &domain.EventRecord{
		Source:      lg.Address,
		EventID:     lg.Topics[0],
		LogPos:      uint32(lg.Index),
		BlockNumber: lg.BlockNumber,
		TxHash:      lg.TxHash,
		User:        common.BytesToAddress(lg.Topics[2].Bytes()),
		Amount:      signedWord(lg.Data[:32]),
	}
}

// signedWord interprets a 32-byte ABI word as a signed two's-complement value.
func signedWord(word []byte) *big.Int {
	v := new(big.Int).SetBytes(word)
	if word[0]&0x80 != 0 {
		v.Sub(v, new(big.Int).Lsh(big.NewInt(1), 256))
	}
	return v
}
