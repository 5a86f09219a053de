package hook

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"univip-hook/internal/domain"
	"univip-hook/internal/observability"
	"univip-hook/internal/storage"
)

// Relay lifecycle errors. The host's atomic per-transaction execution
// guarantees no new pre-swap begins before the prior post-swap completes;
// these errors only surface on a misbehaving host.
var (
	ErrRelayActive   = errors.New("relay already active for this swap")
	ErrRelayInactive = errors.New("relay not populated by a pre-swap phase")
)

// Swap describes one swap being executed by the host.
type Swap struct {
	Pool       domain.PoolID
	User       common.Address
	ZeroForOne bool
	// ExactInput selects the extraction phase: exact-input swaps extract the
	// protocol cut at settlement inside the pre-swap phase, exact-output
	// swaps extract it in the post-swap phase once the true input is known.
	ExactInput bool
	// AmountIn is the specified input for exact-input swaps; ignored for
	// exact-output swaps until post-swap, when ConsumedInput carries the
	// actual amount the swap consumed.
	AmountIn      *big.Int
	ConsumedInput *big.Int
}

// Settlement is the outcome of one extraction: the fee charged on the input
// amount and the protocol cut withheld from it. Withheld is always ≤ FeeAmount.
type Settlement struct {
	FeePPM    uint32
	FeeAmount *big.Int
	Withheld  *big.Int
}

// Engine drives the two-phase swap lifecycle: fee blending and relay
// population at pre-swap, protocol-fee extraction at whichever phase knows the
// input amount, relay consumption at post-swap.
type Engine struct {
	blender    *Blender
	params     storage.PoolParamsStore
	reinvestor Reinvestor
	oracle     Oracle
	poolState  PoolStateReader
	logger     *log.Logger
}

// NewEngine creates a swap engine. oracle and reinvestor may be nil when the
// deployment has no such collaborator; their notifications are best-effort
// either way.
func NewEngine(blender *Blender, params storage.PoolParamsStore, reinvestor Reinvestor, oracle Oracle, poolState PoolStateReader, logger *log.Logger) *Engine {
	if logger == nil {
		logger = log.Default()
	}
	return &Engine{
		blender:    blender,
		params:     params,
		reinvestor: reinvestor,
		oracle:     oracle,
		poolState:  poolState,
		logger:     logger,
	}
}

// BeforeSwap runs the pre-swap phase: compute the discounted fee, snapshot the
// pre-swap tick into the relay, push the best-effort price observation, and
// for exact-input swaps extract the protocol cut from the specified input.
// The returned settlement is zero-valued for exact-output swaps, whose
// extraction waits for AfterSwap.
func (e *Engine) BeforeSwap(ctx context.Context, sw *Swap, relay *domain.RelayState) (Settlement, error) {
	if relay.Active {
		return Settlement{}, ErrRelayActive
	}

	fee, err := e.blender.ComputeFee(ctx, sw.Pool, sw.User)
	if err != nil {
		return Settlement{}, fmt.Errorf("compute fee: %w", err)
	}

	tick, err := e.poolState.CurrentTick(ctx, sw.Pool)
	if err != nil {
		return Settlement{}, fmt.Errorf("read pool tick: %w", err)
	}

	relay.DiscountedFee = fee
	relay.PreSwapTick = tick
	relay.Active = true
	observability.RecordSwap(sw.ExactInput)

	// Price update is best-effort: a failed push is superseded by the next
	// swap's own attempt.
	if e.oracle != nil {
		if err := e.oracle.RecordObservation(ctx, sw.Pool, tick); err != nil {
			e.logger.Printf("oracle observation failed for pool %s: %v", sw.Pool.Hex(), err)
			observability.RecordNotifyFailure("oracle")
		}
	}

	if !sw.ExactInput {
		return Settlement{FeePPM: fee, FeeAmount: new(big.Int), Withheld: new(big.Int)}, nil
	}
	return e.extract(ctx, sw, fee, sw.AmountIn)
}

// AfterSwap runs the post-swap phase. For exact-output swaps it performs the
// symmetric extraction using the relayed fee and the now-known consumed
// input. The relay is consumed and invalid afterwards.
func (e *Engine) AfterSwap(ctx context.Context, sw *Swap, relay *domain.RelayState) (Settlement, error) {
	if !relay.Active {
		return Settlement{}, ErrRelayInactive
	}
	fee := relay.DiscountedFee
	*relay = domain.RelayState{}

	if sw.ExactInput {
		// Extraction already happened at settlement in the pre-swap phase.
		return Settlement{FeePPM: fee, FeeAmount: new(big.Int), Withheld: new(big.Int)}, nil
	}
	return e.extract(ctx, sw, fee, sw.ConsumedInput)
}

// extract computes the swap fee on an input amount and withholds the protocol
// share, crediting it to the reinvestment collaborator.
func (e *Engine) extract(ctx context.Context, sw *Swap, feePPM uint32, input *big.Int) (Settlement, error) {
	s := Settlement{FeePPM: feePPM, FeeAmount: new(big.Int), Withheld: new(big.Int)}
	if input == nil || input.Sign() <= 0 {
		return s, nil
	}

	params, err := e.params.GetParams(ctx, sw.Pool)
	if err != nil {
		return Settlement{}, fmt.Errorf("read pool params: %w", err)
	}
	if params.ProtocolSharePPM == 0 {
		return s, nil
	}

	// feeAmount = ceil(input * fee / 1e6); cut = ceil(feeAmount * share / 1e6).
	s.FeeAmount = ceilDiv(new(big.Int).Mul(input, big.NewInt(int64(feePPM))), domain.FeePPMScale)
	s.Withheld = ceilDiv(new(big.Int).Mul(s.FeeAmount, big.NewInt(int64(params.ProtocolSharePPM))), domain.FeePPMScale)

	if s.Withheld.Sign() > 0 {
		observability.RecordProtocolCut()
		if e.reinvestor != nil {
			amount0, amount1 := new(big.Int), new(big.Int)
			if sw.ZeroForOne {
				amount0.Set(s.Withheld)
			} else {
				amount1.Set(s.Withheld)
			}
			if err := e.reinvestor.NotifyFee(ctx, sw.Pool, amount0, amount1); err != nil {
				e.logger.Printf("fee notification failed for pool %s: %v", sw.Pool.Hex(), err)
				observability.RecordNotifyFailure("reinvestor")
			}
		}
	}
	return s, nil
}

// ceilDiv returns ceil(n / d) for non-negative n and positive d.
func ceilDiv(n *big.Int, d int64) *big.Int {
	q, r := new(big.Int).QuoRem(n, big.NewInt(d), new(big.Int))
	if r.Sign() != 0 {
		q.Add(q, big.NewInt(1))
	}
	return q
}
