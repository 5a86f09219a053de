// Package hook implements the swap-time half of the protocol: blending the
// base/surge/manual fee sources with the attested per-user discount, carrying
// state across the two swap callbacks, and extracting the protocol cut.
package hook

import (
	"context"
	"math/big"

	"univip-hook/internal/domain"
)

// FeeSource exposes the pool's externally managed fee configuration.
type FeeSource interface {
	// GetManualFee returns the manual fee override (ppm) and whether one is
	// configured for the pool.
	GetManualFee(ctx context.Context, pool domain.PoolID) (uint32, bool, error)

	// GetFeeState returns the dynamic base and surge fee (ppm) for the pool.
	GetFeeState(ctx context.Context, pool domain.PoolID) (domain.PoolFeeState, error)
}

// Reinvestor receives protocol cuts withheld from swap fees. Deposit handling
// beyond this interface is out of scope for this engine.
type Reinvestor interface {
	// NotifyFee credits a withheld fee amount, denominated per token side.
	NotifyFee(ctx context.Context, pool domain.PoolID, amount0, amount1 *big.Int) error
}

// Oracle receives best-effort price observations during swap execution.
type Oracle interface {
	// RecordObservation pushes the pre-swap tick for the pool.
	RecordObservation(ctx context.Context, pool domain.PoolID, tick int32) error
}

// PoolStateReader exposes the current pool price tick.
type PoolStateReader interface {
	// CurrentTick returns the pool's current price tick.
	CurrentTick(ctx context.Context, pool domain.PoolID) (int32, error)
}
