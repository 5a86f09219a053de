package prover

import (
	"time"

	"github.com/ethereum/go-ethereum/common"

	"univip-hook/internal/aggregation"
	"univip-hook/internal/attest"
	"univip-hook/internal/domain"
	"univip-hook/internal/observability"
)

// Producer turns batches into attestations carrying this producer's
// verifying-key fingerprint. The fingerprint must be whitelisted on the
// consuming side before its attestations take effect.
type Producer struct {
	fingerprint common.Hash
}

// NewProducer creates a producer for the given verifying key.
func NewProducer(vk []byte) *Producer {
	return &Producer{fingerprint: attest.Fingerprint(vk)}
}

// Fingerprint returns the producer's whitelist key.
func (p *Producer) Fingerprint() common.Hash {
	return p.fingerprint
}

// Produce runs the full aggregation pass over a batch and packs the result
// into an attestation.
func (p *Producer) Produce(b *domain.Batch) *domain.Attestation {
	start := time.Now()
	users, discounts := aggregation.ComputeDiscounts(b)
	observability.DefaultMetrics.AggregationTime.Observe(time.Since(start).Seconds())
	observability.DefaultMetrics.BatchesBuilt.Inc()

	return &domain.Attestation{
		VKFingerprint: p.fingerprint,
		Payload:       attest.EncodeBatchOutput(b.Epoch, users, discounts),
	}
}
