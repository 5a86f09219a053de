// Package gateway authenticates attested aggregation results and forwards the
// decoded discounts into the discount store. No aggregation is ever re-run
// here; authenticity rests entirely on the verifying-key fingerprint
// whitelist.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/ethereum/go-ethereum/common"

	"univip-hook/internal/attest"
	"univip-hook/internal/domain"
	"univip-hook/internal/observability"
	"univip-hook/internal/storage"
)

var (
	// ErrUnknownFingerprint is returned when an attestation's verifying-key
	// fingerprint is not whitelisted. Nothing is applied.
	ErrUnknownFingerprint = errors.New("unknown verifying key fingerprint")

	// ErrMalformedPayload is returned when an attestation payload does not
	// decode. Nothing is applied.
	ErrMalformedPayload = errors.New("malformed attestation payload")

	// ErrBatchMismatch is returned by ApplyAttestationBatch when the
	// fingerprint and payload slices differ in length.
	ErrBatchMismatch = errors.New("fingerprint and payload counts differ")
)

// Gateway applies authenticated attestations to the discount store.
type Gateway struct {
	whitelist storage.WhitelistStore
	discounts storage.DiscountStore
	epochs    storage.EpochStore
	logger    *log.Logger
}

// New creates a gateway over the given stores. epochs may be nil to skip the
// audit trail.
func New(whitelist storage.WhitelistStore, discounts storage.DiscountStore, epochs storage.EpochStore, logger *log.Logger) *Gateway {
	if logger == nil {
		logger = log.Default()
	}
	return &Gateway{
		whitelist: whitelist,
		discounts: discounts,
		epochs:    epochs,
		logger:    logger,
	}
}

// decodePayload decodes a batch output and range-checks every discount, so an
// apply never starts upserting a payload that would fail partway through.
func decodePayload(payload []byte) (uint32, [domain.MaxSegments]common.Address, [domain.MaxSegments]uint16, error) {
	epoch, users, discounts, err := attest.DecodeBatchOutput(payload)
	if err != nil {
		return 0, users, discounts, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	for i := range discounts {
		if discounts[i] > domain.MaxDiscountBps {
			return 0, users, discounts, fmt.Errorf("%w: slot %d discount %d exceeds %d bps",
				ErrMalformedPayload, i, discounts[i], domain.MaxDiscountBps)
		}
	}
	return epoch, users, discounts, nil
}

// ApplyAttestation verifies the fingerprint against the whitelist, decodes the
// payload and upserts every attested discount. The call either fully succeeds
// or leaves the store untouched: authentication, decoding and discount range
// checks all happen before the first upsert. Padding slots (zero user
// address) are skipped.
func (g *Gateway) ApplyAttestation(ctx context.Context, fp common.Hash, payload []byte) error {
	ok, err := g.whitelist.Contains(ctx, fp)
	if err != nil {
		return fmt.Errorf("whitelist lookup: %w", err)
	}
	if !ok {
		observability.RecordAttestationRejected("unknown_fingerprint")
		return ErrUnknownFingerprint
	}

	epoch, users, discounts, err := decodePayload(payload)
	if err != nil {
		observability.RecordAttestationRejected("malformed_payload")
		return err
	}

	applied := 0
	for i := range users {
		if users[i] == (common.Address{}) {
			continue
		}
		if err := g.discounts.Upsert(ctx, users[i], discounts[i]); err != nil {
			return fmt.Errorf("upsert discount for %s: %w", users[i].Hex(), err)
		}
		applied++
	}

	if g.epochs != nil {
		if err := g.epochs.RecordApply(ctx, fp, epoch, applied); err != nil {
			// Audit trail only; the apply itself already succeeded.
			g.logger.Printf("epoch audit record failed for %s epoch %d: %v", fp.Hex(), epoch, err)
		}
	}
	observability.RecordAttestationApplied(applied)
	g.logger.Printf("applied attestation epoch=%d users=%d fp=%s", epoch, applied, fp.Hex())
	return nil
}

// ApplyAttestationBatch applies several attestations as one all-or-nothing
// call: every fingerprint is authenticated and every payload decoded before
// any of them takes effect, so one bad entry aborts the whole batch.
func (g *Gateway) ApplyAttestationBatch(ctx context.Context, fps []common.Hash, payloads [][]byte) error {
	if len(fps) != len(payloads) {
		return ErrBatchMismatch
	}

	for i, fp := range fps {
		ok, err := g.whitelist.Contains(ctx, fp)
		if err != nil {
			return fmt.Errorf("whitelist lookup: %w", err)
		}
		if !ok {
			return fmt.Errorf("entry %d: %w", i, ErrUnknownFingerprint)
		}
		if _, _, _, err := decodePayload(payloads[i]); err != nil {
			return fmt.Errorf("entry %d: %w", i, err)
		}
	}

	for i, fp := range fps {
		if err := g.ApplyAttestation(ctx, fp, payloads[i]); err != nil {
			return fmt.Errorf("entry %d: %w", i, err)
		}
	}
	return nil
}
