package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/ethereum/go-ethereum/common"

	"univip-hook/internal/storage"
)

func TestDiscountStore_DefaultZero(t *testing.T) {
	store := NewDiscountStore()
	ctx := context.Background()

	bps, err := store.GetDiscount(ctx, common.HexToAddress("0x01"))
	if err != nil {
		t.Fatalf("GetDiscount failed: %v", err)
	}
	if bps != 0 {
		t.Errorf("expected 0 for absent user, got %d", bps)
	}
}

func TestDiscountStore_UpsertOverwrites(t *testing.T) {
	store := NewDiscountStore()
	ctx := context.Background()
	user := common.HexToAddress("0x01")

	if err := store.Upsert(ctx, user, 3000); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}
	if err := store.Upsert(ctx, user, 1000); err != nil {
		t.Fatalf("second Upsert failed: %v", err)
	}

	bps, err := store.GetDiscount(ctx, user)
	if err != nil {
		t.Fatalf("GetDiscount failed: %v", err)
	}
	if bps != 1000 {
		t.Errorf("expected overwrite to 1000, got %d", bps)
	}
}

func TestDiscountStore_RejectsOutOfRange(t *testing.T) {
	store := NewDiscountStore()
	ctx := context.Background()

	err := store.Upsert(ctx, common.HexToAddress("0x01"), 10001)
	if !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}

	// 10000 exactly is the full-discount bound and must be accepted.
	if err := store.Upsert(ctx, common.HexToAddress("0x01"), 10000); err != nil {
		t.Errorf("Upsert(10000) failed: %v", err)
	}
}

func TestWhitelistStore_AddRemoveContains(t *testing.T) {
	store := NewWhitelistStore()
	ctx := context.Background()
	fp := common.HexToHash("0xdead")

	ok, err := store.Contains(ctx, fp)
	if err != nil || ok {
		t.Fatalf("expected absent fingerprint, got ok=%v err=%v", ok, err)
	}

	if err := store.Add(ctx, fp); err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if err := store.Add(ctx, fp); err != nil {
		t.Fatalf("re-Add failed: %v", err)
	}

	ok, _ = store.Contains(ctx, fp)
	if !ok {
		t.Error("expected fingerprint after Add")
	}

	if err := store.Remove(ctx, fp); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	ok, _ = store.Contains(ctx, fp)
	if ok {
		t.Error("expected fingerprint gone after Remove")
	}
}

func TestPoolParamsStore_Defaults(t *testing.T) {
	store := NewPoolParamsStore()
	ctx := context.Background()
	pool := common.HexToHash("0x01")

	p, err := store.GetParams(ctx, pool)
	if err != nil {
		t.Fatalf("GetParams failed: %v", err)
	}
	if p.ManualFeeSet || p.ManualFee != 0 || p.ProtocolSharePPM != 0 {
		t.Errorf("expected zero params, got %+v", p)
	}
}

func TestPoolParamsStore_SetAndClear(t *testing.T) {
	store := NewPoolParamsStore()
	ctx := context.Background()
	pool := common.HexToHash("0x01")

	if err := store.SetManualFee(ctx, pool, 5000); err != nil {
		t.Fatalf("SetManualFee failed: %v", err)
	}
	if err := store.SetProtocolShare(ctx, pool, 200000); err != nil {
		t.Fatalf("SetProtocolShare failed: %v", err)
	}

	p, _ := store.GetParams(ctx, pool)
	if !p.ManualFeeSet || p.ManualFee != 5000 || p.ProtocolSharePPM != 200000 {
		t.Errorf("unexpected params: %+v", p)
	}

	if err := store.ClearManualFee(ctx, pool); err != nil {
		t.Fatalf("ClearManualFee failed: %v", err)
	}
	p, _ = store.GetParams(ctx, pool)
	if p.ManualFeeSet {
		t.Error("manual fee still set after clear")
	}
	if p.ProtocolSharePPM != 200000 {
		t.Error("clearing manual fee must not touch protocol share")
	}
}

func TestEpochStore_LastEpoch(t *testing.T) {
	store := NewEpochStore()
	ctx := context.Background()
	fp := common.HexToHash("0x01")

	if _, err := store.LastEpoch(ctx, fp); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected ErrNotFound before any apply, got %v", err)
	}

	_ = store.RecordApply(ctx, fp, 3, 32)
	_ = store.RecordApply(ctx, fp, 7, 32)

	epoch, err := store.LastEpoch(ctx, fp)
	if err != nil {
		t.Fatalf("LastEpoch failed: %v", err)
	}
	if epoch != 7 {
		t.Errorf("expected last epoch 7, got %d", epoch)
	}
}
