package state_test

import (
	"math/big"
	"testing"

	"aquachain/core/state"
	"aquachain/storage"
)

func newTestManager(t *testing.T) *state.Manager {
	t.Helper()
	db := storage.NewMemDB()
	t.Cleanup(db.Close)
	return state.NewManager(db)
}

func TestKVRoundTrip(t *testing.T) {
	manager := newTestManager(t)

	type record struct {
		Used       uint64
		ReportedAt uint64
	}
	key := []byte("test:record")

	var out record
	ok, err := manager.KVGet(key, &out)
	if err != nil {
		t.Fatalf("get empty: %v", err)
	}
	if ok {
		t.Fatalf("expected missing key")
	}

	if err := manager.KVPut(key, record{Used: 500, ReportedAt: 1000}); err != nil {
		t.Fatalf("put: %v", err)
	}
	ok, err = manager.KVGet(key, &out)
	if err != nil || !ok {
		t.Fatalf("get: ok=%v err=%v", ok, err)
	}
	if out.Used != 500 || out.ReportedAt != 1000 {
		t.Fatalf("unexpected value: %+v", out)
	}
}

func TestKVGetExistenceOnly(t *testing.T) {
	manager := newTestManager(t)
	key := []byte("test:flag")
	if err := manager.KVPut(key, true); err != nil {
		t.Fatalf("put: %v", err)
	}
	ok, err := manager.KVGet(key, nil)
	if err != nil || !ok {
		t.Fatalf("existence check: ok=%v err=%v", ok, err)
	}
}

func TestKVRejectsEmptyKey(t *testing.T) {
	manager := newTestManager(t)
	if err := manager.KVPut(nil, uint64(1)); err == nil {
		t.Fatalf("expected empty key to be rejected")
	}
	if _, err := manager.KVGet(nil, nil); err == nil {
		t.Fatalf("expected empty key to be rejected")
	}
}

func TestTokenBalanceDefaultsToZero(t *testing.T) {
	manager := newTestManager(t)
	var holder [20]byte
	holder[19] = 1

	balance, err := manager.TokenBalance(holder)
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if balance.Sign() != 0 {
		t.Fatalf("expected zero balance, got %s", balance)
	}

	if err := manager.SetTokenBalance(holder, big.NewInt(42)); err != nil {
		t.Fatalf("set balance: %v", err)
	}
	balance, err = manager.TokenBalance(holder)
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if balance.Cmp(big.NewInt(42)) != 0 {
		t.Fatalf("expected balance 42, got %s", balance)
	}
}

func TestSetTokenBalanceRejectsNegative(t *testing.T) {
	manager := newTestManager(t)
	var holder [20]byte
	if err := manager.SetTokenBalance(holder, big.NewInt(-1)); err == nil {
		t.Fatalf("expected negative balance to be rejected")
	}
	if err := manager.SetTokenSupply(nil); err == nil {
		t.Fatalf("expected nil supply to be rejected")
	}
}
