package allocation_test

import (
	"errors"
	"math/big"
	"testing"

	"aquachain/core/events"
	"aquachain/core/state"
	"aquachain/native/allocation"
	"aquachain/storage"
)

func addr(index byte) [20]byte {
	var out [20]byte
	out[19] = index
	return out
}

var (
	testAdmin    = addr(0xAD)
	testTreasury = addr(0x77)
)

func newTestModule(t *testing.T) *allocation.Module {
	t.Helper()
	db := storage.NewMemDB()
	t.Cleanup(db.Close)
	manager := state.NewManager(db)
	params := allocation.DefaultParams()
	params.Treasury = testTreasury
	module, err := allocation.New(manager, params)
	if err != nil {
		t.Fatalf("new module: %v", err)
	}
	if err := module.InitAdmin(testAdmin); err != nil {
		t.Fatalf("init admin: %v", err)
	}
	return module
}

type capturingEmitter struct {
	events []events.Event
}

func (c *capturingEmitter) Emit(e events.Event) {
	c.events = append(c.events, e)
}

func (c *capturingEmitter) ofType(eventType string) []events.Event {
	var out []events.Event
	for _, e := range c.events {
		if e.EventType() == eventType {
			out = append(out, e)
		}
	}
	return out
}

type mintCall struct {
	recipient [20]byte
	amount    uint64
}

// mintRecorder satisfies allocation.TokenIssuer, recording mints and
// optionally rejecting the nth call.
type mintRecorder struct {
	mints      []mintCall
	burns      []mintCall
	failMintAt int
	failBurn   bool
}

func (r *mintRecorder) Mint(recipient [20]byte, amount *big.Int) error {
	if r.failMintAt > 0 && len(r.mints)+1 == r.failMintAt {
		return errors.New("issuer offline")
	}
	r.mints = append(r.mints, mintCall{recipient: recipient, amount: amount.Uint64()})
	return nil
}

func (r *mintRecorder) Burn(holder [20]byte, amount *big.Int) error {
	if r.failBurn {
		return errors.New("nothing to burn")
	}
	r.burns = append(r.burns, mintCall{recipient: holder, amount: amount.Uint64()})
	return nil
}

func (r *mintRecorder) Transfer(from, to [20]byte, amount *big.Int, memo string) error {
	return nil
}

type pauseAll struct{}

func (pauseAll) IsPaused(string) bool { return true }

func mustRegister(t *testing.T, m *allocation.Module, accounts ...[20]byte) {
	t.Helper()
	for _, account := range accounts {
		if err := m.Register(testAdmin, account, 1); err != nil {
			t.Fatalf("register %x: %v", account, err)
		}
	}
}

func mustReport(t *testing.T, m *allocation.Module, account [20]byte, amount, cycle, height uint64) {
	t.Helper()
	applied, err := m.ReportUsage(testAdmin, account, amount, cycle, height)
	if err != nil {
		t.Fatalf("report usage: %v", err)
	}
	if !applied {
		t.Fatalf("expected report for %x to apply", account)
	}
}

func mustStart(t *testing.T, m *allocation.Module, height uint64) {
	t.Helper()
	if err := m.StartCycle(testAdmin, height); err != nil {
		t.Fatalf("start cycle at %d: %v", height, err)
	}
}
