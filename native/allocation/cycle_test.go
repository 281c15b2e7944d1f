package allocation_test

import (
	"errors"
	"testing"

	"aquachain/native/allocation"
)

func TestCycleIDDerivation(t *testing.T) {
	module := newTestModule(t)
	cases := map[uint64]uint64{0: 0, 143: 0, 144: 1, 1000: 6, 1439: 9}
	for height, expected := range cases {
		if got := module.CycleID(height); got != expected {
			t.Fatalf("height %d: expected cycle %d, got %d", height, expected, got)
		}
	}
}

func TestStartCycleLifecycle(t *testing.T) {
	module := newTestModule(t)

	// Height 10 is still inside the genesis cycle window.
	if err := module.StartCycle(testAdmin, 10); !errors.Is(err, allocation.ErrCycleNotReady) {
		t.Fatalf("expected ErrCycleNotReady inside genesis cycle, got %v", err)
	}

	mustStart(t, module, 144)

	if err := module.StartCycle(testAdmin, 200); !errors.Is(err, allocation.ErrCycleNotReady) {
		t.Fatalf("expected ErrCycleNotReady while active, got %v", err)
	}

	if err := module.FinalizeCycle(testAdmin, 200); err != nil {
		t.Fatalf("finalize: %v", err)
	}

	// The cycle id has not advanced past the finalization block.
	if err := module.StartCycle(testAdmin, 200); !errors.Is(err, allocation.ErrCycleNotReady) {
		t.Fatalf("expected ErrCycleNotReady at finalization block, got %v", err)
	}
	if err := module.StartCycle(testAdmin, 287); !errors.Is(err, allocation.ErrCycleNotReady) {
		t.Fatalf("expected ErrCycleNotReady within same cycle window, got %v", err)
	}
	mustStart(t, module, 288)
}

func TestFinalizeWithoutActiveCycle(t *testing.T) {
	module := newTestModule(t)
	if err := module.FinalizeCycle(testAdmin, 144); !errors.Is(err, allocation.ErrCycleNotReady) {
		t.Fatalf("expected ErrCycleNotReady, got %v", err)
	}
}

func TestCycleStatus(t *testing.T) {
	module := newTestModule(t)

	status, err := module.CycleStatus(1000)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if status.Active || status.LastBlock != 0 || status.CurrentCycle != 6 || !status.Ready {
		t.Fatalf("unexpected idle status: %+v", status)
	}

	mustStart(t, module, 1000)
	status, err = module.CycleStatus(1000)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if !status.Active {
		t.Fatalf("expected active status: %+v", status)
	}

	if err := module.FinalizeCycle(testAdmin, 1010); err != nil {
		t.Fatalf("finalize: %v", err)
	}
	status, err = module.CycleStatus(1010)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if status.Active || status.LastBlock != 1010 || status.Ready {
		t.Fatalf("unexpected finalized status: %+v", status)
	}
}

func TestCycleTransitionsRequireAdmin(t *testing.T) {
	module := newTestModule(t)
	if err := module.StartCycle(addr(0x99), 144); !errors.Is(err, allocation.ErrNotAuthorized) {
		t.Fatalf("expected ErrNotAuthorized on start, got %v", err)
	}
	mustStart(t, module, 144)
	if err := module.FinalizeCycle(addr(0x99), 150); !errors.Is(err, allocation.ErrNotAuthorized) {
		t.Fatalf("expected ErrNotAuthorized on finalize, got %v", err)
	}
}
