package allocation

import (
	"fmt"

	"aquachain/core/events"
)

// CycleState is the persisted lifecycle flag pair. Active is true only
// between a successful StartCycle and the matching FinalizeCycle; at most one
// cycle is active at a time.
type CycleState struct {
	Active              bool
	LastAllocationBlock uint64
}

// Status is the read surface exposed to callers and UIs.
type Status struct {
	Active       bool
	LastBlock    uint64
	CurrentCycle uint64
	Ready        bool
}

// CycleID derives the cycle identifier for a block height. It is a pure
// function of the block counter and is never stored.
func (m *Module) CycleID(height uint64) uint64 {
	return height / m.params.CycleLength
}

func (m *Module) loadCycleState() (CycleState, error) {
	var st CycleState
	if _, err := m.st.KVGet([]byte(keyCycleState), &st); err != nil {
		return CycleState{}, err
	}
	return st, nil
}

// IsCycleReady reports whether the block counter has advanced into a cycle
// window beyond the one in which the previous cycle was finalized.
func (m *Module) IsCycleReady(height uint64) (bool, error) {
	st, err := m.loadCycleState()
	if err != nil {
		return false, err
	}
	return m.CycleID(height) > m.CycleID(st.LastAllocationBlock), nil
}

// CycleStatus summarises the lifecycle state at the given height.
func (m *Module) CycleStatus(height uint64) (Status, error) {
	st, err := m.loadCycleState()
	if err != nil {
		return Status{}, err
	}
	return Status{
		Active:       st.Active,
		LastBlock:    st.LastAllocationBlock,
		CurrentCycle: m.CycleID(height),
		Ready:        m.CycleID(height) > m.CycleID(st.LastAllocationBlock),
	}, nil
}

// StartCycle opens an allocation cycle. It fails with ErrCycleNotReady when a
// cycle is already active or the block counter has not yet crossed into a new
// cycle window since the last finalization.
func (m *Module) StartCycle(caller [20]byte, height uint64) error {
	if err := m.guard(); err != nil {
		return err
	}
	if err := m.requireAdmin(caller); err != nil {
		return err
	}
	st, err := m.loadCycleState()
	if err != nil {
		return err
	}
	if st.Active {
		return fmt.Errorf("%w: cycle already active", ErrCycleNotReady)
	}
	if m.CycleID(height) <= m.CycleID(st.LastAllocationBlock) {
		return fmt.Errorf("%w: cycle boundary not reached", ErrCycleNotReady)
	}
	st.Active = true
	if err := m.st.KVPut([]byte(keyCycleState), st); err != nil {
		return err
	}
	m.emit(events.CycleStarted{Cycle: m.CycleID(height), Height: height})
	return nil
}

// FinalizeCycle closes the active cycle, recording the closing block height.
// A new cycle cannot open until the block counter advances past the current
// cycle boundary again.
func (m *Module) FinalizeCycle(caller [20]byte, height uint64) error {
	if err := m.guard(); err != nil {
		return err
	}
	if err := m.requireAdmin(caller); err != nil {
		return err
	}
	st, err := m.loadCycleState()
	if err != nil {
		return err
	}
	if !st.Active {
		return fmt.Errorf("%w: no active cycle", ErrCycleNotReady)
	}
	st.Active = false
	st.LastAllocationBlock = height
	if err := m.st.KVPut([]byte(keyCycleState), st); err != nil {
		return err
	}
	m.emit(events.CycleFinalized{Cycle: m.CycleID(height), Height: height})
	return nil
}
