package allocation

import (
	"encoding/hex"
	"fmt"

	"aquachain/core/events"
)

// UsageRecord stores a participant's reported consumption for one cycle.
// Records are written exactly once per (account, cycle) key and are immutable
// afterwards.
type UsageRecord struct {
	Used       uint64
	ReportedAt uint64
}

// ReportUsage records account's consumption for the given cycle. The caller
// acts as the trusted relay for verified oracle data and must be the admin.
// A duplicate report for an existing (account, cycle) key is a successful
// no-op: the call returns applied=false without an error and leaves both the
// stored record and the cycle aggregate unchanged. This shields the ledger
// against double-submission by a retried oracle call.
func (m *Module) ReportUsage(caller, account [20]byte, amount, cycle, height uint64) (applied bool, err error) {
	if err := m.guard(); err != nil {
		return false, err
	}
	if err := m.requireAdmin(caller); err != nil {
		return false, err
	}
	registered, err := m.IsRegistered(account)
	if err != nil {
		return false, err
	}
	if !registered {
		return false, fmt.Errorf("%w: account 0x%s", ErrUserNotRegistered, hex.EncodeToString(account[:]))
	}
	exists, err := m.st.KVGet(usageKey(cycle, account), nil)
	if err != nil {
		return false, err
	}
	if exists {
		m.emit(events.UsageReported{Account: account, Cycle: cycle, Amount: amount, Applied: false, Height: height})
		return false, nil
	}
	total, err := m.CycleTotal(cycle)
	if err != nil {
		return false, err
	}
	newTotal := total + amount
	if newTotal < total {
		return false, fmt.Errorf("%w: cycle %d total", ErrOverflow, cycle)
	}
	record := UsageRecord{Used: amount, ReportedAt: height}
	if err := m.st.KVPut(usageKey(cycle, account), record); err != nil {
		return false, err
	}
	if err := m.st.KVPut(cycleTotalKey(cycle), newTotal); err != nil {
		return false, err
	}
	m.emit(events.UsageReported{Account: account, Cycle: cycle, Amount: amount, Applied: true, Height: height})
	return true, nil
}

// GetUsage returns the usage record for (account, cycle). The boolean is
// false when no report exists.
func (m *Module) GetUsage(account [20]byte, cycle uint64) (UsageRecord, bool, error) {
	var record UsageRecord
	ok, err := m.st.KVGet(usageKey(cycle, account), &record)
	if err != nil {
		return UsageRecord{}, false, err
	}
	return record, ok, nil
}

// CycleTotal returns the aggregate usage reported for the cycle, defaulting
// to zero. The aggregate only ever increases for the lifetime of a cycle.
func (m *Module) CycleTotal(cycle uint64) (uint64, error) {
	var total uint64
	if _, err := m.st.KVGet(cycleTotalKey(cycle), &total); err != nil {
		return 0, err
	}
	return total, nil
}
