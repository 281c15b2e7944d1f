package allocation

import (
	"encoding/hex"
	"fmt"
	"math/big"

	"aquachain/core/events"
)

// batchAccumulator carries the running state of one Allocate call. The cycle
// total is captured once at batch start so concurrent usage reports cannot
// change mid-batch arithmetic.
type batchAccumulator struct {
	runningTotal uint64
	cycleID      uint64
	cycleTotal   uint64
}

// Allocate computes and issues entitlements for a batch of accounts against
// the currently open cycle. Preconditions are checked in order and the first
// failure short-circuits the whole batch before any issuance begins: the
// cycle must be active, the batch must not exceed MaxAccountsPerCall, and
// every account must be registered.
//
// Within the batch, accounts are processed in list order. A missing usage
// record or a rejected mint aborts the batch at that point; mints already
// issued to earlier accounts in the same batch are NOT rolled back. Callers
// that need atomicity must re-submit a corrected batch (see package docs).
//
// Returns the total issued across the batch on full success.
func (m *Module) Allocate(caller [20]byte, accounts [][20]byte, height uint64, issuer TokenIssuer) (uint64, error) {
	if err := m.guard(); err != nil {
		return 0, err
	}
	if err := m.requireAdmin(caller); err != nil {
		return 0, err
	}
	if issuer == nil {
		return 0, fmt.Errorf("allocation: token issuer required")
	}
	st, err := m.loadCycleState()
	if err != nil {
		return 0, err
	}
	if !st.Active {
		return 0, fmt.Errorf("%w: no active cycle", ErrCycleNotReady)
	}
	if uint64(len(accounts)) > m.params.MaxAccountsPerCall {
		return 0, fmt.Errorf("%w: batch size %d exceeds %d", ErrInvalidUserList, len(accounts), m.params.MaxAccountsPerCall)
	}
	// All-or-nothing registration pass before any issuance.
	for _, account := range accounts {
		registered, err := m.IsRegistered(account)
		if err != nil {
			return 0, err
		}
		if !registered {
			return 0, fmt.Errorf("%w: account 0x%s not registered", ErrInvalidUserList, hex.EncodeToString(account[:]))
		}
	}

	acc := batchAccumulator{cycleID: m.CycleID(height)}
	acc.cycleTotal, err = m.CycleTotal(acc.cycleID)
	if err != nil {
		return 0, err
	}

	for _, account := range accounts {
		record, ok, err := m.GetUsage(account, acc.cycleID)
		if err != nil {
			return 0, err
		}
		if !ok {
			return 0, fmt.Errorf("%w: account 0x%s cycle %d", ErrNoUsageData, hex.EncodeToString(account[:]), acc.cycleID)
		}
		final := m.entitlementBase(record.Used, acc.cycleTotal)
		if final < m.params.MinAllocation {
			final = m.params.MinAllocation
		}
		if final > m.params.MaxAllocation {
			return 0, fmt.Errorf("%w: %d exceeds %d", ErrInvalidAllocationFormula, final, m.params.MaxAllocation)
		}
		if err := issuer.Mint(account, new(big.Int).SetUint64(final)); err != nil {
			return 0, fmt.Errorf("%w: %v", ErrTokenMintFailed, err)
		}
		next := acc.runningTotal + final
		if next < acc.runningTotal {
			return 0, fmt.Errorf("%w: batch total", ErrOverflow)
		}
		acc.runningTotal = next
		m.emit(events.AllocationPaid{Account: account, Cycle: acc.cycleID, Amount: final})
	}

	m.emit(events.AllocationBatchSettled{
		Cycle:    acc.cycleID,
		Accounts: uint64(len(accounts)),
		Total:    acc.runningTotal,
	})
	return acc.runningTotal, nil
}

// Estimate returns the raw, pre-clamp entitlement for (account, cycle). The
// value deliberately diverges from what Allocate issues: callers previewing
// the formula see the unfloored result, which can be below MinAllocation or
// zero. It fails with ErrNoUsageData when no report exists and never touches
// issuance.
func (m *Module) Estimate(account [20]byte, cycle uint64) (uint64, error) {
	record, ok, err := m.GetUsage(account, cycle)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, fmt.Errorf("%w: account 0x%s cycle %d", ErrNoUsageData, hex.EncodeToString(account[:]), cycle)
	}
	total, err := m.CycleTotal(cycle)
	if err != nil {
		return 0, err
	}
	return m.entitlementBase(record.Used, total), nil
}

// entitlementBase computes MaxAllocation - floor(used*MaxAllocation/total),
// or MaxAllocation when the cycle recorded no usage at all. The product is
// taken through math/big so it cannot wrap regardless of the reported
// magnitudes.
func (m *Module) entitlementBase(used, total uint64) uint64 {
	if total == 0 {
		return m.params.MaxAllocation
	}
	maxAlloc := new(big.Int).SetUint64(m.params.MaxAllocation)
	share := new(big.Int).SetUint64(used)
	share.Mul(share, maxAlloc)
	share.Div(share, new(big.Int).SetUint64(total))
	if share.Cmp(maxAlloc) >= 0 {
		return 0
	}
	return m.params.MaxAllocation - share.Uint64()
}
