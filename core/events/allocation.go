package events

import (
	"encoding/hex"
	"strconv"
)

const (
	// TypeParticipantRegistered is emitted when an account joins the registry.
	TypeParticipantRegistered = "allocation.participant.registered"
	// TypeUsageReported is emitted for every accepted usage report, including
	// idempotent duplicates that left state untouched.
	TypeUsageReported = "allocation.usage.reported"
	// TypeCycleStarted is emitted when an allocation cycle opens.
	TypeCycleStarted = "allocation.cycle.started"
	// TypeCycleFinalized is emitted when an allocation cycle closes.
	TypeCycleFinalized = "allocation.cycle.finalized"
	// TypeAllocationPaid is emitted per account when an entitlement is issued.
	TypeAllocationPaid = "allocation.paid"
	// TypeAllocationBatchSettled is emitted once per successful allocate batch.
	TypeAllocationBatchSettled = "allocation.batch.settled"
	// TypeAdminRotated is emitted when the admin role is transferred.
	TypeAdminRotated = "allocation.admin.rotated"
	// TypeEmergencyWithdrawal is emitted when the admin burns treasury funds.
	TypeEmergencyWithdrawal = "allocation.emergency.withdrawal"
)

func addrHex(addr [20]byte) string {
	return "0x" + hex.EncodeToString(addr[:])
}

func formatUint(v uint64) string {
	return strconv.FormatUint(v, 10)
}

// ParticipantRegistered captures a registry addition.
type ParticipantRegistered struct {
	Account [20]byte
	Height  uint64
}

func (e ParticipantRegistered) EventType() string { return TypeParticipantRegistered }

func (e ParticipantRegistered) Attributes() map[string]string {
	return map[string]string{
		"account": addrHex(e.Account),
		"height":  formatUint(e.Height),
	}
}

// UsageReported captures a processed usage report. Applied is false when the
// report was a duplicate and the stored record was left unchanged.
type UsageReported struct {
	Account [20]byte
	Cycle   uint64
	Amount  uint64
	Applied bool
	Height  uint64
}

func (e UsageReported) EventType() string { return TypeUsageReported }

func (e UsageReported) Attributes() map[string]string {
	return map[string]string{
		"account": addrHex(e.Account),
		"cycle":   formatUint(e.Cycle),
		"amount":  formatUint(e.Amount),
		"applied": strconv.FormatBool(e.Applied),
		"height":  formatUint(e.Height),
	}
}

// CycleStarted captures the opening of an allocation cycle.
type CycleStarted struct {
	Cycle  uint64
	Height uint64
}

func (e CycleStarted) EventType() string { return TypeCycleStarted }

func (e CycleStarted) Attributes() map[string]string {
	return map[string]string{
		"cycle":  formatUint(e.Cycle),
		"height": formatUint(e.Height),
	}
}

// CycleFinalized captures the closing of an allocation cycle.
type CycleFinalized struct {
	Cycle  uint64
	Height uint64
}

func (e CycleFinalized) EventType() string { return TypeCycleFinalized }

func (e CycleFinalized) Attributes() map[string]string {
	return map[string]string{
		"cycle":  formatUint(e.Cycle),
		"height": formatUint(e.Height),
	}
}

// AllocationPaid captures a single issued entitlement within a batch.
type AllocationPaid struct {
	Account [20]byte
	Cycle   uint64
	Amount  uint64
}

func (e AllocationPaid) EventType() string { return TypeAllocationPaid }

func (e AllocationPaid) Attributes() map[string]string {
	return map[string]string{
		"account": addrHex(e.Account),
		"cycle":   formatUint(e.Cycle),
		"amount":  formatUint(e.Amount),
	}
}

// AllocationBatchSettled summarises a fully settled allocate batch.
type AllocationBatchSettled struct {
	Cycle    uint64
	Accounts uint64
	Total    uint64
}

func (e AllocationBatchSettled) EventType() string { return TypeAllocationBatchSettled }

func (e AllocationBatchSettled) Attributes() map[string]string {
	return map[string]string{
		"cycle":    formatUint(e.Cycle),
		"accounts": formatUint(e.Accounts),
		"total":    formatUint(e.Total),
	}
}

// AdminRotated captures a transfer of the admin role.
type AdminRotated struct {
	Previous [20]byte
	Next     [20]byte
}

func (e AdminRotated) EventType() string { return TypeAdminRotated }

func (e AdminRotated) Attributes() map[string]string {
	return map[string]string{
		"previous": addrHex(e.Previous),
		"next":     addrHex(e.Next),
	}
}

// EmergencyWithdrawal captures an out-of-band treasury burn.
type EmergencyWithdrawal struct {
	Amount uint64
	Height uint64
}

func (e EmergencyWithdrawal) EventType() string { return TypeEmergencyWithdrawal }

func (e EmergencyWithdrawal) Attributes() map[string]string {
	return map[string]string{
		"amount": formatUint(e.Amount),
		"height": formatUint(e.Height),
	}
}
