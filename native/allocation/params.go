package allocation

import "fmt"

// Reference parameter values. CycleLength of 144 blocks is roughly one day at
// the host chain's block cadence. Allocation bounds are expressed in
// fractional units of WTR, not literal token counts.
const (
	DefaultCycleLength        uint64 = 144
	DefaultMaxAllocation      uint64 = 10000
	DefaultMinAllocation      uint64 = 100
	DefaultMaxAccountsPerCall uint64 = 100
)

// Params controls the allocation module's cycle geometry and entitlement
// bounds.
type Params struct {
	// CycleLength is the number of blocks that make up a single allocation
	// cycle. The value must be greater than zero.
	CycleLength uint64

	// MaxAllocation is the entitlement issued to an account that consumed
	// none of the cycle's recorded usage.
	MaxAllocation uint64

	// MinAllocation is the floor applied to every issued entitlement. Must
	// not exceed MaxAllocation.
	MinAllocation uint64

	// MaxAccountsPerCall bounds the batch size accepted by Allocate.
	MaxAccountsPerCall uint64

	// Treasury is the account funded for emergency withdrawals.
	Treasury [20]byte
}

// DefaultParams returns the reference configuration.
func DefaultParams() Params {
	return Params{
		CycleLength:        DefaultCycleLength,
		MaxAllocation:      DefaultMaxAllocation,
		MinAllocation:      DefaultMinAllocation,
		MaxAccountsPerCall: DefaultMaxAccountsPerCall,
	}
}

// Validate ensures the configuration values fall within acceptable bounds.
func (p Params) Validate() error {
	if p.CycleLength == 0 {
		return fmt.Errorf("allocation: cycle length must be greater than zero")
	}
	if p.MaxAllocation == 0 {
		return fmt.Errorf("allocation: max allocation must be greater than zero")
	}
	if p.MinAllocation > p.MaxAllocation {
		return fmt.Errorf("allocation: min allocation %d exceeds max allocation %d", p.MinAllocation, p.MaxAllocation)
	}
	if p.MaxAccountsPerCall == 0 {
		return fmt.Errorf("allocation: max accounts per call must be greater than zero")
	}
	return nil
}
