package core

import (
	"fmt"
	"math/big"
	"sync"

	"aquachain/core/events"
	"aquachain/core/state"
	"aquachain/native/allocation"
	"aquachain/native/token"
	"aquachain/observability"
	"aquachain/storage"
)

var heightKey = []byte("chain:height")

// pauseSet satisfies allocation.PauseView over a static module set.
type pauseSet map[string]bool

func (p pauseSet) IsPaused(module string) bool { return p[module] }

// NodeConfig carries the dependencies and genesis values needed to construct
// a node.
type NodeConfig struct {
	// Params configures the allocation module. Zero value falls back to
	// DefaultParams.
	Params allocation.Params

	// Admin is installed as the allocation admin when state holds none yet.
	Admin [20]byte

	// PausedModules lists modules whose mutations are suspended.
	PausedModules []string

	// EventLogSize bounds the in-memory event log (default 256).
	EventLogSize int
}

// Node owns the ledger state and serializes every entry point, matching the
// host ledger's transaction-serialization guarantee: each call executes to
// completion against a consistent snapshot before the next call is observed.
type Node struct {
	mu sync.Mutex

	db         storage.Database
	state      *state.Manager
	allocation *allocation.Module
	token      *token.Ledger
	eventLog   *events.Log

	height uint64
}

// NewNode wires the state manager, token ledger and allocation module over
// the provided database, bootstrapping the admin role on first start.
func NewNode(db storage.Database, cfg NodeConfig) (*Node, error) {
	if db == nil {
		return nil, fmt.Errorf("core: database required")
	}
	params := cfg.Params
	if params == (allocation.Params{}) {
		params = allocation.DefaultParams()
	}
	manager := state.NewManager(db)
	module, err := allocation.New(manager, params)
	if err != nil {
		return nil, err
	}
	ledger := token.NewLedger(manager)
	log := events.NewLog(cfg.EventLogSize)
	module.SetEmitter(log)
	ledger.SetEmitter(log)
	if len(cfg.PausedModules) > 0 {
		paused := pauseSet{}
		for _, name := range cfg.PausedModules {
			paused[name] = true
		}
		module.SetPauses(paused)
	}

	node := &Node{
		db:         db,
		state:      manager,
		allocation: module,
		token:      ledger,
		eventLog:   log,
	}
	if _, err := manager.KVGet(heightKey, &node.height); err != nil {
		return nil, err
	}
	if _, ok, err := module.Admin(); err != nil {
		return nil, err
	} else if !ok && cfg.Admin != ([20]byte{}) {
		if err := module.InitAdmin(cfg.Admin); err != nil {
			return nil, err
		}
	}
	return node, nil
}

// CycleLength returns the allocation module's cycle length in blocks.
func (n *Node) CycleLength() uint64 {
	return n.allocation.Params().CycleLength
}

// Height returns the current block height of the host counter.
func (n *Node) Height() uint64 {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.height
}

// AdvanceHeight moves the block counter forward by one and persists it.
func (n *Node) AdvanceHeight() (uint64, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.advanceTo(n.height + 1)
}

// AdvanceTo moves the block counter forward to the supplied height. The
// counter is monotonic; moving backwards is rejected.
func (n *Node) AdvanceTo(height uint64) (uint64, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if height < n.height {
		return n.height, fmt.Errorf("core: height %d behind current %d", height, n.height)
	}
	return n.advanceTo(height)
}

func (n *Node) advanceTo(height uint64) (uint64, error) {
	if err := n.state.KVPut(heightKey, height); err != nil {
		return n.height, err
	}
	n.height = height
	return n.height, nil
}

// --- Read surface ---

// AllocationStatus reports the cycle lifecycle at the current height.
func (n *Node) AllocationStatus() (allocation.Status, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.allocation.CycleStatus(n.height)
}

// Usage returns the stored usage record for (account, cycle).
func (n *Node) Usage(account [20]byte, cycle uint64) (allocation.UsageRecord, bool, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.allocation.GetUsage(account, cycle)
}

// TotalUsage returns the aggregate usage reported for the cycle.
func (n *Node) TotalUsage(cycle uint64) (uint64, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.allocation.CycleTotal(cycle)
}

// Estimate returns the raw pre-clamp entitlement for (account, cycle).
func (n *Node) Estimate(account [20]byte, cycle uint64) (uint64, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.allocation.Estimate(account, cycle)
}

// IsRegistered reports registry membership for account.
func (n *Node) IsRegistered(account [20]byte) (bool, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.allocation.IsRegistered(account)
}

// Admin returns the current allocation admin, if one is installed.
func (n *Node) Admin() ([20]byte, bool, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.allocation.Admin()
}

// TokenBalance returns the WTR balance held by addr.
func (n *Node) TokenBalance(addr [20]byte) (*big.Int, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.token.Balance(addr)
}

// TokenSupply returns the circulating WTR supply.
func (n *Node) TokenSupply() (*big.Int, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.token.Supply()
}

// RecentEvents returns up to limit of the most recent ledger events.
func (n *Node) RecentEvents(limit int) []events.Entry {
	return n.eventLog.Recent(limit)
}

// --- Mutations ---

// Register adds account to the participant registry.
func (n *Node) Register(caller, account [20]byte) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.allocation.Register(caller, account, n.height)
}

// ReportUsage records account's consumption for cycle. The boolean reports
// whether state changed; a duplicate report is a successful no-op.
func (n *Node) ReportUsage(caller, account [20]byte, amount, cycle uint64) (bool, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.allocation.ReportUsage(caller, account, amount, cycle, n.height)
}

// StartCycle opens an allocation cycle at the current height.
func (n *Node) StartCycle(caller [20]byte) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if err := n.allocation.StartCycle(caller, n.height); err != nil {
		return err
	}
	observability.Metrics().SetCycleActive(true)
	return nil
}

// FinalizeCycle closes the active cycle at the current height.
func (n *Node) FinalizeCycle(caller [20]byte) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if err := n.allocation.FinalizeCycle(caller, n.height); err != nil {
		return err
	}
	observability.Metrics().SetCycleActive(false)
	return nil
}

// Allocate issues entitlements to the batch of accounts, returning the batch
// total.
func (n *Node) Allocate(caller [20]byte, accounts [][20]byte) (uint64, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	total, err := n.allocation.Allocate(caller, accounts, n.height, n.token)
	if err != nil {
		return 0, err
	}
	observability.Metrics().RecordBatch(len(accounts), total)
	return total, nil
}

// SetAdmin transfers the allocation admin role.
func (n *Node) SetAdmin(caller, next [20]byte) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.allocation.SetAdmin(caller, next)
}

// EmergencyWithdraw burns amount from the module treasury.
func (n *Node) EmergencyWithdraw(caller [20]byte, amount uint64) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.allocation.EmergencyWithdraw(caller, amount, n.height, n.token)
}
