// Package allocation implements the cycle-based proportional allocation
// engine for tokenized water rights. Registered participants report usage per
// cycle; when a cycle is open the engine issues each participant an
// entitlement inversely proportional to its share of the cycle's recorded
// usage, clamped to a configured floor.
package allocation

import (
	"math/big"

	"aquachain/core/events"
)

const moduleName = "allocation"

// State describes the functionality the allocation module needs from the
// surrounding ledger state.
type State interface {
	KVGet(key []byte, out interface{}) (bool, error)
	KVPut(key []byte, value interface{}) error
}

// PauseView reports whether a module's mutations are currently suspended.
type PauseView interface {
	IsPaused(module string) bool
}

// TokenIssuer is the external capability able to mint, burn and transfer the
// resource token on behalf of the allocation engine.
type TokenIssuer interface {
	Mint(recipient [20]byte, amount *big.Int) error
	Burn(holder [20]byte, amount *big.Int) error
	Transfer(from, to [20]byte, amount *big.Int, memo string) error
}

// Module owns the registry, usage ledger, cycle lifecycle and allocation
// engine. All state lives behind the injected State; the module never holds
// token balances itself.
type Module struct {
	st      State
	params  Params
	emitter events.Emitter
	pauses  PauseView
}

// New creates the allocation module backed by the provided state manager.
func New(st State, params Params) (*Module, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	return &Module{st: st, params: params, emitter: events.NoopEmitter{}}, nil
}

// Params returns the module's active configuration.
func (m *Module) Params() Params {
	return m.params
}

// SetEmitter configures the event emitter used to broadcast module updates.
// Passing nil resets the emitter to a no-op implementation.
func (m *Module) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		m.emitter = events.NoopEmitter{}
		return
	}
	m.emitter = emitter
}

// SetPauses configures the pause switchboard consulted by mutating entry
// points.
func (m *Module) SetPauses(p PauseView) {
	if m == nil {
		return
	}
	m.pauses = p
}

func (m *Module) guard() error {
	if m.pauses != nil && m.pauses.IsPaused(moduleName) {
		return ErrModulePaused
	}
	return nil
}

func (m *Module) emit(event events.Event) {
	if m.emitter == nil {
		return
	}
	m.emitter.Emit(event)
}
