package allocation

import (
	"encoding/hex"
	"fmt"
	"math/big"

	"aquachain/core/events"
)

// Admin returns the current admin address. The boolean is false when no admin
// has been bootstrapped yet.
func (m *Module) Admin() ([20]byte, bool, error) {
	var admin [20]byte
	ok, err := m.st.KVGet([]byte(keyAdmin), &admin)
	if err != nil {
		return [20]byte{}, false, err
	}
	return admin, ok, nil
}

// InitAdmin installs the initial admin address. It is intended for genesis
// bootstrap and fails once an admin exists.
func (m *Module) InitAdmin(admin [20]byte) error {
	if admin == ([20]byte{}) {
		return fmt.Errorf("allocation: admin address must not be zero")
	}
	_, exists, err := m.Admin()
	if err != nil {
		return err
	}
	if exists {
		return fmt.Errorf("%w: admin already initialised", ErrNotAuthorized)
	}
	return m.st.KVPut([]byte(keyAdmin), admin)
}

// SetAdmin transfers the admin role to next. The handover is unconditional
// and single-step; only the current admin may invoke it.
func (m *Module) SetAdmin(caller, next [20]byte) error {
	if err := m.guard(); err != nil {
		return err
	}
	if err := m.requireAdmin(caller); err != nil {
		return err
	}
	if next == ([20]byte{}) {
		return fmt.Errorf("allocation: admin address must not be zero")
	}
	if err := m.st.KVPut([]byte(keyAdmin), next); err != nil {
		return err
	}
	m.emit(events.AdminRotated{Previous: caller, Next: next})
	return nil
}

// EmergencyWithdraw burns amount units from the module treasury. It is a
// deliberate escape hatch and is not gated by the cycle lifecycle.
func (m *Module) EmergencyWithdraw(caller [20]byte, amount uint64, height uint64, issuer TokenIssuer) error {
	if err := m.guard(); err != nil {
		return err
	}
	if err := m.requireAdmin(caller); err != nil {
		return err
	}
	if amount == 0 {
		return fmt.Errorf("allocation: withdraw amount must be positive")
	}
	if m.params.Treasury == ([20]byte{}) {
		return fmt.Errorf("allocation: treasury not configured")
	}
	if issuer == nil {
		return fmt.Errorf("allocation: token issuer required")
	}
	if err := issuer.Burn(m.params.Treasury, new(big.Int).SetUint64(amount)); err != nil {
		return fmt.Errorf("%w: %v", ErrTokenBurnFailed, err)
	}
	m.emit(events.EmergencyWithdrawal{Amount: amount, Height: height})
	return nil
}

func (m *Module) requireAdmin(caller [20]byte) error {
	admin, ok, err := m.Admin()
	if err != nil {
		return err
	}
	if !ok || caller != admin {
		return fmt.Errorf("%w: caller 0x%s", ErrNotAuthorized, hex.EncodeToString(caller[:]))
	}
	return nil
}
