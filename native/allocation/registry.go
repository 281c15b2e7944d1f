package allocation

import "aquachain/core/events"

// Register marks account as an authorized participant. Re-registering an
// existing participant is a no-op success. Entries are never deleted.
func (m *Module) Register(caller, account [20]byte, height uint64) error {
	if err := m.guard(); err != nil {
		return err
	}
	if err := m.requireAdmin(caller); err != nil {
		return err
	}
	registered, err := m.IsRegistered(account)
	if err != nil {
		return err
	}
	if registered {
		return nil
	}
	if err := m.st.KVPut(registryKey(account), true); err != nil {
		return err
	}
	m.emit(events.ParticipantRegistered{Account: account, Height: height})
	return nil
}

// IsRegistered reports whether account is an authorized participant. Accounts
// not present in the registry are treated as unregistered.
func (m *Module) IsRegistered(account [20]byte) (bool, error) {
	var registered bool
	ok, err := m.st.KVGet(registryKey(account), &registered)
	if err != nil {
		return false, err
	}
	return ok && registered, nil
}
