package state

import (
	"fmt"
	"math/big"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"

	"aquachain/storage"
)

// Manager provides typed access to the ledger's key-value state. Values are
// RLP encoded and keys are hashed so callers can use readable prefixed
// strings without leaking structure into the database layout.
type Manager struct {
	db storage.Database
}

// NewManager creates a state manager operating on the provided database.
func NewManager(db storage.Database) *Manager {
	return &Manager{db: db}
}

func kvKey(key []byte) []byte {
	return ethcrypto.Keccak256(key)
}

func balanceKey(addr [20]byte) []byte {
	buf := make([]byte, len(prefixTokenBalance)+len(addr))
	copy(buf, prefixTokenBalance)
	copy(buf[len(prefixTokenBalance):], addr[:])
	return kvKey(buf)
}

func supplyKey() []byte {
	return kvKey([]byte(prefixTokenSupply))
}

// KVPut stores the RLP encoding of value under the supplied key.
func (m *Manager) KVPut(key []byte, value interface{}) error {
	if len(key) == 0 {
		return fmt.Errorf("kv: key must not be empty")
	}
	encoded, err := rlp.EncodeToBytes(value)
	if err != nil {
		return err
	}
	return m.db.Put(kvKey(key), encoded)
}

// KVGet retrieves the value stored under the supplied key and decodes it into
// the provided destination. The boolean return value indicates whether the
// key existed in state.
func (m *Manager) KVGet(key []byte, out interface{}) (bool, error) {
	if len(key) == 0 {
		return false, fmt.Errorf("kv: key must not be empty")
	}
	data, err := m.db.Get(kvKey(key))
	if err != nil {
		return false, err
	}
	if len(data) == 0 {
		return false, nil
	}
	if out == nil {
		return true, nil
	}
	if err := rlp.DecodeBytes(data, out); err != nil {
		return false, err
	}
	return true, nil
}

func (m *Manager) loadBigInt(key []byte) (*big.Int, error) {
	data, err := m.db.Get(key)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return big.NewInt(0), nil
	}
	value := new(big.Int)
	if err := rlp.DecodeBytes(data, value); err != nil {
		return nil, err
	}
	return value, nil
}

func (m *Manager) storeBigInt(key []byte, value *big.Int) error {
	if value == nil || value.Sign() < 0 {
		return fmt.Errorf("state: amount must be non-negative")
	}
	encoded, err := rlp.EncodeToBytes(value)
	if err != nil {
		return err
	}
	return m.db.Put(key, encoded)
}

// TokenBalance returns the WTR balance held by the supplied address. Missing
// entries are reported as zero.
func (m *Manager) TokenBalance(addr [20]byte) (*big.Int, error) {
	return m.loadBigInt(balanceKey(addr))
}

// SetTokenBalance overwrites the WTR balance for the supplied address.
func (m *Manager) SetTokenBalance(addr [20]byte, amount *big.Int) error {
	return m.storeBigInt(balanceKey(addr), amount)
}

// TokenSupply returns the total circulating WTR supply.
func (m *Manager) TokenSupply() (*big.Int, error) {
	return m.loadBigInt(supplyKey())
}

// SetTokenSupply overwrites the recorded total supply.
func (m *Manager) SetTokenSupply(amount *big.Int) error {
	return m.storeBigInt(supplyKey(), amount)
}
