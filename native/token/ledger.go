// Package token implements the WTR issuance capability consumed by the
// allocation engine: a minimal mint/burn/transfer ledger over state-held
// balances with total-supply bookkeeping.
package token

import (
	"errors"
	"fmt"
	"math/big"

	"aquachain/core/events"
)

var (
	ErrInvalidAmount       = errors.New("token: amount must be positive")
	ErrInsufficientBalance = errors.New("token: insufficient balance")
	ErrSupplyUnderflow     = errors.New("token: supply underflow")
)

// State describes the balance storage the ledger needs from the surrounding
// state implementation.
type State interface {
	TokenBalance(addr [20]byte) (*big.Int, error)
	SetTokenBalance(addr [20]byte, amount *big.Int) error
	TokenSupply() (*big.Int, error)
	SetTokenSupply(amount *big.Int) error
}

// Ledger tracks WTR balances and total supply.
type Ledger struct {
	st      State
	emitter events.Emitter
}

// NewLedger creates a ledger backed by the provided state manager.
func NewLedger(st State) *Ledger {
	return &Ledger{st: st, emitter: events.NoopEmitter{}}
}

// SetEmitter configures the event emitter used to broadcast balance changes.
// Passing nil resets the emitter to a no-op implementation.
func (l *Ledger) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		l.emitter = events.NoopEmitter{}
		return
	}
	l.emitter = emitter
}

func validAmount(amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

// Mint creates amount new units in recipient's balance and grows the total
// supply accordingly.
func (l *Ledger) Mint(recipient [20]byte, amount *big.Int) error {
	if err := validAmount(amount); err != nil {
		return err
	}
	balance, err := l.st.TokenBalance(recipient)
	if err != nil {
		return err
	}
	if err := l.st.SetTokenBalance(recipient, new(big.Int).Add(balance, amount)); err != nil {
		return err
	}
	supply, err := l.st.TokenSupply()
	if err != nil {
		return err
	}
	if err := l.st.SetTokenSupply(new(big.Int).Add(supply, amount)); err != nil {
		return err
	}
	l.emit(events.TokenMinted{Recipient: recipient, Amount: new(big.Int).Set(amount)})
	return nil
}

// Burn destroys amount units held by holder and shrinks the total supply.
func (l *Ledger) Burn(holder [20]byte, amount *big.Int) error {
	if err := validAmount(amount); err != nil {
		return err
	}
	balance, err := l.st.TokenBalance(holder)
	if err != nil {
		return err
	}
	if balance.Cmp(amount) < 0 {
		return fmt.Errorf("%w: have %s, need %s", ErrInsufficientBalance, balance, amount)
	}
	supply, err := l.st.TokenSupply()
	if err != nil {
		return err
	}
	if supply.Cmp(amount) < 0 {
		return fmt.Errorf("%w: supply %s, burn %s", ErrSupplyUnderflow, supply, amount)
	}
	if err := l.st.SetTokenBalance(holder, new(big.Int).Sub(balance, amount)); err != nil {
		return err
	}
	if err := l.st.SetTokenSupply(new(big.Int).Sub(supply, amount)); err != nil {
		return err
	}
	l.emit(events.TokenBurned{Holder: holder, Amount: new(big.Int).Set(amount)})
	return nil
}

// Transfer moves amount units from one account to another. The memo is
// carried on the emitted event only.
func (l *Ledger) Transfer(from, to [20]byte, amount *big.Int, memo string) error {
	if err := validAmount(amount); err != nil {
		return err
	}
	fromBalance, err := l.st.TokenBalance(from)
	if err != nil {
		return err
	}
	if fromBalance.Cmp(amount) < 0 {
		return fmt.Errorf("%w: have %s, need %s", ErrInsufficientBalance, fromBalance, amount)
	}
	// A self-transfer would read both balances from the same key and the
	// credit would clobber the debit, inflating the balance. Nothing moves.
	if from == to {
		return nil
	}
	toBalance, err := l.st.TokenBalance(to)
	if err != nil {
		return err
	}
	if err := l.st.SetTokenBalance(from, new(big.Int).Sub(fromBalance, amount)); err != nil {
		return err
	}
	if err := l.st.SetTokenBalance(to, new(big.Int).Add(toBalance, amount)); err != nil {
		return err
	}
	l.emit(events.TokenTransferred{From: from, To: to, Amount: new(big.Int).Set(amount), Memo: memo})
	return nil
}

// Balance returns the units held by addr, defaulting to zero.
func (l *Ledger) Balance(addr [20]byte) (*big.Int, error) {
	return l.st.TokenBalance(addr)
}

// Supply returns the total circulating supply.
func (l *Ledger) Supply() (*big.Int, error) {
	return l.st.TokenSupply()
}

func (l *Ledger) emit(event events.Event) {
	if l.emitter == nil {
		return
	}
	l.emitter.Emit(event)
}
