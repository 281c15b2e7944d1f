package events

import "math/big"

const (
	// TypeTokenMinted is emitted when WTR units are created.
	TypeTokenMinted = "token.minted"
	// TypeTokenBurned is emitted when WTR units are destroyed.
	TypeTokenBurned = "token.burned"
	// TypeTokenTransferred is emitted when WTR units move between accounts.
	TypeTokenTransferred = "token.transferred"
)

func bigIntString(v *big.Int) string {
	if v == nil {
		return "0"
	}
	return v.String()
}

// TokenMinted captures an issuance of new units.
type TokenMinted struct {
	Recipient [20]byte
	Amount    *big.Int
}

func (e TokenMinted) EventType() string { return TypeTokenMinted }

func (e TokenMinted) Attributes() map[string]string {
	return map[string]string{
		"recipient": addrHex(e.Recipient),
		"amount":    bigIntString(e.Amount),
	}
}

// TokenBurned captures a destruction of existing units.
type TokenBurned struct {
	Holder [20]byte
	Amount *big.Int
}

func (e TokenBurned) EventType() string { return TypeTokenBurned }

func (e TokenBurned) Attributes() map[string]string {
	return map[string]string{
		"holder": addrHex(e.Holder),
		"amount": bigIntString(e.Amount),
	}
}

// TokenTransferred captures a balance movement between two accounts.
type TokenTransferred struct {
	From   [20]byte
	To     [20]byte
	Amount *big.Int
	Memo   string
}

func (e TokenTransferred) EventType() string { return TypeTokenTransferred }

func (e TokenTransferred) Attributes() map[string]string {
	attrs := map[string]string{
		"from":   addrHex(e.From),
		"to":     addrHex(e.To),
		"amount": bigIntString(e.Amount),
	}
	if e.Memo != "" {
		attrs["memo"] = e.Memo
	}
	return attrs
}
