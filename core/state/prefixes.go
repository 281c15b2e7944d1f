package state

// Raw key prefixes for the ledger state owned directly by the state manager.
// Module-owned keys (the allocation module's registry, usage and cycle
// records) are built inside the owning package and arrive here as opaque KV
// keys. All keys are hashed before hitting the database, so the literals only
// need to be unique, not compact.
const (
	prefixTokenBalance = "token:balance:"
	prefixTokenSupply  = "token:supply"
)
