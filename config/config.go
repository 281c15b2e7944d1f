package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/ethereum/go-ethereum/common"

	"aquachain/native/allocation"
)

// AllocationConfig overrides the allocation module parameters. Zero fields
// fall back to the module defaults.
type AllocationConfig struct {
	CycleLength        uint64 `toml:"CycleLength"`
	MaxAllocation      uint64 `toml:"MaxAllocation"`
	MinAllocation      uint64 `toml:"MinAllocation"`
	MaxAccountsPerCall uint64 `toml:"MaxAccountsPerCall"`
}

type Config struct {
	RPCAddress           string           `toml:"RPCAddress"`
	GatewayAddress       string           `toml:"GatewayAddress"`
	DataDir              string           `toml:"DataDir"`
	NetworkName          string           `toml:"NetworkName"`
	BlockIntervalSeconds uint64           `toml:"BlockIntervalSeconds"`
	AdminAddress         string           `toml:"AdminAddress"`
	TreasuryAddress      string           `toml:"TreasuryAddress"`
	EventLogSize         int              `toml:"EventLogSize"`
	PausedModules        []string         `toml:"PausedModules"`
	Allocation           AllocationConfig `toml:"Allocation"`
}

func defaultConfig() *Config {
	return &Config{
		RPCAddress:           ":8645",
		GatewayAddress:       ":8646",
		DataDir:              "./aqua-data",
		NetworkName:          "aqua-local",
		BlockIntervalSeconds: 600,
		EventLogSize:         256,
		PausedModules:        []string{},
		Allocation: AllocationConfig{
			CycleLength:        allocation.DefaultCycleLength,
			MaxAllocation:      allocation.DefaultMaxAllocation,
			MinAllocation:      allocation.DefaultMinAllocation,
			MaxAccountsPerCall: allocation.DefaultMaxAccountsPerCall,
		},
	}
}

// Load loads the configuration from the given path, writing a default file
// when none exists yet.
func Load(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return createDefault(path)
	}

	cfg := defaultConfig()
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config file %s: %w", path, err)
	}
	return cfg, nil
}

func createDefault(path string) (*Config, error) {
	cfg := defaultConfig()
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	if err := toml.NewEncoder(f).Encode(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks address formats and interval invariants.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.RPCAddress) == "" {
		return fmt.Errorf("RPCAddress must not be empty")
	}
	if c.BlockIntervalSeconds == 0 {
		return fmt.Errorf("BlockIntervalSeconds must be greater than zero")
	}
	if c.AdminAddress != "" && !common.IsHexAddress(c.AdminAddress) {
		return fmt.Errorf("AdminAddress %q is not a valid hex address", c.AdminAddress)
	}
	if c.TreasuryAddress != "" && !common.IsHexAddress(c.TreasuryAddress) {
		return fmt.Errorf("TreasuryAddress %q is not a valid hex address", c.TreasuryAddress)
	}
	params, err := c.AllocationParams()
	if err != nil {
		return err
	}
	return params.Validate()
}

// Admin returns the configured admin address, if any.
func (c *Config) Admin() ([20]byte, bool) {
	if c.AdminAddress == "" || !common.IsHexAddress(c.AdminAddress) {
		return [20]byte{}, false
	}
	return common.HexToAddress(c.AdminAddress), true
}

// AllocationParams assembles the module parameters from the config, applying
// defaults for unset fields.
func (c *Config) AllocationParams() (allocation.Params, error) {
	params := allocation.DefaultParams()
	if c.Allocation.CycleLength != 0 {
		params.CycleLength = c.Allocation.CycleLength
	}
	if c.Allocation.MaxAllocation != 0 {
		params.MaxAllocation = c.Allocation.MaxAllocation
	}
	if c.Allocation.MinAllocation != 0 {
		params.MinAllocation = c.Allocation.MinAllocation
	}
	if c.Allocation.MaxAccountsPerCall != 0 {
		params.MaxAccountsPerCall = c.Allocation.MaxAccountsPerCall
	}
	if c.TreasuryAddress != "" {
		if !common.IsHexAddress(c.TreasuryAddress) {
			return allocation.Params{}, fmt.Errorf("TreasuryAddress %q is not a valid hex address", c.TreasuryAddress)
		}
		params.Treasury = common.HexToAddress(c.TreasuryAddress)
	}
	return params, nil
}
