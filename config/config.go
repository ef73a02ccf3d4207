package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"futurechain/crypto"
)

// GenesisAlloc seeds one account balance on first start. Amount is a decimal
// string so arbitrarily large balances survive the toml round trip.
type GenesisAlloc struct {
	Address string `toml:"Address"`
	Token   string `toml:"Token"`
	Amount  string `toml:"Amount"`
}

type Config struct {
	RPCAddress     string         `toml:"RPCAddress"`
	MetricsAddress string         `toml:"MetricsAddress"`
	DataDir        string         `toml:"DataDir"`
	NetworkName    string         `toml:"NetworkName"`
	FeeRate        uint32         `toml:"FeeRate"`
	FeeCollector   string         `toml:"FeeCollector"`
	Operators      []string       `toml:"Operators"`
	PausedModules  []string       `toml:"PausedModules"`
	GenesisAlloc   []GenesisAlloc `toml:"GenesisAlloc,omitempty"`
}

// Load reads the configuration from the given path, writing defaults when no
// file exists yet.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return createDefault(path)
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, err
	}

	applyDefaults(cfg)
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyDefaults(cfg *Config) {
	if strings.TrimSpace(cfg.RPCAddress) == "" {
		cfg.RPCAddress = ":8645"
	}
	if strings.TrimSpace(cfg.MetricsAddress) == "" {
		cfg.MetricsAddress = ":9464"
	}
	if strings.TrimSpace(cfg.DataDir) == "" {
		cfg.DataDir = "./futuresd-data"
	}
	if strings.TrimSpace(cfg.NetworkName) == "" {
		cfg.NetworkName = "futurechain-local"
	}
	if cfg.Operators == nil {
		cfg.Operators = []string{}
	}
	if cfg.PausedModules == nil {
		cfg.PausedModules = []string{}
	}
}

// Validate checks address encodings and the fee rate bounds.
func Validate(cfg *Config) error {
	if cfg.FeeRate > 100 {
		return fmt.Errorf("config: FeeRate must be within [0, 100], got %d", cfg.FeeRate)
	}
	trimmed := strings.TrimSpace(cfg.FeeCollector)
	if trimmed == "" && cfg.FeeRate > 0 {
		return fmt.Errorf("config: FeeRate %d requires a FeeCollector", cfg.FeeRate)
	}
	if trimmed != "" {
		if _, err := crypto.DecodeAddress(trimmed); err != nil {
			return fmt.Errorf("config: invalid FeeCollector: %w", err)
		}
	}
	for _, op := range cfg.Operators {
		if _, err := crypto.DecodeAddress(strings.TrimSpace(op)); err != nil {
			return fmt.Errorf("config: invalid operator %q: %w", op, err)
		}
	}
	for i, alloc := range cfg.GenesisAlloc {
		if _, err := crypto.DecodeAddress(strings.TrimSpace(alloc.Address)); err != nil {
			return fmt.Errorf("config: invalid genesis alloc address at index %d: %w", i, err)
		}
		if strings.TrimSpace(alloc.Amount) == "" {
			return fmt.Errorf("config: genesis alloc at index %d has no amount", i)
		}
	}
	return nil
}

func createDefault(path string) (*Config, error) {
	cfg := &Config{}
	applyDefaults(cfg)
	if err := persist(path, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func persist(path string, cfg *Config) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return toml.NewEncoder(f).Encode(cfg)
}
