package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"futurechain/crypto"
)

func testBech32Address(t *testing.T) string {
	t.Helper()
	key, err := crypto.GeneratePrivateKey()
	require.NoError(t, err)
	return key.PubKey().Address().String()
}

func TestLoadCreatesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, ":8645", cfg.RPCAddress)
	require.Equal(t, ":9464", cfg.MetricsAddress)
	require.Equal(t, "./futuresd-data", cfg.DataDir)
	require.Equal(t, "futurechain-local", cfg.NetworkName)
	require.FileExists(t, path)

	// The persisted file round-trips.
	again, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, cfg.RPCAddress, again.RPCAddress)
}

func TestLoadParsesFile(t *testing.T) {
	collector := testBech32Address(t)
	operator := testBech32Address(t)
	path := filepath.Join(t.TempDir(), "config.toml")
	contents := `
RPCAddress = ":9999"
DataDir = "/tmp/futures-test"
FeeRate = 10
FeeCollector = "` + collector + `"
Operators = ["` + operator + `"]
PausedModules = ["futures"]

[[GenesisAlloc]]
Address = "` + operator + `"
Token = "FUT"
Amount = "1000000"
`
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, ":9999", cfg.RPCAddress)
	require.Equal(t, "/tmp/futures-test", cfg.DataDir)
	require.Equal(t, uint32(10), cfg.FeeRate)
	require.Equal(t, collector, cfg.FeeCollector)
	require.Equal(t, []string{operator}, cfg.Operators)
	require.Equal(t, []string{"futures"}, cfg.PausedModules)
	require.Len(t, cfg.GenesisAlloc, 1)
	require.Equal(t, "1000000", cfg.GenesisAlloc[0].Amount)
	// Unset fields still get defaults.
	require.Equal(t, ":9464", cfg.MetricsAddress)
}

func TestValidateRejectsBadFeeRate(t *testing.T) {
	cfg := &Config{FeeRate: 101}
	applyDefaults(cfg)
	require.Error(t, Validate(cfg))
}

func TestValidateRequiresCollectorWithFee(t *testing.T) {
	cfg := &Config{FeeRate: 10}
	applyDefaults(cfg)
	require.Error(t, Validate(cfg))

	cfg = &Config{FeeRate: 10, FeeCollector: testBech32Address(t)}
	applyDefaults(cfg)
	require.NoError(t, Validate(cfg))
}

func TestValidateRejectsBadAddresses(t *testing.T) {
	cfg := &Config{FeeCollector: "not-bech32"}
	applyDefaults(cfg)
	require.Error(t, Validate(cfg))

	cfg = &Config{Operators: []string{"nope"}}
	applyDefaults(cfg)
	require.Error(t, Validate(cfg))

	cfg = &Config{GenesisAlloc: []GenesisAlloc{{Address: "nope", Token: "FUT", Amount: "1"}}}
	applyDefaults(cfg)
	require.Error(t, Validate(cfg))
}

func TestValidateRequiresAllocAmount(t *testing.T) {
	cfg := &Config{GenesisAlloc: []GenesisAlloc{{Address: testBech32Address(t), Token: "FUT"}}}
	applyDefaults(cfg)
	require.Error(t, Validate(cfg))
}
