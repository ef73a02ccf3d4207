package main

import (
	"flag"
	"fmt"
	"log/slog"
	"math/big"
	"net/http"
	"os"
	"strings"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"futurechain/config"
	"futurechain/core"
	"futurechain/crypto"
	"futurechain/observability/logging"
	"futurechain/rpc"
	"futurechain/storage"
)

func main() {
	configFile := flag.String("config", "./config.toml", "Path to the configuration file")
	flag.Parse()

	env := strings.TrimSpace(os.Getenv("FUTURES_ENV"))
	logger := logging.Setup("futuresd", env)

	cfg, err := config.Load(*configFile)
	if err != nil {
		logger.Error("Failed to load config", slog.Any("error", err))
		os.Exit(1)
	}

	db, err := storage.NewLevelDB(cfg.DataDir)
	if err != nil {
		logger.Error("Failed to open database", slog.Any("error", err))
		os.Exit(1)
	}
	defer db.Close()

	nodeCfg, allocs, err := buildNodeConfig(cfg)
	if err != nil {
		logger.Error("Invalid settlement configuration", slog.Any("error", err))
		os.Exit(1)
	}

	node, err := core.NewNode(db, nodeCfg)
	if err != nil {
		logger.Error("Failed to create node", slog.Any("error", err))
		os.Exit(1)
	}
	if err := node.ApplyGenesis(allocs); err != nil {
		logger.Error("Failed to apply genesis allocations", slog.Any("error", err))
		os.Exit(1)
	}

	if strings.TrimSpace(cfg.MetricsAddress) != "" {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", promhttp.Handler())
			if err := http.ListenAndServe(cfg.MetricsAddress, mux); err != nil {
				logger.Error("Metrics server stopped", slog.Any("error", err))
			}
		}()
	}

	logger.Info("Starting JSON-RPC server",
		slog.String("address", cfg.RPCAddress),
		slog.String("network", cfg.NetworkName))
	server := rpc.NewServer(node)
	if err := server.Start(cfg.RPCAddress); err != nil {
		logger.Error("RPC server stopped", slog.Any("error", err))
		os.Exit(1)
	}
}

func buildNodeConfig(cfg *config.Config) (core.NodeConfig, []core.GenesisAlloc, error) {
	nodeCfg := core.NodeConfig{
		FeeRate: cfg.FeeRate,
		Paused:  append([]string{}, cfg.PausedModules...),
	}
	if trimmed := strings.TrimSpace(cfg.FeeCollector); trimmed != "" {
		collector, err := crypto.DecodeAddress(trimmed)
		if err != nil {
			return core.NodeConfig{}, nil, err
		}
		copy(nodeCfg.FeeCollector[:], collector.Bytes())
	}
	for _, op := range cfg.Operators {
		addr, err := crypto.DecodeAddress(strings.TrimSpace(op))
		if err != nil {
			return core.NodeConfig{}, nil, err
		}
		var operator [20]byte
		copy(operator[:], addr.Bytes())
		nodeCfg.Operators = append(nodeCfg.Operators, operator)
	}
	allocs := make([]core.GenesisAlloc, 0, len(cfg.GenesisAlloc))
	for _, alloc := range cfg.GenesisAlloc {
		addr, err := crypto.DecodeAddress(strings.TrimSpace(alloc.Address))
		if err != nil {
			return core.NodeConfig{}, nil, err
		}
		amount, ok := new(big.Int).SetString(strings.TrimSpace(alloc.Amount), 10)
		if !ok {
			return core.NodeConfig{}, nil, fmt.Errorf("invalid genesis amount %q", alloc.Amount)
		}
		entry := core.GenesisAlloc{Token: alloc.Token, Amount: amount}
		copy(entry.Address[:], addr.Bytes())
		allocs = append(allocs, entry)
	}
	return nodeCfg, allocs, nil
}
