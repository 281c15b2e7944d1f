package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"aquachain/config"
	"aquachain/core"
	"aquachain/gateway"
	"aquachain/observability/logging"
	"aquachain/rpc"
	"aquachain/storage"
)

func main() {
	configFile := flag.String("config", "./config.toml", "Path to the configuration file")
	flag.Parse()

	env := strings.TrimSpace(os.Getenv("AQUA_ENV"))
	logger := logging.Setup("aquad", env)

	cfg, err := config.Load(*configFile)
	if err != nil {
		logger.Error("Failed to load config", slog.Any("error", err))
		os.Exit(1)
	}

	params, err := cfg.AllocationParams()
	if err != nil {
		logger.Error("Invalid allocation parameters", slog.Any("error", err))
		os.Exit(1)
	}

	db, err := storage.NewLevelDB(cfg.DataDir)
	if err != nil {
		logger.Error("Failed to open database", slog.String("dataDir", cfg.DataDir), slog.Any("error", err))
		os.Exit(1)
	}
	defer db.Close()

	nodeCfg := core.NodeConfig{
		Params:        params,
		PausedModules: cfg.PausedModules,
		EventLogSize:  cfg.EventLogSize,
	}
	if admin, ok := cfg.Admin(); ok {
		nodeCfg.Admin = admin
	}
	node, err := core.NewNode(db, nodeCfg)
	if err != nil {
		logger.Error("Failed to initialise node", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("Node initialised",
		slog.String("network", cfg.NetworkName),
		slog.Uint64("height", node.Height()),
		slog.Uint64("cycleLength", params.CycleLength),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go advanceBlocks(ctx, node, time.Duration(cfg.BlockIntervalSeconds)*time.Second, logger)

	rpcServer := rpc.NewServer(node)
	httpServer := &http.Server{Addr: cfg.RPCAddress, Handler: rpcServer.Handler()}
	go func() {
		logger.Info("Starting JSON-RPC server", slog.String("addr", cfg.RPCAddress))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("RPC server failed", slog.Any("error", err))
			stop()
		}
	}()

	var gatewayServer *http.Server
	if strings.TrimSpace(cfg.GatewayAddress) != "" {
		gatewayServer = &http.Server{Addr: cfg.GatewayAddress, Handler: gateway.New(node, logger)}
		go func() {
			logger.Info("Starting REST gateway", slog.String("addr", cfg.GatewayAddress))
			if err := gatewayServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("Gateway server failed", slog.Any("error", err))
				stop()
			}
		}()
	}

	<-ctx.Done()
	logger.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("RPC shutdown failed", slog.Any("error", err))
	}
	if gatewayServer != nil {
		if err := gatewayServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("Gateway shutdown failed", slog.Any("error", err))
		}
	}
}

// advanceBlocks drives the host block counter at the configured cadence. The
// allocation module derives cycle identifiers from this counter alone.
func advanceBlocks(ctx context.Context, node *core.Node, interval time.Duration, logger *slog.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			height, err := node.AdvanceHeight()
			if err != nil {
				logger.Error("Failed to advance height", slog.Any("error", err))
				continue
			}
			if height%node.CycleLength() == 0 {
				logger.Info("Crossed cycle boundary", slog.Uint64("height", height), slog.Uint64("cycle", height/node.CycleLength()))
			}
		}
	}
}
