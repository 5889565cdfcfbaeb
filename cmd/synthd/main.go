package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"math/big"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"synthd/config"
	"synthd/core/state"
	"synthd/crypto"
	"synthd/native/collateral"
	"synthd/native/token"
	"synthd/observability/logging"
	"synthd/rpc"
	"synthd/storage"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const authTokenEnv = "SYNTHD_RPC_TOKEN"

func main() {
	configFile := flag.String("config", "./config.toml", "Path to the configuration file")
	memoryFlag := flag.Bool("memory", false, "DEV ONLY: keep all state in memory instead of the data directory")
	flag.Parse()

	env := strings.TrimSpace(os.Getenv("SYNTHD_ENV"))
	logger := logging.Setup("synthd", env)

	cfg, err := config.Load(*configFile)
	if err != nil {
		logger.Error("Failed to load config", slog.Any("error", err))
		os.Exit(1)
	}

	var db storage.Database
	if *memoryFlag {
		db = storage.NewMemDB()
	} else {
		leveldb, err := storage.NewLevelDB(cfg.DataDir)
		if err != nil {
			logger.Error("Failed to open database", slog.String("dir", cfg.DataDir), slog.Any("error", err))
			os.Exit(1)
		}
		db = leveldb
	}
	defer db.Close()

	engine, ledger, err := buildEngine(cfg, db)
	if err != nil {
		logger.Error("Failed to build collateral engine", slog.Any("error", err))
		os.Exit(1)
	}

	authToken := strings.TrimSpace(os.Getenv(authTokenEnv))
	if authToken == "" {
		authToken = cfg.RPCAuthToken
	}
	if strings.TrimSpace(authToken) == "" {
		logger.Warn("RPC auth token not configured; mutating methods are open")
	}

	rpcServer := &http.Server{
		Addr:              cfg.RPCAddress,
		Handler:           rpc.NewServer(engine, ledger, authToken, logger),
		ReadHeaderTimeout: 5 * time.Second,
	}
	metricsServer := &http.Server{
		Addr:              cfg.MetricsAddress,
		Handler:           promhttp.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 2)
	go func() {
		logger.Info("RPC listening", slog.String("addr", cfg.RPCAddress))
		if err := rpcServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("rpc server: %w", err)
		}
	}()
	go func() {
		logger.Info("Metrics listening", slog.String("addr", cfg.MetricsAddress))
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("metrics server: %w", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	select {
	case <-ctx.Done():
		logger.Info("Shutdown signal received")
	case err := <-errCh:
		logger.Error("Server failed", slog.Any("error", err))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := rpcServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("RPC shutdown failed", slog.Any("error", err))
	}
	if err := metricsServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("Metrics shutdown failed", slog.Any("error", err))
	}
	logger.Info("Stopped")
}

// buildEngine wires the journaled store, the price-feed registry, the debt
// token and the collateral engine from configuration.
func buildEngine(cfg *config.Config, db storage.Database) (*collateral.Engine, *token.Ledger, error) {
	journal := state.NewJournal(db)
	store := state.NewStore(journal)

	assets := make([]crypto.Address, 0, len(cfg.Assets))
	feeds := make([]collateral.PriceFeed, 0, len(cfg.Assets))
	for _, assetCfg := range cfg.Assets {
		addr, err := crypto.DecodeAddress(strings.TrimSpace(assetCfg.Address))
		if err != nil {
			return nil, nil, fmt.Errorf("asset %s: %w", assetCfg.Address, err)
		}
		assets = append(assets, addr)
		if url := strings.TrimSpace(assetCfg.FeedURL); url != "" {
			feeds = append(feeds, collateral.NewHTTPFeed(nil, url))
			continue
		}
		price, ok := new(big.Int).SetString(strings.TrimSpace(assetCfg.ManualPrice), 10)
		if !ok {
			return nil, nil, fmt.Errorf("asset %s: invalid manual price %q", assetCfg.Address, assetCfg.ManualPrice)
		}
		feeds = append(feeds, collateral.NewManualFeed(price, assetCfg.ManualDecimals))
	}

	registry, err := collateral.NewRegistry(assets, feeds)
	if err != nil {
		return nil, nil, err
	}

	moduleAddr := crypto.ModuleAddress("collateral")
	params := collateral.Params{
		LiquidationThreshold: cfg.Engine.LiquidationThreshold,
		ThresholdPrecision:   cfg.Engine.ThresholdPrecision,
		LiquidationBonus:     cfg.Engine.LiquidationBonus,
	}
	engine, err := collateral.NewEngine(moduleAddr, registry, params)
	if err != nil {
		return nil, nil, err
	}

	ledger := token.NewLedger(store, moduleAddr)
	engine.SetState(store)
	engine.SetJournal(journal)
	engine.SetDebtToken(ledger)
	return engine, ledger, nil
}
