// Package app assembles the worker from its parts: the provider
// client, the chain ledger, the optional snapshot store, the sync
// services and the internal HTTP surface.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/riskibarqy/betledger-sync/external/apifootball"
	"github.com/riskibarqy/betledger-sync/internal/config"
	"github.com/riskibarqy/betledger-sync/internal/infrastructure/ledger/evm"
	"github.com/riskibarqy/betledger-sync/internal/infrastructure/snapshot/redisstore"
	"github.com/riskibarqy/betledger-sync/internal/interfaces/httpapi"
	"github.com/riskibarqy/betledger-sync/internal/platform/logging"
	"github.com/riskibarqy/betledger-sync/internal/platform/resilience"
	"github.com/riskibarqy/betledger-sync/internal/usecase"
)

// App owns every long-lived dependency of the worker. Close releases
// them in reverse construction order.
type App struct {
	Config config.Config
	Logger *logging.Logger

	RunService      *usecase.RunService
	SnapshotService *usecase.SnapshotService
	Server          *http.Server

	chain     *evm.Client
	snapshots *redisstore.Store
}

func New(ctx context.Context, cfg config.Config, logger *logging.Logger) (*App, error) {
	if logger == nil {
		logger = logging.Default()
	}

	provider := apifootball.NewClient(apifootball.ClientConfig{
		BaseURL:    cfg.APIFootballBaseURL,
		Token:      cfg.APIFootballToken,
		Timeout:    cfg.APIFootballTimeout,
		MaxRetries: cfg.APIFootballMaxRetries,
		CacheTTL:   cfg.APIFootballCacheTTL,
		Logger:     logger,
		CircuitBreaker: resilience.CircuitBreakerConfig{
			Enabled:          cfg.APIFootballCircuitEnabled,
			FailureThreshold: cfg.APIFootballCircuitFailureCount,
			OpenTimeout:      cfg.APIFootballCircuitOpenTimeout,
			HalfOpenMaxReq:   cfg.APIFootballCircuitHalfOpenMaxReq,
		},
	})

	chain, err := evm.Dial(ctx, evm.Config{
		RPCURL:          cfg.ChainRPCURL,
		ContractAddress: cfg.ChainContractAddress,
		PrivateKey:      cfg.ChainPrivateKey,
		ChainID:         cfg.ChainID,
		GasLimit:        cfg.ChainGasLimit,
		Logger:          logger,
	})
	if err != nil {
		return nil, fmt.Errorf("dial chain: %w", err)
	}

	app := &App{
		Config: cfg,
		Logger: logger,
		chain:  chain,
	}

	if cfg.SnapshotEnabled {
		store, err := redisstore.New(ctx, redisstore.Config{
			Addr:     cfg.RedisAddr,
			Username: cfg.RedisUser,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			UseTLS:   cfg.RedisTLS,
		})
		if err != nil {
			chain.Close()
			return nil, fmt.Errorf("connect snapshot store: %w", err)
		}
		app.snapshots = store
		app.SnapshotService = usecase.NewSnapshotService(store, usecase.SnapshotConfig{
			Key: cfg.SnapshotKey,
			TTL: cfg.SnapshotTTL,
		}, logger)
	}

	registrar := usecase.NewRegistrarService(provider, chain, usecase.RegistrarConfig{
		HorizonDays: cfg.HorizonDays,
		CreateCap:   cfg.CreateCapPerRun,
		WriteDelay:  cfg.WriteDelay,
	}, logger)
	settler := usecase.NewSettlementService(provider, chain, usecase.SettlementConfig{
		Grace:      cfg.SettleGrace,
		ScanFloor:  cfg.SettleScanFloor,
		WriteDelay: cfg.WriteDelay,
	}, logger)

	selector := usecase.AllLeagues
	if cfg.LeagueRotationEnabled {
		selector = usecase.DailyRotation(cfg.LeagueRotation)
	}

	app.RunService = usecase.NewRunService(
		provider,
		registrar,
		settler,
		selector,
		app.SnapshotService,
		usecase.RunConfig{
			Leagues:    cfg.LeagueIDs,
			QuotaGuard: cfg.QuotaGuardEnabled,
			QuotaFloor: cfg.QuotaFloor,
		},
		logger,
	)

	handler := httpapi.NewHandler(app.RunService, app.SnapshotService, cfg.RunTimeout, logger)
	router := httpapi.NewRouter(handler, slog.Default(), cfg.InternalJobToken)

	app.Server = &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}
	if app.Server.Addr == "" {
		chain.Close()
		return nil, fmt.Errorf("http server addr cannot be empty")
	}

	return app, nil
}

func (a *App) Close() error {
	var firstErr error
	if a.snapshots != nil {
		if err := a.snapshots.Close(); err != nil {
			firstErr = err
		}
	}
	if a.chain != nil {
		a.chain.Close()
	}
	return firstErr
}
