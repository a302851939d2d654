// Package app wires the scan-rank-size-submit pipeline into a polling
// application.
package app

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/CarsonBurke/options-arb/internal/broker"
	"github.com/CarsonBurke/options-arb/internal/chain"
	"github.com/CarsonBurke/options-arb/internal/equitybreaker"
	"github.com/CarsonBurke/options-arb/internal/marketdata"
	"github.com/CarsonBurke/options-arb/internal/orders"
	"github.com/CarsonBurke/options-arb/internal/ranking"
	"github.com/CarsonBurke/options-arb/internal/scanner"
	"github.com/CarsonBurke/options-arb/internal/sizing"
	"github.com/CarsonBurke/options-arb/internal/storage"
	"github.com/CarsonBurke/options-arb/pkg/cache"
	"github.com/CarsonBurke/options-arb/pkg/config"
	"github.com/CarsonBurke/options-arb/pkg/healthprobe"
	"github.com/CarsonBurke/options-arb/pkg/httpserver"
	"github.com/CarsonBurke/options-arb/pkg/marketclock"
	"github.com/CarsonBurke/options-arb/pkg/types"
)

// MarketDataSource supplies chain snapshots for scanning.
type MarketDataSource interface {
	Snapshot(ctx context.Context) (*types.Snapshot, error)
}

// Broker is the order-routing side of the pipeline.
type Broker interface {
	PortfolioValue(ctx context.Context) (float64, error)
	ResolveConids(ctx context.Context, dates []string, strikes []float64) (chain.Index[string], error)
	SubmitOrders(ctx context.Context, batch *types.OrderBatch) error
	CancelPendingOrders(ctx context.Context) error
}

// MarketClock reports whether the combo session is open at a given
// instant.
type MarketClock interface {
	IsOpen(t time.Time) bool
}

// SubmissionGate decides whether live submission is currently allowed.
type SubmissionGate interface {
	IsEnabled() bool
	RecordOrder(notional float64)
}

// App is the main application orchestrator.
type App struct {
	cfg           *config.Config
	logger        *zap.Logger
	healthChecker *healthprobe.HealthChecker
	httpServer    *httpserver.Server
	clock         MarketClock
	marketData    MarketDataSource
	broker        Broker
	scanner       *scanner.Scanner
	ranker        *ranking.Ranker
	builder       *orders.Builder
	store         storage.Store
	gate          SubmissionGate
	breaker       *equitybreaker.Breaker
	conidCache    cache.Cache

	mu             sync.RWMutex
	lastContenders []*types.Contender
	lastScannedAt  time.Time

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a new application instance.
func New(cfg *config.Config, logger *zap.Logger) (*App, error) {
	ctx, cancel := context.WithCancel(context.Background())

	healthChecker := healthprobe.New()

	conidCache, err := setupCache(logger)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("setup cache: %w", err)
	}

	marketData, err := marketdata.NewClient(&marketdata.Config{
		BaseURL: cfg.MarketDataBaseURL,
		APIKey:  cfg.MarketDataAPIKey,
		Symbol:  cfg.Symbol,
		Timeout: cfg.MarketDataTimeout,
		Logger:  logger,
	})
	if err != nil {
		cancel()
		return nil, fmt.Errorf("setup market data client: %w", err)
	}

	brokerClient, err := broker.NewClient(&broker.Config{
		BaseURL:   cfg.BrokerBaseURL,
		AccountID: cfg.AccountID,
		Symbol:    cfg.Symbol,
		Timeout:   cfg.BrokerTimeout,
		Logger:    logger,
		Cache:     conidCache,
	})
	if err != nil {
		cancel()
		return nil, fmt.Errorf("setup broker client: %w", err)
	}

	store, err := setupStorage(cfg, logger)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("setup storage: %w", err)
	}

	app := &App{
		cfg:           cfg,
		logger:        logger,
		healthChecker: healthChecker,
		clock:         marketclock.New(),
		marketData:    marketData,
		broker:        brokerClient,
		scanner: scanner.New(scanner.Config{
			MinEdge: cfg.ScanMinEdge,
			Logger:  logger,
		}),
		ranker: ranking.New(logger),
		builder: orders.New(orders.Config{
			AccountID:      cfg.AccountID,
			DiscountFactor: cfg.DiscountFactor,
			Symbol:         cfg.Symbol,
			Logger:         logger,
		}),
		store:      store,
		conidCache: conidCache,
		ctx:        ctx,
		cancel:     cancel,
	}

	if cfg.Mode == "live" {
		breaker, err := equitybreaker.New(&equitybreaker.Config{
			CheckInterval:   cfg.BreakerCheckInterval,
			NotionalMult:    cfg.BreakerNotionalMultiplier,
			MinEquity:       sizing.CapitalFloor,
			HysteresisRatio: cfg.BreakerHysteresisRatio,
			Fetcher:         brokerClient,
			Logger:          logger,
		})
		if err != nil {
			cancel()
			return nil, fmt.Errorf("setup equity breaker: %w", err)
		}
		app.breaker = breaker
		app.gate = breaker
	}

	app.httpServer = httpserver.New(&httpserver.Config{
		Port:          cfg.HTTPPort,
		Logger:        logger,
		HealthChecker: healthChecker,
		Contenders:    app,
	})

	return app, nil
}

// LastContenders returns the most recent ranked scan result.
func (a *App) LastContenders() ([]*types.Contender, time.Time) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.lastContenders, a.lastScannedAt
}

func (a *App) setLastContenders(contenders []*types.Contender, at time.Time) {
	a.mu.Lock()
	a.lastContenders = contenders
	a.lastScannedAt = at
	a.mu.Unlock()
}

func setupCache(logger *zap.Logger) (cache.Cache, error) {
	return cache.NewRistrettoCache(&cache.RistrettoConfig{
		NumCounters: 100000, // 10x expected max items (dates x rights x strikes)
		MaxCost:     10000,
		BufferItems: 64,
		Logger:      logger,
	})
}

func setupStorage(cfg *config.Config, logger *zap.Logger) (storage.Store, error) {
	if cfg.StorageMode == "postgres" {
		store, err := storage.NewPostgresStore(&storage.PostgresConfig{
			Host:     cfg.PostgresHost,
			Port:     cfg.PostgresPort,
			User:     cfg.PostgresUser,
			Password: cfg.PostgresPass,
			Database: cfg.PostgresDB,
			SSLMode:  cfg.PostgresSSL,
			Logger:   logger,
		})
		if err != nil {
			return nil, fmt.Errorf("create postgres store: %w", err)
		}
		return store, nil
	}

	return storage.NewConsoleStore(logger), nil
}
