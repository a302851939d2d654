// Package equitybreaker gates live order submission on account equity.
package equitybreaker

import (
	"context"
	"fmt"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// EquityFetcher fetches the account's net liquidation value. The broker
// client and test fakes both implement it.
type EquityFetcher interface {
	PortfolioValue(ctx context.Context) (float64, error)
}

// Breaker monitors account equity and controls order submission. The
// disable threshold tracks recent order notionals so a run of large
// spreads raises the bar, and hysteresis keeps the breaker from
// flapping around the threshold.
type Breaker struct {
	enabled atomic.Bool // Lock-free reads from the submission path

	checkInterval   time.Duration
	fetcher         EquityFetcher
	logger          *zap.Logger
	notionalMult    float64 // Multiplier over avg order notional
	minEquity       float64 // Absolute equity floor
	hysteresisRatio float64 // Re-enable at ratio * disable threshold

	mu               sync.RWMutex
	lastEquity       float64
	lastCheck        time.Time
	recentNotionals  []float64
	disableThreshold float64
	enableThreshold  float64
}

// Config holds breaker configuration.
type Config struct {
	CheckInterval   time.Duration
	NotionalMult    float64
	MinEquity       float64
	HysteresisRatio float64
	Fetcher         EquityFetcher
	Logger          *zap.Logger
}

// Status holds a point-in-time view for debugging endpoints.
type Status struct {
	Enabled          bool
	LastEquity       float64
	LastCheck        time.Time
	DisableThreshold float64
	EnableThreshold  float64
	AvgNotional      float64
	RecentOrderCount int
}

// New creates an equity breaker.
func New(cfg *Config) (*Breaker, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if cfg.Fetcher == nil {
		return nil, fmt.Errorf("equity fetcher cannot be nil")
	}
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger cannot be nil")
	}
	if cfg.CheckInterval <= 0 {
		return nil, fmt.Errorf("check interval must be positive")
	}
	if cfg.NotionalMult <= 0 {
		return nil, fmt.Errorf("notional multiplier must be positive")
	}
	if cfg.MinEquity <= 0 {
		return nil, fmt.Errorf("min equity must be positive")
	}
	if cfg.HysteresisRatio < 1.0 {
		return nil, fmt.Errorf("hysteresis ratio must be >= 1.0")
	}

	b := &Breaker{
		checkInterval:    cfg.CheckInterval,
		fetcher:          cfg.Fetcher,
		logger:           cfg.Logger,
		notionalMult:     cfg.NotionalMult,
		minEquity:        cfg.MinEquity,
		hysteresisRatio:  cfg.HysteresisRatio,
		recentNotionals:  make([]float64, 0, 20),
		disableThreshold: cfg.MinEquity,
		enableThreshold:  cfg.MinEquity * cfg.HysteresisRatio,
	}

	b.enabled.Store(true)

	BreakerEnabled.Set(1)
	BreakerDisableThreshold.Set(b.disableThreshold)
	BreakerEnableThreshold.Set(b.enableThreshold)

	return b, nil
}

// IsEnabled reports whether orders should be submitted. Lock-free.
func (b *Breaker) IsEnabled() bool {
	return b.enabled.Load()
}

// RecordOrder adds a submitted order's notional to the rolling window
// and recalculates thresholds. Call after successful submission.
func (b *Breaker) RecordOrder(notional float64) {
	if notional <= 0 {
		b.logger.Warn("invalid-order-notional", zap.Float64("notional", notional))
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.recentNotionals = append(b.recentNotionals, notional)
	if len(b.recentNotionals) > 20 {
		b.recentNotionals = b.recentNotionals[1:]
	}

	sum := 0.0
	for _, n := range b.recentNotionals {
		sum += n
	}
	avg := sum / float64(len(b.recentNotionals))

	b.disableThreshold = math.Max(avg*b.notionalMult, b.minEquity)
	b.enableThreshold = b.disableThreshold * b.hysteresisRatio

	BreakerDisableThreshold.Set(b.disableThreshold)
	BreakerEnableThreshold.Set(b.enableThreshold)
	BreakerAvgNotional.Set(avg)
}

// Check fetches equity once and applies state transitions.
func (b *Breaker) Check(ctx context.Context) error {
	equity, err := b.fetcher.PortfolioValue(ctx)
	if err != nil {
		return fmt.Errorf("fetch equity: %w", err)
	}

	b.mu.Lock()
	b.lastEquity = equity
	b.lastCheck = time.Now()
	disableAt := b.disableThreshold
	enableAt := b.enableThreshold
	b.mu.Unlock()

	BreakerLastEquity.Set(equity)

	wasEnabled := b.enabled.Load()

	if wasEnabled && equity < disableAt {
		b.enabled.Store(false)
		BreakerEnabled.Set(0)
		BreakerTripsTotal.Inc()
		b.logger.Warn("equity-breaker-tripped",
			zap.Float64("equity", equity),
			zap.Float64("disable-threshold", disableAt))
		return nil
	}

	if !wasEnabled && equity >= enableAt {
		b.enabled.Store(true)
		BreakerEnabled.Set(1)
		b.logger.Info("equity-breaker-reset",
			zap.Float64("equity", equity),
			zap.Float64("enable-threshold", enableAt))
	}

	return nil
}

// Run checks equity on the configured interval until ctx is cancelled.
func (b *Breaker) Run(ctx context.Context) {
	ticker := time.NewTicker(b.checkInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			b.logger.Info("equity-breaker-stopping")
			return
		case <-ticker.C:
			err := b.Check(ctx)
			if err != nil {
				b.logger.Error("equity-check-failed", zap.Error(err))
			}
		}
	}
}

// Status returns a snapshot of the breaker state.
func (b *Breaker) Status() Status {
	b.mu.RLock()
	defer b.mu.RUnlock()

	avg := 0.0
	if len(b.recentNotionals) > 0 {
		sum := 0.0
		for _, n := range b.recentNotionals {
			sum += n
		}
		avg = sum / float64(len(b.recentNotionals))
	}

	return Status{
		Enabled:          b.enabled.Load(),
		LastEquity:       b.lastEquity,
		LastCheck:        b.lastCheck,
		DisableThreshold: b.disableThreshold,
		EnableThreshold:  b.enableThreshold,
		AvgNotional:      avg,
		RecentOrderCount: len(b.recentNotionals),
	}
}
