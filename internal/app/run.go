package app

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
)

// Run starts the application and blocks until shutdown. The poll loop
// runs one cycle immediately, then on every tick of the configured
// interval. ErrInsufficientCapital stops the loop; transient cycle
// errors are logged and the next tick retries.
func (a *App) Run() error {
	a.logger.Info("application-starting",
		zap.String("mode", a.cfg.Mode),
		zap.String("symbol", a.cfg.Symbol),
		zap.String("fill-type", a.cfg.FillType),
		zap.Duration("poll-interval", a.cfg.PollInterval),
		zap.String("log-level", a.cfg.LogLevel))

	a.wg.Add(1)
	go a.runHTTPServer()

	if a.breaker != nil {
		a.wg.Add(1)
		go a.runBreaker()
	}

	a.wg.Add(1)
	go a.runPollLoop()

	a.healthChecker.SetReady(true)

	a.logger.Info("application-ready",
		zap.String("http-addr", ":"+a.cfg.HTTPPort))

	return a.waitForShutdown()
}

// RunOnce executes a single scan cycle and exits. Used by the one-shot
// scan command.
func (a *App) RunOnce(ctx context.Context) error {
	return a.Cycle(ctx)
}

func (a *App) runHTTPServer() {
	defer a.wg.Done()
	err := a.httpServer.Start()
	if err != nil {
		a.logger.Error("http-server-error", zap.Error(err))
	}
}

func (a *App) runBreaker() {
	defer a.wg.Done()
	a.breaker.Run(a.ctx)
}

func (a *App) runPollLoop() {
	defer a.wg.Done()

	ticker := time.NewTicker(a.cfg.PollInterval)
	defer ticker.Stop()

	for {
		err := a.Cycle(a.ctx)
		if errors.Is(err, ErrInsufficientCapital) {
			a.logger.Error("poll-loop-halting", zap.Error(err))
			a.cancel()
			return
		}
		if err != nil && !errors.Is(err, context.Canceled) {
			a.logger.Error("cycle-failed", zap.Error(err))
		}

		select {
		case <-a.ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (a *App) waitForShutdown() error {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		a.logger.Info("shutdown-signal-received", zap.String("signal", sig.String()))
	case <-a.ctx.Done():
		a.logger.Info("context-cancelled")
	}

	return a.Shutdown()
}

// Shutdown gracefully shuts down the application.
func (a *App) Shutdown() error {
	a.logger.Info("application-shutting-down")

	a.healthChecker.SetReady(false)
	a.cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	err := a.httpServer.Shutdown(shutdownCtx)
	if err != nil {
		a.logger.Error("http-server-shutdown-error", zap.Error(err))
	}

	err = a.store.Close()
	if err != nil {
		a.logger.Error("storage-close-error", zap.Error(err))
	}

	a.conidCache.Close()

	a.wg.Wait()

	a.logger.Info("application-shutdown-complete")

	return nil
}
