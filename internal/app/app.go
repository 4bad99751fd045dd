// Package app provides the top-level application lifecycle. It wires the
// pipeline, the optional Redis outputs, notifications, and the HTTP
// surface, then runs everything until the context is cancelled.
package app

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/alanyoungcy/arbwatch/internal/config"
)

// shutdownTimeout bounds the graceful HTTP shutdown on exit.
const shutdownTimeout = 10 * time.Second

// App is the root application object. It owns the configuration, logger,
// and cleanup functions that run in reverse order on shutdown.
type App struct {
	cfg     *config.Config
	logger  *slog.Logger
	closers []func()
}

// New creates a new App from the given configuration and logger.
func New(cfg *config.Config, logger *slog.Logger) *App {
	return &App{
		cfg:    cfg,
		logger: logger.With(slog.String("component", "app")),
	}
}

// Run wires all dependencies and runs the monitor (plus the binance feed
// and HTTP server when enabled) until ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	a.logger.InfoContext(ctx, "starting arbwatch",
		slog.String("log_level", a.cfg.LogLevel),
		slog.Any("watchlist", a.cfg.Watchlist),
	)
	a.logger.DebugContext(ctx, "active configuration", slog.Any("config", config.RedactedConfig(a.cfg)))

	deps, cleanup, err := Wire(ctx, a.cfg, a.logger)
	if err != nil {
		return fmt.Errorf("app: wire dependencies: %w", err)
	}
	a.closers = append(a.closers, cleanup)

	g, ctx := errgroup.WithContext(ctx)

	if deps.Feed != nil {
		g.Go(func() error {
			err := deps.Feed.Run(ctx)
			if ctx.Err() != nil {
				return nil // clean shutdown
			}
			return fmt.Errorf("binance feed: %w", err)
		})
	}

	if err := deps.Monitor.Start(ctx); err != nil {
		return fmt.Errorf("app: start monitor: %w", err)
	}

	if deps.Server != nil {
		g.Go(func() error {
			return deps.Server.Start()
		})
		g.Go(func() error {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			return deps.Server.Shutdown(shutdownCtx)
		})
	} else {
		g.Go(func() error {
			<-ctx.Done()
			return nil
		})
	}

	err = g.Wait()

	if stopErr := deps.Monitor.Stop(); stopErr != nil {
		a.logger.Debug("monitor already stopped", slog.String("error", stopErr.Error()))
	}

	if err != nil {
		a.logger.Error("application stopped with error", slog.String("error", err.Error()))
		return err
	}
	a.logger.Info("application stopped cleanly")
	return nil
}

// RunOnce wires dependencies, executes a single synchronous collection
// cycle, and writes the resulting snapshot as JSON to stdout.
func (a *App) RunOnce(ctx context.Context) error {
	deps, cleanup, err := Wire(ctx, a.cfg, a.logger)
	if err != nil {
		return fmt.Errorf("app: wire dependencies: %w", err)
	}
	a.closers = append(a.closers, cleanup)

	snap, err := deps.Monitor.CollectNow(ctx)
	if err != nil {
		return fmt.Errorf("app: collect once: %w", err)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(snap); err != nil {
		return fmt.Errorf("app: encode snapshot: %w", err)
	}
	return nil
}

// Close tears down all resources in reverse registration order. It is safe
// to call multiple times; subsequent calls are no-ops.
func (a *App) Close() {
	a.logger.Info("shutting down application")
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
