// Package app wires the long-running deployment together: config, logger,
// the object-store/catalog/batcher/writer/driver chain from providers.go,
// the HTTP transport, and a gocron scheduler driving the batcher's max_age
// trigger (spec.md §6). The request-scoped and edge deployments build
// their own thin entry points directly on top of ProvideAll (cmd/lambda,
// cmd/edge) since they have no listener or scheduler to manage.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/prometheus/client_golang/prometheus"

	"otlp2parquet/internal/config"
	"otlp2parquet/internal/metrics"
	httpTransport "otlp2parquet/internal/transport/http"
	"otlp2parquet/pkg/logging"
)

// App is the long-running deployment: an HTTP server plus a periodic
// batcher tick, both driving the same pipeline.Driver.
type App struct {
	config       *config.Config
	logger       *slog.Logger
	providers    *Providers
	httpServer   *httpTransport.Server
	scheduler    gocron.Scheduler
	shutdownOnce sync.Once
}

// NewServer constructs the long-running deployment's App: resolves the
// logger, wires every pipeline collaborator via ProvideAll, and schedules
// the batcher's max_age tick at a cadence <= max_age/2 (spec.md §5) when
// batching is enabled.
func NewServer(cfg *config.Config) (*App, error) {
	logger := logging.NewLoggerWithFormat(
		logging.ParseLevel(cfg.Logging.Level),
		cfg.Logging.Format,
	)

	providers, err := ProvideAll(context.Background(), cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("app: failed to initialize providers: %w", err)
	}
	metrics.MustRegister(prometheus.DefaultRegisterer)

	httpServer := httpTransport.NewServer(cfg, logger, providers.Driver)

	app := &App{
		config:     cfg,
		logger:     logger,
		providers:  providers,
		httpServer: httpServer,
	}

	if !cfg.Batching.Disabled && cfg.Batching.MaxAge > 0 {
		scheduler, err := newTickScheduler(providers, cfg.Batching.MaxAge, logger)
		if err != nil {
			return nil, fmt.Errorf("app: failed to initialize scheduler: %w", err)
		}
		app.scheduler = scheduler
	}

	return app, nil
}

// newTickScheduler builds a gocron scheduler calling Driver.Tick at a
// cadence of max_age/2, so every sealed-by-age batch is flushed within at
// most 1.5x its configured max age (spec.md §5).
func newTickScheduler(providers *Providers, maxAge time.Duration, logger *slog.Logger) (gocron.Scheduler, error) {
	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return nil, err
	}

	cadence := maxAge / 2
	if cadence <= 0 {
		cadence = time.Second
	}

	_, err = scheduler.NewJob(
		gocron.DurationJob(cadence),
		gocron.NewTask(func() {
			ctx, cancel := context.WithTimeout(context.Background(), cadence)
			defer cancel()
			if err := providers.Driver.Tick(ctx); err != nil {
				logger.Error("scheduled batcher tick failed", "error", err)
			}
		}),
	)
	if err != nil {
		return nil, err
	}
	return scheduler, nil
}

// Start begins serving HTTP and, if configured, the batcher tick
// scheduler. It blocks until the HTTP listener stops.
func (a *App) Start() error {
	a.logger.Info("starting otlp2parquet server")

	if a.scheduler != nil {
		a.scheduler.Start()
	}

	return a.httpServer.Start()
}

// Shutdown gracefully stops the scheduler and HTTP listener, then drains
// every open batch slot through the pipeline before returning (spec.md
// §4.8/§5: nothing buffered in memory may be lost on a clean shutdown).
func (a *App) Shutdown(ctx context.Context) error {
	var shutdownErr error
	a.shutdownOnce.Do(func() {
		shutdownErr = a.doShutdown(ctx)
	})
	return shutdownErr
}

func (a *App) doShutdown(ctx context.Context) error {
	a.logger.Info("shutting down otlp2parquet server")

	if a.scheduler != nil {
		if err := a.scheduler.Shutdown(); err != nil {
			a.logger.Error("failed to stop scheduler", "error", err)
		}
	}

	if err := a.httpServer.Shutdown(ctx); err != nil {
		a.logger.Error("failed to shutdown http server", "error", err)
	}

	if err := a.providers.Driver.Drain(ctx); err != nil {
		a.logger.Error("failed to drain batcher on shutdown", "error", err)
		return err
	}

	a.logger.Info("shutdown complete")
	return nil
}

// GetProviders returns the constructed collaborators, used by tests and
// health checks.
func (a *App) GetProviders() *Providers {
	return a.providers
}

// GetLogger returns the application logger.
func (a *App) GetLogger() *slog.Logger {
	return a.logger
}

// GetConfig returns the resolved configuration.
func (a *App) GetConfig() *config.Config {
	return a.config
}
