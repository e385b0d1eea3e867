// Package blobwriter puts encoded Parquet bytes to the object store
// at-least-once: exponential backoff with jitter across a bounded retry
// budget, transient-vs-permanent error classification, a best-effort
// catalog notification, and dead-letter routing when retries are
// exhausted (spec.md §4.7). The retry loop is hand-rolled rather than
// imported, since no backoff library appears as a direct dependency
// anywhere in the reference pack (see DESIGN.md) and the policy itself is
// a handful of lines.
package blobwriter

import (
	"context"
	"log/slog"
	"math/rand"
	"time"

	"otlp2parquet/internal/catalog"
	"otlp2parquet/internal/metrics"
	"otlp2parquet/internal/objectstore"
	apperrors "otlp2parquet/pkg/errors"
)

// Config controls the retry budget (spec.md §9's defaults: 3 retries, so
// up to 4 attempts, 100ms initial backoff doubling each attempt, capped at
// 5s total wait).
type Config struct {
	MaxRetries    int
	InitialBackoff time.Duration
	BackoffFactor float64
	MaxTotalWait  time.Duration
}

// DefaultConfig returns spec.md's stated defaults.
func DefaultConfig() Config {
	return Config{
		MaxRetries:     3,
		InitialBackoff: 100 * time.Millisecond,
		BackoffFactor:  2,
		MaxTotalWait:   5 * time.Second,
	}
}

// Writer is the blob writer component.
type Writer struct {
	store   objectstore.Store
	catalog catalog.Catalog
	cfg     Config
	logger  *slog.Logger
	sleep   func(context.Context, time.Duration) error
}

// New constructs a Writer. cat may be catalog.Noop{} when catalog
// registration is disabled. logger may be nil, in which case slog.Default
// is used.
func New(store objectstore.Store, cat catalog.Catalog, cfg Config, logger *slog.Logger) *Writer {
	return &Writer{store: store, catalog: cat, cfg: cfg, logger: logger, sleep: sleepCtx}
}

func (w *Writer) logf() *slog.Logger {
	if w.logger != nil {
		return w.logger
	}
	return slog.Default()
}

// Write puts content under key with retry, then best-effort registers it
// in the catalog. table/rows/sizeBytes are passed through to the catalog
// call only. On retry exhaustion for a transient error, or immediately for
// a permanent one, Write returns the error — the pipeline driver is
// responsible for routing the payload to the dead-letter sink.
func (w *Writer) Write(ctx context.Context, key string, content []byte, table string, rows int) error {
	var lastErr error
	backoff := w.cfg.InitialBackoff
	start := time.Now()
	defer func() {
		metrics.WriteDuration.WithLabelValues(table).Observe(time.Since(start).Seconds())
	}()

	for attempt := 0; attempt <= w.cfg.MaxRetries; attempt++ {
		err := w.store.Put(ctx, key, content)
		if err == nil {
			w.registerBestEffort(ctx, table, key, rows, int64(len(content)))
			return nil
		}
		lastErr = err

		if !objectstore.IsTransient(err) {
			return apperrors.NewWriteFailedError(false, "permanent object-store write failure", err)
		}
		if attempt == w.cfg.MaxRetries {
			break
		}
		if time.Since(start)+backoff > w.cfg.MaxTotalWait {
			break
		}

		jittered := jitter(backoff)
		if sleepErr := w.sleep(ctx, jittered); sleepErr != nil {
			return apperrors.NewWriteFailedError(true, "write retry interrupted", sleepErr)
		}
		metrics.WriteRetriesTotal.WithLabelValues(table).Inc()
		backoff = time.Duration(float64(backoff) * w.cfg.BackoffFactor)
	}

	return apperrors.NewWriteFailedError(true, "object-store write exhausted retries", lastErr)
}

// registerBestEffort calls the catalog and, on failure, logs a warning and
// carries on: catalog registration must never fail the write that already
// succeeded, but a silent failure would leave the written blob invisible
// to catalog-backed readers with no operator signal at all.
func (w *Writer) registerBestEffort(ctx context.Context, table, key string, rows int, sizeBytes int64) {
	if err := w.catalog.Register(ctx, table, key, rows, sizeBytes); err != nil {
		catalogErr := apperrors.NewCatalogError("catalog registration failed", err)
		w.logf().Warn("catalog registration failed, blob write still succeeded",
			"table", table, "key", key, "error", catalogErr)
	}
}

func jitter(d time.Duration) time.Duration {
	if d <= 0 {
		return 0
	}
	// Full jitter: a uniform random value in [0, d), avoiding synchronized
	// retry storms across many concurrent writers.
	return time.Duration(rand.Int63n(int64(d)))
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
