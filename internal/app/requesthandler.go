package app

import (
	"context"
	"io"
	"log/slog"
	"net/http"

	"otlp2parquet/internal/config"
	apperrors "otlp2parquet/pkg/errors"
	"otlp2parquet/pkg/logging"
)

// RequestHandler serves the three OTLP ingest routes for deployment
// shapes with no long-running HTTP listener of their own (spec.md §6):
// the request-scoped Lambda-style adapter (net/http.Handler) and the
// WASM edge worker (a direct IngestOne call from the syscall/js bridge).
// Every call decodes, converts, appends, and — since batching is
// disabled for both shapes — drains and writes synchronously before
// returning, so an invocation never leaves buffered rows behind when its
// execution environment is frozen or recycled.
type RequestHandler struct {
	providers *Providers
	logger    *slog.Logger
	limits    config.RequestConfig
}

// NewRequestHandler builds a RequestHandler once per cold start; reuse it
// across warm invocations.
func NewRequestHandler(cfg *config.Config) (*RequestHandler, error) {
	logger := logging.NewLoggerWithFormat(logging.ParseLevel(cfg.Logging.Level), cfg.Logging.Format)

	providers, err := ProvideAll(context.Background(), cfg, logger)
	if err != nil {
		return nil, err
	}

	return &RequestHandler{providers: providers, logger: logger, limits: cfg.Request}, nil
}

// IngestOne decodes and flushes one OTLP export request for the signal
// named by path ("/v1/logs", "/v1/traces", "/v1/metrics"), returning an
// HTTP-style status code and a response body — used directly by both
// ServeHTTP and the WASM bridge so neither has to duplicate the
// ingest-then-drain sequence.
func (h *RequestHandler) IngestOne(ctx context.Context, path string, body []byte, contentType, contentEncoding string) (int, string) {
	var ingest func(ctx context.Context, body []byte, contentType, contentEncoding string) error
	switch path {
	case "/v1/logs":
		ingest = h.providers.Driver.IngestLogs
	case "/v1/traces":
		ingest = h.providers.Driver.IngestTraces
	case "/v1/metrics":
		ingest = h.providers.Driver.IngestMetrics
	default:
		return http.StatusNotFound, "unknown path"
	}

	ctx, cancel := context.WithTimeout(ctx, h.limits.Timeout)
	defer cancel()

	if err := ingest(ctx, body, contentType, contentEncoding); err != nil {
		status := apperrors.GetStatusCode(err)
		h.logger.Warn("ingest failed", "path", path, "status", status, "error", err)
		return status, err.Error()
	}

	if err := h.providers.Driver.Drain(ctx); err != nil {
		h.logger.Error("drain failed", "path", path, "error", err)
		return apperrors.GetStatusCode(err), err.Error()
	}

	return http.StatusOK, ""
}

// ServeHTTP implements net/http.Handler for the request-scoped
// deployment, fronted by a Lambda HTTP adapter.
func (h *RequestHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path == "/healthz" {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, h.limits.MaxPayloadBytes+1))
	if err != nil {
		http.Error(w, "failed to read request body", http.StatusInternalServerError)
		return
	}

	status, message := h.IngestOne(r.Context(), r.URL.Path, body, r.Header.Get("Content-Type"), r.Header.Get("Content-Encoding"))
	if message != "" {
		http.Error(w, message, status)
		return
	}
	w.WriteHeader(status)
}
