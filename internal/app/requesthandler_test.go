package app

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"otlp2parquet/internal/config"
)

func newTestRequestHandler(t *testing.T) *RequestHandler {
	t.Helper()
	cfg := config.DefaultRequestScopedConfig()
	cfg.ObjectStore.LocalDir = t.TempDir()

	providers, err := ProvideAll(context.Background(), cfg, slog.Default())
	require.NoError(t, err)

	return &RequestHandler{providers: providers, logger: slog.Default(), limits: cfg.Request}
}

func TestIngestOneUnknownPathReturns404(t *testing.T) {
	h := newTestRequestHandler(t)
	status, msg := h.IngestOne(context.Background(), "/v1/bogus", nil, "", "")
	assert.Equal(t, http.StatusNotFound, status)
	assert.NotEmpty(t, msg)
}

func TestIngestOneMalformedBodyReturnsMappedStatus(t *testing.T) {
	h := newTestRequestHandler(t)
	status, msg := h.IngestOne(context.Background(), "/v1/logs", []byte{0xFF, 0xFF}, "application/x-protobuf", "")
	assert.Equal(t, http.StatusBadRequest, status)
	assert.NotEmpty(t, msg)
}

func TestIngestOneEmptyRequestSucceedsAndDrains(t *testing.T) {
	h := newTestRequestHandler(t)
	status, msg := h.IngestOne(context.Background(), "/v1/logs", []byte{}, "application/x-protobuf", "")
	assert.Equal(t, http.StatusOK, status)
	assert.Empty(t, msg)
}

func TestServeHTTPHealthz(t *testing.T) {
	h := newTestRequestHandler(t)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, `{"status":"ok"}`, rec.Body.String())
}

func TestServeHTTPIngestSuccess(t *testing.T) {
	h := newTestRequestHandler(t)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/logs", bytes.NewBuffer(nil))
	req.Header.Set("Content-Type", "application/x-protobuf")
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestServeHTTPIngestMalformedReturnsError(t *testing.T) {
	h := newTestRequestHandler(t)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/traces", bytes.NewBufferString("not a proto \xff\xff"))
	req.Header.Set("Content-Type", "application/x-protobuf")
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
