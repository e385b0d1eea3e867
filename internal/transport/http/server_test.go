package http

import (
	"bytes"
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"otlp2parquet/internal/config"
	apperrors "otlp2parquet/pkg/errors"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestHandleHealthzReturnsOK(t *testing.T) {
	s := &Server{config: &config.Config{}}
	rec := httptest.NewRecorder()
	_, engine := gin.CreateTestContext(rec)
	engine.GET("/healthz", s.handleHealthz)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	engine.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)
}

func TestIngestHandlerSuccessReturns200(t *testing.T) {
	s := &Server{config: &config.Config{Request: config.RequestConfig{MaxPayloadBytes: 1024}}}
	called := false
	handler := s.ingestHandler("logs", func(ctx context.Context, body []byte, contentType, contentEncoding string) error {
		called = true
		assert.Equal(t, "payload", string(body))
		return nil
	})

	rec := httptest.NewRecorder()
	_, engine := gin.CreateTestContext(rec)
	engine.POST("/v1/logs", handler)

	req := httptest.NewRequest(http.MethodPost, "/v1/logs", bytes.NewBufferString("payload"))
	engine.ServeHTTP(rec, req)

	assert.True(t, called)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestIngestHandlerMapsAppErrorStatusCode(t *testing.T) {
	s := &Server{config: &config.Config{Request: config.RequestConfig{MaxPayloadBytes: 1024}}}
	handler := s.ingestHandler("logs", func(ctx context.Context, body []byte, contentType, contentEncoding string) error {
		return apperrors.NewMalformedError("bad protobuf", "")
	})

	rec := httptest.NewRecorder()
	_, engine := gin.CreateTestContext(rec)
	engine.POST("/v1/logs", handler)

	req := httptest.NewRequest(http.MethodPost, "/v1/logs", bytes.NewBufferString("x"))
	engine.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestStatusClass(t *testing.T) {
	assert.Equal(t, "2xx", statusClass(200))
	assert.Equal(t, "4xx", statusClass(404))
	assert.Equal(t, "5xx", statusClass(500))
}

func TestServerShutdownFiltersExpectedError(t *testing.T) {
	engine := gin.New()
	engine.GET("/health", func(c *gin.Context) { c.JSON(200, gin.H{"status": "ok"}) })

	httpServer := &http.Server{Handler: engine}
	lis, err := net.Listen("tcp", ":0")
	require.NoError(t, err)

	serveErr := make(chan error, 1)
	go func() {
		if err := httpServer.Serve(lis); err != nil && err != http.ErrServerClosed {
			serveErr <- err
		}
	}()
	time.Sleep(100 * time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	assert.NoError(t, httpServer.Shutdown(ctx))

	select {
	case err := <-serveErr:
		t.Errorf("expected no error during graceful shutdown, got: %v", err)
	case <-time.After(time.Second):
	}
}

func TestServerShutdownWithNoListenerIsNoop(t *testing.T) {
	s := &Server{}
	assert.NoError(t, s.Shutdown(context.Background()))
}
