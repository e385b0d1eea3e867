// Package http serves the long-running deployment's HTTP surface (spec.md
// §6): the three OTLP ingest endpoints plus health and Prometheus metrics,
// built on a gin.Engine.
package http

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"otlp2parquet/internal/config"
	"otlp2parquet/internal/metrics"
	"otlp2parquet/internal/pipeline"
	"otlp2parquet/internal/version"
	apperrors "otlp2parquet/pkg/errors"
)

// Server is the long-running deployment's HTTP server.
type Server struct {
	config *config.Config
	logger *slog.Logger
	driver *pipeline.Driver
	engine *gin.Engine
	server *http.Server
}

// NewServer constructs the HTTP server; Start must be called to actually
// listen.
func NewServer(cfg *config.Config, logger *slog.Logger, driver *pipeline.Driver) *Server {
	return &Server{
		config: cfg,
		logger: logger,
		driver: driver,
	}
}

// Start builds the gin engine and begins listening; it blocks until the
// listener stops.
func (s *Server) Start() error {
	gin.SetMode(gin.ReleaseMode)
	s.engine = gin.New()
	s.engine.Use(gin.Recovery())
	s.engine.Use(s.requestLogger())

	s.setupRoutes()

	s.server = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port),
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	s.logger.Info("starting http server", "addr", s.server.Addr)
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

// Shutdown gracefully stops the listener, delegating straight to
// http.Server.Shutdown.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Debug("request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		)
	}
}

func (s *Server) setupRoutes() {
	s.engine.GET("/healthz", s.handleHealthz)
	s.engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := s.engine.Group("/v1")
	v1.POST("/logs", s.ingestHandler("logs", s.driver.IngestLogs))
	v1.POST("/traces", s.ingestHandler("traces", s.driver.IngestTraces))
	v1.POST("/metrics", s.ingestHandler("metrics", s.driver.IngestMetrics))
}

func (s *Server) handleHealthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "version": version.Get()})
}

type ingestFunc func(ctx context.Context, body []byte, contentType, contentEncoding string) error

// ingestHandler adapts one of the Driver's Ingest{Logs,Traces,Metrics}
// methods into a gin handler: read the body, call through, and translate
// any pkg/errors.AppError into its mapped HTTP status code (spec.md §7).
func (s *Server) ingestHandler(signal string, ingest ingestFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		body, err := io.ReadAll(io.LimitReader(c.Request.Body, s.config.Request.MaxPayloadBytes+1))
		if err != nil {
			metrics.IngestRequestsTotal.WithLabelValues(signal, "error").Inc()
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read request body"})
			return
		}

		err = ingest(c.Request.Context(), body, c.GetHeader("Content-Type"), c.GetHeader("Content-Encoding"))
		if err != nil {
			status := apperrors.GetStatusCode(err)
			metrics.IngestRequestsTotal.WithLabelValues(signal, statusClass(status)).Inc()
			s.logger.Warn("ingest failed", "signal", signal, "status", status, "error", err)
			c.JSON(status, gin.H{"error": err.Error()})
			return
		}

		metrics.IngestRequestsTotal.WithLabelValues(signal, "2xx").Inc()
		c.Status(http.StatusOK)
	}
}

func statusClass(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	default:
		return "2xx"
	}
}
