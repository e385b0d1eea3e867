// Package main is the request-scoped deployment's entry point (spec.md
// §6): a plain net/http.Handler shaped so a Lambda HTTP adapter (the AWS
// Lambda Web Adapter, or aws-lambda-go's httpadapter) can front it without
// this binary knowing anything about the Lambda runtime itself. Batching
// is disabled (config.DefaultRequestScopedConfig): every request flushes
// exactly the rows it carried before the handler returns, and the
// collaborators are built once at cold start and reused across warm
// invocations.
package main

import (
	"log"
	"net"
	"net/http"
	"os"
	"time"

	"otlp2parquet/internal/app"
	"otlp2parquet/internal/config"
)

func main() {
	cfg := config.DefaultRequestScopedConfig()

	handler, err := app.NewRequestHandler(cfg)
	if err != nil {
		log.Fatalf("failed to initialize request handler: %v", err)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	server := &http.Server{
		Addr:              net.JoinHostPort("0.0.0.0", port),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	log.Printf("request-scoped handler listening on %s", server.Addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("request handler server failed: %v", err)
	}
}
