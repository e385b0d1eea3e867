// Package main is the long-running HTTP deployment's entry point (spec.md
// §6): it resolves configuration, starts the pipeline-backed HTTP server,
// and waits for a termination signal before draining and shutting down.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"otlp2parquet/internal/app"
	"otlp2parquet/internal/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	application, err := app.NewServer(cfg)
	if err != nil {
		log.Fatalf("failed to initialize server: %v", err)
	}

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- application.Start()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serveErr:
		if err != nil {
			log.Fatalf("server failed: %v", err)
		}
	case <-quit:
		fmt.Println("shutting down server...")

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := application.Shutdown(ctx); err != nil {
			log.Printf("server forced to shutdown: %v", err)
		}

		fmt.Println("server stopped")
	}
}
