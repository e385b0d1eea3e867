package app

import (
	"context"
	"fmt"
	"log/slog"

	"otlp2parquet/internal/batcher"
	"otlp2parquet/internal/blobwriter"
	"otlp2parquet/internal/catalog"
	"otlp2parquet/internal/config"
	"otlp2parquet/internal/objectstore"
	"otlp2parquet/internal/otlpcodec"
	"otlp2parquet/internal/parquetenc"
	"otlp2parquet/internal/pipeline"
)

// Providers holds the constructed collaborators a Driver is built from:
// the object store, catalog, writer, batcher, and the driver that wires
// them together.
type Providers struct {
	ObjectStore objectstore.Store
	Catalog     catalog.Catalog
	Writer      *blobwriter.Writer
	Batcher     *batcher.Batcher
	Driver      *pipeline.Driver
}

// ProvideObjectStore constructs the configured object-store adapter
// (spec.md §6): S3-compatible for production, local filesystem for the
// request-scoped/edge deployments and local development.
func ProvideObjectStore(ctx context.Context, cfg config.ObjectStoreConfig) (objectstore.Store, error) {
	switch cfg.Provider {
	case "s3":
		return objectstore.NewS3Store(ctx, objectstore.S3Config{
			BucketName:      cfg.BucketName,
			Region:          cfg.Region,
			Endpoint:        cfg.Endpoint,
			AccessKeyID:     cfg.AccessKeyID,
			SecretAccessKey: cfg.SecretAccessKey,
			UsePathStyle:    cfg.UsePathStyle,
		})
	case "file":
		return objectstore.NewFileStore(cfg.LocalDir)
	default:
		return nil, fmt.Errorf("app: unknown object_store.provider %q", cfg.Provider)
	}
}

// ProvideCatalog constructs the best-effort catalog client, or the no-op
// implementation when disabled (spec.md §4.7/§9: catalog registration
// never blocks or fails the write path).
func ProvideCatalog(cfg config.CatalogConfig) catalog.Catalog {
	if !cfg.Enabled {
		return catalog.Noop{}
	}
	return catalog.NewHTTPCatalog(cfg.BaseURL)
}

// ProvideWriter constructs the retrying blob writer from its configured
// retry budget (spec.md §4.7/§9).
func ProvideWriter(store objectstore.Store, cat catalog.Catalog, cfg config.BlobWriterConfig, logger *slog.Logger) *blobwriter.Writer {
	return blobwriter.New(store, cat, blobwriter.Config{
		MaxRetries:     cfg.MaxRetries,
		InitialBackoff: cfg.InitialBackoff,
		BackoffFactor:  cfg.BackoffFactor,
		MaxTotalWait:   cfg.MaxTotalWait,
	}, logger)
}

// ProvideBatcher constructs the in-memory batcher from its three flush
// triggers, or in pass-through mode when batching is disabled (spec.md
// §4.4, used by the request-scoped and edge deployments).
func ProvideBatcher(cfg config.BatchingConfig) *batcher.Batcher {
	return batcher.New(batcher.Config{
		MaxRows:  cfg.MaxRows,
		MaxBytes: cfg.MaxBytes,
		MaxAge:   cfg.MaxAge,
		Disabled: cfg.Disabled,
	}, nil)
}

// ProvideDriver wires the fully constructed collaborators into the
// pipeline orchestrator every deployment shape drives.
func ProvideDriver(b *batcher.Batcher, w *blobwriter.Writer, cfg *config.Config, logger *slog.Logger) *pipeline.Driver {
	return &pipeline.Driver{
		Batcher: b,
		Writer:  w,
		EncodeConfig: parquetenc.Config{
			Compression:     parquetCompression(cfg.Parquet.Compression),
			ZstdLevel:       cfg.Parquet.ZstdLevel,
			MaxRowGroupRows: cfg.Parquet.MaxRowGroupRows,
		},
		Limits: otlpcodec.Limits{
			MaxCompressedBytes:   cfg.Request.MaxCompressedBytes,
			MaxDecompressedBytes: cfg.Request.MaxPayloadBytes,
		},
		PartitionPrefix: cfg.Partition.Prefix,
		Logger:          logger,
	}
}

func parquetCompression(s string) parquetenc.Compression {
	switch s {
	case "snappy":
		return parquetenc.CompressionSnappy
	case "zstd":
		return parquetenc.CompressionZstd
	case "gzip":
		return parquetenc.CompressionGzip
	default:
		return parquetenc.CompressionNone
	}
}

// ProvideAll constructs every collaborator in dependency order; it is the
// single entry point NewServer, the lambda handler, and the edge handler
// all call.
func ProvideAll(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Providers, error) {
	store, err := ProvideObjectStore(ctx, cfg.ObjectStore)
	if err != nil {
		return nil, fmt.Errorf("app: provide object store: %w", err)
	}
	cat := ProvideCatalog(cfg.Catalog)
	writer := ProvideWriter(store, cat, cfg.BlobWriter, logger)
	b := ProvideBatcher(cfg.Batching)
	driver := ProvideDriver(b, writer, cfg, logger)

	return &Providers{
		ObjectStore: store,
		Catalog:     cat,
		Writer:      writer,
		Batcher:     b,
		Driver:      driver,
	}, nil
}
