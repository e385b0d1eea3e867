package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"otlp2parquet/pkg/units"
)

func TestLoadReturnsValidDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)
	assert.NoError(t, cfg.Validate())
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "zstd", cfg.Parquet.Compression)
}

func TestLoadServerDefaultsMatchDocumentedValues(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 200_000, cfg.Batching.MaxRows)
	assert.Equal(t, int64(128*units.BytesPerMB), cfg.Batching.MaxBytes)
	assert.Equal(t, 10*time.Second, cfg.Batching.MaxAge)
	assert.Equal(t, int64(8*units.BytesPerMB), cfg.Request.MaxPayloadBytes)
	assert.Equal(t, 25*time.Second, cfg.Request.Timeout)
}

func TestLoadHonorsEnvOverrides(t *testing.T) {
	t.Setenv("OTLP2PARQUET_SERVER_PORT", "9090")
	t.Setenv("OTLP2PARQUET_PARQUET_COMPRESSION", "snappy")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "snappy", cfg.Parquet.Compression)
}

func TestDefaultRequestScopedConfigDisablesBatchingAndUsesFileStore(t *testing.T) {
	cfg := DefaultRequestScopedConfig()
	assert.True(t, cfg.Batching.Disabled)
	assert.Equal(t, "file", cfg.ObjectStore.Provider)
	assert.Equal(t, int64(6*units.BytesPerMB), cfg.Request.MaxPayloadBytes)
	assert.NoError(t, cfg.Validate())
}

func TestDefaultEdgeConfigShrinksPayloadCeilingAndDisablesCatalog(t *testing.T) {
	cfg := DefaultEdgeConfig()
	assert.True(t, cfg.Batching.Disabled)
	assert.False(t, cfg.Catalog.Enabled)
	assert.Equal(t, int64(10*units.BytesPerMB), cfg.Request.MaxPayloadBytes)
	assert.NoError(t, cfg.Validate())
}

func TestRequestConfigValidateRequiresPositiveTimeout(t *testing.T) {
	base := RequestConfig{MaxPayloadBytes: 1, MaxCompressedBytes: 1, Timeout: time.Second}
	assert.NoError(t, base.Validate())

	withoutTimeout := base
	withoutTimeout.Timeout = 0
	assert.Error(t, withoutTimeout.Validate())
}

func TestServerConfigValidateRejectsBadPort(t *testing.T) {
	assert.Error(t, ServerConfig{Port: 0}.Validate())
	assert.Error(t, ServerConfig{Port: 70000}.Validate())
	assert.NoError(t, ServerConfig{Port: 8080}.Validate())
}

func TestBatchingConfigValidateRequiresATriggerUnlessDisabled(t *testing.T) {
	assert.Error(t, BatchingConfig{}.Validate())
	assert.NoError(t, BatchingConfig{Disabled: true}.Validate())
	assert.NoError(t, BatchingConfig{MaxRows: 1}.Validate())
}

func TestParquetConfigValidateRejectsUnknownCompression(t *testing.T) {
	assert.Error(t, ParquetConfig{Compression: "lz4", ZstdLevel: 3}.Validate())
	assert.Error(t, ParquetConfig{Compression: "zstd", ZstdLevel: 0}.Validate())
	assert.NoError(t, ParquetConfig{Compression: "zstd", ZstdLevel: 3}.Validate())
}

func TestObjectStoreConfigValidateRequiresProviderSpecificFields(t *testing.T) {
	assert.Error(t, ObjectStoreConfig{Provider: "s3"}.Validate())
	assert.NoError(t, ObjectStoreConfig{Provider: "s3", BucketName: "b"}.Validate())
	assert.Error(t, ObjectStoreConfig{Provider: "file"}.Validate())
	assert.NoError(t, ObjectStoreConfig{Provider: "file", LocalDir: "./d"}.Validate())
	assert.Error(t, ObjectStoreConfig{Provider: "gcs"}.Validate())
}

func TestCatalogConfigValidateRequiresBaseURLWhenEnabled(t *testing.T) {
	assert.Error(t, CatalogConfig{Enabled: true}.Validate())
	assert.NoError(t, CatalogConfig{Enabled: true, BaseURL: "http://x"}.Validate())
	assert.NoError(t, CatalogConfig{Enabled: false}.Validate())
}

func TestBlobWriterConfigValidateRejectsBadBackoffFactor(t *testing.T) {
	assert.Error(t, BlobWriterConfig{MaxRetries: -1, BackoffFactor: 2}.Validate())
	assert.Error(t, BlobWriterConfig{MaxRetries: 3, BackoffFactor: 1}.Validate())
	assert.NoError(t, BlobWriterConfig{MaxRetries: 3, BackoffFactor: 2}.Validate())
}

func TestLoggingConfigValidateRejectsUnknownFormat(t *testing.T) {
	assert.Error(t, LoggingConfig{Format: "xml"}.Validate())
	assert.NoError(t, LoggingConfig{Format: "json"}.Validate())
	assert.NoError(t, LoggingConfig{Format: "text"}.Validate())
}
