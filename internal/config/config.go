// Package config resolves the pipeline's configuration record: an
// optional local .env file via joho/godotenv, env-var and file binding
// via spf13/viper with mapstructure struct tags, defaults registered
// with viper.SetDefault, and a Validate() error method on every
// sub-config (spec.md §6).
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"otlp2parquet/pkg/units"
)

// Config is the fully resolved configuration record every pipeline
// component is constructed from.
type Config struct {
	Server      ServerConfig      `mapstructure:"server"`
	Request     RequestConfig     `mapstructure:"request"`
	Batching    BatchingConfig    `mapstructure:"batching"`
	Parquet     ParquetConfig     `mapstructure:"parquet"`
	Partition   PartitionConfig   `mapstructure:"partition"`
	ObjectStore ObjectStoreConfig `mapstructure:"object_store"`
	Catalog     CatalogConfig     `mapstructure:"catalog"`
	BlobWriter  BlobWriterConfig  `mapstructure:"blobwriter"`
	Logging     LoggingConfig     `mapstructure:"logging"`
}

// ServerConfig controls the long-running HTTP deployment.
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

func (c ServerConfig) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Port)
	}
	return nil
}

// RequestConfig bounds what a single ingress request may cost to decode
// (spec.md §4.1/§7), plus the wall-clock budget a request-scoped
// deployment (Lambda-style) gives one invocation to ingest and drain
// before it cancels the context.
type RequestConfig struct {
	MaxPayloadBytes    int64         `mapstructure:"max_payload_bytes"`
	MaxCompressedBytes int64         `mapstructure:"max_compressed_bytes"`
	Timeout            time.Duration `mapstructure:"timeout"`
}

func (c RequestConfig) Validate() error {
	if c.MaxPayloadBytes <= 0 {
		return fmt.Errorf("request.max_payload_bytes must be positive")
	}
	if c.MaxCompressedBytes <= 0 {
		return fmt.Errorf("request.max_compressed_bytes must be positive")
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("request.timeout must be positive")
	}
	return nil
}

// BatchingConfig controls the three flush triggers (spec.md §4.4).
type BatchingConfig struct {
	Disabled bool          `mapstructure:"disabled"`
	MaxRows  int           `mapstructure:"max_rows"`
	MaxBytes int64         `mapstructure:"max_bytes"`
	MaxAge   time.Duration `mapstructure:"max_age"`
}

func (c BatchingConfig) Validate() error {
	if c.Disabled {
		return nil
	}
	if c.MaxRows <= 0 && c.MaxBytes <= 0 && c.MaxAge <= 0 {
		return fmt.Errorf("batching: at least one of max_rows, max_bytes, max_age must be positive unless disabled")
	}
	return nil
}

// ParquetConfig controls the encoder's output format (spec.md §4.6).
type ParquetConfig struct {
	Compression     string `mapstructure:"compression"` // none|snappy|zstd|gzip
	ZstdLevel       int    `mapstructure:"zstd_level"`
	MaxRowGroupRows int    `mapstructure:"max_row_group_rows"`
}

func (c ParquetConfig) Validate() error {
	switch strings.ToLower(c.Compression) {
	case "none", "snappy", "zstd", "gzip":
	default:
		return fmt.Errorf("parquet.compression must be one of none|snappy|zstd|gzip, got %q", c.Compression)
	}
	if c.ZstdLevel < 1 || c.ZstdLevel > 22 {
		return fmt.Errorf("parquet.zstd_level must be between 1 and 22, got %d", c.ZstdLevel)
	}
	return nil
}

// PartitionConfig controls the object key prefix (spec.md §4.5/§6).
type PartitionConfig struct {
	Prefix string `mapstructure:"prefix"`
}

func (c PartitionConfig) Validate() error { return nil }

// ObjectStoreConfig selects and configures the object-store adapter
// (spec.md §6).
type ObjectStoreConfig struct {
	Provider        string `mapstructure:"provider"` // s3|file
	BucketName      string `mapstructure:"bucket_name"`
	Region          string `mapstructure:"region"`
	Endpoint        string `mapstructure:"endpoint"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	UsePathStyle    bool   `mapstructure:"use_path_style"`
	LocalDir        string `mapstructure:"local_dir"`
}

func (c ObjectStoreConfig) Validate() error {
	switch c.Provider {
	case "s3":
		if c.BucketName == "" {
			return fmt.Errorf("object_store.bucket_name is required for provider s3")
		}
	case "file":
		if c.LocalDir == "" {
			return fmt.Errorf("object_store.local_dir is required for provider file")
		}
	default:
		return fmt.Errorf("object_store.provider must be one of s3|file, got %q", c.Provider)
	}
	return nil
}

// CatalogConfig controls optional best-effort catalog registration
// (spec.md §6).
type CatalogConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	BaseURL string `mapstructure:"base_url"`
}

func (c CatalogConfig) Validate() error {
	if c.Enabled && c.BaseURL == "" {
		return fmt.Errorf("catalog.base_url is required when catalog.enabled is true")
	}
	return nil
}

// BlobWriterConfig controls the write retry budget (spec.md §4.7/§9).
type BlobWriterConfig struct {
	MaxRetries     int           `mapstructure:"max_retries"`
	InitialBackoff time.Duration `mapstructure:"initial_backoff"`
	BackoffFactor  float64       `mapstructure:"backoff_factor"`
	MaxTotalWait   time.Duration `mapstructure:"max_total_wait"`
}

func (c BlobWriterConfig) Validate() error {
	if c.MaxRetries < 0 {
		return fmt.Errorf("blobwriter.max_retries must be non-negative")
	}
	if c.BackoffFactor <= 1 {
		return fmt.Errorf("blobwriter.backoff_factor must be greater than 1")
	}
	return nil
}

// LoggingConfig controls the slog/tint logger (pkg/logging).
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // text|json
}

func (c LoggingConfig) Validate() error {
	switch strings.ToLower(c.Format) {
	case "text", "json":
	default:
		return fmt.Errorf("logging.format must be text or json, got %q", c.Format)
	}
	return nil
}

// Validate runs every sub-config's Validate method.
func (c Config) Validate() error {
	validators := []interface{ Validate() error }{
		c.Server, c.Request, c.Batching, c.Parquet, c.Partition,
		c.ObjectStore, c.Catalog, c.BlobWriter, c.Logging,
	}
	for _, v := range validators {
		if err := v.Validate(); err != nil {
			return err
		}
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)

	// Server-deployment defaults: cmd/server calls Load directly and
	// relies on these unconditional defaults. The request-scoped and edge
	// deployments override MaxPayloadBytes in DefaultRequestScopedConfig/
	// DefaultEdgeConfig below.
	v.SetDefault("request.max_payload_bytes", 8*units.BytesPerMB)
	v.SetDefault("request.max_compressed_bytes", 4*units.BytesPerMB)
	v.SetDefault("request.timeout", 25*time.Second)

	v.SetDefault("batching.disabled", false)
	v.SetDefault("batching.max_rows", 200_000)
	v.SetDefault("batching.max_bytes", 128*units.BytesPerMB)
	v.SetDefault("batching.max_age", 10*time.Second)

	v.SetDefault("parquet.compression", "zstd")
	v.SetDefault("parquet.zstd_level", 3)
	v.SetDefault("parquet.max_row_group_rows", 1_000_000)

	v.SetDefault("partition.prefix", "")

	v.SetDefault("object_store.provider", "file")
	v.SetDefault("object_store.region", "us-east-1")
	v.SetDefault("object_store.use_path_style", false)
	v.SetDefault("object_store.local_dir", "./data")

	v.SetDefault("catalog.enabled", false)

	v.SetDefault("blobwriter.max_retries", 3)
	v.SetDefault("blobwriter.initial_backoff", 100*time.Millisecond)
	v.SetDefault("blobwriter.backoff_factor", 2.0)
	v.SetDefault("blobwriter.max_total_wait", 5*time.Second)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
}

// Load resolves the configuration record: an optional .env file (ignored
// if absent), then env vars prefixed OTLP2PARQUET_ bound over nested
// keys, then registered defaults.
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("OTLP2PARQUET")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: failed to unmarshal: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: invalid configuration: %w", err)
	}
	return &cfg, nil
}

// DefaultRequestScopedConfig returns defaults suited to a request-scoped
// deployment: batching disabled (each invocation must flush exactly what
// it carried before returning), a tighter payload ceiling than the
// long-running server, and the local filesystem object store.
func DefaultRequestScopedConfig() *Config {
	cfg := defaultConfig()
	cfg.Batching.Disabled = true
	cfg.ObjectStore.Provider = "file"
	cfg.Request.MaxPayloadBytes = 6 * units.BytesPerMB
	return cfg
}

// DefaultEdgeConfig returns defaults suited to the single-threaded WASM
// worker deployment: batching disabled, a payload ceiling sized for a
// browser/edge runtime, and no catalog (no background goroutine is
// available to make a non-blocking registration call from).
func DefaultEdgeConfig() *Config {
	cfg := defaultConfig()
	cfg.Batching.Disabled = true
	cfg.Request.MaxPayloadBytes = 10 * units.BytesPerMB
	cfg.Catalog.Enabled = false
	return cfg
}

func defaultConfig() *Config {
	v := viper.New()
	setDefaults(v)
	var cfg Config
	_ = v.Unmarshal(&cfg)
	return &cfg
}
