package parquetenc

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"

	"github.com/parquet-go/parquet-go"
	"github.com/parquet-go/parquet-go/compress/gzip"
	"github.com/parquet-go/parquet-go/compress/snappy"
	"github.com/parquet-go/parquet-go/compress/zstd"

	"otlp2parquet/internal/columnar"
	apperrors "otlp2parquet/pkg/errors"
)

// Compression identifies one of the four codecs spec.md §4.6 requires
// support for.
type Compression int

const (
	CompressionNone Compression = iota
	CompressionSnappy
	CompressionZstd
	CompressionGzip
)

// Config controls the encoder's compression codec, zstd level (clamped
// 1..22), and row-group size bound.
type Config struct {
	Compression      Compression
	ZstdLevel        int
	MaxRowGroupRows  int
}

func (c Config) codec() parquet.Compression {
	switch c.Compression {
	case CompressionSnappy:
		return &snappy.Codec{}
	case CompressionZstd:
		return &zstd.Codec{Level: zstdLevel(c.ZstdLevel)}
	case CompressionGzip:
		return &gzip.Codec{}
	default:
		return parquet.Uncompressed
	}
}

// zstdLevel clamps the configured 1..22 level into the zstd.Level
// constants.
func zstdLevel(level int) zstd.Level {
	switch {
	case level <= 1:
		return zstd.SpeedFastest
	case level <= 6:
		return zstd.SpeedDefault
	case level <= 12:
		return zstd.SpeedBetterCompression
	default:
		return zstd.SpeedBestCompression
	}
}

// Result is one encoded batch: its bytes, and the sha256-derived content
// hash the partition builder uses for the output filename.
type Result struct {
	Bytes       []byte
	ContentHash string
}

// Encode serializes a sealed columnar batch into Parquet bytes using the
// schema derived from batch.Descriptor.
func Encode(batch *columnar.Batch, cfg Config) (Result, error) {
	sch := BuildSchema(batch.Descriptor)

	opts := []parquet.WriterOption{
		parquet.Compression(cfg.codec()),
		sch,
	}
	if cfg.MaxRowGroupRows > 0 {
		opts = append(opts, parquet.MaxRowsPerRowGroup(int64(cfg.MaxRowGroupRows)))
	}

	var buf bytes.Buffer
	writer := parquet.NewWriter(&buf, opts...)

	rows := rowsOf(batch)
	for _, row := range rows {
		if _, err := writer.Write(row); err != nil {
			return Result{}, apperrors.NewEncodeFailedError("failed to write parquet row", err)
		}
	}
	if err := writer.Close(); err != nil {
		return Result{}, apperrors.NewEncodeFailedError("failed to finalize parquet file", err)
	}

	sum := sha256.Sum256(buf.Bytes())
	return Result{
		Bytes:       buf.Bytes(),
		ContentHash: hex.EncodeToString(sum[:]),
	}, nil
}

// rowsOf materializes one map[string]any per row from the batch's
// column-major storage, restoring the row-major shape the writer's Write
// call needs while keeping the batch itself column-major throughout
// accumulation (spec.md §3's "column-major in memory" invariant).
func rowsOf(batch *columnar.Batch) []map[string]interface{} {
	rows := make([]map[string]interface{}, batch.RowCount)
	for i := range rows {
		rows[i] = make(map[string]interface{}, len(batch.Columns))
	}

	for _, col := range batch.Columns {
		appendColumnValues(rows, col)
	}
	return rows
}

func isValid(col *columnar.Column, row int) bool {
	if col.Valid == nil {
		return true
	}
	return col.Valid[row]
}

func appendColumnValues(rows []map[string]interface{}, col *columnar.Column) {
	name := col.Field.Name

	listOffset := 0
	mapOffset := 0
	mapGroupOffset := 0

	for row := range rows {
		if !isValid(col, row) {
			rows[row][name] = nil
			continue
		}

		switch {
		case col.Int64s != nil:
			rows[row][name] = col.Int64s[row]
		case col.Int32s != nil:
			rows[row][name] = col.Int32s[row]
		case col.Uint32s != nil:
			rows[row][name] = int32(col.Uint32s[row])
		case col.Float64s != nil:
			rows[row][name] = col.Float64s[row]
		case col.Bools != nil:
			rows[row][name] = col.Bools[row]
		case col.Strings != nil:
			rows[row][name] = col.Strings[row]
		case col.Binaries != nil:
			rows[row][name] = col.Binaries[row]
		case col.ListLens != nil && col.ListInt64s != nil:
			n := int(col.ListLens[row])
			rows[row][name] = append([]int64{}, col.ListInt64s[listOffset:listOffset+n]...)
			listOffset += n
		case col.ListLens != nil && col.ListFloat64s != nil:
			n := int(col.ListLens[row])
			rows[row][name] = append([]float64{}, col.ListFloat64s[listOffset:listOffset+n]...)
			listOffset += n
		case col.ListLens != nil && col.ListStrings != nil:
			n := int(col.ListLens[row])
			rows[row][name] = append([]string{}, col.ListStrings[listOffset:listOffset+n]...)
			listOffset += n
		case col.MapGroupLens != nil:
			groups := int(col.MapGroupLens[row])
			maps := make([]map[string]string, groups)
			for g := 0; g < groups; g++ {
				n := int(col.MapLens[mapGroupOffset])
				m := make(map[string]string, n)
				for k := 0; k < n; k++ {
					m[col.MapKeys[mapOffset+k]] = col.MapValues[mapOffset+k]
				}
				mapOffset += n
				mapGroupOffset++
				maps[g] = m
			}
			rows[row][name] = maps
		case col.MapLens != nil:
			n := int(col.MapLens[row])
			m := make(map[string]string, n)
			for k := 0; k < n; k++ {
				m[col.MapKeys[mapOffset+k]] = col.MapValues[mapOffset+k]
			}
			mapOffset += n
			rows[row][name] = m
		}
	}
}
