// Package pipeline wires the Codec, Splitter, Converter, Batcher,
// Partition Path Builder, Parquet Encoder, and Blob Writer into the single
// orchestrator every deployment shape drives (spec.md §4.8): decode once
// per request, append rows into the batcher, and encode+write whatever the
// batcher seals — either immediately (disabled/pass-through batching) or
// later, on a tick or at shutdown.
package pipeline

import (
	"context"
	"log/slog"
	"time"

	"otlp2parquet/internal/batcher"
	"otlp2parquet/internal/blobwriter"
	"otlp2parquet/internal/columnar"
	"otlp2parquet/internal/metrics"
	"otlp2parquet/internal/otlpcodec"
	"otlp2parquet/internal/parquetenc"
	"otlp2parquet/internal/partition"
	"otlp2parquet/internal/signal"
	"otlp2parquet/internal/splitter"

	"otlp2parquet/internal/converter"
)

// Driver is the pipeline orchestrator. One Driver is constructed per
// deployment and shared across requests.
type Driver struct {
	Batcher         *batcher.Batcher
	Writer          *blobwriter.Writer
	EncodeConfig    parquetenc.Config
	Limits          otlpcodec.Limits
	PartitionPrefix string
	Logger          *slog.Logger
}

func (d *Driver) logger() *slog.Logger {
	if d.Logger != nil {
		return d.Logger
	}
	return slog.Default()
}

// IngestLogs decodes, splits, converts, and appends one logs export
// request, flushing any batch slots the append sealed.
func (d *Driver) IngestLogs(ctx context.Context, body []byte, contentType, contentEncoding string) error {
	req, err := otlpcodec.DecodeLogs(body, contentType, contentEncoding, d.Limits)
	if err != nil {
		return err
	}

	var sealed []batcher.Sealed
	for _, group := range splitter.Logs(req) {
		for _, rl := range group.Resources {
			key := signal.Key{Signal: signal.Logs, ServiceName: group.ServiceName}
			sealed = append(sealed, d.Batcher.Append(key, func(b *columnar.Batch) {
				before := b.RowCount
				converter.AppendLogs(b, rl, group.ServiceName)
				metrics.IngestRowsTotal.WithLabelValues("logs").Add(float64(b.RowCount - before))
			})...)
		}
	}
	return d.flushSealed(ctx, sealed)
}

// IngestTraces decodes, splits, converts, and appends one traces export
// request.
func (d *Driver) IngestTraces(ctx context.Context, body []byte, contentType, contentEncoding string) error {
	req, err := otlpcodec.DecodeTraces(body, contentType, contentEncoding, d.Limits)
	if err != nil {
		return err
	}

	var sealed []batcher.Sealed
	for _, group := range splitter.Traces(req) {
		for _, rs := range group.Resources {
			key := signal.Key{Signal: signal.Traces, ServiceName: group.ServiceName}
			sealed = append(sealed, d.Batcher.Append(key, func(b *columnar.Batch) {
				before := b.RowCount
				converter.AppendTraces(b, rs, group.ServiceName)
				metrics.IngestRowsTotal.WithLabelValues("traces").Add(float64(b.RowCount - before))
			})...)
		}
	}
	return d.flushSealed(ctx, sealed)
}

// IngestMetrics decodes, splits, converts, and appends one metrics export
// request, routing each data point to its metric-kind-specific batch slot.
func (d *Driver) IngestMetrics(ctx context.Context, body []byte, contentType, contentEncoding string) error {
	req, err := otlpcodec.DecodeMetrics(body, contentType, contentEncoding, d.Limits)
	if err != nil {
		return err
	}

	var sealed []batcher.Sealed
	for _, group := range splitter.Metrics(req) {
		for _, rm := range group.Resources {
			for _, sb := range converter.AppendMetrics(rm, group.ServiceName, metricsBatchProvider(d, group.ServiceName)) {
				sealed = append(sealed, batcher.Sealed{Key: sb.Key, Batch: sb.Batch})
			}
		}
	}
	return d.flushSealed(ctx, sealed)
}

// metricsBatchProvider adapts the batcher's per-call Append into the
// converter's per-data-point BatchProvider shape, so every data point gets
// its own flush-trigger check under the slot-map lock, exactly like one
// Append call per resource does for logs/traces.
func metricsBatchProvider(d *Driver, serviceName string) converter.BatchProvider {
	return func(kind signal.MetricKind, appendRow func(b *columnar.Batch)) []converter.SealedBatch {
		key := signal.Key{Signal: signal.Metrics, MetricKind: kind, ServiceName: serviceName}
		sealed := d.Batcher.Append(key, func(b *columnar.Batch) {
			before := b.RowCount
			appendRow(b)
			metrics.IngestRowsTotal.WithLabelValues("metrics").Add(float64(b.RowCount - before))
		})
		out := make([]converter.SealedBatch, len(sealed))
		for i, s := range sealed {
			out[i] = converter.SealedBatch{Key: s.Key, Batch: s.Batch}
		}
		return out
	}
}

// Tick drives the batcher's max_age flush trigger; the long-running
// deployment calls this from a scheduler job (spec.md §5).
func (d *Driver) Tick(ctx context.Context) error {
	sealed := d.Batcher.Tick(time.Now())
	return d.flushSealed(ctx, sealed)
}

// Drain unconditionally flushes every open batch slot: called at shutdown
// by the long-running deployment, and at the end of every invocation by
// the request-scoped and edge deployments (spec.md §4.8).
func (d *Driver) Drain(ctx context.Context) error {
	sealed := d.Batcher.Drain()
	return d.flushSealed(ctx, sealed)
}

// flushSealed encodes and writes every sealed batch, routing
// write-retry-exhausted batches to the dead-letter sink. A failed slot
// does not stop the others sealed in the same pass from being written;
// the first error encountered is returned once all slots are processed.
func (d *Driver) flushSealed(ctx context.Context, sealed []batcher.Sealed) error {
	var firstErr error
	for _, s := range sealed {
		if err := d.encodeAndWrite(ctx, s); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// encodeAndWrite encodes and writes one sealed batch. The catalog table
// name is the bare signal name: all metric kinds register under the one
// "metrics" table, with no per-kind suffix.
func (d *Driver) encodeAndWrite(ctx context.Context, s batcher.Sealed) error {
	table := s.Key.Signal.String()

	encodeStart := time.Now()
	result, err := parquetenc.Encode(s.Batch, d.EncodeConfig)
	metrics.EncodeDuration.WithLabelValues(table).Observe(time.Since(encodeStart).Seconds())
	if err != nil {
		d.logger().Error("parquet encode failed", "key", s.Key.String(), "error", err)
		return err
	}

	path := d.PartitionPrefix + partition.BuildPath(s.Key, s.Batch.MinTimestampNs, time.Now().UnixNano(), result.Bytes)

	if err := d.Writer.Write(ctx, path, result.Bytes, table, s.Batch.RowCount); err != nil {
		d.logger().Warn("blob write failed, routing to dead letter", "key", s.Key.String(), "path", path, "error", err)
		deadLetterPath := d.PartitionPrefix + partition.BuildDeadLetterPath(s.Key, time.Now().UnixNano())
		if dlErr := d.Writer.WriteDeadLetter(ctx, s.Key, deadLetterPath, path, result.Bytes); dlErr != nil {
			d.logger().Error("dead-letter write also failed", "key", s.Key.String(), "error", dlErr)
			return dlErr
		}
		metrics.DeadLetterTotal.WithLabelValues(table).Inc()
		return err
	}

	metrics.FlushesTotal.WithLabelValues(table, s.Trigger).Inc()
	d.logger().Info("wrote partition", "key", s.Key.String(), "path", path, "rows", s.Batch.RowCount, "bytes", len(result.Bytes))
	return nil
}
