package converter

import (
	metricspb "go.opentelemetry.io/proto/otlp/metrics/v1"

	"otlp2parquet/internal/columnar"
	"otlp2parquet/internal/otlpattr"
	"otlp2parquet/internal/signal"
)

// BatchProvider appends one data point's row to the batch slot for the
// given metric kind and returns any batches that flush trigger sealed.
// The pipeline driver backs this directly with batcher.Batcher.Append, so
// every data point — not just every resource — gets its own flush-trigger
// check, the same granularity logs/traces get by appending a whole
// resource inside one Append call.
type BatchProvider func(kind signal.MetricKind, appendRow func(b *columnar.Batch)) []SealedBatch

// SealedBatch mirrors batcher.Sealed without importing the batcher
// package here, keeping converter free of a dependency on batching policy.
type SealedBatch struct {
	Key   signal.Key
	Batch *columnar.Batch
}

// AppendMetrics converts one service's ResourceMetrics into rows, routing
// each data point to its schema-specific batch by metric kind (spec.md
// §4.3: one row per data point, dispatch by metric.GetData() type),
// including Summary data points.
func AppendMetrics(rm *metricspb.ResourceMetrics, serviceName string, getBatch BatchProvider) []SealedBatch {
	resAttrs := otlpattr.FlattenResource(rm.GetResource().GetAttributes())
	var sealed []SealedBatch

	for _, sm := range rm.GetScopeMetrics() {
		scopeName := sm.GetScope().GetName()
		scopeVersion := sm.GetScope().GetVersion()

		for _, m := range sm.GetMetrics() {
			base := metricBaseFields{
				serviceName:  serviceName,
				metricName:   m.GetName(),
				description:  m.GetDescription(),
				unit:         m.GetUnit(),
				resAttrs:     resAttrs,
				scopeName:    scopeName,
				scopeVersion: scopeVersion,
			}

			switch data := m.GetData().(type) {
			case *metricspb.Metric_Gauge:
				for _, dp := range data.Gauge.GetDataPoints() {
					sealed = append(sealed, getBatch(signal.Gauge, func(b *columnar.Batch) {
						appendGaugeRow(b, base, dp)
					})...)
				}
			case *metricspb.Metric_Sum:
				for _, dp := range data.Sum.GetDataPoints() {
					sealed = append(sealed, getBatch(signal.Sum, func(b *columnar.Batch) {
						appendSumRow(b, base, dp, data.Sum.GetAggregationTemporality(), data.Sum.GetIsMonotonic())
					})...)
				}
			case *metricspb.Metric_Histogram:
				for _, dp := range data.Histogram.GetDataPoints() {
					sealed = append(sealed, getBatch(signal.Histogram, func(b *columnar.Batch) {
						appendHistogramRow(b, base, dp)
					})...)
				}
			case *metricspb.Metric_ExponentialHistogram:
				for _, dp := range data.ExponentialHistogram.GetDataPoints() {
					sealed = append(sealed, getBatch(signal.ExponentialHistogram, func(b *columnar.Batch) {
						appendExponentialHistogramRow(b, base, dp)
					})...)
				}
			case *metricspb.Metric_Summary:
				for _, dp := range data.Summary.GetDataPoints() {
					sealed = append(sealed, getBatch(signal.Summary, func(b *columnar.Batch) {
						appendSummaryRow(b, base, dp)
					})...)
				}
			}
		}
	}
	return sealed
}

type metricBaseFields struct {
	serviceName  string
	metricName   string
	description  string
	unit         string
	resAttrs     []columnar.MapPair
	scopeName    string
	scopeVersion string
}

func appendMetricBase(batch *columnar.Batch, base metricBaseFields, ts int64, attrs []columnar.MapPair) {
	batch.Column("Timestamp").AppendInt64(ts)
	batch.Column("ServiceName").AppendString(base.serviceName)
	batch.Column("MetricName").AppendString(base.metricName)

	if base.description != "" {
		batch.Column("MetricDescription").AppendString(base.description)
	} else {
		batch.Column("MetricDescription").AppendNull()
	}
	if base.unit != "" {
		batch.Column("MetricUnit").AppendString(base.unit)
	} else {
		batch.Column("MetricUnit").AppendNull()
	}

	batch.Column("ResourceAttributes").AppendMap(base.resAttrs)
	batch.Column("Attributes").AppendMap(attrs)

	if base.scopeName != "" {
		batch.Column("ScopeName").AppendString(base.scopeName)
	} else {
		batch.Column("ScopeName").AppendNull()
	}
	if base.scopeVersion != "" {
		batch.Column("ScopeVersion").AppendString(base.scopeVersion)
	} else {
		batch.Column("ScopeVersion").AppendNull()
	}

	batch.ObserveTimestamp(ts)
}

func appendGaugeRow(batch *columnar.Batch, base metricBaseFields, dp *metricspb.NumberDataPoint) {
	ts := clampTimestamp(dp.GetTimeUnixNano())
	appendMetricBase(batch, base, ts, otlpattr.Flatten(dp.GetAttributes()))
	batch.Column("Value").AppendFloat64(numberValue(dp))
	batch.EndRow()
}

func appendSumRow(batch *columnar.Batch, base metricBaseFields, dp *metricspb.NumberDataPoint, temporality metricspb.AggregationTemporality, monotonic bool) {
	ts := clampTimestamp(dp.GetTimeUnixNano())
	appendMetricBase(batch, base, ts, otlpattr.Flatten(dp.GetAttributes()))
	batch.Column("Value").AppendFloat64(numberValue(dp))
	batch.Column("AggregationTemporality").AppendInt32(int32(temporality))
	batch.Column("IsMonotonic").AppendBool(monotonic)
	batch.EndRow()
}

func appendHistogramRow(batch *columnar.Batch, base metricBaseFields, dp *metricspb.HistogramDataPoint) {
	ts := clampTimestamp(dp.GetTimeUnixNano())
	appendMetricBase(batch, base, ts, otlpattr.Flatten(dp.GetAttributes()))

	batch.Column("Count").AppendInt64(int64(dp.GetCount()))
	batch.Column("Sum").AppendFloat64(dp.GetSum())
	batch.Column("BucketCounts").AppendListInt64(toInt64s(dp.GetBucketCounts()))
	batch.Column("ExplicitBounds").AppendListFloat64(dp.GetExplicitBounds())

	appendOptionalFloat(batch, "Min", dp.Min)
	appendOptionalFloat(batch, "Max", dp.Max)

	batch.EndRow()
}

func appendExponentialHistogramRow(batch *columnar.Batch, base metricBaseFields, dp *metricspb.ExponentialHistogramDataPoint) {
	ts := clampTimestamp(dp.GetTimeUnixNano())
	appendMetricBase(batch, base, ts, otlpattr.Flatten(dp.GetAttributes()))

	batch.Column("Count").AppendInt64(int64(dp.GetCount()))
	batch.Column("Sum").AppendFloat64(dp.GetSum())
	batch.Column("Scale").AppendInt32(dp.GetScale())
	batch.Column("ZeroCount").AppendInt64(int64(dp.GetZeroCount()))

	pos := dp.GetPositive()
	batch.Column("PositiveOffset").AppendInt32(pos.GetOffset())
	batch.Column("PositiveBucketCounts").AppendListInt64(toInt64s(pos.GetBucketCounts()))

	neg := dp.GetNegative()
	batch.Column("NegativeOffset").AppendInt32(neg.GetOffset())
	batch.Column("NegativeBucketCounts").AppendListInt64(toInt64s(neg.GetBucketCounts()))

	appendOptionalFloat(batch, "Min", dp.Min)
	appendOptionalFloat(batch, "Max", dp.Max)

	batch.EndRow()
}

func appendSummaryRow(batch *columnar.Batch, base metricBaseFields, dp *metricspb.SummaryDataPoint) {
	ts := clampTimestamp(dp.GetTimeUnixNano())
	appendMetricBase(batch, base, ts, otlpattr.Flatten(dp.GetAttributes()))

	batch.Column("Count").AppendInt64(int64(dp.GetCount()))
	batch.Column("Sum").AppendFloat64(dp.GetSum())

	qv := dp.GetQuantileValues()
	values := make([]float64, len(qv))
	quantiles := make([]float64, len(qv))
	for i, q := range qv {
		quantiles[i] = q.GetQuantile()
		values[i] = q.GetValue()
	}
	batch.Column("QuantileValues").AppendListFloat64(values)
	batch.Column("QuantileQuantiles").AppendListFloat64(quantiles)

	batch.EndRow()
}

// appendOptionalFloat writes presence-aware Min/Max columns. The OTLP
// proto declares these fields as proto3 "optional double", so a nil
// pointer means genuinely absent in the source payload; the pointer
// carries true presence, so that distinction is preserved rather than
// treating a zero value as absent.
func appendOptionalFloat(batch *columnar.Batch, name string, v *float64) {
	if v != nil {
		batch.Column(name).AppendFloat64(*v)
	} else {
		batch.Column(name).AppendNull()
	}
}

func numberValue(dp *metricspb.NumberDataPoint) float64 {
	switch v := dp.GetValue().(type) {
	case *metricspb.NumberDataPoint_AsDouble:
		return v.AsDouble
	case *metricspb.NumberDataPoint_AsInt:
		return float64(v.AsInt)
	default:
		return 0
	}
}

func toInt64s(us []uint64) []int64 {
	out := make([]int64, len(us))
	for i, u := range us {
		out[i] = int64(u)
	}
	return out
}
