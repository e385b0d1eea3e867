package converter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	metricspb "go.opentelemetry.io/proto/otlp/metrics/v1"

	"otlp2parquet/internal/columnar"
	"otlp2parquet/internal/schema"
	"otlp2parquet/internal/signal"
)

func gaugeProvider(t *testing.T) (BatchProvider, func() map[signal.MetricKind]*columnar.Batch) {
	t.Helper()
	batches := map[signal.MetricKind]*columnar.Batch{}
	provider := func(kind signal.MetricKind, appendRow func(b *columnar.Batch)) []SealedBatch {
		b, ok := batches[kind]
		if !ok {
			b = columnar.NewBatch(schema.ForKey(signal.Metrics, kind), 4)
			batches[kind] = b
		}
		appendRow(b)
		return nil
	}
	return provider, func() map[signal.MetricKind]*columnar.Batch { return batches }
}

func TestAppendMetricsGaugeRouting(t *testing.T) {
	rm := &metricspb.ResourceMetrics{
		ScopeMetrics: []*metricspb.ScopeMetrics{
			{Metrics: []*metricspb.Metric{
				{
					Name: "cpu.usage",
					Data: &metricspb.Metric_Gauge{Gauge: &metricspb.Gauge{
						DataPoints: []*metricspb.NumberDataPoint{
							{TimeUnixNano: 10, Value: &metricspb.NumberDataPoint_AsDouble{AsDouble: 0.5}},
						},
					}},
				},
			}},
		},
	}

	provider, batches := gaugeProvider(t)
	sealed := AppendMetrics(rm, "checkout", provider)

	assert.Empty(t, sealed)
	gauge := batches()[signal.Gauge]
	require.NotNil(t, gauge)
	assert.Equal(t, 1, gauge.RowCount)
	assert.Equal(t, []float64{0.5}, gauge.Column("Value").Float64s)
}

func TestAppendMetricsSumRoutingWithIntValue(t *testing.T) {
	rm := &metricspb.ResourceMetrics{
		ScopeMetrics: []*metricspb.ScopeMetrics{
			{Metrics: []*metricspb.Metric{
				{
					Name: "requests.total",
					Data: &metricspb.Metric_Sum{Sum: &metricspb.Sum{
						AggregationTemporality: metricspb.AggregationTemporality_AGGREGATION_TEMPORALITY_CUMULATIVE,
						IsMonotonic:            true,
						DataPoints: []*metricspb.NumberDataPoint{
							{TimeUnixNano: 20, Value: &metricspb.NumberDataPoint_AsInt{AsInt: 42}},
						},
					}},
				},
			}},
		},
	}

	provider, batches := gaugeProvider(t)
	AppendMetrics(rm, "svc", provider)

	sum := batches()[signal.Sum]
	require.NotNil(t, sum)
	assert.Equal(t, []float64{42}, sum.Column("Value").Float64s)
	assert.Equal(t, []bool{true}, sum.Column("IsMonotonic").Bools)
}

func TestAppendMetricsHistogramOptionalMinMax(t *testing.T) {
	min := 1.0
	rm := &metricspb.ResourceMetrics{
		ScopeMetrics: []*metricspb.ScopeMetrics{
			{Metrics: []*metricspb.Metric{
				{
					Name: "latency",
					Data: &metricspb.Metric_Histogram{Histogram: &metricspb.Histogram{
						DataPoints: []*metricspb.HistogramDataPoint{
							{
								TimeUnixNano:   30,
								Count:          2,
								Sum:            3.5,
								BucketCounts:   []uint64{1, 1},
								ExplicitBounds: []float64{1.0},
								Min:            &min,
							},
						},
					}},
				},
			}},
		},
	}

	provider, batches := gaugeProvider(t)
	AppendMetrics(rm, "svc", provider)

	hist := batches()[signal.Histogram]
	require.NotNil(t, hist)
	minCol := hist.Column("Min")
	require.Len(t, minCol.Valid, 1)
	assert.True(t, minCol.Valid[0])
	assert.Equal(t, []float64{1.0}, minCol.Float64s)

	maxCol := hist.Column("Max")
	require.Len(t, maxCol.Valid, 1)
	assert.False(t, maxCol.Valid[0], "Max was not set on the data point and must stay null")
}

func TestAppendMetricsSummaryQuantiles(t *testing.T) {
	rm := &metricspb.ResourceMetrics{
		ScopeMetrics: []*metricspb.ScopeMetrics{
			{Metrics: []*metricspb.Metric{
				{
					Name: "request.duration",
					Data: &metricspb.Metric_Summary{Summary: &metricspb.Summary{
						DataPoints: []*metricspb.SummaryDataPoint{
							{
								TimeUnixNano: 40,
								Count:        10,
								Sum:          100,
								QuantileValues: []*metricspb.SummaryDataPoint_ValueAtQuantile{
									{Quantile: 0.5, Value: 9.5},
									{Quantile: 0.99, Value: 20},
								},
							},
						},
					}},
				},
			}},
		},
	}

	provider, batches := gaugeProvider(t)
	AppendMetrics(rm, "svc", provider)

	summary := batches()[signal.Summary]
	require.NotNil(t, summary)
	assert.Equal(t, []float64{9.5, 20}, summary.Column("QuantileValues").ListFloat64s)
	assert.Equal(t, []float64{0.5, 0.99}, summary.Column("QuantileQuantiles").ListFloat64s)
}

func TestAppendMetricsNoDataPointsProducesNoRows(t *testing.T) {
	rm := &metricspb.ResourceMetrics{}
	provider, batches := gaugeProvider(t)

	sealed := AppendMetrics(rm, "svc", provider)
	assert.Empty(t, sealed)
	assert.Empty(t, batches())
}
