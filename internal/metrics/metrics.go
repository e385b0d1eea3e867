// Package metrics exposes the Prometheus counters and histograms the
// long-running deployment serves at /metrics (ambient operational
// surface, SPEC_FULL.md §2).
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	IngestRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "otlp2parquet_ingest_requests_total",
		Help: "Total ingest requests by signal and HTTP status class.",
	}, []string{"signal", "status"})

	IngestRowsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "otlp2parquet_ingest_rows_total",
		Help: "Total rows converted and appended, by signal.",
	}, []string{"signal"})

	FlushesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "otlp2parquet_flushes_total",
		Help: "Total batch flushes, by signal and trigger (max_rows|max_bytes|max_age|disabled|drain).",
	}, []string{"signal", "trigger"})

	EncodeDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "otlp2parquet_encode_duration_seconds",
		Help:    "Parquet encode latency, by signal.",
		Buckets: prometheus.DefBuckets,
	}, []string{"signal"})

	WriteDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "otlp2parquet_write_duration_seconds",
		Help:    "Object-store write latency (including retries), by signal.",
		Buckets: prometheus.DefBuckets,
	}, []string{"signal"})

	WriteRetriesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "otlp2parquet_write_retries_total",
		Help: "Total object-store write retry attempts, by signal.",
	}, []string{"signal"})

	DeadLetterTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "otlp2parquet_dead_letter_total",
		Help: "Total batches routed to the dead-letter sink, by signal.",
	}, []string{"signal"})
)

// Collectors bundles every collector above for registration by the caller.
func Collectors() []prometheus.Collector {
	return []prometheus.Collector{
		IngestRequestsTotal, IngestRowsTotal, FlushesTotal,
		EncodeDuration, WriteDuration, WriteRetriesTotal, DeadLetterTotal,
	}
}

// MustRegister registers every collector against reg, panicking on
// duplicate registration (a programmer error, not a runtime condition).
func MustRegister(reg prometheus.Registerer) {
	reg.MustRegister(Collectors()...)
}
