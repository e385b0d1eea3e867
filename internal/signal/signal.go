// Package signal defines the small, closed set of tagged variants the
// rest of the pipeline dispatches on: the three OTel signals, and the
// five metric kinds that sub-divide the metrics signal.
package signal

// Signal identifies which OTel wire message a request carries.
type Signal int

const (
	Logs Signal = iota
	Traces
	Metrics
)

func (s Signal) String() string {
	switch s {
	case Logs:
		return "logs"
	case Traces:
		return "traces"
	case Metrics:
		return "metrics"
	default:
		return "unknown"
	}
}

// MetricKind sub-divides the Metrics signal into one of five schema
// variants. Only meaningful when Signal == Metrics.
type MetricKind int

const (
	MetricKindUnspecified MetricKind = iota
	Gauge
	Sum
	Histogram
	ExponentialHistogram
	Summary
)

// String returns the lowercase form used in partition keys.
func (k MetricKind) String() string {
	switch k {
	case Gauge:
		return "gauge"
	case Sum:
		return "sum"
	case Histogram:
		return "histogram"
	case ExponentialHistogram:
		return "exponential_histogram"
	case Summary:
		return "summary"
	default:
		return "unspecified"
	}
}

// Key identifies one batcher slot: a signal, optionally narrowed to a
// metric kind, scoped to one service.
type Key struct {
	Signal      Signal
	MetricKind  MetricKind
	ServiceName string
}

func (k Key) String() string {
	if k.Signal == Metrics {
		return "metrics/" + k.MetricKind.String() + "/" + k.ServiceName
	}
	return k.Signal.String() + "/" + k.ServiceName
}
