// Package schema declares the seven fixed columnar schemas the converter
// produces and the Parquet encoder writes: one for logs, one for traces,
// and five metric-kind variants. Column IDs are part of the on-disk
// contract (spec: SchemaDescriptor.column_id) and must stay stable across
// releases; they are derived deterministically from field order below, so
// reordering or removing a field is a breaking change by construction.
package schema

import "otlp2parquet/internal/signal"

// Type is the logical type of a schema field. The set is closed: every
// column in every one of the seven schemas is one of these.
type Type int

const (
	TypeInt64 Type = iota
	TypeInt32
	TypeUint32
	TypeFloat64
	TypeBool
	TypeString
	TypeBinary
	TypeMapStringString
	TypeListInt64
	TypeListFloat64
	TypeListString
	TypeListTimestamp
	TypeListMapStringString
)

// Field describes one column. ColumnID is assigned once, at schema
// construction time, and never reused. List/map fields also carry IDs for
// their child nodes (element, or key+value), since the on-disk contract
// requires every leaf — including container children — to carry a stable
// field ID for catalog-backed readers.
type Field struct {
	Name            string
	Type            Type
	Optional        bool
	ColumnID        int
	ElementColumnID int // list element id; 0 if not a list
	KeyColumnID     int // map key id; 0 if not a map
	ValueColumnID   int // map value id; 0 if not a map
}

// Descriptor is the ordered, immutable field list for one signal/metric-kind
// variant. Descriptors are built once at package init and shared read-only
// for the process lifetime (spec §9: no cyclic/shared mutable graphs here).
type Descriptor struct {
	Name   string
	Fields []Field
}

// FieldByName returns the field with the given name, or false if absent.
func (d *Descriptor) FieldByName(name string) (Field, bool) {
	for _, f := range d.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

type fieldSpec struct {
	name     string
	typ      Type
	optional bool
}

// build assigns sequential, stable column IDs to each field in declaration
// order. A list field also consumes the next ID for its element; a map
// field consumes the next two for its key and value. This is deterministic
// given a fixed fieldSpec slice, which is why field order in this file is
// part of the on-disk contract and must not be reordered.
func build(name string, specs []fieldSpec) *Descriptor {
	fields := make([]Field, 0, len(specs))
	nextID := 1
	for _, s := range specs {
		f := Field{Name: s.name, Type: s.typ, Optional: s.optional, ColumnID: nextID}
		nextID++
		switch s.typ {
		case TypeListInt64, TypeListFloat64, TypeListString, TypeListTimestamp:
			f.ElementColumnID = nextID
			nextID++
		case TypeListMapStringString:
			f.ElementColumnID = nextID
			nextID++
			f.KeyColumnID = nextID
			nextID++
			f.ValueColumnID = nextID
			nextID++
		case TypeMapStringString:
			f.KeyColumnID = nextID
			nextID++
			f.ValueColumnID = nextID
			nextID++
		}
		fields = append(fields, f)
	}
	return &Descriptor{Name: name, Fields: fields}
}

// metricBase is the common field prefix shared by all five metric-kind
// schemas (spec §3, "Metrics/common base").
var metricBase = []fieldSpec{
	{"Timestamp", TypeInt64, false},
	{"ServiceName", TypeString, false},
	{"MetricName", TypeString, false},
	{"MetricDescription", TypeString, true},
	{"MetricUnit", TypeString, true},
	{"ResourceAttributes", TypeMapStringString, false},
	{"Attributes", TypeMapStringString, false},
	{"ScopeName", TypeString, true},
	{"ScopeVersion", TypeString, true},
}

func withBase(extra ...fieldSpec) []fieldSpec {
	out := make([]fieldSpec, 0, len(metricBase)+len(extra))
	out = append(out, metricBase...)
	out = append(out, extra...)
	return out
}

var (
	// Logs is the schema for the logs signal.
	Logs = build("logs", []fieldSpec{
		{"Timestamp", TypeInt64, false},
		{"ObservedTimestamp", TypeInt64, false},
		{"TraceId", TypeBinary, false},
		{"SpanId", TypeBinary, false},
		{"TraceFlags", TypeUint32, false},
		{"SeverityText", TypeString, false},
		{"SeverityNumber", TypeInt32, false},
		{"Body", TypeString, false},
		{"ServiceName", TypeString, false},
		{"ServiceNamespace", TypeString, true},
		{"ServiceInstanceId", TypeString, true},
		{"ScopeName", TypeString, false},
		{"ScopeVersion", TypeString, true},
		{"ResourceAttributes", TypeMapStringString, false},
		{"LogAttributes", TypeMapStringString, false},
	})

	// Traces is the schema for the traces signal.
	Traces = build("traces", []fieldSpec{
		{"Timestamp", TypeInt64, false},
		{"TraceId", TypeBinary, false},
		{"SpanId", TypeBinary, false},
		{"ParentSpanId", TypeBinary, true},
		{"TraceState", TypeString, true},
		{"SpanName", TypeString, false},
		{"SpanKind", TypeInt32, false},
		{"ServiceName", TypeString, true},
		{"Duration", TypeInt64, false},
		{"StatusCode", TypeInt32, true},
		{"StatusMessage", TypeString, true},
		{"ResourceAttributes", TypeMapStringString, false},
		{"SpanAttributes", TypeMapStringString, false},
		{"ScopeName", TypeString, true},
		{"ScopeVersion", TypeString, true},
		{"Events_Timestamp", TypeListTimestamp, false},
		{"Events_Name", TypeListString, false},
		{"Events_Attributes", TypeListMapStringString, false},
		{"Links_TraceId", TypeListString, false},
		{"Links_SpanId", TypeListString, false},
		{"Links_TraceState", TypeListString, true},
		{"Links_Attributes", TypeListMapStringString, false},
	})

	// Gauge is the schema for gauge metric data points.
	Gauge = build("metrics_gauge", withBase(
		fieldSpec{"Value", TypeFloat64, false},
	))

	// Sum is the schema for sum metric data points.
	Sum = build("metrics_sum", withBase(
		fieldSpec{"Value", TypeFloat64, false},
		fieldSpec{"AggregationTemporality", TypeInt32, false},
		fieldSpec{"IsMonotonic", TypeBool, false},
	))

	// Histogram is the schema for histogram metric data points.
	Histogram = build("metrics_histogram", withBase(
		fieldSpec{"Count", TypeInt64, false},
		fieldSpec{"Sum", TypeFloat64, false},
		fieldSpec{"BucketCounts", TypeListInt64, false},
		fieldSpec{"ExplicitBounds", TypeListFloat64, false},
		fieldSpec{"Min", TypeFloat64, true},
		fieldSpec{"Max", TypeFloat64, true},
	))

	// ExponentialHistogram is the schema for exponential-histogram metric
	// data points.
	ExponentialHistogram = build("metrics_exponential_histogram", withBase(
		fieldSpec{"Count", TypeInt64, false},
		fieldSpec{"Sum", TypeFloat64, false},
		fieldSpec{"Scale", TypeInt32, false},
		fieldSpec{"ZeroCount", TypeInt64, false},
		fieldSpec{"PositiveOffset", TypeInt32, false},
		fieldSpec{"PositiveBucketCounts", TypeListInt64, false},
		fieldSpec{"NegativeOffset", TypeInt32, false},
		fieldSpec{"NegativeBucketCounts", TypeListInt64, false},
		fieldSpec{"Min", TypeFloat64, true},
		fieldSpec{"Max", TypeFloat64, true},
	))

	// Summary is the schema for summary metric data points.
	Summary = build("metrics_summary", withBase(
		fieldSpec{"Count", TypeInt64, false},
		fieldSpec{"Sum", TypeFloat64, false},
		fieldSpec{"QuantileValues", TypeListFloat64, false},
		fieldSpec{"QuantileQuantiles", TypeListFloat64, false},
	))
)

// ForKey returns the schema descriptor for a signal/metric-kind pair.
// Panics on an unknown combination: the set of schemas is closed and any
// caller constructing a Key is expected to have validated the metric kind
// already (codec/converter boundary).
func ForKey(sig signal.Signal, kind signal.MetricKind) *Descriptor {
	switch sig {
	case signal.Logs:
		return Logs
	case signal.Traces:
		return Traces
	case signal.Metrics:
		switch kind {
		case signal.Gauge:
			return Gauge
		case signal.Sum:
			return Sum
		case signal.Histogram:
			return Histogram
		case signal.ExponentialHistogram:
			return ExponentialHistogram
		case signal.Summary:
			return Summary
		}
	}
	panic("schema: unknown signal/metric-kind combination")
}
