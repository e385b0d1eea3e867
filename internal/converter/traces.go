package converter

import (
	tracepb "go.opentelemetry.io/proto/otlp/trace/v1"

	"otlp2parquet/internal/columnar"
	"otlp2parquet/internal/otlpattr"
)

// AppendTraces converts one service's ResourceSpans into rows of the
// traces schema.
func AppendTraces(batch *columnar.Batch, rs *tracepb.ResourceSpans, serviceName string) {
	resAttrs := otlpattr.FlattenResource(rs.GetResource().GetAttributes())

	for _, ss := range rs.GetScopeSpans() {
		scopeName := ss.GetScope().GetName()
		scopeVersion := ss.GetScope().GetVersion()

		for _, span := range ss.GetSpans() {
			appendSpanRow(batch, span, serviceName, scopeName, scopeVersion, resAttrs)
		}
	}
}

func appendSpanRow(batch *columnar.Batch, span *tracepb.Span, serviceName, scopeName, scopeVersion string, resAttrs []columnar.MapPair) {
	ts := clampTimestamp(span.GetStartTimeUnixNano())
	duration := clampDuration(span.GetStartTimeUnixNano(), span.GetEndTimeUnixNano())

	batch.Column("Timestamp").AppendInt64(ts)
	batch.Column("TraceId").AppendBinary(span.GetTraceId())
	batch.Column("SpanId").AppendBinary(span.GetSpanId())

	if len(span.GetParentSpanId()) > 0 {
		batch.Column("ParentSpanId").AppendBinary(span.GetParentSpanId())
	} else {
		batch.Column("ParentSpanId").AppendNull()
	}
	if span.GetTraceState() != "" {
		batch.Column("TraceState").AppendString(span.GetTraceState())
	} else {
		batch.Column("TraceState").AppendNull()
	}

	batch.Column("SpanName").AppendString(span.GetName())
	batch.Column("SpanKind").AppendInt32(int32(span.GetKind()))

	if serviceName != "" {
		batch.Column("ServiceName").AppendString(serviceName)
	} else {
		batch.Column("ServiceName").AppendNull()
	}

	batch.Column("Duration").AppendInt64(duration)

	if status := span.GetStatus(); status != nil {
		batch.Column("StatusCode").AppendInt32(int32(status.GetCode()))
		if status.GetMessage() != "" {
			batch.Column("StatusMessage").AppendString(status.GetMessage())
		} else {
			batch.Column("StatusMessage").AppendNull()
		}
	} else {
		batch.Column("StatusCode").AppendNull()
		batch.Column("StatusMessage").AppendNull()
	}

	batch.Column("ResourceAttributes").AppendMap(resAttrs)
	batch.Column("SpanAttributes").AppendMap(otlpattr.Flatten(span.GetAttributes()))

	if scopeName != "" {
		batch.Column("ScopeName").AppendString(scopeName)
	} else {
		batch.Column("ScopeName").AppendNull()
	}
	if scopeVersion != "" {
		batch.Column("ScopeVersion").AppendString(scopeVersion)
	} else {
		batch.Column("ScopeVersion").AppendNull()
	}

	appendEvents(batch, span.GetEvents())
	appendLinks(batch, span.GetLinks())

	batch.ObserveTimestamp(ts)
	batch.EndRow()
}

func appendEvents(batch *columnar.Batch, events []*tracepb.Span_Event) {
	timestamps := make([]int64, len(events))
	names := make([]string, len(events))
	attrs := make([][]columnar.MapPair, len(events))
	for i, e := range events {
		timestamps[i] = clampTimestamp(e.GetTimeUnixNano())
		names[i] = e.GetName()
		attrs[i] = otlpattr.Flatten(e.GetAttributes())
	}
	batch.Column("Events_Timestamp").AppendListInt64(timestamps)
	batch.Column("Events_Name").AppendListString(names)
	batch.Column("Events_Attributes").AppendListMap(attrs)
}

func appendLinks(batch *columnar.Batch, links []*tracepb.Span_Link) {
	traceIDs := make([]string, len(links))
	spanIDs := make([]string, len(links))
	states := make([]string, len(links))
	hasState := false
	attrs := make([][]columnar.MapPair, len(links))
	for i, l := range links {
		traceIDs[i] = hexID(l.GetTraceId())
		spanIDs[i] = hexID(l.GetSpanId())
		states[i] = l.GetTraceState()
		if states[i] != "" {
			hasState = true
		}
		attrs[i] = otlpattr.Flatten(l.GetAttributes())
	}
	batch.Column("Links_TraceId").AppendListString(traceIDs)
	batch.Column("Links_SpanId").AppendListString(spanIDs)
	if hasState {
		batch.Column("Links_TraceState").AppendListString(states)
	} else {
		batch.Column("Links_TraceState").AppendNull()
	}
	batch.Column("Links_Attributes").AppendListMap(attrs)
}
