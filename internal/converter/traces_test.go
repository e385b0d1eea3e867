package converter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	commonpb "go.opentelemetry.io/proto/otlp/common/v1"
	tracepb "go.opentelemetry.io/proto/otlp/trace/v1"

	"otlp2parquet/internal/columnar"
	"otlp2parquet/internal/schema"
)

func TestAppendTracesComputesDuration(t *testing.T) {
	rs := &tracepb.ResourceSpans{
		ScopeSpans: []*tracepb.ScopeSpans{
			{Spans: []*tracepb.Span{
				{
					Name:              "GET /checkout",
					Kind:              tracepb.Span_SPAN_KIND_SERVER,
					TraceId:           []byte{1, 1, 1, 1},
					SpanId:            []byte{2, 2, 2, 2},
					StartTimeUnixNano: 1000,
					EndTimeUnixNano:   1500,
					Status:            &tracepb.Status{Code: tracepb.Status_STATUS_CODE_OK},
				},
			}},
		},
	}

	batch := columnar.NewBatch(schema.Traces, 1)
	AppendTraces(batch, rs, "checkout")

	require.Equal(t, 1, batch.RowCount)
	assert.Equal(t, []int64{500}, batch.Column("Duration").Int64s)
	assert.Equal(t, []int32{int32(tracepb.Status_STATUS_CODE_OK)}, batch.Column("StatusCode").Int32s)
}

func TestAppendTracesClampsNegativeDurationToZero(t *testing.T) {
	rs := &tracepb.ResourceSpans{
		ScopeSpans: []*tracepb.ScopeSpans{
			{Spans: []*tracepb.Span{
				{Name: "skewed", StartTimeUnixNano: 2000, EndTimeUnixNano: 1000},
			}},
		},
	}

	batch := columnar.NewBatch(schema.Traces, 1)
	AppendTraces(batch, rs, "svc")

	assert.Equal(t, []int64{0}, batch.Column("Duration").Int64s)
}

func TestAppendTracesOptionalParentSpanId(t *testing.T) {
	rs := &tracepb.ResourceSpans{
		ScopeSpans: []*tracepb.ScopeSpans{
			{Spans: []*tracepb.Span{
				{Name: "root"},
				{Name: "child", ParentSpanId: []byte{9, 9}},
			}},
		},
	}

	batch := columnar.NewBatch(schema.Traces, 2)
	AppendTraces(batch, rs, "svc")

	parent := batch.Column("ParentSpanId")
	require.Len(t, parent.Valid, 2)
	assert.False(t, parent.Valid[0])
	assert.True(t, parent.Valid[1])
}

func TestAppendTracesEventsAndLinksListColumns(t *testing.T) {
	rs := &tracepb.ResourceSpans{
		ScopeSpans: []*tracepb.ScopeSpans{
			{Spans: []*tracepb.Span{
				{
					Name: "span-with-events",
					Events: []*tracepb.Span_Event{
						{Name: "retry", TimeUnixNano: 42, Attributes: []*commonpb.KeyValue{strAttr("n", "1")}},
					},
					Links: []*tracepb.Span_Link{
						{TraceId: []byte{0xAB}, SpanId: []byte{0xCD}},
					},
				},
			}},
		},
	}

	batch := columnar.NewBatch(schema.Traces, 1)
	AppendTraces(batch, rs, "svc")

	eventNames := batch.Column("Events_Name")
	assert.Equal(t, []string{"retry"}, eventNames.ListStrings)

	linkTraceIDs := batch.Column("Links_TraceId")
	assert.Equal(t, []string{"ab"}, linkTraceIDs.ListStrings)

	linkState := batch.Column("Links_TraceState")
	require.Len(t, linkState.Valid, 1)
	assert.False(t, linkState.Valid[0], "no link carried a trace_state, so the column stays null for this row")
}

func TestAppendTracesServiceNameOptional(t *testing.T) {
	rs := &tracepb.ResourceSpans{
		ScopeSpans: []*tracepb.ScopeSpans{{Spans: []*tracepb.Span{{Name: "x"}}}},
	}

	batch := columnar.NewBatch(schema.Traces, 1)
	AppendTraces(batch, rs, "")

	svc := batch.Column("ServiceName")
	require.Len(t, svc.Valid, 1)
	assert.False(t, svc.Valid[0])
}
