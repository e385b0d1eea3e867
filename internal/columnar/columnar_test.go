package columnar

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"otlp2parquet/internal/schema"
)

func TestBatchAppendAndRowCount(t *testing.T) {
	b := NewBatch(schema.Gauge, 4)

	valueCol := b.Column("Value")
	svcCol := b.Column("ServiceName")

	for i := 0; i < 3; i++ {
		svcCol.AppendString("checkout")
		valueCol.AppendFloat64(float64(i))
		b.Column("MetricName").AppendString("cpu")
		b.Column("ResourceAttributes").AppendMap([]MapPair{{Key: "k", Value: "v"}})
		b.Column("Attributes").AppendMap(nil)
		b.Column("Timestamp").AppendInt64(int64(1000 + i))
		b.Column("MetricDescription").AppendNull()
		b.Column("MetricUnit").AppendNull()
		b.Column("ScopeName").AppendNull()
		b.Column("ScopeVersion").AppendNull()
		b.ObserveTimestamp(int64(1000 + i))
		b.EndRow()
	}

	assert.Equal(t, 3, b.RowCount)
	assert.Equal(t, 3, valueCol.Len())
	assert.Equal(t, int64(1000), b.MinTimestampNs)
	assert.Equal(t, int64(1002), b.MaxTimestampNs)
}

func TestColumnPanicsOnUnknownName(t *testing.T) {
	b := NewBatch(schema.Gauge, 1)
	assert.Panics(t, func() { b.Column("NoSuchField") })
}

func TestOptionalColumnTracksValidity(t *testing.T) {
	b := NewBatch(schema.Gauge, 1)
	desc := b.Column("MetricDescription")

	desc.AppendString("cpu usage")
	desc.AppendNull()

	require.Len(t, desc.Valid, 2)
	assert.True(t, desc.Valid[0])
	assert.False(t, desc.Valid[1])
}

func TestEstimatedBytesGrowsWithContent(t *testing.T) {
	b := NewBatch(schema.Logs, 4)
	before := b.EstimatedBytes()

	b.Column("Body").AppendString("a short log line")
	b.Column("LogAttributes").AppendMap([]MapPair{{Key: "request_id", Value: "abc123"}})

	after := b.EstimatedBytes()
	assert.Greater(t, after, before)
}

func TestAppendListColumns(t *testing.T) {
	b := NewBatch(schema.Histogram, 1)

	bc := b.Column("BucketCounts")
	bc.AppendListInt64([]int64{1, 2, 3})
	assert.Equal(t, 1, bc.Len())
	assert.Equal(t, []int64{1, 2, 3}, bc.ListInt64s)
	assert.Equal(t, []int32{3}, bc.ListLens)

	eb := b.Column("ExplicitBounds")
	eb.AppendListFloat64([]float64{0.5, 1.5})
	assert.Equal(t, []float64{0.5, 1.5}, eb.ListFloat64s)
}

func TestTracesEventsListMapColumn(t *testing.T) {
	b := NewBatch(schema.Traces, 1)
	col := b.Column("Events_Attributes")

	col.AppendListMap([][]MapPair{{{Key: "a", Value: "1"}}, {{Key: "b", Value: "2"}, {Key: "c", Value: "3"}}})

	assert.Equal(t, 1, col.Len())
	require.Len(t, col.MapGroupLens, 1)
	assert.Equal(t, int32(2), col.MapGroupLens[0])
	assert.Len(t, col.MapLens, 2)
}
