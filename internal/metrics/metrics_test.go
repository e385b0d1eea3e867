package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollectorsListsEverySharedCollector(t *testing.T) {
	cs := Collectors()
	assert.Len(t, cs, 7)
}

func TestMustRegisterOnFreshRegistryDoesNotPanic(t *testing.T) {
	reg := prometheus.NewRegistry()
	assert.NotPanics(t, func() { MustRegister(reg) })
}

func TestMustRegisterOnSameCollectorTwicePanics(t *testing.T) {
	reg := prometheus.NewRegistry()
	MustRegister(reg)
	assert.Panics(t, func() { MustRegister(reg) }, "registering the same collectors twice on one registry must panic")
}

func TestLabeledCountersAreUsable(t *testing.T) {
	reg := prometheus.NewRegistry()
	require.NoError(t, reg.Register(IngestRowsTotal))
	IngestRowsTotal.WithLabelValues("logs").Add(3)

	got, err := reg.Gather()
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "otlp2parquet_ingest_rows_total", got[0].GetName())
}
