// Package splitter groups a decoded OTLP export request's resource-level
// entries by service.name (spec.md §4.2), preserving the first-appearance
// order of each distinct service so downstream batching and partitioning
// stay deterministic for a given request.
package splitter

import (
	collogspb "go.opentelemetry.io/proto/otlp/collector/logs/v1"
	colmetricspb "go.opentelemetry.io/proto/otlp/collector/metrics/v1"
	coltracepb "go.opentelemetry.io/proto/otlp/collector/trace/v1"
	logspb "go.opentelemetry.io/proto/otlp/logs/v1"
	metricspb "go.opentelemetry.io/proto/otlp/metrics/v1"
	tracepb "go.opentelemetry.io/proto/otlp/trace/v1"

	"otlp2parquet/internal/otlpattr"
)

// Group is one service's worth of resource-level entries from a single
// request.
type Group[T any] struct {
	ServiceName string
	Resources   []T
}

// appendGroup adds resource to serviceName's group, creating it — in
// first-appearance order — if this is the first resource seen for that
// service.
func appendGroup[T any](index map[string]int, groups *[]Group[T], serviceName string, resource T) {
	if i, ok := index[serviceName]; ok {
		(*groups)[i].Resources = append((*groups)[i].Resources, resource)
		return
	}
	index[serviceName] = len(*groups)
	*groups = append(*groups, Group[T]{ServiceName: serviceName, Resources: []T{resource}})
}

// Logs splits an ExportLogsServiceRequest by service.name.
func Logs(req *collogspb.ExportLogsServiceRequest) []Group[*logspb.ResourceLogs] {
	index := make(map[string]int)
	var groups []Group[*logspb.ResourceLogs]
	for _, rl := range req.GetResourceLogs() {
		svc := otlpattr.ServiceName(rl.GetResource().GetAttributes())
		appendGroup(index, &groups, svc, rl)
	}
	return groups
}

// Traces splits an ExportTraceServiceRequest by service.name.
func Traces(req *coltracepb.ExportTraceServiceRequest) []Group[*tracepb.ResourceSpans] {
	index := make(map[string]int)
	var groups []Group[*tracepb.ResourceSpans]
	for _, rs := range req.GetResourceSpans() {
		svc := otlpattr.ServiceName(rs.GetResource().GetAttributes())
		appendGroup(index, &groups, svc, rs)
	}
	return groups
}

// Metrics splits an ExportMetricsServiceRequest by service.name.
func Metrics(req *colmetricspb.ExportMetricsServiceRequest) []Group[*metricspb.ResourceMetrics] {
	index := make(map[string]int)
	var groups []Group[*metricspb.ResourceMetrics]
	for _, rm := range req.GetResourceMetrics() {
		svc := otlpattr.ServiceName(rm.GetResource().GetAttributes())
		appendGroup(index, &groups, svc, rm)
	}
	return groups
}
