package splitter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	commonpb "go.opentelemetry.io/proto/otlp/common/v1"
	collogspb "go.opentelemetry.io/proto/otlp/collector/logs/v1"
	logspb "go.opentelemetry.io/proto/otlp/logs/v1"
	resourcepb "go.opentelemetry.io/proto/otlp/resource/v1"
)

func resourceWithService(name string) *resourcepb.Resource {
	if name == "" {
		return &resourcepb.Resource{}
	}
	return &resourcepb.Resource{Attributes: []*commonpb.KeyValue{
		{Key: "service.name", Value: &commonpb.AnyValue{Value: &commonpb.AnyValue_StringValue{StringValue: name}}},
	}}
}

func TestLogsGroupsByServiceNamePreservingFirstAppearanceOrder(t *testing.T) {
	req := &collogspb.ExportLogsServiceRequest{
		ResourceLogs: []*logspb.ResourceLogs{
			{Resource: resourceWithService("b")},
			{Resource: resourceWithService("a")},
			{Resource: resourceWithService("b")},
		},
	}

	groups := Logs(req)
	require.Len(t, groups, 2)
	assert.Equal(t, "b", groups[0].ServiceName)
	assert.Equal(t, "a", groups[1].ServiceName)
	assert.Len(t, groups[0].Resources, 2, "both 'b' resources must land in the same group")
	assert.Len(t, groups[1].Resources, 1)
}

func TestLogsDefaultsUnnamedServiceToUnknown(t *testing.T) {
	req := &collogspb.ExportLogsServiceRequest{
		ResourceLogs: []*logspb.ResourceLogs{{Resource: resourceWithService("")}},
	}

	groups := Logs(req)
	require.Len(t, groups, 1)
	assert.Equal(t, "unknown", groups[0].ServiceName)
}

func TestLogsEmptyRequestProducesNoGroups(t *testing.T) {
	assert.Empty(t, Logs(&collogspb.ExportLogsServiceRequest{}))
}
