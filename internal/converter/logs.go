package converter

import (
	logspb "go.opentelemetry.io/proto/otlp/logs/v1"

	"otlp2parquet/internal/columnar"
	"otlp2parquet/internal/otlpattr"
)

// AppendLogs converts one service's ResourceLogs into rows of the logs
// schema, appending them to batch. Every log record produces exactly one
// row (malformed fields are coerced, not rejected), so no record is
// skipped and the returned count is always zero.
func AppendLogs(batch *columnar.Batch, rl *logspb.ResourceLogs, serviceName string) (skipped int) {
	resAttrs := otlpattr.FlattenResource(rl.GetResource().GetAttributes())
	namespace, hasNamespace := otlpattr.StringAttr(rl.GetResource().GetAttributes(), "service.namespace")
	instanceID, hasInstanceID := otlpattr.StringAttr(rl.GetResource().GetAttributes(), "service.instance.id")

	for _, sl := range rl.GetScopeLogs() {
		scopeName := sl.GetScope().GetName()
		scopeVersion := sl.GetScope().GetVersion()

		for _, rec := range sl.GetLogRecords() {
			appendLogRow(batch, rec, serviceName, namespace, hasNamespace, instanceID, hasInstanceID, scopeName, scopeVersion, resAttrs)
		}
	}
	return skipped
}

func appendLogRow(
	batch *columnar.Batch,
	rec *logspb.LogRecord,
	serviceName, namespace string, hasNamespace bool,
	instanceID string, hasInstanceID bool,
	scopeName, scopeVersion string,
	resAttrs []columnar.MapPair,
) {
	ts := clampTimestamp(rec.GetTimeUnixNano())
	observedTs := clampTimestamp(rec.GetObservedTimeUnixNano())
	if observedTs == 0 {
		observedTs = ts
	}

	batch.Column("Timestamp").AppendInt64(ts)
	batch.Column("ObservedTimestamp").AppendInt64(observedTs)
	batch.Column("TraceId").AppendBinary(rec.GetTraceId())
	batch.Column("SpanId").AppendBinary(rec.GetSpanId())
	batch.Column("TraceFlags").AppendUint32(rec.GetFlags())
	batch.Column("SeverityText").AppendString(rec.GetSeverityText())
	batch.Column("SeverityNumber").AppendInt32(int32(rec.GetSeverityNumber()))
	batch.Column("Body").AppendString(otlpattr.AnyValueToString(rec.GetBody()))
	batch.Column("ServiceName").AppendString(serviceName)

	if hasNamespace {
		batch.Column("ServiceNamespace").AppendString(namespace)
	} else {
		batch.Column("ServiceNamespace").AppendNull()
	}
	if hasInstanceID {
		batch.Column("ServiceInstanceId").AppendString(instanceID)
	} else {
		batch.Column("ServiceInstanceId").AppendNull()
	}

	batch.Column("ScopeName").AppendString(scopeName)
	if scopeVersion != "" {
		batch.Column("ScopeVersion").AppendString(scopeVersion)
	} else {
		batch.Column("ScopeVersion").AppendNull()
	}

	batch.Column("ResourceAttributes").AppendMap(resAttrs)
	batch.Column("LogAttributes").AppendMap(otlpattr.Flatten(rec.GetAttributes()))

	batch.ObserveTimestamp(ts)
	batch.EndRow()
}
