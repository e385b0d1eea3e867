// Package otlpattr flattens OTLP KeyValue attribute lists into the ordered
// key/value pairs every schema's attribute columns store, and extracts
// well-known resource attributes such as service.name.
package otlpattr

import (
	"encoding/hex"
	"encoding/json"
	"strconv"

	commonpb "go.opentelemetry.io/proto/otlp/common/v1"

	"otlp2parquet/internal/columnar"
)

// DefaultServiceName is used when a resource carries no service.name
// attribute (spec.md §4.2).
const DefaultServiceName = "unknown"

// ServiceName extracts the service.name resource attribute, defaulting to
// DefaultServiceName when absent or empty.
func ServiceName(attrs []*commonpb.KeyValue) string {
	for _, kv := range attrs {
		if kv.GetKey() == "service.name" {
			if s := stringValue(kv.GetValue()); s != "" {
				return s
			}
		}
	}
	return DefaultServiceName
}

// StringAttr returns the string form of a named attribute and whether it
// was present.
func StringAttr(attrs []*commonpb.KeyValue, key string) (string, bool) {
	for _, kv := range attrs {
		if kv.GetKey() == key {
			return stringValue(kv.GetValue()), true
		}
	}
	return "", false
}

// Flatten converts an OTLP KeyValue list into the ordered key/value pairs
// every schema's attribute/resource-attribute columns store, preserving
// the original insertion order so replaying identical input always
// produces identical column bytes. Values that are not already strings
// are rendered via stringValue's scalar/array/kv rules. A key repeated
// in the same list keeps its first position but takes the last value,
// matching ordinary map-assignment semantics.
func Flatten(attrs []*commonpb.KeyValue) []columnar.MapPair {
	out := make([]columnar.MapPair, 0, len(attrs))
	index := make(map[string]int, len(attrs))
	for _, kv := range attrs {
		key := kv.GetKey()
		val := stringValue(kv.GetValue())
		if i, ok := index[key]; ok {
			out[i].Value = val
			continue
		}
		index[key] = len(out)
		out = append(out, columnar.MapPair{Key: key, Value: val})
	}
	return out
}

// resourceKeys are promoted out of the residual ResourceAttributes map
// into their own typed columns (spec.md §4.3: "service.* resource
// attributes are promoted to the typed columns and removed from the
// residual resource-attribute map").
var resourceKeys = [...]string{"service.name", "service.namespace", "service.instance.id"}

// FlattenResource is Flatten for a resource's attribute list, with the
// service.* keys that get their own typed columns removed from the
// residual pairs, original order otherwise preserved.
func FlattenResource(attrs []*commonpb.KeyValue) []columnar.MapPair {
	out := Flatten(attrs)
	filtered := out[:0]
	for _, p := range out {
		if !isResourceKey(p.Key) {
			filtered = append(filtered, p)
		}
	}
	return filtered
}

func isResourceKey(key string) bool {
	for _, k := range resourceKeys {
		if k == key {
			return true
		}
	}
	return false
}

// Merge overlays scope- and span/log/metric-level attributes on top of
// resource-level ones, in resource < scope < local precedence. A key's
// position in the result is fixed by its first occurrence across the
// given lists; later lists only overwrite its value, so the result stays
// deterministic for identical input.
func Merge(pairLists ...[]columnar.MapPair) []columnar.MapPair {
	out := make([]columnar.MapPair, 0)
	index := make(map[string]int)
	for _, pairs := range pairLists {
		for _, p := range pairs {
			if i, ok := index[p.Key]; ok {
				out[i].Value = p.Value
				continue
			}
			index[p.Key] = len(out)
			out = append(out, p)
		}
	}
	return out
}

// AnyValueToString renders a single AnyValue (e.g. a log record's Body) to
// its string form, using the same rules as attribute flattening.
func AnyValueToString(v *commonpb.AnyValue) string {
	return stringValue(v)
}

// stringValue renders an AnyValue to its string form: string values pass
// through, scalars are formatted, and composite values (array/kvlist) are
// rendered as compact JSON.
func stringValue(v *commonpb.AnyValue) string {
	if v == nil {
		return ""
	}
	switch x := v.Value.(type) {
	case *commonpb.AnyValue_StringValue:
		return x.StringValue
	case *commonpb.AnyValue_BoolValue:
		return strconv.FormatBool(x.BoolValue)
	case *commonpb.AnyValue_IntValue:
		return strconv.FormatInt(x.IntValue, 10)
	case *commonpb.AnyValue_DoubleValue:
		return strconv.FormatFloat(x.DoubleValue, 'g', -1, 64)
	case *commonpb.AnyValue_BytesValue:
		return hex.EncodeToString(x.BytesValue)
	case *commonpb.AnyValue_ArrayValue:
		return toJSON(toInterface(v))
	case *commonpb.AnyValue_KvlistValue:
		return toJSON(toInterface(v))
	default:
		return ""
	}
}

// toInterface recursively converts an AnyValue into a plain Go value, used
// only for JSON-rendering composite (array/kvlist) attribute values.
func toInterface(v *commonpb.AnyValue) interface{} {
	if v == nil {
		return nil
	}
	switch x := v.Value.(type) {
	case *commonpb.AnyValue_StringValue:
		return x.StringValue
	case *commonpb.AnyValue_BoolValue:
		return x.BoolValue
	case *commonpb.AnyValue_IntValue:
		return x.IntValue
	case *commonpb.AnyValue_DoubleValue:
		return x.DoubleValue
	case *commonpb.AnyValue_BytesValue:
		return x.BytesValue
	case *commonpb.AnyValue_ArrayValue:
		vals := x.ArrayValue.GetValues()
		out := make([]interface{}, len(vals))
		for i, e := range vals {
			out[i] = toInterface(e)
		}
		return out
	case *commonpb.AnyValue_KvlistValue:
		out := make(map[string]interface{})
		for _, kv := range x.KvlistValue.GetValues() {
			out[kv.GetKey()] = toInterface(kv.GetValue())
		}
		return out
	default:
		return nil
	}
}

func toJSON(v interface{}) string {
	b, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(b)
}
