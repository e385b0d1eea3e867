package otlpattr

import (
	"testing"

	"github.com/stretchr/testify/assert"

	commonpb "go.opentelemetry.io/proto/otlp/common/v1"

	"otlp2parquet/internal/columnar"
)

func strKV(key, value string) *commonpb.KeyValue {
	return &commonpb.KeyValue{Key: key, Value: &commonpb.AnyValue{Value: &commonpb.AnyValue_StringValue{StringValue: value}}}
}

func intKV(key string, value int64) *commonpb.KeyValue {
	return &commonpb.KeyValue{Key: key, Value: &commonpb.AnyValue{Value: &commonpb.AnyValue_IntValue{IntValue: value}}}
}

func pairValue(pairs []columnar.MapPair, key string) (string, bool) {
	for _, p := range pairs {
		if p.Key == key {
			return p.Value, true
		}
	}
	return "", false
}

func pairKeys(pairs []columnar.MapPair) []string {
	keys := make([]string, len(pairs))
	for i, p := range pairs {
		keys[i] = p.Key
	}
	return keys
}

func TestServiceNameDefaultsWhenAbsent(t *testing.T) {
	assert.Equal(t, DefaultServiceName, ServiceName(nil))
	assert.Equal(t, DefaultServiceName, ServiceName([]*commonpb.KeyValue{strKV("other", "x")}))
}

func TestServiceNameExtractsResourceAttribute(t *testing.T) {
	attrs := []*commonpb.KeyValue{strKV("service.name", "checkout")}
	assert.Equal(t, "checkout", ServiceName(attrs))
}

func TestServiceNameIgnoresEmptyValue(t *testing.T) {
	attrs := []*commonpb.KeyValue{strKV("service.name", "")}
	assert.Equal(t, DefaultServiceName, ServiceName(attrs))
}

func TestStringAttr(t *testing.T) {
	attrs := []*commonpb.KeyValue{strKV("env", "prod")}

	v, ok := StringAttr(attrs, "env")
	assert.True(t, ok)
	assert.Equal(t, "prod", v)

	_, ok = StringAttr(attrs, "missing")
	assert.False(t, ok)
}

func TestFlattenRendersScalarTypes(t *testing.T) {
	attrs := []*commonpb.KeyValue{
		strKV("name", "svc"),
		intKV("retries", 3),
		{Key: "ok", Value: &commonpb.AnyValue{Value: &commonpb.AnyValue_BoolValue{BoolValue: true}}},
	}

	out := Flatten(attrs)
	name, _ := pairValue(out, "name")
	retries, _ := pairValue(out, "retries")
	ok, _ := pairValue(out, "ok")
	assert.Equal(t, "svc", name)
	assert.Equal(t, "3", retries)
	assert.Equal(t, "true", ok)
}

func TestFlattenPreservesInsertionOrderAcrossRepeatedCalls(t *testing.T) {
	attrs := []*commonpb.KeyValue{
		strKV("z", "1"),
		strKV("a", "2"),
		strKV("m", "3"),
	}

	for i := 0; i < 5; i++ {
		out := Flatten(attrs)
		assert.Equal(t, []string{"z", "a", "m"}, pairKeys(out), "repeated decodes of identical input must emit identical key order")
	}
}

func TestFlattenDuplicateKeyKeepsFirstPositionLastValue(t *testing.T) {
	attrs := []*commonpb.KeyValue{
		strKV("k", "first"),
		strKV("other", "x"),
		strKV("k", "second"),
	}

	out := Flatten(attrs)
	assert.Equal(t, []string{"k", "other"}, pairKeys(out))
	v, _ := pairValue(out, "k")
	assert.Equal(t, "second", v)
}

func TestFlattenResourceRemovesPromotedKeys(t *testing.T) {
	attrs := []*commonpb.KeyValue{
		strKV("service.name", "checkout"),
		strKV("service.namespace", "payments"),
		strKV("service.instance.id", "abc-123"),
		strKV("region", "us-east-1"),
	}

	out := FlattenResource(attrs)
	assert.Equal(t, []string{"region"}, pairKeys(out))
	region, _ := pairValue(out, "region")
	assert.Equal(t, "us-east-1", region)
}

func TestMergePrecedenceLastWriterWins(t *testing.T) {
	resource := []columnar.MapPair{{Key: "k", Value: "resource"}, {Key: "r", Value: "only-resource"}}
	scope := []columnar.MapPair{{Key: "k", Value: "scope"}, {Key: "s", Value: "only-scope"}}
	local := []columnar.MapPair{{Key: "k", Value: "local"}}

	out := Merge(resource, scope, local)
	k, _ := pairValue(out, "k")
	r, _ := pairValue(out, "r")
	s, _ := pairValue(out, "s")
	assert.Equal(t, "local", k)
	assert.Equal(t, "only-resource", r)
	assert.Equal(t, "only-scope", s)
	assert.Equal(t, []string{"k", "r", "s"}, pairKeys(out), "a key's position is fixed by first occurrence")
}

func TestAnyValueToStringCompositeRendersJSON(t *testing.T) {
	arr := &commonpb.AnyValue{Value: &commonpb.AnyValue_ArrayValue{ArrayValue: &commonpb.ArrayValue{
		Values: []*commonpb.AnyValue{
			{Value: &commonpb.AnyValue_StringValue{StringValue: "a"}},
			{Value: &commonpb.AnyValue_IntValue{IntValue: 1}},
		},
	}}}

	assert.Equal(t, `["a",1]`, AnyValueToString(arr))
}

func TestAnyValueToStringNilIsEmpty(t *testing.T) {
	assert.Equal(t, "", AnyValueToString(nil))
}

func TestAnyValueToStringBytesIsHex(t *testing.T) {
	v := &commonpb.AnyValue{Value: &commonpb.AnyValue_BytesValue{BytesValue: []byte{0xDE, 0xAD}}}
	assert.Equal(t, "dead", AnyValueToString(v))
}
