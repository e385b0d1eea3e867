// Package parquetenc builds a parquet-go schema from a schema.Descriptor
// and encodes a columnar.Batch into Parquet bytes (spec.md §4.6), carrying
// each field's stable column_id as Parquet field-ID metadata so catalog
// readers have an on-disk contract that survives column reordering.
//
// Schemas are built dynamically via parquet-go's node-construction API
// (Int64()/String()/List()/Map()/FieldID()/Dict()) rather than a static Go
// struct, since per-schema field IDs are chosen at runtime from
// schema.Descriptor.
package parquetenc

import (
	"github.com/parquet-go/parquet-go"

	"otlp2parquet/internal/schema"
)

// buildNode converts one schema.Field into a parquet.Node, wrapping it in
// Optional and FieldID annotations as needed. Container fields (list/map)
// also stamp their child column IDs via nested FieldID wraps so every
// leaf in the file — including list elements and map keys/values — carries
// a stable ID.
func buildNode(f schema.Field) parquet.Node {
	var node parquet.Node

	switch f.Type {
	case schema.TypeInt64:
		node = parquet.Int64()
	case schema.TypeInt32:
		node = parquet.Int32()
	case schema.TypeUint32:
		// No dedicated unsigned-32 node constructor is relied on here;
		// TraceFlags is stored as a signed 32-bit integer, matching its
		// bit pattern exactly since it never exceeds 32 bits.
		node = parquet.Int32()
	case schema.TypeFloat64:
		node = parquet.Double()
	case schema.TypeBool:
		node = parquet.Boolean()
	case schema.TypeString:
		node = parquet.Dict(parquet.String())
	case schema.TypeBinary:
		node = parquet.Leaf(parquet.ByteArrayType)
	case schema.TypeListInt64, schema.TypeListTimestamp:
		node = parquet.List(parquet.FieldID(parquet.Int64(), f.ElementColumnID))
	case schema.TypeListFloat64:
		node = parquet.List(parquet.FieldID(parquet.Double(), f.ElementColumnID))
	case schema.TypeListString:
		node = parquet.List(parquet.FieldID(parquet.Dict(parquet.String()), f.ElementColumnID))
	case schema.TypeMapStringString:
		node = parquet.Map(
			parquet.FieldID(parquet.String(), f.KeyColumnID),
			parquet.FieldID(parquet.Dict(parquet.String()), f.ValueColumnID),
		)
	case schema.TypeListMapStringString:
		inner := parquet.Map(
			parquet.FieldID(parquet.String(), f.KeyColumnID),
			parquet.FieldID(parquet.Dict(parquet.String()), f.ValueColumnID),
		)
		node = parquet.List(parquet.FieldID(inner, f.ElementColumnID))
	}

	if f.Optional {
		node = parquet.Optional(node)
	}
	return parquet.FieldID(node, f.ColumnID)
}

// BuildSchema converts a schema.Descriptor into the parquet.Schema the
// writer encodes rows against.
func BuildSchema(desc *schema.Descriptor) *parquet.Schema {
	group := make(parquet.Group, len(desc.Fields))
	for _, f := range desc.Fields {
		group[f.Name] = buildNode(f)
	}
	return parquet.NewSchema(desc.Name, group)
}
