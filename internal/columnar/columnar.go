// Package columnar implements the column-major batch representation the
// converter fills in and the Parquet encoder later reads: one Column per
// schema field, each backed by a typed builder with geometric growth, plus
// the batch-level min/max timestamp tracking spec.md §3 requires.
package columnar

import "otlp2parquet/internal/schema"

// Column is a single typed, column-major value store. Exactly one of the
// typed slices below is populated, selected by Field.Type; which one is an
// invariant enforced entirely by construction (NewColumn), never by a
// runtime type switch on read.
type Column struct {
	Field schema.Field

	// Valid holds one entry per row when Field.Optional, true meaning the
	// value at that row index is present. nil when the field is required.
	Valid []bool

	Int64s   []int64
	Int32s   []int32
	Uint32s  []uint32
	Float64s []float64
	Bools    []bool
	Strings  []string
	Binaries [][]byte

	// List columns store a flat value buffer plus one length per row.
	ListInt64s    []int64
	ListFloat64s  []float64
	ListStrings   []string
	ListLens      []int32

	// Map columns (including list<map>) store flattened key/value pairs
	// plus one length per outer row (for list<map>, length-of-lists of
	// maps is tracked via MapGroupLens; for a bare map column each row
	// owns exactly one group).
	MapKeys      []string
	MapValues    []string
	MapLens      []int32 // pairs per map
	MapGroupLens []int32 // maps per row; nil unless Field.Type == TypeListMapStringString
}

func newColumn(f schema.Field, capacityHint int) *Column {
	c := &Column{Field: f}
	if f.Optional {
		c.Valid = make([]bool, 0, capacityHint)
	}
	switch f.Type {
	case schema.TypeInt64:
		c.Int64s = make([]int64, 0, capacityHint)
	case schema.TypeInt32:
		c.Int32s = make([]int32, 0, capacityHint)
	case schema.TypeUint32:
		c.Uint32s = make([]uint32, 0, capacityHint)
	case schema.TypeFloat64:
		c.Float64s = make([]float64, 0, capacityHint)
	case schema.TypeBool:
		c.Bools = make([]bool, 0, capacityHint)
	case schema.TypeString:
		c.Strings = make([]string, 0, capacityHint)
	case schema.TypeBinary:
		c.Binaries = make([][]byte, 0, capacityHint)
	case schema.TypeListInt64:
		c.ListInt64s = make([]int64, 0, capacityHint)
		c.ListLens = make([]int32, 0, capacityHint)
	case schema.TypeListFloat64:
		c.ListFloat64s = make([]float64, 0, capacityHint)
		c.ListLens = make([]int32, 0, capacityHint)
	case schema.TypeListString, schema.TypeListTimestamp:
		c.ListStrings = nil // lists of timestamps/strings reuse ListInt64s/ListStrings below
		if f.Type == schema.TypeListTimestamp {
			c.ListInt64s = make([]int64, 0, capacityHint)
		} else {
			c.ListStrings = make([]string, 0, capacityHint)
		}
		c.ListLens = make([]int32, 0, capacityHint)
	case schema.TypeMapStringString:
		c.MapKeys = make([]string, 0, capacityHint)
		c.MapValues = make([]string, 0, capacityHint)
		c.MapLens = make([]int32, 0, capacityHint)
	case schema.TypeListMapStringString:
		c.MapKeys = make([]string, 0, capacityHint)
		c.MapValues = make([]string, 0, capacityHint)
		c.MapLens = make([]int32, 0, capacityHint)
		c.MapGroupLens = make([]int32, 0, capacityHint)
	}
	return c
}

// AppendInt64 appends a required or present-optional int64 value.
func (c *Column) AppendInt64(v int64) {
	c.Int64s = append(c.Int64s, v)
	c.markValid()
}

func (c *Column) AppendInt32(v int32) {
	c.Int32s = append(c.Int32s, v)
	c.markValid()
}

func (c *Column) AppendUint32(v uint32) {
	c.Uint32s = append(c.Uint32s, v)
	c.markValid()
}

func (c *Column) AppendFloat64(v float64) {
	c.Float64s = append(c.Float64s, v)
	c.markValid()
}

func (c *Column) AppendBool(v bool) {
	c.Bools = append(c.Bools, v)
	c.markValid()
}

func (c *Column) AppendString(v string) {
	c.Strings = append(c.Strings, v)
	c.markValid()
}

func (c *Column) AppendBinary(v []byte) {
	c.Binaries = append(c.Binaries, v)
	c.markValid()
}

// AppendListInt64 appends one row's worth of a list<i64>/list<timestamp>
// column.
func (c *Column) AppendListInt64(vs []int64) {
	c.ListInt64s = append(c.ListInt64s, vs...)
	c.ListLens = append(c.ListLens, int32(len(vs)))
	c.markValid()
}

func (c *Column) AppendListFloat64(vs []float64) {
	c.ListFloat64s = append(c.ListFloat64s, vs...)
	c.ListLens = append(c.ListLens, int32(len(vs)))
	c.markValid()
}

func (c *Column) AppendListString(vs []string) {
	c.ListStrings = append(c.ListStrings, vs...)
	c.ListLens = append(c.ListLens, int32(len(vs)))
	c.markValid()
}

// MapPair is one key/value entry of a map<str,str> column. Pairs are
// appended in the order given rather than sorted or rehashed, so a caller
// that hands AppendMap an order-preserving sequence (otlpattr.Flatten's
// result) gets that same order back out of the column — replaying the
// same input always serializes the same bytes.
type MapPair struct {
	Key   string
	Value string
}

// AppendMap appends one row's worth of a map<str,str> column, preserving
// the order of pairs as given.
func (c *Column) AppendMap(pairs []MapPair) {
	for _, p := range pairs {
		c.MapKeys = append(c.MapKeys, p.Key)
		c.MapValues = append(c.MapValues, p.Value)
	}
	c.MapLens = append(c.MapLens, int32(len(pairs)))
	c.markValid()
}

// AppendListMap appends one row's worth of a list<map<str,str>> column,
// preserving both the order of maps in the list and the order of pairs
// within each map.
func (c *Column) AppendListMap(groups [][]MapPair) {
	for _, pairs := range groups {
		for _, p := range pairs {
			c.MapKeys = append(c.MapKeys, p.Key)
			c.MapValues = append(c.MapValues, p.Value)
		}
		c.MapLens = append(c.MapLens, int32(len(pairs)))
	}
	c.MapGroupLens = append(c.MapGroupLens, int32(len(groups)))
	c.markValid()
}

// AppendNull appends an absent value for an optional column; the row is
// still counted so every column in a batch stays the same length.
func (c *Column) AppendNull() {
	switch c.Field.Type {
	case schema.TypeInt64:
		c.Int64s = append(c.Int64s, 0)
	case schema.TypeInt32:
		c.Int32s = append(c.Int32s, 0)
	case schema.TypeUint32:
		c.Uint32s = append(c.Uint32s, 0)
	case schema.TypeFloat64:
		c.Float64s = append(c.Float64s, 0)
	case schema.TypeBool:
		c.Bools = append(c.Bools, false)
	case schema.TypeString:
		c.Strings = append(c.Strings, "")
	case schema.TypeBinary:
		c.Binaries = append(c.Binaries, nil)
	case schema.TypeListInt64, schema.TypeListTimestamp:
		c.ListLens = append(c.ListLens, 0)
	case schema.TypeListFloat64:
		c.ListLens = append(c.ListLens, 0)
	case schema.TypeListString:
		c.ListLens = append(c.ListLens, 0)
	case schema.TypeMapStringString:
		c.MapLens = append(c.MapLens, 0)
	case schema.TypeListMapStringString:
		c.MapGroupLens = append(c.MapGroupLens, 0)
	}
	c.Valid = append(c.Valid, false)
}

func (c *Column) markValid() {
	if c.Field.Optional {
		c.Valid = append(c.Valid, true)
	}
}

// Len returns the number of rows appended to this column so far.
func (c *Column) Len() int {
	switch c.Field.Type {
	case schema.TypeInt64:
		return len(c.Int64s)
	case schema.TypeInt32:
		return len(c.Int32s)
	case schema.TypeUint32:
		return len(c.Uint32s)
	case schema.TypeFloat64:
		return len(c.Float64s)
	case schema.TypeBool:
		return len(c.Bools)
	case schema.TypeString:
		return len(c.Strings)
	case schema.TypeBinary:
		return len(c.Binaries)
	case schema.TypeListInt64, schema.TypeListTimestamp, schema.TypeListFloat64, schema.TypeListString:
		return len(c.ListLens)
	case schema.TypeMapStringString:
		return len(c.MapLens)
	case schema.TypeListMapStringString:
		return len(c.MapGroupLens)
	}
	return 0
}

// Batch is one column-major accumulation of rows conforming to a single
// schema descriptor, with the batch-wide timestamp span spec.md §3 tracks
// for partition and flush decisions.
type Batch struct {
	Descriptor *schema.Descriptor
	Columns    []*Column

	RowCount       int
	MinTimestampNs int64
	MaxTimestampNs int64

	byName map[string]*Column
}

// NewBatch allocates an empty batch for the given schema, pre-sizing every
// column's backing slice to capacityHint rows.
func NewBatch(desc *schema.Descriptor, capacityHint int) *Batch {
	b := &Batch{
		Descriptor: desc,
		Columns:    make([]*Column, len(desc.Fields)),
		byName:     make(map[string]*Column, len(desc.Fields)),
	}
	for i, f := range desc.Fields {
		col := newColumn(f, capacityHint)
		b.Columns[i] = col
		b.byName[f.Name] = col
	}
	return b
}

// Column returns the named column, panicking if it does not exist: callers
// are the converter's per-schema row builders, which know their own schema
// by construction.
func (b *Batch) Column(name string) *Column {
	c, ok := b.byName[name]
	if !ok {
		panic("columnar: unknown column " + name)
	}
	return c
}

// ObserveTimestamp folds one row's event timestamp into the batch-wide
// min/max span. Call once per row as it is appended.
func (b *Batch) ObserveTimestamp(tsNs int64) {
	if b.RowCount == 0 {
		b.MinTimestampNs = tsNs
		b.MaxTimestampNs = tsNs
	} else {
		if tsNs < b.MinTimestampNs {
			b.MinTimestampNs = tsNs
		}
		if tsNs > b.MaxTimestampNs {
			b.MaxTimestampNs = tsNs
		}
	}
}

// EndRow increments the row counter once all of this row's columns have
// been appended to.
func (b *Batch) EndRow() {
	b.RowCount++
}

// EstimatedBytes gives a cheap, conservative size estimate used by the
// batcher's max_bytes flush trigger (spec.md §4.4): fixed-width columns
// are exact, variable-width columns (strings, binaries, maps) are summed
// by actual content length.
func (b *Batch) EstimatedBytes() int64 {
	var total int64
	for _, c := range b.Columns {
		switch c.Field.Type {
		case schema.TypeInt64:
			total += int64(len(c.Int64s)) * 8
		case schema.TypeInt32:
			total += int64(len(c.Int32s)) * 4
		case schema.TypeUint32:
			total += int64(len(c.Uint32s)) * 4
		case schema.TypeFloat64:
			total += int64(len(c.Float64s)) * 8
		case schema.TypeBool:
			total += int64(len(c.Bools))
		case schema.TypeString:
			for _, s := range c.Strings {
				total += int64(len(s))
			}
		case schema.TypeBinary:
			for _, bs := range c.Binaries {
				total += int64(len(bs))
			}
		case schema.TypeListInt64, schema.TypeListTimestamp:
			total += int64(len(c.ListInt64s)) * 8
		case schema.TypeListFloat64:
			total += int64(len(c.ListFloat64s)) * 8
		case schema.TypeListString:
			for _, s := range c.ListStrings {
				total += int64(len(s))
			}
		case schema.TypeMapStringString, schema.TypeListMapStringString:
			for _, s := range c.MapKeys {
				total += int64(len(s))
			}
			for _, s := range c.MapValues {
				total += int64(len(s))
			}
		}
	}
	return total
}
