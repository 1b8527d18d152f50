// Package frame provides the tagged column vectors the extension works with internally.
// A vector keeps its wire data type, typed values and a null mask, raw buffers never leave pkg/marshal.
package frame

import (
	"fmt"
	"math"
	"time"

	"github.com/umputun/lext/pkg/wire"
)

// Vector is a typed column of values with nulls.
// Implemented by Ints, Uints, Floats, Bools, Strings and Times.
type Vector interface {
	Type() wire.DataType
	Len() int
	IsNull(i int) bool
	Nulls() int
}

// Column is a named vector with the attributes declared for it
type Column struct {
	wire.Column
	Data Vector
}

// Frame is a table of equally sized columns
type Frame struct {
	Columns []Column
}

// Rows returns number of rows, 0 for a frame without columns
func (f *Frame) Rows() int {
	if f == nil || len(f.Columns) == 0 {
		return 0
	}
	return f.Columns[0].Data.Len()
}

// Column returns a column by name
func (f *Frame) Column(name string) (Column, bool) {
	for _, c := range f.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return Column{}, false
}

// Validate checks that all columns are set and have the same number of rows
func (f *Frame) Validate() error {
	rows := f.Rows()
	names := make(map[string]bool, len(f.Columns))
	for i, c := range f.Columns {
		if c.Data == nil {
			return fmt.Errorf("column %d (%q) has no data", i, c.Name)
		}
		if c.Data.Len() != rows {
			return fmt.Errorf("column %q has %d rows, expected %d", c.Name, c.Data.Len(), rows)
		}
		if names[c.Name] {
			return fmt.Errorf("duplicate column name %q", c.Name)
		}
		names[c.Name] = true
	}
	return nil
}

// Mask marks null rows, nil mask means no nulls
type Mask []bool

// IsNull returns true if the row i is null
func (n Mask) IsNull(i int) bool { return n != nil && n[i] }

// Nulls returns number of null rows
func (n Mask) Nulls() int {
	count := 0
	for _, v := range n {
		if v {
			count++
		}
	}
	return count
}

// Ints holds signed integers and unsigned integers up to 32 bits
type Ints struct {
	Kind   wire.DataType
	Values []int64
	Null   Mask
}

// Type returns the wire type of the vector
func (v *Ints) Type() wire.DataType { return v.Kind }

// Len returns number of rows
func (v *Ints) Len() int { return len(v.Values) }

// IsNull returns true if the row i is null
func (v *Ints) IsNull(i int) bool { return v.Null.IsNull(i) }

// Nulls returns number of null rows
func (v *Ints) Nulls() int { return v.Null.Nulls() }

// Uints holds unsigned 64-bit integers
type Uints struct {
	Values []uint64
	Null   Mask
}

// Type returns the wire type of the vector
func (v *Uints) Type() wire.DataType { return wire.TypeUint64 }

// Len returns number of rows
func (v *Uints) Len() int { return len(v.Values) }

// IsNull returns true if the row i is null
func (v *Uints) IsNull(i int) bool { return v.Null.IsNull(i) }

// Nulls returns number of null rows
func (v *Uints) Nulls() int { return v.Null.Nulls() }

// Floats holds float32 and float64 values
type Floats struct {
	Kind   wire.DataType
	Values []float64
	Null   Mask
}

// Type returns the wire type of the vector
func (v *Floats) Type() wire.DataType { return v.Kind }

// Len returns number of rows
func (v *Floats) Len() int { return len(v.Values) }

// IsNull returns true if the row i is null
func (v *Floats) IsNull(i int) bool { return v.Null.IsNull(i) }

// Nulls returns number of null rows
func (v *Floats) Nulls() int { return v.Null.Nulls() }

// Bools holds bit values
type Bools struct {
	Values []bool
	Null   Mask
}

// Type returns the wire type of the vector
func (v *Bools) Type() wire.DataType { return wire.TypeBit }

// Len returns number of rows
func (v *Bools) Len() int { return len(v.Values) }

// IsNull returns true if the row i is null
func (v *Bools) IsNull(i int) bool { return v.Null.IsNull(i) }

// Nulls returns number of null rows
func (v *Bools) Nulls() int { return v.Null.Nulls() }

// Strings holds char and wchar values, an empty string is a value, not a null
type Strings struct {
	Kind   wire.DataType
	Values []string
	Null   Mask
}

// Type returns the wire type of the vector
func (v *Strings) Type() wire.DataType { return v.Kind }

// Len returns number of rows
func (v *Strings) Len() int { return len(v.Values) }

// IsNull returns true if the row i is null
func (v *Strings) IsNull(i int) bool { return v.Null.IsNull(i) }

// Nulls returns number of null rows
func (v *Strings) Nulls() int { return v.Null.Nulls() }

// Times holds date and timestamp values
type Times struct {
	Kind   wire.DataType
	Values []time.Time
	Null   Mask
}

// Type returns the wire type of the vector
func (v *Times) Type() wire.DataType { return v.Kind }

// Len returns number of rows
func (v *Times) Len() int { return len(v.Values) }

// IsNull returns true if the row i is null
func (v *Times) IsNull(i int) bool { return v.Null.IsNull(i) }

// Nulls returns number of null rows
func (v *Times) Nulls() int { return v.Null.Nulls() }

// New makes an empty vector of the given type with rows values and an allocated null mask
func New(typ wire.DataType, rows int) (Vector, error) {
	null := make(Mask, rows)
	switch typ {
	case wire.TypeInt8, wire.TypeUint8, wire.TypeInt16, wire.TypeUint16, wire.TypeInt32, wire.TypeUint32, wire.TypeInt64:
		return &Ints{Kind: typ, Values: make([]int64, rows), Null: null}, nil
	case wire.TypeUint64:
		return &Uints{Values: make([]uint64, rows), Null: null}, nil
	case wire.TypeFloat32, wire.TypeFloat64:
		return &Floats{Kind: typ, Values: make([]float64, rows), Null: null}, nil
	case wire.TypeBit:
		return &Bools{Values: make([]bool, rows), Null: null}, nil
	case wire.TypeChar, wire.TypeWChar:
		return &Strings{Kind: typ, Values: make([]string, rows), Null: null}, nil
	case wire.TypeDate, wire.TypeTimestamp:
		return &Times{Kind: typ, Values: make([]time.Time, rows), Null: null}, nil
	}
	return nil, fmt.Errorf("no vector for data type %s", typ)
}

// Value returns the value of row i as int64, uint64, float64, bool, string or time.Time, nil for nulls
func Value(v Vector, i int) any {
	if v.IsNull(i) {
		return nil
	}
	switch vv := v.(type) {
	case *Ints:
		return vv.Values[i]
	case *Uints:
		return vv.Values[i]
	case *Floats:
		return vv.Values[i]
	case *Bools:
		return vv.Values[i]
	case *Strings:
		return vv.Values[i]
	case *Times:
		return vv.Values[i]
	}
	return nil
}

// Slice returns a vector with rows [from, to) of v, values are copied
func Slice(v Vector, from, to int) Vector {
	cut := func(m Mask) Mask {
		if m == nil {
			return nil
		}
		return append(Mask(nil), m[from:to]...)
	}
	switch vv := v.(type) {
	case *Ints:
		return &Ints{Kind: vv.Kind, Values: append([]int64(nil), vv.Values[from:to]...), Null: cut(vv.Null)}
	case *Uints:
		return &Uints{Values: append([]uint64(nil), vv.Values[from:to]...), Null: cut(vv.Null)}
	case *Floats:
		return &Floats{Kind: vv.Kind, Values: append([]float64(nil), vv.Values[from:to]...), Null: cut(vv.Null)}
	case *Bools:
		return &Bools{Values: append([]bool(nil), vv.Values[from:to]...), Null: cut(vv.Null)}
	case *Strings:
		return &Strings{Kind: vv.Kind, Values: append([]string(nil), vv.Values[from:to]...), Null: cut(vv.Null)}
	case *Times:
		return &Times{Kind: vv.Kind, Values: append([]time.Time(nil), vv.Values[from:to]...), Null: cut(vv.Null)}
	}
	return v
}

// SetNull marks the row i null, the vector must have a null mask
func SetNull(v Vector, i int) {
	switch vv := v.(type) {
	case *Ints:
		vv.Null[i] = true
	case *Uints:
		vv.Null[i] = true
	case *Floats:
		vv.Null[i] = true
	case *Bools:
		vv.Null[i] = true
	case *Strings:
		vv.Null[i] = true
	case *Times:
		vv.Null[i] = true
	}
}

// FromValues makes a vector of the given type from values of the kinds returned by Value, nil values are nulls.
// Integers can be stored in float vectors, non-negative integers in unsigned ones.
func FromValues(typ wire.DataType, vals []any) (Vector, error) {
	vec, err := New(typ, len(vals))
	if err != nil {
		return nil, err
	}
	for i, val := range vals {
		if val == nil {
			SetNull(vec, i)
			continue
		}
		if !set(vec, i, val) {
			return nil, fmt.Errorf("row %d: can't store %v (%T) in %s vector", i, val, val, typ)
		}
	}
	return vec, nil
}

func set(v Vector, i int, val any) bool {
	switch vv := v.(type) {
	case *Ints:
		switch x := val.(type) {
		case int64:
			vv.Values[i] = x
			return true
		case uint64:
			if x <= math.MaxInt64 {
				vv.Values[i] = int64(x)
				return true
			}
		}
	case *Uints:
		switch x := val.(type) {
		case int64:
			if x >= 0 {
				vv.Values[i] = uint64(x)
				return true
			}
		case uint64:
			vv.Values[i] = x
			return true
		}
	case *Floats:
		switch x := val.(type) {
		case int64:
			vv.Values[i] = float64(x)
			return true
		case uint64:
			vv.Values[i] = float64(x)
			return true
		case float64:
			vv.Values[i] = x
			return true
		}
	case *Bools:
		if x, ok := val.(bool); ok {
			vv.Values[i] = x
			return true
		}
	case *Strings:
		if x, ok := val.(string); ok {
			vv.Values[i] = x
			return true
		}
	case *Times:
		if x, ok := val.(time.Time); ok {
			vv.Values[i] = x
			return true
		}
	}
	return false
}
