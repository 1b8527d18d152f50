package marshal

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/umputun/lext/pkg/frame"
	"github.com/umputun/lext/pkg/wire"
)

// EncodeFrame converts every column of the frame into a boundary buffer and reports column descriptors.
// Descriptors are re-derived from the data: size of char columns is the longest value, nullable is set
// if the column is declared nullable or has nulls.
func EncodeFrame(f *frame.Frame) ([]wire.Column, []Buffer, error) {
	if err := f.Validate(); err != nil {
		return nil, nil, fmt.Errorf("invalid result frame: %w", err)
	}
	cols := make([]wire.Column, len(f.Columns))
	bufs := make([]Buffer, len(f.Columns))
	for i, c := range f.Columns {
		buf, err := Encode(c.Data)
		if err != nil {
			return nil, nil, fmt.Errorf("can't encode column %d (%q): %w", i, c.Name, err)
		}
		cols[i] = describe(i, c, buf)
		bufs[i] = buf
	}
	return cols, bufs, nil
}

func describe(index int, c frame.Column, buf Buffer) wire.Column {
	res := c.Column
	res.Index = index
	res.Type = c.Data.Type()
	res.Nullable = c.Nullable || c.Data.Nulls() > 0
	if res.PartitionBy < wire.NotUsed {
		res.PartitionBy = wire.NotUsed
	}
	if res.OrderBy < wire.NotUsed {
		res.OrderBy = wire.NotUsed
	}

	if !res.Type.Variable() {
		res.Size = res.Type.Width()
		return res
	}

	longest := int64(1)
	for _, size := range buf.Ind {
		if size > longest {
			longest = size
		}
	}
	if res.Type == wire.TypeWChar {
		longest = (longest + wire.WCharWidth - 1) / wire.WCharWidth // size of wide columns is in characters
	}
	res.Size = int(longest)
	return res
}

// Encode converts a vector into a boundary buffer. Fixed-width columns get indicators only if they have
// nulls, char and wchar columns always get per-row byte lengths.
func Encode(vec frame.Vector) (Buffer, error) {
	typ := vec.Type()
	if !typ.Supported() {
		return Buffer{}, fmt.Errorf("unsupported data type %s", typ)
	}
	if typ.Variable() {
		return encodeVariable(vec)
	}

	rows, width := vec.Len(), typ.Width()
	res := Buffer{Data: make([]byte, rows*width)}
	if vec.Nulls() > 0 {
		res.Ind = make([]int64, rows)
	}
	for i := 0; i < rows; i++ {
		if vec.IsNull(i) {
			res.Ind[i] = wire.NullData
			continue
		}
		if res.Ind != nil {
			res.Ind[i] = int64(width)
		}
		if err := encodeFixed(vec, i, res.Data[i*width:(i+1)*width]); err != nil {
			return Buffer{}, fmt.Errorf("row %d: %w", i, err)
		}
	}
	return res, nil
}

func encodeFixed(vec frame.Vector, i int, b []byte) error {
	le := binary.LittleEndian
	switch v := vec.(type) {
	case *frame.Ints:
		val := v.Values[i]
		if err := checkRange(v.Kind, val); err != nil {
			return err
		}
		switch v.Kind {
		case wire.TypeInt8, wire.TypeUint8:
			b[0] = byte(val) //nolint:gosec // range checked
		case wire.TypeInt16, wire.TypeUint16:
			le.PutUint16(b, uint16(val)) //nolint:gosec
		case wire.TypeInt32, wire.TypeUint32:
			le.PutUint32(b, uint32(val)) //nolint:gosec
		case wire.TypeInt64:
			le.PutUint64(b, uint64(val)) //nolint:gosec
		}
	case *frame.Uints:
		le.PutUint64(b, v.Values[i])
	case *frame.Floats:
		if v.Kind == wire.TypeFloat32 {
			le.PutUint32(b, math.Float32bits(float32(v.Values[i])))
			break
		}
		le.PutUint64(b, math.Float64bits(v.Values[i]))
	case *frame.Bools:
		if v.Values[i] {
			b[0] = 1
		}
	case *frame.Times:
		if v.Kind == wire.TypeDate {
			d, err := wire.DateOf(v.Values[i])
			if err != nil {
				return err
			}
			d.Put(b)
			break
		}
		ts, err := wire.TimestampOf(v.Values[i])
		if err != nil {
			return err
		}
		ts.Put(b)
	default:
		return fmt.Errorf("unexpected vector %T for fixed-width data", vec)
	}
	return nil
}

func encodeVariable(vec frame.Vector) (Buffer, error) {
	strs, ok := vec.(*frame.Strings)
	if !ok {
		return Buffer{}, fmt.Errorf("unexpected vector %T for variable-width data", vec)
	}
	res := Buffer{Ind: make([]int64, strs.Len())}
	for i, s := range strs.Values {
		if strs.IsNull(i) {
			res.Ind[i] = wire.NullData
			continue
		}
		raw := []byte(s)
		if strs.Kind == wire.TypeWChar {
			var err error
			if raw, err = wire.EncodeWChar(s); err != nil {
				return Buffer{}, fmt.Errorf("row %d: %w", i, err)
			}
		}
		res.Data = append(res.Data, raw...)
		res.Ind[i] = int64(len(raw))
	}
	return res, nil
}

// Fits reports whether the value can be stored in an integer column of the given type
func Fits(typ wire.DataType, val int64) bool {
	return checkRange(typ, val) == nil
}

func checkRange(typ wire.DataType, val int64) error {
	var lo, hi int64
	switch typ {
	case wire.TypeInt8:
		lo, hi = math.MinInt8, math.MaxInt8
	case wire.TypeUint8:
		lo, hi = 0, math.MaxUint8
	case wire.TypeInt16:
		lo, hi = math.MinInt16, math.MaxInt16
	case wire.TypeUint16:
		lo, hi = 0, math.MaxUint16
	case wire.TypeInt32:
		lo, hi = math.MinInt32, math.MaxInt32
	case wire.TypeUint32:
		lo, hi = 0, math.MaxUint32
	case wire.TypeInt64:
		return nil
	default:
		return fmt.Errorf("%s is not an integer type", typ)
	}
	if val < lo || val > hi {
		return fmt.Errorf("value %d out of %s range", val, typ)
	}
	return nil
}
