// Package marshal converts columns between the boundary buffers sent by the host and frame vectors.
// Inbound buffers are validated strictly, short or inconsistent buffers and indicators are errors.
package marshal

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/umputun/lext/pkg/frame"
	"github.com/umputun/lext/pkg/wire"
)

// Buffer is a single column as it crosses the boundary.
// Data holds rows packed back to back, Ind holds one null indicator per row or is nil if no nulls are possible.
// For char and wchar columns indicator entries are byte lengths of the values.
type Buffer struct {
	Data []byte
	Ind  []int64
}

// DecodeFrame converts a batch of rows for the declared columns into a frame
func DecodeFrame(cols []wire.Column, rows int, bufs []Buffer) (*frame.Frame, error) {
	if len(bufs) != len(cols) {
		return nil, fmt.Errorf("batch has %d columns, schema declares %d", len(bufs), len(cols))
	}
	res := &frame.Frame{Columns: make([]frame.Column, len(cols))}
	for i, col := range cols {
		vec, err := Decode(col, rows, bufs[i])
		if err != nil {
			return nil, fmt.Errorf("can't decode column %d (%q): %w", i, col.Name, err)
		}
		res.Columns[i] = frame.Column{Column: col, Data: vec}
	}
	return res, nil
}

// Decode converts a boundary buffer of the declared column into a vector of rows values
func Decode(col wire.Column, rows int, buf Buffer) (frame.Vector, error) {
	if rows < 0 {
		return nil, fmt.Errorf("negative number of rows %d", rows)
	}
	if buf.Ind != nil && len(buf.Ind) != rows {
		return nil, fmt.Errorf("null indicator has %d entries, expected %d", len(buf.Ind), rows)
	}

	vec, err := frame.New(col.Type, rows)
	if err != nil {
		return nil, err
	}

	if col.Type.Variable() {
		if err := decodeVariable(col, rows, buf, vec); err != nil {
			return nil, err
		}
		return vec, nil
	}

	width := col.Type.Width()
	if len(buf.Data) < rows*width {
		return nil, fmt.Errorf("data buffer has %d bytes, %d rows of %s need %d", len(buf.Data), rows, col.Type, rows*width)
	}
	for i := 0; i < rows; i++ {
		isNull, err := nullAt(col, buf.Ind, i)
		if err != nil {
			return nil, err
		}
		if isNull {
			frame.SetNull(vec, i)
			continue
		}
		if err := decodeFixed(vec, i, buf.Data[i*width:(i+1)*width]); err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
	}
	return vec, nil
}

// nullAt checks indicator of the row i. The null sentinel on a non-nullable column is ignored.
func nullAt(col wire.Column, ind []int64, i int) (bool, error) {
	if ind == nil {
		return false, nil
	}
	switch {
	case ind[i] == wire.NullData:
		return col.Nullable, nil
	case ind[i] < 0:
		return false, fmt.Errorf("row %d has invalid null indicator %d", i, ind[i])
	}
	return false, nil
}

func decodeFixed(vec frame.Vector, i int, b []byte) error {
	le := binary.LittleEndian
	switch v := vec.(type) {
	case *frame.Ints:
		switch v.Kind {
		case wire.TypeInt8:
			v.Values[i] = int64(int8(b[0])) //nolint:gosec // reinterpreting the C value
		case wire.TypeUint8:
			v.Values[i] = int64(b[0])
		case wire.TypeInt16:
			v.Values[i] = int64(int16(le.Uint16(b))) //nolint:gosec
		case wire.TypeUint16:
			v.Values[i] = int64(le.Uint16(b))
		case wire.TypeInt32:
			v.Values[i] = int64(int32(le.Uint32(b))) //nolint:gosec
		case wire.TypeUint32:
			v.Values[i] = int64(le.Uint32(b))
		case wire.TypeInt64:
			v.Values[i] = int64(le.Uint64(b)) //nolint:gosec
		}
	case *frame.Uints:
		v.Values[i] = le.Uint64(b)
	case *frame.Floats:
		if v.Kind == wire.TypeFloat32 {
			v.Values[i] = float64(math.Float32frombits(le.Uint32(b)))
			break
		}
		v.Values[i] = math.Float64frombits(le.Uint64(b))
	case *frame.Bools:
		v.Values[i] = b[0] != 0
	case *frame.Times:
		var err error
		if v.Kind == wire.TypeDate {
			v.Values[i], err = wire.DecodeDate(b).Time()
		} else {
			v.Values[i], err = wire.DecodeTimestamp(b).Time()
		}
		if err != nil {
			return err
		}
	default:
		return fmt.Errorf("unexpected vector %T for fixed-width data", vec)
	}
	return nil
}

// decodeVariable walks char/wchar values located by cumulative byte lengths from the indicators
func decodeVariable(col wire.Column, rows int, buf Buffer, vec frame.Vector) error {
	strs, ok := vec.(*frame.Strings)
	if !ok {
		return fmt.Errorf("unexpected vector %T for variable-width data", vec)
	}
	if rows > 0 && buf.Ind == nil {
		return fmt.Errorf("%s column has no length indicators", col.Type)
	}

	offset := 0
	for i := 0; i < rows; i++ {
		size := buf.Ind[i]
		switch {
		case size == wire.NullData && col.Nullable:
			strs.Null[i] = true
			continue
		case size == wire.NullData:
			size = 0 // not nullable, sentinel is ignored and the value is empty
		case size < 0:
			return fmt.Errorf("row %d has invalid length indicator %d", i, size)
		}
		if int64(offset)+size > int64(len(buf.Data)) {
			return fmt.Errorf("row %d value of %d bytes at offset %d runs past data buffer of %d bytes",
				i, size, offset, len(buf.Data))
		}
		raw := buf.Data[offset : offset+int(size)]
		offset += int(size)

		if col.Type == wire.TypeChar {
			strs.Values[i] = string(raw)
			continue
		}
		s, err := wire.DecodeWChar(raw)
		if err != nil {
			return fmt.Errorf("row %d: %w", i, err)
		}
		strs.Values[i] = s
	}
	return nil
}
