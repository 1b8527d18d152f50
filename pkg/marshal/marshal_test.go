package marshal

import (
	"encoding/binary"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/umputun/lext/pkg/frame"
	"github.com/umputun/lext/pkg/wire"
)

func col(name string, typ wire.DataType, nullable bool) wire.Column {
	return wire.Column{Name: name, Type: typ, Size: typ.Width(), Nullable: nullable,
		PartitionBy: wire.NotUsed, OrderBy: wire.NotUsed}
}

func TestDecode_Int32WithNulls(t *testing.T) {
	data := make([]byte, 4*3)
	neg := int32(-5)
	binary.LittleEndian.PutUint32(data[0:], uint32(neg))
	binary.LittleEndian.PutUint32(data[4:], 0xdeadbeef) // garbage under null
	binary.LittleEndian.PutUint32(data[8:], 42)

	vec, err := Decode(col("c", wire.TypeInt32, true), 3, Buffer{Data: data, Ind: []int64{0, wire.NullData, 4}})
	require.NoError(t, err)
	ints := vec.(*frame.Ints)
	assert.Equal(t, []int64{-5, 0, 42}, ints.Values)
	assert.Equal(t, frame.Mask{false, true, false}, ints.Null)
	assert.Equal(t, 1, vec.Nulls())
}

func TestDecode_NullOnNonNullableIgnored(t *testing.T) {
	data := make([]byte, 8*2)
	binary.LittleEndian.PutUint64(data[0:], math.Float64bits(1.5))
	binary.LittleEndian.PutUint64(data[8:], math.Float64bits(2.5))

	vec, err := Decode(col("c", wire.TypeFloat64, false), 2, Buffer{Data: data, Ind: []int64{wire.NullData, 8}})
	require.NoError(t, err)
	assert.Equal(t, []float64{1.5, 2.5}, vec.(*frame.Floats).Values)
	assert.Equal(t, 0, vec.Nulls())

	strs, err := Decode(col("s", wire.TypeChar, false), 2, Buffer{Data: []byte("ab"), Ind: []int64{wire.NullData, 2}})
	require.NoError(t, err)
	assert.Equal(t, []string{"", "ab"}, strs.(*frame.Strings).Values)
	assert.Equal(t, 0, strs.Nulls())
}

func TestDecode_Char(t *testing.T) {
	buf := Buffer{Data: []byte("helloworld"), Ind: []int64{5, 0, wire.NullData, 5}}
	vec, err := Decode(col("c", wire.TypeChar, true), 4, buf)
	require.NoError(t, err)
	strs := vec.(*frame.Strings)
	assert.Equal(t, []string{"hello", "", "", "world"}, strs.Values)
	assert.False(t, strs.IsNull(1), "empty string is a value")
	assert.True(t, strs.IsNull(2))
}

func TestDecode_WChar(t *testing.T) {
	var data []byte
	var ind []int64
	for _, s := range []string{"мир", "", "x"} {
		b, err := wire.EncodeWChar(s)
		require.NoError(t, err)
		data = append(data, b...)
		ind = append(ind, int64(len(b)))
	}
	ind = append(ind, wire.NullData)

	vec, err := Decode(col("w", wire.TypeWChar, true), 4, Buffer{Data: data, Ind: ind})
	require.NoError(t, err)
	strs := vec.(*frame.Strings)
	assert.Equal(t, []string{"мир", "", "x", ""}, strs.Values)
	assert.Equal(t, frame.Mask{false, false, false, true}, strs.Null)

	_, err = Decode(col("w", wire.TypeWChar, true), 1, Buffer{Data: data, Ind: []int64{int64(wire.WCharWidth + 1)}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not a multiple")
}

func TestDecode_DateTime(t *testing.T) {
	dates := make([]byte, wire.DateSize*2)
	wire.Date{Year: 2020, Month: 1, Day: 31}.Put(dates)
	vec, err := Decode(col("d", wire.TypeDate, true), 2, Buffer{Data: dates, Ind: []int64{wire.DateSize, wire.NullData}})
	require.NoError(t, err)
	assert.Equal(t, time.Date(2020, 1, 31, 0, 0, 0, 0, time.UTC), vec.(*frame.Times).Values[0])
	assert.True(t, vec.IsNull(1))

	stamps := make([]byte, wire.TimestampSize)
	wire.Timestamp{Year: 2020, Month: 1, Day: 31, Hour: 1, Minute: 2, Second: 3, Fraction: 500}.Put(stamps)
	vec, err = Decode(col("t", wire.TypeTimestamp, false), 1, Buffer{Data: stamps})
	require.NoError(t, err)
	assert.Equal(t, time.Date(2020, 1, 31, 1, 2, 3, 500, time.UTC), vec.(*frame.Times).Values[0])

	wire.Timestamp{Year: 2020, Month: 13, Day: 1}.Put(stamps)
	_, err = Decode(col("t", wire.TypeTimestamp, false), 1, Buffer{Data: stamps})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "row 0")
}

func TestDecode_Malformed(t *testing.T) {
	tbl := []struct {
		name string
		col  wire.Column
		rows int
		buf  Buffer
		err  string
	}{
		{"indicator too short", col("c", wire.TypeInt32, true), 3, Buffer{Data: make([]byte, 12), Ind: []int64{0, 0}},
			"null indicator has 2 entries, expected 3"},
		{"indicator too long", col("c", wire.TypeInt32, true), 1, Buffer{Data: make([]byte, 4), Ind: []int64{0, 0}},
			"null indicator has 2 entries, expected 1"},
		{"data truncated", col("c", wire.TypeInt64, true), 2, Buffer{Data: make([]byte, 15)},
			"data buffer has 15 bytes, 2 rows of int64 need 16"},
		{"negative rows", col("c", wire.TypeInt64, true), -1, Buffer{},
			"negative number of rows -1"},
		{"bad indicator", col("c", wire.TypeInt16, true), 1, Buffer{Data: make([]byte, 2), Ind: []int64{-7}},
			"row 0 has invalid null indicator -7"},
		{"char without lengths", col("c", wire.TypeChar, true), 1, Buffer{Data: []byte("a")},
			"char column has no length indicators"},
		{"char past buffer", col("c", wire.TypeChar, true), 2, Buffer{Data: []byte("abc"), Ind: []int64{2, 2}},
			"row 1 value of 2 bytes at offset 2 runs past data buffer of 3 bytes"},
		{"char negative length", col("c", wire.TypeChar, true), 1, Buffer{Data: []byte("abc"), Ind: []int64{-3}},
			"row 0 has invalid length indicator -3"},
		{"binary", col("c", wire.TypeBinary, true), 1, Buffer{Data: []byte("a")},
			"no vector for data type binary"},
	}

	for _, tt := range tbl {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(tt.col, tt.rows, tt.buf)
			assert.EqualError(t, err, tt.err)
		})
	}
}

func TestRoundTrip_Numeric(t *testing.T) {
	tbl := []struct {
		typ  wire.DataType
		vec  frame.Vector
		null int
	}{
		{wire.TypeBit, &frame.Bools{Values: []bool{true, false, true}}, 1},
		{wire.TypeInt8, &frame.Ints{Kind: wire.TypeInt8, Values: []int64{math.MinInt8, 0, math.MaxInt8}}, 1},
		{wire.TypeUint8, &frame.Ints{Kind: wire.TypeUint8, Values: []int64{0, 1, math.MaxUint8}}, 0},
		{wire.TypeInt16, &frame.Ints{Kind: wire.TypeInt16, Values: []int64{math.MinInt16, -1, math.MaxInt16}}, 2},
		{wire.TypeUint16, &frame.Ints{Kind: wire.TypeUint16, Values: []int64{0, 7, math.MaxUint16}}, 1},
		{wire.TypeInt32, &frame.Ints{Kind: wire.TypeInt32, Values: []int64{math.MinInt32, 3, math.MaxInt32}}, 0},
		{wire.TypeUint32, &frame.Ints{Kind: wire.TypeUint32, Values: []int64{0, 3, math.MaxUint32}}, 2},
		{wire.TypeInt64, &frame.Ints{Kind: wire.TypeInt64, Values: []int64{math.MinInt64, 3, math.MaxInt64}}, 1},
		{wire.TypeUint64, &frame.Uints{Values: []uint64{0, 3, math.MaxUint64}}, 0},
		{wire.TypeFloat32, &frame.Floats{Kind: wire.TypeFloat32, Values: []float64{-1.5, 0.25, math.MaxFloat32}}, 1},
		{wire.TypeFloat64, &frame.Floats{Kind: wire.TypeFloat64, Values: []float64{-1e300, math.SmallestNonzeroFloat64, math.Pi}}, 2},
	}

	for _, tt := range tbl {
		t.Run(tt.typ.String(), func(t *testing.T) {
			// build wire buffer with a null at row "null" and garbage under it
			width := tt.typ.Width()
			src := Buffer{Data: make([]byte, 3*width), Ind: []int64{int64(width), int64(width), int64(width)}}
			clean, err := Encode(tt.vec)
			require.NoError(t, err)
			copy(src.Data, clean.Data)
			for k := tt.null * width; k < (tt.null+1)*width; k++ {
				src.Data[k] = 0xAB
			}
			src.Ind[tt.null] = wire.NullData

			vec, err := Decode(col("c", tt.typ, true), 3, src)
			require.NoError(t, err)
			assert.Equal(t, tt.typ, vec.Type())
			assert.True(t, vec.IsNull(tt.null))
			assert.Equal(t, 1, vec.Nulls())

			out, err := Encode(vec)
			require.NoError(t, err)
			require.Len(t, out.Ind, 3)
			for i := 0; i < 3; i++ {
				if i == tt.null {
					assert.Equal(t, wire.NullData, out.Ind[i])
					continue
				}
				assert.Equal(t, src.Data[i*width:(i+1)*width], out.Data[i*width:(i+1)*width], "row %d", i)
			}
		})
	}
}

func TestRoundTrip_CharEmptyVsNull(t *testing.T) {
	for _, typ := range []wire.DataType{wire.TypeChar, wire.TypeWChar} {
		t.Run(typ.String(), func(t *testing.T) {
			in := &frame.Strings{Kind: typ, Values: []string{"", "a", "", "текст"}, Null: frame.Mask{false, false, true, false}}
			buf, err := Encode(in)
			require.NoError(t, err)
			assert.Equal(t, wire.NullData, buf.Ind[2])
			assert.Equal(t, int64(0), buf.Ind[0])

			vec, err := Decode(col("c", typ, true), 4, buf)
			require.NoError(t, err)
			out := vec.(*frame.Strings)
			assert.Equal(t, in.Values, out.Values)
			assert.Equal(t, in.Null, out.Null)
			assert.False(t, out.IsNull(0))
			assert.True(t, out.IsNull(2))
		})
	}
}

func TestEncode_RangeAndTimes(t *testing.T) {
	_, err := Encode(&frame.Ints{Kind: wire.TypeInt8, Values: []int64{128}})
	assert.EqualError(t, err, "row 0: value 128 out of int8 range")

	_, err = Encode(&frame.Times{Kind: wire.TypeDate, Values: []time.Time{time.Date(0, 1, 1, 0, 0, 0, 0, time.UTC)}})
	assert.EqualError(t, err, "row 0: year 0 out of range")

	buf, err := Encode(&frame.Times{Kind: wire.TypeTimestamp, Values: []time.Time{time.Date(2001, 2, 3, 4, 5, 6, 7, time.UTC)}})
	require.NoError(t, err)
	assert.Equal(t, wire.Timestamp{Year: 2001, Month: 2, Day: 3, Hour: 4, Minute: 5, Second: 6, Fraction: 7},
		wire.DecodeTimestamp(buf.Data))
}

func TestEncodeFrame_Describe(t *testing.T) {
	f := &frame.Frame{Columns: []frame.Column{
		{Column: wire.Column{Name: "id", Nullable: false, PartitionBy: wire.NotUsed, OrderBy: wire.NotUsed},
			Data: &frame.Ints{Kind: wire.TypeInt32, Values: []int64{1, 2}}},
		{Column: wire.Column{Name: "name", PartitionBy: wire.NotUsed, OrderBy: wire.NotUsed},
			Data: &frame.Strings{Kind: wire.TypeChar, Values: []string{"abc", ""}, Null: frame.Mask{false, true}}},
		{Column: wire.Column{Name: "wide", PartitionBy: wire.NotUsed, OrderBy: 1},
			Data: &frame.Strings{Kind: wire.TypeWChar, Values: []string{"abcd", "xy"}}},
	}}
	cols, bufs, err := EncodeFrame(f)
	require.NoError(t, err)
	require.Len(t, cols, 3)
	require.Len(t, bufs, 3)

	assert.Equal(t, wire.Column{Index: 0, Name: "id", Type: wire.TypeInt32, Size: 4, PartitionBy: -1, OrderBy: -1}, cols[0])
	assert.Equal(t, wire.Column{Index: 1, Name: "name", Type: wire.TypeChar, Size: 3, Nullable: true, PartitionBy: -1, OrderBy: -1}, cols[1])
	assert.Equal(t, wire.Column{Index: 2, Name: "wide", Type: wire.TypeWChar, Size: 4, PartitionBy: -1, OrderBy: 1}, cols[2])
	assert.Nil(t, bufs[0].Ind)

	f.Columns[1].Data = &frame.Strings{Kind: wire.TypeChar, Values: []string{"x"}}
	_, _, err = EncodeFrame(f)
	assert.EqualError(t, err, `invalid result frame: column "name" has 1 rows, expected 2`)
}
