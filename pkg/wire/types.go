// Package wire defines the boundary representation of columnar data exchanged with the host engine:
// data type tags, column descriptors, null indicators, date/time struct layouts and status codes.
// Everything here mirrors the fixed C ABI, internal code converts to frame vectors as early as possible.
package wire

import "fmt"

// DataType is a column data type tag as sent by the host, values match ODBC C type codes.
type DataType int16

// supported and known data types
const (
	TypeBit       DataType = -7  // SQL_C_BIT, 1 byte boolean
	TypeInt8      DataType = -26 // SQL_C_STINYINT
	TypeUint8     DataType = -28 // SQL_C_UTINYINT
	TypeInt16     DataType = -15 // SQL_C_SSHORT
	TypeUint16    DataType = -17 // SQL_C_USHORT
	TypeInt32     DataType = -16 // SQL_C_SLONG
	TypeUint32    DataType = -18 // SQL_C_ULONG
	TypeInt64     DataType = -25 // SQL_C_SBIGINT
	TypeUint64    DataType = -27 // SQL_C_UBIGINT
	TypeFloat32   DataType = 7   // SQL_C_FLOAT
	TypeFloat64   DataType = 8   // SQL_C_DOUBLE
	TypeChar      DataType = 1   // SQL_C_CHAR
	TypeWChar     DataType = -8  // SQL_C_WCHAR
	TypeDate      DataType = 91  // SQL_C_TYPE_DATE
	TypeTimestamp DataType = 93  // SQL_C_TYPE_TIMESTAMP
	TypeBinary    DataType = -2  // SQL_C_BINARY, known but not supported
)

// NullData is the null indicator sentinel, SQL_NULL_DATA
const NullData int64 = -1

var typeNames = map[DataType]string{
	TypeBit:       "bit",
	TypeInt8:      "int8",
	TypeUint8:     "uint8",
	TypeInt16:     "int16",
	TypeUint16:    "uint16",
	TypeInt32:     "int32",
	TypeUint32:    "uint32",
	TypeInt64:     "int64",
	TypeUint64:    "uint64",
	TypeFloat32:   "float32",
	TypeFloat64:   "float64",
	TypeChar:      "char",
	TypeWChar:     "wchar",
	TypeDate:      "date",
	TypeTimestamp: "timestamp",
	TypeBinary:    "binary",
}

// String returns a readable name of the type, or its numeric code for unknown tags
func (t DataType) String() string {
	if name, ok := typeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("type(%d)", int16(t))
}

// Supported reports whether the type can be marshaled. Binary and unknown tags are not supported.
func (t DataType) Supported() bool {
	_, known := typeNames[t]
	return known && t != TypeBinary
}

// Variable reports whether values of the type are variable-width, i.e. null indicators carry byte lengths.
func (t DataType) Variable() bool {
	return t == TypeChar || t == TypeWChar
}

// Width returns the fixed byte width of a single value, 0 for variable-width and unsupported types.
func (t DataType) Width() int {
	switch t {
	case TypeBit, TypeInt8, TypeUint8:
		return 1
	case TypeInt16, TypeUint16:
		return 2
	case TypeInt32, TypeUint32, TypeFloat32:
		return 4
	case TypeInt64, TypeUint64, TypeFloat64:
		return 8
	case TypeDate:
		return DateSize
	case TypeTimestamp:
		return TimestampSize
	}
	return 0
}

// ParseDataType converts a type name, as used in configs, to the data type tag
func ParseDataType(name string) (DataType, error) {
	for t, n := range typeNames {
		if n == name {
			return t, nil
		}
	}
	return 0, fmt.Errorf("unknown data type %q", name)
}
