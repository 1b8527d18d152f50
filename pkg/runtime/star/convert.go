package star

import (
	"errors"
	"fmt"
	"time"

	startime "go.starlark.net/lib/time"
	"go.starlark.net/starlark"

	"github.com/umputun/lext/pkg/frame"
	"github.com/umputun/lext/pkg/marshal"
	"github.com/umputun/lext/pkg/wire"
)

func toDict(f *frame.Frame) (*starlark.Dict, error) {
	res := starlark.NewDict(len(f.Columns))
	for _, c := range f.Columns {
		vals := make([]starlark.Value, c.Data.Len())
		for i := range vals {
			v, err := toValue(frame.Value(c.Data, i))
			if err != nil {
				return nil, fmt.Errorf("column %q row %d: %w", c.Name, i, err)
			}
			vals[i] = v
		}
		if err := res.SetKey(starlark.String(c.Name), starlark.NewList(vals)); err != nil {
			return nil, err
		}
	}
	return res, nil
}

func toValue(val any) (starlark.Value, error) {
	switch v := val.(type) {
	case nil:
		return starlark.None, nil
	case int64:
		return starlark.MakeInt64(v), nil
	case uint64:
		return starlark.MakeUint64(v), nil
	case float64:
		return starlark.Float(v), nil
	case bool:
		return starlark.Bool(v), nil
	case string:
		return starlark.String(v), nil
	case time.Time:
		return startime.Time(v), nil
	}
	return nil, fmt.Errorf("unsupported value %v of type %T", val, val)
}

func fromValue(v starlark.Value) (any, error) {
	switch vv := v.(type) {
	case starlark.NoneType:
		return nil, nil
	case starlark.Bool:
		return bool(vv), nil
	case starlark.Int:
		if i, ok := vv.Int64(); ok {
			return i, nil
		}
		if u, ok := vv.Uint64(); ok {
			return u, nil
		}
		return nil, fmt.Errorf("integer %s out of range", vv.String())
	case starlark.Float:
		return float64(vv), nil
	case starlark.String:
		return string(vv), nil
	case startime.Time:
		return time.Time(vv), nil
	}
	return nil, fmt.Errorf("unsupported value of type %s", v.Type())
}

// fromDict makes a frame from a mapping of column name to list or tuple of values.
// Columns keep the type of the bound input column with the same name if values fit it.
func fromDict(v starlark.Value, hints map[string]wire.Column) (*frame.Frame, error) {
	mapping, ok := v.(starlark.IterableMapping)
	if !ok {
		return nil, fmt.Errorf("expected dict of columns, got %s", v.Type())
	}

	res := &frame.Frame{}
	for _, item := range mapping.Items() {
		name, ok := starlark.AsString(item[0])
		if !ok {
			return nil, fmt.Errorf("column name %s is not a string", item[0].String())
		}
		seq, ok := item[1].(starlark.Indexable)
		if !ok {
			return nil, fmt.Errorf("column %q is %s, expected list", name, item[1].Type())
		}
		vals := make([]any, seq.Len())
		for i := range vals {
			val, err := fromValue(seq.Index(i))
			if err != nil {
				return nil, fmt.Errorf("column %q row %d: %w", name, i, err)
			}
			vals[i] = val
		}

		hint, hasHint := hints[name]
		typ, err := inferType(vals, hint.Type)
		if err != nil {
			return nil, fmt.Errorf("column %q: %w", name, err)
		}
		vec, err := frame.FromValues(typ, vals)
		if err != nil {
			return nil, fmt.Errorf("column %q: %w", name, err)
		}

		col := wire.Column{Name: name, Type: typ, Nullable: true, PartitionBy: wire.NotUsed, OrderBy: wire.NotUsed}
		if hasHint && hint.Type == typ {
			col = hint
		}
		res.Columns = append(res.Columns, frame.Column{Column: col, Data: vec})
	}
	if err := res.Validate(); err != nil {
		return nil, err
	}
	return res, nil
}

// inferType picks the data type of output values, hint is the type of input column with the same name
func inferType(vals []any, hint wire.DataType) (wire.DataType, error) {
	var hasBool, hasInt, hasUint, hasFloat, hasString, hasTime, negative bool
	for _, v := range vals {
		switch vv := v.(type) {
		case bool:
			hasBool = true
		case int64:
			hasInt = true
			negative = negative || vv < 0
		case uint64:
			hasUint = true
		case float64:
			hasFloat = true
		case string:
			hasString = true
		case time.Time:
			hasTime = true
		}
	}

	groups := 0
	for _, g := range []bool{hasBool, hasInt || hasUint || hasFloat, hasString, hasTime} {
		if g {
			groups++
		}
	}

	switch {
	case groups > 1:
		return 0, errors.New("mixed value types")
	case groups == 0: // all nulls
		if hint.Supported() {
			return hint, nil
		}
		return wire.TypeChar, nil
	case hasBool:
		return wire.TypeBit, nil
	case hasString:
		if hint == wire.TypeWChar {
			return wire.TypeWChar, nil
		}
		return wire.TypeChar, nil
	case hasTime:
		if hint == wire.TypeDate {
			return wire.TypeDate, nil
		}
		return wire.TypeTimestamp, nil
	case hasFloat, hasUint && negative:
		if hint == wire.TypeFloat32 {
			return wire.TypeFloat32, nil
		}
		return wire.TypeFloat64, nil
	case hasUint:
		return wire.TypeUint64, nil
	}

	// integers only
	switch hint {
	case wire.TypeFloat32, wire.TypeFloat64:
		return hint, nil
	case wire.TypeUint64:
		if !negative {
			return hint, nil
		}
	case wire.TypeInt8, wire.TypeUint8, wire.TypeInt16, wire.TypeUint16, wire.TypeInt32, wire.TypeUint32:
		if intsFit(hint, vals) {
			return hint, nil
		}
	}
	return wire.TypeInt64, nil
}

func intsFit(typ wire.DataType, vals []any) bool {
	for _, v := range vals {
		if i, ok := v.(int64); ok && !marshal.Fits(typ, i) {
			return false
		}
	}
	return true
}
