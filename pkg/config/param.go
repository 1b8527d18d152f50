package config

import (
	"fmt"
	"math"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/umputun/lext/pkg/frame"
	"github.com/umputun/lext/pkg/marshal"
	"github.com/umputun/lext/pkg/wire"
)

var timeLayouts = []string{time.RFC3339Nano, "2006-01-02 15:04:05.999999999", "2006-01-02T15:04:05", "2006-01-02"}

// Wire converts the parameter into its declaration with the given index and the input value
// as one of frame value kinds, nil for null
func (p Param) Wire(index int) (wire.Param, any, error) {
	typ, err := wire.ParseDataType(p.Type)
	if err != nil {
		return wire.Param{}, nil, fmt.Errorf("parameter %q: %w", p.Name, err)
	}

	res := wire.Param{Index: index, Name: p.Name, Type: typ, Size: p.Size}
	switch p.Direction {
	case "", "in":
		res.Direction = wire.DirInput
	case "inout":
		res.Direction = wire.DirInputOutput
	case "out":
		res.Direction = wire.DirOutput
	default:
		return wire.Param{}, nil, fmt.Errorf("parameter %q has unknown direction %q", p.Name, p.Direction)
	}
	if err = res.Validate(index + 1); err != nil {
		return wire.Param{}, nil, err
	}

	val, err := paramValue(typ, p.Value)
	if err != nil {
		return wire.Param{}, nil, fmt.Errorf("parameter %q: %w", p.Name, err)
	}
	if _, err = frame.FromValues(typ, []any{val}); err != nil {
		return wire.Param{}, nil, fmt.Errorf("parameter %q: %w", p.Name, err)
	}
	if i, ok := val.(int64); ok && !marshal.Fits(typ, i) {
		return wire.Param{}, nil, fmt.Errorf("parameter %q: value %d out of range of %s", p.Name, i, typ)
	}

	switch {
	case !typ.Variable():
		res.Size = typ.Width()
	case val != nil && len(val.(string)) > res.Size:
		res.Size = len(val.(string))
	}
	return res, val, nil
}

// paramValue converts a decoded yaml or toml value to the kind the data type is stored with
func paramValue(typ wire.DataType, v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	switch typ {
	case wire.TypeChar, wire.TypeWChar:
		if s, ok := v.(string); ok {
			return s, nil
		}
	case wire.TypeBit:
		if b, ok := v.(bool); ok {
			return b, nil
		}
	case wire.TypeFloat32, wire.TypeFloat64:
		switch x := v.(type) {
		case float64:
			return x, nil
		case int:
			return float64(x), nil
		case int64:
			return float64(x), nil
		}
	case wire.TypeDate, wire.TypeTimestamp:
		return timeValue(v)
	case wire.TypeUint64:
		if i, ok := intValue(v); ok && i >= 0 {
			return uint64(i), nil
		}
		if u, ok := v.(uint64); ok {
			return u, nil
		}
	default:
		if i, ok := intValue(v); ok {
			return i, nil
		}
	}
	return nil, fmt.Errorf("value %v (%T) is not a %s", v, v, typ)
}

func intValue(v any) (int64, bool) {
	switch x := v.(type) {
	case int:
		return int64(x), true
	case int64:
		return x, true
	case uint64:
		if x <= math.MaxInt64 {
			return int64(x), true
		}
	case float64:
		if x == math.Trunc(x) && math.Abs(x) < 1<<53 {
			return int64(x), true
		}
	}
	return 0, false
}

func timeValue(v any) (any, error) {
	switch x := v.(type) {
	case time.Time:
		return x.UTC(), nil
	case toml.LocalDate:
		return x.AsTime(time.UTC), nil
	case toml.LocalDateTime:
		return x.AsTime(time.UTC), nil
	case string:
		for _, layout := range timeLayouts {
			if t, err := time.Parse(layout, x); err == nil {
				return t.UTC(), nil
			}
		}
		return nil, fmt.Errorf("can't parse time %q", x)
	}
	return nil, fmt.Errorf("value %v (%T) is not a time", v, v)
}
