package host

import (
	"context"
	"fmt"
	"log"
	"os"
	"sync"
	"time"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/ipc"
	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/umputun/lext/pkg/frame"
	"github.com/umputun/lext/pkg/wire"
)

// ArrowSink writes results as record batches of an Arrow IPC file.
// The schema is taken from the first frame, all later frames must match it.
type ArrowSink struct {
	mu     sync.Mutex
	path   string
	file   *os.File
	wr     *ipc.FileWriter
	schema *arrow.Schema
	mem    memory.Allocator
	rows   int64
}

// NewArrowSink makes the sink, the file is created on the first write
func NewArrowSink(path string) (*ArrowSink, error) {
	if path == "" {
		return nil, fmt.Errorf("empty arrow file path")
	}
	return &ArrowSink{path: path, mem: memory.NewGoAllocator()}, nil
}

// Write appends the frame as a record batch
func (s *ArrowSink) Write(_ context.Context, task int, f *frame.Frame) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	schema, err := arrowSchema(f)
	if err != nil {
		return err
	}
	if s.wr == nil {
		if err = s.open(schema); err != nil {
			return err
		}
	}
	if !s.schema.Equal(schema) {
		return fmt.Errorf("result of task %d has schema %s, expected %s", task, schema, s.schema)
	}

	rec, err := arrowRecord(s.mem, schema, f)
	if err != nil {
		return fmt.Errorf("can't make record of task %d: %w", task, err)
	}
	defer rec.Release()
	if err = s.wr.Write(rec); err != nil {
		return fmt.Errorf("can't write record of task %d: %w", task, err)
	}
	s.rows += rec.NumRows()
	return nil
}

// Close writes the file footer and closes the file
func (s *ArrowSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.wr == nil {
		return nil
	}
	if err := s.wr.Close(); err != nil {
		_ = s.file.Close()
		return fmt.Errorf("can't close arrow writer: %w", err)
	}
	if err := s.file.Close(); err != nil {
		return fmt.Errorf("can't close %s: %w", s.path, err)
	}
	log.Printf("[INFO] arrow file %s written, %d rows", s.path, s.rows)
	s.wr = nil
	return nil
}

func (s *ArrowSink) open(schema *arrow.Schema) error {
	f, err := os.Create(s.path) //nolint:gosec // path set by user
	if err != nil {
		return fmt.Errorf("can't create arrow file: %w", err)
	}
	wr, err := ipc.NewFileWriter(f, ipc.WithSchema(schema), ipc.WithAllocator(s.mem))
	if err != nil {
		_ = f.Close()
		return fmt.Errorf("can't make arrow writer: %w", err)
	}
	s.file, s.wr, s.schema = f, wr, schema
	return nil
}

func arrowType(typ wire.DataType) (arrow.DataType, error) {
	switch typ {
	case wire.TypeBit:
		return arrow.FixedWidthTypes.Boolean, nil
	case wire.TypeInt8:
		return arrow.PrimitiveTypes.Int8, nil
	case wire.TypeUint8:
		return arrow.PrimitiveTypes.Uint8, nil
	case wire.TypeInt16:
		return arrow.PrimitiveTypes.Int16, nil
	case wire.TypeUint16:
		return arrow.PrimitiveTypes.Uint16, nil
	case wire.TypeInt32:
		return arrow.PrimitiveTypes.Int32, nil
	case wire.TypeUint32:
		return arrow.PrimitiveTypes.Uint32, nil
	case wire.TypeInt64:
		return arrow.PrimitiveTypes.Int64, nil
	case wire.TypeUint64:
		return arrow.PrimitiveTypes.Uint64, nil
	case wire.TypeFloat32:
		return arrow.PrimitiveTypes.Float32, nil
	case wire.TypeFloat64:
		return arrow.PrimitiveTypes.Float64, nil
	case wire.TypeChar, wire.TypeWChar:
		return arrow.BinaryTypes.String, nil
	case wire.TypeDate:
		return arrow.FixedWidthTypes.Date32, nil
	case wire.TypeTimestamp:
		return arrow.FixedWidthTypes.Timestamp_us, nil
	}
	return nil, fmt.Errorf("no arrow type for %s", typ)
}

func arrowSchema(f *frame.Frame) (*arrow.Schema, error) {
	fields := make([]arrow.Field, len(f.Columns))
	for i, c := range f.Columns {
		dt, err := arrowType(c.Data.Type())
		if err != nil {
			return nil, fmt.Errorf("column %q: %w", c.Name, err)
		}
		fields[i] = arrow.Field{Name: c.Name, Type: dt, Nullable: c.Nullable}
	}
	return arrow.NewSchema(fields, nil), nil
}

func arrowRecord(mem memory.Allocator, schema *arrow.Schema, f *frame.Frame) (arrow.Record, error) {
	cols := make([]arrow.Array, len(f.Columns))
	defer func() {
		for _, c := range cols {
			if c != nil {
				c.Release()
			}
		}
	}()

	for i, c := range f.Columns {
		b := array.NewBuilder(mem, schema.Field(i).Type)
		for r := 0; r < c.Data.Len(); r++ {
			if err := appendValue(b, frame.Value(c.Data, r)); err != nil {
				b.Release()
				return nil, fmt.Errorf("column %q row %d: %w", c.Name, r, err)
			}
		}
		cols[i] = b.NewArray()
		b.Release()
	}
	return array.NewRecord(schema, cols, int64(f.Rows())), nil
}

// appendValue adds a frame value to the builder, nil is appended as null
func appendValue(b array.Builder, v any) error {
	if v == nil {
		b.AppendNull()
		return nil
	}
	ok := true
	switch bb := b.(type) {
	case *array.BooleanBuilder:
		var x bool
		if x, ok = v.(bool); ok {
			bb.Append(x)
		}
	case *array.Int8Builder:
		var x int64
		if x, ok = v.(int64); ok {
			bb.Append(int8(x)) //nolint:gosec // range checked by marshal
		}
	case *array.Uint8Builder:
		var x int64
		if x, ok = v.(int64); ok {
			bb.Append(uint8(x)) //nolint:gosec
		}
	case *array.Int16Builder:
		var x int64
		if x, ok = v.(int64); ok {
			bb.Append(int16(x)) //nolint:gosec
		}
	case *array.Uint16Builder:
		var x int64
		if x, ok = v.(int64); ok {
			bb.Append(uint16(x)) //nolint:gosec
		}
	case *array.Int32Builder:
		var x int64
		if x, ok = v.(int64); ok {
			bb.Append(int32(x)) //nolint:gosec
		}
	case *array.Uint32Builder:
		var x int64
		if x, ok = v.(int64); ok {
			bb.Append(uint32(x)) //nolint:gosec
		}
	case *array.Int64Builder:
		var x int64
		if x, ok = v.(int64); ok {
			bb.Append(x)
		}
	case *array.Uint64Builder:
		var x uint64
		if x, ok = v.(uint64); ok {
			bb.Append(x)
		}
	case *array.Float32Builder:
		var x float64
		if x, ok = v.(float64); ok {
			bb.Append(float32(x))
		}
	case *array.Float64Builder:
		var x float64
		if x, ok = v.(float64); ok {
			bb.Append(x)
		}
	case *array.StringBuilder:
		var x string
		if x, ok = v.(string); ok {
			bb.Append(x)
		}
	case *array.Date32Builder:
		var x time.Time
		if x, ok = v.(time.Time); ok {
			bb.Append(arrow.Date32FromTime(x))
		}
	case *array.TimestampBuilder:
		var x time.Time
		if x, ok = v.(time.Time); ok {
			bb.Append(arrow.Timestamp(x.UnixMicro()))
		}
	default:
		return fmt.Errorf("unsupported builder %T", b)
	}
	if !ok {
		return fmt.Errorf("unexpected value %v (%T) for %s", v, v, b.Type())
	}
	return nil
}
