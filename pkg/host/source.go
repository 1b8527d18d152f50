// Package host drives the extension the way a database engine does: it reads rows of a job's source query,
// partitions them between tasks, runs one session per task with batches of rows and writes results to a sink.
package host

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"math"
	"strings"
	"time"

	"github.com/umputun/lext/pkg/config"
	"github.com/umputun/lext/pkg/dsn"
	"github.com/umputun/lext/pkg/frame"
	"github.com/umputun/lext/pkg/wire"
)

// ReadSource runs the source query of the job and reads all rows into a frame.
// The partition column is marked with partition-by ordinal 0.
func ReadSource(ctx context.Context, job *config.Job) (*frame.Frame, error) {
	db, _, err := dsn.Open(job.Source.DSN)
	if err != nil {
		return nil, fmt.Errorf("can't open source: %w", err)
	}
	defer db.Close() //nolint

	rows, err := db.QueryContext(ctx, job.Source.Query)
	if err != nil {
		return nil, fmt.Errorf("can't query source: %w", err)
	}
	defer rows.Close() //nolint

	res, err := readRows(rows, job)
	if err != nil {
		return nil, err
	}
	log.Printf("[INFO] source read, %d rows of %d columns", res.Rows(), len(res.Columns))
	return res, nil
}

func readRows(rows *sql.Rows, job *config.Job) (*frame.Frame, error) {
	types, err := rows.ColumnTypes()
	if err != nil {
		return nil, fmt.Errorf("can't get source columns: %w", err)
	}

	vals := make([][]any, len(types))
	for rows.Next() {
		row := make([]any, len(types))
		ptrs := make([]any, len(types))
		for i := range row {
			ptrs[i] = &row[i]
		}
		if err = rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("can't scan source row: %w", err)
		}
		for i, v := range row {
			vals[i] = append(vals[i], normalize(v))
		}
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("can't read source rows: %w", err)
	}

	res := &frame.Frame{Columns: make([]frame.Column, len(types))}
	for i, ct := range types {
		col := wire.Column{Index: i, Name: ct.Name(), PartitionBy: wire.NotUsed, OrderBy: wire.NotUsed}
		if job.PartitionBy != "" && strings.EqualFold(ct.Name(), job.PartitionBy) {
			col.PartitionBy = 0
		}
		typ, ok := job.ColumnType(ct.Name())
		if ok && typ.Variable() {
			vals[i] = stringify(vals[i])
		}
		if !ok {
			if typ, err = detectType(vals[i], ct.DatabaseTypeName()); err != nil {
				return nil, fmt.Errorf("source column %q: %w", ct.Name(), err)
			}
		}
		col.Type = typ

		vec, err := frame.FromValues(typ, vals[i])
		if err != nil {
			return nil, fmt.Errorf("source column %q: %w", ct.Name(), err)
		}
		nullable, ok := ct.Nullable()
		col.Nullable = !ok || nullable || vec.Nulls() > 0
		col.Size = columnSize(typ, vals[i])
		res.Columns[i] = frame.Column{Column: col, Data: vec}
	}
	if err = res.Validate(); err != nil {
		return nil, fmt.Errorf("invalid source: %w", err)
	}
	return res, nil
}

// normalize converts a scanned driver value to one of the frame value kinds
func normalize(v any) any {
	switch x := v.(type) {
	case nil, int64, uint64, float64, bool, string, time.Time:
		return x
	case int:
		return int64(x)
	case int8:
		return int64(x)
	case int16:
		return int64(x)
	case int32:
		return int64(x)
	case uint8:
		return int64(x)
	case uint16:
		return int64(x)
	case uint32:
		return int64(x)
	case uint:
		return uint64(x)
	case float32:
		return float64(x)
	case []byte:
		return string(x)
	}
	return fmt.Sprint(v)
}

// detectType picks the data type for values of a column. Integers mixed with floats are floats,
// integers are int64 unless some of them only fit uint64. Columns with nulls only are char.
func detectType(vals []any, dbType string) (wire.DataType, error) {
	var ints, uints, floats, bools, strs, times int
	for _, v := range vals {
		switch x := v.(type) {
		case int64:
			ints++
		case uint64:
			if x > math.MaxInt64 {
				uints++
				continue
			}
			ints++
		case float64:
			floats++
		case bool:
			bools++
		case string:
			strs++
		case time.Time:
			times++
		}
	}

	kinds := 0
	for _, n := range []int{ints + uints + floats, bools, strs, times} {
		if n > 0 {
			kinds++
		}
	}
	switch {
	case kinds > 1:
		return 0, errors.New("mixed value types")
	case floats > 0:
		return wire.TypeFloat64, nil
	case uints > 0:
		return wire.TypeUint64, nil
	case ints > 0:
		return wire.TypeInt64, nil
	case bools > 0:
		return wire.TypeBit, nil
	case times > 0 && strings.EqualFold(dbType, "DATE"):
		return wire.TypeDate, nil
	case times > 0:
		return wire.TypeTimestamp, nil
	}
	return wire.TypeChar, nil
}

// stringify formats non-null values as strings
func stringify(vals []any) []any {
	res := make([]any, len(vals))
	for i, v := range vals {
		switch x := v.(type) {
		case nil, string:
			res[i] = x
		case time.Time:
			res[i] = x.Format(time.RFC3339Nano)
		default:
			res[i] = fmt.Sprint(x)
		}
	}
	return res
}

func columnSize(typ wire.DataType, vals []any) int {
	if !typ.Variable() {
		return typ.Width()
	}
	res := 1
	for _, v := range vals {
		if s, ok := v.(string); ok && len(s) > res {
			res = len(s)
		}
	}
	return res
}
