package host

import (
	"fmt"

	"github.com/cespare/xxhash/v2"

	"github.com/umputun/lext/pkg/frame"
)

// Partition splits rows of the frame between tasks. With the partition column set rows with equal values
// go to the same task, chosen by the hash of the value. Without it rows are dealt round-robin.
func Partition(f *frame.Frame, tasks int, by string) ([]*frame.Frame, error) {
	if tasks <= 0 {
		return nil, fmt.Errorf("invalid number of tasks %d", tasks)
	}

	idx := make([][]int, tasks)
	rows := f.Rows()
	if by == "" {
		for i := 0; i < rows; i++ {
			idx[i%tasks] = append(idx[i%tasks], i)
		}
	} else {
		col, ok := f.Column(by)
		if !ok {
			return nil, fmt.Errorf("partition column %q not found", by)
		}
		for i := 0; i < rows; i++ {
			task := int(xxhash.Sum64String(partitionKey(col.Data, i)) % uint64(tasks)) //nolint:gosec // tasks is positive
			idx[task] = append(idx[task], i)
		}
	}

	res := make([]*frame.Frame, tasks)
	for t := range res {
		part, err := take(f, idx[t])
		if err != nil {
			return nil, fmt.Errorf("can't make partition %d: %w", t, err)
		}
		res[t] = part
	}
	return res, nil
}

// partitionKey is the value of the row as text, nulls make their own partition
func partitionKey(v frame.Vector, i int) string {
	val := frame.Value(v, i)
	if val == nil {
		return "\x00null"
	}
	return fmt.Sprint(val)
}

// take makes a frame with the listed rows of f
func take(f *frame.Frame, rows []int) (*frame.Frame, error) {
	res := &frame.Frame{Columns: make([]frame.Column, len(f.Columns))}
	for i, c := range f.Columns {
		vals := make([]any, len(rows))
		for j, r := range rows {
			vals[j] = frame.Value(c.Data, r)
		}
		vec, err := frame.FromValues(c.Data.Type(), vals)
		if err != nil {
			return nil, err
		}
		res.Columns[i] = frame.Column{Column: c.Column, Data: vec}
	}
	return res, nil
}

// batches returns [from, to) ranges of at most size rows, a single empty range for no rows
func batches(rows, size int) [][2]int {
	if rows == 0 || size <= 0 {
		return [][2]int{{0, rows}}
	}
	res := make([][2]int, 0, (rows+size-1)/size)
	for from := 0; from < rows; from += size {
		res = append(res, [2]int{from, min(from+size, rows)})
	}
	return res
}
