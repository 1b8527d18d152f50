package host

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/go-pkgz/syncs"
	"github.com/google/uuid"

	"github.com/umputun/lext/pkg/config"
	"github.com/umputun/lext/pkg/frame"
	"github.com/umputun/lext/pkg/marshal"
	"github.com/umputun/lext/pkg/session"
	"github.com/umputun/lext/pkg/wire"
)

//go:generate moq -out mocks/extension.go -pkg mocks -skip-ensure -fmt goimports . Extension

// Extension is the protocol the runner drives, implemented by extension.Extension
type Extension interface {
	InitSession(cfg session.Config) error
	InitColumn(id uuid.UUID, taskID int, col wire.Column) error
	InitParam(id uuid.UUID, taskID int, p wire.Param, value []byte, ind int64) error
	Execute(id uuid.UUID, taskID, rows int, bufs []marshal.Buffer) (int, error)
	ResultColumn(id uuid.UUID, taskID, index int) (wire.Column, error)
	Results(id uuid.UUID, taskID int) (int, []marshal.Buffer, error)
	OutputParam(id uuid.UUID, taskID, index int) (wire.Param, marshal.Buffer, error)
	CleanupSession(id uuid.UUID, taskID int) error
}

// Runner runs the job's script over partitions of the input, one session per task.
// Tasks run in parallel with limited concurrency.
type Runner struct {
	Ext  Extension
	Job  *config.Job
	Sink Sink
}

// TaskResult holds the information about a processed task
type TaskResult struct {
	Task     int
	Session  uuid.UUID
	RowsIn   int
	RowsOut  int
	Batches  int
	Params   map[string]any // output parameter values by name
	Duration time.Duration
}

// Result holds the information about all processed tasks
type Result struct {
	Tasks   []TaskResult
	RowsIn  int
	RowsOut int
}

// Run partitions the input and processes every partition in its own session.
// All tasks are run even if some of them fail, the returned error has all failures.
func (r *Runner) Run(ctx context.Context, in *frame.Frame) (Result, error) {
	parts, err := Partition(in, r.Job.Tasks, r.Job.PartitionBy)
	if err != nil {
		return Result{}, err
	}
	params, err := r.params()
	if err != nil {
		return Result{}, err
	}

	concurrency := r.Job.Runtime.Concurrency
	if concurrency <= 0 {
		concurrency = len(parts)
	}

	res := Result{Tasks: make([]TaskResult, len(parts))}
	var lock sync.Mutex
	wg := syncs.NewErrSizedGroup(concurrency, syncs.Context(ctx), syncs.Preemptive)
	for i, part := range parts {
		wg.Go(func() error {
			tr, e := r.runTask(ctx, i, part, params)
			lock.Lock()
			res.Tasks[i] = tr
			res.RowsIn += tr.RowsIn
			res.RowsOut += tr.RowsOut
			lock.Unlock()
			if e != nil {
				return fmt.Errorf("task %d failed: %w", i, e)
			}
			return nil
		})
	}
	err = wg.Wait()
	return res, err
}

// param is a declared parameter with its encoded input value
type param struct {
	wire.Param
	value []byte
	ind   int64
}

func (r *Runner) params() ([]param, error) {
	res := make([]param, len(r.Job.Params))
	for i, p := range r.Job.Params {
		wp, val, err := p.Wire(i)
		if err != nil {
			return nil, err
		}
		vec, err := frame.FromValues(wp.Type, []any{val})
		if err != nil {
			return nil, fmt.Errorf("parameter %q: %w", wp.Name, err)
		}
		buf, err := marshal.Encode(vec)
		if err != nil {
			return nil, fmt.Errorf("can't encode parameter %q: %w", wp.Name, err)
		}
		res[i] = param{Param: wp, value: buf.Data, ind: int64(len(buf.Data))}
		if val == nil {
			res[i].ind = wire.NullData
		}
	}
	return res, nil
}

// runTask makes a session for the partition, declares columns and parameters, executes the script
// for every batch and passes results to the sink. The session is cleaned up in any case.
func (r *Runner) runTask(ctx context.Context, task int, part *frame.Frame, params []param) (res TaskResult, err error) {
	st := time.Now()
	id := uuid.New()
	res = TaskResult{Task: task, Session: id, Params: map[string]any{}}
	log.Printf("[DEBUG] task %d, session %s, %d rows", task, id, part.Rows())

	cfg := session.Config{ID: id, TaskID: task, NumTasks: r.Job.Tasks, Script: r.Job.Script,
		ColumnCount: len(part.Columns), ParamCount: len(params), InputName: r.Job.Input, OutputName: r.Job.Output}
	if err = r.Ext.InitSession(cfg); err != nil {
		return res, fmt.Errorf("can't init session: %w", err)
	}
	defer func() {
		if e := r.Ext.CleanupSession(id, task); e != nil {
			log.Printf("[WARN] can't cleanup session %s: %v", id, e)
		}
		res.Duration = time.Since(st).Truncate(time.Millisecond)
	}()

	for _, c := range part.Columns {
		if err = r.Ext.InitColumn(id, task, c.Column); err != nil {
			return res, fmt.Errorf("can't init column %q: %w", c.Name, err)
		}
	}
	for _, p := range params {
		if err = r.Ext.InitParam(id, task, p.Param, p.value, p.ind); err != nil {
			return res, fmt.Errorf("can't init parameter %q: %w", p.Name, err)
		}
	}

	for _, b := range batches(part.Rows(), r.Job.Source.Batch) {
		if err = ctx.Err(); err != nil {
			return res, err
		}
		out, e := r.execute(id, task, part, b[0], b[1])
		if e != nil {
			return res, e
		}
		if err = r.Sink.Write(ctx, task, out); err != nil {
			return res, fmt.Errorf("can't write results: %w", err)
		}
		res.RowsIn += b[1] - b[0]
		res.RowsOut += out.Rows()
		res.Batches++
	}

	for _, p := range params {
		if !p.Direction.Output() {
			continue
		}
		wp, buf, e := r.Ext.OutputParam(id, task, p.Index)
		if e != nil {
			return res, fmt.Errorf("can't get output parameter %q: %w", p.Name, e)
		}
		vec, e := marshal.Decode(wp.Column(), 1, buf)
		if e != nil {
			return res, fmt.Errorf("can't decode output parameter %q: %w", p.Name, e)
		}
		res.Params[wp.Name] = frame.Value(vec, 0)
	}

	log.Printf("[INFO] task %d completed, %d batches, %d rows in, %d rows out", task, res.Batches, res.RowsIn, res.RowsOut)
	return res, nil
}

// execute sends rows [from, to) of the partition and reads back the result frame
func (r *Runner) execute(id uuid.UUID, task int, part *frame.Frame, from, to int) (*frame.Frame, error) {
	bufs := make([]marshal.Buffer, len(part.Columns))
	for i, c := range part.Columns {
		buf, err := marshal.Encode(frame.Slice(c.Data, from, to))
		if err != nil {
			return nil, fmt.Errorf("can't encode column %q: %w", c.Name, err)
		}
		bufs[i] = buf
	}

	ncols, err := r.Ext.Execute(id, task, to-from, bufs)
	if err != nil {
		return nil, fmt.Errorf("can't execute rows %d-%d: %w", from, to, err)
	}

	cols := make([]wire.Column, ncols)
	for i := range cols {
		if cols[i], err = r.Ext.ResultColumn(id, task, i); err != nil {
			return nil, fmt.Errorf("can't get result column %d: %w", i, err)
		}
	}
	rows, results, err := r.Ext.Results(id, task)
	if err != nil {
		return nil, fmt.Errorf("can't get results: %w", err)
	}
	out, err := marshal.DecodeFrame(cols, rows, results)
	if err != nil {
		return nil, fmt.Errorf("can't decode results: %w", err)
	}
	return out, nil
}
