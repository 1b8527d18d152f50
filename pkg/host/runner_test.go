package host

import (
	"context"
	"sort"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/umputun/lext/pkg/config"
	envmocks "github.com/umputun/lext/pkg/env/mocks"
	"github.com/umputun/lext/pkg/extension"
	"github.com/umputun/lext/pkg/frame"
	"github.com/umputun/lext/pkg/host/mocks"
	"github.com/umputun/lext/pkg/wire"
)

// testEnv makes an environment provider with the runtime home and variables kept in vals
func testEnv(home string, vals map[string]string) *envmocks.ProviderMock {
	return &envmocks.ProviderMock{
		GetFunc: func(key string) (string, bool) {
			v, ok := vals[key]
			return v, ok
		},
		SetFunc: func(key, value string) error {
			vals[key] = value
			return nil
		},
		RuntimeHomeFunc: func() (string, error) { return home, nil },
	}
}

func newExtension(t *testing.T, params string) *extension.Extension {
	ext := extension.New(testEnv(t.TempDir(), map[string]string{"TZDIR": t.TempDir()}), nil)
	require.NoError(t, ext.Init(params, "", ""))
	t.Cleanup(func() { assert.NoError(t, ext.Cleanup()) })
	return ext
}

// memSink keeps written frames by task
type memSink struct {
	mu     sync.Mutex
	frames map[int][]*frame.Frame
	closed bool
}

func (s *memSink) Write(_ context.Context, task int, f *frame.Frame) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.frames == nil {
		s.frames = map[int][]*frame.Frame{}
	}
	s.frames[task] = append(s.frames[task], f)
	return nil
}

func (s *memSink) Close() error {
	s.closed = true
	return nil
}

// spyExt makes a mock passing every call to ext
func spyExt(ext Extension) *mocks.ExtensionMock {
	return &mocks.ExtensionMock{
		InitSessionFunc:    ext.InitSession,
		InitColumnFunc:     ext.InitColumn,
		InitParamFunc:      ext.InitParam,
		ExecuteFunc:        ext.Execute,
		ResultColumnFunc:   ext.ResultColumn,
		ResultsFunc:        ext.Results,
		OutputParamFunc:    ext.OutputParam,
		CleanupSessionFunc: ext.CleanupSession,
	}
}

// inputFrame makes id and v columns with n rows, v is id*10
func inputFrame(t *testing.T, n int) *frame.Frame {
	ids, vs := make([]any, n), make([]any, n)
	for i := range n {
		ids[i], vs[i] = int64(i+1), int64((i+1)*10)
	}
	idVec, err := frame.FromValues(wire.TypeInt64, ids)
	require.NoError(t, err)
	vVec, err := frame.FromValues(wire.TypeInt64, vs)
	require.NoError(t, err)
	return &frame.Frame{Columns: []frame.Column{
		{Column: wire.Column{Index: 0, Name: "id", Type: wire.TypeInt64, Size: 8, PartitionBy: wire.NotUsed, OrderBy: wire.NotUsed}, Data: idVec},
		{Column: wire.Column{Index: 1, Name: "v", Type: wire.TypeInt64, Size: 8, PartitionBy: wire.NotUsed, OrderBy: wire.NotUsed}, Data: vVec},
	}}
}

func testJob(script string, tasks, batch int) *config.Job {
	return &config.Job{Script: script, Input: config.DefaultInput, Output: config.DefaultOutput, Tasks: tasks,
		Source: config.Source{Batch: batch}, Sink: config.Sink{Kind: config.SinkLog},
		Params: []config.Param{
			{Name: "@factor", Type: "int64", Value: 3},
			{Name: "@count", Type: "int64", Direction: "out"},
		}}
}

func TestRunner_Run(t *testing.T) {
	script := `
count = len(InputDataSet["id"])
OutputDataSet = {"id": InputDataSet["id"], "v3": [x * factor for x in InputDataSet["v"]]}
`
	sink := &memSink{}
	r := Runner{Ext: newExtension(t, ""), Job: testJob(script, 2, 2), Sink: sink}
	res, err := r.Run(context.Background(), inputFrame(t, 5))
	require.NoError(t, err)

	assert.Equal(t, 5, res.RowsIn)
	assert.Equal(t, 5, res.RowsOut)
	require.Len(t, res.Tasks, 2)
	assert.Equal(t, 3, res.Tasks[0].RowsIn)
	assert.Equal(t, 2, res.Tasks[0].Batches)
	assert.Equal(t, int64(1), res.Tasks[0].Params["@count"], "count of the last batch")
	assert.Equal(t, 2, res.Tasks[1].RowsIn)
	assert.Equal(t, 1, res.Tasks[1].Batches)
	assert.Equal(t, int64(2), res.Tasks[1].Params["@count"])
	assert.NotEqual(t, res.Tasks[0].Session, res.Tasks[1].Session)

	require.Len(t, sink.frames[0], 2)
	require.Len(t, sink.frames[1], 1)
	var got []int64
	for _, frames := range sink.frames {
		for _, f := range frames {
			require.Len(t, f.Columns, 2)
			assert.Equal(t, "v3", f.Columns[1].Name)
			for r := 0; r < f.Rows(); r++ {
				id := frame.Value(f.Columns[0].Data, r).(int64)
				assert.Equal(t, id*30, frame.Value(f.Columns[1].Data, r))
				got = append(got, id)
			}
		}
	}
	sort.Slice(got, func(i, j int) bool { return got[i] < got[j] })
	assert.Equal(t, []int64{1, 2, 3, 4, 5}, got)
}

func TestRunner_RunPartitioned(t *testing.T) {
	in := inputFrame(t, 6)
	keys, err := frame.FromValues(wire.TypeChar, []any{"x", "y", "x", "y", "x", "z"})
	require.NoError(t, err)
	in.Columns = append(in.Columns, frame.Column{Column: wire.Column{Index: 2, Name: "key", Type: wire.TypeChar, Size: 1,
		PartitionBy: 0, OrderBy: wire.NotUsed}, Data: keys})

	job := testJob("OutputDataSet = InputDataSet", 3, 100)
	job.PartitionBy = "key"
	job.Runtime.Concurrency = 1
	sink := &memSink{}
	r := Runner{Ext: newExtension(t, ""), Job: job, Sink: sink}
	res, err := r.Run(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, 6, res.RowsOut)

	seen := map[string]int{}
	for task, frames := range sink.frames {
		for _, f := range frames {
			col, ok := f.Column("key")
			require.True(t, ok)
			for r := 0; r < f.Rows(); r++ {
				key := frame.Value(col.Data, r).(string)
				if prev, ok := seen[key]; ok {
					assert.Equal(t, prev, task, "key %s processed by two tasks", key)
				}
				seen[key] = task
			}
		}
	}
	assert.Len(t, seen, 3)
}

func TestRunner_RunFailure(t *testing.T) {
	ext := spyExt(newExtension(t, ""))
	sink := &memSink{}
	r := Runner{Ext: ext, Job: testJob(`fail("boom")`, 3, 10), Sink: sink}
	res, err := r.Run(context.Background(), inputFrame(t, 6))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
	assert.Contains(t, err.Error(), "failed")
	require.Len(t, ext.CleanupSessionCalls(), 3, "every session cleaned up")
	tasks := map[int]bool{}
	for _, c := range ext.CleanupSessionCalls() {
		tasks[c.TaskID] = true
	}
	assert.Len(t, tasks, 3)
	assert.Len(t, ext.InitSessionCalls(), 3)
	assert.Equal(t, 0, res.RowsOut)
	assert.Empty(t, sink.frames)
}

func TestRunner_RunDry(t *testing.T) {
	job := testJob("not a script at all", 2, 10)
	job.Params = nil
	sink := &memSink{}
	r := Runner{Ext: newExtension(t, "runtime=dry"), Job: job, Sink: sink}
	res, err := r.Run(context.Background(), inputFrame(t, 4))
	require.NoError(t, err)
	assert.Equal(t, 4, res.RowsIn)
	assert.Equal(t, 4, res.RowsOut)
	assert.Equal(t, []int64{1, 3}, ids(t, sink.frames[0][0]))
}

func TestRunner_BadParams(t *testing.T) {
	job := testJob("OutputDataSet = InputDataSet", 1, 10)
	job.Params = []config.Param{{Name: "@x", Type: "int8", Value: 1000}}
	r := Runner{Ext: newExtension(t, ""), Job: job, Sink: &memSink{}}
	_, err := r.Run(context.Background(), inputFrame(t, 1))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "out of range")
}
