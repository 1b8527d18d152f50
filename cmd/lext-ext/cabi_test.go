//go:build cabi

package main

import (
	"encoding/binary"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/umputun/lext/pkg/env"
	"github.com/umputun/lext/pkg/wire"
)

func initExtension(t *testing.T) {
	t.Setenv(env.HomeEnv, t.TempDir())
	t.Setenv(env.TZDirEnv, t.TempDir())
	require.Equal(t, wire.Success, callInit("runtime=starlark", "", ""))
	t.Cleanup(func() { assert.Equal(t, wire.Success, callCleanup()) })
}

func int32Data(vals ...int32) []byte {
	res := make([]byte, 4*len(vals))
	for i, v := range vals {
		binary.LittleEndian.PutUint32(res[i*4:], uint32(v)) //nolint:gosec
	}
	return res
}

func TestGUID(t *testing.T) {
	id := uuid.MustParse("00112233-4455-6677-8899-aabbccddeeff")
	res, err := guidRoundTrip(id)
	require.NoError(t, err)
	assert.Equal(t, id, res)

	d1, d2, d3, d4 := guidFields(id)
	assert.Equal(t, binary.NativeEndian.Uint32(id[0:4]), d1)
	assert.Equal(t, binary.NativeEndian.Uint16(id[4:6]), d2)
	assert.Equal(t, binary.NativeEndian.Uint16(id[6:8]), d3)
	assert.Equal(t, [8]byte{0x88, 0x99, 0xaa, 0xbb, 0xcc, 0xdd, 0xee, 0xff}, d4)
}

func TestInputBuffers(t *testing.T) {
	cols := []wire.Column{
		{Index: 0, Name: "id", Type: wire.TypeInt32, Size: 4},
		{Index: 1, Name: "name", Type: wire.TypeChar, Size: 8, Nullable: true},
	}

	t.Run("indicators widened", func(t *testing.T) {
		bufs, err := batchBuffers(cols, 3, [][]byte{int32Data(1, 2, 3), []byte("abcd")},
			[][]int32{nil, {2, -1, 2}})
		require.NoError(t, err)
		require.Len(t, bufs, 2)
		assert.Equal(t, int32Data(1, 2, 3), bufs[0].Data)
		assert.Nil(t, bufs[0].Ind)
		assert.Equal(t, []byte("abcd"), bufs[1].Data)
		assert.Equal(t, []int64{2, wire.NullData, 2}, bufs[1].Ind)
	})

	t.Run("no indicator array", func(t *testing.T) {
		bufs, err := batchBuffers(cols[:1], 2, [][]byte{int32Data(5, 6)}, nil)
		require.NoError(t, err)
		assert.Equal(t, int32Data(5, 6), bufs[0].Data)
		assert.Nil(t, bufs[0].Ind)
	})

	t.Run("nil data pointer", func(t *testing.T) {
		_, err := batchBuffers(cols, 3, [][]byte{nil, []byte("abcd")}, [][]int32{nil, {2, -1, 2}})
		assert.EqualError(t, err, `column 0 ("id") has no data`)
	})

	t.Run("no data array", func(t *testing.T) {
		_, err := batchBuffers(cols, 3, nil, nil)
		assert.EqualError(t, err, "no data for 2 columns")
	})

	t.Run("no columns", func(t *testing.T) {
		bufs, err := batchBuffers(nil, 0, nil, nil)
		require.NoError(t, err)
		assert.Empty(t, bufs)
	})
}

func TestExportedLifecycle(t *testing.T) {
	initExtension(t)
	id := uuid.New()
	script := "total = len(InputDataSet[\"id\"])\nOutputDataSet = InputDataSet\n"

	require.Equal(t, wire.Success, callInitSession(id, 0, 1, script, 2, 1))
	assert.Equal(t, wire.Error, callInitSession(id, 0, 1, script, 2, 1), "session is live")
	assert.Equal(t, wire.Error, callInitSession(uuid.New(), 0, 1, "", 2, 1), "empty script")

	require.Equal(t, wire.Success, callInitColumn(id, 0, wire.Column{Index: 0, Name: "id", Type: wire.TypeInt32,
		Size: 4, PartitionBy: wire.NotUsed, OrderBy: wire.NotUsed}))
	assert.Equal(t, wire.Error, callInitColumn(id, 0, wire.Column{Index: 1, Name: "blob", Type: wire.TypeBinary,
		Size: 8, PartitionBy: wire.NotUsed, OrderBy: wire.NotUsed}), "binary rejected")
	require.Equal(t, wire.Success, callInitColumn(id, 0, wire.Column{Index: 1, Name: "name", Type: wire.TypeChar,
		Size: 8, Nullable: true, PartitionBy: wire.NotUsed, OrderBy: wire.NotUsed}))
	require.Equal(t, wire.Success, callInitParam(id, 0, wire.Param{Index: 0, Name: "@total", Type: wire.TypeInt64,
		Size: 8, Direction: wire.DirOutput}, nil, wire.NullData))

	n, st := callExecute(id, 0, 3, [][]byte{int32Data(1, 2, 3), []byte("abcd")}, [][]int32{nil, {2, -1, 2}})
	require.Equal(t, wire.Success, st)
	assert.Equal(t, 2, n)

	col, st := callGetResultColumn(id, 0, 1)
	require.Equal(t, wire.Success, st)
	assert.Equal(t, wire.TypeChar, col.Type)
	assert.True(t, col.Nullable)
	_, st = callGetResultColumn(id, 0, 2)
	assert.Equal(t, wire.Error, st)

	// output parameter is fetched before results, its value stays valid after GetResults
	val, ind, st := callGetOutputParam(id, 0, 0)
	require.Equal(t, wire.Success, st)
	assert.Equal(t, int64(8), ind)
	assert.Equal(t, uint64(3), binary.LittleEndian.Uint64(cBytes(val, 8)))

	res, st := callGetResults(id, 0)
	require.Equal(t, wire.Success, st)
	assert.Equal(t, 3, res.rows)
	assert.Equal(t, int32Data(1, 2, 3), res.bytes(0, 12))
	assert.Nil(t, res.indicators(0))
	assert.Equal(t, []byte("abcd"), res.bytes(1, 4))
	assert.Equal(t, []int64{2, wire.NullData, 2}, res.indicators(1))
	assert.True(t, allocated(id, val), "output parameter value kept")
	assert.Equal(t, uint64(3), binary.LittleEndian.Uint64(cBytes(val, 8)))
	held := allocations(id)

	// repeated calls hand out the same memory
	again, st := callGetResults(id, 0)
	require.Equal(t, wire.Success, st)
	assert.True(t, res.data == again.data, "same data array")
	assert.True(t, res.ind == again.ind, "same indicator array")
	assert.Equal(t, res.dataPtr(1), again.dataPtr(1))
	valAgain, _, st := callGetOutputParam(id, 0, 0)
	require.Equal(t, wire.Success, st)
	assert.Equal(t, val, valAgain)
	assert.Equal(t, held, allocations(id))

	// next execution releases memory of the previous one
	n, st = callExecute(id, 0, 1, [][]byte{int32Data(7), []byte("x")}, [][]int32{nil, {1}})
	require.Equal(t, wire.Success, st)
	assert.Equal(t, 2, n)
	assert.False(t, allocated(id, val))
	assert.Equal(t, 0, allocations(id))
	res, st = callGetResults(id, 0)
	require.Equal(t, wire.Success, st)
	assert.Equal(t, 1, res.rows)
	assert.Equal(t, int32Data(7), res.bytes(0, 4))

	require.Equal(t, wire.Success, callCleanupSession(id, 0))
	assert.Equal(t, 0, allocations(id))
	_, st = callGetResults(id, 0)
	assert.Equal(t, wire.Error, st)
	assert.Equal(t, wire.Success, callCleanupSession(uuid.New(), 0), "unknown session")
}

func TestExportedExecuteErrors(t *testing.T) {
	initExtension(t)
	id := uuid.New()
	require.Equal(t, wire.Success, callInitSession(id, 0, 1, "OutputDataSet = InputDataSet", 1, 0))

	_, st := callExecute(id, 0, 1, [][]byte{int32Data(1)}, nil)
	assert.Equal(t, wire.Error, st, "columns not declared")

	require.Equal(t, wire.Success, callInitColumn(id, 0, wire.Column{Index: 0, Name: "id", Type: wire.TypeInt32,
		Size: 4, PartitionBy: wire.NotUsed, OrderBy: wire.NotUsed}))
	_, st = callExecute(id, 0, 2, [][]byte{nil}, nil)
	assert.Equal(t, wire.Error, st, "nil data pointer")
	_, st = callExecute(id, 1, 1, [][]byte{int32Data(1)}, nil)
	assert.Equal(t, wire.Error, st, "task mismatch")

	n, st := callExecute(id, 0, 1, [][]byte{int32Data(1)}, nil)
	require.Equal(t, wire.Success, st)
	assert.Equal(t, 1, n)
	require.Equal(t, wire.Success, callCleanupSession(id, 0))
}
