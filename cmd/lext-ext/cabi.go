//go:build cabi

package main

// Functions below call the exported entry points the way a C host does, with arguments in C memory.
// They exist for tests only, cgo can't be used in _test.go files. Run with go test -tags cabi.

/*
#include <stdlib.h>
#include "lext.h"
*/
import "C"

import (
	"unsafe"

	"github.com/google/uuid"

	"github.com/umputun/lext/pkg/marshal"
	"github.com/umputun/lext/pkg/wire"
)

// cHeap keeps C allocations made for a call
type cHeap struct {
	ptrs []unsafe.Pointer
}

func (h *cHeap) str(s string) *C.SQLCHAR {
	if s == "" {
		return nil
	}
	p := unsafe.Pointer(C.CString(s))
	h.ptrs = append(h.ptrs, p)
	return (*C.SQLCHAR)(p)
}

func (h *cHeap) bytes(b []byte) C.SQLPOINTER {
	if b == nil {
		return nil
	}
	p := C.CBytes(b)
	h.ptrs = append(h.ptrs, p)
	return C.SQLPOINTER(p)
}

// buffers makes arrays of data and indicator pointers, nil slices become nil pointers
func (h *cHeap) buffers(data [][]byte, ind [][]int32) (*C.SQLPOINTER, **C.SQLINTEGER) {
	var dataArr *C.SQLPOINTER
	if data != nil {
		p := C.calloc(C.size_t(len(data)+1), C.size_t(unsafe.Sizeof(C.SQLPOINTER(nil))))
		h.ptrs = append(h.ptrs, p)
		dataArr = (*C.SQLPOINTER)(p)
		arr := unsafe.Slice(dataArr, len(data))
		for i, d := range data {
			arr[i] = h.bytes(d)
		}
	}
	var indArr **C.SQLINTEGER
	if ind != nil {
		p := C.calloc(C.size_t(len(ind)+1), C.size_t(unsafe.Sizeof((*C.SQLINTEGER)(nil))))
		h.ptrs = append(h.ptrs, p)
		indArr = (**C.SQLINTEGER)(p)
		arr := unsafe.Slice(indArr, len(ind))
		for i, vals := range ind {
			if vals == nil {
				continue
			}
			v := C.calloc(C.size_t(len(vals)+1), C.size_t(unsafe.Sizeof(C.SQLINTEGER(0))))
			h.ptrs = append(h.ptrs, v)
			dst := unsafe.Slice((*C.SQLINTEGER)(v), len(vals))
			for j, x := range vals {
				dst[j] = C.SQLINTEGER(x)
			}
			arr[i] = (*C.SQLINTEGER)(v)
		}
	}
	return dataArr, indArr
}

func (h *cHeap) free() {
	for _, p := range h.ptrs {
		C.free(p)
	}
	h.ptrs = nil
}

func cGUID(id uuid.UUID) C.SQLGUID {
	var g C.SQLGUID
	copy(unsafe.Slice((*byte)(unsafe.Pointer(&g)), unsafe.Sizeof(g)), id[:])
	return g
}

// guidFields returns the fields of SQLGUID holding id
func guidFields(id uuid.UUID) (d1 uint32, d2, d3 uint16, d4 [8]byte) {
	g := cGUID(id)
	for i := range d4 {
		d4[i] = byte(g.Data4[i])
	}
	return uint32(g.Data1), uint16(g.Data2), uint16(g.Data3), d4
}

// guidRoundTrip passes id through SQLGUID and back
func guidRoundTrip(id uuid.UUID) (uuid.UUID, error) {
	return goUUID(cGUID(id))
}

// batchBuffers builds the batch in C memory and reads it back with inputBuffers
func batchBuffers(cols []wire.Column, rows int, data [][]byte, ind [][]int32) ([]marshal.Buffer, error) {
	h := &cHeap{}
	defer h.free()
	dataArr, indArr := h.buffers(data, ind)
	return inputBuffers(cols, rows, dataArr, indArr)
}

func callInit(params, public, private string) wire.Status {
	h := &cHeap{}
	defer h.free()
	return wire.Status(Init(h.str(params), C.SQLULEN(len(params)), nil, 0, h.str(public), C.SQLULEN(len(public)),
		h.str(private), C.SQLULEN(len(private))))
}

func callCleanup() wire.Status {
	return wire.Status(Cleanup())
}

func callInitSession(id uuid.UUID, task, tasks int, script string, columns, params int) wire.Status {
	h := &cHeap{}
	defer h.free()
	in, out := "InputDataSet", "OutputDataSet"
	return wire.Status(InitSession(cGUID(id), C.SQLUSMALLINT(task), C.SQLUSMALLINT(tasks), h.str(script),
		C.SQLULEN(len(script)), C.SQLUSMALLINT(columns), C.SQLUSMALLINT(params), h.str(in), C.SQLSMALLINT(len(in)),
		h.str(out), C.SQLSMALLINT(len(out))))
}

func callInitColumn(id uuid.UUID, task int, col wire.Column) wire.Status {
	h := &cHeap{}
	defer h.free()
	nullable := 0
	if col.Nullable {
		nullable = 1
	}
	return wire.Status(InitColumn(cGUID(id), C.SQLUSMALLINT(task), C.SQLUSMALLINT(col.Index), h.str(col.Name),
		C.SQLSMALLINT(len(col.Name)), C.SQLSMALLINT(col.Type), C.SQLULEN(col.Size), C.SQLSMALLINT(col.Decimals),
		C.SQLSMALLINT(nullable), C.SQLSMALLINT(col.PartitionBy), C.SQLSMALLINT(col.OrderBy)))
}

func callInitParam(id uuid.UUID, task int, p wire.Param, value []byte, ind int64) wire.Status {
	h := &cHeap{}
	defer h.free()
	return wire.Status(InitParam(cGUID(id), C.SQLUSMALLINT(task), C.SQLUSMALLINT(p.Index), h.str(p.Name),
		C.SQLSMALLINT(len(p.Name)), C.SQLSMALLINT(p.Type), C.SQLULEN(p.Size), C.SQLSMALLINT(p.Decimals),
		h.bytes(value), C.SQLINTEGER(ind), C.SQLSMALLINT(p.Direction)))
}

// callExecute runs the batch, returns the number of output columns
func callExecute(id uuid.UUID, task, rows int, data [][]byte, ind [][]int32) (int, wire.Status) {
	h := &cHeap{}
	defer h.free()
	dataArr, indArr := h.buffers(data, ind)
	var out C.SQLUSMALLINT
	st := Execute(cGUID(id), C.SQLUSMALLINT(task), C.SQLULEN(rows), dataArr, indArr, &out)
	return int(out), wire.Status(st)
}

func callGetResultColumn(id uuid.UUID, task, index int) (wire.Column, wire.Status) {
	var typ, decimals, nullable C.SQLSMALLINT
	var size C.SQLULEN
	st := GetResultColumn(cGUID(id), C.SQLUSMALLINT(task), C.SQLUSMALLINT(index), &typ, &size, &decimals, &nullable)
	return wire.Column{Index: index, Type: wire.DataType(typ), Size: int(size), Decimals: int(decimals),
		Nullable: nullable != 0}, wire.Status(st)
}

// resultSet is what GetResults hands out, the memory is owned by the library
type resultSet struct {
	rows int
	data *C.SQLPOINTER
	ind  **C.SQLINTEGER
}

func callGetResults(id uuid.UUID, task int) (resultSet, wire.Status) {
	var rows C.SQLULEN
	var data *C.SQLPOINTER
	var ind **C.SQLINTEGER
	st := GetResults(cGUID(id), C.SQLUSMALLINT(task), &rows, &data, &ind)
	return resultSet{rows: int(rows), data: data, ind: ind}, wire.Status(st)
}

// dataPtr returns the data pointer of the column
func (r resultSet) dataPtr(col int) unsafe.Pointer {
	return unsafe.Pointer(unsafe.Slice(r.data, col+1)[col])
}

// bytes copies n bytes of the column data
func (r resultSet) bytes(col, n int) []byte {
	return cBytes(r.dataPtr(col), n)
}

// indicators copies indicators of the column, nil if the column has none
func (r resultSet) indicators(col int) []int64 {
	p := unsafe.Slice(r.ind, col+1)[col]
	if p == nil {
		return nil
	}
	res := make([]int64, r.rows)
	for i, v := range unsafe.Slice(p, r.rows) {
		res[i] = int64(v)
	}
	return res
}

// callGetOutputParam returns the value pointer and the indicator of the output parameter
func callGetOutputParam(id uuid.UUID, task, index int) (unsafe.Pointer, int64, wire.Status) {
	var value C.SQLPOINTER
	var ind C.SQLINTEGER
	st := GetOutputParam(cGUID(id), C.SQLUSMALLINT(task), C.SQLUSMALLINT(index), &value, &ind)
	return unsafe.Pointer(value), int64(ind), wire.Status(st)
}

func callCleanupSession(id uuid.UUID, task int) wire.Status {
	return wire.Status(CleanupSession(cGUID(id), C.SQLUSMALLINT(task)))
}

func cBytes(p unsafe.Pointer, n int) []byte {
	if p == nil {
		return nil
	}
	return C.GoBytes(p, C.int(n))
}

// allocated reports whether p is C memory currently held for the session
func allocated(id uuid.UUID, p unsafe.Pointer) bool {
	mu.Lock()
	defer mu.Unlock()
	a, ok := results[id]
	if !ok {
		return false
	}
	for _, ptr := range a.ptrs {
		if ptr == p {
			return true
		}
	}
	return false
}

// allocations returns the number of C allocations held for the session
func allocations(id uuid.UUID) int {
	mu.Lock()
	defer mu.Unlock()
	if a, ok := results[id]; ok {
		return len(a.ptrs)
	}
	return 0
}
