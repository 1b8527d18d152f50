// Command lext-ext is the language extension library, build it with
// go build -buildmode=c-shared -o liblext.so ./cmd/lext-ext
// Every exported function runs through extension.Guard, errors and panics become SQL_ERROR
// and are reported to the extension log only.
package main

/*
#include <stdlib.h>
#include "lext.h"
*/
import "C"

import (
	"fmt"
	"log"
	"sync"
	"unsafe"

	"github.com/google/uuid"

	"github.com/umputun/lext/pkg/env"
	"github.com/umputun/lext/pkg/extension"
	"github.com/umputun/lext/pkg/logging"
	"github.com/umputun/lext/pkg/marshal"
	"github.com/umputun/lext/pkg/session"
	"github.com/umputun/lext/pkg/wire"
)

var (
	ext = extension.New(env.NewProcess(), nil)

	mu      sync.Mutex
	results = map[uuid.UUID]*allocs{} // C memory handed out per session, freed on next Execute or cleanup
)

func init() {
	logging.Setup(false) // silent until Init gets debug=true
}

func main() {}

//export GetInterfaceVersion
func GetInterfaceVersion() C.SQLUSMALLINT {
	return C.SQLUSMALLINT(wire.InterfaceVersion)
}

//export Init
func Init(params *C.SQLCHAR, paramsLen C.SQLULEN, extPath *C.SQLCHAR, extPathLen C.SQLULEN,
	publicLib *C.SQLCHAR, publicLibLen C.SQLULEN, privateLib *C.SQLCHAR, privateLibLen C.SQLULEN) C.SQLRETURN {
	return status(extension.Guard("Init", func() error {
		log.Printf("[DEBUG] init extension at %s", goString(extPath, int(extPathLen)))
		return ext.Init(goString(params, int(paramsLen)), goString(publicLib, int(publicLibLen)),
			goString(privateLib, int(privateLibLen)))
	}))
}

//export InitSession
func InitSession(sessionID C.SQLGUID, taskID, numTasks C.SQLUSMALLINT, script *C.SQLCHAR, scriptLen C.SQLULEN,
	columns, params C.SQLUSMALLINT, inputName *C.SQLCHAR, inputNameLen C.SQLSMALLINT,
	outputName *C.SQLCHAR, outputNameLen C.SQLSMALLINT) C.SQLRETURN {
	return status(extension.Guard("InitSession", func() error {
		id, err := goUUID(sessionID)
		if err != nil {
			return err
		}
		return ext.InitSession(session.Config{
			ID:          id,
			TaskID:      int(taskID),
			NumTasks:    int(numTasks),
			Script:      goString(script, int(scriptLen)),
			ColumnCount: int(columns),
			ParamCount:  int(params),
			InputName:   goString(inputName, int(inputNameLen)),
			OutputName:  goString(outputName, int(outputNameLen)),
		})
	}))
}

//export InitColumn
func InitColumn(sessionID C.SQLGUID, taskID, index C.SQLUSMALLINT, name *C.SQLCHAR, nameLen C.SQLSMALLINT,
	dataType C.SQLSMALLINT, size C.SQLULEN, decimals, nullable, partitionBy, orderBy C.SQLSMALLINT) C.SQLRETURN {
	return status(extension.Guard("InitColumn", func() error {
		id, err := goUUID(sessionID)
		if err != nil {
			return err
		}
		return ext.InitColumn(id, int(taskID), wire.Column{
			Index:       int(index),
			Name:        goString(name, int(nameLen)),
			Type:        wire.DataType(dataType),
			Size:        int(size),
			Decimals:    int(decimals),
			Nullable:    nullable != 0,
			PartitionBy: int(partitionBy),
			OrderBy:     int(orderBy),
		})
	}))
}

//export InitParam
func InitParam(sessionID C.SQLGUID, taskID, index C.SQLUSMALLINT, name *C.SQLCHAR, nameLen C.SQLSMALLINT,
	dataType C.SQLSMALLINT, size C.SQLULEN, decimals C.SQLSMALLINT, value C.SQLPOINTER, ind C.SQLINTEGER,
	direction C.SQLSMALLINT) C.SQLRETURN {
	return status(extension.Guard("InitParam", func() error {
		id, err := goUUID(sessionID)
		if err != nil {
			return err
		}
		p := wire.Param{Index: int(index), Name: goString(name, int(nameLen)), Type: wire.DataType(dataType),
			Size: int(size), Decimals: int(decimals), Direction: wire.Direction(direction)}
		var data []byte
		if value != nil && int64(ind) != wire.NullData {
			data = C.GoBytes(unsafe.Pointer(value), C.int(valueLength(p, int64(ind))))
		}
		return ext.InitParam(id, int(taskID), p, data, int64(ind))
	}))
}

//export Execute
func Execute(sessionID C.SQLGUID, taskID C.SQLUSMALLINT, rows C.SQLULEN, data *C.SQLPOINTER,
	ind **C.SQLINTEGER, outColumns *C.SQLUSMALLINT) C.SQLRETURN {
	return status(extension.Guard("Execute", func() error {
		id, err := goUUID(sessionID)
		if err != nil {
			return err
		}
		freeResults(id)
		cols, err := ext.Schema(id, int(taskID))
		if err != nil {
			return err
		}
		bufs, err := inputBuffers(cols, int(rows), data, ind)
		if err != nil {
			return err
		}
		n, err := ext.Execute(id, int(taskID), int(rows), bufs)
		if err != nil {
			return err
		}
		if outColumns != nil {
			*outColumns = C.SQLUSMALLINT(n)
		}
		return nil
	}))
}

//export GetResultColumn
func GetResultColumn(sessionID C.SQLGUID, taskID, index C.SQLUSMALLINT, dataType *C.SQLSMALLINT,
	size *C.SQLULEN, decimals, nullable *C.SQLSMALLINT) C.SQLRETURN {
	return status(extension.Guard("GetResultColumn", func() error {
		id, err := goUUID(sessionID)
		if err != nil {
			return err
		}
		col, err := ext.ResultColumn(id, int(taskID), int(index))
		if err != nil {
			return err
		}
		if dataType == nil || size == nil || decimals == nil || nullable == nil {
			return fmt.Errorf("nil output argument")
		}
		*dataType = C.SQLSMALLINT(col.Type)
		*size = C.SQLULEN(col.Size)
		*decimals = C.SQLSMALLINT(col.Decimals)
		*nullable = 0
		if col.Nullable {
			*nullable = 1
		}
		return nil
	}))
}

//export GetResults
func GetResults(sessionID C.SQLGUID, taskID C.SQLUSMALLINT, rows *C.SQLULEN, data **C.SQLPOINTER,
	ind ***C.SQLINTEGER) C.SQLRETURN {
	return status(extension.Guard("GetResults", func() error {
		id, err := goUUID(sessionID)
		if err != nil {
			return err
		}
		n, bufs, err := ext.Results(id, int(taskID))
		if err != nil {
			return err
		}
		if rows == nil || data == nil || ind == nil {
			return fmt.Errorf("nil output argument")
		}
		mu.Lock()
		defer mu.Unlock()
		a := sessionAllocs(id)
		if a.data == nil {
			a.rows = C.SQLULEN(n)
			a.data, a.ind = a.resultArrays(bufs)
		}
		*rows, *data, *ind = a.rows, a.data, a.ind
		return nil
	}))
}

//export GetOutputParam
func GetOutputParam(sessionID C.SQLGUID, taskID, index C.SQLUSMALLINT, value *C.SQLPOINTER,
	ind *C.SQLINTEGER) C.SQLRETURN {
	return status(extension.Guard("GetOutputParam", func() error {
		id, err := goUUID(sessionID)
		if err != nil {
			return err
		}
		p, buf, err := ext.OutputParam(id, int(taskID), int(index))
		if err != nil {
			return err
		}
		if value == nil || ind == nil {
			return fmt.Errorf("nil output argument")
		}
		*ind = C.SQLINTEGER(paramIndicator(p, buf))
		*value = nil
		if *ind == C.SQLINTEGER(wire.NullData) {
			return nil
		}
		mu.Lock()
		defer mu.Unlock()
		a := sessionAllocs(id)
		ptr, ok := a.params[int(index)]
		if !ok {
			ptr = a.bytes(buf.Data)
			a.params[int(index)] = ptr
		}
		*value = C.SQLPOINTER(ptr)
		return nil
	}))
}

//export CleanupSession
func CleanupSession(sessionID C.SQLGUID, taskID C.SQLUSMALLINT) C.SQLRETURN {
	return status(extension.Guard("CleanupSession", func() error {
		id, err := goUUID(sessionID)
		if err != nil {
			return err
		}
		freeResults(id)
		return ext.CleanupSession(id, int(taskID))
	}))
}

//export Cleanup
func Cleanup() C.SQLRETURN {
	return status(extension.Guard("Cleanup", func() error {
		mu.Lock()
		for id, a := range results {
			a.free()
			delete(results, id)
		}
		mu.Unlock()
		return ext.Cleanup()
	}))
}

func status(s wire.Status) C.SQLRETURN { return C.SQLRETURN(s) }

func goString(p *C.SQLCHAR, n int) string {
	if p == nil || n <= 0 {
		return ""
	}
	return C.GoStringN((*C.char)(unsafe.Pointer(p)), C.int(n))
}

func goUUID(id C.SQLGUID) (uuid.UUID, error) {
	res, err := uuid.FromBytes(C.GoBytes(unsafe.Pointer(&id), C.int(unsafe.Sizeof(id))))
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid session id: %w", err)
	}
	return res, nil
}

// inputBuffers copies column buffers of the batch, sizes of data buffers come from declared types and indicators
func inputBuffers(cols []wire.Column, rows int, data *C.SQLPOINTER, ind **C.SQLINTEGER) ([]marshal.Buffer, error) {
	if len(cols) == 0 {
		return []marshal.Buffer{}, nil
	}
	if data == nil {
		return nil, fmt.Errorf("no data for %d columns", len(cols))
	}
	dataPtrs := unsafe.Slice(data, len(cols))
	var indPtrs []*C.SQLINTEGER
	if ind != nil {
		indPtrs = unsafe.Slice(ind, len(cols))
	}

	res := make([]marshal.Buffer, len(cols))
	for i, col := range cols {
		if indPtrs != nil && indPtrs[i] != nil && rows > 0 {
			raw := unsafe.Slice(indPtrs[i], rows)
			res[i].Ind = make([]int64, rows)
			for r, v := range raw {
				res[i].Ind[r] = int64(v)
			}
		}
		size := dataLength(col, rows, res[i].Ind)
		if size > 0 {
			if dataPtrs[i] == nil {
				return nil, fmt.Errorf("column %d (%q) has no data", i, col.Name)
			}
			res[i].Data = C.GoBytes(unsafe.Pointer(dataPtrs[i]), C.int(size))
		}
	}
	return res, nil
}

func freeResults(id uuid.UUID) {
	mu.Lock()
	defer mu.Unlock()
	if a, ok := results[id]; ok {
		a.free()
		delete(results, id)
	}
}

// sessionAllocs returns allocations of the session, mu has to be held
func sessionAllocs(id uuid.UUID) *allocs {
	a, ok := results[id]
	if !ok {
		a = &allocs{params: map[int]unsafe.Pointer{}}
		results[id] = a
	}
	return a
}

// allocs keeps C memory handed out to the host for one execution. Result arrays and output parameter
// values are made once and returned again on repeated calls.
type allocs struct {
	ptrs   []unsafe.Pointer
	rows   C.SQLULEN
	data   *C.SQLPOINTER
	ind    **C.SQLINTEGER
	params map[int]unsafe.Pointer
}

func (a *allocs) alloc(n int) unsafe.Pointer {
	if n <= 0 {
		n = 1
	}
	p := C.calloc(1, C.size_t(n))
	a.ptrs = append(a.ptrs, p)
	return p
}

func (a *allocs) bytes(b []byte) unsafe.Pointer {
	p := a.alloc(len(b))
	copy(unsafe.Slice((*byte)(p), len(b)), b)
	return p
}

func (a *allocs) indicators(ind []int64) *C.SQLINTEGER {
	p := (*C.SQLINTEGER)(a.alloc(len(ind) * int(unsafe.Sizeof(C.SQLINTEGER(0)))))
	dst := unsafe.Slice(p, len(ind))
	for i, v := range ind {
		dst[i] = C.SQLINTEGER(v)
	}
	return p
}

// resultArrays copies result buffers into C memory and makes arrays of data and indicator pointers
func (a *allocs) resultArrays(bufs []marshal.Buffer) (*C.SQLPOINTER, **C.SQLINTEGER) {
	dataPtrs := (*C.SQLPOINTER)(a.alloc(len(bufs) * int(unsafe.Sizeof(C.SQLPOINTER(nil)))))
	indPtrs := (**C.SQLINTEGER)(a.alloc(len(bufs) * int(unsafe.Sizeof((*C.SQLINTEGER)(nil)))))
	dataSlice := unsafe.Slice(dataPtrs, len(bufs))
	indSlice := unsafe.Slice(indPtrs, len(bufs))
	for i, b := range bufs {
		dataSlice[i] = C.SQLPOINTER(a.bytes(b.Data))
		indSlice[i] = nil
		if b.Ind != nil {
			indSlice[i] = a.indicators(b.Ind)
		}
	}
	return dataPtrs, indPtrs
}

func (a *allocs) free() {
	for _, p := range a.ptrs {
		C.free(p)
	}
	a.ptrs, a.data, a.ind, a.rows = nil, nil, nil, 0
	a.params = map[int]unsafe.Pointer{}
}
