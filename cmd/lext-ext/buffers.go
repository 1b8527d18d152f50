package main

import (
	"github.com/umputun/lext/pkg/marshal"
	"github.com/umputun/lext/pkg/wire"
)

// dataLength returns number of bytes in the data buffer of a column for the rows. Fixed-width columns
// take rows*width, char and wchar columns take the sum of byte lengths from indicators.
func dataLength(col wire.Column, rows int, ind []int64) int {
	if !col.Type.Variable() {
		return rows * col.Type.Width()
	}
	res := 0
	for _, v := range ind {
		if v > 0 {
			res += int(v)
		}
	}
	return res
}

// valueLength returns number of bytes of a parameter value with the indicator
func valueLength(p wire.Param, ind int64) int {
	if p.Type.Variable() {
		if ind < 0 {
			return 0
		}
		return int(ind)
	}
	return p.Type.Width()
}

// paramIndicator returns the indicator reported for an output parameter value
func paramIndicator(p wire.Param, buf marshal.Buffer) int64 {
	if len(buf.Ind) > 0 {
		return buf.Ind[0]
	}
	return int64(p.Type.Width())
}
