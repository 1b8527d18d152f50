package wire

import (
	"fmt"
	"strings"
)

// Direction of a parameter, values follow ODBC SQL_PARAM_* codes
type Direction int16

// parameter directions
const (
	DirInput       Direction = 1
	DirInputOutput Direction = 2
	DirOutput      Direction = 4
)

// Output reports whether the parameter value is returned to the host after execution
func (d Direction) Output() bool { return d == DirInputOutput || d == DirOutput }

// Param describes a script parameter declared by the host
type Param struct {
	Index     int
	Name      string // as declared by the host, may start with @
	Type      DataType
	Size      int
	Decimals  int
	Direction Direction
}

// Global returns the name the parameter is visible under to scripts, without the leading @
func (p Param) Global() string {
	return strings.TrimPrefix(p.Name, "@")
}

// Column returns the column descriptor used to marshal the parameter value as a single row
func (p Param) Column() Column {
	return Column{Index: p.Index, Name: p.Global(), Type: p.Type, Size: p.Size, Decimals: p.Decimals,
		Nullable: true, PartitionBy: NotUsed, OrderBy: NotUsed}
}

// Validate checks the parameter against the declared number of parameters
func (p Param) Validate(params int) error {
	if p.Index < 0 || p.Index >= params {
		return fmt.Errorf("parameter index %d out of range, %d parameters declared", p.Index, params)
	}
	if p.Global() == "" {
		return fmt.Errorf("parameter %d has no name", p.Index)
	}
	if !p.Type.Supported() {
		return fmt.Errorf("parameter %q has unsupported data type %s", p.Name, p.Type)
	}
	switch p.Direction {
	case DirInput, DirInputOutput, DirOutput:
	default:
		return fmt.Errorf("parameter %q has invalid direction %d", p.Name, p.Direction)
	}
	return nil
}
