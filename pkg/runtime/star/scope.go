package star

import (
	"fmt"
	"io"
	"log"

	"go.starlark.net/starlark"

	"github.com/umputun/lext/pkg/frame"
	"github.com/umputun/lext/pkg/wire"
)

// scope keeps globals of a single session. Bound frames and params are predeclared for the script,
// globals of the last run are used to harvest output.
type scope struct {
	rt          *Runtime
	session     string
	out         io.Writer
	predeclared starlark.StringDict
	globals     starlark.StringDict
	hints       map[string]wire.Column // bound input columns by name, used to type output columns
}

// Bind converts the frame to a dict of lists and predeclares it under the name
func (s *scope) Bind(name string, f *frame.Frame) error {
	d, err := toDict(f)
	if err != nil {
		return fmt.Errorf("can't bind %s: %w", name, err)
	}
	s.predeclared[name] = d
	for _, c := range f.Columns {
		s.hints[c.Name] = c.Column
	}
	return nil
}

// BindParam predeclares a parameter value
func (s *scope) BindParam(name string, val any) error {
	v, err := toValue(val)
	if err != nil {
		return fmt.Errorf("can't bind parameter %s: %w", name, err)
	}
	s.predeclared[name] = v
	return nil
}

// Exec runs the script with bound values predeclared
func (s *scope) Exec(script string) error {
	s.rt.mu.Lock()
	defer s.rt.mu.Unlock()

	s.globals = nil
	thread := s.rt.thread(s.session, s.out)
	globals, err := starlark.ExecFileOptions(fileOptions, thread, s.session+".star", script, s.predeclared)
	if err != nil {
		return execError(s.session, err)
	}
	s.globals = globals
	log.Printf("[DEBUG] script of %s done in %d steps, %d globals", s.session, thread.ExecutionSteps(), len(globals))
	return nil
}

// Harvest converts the dict set by the script under the name into a frame
func (s *scope) Harvest(name string) (*frame.Frame, error) {
	v, ok := s.lookup(name)
	if !ok {
		return nil, fmt.Errorf("output %s is not set by the script", name)
	}
	f, err := fromDict(v, s.hints)
	if err != nil {
		return nil, fmt.Errorf("can't harvest %s: %w", name, err)
	}
	return f, nil
}

// Param returns the value of parameter global, nil if not set
func (s *scope) Param(name string) (any, error) {
	v, ok := s.lookup(name)
	if !ok {
		return nil, nil
	}
	res, err := fromValue(v)
	if err != nil {
		return nil, fmt.Errorf("parameter %s: %w", name, err)
	}
	return res, nil
}

// Close drops all bound values
func (s *scope) Close() error {
	s.predeclared, s.globals, s.hints = nil, nil, nil
	return nil
}

func (s *scope) lookup(name string) (starlark.Value, bool) {
	if v, ok := s.globals[name]; ok {
		return v, true
	}
	v, ok := s.predeclared[name]
	return v, ok
}
