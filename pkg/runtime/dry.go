package runtime

import (
	"fmt"
	"io"
	"log"

	"github.com/go-pkgz/stringutils"

	"github.com/umputun/lext/pkg/frame"
)

// Dry is a runtime for dry run, it doesn't evaluate scripts, just prints them and echoes the input as output.
// Useful for debugging the host side and marshaling.
type Dry struct{}

// NewDry makes a dry runtime
func NewDry() *Dry { return &Dry{} }

// Name returns runtime name
func (d *Dry) Name() string { return "dry" }

// NewScope makes a scope printing scripts to out
func (d *Dry) NewScope(session string, out io.Writer) (Scope, error) {
	if out == nil {
		out = io.Discard
	}
	return &dryScope{session: session, out: out, params: map[string]any{}}, nil
}

// Close doesn't do anything
func (d *Dry) Close() error { return nil }

type dryScope struct {
	session string
	out     io.Writer
	input   *frame.Frame
	params  map[string]any
}

// Bind keeps the frame to return it from Harvest
func (s *dryScope) Bind(name string, f *frame.Frame) error {
	log.Printf("[DEBUG] dry bind %s, %d columns, %d rows", name, len(f.Columns), f.Rows())
	s.input = f
	return nil
}

// BindParam keeps the value to return it from Param
func (s *dryScope) BindParam(name string, val any) error {
	s.params[name] = val
	return nil
}

// Exec shows the script, doesn't execute it
func (s *dryScope) Exec(script string) error {
	log.Printf("[DEBUG] dry exec for %s: %s", s.session, stringutils.Truncate(script, 64))
	_, err := fmt.Fprintf(s.out, "dry run, script of %d bytes skipped\n", len(script))
	return err
}

// Harvest returns the bound input
func (s *dryScope) Harvest(name string) (*frame.Frame, error) {
	if s.input == nil {
		return nil, fmt.Errorf("nothing bound, can't harvest %s", name)
	}
	return s.input, nil
}

// Param returns the bound parameter value, nil if not bound
func (s *dryScope) Param(name string) (any, error) {
	return s.params[name], nil
}

// Close drops bound data
func (s *dryScope) Close() error {
	s.input, s.params = nil, nil
	return nil
}
