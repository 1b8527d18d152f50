// Package star implements the script runtime on top of starlark-go.
// Input frames are bound as dicts of column name to list of values, None marks nulls.
// The script leaves its result in a dict of the same shape under the output name.
package star

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/go-pkgz/fileutils"
	starjson "go.starlark.net/lib/json"
	starmath "go.starlark.net/lib/math"
	startime "go.starlark.net/lib/time"
	"go.starlark.net/starlark"
	"go.starlark.net/syntax"

	"github.com/umputun/lext/pkg/runtime"
	"github.com/umputun/lext/pkg/wire"
)

// Name of the runtime in the registry
const Name = "starlark"

var fileOptions = &syntax.FileOptions{
	Set:             true,
	While:           true,
	TopLevelControl: true,
	GlobalReassign:  true,
	Recursion:       true,
}

func init() {
	runtime.Register(Name, func(opts runtime.Options) (runtime.Runtime, error) { return New(opts) })
}

// Runtime evaluates starlark scripts. Scripts of all scopes run one at a time.
type Runtime struct {
	mu       sync.Mutex
	libs     []string
	maxSteps uint64
	modules  starlark.StringDict
	cache    map[string]*loadEntry // loaded library modules by path, nil entry while loading
}

type loadEntry struct {
	globals starlark.StringDict
}

// New makes a starlark runtime
func New(opts runtime.Options) (*Runtime, error) {
	for _, dir := range opts.Libraries {
		if !fileutils.IsDir(dir) {
			return nil, fmt.Errorf("library path %s is not a directory", dir)
		}
	}
	res := &Runtime{
		libs:     opts.Libraries,
		maxSteps: opts.MaxSteps,
		modules: starlark.StringDict{
			"time": startime.Module,
			"math": starmath.Module,
			"json": starjson.Module,
		},
		cache: map[string]*loadEntry{},
	}
	log.Printf("[DEBUG] starlark runtime, libraries %v, max steps %d", opts.Libraries, opts.MaxSteps)
	return res, nil
}

// Name returns runtime name
func (r *Runtime) Name() string { return Name }

// NewScope makes an empty scope for the session, script output from print goes to out
func (r *Runtime) NewScope(session string, out io.Writer) (runtime.Scope, error) {
	if out == nil {
		out = io.Discard
	}
	predeclared := make(starlark.StringDict, len(r.modules))
	for k, v := range r.modules {
		predeclared[k] = v
	}
	return &scope{rt: r, session: session, out: out, predeclared: predeclared, hints: map[string]wire.Column{}}, nil
}

// Close drops loaded library modules
func (r *Runtime) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cache = map[string]*loadEntry{}
	return nil
}

func (r *Runtime) thread(name string, out io.Writer) *starlark.Thread {
	thread := &starlark.Thread{
		Name:  name,
		Load:  r.load,
		Print: func(_ *starlark.Thread, msg string) { fmt.Fprintln(out, msg) }, //nolint
	}
	if r.maxSteps > 0 {
		thread.SetMaxExecutionSteps(r.maxSteps)
	}
	return thread
}

// load resolves a module from library paths, called by the thread with r.mu locked
func (r *Runtime) load(thread *starlark.Thread, module string) (starlark.StringDict, error) {
	path, err := r.resolve(module)
	if err != nil {
		return nil, err
	}
	if e, ok := r.cache[path]; ok {
		if e == nil {
			return nil, fmt.Errorf("cycle in load graph at %s", module)
		}
		return e.globals, nil
	}

	src, err := os.ReadFile(path) //nolint gosec
	if err != nil {
		return nil, fmt.Errorf("can't read module %s: %w", module, err)
	}
	r.cache[path] = nil
	child := &starlark.Thread{Name: "load " + module, Load: thread.Load, Print: thread.Print}
	if r.maxSteps > 0 {
		child.SetMaxExecutionSteps(r.maxSteps)
	}
	globals, err := starlark.ExecFileOptions(fileOptions, child, path, src, r.modules)
	if err != nil {
		delete(r.cache, path)
		return nil, fmt.Errorf("can't load module %s: %w", module, err)
	}
	globals.Freeze()
	r.cache[path] = &loadEntry{globals: globals}
	log.Printf("[DEBUG] loaded module %s from %s", module, path)
	return globals, nil
}

// resolve finds the module in library paths, private paths go first. Module names can't leave the library dir.
func (r *Runtime) resolve(module string) (string, error) {
	if module == "" || strings.Contains(module, "..") {
		return "", fmt.Errorf("invalid module name %q", module)
	}
	rel := filepath.Clean(strings.TrimLeft(module, "/"))
	for _, dir := range r.libs {
		path := filepath.Join(dir, rel)
		if fileutils.IsFile(path) {
			return path, nil
		}
	}
	return "", fmt.Errorf("module %s not found in %v", module, r.libs)
}

func execError(session string, err error) error {
	var evalErr *starlark.EvalError
	if errors.As(err, &evalErr) {
		log.Printf("[WARN] script of %s failed: %s", session, evalErr.Backtrace())
	}
	return fmt.Errorf("script failed: %w", err)
}
