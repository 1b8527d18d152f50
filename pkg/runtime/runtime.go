// Package runtime defines the capability interface of an embedded script runtime and keeps the registry
// of runtime factories. A process can hold one open runtime at a time, Open enforces it.
package runtime

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/umputun/lext/pkg/frame"
)

// Runtime is an embedded script runtime.
// Implemented by star.Runtime, Dry and runtimes loaded from go plugins.
type Runtime interface {
	Name() string
	NewScope(session string, out io.Writer) (Scope, error)
	Close() error
}

// Scope is an isolated set of globals of a single session. Values passed to BindParam and returned
// by Param are nil, int64, uint64, float64, bool, string or time.Time.
type Scope interface {
	Bind(name string, f *frame.Frame) error
	BindParam(name string, val any) error
	Exec(script string) error
	Harvest(name string) (*frame.Frame, error)
	Param(name string) (any, error)
	Close() error
}

// Options are passed to a runtime factory
type Options struct {
	Home      string   // runtime home
	Libraries []string // library search paths, private first
	MaxSteps  uint64   // execution steps limit, 0 for unlimited
	Plugin    string   // path to go plugin, used by plugin runtime only
}

// Factory makes a runtime
type Factory func(opts Options) (Runtime, error)

// ErrAlreadyInitialized returned by Open if a runtime is open already
var ErrAlreadyInitialized = errors.New("runtime already initialized")

// ErrNotFound returned by Open for unknown runtime name
var ErrNotFound = errors.New("runtime not registered")

var (
	mu       sync.RWMutex
	registry = map[string]Factory{}
	active   atomic.Bool
)

func init() {
	Register("dry", func(Options) (Runtime, error) { return NewDry(), nil })
	Register("plugin", LoadPlugin)
}

// Register adds a runtime factory under the name, replacing the previous one
func Register(name string, f Factory) {
	mu.Lock()
	defer mu.Unlock()
	registry[name] = f
}

// Names returns sorted names of registered runtimes
func Names() []string {
	mu.RLock()
	defer mu.RUnlock()
	res := make([]string, 0, len(registry))
	for name := range registry {
		res = append(res, name)
	}
	sort.Strings(res)
	return res
}

// Open makes the runtime registered under the name. Only one runtime can be open in the process,
// the next Open succeeds after the returned runtime is closed.
func Open(name string, opts Options) (Runtime, error) {
	mu.RLock()
	factory, ok := registry[name]
	mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q, known %v", ErrNotFound, name, Names())
	}

	if !active.CompareAndSwap(false, true) {
		return nil, ErrAlreadyInitialized
	}
	rt, err := factory(opts)
	if err != nil {
		active.Store(false)
		return nil, fmt.Errorf("can't make %s runtime: %w", name, err)
	}
	return &guarded{Runtime: rt}, nil
}

// guarded releases the process-wide guard on close
type guarded struct {
	Runtime
	once sync.Once
}

func (g *guarded) Close() (err error) {
	g.once.Do(func() {
		err = g.Runtime.Close()
		active.Store(false)
	})
	return err
}
