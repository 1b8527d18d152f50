// Package extension implements the language extension protocol: process-wide Init and Cleanup,
// session initialization with column and parameter declarations, Execute and result retrieval.
// Exported C entry points call Extension methods through Guard.
package extension

import (
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"

	"github.com/umputun/lext/pkg/env"
	"github.com/umputun/lext/pkg/frame"
	"github.com/umputun/lext/pkg/logging"
	"github.com/umputun/lext/pkg/marshal"
	"github.com/umputun/lext/pkg/runtime"
	"github.com/umputun/lext/pkg/session"
	"github.com/umputun/lext/pkg/wire"
)

// ErrNotInitialized returned by session operations before Init and after Cleanup
var ErrNotInitialized = errors.New("extension is not initialized")

// Extension drives sessions through the protocol. Script evaluation and results are serialized by mu,
// session bookkeeping is done by session.Manager.
type Extension struct {
	mu       sync.Mutex
	provider env.Provider
	out      logging.Writer
	rt       runtime.Runtime
	sessions *session.Manager
	states   map[uuid.UUID]*state
}

// state keeps runtime resources of a session between calls
type state struct {
	scope   runtime.Scope
	columns []wire.Column    // result columns of the last execution
	results []marshal.Buffer // result buffers of the last execution
	rows    int
	params  map[int]marshal.Buffer // output parameter values of the last execution
}

// New makes an extension. Script output goes to out, environment is resolved with provider.
func New(provider env.Provider, out logging.Writer) *Extension {
	if out == nil {
		out = logging.NewWriter(nil, false, true, nil)
	}
	return &Extension{provider: provider, out: out, sessions: session.NewManager(), states: map[uuid.UUID]*state{}}
}

// Init resolves the environment and opens the runtime. Public and private library paths
// are lists separated by os.PathListSeparator.
func (e *Extension) Init(params, public, private string) error {
	p, err := ParseParams(params)
	if err != nil {
		return err
	}
	if p.Debug {
		logging.Setup(true)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.rt != nil {
		return fmt.Errorf("can't init: %w", runtime.ErrAlreadyInitialized)
	}

	paths, err := env.CheckAndSet(e.provider, public, private)
	if err != nil {
		return fmt.Errorf("can't set environment: %w", err)
	}
	rt, err := runtime.Open(p.Runtime, runtime.Options{
		Home: paths.Home, Libraries: paths.Libraries, MaxSteps: p.MaxSteps, Plugin: p.Plugin})
	if err != nil {
		return fmt.Errorf("can't open runtime: %w", err)
	}
	e.rt = rt
	log.Printf("[INFO] extension initialized with %s runtime, home %s", rt.Name(), paths.Home)
	return nil
}

// InitSession creates a session
func (e *Extension) InitSession(cfg session.Config) error {
	if !e.initialized() {
		return ErrNotInitialized
	}
	return e.sessions.Init(cfg)
}

// InitColumn declares an input column of the session
func (e *Extension) InitColumn(id uuid.UUID, taskID int, col wire.Column) error {
	return e.sessions.DeclareColumn(id, taskID, col)
}

// Schema returns input columns of the session, undeclared columns are zero values
func (e *Extension) Schema(id uuid.UUID, taskID int) ([]wire.Column, error) {
	s, err := e.sessions.Get(id, taskID)
	if err != nil {
		return nil, err
	}
	return s.Columns, nil
}

// InitParam declares a parameter of the session. The value is a single row buffer of the parameter type,
// ind is its null indicator or byte length.
func (e *Extension) InitParam(id uuid.UUID, taskID int, p wire.Param, value []byte, ind int64) error {
	var val any
	if ind != wire.NullData {
		vec, err := marshal.Decode(p.Column(), 1, marshal.Buffer{Data: value, Ind: []int64{ind}})
		if err != nil {
			return fmt.Errorf("can't decode value of parameter %q: %w", p.Name, err)
		}
		val = frame.Value(vec, 0)
	}
	return e.sessions.DeclareParam(id, taskID, p, val)
}

// Execute decodes the batch, binds it under the input name, runs the script and encodes the table the script
// left under the output name. Returns number of output columns. Results of the previous execution are dropped.
func (e *Extension) Execute(id uuid.UUID, taskID, rows int, bufs []marshal.Buffer) (int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.rt == nil {
		return 0, ErrNotInitialized
	}

	s, err := e.sessions.Ready(id, taskID)
	if err != nil {
		return 0, err
	}
	st, err := e.state(id)
	if err != nil {
		return 0, err
	}
	st.columns, st.results, st.rows, st.params = nil, nil, 0, nil

	in, err := marshal.DecodeFrame(s.Columns, rows, bufs)
	if err != nil {
		return 0, fmt.Errorf("can't decode input of %s: %w", id, err)
	}
	if err = st.scope.Bind(s.InputName, in); err != nil {
		return 0, err
	}
	for _, p := range s.Params {
		if !p.Declared {
			continue
		}
		if err = st.scope.BindParam(p.Global(), p.Value); err != nil {
			return 0, err
		}
	}

	if err = st.scope.Exec(s.Script); err != nil {
		return 0, fmt.Errorf("execution of %s failed: %w", id, err)
	}

	out, err := st.scope.Harvest(s.OutputName)
	if err != nil {
		return 0, err
	}
	cols, results, err := marshal.EncodeFrame(out)
	if err != nil {
		return 0, fmt.Errorf("can't encode output of %s: %w", id, err)
	}
	params, err := e.outputParams(s, st.scope)
	if err != nil {
		return 0, err
	}

	st.columns, st.results, st.rows, st.params = cols, results, out.Rows(), params
	e.sessions.Executed(id)
	log.Printf("[DEBUG] session %s executed, %d rows in, %d columns and %d rows out", id, rows, len(cols), st.rows)
	return len(cols), nil
}

// ResultColumn returns the descriptor of output column of the last execution
func (e *Extension) ResultColumn(id uuid.UUID, taskID, index int) (wire.Column, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	st, err := e.executed(id, taskID)
	if err != nil {
		return wire.Column{}, err
	}
	if index < 0 || index >= len(st.columns) {
		return wire.Column{}, fmt.Errorf("result column %d out of range, %d columns", index, len(st.columns))
	}
	return st.columns[index], nil
}

// Results returns number of rows and column buffers of the last execution
func (e *Extension) Results(id uuid.UUID, taskID int) (int, []marshal.Buffer, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	st, err := e.executed(id, taskID)
	if err != nil {
		return 0, nil, err
	}
	return st.rows, st.results, nil
}

// OutputParam returns the single row buffer with value of output parameter after the last execution
func (e *Extension) OutputParam(id uuid.UUID, taskID, index int) (wire.Param, marshal.Buffer, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	st, err := e.executed(id, taskID)
	if err != nil {
		return wire.Param{}, marshal.Buffer{}, err
	}
	buf, ok := st.params[index]
	if !ok {
		return wire.Param{}, marshal.Buffer{}, fmt.Errorf("parameter %d is not an output parameter of %s", index, id)
	}
	s, err := e.sessions.Get(id, taskID)
	if err != nil {
		return wire.Param{}, marshal.Buffer{}, err
	}
	return s.Params[index].Param, buf, nil
}

// CleanupSession drops the session and its resources. Unknown sessions are not an error.
func (e *Extension) CleanupSession(id uuid.UUID, taskID int) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	removed, err := e.sessions.Remove(id, taskID)
	if err != nil {
		return err
	}
	if !removed {
		log.Printf("[DEBUG] cleanup of unknown session %s ignored", id)
	}
	return e.dropState(id)
}

// Cleanup drops all sessions and closes the runtime. Init can be called again after Cleanup.
func (e *Extension) Cleanup() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	errs := new(multierror.Error)
	ids := e.sessions.Clear()
	for id := range e.states {
		if err := e.dropState(id); err != nil {
			errs = multierror.Append(errs, err)
		}
	}
	if e.rt != nil {
		if err := e.rt.Close(); err != nil {
			errs = multierror.Append(errs, fmt.Errorf("can't close runtime: %w", err))
		}
		e.rt = nil
	}
	log.Printf("[INFO] extension cleaned up, %d sessions dropped", len(ids))
	return errs.ErrorOrNil()
}

func (e *Extension) initialized() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.rt != nil
}

// state returns the state of the session, makes a new scope on first use. Called with mu locked.
func (e *Extension) state(id uuid.UUID) (*state, error) {
	if st, ok := e.states[id]; ok {
		return st, nil
	}
	scope, err := e.rt.NewScope(id.String(), e.out.WithSession(id.String()[:8]))
	if err != nil {
		return nil, fmt.Errorf("can't make scope for %s: %w", id, err)
	}
	st := &state{scope: scope}
	e.states[id] = st
	return st, nil
}

// executed returns the state of an executed session. Called with mu locked.
func (e *Extension) executed(id uuid.UUID, taskID int) (*state, error) {
	s, err := e.sessions.Get(id, taskID)
	if err != nil {
		return nil, err
	}
	st, ok := e.states[id]
	if !ok || s.State != session.StateExecuted || st.results == nil {
		return nil, fmt.Errorf("session %s has no results", id)
	}
	return st, nil
}

// dropState closes the scope of the session. Called with mu locked.
func (e *Extension) dropState(id uuid.UUID) error {
	st, ok := e.states[id]
	if !ok {
		return nil
	}
	delete(e.states, id)
	if err := st.scope.Close(); err != nil {
		return fmt.Errorf("can't close scope of %s: %w", id, err)
	}
	return nil
}

// outputParams reads output parameters back from the scope and encodes them with their declared types
func (e *Extension) outputParams(s session.Session, scope runtime.Scope) (map[int]marshal.Buffer, error) {
	res := map[int]marshal.Buffer{}
	for _, p := range s.Params {
		if !p.Declared || !p.Direction.Output() {
			continue
		}
		val, err := scope.Param(p.Global())
		if err != nil {
			return nil, err
		}
		vec, err := frame.FromValues(p.Type, []any{val})
		if err != nil {
			return nil, fmt.Errorf("output parameter %q: %w", p.Name, err)
		}
		buf, err := marshal.Encode(vec)
		if err != nil {
			return nil, fmt.Errorf("output parameter %q: %w", p.Name, err)
		}
		res[p.Index] = buf
	}
	return res, nil
}
