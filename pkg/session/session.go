// Package session keeps the state of sessions between protocol calls.
// A session goes through Initialized, ColumnsPartial, ColumnsComplete and Executed states,
// Manager is safe for concurrent use and keeps no state shared between sessions.
package session

import (
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/google/uuid"

	"github.com/umputun/lext/pkg/wire"
)

// State of a session
type State int

// session states
const (
	StateInitialized State = iota
	StateColumnsPartial
	StateColumnsComplete
	StateExecuted
)

func (s State) String() string {
	switch s {
	case StateInitialized:
		return "initialized"
	case StateColumnsPartial:
		return "columns-partial"
	case StateColumnsComplete:
		return "columns-complete"
	case StateExecuted:
		return "executed"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

var (
	// ErrNotFound returned for operations on a session which is not live
	ErrNotFound = errors.New("session not found")
	// ErrExists returned by Init for a live session id
	ErrExists = errors.New("session already exists")
)

// Config is the set of values a session is initialized with
type Config struct {
	ID          uuid.UUID
	TaskID      int
	NumTasks    int
	Script      string
	ColumnCount int
	ParamCount  int
	InputName   string
	OutputName  string
}

// Validate checks required values
func (c Config) Validate() error {
	if c.Script == "" {
		return errors.New("empty script")
	}
	if c.InputName == "" || c.OutputName == "" {
		return errors.New("input and output data names are required")
	}
	if c.NumTasks <= 0 || c.TaskID < 0 || c.TaskID >= c.NumTasks {
		return fmt.Errorf("invalid task %d of %d", c.TaskID, c.NumTasks)
	}
	if c.ColumnCount < 0 || c.ParamCount < 0 {
		return fmt.Errorf("negative number of columns %d or parameters %d", c.ColumnCount, c.ParamCount)
	}
	return nil
}

// Param is a declared parameter with its input value
type Param struct {
	wire.Param
	Value    any // nil, int64, uint64, float64, bool, string or time.Time
	Declared bool
}

// Session is the state of a single session. Values returned by Manager are copies.
type Session struct {
	Config
	State      State
	Columns    []wire.Column
	Declared   []bool // declared flag per column index
	Params     []Param
	Executions int
}

// Complete reports whether all columns are declared
func (s *Session) Complete() bool {
	for _, d := range s.Declared {
		if !d {
			return false
		}
	}
	return true
}

// clone copies the session, param values are immutable scalars and shared
func (s *Session) clone() Session {
	res := *s
	res.Columns = append([]wire.Column(nil), s.Columns...)
	res.Declared = append([]bool(nil), s.Declared...)
	res.Params = append([]Param(nil), s.Params...)
	return res
}

// Manager keeps live sessions by id
type Manager struct {
	mu       sync.Mutex
	sessions map[uuid.UUID]*Session
}

// NewManager makes an empty manager
func NewManager() *Manager {
	return &Manager{sessions: map[uuid.UUID]*Session{}}
}

// Init creates a session, fails if the id is live already
func (m *Manager) Init(cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid session %s: %w", cfg.ID, err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[cfg.ID]; ok {
		return fmt.Errorf("%w: %s", ErrExists, cfg.ID)
	}
	s := &Session{
		Config:   cfg,
		State:    StateInitialized,
		Columns:  make([]wire.Column, cfg.ColumnCount),
		Declared: make([]bool, cfg.ColumnCount),
		Params:   make([]Param, cfg.ParamCount),
	}
	if cfg.ColumnCount == 0 {
		s.State = StateColumnsComplete
	}
	m.sessions[cfg.ID] = s
	log.Printf("[DEBUG] session %s initialized, task %d of %d, %d columns, %d params",
		cfg.ID, cfg.TaskID, cfg.NumTasks, cfg.ColumnCount, cfg.ParamCount)
	return nil
}

// DeclareColumn sets the column at its index. A rejected column doesn't change the session.
func (m *Manager) DeclareColumn(id uuid.UUID, taskID int, col wire.Column) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, err := m.live(id, taskID)
	if err != nil {
		return err
	}
	if err := col.Validate(s.ColumnCount); err != nil {
		return fmt.Errorf("session %s: %w", id, err)
	}
	if s.Declared[col.Index] {
		return fmt.Errorf("session %s: column %d is declared already", id, col.Index)
	}
	for i, c := range s.Columns {
		if s.Declared[i] && c.Name == col.Name {
			return fmt.Errorf("session %s: duplicate column name %q", id, col.Name)
		}
	}

	s.Columns[col.Index] = col
	s.Declared[col.Index] = true
	if s.State == StateInitialized || s.State == StateColumnsPartial {
		s.State = StateColumnsPartial
		if s.Complete() {
			s.State = StateColumnsComplete
		}
	}
	log.Printf("[DEBUG] session %s column %d %q %s, state %s", id, col.Index, col.Name, col.Type, s.State)
	return nil
}

// DeclareParam sets the parameter at its index with its input value
func (m *Manager) DeclareParam(id uuid.UUID, taskID int, p wire.Param, val any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, err := m.live(id, taskID)
	if err != nil {
		return err
	}
	if err := p.Validate(s.ParamCount); err != nil {
		return fmt.Errorf("session %s: %w", id, err)
	}
	if s.Params[p.Index].Declared {
		return fmt.Errorf("session %s: parameter %d is declared already", id, p.Index)
	}
	s.Params[p.Index] = Param{Param: p, Value: val, Declared: true}
	log.Printf("[DEBUG] session %s parameter %d %q %s", id, p.Index, p.Name, p.Type)
	return nil
}

// Get returns a copy of the session
func (m *Manager) Get(id uuid.UUID, taskID int) (Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, err := m.live(id, taskID)
	if err != nil {
		return Session{}, err
	}
	return s.clone(), nil
}

// Ready returns a copy of the session if it can be executed, i.e. all columns are declared
func (m *Manager) Ready(id uuid.UUID, taskID int) (Session, error) {
	s, err := m.Get(id, taskID)
	if err != nil {
		return Session{}, err
	}
	if s.State != StateColumnsComplete && s.State != StateExecuted {
		return Session{}, fmt.Errorf("session %s is not ready, state %s", id, s.State)
	}
	return s, nil
}

// Executed marks the session executed one more time
func (m *Manager) Executed(id uuid.UUID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.sessions[id]; ok {
		s.State = StateExecuted
		s.Executions++
	}
}

// Remove drops the session, returns false if it was not live
func (m *Manager) Remove(id uuid.UUID, taskID int) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return false, nil
	}
	if s.TaskID != taskID {
		return false, fmt.Errorf("session %s belongs to task %d, not %d", id, s.TaskID, taskID)
	}
	delete(m.sessions, id)
	log.Printf("[DEBUG] session %s removed after %d executions", id, s.Executions)
	return true, nil
}

// Clear drops all sessions, returns their ids
func (m *Manager) Clear() []uuid.UUID {
	m.mu.Lock()
	defer m.mu.Unlock()
	res := make([]uuid.UUID, 0, len(m.sessions))
	for id := range m.sessions {
		res = append(res, id)
	}
	m.sessions = map[uuid.UUID]*Session{}
	return res
}

// Len returns number of live sessions
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

func (m *Manager) live(id uuid.UUID, taskID int) (*Session, error) {
	s, ok := m.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if s.TaskID != taskID {
		return nil, fmt.Errorf("session %s belongs to task %d, not %d", id, s.TaskID, taskID)
	}
	return s, nil
}
