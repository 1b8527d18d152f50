package host

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"strings"
	"sync"

	"github.com/umputun/lext/pkg/dsn"
	"github.com/umputun/lext/pkg/frame"
	"github.com/umputun/lext/pkg/wire"
)

// TableSink inserts results into a database table, the table is created on the first write if missing.
// Every written frame is inserted in its own transaction.
type TableSink struct {
	mu      sync.Mutex
	db      *sql.DB
	driver  string
	table   string
	created bool
	rows    int
}

// NewTableSink opens the database of the sink
func NewTableSink(conn, table string) (*TableSink, error) {
	if table == "" {
		return nil, fmt.Errorf("empty table name")
	}
	db, drv, err := dsn.Open(conn)
	if err != nil {
		return nil, fmt.Errorf("can't open sink database: %w", err)
	}
	return &TableSink{db: db, driver: drv, table: table}, nil
}

// Write inserts rows of the frame
func (s *TableSink) Write(ctx context.Context, task int, f *frame.Frame) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.created {
		if _, err := s.db.ExecContext(ctx, s.createStmt(f)); err != nil {
			return fmt.Errorf("can't create table %s: %w", s.table, err)
		}
		s.created = true
	}
	if f.Rows() == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("can't begin transaction: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx, s.insertStmt(f))
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("can't prepare insert: %w", err)
	}
	defer stmt.Close() //nolint

	args := make([]any, len(f.Columns))
	for r := 0; r < f.Rows(); r++ {
		for i, c := range f.Columns {
			args[i] = frame.Value(c.Data, r)
		}
		if _, err = stmt.ExecContext(ctx, args...); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("can't insert row %d of task %d: %w", r, task, err)
		}
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("can't commit rows of task %d: %w", task, err)
	}
	s.rows += f.Rows()
	return nil
}

// Close closes the database
func (s *TableSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	log.Printf("[INFO] %d rows inserted into %s", s.rows, s.table)
	return s.db.Close()
}

func (s *TableSink) createStmt(f *frame.Frame) string {
	defs := make([]string, len(f.Columns))
	for i, c := range f.Columns {
		def := dsn.Quote(s.driver, c.Name) + " " + sqlType(s.driver, c.Data.Type())
		if !c.Nullable {
			def += " NOT NULL"
		}
		defs[i] = def
	}
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)", dsn.Quote(s.driver, s.table), strings.Join(defs, ", "))
}

func (s *TableSink) insertStmt(f *frame.Frame) string {
	names := make([]string, len(f.Columns))
	binds := make([]string, len(f.Columns))
	for i, c := range f.Columns {
		names[i] = dsn.Quote(s.driver, c.Name)
		binds[i] = dsn.Placeholder(s.driver, i+1)
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", dsn.Quote(s.driver, s.table),
		strings.Join(names, ", "), strings.Join(binds, ", "))
}

// sqlType maps the data type to a column type of the database
func sqlType(driver string, typ wire.DataType) string {
	switch typ {
	case wire.TypeBit:
		return "BOOLEAN"
	case wire.TypeInt8, wire.TypeUint8, wire.TypeInt16:
		return "SMALLINT"
	case wire.TypeUint16, wire.TypeInt32:
		return "INTEGER"
	case wire.TypeUint32, wire.TypeInt64:
		return "BIGINT"
	case wire.TypeUint64:
		switch driver {
		case dsn.MySQL:
			return "BIGINT UNSIGNED"
		case dsn.DuckDB:
			return "UBIGINT"
		}
		return "NUMERIC(20)"
	case wire.TypeFloat32:
		return "REAL"
	case wire.TypeFloat64:
		if driver == dsn.Postgres {
			return "DOUBLE PRECISION"
		}
		return "DOUBLE"
	case wire.TypeDate:
		return "DATE"
	case wire.TypeTimestamp:
		if driver == dsn.MySQL {
			return "DATETIME(6)"
		}
		return "TIMESTAMP"
	}
	return "TEXT"
}
