// Package dsn detects the database driver from a connection string and opens it.
// Supported are postgres, mysql, sqlite and duckdb, drivers are registered by this package.
package dsn

import (
	"database/sql"
	"fmt"
	"log"
	"strconv"
	"strings"

	_ "github.com/duckdb/duckdb-go/v2" // duckdb driver loaded here
	_ "github.com/go-sql-driver/mysql" // mysql driver loaded here
	_ "github.com/lib/pq"              // postgres driver loaded here
	_ "modernc.org/sqlite"             // sqlite driver loaded here
)

// driver names as registered with database/sql
const (
	Postgres = "postgres"
	MySQL    = "mysql"
	SQLite   = "sqlite"
	DuckDB   = "duckdb"
)

const duckPrefix = "duckdb://"

// Driver returns the driver name for the connection string
func Driver(conn string) (string, error) {
	switch {
	case strings.HasPrefix(conn, "postgres://"), strings.HasPrefix(conn, "postgresql://"):
		return Postgres, nil
	case strings.Contains(conn, "@tcp("), strings.Contains(conn, "@unix("):
		return MySQL, nil
	case strings.HasPrefix(conn, duckPrefix), strings.HasSuffix(conn, ".duckdb"):
		return DuckDB, nil
	case strings.HasPrefix(conn, "file:"), strings.HasSuffix(conn, ".sqlite"), strings.HasSuffix(conn, ".db"),
		conn == ":memory:":
		return SQLite, nil
	}
	return "", fmt.Errorf("unsupported database type in connection string")
}

// Open detects the driver and opens the database, returns the db and its driver name
func Open(conn string) (*sql.DB, string, error) {
	drv, err := Driver(conn)
	if err != nil {
		return nil, "", fmt.Errorf("can't determine database type: %w", err)
	}
	src := conn
	if drv == DuckDB {
		src = strings.TrimPrefix(conn, duckPrefix) // empty path is an in-memory duckdb
	}
	db, err := sql.Open(drv, src)
	if err != nil {
		return nil, "", fmt.Errorf("can't open %s database: %w", drv, err)
	}
	if drv == SQLite || drv == DuckDB {
		db.SetMaxOpenConns(1) // in-memory databases are per connection
	}
	log.Printf("[DEBUG] opened %s database", drv)
	return db, drv, nil
}

// Placeholder returns the bind placeholder of the n-th (1-based) statement argument
func Placeholder(driver string, n int) string {
	if driver == Postgres || driver == DuckDB {
		return "$" + strconv.Itoa(n)
	}
	return "?"
}

// Quote quotes an identifier for the driver
func Quote(driver, name string) string {
	if driver == MySQL {
		return "`" + strings.ReplaceAll(name, "`", "``") + "`"
	}
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
