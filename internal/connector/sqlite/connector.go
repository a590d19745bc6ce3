package sqlite

import (
	"fmt"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/faucetdb/useradmin/internal/connector"
)

// MemoryDSN opens a private in-memory database.
const MemoryDSN = ":memory:"

// SQLiteDriver implements connector.Driver for SQLite (pure Go, modernc).
type SQLiteDriver struct{}

// New creates a new SQLiteDriver.
func New() connector.Driver {
	return &SQLiteDriver{}
}

// Dialect reports the SQLite dialect. The pool is pinned to a single
// connection: every connection to ":memory:" would otherwise see its own
// empty database.
func (d *SQLiteDriver) Dialect() connector.Dialect {
	return connector.Dialect{
		Name:              "sqlite",
		SQLDriver:         "sqlite",
		SupportsReturning: true,
		SingleConnection:  true,
	}
}

// BuildDSN returns the database file path (or ":memory:"). File databases get
// a busy timeout and foreign keys enabled.
func (d *SQLiteDriver) BuildDSN(cfg connector.ConnectionConfig) (string, error) {
	dsn := cfg.DSN
	if dsn == "" {
		dsn = cfg.Name
	}
	if dsn == "" {
		return "", fmt.Errorf("sqlite requires a database file path or %s", MemoryDSN)
	}
	if dsn == MemoryDSN || strings.Contains(dsn, "?") {
		return dsn, nil
	}
	return dsn + "?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)", nil
}
