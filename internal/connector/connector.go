package connector

import (
	"time"
)

// ConnectionConfig holds database connection parameters. When DSN is set it
// takes precedence over the discrete Host/Port/User/Password/Name fields.
type ConnectionConfig struct {
	Driver          string
	DSN             string
	Host            string
	Port            int
	User            string
	Password        string
	Name            string // database name, or file path for sqlite
	SSLMode         string // postgres only
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

// Dialect describes the engine differences the store has to account for.
type Dialect struct {
	// Name is the configuration name of the driver ("mysql", "postgres", "sqlite").
	Name string
	// SQLDriver is the database/sql driver name passed to sqlx.
	SQLDriver string
	// SupportsReturning reports whether INSERT ... RETURNING is available.
	// Engines without it rely on sql.Result.LastInsertId.
	SupportsReturning bool
	// SingleConnection pins the pool to one connection (sqlite, where an
	// in-memory database exists per connection and writes are serialized).
	SingleConnection bool
}

// Driver knows how to turn a ConnectionConfig into a DSN for one engine.
type Driver interface {
	Dialect() Dialect
	BuildDSN(cfg ConnectionConfig) (string, error)
}
