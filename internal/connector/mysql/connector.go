package mysql

import (
	"fmt"
	"net"
	"regexp"
	"strconv"
	"strings"
	"time"

	mysqldriver "github.com/go-sql-driver/mysql"

	"github.com/faucetdb/useradmin/internal/connector"
)

// MySQLDriver implements connector.Driver for MySQL and MariaDB.
type MySQLDriver struct{}

// New creates a new MySQLDriver.
func New() connector.Driver {
	return &MySQLDriver{}
}

// Dialect reports the MySQL SQL dialect. MySQL has no RETURNING clause, so
// inserted ids come from LastInsertId.
func (d *MySQLDriver) Dialect() connector.Dialect {
	return connector.Dialect{
		Name:      "mysql",
		SQLDriver: "mysql",
	}
}

// BuildDSN returns a go-sql-driver DSN. An explicit cfg.DSN is normalized;
// otherwise the DSN is assembled from the discrete connection fields.
//
// Either way the DSN always carries parseTime=true (DATETIME columns scan into
// time.Time), loc=UTC, and clientFoundRows=true so that UPDATE reports matched
// rows rather than changed rows.
func (d *MySQLDriver) BuildDSN(cfg connector.ConnectionConfig) (string, error) {
	var mc *mysqldriver.Config
	if cfg.DSN != "" {
		parsed, err := mysqldriver.ParseDSN(sanitizeDSN(cfg.DSN))
		if err != nil {
			return "", fmt.Errorf("parse mysql dsn: %w", err)
		}
		mc = parsed
	} else {
		if cfg.Host == "" {
			return "", fmt.Errorf("mysql host is required")
		}
		port := cfg.Port
		if port == 0 {
			port = 3306
		}
		mc = mysqldriver.NewConfig()
		mc.User = cfg.User
		mc.Passwd = cfg.Password
		mc.Net = "tcp"
		mc.Addr = net.JoinHostPort(cfg.Host, strconv.Itoa(port))
		mc.DBName = cfg.Name
	}

	mc.ParseTime = true
	mc.Loc = time.UTC
	mc.ClientFoundRows = true
	return mc.FormatDSN(), nil
}

// bareHostPort matches "user:pass@host:port/db" (no tcp() wrapper, no ()
// wrapper). We look for the last "@" followed by what looks like host:port/db.
var bareHostPort = regexp.MustCompile(`^(.+)@([^(@]+:\d+)(/.*)?$`)

// sanitizeDSN normalizes a hand-written MySQL DSN so that go-sql-driver/mysql
// can parse it. The driver requires the format:
//
//	user:pass@tcp(host:port)/dbname
//
// Common mistakes it repairs:
//
//	user:pass@host:port/db          → missing tcp() wrapper
//	user:pass@(host:port)/db        → missing "tcp" before parens
func sanitizeDSN(dsn string) string {
	if cfg, err := mysqldriver.ParseDSN(dsn); err == nil && (cfg.Net == "tcp" || cfg.Net == "unix") {
		return dsn
	}

	if idx := strings.LastIndex(dsn, "@("); idx >= 0 {
		fixed := dsn[:idx] + "@tcp" + dsn[idx+1:]
		if _, err := mysqldriver.ParseDSN(fixed); err == nil {
			return fixed
		}
	}

	if m := bareHostPort.FindStringSubmatch(dsn); m != nil {
		fixed := m[1] + "@tcp(" + m[2] + ")" + m[3]
		if _, err := mysqldriver.ParseDSN(fixed); err == nil {
			return fixed
		}
	}

	// Let ParseDSN report the problem.
	return dsn
}
