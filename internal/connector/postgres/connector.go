package postgres

import (
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/faucetdb/useradmin/internal/connector"
)

// PostgresDriver implements connector.Driver for PostgreSQL through pgx's
// database/sql adapter.
type PostgresDriver struct{}

// New creates a new PostgresDriver.
func New() connector.Driver {
	return &PostgresDriver{}
}

// Dialect reports the PostgreSQL dialect. pgx does not implement
// LastInsertId, so inserts use RETURNING.
func (d *PostgresDriver) Dialect() connector.Dialect {
	return connector.Dialect{
		Name:              "postgres",
		SQLDriver:         "pgx",
		SupportsReturning: true,
	}
}

// BuildDSN returns a postgres:// URL. An explicit cfg.DSN has its userinfo
// re-encoded; otherwise the URL is assembled from the discrete fields.
func (d *PostgresDriver) BuildDSN(cfg connector.ConnectionConfig) (string, error) {
	if cfg.DSN != "" {
		return sanitizeURLDSN(cfg.DSN), nil
	}
	if cfg.Host == "" {
		return "", fmt.Errorf("postgres host is required")
	}

	port := cfg.Port
	if port == 0 {
		port = 5432
	}
	sslMode := cfg.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}

	u := url.URL{
		Scheme:   "postgres",
		Host:     net.JoinHostPort(cfg.Host, strconv.Itoa(port)),
		Path:     "/" + cfg.Name,
		RawQuery: url.Values{"sslmode": {sslMode}}.Encode(),
	}
	if cfg.User != "" {
		if cfg.Password != "" {
			u.User = url.UserPassword(cfg.User, cfg.Password)
		} else {
			u.User = url.User(cfg.User)
		}
	}
	return u.String(), nil
}

// sanitizeURLDSN re-encodes the password of a URL-style DSN
// (postgres://user:p@ss#word@host/db) so the URL parser can split the
// authority unambiguously. Key/value DSNs are returned unchanged.
func sanitizeURLDSN(dsn string) string {
	schemeEnd := strings.Index(dsn, "://")
	if schemeEnd < 0 {
		return dsn
	}

	scheme := dsn[:schemeEnd]
	rest := dsn[schemeEnd+3:]

	query := ""
	if qi := strings.IndexByte(rest, '?'); qi >= 0 {
		query = rest[qi:]
		rest = rest[:qi]
	}

	// Everything before the LAST '@' is userinfo.
	atIdx := strings.LastIndex(rest, "@")
	if atIdx < 0 {
		return dsn
	}

	userinfo := rest[:atIdx]
	hostpath := rest[atIdx+1:]

	user := userinfo
	pass := ""
	if ci := strings.IndexByte(userinfo, ':'); ci >= 0 {
		user = userinfo[:ci]
		pass = userinfo[ci+1:]
	}

	if unescaped, err := url.PathUnescape(user); err == nil {
		user = unescaped
	}
	if unescaped, err := url.PathUnescape(pass); err == nil {
		pass = unescaped
	}

	return scheme + "://" + url.PathEscape(user) + ":" + url.PathEscape(pass) + "@" + hostpath + query
}
