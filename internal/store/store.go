package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/faucetdb/useradmin/internal/connector"
	"github.com/faucetdb/useradmin/internal/connector/mysql"
	"github.com/faucetdb/useradmin/internal/connector/postgres"
	"github.com/faucetdb/useradmin/internal/connector/sqlite"
	"github.com/faucetdb/useradmin/internal/model"
)

// Store persists administrator accounts and managed user records. All
// statements are written with '?' placeholders and rebound for the
// connected dialect.
type Store struct {
	db      *sqlx.DB
	dialect connector.Dialect
}

// NewRegistry returns a connector registry with every supported driver.
func NewRegistry() *connector.Registry {
	r := connector.NewRegistry()
	r.RegisterDriver("mysql", mysql.New)
	r.RegisterDriver("postgres", postgres.New)
	r.RegisterDriver("sqlite", sqlite.New)
	return r
}

// New wraps an already-open database handle.
func New(db *sqlx.DB, dialect connector.Dialect) *Store {
	return &Store{db: db, dialect: dialect}
}

// Open connects to the database described by cfg.
func Open(ctx context.Context, cfg connector.ConnectionConfig) (*Store, error) {
	db, dialect, err := NewRegistry().Open(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return New(db, dialect), nil
}

// OpenMemory opens a migrated, private in-memory SQLite store.
func OpenMemory(ctx context.Context) (*Store, error) {
	s, err := Open(ctx, connector.ConnectionConfig{Driver: "sqlite", Name: sqlite.MemoryDSN})
	if err != nil {
		return nil, err
	}
	if err := s.Migrate(ctx); err != nil {
		s.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

// Dialect reports the dialect the store is connected with.
func (s *Store) Dialect() connector.Dialect {
	return s.dialect
}

// Ping verifies the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// insert runs a named INSERT and returns the generated id, via RETURNING
// where the dialect has it and LastInsertId otherwise.
func (s *Store) insert(ctx context.Context, q string, arg interface{}) (int64, error) {
	if !s.dialect.SupportsReturning {
		result, err := s.db.NamedExecContext(ctx, q, arg)
		if err != nil {
			return 0, err
		}
		return result.LastInsertId()
	}

	query, args, err := s.db.BindNamed(q+" RETURNING id", arg)
	if err != nil {
		return 0, err
	}
	var id int64
	if err := s.db.QueryRowxContext(ctx, query, args...).Scan(&id); err != nil {
		return 0, err
	}
	return id, nil
}

func (s *Store) execAffecting(ctx context.Context, q string, args ...interface{}) error {
	result, err := s.db.ExecContext(ctx, s.db.Rebind(q), args...)
	if err != nil {
		return err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// ---------------------------------------------------------------------------
// Admin accounts
// ---------------------------------------------------------------------------

// CreateAdmin inserts a new admin account. PasswordHash must already be set.
// The ID field is populated after a successful insert.
func (s *Store) CreateAdmin(ctx context.Context, admin *model.Admin) error {
	const q = `INSERT INTO admin_users (username, password_hash) VALUES (:username, :password_hash)`

	id, err := s.insert(ctx, q, admin)
	if err != nil {
		return fmt.Errorf("insert admin: %w", err)
	}
	admin.ID = id
	return nil
}

// GetAdminByUsername returns the admin with exactly the given username.
func (s *Store) GetAdminByUsername(ctx context.Context, username string) (*model.Admin, error) {
	var admin model.Admin
	q := s.db.Rebind("SELECT id, username, password_hash FROM admin_users WHERE username = ?")
	if err := s.db.GetContext(ctx, &admin, q, username); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get admin by username: %w", err)
	}
	return &admin, nil
}

// ListAdmins returns all admin accounts ordered by username.
func (s *Store) ListAdmins(ctx context.Context) ([]model.Admin, error) {
	admins := []model.Admin{}
	if err := s.db.SelectContext(ctx, &admins, "SELECT id, username, password_hash FROM admin_users ORDER BY username"); err != nil {
		return nil, fmt.Errorf("list admins: %w", err)
	}
	return admins, nil
}

// HasAnyAdmin reports whether at least one admin account exists.
func (s *Store) HasAnyAdmin(ctx context.Context) (bool, error) {
	var count int
	if err := s.db.GetContext(ctx, &count, "SELECT COUNT(*) FROM admin_users"); err != nil {
		return false, fmt.Errorf("count admins: %w", err)
	}
	return count > 0, nil
}

// ---------------------------------------------------------------------------
// Managed users
// ---------------------------------------------------------------------------

const userColumns = "id, nombre, email, rol, created_at"

// ListUsers returns every user, most recently created id first.
func (s *Store) ListUsers(ctx context.Context) ([]model.User, error) {
	users := []model.User{}
	if err := s.db.SelectContext(ctx, &users, "SELECT "+userColumns+" FROM users ORDER BY id DESC"); err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

// GetUser returns a user by id.
func (s *Store) GetUser(ctx context.Context, id int64) (*model.User, error) {
	var u model.User
	q := s.db.Rebind("SELECT " + userColumns + " FROM users WHERE id = ?")
	if err := s.db.GetContext(ctx, &u, q, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return &u, nil
}

// CreateUser inserts a new user. The ID and CreatedAt fields are populated
// after a successful insert.
func (s *Store) CreateUser(ctx context.Context, u *model.User) error {
	u.CreatedAt = time.Now().UTC().Truncate(time.Second)

	const q = `INSERT INTO users (nombre, email, rol, created_at) VALUES (:nombre, :email, :rol, :created_at)`

	id, err := s.insert(ctx, q, u)
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	u.ID = id
	return nil
}

// UpdateUser overwrites the name, email and role of an existing user. The id
// and created_at columns are never written. Returns ErrNotFound when no row
// matches u.ID.
func (s *Store) UpdateUser(ctx context.Context, u *model.User) error {
	err := s.execAffecting(ctx, "UPDATE users SET nombre = ?, email = ?, rol = ? WHERE id = ?",
		u.Name, u.Email, u.Role, u.ID)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return fmt.Errorf("update user: %w", err)
	}
	return err
}

// DeleteUser removes a user by id. Returns ErrNotFound when no row matches.
func (s *Store) DeleteUser(ctx context.Context, id int64) error {
	err := s.execAffecting(ctx, "DELETE FROM users WHERE id = ?", id)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return fmt.Errorf("delete user: %w", err)
	}
	return err
}
