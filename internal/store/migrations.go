package store

import (
	"context"
	"fmt"
)

var migrations = map[string][]string{
	"mysql": {
		`CREATE TABLE IF NOT EXISTS admin_users (
			id INT AUTO_INCREMENT PRIMARY KEY,
			username VARCHAR(100) NOT NULL UNIQUE,
			password_hash VARCHAR(255) NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS users (
			id INT AUTO_INCREMENT PRIMARY KEY,
			nombre VARCHAR(255) NOT NULL,
			email VARCHAR(255) NOT NULL,
			rol ENUM('admin', 'usuario') NOT NULL DEFAULT 'usuario',
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
	},
	"postgres": {
		`CREATE TABLE IF NOT EXISTS admin_users (
			id BIGSERIAL PRIMARY KEY,
			username VARCHAR(100) NOT NULL UNIQUE,
			password_hash VARCHAR(255) NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS users (
			id BIGSERIAL PRIMARY KEY,
			nombre VARCHAR(255) NOT NULL,
			email VARCHAR(255) NOT NULL,
			rol VARCHAR(16) NOT NULL DEFAULT 'usuario' CHECK (rol IN ('admin', 'usuario')),
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
	},
	"sqlite": {
		`CREATE TABLE IF NOT EXISTS admin_users (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			username TEXT NOT NULL UNIQUE,
			password_hash TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS users (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			nombre TEXT NOT NULL,
			email TEXT NOT NULL,
			rol TEXT NOT NULL DEFAULT 'usuario' CHECK (rol IN ('admin', 'usuario')),
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
	},
}

// Migrate creates the admin_users and users tables if they do not exist.
// Every statement is idempotent.
func (s *Store) Migrate(ctx context.Context) error {
	stmts, ok := migrations[s.dialect.Name]
	if !ok {
		return fmt.Errorf("no migrations for dialect %q", s.dialect.Name)
	}
	for _, m := range stmts {
		if _, err := s.db.ExecContext(ctx, m); err != nil {
			return fmt.Errorf("migration failed: %w\nSQL: %s", err, m)
		}
	}
	return nil
}
