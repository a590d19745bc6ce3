package connector

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/jmoiron/sqlx"
)

// Factory is a function that creates a new Driver instance.
type Factory func() Driver

// Registry maps driver names to their factories.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// NewRegistry creates a new empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		factories: make(map[string]Factory),
	}
}

// RegisterDriver registers a driver factory under the given name.
func (r *Registry) RegisterDriver(name string, factory Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[name] = factory
}

// Get returns a fresh Driver for the given name.
func (r *Registry) Get(name string) (Driver, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	factory, ok := r.factories[name]
	if !ok {
		return nil, fmt.Errorf("unsupported driver: %s (available: %v)", name, r.availableDrivers())
	}
	return factory(), nil
}

// Drivers returns the registered driver names in sorted order.
func (r *Registry) Drivers() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.availableDrivers()
}

// Open builds the DSN for cfg, connects, verifies the connection and applies
// the pool settings.
func (r *Registry) Open(ctx context.Context, cfg ConnectionConfig) (*sqlx.DB, Dialect, error) {
	drv, err := r.Get(cfg.Driver)
	if err != nil {
		return nil, Dialect{}, err
	}
	dialect := drv.Dialect()

	dsn, err := drv.BuildDSN(cfg)
	if err != nil {
		return nil, Dialect{}, fmt.Errorf("%s dsn: %w", dialect.Name, err)
	}

	db, err := sqlx.ConnectContext(ctx, dialect.SQLDriver, dsn)
	if err != nil {
		return nil, Dialect{}, fmt.Errorf("%s connect: %w", dialect.Name, err)
	}

	if dialect.SingleConnection {
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
		return db, dialect, nil
	}

	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}
	if cfg.ConnMaxIdleTime > 0 {
		db.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)
	}
	return db, dialect, nil
}

func (r *Registry) availableDrivers() []string {
	drivers := make([]string, 0, len(r.factories))
	for d := range r.factories {
		drivers = append(drivers, d)
	}
	sort.Strings(drivers)
	return drivers
}
