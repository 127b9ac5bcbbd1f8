package storage

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pickarooms/reservations-server/internal/config"
	"github.com/pickarooms/reservations-server/internal/db"
	"github.com/pickarooms/reservations-server/internal/store"
	"github.com/pickarooms/reservations-server/internal/store/postgres"
)

// DatabaseFactory creates the PostgreSQL-backed store
type DatabaseFactory struct {
	pool  *pgxpool.Pool
	store *postgres.Store
}

var _ Factory = (*DatabaseFactory)(nil)

// DatabaseFactoryOption is a functional option for configuring the DatabaseFactory
type DatabaseFactoryOption func(*databaseFactoryConfig)

type databaseFactoryConfig struct {
	storeOpts []postgres.Option
}

// WithStoreOptions passes options to the PostgreSQL store
func WithStoreOptions(opts ...postgres.Option) DatabaseFactoryOption {
	return func(cfg *databaseFactoryConfig) {
		cfg.storeOpts = append(cfg.storeOpts, opts...)
	}
}

// NewDatabaseFactory creates a new database-backed storage factory.
// It establishes a connection pool to the configured PostgreSQL database.
func NewDatabaseFactory(ctx context.Context, cfg *config.Config, opts ...DatabaseFactoryOption) (*DatabaseFactory, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if cfg.Database == nil {
		return nil, fmt.Errorf("database configuration is required for database storage type")
	}

	factoryCfg := &databaseFactoryConfig{}
	for _, opt := range opts {
		opt(factoryCfg)
	}

	slog.Info("Creating database-backed storage factory")

	pool, err := db.NewPool(ctx, cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to create database connection pool: %w", err)
	}

	return &DatabaseFactory{
		pool:  pool,
		store: postgres.New(pool, factoryCfg.storeOpts...),
	}, nil
}

// CreateStore returns the PostgreSQL store
func (d *DatabaseFactory) CreateStore(_ context.Context) (store.Store, error) {
	return d.store, nil
}

// CheckReadiness pings the database
func (d *DatabaseFactory) CheckReadiness(ctx context.Context) error {
	if err := d.pool.Ping(ctx); err != nil {
		return fmt.Errorf("database unreachable: %w", err)
	}
	return nil
}

// Cleanup releases resources held by the database factory.
// This closes the database connection pool and any active connections.
func (d *DatabaseFactory) Cleanup() {
	if d.pool != nil {
		slog.Info("Closing database connection pool")
		d.pool.Close()
	}
}
