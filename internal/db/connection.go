// Package db opens the PostgreSQL connection pool behind the bookings store.
package db

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pickarooms/reservations-server/internal/config"
)

// Pool limits used when the database section leaves them unset
const (
	DefaultMaxConns        int32 = 25
	DefaultMinConns        int32 = 2
	DefaultConnMaxLifetime       = 5 * time.Minute
	connectTimeout               = 10 * time.Second
)

// customTypes must be loaded on every connection so that status filters can
// be passed as booking_status[] parameters.
var customTypes = []string{"booking_status", "_booking_status"}

// NewPool connects to the database described by cfg and pings it
func NewPool(ctx context.Context, cfg *config.DatabaseConfig) (*pgxpool.Pool, error) {
	pc, err := PoolConfig(cfg)
	if err != nil {
		return nil, err
	}
	pc.AfterConnect = loadCustomTypes

	pool, err := pgxpool.NewWithConfig(ctx, pc)
	if err != nil {
		return nil, fmt.Errorf("failed to create database connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	slog.Info("Connected to bookings database",
		"host", cfg.Host, "port", cfg.Port, "database", cfg.Database, "user", cfg.User,
		"max_conns", pc.MaxConns, "min_conns", pc.MinConns)
	return pool, nil
}

// PoolConfig turns the database section into pool settings without
// connecting. The password is resolved here, so a missing password file
// fails now rather than on first use.
func PoolConfig(cfg *config.DatabaseConfig) (*pgxpool.Config, error) {
	if cfg == nil {
		return nil, errors.New("database configuration is required")
	}
	var missing []error
	for _, f := range []struct {
		name  string
		empty bool
	}{
		{"host", cfg.Host == ""},
		{"port", cfg.Port == 0},
		{"user", cfg.User == ""},
		{"name", cfg.Database == ""},
	} {
		if f.empty {
			missing = append(missing, fmt.Errorf("database %s is required", f.name))
		}
	}
	if err := errors.Join(missing...); err != nil {
		return nil, err
	}

	dsn, err := cfg.GetConnectionString()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve database password: %w", err)
	}
	pc, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database connection string: %w", err)
	}

	pc.MaxConns = DefaultMaxConns
	if cfg.MaxOpenConns > 0 {
		pc.MaxConns = cfg.MaxOpenConns
	}
	pc.MinConns = min(DefaultMinConns, pc.MaxConns)
	if cfg.MaxIdleConns > 0 {
		pc.MinConns = min(cfg.MaxIdleConns, pc.MaxConns)
	}
	pc.MaxConnLifetime = DefaultConnMaxLifetime
	if cfg.ConnMaxLifetime != "" {
		if pc.MaxConnLifetime, err = time.ParseDuration(cfg.ConnMaxLifetime); err != nil {
			return nil, fmt.Errorf("invalid connection max lifetime: %w", err)
		}
	}
	pc.ConnConfig.ConnectTimeout = connectTimeout
	return pc, nil
}

func loadCustomTypes(ctx context.Context, conn *pgx.Conn) error {
	types, err := conn.LoadTypes(ctx, customTypes)
	if err != nil {
		return fmt.Errorf("failed to load custom types: %w", err)
	}
	conn.TypeMap().RegisterTypes(types)
	return nil
}
