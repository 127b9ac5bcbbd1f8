// Package storage provides factory functions for creating the canonical
// booking store. It keeps the choice between the in-memory and the
// PostgreSQL backend in one place.
package storage

import (
	"context"
	"fmt"

	"github.com/pickarooms/reservations-server/internal/config"
	"github.com/pickarooms/reservations-server/internal/store"
)

//go:generate mockgen -destination=mocks/mock_factory.go -package=mocks -source=factory.go Factory

// Factory creates the store and manages the lifecycle of the resources
// behind it (e.g., database connections).
type Factory interface {
	// CreateStore returns the canonical booking store. Every call returns
	// the same store.
	CreateStore(ctx context.Context) (store.Store, error)

	// CheckReadiness reports whether the backend can serve requests
	CheckReadiness(ctx context.Context) error

	// Cleanup releases any resources held by this factory.
	// For database factories, this closes the connection pool.
	// For memory factories, this is a no-op.
	// Should be called when the application shuts down.
	Cleanup()
}

// NewStorageFactory creates a storage factory based on the configured storage type.
// The options only apply to database storage.
func NewStorageFactory(ctx context.Context, cfg *config.Config, opts ...DatabaseFactoryOption) (Factory, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}

	switch cfg.GetStorageType() {
	case config.StorageTypeDatabase:
		return NewDatabaseFactory(ctx, cfg, opts...)
	case config.StorageTypeMemory:
		return NewMemoryFactory(), nil
	default:
		return nil, fmt.Errorf("unknown storage type: %s", cfg.GetStorageType())
	}
}
