package storage

import (
	"context"
	"log/slog"

	"github.com/pickarooms/reservations-server/internal/store"
	"github.com/pickarooms/reservations-server/internal/store/inmemory"
)

// MemoryFactory keeps the store in process memory. State is lost on restart.
type MemoryFactory struct {
	store *inmemory.Store
}

var _ Factory = (*MemoryFactory)(nil)

// NewMemoryFactory creates a memory-backed storage factory
func NewMemoryFactory() *MemoryFactory {
	slog.Warn("Using in-memory storage, bookings are lost on restart")
	return &MemoryFactory{store: inmemory.New()}
}

// CreateStore returns the in-memory store
func (m *MemoryFactory) CreateStore(_ context.Context) (store.Store, error) {
	return m.store, nil
}

// CheckReadiness always succeeds
func (*MemoryFactory) CheckReadiness(_ context.Context) error {
	return nil
}

// Cleanup is a no-op for memory storage
func (*MemoryFactory) Cleanup() {}
