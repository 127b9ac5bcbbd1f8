// Package state contains logic for managing the feed sync state which the
// server persists.
package state

import (
	"context"
	"errors"

	"github.com/pickarooms/reservations-server/internal/config"
	"github.com/pickarooms/reservations-server/internal/status"
)

// ErrFeedNotFound is returned when a feed has no sync state
var ErrFeedNotFound = errors.New("feed not found")

// FeedStateService provides methods for inspecting and updating the sync
// state of the configured feeds.
//
//go:generate mockgen -destination=mocks/mock_feed_state_service.go -package=mocks github.com/pickarooms/reservations-server/internal/sync/state FeedStateService
type FeedStateService interface {
	// Initialize creates a state for every configured feed that has none.
	// It is intended that this is called at application startup. A state
	// left in the syncing phase by an interrupted process is marked failed.
	Initialize(ctx context.Context, feeds []config.Feed) error
	// ListSyncStatuses lists the statuses of the configured feeds.
	ListSyncStatuses(ctx context.Context) (map[string]*status.SyncStatus, error)
	// GetSyncStatus returns the status of the named feed.
	GetSyncStatus(ctx context.Context, feed string) (*status.SyncStatus, error)
	// UpdateSyncStatus overrides the status of the named feed.
	UpdateSyncStatus(ctx context.Context, feed string, syncStatus *status.SyncStatus) error
	// UpdateStatusAtomically fetches the existing status, applies
	// testAndUpdateFn and stores the result if the function reports a
	// change, all as a single atomic action. The returned boolean is the
	// value reported by testAndUpdateFn.
	UpdateStatusAtomically(
		ctx context.Context,
		feed string,
		testAndUpdateFn func(syncStatus *status.SyncStatus) bool,
	) (bool, error)
}
