package state

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"sync"

	"github.com/pickarooms/reservations-server/internal/booking"
	"github.com/pickarooms/reservations-server/internal/config"
	"github.com/pickarooms/reservations-server/internal/status"
	"github.com/pickarooms/reservations-server/internal/store"
)

const (
	initialMessage     = "No previous sync status found"
	interruptedMessage = "Sync interrupted by a restart"
)

type storeStateService struct {
	store store.Store

	mu    sync.RWMutex
	feeds map[string]config.Feed
}

// NewStoreStateService creates a state service persisting feed statuses in
// the canonical store, so it shares the store's backend and transactions
func NewStoreStateService(s store.Store) FeedStateService {
	return &storeStateService{
		store: s,
		feeds: map[string]config.Feed{},
	}
}

func (s *storeStateService) Initialize(ctx context.Context, feeds []config.Feed) error {
	configured := make(map[string]config.Feed, len(feeds))
	for _, f := range feeds {
		configured[f.Name] = f
	}
	s.mu.Lock()
	s.feeds = configured
	s.mu.Unlock()

	return s.store.WithTx(ctx, func(ctx context.Context, tx store.Tx) error {
		for _, name := range slices.Sorted(maps.Keys(configured)) {
			syncStatus, err := tx.GetSyncStatus(ctx, name)
			switch {
			case errors.Is(err, booking.ErrNotFound):
				syncStatus = &status.SyncStatus{Phase: status.SyncPhaseFailed, Message: initialMessage}
			case err != nil:
				return fmt.Errorf("failed to load sync status of %s: %w", name, err)
			case syncStatus.Phase == status.SyncPhaseSyncing:
				syncStatus.Phase = status.SyncPhaseFailed
				syncStatus.Message = interruptedMessage
			default:
				continue
			}
			syncStatus.SyncSchedule = configured[name].Interval.String()
			if err := tx.SaveSyncStatus(ctx, name, syncStatus); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *storeStateService) ListSyncStatuses(ctx context.Context) (map[string]*status.SyncStatus, error) {
	all, err := s.store.ListSyncStatuses(ctx)
	if err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	// statuses of feeds removed from the configuration are not reported
	result := make(map[string]*status.SyncStatus, len(s.feeds))
	for name, syncStatus := range all {
		if _, ok := s.feeds[name]; ok {
			result[name] = syncStatus
		}
	}
	return result, nil
}

func (s *storeStateService) GetSyncStatus(ctx context.Context, feed string) (*status.SyncStatus, error) {
	syncStatus, err := s.store.GetSyncStatus(ctx, feed)
	if errors.Is(err, booking.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrFeedNotFound, feed)
	}
	return syncStatus, err
}

func (s *storeStateService) UpdateSyncStatus(ctx context.Context, feed string, syncStatus *status.SyncStatus) error {
	return s.store.WithTx(ctx, func(ctx context.Context, tx store.Tx) error {
		return tx.SaveSyncStatus(ctx, feed, syncStatus)
	})
}

func (s *storeStateService) UpdateStatusAtomically(
	ctx context.Context,
	feed string,
	testAndUpdateFn func(syncStatus *status.SyncStatus) bool,
) (bool, error) {
	var updated bool
	err := s.store.WithTx(ctx, func(ctx context.Context, tx store.Tx) error {
		syncStatus, err := tx.GetSyncStatus(ctx, feed)
		if errors.Is(err, booking.ErrNotFound) {
			return fmt.Errorf("%w: %s", ErrFeedNotFound, feed)
		}
		if err != nil {
			return err
		}

		updated = testAndUpdateFn(syncStatus)
		if !updated {
			return nil
		}
		return tx.SaveSyncStatus(ctx, feed, syncStatus)
	})
	if err != nil {
		return false, err
	}
	return updated, nil
}
