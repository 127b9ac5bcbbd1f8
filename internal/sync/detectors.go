package sync

import (
	"time"

	"k8s.io/utils/clock"

	"github.com/pickarooms/reservations-server/internal/config"
	"github.com/pickarooms/reservations-server/internal/status"
)

// DefaultAutomaticSyncChecker implements AutomaticSyncChecker
type DefaultAutomaticSyncChecker struct {
	Clock clock.PassiveClock
}

// IsIntervalSyncNeeded checks if sync is needed based on the feed interval.
// Returns: (syncNeeded, nextSyncTime)
// nextSyncTime is a future time when the next sync should occur, or zero time if
// the feed has no interval.
func (d *DefaultAutomaticSyncChecker) IsIntervalSyncNeeded(
	feed *config.Feed, syncStatus *status.SyncStatus,
) (bool, time.Time) {
	if feed.Interval <= 0 {
		return false, time.Time{}
	}

	now := d.now()

	var lastAttempt *time.Time
	if syncStatus != nil {
		lastAttempt = syncStatus.LastAttempt
	}

	// If we don't have a last attempt, sync is needed
	if lastAttempt == nil {
		return true, now.Add(feed.Interval)
	}

	nextSyncTime := lastAttempt.Add(feed.Interval)
	if !now.Before(nextSyncTime) {
		return true, now.Add(feed.Interval)
	}

	return false, nextSyncTime
}

func (d *DefaultAutomaticSyncChecker) now() time.Time {
	if d.Clock == nil {
		return time.Now()
	}
	return d.Clock.Now()
}

// IsDataChanged reports whether a body hash differs from the last applied one
func IsDataChanged(hash string, syncStatus *status.SyncStatus) bool {
	if syncStatus == nil || syncStatus.LastSyncHash == "" {
		return true
	}
	return hash != syncStatus.LastSyncHash
}
