// Package status describes the synchronization state tracked for every feed.
package status

import "time"

// SyncPhase represents the current phase of a synchronization operation
type SyncPhase string

const (
	// SyncPhaseSyncing means sync is currently in progress
	SyncPhaseSyncing SyncPhase = "Syncing"

	// SyncPhaseComplete means sync completed successfully
	SyncPhaseComplete SyncPhase = "Complete"

	// SyncPhaseFailed means sync failed
	SyncPhaseFailed SyncPhase = "Failed"
)

// SyncStatus represents the current state of feed synchronization
type SyncStatus struct {
	// Phase represents the current synchronization phase
	Phase SyncPhase `json:"phase" yaml:"phase"`

	// Message provides additional information about the sync status
	Message string `json:"message,omitempty" yaml:"message,omitempty"`

	// LastAttempt is the timestamp of the last sync attempt
	LastAttempt *time.Time `json:"lastAttempt,omitempty" yaml:"lastAttempt,omitempty"`

	// AttemptCount is the number of sync attempts since last success
	AttemptCount int `json:"attemptCount,omitempty" yaml:"attemptCount,omitempty"`

	// LastSyncTime is the timestamp of the last successful sync
	LastSyncTime *time.Time `json:"lastSyncTime,omitempty" yaml:"lastSyncTime,omitempty"`

	// LastSyncHash is the hash of the last successfully applied feed body.
	// Used to skip merges when the feed did not change.
	LastSyncHash string `json:"lastSyncHash,omitempty" yaml:"lastSyncHash,omitempty"`

	// EventCount is the number of calendar events seen in the last successful sync
	EventCount int `json:"eventCount,omitempty" yaml:"eventCount,omitempty"`

	// SyncSchedule is the sync interval from configuration (e.g., "10m")
	SyncSchedule string `json:"syncSchedule,omitempty" yaml:"syncSchedule,omitempty"`
}
