package sync

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"cloud.google.com/go/civil"
	"github.com/google/uuid"
	"k8s.io/utils/clock"

	"github.com/pickarooms/reservations-server/internal/booking"
	"github.com/pickarooms/reservations-server/internal/canonical"
	"github.com/pickarooms/reservations-server/internal/config"
	"github.com/pickarooms/reservations-server/internal/feed"
	"github.com/pickarooms/reservations-server/internal/status"
)

// Result contains the result of a successful sync operation
type Result struct {
	Hash       string
	EventCount int
	// Unchanged is set when the body matched the last applied hash and
	// nothing was merged
	Unchanged bool
	Merge     *canonical.Result
	// AppliedAt is when the merge started; rows created by it are not older
	AppliedAt time.Time
}

// NewUnenriched returns the rows created without a reference by the merge
func (r *Result) NewUnenriched() []uuid.UUID {
	if r == nil || r.Merge == nil {
		return nil
	}
	return r.Merge.NewUnenriched
}

// Reason explains a ShouldSync decision
type Reason string

// Sync reasons
const (
	ReasonAlreadyInProgress Reason = "sync-already-in-progress"
	ReasonFeedNotReady      Reason = "feed-not-ready"
	ReasonIntervalElapsed   Reason = "interval-elapsed"
	ReasonManual            Reason = "manual-sync"
	ReasonUpToDate          Reason = "up-to-date"
)

// ShouldSync reports whether the reason calls for a sync
func (r Reason) ShouldSync() bool {
	switch r {
	case ReasonFeedNotReady, ReasonIntervalElapsed, ReasonManual:
		return true
	default:
		return false
	}
}

// String returns the reason code
func (r Reason) String() string {
	return string(r)
}

// Condition reasons for status conditions
const (
	conditionReasonFetchFailed = "FetchFailed"
	conditionReasonParseFailed = "ParseFailed"
	conditionReasonMergeFailed = "MergeFailed"
)

// Condition types of a feed sync
const (
	// ConditionSourceAvailable indicates whether the feed could be downloaded
	ConditionSourceAvailable = "SourceAvailable"

	// ConditionDataValid indicates whether the feed body could be decoded
	ConditionDataValid = "DataValid"

	// ConditionSyncSuccessful indicates whether the last sync was successful
	ConditionSyncSuccessful = "SyncSuccessful"
)

// Error represents a structured sync failure with condition information
type Error struct {
	Err             error
	Message         string
	ConditionType   string
	ConditionReason string
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Transient reports whether the failure is a channel outage worth retrying
func (e *Error) Transient() bool {
	return booking.IsTransient(e.Err)
}

// Manager manages synchronization of calendar feeds
//
//go:generate mockgen -destination=mocks/mock_manager.go -package=mocks github.com/pickarooms/reservations-server/internal/sync Manager
type Manager interface {
	// ShouldSync determines if a sync operation is needed for a feed
	ShouldSync(ctx context.Context, feedCfg *config.Feed, syncStatus *status.SyncStatus, manualSyncRequested bool) Reason

	// PerformSync downloads the feed and merges it unless its body is unchanged
	PerformSync(ctx context.Context, feedCfg *config.Feed, syncStatus *status.SyncStatus) (*Result, *Error)
}

// AutomaticSyncChecker handles automatic sync timing logic
type AutomaticSyncChecker interface {
	// IsIntervalSyncNeeded checks if the feed interval has elapsed.
	// Returns (syncNeeded, nextSyncTime) where nextSyncTime is in the future.
	IsIntervalSyncNeeded(feedCfg *config.Feed, syncStatus *status.SyncStatus) (bool, time.Time)
}

// FeedFetcher downloads a feed body
//
//go:generate mockgen -destination=mocks/mock_feed.go -package=mocks github.com/pickarooms/reservations-server/internal/sync FeedFetcher,FeedMerger
type FeedFetcher interface {
	Fetch(ctx context.Context, channel booking.Channel, url string) ([]byte, error)
}

// FeedMerger merges a decoded feed into the canonical store
type FeedMerger interface {
	ApplyFeed(
		ctx context.Context, resourceID string, channel booking.Channel, parsed *feed.Result, today civil.Date,
	) (*canonical.Result, error)
}

// MutationRecorder records the rows a merge changed
type MutationRecorder interface {
	RecordMutations(ctx context.Context, channel string, created, updated, cancelled int)
}

// ManagerOption configures the default manager
type ManagerOption func(*defaultSyncManager)

// WithClock sets the clock used for scheduling decisions and merge dates
func WithClock(c clock.PassiveClock) ManagerOption {
	return func(m *defaultSyncManager) {
		m.clock = c
	}
}

// WithLocation sets the operating timezone used to compute today
func WithLocation(loc *time.Location) ManagerOption {
	return func(m *defaultSyncManager) {
		m.location = loc
	}
}

// WithMutationRecorder records merge counts, typically into telemetry
func WithMutationRecorder(r MutationRecorder) ManagerOption {
	return func(m *defaultSyncManager) {
		m.recorder = r
	}
}

// defaultSyncManager is the default implementation of Manager
type defaultSyncManager struct {
	fetcher              FeedFetcher
	merger               FeedMerger
	automaticSyncChecker AutomaticSyncChecker
	clock                clock.PassiveClock
	location             *time.Location
	recorder             MutationRecorder
}

// NewDefaultSyncManager creates a new defaultSyncManager
func NewDefaultSyncManager(fetcher FeedFetcher, merger FeedMerger, opts ...ManagerOption) Manager {
	m := &defaultSyncManager{
		fetcher:  fetcher,
		merger:   merger,
		clock:    clock.RealClock{},
		location: time.UTC,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.automaticSyncChecker = &DefaultAutomaticSyncChecker{Clock: m.clock}
	return m
}

// ShouldSync determines if a sync operation is needed for a feed
func (s *defaultSyncManager) ShouldSync(
	_ context.Context,
	feedCfg *config.Feed,
	syncStatus *status.SyncStatus,
	manualSyncRequested bool,
) Reason {
	if syncStatus != nil && syncStatus.Phase == status.SyncPhaseSyncing {
		return ReasonAlreadyInProgress
	}

	var reason Reason
	switch {
	case isSyncNeededForState(syncStatus):
		reason = ReasonFeedNotReady
	case manualSyncRequested:
		reason = ReasonManual
	default:
		reason = ReasonUpToDate
		if elapsed, _ := s.automaticSyncChecker.IsIntervalSyncNeeded(feedCfg, syncStatus); elapsed {
			reason = ReasonIntervalElapsed
		}
	}

	slog.Debug("ShouldSync", "feed", feedCfg.Name, "manual", manualSyncRequested, "reason", reason)
	return reason
}

// isSyncNeededForState checks if sync is needed based on the feed's current state
func isSyncNeededForState(syncStatus *status.SyncStatus) bool {
	if syncStatus == nil {
		return true
	}
	return syncStatus.Phase != status.SyncPhaseComplete
}

// PerformSync performs the complete sync operation for a feed
func (s *defaultSyncManager) PerformSync(
	ctx context.Context, feedCfg *config.Feed, syncStatus *status.SyncStatus,
) (*Result, *Error) {
	logger := slog.With("feed", feedCfg.Name, "resource", feedCfg.ResourceID, "channel", feedCfg.Channel)

	data, err := s.fetcher.Fetch(ctx, feedCfg.Channel, feedCfg.URL)
	if err != nil {
		logger.Error("Fetch operation failed", "error", err)
		return nil, &Error{
			Err:             err,
			Message:         fmt.Sprintf("Fetch failed: %v", err),
			ConditionType:   ConditionSourceAvailable,
			ConditionReason: conditionReasonFetchFailed,
		}
	}

	hash := feed.Hash(data)
	if !IsDataChanged(hash, syncStatus) {
		logger.Debug("Feed unchanged since last sync")
		result := &Result{Hash: hash, Unchanged: true}
		if syncStatus != nil {
			result.EventCount = syncStatus.EventCount
		}
		return result, nil
	}

	parsed, err := feed.Parse(data)
	if err != nil {
		logger.Error("Feed could not be decoded", "error", err)
		return nil, &Error{
			Err:             err,
			Message:         fmt.Sprintf("Parse failed: %v", err),
			ConditionType:   ConditionDataValid,
			ConditionReason: conditionReasonParseFailed,
		}
	}
	for _, skipped := range parsed.Skipped {
		logger.Warn("Skipped calendar entry", "error", skipped)
	}

	appliedAt := s.clock.Now()
	today := civil.DateOf(appliedAt.In(s.location))
	merged, err := s.merger.ApplyFeed(ctx, feedCfg.ResourceID, feedCfg.Channel, parsed, today)
	if err != nil {
		logger.Error("Merge failed", "error", err)
		return nil, &Error{
			Err:             err,
			Message:         fmt.Sprintf("Merge failed: %v", err),
			ConditionType:   ConditionSyncSuccessful,
			ConditionReason: conditionReasonMergeFailed,
		}
	}

	if s.recorder != nil {
		s.recorder.RecordMutations(ctx, string(feedCfg.Channel), merged.Created, merged.Updated, merged.Cancelled)
	}

	logger.Info("Feed merged",
		"events", len(parsed.Events),
		"created", merged.Created,
		"updated", merged.Updated,
		"cancelled", merged.Cancelled)

	return &Result{
		Hash:       hash,
		EventCount: len(parsed.Events),
		Merge:      merged,
		AppliedAt:  appliedAt,
	}, nil
}
