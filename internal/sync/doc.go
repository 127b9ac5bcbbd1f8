// Package sync decides when each calendar feed needs to be synchronized and
// performs the synchronization.
//
// # Core Interfaces
//
//   - Manager: decides whether a feed is due and runs one feed sync
//   - AutomaticSyncChecker: time-based scheduling from the feed interval
//   - FeedFetcher and FeedMerger: the transport and merge steps of a sync
//
// # Coordinator Package
//
// The sync/coordinator subpackage schedules syncs in the background. It runs
// due feeds on a bounded worker pool, persists their status through
// sync/state and runs the follow-up work of a round: cancellation events,
// enrichment of new rows and retention.
//
// # Sync Decision Making
//
// Manager.ShouldSync returns a Reason that encodes whether a sync is needed:
//
//   - ReasonAlreadyInProgress: a sync of the feed is running
//   - ReasonFeedNotReady: first sync or recovery from a failure
//   - ReasonIntervalElapsed: the feed interval has passed since the last attempt
//   - ReasonManual: a sync was requested through the API
//   - ReasonUpToDate: nothing to do
//
// PerformSync hashes the fetched body and skips the merge when it matches the
// hash of the last applied body, so an unchanged feed costs one download.
//
// # Errors
//
// PerformSync reports failures as *Error, carrying a condition type and
// reason that end up in the persisted feed status.
package sync
