// Package coordinator provides background synchronization of the calendar
// feeds.
//
// The coordinator sits on top of sync.Manager and handles:
//
//   - Periodic rounds on a jittered interval, plus rounds requested through
//     Trigger
//   - A bounded worker pool, so feeds sync in parallel but each feed has at
//     most one sync in flight
//   - Status persistence through sync/state
//   - The follow-up work of a round: enrichment for rows created without a
//     reference, draining cancellation events and retention
//   - Graceful shutdown
//
// # Usage Example
//
//	coord := coordinator.New(manager, stateSvc, cfg,
//	    coordinator.WithSyncMetrics(syncMetrics),
//	    coordinator.WithEnrichmentScheduler(scheduler),
//	    coordinator.WithEventDrainer(cancellationHandler),
//	    coordinator.WithRetention(cleaner),
//	)
//	go func() {
//	    if err := coord.Start(ctx); err != nil {
//	        slog.Error("Sync coordinator failed", "error", err)
//	    }
//	}()
//	defer coord.Stop()
//
// A claim on a feed is taken atomically through the state service by moving
// its status to the syncing phase, which ShouldSync refuses to sync again.
package coordinator
