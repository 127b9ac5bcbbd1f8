package coordinator

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/pickarooms/reservations-server/internal/config"
	"github.com/pickarooms/reservations-server/internal/otel"
	"github.com/pickarooms/reservations-server/internal/status"
	pkgsync "github.com/pickarooms/reservations-server/internal/sync"
)

// runRound syncs every due feed on the worker pool, then runs the
// follow-up work of the round
func (c *defaultCoordinator) runRound(ctx context.Context, manual map[string]bool) {
	var (
		mu      sync.Mutex
		results []*pkgsync.Result
		g       errgroup.Group
	)
	g.SetLimit(c.workers)

	for i := range c.feeds {
		if ctx.Err() != nil {
			break
		}
		feedCfg := &c.feeds[i]
		g.Go(func() error {
			result := c.checkFeedSync(ctx, feedCfg, manual[feedCfg.Name])
			if result != nil {
				mu.Lock()
				results = append(results, result)
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()

	if ctx.Err() != nil {
		return
	}
	c.afterRound(ctx, results)
}

// checkFeedSync claims the feed if it needs a sync and performs it. It
// returns the result of a successful sync, or nil.
func (c *defaultCoordinator) checkFeedSync(
	ctx context.Context, feedCfg *config.Feed, manual bool,
) *pkgsync.Result {
	var (
		reason  pkgsync.Reason
		claimed status.SyncStatus
	)
	ok, err := c.statusSvc.UpdateStatusAtomically(ctx, feedCfg.Name, func(syncStatus *status.SyncStatus) bool {
		reason = c.manager.ShouldSync(ctx, feedCfg, syncStatus, manual)
		if !reason.ShouldSync() {
			return false
		}
		now := c.clock.Now()
		syncStatus.Phase = status.SyncPhaseSyncing
		syncStatus.Message = "Sync in progress"
		syncStatus.LastAttempt = &now
		syncStatus.AttemptCount++
		claimed = *syncStatus
		return true
	})
	if err != nil {
		slog.Error("Error claiming feed for sync", "feed", feedCfg.Name, "error", err)
		return nil
	}
	if !ok {
		slog.Debug("Feed does not need sync", "feed", feedCfg.Name, "reason", reason.String())
		return nil
	}

	slog.Info("Starting sync operation", "feed", feedCfg.Name, "reason", reason.String())
	return c.performFeedSync(ctx, feedCfg, &claimed)
}

// performFeedSync executes the sync of a claimed feed and always persists
// its final status
func (c *defaultCoordinator) performFeedSync(
	ctx context.Context, feedCfg *config.Feed, claimed *status.SyncStatus,
) *pkgsync.Result {
	startTime := c.clock.Now()

	ctx, span := otel.StartSpan(ctx, c.tracer, "sync.PerformSync",
		trace.WithAttributes(
			otel.AttrFeedName.String(feedCfg.Name),
			otel.AttrFeedChannel.String(string(feedCfg.Channel)),
			otel.AttrResourceID.String(feedCfg.ResourceID),
		),
	)
	defer span.End()

	// Set a default error here in case the sync panics
	syncStatus := *claimed
	syncStatus.Phase = status.SyncPhaseFailed
	syncStatus.Message = fmt.Sprintf("Unexpected failure while syncing feed %s", feedCfg.Name)
	defer func() {
		// the round context may be cancelled by now, but the claim must be released
		if err := c.statusSvc.UpdateSyncStatus(context.WithoutCancel(ctx), feedCfg.Name, &syncStatus); err != nil {
			slog.Error("Error updating sync status", "feed", feedCfg.Name, "error", err)
		}
	}()

	result, syncErr := c.manager.PerformSync(ctx, feedCfg, claimed)

	now := c.clock.Now()
	syncDuration := now.Sub(startTime)

	if syncErr != nil {
		otel.RecordError(span, syncErr)
		syncStatus.Message = syncErr.Message
		slog.Error("Sync failed",
			"feed", feedCfg.Name,
			"transient", syncErr.Transient(),
			"error", syncErr.Message)
		c.syncMetrics.RecordSyncDuration(ctx, feedCfg.Name, syncDuration, false)
		return nil
	}

	syncStatus.Phase = status.SyncPhaseComplete
	syncStatus.Message = "Sync completed successfully"
	if result.Unchanged {
		syncStatus.Message = "Feed unchanged since last sync"
	}
	syncStatus.LastSyncTime = &now
	syncStatus.LastSyncHash = result.Hash
	syncStatus.EventCount = result.EventCount
	syncStatus.AttemptCount = 0

	span.SetAttributes(
		otel.AttrEventCount.Int(result.EventCount),
		otel.AttrUnchanged.Bool(result.Unchanged),
	)
	if result.Merge != nil {
		span.SetAttributes(
			otel.AttrCreated.Int(result.Merge.Created),
			otel.AttrUpdated.Int(result.Merge.Updated),
			otel.AttrCancelled.Int(result.Merge.Cancelled),
		)
	}

	hashPreview := result.Hash
	if len(hashPreview) > 8 {
		hashPreview = hashPreview[:8]
	}
	slog.Info("Sync completed successfully",
		"feed", feedCfg.Name,
		"event_count", result.EventCount,
		"unchanged", result.Unchanged,
		"hash", hashPreview)
	c.syncMetrics.RecordSyncDuration(ctx, feedCfg.Name, syncDuration, true)
	return result
}

// afterRound schedules enrichment for new rows, drains status events and
// runs retention when due. Failures are logged and retried next round.
func (c *defaultCoordinator) afterRound(ctx context.Context, results []*pkgsync.Result) {
	if c.scheduler != nil {
		for _, result := range results {
			for _, id := range result.NewUnenriched() {
				c.scheduler.Schedule(id, result.AppliedAt)
			}
		}
	}

	if c.drainer != nil {
		drained, err := c.drainer.Drain(ctx)
		if err != nil {
			slog.Error("Failed to drain booking events", "error", err)
		} else if drained.Events > 0 {
			slog.Info("Drained booking events",
				"events", drained.Events,
				"profiles_deleted", drained.ProfilesDeleted)
		}
	}

	if c.retention != nil {
		cleaned, ran, err := c.retention.RunIfDue(ctx)
		switch {
		case err != nil:
			slog.Error("Retention failed", "error", err)
		case ran:
			slog.Info("Retention completed",
				"log_entries", cleaned.LogEntries,
				"cancelled_rows", cleaned.CancelledRows,
				"unenriched_rows", cleaned.UnenrichedRows,
				"checkin_flows", cleaned.Flows)
		}
	}
}
