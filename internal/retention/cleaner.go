// Package retention bounds the operator logs and removes booking rows and
// check-in flows nobody will act on again.
package retention

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"cloud.google.com/go/civil"
	"k8s.io/utils/clock"

	"github.com/pickarooms/reservations-server/internal/booking"
	"github.com/pickarooms/reservations-server/internal/config"
	"github.com/pickarooms/reservations-server/internal/store"
)

// Result counts what one run removed
type Result struct {
	LogEntries     int
	CancelledRows  int
	UnenrichedRows int
	Flows          int
}

// Option configures a Cleaner
type Option func(*Cleaner)

// WithClock sets the clock used for cut-offs
func WithClock(c clock.PassiveClock) Option {
	return func(cl *Cleaner) {
		cl.clock = c
	}
}

// WithLocation sets the operating timezone
func WithLocation(loc *time.Location) Option {
	return func(cl *Cleaner) {
		cl.location = loc
	}
}

// Cleaner applies the retention policy
type Cleaner struct {
	store    store.Store
	policy   config.Retention
	clock    clock.PassiveClock
	location *time.Location

	mu      sync.Mutex
	lastRun time.Time
}

// New creates a cleaner
func New(s store.Store, policy config.Retention, opts ...Option) *Cleaner {
	c := &Cleaner{
		store:    s,
		policy:   policy,
		clock:    clock.RealClock{},
		location: time.UTC,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// RunIfDue runs the cleaner when the policy interval has elapsed since the
// last successful run. ran is false when it was not due.
func (c *Cleaner) RunIfDue(ctx context.Context) (result Result, ran bool, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.clock.Now()
	if !c.lastRun.IsZero() && now.Sub(c.lastRun) < c.policy.Interval {
		return Result{}, false, nil
	}
	result, err = c.run(ctx, now)
	if err != nil {
		return result, true, err
	}
	c.lastRun = now
	return result, true, nil
}

// Run applies the policy now
func (c *Cleaner) Run(ctx context.Context) (Result, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.clock.Now()
	result, err := c.run(ctx, now)
	if err == nil {
		c.lastRun = now
	}
	return result, err
}

func (c *Cleaner) run(ctx context.Context, now time.Time) (Result, error) {
	var result Result
	today := civil.DateOf(now.In(c.location))
	cancelledCutoff := today.AddDays(-c.policy.CancelledGraceDays)
	unenrichedCutoff := today.AddDays(-c.policy.UnenrichedGraceDays)

	err := c.store.WithTx(ctx, func(ctx context.Context, tx store.Tx) error {
		result = Result{}

		pruned, err := tx.PruneLogs(ctx, now.Add(-c.policy.LogTTL), c.policy.MaxLogEntries)
		if err != nil {
			return fmt.Errorf("failed to prune logs: %w", err)
		}
		result.LogEntries = pruned

		result.CancelledRows, err = deleteRows(ctx, tx, booking.Filter{
			Statuses:        []booking.Status{booking.StatusCancelled},
			WithoutProfile:  true,
			DepartureBefore: &cancelledCutoff,
		})
		if err != nil {
			return fmt.Errorf("failed to delete cancelled rows: %w", err)
		}

		result.UnenrichedRows, err = deleteRows(ctx, tx, booking.Filter{
			Statuses:        []booking.Status{booking.StatusConfirmed, booking.StatusPending},
			WithoutProfile:  true,
			DepartureBefore: &unenrichedCutoff,
		})
		if err != nil {
			return fmt.Errorf("failed to delete unenriched rows: %w", err)
		}

		result.Flows, err = tx.DeleteExpiredCheckinFlows(ctx, now)
		if err != nil {
			return fmt.Errorf("failed to delete expired check-in flows: %w", err)
		}
		return nil
	})
	if err != nil {
		return Result{}, err
	}

	slog.Info("Retention run completed",
		"log_entries", result.LogEntries,
		"cancelled_rows", result.CancelledRows,
		"unenriched_rows", result.UnenrichedRows,
		"checkin_flows", result.Flows)
	return result, nil
}

func deleteRows(ctx context.Context, tx store.Tx, filter booking.Filter) (int, error) {
	rows, err := tx.ListBookings(ctx, filter)
	if err != nil {
		return 0, err
	}
	for _, row := range rows {
		if err := tx.DeleteBooking(ctx, row.ID); err != nil {
			return 0, err
		}
	}
	return len(rows), nil
}
