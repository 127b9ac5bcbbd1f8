// Package enrichment finds the confirmation number of bookings that arrived
// through a channel without one, by searching the confirmation archive a
// bounded number of times after the booking was created.
package enrichment

//go:generate mockgen -destination=mocks/mock_scheduler.go -package=mocks -source=scheduler.go CollisionHandler,Alerter,OutcomeRecorder

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"k8s.io/utils/clock"

	"github.com/pickarooms/reservations-server/internal/booking"
	"github.com/pickarooms/reservations-server/internal/config"
	"github.com/pickarooms/reservations-server/internal/store"
)

// CollisionHandler takes over arrival dates with competing references
type CollisionHandler interface {
	OpenCollision(ctx context.Context, c *booking.AmbiguousMatchError, bookingIDs []uuid.UUID) error
}

// Alerter notifies operators
type Alerter interface {
	Alert(ctx context.Context, body string) error
}

// OutcomeRecorder observes attempt outcomes, e.g. for metrics
type OutcomeRecorder interface {
	RecordEnrichment(ctx context.Context, outcome string)
}

// Settings are the search parameters of an attempt
type Settings struct {
	// Schedule holds the delay of every attempt after the booking was created
	Schedule            []time.Duration
	Sender              string
	Lookback            time.Duration
	MaxResults          int
	CollisionMaxResults int
}

// SettingsFromConfig reads the settings from the configuration, applying defaults
func SettingsFromConfig(cfg *config.Config) Settings {
	archive := cfg.Archive
	if archive == nil {
		archive = &config.ArchiveConfig{}
	}
	return Settings{
		Schedule:            cfg.GetRetrySchedule(),
		Sender:              archive.GetSender(),
		Lookback:            archive.GetLookback(),
		MaxResults:          archive.GetMaxResults(),
		CollisionMaxResults: archive.GetCollisionMaxResults(),
	}
}

// Horizon returns the delay of the last attempt
func (s Settings) Horizon() time.Duration {
	if len(s.Schedule) == 0 {
		return 0
	}
	return s.Schedule[len(s.Schedule)-1]
}

// Option configures a Scheduler
type Option func(*Scheduler)

// WithClock sets the clock driving the delayed attempts
func WithClock(c clock.WithDelayedExecution) Option {
	return func(s *Scheduler) {
		s.clock = c
	}
}

// WithOutcomeRecorder registers an observer of attempt outcomes
func WithOutcomeRecorder(r OutcomeRecorder) Option {
	return func(s *Scheduler) {
		s.recorder = r
	}
}

// Scheduler runs the delayed enrichment attempts. Each booking has at most
// one pending attempt; attempts of different bookings run independently.
type Scheduler struct {
	finder   *Finder
	store    store.Store
	settings Settings
	clock    clock.WithDelayedExecution
	recorder OutcomeRecorder

	mu      sync.Mutex
	ctx     context.Context
	cancel  context.CancelFunc
	pending map[uuid.UUID]clock.Timer
	wg      sync.WaitGroup
}

// NewScheduler creates a scheduler
func NewScheduler(finder *Finder, s store.Store, settings Settings, opts ...Option) *Scheduler {
	sched := &Scheduler{
		finder:   finder,
		store:    s,
		settings: settings,
		clock:    clock.RealClock{},
		pending:  make(map[uuid.UUID]clock.Timer),
	}
	for _, opt := range opts {
		opt(sched)
	}
	return sched
}

// Start enables scheduling and re-schedules the remaining attempts of every
// unenriched booking still inside the retry horizon
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.ctx != nil {
		s.mu.Unlock()
		return fmt.Errorf("enrichment scheduler already started")
	}
	s.ctx, s.cancel = context.WithCancel(ctx)
	s.mu.Unlock()

	since := s.clock.Now().Add(-s.settings.Horizon())
	rows, err := s.store.ListBookings(ctx, booking.Filter{
		Statuses:         []booking.Status{booking.StatusConfirmed},
		WithoutReference: true,
		CreatedAfter:     &since,
	})
	if err != nil {
		return fmt.Errorf("failed to list unenriched bookings: %w", err)
	}
	for _, b := range rows {
		s.Schedule(b.ID, b.CreatedAt)
	}
	slog.Info("Enrichment scheduler started", "recovered", len(rows))
	return nil
}

// Stop cancels every pending attempt and waits for running ones
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
	}
	for id := range s.pending {
		s.stopLocked(id)
	}
	s.mu.Unlock()
	s.wg.Wait()
}

// Schedule arranges the next due attempt for a booking created at createdAt.
// Attempts whose time has passed are skipped; a booking past the horizon
// is not scheduled at all.
func (s *Scheduler) Schedule(id uuid.UUID, createdAt time.Time) {
	s.scheduleFrom(id, createdAt, 0)
}

func (s *Scheduler) scheduleFrom(id uuid.UUID, createdAt time.Time, first int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ctx == nil || s.ctx.Err() != nil {
		return
	}

	now := s.clock.Now()
	for i := first; i < len(s.settings.Schedule); i++ {
		due := createdAt.Add(s.settings.Schedule[i])
		if due.Before(now) {
			continue
		}
		s.stopLocked(id)
		attempt := i + 1
		ctx := s.ctx
		var timer clock.Timer
		s.wg.Add(1)
		timer = s.clock.AfterFunc(due.Sub(now), func() {
			defer s.wg.Done()
			s.mu.Lock()
			if s.pending[id] == timer {
				delete(s.pending, id)
			}
			s.mu.Unlock()
			s.fire(ctx, id, createdAt, attempt)
		})
		s.pending[id] = timer
		return
	}
}

// Cancel drops the pending attempt of a booking
func (s *Scheduler) Cancel(id uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopLocked(id)
}

// stopLocked stops the pending timer of id. s.mu must be held.
func (s *Scheduler) stopLocked(id uuid.UUID) {
	t, ok := s.pending[id]
	if !ok {
		return
	}
	if t.Stop() {
		s.wg.Done()
	}
	delete(s.pending, id)
}

// Pending reports whether an attempt is scheduled for the booking
func (s *Scheduler) Pending(id uuid.UUID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.pending[id]
	return ok
}

func (s *Scheduler) fire(ctx context.Context, id uuid.UUID, createdAt time.Time, attempt int) {
	if ctx.Err() != nil {
		return
	}

	last := attempt == len(s.settings.Schedule)
	result, err := s.finder.Attempt(ctx, id, attempt, last)
	if err != nil {
		slog.Error("Enrichment attempt failed", "booking_id", id, "attempt", attempt, "error", err)
	}
	if s.recorder != nil {
		s.recorder.RecordEnrichment(ctx, string(result.Outcome))
	}

	if result.Outcome.Final() {
		for _, other := range result.BookingIDs {
			if other != id {
				s.Cancel(other)
			}
		}
		return
	}
	s.scheduleFrom(id, createdAt, attempt)
}
