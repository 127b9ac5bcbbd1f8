package coordinator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
	"k8s.io/utils/clock"

	"github.com/pickarooms/reservations-server/internal/cancellation"
	"github.com/pickarooms/reservations-server/internal/config"
	"github.com/pickarooms/reservations-server/internal/retention"
	pkgsync "github.com/pickarooms/reservations-server/internal/sync"
	"github.com/pickarooms/reservations-server/internal/sync/state"
	"github.com/pickarooms/reservations-server/internal/telemetry"
)

// ErrUnknownFeed is returned by Trigger for a feed that is not configured
var ErrUnknownFeed = errors.New("unknown feed")

// Coordinator manages background synchronization of the configured feeds
//
//go:generate mockgen -destination=mocks/mock_coordinator.go -package=mocks github.com/pickarooms/reservations-server/internal/sync/coordinator Coordinator
type Coordinator interface {
	// Start begins background sync coordination for all feeds.
	// Blocks until context is cancelled or an unrecoverable error occurs.
	Start(ctx context.Context) error

	// Stop gracefully stops the coordinator and waits for the running round
	Stop() error

	// Trigger requests a manual sync of one feed, or of every feed when
	// feed is empty. The sync runs in the next round, which starts at once
	// unless a round is already running.
	Trigger(feed string) error
}

// EventDrainer consumes the booking status event log
type EventDrainer interface {
	Drain(ctx context.Context) (cancellation.Result, error)
}

// EnrichmentScheduler arranges enrichment of rows created without a reference
type EnrichmentScheduler interface {
	Schedule(id uuid.UUID, createdAt time.Time)
}

// RetentionRunner performs periodic cleanup
type RetentionRunner interface {
	RunIfDue(ctx context.Context) (retention.Result, bool, error)
}

// defaultCoordinator is the default implementation of Coordinator
type defaultCoordinator struct {
	manager      pkgsync.Manager
	statusSvc    state.FeedStateService
	feeds        []config.Feed
	workers      int
	pollInterval time.Duration
	clock        clock.Clock

	drainer   EventDrainer
	scheduler EnrichmentScheduler
	retention RetentionRunner

	syncMetrics *telemetry.SyncMetrics
	tracer      trace.Tracer

	// Manual sync requests, consumed by the next round
	mu     sync.Mutex
	manual map[string]bool
	wake   chan struct{}

	// Lifecycle management
	cancelFunc context.CancelFunc
	done       chan struct{}
}

// Option is a function that configures the coordinator
type Option func(*defaultCoordinator)

// WithSyncMetrics sets the sync metrics for the coordinator
func WithSyncMetrics(metrics *telemetry.SyncMetrics) Option {
	return func(c *defaultCoordinator) {
		c.syncMetrics = metrics
	}
}

// WithTracer records a span per feed sync
func WithTracer(tracer trace.Tracer) Option {
	return func(c *defaultCoordinator) {
		c.tracer = tracer
	}
}

// WithClock sets the clock driving the polling timer and status timestamps
func WithClock(clk clock.Clock) Option {
	return func(c *defaultCoordinator) {
		c.clock = clk
	}
}

// WithEventDrainer drains the status event log after every round
func WithEventDrainer(d EventDrainer) Option {
	return func(c *defaultCoordinator) {
		c.drainer = d
	}
}

// WithEnrichmentScheduler schedules enrichment for rows created by a round
func WithEnrichmentScheduler(s EnrichmentScheduler) Option {
	return func(c *defaultCoordinator) {
		c.scheduler = s
	}
}

// WithRetention runs retention after a round when it is due
func WithRetention(r RetentionRunner) Option {
	return func(c *defaultCoordinator) {
		c.retention = r
	}
}

// New creates a new coordinator with injected dependencies
func New(
	manager pkgsync.Manager,
	statusSvc state.FeedStateService,
	cfg *config.Config,
	opts ...Option,
) Coordinator {
	c := &defaultCoordinator{
		manager:      manager,
		statusSvc:    statusSvc,
		feeds:        cfg.Feeds(),
		workers:      cfg.GetSyncWorkers(),
		pollInterval: cfg.GetPollInterval(),
		clock:        clock.RealClock{},
		manual:       make(map[string]bool),
		wake:         make(chan struct{}, 1),
		done:         make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Start begins background sync coordination for all feeds
func (c *defaultCoordinator) Start(ctx context.Context) error {
	slog.Info("Starting background sync coordinator", "feed_count", len(c.feeds), "workers", c.workers)

	coordCtx, cancel := context.WithCancel(ctx)
	c.mu.Lock()
	c.cancelFunc = cancel
	c.mu.Unlock()
	defer func() {
		cancel()
		close(c.done)
		slog.Info("Background sync coordinator shutting down")
	}()

	if err := c.statusSvc.Initialize(coordCtx, c.feeds); err != nil {
		return fmt.Errorf("failed to initialize feed sync status: %w", err)
	}

	interval := pollingInterval(c.pollInterval)
	slog.Info("Configured coordinator sync interval",
		"base_interval", c.pollInterval,
		"actual_interval", interval)

	timer := c.clock.NewTimer(interval)
	defer timer.Stop()

	// Perform initial round
	c.runRound(coordCtx, c.takeManual())

	for {
		select {
		case <-timer.C():
			c.runRound(coordCtx, c.takeManual())
			timer.Reset(pollingInterval(c.pollInterval))
		case <-c.wake:
			c.runRound(coordCtx, c.takeManual())
		case <-coordCtx.Done():
			slog.Info("Sync coordinator stopping")
			return nil
		}
	}
}

// Stop gracefully stops the coordinator
func (c *defaultCoordinator) Stop() error {
	c.mu.Lock()
	cancel := c.cancelFunc
	c.mu.Unlock()

	if cancel != nil {
		slog.Info("Stopping sync coordinator")
		cancel()
		<-c.done
	}
	return nil
}

// Trigger requests a manual sync
func (c *defaultCoordinator) Trigger(feed string) error {
	c.mu.Lock()
	if feed == "" {
		for _, f := range c.feeds {
			c.manual[f.Name] = true
		}
	} else {
		if !c.configured(feed) {
			c.mu.Unlock()
			return fmt.Errorf("%w: %s", ErrUnknownFeed, feed)
		}
		c.manual[feed] = true
	}
	c.mu.Unlock()

	select {
	case c.wake <- struct{}{}:
	default:
		// a round is already pending and will pick up the request
	}
	return nil
}

func (c *defaultCoordinator) configured(feed string) bool {
	for _, f := range c.feeds {
		if f.Name == feed {
			return true
		}
	}
	return false
}

// takeManual returns and clears the pending manual requests
func (c *defaultCoordinator) takeManual() map[string]bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	manual := maps.Clone(c.manual)
	clear(c.manual)
	return manual
}
