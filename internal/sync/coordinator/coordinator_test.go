package coordinator

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/mock/gomock"
	clocktesting "k8s.io/utils/clock/testing"

	"github.com/pickarooms/reservations-server/internal/canonical"
	"github.com/pickarooms/reservations-server/internal/cancellation"
	"github.com/pickarooms/reservations-server/internal/config"
	"github.com/pickarooms/reservations-server/internal/otel"
	"github.com/pickarooms/reservations-server/internal/retention"
	"github.com/pickarooms/reservations-server/internal/status"
	pkgsync "github.com/pickarooms/reservations-server/internal/sync"
	syncmocks "github.com/pickarooms/reservations-server/internal/sync/mocks"
	"github.com/pickarooms/reservations-server/internal/sync/state"
	statemocks "github.com/pickarooms/reservations-server/internal/sync/state/mocks"
	"github.com/pickarooms/reservations-server/internal/store/inmemory"
)

const (
	bookingFeed = "room-1/booking"
	airbnbFeed  = "room-1/airbnb"
)

var testNow = time.Date(2025, time.June, 1, 12, 0, 0, 0, time.UTC)

func testConfig() *config.Config {
	return &config.Config{
		Resources: []config.ResourceConfig{{
			ID:     "room-1",
			Name:   "Room 1",
			Number: 1,
			Feeds: []config.FeedConfig{
				{Channel: "booking", URL: "https://example.com/booking.ics", Interval: "10m"},
				{Channel: "airbnb", URL: "https://example.com/airbnb.ics", Interval: "10m"},
			},
		}},
		Sync: &config.SyncConfig{Workers: 2, PollInterval: "1m"},
	}
}

type fakeDrainer struct {
	calls atomic.Int32
}

func (d *fakeDrainer) Drain(context.Context) (cancellation.Result, error) {
	d.calls.Add(1)
	return cancellation.Result{}, nil
}

type fakeRetention struct {
	calls atomic.Int32
}

func (r *fakeRetention) RunIfDue(context.Context) (retention.Result, bool, error) {
	r.calls.Add(1)
	return retention.Result{}, false, nil
}

type fakeScheduler struct {
	mu        sync.Mutex
	scheduled map[uuid.UUID]time.Time
}

func (s *fakeScheduler) Schedule(id uuid.UUID, createdAt time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.scheduled == nil {
		s.scheduled = map[uuid.UUID]time.Time{}
	}
	s.scheduled[id] = createdAt
}

func newTestCoordinator(manager pkgsync.Manager, statusSvc state.FeedStateService, opts ...Option) *defaultCoordinator {
	opts = append([]Option{WithClock(clocktesting.NewFakeClock(testNow))}, opts...)
	return New(manager, statusSvc, testConfig(), opts...).(*defaultCoordinator)
}

func TestPollingInterval(t *testing.T) {
	t.Parallel()

	base := 2 * time.Minute
	for range 100 {
		got := pollingInterval(base)
		assert.GreaterOrEqual(t, got, base-base/4)
		assert.Less(t, got, base+base/4)
	}
	assert.Equal(t, time.Duration(0), pollingInterval(0))
}

func TestNew(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	coord := newTestCoordinator(syncmocks.NewMockManager(ctrl), statemocks.NewMockFeedStateService(ctrl))

	require.Len(t, coord.feeds, 2)
	assert.Equal(t, bookingFeed, coord.feeds[0].Name)
	assert.Equal(t, 2, coord.workers)
	assert.Equal(t, time.Minute, coord.pollInterval)
}

func TestStopBeforeStart(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	coord := newTestCoordinator(syncmocks.NewMockManager(ctrl), statemocks.NewMockFeedStateService(ctrl))
	assert.NoError(t, coord.Stop())
}

func TestCheckFeedSyncNotDue(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	manager := syncmocks.NewMockManager(ctrl)
	stateSvc := statemocks.NewMockFeedStateService(ctrl)
	coord := newTestCoordinator(manager, stateSvc)
	feedCfg := &coord.feeds[0]

	stateSvc.EXPECT().
		UpdateStatusAtomically(gomock.Any(), bookingFeed, gomock.Any()).
		DoAndReturn(func(_ context.Context, _ string, fn func(*status.SyncStatus) bool) (bool, error) {
			testStatus := &status.SyncStatus{Phase: status.SyncPhaseComplete}
			manager.EXPECT().
				ShouldSync(gomock.Any(), feedCfg, testStatus, false).
				Return(pkgsync.ReasonUpToDate)
			result := fn(testStatus)
			assert.Equal(t, status.SyncPhaseComplete, testStatus.Phase)
			return result, nil
		})
	manager.EXPECT().PerformSync(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

	assert.Nil(t, coord.checkFeedSync(context.Background(), feedCfg, false))
}

func TestCheckFeedSyncSuccess(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	manager := syncmocks.NewMockManager(ctrl)
	stateSvc := statemocks.NewMockFeedStateService(ctrl)
	coord := newTestCoordinator(manager, stateSvc)
	feedCfg := &coord.feeds[0]

	stateSvc.EXPECT().
		UpdateStatusAtomically(gomock.Any(), bookingFeed, gomock.Any()).
		DoAndReturn(func(_ context.Context, _ string, fn func(*status.SyncStatus) bool) (bool, error) {
			testStatus := &status.SyncStatus{Phase: status.SyncPhaseFailed, AttemptCount: 2}
			manager.EXPECT().
				ShouldSync(gomock.Any(), feedCfg, testStatus, true).
				Return(pkgsync.ReasonManual)
			result := fn(testStatus)
			assert.Equal(t, status.SyncPhaseSyncing, testStatus.Phase)
			assert.Equal(t, "Sync in progress", testStatus.Message)
			assert.Equal(t, 3, testStatus.AttemptCount)
			assert.Equal(t, testNow, *testStatus.LastAttempt)
			return result, nil
		})
	manager.EXPECT().
		PerformSync(gomock.Any(), feedCfg, gomock.Cond(func(s *status.SyncStatus) bool {
			return s.Phase == status.SyncPhaseSyncing
		})).
		Return(&pkgsync.Result{Hash: "test-hash-123", EventCount: 42}, nil)
	stateSvc.EXPECT().
		UpdateSyncStatus(gomock.Any(), bookingFeed, gomock.Any()).
		Do(func(_ context.Context, _ string, syncStatus *status.SyncStatus) {
			assert.Equal(t, status.SyncPhaseComplete, syncStatus.Phase)
			assert.Equal(t, "Sync completed successfully", syncStatus.Message)
			assert.Equal(t, "test-hash-123", syncStatus.LastSyncHash)
			assert.Equal(t, 42, syncStatus.EventCount)
			assert.Equal(t, 0, syncStatus.AttemptCount)
			assert.NotNil(t, syncStatus.LastSyncTime)
		})

	result := coord.checkFeedSync(context.Background(), feedCfg, true)
	require.NotNil(t, result)
	assert.Equal(t, "test-hash-123", result.Hash)
}

func TestCheckFeedSyncFailure(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	manager := syncmocks.NewMockManager(ctrl)
	stateSvc := statemocks.NewMockFeedStateService(ctrl)
	coord := newTestCoordinator(manager, stateSvc)
	feedCfg := &coord.feeds[1]
	lastSync := testNow.Add(-time.Hour)

	stateSvc.EXPECT().
		UpdateStatusAtomically(gomock.Any(), airbnbFeed, gomock.Any()).
		DoAndReturn(func(_ context.Context, _ string, fn func(*status.SyncStatus) bool) (bool, error) {
			testStatus := &status.SyncStatus{
				Phase:        status.SyncPhaseComplete,
				LastSyncHash: "previous",
				LastSyncTime: &lastSync,
				EventCount:   3,
			}
			manager.EXPECT().
				ShouldSync(gomock.Any(), feedCfg, testStatus, false).
				Return(pkgsync.ReasonIntervalElapsed)
			return fn(testStatus), nil
		})
	manager.EXPECT().
		PerformSync(gomock.Any(), feedCfg, gomock.Any()).
		Return(nil, &pkgsync.Error{Message: "Fetch failed: timeout"})
	stateSvc.EXPECT().
		UpdateSyncStatus(gomock.Any(), airbnbFeed, gomock.Any()).
		Do(func(_ context.Context, _ string, syncStatus *status.SyncStatus) {
			assert.Equal(t, status.SyncPhaseFailed, syncStatus.Phase)
			assert.Equal(t, "Fetch failed: timeout", syncStatus.Message)
			assert.Equal(t, 1, syncStatus.AttemptCount)
			assert.Equal(t, "previous", syncStatus.LastSyncHash)
			assert.Equal(t, lastSync, *syncStatus.LastSyncTime)
			assert.Equal(t, 3, syncStatus.EventCount)
		})

	assert.Nil(t, coord.checkFeedSync(context.Background(), feedCfg, false))
}

func TestCheckFeedSyncClaimError(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	manager := syncmocks.NewMockManager(ctrl)
	stateSvc := statemocks.NewMockFeedStateService(ctrl)
	coord := newTestCoordinator(manager, stateSvc)

	stateSvc.EXPECT().
		UpdateStatusAtomically(gomock.Any(), bookingFeed, gomock.Any()).
		Return(false, errors.New("database unavailable"))
	manager.EXPECT().PerformSync(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

	assert.Nil(t, coord.checkFeedSync(context.Background(), &coord.feeds[0], false))
}

func TestRunRoundSchedulesEnrichmentAndRunsHooks(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	ctrl := gomock.NewController(t)
	manager := syncmocks.NewMockManager(ctrl)
	stateSvc := state.NewStoreStateService(inmemory.New())

	drainer := &fakeDrainer{}
	cleaner := &fakeRetention{}
	scheduler := &fakeScheduler{}
	coord := newTestCoordinator(manager, stateSvc,
		WithEventDrainer(drainer),
		WithRetention(cleaner),
		WithEnrichmentScheduler(scheduler),
	)
	require.NoError(t, stateSvc.Initialize(ctx, coord.feeds))

	created := uuid.New()
	appliedAt := testNow.Add(time.Second)

	manager.EXPECT().
		ShouldSync(gomock.Any(), gomock.Any(), gomock.Any(), false).
		DoAndReturn(func(_ context.Context, feedCfg *config.Feed, _ *status.SyncStatus, _ bool) pkgsync.Reason {
			if feedCfg.Name == bookingFeed {
				return pkgsync.ReasonFeedNotReady
			}
			return pkgsync.ReasonUpToDate
		}).
		Times(2)
	manager.EXPECT().
		PerformSync(gomock.Any(), gomock.Cond(func(f *config.Feed) bool { return f.Name == bookingFeed }), gomock.Any()).
		Return(&pkgsync.Result{
			Hash:       "h1",
			EventCount: 1,
			Merge:      &canonical.Result{Created: 1, NewUnenriched: []uuid.UUID{created}},
			AppliedAt:  appliedAt,
		}, nil)

	coord.runRound(ctx, nil)

	assert.Equal(t, map[uuid.UUID]time.Time{created: appliedAt}, scheduler.scheduled)
	assert.Equal(t, int32(1), drainer.calls.Load())
	assert.Equal(t, int32(1), cleaner.calls.Load())

	statuses, err := stateSvc.ListSyncStatuses(ctx)
	require.NoError(t, err)
	assert.Equal(t, status.SyncPhaseComplete, statuses[bookingFeed].Phase)
	assert.Equal(t, "h1", statuses[bookingFeed].LastSyncHash)
	assert.Equal(t, status.SyncPhaseFailed, statuses[airbnbFeed].Phase)
}

func TestRunRoundSkipsHooksWhenCancelled(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	drainer := &fakeDrainer{}
	coord := newTestCoordinator(syncmocks.NewMockManager(ctrl), statemocks.NewMockFeedStateService(ctrl),
		WithEventDrainer(drainer))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	coord.runRound(ctx, nil)

	assert.Equal(t, int32(0), drainer.calls.Load())
}

func TestTriggerUnknownFeed(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	coord := newTestCoordinator(syncmocks.NewMockManager(ctrl), statemocks.NewMockFeedStateService(ctrl))

	err := coord.Trigger("room-9/booking")
	assert.ErrorIs(t, err, ErrUnknownFeed)

	require.NoError(t, coord.Trigger(""))
	assert.Equal(t, map[string]bool{bookingFeed: true, airbnbFeed: true}, coord.takeManual())
	assert.Empty(t, coord.takeManual())
}

func TestStartInitializesAndStopsOnCancel(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	stateSvc := statemocks.NewMockFeedStateService(ctrl)
	coord := newTestCoordinator(syncmocks.NewMockManager(ctrl), stateSvc)

	stateSvc.EXPECT().Initialize(gomock.Any(), coord.feeds).Return(nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.NoError(t, coord.Start(ctx))
}

func TestStartFailsWhenInitializeFails(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	stateSvc := statemocks.NewMockFeedStateService(ctrl)
	coord := newTestCoordinator(syncmocks.NewMockManager(ctrl), stateSvc)

	stateSvc.EXPECT().Initialize(gomock.Any(), gomock.Any()).Return(errors.New("boom"))

	err := coord.Start(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to initialize feed sync status")
	assert.NoError(t, coord.Stop())
}

func TestStartRunsTriggeredAndPeriodicRounds(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	manager := syncmocks.NewMockManager(ctrl)
	stateSvc := state.NewStoreStateService(inmemory.New())
	fakeClock := clocktesting.NewFakeClock(testNow)
	drainer := &fakeDrainer{}

	coord := New(manager, stateSvc, testConfig(),
		WithClock(fakeClock),
		WithEventDrainer(drainer),
	).(*defaultCoordinator)

	var performed atomic.Int32
	manager.EXPECT().
		ShouldSync(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, feedCfg *config.Feed, _ *status.SyncStatus, manual bool) pkgsync.Reason {
			if manual && feedCfg.Name == airbnbFeed {
				return pkgsync.ReasonManual
			}
			return pkgsync.ReasonUpToDate
		}).
		AnyTimes()
	manager.EXPECT().
		PerformSync(gomock.Any(), gomock.Cond(func(f *config.Feed) bool { return f.Name == airbnbFeed }), gomock.Any()).
		DoAndReturn(func(context.Context, *config.Feed, *status.SyncStatus) (*pkgsync.Result, *pkgsync.Error) {
			performed.Add(1)
			return &pkgsync.Result{Hash: "h"}, nil
		}).
		AnyTimes()

	errCh := make(chan error, 1)
	go func() {
		errCh <- coord.Start(context.Background())
	}()

	// initial round
	require.Eventually(t, func() bool { return drainer.calls.Load() >= 1 }, 5*time.Second, 10*time.Millisecond)

	require.NoError(t, coord.Trigger(airbnbFeed))
	require.Eventually(t, func() bool { return performed.Load() == 1 }, 5*time.Second, 10*time.Millisecond)

	// the polling timer is at most 1.25 minutes away
	rounds := drainer.calls.Load()
	require.Eventually(t, func() bool {
		fakeClock.Step(2 * time.Minute)
		return drainer.calls.Load() > rounds
	}, 5*time.Second, 10*time.Millisecond)
	assert.Equal(t, int32(1), performed.Load())

	require.NoError(t, coord.Stop())
	require.NoError(t, <-errCh)
}

func TestPerformFeedSyncRecordsSpan(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		result     *pkgsync.Result
		syncErr    *pkgsync.Error
		wantStatus codes.Code
	}{
		{
			name: "success carries merge counts",
			result: &pkgsync.Result{
				Hash:       "abc",
				EventCount: 4,
				Merge:      &canonical.Result{Created: 2, Updated: 1, Cancelled: 1},
			},
			wantStatus: codes.Unset,
		},
		{
			name:       "failure marks the span",
			syncErr:    &pkgsync.Error{Message: "Fetch failed: timeout"},
			wantStatus: codes.Error,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			exporter := tracetest.NewInMemoryExporter()
			tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
			t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

			ctrl := gomock.NewController(t)
			manager := syncmocks.NewMockManager(ctrl)
			stateSvc := statemocks.NewMockFeedStateService(ctrl)
			coord := newTestCoordinator(manager, stateSvc, WithTracer(tp.Tracer("test")))
			feedCfg := &coord.feeds[0]

			manager.EXPECT().PerformSync(gomock.Any(), feedCfg, gomock.Any()).Return(tt.result, tt.syncErr)
			stateSvc.EXPECT().UpdateSyncStatus(gomock.Any(), bookingFeed, gomock.Any())

			coord.performFeedSync(context.Background(), feedCfg, &status.SyncStatus{Phase: status.SyncPhaseSyncing})

			spans := exporter.GetSpans()
			require.Len(t, spans, 1)
			assert.Equal(t, "sync.PerformSync", spans[0].Name)
			assert.Equal(t, tt.wantStatus, spans[0].Status.Code)

			attrs := map[attribute.Key]attribute.Value{}
			for _, kv := range spans[0].Attributes {
				attrs[kv.Key] = kv.Value
			}
			assert.Equal(t, bookingFeed, attrs[otel.AttrFeedName].AsString())
			assert.Equal(t, "booking", attrs[otel.AttrFeedChannel].AsString())
			if tt.result != nil {
				assert.Equal(t, int64(4), attrs[otel.AttrEventCount].AsInt64())
				assert.Equal(t, int64(2), attrs[otel.AttrCreated].AsInt64())
			}
		})
	}
}
