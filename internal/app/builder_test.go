package app

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/metric/noop"
	"go.uber.org/mock/gomock"
	clocktesting "k8s.io/utils/clock/testing"

	"github.com/pickarooms/reservations-server/internal/app/storage"
	storagemocks "github.com/pickarooms/reservations-server/internal/app/storage/mocks"
	archivemocks "github.com/pickarooms/reservations-server/internal/archive/mocks"
	"github.com/pickarooms/reservations-server/internal/config"
	lockmocks "github.com/pickarooms/reservations-server/internal/lockapi/mocks"
	syncmocks "github.com/pickarooms/reservations-server/internal/sync/mocks"
)

var testTime = time.Date(2026, time.March, 14, 12, 0, 0, 0, time.UTC)

func TestBaseConfig(t *testing.T) {
	t.Parallel()

	built, err := baseConfig(WithConfig(createTestAppConfig()))
	require.NoError(t, err)
	require.NotNil(t, built)
	assert.Equal(t, defaultHTTPAddress, built.address)
	assert.Equal(t, defaultRequestTimeout, built.requestTimeout)
	assert.Equal(t, defaultIdleTimeout, built.idleTimeout)
	assert.NotNil(t, built.clock)
}

func TestBaseConfigError(t *testing.T) {
	t.Parallel()

	built, err := baseConfig(
		WithConfig(createTestAppConfig()),
		WithAddress(""),
	)
	require.Error(t, err)
	assert.Nil(t, built)
}

func TestWithAddress(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		addr    string
		wantErr bool
	}{
		{name: "port only", addr: ":9090"},
		{name: "localhost", addr: "localhost:8080"},
		{name: "ipv4", addr: "127.0.0.1:8080"},
		{name: "empty", addr: "", wantErr: true},
		{name: "missing port", addr: "127.0.0.1:", wantErr: true},
		{name: "no separator", addr: "8080", wantErr: true},
		{name: "port out of range", addr: ":99999", wantErr: true},
		{name: "hostname", addr: "example.com:8080", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := &reservationsAppConfig{}
			err := WithAddress(tt.addr)(cfg)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.addr, cfg.address)
		})
	}
}

func TestWithClock(t *testing.T) {
	t.Parallel()

	cfg := &reservationsAppConfig{}
	require.Error(t, WithClock(nil)(cfg))

	fake := clocktesting.NewFakeClock(testTime)
	require.NoError(t, WithClock(fake)(cfg))
	assert.Equal(t, fake, cfg.clock)
}

func TestWithMiddlewares(t *testing.T) {
	t.Parallel()

	mw := func(next http.Handler) http.Handler { return next }
	cfg := &reservationsAppConfig{}
	require.NoError(t, WithMiddlewares(mw, mw)(cfg))
	assert.Len(t, cfg.middlewares, 2)
}

func TestWithSyncManager(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	manager := syncmocks.NewMockManager(ctrl)

	cfg := &reservationsAppConfig{}
	require.NoError(t, WithSyncManager(manager)(cfg))
	assert.Equal(t, manager, cfg.syncManager)
}

func TestNewReservationsAppErrors(t *testing.T) {
	t.Parallel()

	t.Run("nil config", func(t *testing.T) {
		t.Parallel()
		app, err := NewReservationsApp(context.Background())
		require.Error(t, err)
		assert.Nil(t, app)
		assert.Contains(t, err.Error(), "config cannot be nil")
	})

	t.Run("unknown timezone", func(t *testing.T) {
		t.Parallel()
		cfg := createTestAppConfig()
		cfg.Timezone = "Mars/Olympus"
		app, err := NewReservationsApp(context.Background(), WithConfig(cfg))
		require.Error(t, err)
		assert.Nil(t, app)
		assert.Contains(t, err.Error(), "failed to load timezone")
	})

	t.Run("store creation failure releases storage", func(t *testing.T) {
		t.Parallel()
		ctrl := gomock.NewController(t)
		factory := storagemocks.NewMockFactory(ctrl)
		factory.EXPECT().CreateStore(gomock.Any()).Return(nil, errors.New("connection refused"))
		factory.EXPECT().Cleanup()

		app, err := NewReservationsApp(context.Background(),
			WithConfig(createTestAppConfig()),
			WithStorageFactory(factory),
		)
		require.Error(t, err)
		assert.Nil(t, app)
		assert.Contains(t, err.Error(), "failed to create store")
	})
}

func TestNewReservationsAppWiring(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		opts   func(t *testing.T, ctrl *gomock.Controller) []ReservationsAppOptions
		mutate func(cfg *config.Config)
		verify func(t *testing.T, app *ReservationsApp)
	}{
		{
			name: "minimal configuration disables optional components",
			verify: func(t *testing.T, app *ReservationsApp) {
				t.Helper()
				assert.Nil(t, app.components.EnrichmentScheduler)
				assert.Nil(t, app.components.SpreadsheetWatcher)
				assert.Equal(t, http.StatusNotFound, serve(app, http.MethodPost, "/api/v1/checkin", "{"))
				assert.Equal(t, http.StatusNotFound, serve(app, http.MethodGet, "/metrics", ""))
			},
		},
		{
			name: "lock client enables check-in",
			opts: func(_ *testing.T, ctrl *gomock.Controller) []ReservationsAppOptions {
				return []ReservationsAppOptions{WithLockClient(lockmocks.NewMockClient(ctrl))}
			},
			verify: func(t *testing.T, app *ReservationsApp) {
				t.Helper()
				assert.Equal(t, http.StatusBadRequest, serve(app, http.MethodPost, "/api/v1/checkin", "{"))
			},
		},
		{
			name: "archive client enables enrichment",
			opts: func(_ *testing.T, ctrl *gomock.Controller) []ReservationsAppOptions {
				return []ReservationsAppOptions{WithArchiveClient(archivemocks.NewMockClient(ctrl))}
			},
			verify: func(t *testing.T, app *ReservationsApp) {
				t.Helper()
				assert.NotNil(t, app.components.EnrichmentScheduler)
			},
		},
		{
			name: "watch directory enables the spreadsheet watcher",
			mutate: func(cfg *config.Config) {
				cfg.Spreadsheet = &config.SpreadsheetConfig{WatchDir: "/var/spool/exports"}
			},
			verify: func(t *testing.T, app *ReservationsApp) {
				t.Helper()
				assert.NotNil(t, app.components.SpreadsheetWatcher)
			},
		},
		{
			name: "metrics handler is mounted",
			opts: func(_ *testing.T, _ *gomock.Controller) []ReservationsAppOptions {
				handler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
					_, _ = w.Write([]byte("reservations_http_requests 1\n"))
				})
				return []ReservationsAppOptions{
					WithMeterProvider(noop.NewMeterProvider()),
					WithMetricsHandler(handler),
				}
			},
			verify: func(t *testing.T, app *ReservationsApp) {
				t.Helper()
				assert.Equal(t, http.StatusOK, serve(app, http.MethodGet, "/metrics", ""))
			},
		},
		{
			name: "injected sync manager is used",
			opts: func(_ *testing.T, ctrl *gomock.Controller) []ReservationsAppOptions {
				return []ReservationsAppOptions{WithSyncManager(syncmocks.NewMockManager(ctrl))}
			},
			verify: func(t *testing.T, app *ReservationsApp) {
				t.Helper()
				assert.NotNil(t, app.components.SyncCoordinator)
				assert.Equal(t, http.StatusAccepted, serve(app, http.MethodPost, "/api/v1/sync?feed=room-1/booking", ""))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			ctrl := gomock.NewController(t)
			cfg := createTestAppConfig()
			if tt.mutate != nil {
				tt.mutate(cfg)
			}

			opts := []ReservationsAppOptions{
				WithConfig(cfg),
				WithStorageFactory(storage.NewMemoryFactory()),
				WithNotifier(&recordingNotifier{}),
			}
			if tt.opts != nil {
				opts = append(opts, tt.opts(t, ctrl)...)
			}

			app, err := NewReservationsApp(context.Background(), opts...)
			require.NoError(t, err)
			require.NotNil(t, app)
			t.Cleanup(app.cancelFunc)

			assert.NotNil(t, app.components.Store)
			assert.NotNil(t, app.components.CommandChannel)
			assert.Equal(t, http.StatusOK, serve(app, http.MethodGet, "/readiness", ""))
			tt.verify(t, app)
		})
	}
}

func TestBuildHTTPServerMiddlewareOrder(t *testing.T) {
	t.Parallel()

	var order []string
	tag := func(name string) func(http.Handler) http.Handler {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}

	app, err := NewReservationsApp(context.Background(),
		WithConfig(createTestAppConfig()),
		WithStorageFactory(storage.NewMemoryFactory()),
		WithNotifier(&recordingNotifier{}),
		WithMiddlewares(tag("first"), tag("second")),
	)
	require.NoError(t, err)
	t.Cleanup(app.cancelFunc)

	assert.Equal(t, http.StatusOK, serve(app, http.MethodGet, "/health", ""))
	assert.Equal(t, []string{"first", "second"}, order)
}

func serve(app *ReservationsApp, method, target, body string) int {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	rec := httptest.NewRecorder()
	app.httpServer.Handler.ServeHTTP(rec, req)
	return rec.Code
}
