package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/netip"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"k8s.io/utils/clock"

	"github.com/pickarooms/reservations-server/internal/access"
	"github.com/pickarooms/reservations-server/internal/api"
	v1 "github.com/pickarooms/reservations-server/internal/api/v1"
	"github.com/pickarooms/reservations-server/internal/app/storage"
	"github.com/pickarooms/reservations-server/internal/archive"
	"github.com/pickarooms/reservations-server/internal/cancellation"
	"github.com/pickarooms/reservations-server/internal/canonical"
	"github.com/pickarooms/reservations-server/internal/checkin"
	"github.com/pickarooms/reservations-server/internal/commands"
	"github.com/pickarooms/reservations-server/internal/config"
	"github.com/pickarooms/reservations-server/internal/enrichment"
	"github.com/pickarooms/reservations-server/internal/feed"
	"github.com/pickarooms/reservations-server/internal/httpclient"
	"github.com/pickarooms/reservations-server/internal/lockapi"
	"github.com/pickarooms/reservations-server/internal/notify"
	"github.com/pickarooms/reservations-server/internal/otel"
	"github.com/pickarooms/reservations-server/internal/retention"
	"github.com/pickarooms/reservations-server/internal/spreadsheet"
	"github.com/pickarooms/reservations-server/internal/store"
	"github.com/pickarooms/reservations-server/internal/store/postgres"
	pkgsync "github.com/pickarooms/reservations-server/internal/sync"
	"github.com/pickarooms/reservations-server/internal/sync/coordinator"
	"github.com/pickarooms/reservations-server/internal/sync/state"
	"github.com/pickarooms/reservations-server/internal/telemetry"
)

const (
	defaultHTTPAddress     = ":8080"
	defaultRequestTimeout  = 10 * time.Second
	defaultReadTimeout     = 10 * time.Second
	defaultWriteTimeout    = 15 * time.Second
	defaultIdleTimeout     = 60 * time.Second
	defaultCommandChannel  = "operators"
	defaultCommandCapacity = 16
)

// ReservationsAppOptions is a function that configures the reservations app builder
type ReservationsAppOptions func(*reservationsAppConfig) error

// reservationsAppConfig collects what NewReservationsApp needs to wire the server.
// It supports dependency injection for testing while providing sensible defaults for production
type reservationsAppConfig struct {
	config *config.Config

	// Optional component overrides (primarily for testing)
	storageFactory storage.Factory
	syncManager    pkgsync.Manager
	lockClient     lockapi.Client
	archiveClient  archive.Client
	notifier       notify.Notifier
	clock          clock.WithDelayedExecution

	// HTTP server options
	address        string
	middlewares    []func(http.Handler) http.Handler
	requestTimeout time.Duration
	readTimeout    time.Duration
	writeTimeout   time.Duration
	idleTimeout    time.Duration

	// Telemetry components
	meterProvider  metric.MeterProvider
	tracerProvider trace.TracerProvider
	metricsHandler http.Handler
}

// wiring carries the components built so far between build steps
type wiring struct {
	store     store.Store
	location  *time.Location
	metrics   *telemetry.BookingMetrics
	operators *notify.Operators

	orchestrator *access.Orchestrator
	cancellation *cancellation.Handler
	checkin      *checkin.Service
	retention    *retention.Cleaner
	resolver     *commands.Resolver
	channel      *commands.Channel
	scheduler    *enrichment.Scheduler
	reconciler   *spreadsheet.Reconciler
	watcher      *spreadsheet.Watcher
	stateService state.FeedStateService
	coordinator  coordinator.Coordinator
}

func baseConfig(opts ...ReservationsAppOptions) (*reservationsAppConfig, error) {
	cfg := &reservationsAppConfig{
		address:        defaultHTTPAddress,
		requestTimeout: defaultRequestTimeout,
		readTimeout:    defaultReadTimeout,
		writeTimeout:   defaultWriteTimeout,
		idleTimeout:    defaultIdleTimeout,
		clock:          clock.RealClock{},
	}

	// Apply options
	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

// NewReservationsApp wires the store, the reconciliation components and the
// HTTP server described by the configuration
func NewReservationsApp(
	ctx context.Context,
	opts ...ReservationsAppOptions,
) (*ReservationsApp, error) {
	cfg, err := baseConfig(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to build base configuration: %w", err)
	}
	if cfg.config == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}

	loc, err := cfg.config.Location()
	if err != nil {
		return nil, fmt.Errorf("failed to load timezone: %w", err)
	}

	// Create storage factory (single decision point for memory vs database)
	if cfg.storageFactory == nil {
		var storageOpts []storage.DatabaseFactoryOption
		if cfg.tracerProvider != nil {
			storageOpts = append(storageOpts,
				storage.WithStoreOptions(postgres.WithTracer(cfg.tracerProvider.Tracer(otel.TracerName))))
		}
		cfg.storageFactory, err = storage.NewStorageFactory(ctx, cfg.config, storageOpts...)
		if err != nil {
			return nil, fmt.Errorf("failed to create storage factory: %w", err)
		}
	}

	// Ensure cleanup happens on error
	var cleanupNeeded = true
	defer func() {
		if cleanupNeeded && cfg.storageFactory != nil {
			cfg.storageFactory.Cleanup()
		}
	}()

	s, err := cfg.storageFactory.CreateStore(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create store: %w", err)
	}

	w := &wiring{store: s, location: loc}

	if err := buildAccessComponents(cfg, w); err != nil {
		return nil, fmt.Errorf("failed to build access components: %w", err)
	}

	if err := buildOperatorComponents(cfg, w); err != nil {
		return nil, fmt.Errorf("failed to build operator components: %w", err)
	}

	if err := buildEnrichmentComponents(ctx, cfg, w); err != nil {
		return nil, fmt.Errorf("failed to build enrichment components: %w", err)
	}

	buildSpreadsheetComponents(cfg, w)

	if err := buildSyncComponents(cfg, w); err != nil {
		return nil, fmt.Errorf("failed to build sync components: %w", err)
	}

	// Build HTTP server
	httpServer, err := buildHTTPServer(cfg, w)
	if err != nil {
		return nil, fmt.Errorf("failed to build HTTP server: %w", err)
	}

	// Create application context
	appCtx, cancel := context.WithCancel(ctx)

	// Cleanup is now handled by the app, not in defer
	cleanupNeeded = false

	cancelFunc := func() {
		cancel()
		if cfg.storageFactory != nil {
			cfg.storageFactory.Cleanup()
		}
	}

	return &ReservationsApp{
		config: cfg.config,
		components: &AppComponents{
			Store:               s,
			SyncCoordinator:     w.coordinator,
			EnrichmentScheduler: w.scheduler,
			CommandChannel:      w.channel,
			SpreadsheetWatcher:  w.watcher,
		},
		httpServer: httpServer,
		ctx:        appCtx,
		cancelFunc: cancelFunc,
	}, nil
}

// WithConfig sets the configuration
func WithConfig(c *config.Config) ReservationsAppOptions {
	return func(cfg *reservationsAppConfig) error {
		cfg.config = c
		return nil
	}
}

// WithAddress sets the HTTP server address
func WithAddress(addr string) ReservationsAppOptions {
	return func(cfg *reservationsAppConfig) error {
		if addr == "" {
			return fmt.Errorf("address cannot be empty")
		}

		host, port, found := strings.Cut(addr, ":")
		if !found || port == "" {
			return fmt.Errorf("address is not a valid port: %s", addr)
		}
		if host == "localhost" {
			host = "127.0.0.1"
		}
		if host == "" {
			host = "0.0.0.0"
		}

		if _, err := netip.ParseAddrPort(host + ":" + port); err != nil {
			return fmt.Errorf("address is not a valid port: %w", err)
		}

		cfg.address = addr
		return nil
	}
}

// WithMiddlewares sets custom HTTP middlewares
func WithMiddlewares(mw ...func(http.Handler) http.Handler) ReservationsAppOptions {
	return func(cfg *reservationsAppConfig) error {
		cfg.middlewares = mw
		return nil
	}
}

// WithStorageFactory allows injecting a custom storage factory (for testing)
func WithStorageFactory(f storage.Factory) ReservationsAppOptions {
	return func(cfg *reservationsAppConfig) error {
		cfg.storageFactory = f
		return nil
	}
}

// WithSyncManager allows injecting a custom sync manager (for testing)
func WithSyncManager(sm pkgsync.Manager) ReservationsAppOptions {
	return func(cfg *reservationsAppConfig) error {
		cfg.syncManager = sm
		return nil
	}
}

// WithLockClient allows injecting the lock API client instead of building it
// from the locks configuration
func WithLockClient(c lockapi.Client) ReservationsAppOptions {
	return func(cfg *reservationsAppConfig) error {
		cfg.lockClient = c
		return nil
	}
}

// WithArchiveClient allows injecting the confirmation archive client instead
// of building it from the archive configuration
func WithArchiveClient(c archive.Client) ReservationsAppOptions {
	return func(cfg *reservationsAppConfig) error {
		cfg.archiveClient = c
		return nil
	}
}

// WithNotifier allows injecting the operator messaging gateway
func WithNotifier(n notify.Notifier) ReservationsAppOptions {
	return func(cfg *reservationsAppConfig) error {
		cfg.notifier = n
		return nil
	}
}

// WithClock sets the clock driving timers and timestamps
func WithClock(c clock.WithDelayedExecution) ReservationsAppOptions {
	return func(cfg *reservationsAppConfig) error {
		if c == nil {
			return fmt.Errorf("clock cannot be nil")
		}
		cfg.clock = c
		return nil
	}
}

// WithMeterProvider sets the OpenTelemetry meter provider for HTTP and domain metrics
func WithMeterProvider(mp metric.MeterProvider) ReservationsAppOptions {
	return func(cfg *reservationsAppConfig) error {
		cfg.meterProvider = mp
		return nil
	}
}

// WithTracerProvider sets the OpenTelemetry tracer provider for HTTP spans
func WithTracerProvider(tp trace.TracerProvider) ReservationsAppOptions {
	return func(cfg *reservationsAppConfig) error {
		cfg.tracerProvider = tp
		return nil
	}
}

// WithMetricsHandler exposes the given scrape handler under /metrics
func WithMetricsHandler(h http.Handler) ReservationsAppOptions {
	return func(cfg *reservationsAppConfig) error {
		cfg.metricsHandler = h
		return nil
	}
}

// ensureOperators builds the notifier and the operator alerter once; both
// the access and the operator components report through them
func ensureOperators(b *reservationsAppConfig, w *wiring) error {
	if w.operators != nil {
		return nil
	}
	if b.notifier == nil {
		n, err := notify.NewFromConfig(b.config.Notifier)
		if err != nil {
			return fmt.Errorf("failed to create notifier: %w", err)
		}
		b.notifier = n
	}
	w.operators = notify.NewOperators(b.notifier, b.config.GetAlertRecipients())
	return nil
}

// buildAccessComponents builds the code orchestrator and the components that
// depend on it. Without a lock API the server runs without code issuance.
func buildAccessComponents(b *reservationsAppConfig, w *wiring) error {
	if b.meterProvider != nil {
		metrics, err := telemetry.NewBookingMetrics(b.meterProvider)
		if err != nil {
			return fmt.Errorf("failed to create booking metrics: %w", err)
		}
		w.metrics = metrics
	}

	w.retention = retention.New(w.store, b.config.GetRetention(),
		retention.WithClock(b.clock),
		retention.WithLocation(w.location),
	)

	if b.lockClient == nil && b.config.Locks != nil {
		client, err := lockapi.NewFromConfig(b.config.Locks)
		if err != nil {
			return fmt.Errorf("failed to create lock API client: %w", err)
		}
		b.lockClient = client
	}
	if b.lockClient == nil {
		slog.Warn("No lock API configured, access codes, check-in and cancellation revocation are disabled")
		return nil
	}

	if err := ensureOperators(b, w); err != nil {
		return err
	}
	opts := []access.Option{
		access.WithClock(b.clock),
		access.WithAlerter(w.operators),
	}
	if w.metrics != nil {
		opts = append(opts, access.WithRecorder(w.metrics))
	}
	orchestrator, err := access.NewFromConfig(b.config, w.store, b.lockClient, opts...)
	if err != nil {
		return err
	}
	w.orchestrator = orchestrator

	w.cancellation = cancellation.New(w.store, orchestrator,
		cancellation.WithClock(b.clock),
		cancellation.WithLocation(w.location),
	)
	w.checkin = checkin.New(w.store, orchestrator, b.config.GetCheckinFlowTTL(),
		checkin.WithClock(b.clock),
		checkin.WithLocation(w.location),
	)

	slog.Info("Access components initialized")
	return nil
}

// buildOperatorComponents builds the collision resolver and the command
// channel on top of the operator alerts
func buildOperatorComponents(b *reservationsAppConfig, w *wiring) error {
	if err := ensureOperators(b, w); err != nil {
		return err
	}
	w.resolver = commands.NewResolver(w.store, b.config, w.operators, b.clock)

	opts := []commands.InterpreterOption{
		commands.WithClock(b.clock),
		commands.WithLocation(w.location),
	}
	if w.orchestrator != nil {
		opts = append(opts, commands.WithCodeRevoker(w.orchestrator))
	}
	interpreter := commands.NewInterpreter(w.store, b.config, b.config.GetAuthorizedSenders(), opts...)
	w.channel = commands.NewChannel(defaultCommandChannel, interpreter, b.notifier, defaultCommandCapacity)

	slog.Info("Operator components initialized", "authorized_senders", len(b.config.GetAuthorizedSenders()))
	return nil
}

// buildEnrichmentComponents builds the archive lookup scheduler. Without an
// archive, skeletal rows stay unenriched until a spreadsheet fills them in.
func buildEnrichmentComponents(ctx context.Context, b *reservationsAppConfig, w *wiring) error {
	if b.archiveClient == nil && b.config.Archive != nil {
		client, err := archive.NewFromConfig(ctx, b.config.Archive)
		if err != nil {
			return fmt.Errorf("failed to create archive client: %w", err)
		}
		b.archiveClient = client
	}
	if b.archiveClient == nil {
		slog.Warn("No confirmation archive configured, enrichment is disabled")
		return nil
	}

	settings := enrichment.SettingsFromConfig(b.config)
	finder := enrichment.NewFinder(w.store, b.archiveClient, w.resolver, w.operators, settings, b.clock)

	opts := []enrichment.Option{enrichment.WithClock(b.clock)}
	if w.metrics != nil {
		opts = append(opts, enrichment.WithOutcomeRecorder(w.metrics))
	}
	w.scheduler = enrichment.NewScheduler(finder, w.store, settings, opts...)

	slog.Info("Enrichment components initialized", "attempts", len(settings.Schedule))
	return nil
}

// buildSpreadsheetComponents builds the export reconciler and, when a watch
// directory is configured, the drop folder watcher
func buildSpreadsheetComponents(b *reservationsAppConfig, w *wiring) {
	w.reconciler = spreadsheet.NewReconciler(w.store, b.config.UnitTypes(),
		spreadsheet.WithClock(b.clock),
		spreadsheet.WithLocation(w.location),
	)
	if b.config.Spreadsheet != nil && b.config.Spreadsheet.WatchDir != "" {
		w.watcher = spreadsheet.NewWatcher(b.config.Spreadsheet.WatchDir, w.reconciler, b.clock)
		slog.Info("Spreadsheet watcher configured", "dir", b.config.Spreadsheet.WatchDir)
	}
}

// buildSyncComponents builds sync manager, coordinator, and related components
func buildSyncComponents(b *reservationsAppConfig, w *wiring) error {
	slog.Info("Initializing sync components")

	// Build sync manager (feed fetcher plus canonical merge)
	if b.syncManager == nil {
		fetcher := feed.NewFetcher(httpclient.NewDefaultClient(httpclient.DefaultTimeout))
		merger := canonical.NewMerger(w.store,
			canonical.WithClock(b.clock),
			canonical.WithDepartureMatch(b.config.Matching.RequireDepartureMatch),
		)

		opts := []pkgsync.ManagerOption{
			pkgsync.WithClock(b.clock),
			pkgsync.WithLocation(w.location),
		}
		if w.metrics != nil {
			opts = append(opts, pkgsync.WithMutationRecorder(w.metrics))
		}
		b.syncManager = pkgsync.NewDefaultSyncManager(fetcher, merger, opts...)
	}

	w.stateService = state.NewStoreStateService(w.store)

	coordOpts := []coordinator.Option{
		coordinator.WithClock(b.clock),
		coordinator.WithRetention(w.retention),
	}
	if w.cancellation != nil {
		coordOpts = append(coordOpts, coordinator.WithEventDrainer(w.cancellation))
	}
	if w.scheduler != nil {
		coordOpts = append(coordOpts, coordinator.WithEnrichmentScheduler(w.scheduler))
	}
	if b.tracerProvider != nil {
		coordOpts = append(coordOpts, coordinator.WithTracer(b.tracerProvider.Tracer(otel.TracerName)))
	}

	// Create sync metrics if meter provider is configured
	if b.meterProvider != nil {
		syncMetrics, err := telemetry.NewSyncMetrics(b.meterProvider)
		if err != nil {
			return fmt.Errorf("failed to create sync metrics: %w", err)
		}
		if syncMetrics != nil {
			coordOpts = append(coordOpts, coordinator.WithSyncMetrics(syncMetrics))
			slog.Info("Sync metrics enabled")
		}
	}

	w.coordinator = coordinator.New(b.syncManager, w.stateService, b.config, coordOpts...)
	slog.Info("Sync components initialized successfully", "feeds", len(b.config.Feeds()))

	return nil
}

// buildHTTPServer builds the HTTP server with router and middleware
func buildHTTPServer(b *reservationsAppConfig, w *wiring) (*http.Server, error) {
	slog.Info("Initializing HTTP server")

	// Use default middlewares if not provided
	if b.middlewares == nil {
		b.middlewares = []func(http.Handler) http.Handler{
			middleware.RequestID,
			middleware.RealIP,
			middleware.Recoverer,
			middleware.Timeout(b.requestTimeout),
			api.LoggingMiddleware,
		}
	}

	if b.tracerProvider != nil {
		b.middlewares = append([]func(http.Handler) http.Handler{telemetry.TracingMiddleware(b.tracerProvider)}, b.middlewares...)
	}

	// Add metrics middleware if meter provider is configured
	// This should be added early in the chain to capture all requests
	if b.meterProvider != nil {
		metricsMiddleware, err := telemetry.MetricsMiddleware(b.meterProvider)
		if err != nil {
			return nil, fmt.Errorf("failed to create metrics middleware: %w", err)
		}
		if metricsMiddleware != nil {
			b.middlewares = append([]func(http.Handler) http.Handler{metricsMiddleware}, b.middlewares...)
			slog.Info("HTTP metrics middleware enabled")
		}
	}

	svc := v1.Services{
		Bookings:    w.store,
		SyncStatus:  w.stateService,
		Sync:        w.coordinator,
		Spreadsheet: w.reconciler,
		Commands:    w.channel,
	}
	if w.checkin != nil {
		svc.Checkin = w.checkin
	}

	serverOpts := []api.ServerOption{
		api.WithMiddlewares(b.middlewares...),
		api.WithReadinessChecker(b.storageFactory),
	}
	if b.metricsHandler != nil {
		serverOpts = append(serverOpts, api.WithMetricsHandler(b.metricsHandler))
	}
	router := api.NewServer(svc, serverOpts...)

	// Create HTTP server
	server := &http.Server{
		Addr:         b.address,
		Handler:      router,
		ReadTimeout:  b.readTimeout,
		WriteTimeout: b.writeTimeout,
		IdleTimeout:  b.idleTimeout,
	}

	slog.Info("HTTP server configured", "address", b.address)
	return server, nil
}
