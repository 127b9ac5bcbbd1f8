// Package api provides the REST API server of the reservations engine.
package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	v1 "github.com/pickarooms/reservations-server/internal/api/v1"
)

// ServerOption configures the API server
type ServerOption func(*serverConfig)

type serverConfig struct {
	middlewares    []func(http.Handler) http.Handler
	readiness      v1.ReadinessChecker
	metricsHandler http.Handler
}

// WithMiddlewares adds middleware to the server
func WithMiddlewares(mw ...func(http.Handler) http.Handler) ServerOption {
	return func(cfg *serverConfig) {
		cfg.middlewares = append(cfg.middlewares, mw...)
	}
}

// WithReadinessChecker sets the check behind GET /readiness
func WithReadinessChecker(checker v1.ReadinessChecker) ServerOption {
	return func(cfg *serverConfig) {
		cfg.readiness = checker
	}
}

// WithMetricsHandler serves the given handler on GET /metrics
func WithMetricsHandler(h http.Handler) ServerOption {
	return func(cfg *serverConfig) {
		cfg.metricsHandler = h
	}
}

// NewServer builds the router: health checks and /metrics at the root, the
// reservations API under /api/v1. Routes of services left nil in svc are
// not registered.
func NewServer(svc v1.Services, opts ...ServerOption) *chi.Mux {
	var cfg serverConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	r := chi.NewRouter()
	r.Use(cfg.middlewares...)

	r.Mount("/", v1.HealthRouter(cfg.readiness))
	if cfg.metricsHandler != nil {
		r.Handle("/metrics", cfg.metricsHandler)
	}
	r.Mount("/api/v1", v1.Router(svc))
	return r
}

// LoggingMiddleware logs one line per request. Server errors are logged at
// warn level so they show up without debug logging; everything else,
// including the frequent health checks, stays at debug.
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		level := slog.LevelDebug
		if ww.Status() >= http.StatusInternalServerError {
			level = slog.LevelWarn
		}
		slog.Log(r.Context(), level, "HTTP request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}
