// Package main is the entry point for the reservations API server.
package main

import (
	"context"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/viper"
	"github.com/stacklok/toolhive-core/logging"
	"go.opentelemetry.io/otel/trace"

	"github.com/pickarooms/reservations-server/cmd/reservations-api/app"
	"github.com/pickarooms/reservations-server/internal/config"
)

// logLevel reads RESERVATIONS_LOG_LEVEL, then LOG_LEVEL. Unknown values
// fall back to info.
func logLevel() slog.Level {
	v := viper.New()
	v.SetEnvPrefix(config.EnvPrefix)
	_ = v.BindEnv("log_level")
	_ = v.BindEnv("fallback_log_level", "LOG_LEVEL")

	raw := v.GetString("log_level")
	if raw == "" {
		raw = v.GetString("fallback_log_level")
	}
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return slog.LevelInfo
	}
	if strings.EqualFold(raw, "warning") {
		raw = "warn"
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(raw)); err != nil {
		slog.Warn("Ignoring unknown log level", "value", raw)
		return slog.LevelInfo
	}
	return level
}

// spanHandler stamps records logged inside a span with its trace and span
// ids so sync and lock API logs can be joined with their traces.
type spanHandler struct {
	next slog.Handler
}

func (h spanHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

func (h spanHandler) Handle(ctx context.Context, r slog.Record) error {
	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		r.AddAttrs(
			slog.String("trace_id", sc.TraceID().String()),
			slog.String("span_id", sc.SpanID().String()),
		)
	}
	return h.next.Handle(ctx, r)
}

func (h spanHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return spanHandler{next: h.next.WithAttrs(attrs)}
}

func (h spanHandler) WithGroup(name string) slog.Handler {
	return spanHandler{next: h.next.WithGroup(name)}
}

func main() {
	level := new(slog.LevelVar)
	level.Set(logLevel())

	// JSON on stderr; stdout is reserved for command output such as
	// `bookings list -o json`.
	base := logging.NewHandler(logging.WithLevel(level))
	slog.SetDefault(slog.New(spanHandler{next: base}))

	if err := app.NewRootCmd(level).Execute(); err != nil {
		os.Exit(1)
	}
}
