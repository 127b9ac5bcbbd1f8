package telemetry

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
)

// HTTPScope is the instrumentation scope of the API middleware
const HTTPScope = "github.com/pickarooms/reservations-server/http"

// unmatchedRoute labels requests chi could not route. Raw paths carry
// booking ids and would explode label cardinality.
const unmatchedRoute = "unmatched"

var latencyBuckets = []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10}

func passthrough(next http.Handler) http.Handler { return next }

// route is the chi pattern that served r. It is only set once routing ran.
func route(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if p := rctx.RoutePattern(); p != "" {
			return p
		}
	}
	return unmatchedRoute
}

// HTTPMetrics counts and times API requests by route pattern
type HTTPMetrics struct {
	latency  metric.Float64Histogram
	requests metric.Int64Counter
}

// NewHTTPMetrics registers the request instruments. A nil provider gives a
// nil *HTTPMetrics whose Middleware does nothing.
func NewHTTPMetrics(provider metric.MeterProvider) (*HTTPMetrics, error) {
	if provider == nil {
		return nil, nil
	}
	meter := provider.Meter(HTTPScope)

	m := &HTTPMetrics{}
	var err error
	if m.latency, err = meter.Float64Histogram("reservations_http_request_duration_seconds",
		metric.WithDescription("Time spent serving API requests"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if m.requests, err = meter.Int64Counter("reservations_http_requests",
		metric.WithDescription("API requests served"),
		metric.WithUnit("{request}"),
	); err != nil {
		return nil, err
	}
	return m, nil
}

// Middleware observes each request after the handler returns
func (m *HTTPMetrics) Middleware(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		began := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		set := metric.WithAttributeSet(attribute.NewSet(
			attribute.String("method", r.Method),
			attribute.String("route", route(r)),
			attribute.String("status_code", strconv.Itoa(ww.Status())),
		))
		// r.Context() may already be cancelled; recording only needs its values
		ctx := r.Context()
		m.latency.Record(ctx, time.Since(began).Seconds(), set)
		m.requests.Add(ctx, 1, set)
	})
}

// MetricsMiddleware returns the request metrics middleware for provider
func MetricsMiddleware(provider metric.MeterProvider) (func(http.Handler) http.Handler, error) {
	m, err := NewHTTPMetrics(provider)
	if err != nil {
		return nil, err
	}
	return m.Middleware, nil
}

// TracingMiddleware opens a server span per request, joining the caller's
// trace when W3C headers are present. Only 5xx responses mark the span as
// failed; a 404 for an unknown booking is a normal outcome.
func TracingMiddleware(provider trace.TracerProvider) func(http.Handler) http.Handler {
	if provider == nil {
		return passthrough
	}
	tracer := provider.Tracer(HTTPScope)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			parent := otel.GetTextMapPropagator().Extract(r.Context(), propagation.HeaderCarrier(r.Header))
			ctx, span := tracer.Start(parent, r.Method+" "+r.URL.Path,
				trace.WithSpanKind(trace.SpanKindServer),
				trace.WithAttributes(
					semconv.HTTPRequestMethodKey.String(r.Method),
					semconv.URLPath(r.URL.Path),
					semconv.UserAgentOriginal(r.UserAgent()),
				),
			)
			defer span.End()

			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			pattern := route(r)
			status := ww.Status()
			span.SetName(r.Method + " " + pattern)
			span.SetAttributes(semconv.HTTPRoute(pattern), semconv.HTTPResponseStatusCode(status))
			if status >= http.StatusInternalServerError {
				span.SetStatus(codes.Error, http.StatusText(status))
			}
		})
	}
}
