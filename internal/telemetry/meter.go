package telemetry

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

// DefaultMetricsInterval is the push interval of the OTLP exporter
const DefaultMetricsInterval = 60 * time.Second

// NewMeterProvider builds a meter provider for the exporter selected in mc.
// With the Prometheus exporter the returned handler serves a private
// registry holding the OpenTelemetry instruments plus Go runtime and process
// collectors; with OTLP the handler is nil. A nil or disabled mc yields a
// no-op provider.
func NewMeterProvider(
	ctx context.Context, mc *MetricsConfig, opts ...ProviderOption,
) (metric.MeterProvider, http.Handler, error) {
	if mc == nil || !mc.Enabled {
		return noop.NewMeterProvider(), nil, nil
	}
	s := newProviderSettings(opts)

	res, err := s.resource(ctx)
	if err != nil {
		return nil, nil, err
	}

	reader, handler, err := s.metricReader(ctx, mc.GetExporter())
	if err != nil {
		return nil, nil, err
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(reader),
	)
	otel.SetMeterProvider(mp)

	slog.Info("Metrics enabled", "exporter", mc.GetExporter())
	return mp, handler, nil
}

func (s *providerSettings) metricReader(ctx context.Context, exporter string) (sdkmetric.Reader, http.Handler, error) {
	switch exporter {
	case ExporterPrometheus:
		registry := prometheus.NewRegistry()
		registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		promExporter, err := otelprom.New(otelprom.WithRegisterer(registry))
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create Prometheus exporter: %w", err)
		}
		return promExporter, promhttp.HandlerFor(registry, promhttp.HandlerOpts{}), nil

	case ExporterOTLP:
		exporterOpts := []otlpmetrichttp.Option{otlpmetrichttp.WithEndpoint(s.endpoint)}
		if s.insecure {
			exporterOpts = append(exporterOpts, otlpmetrichttp.WithInsecure())
		}
		otlpExporter, err := otlpmetrichttp.New(ctx, exporterOpts...)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create OTLP metrics exporter: %w", err)
		}
		return sdkmetric.NewPeriodicReader(otlpExporter, sdkmetric.WithInterval(DefaultMetricsInterval)), nil, nil

	default:
		return nil, nil, fmt.Errorf("unknown metrics exporter %q", exporter)
	}
}
