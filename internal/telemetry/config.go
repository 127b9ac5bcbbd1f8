// Package telemetry provides OpenTelemetry instrumentation for the
// reservations server: Prometheus or OTLP metrics and OTLP traces.
package telemetry

import (
	"cmp"
	"errors"
	"fmt"
	"strings"
)

// Defaults applied when the telemetry section leaves a field empty
const (
	DefaultServiceName = "reservations-api"
	DefaultEndpoint    = "localhost:4318"
	// DefaultSampling keeps one feed sync trace in twenty
	DefaultSampling = 0.05
)

// Metrics exporters
const (
	// ExporterPrometheus serves metrics for scraping on /metrics
	ExporterPrometheus = "prometheus"
	// ExporterOTLP pushes metrics to the collector at Endpoint
	ExporterOTLP = "otlp"
)

// Config is the telemetry section of the server configuration.
// Nothing is exported unless Enabled is set.
type Config struct {
	Enabled        bool   `yaml:"enabled"`
	ServiceName    string `yaml:"serviceName,omitempty"`
	ServiceVersion string `yaml:"serviceVersion,omitempty"`
	// Endpoint is the OTLP collector as host:port, without a scheme
	Endpoint string `yaml:"endpoint,omitempty"`
	// Insecure talks plain HTTP to the collector
	Insecure bool `yaml:"insecure,omitempty"`

	Tracing *TracingConfig `yaml:"tracing,omitempty"`
	Metrics *MetricsConfig `yaml:"metrics,omitempty"`
}

// TracingConfig enables span export
type TracingConfig struct {
	Enabled bool `yaml:"enabled"`
	// Sampling is the ratio of root spans kept, in [0, 1]. Zero means unset.
	Sampling float64 `yaml:"sampling,omitempty"`
}

// MetricsConfig enables metric export
type MetricsConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Exporter string `yaml:"exporter,omitempty"`
}

func (c *Config) GetServiceName() string    { return cmp.Or(c.ServiceName, DefaultServiceName) }
func (c *Config) GetServiceVersion() string { return cmp.Or(c.ServiceVersion, "unknown") }
func (c *Config) GetEndpoint() string       { return cmp.Or(c.Endpoint, DefaultEndpoint) }

func (c *TracingConfig) GetSampling() float64 { return cmp.Or(c.Sampling, DefaultSampling) }

func (c *MetricsConfig) GetExporter() string { return cmp.Or(c.Exporter, ExporterPrometheus) }

// Validate reports every problem in an enabled section at once. Disabled
// sections are ignored so they can be toggled without cleaning them up.
func (c *Config) Validate() error {
	if c == nil || !c.Enabled {
		return nil
	}

	var errs []error
	if strings.Contains(c.Endpoint, "://") {
		errs = append(errs, fmt.Errorf("endpoint %q must be host:port without a scheme", c.Endpoint))
	}
	if t := c.Tracing; t != nil && t.Enabled && (t.Sampling < 0 || t.Sampling > 1) {
		errs = append(errs, fmt.Errorf("tracing: sampling must be between 0.0 and 1.0, got %g", t.Sampling))
	}
	if m := c.Metrics; m != nil && m.Enabled {
		if e := m.GetExporter(); e != ExporterPrometheus && e != ExporterOTLP {
			errs = append(errs, fmt.Errorf("metrics: unknown exporter %q, expected %q or %q", e, ExporterPrometheus, ExporterOTLP))
		}
	}
	return errors.Join(errs...)
}
