// Package telemetry wires up OpenTelemetry metrics with a Prometheus
// exporter. When telemetry is disabled the providers are inert and
// Shutdown is a no-op.
package telemetry

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

// Config controls telemetry initialization.
type Config struct {
	ServiceName string
	Enabled     bool
}

// Providers holds the initialized OpenTelemetry providers.
type Providers struct {
	serviceName string
	enabled     bool

	// Meter creates instruments for recording application metrics.
	// It is nil when telemetry is disabled.
	Meter metric.Meter

	meterProvider *sdkmetric.MeterProvider
}

// Init sets up the OpenTelemetry metric provider backed by the
// Prometheus exporter. If cfg.Enabled is false, it returns disabled
// providers that record nothing.
func Init(_ context.Context, cfg *Config) (*Providers, error) {
	p := &Providers{
		serviceName: cfg.ServiceName,
		enabled:     cfg.Enabled,
	}
	if !cfg.Enabled {
		return p, nil
	}

	exporter, err := prometheus.New()
	if err != nil {
		return nil, fmt.Errorf("failed to create prometheus exporter: %w", err)
	}

	p.meterProvider = sdkmetric.NewMeterProvider(sdkmetric.WithReader(exporter))
	otel.SetMeterProvider(p.meterProvider)
	p.Meter = p.meterProvider.Meter(cfg.ServiceName)

	return p, nil
}

// IsEnabled reports whether telemetry was initialized.
func (p *Providers) IsEnabled() bool {
	return p != nil && p.enabled
}

// ServiceName returns the service name the providers were configured with.
func (p *Providers) ServiceName() string {
	return p.serviceName
}

// Shutdown flushes and stops the providers.
func (p *Providers) Shutdown(ctx context.Context) error {
	if p == nil || p.meterProvider == nil {
		return nil
	}
	return p.meterProvider.Shutdown(ctx)
}
