package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// CustomMetrics records application-level metrics for tool calls.
// Callers hold this interface so they never have to check whether
// telemetry is enabled; the no-op implementation simply does nothing.
type CustomMetrics interface {
	// RecordToolCall records one completed tool invocation.
	// errorKind is empty for successful calls.
	RecordToolCall(ctx context.Context, tool, errorKind string, duration time.Duration)
}

type noopCustomMetrics struct{}

// NewNoopCustomMetrics returns a CustomMetrics that records nothing.
func NewNoopCustomMetrics() CustomMetrics {
	return &noopCustomMetrics{}
}

func (n *noopCustomMetrics) RecordToolCall(_ context.Context, _, _ string, _ time.Duration) {}

type otelCustomMetrics struct {
	toolCallsTotal   metric.Int64Counter
	toolCallDuration metric.Float64Histogram
}

// NewOtelCustomMetrics creates a CustomMetrics backed by the given meter.
func NewOtelCustomMetrics(meter metric.Meter) (CustomMetrics, error) {
	toolCallsTotal, err := meter.Int64Counter(
		"toolbridge_tool_calls_total",
		metric.WithDescription("Total number of tool calls dispatched"),
	)
	if err != nil {
		return nil, err
	}

	toolCallDuration, err := meter.Float64Histogram(
		"toolbridge_tool_call_duration_seconds",
		metric.WithDescription("Duration of tool calls in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	return &otelCustomMetrics{
		toolCallsTotal:   toolCallsTotal,
		toolCallDuration: toolCallDuration,
	}, nil
}

func (m *otelCustomMetrics) RecordToolCall(ctx context.Context, tool, errorKind string, duration time.Duration) {
	attrs := metric.WithAttributes(
		attribute.String("tool", tool),
		attribute.String("error_kind", errorKind),
	)
	m.toolCallsTotal.Add(ctx, 1, attrs)
	m.toolCallDuration.Record(ctx, duration.Seconds(), attrs)
}
