// Package exporters builds the OpenTelemetry span exporters and metric
// readers named in observe.Config.
package exporters

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"

	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// ErrEndpointNotConfigured indicates no endpoint environment variable is set.
var ErrEndpointNotConfigured = errors.New("exporters: endpoint not configured")

// Writer receives stdout exporter output. Tests may swap it.
var Writer io.Writer = os.Stdout

// backend describes one named exporter: the environment it needs and how
// to build it.
type backend[T any] struct {
	endpointVars []string
	build        func(ctx context.Context) (T, error)
}

// The OTLP exporters read their endpoint from the standard OTEL_* variables.
// Jaeger ingests OTLP, so it shares the OTLP trace exporter.
var spanBackends = map[string]backend[sdktrace.SpanExporter]{
	"stdout": {build: func(context.Context) (sdktrace.SpanExporter, error) {
		return stdouttrace.New(stdouttrace.WithWriter(Writer))
	}},
	"otlp": {
		endpointVars: []string{"OTEL_EXPORTER_OTLP_ENDPOINT", "OTEL_EXPORTER_OTLP_TRACES_ENDPOINT"},
		build:        otlpTrace,
	},
	"jaeger": {
		endpointVars: []string{"OTEL_EXPORTER_JAEGER_ENDPOINT"},
		build:        otlpTrace,
	},
	"none": {build: func(context.Context) (sdktrace.SpanExporter, error) {
		return stdouttrace.New(stdouttrace.WithWriter(io.Discard))
	}},
}

var metricBackends = map[string]backend[sdkmetric.Reader]{
	"stdout": {build: func(context.Context) (sdkmetric.Reader, error) {
		exp, err := stdoutmetric.New(stdoutmetric.WithWriter(Writer))
		if err != nil {
			return nil, err
		}
		return sdkmetric.NewPeriodicReader(exp), nil
	}},
	"otlp": {
		endpointVars: []string{"OTEL_EXPORTER_OTLP_ENDPOINT", "OTEL_EXPORTER_OTLP_METRICS_ENDPOINT"},
		build: func(ctx context.Context) (sdkmetric.Reader, error) {
			exp, err := otlpmetricgrpc.New(ctx)
			if err != nil {
				return nil, err
			}
			return sdkmetric.NewPeriodicReader(exp), nil
		},
	},
	"prometheus": {build: func(context.Context) (sdkmetric.Reader, error) {
		return prometheus.New()
	}},
	"none": {build: func(context.Context) (sdkmetric.Reader, error) {
		return sdkmetric.NewManualReader(), nil
	}},
}

func otlpTrace(ctx context.Context) (sdktrace.SpanExporter, error) {
	return otlptracegrpc.New(ctx)
}

// NewTracingExporter creates the span exporter called name. An empty name
// is "none".
func NewTracingExporter(ctx context.Context, name string) (sdktrace.SpanExporter, error) {
	return open(ctx, "tracing", name, spanBackends)
}

// NewMetricsReader creates the metric reader called name. An empty name is
// "none", which yields a manual reader nothing collects from.
func NewMetricsReader(ctx context.Context, name string) (sdkmetric.Reader, error) {
	return open(ctx, "metrics", name, metricBackends)
}

func open[T any](ctx context.Context, kind, name string, backends map[string]backend[T]) (T, error) {
	var zero T
	if name == "" {
		name = "none"
	}
	b, ok := backends[name]
	if !ok {
		return zero, fmt.Errorf("unknown %s exporter: %q", kind, name)
	}
	if len(b.endpointVars) > 0 && !slices.ContainsFunc(b.endpointVars, func(v string) bool { return os.Getenv(v) != "" }) {
		return zero, fmt.Errorf("%w: %s exporter %q needs one of %v", ErrEndpointNotConfigured, kind, name, b.endpointVars)
	}
	v, err := b.build(ctx)
	if err != nil {
		return zero, fmt.Errorf("exporters: %s exporter %q: %w", kind, name, err)
	}
	return v, nil
}
