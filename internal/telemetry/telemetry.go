// Package telemetry wires up structured logging and tracing for a single
// CLI invocation: a slog logger for operator-facing diagnostics, and an
// OpenTelemetry tracer/meter pair (stdout exporters, since the core is a
// short-lived process with nowhere else to ship telemetry) for span-level
// visibility into Store/Graph/Merge operations, following the span-event
// pattern used around hook execution.
package telemetry

import (
	"context"
	"io"
	"log/slog"
	"os"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "github.com/mrorigo/pearls"

// Setup configures the process-wide slog logger and an OpenTelemetry
// TracerProvider/MeterProvider. When verbose is false, telemetry output is
// discarded rather than omitted: spans and metrics are still recorded
// and exported, but the exporters write to io.Discard, so nothing is
// printed; verbose routes logs, spans and metrics to stderr.
type Setup struct {
	Logger         *slog.Logger
	TracerProvider *sdktrace.TracerProvider
	MeterProvider  *sdkmetric.MeterProvider
}

// Configure builds a Setup. Call Shutdown when the invocation ends so
// buffered spans/metrics flush before process exit.
func Configure(verbose bool) (*Setup, error) {
	out := io.Discard
	level := slog.LevelWarn
	if verbose {
		out = os.Stderr
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(out, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	traceExporter, err := stdouttrace.New(stdouttrace.WithWriter(out))
	if err != nil {
		return nil, err
	}
	tp := sdktrace.NewTracerProvider(sdktrace.WithBatcher(traceExporter))
	otel.SetTracerProvider(tp)

	metricExporter, err := stdoutmetric.New(stdoutmetric.WithWriter(out))
	if err != nil {
		return nil, err
	}
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(sdkmetric.NewPeriodicReader(metricExporter)))
	otel.SetMeterProvider(mp)

	return &Setup{Logger: logger, TracerProvider: tp, MeterProvider: mp}, nil
}

// Shutdown flushes and stops both providers. Safe to call on a nil Setup.
func (s *Setup) Shutdown(ctx context.Context) {
	if s == nil {
		return
	}
	if s.TracerProvider != nil {
		_ = s.TracerProvider.Shutdown(ctx)
	}
	if s.MeterProvider != nil {
		_ = s.MeterProvider.Shutdown(ctx)
	}
}

// Tracer returns the package-wide tracer for Pearls core operations.
func Tracer() trace.Tracer {
	return otel.Tracer(instrumentationName)
}

// Meter returns the package-wide meter for Pearls core operations.
func Meter() metric.Meter {
	return otel.Meter(instrumentationName)
}

// StartSpan starts a span named name and tags it with id when
// non-empty, following the attribute-naming style used around hook spans.
func StartSpan(ctx context.Context, name, id string) (context.Context, trace.Span) {
	ctx, span := Tracer().Start(ctx, name)
	if id != "" {
		span.SetAttributes(attribute.String("pearls.record_id", id))
	}
	return ctx, span
}
