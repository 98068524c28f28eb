// Package observability wires OpenTelemetry tracing for Argus. One span is
// recorded per operation invocation; the exporter writes to stdout and is
// enabled explicitly, so normal CLI runs carry no tracing overhead.
package observability

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/argusml/argus"

var (
	provider *sdktrace.TracerProvider
	initOnce sync.Once
)

// Config controls tracing setup
type Config struct {
	// Enabled turns span export on; when false spans are no-ops
	Enabled bool
	// ServiceVersion is attached to exported spans
	ServiceVersion string
}

// Initialize sets up the global tracer provider
func Initialize(cfg Config) error {
	var err error
	initOnce.Do(func() {
		if !cfg.Enabled {
			return
		}
		var exporter *stdouttrace.Exporter
		exporter, err = stdouttrace.New(stdouttrace.WithPrettyPrint())
		if err != nil {
			return
		}
		provider = sdktrace.NewTracerProvider(
			sdktrace.WithBatcher(exporter),
			sdktrace.WithResource(resource.NewWithAttributes(
				semconv.SchemaURL,
				semconv.ServiceNameKey.String("argus"),
				semconv.ServiceVersionKey.String(cfg.ServiceVersion),
			)),
		)
		otel.SetTracerProvider(provider)
	})
	return err
}

// Shutdown flushes pending spans
func Shutdown(ctx context.Context) error {
	if provider == nil {
		return nil
	}
	return provider.Shutdown(ctx)
}

// Tracer returns the Argus tracer from the global provider
func Tracer() trace.Tracer {
	return otel.Tracer(tracerName)
}

// StartOperation opens a span for a (task, mode) operation invocation
func StartOperation(ctx context.Context, taskName, modeName string) (context.Context, trace.Span) {
	return Tracer().Start(ctx, "argus.operation",
		trace.WithAttributes(
			attribute.String("argus.task", taskName),
			attribute.String("argus.mode", modeName),
		))
}

// EndOperation closes an operation span, recording the outcome
func EndOperation(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}
