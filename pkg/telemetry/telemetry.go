// Package telemetry configures OpenTelemetry tracing for the serve and mcp
// commands.
package telemetry

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	sdkresource "go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/recollect-ai/recollect"

// Config selects the trace exporter.
type Config struct {
	// Enabled turns tracing on. When false, Init installs nothing and the
	// returned shutdown is a no-op.
	Enabled bool

	// Exporter is "stdout" or "otlp". Default: "stdout".
	Exporter string

	// Endpoint is the OTLP gRPC collector address, e.g. "localhost:4317".
	Endpoint string

	// ServiceName tags emitted spans. Default: "recollect".
	ServiceName string
}

// Init installs a global TracerProvider per cfg and returns a shutdown
// function to flush spans on exit.
func Init(ctx context.Context, cfg Config) (func(context.Context) error, error) {
	nopShutdown := func(context.Context) error { return nil }
	if !cfg.Enabled {
		return nopShutdown, nil
	}

	if cfg.ServiceName == "" {
		cfg.ServiceName = "recollect"
	}

	var exporter sdktrace.SpanExporter
	var err error
	switch cfg.Exporter {
	case "otlp":
		opts := []otlptracegrpc.Option{otlptracegrpc.WithInsecure()}
		if cfg.Endpoint != "" {
			opts = append(opts, otlptracegrpc.WithEndpoint(cfg.Endpoint))
		}
		exporter, err = otlptracegrpc.New(ctx, opts...)
	case "stdout", "":
		exporter, err = stdouttrace.New(stdouttrace.WithPrettyPrint())
	default:
		return nil, fmt.Errorf("unknown trace exporter %q", cfg.Exporter)
	}
	if err != nil {
		return nil, fmt.Errorf("create trace exporter: %w", err)
	}

	res, err := sdkresource.Merge(
		sdkresource.Default(),
		sdkresource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(cfg.ServiceName),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("build resource: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)

	return tp.Shutdown, nil
}

// Tracer returns the tracer for this module. If Init was never called this
// yields a no-op tracer.
func Tracer() trace.Tracer {
	return otel.Tracer(tracerName)
}
