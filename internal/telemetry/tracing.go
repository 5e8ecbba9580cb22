// ABOUTME: OpenTelemetry SDK tracer provider configured from the tracing section
// ABOUTME: Exports spans to a writer as JSON or keeps them in-process only

package telemetry

import (
	"context"
	"fmt"
	"io"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/2389/coven-account/internal/config"
)

// NewTracerProvider builds a provider for cfg. With the stdout exporter,
// finished spans are batched and written to out. The caller owns the
// provider and must call Shutdown.
func NewTracerProvider(cfg config.TracingConfig, version string, out io.Writer) (*sdktrace.TracerProvider, error) {
	opts := []sdktrace.TracerProviderOption{
		sdktrace.WithResource(resource.NewSchemaless(
			attribute.String("service.name", cfg.ServiceName),
			attribute.String("service.version", version),
		)),
	}

	switch cfg.Exporter {
	case config.ExporterStdout:
		exp, err := stdouttrace.New(stdouttrace.WithWriter(out))
		if err != nil {
			return nil, fmt.Errorf("creating stdout exporter: %w", err)
		}
		opts = append(opts, sdktrace.WithBatcher(exp))
	case config.ExporterNone, "":
	default:
		return nil, fmt.Errorf("unknown trace exporter %q", cfg.Exporter)
	}

	return sdktrace.NewTracerProvider(opts...), nil
}

// Install builds a provider for cfg and makes it the global one.
// The returned func flushes and stops it.
func Install(cfg config.TracingConfig, version string, out io.Writer) (func(context.Context) error, error) {
	tp, err := NewTracerProvider(cfg, version, out)
	if err != nil {
		return nil, err
	}
	otel.SetTracerProvider(tp)
	return tp.Shutdown, nil
}
