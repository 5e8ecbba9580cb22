// ABOUTME: Tests for the tracer provider built from the tracing section
// ABOUTME: Checks that stdout exports finished spans and that none records without exporting

package telemetry

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"

	"github.com/2389/coven-account/internal/config"
)

func TestNewTracerProvider_StdoutExportsSpans(t *testing.T) {
	var out bytes.Buffer
	tp, err := NewTracerProvider(config.TracingConfig{
		Exporter:    config.ExporterStdout,
		ServiceName: "coven-account-test",
	}, "v1.2.3", &out)
	require.NoError(t, err)

	_, span := tp.Tracer("test").Start(context.Background(), "account.get")
	assert.True(t, span.SpanContext().IsValid())
	assert.True(t, span.IsRecording())
	span.End()

	require.NoError(t, tp.Shutdown(context.Background()))
	assert.Contains(t, out.String(), `"account.get"`)
	assert.Contains(t, out.String(), "coven-account-test")
	assert.Contains(t, out.String(), "v1.2.3")
}

func TestNewTracerProvider_NoneKeepsSpansInProcess(t *testing.T) {
	var out bytes.Buffer
	tp, err := NewTracerProvider(config.TracingConfig{Exporter: config.ExporterNone}, "dev", &out)
	require.NoError(t, err)

	_, span := tp.Tracer("test").Start(context.Background(), "account.get")
	assert.True(t, span.SpanContext().IsValid())
	span.End()

	require.NoError(t, tp.Shutdown(context.Background()))
	assert.Empty(t, out.String())
}

func TestNewTracerProvider_UnknownExporter(t *testing.T) {
	_, err := NewTracerProvider(config.TracingConfig{Exporter: "jaeger"}, "dev", nil)
	assert.ErrorContains(t, err, `unknown trace exporter "jaeger"`)
}

func TestInstall_SetsGlobalProvider(t *testing.T) {
	var out bytes.Buffer
	shutdown, err := Install(config.TracingConfig{Exporter: config.ExporterStdout, ServiceName: "svc"}, "dev", &out)
	require.NoError(t, err)

	_, span := otel.Tracer("test").Start(context.Background(), "auth.Resolve")
	span.End()

	require.NoError(t, shutdown(context.Background()))
	assert.Contains(t, out.String(), `"auth.Resolve"`)
}
