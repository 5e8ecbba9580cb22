// ABOUTME: Tests for the auth.Resolve span emitted by the resolver
// ABOUTME: Records spans in memory and checks the resolution attribute and error status

package auth

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/2389/coven-account/internal/store"
)

// recordSpans installs an in-memory provider. Call it before NewResolver.
func recordSpans(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	otel.SetTracerProvider(tp)
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })
	return sr
}

func onlySpan(t *testing.T, sr *tracetest.SpanRecorder) sdktrace.ReadOnlySpan {
	t.Helper()
	ended := sr.Ended()
	require.Len(t, ended, 1)
	return ended[0]
}

func spanAttr(span sdktrace.ReadOnlySpan, key string) attribute.Value {
	for _, kv := range span.Attributes() {
		if string(kv.Key) == key {
			return kv.Value
		}
	}
	return attribute.Value{}
}

func TestResolveSpan_Admin(t *testing.T) {
	sr := recordSpans(t)
	admins := &stubAdmins{principal: &AdminPrincipal{UserID: "admin-1", Mechanism: MechanismSession}}

	NewResolver(admins, store.NewMockStore()).Resolve(context.Background(), "tok", store.IncludeAccountProfile)

	span := onlySpan(t, sr)
	assert.Equal(t, "auth.Resolve", span.Name())
	assert.Equal(t, "admin", spanAttr(span, "auth.resolution").AsString())
	assert.Equal(t, string(store.IncludeAccountProfile), spanAttr(span, "auth.include").AsString())
	assert.Equal(t, codes.Ok, span.Status().Code)
	assert.Empty(t, span.Events())
}

func TestResolveSpan_Session(t *testing.T) {
	sr := recordSpans(t)
	mock := store.NewMockStore()
	seedSession(t, mock, "tok")

	NewResolver(notAdmin(), mock).Resolve(context.Background(), "tok", store.IncludeNone)

	span := onlySpan(t, sr)
	assert.Equal(t, "session", spanAttr(span, "auth.resolution").AsString())
	assert.Equal(t, codes.Ok, span.Status().Code)
}

func TestResolveSpan_AdminFailureMarksError(t *testing.T) {
	sr := recordSpans(t)
	boom := errors.New("admin store unreachable")

	NewResolver(&stubAdmins{err: boom}, store.NewMockStore()).Resolve(context.Background(), "tok", store.IncludeNone)

	span := onlySpan(t, sr)
	assert.Equal(t, "error", spanAttr(span, "auth.resolution").AsString())
	assert.Equal(t, codes.Error, span.Status().Code)
	assert.Equal(t, boom.Error(), span.Status().Description)

	require.Len(t, span.Events(), 1)
	assert.Equal(t, "exception", span.Events()[0].Name)
}
