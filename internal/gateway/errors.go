// ABOUTME: JSON:API error responses and request tracing for the account routes
// ABOUTME: Translates failures via apierr; causes are logged and recorded on the span, never sent

package gateway

import (
	"encoding/json"
	"net/http"
	"strconv"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/2389/coven-account/internal/apierr"
)

// contentType is the JSON:API media type.
const contentType = "application/vnd.api+json"

// ErrorObject is a JSON:API error object.
type ErrorObject struct {
	Status string `json:"status"`
	Code   string `json:"code,omitempty"`
	Title  string `json:"title"`
	Detail string `json:"detail"`
}

// ErrorDocument is a JSON:API top-level error document.
type ErrorDocument struct {
	Errors []ErrorObject `json:"errors"`
}

// writeDocument writes a JSON:API document with the given status.
func (g *Gateway) writeDocument(w http.ResponseWriter, status int, doc any) {
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(doc); err != nil {
		g.logger.Error("failed to encode response", "error", err)
	}
}

// writeError translates err into a JSON:API error response. Errors that carry
// no apierr classification are reported with defaultStatus.
func (g *Gateway) writeError(w http.ResponseWriter, r *http.Request, err error, defaultStatus int) {
	status, message := apierr.Translate(err, defaultStatus)

	obj := ErrorObject{
		Status: strconv.Itoa(status),
		Title:  http.StatusText(status),
		Detail: message,
	}
	if apiErr := apierr.As(err); apiErr != nil {
		obj.Code = string(apiErr.Code)
		g.logger.Debug("request rejected", "method", r.Method, "path", r.URL.Path, "status", status, "error", err)
	} else {
		g.logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "status", status, "error", err)
	}

	span := trace.SpanFromContext(r.Context())
	span.RecordError(err)
	span.SetAttributes(attribute.String("account.error_code", obj.Code))

	g.writeDocument(w, status, ErrorDocument{Errors: []ErrorObject{obj}})
}

// statusRecorder captures the response status for tracing.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// traced wraps h in a server span named name.
func (g *Gateway) traced(name string, h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := g.tracer.Start(r.Context(), name, trace.WithSpanKind(trace.SpanKindServer))
		defer span.End()

		span.SetAttributes(
			attribute.String("http.method", r.Method),
			attribute.String("http.target", r.URL.Path),
		)

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		h(rec, r.WithContext(ctx))

		span.SetAttributes(attribute.Int("http.status_code", rec.status))
		if rec.status >= http.StatusInternalServerError {
			span.SetStatus(codes.Error, http.StatusText(rec.status))
		} else {
			span.SetStatus(codes.Ok, "")
		}
	}
}
