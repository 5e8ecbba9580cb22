// ABOUTME: Principal resolution from a bearer token, admin first then user session
// ABOUTME: Produces a tagged Resolution instead of signalling outcomes through errors

package auth

import (
	"context"
	"errors"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/2389/coven-account/internal/apierr"
	"github.com/2389/coven-account/internal/store"
)

// SessionFinder looks up live user sessions by token.
type SessionFinder interface {
	FindSession(ctx context.Context, token string, include store.Include) (*store.Session, error)
}

// ResolutionKind tags the outcome of resolving a token.
type ResolutionKind int

const (
	ResolvedNotFound ResolutionKind = iota
	ResolvedAdmin
	ResolvedSession
	ResolvedError
)

func (k ResolutionKind) String() string {
	switch k {
	case ResolvedAdmin:
		return "admin"
	case ResolvedSession:
		return "session"
	case ResolvedError:
		return "error"
	default:
		return "not_found"
	}
}

// Resolution is the outcome of Resolver.Resolve. Exactly one of Admin,
// the session, or the error is set, according to Kind.
type Resolution struct {
	Kind  ResolutionKind
	Admin *AdminPrincipal

	session *store.Session
	err     error
}

// Session returns the resolved user session. An admin resolution yields
// apierr.ErrForbiddenAdminAccount; not-found and error resolutions yield
// the error they carry.
func (r Resolution) Session() (*store.Session, error) {
	switch r.Kind {
	case ResolvedSession:
		return r.session, nil
	case ResolvedAdmin:
		return nil, apierr.ErrForbiddenAdminAccount
	default:
		return nil, r.Err()
	}
}

// Err returns the error carried by a not-found or error resolution.
func (r Resolution) Err() error {
	if r.err == nil && r.Kind == ResolvedNotFound {
		return apierr.NotFound("Session not found", store.ErrSessionNotFound)
	}
	return r.err
}

// Resolver maps bearer tokens to principals.
type Resolver struct {
	admins   AdminValidator
	sessions SessionFinder
	tracer   trace.Tracer
	logger   *slog.Logger
}

// NewResolver creates a resolver that consults admins before sessions.
func NewResolver(admins AdminValidator, sessions SessionFinder) *Resolver {
	return &Resolver{
		admins:   admins,
		sessions: sessions,
		tracer:   otel.Tracer("github.com/2389/coven-account/internal/auth"),
		logger:   slog.Default().With("component", "resolver"),
	}
}

// Resolve determines which principal token identifies.
//
// The admin validator is consulted first. An admin match ends resolution with
// ResolvedAdmin. A not-found admin result falls through to the user session
// lookup. Any other admin error ends resolution with ResolvedError carrying
// that error unchanged; the session lookup is not attempted.
func (r *Resolver) Resolve(ctx context.Context, token string, include store.Include) Resolution {
	ctx, span := r.tracer.Start(ctx, "auth.Resolve")
	defer span.End()
	span.SetAttributes(attribute.String("auth.include", string(include)))

	res := r.resolve(ctx, token, include)

	span.SetAttributes(attribute.String("auth.resolution", res.Kind.String()))
	if res.Kind == ResolvedError {
		span.RecordError(res.err)
		span.SetStatus(codes.Error, res.err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	return res
}

func (r *Resolver) resolve(ctx context.Context, token string, include store.Include) Resolution {
	admin, err := r.admins.ValidateSession(ctx, token)
	switch {
	case err == nil:
		r.logger.Debug("token resolved to admin", "admin_id", admin.UserID, "mechanism", admin.Mechanism)
		return Resolution{Kind: ResolvedAdmin, Admin: admin}
	case !errors.Is(err, store.ErrNotFound):
		r.logger.Error("admin validation failed", "error", err)
		return Resolution{Kind: ResolvedError, err: err}
	}

	session, err := r.sessions.FindSession(ctx, token, include)
	switch {
	case err == nil:
		return Resolution{Kind: ResolvedSession, session: session}
	case errors.Is(err, store.ErrNotFound):
		return Resolution{Kind: ResolvedNotFound, err: apierr.NotFound("Session not found", err)}
	default:
		r.logger.Error("session lookup failed", "error", err)
		return Resolution{Kind: ResolvedError, err: err}
	}
}

// IncludeFromQuery maps the include query parameter of the account routes to
// the relations loaded with the session.
func IncludeFromQuery(include string) store.Include {
	if include == "profile" {
		return store.IncludeAccountProfile
	}
	return store.IncludeNone
}
