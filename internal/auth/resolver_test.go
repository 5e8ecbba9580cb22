// ABOUTME: Tests for admin-first principal resolution
// ABOUTME: Covers admin short-circuit, fallback on not found, and verbatim admin failures

package auth

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2389/coven-account/internal/apierr"
	"github.com/2389/coven-account/internal/store"
)

// stubAdmins returns a fixed admin result.
type stubAdmins struct {
	principal *AdminPrincipal
	err       error
	calls     int
}

func (s *stubAdmins) ValidateSession(ctx context.Context, token string) (*AdminPrincipal, error) {
	s.calls++
	return s.principal, s.err
}

// countingSessions wraps a SessionFinder and counts lookups.
type countingSessions struct {
	SessionFinder
	calls       int
	lastInclude store.Include
}

func (c *countingSessions) FindSession(ctx context.Context, token string, include store.Include) (*store.Session, error) {
	c.calls++
	c.lastInclude = include
	return c.SessionFinder.FindSession(ctx, token, include)
}

func notAdmin() *stubAdmins {
	return &stubAdmins{err: store.ErrAdminSessionNotFound}
}

func seedSession(t *testing.T, m *store.MockStore, token string) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, m.CreateAccount(ctx, &store.Account{ID: "acct-1", Username: "alice", PasswordHash: "x"}))
	require.NoError(t, m.CreateSession(ctx, &store.Session{
		ID:        token,
		AccountID: "acct-1",
		ExpiresAt: time.Now().Add(time.Hour),
	}))
}

func TestResolve_AdminShortCircuits(t *testing.T) {
	mock := store.NewMockStore()
	seedSession(t, mock, "tok")
	sessions := &countingSessions{SessionFinder: mock}
	admins := &stubAdmins{principal: &AdminPrincipal{UserID: "admin-1", Mechanism: MechanismSession}}

	res := NewResolver(admins, sessions).Resolve(context.Background(), "tok", store.IncludeNone)

	assert.Equal(t, ResolvedAdmin, res.Kind)
	assert.Equal(t, "admin-1", res.Admin.UserID)
	assert.Equal(t, 0, sessions.calls, "session store must not be consulted")

	session, err := res.Session()
	assert.Nil(t, session)
	assert.ErrorIs(t, err, apierr.ErrForbiddenAdminAccount)
}

func TestResolve_FallsBackToSession(t *testing.T) {
	mock := store.NewMockStore()
	seedSession(t, mock, "tok")
	sessions := &countingSessions{SessionFinder: mock}

	res := NewResolver(notAdmin(), sessions).Resolve(context.Background(), "tok", store.IncludeAccountProfile)

	require.Equal(t, ResolvedSession, res.Kind)
	assert.Equal(t, store.IncludeAccountProfile, sessions.lastInclude)

	session, err := res.Session()
	require.NoError(t, err)
	assert.Equal(t, "alice", session.Account.Username)
	assert.NotNil(t, session.Account.Profile)
}

func TestResolve_NotFoundEverywhere(t *testing.T) {
	res := NewResolver(notAdmin(), store.NewMockStore()).Resolve(context.Background(), "abc", store.IncludeNone)

	assert.Equal(t, ResolvedNotFound, res.Kind)

	_, err := res.Session()
	require.Error(t, err)
	status, msg := apierr.Translate(err, http.StatusInternalServerError)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "Session not found", msg)
	assert.ErrorIs(t, err, store.ErrSessionNotFound)
}

func TestResolve_EmptyTokenIsNotFound(t *testing.T) {
	mock := store.NewMockStore()
	chain := AdminChain{NewStoreAdminValidator(mock)}

	res := NewResolver(chain, mock).Resolve(context.Background(), "", store.IncludeNone)
	assert.Equal(t, ResolvedNotFound, res.Kind)
}

func TestResolve_AdminFailureIsNotMasked(t *testing.T) {
	boom := errors.New("admin store unreachable")
	admins := &stubAdmins{err: boom}
	sessions := &countingSessions{SessionFinder: store.NewMockStore()}

	res := NewResolver(admins, sessions).Resolve(context.Background(), "tok", store.IncludeNone)

	assert.Equal(t, ResolvedError, res.Kind)
	assert.Equal(t, 0, sessions.calls, "no fallback after an admin failure")

	_, err := res.Session()
	assert.Same(t, boom, err)
	assert.NotErrorIs(t, err, store.ErrNotFound)
}

func TestResolve_SessionFailurePropagates(t *testing.T) {
	boom := errors.New("database is locked")
	mock := store.NewMockStore()
	mock.FindSessionErr = boom

	res := NewResolver(notAdmin(), mock).Resolve(context.Background(), "tok", store.IncludeNone)

	assert.Equal(t, ResolvedError, res.Kind)
	_, err := res.Session()
	assert.Same(t, boom, err)
}

func TestResolutionKind_String(t *testing.T) {
	assert.Equal(t, "admin", ResolvedAdmin.String())
	assert.Equal(t, "session", ResolvedSession.String())
	assert.Equal(t, "not_found", ResolvedNotFound.String())
	assert.Equal(t, "error", ResolvedError.String())
}
