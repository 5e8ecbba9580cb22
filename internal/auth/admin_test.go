// ABOUTME: Tests for admin token validators and the validator chain
// ABOUTME: Covers stored admin sessions, admin JWTs, and chain error handling

package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2389/coven-account/internal/store"
)

func seedAdmin(t *testing.T, m *store.MockStore) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, m.CreateAdminUser(ctx, &store.AdminUser{ID: "admin-1", Username: "root", DisplayName: "Root"}))
	require.NoError(t, m.CreateAdminSession(ctx, &store.AdminSession{
		ID:        "admin-token",
		UserID:    "admin-1",
		ExpiresAt: time.Now().Add(time.Hour),
	}))
}

func TestStoreAdminValidator(t *testing.T) {
	mock := store.NewMockStore()
	seedAdmin(t, mock)
	v := NewStoreAdminValidator(mock)

	principal, err := v.ValidateSession(context.Background(), "admin-token")
	require.NoError(t, err)
	assert.Equal(t, "admin-1", principal.UserID)
	assert.Equal(t, "root", principal.Username)
	assert.Equal(t, MechanismSession, principal.Mechanism)

	_, err = v.ValidateSession(context.Background(), "user-token")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestJWTAdminValidator(t *testing.T) {
	mock := store.NewMockStore()
	seedAdmin(t, mock)
	tokens := NewAdminTokens(testSecret)
	v := NewJWTAdminValidator(tokens, mock)

	token, err := tokens.Issue("admin-1", time.Hour)
	require.NoError(t, err)

	principal, err := v.ValidateSession(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, MechanismJWT, principal.Mechanism)

	// Opaque user tokens are simply not admin tokens
	_, err = v.ValidateSession(context.Background(), "3f9a0c1e7b")
	assert.ErrorIs(t, err, store.ErrNotFound)

	// Signed for an admin that no longer exists
	ghost, err := tokens.Issue("admin-ghost", time.Hour)
	require.NoError(t, err)
	_, err = v.ValidateSession(context.Background(), ghost)
	assert.ErrorIs(t, err, store.ErrAdminUserNotFound)
}

func TestAdminChain(t *testing.T) {
	notFound := &stubAdmins{err: store.ErrAdminSessionNotFound}
	found := &stubAdmins{principal: &AdminPrincipal{UserID: "admin-1"}}
	broken := &stubAdmins{err: errors.New("connection refused")}

	t.Run("falls through not found", func(t *testing.T) {
		principal, err := AdminChain{notFound, found}.ValidateSession(context.Background(), "tok")
		require.NoError(t, err)
		assert.Equal(t, "admin-1", principal.UserID)
	})

	t.Run("stops on failure", func(t *testing.T) {
		after := &stubAdmins{principal: &AdminPrincipal{UserID: "admin-2"}}
		_, err := AdminChain{broken, after}.ValidateSession(context.Background(), "tok")
		assert.EqualError(t, err, "connection refused")
		assert.Equal(t, 0, after.calls)
	})

	t.Run("all not found", func(t *testing.T) {
		_, err := AdminChain{notFound, notFound}.ValidateSession(context.Background(), "tok")
		assert.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("empty chain", func(t *testing.T) {
		_, err := AdminChain{}.ValidateSession(context.Background(), "tok")
		assert.ErrorIs(t, err, store.ErrAdminSessionNotFound)
	})
}
