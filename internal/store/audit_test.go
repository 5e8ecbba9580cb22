// ABOUTME: Tests for audit log and admin store operations
// ABOUTME: Covers append, filtered listing, and admin session expiry

package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuditStore_Append(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	entry := &AuditEntry{
		ActorID:    "acct-1",
		Action:     AuditAccountCreated,
		TargetType: "account",
		TargetID:   "acct-1",
		Detail:     map[string]any{"username": "alice"},
	}

	require.NoError(t, store.AppendAuditLog(ctx, entry))
	assert.NotEmpty(t, entry.ID)
	assert.False(t, entry.Timestamp.IsZero())

	entries, err := store.ListAuditLog(ctx, AuditFilter{})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "alice", entries[0].Detail["username"])
}

func TestAuditStore_RejectsUnknownAction(t *testing.T) {
	store := setupTestStore(t)

	err := store.AppendAuditLog(context.Background(), &AuditEntry{
		ActorID:    "acct-1",
		Action:     AuditAction("launch_rockets"),
		TargetType: "account",
		TargetID:   "acct-1",
	})
	assert.Error(t, err)
}

func TestAuditStore_List_Filters(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	base := time.Now().UTC().Truncate(time.Second).Add(-time.Hour)

	seed := []AuditEntry{
		{ActorID: "acct-1", Action: AuditAccountCreated, TargetID: "acct-1", Timestamp: base},
		{ActorID: "admin-1", Action: AuditAdminAccountDenied, TargetID: "admin-1", Timestamp: base.Add(time.Minute)},
		{ActorID: "acct-1", Action: AuditAccountDeleted, TargetID: "acct-1", Timestamp: base.Add(2 * time.Minute)},
	}
	for i := range seed {
		seed[i].TargetType = "account"
		require.NoError(t, store.AppendAuditLog(ctx, &seed[i]))
	}

	all, err := store.ListAuditLog(ctx, AuditFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, AuditAccountDeleted, all[0].Action, "newest first")

	actor := "acct-1"
	byActor, err := store.ListAuditLog(ctx, AuditFilter{ActorID: &actor})
	require.NoError(t, err)
	assert.Len(t, byActor, 2)

	action := AuditAdminAccountDenied
	byAction, err := store.ListAuditLog(ctx, AuditFilter{Action: &action})
	require.NoError(t, err)
	require.Len(t, byAction, 1)
	assert.Equal(t, "admin-1", byAction[0].ActorID)

	since := base.Add(90 * time.Second)
	recent, err := store.ListAuditLog(ctx, AuditFilter{Since: &since})
	require.NoError(t, err)
	assert.Len(t, recent, 1)

	limited, err := store.ListAuditLog(ctx, AuditFilter{Limit: 2})
	require.NoError(t, err)
	assert.Len(t, limited, 2)
}

func TestNormalizeAuditLimit(t *testing.T) {
	assert.Equal(t, 100, normalizeAuditLimit(0))
	assert.Equal(t, 100, normalizeAuditLimit(-5))
	assert.Equal(t, 50, normalizeAuditLimit(50))
	assert.Equal(t, 1000, normalizeAuditLimit(5000))
}

func TestAdminStore_Sessions(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.CreateAdminUser(ctx, &AdminUser{
		ID:          "admin-1",
		Username:    "root",
		DisplayName: "Root",
	}))

	err := store.CreateAdminUser(ctx, &AdminUser{ID: "admin-2", Username: "root", DisplayName: "Dup"})
	assert.ErrorIs(t, err, ErrUsernameExists)

	user, err := store.GetAdminUserByUsername(ctx, "root")
	require.NoError(t, err)
	assert.Empty(t, user.PasswordHash)

	require.NoError(t, store.CreateAdminSession(ctx, &AdminSession{
		ID:        "admin-token",
		UserID:    "admin-1",
		ExpiresAt: time.Now().Add(time.Hour),
	}))
	require.NoError(t, store.CreateAdminSession(ctx, &AdminSession{
		ID:        "admin-stale",
		UserID:    "admin-1",
		CreatedAt: time.Now().Add(-2 * time.Hour),
		ExpiresAt: time.Now().Add(-time.Hour),
	}))

	session, err := store.GetAdminSession(ctx, "admin-token")
	require.NoError(t, err)
	assert.Equal(t, "admin-1", session.UserID)

	_, err = store.GetAdminSession(ctx, "admin-stale")
	assert.ErrorIs(t, err, ErrAdminSessionNotFound)
	assert.ErrorIs(t, err, ErrNotFound)

	n, err := store.DeleteExpiredAdminSessions(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	_, err = store.GetAdminUser(ctx, "missing")
	assert.ErrorIs(t, err, ErrAdminUserNotFound)
}
