// ABOUTME: Tests for the Redis session store against miniredis
// ABOUTME: Covers lookup with includes, TTL expiry, and per-account session removal

package store

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedisSessions(t *testing.T) (*miniredis.Miniredis, *RedisSessionStore, *MockStore) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	accounts := NewMockStore()
	return mr, NewRedisSessionStore(client, accounts, "ca:"), accounts
}

func TestRedisSessions_FindSession(t *testing.T) {
	_, sessions, accounts := newTestRedisSessions(t)
	ctx := context.Background()

	createTestAccount(t, accounts, "acct-1", "alice")
	require.NoError(t, sessions.CreateSession(ctx, &Session{
		ID:        "token-abc",
		AccountID: "acct-1",
		ExpiresAt: time.Now().Add(time.Hour),
	}))

	session, err := sessions.FindSession(ctx, "token-abc", IncludeNone)
	require.NoError(t, err)
	assert.Equal(t, "acct-1", session.AccountID)
	assert.Equal(t, "alice", session.Account.Username)
	assert.Nil(t, session.Account.Profile)

	session, err = sessions.FindSession(ctx, "token-abc", IncludeAccountProfile)
	require.NoError(t, err)
	require.NotNil(t, session.Account.Profile)

	_, err = sessions.FindSession(ctx, "unknown", IncludeNone)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestRedisSessions_CreateSession_UnknownAccount(t *testing.T) {
	_, sessions, _ := newTestRedisSessions(t)

	err := sessions.CreateSession(context.Background(), &Session{
		ID:        "token",
		AccountID: "ghost",
		ExpiresAt: time.Now().Add(time.Hour),
	})
	assert.ErrorIs(t, err, ErrAccountNotFound)
}

func TestRedisSessions_ExpiryAndPrune(t *testing.T) {
	mr, sessions, accounts := newTestRedisSessions(t)
	ctx := context.Background()

	createTestAccount(t, accounts, "acct-1", "alice")
	require.NoError(t, sessions.CreateSession(ctx, &Session{
		ID:        "short",
		AccountID: "acct-1",
		ExpiresAt: time.Now().Add(time.Minute),
	}))
	require.NoError(t, sessions.CreateSession(ctx, &Session{
		ID:        "long",
		AccountID: "acct-1",
		ExpiresAt: time.Now().Add(time.Hour),
	}))

	mr.FastForward(2 * time.Minute)

	_, err := sessions.FindSession(ctx, "short", IncludeNone)
	assert.ErrorIs(t, err, ErrSessionNotFound)

	n, err := sessions.DeleteExpiredSessions(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	members, err := mr.Members("ca:account:acct-1:sessions")
	require.NoError(t, err)
	assert.Equal(t, []string{"long"}, members)
}

func TestRedisSessions_AccountRemoved(t *testing.T) {
	mr, sessions, accounts := newTestRedisSessions(t)
	ctx := context.Background()

	createTestAccount(t, accounts, "acct-1", "alice")
	require.NoError(t, sessions.CreateSession(ctx, &Session{
		ID:        "token-abc",
		AccountID: "acct-1",
		ExpiresAt: time.Now().Add(time.Hour),
	}))

	require.NoError(t, accounts.DeleteAccount(ctx, "acct-1"))

	// A dangling session resolves as not found
	_, err := sessions.FindSession(ctx, "token-abc", IncludeNone)
	assert.ErrorIs(t, err, ErrSessionNotFound)

	require.NoError(t, sessions.DeleteAccountSessions(ctx, "acct-1"))
	assert.False(t, mr.Exists("ca:session:token-abc"))
	assert.False(t, mr.Exists("ca:account:acct-1:sessions"))
}

func TestRedisSessions_DeleteSession(t *testing.T) {
	mr, sessions, accounts := newTestRedisSessions(t)
	ctx := context.Background()

	createTestAccount(t, accounts, "acct-1", "alice")
	require.NoError(t, sessions.CreateSession(ctx, &Session{
		ID:        "token-abc",
		AccountID: "acct-1",
		ExpiresAt: time.Now().Add(time.Hour),
	}))

	require.NoError(t, sessions.DeleteSession(ctx, "token-abc"))
	require.NoError(t, sessions.DeleteSession(ctx, "token-abc"), "deleting twice is fine")

	assert.False(t, mr.Exists("ca:session:token-abc"))
	require.NoError(t, sessions.Ping(ctx))
}
