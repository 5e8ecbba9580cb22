// ABOUTME: Tests for coven-account CLI helpers
// ABOUTME: Covers admin bootstrap, generated config round-trip, audit listing, and log formatting

package main

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/2389/coven-account/internal/auth"
	"github.com/2389/coven-account/internal/config"
	"github.com/2389/coven-account/internal/store"
)

func TestBootstrapAdmin(t *testing.T) {
	mock := store.NewMockStore()
	ctx := context.Background()

	result, err := bootstrapAdmin(ctx, mock, bootstrapRequest{
		Username:   " root ",
		Password:   "correct-horse",
		TTL:        time.Hour,
		BcryptCost: bcrypt.MinCost,
	})
	require.NoError(t, err)

	assert.Equal(t, "root", result.User.Username)
	assert.Empty(t, result.GeneratedPassword)
	assert.NotEmpty(t, result.SessionToken)
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(result.User.PasswordHash), []byte("correct-horse")))

	// The printed token resolves as an admin.
	principal, err := auth.NewStoreAdminValidator(mock).ValidateSession(ctx, result.SessionToken)
	require.NoError(t, err)
	assert.Equal(t, result.User.ID, principal.UserID)

	_, err = bootstrapAdmin(ctx, mock, bootstrapRequest{Username: "root", Password: "correct-horse", BcryptCost: bcrypt.MinCost})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")
}

func TestBootstrapAdmin_GeneratesPassword(t *testing.T) {
	result, err := bootstrapAdmin(context.Background(), store.NewMockStore(), bootstrapRequest{
		Username:   "root",
		BcryptCost: bcrypt.MinCost,
	})
	require.NoError(t, err)

	assert.Len(t, result.GeneratedPassword, 24)
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(result.User.PasswordHash), []byte(result.GeneratedPassword)))
	assert.WithinDuration(t, time.Now().Add(defaultAdminTTL), result.ExpiresAt, time.Minute)
}

func TestBootstrapAdmin_Rejects(t *testing.T) {
	mock := store.NewMockStore()

	_, err := bootstrapAdmin(context.Background(), mock, bootstrapRequest{Username: "  "})
	assert.Error(t, err)

	_, err = bootstrapAdmin(context.Background(), mock, bootstrapRequest{Username: "root", Password: "short"})
	assert.Error(t, err)

	n, err := mock.CountAdminUsers(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestRenderConfig_ParsesBack(t *testing.T) {
	secret, err := newSecret()
	require.NoError(t, err)

	content := renderConfig(initAnswers{
		HTTPAddr:      "127.0.0.1:9000",
		BaseURL:       "https://accounts.example.com",
		DBPath:        "/var/lib/coven/account.db",
		Backend:       config.BackendRedis,
		RedisAddr:     "localhost:6379",
		JWTSecret:     secret,
		DefaultRegion: "GB",
		LogLevel:      "debug",
		LogFormat:     "json",
	})

	cfg, err := config.Parse(content, "yaml")
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:9000", cfg.Server.HTTPAddr)
	assert.Equal(t, "https://accounts.example.com", cfg.Server.BaseURL)
	assert.Equal(t, config.BackendRedis, cfg.Sessions.Backend)
	assert.Equal(t, "localhost:6379", cfg.Sessions.Redis.Addr)
	assert.Equal(t, secret, cfg.Auth.JWTSecret)
	assert.Equal(t, 24*time.Hour, cfg.Sessions.TTL)
	assert.Equal(t, "GB", cfg.Accounts.DefaultRegion)
}

func TestRenderConfig_WithoutSecret(t *testing.T) {
	content := renderConfig(initAnswers{
		HTTPAddr:      config.DefaultHTTPAddr,
		BaseURL:       "http://" + config.DefaultHTTPAddr,
		DBPath:        "account.db",
		Backend:       config.BackendSQLite,
		DefaultRegion: "US",
		LogLevel:      "info",
		LogFormat:     "text",
	})

	assert.NotContains(t, content, "auth:")
	assert.NotContains(t, content, "redis:")

	_, err := config.Parse(content, "yaml")
	assert.NoError(t, err)
}

func TestPrintAuditEntries(t *testing.T) {
	var buf bytes.Buffer
	printAuditEntries(&buf, nil)
	assert.Contains(t, buf.String(), "No audit entries")

	buf.Reset()
	printAuditEntries(&buf, []store.AuditEntry{{
		ActorID:    "admin-1",
		Action:     store.AuditAdminAccountDenied,
		TargetType: "account",
		TargetID:   "admin-1",
		Timestamp:  time.Now(),
		Detail:     map[string]any{"route": "GET /session/account"},
	}})

	out := buf.String()
	assert.Contains(t, out, "admin_account_denied")
	assert.Contains(t, out, "route=GET /session/account")
}

func TestIsValidAuditAction(t *testing.T) {
	assert.True(t, isValidAuditAction(store.AuditAccountCreated))
	assert.False(t, isValidAuditAction("account_renamed"))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abcdefg...", truncate("abcdefghijklmnop", 10))
}

func TestColorHandler(t *testing.T) {
	color.NoColor = true
	t.Cleanup(func() { color.NoColor = false })

	var buf bytes.Buffer
	logger := newLogger(config.LoggingConfig{Level: "info", Format: "text"}, &buf)

	logger.Debug("hidden")
	logger.With("component", "gateway").WithGroup("req").Info("account created", "id", "acct-1")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "INF account created")
	assert.Contains(t, out, "component=gateway")
	assert.Contains(t, out, "req.id=acct-1")
	assert.Equal(t, 1, strings.Count(out, "\n"))
}

func TestNewLogger_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(config.LoggingConfig{Level: "warn", Format: "json"}, &buf)

	logger.Info("skipped")
	logger.Warn("kept", "n", 1)

	assert.NotContains(t, buf.String(), "skipped")
	assert.Contains(t, buf.String(), `"msg":"kept"`)
	assert.True(t, logger.Enabled(context.Background(), slog.LevelError))
}

func TestIssueSession(t *testing.T) {
	mock := store.NewMockStore()
	ctx := context.Background()
	require.NoError(t, mock.CreateAccount(ctx, &store.Account{ID: "acct-1", Username: "alice", PasswordHash: "x"}))

	session, err := issueSession(ctx, mock, mock, " alice ", time.Hour)
	require.NoError(t, err)
	assert.Equal(t, "acct-1", session.AccountID)
	assert.WithinDuration(t, time.Now().Add(time.Hour), session.ExpiresAt, time.Minute)

	found, err := mock.FindSession(ctx, session.ID, store.IncludeNone)
	require.NoError(t, err)
	assert.Equal(t, "alice", found.Account.Username)

	_, err = issueSession(ctx, mock, mock, "bob", time.Hour)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `no account named "bob"`)

	_, err = issueSession(ctx, mock, mock, "  ", time.Hour)
	assert.Error(t, err)
}

func TestRevokeToken(t *testing.T) {
	mock := store.NewMockStore()
	ctx := context.Background()

	require.NoError(t, mock.CreateAccount(ctx, &store.Account{ID: "acct-1", Username: "alice", PasswordHash: "x"}))
	session, err := issueSession(ctx, mock, mock, "alice", time.Hour)
	require.NoError(t, err)

	admin, err := bootstrapAdmin(ctx, mock, bootstrapRequest{Username: "root", Password: "correct-horse", BcryptCost: bcrypt.MinCost})
	require.NoError(t, err)

	require.NoError(t, revokeToken(ctx, mock, mock, session.ID))
	_, err = mock.FindSession(ctx, session.ID, store.IncludeNone)
	assert.ErrorIs(t, err, store.ErrSessionNotFound)

	require.NoError(t, revokeToken(ctx, mock, mock, admin.SessionToken))
	_, err = mock.GetAdminSession(ctx, admin.SessionToken)
	assert.ErrorIs(t, err, store.ErrAdminSessionNotFound)

	// Unknown tokens are fine; blank ones are not.
	assert.NoError(t, revokeToken(ctx, mock, mock, "never-issued"))
	assert.Error(t, revokeToken(ctx, mock, mock, ""))
}

func TestPrintStoreTotals(t *testing.T) {
	var buf bytes.Buffer
	printStoreTotals(&buf, 3, 1)
	assert.Contains(t, buf.String(), "Accounts: 3")
	assert.Contains(t, buf.String(), "Admins: 1")
}
