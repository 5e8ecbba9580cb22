// ABOUTME: Operator commands for user session tokens: issue-session and revoke-token
// ABOUTME: Issues bearer tokens for existing accounts and revokes user or admin tokens

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"

	"github.com/2389/coven-account/internal/config"
	"github.com/2389/coven-account/internal/gateway"
	"github.com/2389/coven-account/internal/store"
)

// issueSession creates a user session for the account named username.
func issueSession(ctx context.Context, accounts store.AccountStore, sessions store.SessionStore, username string, ttl time.Duration) (*store.Session, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, fmt.Errorf("--username is required")
	}
	if ttl <= 0 {
		ttl = config.DefaultSessionTTL
	}

	acct, err := accounts.GetAccountByUsername(ctx, username)
	if errors.Is(err, store.ErrAccountNotFound) {
		return nil, fmt.Errorf("no account named %q", username)
	}
	if err != nil {
		return nil, fmt.Errorf("looking up account: %w", err)
	}

	token, err := newToken()
	if err != nil {
		return nil, err
	}
	session := &store.Session{
		ID:        token,
		AccountID: acct.ID,
		ExpiresAt: time.Now().Add(ttl).UTC(),
	}
	if err := sessions.CreateSession(ctx, session); err != nil {
		return nil, fmt.Errorf("creating session: %w", err)
	}
	session.Account = acct
	return session, nil
}

// revokeToken deletes token from both the admin and the user session stores.
// Unknown tokens are not an error.
func revokeToken(ctx context.Context, admins store.AdminStore, sessions store.SessionStore, token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return fmt.Errorf("--token is required")
	}
	if err := admins.DeleteAdminSession(ctx, token); err != nil {
		return fmt.Errorf("revoking admin session: %w", err)
	}
	if err := sessions.DeleteSession(ctx, token); err != nil {
		return fmt.Errorf("revoking session: %w", err)
	}
	return nil
}

// openSessionStores opens the database and the configured user session
// backend. The returned close func releases both.
func openSessionStores(cfg *config.Config) (*store.SQLiteStore, store.SessionStore, func(), error) {
	s, err := store.NewSQLiteStore(cfg.Database.Path)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("opening database: %w", err)
	}

	sessions, client := gateway.NewSessionStore(cfg, s)
	closeAll := func() {
		if client != nil {
			client.Close()
		}
		s.Close()
	}
	return s, sessions, closeAll, nil
}

func runIssueSession(ctx context.Context, args []string) error {
	var configPath, username string
	var ttl time.Duration

	fs := newFlagSet("issue-session", &configPath)
	fs.StringVarP(&username, "username", "u", "", "account username (required)")
	fs.DurationVar(&ttl, "ttl", 0, "session lifetime (default sessions.ttl)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if ttl == 0 {
		ttl = cfg.Sessions.TTL
	}

	s, sessions, closeAll, err := openSessionStores(cfg)
	if err != nil {
		return err
	}
	defer closeAll()

	session, err := issueSession(ctx, s, sessions, username, ttl)
	if err != nil {
		return err
	}

	printIssuedSession(os.Stdout, session)
	return nil
}

func printIssuedSession(w io.Writer, session *store.Session) {
	green := color.New(color.FgGreen)

	fmt.Fprintln(w)
	green.Fprintf(w, "  ✓ Issued session for %s\n", session.Account.Username)
	fmt.Fprintln(w)
	fmt.Fprintf(w, "  Account:  %s\n", session.AccountID)
	fmt.Fprintf(w, "  Token:    %s\n", session.ID)
	fmt.Fprintf(w, "  Expires:  %s\n", session.ExpiresAt.Local().Format("Jan 02, 2006 15:04"))
	fmt.Fprintln(w)
}

func runRevokeToken(ctx context.Context, args []string) error {
	var configPath, token string

	fs := newFlagSet("revoke-token", &configPath)
	fs.StringVarP(&token, "token", "t", "", "admin or user bearer token to revoke (required)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	s, sessions, closeAll, err := openSessionStores(cfg)
	if err != nil {
		return err
	}
	defer closeAll()

	if err := revokeToken(ctx, s, sessions, token); err != nil {
		return err
	}

	color.New(color.FgGreen).Println("  ✓ Token revoked")
	return nil
}
