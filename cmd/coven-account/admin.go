// ABOUTME: Operator commands that work directly on the database: bootstrap-admin and audit
// ABOUTME: Creates admin users with a session token and lists store totals and recent audit entries

package main

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/fatih/color"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/2389/coven-account/internal/auth"
	"github.com/2389/coven-account/internal/config"
	"github.com/2389/coven-account/internal/store"
)

// defaultAdminTTL is how long a bootstrapped admin token stays valid.
const defaultAdminTTL = 30 * 24 * time.Hour

// bootstrapRequest describes the admin to create.
type bootstrapRequest struct {
	Username    string
	Password    string
	DisplayName string
	TTL         time.Duration
	BcryptCost  int
}

// bootstrapResult is what bootstrap-admin reports back to the operator.
type bootstrapResult struct {
	User              *store.AdminUser
	GeneratedPassword string
	SessionToken      string
	ExpiresAt         time.Time
}

// newToken returns a random URL-safe bearer token.
func newToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generating token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// bootstrapAdmin creates an admin user and an admin session for it.
func bootstrapAdmin(ctx context.Context, admins store.AdminStore, req bootstrapRequest) (*bootstrapResult, error) {
	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" {
		return nil, fmt.Errorf("--username is required")
	}
	if req.TTL <= 0 {
		req.TTL = defaultAdminTTL
	}
	if req.BcryptCost == 0 {
		req.BcryptCost = bcrypt.DefaultCost
	}

	if _, err := admins.GetAdminUserByUsername(ctx, req.Username); err == nil {
		return nil, fmt.Errorf("admin %q already exists", req.Username)
	} else if !errors.Is(err, store.ErrAdminUserNotFound) {
		return nil, fmt.Errorf("looking up admin: %w", err)
	}

	result := &bootstrapResult{}
	if req.Password == "" {
		b := make([]byte, 12)
		if _, err := rand.Read(b); err != nil {
			return nil, fmt.Errorf("generating password: %w", err)
		}
		req.Password = hex.EncodeToString(b)
		result.GeneratedPassword = req.Password
	}
	if len(req.Password) < 8 {
		return nil, fmt.Errorf("password must be at least 8 characters")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), req.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	user := &store.AdminUser{
		ID:           uuid.New().String(),
		Username:     req.Username,
		PasswordHash: string(hash),
		DisplayName:  req.DisplayName,
	}
	if err := admins.CreateAdminUser(ctx, user); err != nil {
		if errors.Is(err, store.ErrUsernameExists) {
			return nil, fmt.Errorf("admin %q already exists", req.Username)
		}
		return nil, fmt.Errorf("creating admin user: %w", err)
	}
	result.User = user

	token, err := newToken()
	if err != nil {
		return nil, err
	}
	session := &store.AdminSession{
		ID:        token,
		UserID:    user.ID,
		ExpiresAt: time.Now().Add(req.TTL).UTC(),
	}
	if err := admins.CreateAdminSession(ctx, session); err != nil {
		return nil, fmt.Errorf("creating admin session: %w", err)
	}
	result.SessionToken = token
	result.ExpiresAt = session.ExpiresAt

	return result, nil
}

func runBootstrapAdmin(ctx context.Context, args []string) error {
	var configPath string
	req := bootstrapRequest{}

	fs := newFlagSet("bootstrap-admin", &configPath)
	fs.StringVarP(&req.Username, "username", "u", "", "admin username (required)")
	fs.StringVarP(&req.Password, "password", "p", "", "admin password (generated when omitted)")
	fs.StringVar(&req.DisplayName, "display-name", "", "admin display name")
	fs.DurationVar(&req.TTL, "ttl", defaultAdminTTL, "admin token lifetime")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() > 0 {
		return fmt.Errorf("unexpected argument: %s", fs.Arg(0))
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	req.BcryptCost = cfg.Accounts.BcryptCost

	s, err := store.NewSQLiteStore(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer s.Close()

	result, err := bootstrapAdmin(ctx, s, req)
	if err != nil {
		return err
	}

	var jwtToken string
	if cfg.Auth.JWTSecret != "" {
		jwtToken, err = auth.NewAdminTokens([]byte(cfg.Auth.JWTSecret)).Issue(result.User.ID, req.TTL)
		if err != nil {
			return fmt.Errorf("generating JWT: %w", err)
		}
	}

	printBootstrapResult(os.Stdout, result, jwtToken)
	return nil
}

func printBootstrapResult(w io.Writer, result *bootstrapResult, jwtToken string) {
	green := color.New(color.FgGreen)
	cyan := color.New(color.FgCyan)
	yellow := color.New(color.FgYellow)

	fmt.Fprintln(w)
	green.Fprintf(w, "  ✓ Created admin: %s\n", result.User.Username)
	fmt.Fprintln(w)
	cyan.Fprintln(w, "  Admin")
	cyan.Fprintln(w, "  -----")
	fmt.Fprintf(w, "  ID:       %s\n", result.User.ID)
	if result.GeneratedPassword != "" {
		fmt.Fprintf(w, "  Password: %s\n", result.GeneratedPassword)
	}
	fmt.Fprintf(w, "  Token:    %s\n", result.SessionToken)
	if jwtToken != "" {
		fmt.Fprintf(w, "  JWT:      %s\n", jwtToken)
	}
	fmt.Fprintf(w, "  Expires:  %s\n", result.ExpiresAt.Format("Jan 02, 2006"))
	fmt.Fprintln(w)
	yellow.Fprintln(w, "  Admin tokens are refused on /session/account routes.")
	fmt.Fprintln(w)
}

func runAudit(ctx context.Context, args []string) error {
	var configPath, action, actor string
	var limit int

	fs := newFlagSet("audit", &configPath)
	fs.IntVarP(&limit, "limit", "n", 20, "maximum number of entries")
	fs.StringVar(&action, "action", "", "filter by action (account_created, account_deleted, admin_account_denied)")
	fs.StringVar(&actor, "actor", "", "filter by actor ID")
	if err := fs.Parse(args); err != nil {
		return err
	}

	filter := store.AuditFilter{Limit: limit}
	if action != "" {
		a := store.AuditAction(action)
		if !isValidAuditAction(a) {
			return fmt.Errorf("unknown action %q", action)
		}
		filter.Action = &a
	}
	if actor != "" {
		filter.ActorID = &actor
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	s, err := store.NewSQLiteStore(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer s.Close()

	accounts, err := s.CountAccounts(ctx)
	if err != nil {
		return err
	}
	admins, err := s.CountAdminUsers(ctx)
	if err != nil {
		return err
	}

	entries, err := s.ListAuditLog(ctx, filter)
	if err != nil {
		return fmt.Errorf("listing audit log: %w", err)
	}

	printStoreTotals(os.Stdout, accounts, admins)
	printAuditEntries(os.Stdout, entries)
	return nil
}

func printStoreTotals(w io.Writer, accounts, admins int) {
	fmt.Fprintf(w, "  Accounts: %d   Admins: %d\n\n", accounts, admins)
}

func isValidAuditAction(a store.AuditAction) bool {
	for _, valid := range store.ValidAuditActions {
		if a == valid {
			return true
		}
	}
	return false
}

func printAuditEntries(out io.Writer, entries []store.AuditEntry) {
	if len(entries) == 0 {
		fmt.Fprintln(out, "  No audit entries.")
		return
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "  TIME\tACTION\tACTOR\tTARGET\tDETAIL")
	fmt.Fprintln(w, "  ----\t------\t-----\t------\t------")

	for _, e := range entries {
		keys := make([]string, 0, len(e.Detail))
		for k := range e.Detail {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, 0, len(keys))
		for _, k := range keys {
			parts = append(parts, fmt.Sprintf("%s=%v", k, e.Detail[k]))
		}
		fmt.Fprintf(w, "  %s\t%s\t%s\t%s:%s\t%s\n",
			e.Timestamp.Local().Format("Jan 02 15:04:05"),
			e.Action,
			truncate(e.ActorID, 20),
			e.TargetType,
			truncate(e.TargetID, 20),
			strings.Join(parts, " "),
		)
	}
	w.Flush()
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}
