// ABOUTME: Account lifecycle service: sign-up and removal
// ABOUTME: Hashes passwords, maps store failures to API errors, and writes the audit log

package account

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/2389/coven-account/internal/apierr"
	"github.com/2389/coven-account/internal/store"
)

// auditTarget is the target type of every audit entry this service writes.
const auditTarget = "account"

// Config holds the service settings.
type Config struct {
	BcryptCost    int    // defaults to bcrypt.DefaultCost
	DefaultRegion string // region for phone numbers without a country code, e.g. "US"
}

// Service creates and removes accounts.
type Service struct {
	accounts store.AccountStore
	sessions store.SessionStore
	audit    store.AuditStore
	cfg      Config
	logger   *slog.Logger
}

// NewService creates an account service. sessions holds the user sessions
// removed alongside an account; audit may be nil.
func NewService(accounts store.AccountStore, sessions store.SessionStore, audit store.AuditStore, cfg Config) *Service {
	if cfg.BcryptCost == 0 {
		cfg.BcryptCost = bcrypt.DefaultCost
	}
	if cfg.DefaultRegion == "" {
		cfg.DefaultRegion = "US"
	}
	return &Service{
		accounts: accounts,
		sessions: sessions,
		audit:    audit,
		cfg:      cfg,
		logger:   slog.Default().With("component", "account"),
	}
}

// Add creates an account and its optional initial profile, then returns the
// stored account with the relations named by include.
func (s *Service) Add(ctx context.Context, in NewAccount, include store.Include) (*store.Account, error) {
	in.Username = strings.TrimSpace(in.Username)
	if err := in.Validate(); err != nil {
		return nil, apierr.Validation(err.Error(), err)
	}

	var profile *store.Profile
	if in.Profile != nil {
		phone, err := normalizePhone(in.Profile.Phone, s.cfg.DefaultRegion)
		if err != nil {
			return nil, apierr.Validation("profile: "+err.Error(), err)
		}
		profile = &store.Profile{
			FullName: strings.TrimSpace(in.Profile.FullName),
			Email:    strings.TrimSpace(in.Profile.Email),
			Phone:    phone,
		}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.cfg.BcryptCost)
	if err != nil {
		return nil, err
	}

	acct := &store.Account{
		ID:           in.ID,
		Username:     in.Username,
		PasswordHash: string(hash),
		Profile:      profile,
	}
	if acct.ID == "" {
		acct.ID = uuid.New().String()
	}

	// The account and its profile are stored together or not at all.
	if err := s.accounts.CreateAccount(ctx, acct); err != nil {
		switch {
		case errors.Is(err, store.ErrUsernameExists):
			return nil, apierr.Conflict("Username already taken", err)
		case errors.Is(err, store.ErrAccountIDExists):
			return nil, apierr.Conflict("Account id already exists", err)
		}
		return nil, err
	}

	s.record(ctx, acct.ID, store.AuditAccountCreated, acct.ID, map[string]any{"username": acct.Username})

	return withInclude(acct, include), nil
}

// withInclude shapes a freshly stored account the way GetAccount would
// return it for include.
func withInclude(acct *store.Account, include store.Include) *store.Account {
	if include != store.IncludeAccountProfile {
		acct.Profile = nil
		return acct
	}
	if acct.Profile == nil {
		acct.Profile = &store.Profile{AccountID: acct.ID}
	}
	return acct
}

// RemoveOptions controls what Remove returns.
type RemoveOptions struct {
	// Include, when non-empty, asks for the account as it was before removal.
	Include string
}

// Remove deletes the account with its profile and sessions. When
// opts.Include is set the returned account is the pre-removal snapshot,
// profile included; otherwise the returned account is nil.
func (s *Service) Remove(ctx context.Context, acct *store.Account, opts RemoveOptions) (*store.Account, error) {
	var snapshot *store.Account
	if opts.Include != "" {
		var err error
		snapshot, err = s.accounts.GetAccount(ctx, acct.ID, store.IncludeAccountProfile)
		if err != nil {
			return nil, s.notFound(err)
		}
	}

	// Sessions first: a Redis session store has no foreign key to cascade on
	if err := s.sessions.DeleteAccountSessions(ctx, acct.ID); err != nil {
		return nil, err
	}

	if err := s.accounts.DeleteAccount(ctx, acct.ID); err != nil {
		return nil, s.notFound(err)
	}

	s.logger.Info("account removed", "account_id", acct.ID)
	s.record(ctx, acct.ID, store.AuditAccountDeleted, acct.ID, nil)

	return snapshot, nil
}

// RecordAdminDenied audits an admin token presented on an account route.
func (s *Service) RecordAdminDenied(ctx context.Context, adminID, route string) {
	s.record(ctx, adminID, store.AuditAdminAccountDenied, adminID, map[string]any{"route": route})
}

func (s *Service) notFound(err error) error {
	if errors.Is(err, store.ErrNotFound) {
		return apierr.NotFound("Account not found", err)
	}
	return err
}

// record appends an audit entry. Audit failures are logged and never returned.
func (s *Service) record(ctx context.Context, actorID string, action store.AuditAction, targetID string, detail map[string]any) {
	if s.audit == nil {
		return
	}
	err := s.audit.AppendAuditLog(ctx, &store.AuditEntry{
		ActorID:    actorID,
		Action:     action,
		TargetType: auditTarget,
		TargetID:   targetID,
		Detail:     detail,
	})
	if err != nil {
		s.logger.Warn("failed to write audit entry", "action", action, "target", targetID, "error", err)
	}
}
