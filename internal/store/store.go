// ABOUTME: Store interfaces and data types for coven-account persistence
// ABOUTME: Defines Account, Profile, Session and the stores that own them

package store

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrNotFound is returned when a requested entity does not exist.
// Every more specific not-found error in this package wraps it.
var ErrNotFound = errors.New("not found")

var (
	// ErrAccountNotFound is returned when an account doesn't exist.
	ErrAccountNotFound = fmt.Errorf("account %w", ErrNotFound)

	// ErrSessionNotFound is returned when a session doesn't exist or is expired.
	ErrSessionNotFound = fmt.Errorf("session %w", ErrNotFound)

	// ErrUsernameExists is returned when trying to create an account with an existing username.
	ErrUsernameExists = errors.New("username already exists")

	// ErrAccountIDExists is returned when trying to create an account with an existing ID.
	ErrAccountIDExists = errors.New("account id already exists")
)

// Include names the relations eagerly loaded with a session.
type Include string

const (
	// IncludeNone loads the session and its bare account.
	IncludeNone Include = ""
	// IncludeAccountProfile also loads the account's profile.
	IncludeAccountProfile Include = "account.profile"
)

// Account is the primary resource owned by a user session.
type Account struct {
	ID           string
	Username     string
	PasswordHash string // bcrypt hash, never serialized
	CreatedAt    time.Time
	Profile      *Profile // nil unless requested
}

// Profile holds the user-editable details of an account.
type Profile struct {
	AccountID string
	FullName  string
	Email     string
	Phone     string // E.164
	UpdatedAt time.Time
}

// ProfileID returns the identifier under which an account's profile is exposed.
func ProfileID(accountID string) string {
	return accountID + "-profile"
}

// Session is an authenticated user session. Its ID is the bearer token.
type Session struct {
	ID        string
	AccountID string
	CreatedAt time.Time
	ExpiresAt time.Time
	Account   *Account
}

// AccountStore persists accounts and their profiles.
type AccountStore interface {
	// CreateAccount stores the account and, when set, its Profile atomically.
	CreateAccount(ctx context.Context, account *Account) error
	GetAccount(ctx context.Context, id string, include Include) (*Account, error)
	GetAccountByUsername(ctx context.Context, username string) (*Account, error)
	DeleteAccount(ctx context.Context, id string) error
	CountAccounts(ctx context.Context) (int, error)
}

// SessionStore persists user sessions.
type SessionStore interface {
	CreateSession(ctx context.Context, session *Session) error
	// FindSession returns a live session with its account attached.
	// The account's profile is attached when include is IncludeAccountProfile.
	FindSession(ctx context.Context, id string, include Include) (*Session, error)
	DeleteSession(ctx context.Context, id string) error
	DeleteAccountSessions(ctx context.Context, accountID string) error
	DeleteExpiredSessions(ctx context.Context) (int64, error)
}

// includesProfile reports whether include asks for the account's profile.
func includesProfile(include Include) bool {
	return include == IncludeAccountProfile
}
