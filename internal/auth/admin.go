// ABOUTME: Admin token validation against stored admin sessions and signed JWTs
// ABOUTME: Validators report unknown tokens with errors wrapping store.ErrNotFound

package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/2389/coven-account/internal/store"
)

// Admin validation mechanisms.
const (
	MechanismSession = "session"
	MechanismJWT     = "jwt"
)

// AdminPrincipal is an administrator resolved from a bearer token.
type AdminPrincipal struct {
	UserID    string
	Username  string
	Mechanism string
}

// AdminValidator resolves a token to an admin.
// A token that is not an admin token must produce an error wrapping
// store.ErrNotFound; any other error means the validator itself failed.
type AdminValidator interface {
	ValidateSession(ctx context.Context, token string) (*AdminPrincipal, error)
}

// StoreAdminValidator validates tokens against persisted admin sessions.
type StoreAdminValidator struct {
	admins store.AdminStore
}

// NewStoreAdminValidator creates a validator backed by admins.
func NewStoreAdminValidator(admins store.AdminStore) *StoreAdminValidator {
	return &StoreAdminValidator{admins: admins}
}

// ValidateSession looks the token up as an admin session.
func (v *StoreAdminValidator) ValidateSession(ctx context.Context, token string) (*AdminPrincipal, error) {
	session, err := v.admins.GetAdminSession(ctx, token)
	if err != nil {
		return nil, err
	}

	user, err := v.admins.GetAdminUser(ctx, session.UserID)
	if err != nil {
		return nil, fmt.Errorf("loading admin for session: %w", err)
	}

	return &AdminPrincipal{
		UserID:    user.ID,
		Username:  user.Username,
		Mechanism: MechanismSession,
	}, nil
}

// JWTAdminValidator validates signed admin tokens whose subject is an admin user ID.
type JWTAdminValidator struct {
	tokens *AdminTokens
	admins store.AdminStore
}

// NewJWTAdminValidator creates a validator that accepts tokens issued by tokens.
func NewJWTAdminValidator(tokens *AdminTokens, admins store.AdminStore) *JWTAdminValidator {
	return &JWTAdminValidator{tokens: tokens, admins: admins}
}

// ValidateSession verifies the token signature and loads the admin it names.
// Tokens that fail verification are not admin tokens and report not found.
func (v *JWTAdminValidator) ValidateSession(ctx context.Context, token string) (*AdminPrincipal, error) {
	subject, err := v.tokens.AdminID(token)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", store.ErrAdminSessionNotFound, err)
	}

	user, err := v.admins.GetAdminUser(ctx, subject)
	if err != nil {
		return nil, err
	}

	return &AdminPrincipal{
		UserID:    user.ID,
		Username:  user.Username,
		Mechanism: MechanismJWT,
	}, nil
}

// AdminChain tries validators in order. A not-found result passes to the next
// validator; any other error stops the chain and is returned unchanged.
type AdminChain []AdminValidator

// ValidateSession returns the first admin any validator resolves.
func (c AdminChain) ValidateSession(ctx context.Context, token string) (*AdminPrincipal, error) {
	lastErr := store.ErrAdminSessionNotFound
	for _, v := range c {
		principal, err := v.ValidateSession(ctx, token)
		if err == nil {
			return principal, nil
		}
		if !errors.Is(err, store.ErrNotFound) {
			return nil, err
		}
		lastErr = err
	}
	return nil, lastErr
}
