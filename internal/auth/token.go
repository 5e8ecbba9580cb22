// ABOUTME: Signed admin tokens: HS256 JWTs naming an admin user
// ABOUTME: Issued by bootstrap-admin and accepted by JWTAdminValidator

package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Admin tokens carry this issuer and audience; anything else is rejected.
const (
	adminTokenIssuer   = "coven-account"
	adminTokenAudience = "admin"
)

var (
	ErrInvalidToken = errors.New("invalid admin token")
	ErrExpiredToken = errors.New("admin token expired")
)

// AdminTokens issues and verifies admin JWTs with a shared secret.
type AdminTokens struct {
	secret []byte
	parser *jwt.Parser
}

// NewAdminTokens creates an admin token codec keyed by secret.
func NewAdminTokens(secret []byte) *AdminTokens {
	return &AdminTokens{
		secret: secret,
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithIssuer(adminTokenIssuer),
			jwt.WithAudience(adminTokenAudience),
			jwt.WithExpirationRequired(),
			jwt.WithIssuedAt(),
		),
	}
}

// Issue returns a token naming adminID that expires after ttl.
func (t *AdminTokens) Issue(adminID string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Issuer:    adminTokenIssuer,
		Subject:   adminID,
		Audience:  jwt.ClaimStrings{adminTokenAudience},
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
}

// AdminID verifies token and returns the admin user ID it names.
func (t *AdminTokens) AdminID(token string) (string, error) {
	var claims jwt.RegisteredClaims
	_, err := t.parser.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return t.secret, nil
	})
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return "", ErrExpiredToken
	case err != nil:
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	case claims.Subject == "":
		return "", fmt.Errorf("%w: no subject", ErrInvalidToken)
	}
	return claims.Subject, nil
}
