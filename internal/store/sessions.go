// ABOUTME: User session persistence for SQLiteStore
// ABOUTME: Sessions are looked up by bearer token and carry their owning account

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// CreateSession creates a new user session for an existing account.
func (s *SQLiteStore) CreateSession(ctx context.Context, session *Session) error {
	if session.CreatedAt.IsZero() {
		session.CreatedAt = s.now().UTC()
	}

	query := `
		INSERT INTO sessions (id, account_id, created_at, expires_at)
		VALUES (?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query,
		session.ID,
		session.AccountID,
		formatTime(session.CreatedAt),
		formatTime(session.ExpiresAt),
	)
	if err != nil {
		if isConstraintViolation(err) {
			return fmt.Errorf("inserting session for %s: %w", session.AccountID, ErrAccountNotFound)
		}
		return fmt.Errorf("inserting session: %w", err)
	}

	s.logger.Debug("created session", "account_id", session.AccountID)
	return nil
}

// FindSession retrieves a live session and its account.
// Returns ErrSessionNotFound if the token is unknown or expired.
func (s *SQLiteStore) FindSession(ctx context.Context, id string, include Include) (*Session, error) {
	query := `
		SELECT s.id, s.account_id, s.created_at, s.expires_at,
		       a.id, a.username, a.password_hash, a.created_at
		FROM sessions s
		JOIN accounts a ON a.id = s.account_id
		WHERE s.id = ? AND s.expires_at > ?
	`

	var session Session
	var account Account
	var createdAtStr, expiresAtStr, accountCreatedAtStr string

	err := s.db.QueryRowContext(ctx, query, id, formatTime(s.now())).Scan(
		&session.ID,
		&session.AccountID,
		&createdAtStr,
		&expiresAtStr,
		&account.ID,
		&account.Username,
		&account.PasswordHash,
		&accountCreatedAtStr,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying session: %w", err)
	}

	if session.CreatedAt, err = time.Parse(time.RFC3339, createdAtStr); err != nil {
		return nil, fmt.Errorf("parsing created_at: %w", err)
	}
	if session.ExpiresAt, err = time.Parse(time.RFC3339, expiresAtStr); err != nil {
		return nil, fmt.Errorf("parsing expires_at: %w", err)
	}
	if account.CreatedAt, err = time.Parse(time.RFC3339, accountCreatedAtStr); err != nil {
		return nil, fmt.Errorf("parsing account created_at: %w", err)
	}

	if includesProfile(include) {
		if err := s.attachProfile(ctx, &account); err != nil {
			return nil, err
		}
	}

	session.Account = &account
	return &session, nil
}

// DeleteSession deletes a user session. Deleting an unknown session is not an error.
func (s *SQLiteStore) DeleteSession(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting session: %w", err)
	}
	return nil
}

// DeleteAccountSessions deletes every session owned by an account.
func (s *SQLiteStore) DeleteAccountSessions(ctx context.Context, accountID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE account_id = ?`, accountID)
	if err != nil {
		return fmt.Errorf("deleting account sessions: %w", err)
	}
	return nil
}

// DeleteExpiredSessions removes all expired user sessions.
func (s *SQLiteStore) DeleteExpiredSessions(ctx context.Context) (int64, error) {
	result, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE expires_at <= ?`, formatTime(s.now()))
	if err != nil {
		return 0, fmt.Errorf("deleting expired sessions: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("getting rows affected: %w", err)
	}
	if n > 0 {
		s.logger.Info("deleted expired sessions", "count", n)
	}
	return n, nil
}
