// ABOUTME: Account and profile persistence for SQLiteStore
// ABOUTME: Deleting an account cascades to its profile and sessions via foreign keys

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// CreateAccount inserts a new account together with account.Profile, when set,
// in one transaction. Returns ErrAccountIDExists or ErrUsernameExists when the
// row collides; nothing is stored in that case.
func (s *SQLiteStore) CreateAccount(ctx context.Context, account *Account) error {
	if account.CreatedAt.IsZero() {
		account.CreatedAt = s.now().UTC()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO accounts (id, username, password_hash, created_at)
		VALUES (?, ?, ?, ?)
	`

	_, err = tx.ExecContext(ctx, query,
		account.ID,
		account.Username,
		account.PasswordHash,
		formatTime(account.CreatedAt),
	)
	if err != nil {
		if isConstraintViolation(err) {
			if strings.Contains(err.Error(), "accounts.username") {
				return ErrUsernameExists
			}
			return ErrAccountIDExists
		}
		return fmt.Errorf("inserting account: %w", err)
	}

	if profile := account.Profile; profile != nil {
		profile.AccountID = account.ID
		if profile.UpdatedAt.IsZero() {
			profile.UpdatedAt = account.CreatedAt
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO profiles (account_id, full_name, email, phone, updated_at)
			VALUES (?, ?, ?, ?, ?)
		`,
			profile.AccountID,
			profile.FullName,
			profile.Email,
			profile.Phone,
			formatTime(profile.UpdatedAt),
		)
		if err != nil {
			return fmt.Errorf("inserting profile: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing account: %w", err)
	}

	s.logger.Info("created account", "id", account.ID, "username", account.Username)
	return nil
}

// GetAccount retrieves an account by ID.
// With IncludeAccountProfile the profile is attached, empty if none was stored.
func (s *SQLiteStore) GetAccount(ctx context.Context, id string, include Include) (*Account, error) {
	query := `
		SELECT id, username, password_hash, created_at
		FROM accounts
		WHERE id = ?
	`

	account, err := scanAccount(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, err
	}

	if includesProfile(include) {
		if err := s.attachProfile(ctx, account); err != nil {
			return nil, err
		}
	}

	return account, nil
}

// GetAccountByUsername retrieves an account by username.
func (s *SQLiteStore) GetAccountByUsername(ctx context.Context, username string) (*Account, error) {
	query := `
		SELECT id, username, password_hash, created_at
		FROM accounts
		WHERE username = ?
	`

	return scanAccount(s.db.QueryRowContext(ctx, query, username))
}

// DeleteAccount removes an account, its profile, and its sessions.
func (s *SQLiteStore) DeleteAccount(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM accounts WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting account: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("getting rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrAccountNotFound
	}

	s.logger.Info("deleted account", "id", id)
	return nil
}

// CountAccounts returns the number of accounts.
func (s *SQLiteStore) CountAccounts(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM accounts").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting accounts: %w", err)
	}
	return count, nil
}

// getProfile retrieves the stored profile of an account.
// Returns ErrNotFound if no profile row exists.
func (s *SQLiteStore) getProfile(ctx context.Context, accountID string) (*Profile, error) {
	query := `
		SELECT account_id, full_name, email, phone, updated_at
		FROM profiles
		WHERE account_id = ?
	`

	var profile Profile
	var updatedAtStr string

	err := s.db.QueryRowContext(ctx, query, accountID).Scan(
		&profile.AccountID,
		&profile.FullName,
		&profile.Email,
		&profile.Phone,
		&updatedAtStr,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("profile %w", ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("querying profile: %w", err)
	}

	profile.UpdatedAt, err = time.Parse(time.RFC3339, updatedAtStr)
	if err != nil {
		return nil, fmt.Errorf("parsing updated_at: %w", err)
	}

	return &profile, nil
}

// attachProfile loads the account's profile, falling back to an empty one.
func (s *SQLiteStore) attachProfile(ctx context.Context, account *Account) error {
	profile, err := s.getProfile(ctx, account.ID)
	if errors.Is(err, ErrNotFound) {
		account.Profile = &Profile{AccountID: account.ID}
		return nil
	}
	if err != nil {
		return err
	}
	account.Profile = profile
	return nil
}

func scanAccount(row *sql.Row) (*Account, error) {
	var account Account
	var createdAtStr string

	err := row.Scan(
		&account.ID,
		&account.Username,
		&account.PasswordHash,
		&createdAtStr,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrAccountNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying account: %w", err)
	}

	account.CreatedAt, err = time.Parse(time.RFC3339, createdAtStr)
	if err != nil {
		return nil, fmt.Errorf("parsing created_at: %w", err)
	}

	return &account, nil
}
