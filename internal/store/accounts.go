// ABOUTME: Account CRUD queries against the accounts table
// ABOUTME: Username uniqueness surfaces as ErrUsernameExists, missing rows as ErrNotFound

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// CreateAccount inserts a new account and fills in its assigned ID.
// Returns ErrUsernameExists if the username is already taken.
func (s *Store) CreateAccount(ctx context.Context, account *Account) error {
	db, err := s.conn()
	if err != nil {
		return err
	}

	query := `
		INSERT INTO accounts (username, password_hash, role, created_at)
		VALUES (?, ?, ?, ?)
	`

	result, err := db.ExecContext(ctx, query,
		account.Username,
		account.PasswordHash,
		account.Role,
		account.CreatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return ErrUsernameExists
		}
		return fmt.Errorf("inserting account: %w", err)
	}

	account.ID, err = result.LastInsertId()
	if err != nil {
		return fmt.Errorf("getting account id: %w", err)
	}

	s.logger.Info("created account", "id", account.ID, "username", account.Username, "role", account.Role)
	return nil
}

// GetAccountByUsername retrieves an account by its exact (case-sensitive)
// username. Returns ErrNotFound if no such account exists.
func (s *Store) GetAccountByUsername(ctx context.Context, username string) (*Account, error) {
	db, err := s.conn()
	if err != nil {
		return nil, err
	}

	row := db.QueryRowContext(ctx, `
		SELECT id, username, password_hash, role, created_at
		FROM accounts
		WHERE username = ?
	`, username)
	return scanAccount(row)
}

// GetAccountByID retrieves an account by ID. Returns ErrNotFound if the
// account doesn't exist.
func (s *Store) GetAccountByID(ctx context.Context, id int64) (*Account, error) {
	db, err := s.conn()
	if err != nil {
		return nil, err
	}

	row := db.QueryRowContext(ctx, `
		SELECT id, username, password_hash, role, created_at
		FROM accounts
		WHERE id = ?
	`, id)
	return scanAccount(row)
}

func scanAccount(row *sql.Row) (*Account, error) {
	var account Account
	var createdAtStr string

	err := row.Scan(
		&account.ID,
		&account.Username,
		&account.PasswordHash,
		&account.Role,
		&createdAtStr,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scanning account: %w", err)
	}

	account.CreatedAt, err = time.Parse(time.RFC3339, createdAtStr)
	if err != nil {
		return nil, fmt.Errorf("parsing created_at: %w", err)
	}

	return &account, nil
}

// ListAccounts returns all accounts, newest-created first.
func (s *Store) ListAccounts(ctx context.Context) ([]*Account, error) {
	db, err := s.conn()
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx, `
		SELECT id, username, password_hash, role, created_at
		FROM accounts
		ORDER BY created_at DESC, id DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("querying accounts: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var accounts []*Account
	for rows.Next() {
		var account Account
		var createdAtStr string

		if err := rows.Scan(&account.ID, &account.Username, &account.PasswordHash, &account.Role, &createdAtStr); err != nil {
			return nil, fmt.Errorf("scanning account row: %w", err)
		}

		account.CreatedAt, err = time.Parse(time.RFC3339, createdAtStr)
		if err != nil {
			return nil, fmt.Errorf("parsing created_at: %w", err)
		}
		accounts = append(accounts, &account)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating account rows: %w", err)
	}

	return accounts, nil
}

// UpdateAccount changes an account's username and role.
// Returns ErrNotFound if the account doesn't exist and ErrUsernameExists if
// the new username collides with another account.
func (s *Store) UpdateAccount(ctx context.Context, id int64, username string, role Role) error {
	db, err := s.conn()
	if err != nil {
		return err
	}

	result, err := db.ExecContext(ctx, `
		UPDATE accounts SET username = ?, role = ? WHERE id = ?
	`, username, role, id)
	if err != nil {
		if isUniqueConstraintError(err) {
			return ErrUsernameExists
		}
		return fmt.Errorf("updating account: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("getting rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}

	s.logger.Info("updated account", "id", id, "username", username, "role", role)
	return nil
}

// UpdateAccountPassword replaces an account's password hash.
func (s *Store) UpdateAccountPassword(ctx context.Context, id int64, passwordHash string) error {
	db, err := s.conn()
	if err != nil {
		return err
	}

	result, err := db.ExecContext(ctx, `
		UPDATE accounts SET password_hash = ? WHERE id = ?
	`, passwordHash, id)
	if err != nil {
		return fmt.Errorf("updating account password: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("getting rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}

	s.logger.Info("updated account password", "id", id)
	return nil
}

// DeleteAccount removes an account immediately. Cards referencing it keep
// their now-dangling account references; there is no cascade.
func (s *Store) DeleteAccount(ctx context.Context, id int64) error {
	db, err := s.conn()
	if err != nil {
		return err
	}

	result, err := db.ExecContext(ctx, `DELETE FROM accounts WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting account: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("getting rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}

	s.logger.Info("deleted account", "id", id)
	return nil
}

// HasAnyAccounts reports whether at least one account exists.
func (s *Store) HasAnyAccounts(ctx context.Context) (bool, error) {
	db, err := s.conn()
	if err != nil {
		return false, err
	}

	var count int
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM accounts`).Scan(&count); err != nil {
		return false, fmt.Errorf("counting accounts: %w", err)
	}
	return count > 0, nil
}

// isUniqueConstraintError checks if an error is a unique constraint violation.
func isUniqueConstraintError(err error) bool {
	// SQLite returns "UNIQUE constraint failed" in the error message
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
