// ABOUTME: Control card CRUD queries against the control_cards table
// ABOUTME: Lists order newest first by (year, card_number); (year, card_number) is unique

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

const cardColumns = `id, card_number, year, executor, reporter, summary, document_reference,
	created_by, executor_account_id, controller, controller_account_id,
	return_to, execution_deadline, execution_period_type, extended_deadline,
	resolution, department, created_at`

// NextCardNumber suggests the next card number for a year: 1 when the year
// has no cards, otherwise max existing number + 1. The value is only a hint;
// the UNIQUE(year, card_number) constraint rejects a colliding insert.
func (s *Store) NextCardNumber(ctx context.Context, year int) (int, error) {
	db, err := s.conn()
	if err != nil {
		return 0, err
	}

	var max int
	err = db.QueryRowContext(ctx, `
		SELECT COALESCE(MAX(card_number), 0) FROM control_cards WHERE year = ?
	`, year).Scan(&max)
	if err != nil {
		return 0, fmt.Errorf("querying max card number: %w", err)
	}
	return max + 1, nil
}

// CreateCard inserts a new control card and fills in its assigned ID.
// Returns ErrDuplicateCard if the (year, card_number) pair already exists.
func (s *Store) CreateCard(ctx context.Context, card *ControlCard) error {
	db, err := s.conn()
	if err != nil {
		return err
	}

	query := `
		INSERT INTO control_cards (
			card_number, year, executor, reporter, summary, document_reference,
			created_by, executor_account_id, controller, controller_account_id,
			return_to, execution_deadline, execution_period_type, extended_deadline,
			resolution, department, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := db.ExecContext(ctx, query,
		card.CardNumber,
		card.Year,
		card.Executor,
		card.Reporter,
		card.Summary,
		card.DocumentReference,
		card.CreatedBy,
		card.ExecutorAccountID,
		nullString(card.Controller),
		card.ControllerAccountID,
		nullString(card.ReturnTo),
		nullString(card.ExecutionDeadline),
		nullString(card.ExecutionPeriodType),
		nullString(card.ExtendedDeadline),
		nullString(card.Resolution),
		nullString(card.Department),
		card.CreatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return ErrDuplicateCard
		}
		return fmt.Errorf("inserting card: %w", err)
	}

	card.ID, err = result.LastInsertId()
	if err != nil {
		return fmt.Errorf("getting card id: %w", err)
	}

	s.logger.Info("created card", "id", card.ID, "year", card.Year, "number", card.CardNumber)
	return nil
}

// GetCard retrieves a card by ID. Returns ErrNotFound if it doesn't exist.
func (s *Store) GetCard(ctx context.Context, id int64) (*ControlCard, error) {
	db, err := s.conn()
	if err != nil {
		return nil, err
	}

	row := db.QueryRowContext(ctx,
		`SELECT `+cardColumns+` FROM control_cards WHERE id = ?`, id)
	return scanCardRow(row.Scan)
}

// ListCards returns all cards, newest first (year descending, then card
// number descending).
func (s *Store) ListCards(ctx context.Context) ([]*ControlCard, error) {
	return s.listCards(ctx,
		`SELECT `+cardColumns+` FROM control_cards ORDER BY year DESC, card_number DESC`)
}

// ListCardsByExecutor returns the cards assigned to the given executor
// account, newest first. An empty result is not an error.
func (s *Store) ListCardsByExecutor(ctx context.Context, accountID int64) ([]*ControlCard, error) {
	return s.listCards(ctx,
		`SELECT `+cardColumns+` FROM control_cards WHERE executor_account_id = ? ORDER BY year DESC, card_number DESC`,
		accountID)
}

func (s *Store) listCards(ctx context.Context, query string, args ...any) ([]*ControlCard, error) {
	db, err := s.conn()
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying cards: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var cards []*ControlCard
	for rows.Next() {
		card, err := scanCardRow(rows.Scan)
		if err != nil {
			return nil, err
		}
		cards = append(cards, card)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating card rows: %w", err)
	}
	return cards, nil
}

// UpdateCard overwrites a card in place. Returns ErrNotFound if the card
// doesn't exist and ErrDuplicateCard on a (year, card_number) collision.
func (s *Store) UpdateCard(ctx context.Context, card *ControlCard) error {
	db, err := s.conn()
	if err != nil {
		return err
	}

	query := `
		UPDATE control_cards SET
			card_number = ?, year = ?, executor = ?, reporter = ?, summary = ?,
			document_reference = ?, created_by = ?, executor_account_id = ?,
			controller = ?, controller_account_id = ?, return_to = ?,
			execution_deadline = ?, execution_period_type = ?, extended_deadline = ?,
			resolution = ?, department = ?
		WHERE id = ?
	`

	result, err := db.ExecContext(ctx, query,
		card.CardNumber,
		card.Year,
		card.Executor,
		card.Reporter,
		card.Summary,
		card.DocumentReference,
		card.CreatedBy,
		card.ExecutorAccountID,
		nullString(card.Controller),
		card.ControllerAccountID,
		nullString(card.ReturnTo),
		nullString(card.ExecutionDeadline),
		nullString(card.ExecutionPeriodType),
		nullString(card.ExtendedDeadline),
		nullString(card.Resolution),
		nullString(card.Department),
		card.ID,
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return ErrDuplicateCard
		}
		return fmt.Errorf("updating card: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("getting rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}

	s.logger.Info("updated card", "id", card.ID)
	return nil
}

// DeleteCard removes a card. Returns ErrNotFound if it doesn't exist.
func (s *Store) DeleteCard(ctx context.Context, id int64) error {
	db, err := s.conn()
	if err != nil {
		return err
	}

	result, err := db.ExecContext(ctx, `DELETE FROM control_cards WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting card: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("getting rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}

	s.logger.Info("deleted card", "id", id)
	return nil
}

// scanCardRow scans one card row; works for both sql.Row and sql.Rows.
func scanCardRow(scan func(dest ...any) error) (*ControlCard, error) {
	var card ControlCard
	var createdAtStr string
	var controller, returnTo, deadline, periodType, extended, resolution, department sql.NullString

	err := scan(
		&card.ID,
		&card.CardNumber,
		&card.Year,
		&card.Executor,
		&card.Reporter,
		&card.Summary,
		&card.DocumentReference,
		&card.CreatedBy,
		&card.ExecutorAccountID,
		&controller,
		&card.ControllerAccountID,
		&returnTo,
		&deadline,
		&periodType,
		&extended,
		&resolution,
		&department,
		&createdAtStr,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scanning card: %w", err)
	}

	card.Controller = controller.String
	card.ReturnTo = returnTo.String
	card.ExecutionDeadline = deadline.String
	card.ExecutionPeriodType = periodType.String
	card.ExtendedDeadline = extended.String
	card.Resolution = resolution.String
	card.Department = department.String

	card.CreatedAt, err = time.Parse(time.RFC3339, createdAtStr)
	if err != nil {
		return nil, fmt.Errorf("parsing created_at: %w", err)
	}

	return &card, nil
}

// nullString returns nil for empty strings, otherwise the string itself.
func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
