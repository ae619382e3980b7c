// ABOUTME: SQLite connection lifecycle and schema management using modernc.org/sqlite
// ABOUTME: Connect/Disconnect state machine with additive, idempotent migrations

package store

import (
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// busyTimeoutMS bounds how long a statement waits on a locked database file
// before failing, tolerating transient contention from the single-writer model.
const busyTimeoutMS = 5000

// Store owns the single database connection for the process. It starts
// disconnected; Connect opens (or creates) a database file and initializes
// the schema. The store itself is not safe for concurrent use; the
// operation layer serializes all calls.
type Store struct {
	db     *sql.DB
	path   string
	logger *slog.Logger
}

// New returns a disconnected store.
func New() *Store {
	return &Store{
		logger: slog.Default().With("component", "store"),
	}
}

// Connect opens the database at path, creating the file and its parent
// directory if needed, and runs schema initialization before returning.
// If the store is already connected, the existing connection is torn down
// first so the process never holds two live connections.
func (s *Store) Connect(path string) error {
	if s.db != nil {
		if err := s.Disconnect(); err != nil {
			return fmt.Errorf("closing previous connection: %w", err)
		}
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating database directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}

	// Ping forces the driver to create the backing file if it is absent.
	if err := db.Ping(); err != nil {
		db.Close()
		return fmt.Errorf("connecting to database: %w", err)
	}

	if _, err := db.Exec(fmt.Sprintf("PRAGMA busy_timeout=%d", busyTimeoutMS)); err != nil {
		db.Close()
		return fmt.Errorf("setting busy timeout: %w", err)
	}

	// Foreign keys stay unenforced: deleting an account must leave dangling
	// references on its cards rather than fail or cascade.

	if err := s.initSchema(db); err != nil {
		db.Close()
		return fmt.Errorf("initializing schema: %w", err)
	}

	s.db = db
	s.path = path
	s.logger.Info("database connected", "path", path)
	return nil
}

// Disconnect closes the connection pool and clears connection state.
// Calling it while disconnected is a no-op.
func (s *Store) Disconnect() error {
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	s.path = ""
	s.logger.Info("database disconnected")
	if err != nil {
		return fmt.Errorf("closing database: %w", err)
	}
	return nil
}

// IsConnected reports whether the store holds a live connection.
func (s *Store) IsConnected() bool {
	return s.db != nil
}

// Path returns the connected database file path, or "" when disconnected.
func (s *Store) Path() string {
	return s.path
}

// conn returns the live connection or ErrNotConnected.
func (s *Store) conn() (*sql.DB, error) {
	if s.db == nil {
		return nil, ErrNotConnected
	}
	return s.db, nil
}

// cardMigrations lists columns added to control_cards after the initial
// release, applied one at a time against pre-existing databases. Additive
// only: columns are never dropped or renamed.
var cardMigrations = []struct {
	column string
	ddl    string
}{
	{"created_by", "ALTER TABLE control_cards ADD COLUMN created_by INTEGER"},
	{"executor_account_id", "ALTER TABLE control_cards ADD COLUMN executor_account_id INTEGER"},
	{"controller", "ALTER TABLE control_cards ADD COLUMN controller TEXT"},
	{"controller_account_id", "ALTER TABLE control_cards ADD COLUMN controller_account_id INTEGER"},
	{"return_to", "ALTER TABLE control_cards ADD COLUMN return_to TEXT"},
	{"execution_deadline", "ALTER TABLE control_cards ADD COLUMN execution_deadline TEXT"},
	{"execution_period_type", "ALTER TABLE control_cards ADD COLUMN execution_period_type TEXT"},
	{"extended_deadline", "ALTER TABLE control_cards ADD COLUMN extended_deadline TEXT"},
	{"resolution", "ALTER TABLE control_cards ADD COLUMN resolution TEXT"},
	{"department", "ALTER TABLE control_cards ADD COLUMN department TEXT"},
}

// initSchema creates both tables if absent and, when control_cards already
// existed before this call, applies pending column migrations. A table
// created fresh in the same call already carries every current column, so
// migration is skipped for it.
func (s *Store) initSchema(db *sql.DB) error {
	cardsExisted, err := tableExists(db, "control_cards")
	if err != nil {
		return err
	}

	schema := `
		CREATE TABLE IF NOT EXISTS accounts (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			username TEXT NOT NULL UNIQUE,
			password_hash TEXT NOT NULL,
			role TEXT NOT NULL CHECK(role IN ('admin', 'user', 'controller')),
			created_at TEXT NOT NULL
		);

		CREATE TABLE IF NOT EXISTS control_cards (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			card_number INTEGER NOT NULL,
			year INTEGER NOT NULL,
			executor TEXT NOT NULL,
			reporter TEXT NOT NULL,
			summary TEXT NOT NULL,
			document_reference TEXT NOT NULL,
			created_by INTEGER,
			executor_account_id INTEGER,
			controller TEXT,
			controller_account_id INTEGER,
			return_to TEXT,
			execution_deadline TEXT,
			execution_period_type TEXT,
			extended_deadline TEXT,
			resolution TEXT,
			department TEXT,
			created_at TEXT NOT NULL,
			UNIQUE(year, card_number),
			FOREIGN KEY (created_by) REFERENCES accounts(id),
			FOREIGN KEY (executor_account_id) REFERENCES accounts(id)
		);

		CREATE INDEX IF NOT EXISTS idx_cards_executor ON control_cards(executor_account_id);
		CREATE INDEX IF NOT EXISTS idx_cards_year_number ON control_cards(year DESC, card_number DESC);
	`

	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("creating tables: %w", err)
	}

	if !cardsExisted {
		return nil
	}

	for _, m := range cardMigrations {
		exists, err := columnExists(db, "control_cards", m.column)
		if err != nil {
			return err
		}
		if exists {
			// Already applied; an older file converges one column at a time.
			continue
		}
		if _, err := db.Exec(m.ddl); err != nil {
			return fmt.Errorf("adding %s column to control_cards: %w", m.column, err)
		}
		s.logger.Info("applied migration", "column", m.column, "table", "control_cards")
	}

	return nil
}

// tableExists checks sqlite_master for a table with the given name.
func tableExists(db *sql.DB, name string) (bool, error) {
	var one int
	err := db.QueryRow(
		`SELECT 1 FROM sqlite_master WHERE type = 'table' AND name = ?`, name,
	).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("checking for table %s: %w", name, err)
	}
	return true, nil
}

// columnExists checks pragma_table_info for a column on the given table.
func columnExists(db *sql.DB, table, column string) (bool, error) {
	var one int
	err := db.QueryRow(
		`SELECT 1 FROM pragma_table_info(?) WHERE name = ?`, table, column,
	).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("checking for column %s.%s: %w", table, column, err)
	}
	return true, nil
}
