package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3"

	"github.com/vovakirdan/wiregate/internal/store"
)

// Schema creates the tables used by the gateway. Statements are idempotent.
const Schema = `
CREATE TABLE IF NOT EXISTS accounts (
	id         INTEGER PRIMARY KEY,
	logins     INTEGER NOT NULL DEFAULT 1,
	first_seen DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	last_seen  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS command_log (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	account_id INTEGER NOT NULL,
	command    TEXT NOT NULL,
	args       TEXT NOT NULL DEFAULT '',
	ok         BOOLEAN NOT NULL,
	error      TEXT NOT NULL DEFAULT '',
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_command_log_account ON command_log(account_id, id DESC);
`

// SQLiteStore implements store.Store for SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// New opens the database at dbPath and applies Schema.
func New(dbPath string) (*SQLiteStore, error) {
	return NewWithSetup(dbPath, Migrate)
}

// NewWithSetup opens the database and runs a setup function.
// Useful for tests to apply a schema of their choosing.
func NewWithSetup(dbPath string, setup func(*sql.DB) error) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// SQLite works best with a single connection; it also keeps ":memory:"
	// databases alive across queries.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if setup != nil {
		if err := setup(db); err != nil {
			db.Close()
			return nil, fmt.Errorf("setup: %w", err)
		}
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Migrate applies Schema to db.
func Migrate(db *sql.DB) error {
	if _, err := db.Exec(Schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// ==== AccountStore implementation ====

// RecordLogin creates the account on first sight and bumps its login counter otherwise.
func (s *SQLiteStore) RecordLogin(ctx context.Context, accountID int64) (*store.Account, error) {
	query := `
		INSERT INTO accounts (id) VALUES (?)
		ON CONFLICT(id) DO UPDATE SET
			logins    = logins + 1,
			last_seen = CURRENT_TIMESTAMP
	`
	if _, err := s.db.ExecContext(ctx, query, accountID); err != nil {
		return nil, fmt.Errorf("upsert account: %w", err)
	}
	return s.GetAccount(ctx, accountID)
}

// GetAccount retrieves an account by ID.
func (s *SQLiteStore) GetAccount(ctx context.Context, accountID int64) (*store.Account, error) {
	query := `
		SELECT id, logins, first_seen, last_seen
		FROM accounts
		WHERE id = ?
	`
	var acc store.Account
	err := s.db.QueryRowContext(ctx, query, accountID).Scan(
		&acc.ID,
		&acc.Logins,
		&acc.FirstSeen,
		&acc.LastSeen,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("account %d: %w", accountID, store.ErrNotFound)
		}
		return nil, fmt.Errorf("query account: %w", err)
	}

	return &acc, nil
}

// ==== CommandLogStore implementation ====

// RecordCommand appends an invocation to the audit log and sets rec.ID.
func (s *SQLiteStore) RecordCommand(ctx context.Context, rec *store.CommandRecord) error {
	query := `
		INSERT INTO command_log (account_id, command, args, ok, error)
		VALUES (?, ?, ?, ?, ?)
	`
	result, err := s.db.ExecContext(ctx, query,
		rec.AccountID,
		rec.Command,
		strings.Join(rec.Args, " "),
		rec.OK,
		rec.Error,
	)
	if err != nil {
		return fmt.Errorf("insert command: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("get last insert id: %w", err)
	}
	rec.ID = id
	return nil
}

// ListCommands returns the most recent invocations of an account, newest first.
func (s *SQLiteStore) ListCommands(ctx context.Context, accountID int64, limit int) ([]*store.CommandRecord, error) {
	if limit <= 0 {
		limit = 10
	}

	query := `
		SELECT id, account_id, command, args, ok, error, created_at
		FROM command_log
		WHERE account_id = ?
		ORDER BY id DESC
		LIMIT ?
	`
	rows, err := s.db.QueryContext(ctx, query, accountID, limit)
	if err != nil {
		return nil, fmt.Errorf("query commands: %w", err)
	}
	defer rows.Close()

	var records []*store.CommandRecord
	for rows.Next() {
		var (
			rec  store.CommandRecord
			args string
		)
		if err := rows.Scan(&rec.ID, &rec.AccountID, &rec.Command, &args, &rec.OK, &rec.Error, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan command: %w", err)
		}
		rec.Args = strings.Fields(args)
		records = append(records, &rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate commands: %w", err)
	}

	return records, nil
}
