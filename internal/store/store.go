package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// Account is the persisted trace of an account identity seen at handshake.
type Account struct {
	ID        int64
	Logins    int64
	FirstSeen time.Time
	LastSeen  time.Time
}

// CommandRecord is one audited command invocation.
type CommandRecord struct {
	ID        int64
	AccountID int64
	Command   string
	Args      []string
	OK        bool
	Error     string
	CreatedAt time.Time
}

// AccountStore handles account persistence.
type AccountStore interface {
	// RecordLogin creates the account on first sight and bumps its login counter otherwise.
	RecordLogin(ctx context.Context, accountID int64) (*Account, error)

	// GetAccount retrieves an account by ID.
	GetAccount(ctx context.Context, accountID int64) (*Account, error)
}

// CommandLogStore handles the command audit log.
type CommandLogStore interface {
	// RecordCommand appends an invocation to the audit log and sets rec.ID.
	RecordCommand(ctx context.Context, rec *CommandRecord) error

	// ListCommands returns the most recent invocations of an account, newest first.
	ListCommands(ctx context.Context, accountID int64, limit int) ([]*CommandRecord, error)
}

// Store aggregates all storage interfaces.
type Store interface {
	AccountStore
	CommandLogStore

	// Close closes the underlying database connection.
	Close() error
}
