package storage

import (
	"context"

	"zapnode/internal/model"
)

// Store is the persistence contract. Persistence is an optimization for the
// message path: pipeline callers log write errors and carry on, they never
// fail message handling on them.
type Store interface {
	// UpsertSession inserts or updates a session row.
	UpsertSession(ctx context.Context, id string, rec SessionRecord) error

	// UpdateSessionStatus sets the session status and touches the matching
	// connected_at/disconnected_at column. Returns ErrNotFound when no such
	// session row exists.
	UpdateSessionStatus(ctx context.Context, id, status string) error

	// InsertMessage records an inbound message. Idempotent on message id.
	InsertMessage(ctx context.Context, msg model.StoredMessage) error

	// UpsertContact creates the contact on first sight and afterwards bumps
	// its message count and last-seen timestamp.
	UpsertContact(ctx context.Context, sessionID, phoneNumber, name string) error

	// InsertCommandLog records one command dispatch.
	InsertCommandLog(ctx context.Context, entry model.CommandLog) error

	// Stats returns the aggregate snapshot.
	Stats(ctx context.Context) (model.StoreStats, error)

	// QueryMessages returns messages matching the query, newest first.
	QueryMessages(ctx context.Context, q MessageQuery) ([]model.StoredMessage, error)

	// SearchMessages returns messages whose body matches the search term.
	SearchMessages(ctx context.Context, term, sessionID string, limit int) ([]model.StoredMessage, error)

	// QueryContacts returns contacts for a session, most recently seen first.
	QueryContacts(ctx context.Context, q ContactQuery) ([]model.Contact, error)

	// TopContacts returns the busiest contacts for a session.
	TopContacts(ctx context.Context, sessionID string, limit int) ([]model.Contact, error)

	// CommandStats aggregates command usage.
	CommandStats(ctx context.Context, sessionID string, limit int) ([]model.CommandStat, error)

	// DeleteOlderThan removes messages and command logs older than the given
	// number of days. Returns (messages deleted, command logs deleted).
	DeleteOlderThan(ctx context.Context, days int) (int64, int64, error)

	// Close releases the underlying database.
	Close() error
}
