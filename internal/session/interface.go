package session

import (
	"context"
	"time"

	"zapnode/internal/model"
)

// Manager owns the session table and orchestrates session lifecycles. All
// methods are safe for concurrent use.
type Manager interface {
	// CreateSession allocates a session and starts its transport connect.
	// Fails with ErrDuplicateSession if the id is already present.
	CreateSession(ctx context.Context, id string, opts model.SessionOptions) (model.SessionInfo, error)

	// GetSessionInfo returns the read-only projection of a session.
	GetSessionInfo(id string) (model.SessionInfo, bool)

	// ListSessions returns projections of every session in the table.
	ListSessions() []model.SessionInfo

	// DeleteSession logs out (best effort) and tears the session down.
	// Fails with ErrSessionNotFound if the id is absent.
	DeleteSession(ctx context.Context, id string) error

	// IsReady reports whether the session can send.
	IsReady(id string) bool

	// Send delivers text through a ready session. Fails with
	// ErrSessionNotFound, ErrNotReady, or a *SendError. Never retried.
	Send(ctx context.Context, id, target, text string) error

	// Shutdown tears down every session. Used on process exit.
	Shutdown(ctx context.Context)
}

// MessageSink consumes inbound messages from a session. Implemented by the
// message pipeline; Handle must never let a failure escape.
type MessageSink interface {
	Handle(ctx context.Context, sessionID string, msg InboundMessage)
}

// InboundMessage is the pipeline's view of one received message.
type InboundMessage struct {
	ID          string
	From        string
	To          string
	Body        string
	MessageType string
	Timestamp   time.Time
	HasMedia    bool
	IsForwarded bool
	IsStatus    bool
}
