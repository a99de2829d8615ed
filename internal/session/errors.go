package session

import (
	"errors"
	"fmt"
)

// Domain-specific errors for the session package.
var (
	ErrDuplicateSession = errors.New("session already exists")
	ErrSessionNotFound  = errors.New("session not found")
	ErrNotReady         = errors.New("session is not ready")
	ErrTeardownTimeout  = errors.New("transport destroy timed out")
)

// SendError wraps a transport failure during an outbound send. The manager
// does not retry; callers receive the error and decide.
type SendError struct {
	SessionID string
	Target    string
	Err       error
}

func (e *SendError) Error() string {
	return fmt.Sprintf("send via session %s to %s: %v", e.SessionID, e.Target, e.Err)
}

func (e *SendError) Unwrap() error {
	return e.Err
}
