package model

import "time"

// Environment represents the runtime environment name.
type Environment string

const (
	EnvironmentDevelopment Environment = "development"
	EnvironmentProduction  Environment = "production"
)

// SessionState is the lifecycle state of one transport session.
type SessionState string

const (
	// StateCreated: session allocated, transport not yet authenticated.
	StateCreated SessionState = "created"
	// StateAuthenticating: QR scanned, auth handshake in progress.
	StateAuthenticating SessionState = "authenticating"
	// StateReady: connected; the only state that permits outbound sends.
	StateReady SessionState = "ready"
	// StateDisconnected: transport dropped; may recover to ready.
	StateDisconnected SessionState = "disconnected"
	// StateCleaningUp: teardown in progress.
	StateCleaningUp SessionState = "cleaning_up"
	// StateRemoved: terminal, session gone from the table.
	StateRemoved SessionState = "removed"
	// StateFailed: terminal, authentication never succeeded.
	StateFailed SessionState = "failed"
)

// SessionOptions is the per-session configuration accepted on create.
type SessionOptions struct {
	Headless   bool   `json:"headless"`
	ChromePath string `json:"chrome_path,omitempty"`

	// Reconnect enables the infinite fixed-backoff connect retry loop for
	// this session. Enabled for the pre-provisioned default session;
	// API-created sessions opt in explicitly.
	Reconnect bool `json:"reconnect"`
}

// SessionInfo is the read-only projection of a session exposed outside the
// manager. It never carries the transport handle.
type SessionInfo struct {
	ID         string         `json:"id"`
	State      SessionState   `json:"state"`
	CreatedAt  time.Time      `json:"created_at"`
	ReadyAt    *time.Time     `json:"ready_at,omitempty"`
	LastSeenAt *time.Time     `json:"last_seen_at,omitempty"`
	Options    SessionOptions `json:"options"`
}

// IsReady reports whether the session can send.
func (s SessionInfo) IsReady() bool {
	return s.State == StateReady
}
