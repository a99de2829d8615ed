package wweb

import "time"

// EventKind identifies a transport event. Events are consumed as a tagged
// variant through a single handler per client rather than per-name callbacks.
type EventKind string

const (
	EventQR                 EventKind = "qr"
	EventAuthenticated      EventKind = "authenticated"
	EventLoading            EventKind = "loading_screen"
	EventReady              EventKind = "ready"
	EventAuthFailure        EventKind = "auth_failure"
	EventDisconnected       EventKind = "disconnected"
	EventMessage            EventKind = "message"
	EventRemoteSessionSaved EventKind = "remote_session_saved"
)

// DisconnectReasonLogout is the reason reported when the account was logged
// out from the phone, as opposed to a transient network drop.
const DisconnectReasonLogout = "LOGOUT"

// Event is a single transport event. Kind determines which fields are set.
type Event struct {
	Kind EventKind

	// QR payload, set for EventQR.
	QR string

	// Loading progress, set for EventLoading.
	Percent int
	Status  string

	// Reason, set for EventAuthFailure and EventDisconnected.
	Reason string

	// Message payload, set for EventMessage.
	Message *Message
}

// Handler consumes transport events for one client. Handlers must not block;
// the client delivers events sequentially per connection.
type Handler func(Event)

// Message is an inbound chat message.
type Message struct {
	ID          string    `json:"id"`
	From        string    `json:"from"`
	To          string    `json:"to,omitempty"`
	Body        string    `json:"body"`
	Type        string    `json:"type"`
	Timestamp   time.Time `json:"timestamp"`
	HasMedia    bool      `json:"has_media"`
	IsForwarded bool      `json:"is_forwarded"`
	IsStatus    bool      `json:"is_status"`
}

// Options configures one client session on the gateway bridge.
type Options struct {
	// ClientID scopes the persisted auth state on the bridge side.
	ClientID string `json:"client_id"`

	// Headless controls the bridge's browser mode.
	Headless bool `json:"headless"`

	// ChromePath overrides the bridge's browser binary (optional).
	ChromePath string `json:"chrome_path,omitempty"`
}
