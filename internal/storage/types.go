package storage

import "zapnode/internal/model"

// Session status values as persisted.
const (
	StatusConnected    = "connected"
	StatusDisconnected = "disconnected"
)

// SessionRecord carries the mutable session columns for UpsertSession. Nil or
// empty fields leave the existing value untouched.
type SessionRecord struct {
	PhoneNumber     string
	Status          string
	WhatsAppVersion string
	Options         *model.SessionOptions
}

// MessageQuery selects messages. Zero-valued filters are ignored.
type MessageQuery struct {
	SessionID string
	ChatID    string
	Limit     int
	Offset    int
}

// ContactQuery selects contacts for a session.
type ContactQuery struct {
	SessionID string
	Limit     int
	Offset    int
}
