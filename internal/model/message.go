package model

import (
	"strings"
	"time"
)

// ChatType classifies a conversation by its chat id suffix.
type ChatType string

const (
	ChatTypePrivate    ChatType = "private"
	ChatTypeGroup      ChatType = "group"
	ChatTypeBroadcast  ChatType = "broadcast"
	ChatTypeNewsletter ChatType = "newsletter"
)

// ChatTypeOf derives the chat type from a WhatsApp chat id.
func ChatTypeOf(chatID string) ChatType {
	switch {
	case strings.HasSuffix(chatID, "@g.us"):
		return ChatTypeGroup
	case strings.Contains(chatID, "@broadcast"):
		return ChatTypeBroadcast
	case strings.HasSuffix(chatID, "@newsletter"):
		return ChatTypeNewsletter
	default:
		return ChatTypePrivate
	}
}

// StoredMessage is a persisted inbound message.
type StoredMessage struct {
	ID          string    `json:"id"`
	SessionID   string    `json:"session_id"`
	From        string    `json:"from"`
	To          string    `json:"to,omitempty"`
	ChatID      string    `json:"chat_id"`
	ChatType    ChatType  `json:"chat_type"`
	Body        string    `json:"body"`
	MessageType string    `json:"message_type"`
	HasMedia    bool      `json:"has_media"`
	Timestamp   time.Time `json:"timestamp"`
	IsForwarded bool      `json:"is_forwarded"`
	IsStatus    bool      `json:"is_status"`
	CreatedAt   time.Time `json:"created_at"`
}

// Contact is a persisted counterparty, unique per (session, phone number).
type Contact struct {
	ID           string    `json:"id"`
	SessionID    string    `json:"session_id"`
	PhoneNumber  string    `json:"phone_number"`
	Name         string    `json:"name,omitempty"`
	FirstSeen    time.Time `json:"first_seen"`
	LastSeen     time.Time `json:"last_seen"`
	MessageCount int64     `json:"message_count"`
}

// CommandLog records one command dispatch. Written fire-and-forget; loss must
// never affect message handling.
type CommandLog struct {
	ID         int64     `json:"id"`
	SessionID  string    `json:"session_id"`
	Command    string    `json:"command"`
	From       string    `json:"from"`
	ChatID     string    `json:"chat_id"`
	Args       []string  `json:"args,omitempty"`
	Success    bool      `json:"success"`
	Error      string    `json:"error,omitempty"`
	ExecutedAt time.Time `json:"executed_at"`
}

// StoreStats is the aggregate snapshot served by !stats and the REST surface.
type StoreStats struct {
	TotalSessions     int64 `json:"total_sessions"`
	ActiveSessions    int64 `json:"active_sessions"`
	TotalMessages     int64 `json:"total_messages"`
	MessagesToday     int64 `json:"messages_today"`
	TotalContacts     int64 `json:"total_contacts"`
	TotalCommands     int64 `json:"total_commands"`
	DatabaseSizeBytes int64 `json:"database_size_bytes"`
}

// CommandStat aggregates usage per command name.
type CommandStat struct {
	Command      string `json:"command"`
	UsageCount   int64  `json:"usage_count"`
	SuccessCount int64  `json:"success_count"`
	ErrorCount   int64  `json:"error_count"`
}
