package sqlite

// schema is applied on every connection open; all statements are idempotent.
const schema = `
CREATE TABLE IF NOT EXISTS sessions (
	id TEXT PRIMARY KEY,
	phone_number TEXT,
	status TEXT NOT NULL DEFAULT 'disconnected',
	created_at TEXT DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ','now')),
	connected_at TEXT,
	disconnected_at TEXT,
	last_seen TEXT,
	whatsapp_version TEXT,
	options TEXT
);

CREATE TABLE IF NOT EXISTS messages (
	id TEXT PRIMARY KEY,
	session_id TEXT NOT NULL,
	from_number TEXT NOT NULL,
	to_number TEXT,
	chat_id TEXT NOT NULL,
	chat_type TEXT NOT NULL,
	body TEXT,
	message_type TEXT NOT NULL,
	has_media INTEGER DEFAULT 0,
	timestamp TEXT NOT NULL,
	is_forwarded INTEGER DEFAULT 0,
	is_status INTEGER DEFAULT 0,
	created_at TEXT DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ','now'))
);

CREATE TABLE IF NOT EXISTS contacts (
	id TEXT PRIMARY KEY,
	session_id TEXT NOT NULL,
	phone_number TEXT NOT NULL,
	name TEXT,
	first_seen TEXT DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ','now')),
	last_seen TEXT DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ','now')),
	message_count INTEGER DEFAULT 0,
	UNIQUE(session_id, phone_number)
);

CREATE TABLE IF NOT EXISTS command_usage (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	session_id TEXT NOT NULL,
	command_name TEXT NOT NULL,
	from_number TEXT NOT NULL,
	chat_id TEXT NOT NULL,
	arguments TEXT,
	executed_at TEXT DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ','now')),
	success INTEGER DEFAULT 1,
	error_message TEXT
);

CREATE INDEX IF NOT EXISTS idx_messages_session ON messages(session_id);
CREATE INDEX IF NOT EXISTS idx_messages_chat ON messages(chat_id);
CREATE INDEX IF NOT EXISTS idx_messages_timestamp ON messages(timestamp);
CREATE INDEX IF NOT EXISTS idx_contacts_session ON contacts(session_id);
CREATE INDEX IF NOT EXISTS idx_command_usage_session ON command_usage(session_id);
CREATE INDEX IF NOT EXISTS idx_command_usage_command ON command_usage(command_name);
`
