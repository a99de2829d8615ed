package sqlite

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"

	"zapnode/internal/model"
	"zapnode/internal/storage"
	"zapnode/pkg/log"
)

const timeLayout = time.RFC3339

// Store is the SQLite-backed storage.Store. It wraps a fixed-size
// connection pool with WAL pragmas; the schema is applied per connection
// and every statement is idempotent.
type Store struct {
	pool   *sqlitex.Pool
	l      log.Logger
	path   string
	memory bool
}

// Config holds the store parameters.
type Config struct {
	// Path is the database file. ":memory:" opens an in-memory database
	// (pool size forced to 1 — each in-memory connection is independent).
	Path     string
	PoolSize int
	Logger   log.Logger
}

// Open creates the store, applying pragmas and schema on each connection.
func Open(cfg Config) (*Store, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("sqlite: path is required")
	}

	memory := cfg.Path == ":memory:"
	poolSize := cfg.PoolSize
	if poolSize <= 0 {
		poolSize = 4
	}
	if memory {
		poolSize = 1
	}

	pool, err := sqlitex.NewPool(cfg.Path, sqlitex.PoolOptions{
		PoolSize:    poolSize,
		PrepareConn: prepareConn,
	})
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening %s: %w", cfg.Path, err)
	}

	return &Store{pool: pool, l: cfg.Logger, path: cfg.Path, memory: memory}, nil
}

func prepareConn(conn *sqlite.Conn) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA temp_store=MEMORY",
	}
	for _, pragma := range pragmas {
		if err := sqlitex.ExecuteTransient(conn, pragma, nil); err != nil {
			return fmt.Errorf("sqlite: %s: %w", pragma, err)
		}
	}
	if err := sqlitex.ExecuteScript(conn, schema, nil); err != nil {
		return fmt.Errorf("sqlite: applying schema: %w", err)
	}
	return nil
}

// Close closes the pool; blocks until borrowed connections return.
func (s *Store) Close() error {
	return s.pool.Close()
}

func (s *Store) UpsertSession(ctx context.Context, id string, rec storage.SessionRecord) error {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return fmt.Errorf("sqlite: upsert session: %w", err)
	}
	defer s.pool.Put(conn)

	var optionsJSON any
	if rec.Options != nil {
		data, err := json.Marshal(rec.Options)
		if err != nil {
			return fmt.Errorf("sqlite: marshal session options: %w", err)
		}
		optionsJSON = string(data)
	}

	status := rec.Status
	if status == "" {
		status = storage.StatusDisconnected
	}

	err = sqlitex.Execute(conn, `INSERT INTO sessions (id, phone_number, status, whatsapp_version, options)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			phone_number = COALESCE(NULLIF(excluded.phone_number, ''), phone_number),
			status = excluded.status,
			whatsapp_version = COALESCE(NULLIF(excluded.whatsapp_version, ''), whatsapp_version),
			options = COALESCE(excluded.options, options),
			last_seen = strftime('%Y-%m-%dT%H:%M:%SZ','now')`,
		&sqlitex.ExecOptions{
			Args: []any{id, rec.PhoneNumber, status, rec.WhatsAppVersion, optionsJSON},
		})
	if err != nil {
		return fmt.Errorf("sqlite: upsert session %s: %w", id, err)
	}
	return nil
}

func (s *Store) UpdateSessionStatus(ctx context.Context, id, status string) error {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return fmt.Errorf("sqlite: update session status: %w", err)
	}
	defer s.pool.Put(conn)

	column := "disconnected_at"
	if status == storage.StatusConnected {
		column = "connected_at"
	}

	query := fmt.Sprintf(`UPDATE sessions
		SET status = ?, %s = ?, last_seen = strftime('%%Y-%%m-%%dT%%H:%%M:%%SZ','now')
		WHERE id = ?`, column)

	err = sqlitex.Execute(conn, query, &sqlitex.ExecOptions{
		Args: []any{status, time.Now().UTC().Format(timeLayout), id},
	})
	if err != nil {
		return fmt.Errorf("sqlite: update session %s status: %w", id, err)
	}
	if conn.Changes() == 0 {
		return fmt.Errorf("sqlite: update session %s status: %w", id, storage.ErrNotFound)
	}
	return nil
}

func (s *Store) InsertMessage(ctx context.Context, msg model.StoredMessage) error {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return fmt.Errorf("sqlite: insert message: %w", err)
	}
	defer s.pool.Put(conn)

	err = sqlitex.Execute(conn, `INSERT INTO messages
		(id, session_id, from_number, to_number, chat_id, chat_type,
		 body, message_type, has_media, timestamp, is_forwarded, is_status)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING`,
		&sqlitex.ExecOptions{
			Args: []any{
				msg.ID,
				msg.SessionID,
				msg.From,
				msg.To,
				msg.ChatID,
				string(msg.ChatType),
				msg.Body,
				msg.MessageType,
				boolInt(msg.HasMedia),
				msg.Timestamp.UTC().Format(timeLayout),
				boolInt(msg.IsForwarded),
				boolInt(msg.IsStatus),
			},
		})
	if err != nil {
		return fmt.Errorf("sqlite: insert message %s: %w", msg.ID, err)
	}
	return nil
}

func (s *Store) UpsertContact(ctx context.Context, sessionID, phoneNumber, name string) error {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return fmt.Errorf("sqlite: upsert contact: %w", err)
	}
	defer s.pool.Put(conn)

	contactID := sessionID + "-" + phoneNumber
	err = sqlitex.Execute(conn, `INSERT INTO contacts (id, session_id, phone_number, name, message_count)
		VALUES (?, ?, ?, NULLIF(?, ''), 1)
		ON CONFLICT(session_id, phone_number) DO UPDATE SET
			name = COALESCE(NULLIF(excluded.name, ''), name),
			last_seen = strftime('%Y-%m-%dT%H:%M:%SZ','now'),
			message_count = message_count + 1`,
		&sqlitex.ExecOptions{
			Args: []any{contactID, sessionID, phoneNumber, name},
		})
	if err != nil {
		return fmt.Errorf("sqlite: upsert contact %s: %w", contactID, err)
	}
	return nil
}

func (s *Store) InsertCommandLog(ctx context.Context, entry model.CommandLog) error {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return fmt.Errorf("sqlite: insert command log: %w", err)
	}
	defer s.pool.Put(conn)

	var argsJSON any
	if len(entry.Args) > 0 {
		data, err := json.Marshal(entry.Args)
		if err != nil {
			return fmt.Errorf("sqlite: marshal command args: %w", err)
		}
		argsJSON = string(data)
	}

	err = sqlitex.Execute(conn, `INSERT INTO command_usage
		(session_id, command_name, from_number, chat_id, arguments, success, error_message)
		VALUES (?, ?, ?, ?, ?, ?, NULLIF(?, ''))`,
		&sqlitex.ExecOptions{
			Args: []any{
				entry.SessionID,
				entry.Command,
				entry.From,
				entry.ChatID,
				argsJSON,
				boolInt(entry.Success),
				entry.Error,
			},
		})
	if err != nil {
		return fmt.Errorf("sqlite: insert command log %s: %w", entry.Command, err)
	}
	return nil
}

func (s *Store) Stats(ctx context.Context) (model.StoreStats, error) {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return model.StoreStats{}, fmt.Errorf("sqlite: stats: %w", err)
	}
	defer s.pool.Put(conn)

	var stats model.StoreStats
	counts := []struct {
		query string
		dst   *int64
	}{
		{"SELECT COUNT(*) FROM sessions", &stats.TotalSessions},
		{"SELECT COUNT(*) FROM sessions WHERE status = 'connected'", &stats.ActiveSessions},
		{"SELECT COUNT(*) FROM messages", &stats.TotalMessages},
		{"SELECT COUNT(*) FROM messages WHERE DATE(timestamp) = DATE('now')", &stats.MessagesToday},
		{"SELECT COUNT(*) FROM contacts", &stats.TotalContacts},
		{"SELECT COUNT(*) FROM command_usage", &stats.TotalCommands},
	}
	for _, c := range counts {
		if err := queryInt64(conn, c.query, c.dst); err != nil {
			return model.StoreStats{}, err
		}
	}

	if !s.memory {
		if fi, err := os.Stat(s.path); err == nil {
			stats.DatabaseSizeBytes = fi.Size()
		}
	}

	return stats, nil
}

func (s *Store) QueryMessages(ctx context.Context, q storage.MessageQuery) ([]model.StoredMessage, error) {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return nil, fmt.Errorf("sqlite: query messages: %w", err)
	}
	defer s.pool.Put(conn)

	query := "SELECT id, session_id, from_number, to_number, chat_id, chat_type, body, message_type, has_media, timestamp, is_forwarded, is_status, created_at FROM messages WHERE 1=1"
	args := []any{}
	if q.SessionID != "" {
		query += " AND session_id = ?"
		args = append(args, q.SessionID)
	}
	if q.ChatID != "" {
		query += " AND chat_id = ?"
		args = append(args, q.ChatID)
	}
	query += " ORDER BY timestamp DESC LIMIT ? OFFSET ?"
	args = append(args, limitOrDefault(q.Limit, 50), q.Offset)

	return scanMessages(conn, query, args)
}

func (s *Store) SearchMessages(ctx context.Context, term, sessionID string, limit int) ([]model.StoredMessage, error) {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return nil, fmt.Errorf("sqlite: search messages: %w", err)
	}
	defer s.pool.Put(conn)

	query := "SELECT id, session_id, from_number, to_number, chat_id, chat_type, body, message_type, has_media, timestamp, is_forwarded, is_status, created_at FROM messages WHERE body LIKE ?"
	args := []any{"%" + term + "%"}
	if sessionID != "" {
		query += " AND session_id = ?"
		args = append(args, sessionID)
	}
	query += " ORDER BY timestamp DESC LIMIT ?"
	args = append(args, limitOrDefault(limit, 50))

	return scanMessages(conn, query, args)
}

func (s *Store) QueryContacts(ctx context.Context, q storage.ContactQuery) ([]model.Contact, error) {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return nil, fmt.Errorf("sqlite: query contacts: %w", err)
	}
	defer s.pool.Put(conn)

	query := "SELECT id, session_id, phone_number, name, first_seen, last_seen, message_count FROM contacts WHERE session_id = ? ORDER BY last_seen DESC LIMIT ? OFFSET ?"
	return scanContacts(conn, query, []any{q.SessionID, limitOrDefault(q.Limit, 100), q.Offset})
}

func (s *Store) TopContacts(ctx context.Context, sessionID string, limit int) ([]model.Contact, error) {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return nil, fmt.Errorf("sqlite: top contacts: %w", err)
	}
	defer s.pool.Put(conn)

	query := "SELECT id, session_id, phone_number, name, first_seen, last_seen, message_count FROM contacts WHERE session_id = ? ORDER BY message_count DESC LIMIT ?"
	return scanContacts(conn, query, []any{sessionID, limitOrDefault(limit, 10)})
}

func (s *Store) CommandStats(ctx context.Context, sessionID string, limit int) ([]model.CommandStat, error) {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return nil, fmt.Errorf("sqlite: command stats: %w", err)
	}
	defer s.pool.Put(conn)

	query := `SELECT command_name,
		COUNT(*) AS usage_count,
		SUM(CASE WHEN success = 1 THEN 1 ELSE 0 END) AS success_count,
		SUM(CASE WHEN success = 0 THEN 1 ELSE 0 END) AS error_count
		FROM command_usage`
	args := []any{}
	if sessionID != "" {
		query += " WHERE session_id = ?"
		args = append(args, sessionID)
	}
	query += " GROUP BY command_name ORDER BY usage_count DESC LIMIT ?"
	args = append(args, limitOrDefault(limit, 10))

	var out []model.CommandStat
	err = sqlitex.Execute(conn, query, &sqlitex.ExecOptions{
		Args: args,
		ResultFunc: func(stmt *sqlite.Stmt) error {
			out = append(out, model.CommandStat{
				Command:      stmt.ColumnText(0),
				UsageCount:   stmt.ColumnInt64(1),
				SuccessCount: stmt.ColumnInt64(2),
				ErrorCount:   stmt.ColumnInt64(3),
			})
			return nil
		},
	})
	if err != nil {
		return nil, fmt.Errorf("sqlite: command stats: %w", err)
	}
	return out, nil
}

func (s *Store) DeleteOlderThan(ctx context.Context, days int) (int64, int64, error) {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return 0, 0, fmt.Errorf("sqlite: delete older than: %w", err)
	}
	defer s.pool.Put(conn)

	cutoff := time.Now().UTC().AddDate(0, 0, -days).Format(timeLayout)

	if err := sqlitex.Execute(conn, "DELETE FROM messages WHERE timestamp < ?", &sqlitex.ExecOptions{
		Args: []any{cutoff},
	}); err != nil {
		return 0, 0, fmt.Errorf("sqlite: delete old messages: %w", err)
	}
	messagesDeleted := int64(conn.Changes())

	if err := sqlitex.Execute(conn, "DELETE FROM command_usage WHERE executed_at < ?", &sqlitex.ExecOptions{
		Args: []any{cutoff},
	}); err != nil {
		return messagesDeleted, 0, fmt.Errorf("sqlite: delete old command logs: %w", err)
	}
	commandsDeleted := int64(conn.Changes())

	if s.l != nil && (messagesDeleted > 0 || commandsDeleted > 0) {
		s.l.Debugf(ctx, "sqlite: pruned %d message(s), %d command log(s) older than %d day(s)",
			messagesDeleted, commandsDeleted, days)
	}
	return messagesDeleted, commandsDeleted, nil
}

func scanMessages(conn *sqlite.Conn, query string, args []any) ([]model.StoredMessage, error) {
	var out []model.StoredMessage
	err := sqlitex.Execute(conn, query, &sqlitex.ExecOptions{
		Args: args,
		ResultFunc: func(stmt *sqlite.Stmt) error {
			out = append(out, model.StoredMessage{
				ID:          stmt.ColumnText(0),
				SessionID:   stmt.ColumnText(1),
				From:        stmt.ColumnText(2),
				To:          stmt.ColumnText(3),
				ChatID:      stmt.ColumnText(4),
				ChatType:    model.ChatType(stmt.ColumnText(5)),
				Body:        stmt.ColumnText(6),
				MessageType: stmt.ColumnText(7),
				HasMedia:    stmt.ColumnInt64(8) != 0,
				Timestamp:   parseTime(stmt.ColumnText(9)),
				IsForwarded: stmt.ColumnInt64(10) != 0,
				IsStatus:    stmt.ColumnInt64(11) != 0,
				CreatedAt:   parseTime(stmt.ColumnText(12)),
			})
			return nil
		},
	})
	if err != nil {
		return nil, fmt.Errorf("sqlite: scan messages: %w", err)
	}
	return out, nil
}

func scanContacts(conn *sqlite.Conn, query string, args []any) ([]model.Contact, error) {
	var out []model.Contact
	err := sqlitex.Execute(conn, query, &sqlitex.ExecOptions{
		Args: args,
		ResultFunc: func(stmt *sqlite.Stmt) error {
			out = append(out, model.Contact{
				ID:           stmt.ColumnText(0),
				SessionID:    stmt.ColumnText(1),
				PhoneNumber:  stmt.ColumnText(2),
				Name:         stmt.ColumnText(3),
				FirstSeen:    parseTime(stmt.ColumnText(4)),
				LastSeen:     parseTime(stmt.ColumnText(5)),
				MessageCount: stmt.ColumnInt64(6),
			})
			return nil
		},
	})
	if err != nil {
		return nil, fmt.Errorf("sqlite: scan contacts: %w", err)
	}
	return out, nil
}

func queryInt64(conn *sqlite.Conn, query string, dst *int64) error {
	err := sqlitex.Execute(conn, query, &sqlitex.ExecOptions{
		ResultFunc: func(stmt *sqlite.Stmt) error {
			*dst = stmt.ColumnInt64(0)
			return nil
		},
	})
	if err != nil {
		return fmt.Errorf("sqlite: %s: %w", query, err)
	}
	return nil
}

func parseTime(s string) time.Time {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func limitOrDefault(limit, def int) int {
	if limit <= 0 {
		return def
	}
	return limit
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
