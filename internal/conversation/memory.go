package conversation

import (
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// Role identifies who produced an entry.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Entry is one turn of a conversation.
type Entry struct {
	Role    Role
	Content string
}

const (
	// MaxEntries bounds the history kept per conversation; the oldest entry
	// is dropped when a new one would exceed it.
	MaxEntries = 10

	defaultMaxConversations = 1024
	defaultTTL              = 24 * time.Hour
)

type history struct {
	mu      sync.Mutex
	entries []Entry
}

// Memory keeps a bounded per-conversation history, keyed by session and
// contact. Idle conversations are evicted after a TTL so the table cannot
// grow without bound.
type Memory struct {
	// mu serializes the get-or-create in Append; without it two first-touch
	// appends to the same key can each insert a fresh history, and the later
	// Add silently drops the earlier append.
	mu    sync.Mutex
	cache *expirable.LRU[string, *history]
}

// Option configures a Memory.
type Option func(*options)

type options struct {
	maxConversations int
	ttl              time.Duration
}

// WithMaxConversations caps the number of tracked conversations.
func WithMaxConversations(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.maxConversations = n
		}
	}
}

// WithTTL sets how long an idle conversation is kept.
func WithTTL(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.ttl = d
		}
	}
}

// New builds a Memory.
func New(opts ...Option) *Memory {
	o := options{
		maxConversations: defaultMaxConversations,
		ttl:              defaultTTL,
	}
	for _, opt := range opts {
		opt(&o)
	}

	return &Memory{
		cache: expirable.NewLRU[string, *history](o.maxConversations, nil, o.ttl),
	}
}

func key(sessionID, contact string) string {
	return sessionID + "-" + contact
}

// Append records one turn for the given conversation, evicting the oldest
// turn once the bound is reached.
func (m *Memory) Append(sessionID, contact string, role Role, content string) {
	k := key(sessionID, contact)

	m.mu.Lock()
	h, ok := m.cache.Get(k)
	if !ok {
		h = &history{}
		m.cache.Add(k, h)
	}
	m.mu.Unlock()

	h.mu.Lock()
	h.entries = append(h.entries, Entry{Role: role, Content: content})
	if len(h.entries) > MaxEntries {
		h.entries = h.entries[len(h.entries)-MaxEntries:]
	}
	h.mu.Unlock()
}

// History returns a copy of the conversation's entries, oldest first.
func (m *Memory) History(sessionID, contact string) []Entry {
	h, ok := m.cache.Get(key(sessionID, contact))
	if !ok {
		return nil
	}

	h.mu.Lock()
	out := make([]Entry, len(h.entries))
	copy(out, h.entries)
	h.mu.Unlock()
	return out
}

// Clear drops a single conversation.
func (m *Memory) Clear(sessionID, contact string) {
	m.cache.Remove(key(sessionID, contact))
}

// ClearSession drops every conversation belonging to a session.
func (m *Memory) ClearSession(sessionID string) {
	prefix := sessionID + "-"
	for _, k := range m.cache.Keys() {
		if len(k) > len(prefix) && k[:len(prefix)] == prefix {
			m.cache.Remove(k)
		}
	}
}

// Len reports how many conversations are tracked.
func (m *Memory) Len() int {
	return m.cache.Len()
}
