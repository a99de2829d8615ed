package message

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"testing"

	"zapnode/internal/command"
	"zapnode/internal/conversation"
	"zapnode/internal/model"
	"zapnode/internal/session"
	"zapnode/internal/storage"
	"zapnode/pkg/groq"
	"zapnode/pkg/log"
)

type mockStore struct {
	storage.Store

	mu       sync.Mutex
	messages []model.StoredMessage
	contacts []string
	commands []model.CommandLog
}

func (m *mockStore) InsertMessage(ctx context.Context, msg model.StoredMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append(m.messages, msg)
	return nil
}

func (m *mockStore) UpsertContact(ctx context.Context, sessionID, phone, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.contacts = append(m.contacts, phone)
	return nil
}

func (m *mockStore) InsertCommandLog(ctx context.Context, entry model.CommandLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.commands = append(m.commands, entry)
	return nil
}

type mockSender struct {
	mu    sync.Mutex
	sent  []string
	calls int
}

func (m *mockSender) Send(ctx context.Context, sessionID, target, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	m.sent = append(m.sent, text)
	return nil
}

func (m *mockSender) last() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.sent) == 0 {
		return ""
	}
	return m.sent[len(m.sent)-1]
}

type mockAI struct {
	reply string
	err   error
	calls int
}

func (m *mockAI) Complete(ctx context.Context, systemPrompt string, history []groq.Message) (string, error) {
	m.calls++
	if m.err != nil {
		return "", m.err
	}
	return m.reply, nil
}

func (m *mockAI) Model() string { return "test-model" }

type failingCommand struct{}

func (failingCommand) Name() string        { return "boom" }
func (failingCommand) Description() string { return "" }
func (failingCommand) Usage() string       { return "" }
func (failingCommand) Execute(ctx context.Context, req command.Request) (string, error) {
	return "", errors.New("handler failed")
}

func inbound(from, body string) session.InboundMessage {
	return session.InboundMessage{ID: "m-" + body, From: from, Body: body, MessageType: "chat"}
}

func newTestPipeline(store *mockStore, sender *mockSender, ai *mockAI, features model.Features) *Pipeline {
	registry := command.NewRegistry()
	registry.Register(command.NewPing())
	registry.Register(failingCommand{})

	cfg := Config{
		Logger:   log.NewNop(),
		Memory:   conversation.New(),
		Registry: registry,
		Features: features,
	}
	if store != nil {
		cfg.Store = store
	}
	if sender != nil {
		cfg.Sender = sender
	}
	if ai != nil {
		cfg.AI = ai
	}
	return New(cfg)
}

func TestParseCommand(t *testing.T) {
	cases := []struct {
		body     string
		wantName string
		wantArgs []string
	}{
		{"!ping extra arg", "ping", []string{"extra", "arg"}},
		{"!PING", "ping", nil},
		{"  !help  ", "help", nil},
		{"!", "", nil},
	}
	for _, tc := range cases {
		name, args := ParseCommand(tc.body)
		if name != tc.wantName {
			t.Errorf("ParseCommand(%q) name = %q, want %q", tc.body, name, tc.wantName)
		}
		if len(args) != len(tc.wantArgs) || (len(args) > 0 && !reflect.DeepEqual(args, tc.wantArgs)) {
			t.Errorf("ParseCommand(%q) args = %v, want %v", tc.body, args, tc.wantArgs)
		}
	}
}

func TestIgnoreFilter(t *testing.T) {
	features := model.Features{IgnoreGroups: true, IgnoreStatus: true, IgnoreNewsletters: true, AutoReply: true}

	cases := []struct {
		from    string
		ignored bool
	}{
		{"123456789@g.us", true},
		{"status@broadcast", true},
		{"12345@newsletter", true},
		{"111222333@c.us", false},
	}

	for _, tc := range cases {
		store := &mockStore{}
		sender := &mockSender{}
		ai := &mockAI{reply: "hi"}
		p := newTestPipeline(store, sender, ai, features)

		p.Handle(context.Background(), "s1", inbound(tc.from, "hello"))

		if tc.ignored {
			if len(store.messages) != 0 {
				t.Errorf("%s: expected no persistence, got %d messages", tc.from, len(store.messages))
			}
			if ai.calls != 0 {
				t.Errorf("%s: expected no AI call", tc.from)
			}
		} else {
			if len(store.messages) != 1 {
				t.Errorf("%s: expected persistence, got %d messages", tc.from, len(store.messages))
			}
			if ai.calls != 1 {
				t.Errorf("%s: expected AI call", tc.from)
			}
		}
	}
}

func TestCommandDispatch(t *testing.T) {
	store := &mockStore{}
	sender := &mockSender{}
	p := newTestPipeline(store, sender, nil, model.Features{})

	p.Handle(context.Background(), "s1", inbound("111@c.us", "!PING"))

	if got := sender.last(); got != "🏓 Pong!" {
		t.Errorf("unexpected reply: %q", got)
	}
	if len(store.commands) != 1 {
		t.Fatalf("expected 1 command log, got %d", len(store.commands))
	}
	if entry := store.commands[0]; entry.Command != "ping" || !entry.Success {
		t.Errorf("unexpected command log: %+v", entry)
	}
}

func TestUnknownCommandLoggedWithoutReply(t *testing.T) {
	store := &mockStore{}
	sender := &mockSender{}
	p := newTestPipeline(store, sender, nil, model.Features{})

	p.Handle(context.Background(), "s1", inbound("111@c.us", "!nosuch"))

	if sender.calls != 0 {
		t.Errorf("expected no reply, got %v", sender.sent)
	}
	if len(store.commands) != 1 || store.commands[0].Success {
		t.Errorf("expected failed command log, got %+v", store.commands)
	}
}

func TestFailingCommandGetsApology(t *testing.T) {
	store := &mockStore{}
	sender := &mockSender{}
	p := newTestPipeline(store, sender, nil, model.Features{})

	p.Handle(context.Background(), "s1", inbound("111@c.us", "!boom"))

	if got := sender.last(); got != replyCommandError {
		t.Errorf("unexpected reply: %q", got)
	}
	if len(store.commands) != 1 || store.commands[0].Success {
		t.Errorf("expected failed command log, got %+v", store.commands)
	}
}

func TestFreeTextAutoReply(t *testing.T) {
	sender := &mockSender{}
	ai := &mockAI{reply: "Hi there!"}
	p := newTestPipeline(nil, sender, ai, model.Features{AutoReply: true})

	p.Handle(context.Background(), "s1", inbound("111@c.us", "Hello"))

	if got := sender.last(); got != "Hi there!" {
		t.Errorf("unexpected reply: %q", got)
	}

	h := p.memory.History("s1", "111@c.us")
	if len(h) != 2 {
		t.Fatalf("expected 2 history entries, got %d", len(h))
	}
	if h[0].Role != conversation.RoleUser || h[0].Content != "Hello" {
		t.Errorf("unexpected first entry: %+v", h[0])
	}
	if h[1].Role != conversation.RoleAssistant || h[1].Content != "Hi there!" {
		t.Errorf("unexpected second entry: %+v", h[1])
	}
}

func TestFreeTextDisabled(t *testing.T) {
	sender := &mockSender{}
	ai := &mockAI{reply: "ignored"}
	p := newTestPipeline(nil, sender, ai, model.Features{AutoReply: false})

	p.Handle(context.Background(), "s1", inbound("111@c.us", "Hello"))

	if ai.calls != 0 {
		t.Error("expected no AI call when auto reply is disabled")
	}
	if sender.calls != 0 {
		t.Errorf("expected no reply, got %v", sender.sent)
	}
}

func TestCannedReplies(t *testing.T) {
	cases := []struct {
		err  error
		want string
	}{
		{groq.ErrRateLimited, replyRateLimited},
		{groq.ErrAuth, replyMisconfig},
		{errors.New("network down"), replyGeneric},
	}

	for _, tc := range cases {
		sender := &mockSender{}
		ai := &mockAI{err: tc.err}
		p := newTestPipeline(nil, sender, ai, model.Features{AutoReply: true})

		p.Handle(context.Background(), "s1", inbound("111@c.us", "Hello"))

		if got := sender.last(); got != tc.want {
			t.Errorf("error %v: reply = %q, want %q", tc.err, got, tc.want)
		}

		// The failed turn keeps the user entry but records no assistant reply.
		if h := p.memory.History("s1", "111@c.us"); len(h) != 1 {
			t.Errorf("error %v: expected 1 history entry, got %d", tc.err, len(h))
		}
	}
}
