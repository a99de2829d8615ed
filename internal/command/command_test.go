package command

import (
	"context"
	"errors"
	"strings"
	"testing"

	"zapnode/internal/conversation"
	"zapnode/internal/model"
	"zapnode/internal/storage"
)

type stubStore struct {
	storage.Store
	stats    model.StoreStats
	statsErr error
}

func (s stubStore) Stats(ctx context.Context) (model.StoreStats, error) {
	return s.stats, s.statsErr
}

func TestRegistryLookupCaseInsensitive(t *testing.T) {
	r := NewRegistry()
	r.Register(NewPing())

	for _, name := range []string{"ping", "PING", "Ping"} {
		if _, ok := r.Get(name); !ok {
			t.Errorf("expected lookup %q to succeed", name)
		}
	}
	if r.Has("pong") {
		t.Error("unexpected command pong")
	}
}

func TestRegistryAllSorted(t *testing.T) {
	r := NewRegistry()
	r.Register(NewStats(stubStore{}))
	r.Register(NewPing())
	r.Register(NewHelp(r))

	all := r.All()
	if len(all) != 3 {
		t.Fatalf("expected 3 commands, got %d", len(all))
	}
	for i, want := range []string{"help", "ping", "stats"} {
		if all[i].Name() != want {
			t.Errorf("position %d: expected %s, got %s", i, want, all[i].Name())
		}
	}
}

func TestPing(t *testing.T) {
	reply, err := NewPing().Execute(context.Background(), Request{})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if reply != "🏓 Pong!" {
		t.Errorf("unexpected reply: %q", reply)
	}
}

func TestHelpListsCommands(t *testing.T) {
	r := NewRegistry()
	r.Register(NewPing())
	r.Register(NewHelp(r))

	reply, err := r.All()[0].Execute(context.Background(), Request{})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	for _, want := range []string{"!ping", "!help", "Test bot responsiveness"} {
		if !strings.Contains(reply, want) {
			t.Errorf("help output missing %q:\n%s", want, reply)
		}
	}
}

func TestInfoReportsFeatures(t *testing.T) {
	cmd := NewInfo(model.Features{AutoReply: true, IgnoreGroups: true})

	reply, err := cmd.Execute(context.Background(), Request{
		From:   "111@c.us",
		ChatID: "111@c.us",
	})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !strings.Contains(reply, "• Auto Reply: ✅") {
		t.Errorf("expected auto reply enabled:\n%s", reply)
	}
	if !strings.Contains(reply, "• Welcome Message: ❌") {
		t.Errorf("expected welcome message disabled:\n%s", reply)
	}
	if !strings.Contains(reply, "• Type: Private") {
		t.Errorf("expected private chat type:\n%s", reply)
	}
}

func TestStats(t *testing.T) {
	cmd := NewStats(stubStore{stats: model.StoreStats{
		TotalSessions:     2,
		ActiveSessions:    1,
		TotalMessages:     40,
		DatabaseSizeBytes: 2048,
	}})

	reply, err := cmd.Execute(context.Background(), Request{})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	for _, want := range []string{"Total Sessions: 2", "Active Sessions: 1", "Total Messages: 40", "2.00 KB"} {
		if !strings.Contains(reply, want) {
			t.Errorf("stats output missing %q:\n%s", want, reply)
		}
	}
}

func TestStatsPropagatesError(t *testing.T) {
	cmd := NewStats(stubStore{statsErr: errors.New("boom")})

	if _, err := cmd.Execute(context.Background(), Request{}); err == nil {
		t.Fatal("expected error")
	}
}

func TestAIClearDropsHistory(t *testing.T) {
	mem := conversation.New()
	mem.Append("s1", "111@c.us", conversation.RoleUser, "hi")

	cmd := NewAI(mem, true, "llama-3.3-70b-versatile")
	reply, err := cmd.Execute(context.Background(), Request{
		SessionID: "s1",
		From:      "111@c.us",
		Args:      []string{"clear"},
	})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !strings.Contains(reply, "Histórico de conversa limpo") {
		t.Errorf("unexpected reply: %q", reply)
	}
	if h := mem.History("s1", "111@c.us"); h != nil {
		t.Errorf("expected cleared history, got %v", h)
	}
}

func TestAIStatusReflectsToggle(t *testing.T) {
	mem := conversation.New()

	reply, _ := NewAI(mem, false, "llama-3.3-70b-versatile").
		Execute(context.Background(), Request{Args: []string{"status"}})
	if !strings.Contains(reply, "Desativado") {
		t.Errorf("expected disabled status: %q", reply)
	}

	reply, _ = NewAI(mem, true, "llama-3.3-70b-versatile").
		Execute(context.Background(), Request{Args: []string{"STATUS"}})
	if !strings.Contains(reply, "Ativo") {
		t.Errorf("expected active status: %q", reply)
	}
}

func TestAIDefaultShowsHelp(t *testing.T) {
	reply, err := NewAI(conversation.New(), true, "m").
		Execute(context.Background(), Request{})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !strings.Contains(reply, "Comandos do Bot de IA") {
		t.Errorf("unexpected reply: %q", reply)
	}
}

func TestFormatBytes(t *testing.T) {
	cases := []struct {
		in   int64
		want string
	}{
		{512, "512 B"},
		{2048, "2.00 KB"},
		{5 * 1024 * 1024, "5.00 MB"},
	}
	for _, tc := range cases {
		if got := formatBytes(tc.in); got != tc.want {
			t.Errorf("formatBytes(%d) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
