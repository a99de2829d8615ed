package conversation

import (
	"fmt"
	"sync"
	"testing"
)

func TestAppendBoundsHistory(t *testing.T) {
	m := New()

	for i := 0; i < 11; i++ {
		m.Append("s1", "111@c.us", RoleUser, fmt.Sprintf("message %d", i))
	}

	h := m.History("s1", "111@c.us")
	if len(h) != MaxEntries {
		t.Fatalf("expected %d entries, got %d", MaxEntries, len(h))
	}
	if h[0].Content != "message 1" {
		t.Errorf("expected oldest entry to be message 1, got %q", h[0].Content)
	}
	if h[len(h)-1].Content != "message 10" {
		t.Errorf("expected newest entry to be message 10, got %q", h[len(h)-1].Content)
	}
}

func TestAppendConcurrentFirstTouch(t *testing.T) {
	const writers = 8

	// Each round uses a fresh key so every writer races on the lazy history
	// creation, not just on an established entry slice.
	for round := 0; round < 50; round++ {
		m := New()
		contact := fmt.Sprintf("%d@c.us", round)

		start := make(chan struct{})
		var wg sync.WaitGroup
		for i := 0; i < writers; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				<-start
				m.Append("s1", contact, RoleUser, fmt.Sprintf("message %d", i))
			}(i)
		}
		close(start)
		wg.Wait()

		if got := len(m.History("s1", contact)); got != writers {
			t.Fatalf("round %d: expected %d entries, got %d", round, writers, got)
		}
	}
}

func TestHistoryIsolatedPerConversation(t *testing.T) {
	m := New()

	m.Append("s1", "111@c.us", RoleUser, "hi")
	m.Append("s1", "222@c.us", RoleUser, "hello")
	m.Append("s2", "111@c.us", RoleUser, "hey")

	if got := len(m.History("s1", "111@c.us")); got != 1 {
		t.Errorf("expected 1 entry for s1/111, got %d", got)
	}
	if m.Len() != 3 {
		t.Errorf("expected 3 conversations, got %d", m.Len())
	}
}

func TestHistoryReturnsCopy(t *testing.T) {
	m := New()
	m.Append("s1", "111@c.us", RoleUser, "original")

	h := m.History("s1", "111@c.us")
	h[0].Content = "mutated"

	if got := m.History("s1", "111@c.us")[0].Content; got != "original" {
		t.Errorf("history was mutated through the returned slice: %q", got)
	}
}

func TestClear(t *testing.T) {
	m := New()
	m.Append("s1", "111@c.us", RoleUser, "hi")
	m.Append("s1", "111@c.us", RoleAssistant, "hello")

	m.Clear("s1", "111@c.us")

	if h := m.History("s1", "111@c.us"); h != nil {
		t.Errorf("expected empty history after clear, got %v", h)
	}
}

func TestClearSession(t *testing.T) {
	m := New()
	m.Append("s1", "111@c.us", RoleUser, "hi")
	m.Append("s1", "222@c.us", RoleUser, "hi")
	m.Append("s2", "111@c.us", RoleUser, "hi")

	m.ClearSession("s1")

	if m.Len() != 1 {
		t.Errorf("expected 1 conversation left, got %d", m.Len())
	}
	if h := m.History("s2", "111@c.us"); len(h) != 1 {
		t.Errorf("s2 conversation should survive, got %v", h)
	}
}
