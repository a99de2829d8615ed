package manager

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"zapnode/internal/model"
	"zapnode/internal/session"
	"zapnode/pkg/log"
	"zapnode/pkg/wweb"
)

type fakeClient struct {
	mu         sync.Mutex
	connectErr error
	sendErr    error

	connects int
	sends    []string
	logouts  int
	destroys int

	destroyBlock chan struct{}
}

func (c *fakeClient) Connect(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.connects++
	return c.connectErr
}

func (c *fakeClient) Send(ctx context.Context, target, text string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sends = append(c.sends, text)
	return c.sendErr
}

func (c *fakeClient) Logout(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.logouts++
	return nil
}

func (c *fakeClient) Destroy(ctx context.Context) error {
	if c.destroyBlock != nil {
		<-c.destroyBlock
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.destroys++
	return nil
}

func (c *fakeClient) Version(ctx context.Context) (string, error) {
	return "2.3000.0", nil
}

func (c *fakeClient) sendCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.sends)
}

func (c *fakeClient) destroyCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.destroys
}

type fakeFactory struct {
	mu       sync.Mutex
	client   *fakeClient
	handlers map[string]wweb.Handler
	newErr   error
}

func newFakeFactory() *fakeFactory {
	return &fakeFactory{client: &fakeClient{}, handlers: make(map[string]wweb.Handler)}
}

func (f *fakeFactory) New(opts wweb.Options, handler wweb.Handler) (wweb.Client, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.newErr != nil {
		return nil, f.newErr
	}
	f.handlers[opts.ClientID] = handler
	return f.client, nil
}

func (f *fakeFactory) emit(id string, ev wweb.Event) {
	f.mu.Lock()
	h := f.handlers[id]
	f.mu.Unlock()
	if h != nil {
		h(ev)
	}
}

type recordingSink struct {
	got chan session.InboundMessage
}

func (s *recordingSink) Handle(ctx context.Context, sessionID string, msg session.InboundMessage) {
	s.got <- msg
}

func newTestManager(f *fakeFactory) *Manager {
	return New(Config{
		Logger:              log.NewNop(),
		Factory:             f,
		AutoCleanupOnLogout: true,
		CleanupDelay:        10 * time.Millisecond,
		DestroyTimeout:      200 * time.Millisecond,
		ReconnectBackoff:    10 * time.Millisecond,
		SendInterval:        time.Millisecond,
		SendBurst:           10,
		Exit:                func(code int) {},
	})
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

func TestCreateSessionDuplicate(t *testing.T) {
	f := newFakeFactory()
	m := newTestManager(f)
	ctx := context.Background()

	if _, err := m.CreateSession(ctx, "s1", model.SessionOptions{}); err != nil {
		t.Fatalf("CreateSession: %v", err)
	}
	if _, err := m.CreateSession(ctx, "s1", model.SessionOptions{}); !errors.Is(err, session.ErrDuplicateSession) {
		t.Fatalf("expected ErrDuplicateSession, got %v", err)
	}
	if got := len(m.ListSessions()); got != 1 {
		t.Errorf("expected 1 session in table, got %d", got)
	}
}

func TestCreateSessionFactoryError(t *testing.T) {
	f := newFakeFactory()
	f.newErr = errors.New("bridge down")
	m := newTestManager(f)

	if _, err := m.CreateSession(context.Background(), "s1", model.SessionOptions{}); err == nil {
		t.Fatal("expected error")
	}
	if got := len(m.ListSessions()); got != 0 {
		t.Errorf("failed create must not leak a table entry, got %d", got)
	}
}

func TestSendRequiresReady(t *testing.T) {
	f := newFakeFactory()
	m := newTestManager(f)
	ctx := context.Background()

	if _, err := m.CreateSession(ctx, "s1", model.SessionOptions{}); err != nil {
		t.Fatalf("CreateSession: %v", err)
	}

	err := m.Send(ctx, "s1", "111@c.us", "hi")
	if !errors.Is(err, session.ErrNotReady) {
		t.Fatalf("expected ErrNotReady, got %v", err)
	}
	if f.client.sendCount() != 0 {
		t.Error("send in non-ready state must not reach the transport")
	}

	if err := m.Send(ctx, "nope", "111@c.us", "hi"); !errors.Is(err, session.ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestReadyThenSend(t *testing.T) {
	f := newFakeFactory()
	m := newTestManager(f)
	ctx := context.Background()

	if _, err := m.CreateSession(ctx, "s1", model.SessionOptions{}); err != nil {
		t.Fatalf("CreateSession: %v", err)
	}
	f.emit("s1", wweb.Event{Kind: wweb.EventReady})

	if !m.IsReady("s1") {
		t.Fatal("expected session to be ready")
	}
	if err := m.Send(ctx, "s1", "111@c.us", "hello"); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if f.client.sendCount() != 1 {
		t.Errorf("expected 1 transport send, got %d", f.client.sendCount())
	}

	info, ok := m.GetSessionInfo("s1")
	if !ok {
		t.Fatal("expected session info")
	}
	if info.State != model.StateReady || info.ReadyAt == nil {
		t.Errorf("unexpected info: %+v", info)
	}
}

func TestSendErrorWrapped(t *testing.T) {
	f := newFakeFactory()
	f.client.sendErr = errors.New("socket closed")
	m := newTestManager(f)
	ctx := context.Background()

	m.CreateSession(ctx, "s1", model.SessionOptions{})
	f.emit("s1", wweb.Event{Kind: wweb.EventReady})

	err := m.Send(ctx, "s1", "111@c.us", "hello")
	var sendErr *session.SendError
	if !errors.As(err, &sendErr) {
		t.Fatalf("expected *SendError, got %v", err)
	}
	if sendErr.SessionID != "s1" || sendErr.Target != "111@c.us" {
		t.Errorf("unexpected send error: %+v", sendErr)
	}
}

func TestLogoutTriggersDeferredCleanup(t *testing.T) {
	f := newFakeFactory()
	m := newTestManager(f)
	ctx := context.Background()

	m.CreateSession(ctx, "s1", model.SessionOptions{})
	f.emit("s1", wweb.Event{Kind: wweb.EventReady})
	f.emit("s1", wweb.Event{Kind: wweb.EventDisconnected, Reason: wweb.DisconnectReasonLogout})

	waitFor(t, func() bool {
		_, ok := m.GetSessionInfo("s1")
		return !ok
	})
	if f.client.destroyCount() != 1 {
		t.Errorf("expected 1 destroy, got %d", f.client.destroyCount())
	}
}

func TestTransientDisconnectKeepsSession(t *testing.T) {
	f := newFakeFactory()
	m := newTestManager(f)
	ctx := context.Background()

	m.CreateSession(ctx, "s1", model.SessionOptions{})
	f.emit("s1", wweb.Event{Kind: wweb.EventReady})
	f.emit("s1", wweb.Event{Kind: wweb.EventDisconnected, Reason: "NAVIGATION"})

	time.Sleep(50 * time.Millisecond)

	info, ok := m.GetSessionInfo("s1")
	if !ok {
		t.Fatal("transient disconnect must not remove the session")
	}
	if info.State != model.StateDisconnected {
		t.Errorf("expected disconnected state, got %s", info.State)
	}

	// Network recovery brings it back without re-creating.
	f.emit("s1", wweb.Event{Kind: wweb.EventReady})
	if !m.IsReady("s1") {
		t.Error("expected session ready again after recovery")
	}
}

func TestDeleteSessionIdempotentCleanup(t *testing.T) {
	f := newFakeFactory()
	m := newTestManager(f)
	ctx := context.Background()

	m.CreateSession(ctx, "s1", model.SessionOptions{})

	if err := m.DeleteSession(ctx, "s1"); err != nil {
		t.Fatalf("DeleteSession: %v", err)
	}
	if _, ok := m.GetSessionInfo("s1"); ok {
		t.Fatal("expected session removed")
	}
	if err := m.DeleteSession(ctx, "s1"); !errors.Is(err, session.ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
	if f.client.destroyCount() != 1 {
		t.Errorf("expected exactly 1 destroy, got %d", f.client.destroyCount())
	}
}

func TestConcurrentCleanupRunsOnce(t *testing.T) {
	f := newFakeFactory()
	m := newTestManager(f)
	ctx := context.Background()

	m.CreateSession(ctx, "s1", model.SessionOptions{})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := m.cleanupSession(ctx, "s1"); err != nil {
				t.Errorf("cleanupSession: %v", err)
			}
		}()
	}
	wg.Wait()

	if f.client.destroyCount() != 1 {
		t.Errorf("expected exactly 1 destroy, got %d", f.client.destroyCount())
	}
	if _, ok := m.GetSessionInfo("s1"); ok {
		t.Error("expected session removed")
	}
}

func TestDestroyTimeoutDoesNotBlockRemoval(t *testing.T) {
	f := newFakeFactory()
	f.client.destroyBlock = make(chan struct{})
	defer close(f.client.destroyBlock)

	m := newTestManager(f)
	ctx := context.Background()

	m.CreateSession(ctx, "s1", model.SessionOptions{})

	start := time.Now()
	if err := m.DeleteSession(ctx, "s1"); err != nil {
		t.Fatalf("DeleteSession: %v", err)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("cleanup blocked for %s despite destroy timeout", elapsed)
	}
	if _, ok := m.GetSessionInfo("s1"); ok {
		t.Error("session must leave the table even when destroy hangs")
	}
}

func TestMessageRoutedToSink(t *testing.T) {
	f := newFakeFactory()
	m := newTestManager(f)
	sink := &recordingSink{got: make(chan session.InboundMessage, 1)}
	m.SetMessageSink(sink)
	ctx := context.Background()

	m.CreateSession(ctx, "s1", model.SessionOptions{})
	f.emit("s1", wweb.Event{Kind: wweb.EventMessage, Message: &wweb.Message{
		ID:   "m1",
		From: "111@c.us",
		Body: "hello",
		Type: "chat",
	}})

	select {
	case msg := <-sink.got:
		if msg.ID != "m1" || msg.From != "111@c.us" || msg.Body != "hello" {
			t.Errorf("unexpected message: %+v", msg)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("message never reached the sink")
	}
}

func TestPanicContainment(t *testing.T) {
	exited := make(chan int, 1)
	f := newFakeFactory()
	m := New(Config{
		Logger:  log.NewNop(),
		Factory: f,
		Exit:    func(code int) { exited <- code },
	})
	ctx := context.Background()

	m.CreateSession(ctx, "s1", model.SessionOptions{})

	// Known transient transport faults are suppressed.
	m.SetMessageSink(sinkFunc(func(ctx context.Context, id string, msg session.InboundMessage) {
		panic(errors.New("Protocol error (Runtime.callFunctionOn): Session closed"))
	}))
	f.emit("s1", wweb.Event{Kind: wweb.EventMessage, Message: &wweb.Message{ID: "m1", From: "111@c.us"}})

	select {
	case code := <-exited:
		t.Fatalf("transient fault must not exit, got code %d", code)
	case <-time.After(100 * time.Millisecond):
	}

	// Anything else is fail-fast.
	m.SetMessageSink(sinkFunc(func(ctx context.Context, id string, msg session.InboundMessage) {
		panic(errors.New("corrupted state"))
	}))
	f.emit("s1", wweb.Event{Kind: wweb.EventMessage, Message: &wweb.Message{ID: "m2", From: "111@c.us"}})

	select {
	case code := <-exited:
		if code != 1 {
			t.Errorf("expected exit code 1, got %d", code)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("unrecognized fault must terminate the process")
	}
}

type sinkFunc func(ctx context.Context, sessionID string, msg session.InboundMessage)

func (f sinkFunc) Handle(ctx context.Context, sessionID string, msg session.InboundMessage) {
	f(ctx, sessionID, msg)
}

func TestReconnectRetriesUntilSessionRemoved(t *testing.T) {
	f := newFakeFactory()
	f.client.connectErr = errors.New("bridge unreachable")
	m := newTestManager(f)
	ctx := context.Background()

	m.CreateSession(ctx, "s1", model.SessionOptions{Reconnect: true})

	waitFor(t, func() bool {
		f.client.mu.Lock()
		defer f.client.mu.Unlock()
		return f.client.connects >= 3
	})

	if err := m.DeleteSession(ctx, "s1"); err != nil {
		t.Fatalf("DeleteSession: %v", err)
	}
}

func TestShutdownClosesAllSessions(t *testing.T) {
	f := newFakeFactory()
	m := newTestManager(f)
	ctx := context.Background()

	for _, id := range []string{"a", "b", "c"} {
		if _, err := m.CreateSession(ctx, id, model.SessionOptions{}); err != nil {
			t.Fatalf("CreateSession %s: %v", id, err)
		}
	}

	m.Shutdown(ctx)

	if got := len(m.ListSessions()); got != 0 {
		t.Errorf("expected empty table after shutdown, got %d", got)
	}
	if f.client.destroyCount() != 3 {
		t.Errorf("expected 3 destroys, got %d", f.client.destroyCount())
	}
}
