package manager

import (
	"context"
	"os"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"zapnode/internal/model"
	"zapnode/internal/session"
	"zapnode/internal/storage"
	"zapnode/pkg/log"
	"zapnode/pkg/wweb"
)

const (
	defaultCleanupDelay     = 5 * time.Second
	defaultDestroyTimeout   = 10 * time.Second
	defaultReconnectBackoff = 10 * time.Second
	defaultLogoutTimeout    = 5 * time.Second

	// Outbound sends per session are throttled to stay under WhatsApp's
	// anti-spam radar.
	defaultSendInterval = time.Second
	defaultSendBurst    = 3
)

// Config wires the manager's collaborators and tuning knobs. Zero durations
// fall back to defaults.
type Config struct {
	Logger  log.Logger
	Factory wweb.Factory

	// Store receives best-effort session status writes; may be nil.
	Store storage.Store

	// AutoCleanupOnLogout tears a session down after a LOGOUT disconnect,
	// deferred by CleanupDelay so in-flight operations can drain.
	AutoCleanupOnLogout bool
	CleanupDelay        time.Duration

	DestroyTimeout   time.Duration
	ReconnectBackoff time.Duration

	SendInterval time.Duration
	SendBurst    int

	// WelcomeMessage, when non-empty, is sent to WelcomeTo once a session
	// becomes ready.
	WelcomeMessage string
	WelcomeTo      string

	// OnSessionRemoved is called after a session leaves the table, e.g. to
	// drop its conversation memory. May be nil.
	OnSessionRemoved func(sessionID string)

	// Exit is the fail-fast hook for unrecognized async transport faults.
	// Defaults to os.Exit.
	Exit func(code int)
}

type managed struct {
	id        string
	client    wweb.Client
	state     model.SessionState
	createdAt time.Time
	readyAt   *time.Time
	lastSeen  *time.Time
	opts      model.SessionOptions
	limiter   *rate.Limiter
	cancel    context.CancelFunc
	torndown  bool
}

// Manager owns the session table. The table is the single shared mutable
// resource; every read and write of a session's state goes through mu.
type Manager struct {
	l       log.Logger
	factory wweb.Factory
	store   storage.Store
	cfg     Config

	mu       sync.Mutex
	sessions map[string]*managed

	sinkMu sync.RWMutex
	sink   session.MessageSink
}

var _ session.Manager = (*Manager)(nil)

func New(cfg Config) *Manager {
	if cfg.Logger == nil {
		cfg.Logger = log.NewNop()
	}
	if cfg.CleanupDelay <= 0 {
		cfg.CleanupDelay = defaultCleanupDelay
	}
	if cfg.DestroyTimeout <= 0 {
		cfg.DestroyTimeout = defaultDestroyTimeout
	}
	if cfg.ReconnectBackoff <= 0 {
		cfg.ReconnectBackoff = defaultReconnectBackoff
	}
	if cfg.SendInterval <= 0 {
		cfg.SendInterval = defaultSendInterval
	}
	if cfg.SendBurst <= 0 {
		cfg.SendBurst = defaultSendBurst
	}
	if cfg.Exit == nil {
		cfg.Exit = os.Exit
	}

	return &Manager{
		l:        cfg.Logger,
		factory:  cfg.Factory,
		store:    cfg.Store,
		cfg:      cfg,
		sessions: make(map[string]*managed),
	}
}

// SetMessageSink installs the inbound message consumer. Called once during
// wiring, before any session is created.
func (m *Manager) SetMessageSink(sink session.MessageSink) {
	m.sinkMu.Lock()
	m.sink = sink
	m.sinkMu.Unlock()
}

// CreateSession implements session.Manager. The table insert happens before
// the transport connect starts; the insert itself is the exclusivity check,
// so two concurrent creates for one id cannot both pass.
func (m *Manager) CreateSession(ctx context.Context, id string, opts model.SessionOptions) (model.SessionInfo, error) {
	s := &managed{
		id:        id,
		state:     model.StateCreated,
		createdAt: time.Now(),
		opts:      opts,
		limiter:   rate.NewLimiter(rate.Every(m.cfg.SendInterval), m.cfg.SendBurst),
	}

	m.mu.Lock()
	if _, exists := m.sessions[id]; exists {
		m.mu.Unlock()
		return model.SessionInfo{}, session.ErrDuplicateSession
	}
	m.sessions[id] = s
	m.mu.Unlock()

	client, err := m.factory.New(wweb.Options{
		ClientID:   id,
		Headless:   opts.Headless,
		ChromePath: opts.ChromePath,
	}, func(ev wweb.Event) { m.dispatch(id, ev) })
	if err != nil {
		m.mu.Lock()
		delete(m.sessions, id)
		m.mu.Unlock()
		return model.SessionInfo{}, err
	}

	connectCtx, cancel := context.WithCancel(context.Background())

	m.mu.Lock()
	s.client = client
	s.cancel = cancel
	info := snapshot(s)
	m.mu.Unlock()

	if m.store != nil {
		err := m.store.UpsertSession(ctx, id, storage.SessionRecord{
			Status:  storage.StatusDisconnected,
			Options: &opts,
		})
		if err != nil {
			m.l.Warnf(ctx, "manager.CreateSession: persist session %s: %v", id, err)
		}
	}

	m.l.Infof(ctx, "manager.CreateSession: session %s created, connecting", id)
	go m.runConnect(connectCtx, id, client, opts.Reconnect)

	return info, nil
}

// runConnect starts the transport. With reconnect enabled a connect failure
// is retried forever on a fixed backoff; otherwise the error is logged once
// and the session stays in the table awaiting an explicit delete.
func (m *Manager) runConnect(ctx context.Context, id string, client wweb.Client, reconnect bool) {
	for {
		err := client.Connect(ctx)
		if err == nil {
			return
		}
		m.l.Errorf(ctx, "manager.runConnect: session %s connect failed: %v", id, err)

		if !reconnect {
			return
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(m.cfg.ReconnectBackoff):
		}

		m.mu.Lock()
		_, alive := m.sessions[id]
		m.mu.Unlock()
		if !alive {
			return
		}
		m.l.Infof(ctx, "manager.runConnect: retrying session %s", id)
	}
}

// dispatch routes one transport event into the state machine and the message
// pipeline. Panics raised by downstream handlers are contained here: known
// transient transport faults are suppressed, anything else terminates the
// process rather than run in a corrupted state.
func (m *Manager) dispatch(id string, ev wweb.Event) {
	ctx := context.Background()
	defer func() {
		if r := recover(); r != nil {
			m.containPanic(ctx, id, r)
		}
	}()

	switch ev.Kind {
	case wweb.EventQR:
		m.l.Infof(ctx, "manager.dispatch: session %s QR received, scan to authenticate", id)
		m.apply(ctx, id, session.EventQRReceived)

	case wweb.EventAuthenticated:
		m.l.Infof(ctx, "manager.dispatch: session %s authenticated", id)

	case wweb.EventLoading:
		m.l.Debugf(ctx, "manager.dispatch: session %s loading %d%% (%s)", id, ev.Percent, ev.Status)

	case wweb.EventReady:
		m.onReady(ctx, id)

	case wweb.EventAuthFailure:
		m.l.Errorf(ctx, "manager.dispatch: session %s auth failure: %s", id, ev.Reason)
		m.apply(ctx, id, session.EventAuthFailure)
		m.persistStatus(ctx, id, storage.StatusDisconnected)

	case wweb.EventDisconnected:
		m.onDisconnected(ctx, id, ev.Reason)

	case wweb.EventMessage:
		m.onMessage(ctx, id, ev.Message)

	case wweb.EventRemoteSessionSaved:
		m.l.Debugf(ctx, "manager.dispatch: session %s saved remotely", id)

	default:
		m.l.Debugf(ctx, "manager.dispatch: session %s unknown event %q", id, ev.Kind)
	}
}

func (m *Manager) containPanic(ctx context.Context, id string, r any) {
	text := strings.ToLower(strings.TrimSpace(anyToString(r)))
	if strings.Contains(text, "session closed") || strings.Contains(text, "protocol error") {
		m.l.Warnf(ctx, "manager.dispatch: session %s transient transport fault suppressed: %v", id, r)
		return
	}
	m.l.Errorf(ctx, "manager.dispatch: session %s unrecoverable fault: %v", id, r)
	m.cfg.Exit(1)
}

func anyToString(r any) string {
	switch v := r.(type) {
	case string:
		return v
	case error:
		return v.Error()
	default:
		return ""
	}
}

func (m *Manager) onReady(ctx context.Context, id string) {
	now := time.Now()

	m.mu.Lock()
	s, ok := m.sessions[id]
	if ok {
		if next, valid := session.Next(s.state, session.EventReady); valid {
			s.state = next
		}
		s.readyAt = &now
		s.lastSeen = &now
	}
	var client wweb.Client
	if ok {
		client = s.client
	}
	m.mu.Unlock()
	if !ok {
		return
	}

	m.l.Infof(ctx, "manager.onReady: session %s is ready", id)
	m.persistStatus(ctx, id, storage.StatusConnected)

	go m.recordVersion(ctx, id, client)

	if m.cfg.WelcomeMessage != "" && m.cfg.WelcomeTo != "" {
		go func() {
			if err := m.Send(context.Background(), id, m.cfg.WelcomeTo, m.cfg.WelcomeMessage); err != nil {
				m.l.Warnf(ctx, "manager.onReady: welcome message for %s: %v", id, err)
			}
		}()
	}
}

func (m *Manager) recordVersion(ctx context.Context, id string, client wweb.Client) {
	if m.store == nil || client == nil {
		return
	}
	version, err := client.Version(ctx)
	if err != nil {
		m.l.Debugf(ctx, "manager.recordVersion: session %s: %v", id, err)
		return
	}
	err = m.store.UpsertSession(ctx, id, storage.SessionRecord{
		Status:          storage.StatusConnected,
		WhatsAppVersion: version,
	})
	if err != nil {
		m.l.Warnf(ctx, "manager.recordVersion: session %s: %v", id, err)
	}
}

func (m *Manager) onDisconnected(ctx context.Context, id, reason string) {
	m.l.Warnf(ctx, "manager.onDisconnected: session %s disconnected: %s", id, reason)
	m.apply(ctx, id, session.EventDisconnected)
	m.persistStatus(ctx, id, storage.StatusDisconnected)

	if reason != wweb.DisconnectReasonLogout || !m.cfg.AutoCleanupOnLogout {
		return
	}

	m.apply(ctx, id, session.EventLogoutDetected)
	m.l.Infof(ctx, "manager.onDisconnected: session %s logged out, cleanup in %s", id, m.cfg.CleanupDelay)

	// Deferred so in-flight operations drain before teardown begins.
	time.AfterFunc(m.cfg.CleanupDelay, func() {
		if err := m.cleanupSession(context.Background(), id); err != nil {
			m.l.Errorf(ctx, "manager.onDisconnected: cleanup session %s: %v", id, err)
		}
	})
}

func (m *Manager) onMessage(ctx context.Context, id string, msg *wweb.Message) {
	if msg == nil {
		return
	}

	now := time.Now()
	m.mu.Lock()
	if s, ok := m.sessions[id]; ok {
		s.lastSeen = &now
	}
	m.mu.Unlock()

	m.sinkMu.RLock()
	sink := m.sink
	m.sinkMu.RUnlock()
	if sink == nil {
		return
	}

	// Handled off the event loop so one slow message (AI completion) does
	// not stall the session's other events.
	go func() {
		defer func() {
			if r := recover(); r != nil {
				m.containPanic(ctx, id, r)
			}
		}()
		sink.Handle(ctx, id, session.InboundMessage{
			ID:          msg.ID,
			From:        msg.From,
			To:          msg.To,
			Body:        msg.Body,
			MessageType: msg.Type,
			Timestamp:   msg.Timestamp,
			HasMedia:    msg.HasMedia,
			IsForwarded: msg.IsForwarded,
			IsStatus:    msg.IsStatus,
		})
	}()
}

// apply runs one event through the state machine. An invalid event for the
// current state is a logged no-op, never a fault.
func (m *Manager) apply(ctx context.Context, id string, ev session.Event) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[id]
	if !ok {
		return
	}
	next, valid := session.Next(s.state, ev)
	if !valid {
		m.l.Debugf(ctx, "manager.apply: session %s ignoring %s in state %s", id, ev, s.state)
		return
	}
	m.l.Debugf(ctx, "manager.apply: session %s %s -> %s on %s", id, s.state, next, ev)
	s.state = next
}

func (m *Manager) persistStatus(ctx context.Context, id, status string) {
	if m.store == nil {
		return
	}
	if err := m.store.UpdateSessionStatus(ctx, id, status); err != nil {
		m.l.Warnf(ctx, "manager.persistStatus: session %s: %v", id, err)
	}
}

// GetSessionInfo implements session.Manager.
func (m *Manager) GetSessionInfo(id string) (model.SessionInfo, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[id]
	if !ok {
		return model.SessionInfo{}, false
	}
	return snapshot(s), true
}

// ListSessions implements session.Manager.
func (m *Manager) ListSessions() []model.SessionInfo {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]model.SessionInfo, 0, len(m.sessions))
	for _, s := range m.sessions {
		out = append(out, snapshot(s))
	}
	return out
}

// IsReady implements session.Manager.
func (m *Manager) IsReady(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[id]
	return ok && s.state == model.StateReady
}

// Send implements session.Manager. Sends are permitted only in the Ready
// state and are never retried; transport failures surface as *SendError.
func (m *Manager) Send(ctx context.Context, id, target, text string) error {
	m.mu.Lock()
	s, ok := m.sessions[id]
	if !ok {
		m.mu.Unlock()
		return session.ErrSessionNotFound
	}
	if s.state != model.StateReady {
		m.mu.Unlock()
		return session.ErrNotReady
	}
	client, limiter := s.client, s.limiter
	m.mu.Unlock()

	if err := limiter.Wait(ctx); err != nil {
		return err
	}

	if err := client.Send(ctx, target, text); err != nil {
		return &session.SendError{SessionID: id, Target: target, Err: err}
	}

	now := time.Now()
	m.mu.Lock()
	if s, ok := m.sessions[id]; ok {
		s.lastSeen = &now
	}
	m.mu.Unlock()
	return nil
}

// DeleteSession implements session.Manager. Logout is best effort; teardown
// proceeds regardless of its outcome.
func (m *Manager) DeleteSession(ctx context.Context, id string) error {
	m.mu.Lock()
	s, ok := m.sessions[id]
	if !ok {
		m.mu.Unlock()
		return session.ErrSessionNotFound
	}
	if next, valid := session.Next(s.state, session.EventDelete); valid {
		s.state = next
	}
	client := s.client
	m.mu.Unlock()

	if client != nil {
		logoutCtx, cancel := context.WithTimeout(ctx, defaultLogoutTimeout)
		if err := client.Logout(logoutCtx); err != nil {
			m.l.Warnf(ctx, "manager.DeleteSession: session %s logout: %v", id, err)
		}
		cancel()
	}

	return m.cleanupSession(ctx, id)
}

// cleanupSession is the teardown protocol: idempotent, bounded, and the id
// always leaves the table exactly once even when the transport misbehaves.
func (m *Manager) cleanupSession(ctx context.Context, id string) error {
	m.mu.Lock()
	s, ok := m.sessions[id]
	if !ok || s.torndown {
		m.mu.Unlock()
		return nil
	}
	s.torndown = true
	if next, valid := session.Next(s.state, session.EventDelete); valid {
		s.state = next
	}
	client, cancel := s.client, s.cancel
	m.mu.Unlock()

	m.l.Infof(ctx, "manager.cleanupSession: tearing down session %s", id)

	if cancel != nil {
		cancel()
	}

	if client != nil {
		if err := m.destroyBounded(ctx, client); err != nil {
			m.l.Warnf(ctx, "manager.cleanupSession: session %s destroy: %v", id, err)
		}
	}

	m.mu.Lock()
	if next, valid := session.Next(s.state, session.EventTeardownComplete); valid {
		s.state = next
	}
	delete(m.sessions, id)
	m.mu.Unlock()

	m.persistStatus(ctx, id, storage.StatusDisconnected)
	if m.cfg.OnSessionRemoved != nil {
		m.cfg.OnSessionRemoved(id)
	}
	m.l.Infof(ctx, "manager.cleanupSession: session %s removed", id)
	return nil
}

// destroyBounded invokes the transport destroy with a hard deadline; an
// unresponsive transport must not block teardown forever.
func (m *Manager) destroyBounded(ctx context.Context, client wweb.Client) error {
	destroyCtx, cancel := context.WithTimeout(context.Background(), m.cfg.DestroyTimeout)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- client.Destroy(destroyCtx) }()

	select {
	case err := <-done:
		return err
	case <-destroyCtx.Done():
		return session.ErrTeardownTimeout
	}
}

// Shutdown implements session.Manager; it tears every session down in
// parallel and waits for all of them.
func (m *Manager) Shutdown(ctx context.Context) {
	m.mu.Lock()
	ids := make([]string, 0, len(m.sessions))
	for id := range m.sessions {
		ids = append(ids, id)
	}
	m.mu.Unlock()

	m.l.Infof(ctx, "manager.Shutdown: closing %d session(s)", len(ids))

	var wg sync.WaitGroup
	for _, id := range ids {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			if err := m.cleanupSession(ctx, id); err != nil {
				m.l.Errorf(ctx, "manager.Shutdown: session %s: %v", id, err)
			}
		}(id)
	}
	wg.Wait()
}

func snapshot(s *managed) model.SessionInfo {
	info := model.SessionInfo{
		ID:        s.id,
		State:     s.state,
		CreatedAt: s.createdAt,
		Options:   s.opts,
	}
	if s.readyAt != nil {
		t := *s.readyAt
		info.ReadyAt = &t
	}
	if s.lastSeen != nil {
		t := *s.lastSeen
		info.LastSeenAt = &t
	}
	return info
}
