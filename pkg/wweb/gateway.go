package wweb

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// ErrClientClosed is returned for calls made after Destroy or after the
// gateway connection dropped.
var ErrClientClosed = errors.New("wweb: client closed")

const commandTimeout = 30 * time.Second

// Gateway creates clients backed by a WhatsApp Web bridge process. Each
// client holds one websocket to the bridge; commands are JSON frames with a
// correlation id, events arrive as unsolicited frames on the same socket.
type Gateway struct {
	baseURL string
	dialer  *websocket.Dialer
}

// NewGateway creates a factory for the bridge at baseURL
// (e.g. "ws://localhost:8090").
func NewGateway(baseURL string) *Gateway {
	return &Gateway{
		baseURL: baseURL,
		dialer: &websocket.Dialer{
			HandshakeTimeout: 15 * time.Second,
		},
	}
}

// New dials the bridge and returns a client scoped to opts.ClientID.
func (g *Gateway) New(opts Options, handler Handler) (Client, error) {
	if opts.ClientID == "" {
		opts.ClientID = uuid.NewString()
	}

	u, err := url.Parse(g.baseURL + "/ws")
	if err != nil {
		return nil, fmt.Errorf("wweb: invalid gateway url: %w", err)
	}
	q := u.Query()
	q.Set("client_id", opts.ClientID)
	u.RawQuery = q.Encode()

	conn, _, err := g.dialer.Dial(u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("wweb: dial gateway: %w", err)
	}

	c := &gatewayClient{
		conn:    conn,
		opts:    opts,
		handler: handler,
		pending: make(map[string]chan wireFrame),
		done:    make(chan struct{}),
	}
	go c.readLoop()

	return c, nil
}

// wireFrame is the single frame shape exchanged with the bridge. Command
// frames carry ID+Action, replies carry ReplyTo, events carry Event.
type wireFrame struct {
	ID      string   `json:"id,omitempty"`
	Action  string   `json:"action,omitempty"`
	Options *Options `json:"options,omitempty"`
	Target  string   `json:"target,omitempty"`
	Text    string   `json:"text,omitempty"`

	ReplyTo string `json:"reply_to,omitempty"`
	OK      bool   `json:"ok,omitempty"`
	Error   string `json:"error,omitempty"`
	Version string `json:"version,omitempty"`

	Event   EventKind `json:"event,omitempty"`
	QR      string    `json:"qr,omitempty"`
	Percent int       `json:"percent,omitempty"`
	Status  string    `json:"status,omitempty"`
	Reason  string    `json:"reason,omitempty"`
	Message *Message  `json:"message,omitempty"`
}

type gatewayClient struct {
	conn    *websocket.Conn
	opts    Options
	handler Handler

	writeMu sync.Mutex

	mu      sync.Mutex
	pending map[string]chan wireFrame
	closed  bool
	done    chan struct{}
}

func (c *gatewayClient) Connect(ctx context.Context) error {
	opts := c.opts
	_, err := c.command(ctx, wireFrame{Action: "connect", Options: &opts})
	return err
}

func (c *gatewayClient) Send(ctx context.Context, target, text string) error {
	_, err := c.command(ctx, wireFrame{Action: "send", Target: target, Text: text})
	return err
}

func (c *gatewayClient) Logout(ctx context.Context) error {
	_, err := c.command(ctx, wireFrame{Action: "logout"})
	return err
}

func (c *gatewayClient) Destroy(ctx context.Context) error {
	_, err := c.command(ctx, wireFrame{Action: "destroy"})
	c.close()
	return err
}

func (c *gatewayClient) Version(ctx context.Context) (string, error) {
	reply, err := c.command(ctx, wireFrame{Action: "version"})
	if err != nil {
		return "", err
	}
	return reply.Version, nil
}

// command sends one frame and waits for its correlated reply.
func (c *gatewayClient) command(ctx context.Context, frame wireFrame) (wireFrame, error) {
	frame.ID = uuid.NewString()

	replyCh := make(chan wireFrame, 1)
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return wireFrame{}, ErrClientClosed
	}
	c.pending[frame.ID] = replyCh
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		delete(c.pending, frame.ID)
		c.mu.Unlock()
	}()

	c.writeMu.Lock()
	err := c.conn.WriteJSON(frame)
	c.writeMu.Unlock()
	if err != nil {
		return wireFrame{}, fmt.Errorf("wweb: write %s: %w", frame.Action, err)
	}

	timer := time.NewTimer(commandTimeout)
	defer timer.Stop()

	select {
	case reply := <-replyCh:
		if !reply.OK {
			return wireFrame{}, fmt.Errorf("wweb: %s failed: %s", frame.Action, reply.Error)
		}
		return reply, nil
	case <-ctx.Done():
		return wireFrame{}, ctx.Err()
	case <-timer.C:
		return wireFrame{}, fmt.Errorf("wweb: %s timed out", frame.Action)
	case <-c.done:
		return wireFrame{}, ErrClientClosed
	}
}

// readLoop dispatches replies to pending commands and events to the handler.
// It exits when the socket closes; outstanding commands fail via done.
func (c *gatewayClient) readLoop() {
	defer c.close()

	for {
		var frame wireFrame
		if err := c.conn.ReadJSON(&frame); err != nil {
			return
		}

		if frame.ReplyTo != "" {
			c.mu.Lock()
			ch, ok := c.pending[frame.ReplyTo]
			c.mu.Unlock()
			if ok {
				ch <- frame
			}
			continue
		}

		if frame.Event != "" && c.handler != nil {
			c.handler(Event{
				Kind:    frame.Event,
				QR:      frame.QR,
				Percent: frame.Percent,
				Status:  frame.Status,
				Reason:  frame.Reason,
				Message: frame.Message,
			})
		}
	}
}

func (c *gatewayClient) close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	close(c.done)
	c.mu.Unlock()

	c.conn.Close()
}
