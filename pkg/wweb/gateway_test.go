package wweb_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"zapnode/pkg/wweb"
)

// fakeBridge is a minimal gateway that acks every command and can push events.
type fakeBridge struct {
	upgrader websocket.Upgrader
	conns    chan *websocket.Conn
}

func newFakeBridge() *fakeBridge {
	return &fakeBridge{conns: make(chan *websocket.Conn, 1)}
}

func (b *fakeBridge) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := b.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	b.conns <- conn

	for {
		var frame map[string]any
		if err := conn.ReadJSON(&frame); err != nil {
			return
		}

		reply := map[string]any{"reply_to": frame["id"], "ok": true}
		if frame["action"] == "version" {
			reply["version"] = "2.2412.54"
		}
		if frame["action"] == "send" {
			if target, _ := frame["target"].(string); target == "" {
				reply["ok"] = false
				reply["error"] = "missing target"
			}
		}
		conn.WriteJSON(reply)
	}
}

func startBridge(t *testing.T) (*fakeBridge, string) {
	t.Helper()
	bridge := newFakeBridge()
	ts := httptest.NewServer(bridge)
	t.Cleanup(ts.Close)
	return bridge, "ws" + strings.TrimPrefix(ts.URL, "http")
}

func TestGatewayCommands(t *testing.T) {
	_, url := startBridge(t)

	gw := wweb.NewGateway(url)
	client, err := gw.New(wweb.Options{ClientID: "test"}, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer client.Destroy(context.Background())

	ctx := context.Background()
	if err := client.Connect(ctx); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	if err := client.Send(ctx, "123@c.us", "hello"); err != nil {
		t.Fatalf("Send: %v", err)
	}

	version, err := client.Version(ctx)
	if err != nil {
		t.Fatalf("Version: %v", err)
	}
	if version != "2.2412.54" {
		t.Errorf("unexpected version %q", version)
	}
}

func TestGatewayCommandError(t *testing.T) {
	_, url := startBridge(t)

	gw := wweb.NewGateway(url)
	client, err := gw.New(wweb.Options{ClientID: "test"}, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer client.Destroy(context.Background())

	err = client.Send(context.Background(), "", "hello")
	if err == nil || !strings.Contains(err.Error(), "missing target") {
		t.Errorf("expected bridge error, got %v", err)
	}
}

func TestGatewayEventDispatch(t *testing.T) {
	bridge, url := startBridge(t)

	events := make(chan wweb.Event, 4)
	gw := wweb.NewGateway(url)
	client, err := gw.New(wweb.Options{ClientID: "test"}, func(ev wweb.Event) {
		events <- ev
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer client.Destroy(context.Background())

	conn := <-bridge.conns
	msg, _ := json.Marshal(map[string]any{
		"event": "message",
		"message": map[string]any{
			"id":   "msg-1",
			"from": "123@c.us",
			"body": "hi",
		},
	})
	conn.WriteMessage(websocket.TextMessage, msg)
	conn.WriteJSON(map[string]any{"event": "disconnected", "reason": "LOGOUT"})

	select {
	case ev := <-events:
		if ev.Kind != wweb.EventMessage || ev.Message == nil || ev.Message.Body != "hi" {
			t.Errorf("unexpected first event: %+v", ev)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for message event")
	}

	select {
	case ev := <-events:
		if ev.Kind != wweb.EventDisconnected || ev.Reason != wweb.DisconnectReasonLogout {
			t.Errorf("unexpected second event: %+v", ev)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for disconnect event")
	}
}

func TestClosedClientRejectsCommands(t *testing.T) {
	_, url := startBridge(t)

	gw := wweb.NewGateway(url)
	client, err := gw.New(wweb.Options{ClientID: "test"}, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	client.Destroy(context.Background())

	if err := client.Send(context.Background(), "123@c.us", "hi"); err == nil {
		t.Error("expected error sending on destroyed client")
	}
}
