package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"
	"nhooyr.io/websocket"
)

func wsServer(t *testing.T, ctx context.Context, msgCh chan map[string]any) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, nil)
		if err != nil {
			t.Errorf("accept ws: %v", err)
			return
		}
		defer func() { _ = conn.Close(websocket.StatusNormalClosure, "") }()
		for {
			_, data, err := conn.Read(ctx)
			if err != nil {
				return
			}
			var msg map[string]any
			if err := json.Unmarshal(data, &msg); err != nil {
				continue
			}
			select {
			case msgCh <- msg:
			case <-ctx.Done():
				return
			}
		}
	}))
}

func wsURL(server *httptest.Server) string {
	return "ws" + strings.TrimPrefix(server.URL, "http")
}

func waitFor(t *testing.T, msgCh chan map[string]any, method string) map[string]any {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case msg := <-msgCh:
			if msg["method"] == method {
				return msg
			}
		case <-deadline:
			t.Fatalf("no %s frame received", method)
		}
	}
}

func TestClientSendsPing(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	msgCh := make(chan map[string]any, 16)
	server := wsServer(t, ctx, msgCh)
	defer server.Close()

	client := New(wsURL(server), 10*time.Millisecond, 20*time.Millisecond, zap.NewNop())
	if err := client.Connect(ctx); err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer func() { _ = client.Close() }()

	go func() { _ = client.Run(ctx, nil) }()

	waitFor(t, msgCh, "ping")
}

func TestClientSubscribeUnsubscribe(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	msgCh := make(chan map[string]any, 16)
	server := wsServer(t, ctx, msgCh)
	defer server.Close()

	client := New(wsURL(server), 10*time.Millisecond, time.Minute, zap.NewNop())
	if err := client.Connect(ctx); err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer func() { _ = client.Close() }()

	sub := map[string]any{"type": "accountUpdates", "user": "0xacct"}
	if err := client.Subscribe(ctx, sub); err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	frame := waitFor(t, msgCh, "subscribe")
	payload, ok := frame["subscription"].(map[string]any)
	if !ok || payload["type"] != "accountUpdates" {
		t.Fatalf("unexpected subscribe frame: %v", frame)
	}

	if err := client.Unsubscribe(ctx, sub); err != nil {
		t.Fatalf("unsubscribe: %v", err)
	}
	waitFor(t, msgCh, "unsubscribe")

	client.mu.Lock()
	remaining := len(client.subs)
	client.mu.Unlock()
	if remaining != 0 {
		t.Fatalf("tracked subscriptions = %d, want 0", remaining)
	}
}

func TestUnsubscribeDropsTrackingOnSendFailure(t *testing.T) {
	client := New("ws://unused", 10*time.Millisecond, time.Minute, zap.NewNop())
	sub := map[string]any{"type": "venueState"}
	client.mu.Lock()
	client.subs = append(client.subs, sub)
	client.mu.Unlock()

	if err := client.Unsubscribe(context.Background(), sub); err == nil {
		t.Fatal("expected error without a connection")
	}
	client.mu.Lock()
	remaining := len(client.subs)
	client.mu.Unlock()
	if remaining != 0 {
		t.Fatal("failed unsubscribe must still drop the local entry")
	}
}

func TestRunEndsAfterClose(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	msgCh := make(chan map[string]any, 16)
	server := wsServer(t, ctx, msgCh)
	defer server.Close()

	client := New(wsURL(server), 10*time.Millisecond, time.Minute, zap.NewNop())
	if err := client.Connect(ctx); err != nil {
		t.Fatalf("connect: %v", err)
	}

	done := make(chan error, 1)
	go func() { done <- client.Run(ctx, nil) }()

	time.Sleep(20 * time.Millisecond)
	if err := client.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("run returned %v after close, want nil", err)
		}
	case <-time.After(time.Second):
		t.Fatal("run did not end after close")
	}

	if err := client.Connect(ctx); err == nil {
		t.Fatal("closed client must refuse to reconnect")
	}
}
