package websocket

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/tradelink/server/auth"
)

const testSecret = "test-secret"

type fakePresence struct {
	mu     sync.Mutex
	events []string
}

func (f *fakePresence) SetConnected(ctx context.Context, playerID string, connected bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, fmt.Sprintf("%s=%v", playerID, connected))
	return nil
}

func (f *fakePresence) snapshot() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.events...)
}

func newTestServer(t *testing.T, handlers map[string]Handler) (*Server, *httptest.Server, *fakePresence) {
	t.Helper()
	presence := &fakePresence{}
	srv := NewServer(Config{
		Verifier: auth.NewVerifier(testSecret),
		Presence: presence,
		Handlers: handlers,
	})
	ts := httptest.NewServer(http.HandlerFunc(srv.HandleWS))
	t.Cleanup(ts.Close)
	return srv, ts, presence
}

func dial(t *testing.T, ts *httptest.Server, token, playerID string) *websocket.Conn {
	t.Helper()
	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http")
	header := http.Header{}
	if token != "" {
		header.Set("Authorization", "Bearer "+token)
	}
	if playerID != "" {
		header.Set("X-Player-ID", playerID)
	}
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, header)
	if err != nil {
		t.Fatalf("failed to dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func validToken(t *testing.T) string {
	t.Helper()
	token, err := auth.Sign(testSecret, time.Minute)
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}
	return token
}

func readFrame(t *testing.T, conn *websocket.Conn) Frame {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("failed to read frame: %v", err)
	}
	var frame Frame
	if err := json.Unmarshal(data, &frame); err != nil {
		t.Fatalf("failed to unmarshal frame: %v", err)
	}
	return frame
}

func TestHandshakeRejections(t *testing.T) {
	_, ts, _ := newTestServer(t, nil)

	expired, err := auth.Sign(testSecret, -time.Minute)
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}
	wrongKey, err := auth.Sign("some-other-secret", time.Minute)
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}

	tests := []struct {
		name     string
		token    string
		playerID string
		code     string
	}{
		{"missing token", "", "alice", CodeMissingToken},
		{"garbage token", "not-a-jwt", "alice", CodeInvalidToken},
		{"wrong key", wrongKey, "alice", CodeInvalidToken},
		{"expired token", expired, "alice", CodeInvalidToken},
		{"missing player id", validToken(t), "", CodeMissingPlayerID},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conn := dial(t, ts, tt.token, tt.playerID)

			// Exactly one error frame, then the server closes.
			frame := readFrame(t, conn)
			if frame.Event != EventError {
				t.Fatalf("event = %q, want %s", frame.Event, EventError)
			}
			var payload errorPayload
			json.Unmarshal(frame.Data, &payload)
			if payload.Error != tt.code {
				t.Errorf("code = %q, want %s", payload.Error, tt.code)
			}

			conn.SetReadDeadline(time.Now().Add(time.Second))
			if _, _, err := conn.ReadMessage(); err == nil {
				t.Error("connection still open after rejection")
			}
		})
	}
}

func TestHandshakeDuplicatePlayer(t *testing.T) {
	_, ts, _ := newTestServer(t, map[string]Handler{
		"ping": func(ctx context.Context, playerID string, data json.RawMessage) (any, error) {
			return "pong", nil
		},
	})

	first := dial(t, ts, validToken(t), "alice")

	// Wait for the first session to register before racing it.
	first.WriteJSON(Frame{Event: "ping"})
	if frame := readFrame(t, first); frame.Event != "ping" {
		t.Fatalf("first session not serving: got %q", frame.Event)
	}

	second := dial(t, ts, validToken(t), "alice")
	frame := readFrame(t, second)
	if frame.Event != EventError {
		t.Fatalf("second dial event = %q, want %s", frame.Event, EventError)
	}
	var payload errorPayload
	json.Unmarshal(frame.Data, &payload)
	if payload.Error != CodeAlreadyConnected {
		t.Errorf("code = %q, want %s", payload.Error, CodeAlreadyConnected)
	}

	// The existing session is untouched.
	first.WriteJSON(Frame{Event: "ping"})
	if frame := readFrame(t, first); frame.Event != "ping" {
		t.Errorf("original session broken by rejected duplicate: got %q", frame.Event)
	}
}

func TestSessionPresenceLifecycle(t *testing.T) {
	srv, ts, presence := newTestServer(t, nil)

	conn := dial(t, ts, validToken(t), "alice")

	waitFor(t, func() bool { return srv.Registry().Count() == 1 })
	conn.Close()
	waitFor(t, func() bool { return len(presence.snapshot()) == 2 })

	got := presence.snapshot()
	want := []string{"alice=true", "alice=false"}
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Errorf("presence events = %v, want %v", got, want)
	}
}

func TestUnknownEventKeepsConnection(t *testing.T) {
	_, ts, _ := newTestServer(t, map[string]Handler{
		"ping": func(ctx context.Context, playerID string, data json.RawMessage) (any, error) {
			return "pong", nil
		},
	})

	conn := dial(t, ts, validToken(t), "alice")

	// Unknown event and malformed frame are dropped without a reply or a
	// disconnect.
	conn.WriteJSON(Frame{Event: "does_not_exist"})
	conn.WriteMessage(websocket.TextMessage, []byte("not json at all"))

	conn.WriteJSON(Frame{Event: "ping"})
	frame := readFrame(t, conn)
	if frame.Event != "ping" {
		t.Errorf("event after drops = %q, want ping", frame.Event)
	}
	var reply string
	json.Unmarshal(frame.Data, &reply)
	if reply != "pong" {
		t.Errorf("reply = %q, want pong", reply)
	}
}

func TestRoomLifecycleOverWire(t *testing.T) {
	_, ts, _ := newTestServer(t, nil)

	host := dial(t, ts, validToken(t), "host")
	guest := dial(t, ts, validToken(t), "guest")

	host.WriteJSON(Frame{Event: EventCreateRoom})
	created := readFrame(t, host)
	if created.Event != EventRoomCreated {
		t.Fatalf("event = %q, want %s", created.Event, EventRoomCreated)
	}
	var room Room
	json.Unmarshal(created.Data, &room)

	guest.WriteJSON(outFrame{Event: EventJoinRoom, Data: map[string]string{"roomId": room.ID}})
	for name, conn := range map[string]*websocket.Conn{"host": host, "guest": guest} {
		frame := readFrame(t, conn)
		if frame.Event != EventRoomUpdated {
			t.Fatalf("%s got %q, want %s", name, frame.Event, EventRoomUpdated)
		}
		var updated Room
		json.Unmarshal(frame.Data, &updated)
		if len(updated.Members) != 2 {
			t.Errorf("%s saw members %v, want 2", name, updated.Members)
		}
	}

	guest.WriteJSON(Frame{Event: EventLeaveRoom})
	frame := readFrame(t, host)
	if frame.Event != EventRoomUpdated {
		t.Fatalf("host got %q after leave, want %s", frame.Event, EventRoomUpdated)
	}
	var updated Room
	json.Unmarshal(frame.Data, &updated)
	if len(updated.Members) != 1 || updated.Members[0] != "host" {
		t.Errorf("remaining members = %v, want [host]", updated.Members)
	}
}

func TestRateLimitClosesConnection(t *testing.T) {
	presence := &fakePresence{}
	srv := NewServer(Config{
		Verifier:  auth.NewVerifier(testSecret),
		Presence:  presence,
		RateLimit: RateLimitConfig{Enabled: true, MessagesPerSec: 1, Burst: 2},
	})
	ts := httptest.NewServer(http.HandlerFunc(srv.HandleWS))
	t.Cleanup(ts.Close)

	conn := dial(t, ts, validToken(t), "alice")

	for i := 0; i < 10; i++ {
		if err := conn.WriteJSON(Frame{Event: "spam"}); err != nil {
			break
		}
	}

	// The server closes the connection with a policy violation.
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, err := conn.ReadMessage()
	if err == nil {
		t.Fatal("connection survived the flood")
	}
	waitFor(t, func() bool { return srv.Registry().Count() == 0 })
}

// waitFor polls until the condition holds or a second passes.
func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not reached within timeout")
}
