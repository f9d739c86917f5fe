package signal

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"studyhall-backend/internal/middleware"
)

const testSecret = "test-secret-key"

func dial(t *testing.T, server *httptest.Server, email, name string) *websocket.Conn {
	t.Helper()
	auth := middleware.NewJWTAuth(testSecret)
	token, err := auth.GenerateAccessToken(email, name)
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	url := "ws" + strings.TrimPrefix(server.URL, "http") + "?token=" + token
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readMsg(t *testing.T, conn *websocket.Conn) Message {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		t.Fatalf("unmarshal %q: %v", data, err)
	}
	return msg
}

func sendMsg(t *testing.T, conn *websocket.Conn, msg Message) {
	t.Helper()
	if err := conn.WriteJSON(msg); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func TestHubRejectsMissingToken(t *testing.T) {
	hub := NewHub(testSecret)
	server := httptest.NewServer(hub)
	defer server.Close()

	url := "ws" + strings.TrimPrefix(server.URL, "http")
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if err == nil {
		t.Fatal("expected the dial to be rejected")
	}
	if resp == nil || resp.StatusCode != 401 {
		t.Fatalf("expected 401, got %v", resp)
	}
}

func TestHubJoinAndRoster(t *testing.T) {
	hub := NewHub(testSecret)
	server := httptest.NewServer(hub)
	defer server.Close()

	alice := dial(t, server, "alice@library.com", "Alice")
	sendMsg(t, alice, Message{Type: "join", Room: "1"})

	roster := readMsg(t, alice)
	if roster.Type != "roster" || roster.Room != "1" {
		t.Fatalf("expected roster for room 1, got %+v", roster)
	}

	bob := dial(t, server, "bob@library.com", "Bob")
	sendMsg(t, bob, Message{Type: "join", Room: "1"})
	readMsg(t, bob) // bob's roster

	joined := readMsg(t, alice)
	if joined.Type != "peer-joined" || joined.From != "bob@library.com" || joined.FromName != "Bob" {
		t.Fatalf("expected peer-joined from bob, got %+v", joined)
	}

	if got := hub.RoomSize("1"); got != 2 {
		t.Errorf("RoomSize = %d, want 2", got)
	}
}

func TestHubRelaysOfferToTarget(t *testing.T) {
	hub := NewHub(testSecret)
	server := httptest.NewServer(hub)
	defer server.Close()

	alice := dial(t, server, "alice@library.com", "Alice")
	sendMsg(t, alice, Message{Type: "join", Room: "1"})
	readMsg(t, alice)

	bob := dial(t, server, "bob@library.com", "Bob")
	sendMsg(t, bob, Message{Type: "join", Room: "1"})
	readMsg(t, bob)
	readMsg(t, alice) // peer-joined

	payload := json.RawMessage(`{"connectionString":"abc"}`)
	sendMsg(t, alice, Message{Type: "offer", To: "bob@library.com", Payload: payload})

	got := readMsg(t, bob)
	if got.Type != "offer" {
		t.Fatalf("expected offer, got %+v", got)
	}
	if got.From != "alice@library.com" || got.FromName != "Alice" {
		t.Errorf("sender identity not stamped: %+v", got)
	}
	if string(got.Payload) != string(payload) {
		t.Errorf("payload = %s, want %s", got.Payload, payload)
	}
}

func TestHubRejectsUnknownTarget(t *testing.T) {
	hub := NewHub(testSecret)
	server := httptest.NewServer(hub)
	defer server.Close()

	alice := dial(t, server, "alice@library.com", "Alice")
	sendMsg(t, alice, Message{Type: "join", Room: "1"})
	readMsg(t, alice)

	sendMsg(t, alice, Message{Type: "ice", To: "ghost@library.com", Payload: json.RawMessage(`{}`)})
	got := readMsg(t, alice)
	if got.Type != "error" {
		t.Fatalf("expected error, got %+v", got)
	}
}

func TestHubBroadcastsPeerLeft(t *testing.T) {
	hub := NewHub(testSecret)
	server := httptest.NewServer(hub)
	defer server.Close()

	alice := dial(t, server, "alice@library.com", "Alice")
	sendMsg(t, alice, Message{Type: "join", Room: "1"})
	readMsg(t, alice)

	bob := dial(t, server, "bob@library.com", "Bob")
	sendMsg(t, bob, Message{Type: "join", Room: "1"})
	readMsg(t, bob)
	readMsg(t, alice) // peer-joined

	sendMsg(t, bob, Message{Type: "leave"})

	got := readMsg(t, alice)
	if got.Type != "peer-left" || got.From != "bob@library.com" {
		t.Fatalf("expected peer-left from bob, got %+v", got)
	}
	if got := hub.RoomSize("1"); got != 1 {
		t.Errorf("RoomSize = %d, want 1", got)
	}
}

func TestHubBroadcastToRoomSkips(t *testing.T) {
	hub := NewHub(testSecret)
	server := httptest.NewServer(hub)
	defer server.Close()

	alice := dial(t, server, "alice@library.com", "Alice")
	sendMsg(t, alice, Message{Type: "join", Room: "1"})
	readMsg(t, alice)

	bob := dial(t, server, "bob@library.com", "Bob")
	sendMsg(t, bob, Message{Type: "join", Room: "1"})
	readMsg(t, bob)
	readMsg(t, alice)

	hub.BroadcastToRoom("1", Message{Type: "timer", Payload: json.RawMessage(`{"event":"halfway"}`)}, "alice@library.com")

	got := readMsg(t, bob)
	if got.Type != "timer" {
		t.Fatalf("expected timer event, got %+v", got)
	}

	// Alice was skipped; her next read should time out.
	alice.SetReadDeadline(time.Now().Add(300 * time.Millisecond))
	if _, _, err := alice.ReadMessage(); err == nil {
		t.Error("alice should not have received the broadcast")
	}
}
