// Huddle - Professional Networking and Booking Platform
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/huddle

package realtime

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"

	"github.com/tomtom215/huddle/internal/auth"
	"github.com/tomtom215/huddle/internal/config"
	"github.com/tomtom215/huddle/internal/models"
)

// wireEvent mirrors the outbound frame as a client decodes it.
type wireEvent struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

type liveStack struct {
	server *httptest.Server
	jwt    *auth.JWTManager
}

// setupLiveStack runs a real hub behind an httptest server with JWT
// authentication and two registered users.
func setupLiveStack(t *testing.T) *liveStack {
	t.Helper()

	security := &config.SecurityConfig{
		JWTSecret:      "integration-test-secret-0123456789ab",
		SessionTimeout: time.Hour,
		CORSOrigins:    []string{"*"},
	}
	jwtManager, err := auth.NewJWTManager(security)
	if err != nil {
		t.Fatalf("failed to create JWT manager: %v", err)
	}

	users := activeUsers(
		&models.User{ID: "alice", Name: "Alice", Role: models.RoleMember, Active: true},
		&models.User{ID: "bob", Name: "Bob", Role: models.RoleMember, Active: true},
	)

	hub := NewHub(testRealtimeConfig(), &fakeMessageStore{}, &fakeNotificationStore{unread: 1})
	ctx, cancel := context.WithCancel(context.Background())
	go func() { _ = hub.RunWithContext(ctx) }()

	handler := NewConnectionHandler(hub, NewGate(jwtManager, users), security)
	server := httptest.NewServer(handler)
	t.Cleanup(func() {
		server.Close()
		cancel()
	})

	return &liveStack{server: server, jwt: jwtManager}
}

// dial opens an authenticated client connection for the given user.
func (ls *liveStack) dial(t *testing.T, userID string) *websocket.Conn {
	t.Helper()

	token, err := ls.jwt.GenerateToken(userID, userID, models.RoleMember)
	if err != nil {
		t.Fatalf("failed to generate token: %v", err)
	}

	url := "ws" + strings.TrimPrefix(ls.server.URL, "http") + "?token=" + token
	header := http.Header{"Origin": []string{"http://app.example.com"}}
	conn, resp, err := websocket.DefaultDialer.Dial(url, header)
	if err != nil {
		t.Fatalf("dial failed for %s: %v (resp: %+v)", userID, err, resp)
	}
	if resp != nil {
		_ = resp.Body.Close()
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

// awaitEvent reads frames until one with the wanted name arrives,
// discarding unrelated events in between.
func awaitEvent(t *testing.T, conn *websocket.Conn, name string) wireEvent {
	t.Helper()

	deadline := time.Now().Add(3 * time.Second)
	if err := conn.SetReadDeadline(deadline); err != nil {
		t.Fatalf("failed to set read deadline: %v", err)
	}

	for {
		var ev wireEvent
		if err := conn.ReadJSON(&ev); err != nil {
			t.Fatalf("did not receive %q in time: %v", name, err)
		}
		if ev.Event == name {
			return ev
		}
	}
}

func decodeData(t *testing.T, ev wireEvent, out interface{}) {
	t.Helper()
	if err := json.Unmarshal(ev.Data, out); err != nil {
		t.Fatalf("failed to decode %s payload: %v", ev.Event, err)
	}
}

func sendEvent(t *testing.T, conn *websocket.Conn, event string, payload interface{}) {
	t.Helper()
	data, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("failed to marshal payload: %v", err)
	}
	if err := conn.WriteJSON(Envelope{Event: event, Data: data}); err != nil {
		t.Fatalf("failed to send %s: %v", event, err)
	}
}

func TestLiveConnectRejectedWithoutToken(t *testing.T) {
	ls := setupLiveStack(t)

	url := "ws" + strings.TrimPrefix(ls.server.URL, "http")
	header := http.Header{"Origin": []string{"http://app.example.com"}}
	_, resp, err := websocket.DefaultDialer.Dial(url, header)
	if err == nil {
		t.Fatal("dial without token should fail")
	}
	if resp == nil || resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected 401, got %+v", resp)
	}
	if resp != nil {
		_ = resp.Body.Close()
	}
}

func TestLiveConnectRejectedWithBadToken(t *testing.T) {
	ls := setupLiveStack(t)

	url := "ws" + strings.TrimPrefix(ls.server.URL, "http") + "?token=not-a-jwt"
	header := http.Header{"Origin": []string{"http://app.example.com"}}
	_, resp, err := websocket.DefaultDialer.Dial(url, header)
	if err == nil {
		t.Fatal("dial with a bad token should fail")
	}
	if resp == nil || resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected 401, got %+v", resp)
	}
	if resp != nil {
		_ = resp.Body.Close()
	}
}

func TestLiveChatScenario(t *testing.T) {
	ls := setupLiveStack(t)

	// Alice connects first and is alone in her initial set.
	alice := ls.dial(t, "alice")
	var set OnlineSetPayload
	decodeData(t, awaitEvent(t, alice, EventUsersOnline), &set)
	if len(set.UserIDs) != 1 || set.UserIDs[0] != "alice" {
		t.Fatalf("alice's initial online set = %v", set.UserIDs)
	}

	// Bob connects; alice sees the transition, bob's set includes alice.
	bob := ls.dial(t, "bob")

	var transition PresencePayload
	decodeData(t, awaitEvent(t, alice, EventUserOnline), &transition)
	if transition.UserID != "bob" {
		t.Errorf("alice saw %q come online, want bob", transition.UserID)
	}
	decodeData(t, awaitEvent(t, alice, EventUsersOnline), &set)
	if len(set.UserIDs) != 2 {
		t.Errorf("alice's refreshed set = %v, want both users", set.UserIDs)
	}

	decodeData(t, awaitEvent(t, bob, EventUsersOnline), &set)
	if len(set.UserIDs) != 2 {
		t.Errorf("bob's connect-time set = %v, want both users", set.UserIDs)
	}

	// Alice messages bob.
	sendEvent(t, alice, EventMessageSend, SendMessagePayload{ReceiverID: "bob", Content: "hi"})

	var received MessageReceivedPayload
	decodeData(t, awaitEvent(t, bob, EventMessageReceived), &received)
	if received.Message.Content != "hi" || received.Message.SenderID != "alice" {
		t.Errorf("bob received %+v", received.Message)
	}

	var ack DeliveredPayload
	decodeData(t, awaitEvent(t, alice, EventMessageDelivered), &ack)
	if ack.MessageID != received.Message.ID {
		t.Errorf("ack references %q, message was %q", ack.MessageID, received.Message.ID)
	}

	// Bob disconnects; alice sees offline and a shrunken set.
	_ = bob.Close()

	decodeData(t, awaitEvent(t, alice, EventUserOffline), &transition)
	if transition.UserID != "bob" {
		t.Errorf("alice saw %q go offline, want bob", transition.UserID)
	}
	decodeData(t, awaitEvent(t, alice, EventUsersOnline), &set)
	if len(set.UserIDs) != 1 || set.UserIDs[0] != "alice" {
		t.Errorf("final online set = %v, want [alice]", set.UserIDs)
	}
}

func TestLiveMalformedEventAnswersSenderOnly(t *testing.T) {
	ls := setupLiveStack(t)

	alice := ls.dial(t, "alice")
	awaitEvent(t, alice, EventUsersOnline)
	bob := ls.dial(t, "bob")
	awaitEvent(t, bob, EventUsersOnline)
	awaitEvent(t, alice, EventUsersOnline)

	sendEvent(t, alice, EventMessageSend, map[string]string{"receiver_id": "bob"})

	var errPayload ErrorPayload
	decodeData(t, awaitEvent(t, alice, EventError), &errPayload)
	if errPayload.Event != EventMessageSend {
		t.Errorf("error references %q, want %q", errPayload.Event, EventMessageSend)
	}

	// Bob must see nothing from the malformed send.
	if err := bob.SetReadDeadline(time.Now().Add(300 * time.Millisecond)); err != nil {
		t.Fatalf("failed to set read deadline: %v", err)
	}
	var ev wireEvent
	if err := bob.ReadJSON(&ev); err == nil {
		t.Errorf("bob unexpectedly received %q", ev.Event)
	}
}
