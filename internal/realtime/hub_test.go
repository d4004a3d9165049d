// Huddle - Professional Networking and Booking Platform
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/huddle

package realtime

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/huddle/internal/config"
	"github.com/tomtom215/huddle/internal/logging"
	"github.com/tomtom215/huddle/internal/models"
)

//nolint:gochecknoinits // init ensures quiet logging for tests
func init() {
	logging.Init(logging.Config{Level: "error", Format: "console", Output: io.Discard})
}

type fakeMessageStore struct {
	mu        sync.Mutex
	created   []*models.Message
	markCount int
	createErr error
	markErr   error
}

func (f *fakeMessageStore) Create(_ context.Context, m *models.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	f.created = append(f.created, m)
	return nil
}

func (f *fakeMessageStore) MarkConversationRead(_ context.Context, _, _ string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.markErr != nil {
		return 0, f.markErr
	}
	return f.markCount, nil
}

type fakeNotificationStore struct {
	mu       sync.Mutex
	created  []*models.Notification
	unread   int
	countErr error
}

func (f *fakeNotificationStore) Create(_ context.Context, n *models.Notification) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.created = append(f.created, n)
	return nil
}

func (f *fakeNotificationStore) CountUnread(_ context.Context, _ string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.countErr != nil {
		return 0, f.countErr
	}
	return f.unread, nil
}

func testRealtimeConfig() *config.RealtimeConfig {
	return &config.RealtimeConfig{
		SendBuffer:       32,
		MaxMessageSize:   64 * 1024,
		WriteWait:        10 * time.Second,
		PongWait:         60 * time.Second,
		HandshakeTimeout: 10 * time.Second,
	}
}

func setupHub(t *testing.T) (*Hub, *fakeMessageStore, *fakeNotificationStore) {
	t.Helper()
	messages := &fakeMessageStore{}
	notifications := &fakeNotificationStore{unread: 1}
	return NewHub(testRealtimeConfig(), messages, notifications), messages, notifications
}

// connect registers a session directly with the hub loop logic and drains
// the connect-time broadcasts so tests start from a quiet queue.
func connect(h *Hub, id, userID string) *Session {
	s := newTestSession(id, userID)
	h.handleRegister(s)
	return s
}

// drainEvents empties a session's queue without blocking.
func drainEvents(s *Session) []Event {
	var events []Event
	for {
		select {
		case ev, ok := <-s.send:
			if !ok {
				return events
			}
			events = append(events, ev)
		default:
			return events
		}
	}
}

func eventsNamed(events []Event, name string) []Event {
	var matched []Event
	for _, ev := range events {
		if ev.Event == name {
			matched = append(matched, ev)
		}
	}
	return matched
}

func rawPayload(t *testing.T, v interface{}) json.RawMessage {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("failed to marshal payload: %v", err)
	}
	return data
}

func TestPresenceConnectBroadcasts(t *testing.T) {
	h, _, _ := setupHub(t)

	alice := connect(h, "s1", "alice")
	events := drainEvents(alice)
	if len(eventsNamed(events, EventUserOnline)) != 0 {
		t.Error("a session must not receive its own online transition")
	}
	sets := eventsNamed(events, EventUsersOnline)
	if len(sets) != 1 {
		t.Fatalf("got %d online-set events, want 1", len(sets))
	}

	bob := connect(h, "s2", "bob")

	aliceEvents := drainEvents(alice)
	transitions := eventsNamed(aliceEvents, EventUserOnline)
	if len(transitions) != 1 {
		t.Fatalf("alice got %d online transitions, want 1", len(transitions))
	}
	if got := transitions[0].Data.(PresencePayload).UserID; got != "bob" {
		t.Errorf("transition user = %q, want bob", got)
	}

	// The full set follows the transition and reflects the new state.
	sets = eventsNamed(aliceEvents, EventUsersOnline)
	if len(sets) != 1 {
		t.Fatalf("alice got %d online-set events, want 1", len(sets))
	}
	ids := sets[0].Data.(OnlineSetPayload).UserIDs
	if len(ids) != 2 || ids[0] != "alice" || ids[1] != "bob" {
		t.Errorf("online set = %v, want [alice bob]", ids)
	}

	// Bob's connect-time set includes alice.
	bobSets := eventsNamed(drainEvents(bob), EventUsersOnline)
	if len(bobSets) != 1 {
		t.Fatalf("bob got %d online-set events, want 1", len(bobSets))
	}
	if ids := bobSets[0].Data.(OnlineSetPayload).UserIDs; len(ids) != 2 {
		t.Errorf("bob's online set = %v, want both users", ids)
	}
}

func TestPresenceNoDuplicateOnlineTransition(t *testing.T) {
	h, _, _ := setupHub(t)

	bob := connect(h, "s1", "bob")
	drainEvents(bob)

	connect(h, "s2", "alice")
	drainEvents(bob)

	// Alice's second device must not re-announce her.
	connect(h, "s3", "alice")
	events := drainEvents(bob)
	if len(eventsNamed(events, EventUserOnline)) != 0 {
		t.Error("second session of an online user must not broadcast a transition")
	}
	if len(eventsNamed(events, EventUsersOnline)) != 1 {
		t.Error("the full set is still broadcast on every registration")
	}
}

func TestPresenceOfflineOnLastSessionOnly(t *testing.T) {
	h, _, _ := setupHub(t)

	a1 := connect(h, "s1", "alice")
	a2 := connect(h, "s2", "alice")
	bob := connect(h, "s3", "bob")
	drainEvents(a1)
	drainEvents(a2)
	drainEvents(bob)

	h.handleUnregister(a1)
	events := drainEvents(bob)
	if len(eventsNamed(events, EventUserOffline)) != 0 {
		t.Error("closing one of two sessions must not announce offline")
	}

	h.handleUnregister(a2)
	events = drainEvents(bob)
	offline := eventsNamed(events, EventUserOffline)
	if len(offline) != 1 {
		t.Fatalf("got %d offline transitions, want 1", len(offline))
	}
	payload := offline[0].Data.(PresencePayload)
	if payload.UserID != "alice" {
		t.Errorf("offline user = %q, want alice", payload.UserID)
	}
	if payload.LastSeen == nil {
		t.Error("offline transition should carry last-seen")
	}

	sets := eventsNamed(events, EventUsersOnline)
	if len(sets) != 1 {
		t.Fatalf("got %d online-set events, want 1", len(sets))
	}
	if ids := sets[0].Data.(OnlineSetPayload).UserIDs; len(ids) != 1 || ids[0] != "bob" {
		t.Errorf("online set after offline = %v, want [bob]", ids)
	}
}

func TestUnregisterUnknownSessionNoop(t *testing.T) {
	h, _, _ := setupHub(t)

	bob := connect(h, "s1", "bob")
	drainEvents(bob)

	h.handleUnregister(newTestSession("ghost", "alice"))
	if events := drainEvents(bob); len(events) != 0 {
		t.Errorf("unknown unregister broadcast %d events, want 0", len(events))
	}
}

func TestSendMessageFanout(t *testing.T) {
	h, messages, notifications := setupHub(t)
	notifications.unread = 4

	alice1 := connect(h, "s1", "alice")
	alice2 := connect(h, "s2", "alice")
	bob1 := connect(h, "s3", "bob")
	bob2 := connect(h, "s4", "bob")
	for _, s := range []*Session{alice1, alice2, bob1, bob2} {
		drainEvents(s)
	}

	h.dispatch(alice1, Envelope{
		Event: EventMessageSend,
		Data:  rawPayload(t, SendMessagePayload{ReceiverID: "bob", Content: "hi"}),
	})

	// Every one of bob's devices gets the message and the notification.
	for _, s := range []*Session{bob1, bob2} {
		events := drainEvents(s)
		received := eventsNamed(events, EventMessageReceived)
		if len(received) != 1 {
			t.Fatalf("%s got %d message events, want 1", s.id, len(received))
		}
		msg := received[0].Data.(MessageReceivedPayload).Message
		if msg.Content != "hi" || msg.SenderID != "alice" {
			t.Errorf("message = %+v", msg)
		}
		notifs := eventsNamed(events, EventNotificationNew)
		if len(notifs) != 1 {
			t.Fatalf("%s got %d notifications, want 1", s.id, len(notifs))
		}
		if got := notifs[0].Data.(NotificationPayload).UnreadCount; got != 4 {
			t.Errorf("unread count = %d, want 4", got)
		}
	}

	// The ack goes to the originating session only.
	acks := eventsNamed(drainEvents(alice1), EventMessageDelivered)
	if len(acks) != 1 {
		t.Fatalf("origin session got %d acks, want 1", len(acks))
	}
	if len(messages.created) != 1 {
		t.Fatalf("store holds %d messages, want 1", len(messages.created))
	}
	if acks[0].Data.(DeliveredPayload).MessageID != messages.created[0].ID {
		t.Error("ack should reference the persisted message")
	}
	if events := drainEvents(alice2); len(events) != 0 {
		t.Errorf("sender's other device got %d events, want 0", len(events))
	}
	if len(notifications.created) != 1 {
		t.Errorf("store holds %d notifications, want 1", len(notifications.created))
	}
}

func TestSendMessageOfflineReceiverStillAcked(t *testing.T) {
	h, messages, _ := setupHub(t)

	alice := connect(h, "s1", "alice")
	drainEvents(alice)

	h.dispatch(alice, Envelope{
		Event: EventMessageSend,
		Data:  rawPayload(t, SendMessagePayload{ReceiverID: "offline-bob", Content: "hello?"}),
	})

	events := drainEvents(alice)
	if len(eventsNamed(events, EventMessageDelivered)) != 1 {
		t.Error("sender should be acked even when the receiver is offline")
	}
	if len(eventsNamed(events, EventError)) != 0 {
		t.Error("an offline receiver is not an error")
	}
	if len(messages.created) != 1 {
		t.Error("the message is still persisted for later retrieval")
	}
}

func TestSendMessageMalformedPayload(t *testing.T) {
	h, messages, _ := setupHub(t)

	alice := connect(h, "s1", "alice")
	bob := connect(h, "s2", "bob")
	drainEvents(alice)
	drainEvents(bob)

	h.dispatch(alice, Envelope{
		Event: EventMessageSend,
		Data:  rawPayload(t, map[string]string{"receiver_id": "bob"}), // no content
	})

	aliceEvents := drainEvents(alice)
	errs := eventsNamed(aliceEvents, EventError)
	if len(errs) != 1 {
		t.Fatalf("sender got %d error events, want exactly 1", len(errs))
	}
	if got := errs[0].Data.(ErrorPayload).Event; got != EventMessageSend {
		t.Errorf("error references event %q, want %q", got, EventMessageSend)
	}
	if len(aliceEvents) != 1 {
		t.Errorf("sender got %d events total, want only the error", len(aliceEvents))
	}
	if events := drainEvents(bob); len(events) != 0 {
		t.Errorf("receiver got %d events from a malformed send, want 0", len(events))
	}
	if len(messages.created) != 0 {
		t.Error("malformed payloads must not mutate state")
	}
}

func TestTypingRelay(t *testing.T) {
	h, _, _ := setupHub(t)

	alice := connect(h, "s1", "alice")
	bob := connect(h, "s2", "bob")
	drainEvents(alice)
	drainEvents(bob)

	h.dispatch(alice, Envelope{
		Event: EventTypingStart,
		Data:  rawPayload(t, TypingPayload{ReceiverID: "bob"}),
	})

	events := drainEvents(bob)
	relays := eventsNamed(events, EventTypingStart)
	if len(relays) != 1 {
		t.Fatalf("bob got %d typing events, want 1", len(relays))
	}
	if got := relays[0].Data.(TypingRelayPayload).SenderID; got != "alice" {
		t.Errorf("typing sender = %q, want alice", got)
	}
	if events := drainEvents(alice); len(events) != 0 {
		t.Errorf("typing is unacknowledged, but sender got %d events", len(events))
	}
}

func TestMessagesReadEmitsReceipt(t *testing.T) {
	h, messages, _ := setupHub(t)
	messages.markCount = 3

	alice := connect(h, "s1", "alice")
	bob := connect(h, "s2", "bob")
	drainEvents(alice)
	drainEvents(bob)

	// Bob reads alice's messages; alice gets the receipt.
	h.dispatch(bob, Envelope{
		Event: EventMessagesRead,
		Data:  rawPayload(t, ReadPayload{SenderID: "alice"}),
	})

	receipts := eventsNamed(drainEvents(alice), EventMessageRead)
	if len(receipts) != 1 {
		t.Fatalf("alice got %d read receipts, want 1", len(receipts))
	}
	payload := receipts[0].Data.(ReadReceiptPayload)
	if payload.ReaderID != "bob" || payload.Count != 3 {
		t.Errorf("receipt = %+v", payload)
	}
}

func TestMessagesReadNothingUnread(t *testing.T) {
	h, messages, _ := setupHub(t)
	messages.markCount = 0

	alice := connect(h, "s1", "alice")
	bob := connect(h, "s2", "bob")
	drainEvents(alice)
	drainEvents(bob)

	h.dispatch(bob, Envelope{
		Event: EventMessagesRead,
		Data:  rawPayload(t, ReadPayload{SenderID: "alice"}),
	})

	if events := drainEvents(alice); len(events) != 0 {
		t.Errorf("no receipt expected when nothing was unread, got %d events", len(events))
	}
}

func TestCallSignalRelayedVerbatim(t *testing.T) {
	h, _, _ := setupHub(t)

	alice := connect(h, "s1", "alice")
	bob := connect(h, "s2", "bob")
	drainEvents(alice)
	drainEvents(bob)

	signal := json.RawMessage(`{"sdp":"v=0 o=- 46117 2"}`)
	h.dispatch(alice, Envelope{
		Event: EventCallOffer,
		Data:  rawPayload(t, CallPayload{PeerID: "bob", Signal: signal}),
	})

	offers := eventsNamed(drainEvents(bob), EventCallOffer)
	if len(offers) != 1 {
		t.Fatalf("bob got %d offers, want 1", len(offers))
	}
	relay := offers[0].Data.(CallRelayPayload)
	if relay.SenderID != "alice" {
		t.Errorf("relay sender = %q, want alice", relay.SenderID)
	}
	if string(relay.Signal) != string(signal) {
		t.Errorf("signal not forwarded verbatim: %s", relay.Signal)
	}
}

func TestTopicJoinAndLeaveViaDispatch(t *testing.T) {
	h, _, _ := setupHub(t)

	alice := connect(h, "s1", "alice")
	drainEvents(alice)

	h.dispatch(alice, Envelope{Event: EventTopicJoin, Data: rawPayload(t, TopicPayload{Topic: "call:9"})})
	if got := h.Router().ResolveTopic("call:9"); len(got) != 1 {
		t.Fatalf("topic members = %d, want 1", len(got))
	}

	h.dispatch(alice, Envelope{Event: EventTopicLeave, Data: rawPayload(t, TopicPayload{Topic: "call:9"})})
	if got := h.Router().ResolveTopic("call:9"); len(got) != 0 {
		t.Errorf("topic members after leave = %d, want 0", len(got))
	}
}

func TestUnknownEventAnswersSenderOnly(t *testing.T) {
	h, _, _ := setupHub(t)

	alice := connect(h, "s1", "alice")
	bob := connect(h, "s2", "bob")
	drainEvents(alice)
	drainEvents(bob)

	h.dispatch(alice, Envelope{Event: "bogus:event"})

	errs := eventsNamed(drainEvents(alice), EventError)
	if len(errs) != 1 {
		t.Fatalf("sender got %d error events, want 1", len(errs))
	}
	if events := drainEvents(bob); len(events) != 0 {
		t.Errorf("bystander got %d events, want 0", len(events))
	}
}

func TestPushToUserOfflineNoop(t *testing.T) {
	h, _, _ := setupHub(t)
	// Must not panic or block with no live sessions.
	h.PushToUser("nobody", EventNotificationNew, NotificationPayload{})
}

func TestNotifyUserRecomputesUnread(t *testing.T) {
	h, _, notifications := setupHub(t)
	notifications.unread = 7

	bob := connect(h, "s1", "bob")
	drainEvents(bob)

	h.NotifyUser(context.Background(), "bob", models.NotificationTypeBookingCreated,
		"New booking", "Alice requested a consultation", map[string]string{"booking_id": "b1"})

	events := eventsNamed(drainEvents(bob), EventNotificationNew)
	if len(events) != 1 {
		t.Fatalf("bob got %d notifications, want 1", len(events))
	}
	payload := events[0].Data.(NotificationPayload)
	if payload.UnreadCount != 7 {
		t.Errorf("unread count = %d, want 7", payload.UnreadCount)
	}
	if payload.Notification.Type != models.NotificationTypeBookingCreated {
		t.Errorf("notification type = %q", payload.Notification.Type)
	}
	if len(notifications.created) != 1 {
		t.Error("notification should be persisted before emission")
	}
}

func TestNotifyUserUnreadCountDegrades(t *testing.T) {
	h, _, notifications := setupHub(t)
	notifications.countErr = context.DeadlineExceeded

	bob := connect(h, "s1", "bob")
	drainEvents(bob)

	h.NotifyUser(context.Background(), "bob", models.NotificationTypeMessage, "x", "y", nil)

	events := eventsNamed(drainEvents(bob), EventNotificationNew)
	if len(events) != 1 {
		t.Fatalf("notification should still be delivered, got %d", len(events))
	}
	if got := events[0].Data.(NotificationPayload).UnreadCount; got != 0 {
		t.Errorf("degraded unread count = %d, want 0", got)
	}
}

func TestRunWithContextShutdown(t *testing.T) {
	h, _, _ := setupHub(t)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- h.RunWithContext(ctx) }()

	s := newTestSession("s1", "alice")
	h.Register <- s

	cancel()
	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("RunWithContext returned %v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("hub did not stop after cancellation")
	}
	if h.Registry().SessionCount() != 0 {
		t.Error("shutdown should close every session")
	}
}
