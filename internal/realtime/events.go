// Huddle - Professional Networking and Booking Platform
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/huddle

package realtime

import (
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/huddle/internal/models"
)

// Inbound event names (client -> server).
const (
	EventMessageSend   = "message:send"
	EventTypingStart   = "typing:start"
	EventTypingStop    = "typing:stop"
	EventMessagesRead  = "messages:read"
	EventCallOffer     = "call:offer"
	EventCallAnswer    = "call:answer"
	EventCallReject    = "call:reject"
	EventCallEnd       = "call:end"
	EventCallCandidate = "call:candidate"
	EventTopicJoin     = "topic:join"
	EventTopicLeave    = "topic:leave"
)

// Outbound event names (server -> client).
const (
	EventMessageReceived  = "message:received"
	EventMessageDelivered = "message:delivered"
	EventMessageRead      = "message:read"
	EventUserOnline       = "user:online"
	EventUserOffline      = "user:offline"
	EventUsersOnline      = "users:online"
	EventNotificationNew  = "notification:new"
	EventError            = "error"
)

// personalChannelPrefix namespaces per-user channels so a topic name can
// never collide with a user identifier.
const personalChannelPrefix = "user:"

// PersonalChannel returns the channel every session of a user is a
// permanent member of.
func PersonalChannel(userID string) string {
	return personalChannelPrefix + userID
}

// Envelope is the inbound wire frame. Data is decoded into the typed
// payload for the named event by the dispatcher.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Event is the outbound wire frame.
type Event struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data,omitempty"`
}

// SendMessagePayload carries a chat message to another user. The sender is
// always the session's authenticated identity, never client-supplied.
type SendMessagePayload struct {
	ReceiverID string `json:"receiver_id" validate:"required"`
	Content    string `json:"content" validate:"required"`
}

// TypingPayload carries an ephemeral typing indicator.
type TypingPayload struct {
	ReceiverID string `json:"receiver_id" validate:"required"`
}

// ReadPayload marks a conversation as read. SenderID identifies whose
// messages the session's user has read.
type ReadPayload struct {
	SenderID string `json:"sender_id" validate:"required"`
}

// CallPayload relays WebRTC signaling to a peer. Signal is opaque to the
// server and forwarded verbatim; SDP and ICE contents are never inspected.
type CallPayload struct {
	PeerID string          `json:"peer_id" validate:"required"`
	Signal json.RawMessage `json:"signal,omitempty"`
}

// TopicPayload joins or leaves an ad-hoc topic channel.
type TopicPayload struct {
	Topic string `json:"topic" validate:"required"`
}

// MessageReceivedPayload is delivered to every live session of a message's
// receiver.
type MessageReceivedPayload struct {
	Message *models.Message `json:"message"`
}

// DeliveredPayload acknowledges a send to the originating session only.
type DeliveredPayload struct {
	MessageID  string    `json:"message_id"`
	ReceiverID string    `json:"receiver_id"`
	CreatedAt  time.Time `json:"created_at"`
}

// ReadReceiptPayload notifies a sender that their conversation was read.
type ReadReceiptPayload struct {
	ReaderID string `json:"reader_id"`
	Count    int    `json:"count"`
}

// TypingRelayPayload is the outbound form of a typing indicator.
type TypingRelayPayload struct {
	SenderID string `json:"sender_id"`
}

// CallRelayPayload is the outbound form of a signaling event.
type CallRelayPayload struct {
	SenderID string          `json:"sender_id"`
	Signal   json.RawMessage `json:"signal,omitempty"`
}

// PresencePayload announces a single user's online/offline transition.
// LastSeen is set on offline transitions only.
type PresencePayload struct {
	UserID   string     `json:"user_id"`
	LastSeen *time.Time `json:"last_seen,omitempty"`
}

// OnlineSetPayload carries the full online-user set. It always reflects
// registry state after the transition event broadcast alongside it.
type OnlineSetPayload struct {
	UserIDs []string `json:"user_ids"`
}

// NotificationPayload wraps a persisted notification together with the
// recipient's unread count, recomputed at emission time.
type NotificationPayload struct {
	Notification *models.Notification `json:"notification"`
	UnreadCount  int                  `json:"unread_count"`
}

// ErrorPayload is emitted to the originating session when its event could
// not be processed. No other session observes the failure.
type ErrorPayload struct {
	Event   string `json:"event"`
	Message string `json:"message"`
}
