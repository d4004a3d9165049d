// Huddle - Professional Networking and Booking Platform
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/huddle

package realtime

import (
	"context"

	"github.com/goccy/go-json"

	"github.com/tomtom215/huddle/internal/logging"
	"github.com/tomtom215/huddle/internal/metrics"
	"github.com/tomtom215/huddle/internal/models"
	"github.com/tomtom215/huddle/internal/validation"
)

// dispatch routes one inbound envelope to its handler. Handlers run on the
// originating session's read goroutine, so events from one session are
// processed strictly in order. A handler failure answers only the
// originating session; it can never disrupt delivery to anyone else.
func (h *Hub) dispatch(s *Session, env Envelope) {
	switch env.Event {
	case EventMessageSend:
		h.handleSendMessage(s, env)
	case EventTypingStart, EventTypingStop:
		h.handleTyping(s, env)
	case EventMessagesRead:
		h.handleMessagesRead(s, env)
	case EventCallOffer, EventCallAnswer, EventCallReject, EventCallEnd, EventCallCandidate:
		h.handleCallSignal(s, env)
	case EventTopicJoin, EventTopicLeave:
		h.handleTopic(s, env)
	default:
		h.rejectEvent(s, env.Event, "unknown event")
	}
}

// decodePayload unmarshals and validates an event payload. On failure it
// answers the originating session with an error event and reports false;
// the handler then returns without touching any state.
func (h *Hub) decodePayload(s *Session, env Envelope, out interface{}) bool {
	if err := json.Unmarshal(env.Data, out); err != nil {
		h.rejectEvent(s, env.Event, "malformed payload")
		return false
	}
	if verr := validation.ValidateStruct(out); verr != nil {
		h.rejectEvent(s, env.Event, verr.Error())
		return false
	}
	return true
}

// rejectEvent emits an error event to the originating session only.
func (h *Hub) rejectEvent(s *Session, event, message string) {
	metrics.RealtimeEvents.WithLabelValues(event, "invalid").Inc()
	s.enqueue(Event{Event: EventError, Data: ErrorPayload{
		Event:   event,
		Message: message,
	}})
}

// handleSendMessage persists a chat message and fans it out. The sender is
// the session's authenticated user, never the payload. The receiver's
// sessions get the message and a preview notification; the delivery
// acknowledgement goes to the originating session only, so the sender's
// other devices do not see a spurious ack.
func (h *Hub) handleSendMessage(s *Session, env Envelope) {
	var payload SendMessagePayload
	if !h.decodePayload(s, env, &payload) {
		return
	}

	msg := models.NewMessage(s.userID, payload.ReceiverID, payload.Content)

	ctx, cancel := context.WithTimeout(context.Background(), storeCallTimeout)
	defer cancel()
	if err := h.messages.Create(ctx, msg); err != nil {
		logging.Error().Err(err).Str("sender_id", s.userID).Msg("failed to persist message")
		h.rejectEvent(s, env.Event, "message could not be stored")
		return
	}
	metrics.RealtimeEvents.WithLabelValues(env.Event, "ok").Inc()

	h.emitTo(h.router.ResolveUser(payload.ReceiverID), Event{
		Event: EventMessageReceived,
		Data:  MessageReceivedPayload{Message: msg},
	})

	h.NotifyUser(ctx, payload.ReceiverID, models.NotificationTypeMessage,
		s.identity.Name, msg.Preview(), map[string]string{"message_id": msg.ID, "sender_id": s.userID})

	// Ack regardless of the receiver being online; best-effort delivery
	// means "stored and fanned out", not "read".
	s.enqueue(Event{Event: EventMessageDelivered, Data: DeliveredPayload{
		MessageID:  msg.ID,
		ReceiverID: msg.ReceiverID,
		CreatedAt:  msg.CreatedAt,
	}})
}

// handleTyping relays an ephemeral typing indicator to the receiver's
// sessions. Nothing is persisted and nothing is acknowledged.
func (h *Hub) handleTyping(s *Session, env Envelope) {
	var payload TypingPayload
	if !h.decodePayload(s, env, &payload) {
		return
	}
	metrics.RealtimeEvents.WithLabelValues(env.Event, "ok").Inc()

	h.emitTo(h.router.ResolveUser(payload.ReceiverID), Event{
		Event: env.Event,
		Data:  TypingRelayPayload{SenderID: s.userID},
	})
}

// handleMessagesRead marks the conversation from the named sender as read
// and emits a read receipt to that sender's sessions. A store failure is
// logged and answered to the reader only.
func (h *Hub) handleMessagesRead(s *Session, env Envelope) {
	var payload ReadPayload
	if !h.decodePayload(s, env, &payload) {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), storeCallTimeout)
	defer cancel()
	count, err := h.messages.MarkConversationRead(ctx, payload.SenderID, s.userID)
	if err != nil {
		logging.Error().Err(err).
			Str("reader_id", s.userID).
			Str("sender_id", payload.SenderID).
			Msg("failed to mark conversation read")
		h.rejectEvent(s, env.Event, "conversation could not be updated")
		return
	}
	metrics.RealtimeEvents.WithLabelValues(env.Event, "ok").Inc()

	if count == 0 {
		return
	}
	h.emitTo(h.router.ResolveUser(payload.SenderID), Event{
		Event: EventMessageRead,
		Data:  ReadReceiptPayload{ReaderID: s.userID, Count: count},
	})
}

// handleCallSignal relays WebRTC signaling verbatim to the peer's
// sessions. The signal body is opaque; only the peer id is validated.
func (h *Hub) handleCallSignal(s *Session, env Envelope) {
	var payload CallPayload
	if !h.decodePayload(s, env, &payload) {
		return
	}
	metrics.RealtimeEvents.WithLabelValues(env.Event, "ok").Inc()

	h.emitTo(h.router.ResolveUser(payload.PeerID), Event{
		Event: env.Event,
		Data:  CallRelayPayload{SenderID: s.userID, Signal: payload.Signal},
	})
}

// handleTopic mutates ad-hoc topic membership. Both directions are
// idempotent, so a client that retries a join after a flaky ack does no
// harm.
func (h *Hub) handleTopic(s *Session, env Envelope) {
	var payload TopicPayload
	if !h.decodePayload(s, env, &payload) {
		return
	}
	metrics.RealtimeEvents.WithLabelValues(env.Event, "ok").Inc()

	if env.Event == EventTopicJoin {
		h.router.JoinTopic(s, payload.Topic)
	} else {
		h.router.LeaveTopic(s, payload.Topic)
	}
}
