// Huddle - Professional Networking and Booking Platform
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/huddle

package realtime

import (
	"context"
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/tomtom215/huddle/internal/config"
	"github.com/tomtom215/huddle/internal/logging"
	"github.com/tomtom215/huddle/internal/metrics"
	"github.com/tomtom215/huddle/internal/models"
)

// ShutdownReason identifies why the hub is shutting down.
type ShutdownReason string

const (
	// ShutdownReasonContextCanceled is the normal graceful shutdown path
	// (e.g., SIGTERM propagated through the supervisor).
	ShutdownReasonContextCanceled ShutdownReason = "context_canceled"

	// ShutdownReasonContextDeadline indicates the context deadline was
	// exceeded, which may point at a hung operation during shutdown.
	ShutdownReasonContextDeadline ShutdownReason = "context_deadline"
)

// storeCallTimeout bounds dispatcher calls into the persistence layer so a
// slow store cannot pin a session's read pump indefinitely.
const storeCallTimeout = 5 * time.Second

// MessageStore is the persistence collaborator for chat messages.
type MessageStore interface {
	Create(ctx context.Context, m *models.Message) error
	MarkConversationRead(ctx context.Context, senderID, readerID string) (int, error)
}

// NotificationStore is the persistence collaborator for notification
// envelopes and unread counts.
type NotificationStore interface {
	Create(ctx context.Context, n *models.Notification) error
	CountUnread(ctx context.Context, userID string) (int, error)
}

// Hub owns the session registry and router and serializes session
// lifecycle changes through its run loop. Emissions themselves happen on
// the caller's goroutine; the registry and router carry their own locks,
// so REST-triggered pushes never wait on the loop.
type Hub struct {
	cfg      *config.RealtimeConfig
	registry *Registry
	router   *Router

	messages      MessageStore
	notifications NotificationStore

	// unreadBreaker guards unread-count recomputation on the push path.
	// When the notification store is struggling, envelopes degrade to an
	// unknown count instead of stalling every live delivery.
	unreadBreaker *gobreaker.CircuitBreaker[int]

	Register   chan *Session
	Unregister chan *Session
}

// NewHub creates a hub with empty registry and router.
func NewHub(cfg *config.RealtimeConfig, messages MessageStore, notifications NotificationStore) *Hub {
	registry := NewRegistry()
	return &Hub{
		cfg:           cfg,
		registry:      registry,
		router:        NewRouter(registry),
		messages:      messages,
		notifications: notifications,
		unreadBreaker: gobreaker.NewCircuitBreaker[int](gobreaker.Settings{
			Name:    "notification-store",
			Timeout: 30 * time.Second,
		}),
		Register:   make(chan *Session),
		Unregister: make(chan *Session),
	}
}

// Registry exposes presence queries to HTTP handlers.
func (h *Hub) Registry() *Registry {
	return h.registry
}

// Router exposes destination resolution to HTTP handlers.
func (h *Hub) Router() *Router {
	return h.router
}

// RunWithContext runs the hub loop until the context is canceled. It is
// designed for suture supervision: on cancellation every live session is
// closed and ctx.Err() is returned, so a restart begins from an empty
// registry.
//
// Lifecycle events are drained ahead of the blocking wait so that when a
// register and an unregister are both pending, they are applied in a
// predictable order before anything else happens.
func (h *Hub) RunWithContext(ctx context.Context) error {
	for {
		// Priority 1: shutdown.
		select {
		case <-ctx.Done():
			h.shutdown(ctx)
			return ctx.Err()
		default:
		}

		// Priority 2: pending lifecycle events, non-blocking.
		select {
		case s := <-h.Register:
			h.handleRegister(s)
			continue
		case s := <-h.Unregister:
			h.handleUnregister(s)
			continue
		default:
		}

		// Priority 3: block until something happens.
		select {
		case <-ctx.Done():
			h.shutdown(ctx)
			return ctx.Err()
		case s := <-h.Register:
			h.handleRegister(s)
		case s := <-h.Unregister:
			h.handleUnregister(s)
		}
	}
}

// handleRegister admits a session: registry insert, presence broadcasts,
// metrics. The personal-channel membership is implicit in the registry, so
// nothing needs to be joined here.
func (h *Hub) handleRegister(s *Session) {
	first := h.registry.Register(s)

	metrics.WebSocketSessions.Set(float64(h.registry.SessionCount()))
	metrics.OnlineUsers.Set(float64(h.registry.OnlineUserCount()))

	logging.Info().
		Str("session_id", s.id).
		Str("user_id", s.userID).
		Bool("first_session", first).
		Int("total_sessions", h.registry.SessionCount()).
		Msg("websocket session connected")

	h.broadcastPresenceConnect(s, first)
}

// handleUnregister removes a session: topic membership, registry entry,
// presence broadcasts, and finally its outbound queue. Duplicate
// unregisters for the same session are no-ops.
func (h *Hub) handleUnregister(s *Session) {
	removed, last := h.registry.Remove(s.id)
	if removed == nil {
		return
	}
	h.router.DropSession(s.id)
	close(s.send)

	metrics.WebSocketSessions.Set(float64(h.registry.SessionCount()))
	metrics.OnlineUsers.Set(float64(h.registry.OnlineUserCount()))

	logging.Info().
		Str("session_id", s.id).
		Str("user_id", s.userID).
		Bool("last_session", last).
		Int("total_sessions", h.registry.SessionCount()).
		Msg("websocket session disconnected")

	h.broadcastPresenceDisconnect(s, last)
}

// shutdown closes every live session and logs the reason. Context
// cancellation is expected behavior, so no error field is logged.
func (h *Hub) shutdown(ctx context.Context) {
	sessions := h.registry.AllSessions()
	for _, s := range sessions {
		if removed, _ := h.registry.Remove(s.id); removed != nil {
			h.router.DropSession(s.id)
			close(s.send)
		}
	}

	metrics.WebSocketSessions.Set(0)
	metrics.OnlineUsers.Set(0)

	reason := ShutdownReasonContextCanceled
	if ctx.Err() == context.DeadlineExceeded {
		reason = ShutdownReasonContextDeadline
	}
	logging.Info().
		Str("component", "realtime-hub").
		Str("reason", string(reason)).
		Int("sessions_closed", len(sessions)).
		Msg("realtime hub stopped")
}

// emitTo fans one event out to a set of sessions. Sessions whose queue is
// full are skipped; the emission to them is dropped, never blocked on.
func (h *Hub) emitTo(sessions []*Session, ev Event) {
	for _, s := range sessions {
		if s.enqueue(ev) {
			metrics.RealtimeEmissions.WithLabelValues(ev.Event).Inc()
		} else {
			metrics.RealtimeEvents.WithLabelValues(ev.Event, "dropped").Inc()
			logging.Warn().
				Str("event", ev.Event).
				Str("session_id", s.id).
				Str("user_id", s.userID).
				Msg("send queue full, dropping emission")
		}
	}
}

// PushToUser delivers an event to every live session of a user. It is the
// single entry point REST handlers use after committing a domain write.
// Fire-and-forget: an offline target is a no-op and no failure ever
// reaches the caller.
func (h *Hub) PushToUser(userID, event string, payload interface{}) {
	sessions := h.router.ResolveUser(userID)
	if len(sessions) == 0 {
		return
	}
	h.emitTo(sessions, Event{Event: event, Data: payload})
}

// NotifyUser persists a notification and pushes it to the target's live
// sessions with a freshly computed unread count. Store failures are logged
// and swallowed; the caller's own write has already succeeded and must not
// be failed by best-effort delivery.
func (h *Hub) NotifyUser(ctx context.Context, userID, notificationType, title, body string, refs map[string]string) {
	n := models.NewNotification(userID, notificationType, title, body, refs)
	if err := h.notifications.Create(ctx, n); err != nil {
		logging.Error().Err(err).
			Str("user_id", userID).
			Str("type", notificationType).
			Msg("failed to persist notification")
		return
	}

	h.PushToUser(userID, EventNotificationNew, NotificationPayload{
		Notification: n,
		UnreadCount:  h.unreadCount(ctx, userID),
	})
}

// unreadCount recomputes the target's unread count through the circuit
// breaker. On breaker-open or store failure it degrades to zero rather
// than failing the push.
func (h *Hub) unreadCount(ctx context.Context, userID string) int {
	count, err := h.unreadBreaker.Execute(func() (int, error) {
		return h.notifications.CountUnread(ctx, userID)
	})
	if err != nil {
		logging.Warn().Err(err).Str("user_id", userID).Msg("unread count unavailable")
		return 0
	}
	return count
}
