// Huddle - Professional Networking and Booking Platform
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/huddle

package realtime

import (
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"github.com/tomtom215/huddle/internal/logging"
	"github.com/tomtom215/huddle/internal/metrics"
	"github.com/tomtom215/huddle/internal/models"
)

// Session is one live transport connection owned by an authenticated user.
// The identity snapshot is captured at connect time and never refreshed;
// role or profile changes take effect on the next connection.
type Session struct {
	id          string
	userID      string
	identity    models.IdentitySnapshot
	connectedAt time.Time

	hub     *Hub
	conn    *websocket.Conn
	send    chan Event
	limiter *rate.Limiter
}

// NewSession wraps an upgraded connection for the given identity. The
// session is inert until it is registered with the hub and Start is
// called.
func NewSession(hub *Hub, conn *websocket.Conn, user *models.User) *Session {
	s := &Session{
		id:          uuid.New().String(),
		userID:      user.ID,
		identity:    user.Snapshot(),
		connectedAt: time.Now().UTC(),
		hub:         hub,
		conn:        conn,
		send:        make(chan Event, hub.cfg.SendBuffer),
	}
	if hub.cfg.EventRate > 0 {
		s.limiter = rate.NewLimiter(rate.Limit(hub.cfg.EventRate), hub.cfg.EventBurst)
	}
	return s
}

// ID returns the session identifier.
func (s *Session) ID() string {
	return s.id
}

// UserID returns the owning user's identifier.
func (s *Session) UserID() string {
	return s.userID
}

// Identity returns the snapshot captured at connect time.
func (s *Session) Identity() models.IdentitySnapshot {
	return s.identity
}

// Start begins the read and write pumps.
func (s *Session) Start() {
	go s.writePump()
	go s.readPump()
}

// enqueue offers an event to the session's outbound queue without
// blocking. It reports false when the queue is full or closed; the caller
// treats that as a dropped emission.
func (s *Session) enqueue(ev Event) (ok bool) {
	defer func() {
		// A concurrent unregister may close the channel; a send on a
		// closed channel panics and counts as a drop.
		if recover() != nil {
			ok = false
		}
	}()

	select {
	case s.send <- ev:
		return true
	default:
		return false
	}
}

// readPump pumps inbound envelopes from the connection to the dispatcher.
// It owns the read side: deadlines, pong handling, and the size limit.
// The dispatcher runs on this goroutine, so events from one session are
// processed strictly in arrival order.
func (s *Session) readPump() {
	defer func() {
		s.hub.Unregister <- s
		_ = s.conn.Close()
	}()

	s.conn.SetReadLimit(s.hub.cfg.MaxMessageSize)
	if err := s.conn.SetReadDeadline(time.Now().Add(s.hub.cfg.PongWait)); err != nil {
		logging.Error().Err(err).Str("session_id", s.id).Msg("failed to set read deadline")
		return
	}

	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(s.hub.cfg.PongWait))
	})

	for {
		var env Envelope
		if err := s.conn.ReadJSON(&env); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure, websocket.CloseNormalClosure) {
				logging.Warn().Err(err).Str("session_id", s.id).Str("user_id", s.userID).Msg("unexpected websocket close")
			}
			break
		}

		if s.limiter != nil && !s.limiter.Allow() {
			metrics.RealtimeEvents.WithLabelValues(env.Event, "rate_limited").Inc()
			s.enqueue(Event{Event: EventError, Data: ErrorPayload{
				Event:   env.Event,
				Message: "rate limit exceeded",
			}})
			continue
		}

		s.hub.dispatch(s, env)
	}
}

// writePump pumps outbound events from the queue to the connection and
// keeps the connection alive with periodic pings.
func (s *Session) writePump() {
	pingPeriod := s.hub.cfg.PongWait * 9 / 10
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = s.conn.Close()
	}()

	for {
		select {
		case ev, ok := <-s.send:
			if err := s.conn.SetWriteDeadline(time.Now().Add(s.hub.cfg.WriteWait)); err != nil {
				logging.Error().Err(err).Str("session_id", s.id).Msg("failed to set write deadline")
				return
			}

			if !ok {
				// The hub closed the queue.
				_ = s.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := s.conn.WriteJSON(ev); err != nil {
				logging.Error().Err(err).Str("session_id", s.id).Msg("failed to write event")
				return
			}

		case <-ticker.C:
			if err := s.conn.SetWriteDeadline(time.Now().Add(s.hub.cfg.WriteWait)); err != nil {
				return
			}
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
