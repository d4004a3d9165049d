// Huddle - Professional Networking and Booking Platform
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/huddle

package realtime

import (
	"errors"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/tomtom215/huddle/internal/config"
	"github.com/tomtom215/huddle/internal/logging"
)

// ConnectionHandler is the HTTP entry point for WebSocket connections. It
// runs the authentication gate before the protocol upgrade, so a rejected
// credential costs one plain 401 response and never creates a session.
type ConnectionHandler struct {
	hub      *Hub
	gate     *Gate
	security *config.SecurityConfig
	upgrader websocket.Upgrader
}

// NewConnectionHandler wires the gate and hub behind one http.Handler.
func NewConnectionHandler(hub *Hub, gate *Gate, security *config.SecurityConfig) *ConnectionHandler {
	h := &ConnectionHandler{
		hub:      hub,
		gate:     gate,
		security: security,
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:   1024,
		WriteBufferSize:  1024,
		CheckOrigin:      h.checkOrigin,
		HandshakeTimeout: hub.cfg.HandshakeTimeout,
	}
	return h
}

func (h *ConnectionHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	user, err := h.gate.Authenticate(r)
	if err != nil {
		status := http.StatusUnauthorized
		if errors.Is(err, ErrUnknownUser) {
			status = http.StatusForbidden
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(`{"status":"error","error":{"code":"UNAUTHORIZED","message":"` + err.Error() + `"}}`))
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written its own error response.
		logging.Error().Err(err).Msg("websocket upgrade failed")
		return
	}

	s := NewSession(h.hub, conn, user)
	h.hub.Register <- s
	s.Start()
}

// checkOrigin validates the handshake origin. Legitimate browser
// WebSockets always include an Origin header; an empty one means a
// non-browser client and is rejected. A nil security config fails open
// for tests and development.
func (h *ConnectionHandler) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		logging.Warn().Msg("websocket connection rejected: missing Origin header")
		return false
	}
	if h.security == nil {
		return true
	}
	for _, allowed := range h.security.CORSOrigins {
		if allowed == "*" || allowed == origin {
			return true
		}
	}
	logging.Warn().Str("origin", origin).Msg("websocket connection rejected: origin not allowed")
	return false
}
