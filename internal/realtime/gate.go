// Huddle - Professional Networking and Booking Platform
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/huddle

package realtime

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/tomtom215/huddle/internal/auth"
	"github.com/tomtom215/huddle/internal/logging"
	"github.com/tomtom215/huddle/internal/metrics"
	"github.com/tomtom215/huddle/internal/models"
)

// Connection-level rejection reasons. Each rejects the connection attempt
// before any session exists, so no presence change is ever observed for a
// failed connect.
var (
	ErrMissingCredential = errors.New("missing credential")
	ErrInvalidCredential = errors.New("invalid or expired credential")
	ErrUnknownUser       = errors.New("unknown or inactive user")
)

// TokenVerifier validates a signed credential string.
type TokenVerifier interface {
	ValidateToken(token string) (*auth.Claims, error)
}

// UserFinder resolves a user identifier to an active account. Deactivated
// accounts resolve to an error, which makes otherwise-valid tokens stale.
type UserFinder interface {
	FindActive(ctx context.Context, id string) (*models.User, error)
}

// Gate authenticates connection attempts before they are admitted to the
// hub. Browsers cannot set headers on WebSocket handshakes, so the
// credential is accepted from the "token" query parameter as well as the
// standard Authorization header.
type Gate struct {
	verifier TokenVerifier
	users    UserFinder
}

// NewGate creates a gate over the given verifier and user directory.
func NewGate(verifier TokenVerifier, users UserFinder) *Gate {
	return &Gate{verifier: verifier, users: users}
}

// Authenticate validates the credential on a connection attempt and
// resolves it to an active user. The returned user populates the session's
// identity snapshot.
func (g *Gate) Authenticate(r *http.Request) (*models.User, error) {
	token := credentialFromRequest(r)
	if token == "" {
		g.reject("missing_credential", r)
		return nil, ErrMissingCredential
	}

	claims, err := g.verifier.ValidateToken(token)
	if err != nil {
		g.reject("invalid_credential", r)
		return nil, ErrInvalidCredential
	}

	user, err := g.users.FindActive(r.Context(), claims.UserID())
	if err != nil {
		g.reject("unknown_user", r)
		return nil, ErrUnknownUser
	}
	return user, nil
}

func (g *Gate) reject(reason string, r *http.Request) {
	metrics.AuthGateRejections.WithLabelValues(reason).Inc()
	logging.Warn().
		Str("reason", reason).
		Str("remote_addr", r.RemoteAddr).
		Msg("websocket connection rejected")
}

// credentialFromRequest extracts the token from the query string first,
// then falls back to a bearer Authorization header.
func credentialFromRequest(r *http.Request) string {
	if token := r.URL.Query().Get("token"); token != "" {
		return token
	}
	header := r.Header.Get("Authorization")
	if token, ok := strings.CutPrefix(header, "Bearer "); ok {
		return strings.TrimSpace(token)
	}
	return ""
}
