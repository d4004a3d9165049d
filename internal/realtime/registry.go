// Huddle - Professional Networking and Booking Platform
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/huddle

package realtime

import (
	"sort"
	"sync"
	"time"
)

// Registry is the authoritative record of live sessions, keyed by user.
// It is process-local and rebuilt from nothing on restart: all sessions
// are implicitly dropped and clients must reconnect.
//
// Every mutation is atomic under the registry mutex, so presence reads are
// always consistent at the instant they execute even when store calls in
// the dispatcher interleave with connect/disconnect handling.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Session            // session ID -> session
	byUser   map[string]map[string]*Session // user ID -> session ID -> session
	lastSeen map[string]time.Time           // user ID -> last disconnect of their final session
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		sessions: make(map[string]*Session),
		byUser:   make(map[string]map[string]*Session),
		lastSeen: make(map[string]time.Time),
	}
}

// Register inserts a session and reports whether it is the user's first
// live session (the offline->online transition). Registering the same
// session ID twice is idempotent and never reports a transition. Other
// sessions of the same user are left untouched.
func (r *Registry) Register(s *Session) (first bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.sessions[s.id]; ok {
		return false
	}

	r.sessions[s.id] = s
	userSessions, ok := r.byUser[s.userID]
	if !ok {
		userSessions = make(map[string]*Session)
		r.byUser[s.userID] = userSessions
	}
	userSessions[s.id] = s
	return len(userSessions) == 1
}

// Remove deletes a session and reports whether it was the user's last live
// session (the online->offline transition). Removing an unknown session is
// a no-op, which defends against duplicate disconnect events. On the last
// removal the user's last-seen timestamp is recorded.
func (r *Registry) Remove(sessionID string) (s *Session, last bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[sessionID]
	if !ok {
		return nil, false
	}

	delete(r.sessions, sessionID)
	userSessions := r.byUser[s.userID]
	delete(userSessions, sessionID)
	if len(userSessions) == 0 {
		delete(r.byUser, s.userID)
		r.lastSeen[s.userID] = time.Now().UTC()
		return s, true
	}
	return s, false
}

// IsOnline reports whether the user has at least one live session.
func (r *Registry) IsOnline(userID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byUser[userID]) > 0
}

// OnlineUserIDs returns the identifiers of all users with at least one
// live session, sorted for deterministic broadcast contents.
func (r *Registry) OnlineUserIDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0, len(r.byUser))
	for id := range r.byUser {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// SessionsForUser returns all live sessions owned by a user, sorted by
// session ID. An offline user yields an empty slice.
func (r *Registry) SessionsForUser(userID string) []*Session {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return sortSessions(r.byUser[userID])
}

// AllSessions returns every live session, sorted by session ID for
// deterministic fan-out order.
func (r *Registry) AllSessions() []*Session {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return sortSessions(r.sessions)
}

// LastSeen returns the recorded disconnect time of the user's final
// session. The zero time with ok=false means the user has never
// disconnected (or is currently online).
func (r *Registry) LastSeen(userID string) (time.Time, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.lastSeen[userID]
	return t, ok
}

// SessionCount returns the total number of live sessions.
func (r *Registry) SessionCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// OnlineUserCount returns the number of distinct online users.
func (r *Registry) OnlineUserCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byUser)
}

func sortSessions(m map[string]*Session) []*Session {
	sessions := make([]*Session, 0, len(m))
	for _, s := range m {
		sessions = append(sessions, s)
	}
	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].id < sessions[j].id
	})
	return sessions
}
