// Huddle - Professional Networking and Booking Platform
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/huddle

package realtime

import "time"

// broadcastPresenceConnect announces a newly admitted session. Only the
// user's first session broadcasts an online transition, so a second device
// connecting never re-announces an already-online user. The transition
// event skips the session that caused it; the full set that follows goes
// to everyone, the new session included, and always reflects registry
// state after the transition.
func (h *Hub) broadcastPresenceConnect(s *Session, first bool) {
	if first {
		transition := Event{Event: EventUserOnline, Data: PresencePayload{UserID: s.userID}}
		for _, peer := range h.registry.AllSessions() {
			if peer.id == s.id {
				continue
			}
			h.emitTo([]*Session{peer}, transition)
		}
	}
	h.broadcastOnlineSet()
}

// broadcastPresenceDisconnect announces a removed session. The offline
// transition fires only when the user's last session closed; it carries
// the last-seen timestamp just recorded by the registry. The refreshed
// full set follows unconditionally.
func (h *Hub) broadcastPresenceDisconnect(s *Session, last bool) {
	if last {
		payload := PresencePayload{UserID: s.userID}
		if lastSeen, ok := h.registry.LastSeen(s.userID); ok {
			payload.LastSeen = &lastSeen
		}
		h.emitTo(h.registry.AllSessions(), Event{Event: EventUserOffline, Data: payload})
	}
	h.broadcastOnlineSet()
}

// broadcastOnlineSet sends the current online-user set to every live
// session. The set and the recipient list are captured back to back under
// the registry's lock discipline, so a client that processes a transition
// followed by a set never observes an inconsistent pair.
func (h *Hub) broadcastOnlineSet() {
	sessions := h.registry.AllSessions()
	if len(sessions) == 0 {
		return
	}
	h.emitTo(sessions, Event{Event: EventUsersOnline, Data: OnlineSetPayload{
		UserIDs: h.registry.OnlineUserIDs(),
	}})
}

// LastSeen reports when a user's final session disconnected. Online users
// and users never seen report ok=false.
func (h *Hub) LastSeen(userID string) (time.Time, bool) {
	if h.registry.IsOnline(userID) {
		return time.Time{}, false
	}
	return h.registry.LastSeen(userID)
}
