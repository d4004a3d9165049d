// Huddle - Professional Networking and Booking Platform
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/huddle

package realtime

import (
	"sort"
	"strings"
	"sync"
)

// Router resolves a logical destination (a user or an ad-hoc topic) to the
// live sessions that should receive an emission, and manages mutable topic
// membership.
//
// Personal channels are not stored here: every session is implicitly and
// permanently a member of its user's personal channel, which the router
// answers straight from the registry. Only ad-hoc topic membership is kept
// as state, keyed both ways so a disconnecting session can be detached
// from all its topics in one call.
type Router struct {
	registry *Registry

	mu        sync.RWMutex
	topics    map[string]map[string]*Session  // topic -> session ID -> session
	bySession map[string]map[string]struct{}  // session ID -> topic set
}

// NewRouter creates a router backed by the given registry.
func NewRouter(registry *Registry) *Router {
	return &Router{
		registry:  registry,
		topics:    make(map[string]map[string]*Session),
		bySession: make(map[string]map[string]struct{}),
	}
}

// JoinTopic adds a session to an ad-hoc topic. Joining a topic the session
// is already a member of is a no-op. Personal channels cannot be joined
// explicitly; a destination in the personal namespace is ignored.
func (rt *Router) JoinTopic(s *Session, topic string) {
	if topic == "" || strings.HasPrefix(topic, personalChannelPrefix) {
		return
	}

	rt.mu.Lock()
	defer rt.mu.Unlock()

	members, ok := rt.topics[topic]
	if !ok {
		members = make(map[string]*Session)
		rt.topics[topic] = members
	}
	members[s.id] = s

	topicsOf, ok := rt.bySession[s.id]
	if !ok {
		topicsOf = make(map[string]struct{})
		rt.bySession[s.id] = topicsOf
	}
	topicsOf[topic] = struct{}{}
}

// LeaveTopic removes a session from an ad-hoc topic. Leaving a topic the
// session is not a member of is a no-op.
func (rt *Router) LeaveTopic(s *Session, topic string) {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	rt.removeMembership(s.id, topic)
}

// DropSession removes all topic memberships of a session. Called exactly
// once when the session is destroyed; calling it for an unknown session is
// harmless.
func (rt *Router) DropSession(sessionID string) {
	rt.mu.Lock()
	defer rt.mu.Unlock()

	for topic := range rt.bySession[sessionID] {
		rt.removeMembership(sessionID, topic)
	}
}

// removeMembership detaches one (session, topic) pair and drops the topic
// when its last member leaves. Caller holds rt.mu.
func (rt *Router) removeMembership(sessionID, topic string) {
	members, ok := rt.topics[topic]
	if !ok {
		return
	}
	delete(members, sessionID)
	if len(members) == 0 {
		delete(rt.topics, topic)
	}

	topicsOf := rt.bySession[sessionID]
	delete(topicsOf, topic)
	if len(topicsOf) == 0 {
		delete(rt.bySession, sessionID)
	}
}

// ResolveUser returns every live session of a user. An offline user
// resolves to an empty set; the caller's emission is then silently
// dropped, which is the intended best-effort behavior.
func (rt *Router) ResolveUser(userID string) []*Session {
	return rt.registry.SessionsForUser(userID)
}

// ResolveTopic returns the sessions currently joined to an ad-hoc topic,
// sorted by session ID.
func (rt *Router) ResolveTopic(topic string) []*Session {
	rt.mu.RLock()
	defer rt.mu.RUnlock()
	return sortSessions(rt.topics[topic])
}

// Resolve maps a destination channel name to sessions. Names in the
// personal namespace resolve through the registry; anything else is
// treated as an ad-hoc topic.
func (rt *Router) Resolve(destination string) []*Session {
	if userID, ok := strings.CutPrefix(destination, personalChannelPrefix); ok {
		return rt.ResolveUser(userID)
	}
	return rt.ResolveTopic(destination)
}

// TopicsForSession returns the ad-hoc topics a session is a member of,
// sorted. The personal channel is not included.
func (rt *Router) TopicsForSession(sessionID string) []string {
	rt.mu.RLock()
	defer rt.mu.RUnlock()

	topics := make([]string, 0, len(rt.bySession[sessionID]))
	for topic := range rt.bySession[sessionID] {
		topics = append(topics, topic)
	}
	sort.Strings(topics)
	return topics
}

// TopicCount returns the number of ad-hoc topics with at least one member.
func (rt *Router) TopicCount() int {
	rt.mu.RLock()
	defer rt.mu.RUnlock()
	return len(rt.topics)
}
