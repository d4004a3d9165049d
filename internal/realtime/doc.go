// Huddle - Professional Networking and Booking Platform
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/huddle

// Package realtime implements the presence and live-event layer: WebSocket
// session management, per-user and per-topic routing, presence broadcasts,
// and the inbound event dispatcher.
//
// # Architecture
//
// The package is built from five cooperating pieces:
//
//   - Gate: validates the credential presented at connect time and resolves
//     it to an active user before the connection is admitted. Rejections
//     happen at the HTTP layer; no session is ever created for them.
//   - Registry: the authoritative in-memory record of live sessions, keyed
//     by user. A user is online iff the registry holds at least one session
//     for them. Process-local; a restart drops all sessions.
//   - Router: maps sessions to named channels. Every session is permanently
//     a member of its user's personal channel ("user:<id>"); ad-hoc topic
//     membership is mutated by explicit join/leave events.
//   - Hub: the run loop. Session lifecycle events (register/unregister) are
//     serialized through channels so presence transitions and the full
//     online-set broadcast are always emitted in a consistent order.
//   - Dispatcher: the per-event handlers (chat, typing, read receipts, call
//     signaling, topic membership). Each handler validates its payload,
//     resolves destinations through the Router, and emits. A malformed
//     payload answers only the originating session with an error event.
//
// # Delivery semantics
//
// Delivery is best-effort. Resolving a destination with no live sessions is
// a silent no-op, not an error: there is no outbox and no replay. A session
// whose outbound queue is full at emission time is dropped rather than
// blocked on, so one slow consumer cannot stall fan-out to its peers.
//
// Events emitted to the same session from the same source preserve send
// order. No ordering is guaranteed across different senders racing to the
// same destination.
//
// # REST integration
//
// HTTP handlers push live notifications through Hub.NotifyUser after
// committing their domain write. The call is fire-and-forget: store
// failures while building the envelope are logged and swallowed, and an
// offline target is a harmless no-op. Real-time delivery is never a
// transactional dependency of the primary write.
package realtime
