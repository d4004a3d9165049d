// Huddle - Professional Networking and Booking Platform
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/huddle

// Package api provides the HTTP surface: Chi-based routing, request
// middleware, and the REST handlers for auth, profiles, connections,
// posts, bookings, chat history, and notifications.
//
// Every response is wrapped in models.APIResponse with a status field,
// response metadata, and a structured error on failure. Handlers that
// commit a cross-user mutation (booking created, connection requested,
// post liked, and so on) push a live notification to the affected user
// through the realtime hub after the store write succeeds; the push is
// fire-and-forget and never affects the HTTP status.
package api
