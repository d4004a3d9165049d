// Huddle - Professional Networking and Booking Platform
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/huddle

package services

import (
	"context"
)

// ContextHub interface matches *realtime.Hub's RunWithContext method.
//
// This interface lets the HubService wrap the hub without importing the
// realtime package, and makes the wrapper testable with mocks.
type ContextHub interface {
	RunWithContext(ctx context.Context) error
}

// HubService wraps the realtime hub as a supervised service.
//
// The hub's RunWithContext method already implements the suture.Service
// pattern, so this wrapper simply delegates to it and provides a name
// for logging.
type HubService struct {
	hub  ContextHub
	name string
}

// NewHubService creates a new hub service wrapper.
func NewHubService(hub ContextHub) *HubService {
	return &HubService{
		hub:  hub,
		name: "realtime-hub",
	}
}

// Serve implements suture.Service.
//
// Delegates to hub.RunWithContext, which processes session registration
// and unregistration, returns when the context is canceled, and closes
// all sessions on shutdown. Returns ctx.Err() on normal shutdown.
func (s *HubService) Serve(ctx context.Context) error {
	return s.hub.RunWithContext(ctx)
}

// String implements fmt.Stringer for logging.
func (s *HubService) String() string {
	return s.name
}
