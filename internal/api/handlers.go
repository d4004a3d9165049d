// Huddle - Professional Networking and Booking Platform
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/huddle

package api

import (
	"time"

	"github.com/tomtom215/huddle/internal/auth"
	"github.com/tomtom215/huddle/internal/config"
	"github.com/tomtom215/huddle/internal/realtime"
	"github.com/tomtom215/huddle/internal/store"
)

// Handler carries the dependencies shared by all REST handlers.
type Handler struct {
	cfg       *config.Config
	stores    *store.Stores
	hub       *realtime.Hub
	jwt       *auth.JWTManager
	startTime time.Time
}

// NewHandler creates the handler set.
func NewHandler(cfg *config.Config, stores *store.Stores, hub *realtime.Hub, jwtManager *auth.JWTManager) *Handler {
	return &Handler{
		cfg:       cfg,
		stores:    stores,
		hub:       hub,
		jwt:       jwtManager,
		startTime: time.Now(),
	}
}

// pageLimit clamps a requested page size to the configured bounds. Zero or
// negative requests fall back to the default.
func (h *Handler) pageLimit(requested int) int {
	if requested <= 0 {
		return h.cfg.API.DefaultPageSize
	}
	if requested > h.cfg.API.MaxPageSize {
		return h.cfg.API.MaxPageSize
	}
	return requested
}
