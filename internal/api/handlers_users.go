// Huddle - Professional Networking and Booking Platform
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/huddle

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/huddle/internal/models"
)

// PresenceResponse reports the live online set and, for a single queried
// user, their last-seen timestamp.
type PresenceResponse struct {
	OnlineUserIDs []string   `json:"online_user_ids"`
	UserID        string     `json:"user_id,omitempty"`
	Online        *bool      `json:"online,omitempty"`
	LastSeen      *time.Time `json:"last_seen,omitempty"`
}

// GetUser serves another user's public profile.
func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request) {
	started := time.Now()

	user, err := h.stores.Users.GetByID(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		respondStoreError(w, err)
		return
	}
	if !user.Active {
		respondError(w, http.StatusNotFound, models.ErrCodeNotFound, "resource not found", nil)
		return
	}
	respondData(w, http.StatusOK, user.Public(), started)
}

// Presence serves the current online-user set. With a ?user_id= query the
// response also answers whether that user is online and when they were
// last seen.
func (h *Handler) Presence(w http.ResponseWriter, r *http.Request) {
	started := time.Now()

	resp := PresenceResponse{
		OnlineUserIDs: h.hub.Registry().OnlineUserIDs(),
	}
	if userID := r.URL.Query().Get("user_id"); userID != "" {
		online := h.hub.Registry().IsOnline(userID)
		resp.UserID = userID
		resp.Online = &online
		if lastSeen, ok := h.hub.LastSeen(userID); ok {
			resp.LastSeen = &lastSeen
		}
	}
	respondData(w, http.StatusOK, resp, started)
}
