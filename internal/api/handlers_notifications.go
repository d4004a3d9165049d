// Huddle - Professional Networking and Booking Platform
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/huddle

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/huddle/internal/auth"
)

// ListNotifications serves the authenticated user's notifications, newest
// first.
func (h *Handler) ListNotifications(w http.ResponseWriter, r *http.Request) {
	started := time.Now()
	claims := auth.ClaimsFromContext(r.Context())

	limit := h.pageLimit(intQuery(r, "limit", 0))
	notifications, err := h.stores.Notifications.ListForUser(r.Context(), claims.UserID(), limit)
	if err != nil {
		respondStoreError(w, err)
		return
	}
	respondData(w, http.StatusOK, notifications, started)
}

// UnreadNotifications reports the unread notification count.
func (h *Handler) UnreadNotifications(w http.ResponseWriter, r *http.Request) {
	started := time.Now()
	claims := auth.ClaimsFromContext(r.Context())

	count, err := h.stores.Notifications.CountUnread(r.Context(), claims.UserID())
	if err != nil {
		respondStoreError(w, err)
		return
	}
	respondData(w, http.StatusOK, map[string]int{"unread": count}, started)
}

// MarkNotificationRead marks one notification as read. Already-read
// notifications succeed without effect.
func (h *Handler) MarkNotificationRead(w http.ResponseWriter, r *http.Request) {
	started := time.Now()
	claims := auth.ClaimsFromContext(r.Context())

	err := h.stores.Notifications.MarkRead(r.Context(), claims.UserID(), chi.URLParam(r, "notificationID"))
	if err != nil {
		respondStoreError(w, err)
		return
	}
	respondData(w, http.StatusOK, map[string]bool{"read": true}, started)
}

// MarkAllNotificationsRead marks everything read and reports how many
// changed.
func (h *Handler) MarkAllNotificationsRead(w http.ResponseWriter, r *http.Request) {
	started := time.Now()
	claims := auth.ClaimsFromContext(r.Context())

	count, err := h.stores.Notifications.MarkAllRead(r.Context(), claims.UserID())
	if err != nil {
		respondStoreError(w, err)
		return
	}
	respondData(w, http.StatusOK, map[string]int{"marked_read": count}, started)
}
