// Huddle - Professional Networking and Booking Platform
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/huddle

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/tomtom215/huddle/internal/auth"
	"github.com/tomtom215/huddle/internal/models"
)

// ConnectionRequest asks another user to connect.
type ConnectionRequest struct {
	RecipientID string `json:"recipient_id" validate:"required"`
}

// ConnectionResponseRequest answers a pending request.
type ConnectionResponseRequest struct {
	Status string `json:"status" validate:"required,oneof=accepted declined"`
}

// CreateConnection files a connection request and notifies the recipient.
func (h *Handler) CreateConnection(w http.ResponseWriter, r *http.Request) {
	started := time.Now()
	claims := auth.ClaimsFromContext(r.Context())

	var req ConnectionRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.RecipientID == claims.UserID() {
		respondError(w, http.StatusBadRequest, models.ErrCodeValidation, "cannot connect to yourself", nil)
		return
	}
	if _, err := h.stores.Users.FindActive(r.Context(), req.RecipientID); err != nil {
		respondStoreError(w, err)
		return
	}

	conn := &models.Connection{
		ID:          uuid.New().String(),
		RequesterID: claims.UserID(),
		RecipientID: req.RecipientID,
		Status:      models.ConnectionStatusPending,
		CreatedAt:   time.Now().UTC(),
	}
	if err := h.stores.Connections.Create(r.Context(), conn); err != nil {
		respondStoreError(w, err)
		return
	}

	h.hub.NotifyUser(r.Context(), req.RecipientID, models.NotificationTypeConnectionRequest,
		claims.Name, "wants to connect with you", map[string]string{
			"connection_id": conn.ID,
			"requester_id":  conn.RequesterID,
		})

	respondData(w, http.StatusCreated, conn, started)
}

// RespondConnection accepts or declines a pending request. Only the
// recipient may answer; an accepted request notifies the requester.
func (h *Handler) RespondConnection(w http.ResponseWriter, r *http.Request) {
	started := time.Now()
	claims := auth.ClaimsFromContext(r.Context())
	connectionID := chi.URLParam(r, "connectionID")

	var req ConnectionResponseRequest
	if !decodeBody(w, r, &req) {
		return
	}

	conn, err := h.stores.Connections.Get(r.Context(), connectionID)
	if err != nil {
		respondStoreError(w, err)
		return
	}
	if conn.RecipientID != claims.UserID() {
		respondError(w, http.StatusForbidden, models.ErrCodeForbidden, "only the recipient may respond", nil)
		return
	}

	updated, err := h.stores.Connections.Respond(r.Context(), connectionID, req.Status)
	if err != nil {
		respondStoreError(w, err)
		return
	}

	if updated.Status == models.ConnectionStatusAccepted {
		h.hub.NotifyUser(r.Context(), updated.RequesterID, models.NotificationTypeConnectionAccepted,
			claims.Name, "accepted your connection request", map[string]string{
				"connection_id": updated.ID,
				"recipient_id":  updated.RecipientID,
			})
	}

	respondData(w, http.StatusOK, updated, started)
}

// ListConnections serves the authenticated user's connections, newest
// first, both pending and answered.
func (h *Handler) ListConnections(w http.ResponseWriter, r *http.Request) {
	started := time.Now()
	claims := auth.ClaimsFromContext(r.Context())

	limit := h.pageLimit(intQuery(r, "limit", 0))
	connections, err := h.stores.Connections.ListForUser(r.Context(), claims.UserID(), limit)
	if err != nil {
		respondStoreError(w, err)
		return
	}
	respondData(w, http.StatusOK, connections, started)
}
