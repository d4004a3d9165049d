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
	"github.com/tomtom215/huddle/internal/models"
	"github.com/tomtom215/huddle/internal/realtime"
)

// Conversation serves the chronological message history between the
// authenticated user and another user. The ?limit= query bounds the page
// to the most recent messages.
func (h *Handler) Conversation(w http.ResponseWriter, r *http.Request) {
	started := time.Now()
	claims := auth.ClaimsFromContext(r.Context())
	otherID := chi.URLParam(r, "userID")

	limit := h.pageLimit(intQuery(r, "limit", 0))
	messages, err := h.stores.Messages.Conversation(r.Context(), claims.UserID(), otherID, limit)
	if err != nil {
		respondStoreError(w, err)
		return
	}
	respondData(w, http.StatusOK, messages, started)
}

// MarkConversationRead marks every message from the named user to the
// authenticated user as read, then pushes a read receipt to the original
// sender's live sessions.
func (h *Handler) MarkConversationRead(w http.ResponseWriter, r *http.Request) {
	started := time.Now()
	claims := auth.ClaimsFromContext(r.Context())
	senderID := chi.URLParam(r, "userID")

	count, err := h.stores.Messages.MarkConversationRead(r.Context(), senderID, claims.UserID())
	if err != nil {
		respondStoreError(w, err)
		return
	}

	if count > 0 {
		h.hub.PushToUser(senderID, realtime.EventMessageRead, realtime.ReadReceiptPayload{
			ReaderID: claims.UserID(),
			Count:    count,
		})
	}
	respondData(w, http.StatusOK, map[string]int{"marked_read": count}, started)
}

// UnreadMessages reports how many received messages are still unread.
func (h *Handler) UnreadMessages(w http.ResponseWriter, r *http.Request) {
	started := time.Now()
	claims := auth.ClaimsFromContext(r.Context())

	count, err := h.stores.Messages.CountUnreadFrom(r.Context(), claims.UserID())
	if err != nil {
		respondStoreError(w, err)
		return
	}
	respondData(w, http.StatusOK, map[string]int{"unread": count}, started)
}

// SendMessage is the REST fallback for clients without a live connection.
// It persists the message and fans it out exactly like the realtime
// handler does.
func (h *Handler) SendMessage(w http.ResponseWriter, r *http.Request) {
	started := time.Now()
	claims := auth.ClaimsFromContext(r.Context())

	var req struct {
		ReceiverID string `json:"receiver_id" validate:"required"`
		Content    string `json:"content" validate:"required,max=4000"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	if _, err := h.stores.Users.FindActive(r.Context(), req.ReceiverID); err != nil {
		respondStoreError(w, err)
		return
	}

	msg := models.NewMessage(claims.UserID(), req.ReceiverID, req.Content)
	if err := h.stores.Messages.Create(r.Context(), msg); err != nil {
		respondStoreError(w, err)
		return
	}

	h.hub.PushToUser(req.ReceiverID, realtime.EventMessageReceived, realtime.MessageReceivedPayload{Message: msg})
	h.hub.NotifyUser(r.Context(), req.ReceiverID, models.NotificationTypeMessage,
		claims.Name, msg.Preview(), map[string]string{"message_id": msg.ID, "sender_id": msg.SenderID})

	respondData(w, http.StatusCreated, msg, started)
}
