// Huddle - Professional Networking and Booking Platform
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/huddle

package models

import (
	"time"

	"github.com/google/uuid"
)

// Notification types. The type string doubles as the realtime event
// discriminator in notification envelopes.
const (
	NotificationTypeMessage            = "message"
	NotificationTypeBookingCreated     = "booking_created"
	NotificationTypeBookingStatus      = "booking_status"
	NotificationTypeConnectionRequest  = "connection_request"
	NotificationTypeConnectionAccepted = "connection_accepted"
	NotificationTypePostLike           = "post_like"
	NotificationTypePostComment        = "post_comment"
)

// Notification is a persisted alert addressed to one user. Live delivery to
// that user's sessions is best-effort; the stored row is the durable record.
type Notification struct {
	ID        string            `json:"id"`
	UserID    string            `json:"user_id"`
	Type      string            `json:"type"`
	Title     string            `json:"title"`
	Body      string            `json:"body,omitempty"`
	Refs      map[string]string `json:"refs,omitempty"` // entity references, e.g. {"booking_id": "..."}
	Read      bool              `json:"read"`
	CreatedAt time.Time         `json:"created_at"`
}

// NewNotification builds an unread notification with a fresh identifier.
func NewNotification(userID, notificationType, title, body string, refs map[string]string) *Notification {
	return &Notification{
		ID:        uuid.New().String(),
		UserID:    userID,
		Type:      notificationType,
		Title:     title,
		Body:      body,
		Refs:      refs,
		CreatedAt: time.Now().UTC(),
	}
}
