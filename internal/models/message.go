// Huddle - Professional Networking and Booking Platform
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/huddle

package models

import (
	"time"

	"github.com/google/uuid"
)

// Message is one direct chat message between two users.
type Message struct {
	ID         string    `json:"id"`
	SenderID   string    `json:"sender_id"`
	ReceiverID string    `json:"receiver_id"`
	Content    string    `json:"content"`
	Read       bool      `json:"read"`
	CreatedAt  time.Time `json:"created_at"`
}

// NewMessage builds an unread message with a fresh identifier.
func NewMessage(senderID, receiverID, content string) *Message {
	return &Message{
		ID:         uuid.New().String(),
		SenderID:   senderID,
		ReceiverID: receiverID,
		Content:    content,
		CreatedAt:  time.Now().UTC(),
	}
}

// previewLimit is the maximum rune length of a message preview used in
// notification envelopes.
const previewLimit = 80

// Preview returns the message content truncated for notification display.
func (m *Message) Preview() string {
	runes := []rune(m.Content)
	if len(runes) <= previewLimit {
		return m.Content
	}
	return string(runes[:previewLimit]) + "…"
}
