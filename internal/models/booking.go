// Huddle - Professional Networking and Booking Platform
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/huddle

package models

import "time"

// Booking statuses. A booking starts pending and moves to exactly one of the
// terminal states via the provider (confirmed/declined) or either party
// (cancelled).
const (
	BookingStatusPending   = "pending"
	BookingStatusConfirmed = "confirmed"
	BookingStatusDeclined  = "declined"
	BookingStatusCancelled = "cancelled"
	BookingStatusCompleted = "completed"
)

// Booking is a scheduled engagement between a customer and a provider.
type Booking struct {
	ID         string    `json:"id"`
	CustomerID string    `json:"customer_id"`
	ProviderID string    `json:"provider_id"`
	Service    string    `json:"service"`
	StartsAt   time.Time `json:"starts_at"`
	EndsAt     time.Time `json:"ends_at"`
	Status     string    `json:"status"`
	Notes      string    `json:"notes,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// ValidBookingStatus reports whether s is one of the defined statuses.
func ValidBookingStatus(s string) bool {
	switch s {
	case BookingStatusPending, BookingStatusConfirmed, BookingStatusDeclined,
		BookingStatusCancelled, BookingStatusCompleted:
		return true
	default:
		return false
	}
}

// Involves reports whether userID is a party to the booking.
func (b *Booking) Involves(userID string) bool {
	return b.CustomerID == userID || b.ProviderID == userID
}

// Counterpart returns the other party of the booking relative to userID.
// Returns empty string if userID is not a party to the booking.
func (b *Booking) Counterpart(userID string) string {
	switch userID {
	case b.CustomerID:
		return b.ProviderID
	case b.ProviderID:
		return b.CustomerID
	default:
		return ""
	}
}
