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

// BookingRequest books a provider's service.
type BookingRequest struct {
	ProviderID string    `json:"provider_id" validate:"required"`
	Service    string    `json:"service" validate:"required,max=200"`
	StartsAt   time.Time `json:"starts_at" validate:"required"`
	EndsAt     time.Time `json:"ends_at" validate:"required,gtfield=StartsAt"`
	Notes      string    `json:"notes" validate:"omitempty,max=2000"`
}

// BookingStatusRequest moves a booking through its lifecycle.
type BookingStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=confirmed declined cancelled completed"`
}

// CreateBooking files a pending booking with a provider and notifies them.
func (h *Handler) CreateBooking(w http.ResponseWriter, r *http.Request) {
	started := time.Now()
	claims := auth.ClaimsFromContext(r.Context())

	var req BookingRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.ProviderID == claims.UserID() {
		respondError(w, http.StatusBadRequest, models.ErrCodeValidation, "cannot book yourself", nil)
		return
	}

	provider, err := h.stores.Users.FindActive(r.Context(), req.ProviderID)
	if err != nil {
		respondStoreError(w, err)
		return
	}
	if provider.Role != models.RoleProvider {
		respondError(w, http.StatusBadRequest, models.ErrCodeValidation, "target user is not a provider", nil)
		return
	}

	booking := &models.Booking{
		ID:         uuid.New().String(),
		CustomerID: claims.UserID(),
		ProviderID: req.ProviderID,
		Service:    req.Service,
		StartsAt:   req.StartsAt,
		EndsAt:     req.EndsAt,
		Status:     models.BookingStatusPending,
		Notes:      req.Notes,
		CreatedAt:  time.Now().UTC(),
	}
	if err := h.stores.Bookings.Create(r.Context(), booking); err != nil {
		respondStoreError(w, err)
		return
	}

	h.hub.NotifyUser(r.Context(), booking.ProviderID, models.NotificationTypeBookingCreated,
		claims.Name, "requested "+booking.Service, map[string]string{
			"booking_id":  booking.ID,
			"customer_id": booking.CustomerID,
		})

	respondData(w, http.StatusCreated, booking, started)
}

// UpdateBookingStatus transitions a booking and notifies the other party.
// Providers confirm, decline, or complete; customers may only cancel.
func (h *Handler) UpdateBookingStatus(w http.ResponseWriter, r *http.Request) {
	started := time.Now()
	claims := auth.ClaimsFromContext(r.Context())
	bookingID := chi.URLParam(r, "bookingID")

	var req BookingStatusRequest
	if !decodeBody(w, r, &req) {
		return
	}

	booking, err := h.stores.Bookings.Get(r.Context(), bookingID)
	if err != nil {
		respondStoreError(w, err)
		return
	}
	if !booking.Involves(claims.UserID()) {
		respondError(w, http.StatusForbidden, models.ErrCodeForbidden, "not a party to this booking", nil)
		return
	}

	isProvider := claims.UserID() == booking.ProviderID
	if req.Status == models.BookingStatusCancelled {
		if isProvider {
			respondError(w, http.StatusForbidden, models.ErrCodeForbidden, "providers decline rather than cancel", nil)
			return
		}
	} else if !isProvider {
		respondError(w, http.StatusForbidden, models.ErrCodeForbidden, "only the provider may set this status", nil)
		return
	}

	updated, err := h.stores.Bookings.UpdateStatus(r.Context(), bookingID, req.Status)
	if err != nil {
		respondStoreError(w, err)
		return
	}

	h.hub.NotifyUser(r.Context(), updated.Counterpart(claims.UserID()), models.NotificationTypeBookingStatus,
		claims.Name, "booking "+updated.Status+": "+updated.Service, map[string]string{
			"booking_id": updated.ID,
			"status":     updated.Status,
		})

	respondData(w, http.StatusOK, updated, started)
}

// GetBooking serves a single booking to its parties.
func (h *Handler) GetBooking(w http.ResponseWriter, r *http.Request) {
	started := time.Now()
	claims := auth.ClaimsFromContext(r.Context())

	booking, err := h.stores.Bookings.Get(r.Context(), chi.URLParam(r, "bookingID"))
	if err != nil {
		respondStoreError(w, err)
		return
	}
	if !booking.Involves(claims.UserID()) {
		respondError(w, http.StatusForbidden, models.ErrCodeForbidden, "not a party to this booking", nil)
		return
	}
	respondData(w, http.StatusOK, booking, started)
}

// ListBookings serves the bookings the authenticated user is a party to,
// newest first.
func (h *Handler) ListBookings(w http.ResponseWriter, r *http.Request) {
	started := time.Now()
	claims := auth.ClaimsFromContext(r.Context())

	limit := h.pageLimit(intQuery(r, "limit", 0))
	bookings, err := h.stores.Bookings.ListForUser(r.Context(), claims.UserID(), limit)
	if err != nil {
		respondStoreError(w, err)
		return
	}
	respondData(w, http.StatusOK, bookings, started)
}
