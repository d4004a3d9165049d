// Huddle - Professional Networking and Booking Platform
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/huddle

package store

import (
	"context"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/tomtom215/huddle/internal/metrics"
	"github.com/tomtom215/huddle/internal/models"
)

const (
	bookingKeyPrefix     = "booking:"
	bookingUserKeyPrefix = "bookinguser:"
)

// BookingStore persists bookings with a per-party index so both the customer
// and the provider can list their own bookings with a single prefix scan.
type BookingStore struct {
	db *badger.DB
}

// Create inserts a booking and index entries for both parties.
func (s *BookingStore) Create(ctx context.Context, b *models.Booking) error {
	start := time.Now()
	err := s.db.Update(func(txn *badger.Txn) error {
		key := []byte(bookingKeyPrefix + b.ID)
		if err := setJSON(txn, key, b); err != nil {
			return err
		}
		for _, party := range []string{b.CustomerID, b.ProviderID} {
			idxKey := []byte(bookingUserKeyPrefix + party + ":" + seqKey(b.CreatedAt, b.ID))
			if err := txn.Set(idxKey, []byte(b.ID)); err != nil {
				return fmt.Errorf("set booking index: %w", err)
			}
		}
		return nil
	})
	metrics.ObserveStoreOp("bookings", "create", start, err)
	return err
}

// Get returns the booking with the given ID.
func (s *BookingStore) Get(ctx context.Context, id string) (*models.Booking, error) {
	start := time.Now()
	var b models.Booking
	err := s.db.View(func(txn *badger.Txn) error {
		return getJSON(txn, []byte(bookingKeyPrefix+id), &b)
	})
	metrics.ObserveStoreOp("bookings", "get", start, err)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// ListForUser returns up to limit bookings the user is a party to, newest first.
func (s *BookingStore) ListForUser(ctx context.Context, userID string, limit int) ([]*models.Booking, error) {
	start := time.Now()
	prefix := []byte(bookingUserKeyPrefix + userID + ":")

	var out []*models.Booking
	err := s.db.View(func(txn *badger.Txn) error {
		return prefixScanReverse(txn, prefix, func(val []byte) (bool, error) {
			var b models.Booking
			if err := getJSON(txn, []byte(bookingKeyPrefix+string(val)), &b); err != nil {
				return false, err
			}
			out = append(out, &b)
			return limit <= 0 || len(out) < limit, nil
		})
	})
	metrics.ObserveStoreOp("bookings", "list", start, err)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// UpdateStatus transitions a booking to the given status and returns the
// updated record. Transitions out of a terminal status return ErrConflict.
func (s *BookingStore) UpdateStatus(ctx context.Context, id, status string) (*models.Booking, error) {
	start := time.Now()
	var b models.Booking
	err := updateWithRetry(s.db, func(txn *badger.Txn) error {
		b = models.Booking{}
		key := []byte(bookingKeyPrefix + id)
		if err := getJSON(txn, key, &b); err != nil {
			return err
		}
		switch b.Status {
		case models.BookingStatusDeclined, models.BookingStatusCancelled, models.BookingStatusCompleted:
			return fmt.Errorf("%w: booking already %s", ErrConflict, b.Status)
		}
		b.Status = status
		b.UpdatedAt = time.Now().UTC()
		return setJSON(txn, key, &b)
	})
	metrics.ObserveStoreOp("bookings", "update_status", start, err)
	if err != nil {
		return nil, err
	}
	return &b, nil
}
