// Huddle - Professional Networking and Booking Platform
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/huddle

package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"

	"github.com/tomtom215/huddle/internal/metrics"
	"github.com/tomtom215/huddle/internal/models"
)

const (
	connectionKeyPrefix     = "conn:"
	connectionUserKeyPrefix = "connuser:"
	connectionPairKeyPrefix = "connpair:"
)

// ConnectionStore persists connection requests between users. A pair index
// enforces at most one non-declined connection per user pair.
type ConnectionStore struct {
	db *badger.DB
}

// pairKey is the canonical key for the user pair, order-independent.
func pairKey(a, b string) []byte {
	if a > b {
		a, b = b, a
	}
	return []byte(connectionPairKeyPrefix + a + "|" + b)
}

// Create inserts a pending connection request. Returns ErrConflict if a
// pending or accepted connection already exists between the two users.
func (s *ConnectionStore) Create(ctx context.Context, c *models.Connection) error {
	start := time.Now()
	err := updateWithRetry(s.db, func(txn *badger.Txn) error {
		pk := pairKey(c.RequesterID, c.RecipientID)

		var existing models.Connection
		switch err := getJSON(txn, pk, &existing); {
		case err == nil:
			if existing.Status != models.ConnectionStatusDeclined {
				return fmt.Errorf("%w: connection already %s", ErrConflict, existing.Status)
			}
			// A declined request may be retried; fall through and overwrite.
		case errors.Is(err, ErrNotFound):
		default:
			return err
		}

		if err := setJSON(txn, []byte(connectionKeyPrefix+c.ID), c); err != nil {
			return err
		}
		if err := setJSON(txn, pk, c); err != nil {
			return err
		}
		for _, party := range []string{c.RequesterID, c.RecipientID} {
			idxKey := []byte(connectionUserKeyPrefix + party + ":" + seqKey(c.CreatedAt, c.ID))
			if err := txn.Set(idxKey, []byte(c.ID)); err != nil {
				return err
			}
		}
		return nil
	})
	metrics.ObserveStoreOp("connections", "create", start, err)
	return err
}

// Get returns the connection with the given ID.
func (s *ConnectionStore) Get(ctx context.Context, id string) (*models.Connection, error) {
	start := time.Now()
	var c models.Connection
	err := s.db.View(func(txn *badger.Txn) error {
		return getJSON(txn, []byte(connectionKeyPrefix+id), &c)
	})
	metrics.ObserveStoreOp("connections", "get", start, err)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// ListForUser returns up to limit connections the user is a party to,
// newest first.
func (s *ConnectionStore) ListForUser(ctx context.Context, userID string, limit int) ([]*models.Connection, error) {
	start := time.Now()
	prefix := []byte(connectionUserKeyPrefix + userID + ":")

	var out []*models.Connection
	err := s.db.View(func(txn *badger.Txn) error {
		return prefixScanReverse(txn, prefix, func(val []byte) (bool, error) {
			var c models.Connection
			if err := getJSON(txn, []byte(connectionKeyPrefix+string(val)), &c); err != nil {
				return false, err
			}
			out = append(out, &c)
			return limit <= 0 || len(out) < limit, nil
		})
	})
	metrics.ObserveStoreOp("connections", "list", start, err)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Respond records the recipient's answer to a pending request and returns
// the updated connection. Responding to a non-pending connection returns
// ErrConflict.
func (s *ConnectionStore) Respond(ctx context.Context, id, status string) (*models.Connection, error) {
	start := time.Now()
	var c models.Connection
	err := updateWithRetry(s.db, func(txn *badger.Txn) error {
		c = models.Connection{}
		key := []byte(connectionKeyPrefix + id)
		if err := getJSON(txn, key, &c); err != nil {
			return err
		}
		if c.Status != models.ConnectionStatusPending {
			return fmt.Errorf("%w: connection already %s", ErrConflict, c.Status)
		}
		c.Status = status
		c.RespondedAt = time.Now().UTC()

		if err := setJSON(txn, key, &c); err != nil {
			return err
		}
		return setJSON(txn, pairKey(c.RequesterID, c.RecipientID), &c)
	})
	metrics.ObserveStoreOp("connections", "respond", start, err)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// AreConnected reports whether the two users have an accepted connection.
func (s *ConnectionStore) AreConnected(ctx context.Context, a, b string) (bool, error) {
	start := time.Now()
	connected := false
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(pairKey(a, b))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			var c models.Connection
			if err := json.Unmarshal(val, &c); err != nil {
				return err
			}
			connected = c.Status == models.ConnectionStatusAccepted
			return nil
		})
	})
	metrics.ObserveStoreOp("connections", "are_connected", start, err)
	return connected, err
}
