// Huddle - Professional Networking and Booking Platform
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/huddle

package store

import (
	"context"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"

	"github.com/tomtom215/huddle/internal/metrics"
	"github.com/tomtom215/huddle/internal/models"
)

const notificationKeyPrefix = "notif:"

// NotificationStore persists per-user notifications. The realtime dispatcher
// consults CountUnread when it builds push envelopes, so every outbound
// notification carries a badge count computed at emission time.
type NotificationStore struct {
	db *badger.DB
}

func notificationKey(n *models.Notification) []byte {
	return []byte(notificationKeyPrefix + n.UserID + ":" + seqKey(n.CreatedAt, n.ID))
}

// Create persists a notification.
func (s *NotificationStore) Create(ctx context.Context, n *models.Notification) error {
	start := time.Now()
	err := s.db.Update(func(txn *badger.Txn) error {
		return setJSON(txn, notificationKey(n), n)
	})
	metrics.ObserveStoreOp("notifications", "create", start, err)
	return err
}

// ListForUser returns up to limit notifications for the user, newest first.
func (s *NotificationStore) ListForUser(ctx context.Context, userID string, limit int) ([]*models.Notification, error) {
	start := time.Now()
	prefix := []byte(notificationKeyPrefix + userID + ":")

	var out []*models.Notification
	err := s.db.View(func(txn *badger.Txn) error {
		return prefixScanReverse(txn, prefix, func(val []byte) (bool, error) {
			var n models.Notification
			if err := json.Unmarshal(val, &n); err != nil {
				return false, err
			}
			out = append(out, &n)
			return limit <= 0 || len(out) < limit, nil
		})
	})
	metrics.ObserveStoreOp("notifications", "list", start, err)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// CountUnread returns the number of unread notifications for the user.
func (s *NotificationStore) CountUnread(ctx context.Context, userID string) (int, error) {
	start := time.Now()
	prefix := []byte(notificationKeyPrefix + userID + ":")

	count := 0
	err := s.db.View(func(txn *badger.Txn) error {
		return prefixScan(txn, prefix, func(val []byte) (bool, error) {
			var n models.Notification
			if err := json.Unmarshal(val, &n); err != nil {
				return false, err
			}
			if !n.Read {
				count++
			}
			return true, nil
		})
	})
	metrics.ObserveStoreOp("notifications", "count_unread", start, err)
	if err != nil {
		return 0, err
	}
	return count, nil
}

// MarkRead marks a single notification as read. Returns ErrNotFound if the
// user has no notification with that ID.
func (s *NotificationStore) MarkRead(ctx context.Context, userID, notificationID string) error {
	start := time.Now()
	prefix := []byte(notificationKeyPrefix + userID + ":")

	err := updateWithRetry(s.db, func(txn *badger.Txn) error {
		itOpts := badger.DefaultIteratorOptions
		itOpts.Prefix = prefix
		it := txn.NewIterator(itOpts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()
			var n models.Notification
			if err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &n)
			}); err != nil {
				return err
			}
			if n.ID != notificationID {
				continue
			}
			if n.Read {
				return nil
			}
			n.Read = true
			key := append([]byte{}, item.Key()...)
			return setJSON(txn, key, &n)
		}
		return ErrNotFound
	})
	metrics.ObserveStoreOp("notifications", "mark_read", start, err)
	return err
}

// MarkAllRead marks every notification for the user as read and returns the
// number updated.
func (s *NotificationStore) MarkAllRead(ctx context.Context, userID string) (int, error) {
	start := time.Now()
	prefix := []byte(notificationKeyPrefix + userID + ":")

	updated := 0
	err := updateWithRetry(s.db, func(txn *badger.Txn) error {
		updated = 0
		itOpts := badger.DefaultIteratorOptions
		itOpts.Prefix = prefix
		it := txn.NewIterator(itOpts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()
			var n models.Notification
			if err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &n)
			}); err != nil {
				return err
			}
			if n.Read {
				continue
			}
			n.Read = true
			key := append([]byte{}, item.Key()...)
			if err := setJSON(txn, key, &n); err != nil {
				return err
			}
			updated++
		}
		return nil
	})
	metrics.ObserveStoreOp("notifications", "mark_all_read", start, err)
	if err != nil {
		return 0, err
	}
	return updated, nil
}
