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

const (
	messageKeyPrefix       = "msg:"
	messageUnreadKeyPrefix = "msgunread:"
)

// MessageStore persists direct messages. Messages are keyed by conversation
// (the ordered user-ID pair) plus a sequence segment, so one prefix scan
// yields a conversation in chronological order. A per-receiver unread index
// is maintained in the same transactions, keeping badge counts O(unread).
type MessageStore struct {
	db *badger.DB
}

// conversationKey returns the canonical key segment for the pair (a, b),
// independent of who sent first.
func conversationKey(a, b string) string {
	if a > b {
		a, b = b, a
	}
	return a + "|" + b
}

func messageKey(m *models.Message) []byte {
	conv := conversationKey(m.SenderID, m.ReceiverID)
	return []byte(messageKeyPrefix + conv + ":" + seqKey(m.CreatedAt, m.ID))
}

func messageUnreadKey(m *models.Message) []byte {
	return []byte(messageUnreadKeyPrefix + m.ReceiverID + ":" + seqKey(m.CreatedAt, m.ID))
}

// Create appends a message to its conversation and records it in the
// receiver's unread index.
func (s *MessageStore) Create(ctx context.Context, m *models.Message) error {
	start := time.Now()
	err := s.db.Update(func(txn *badger.Txn) error {
		if err := setJSON(txn, messageKey(m), m); err != nil {
			return err
		}
		if m.Read {
			return nil
		}
		return txn.Set(messageUnreadKey(m), nil)
	})
	metrics.ObserveStoreOp("messages", "create", start, err)
	return err
}

// Conversation returns up to limit most recent messages between the two
// users, oldest first.
func (s *MessageStore) Conversation(ctx context.Context, userA, userB string, limit int) ([]*models.Message, error) {
	start := time.Now()
	prefix := []byte(messageKeyPrefix + conversationKey(userA, userB) + ":")

	var newestFirst []*models.Message
	err := s.db.View(func(txn *badger.Txn) error {
		return prefixScanReverse(txn, prefix, func(val []byte) (bool, error) {
			var m models.Message
			if err := json.Unmarshal(val, &m); err != nil {
				return false, err
			}
			newestFirst = append(newestFirst, &m)
			return limit <= 0 || len(newestFirst) < limit, nil
		})
	})
	metrics.ObserveStoreOp("messages", "conversation", start, err)
	if err != nil {
		return nil, err
	}

	// Reverse into chronological order.
	for i, j := 0, len(newestFirst)-1; i < j; i, j = i+1, j-1 {
		newestFirst[i], newestFirst[j] = newestFirst[j], newestFirst[i]
	}
	return newestFirst, nil
}

// MarkConversationRead marks every unread message from senderID to readerID
// as read and returns how many were updated.
func (s *MessageStore) MarkConversationRead(ctx context.Context, senderID, readerID string) (int, error) {
	start := time.Now()
	prefix := []byte(messageKeyPrefix + conversationKey(senderID, readerID) + ":")

	updated := 0
	err := updateWithRetry(s.db, func(txn *badger.Txn) error {
		updated = 0
		itOpts := badger.DefaultIteratorOptions
		itOpts.Prefix = prefix
		it := txn.NewIterator(itOpts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()
			var m models.Message
			if err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &m)
			}); err != nil {
				return err
			}
			if m.Read || m.SenderID != senderID || m.ReceiverID != readerID {
				continue
			}
			m.Read = true
			key := append([]byte{}, item.Key()...)
			if err := setJSON(txn, key, &m); err != nil {
				return err
			}
			if err := txn.Delete(messageUnreadKey(&m)); err != nil {
				return err
			}
			updated++
		}
		return nil
	})
	metrics.ObserveStoreOp("messages", "mark_read", start, err)
	if err != nil {
		return 0, err
	}
	return updated, nil
}

// CountUnreadFrom counts unread messages addressed to readerID across all
// conversations by walking the receiver's unread index. Used for badge
// counts on login.
func (s *MessageStore) CountUnreadFrom(ctx context.Context, readerID string) (int, error) {
	start := time.Now()
	prefix := []byte(messageUnreadKeyPrefix + readerID + ":")

	count := 0
	err := s.db.View(func(txn *badger.Txn) error {
		itOpts := badger.DefaultIteratorOptions
		itOpts.PrefetchValues = false
		itOpts.Prefix = prefix
		it := txn.NewIterator(itOpts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			count++
		}
		return nil
	})
	metrics.ObserveStoreOp("messages", "count_unread", start, err)
	if err != nil {
		return 0, err
	}
	return count, nil
}
