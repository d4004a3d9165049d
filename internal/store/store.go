// Huddle - Professional Networking and Booking Platform
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/huddle

// Package store persists Huddle's domain entities in BadgerDB.
//
// Every entity lives under a key prefix ("user:", "msg:", "notif:", ...)
// with JSON values. Secondary indexes are plain keys whose value is the
// primary key, written in the same transaction as the primary record.
//
// The package exposes one store type per entity. All stores share a single
// badger.DB handle opened by Open.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"

	"github.com/tomtom215/huddle/internal/config"
	"github.com/tomtom215/huddle/internal/logging"
)

// Sentinel errors shared by all stores.
var (
	// ErrNotFound indicates the requested record does not exist.
	ErrNotFound = errors.New("record not found")

	// ErrDuplicateEmail indicates a user with that email already exists.
	ErrDuplicateEmail = errors.New("email already registered")

	// ErrConflict indicates the write lost to a conflicting state
	// (e.g. responding to an already-answered connection request).
	ErrConflict = errors.New("conflicting state")
)

// Stores aggregates all entity stores over one badger handle.
type Stores struct {
	db *badger.DB

	Users         *UserStore
	Messages      *MessageStore
	Notifications *NotificationStore
	Bookings      *BookingStore
	Posts         *PostStore
	Connections   *ConnectionStore
}

// Open opens BadgerDB at the configured path (or in memory) and wires up
// all entity stores.
func Open(cfg *config.StorageConfig) (*Stores, error) {
	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		opts = badger.DefaultOptions(cfg.Path)
	}
	// Badger's own logger is chatty at INFO; route it through zerolog at
	// the levels we actually want.
	opts = opts.WithLogger(badgerLogger{})

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger at %q: %w", cfg.Path, err)
	}

	return &Stores{
		db:            db,
		Users:         &UserStore{db: db},
		Messages:      &MessageStore{db: db},
		Notifications: &NotificationStore{db: db},
		Bookings:      &BookingStore{db: db},
		Posts:         &PostStore{db: db},
		Connections:   &ConnectionStore{db: db},
	}, nil
}

// Close closes the underlying badger handle.
func (s *Stores) Close() error {
	return s.db.Close()
}

// Ping verifies the store answers a read. Used by the readiness probe.
func (s *Stores) Ping(_ context.Context) error {
	if s.db.IsClosed() {
		return errors.New("store is closed")
	}
	return s.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get([]byte("ping"))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		return err
	})
}

// badgerLogger adapts badger's logger interface to zerolog.
type badgerLogger struct{}

func (badgerLogger) Errorf(format string, args ...interface{}) {
	logging.Error().Msgf("badger: "+format, args...)
}

func (badgerLogger) Warningf(format string, args ...interface{}) {
	logging.Warn().Msgf("badger: "+format, args...)
}

func (badgerLogger) Infof(format string, args ...interface{}) {
	logging.Debug().Msgf("badger: "+format, args...)
}

func (badgerLogger) Debugf(format string, args ...interface{}) {
	logging.Debug().Msgf("badger: "+format, args...)
}

// seqKey returns a lexically sortable, unique key segment: zero-padded
// nanosecond timestamp plus a short uniquifier. Keys written later always
// sort after keys written earlier, so prefix scans yield chronological order.
func seqKey(t time.Time, uniquifier string) string {
	suffix := uniquifier
	if len(suffix) > 8 {
		suffix = suffix[:8]
	}
	return fmt.Sprintf("%020d:%s", t.UnixNano(), suffix)
}

// txnRetryLimit bounds re-runs of read-modify-write transactions. Badger
// detects conflicts optimistically at commit time; the loser returns
// badger.ErrConflict and must be re-run against the committed state.
const txnRetryLimit = 10

// updateWithRetry runs fn as an update transaction, re-running it when the
// commit loses badger's conflict detection. fn must reset any state it
// captures: a retried run starts from a fresh read.
func updateWithRetry(db *badger.DB, fn func(txn *badger.Txn) error) error {
	var err error
	for attempt := 0; attempt < txnRetryLimit; attempt++ {
		err = db.Update(fn)
		if !errors.Is(err, badger.ErrConflict) {
			return err
		}
	}
	return err
}

// setJSON marshals v and writes it at key inside txn.
func setJSON(txn *badger.Txn, key []byte, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", key, err)
	}
	return txn.Set(key, data)
}

// getJSON reads key inside txn and unmarshals it into v.
// Returns ErrNotFound when the key is absent.
func getJSON(txn *badger.Txn, key []byte, v interface{}) error {
	item, err := txn.Get(key)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("get %s: %w", key, err)
	}
	return item.Value(func(val []byte) error {
		return json.Unmarshal(val, v)
	})
}

// prefixScanReverse iterates all keys under prefix from newest to oldest,
// invoking fn with each value. fn returns false to stop early.
func prefixScanReverse(txn *badger.Txn, prefix []byte, fn func(val []byte) (bool, error)) error {
	itOpts := badger.DefaultIteratorOptions
	itOpts.Reverse = true
	itOpts.Prefix = prefix
	it := txn.NewIterator(itOpts)
	defer it.Close()

	// In reverse mode, seek to just past the end of the prefix range.
	seek := append(append([]byte{}, prefix...), 0xFF)
	for it.Seek(seek); it.ValidForPrefix(prefix); it.Next() {
		var proceed bool
		err := it.Item().Value(func(val []byte) error {
			var innerErr error
			proceed, innerErr = fn(val)
			return innerErr
		})
		if err != nil {
			return err
		}
		if !proceed {
			return nil
		}
	}
	return nil
}

// prefixScan iterates all keys under prefix from oldest to newest.
func prefixScan(txn *badger.Txn, prefix []byte, fn func(val []byte) (bool, error)) error {
	itOpts := badger.DefaultIteratorOptions
	itOpts.Prefix = prefix
	it := txn.NewIterator(itOpts)
	defer it.Close()

	for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
		var proceed bool
		err := it.Item().Value(func(val []byte) error {
			var innerErr error
			proceed, innerErr = fn(val)
			return innerErr
		})
		if err != nil {
			return err
		}
		if !proceed {
			return nil
		}
	}
	return nil
}
