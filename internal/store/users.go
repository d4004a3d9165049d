// Huddle - Professional Networking and Booking Platform
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/huddle

package store

import (
	"context"
	"errors"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/tomtom215/huddle/internal/metrics"
	"github.com/tomtom215/huddle/internal/models"
)

// Key prefixes for user records.
const (
	userKeyPrefix      = "user:"
	userEmailKeyPrefix = "useremail:"
)

// UserStore persists user accounts. Emails are unique via a secondary index
// written in the same transaction as the user record.
type UserStore struct {
	db *badger.DB
}

// Create inserts a new user. Returns ErrDuplicateEmail if the email index
// already has an entry.
func (s *UserStore) Create(ctx context.Context, user *models.User) error {
	start := time.Now()
	err := updateWithRetry(s.db, func(txn *badger.Txn) error {
		emailKey := []byte(userEmailKeyPrefix + user.Email)
		if _, err := txn.Get(emailKey); err == nil {
			return ErrDuplicateEmail
		} else if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}

		if err := setJSON(txn, []byte(userKeyPrefix+user.ID), user); err != nil {
			return err
		}
		return txn.Set(emailKey, []byte(user.ID))
	})
	metrics.ObserveStoreOp("users", "create", start, err)
	return err
}

// GetByID returns the user with the given ID.
func (s *UserStore) GetByID(ctx context.Context, id string) (*models.User, error) {
	start := time.Now()
	var user models.User
	err := s.db.View(func(txn *badger.Txn) error {
		return getJSON(txn, []byte(userKeyPrefix+id), &user)
	})
	metrics.ObserveStoreOp("users", "get", start, err)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetByEmail returns the user registered under email.
func (s *UserStore) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	start := time.Now()
	var user models.User
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(userEmailKeyPrefix + email))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		var id string
		if err := item.Value(func(val []byte) error {
			id = string(val)
			return nil
		}); err != nil {
			return err
		}
		return getJSON(txn, []byte(userKeyPrefix+id), &user)
	})
	metrics.ObserveStoreOp("users", "get_by_email", start, err)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// FindActive returns the user only if the account exists and is active.
// This is the lookup the realtime authentication gate performs, so a token
// for a deactivated account can never open a session.
func (s *UserStore) FindActive(ctx context.Context, id string) (*models.User, error) {
	user, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !user.Active {
		return nil, ErrNotFound
	}
	return user, nil
}

// Update rewrites the user record. The email index is not touched; email
// changes are not supported.
func (s *UserStore) Update(ctx context.Context, user *models.User) error {
	start := time.Now()
	err := updateWithRetry(s.db, func(txn *badger.Txn) error {
		if err := getJSON(txn, []byte(userKeyPrefix+user.ID), &models.User{}); err != nil {
			return err
		}
		return setJSON(txn, []byte(userKeyPrefix+user.ID), user)
	})
	metrics.ObserveStoreOp("users", "update", start, err)
	return err
}
