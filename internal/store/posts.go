// Huddle - Professional Networking and Booking Platform
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/huddle

package store

import (
	"context"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/tomtom215/huddle/internal/metrics"
	"github.com/tomtom215/huddle/internal/models"
)

const (
	postKeyPrefix     = "post:"
	postFeedKeyPrefix = "postfeed:"
)

// PostStore persists feed posts. A feed index keyed by creation time serves
// the global feed newest-first.
type PostStore struct {
	db *badger.DB
}

// Create inserts a post and its feed index entry.
func (s *PostStore) Create(ctx context.Context, p *models.Post) error {
	start := time.Now()
	err := s.db.Update(func(txn *badger.Txn) error {
		if err := setJSON(txn, []byte(postKeyPrefix+p.ID), p); err != nil {
			return err
		}
		feedKey := []byte(postFeedKeyPrefix + seqKey(p.CreatedAt, p.ID))
		return txn.Set(feedKey, []byte(p.ID))
	})
	metrics.ObserveStoreOp("posts", "create", start, err)
	return err
}

// Get returns the post with the given ID.
func (s *PostStore) Get(ctx context.Context, id string) (*models.Post, error) {
	start := time.Now()
	var p models.Post
	err := s.db.View(func(txn *badger.Txn) error {
		return getJSON(txn, []byte(postKeyPrefix+id), &p)
	})
	metrics.ObserveStoreOp("posts", "get", start, err)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// Feed returns up to limit posts, newest first.
func (s *PostStore) Feed(ctx context.Context, limit int) ([]*models.Post, error) {
	start := time.Now()
	prefix := []byte(postFeedKeyPrefix)

	var out []*models.Post
	err := s.db.View(func(txn *badger.Txn) error {
		return prefixScanReverse(txn, prefix, func(val []byte) (bool, error) {
			var p models.Post
			if err := getJSON(txn, []byte(postKeyPrefix+string(val)), &p); err != nil {
				return false, err
			}
			out = append(out, &p)
			return limit <= 0 || len(out) < limit, nil
		})
	})
	metrics.ObserveStoreOp("posts", "feed", start, err)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ToggleLike adds userID to the post's likes, or removes it if already
// present. Returns the updated post and whether the result is a like (true)
// or an unlike (false).
func (s *PostStore) ToggleLike(ctx context.Context, postID, userID string) (*models.Post, bool, error) {
	start := time.Now()
	var p models.Post
	liked := false
	err := updateWithRetry(s.db, func(txn *badger.Txn) error {
		p, liked = models.Post{}, false
		key := []byte(postKeyPrefix + postID)
		if err := getJSON(txn, key, &p); err != nil {
			return err
		}

		if p.LikedBy(userID) {
			kept := p.Likes[:0]
			for _, id := range p.Likes {
				if id != userID {
					kept = append(kept, id)
				}
			}
			p.Likes = kept
		} else {
			p.Likes = append(p.Likes, userID)
			liked = true
		}
		p.UpdatedAt = time.Now().UTC()
		return setJSON(txn, key, &p)
	})
	metrics.ObserveStoreOp("posts", "toggle_like", start, err)
	if err != nil {
		return nil, false, err
	}
	return &p, liked, nil
}

// AddComment appends a comment to the post and returns the updated post.
func (s *PostStore) AddComment(ctx context.Context, postID string, comment models.Comment) (*models.Post, error) {
	start := time.Now()
	var p models.Post
	err := updateWithRetry(s.db, func(txn *badger.Txn) error {
		p = models.Post{}
		key := []byte(postKeyPrefix + postID)
		if err := getJSON(txn, key, &p); err != nil {
			return err
		}
		p.Comments = append(p.Comments, comment)
		p.UpdatedAt = time.Now().UTC()
		return setJSON(txn, key, &p)
	})
	metrics.ObserveStoreOp("posts", "add_comment", start, err)
	if err != nil {
		return nil, err
	}
	return &p, nil
}
