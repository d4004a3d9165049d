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

// PostRequest publishes a feed post.
type PostRequest struct {
	Content string `json:"content" validate:"required,max=8000"`
}

// CommentRequest comments on a post.
type CommentRequest struct {
	Content string `json:"content" validate:"required,max=2000"`
}

// CreatePost publishes a post to the feed.
func (h *Handler) CreatePost(w http.ResponseWriter, r *http.Request) {
	started := time.Now()
	claims := auth.ClaimsFromContext(r.Context())

	var req PostRequest
	if !decodeBody(w, r, &req) {
		return
	}

	post := &models.Post{
		ID:        uuid.New().String(),
		AuthorID:  claims.UserID(),
		Content:   req.Content,
		CreatedAt: time.Now().UTC(),
	}
	if err := h.stores.Posts.Create(r.Context(), post); err != nil {
		respondStoreError(w, err)
		return
	}
	respondData(w, http.StatusCreated, post, started)
}

// Feed serves the global post feed, newest first.
func (h *Handler) Feed(w http.ResponseWriter, r *http.Request) {
	started := time.Now()

	limit := h.pageLimit(intQuery(r, "limit", 0))
	posts, err := h.stores.Posts.Feed(r.Context(), limit)
	if err != nil {
		respondStoreError(w, err)
		return
	}
	respondData(w, http.StatusOK, posts, started)
}

// GetPost serves a single post.
func (h *Handler) GetPost(w http.ResponseWriter, r *http.Request) {
	started := time.Now()

	post, err := h.stores.Posts.Get(r.Context(), chi.URLParam(r, "postID"))
	if err != nil {
		respondStoreError(w, err)
		return
	}
	respondData(w, http.StatusOK, post, started)
}

// LikePost toggles the authenticated user's like. Liking (not unliking)
// someone else's post notifies its author.
func (h *Handler) LikePost(w http.ResponseWriter, r *http.Request) {
	started := time.Now()
	claims := auth.ClaimsFromContext(r.Context())

	post, liked, err := h.stores.Posts.ToggleLike(r.Context(), chi.URLParam(r, "postID"), claims.UserID())
	if err != nil {
		respondStoreError(w, err)
		return
	}

	if liked && post.AuthorID != claims.UserID() {
		h.hub.NotifyUser(r.Context(), post.AuthorID, models.NotificationTypePostLike,
			claims.Name, "liked your post", map[string]string{"post_id": post.ID})
	}

	respondData(w, http.StatusOK, map[string]interface{}{"post": post, "liked": liked}, started)
}

// CommentPost appends a comment and notifies the post's author.
func (h *Handler) CommentPost(w http.ResponseWriter, r *http.Request) {
	started := time.Now()
	claims := auth.ClaimsFromContext(r.Context())

	var req CommentRequest
	if !decodeBody(w, r, &req) {
		return
	}

	comment := models.Comment{
		ID:        uuid.New().String(),
		AuthorID:  claims.UserID(),
		Content:   req.Content,
		CreatedAt: time.Now().UTC(),
	}
	post, err := h.stores.Posts.AddComment(r.Context(), chi.URLParam(r, "postID"), comment)
	if err != nil {
		respondStoreError(w, err)
		return
	}

	if post.AuthorID != claims.UserID() {
		h.hub.NotifyUser(r.Context(), post.AuthorID, models.NotificationTypePostComment,
			claims.Name, "commented on your post", map[string]string{
				"post_id":    post.ID,
				"comment_id": comment.ID,
			})
	}

	respondData(w, http.StatusCreated, post, started)
}
