// Huddle - Professional Networking and Booking Platform
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/huddle

package api

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/tomtom215/huddle/internal/auth"
	"github.com/tomtom215/huddle/internal/logging"
	"github.com/tomtom215/huddle/internal/models"
)

// RegisterRequest creates a new account.
type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=72"`
	Name     string `json:"name" validate:"required,max=120"`
	Role     string `json:"role" validate:"omitempty,oneof=member provider"`
	Headline string `json:"headline" validate:"omitempty,max=200"`
}

// LoginRequest authenticates an existing account.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// TokenResponse carries a fresh credential and its owner's public profile.
type TokenResponse struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      *models.User `json:"user"`
}

// Register creates an account and returns a signed token so the client
// can connect immediately.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	started := time.Now()

	var req RegisterRequest
	if !decodeBody(w, r, &req) {
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), h.cfg.Security.BcryptCost)
	if err != nil {
		respondError(w, http.StatusInternalServerError, models.ErrCodeInternal, "failed to process credentials", err)
		return
	}

	role := req.Role
	if role == "" {
		role = models.RoleMember
	}

	user := &models.User{
		ID:           uuid.New().String(),
		Email:        req.Email,
		PasswordHash: string(hash),
		Name:         req.Name,
		Headline:     req.Headline,
		Role:         role,
		Active:       true,
		CreatedAt:    time.Now().UTC(),
	}
	if err := h.stores.Users.Create(r.Context(), user); err != nil {
		respondStoreError(w, err)
		return
	}

	logging.Info().Str("user_id", user.ID).Msg("user registered")
	h.respondWithToken(w, user, http.StatusCreated, started)
}

// Login verifies credentials and issues a token. Unknown email and wrong
// password are indistinguishable to the caller.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	started := time.Now()

	var req LoginRequest
	if !decodeBody(w, r, &req) {
		return
	}

	user, err := h.stores.Users.GetByEmail(r.Context(), req.Email)
	if err != nil || !user.Active {
		respondError(w, http.StatusUnauthorized, models.ErrCodeUnauthorized, "invalid credentials", nil)
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		respondError(w, http.StatusUnauthorized, models.ErrCodeUnauthorized, "invalid credentials", nil)
		return
	}

	logging.Info().Str("user_id", user.ID).Msg("user logged in")
	h.respondWithToken(w, user, http.StatusOK, started)
}

// Me returns the authenticated user's own record.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	started := time.Now()

	claims := auth.ClaimsFromContext(r.Context())
	if claims == nil {
		respondError(w, http.StatusUnauthorized, models.ErrCodeUnauthorized, "authentication required", nil)
		return
	}

	user, err := h.stores.Users.GetByID(r.Context(), claims.UserID())
	if err != nil {
		respondStoreError(w, err)
		return
	}
	respondData(w, http.StatusOK, user, started)
}

func (h *Handler) respondWithToken(w http.ResponseWriter, user *models.User, status int, started time.Time) {
	token, err := h.jwt.GenerateToken(user.ID, user.Name, user.Role)
	if err != nil {
		respondError(w, http.StatusInternalServerError, models.ErrCodeInternal, "failed to issue token", err)
		return
	}
	respondData(w, status, TokenResponse{
		Token:     token,
		ExpiresAt: time.Now().UTC().Add(h.cfg.Security.SessionTimeout),
		User:      user.Public(),
	}, started)
}
