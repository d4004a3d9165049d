// Huddle - Professional Networking and Booking Platform
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/huddle

// Package models defines the domain entities shared by the stores, the REST
// handlers, and the realtime layer.
package models

import "time"

// User roles.
const (
	RoleMember   = "member"
	RoleProvider = "provider"
)

// User is a platform account.
//
// PasswordHash is a bcrypt hash and is never serialized to clients.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Name         string    `json:"name"`
	Headline     string    `json:"headline,omitempty"`
	Avatar       string    `json:"avatar,omitempty"`
	Role         string    `json:"role"`
	Active       bool      `json:"active"`
	CreatedAt    time.Time `json:"created_at"`
}

// IdentitySnapshot is the subset of a user's profile attached to a realtime
// session at connect time. It is captured once and not refreshed while the
// session lives.
type IdentitySnapshot struct {
	UserID string `json:"user_id"`
	Name   string `json:"name"`
	Avatar string `json:"avatar,omitempty"`
	Role   string `json:"role"`
}

// Snapshot captures the identity fields the realtime layer needs.
func (u *User) Snapshot() IdentitySnapshot {
	return IdentitySnapshot{
		UserID: u.ID,
		Name:   u.Name,
		Avatar: u.Avatar,
		Role:   u.Role,
	}
}

// Public returns the user stripped to fields safe to serve to other users.
func (u *User) Public() *User {
	return &User{
		ID:        u.ID,
		Name:      u.Name,
		Headline:  u.Headline,
		Avatar:    u.Avatar,
		Role:      u.Role,
		Active:    u.Active,
		CreatedAt: u.CreatedAt,
	}
}
