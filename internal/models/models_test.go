// Huddle - Professional Networking and Booking Platform
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/huddle

package models

import (
	"strings"
	"testing"
)

func TestUserSnapshot(t *testing.T) {
	u := &User{
		ID:           "u1",
		Email:        "alice@example.com",
		PasswordHash: "secret-hash",
		Name:         "Alice",
		Avatar:       "https://cdn.example.com/a.png",
		Role:         RoleProvider,
	}

	snap := u.Snapshot()
	if snap.UserID != "u1" || snap.Name != "Alice" || snap.Role != RoleProvider {
		t.Errorf("unexpected snapshot: %+v", snap)
	}
}

func TestUserPublicStripsCredentials(t *testing.T) {
	u := &User{ID: "u1", Email: "alice@example.com", PasswordHash: "hash", Name: "Alice"}
	pub := u.Public()
	if pub.Email != "" || pub.PasswordHash != "" {
		t.Errorf("public view leaked credentials: %+v", pub)
	}
	if pub.ID != "u1" || pub.Name != "Alice" {
		t.Errorf("public view lost profile fields: %+v", pub)
	}
}

func TestMessagePreview(t *testing.T) {
	short := &Message{Content: "hi there"}
	if got := short.Preview(); got != "hi there" {
		t.Errorf("Preview() = %q, want unchanged content", got)
	}

	long := &Message{Content: strings.Repeat("x", 200)}
	got := long.Preview()
	if len([]rune(got)) != previewLimit+1 { // limit runes plus ellipsis
		t.Errorf("preview length = %d runes, want %d", len([]rune(got)), previewLimit+1)
	}
	if !strings.HasSuffix(got, "…") {
		t.Errorf("preview %q missing ellipsis", got)
	}
}

func TestBookingCounterpart(t *testing.T) {
	b := &Booking{CustomerID: "c1", ProviderID: "p1"}

	if got := b.Counterpart("c1"); got != "p1" {
		t.Errorf("Counterpart(customer) = %q, want p1", got)
	}
	if got := b.Counterpart("p1"); got != "c1" {
		t.Errorf("Counterpart(provider) = %q, want c1", got)
	}
	if got := b.Counterpart("stranger"); got != "" {
		t.Errorf("Counterpart(stranger) = %q, want empty", got)
	}
}

func TestValidBookingStatus(t *testing.T) {
	for _, s := range []string{
		BookingStatusPending, BookingStatusConfirmed, BookingStatusDeclined,
		BookingStatusCancelled, BookingStatusCompleted,
	} {
		if !ValidBookingStatus(s) {
			t.Errorf("ValidBookingStatus(%q) = false", s)
		}
	}
	if ValidBookingStatus("tentative") {
		t.Error("ValidBookingStatus accepted unknown status")
	}
}

func TestPostLikedBy(t *testing.T) {
	p := &Post{Likes: []string{"u1", "u2"}}
	if !p.LikedBy("u1") {
		t.Error("LikedBy(u1) = false, want true")
	}
	if p.LikedBy("u3") {
		t.Error("LikedBy(u3) = true, want false")
	}
}

func TestConnectionInvolves(t *testing.T) {
	c := &Connection{RequesterID: "r1", RecipientID: "t1"}
	if !c.Involves("r1") || !c.Involves("t1") {
		t.Error("Involves should be true for both parties")
	}
	if c.Involves("u9") {
		t.Error("Involves(u9) = true, want false")
	}
}
