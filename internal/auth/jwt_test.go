// Huddle - Professional Networking and Booking Platform
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/huddle

package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/tomtom215/huddle/internal/config"
)

func newTestManager(t *testing.T, timeout time.Duration) *JWTManager {
	t.Helper()
	m, err := NewJWTManager(&config.SecurityConfig{
		JWTSecret:      "0123456789abcdef0123456789abcdef",
		SessionTimeout: timeout,
	})
	if err != nil {
		t.Fatalf("NewJWTManager failed: %v", err)
	}
	return m
}

func TestNewJWTManagerRequiresSecret(t *testing.T) {
	_, err := NewJWTManager(&config.SecurityConfig{JWTSecret: ""})
	if err == nil {
		t.Fatal("empty secret accepted")
	}
}

func TestGenerateAndValidateToken(t *testing.T) {
	m := newTestManager(t, time.Hour)

	token, err := m.GenerateToken("u1", "Alice", "provider")
	if err != nil {
		t.Fatalf("GenerateToken failed: %v", err)
	}

	claims, err := m.ValidateToken(token)
	if err != nil {
		t.Fatalf("ValidateToken failed: %v", err)
	}
	if claims.UserID() != "u1" {
		t.Errorf("UserID = %q, want u1", claims.UserID())
	}
	if claims.Name != "Alice" || claims.Role != "provider" {
		t.Errorf("claims = %+v", claims)
	}
}

func TestValidateTokenExpired(t *testing.T) {
	m := newTestManager(t, -time.Minute)

	token, err := m.GenerateToken("u1", "Alice", "member")
	if err != nil {
		t.Fatalf("GenerateToken failed: %v", err)
	}

	_, err = m.ValidateToken(token)
	if !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expired token error = %v, want ErrInvalidToken", err)
	}
}

func TestValidateTokenTampered(t *testing.T) {
	m := newTestManager(t, time.Hour)
	token, _ := m.GenerateToken("u1", "Alice", "member")

	if _, err := m.ValidateToken(token + "x"); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("tampered token error = %v, want ErrInvalidToken", err)
	}
	if _, err := m.ValidateToken("not-a-token"); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("garbage token error = %v, want ErrInvalidToken", err)
	}
}

func TestValidateTokenWrongSecret(t *testing.T) {
	m := newTestManager(t, time.Hour)

	other, _ := NewJWTManager(&config.SecurityConfig{
		JWTSecret:      "ffffffffffffffffffffffffffffffff",
		SessionTimeout: time.Hour,
	})
	token, _ := other.GenerateToken("u1", "Alice", "member")

	if _, err := m.ValidateToken(token); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("foreign-secret token error = %v, want ErrInvalidToken", err)
	}
}

func TestValidateTokenRejectsUnsignedAlg(t *testing.T) {
	m := newTestManager(t, time.Hour)

	// Token signed with "none" must never validate.
	unsigned := jwt.NewWithClaims(jwt.SigningMethodNone, &Claims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: "u1"},
	})
	tokenString, err := unsigned.SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("failed to build none-alg token: %v", err)
	}

	if _, err := m.ValidateToken(tokenString); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("none-alg token error = %v, want ErrInvalidToken", err)
	}
}

func TestValidateTokenMissingSubject(t *testing.T) {
	m := newTestManager(t, time.Hour)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{
		Name: "NoSubject",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	signed, err := token.SignedString([]byte("0123456789abcdef0123456789abcdef"))
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}

	if _, err := m.ValidateToken(signed); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("subject-less token error = %v, want ErrInvalidToken", err)
	}
}
