// Huddle - Professional Networking and Booking Platform
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/huddle

// Package config loads and validates application configuration.
//
// Configuration is layered with koanf: struct defaults first, then an
// optional YAML file, then environment variables (highest priority). See
// koanf.go for the loading pipeline and the environment variable mapping.
package config

import (
	"fmt"
	"time"
)

// Config is the root configuration for the Huddle server.
type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Security SecurityConfig `koanf:"security"`
	Storage  StorageConfig  `koanf:"storage"`
	Realtime RealtimeConfig `koanf:"realtime"`
	API      APIConfig      `koanf:"api"`
	Logging  LoggingConfig  `koanf:"logging"`
}

// ServerConfig holds HTTP listener settings.
type ServerConfig struct {
	Port            int           `koanf:"port"`
	Host            string        `koanf:"host"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
	// Environment is "development", "staging", or "production".
	// Production enforces the stricter validation rules below.
	Environment string `koanf:"environment"`
}

// SecurityConfig holds authentication and rate limiting settings.
type SecurityConfig struct {
	// JWTSecret signs and verifies bearer tokens (HS256). Required; must be
	// at least 32 characters in production.
	JWTSecret      string        `koanf:"jwt_secret"`
	SessionTimeout time.Duration `koanf:"session_timeout"`
	BcryptCost     int           `koanf:"bcrypt_cost"`

	RateLimitReqs     int           `koanf:"rate_limit_reqs"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`

	CORSOrigins []string `koanf:"cors_origins"`
}

// StorageConfig holds BadgerDB settings.
type StorageConfig struct {
	// Path is the BadgerDB directory. Ignored when InMemory is true.
	Path string `koanf:"path"`
	// InMemory runs badger without disk persistence (tests, development).
	InMemory bool `koanf:"in_memory"`
}

// RealtimeConfig holds websocket and fan-out tuning.
type RealtimeConfig struct {
	// SendBuffer is the per-session outbound queue length. A session whose
	// queue is full at emission time is disconnected rather than blocked on.
	SendBuffer int `koanf:"send_buffer"`

	MaxMessageSize   int64         `koanf:"max_message_size"`
	WriteWait        time.Duration `koanf:"write_wait"`
	PongWait         time.Duration `koanf:"pong_wait"`
	HandshakeTimeout time.Duration `koanf:"handshake_timeout"`

	// EventRate/EventBurst bound inbound events per session (token bucket).
	// Zero EventRate disables the limiter.
	EventRate  float64 `koanf:"event_rate"`
	EventBurst int     `koanf:"event_burst"`
}

// APIConfig holds pagination settings.
type APIConfig struct {
	DefaultPageSize int `koanf:"default_page_size"`
	MaxPageSize     int `koanf:"max_page_size"`
}

// LoggingConfig holds log output settings.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// IsProduction reports whether the server runs in production mode.
func (c *Config) IsProduction() bool {
	return c.Server.Environment == "production"
}

// Validate checks the configuration for values that would make the server
// unusable or unsafe. Called by LoadWithKoanf after all layers are applied.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	}

	if c.Security.JWTSecret == "" {
		return fmt.Errorf("security.jwt_secret is required (set JWT_SECRET)")
	}
	if c.IsProduction() && len(c.Security.JWTSecret) < 32 {
		return fmt.Errorf("security.jwt_secret must be at least 32 characters in production")
	}
	if c.Security.SessionTimeout <= 0 {
		return fmt.Errorf("security.session_timeout must be positive")
	}

	if !c.Storage.InMemory && c.Storage.Path == "" {
		return fmt.Errorf("storage.path is required unless storage.in_memory is set")
	}

	if c.Realtime.SendBuffer < 1 {
		return fmt.Errorf("realtime.send_buffer must be at least 1")
	}
	if c.Realtime.PongWait <= 0 || c.Realtime.WriteWait <= 0 {
		return fmt.Errorf("realtime.pong_wait and realtime.write_wait must be positive")
	}

	if c.API.DefaultPageSize < 1 || c.API.MaxPageSize < c.API.DefaultPageSize {
		return fmt.Errorf("api page sizes invalid: default=%d max=%d",
			c.API.DefaultPageSize, c.API.MaxPageSize)
	}

	return nil
}
