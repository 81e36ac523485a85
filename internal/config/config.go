// Temimi Realtime - Messaging and Danmu Synchronization Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/temimi-realtime

package config

import "time"

// Config is the complete daemon configuration.
type Config struct {
	Realtime   RealtimeConfig   `koanf:"realtime"`
	API        APIConfig        `koanf:"api"`
	Session    SessionConfig    `koanf:"session"`
	Reconnect  ReconnectConfig  `koanf:"reconnect"`
	Status     StatusConfig     `koanf:"status"`
	Logging    LoggingConfig    `koanf:"logging"`
	Video      VideoConfig      `koanf:"video"`
	Moderation ModerationConfig `koanf:"moderation"`
}

// RealtimeConfig configures the websocket transport.
type RealtimeConfig struct {
	// WSBase is the ws:// or wss:// base of the backend. http and https are
	// accepted and mapped to ws and wss.
	WSBase string `koanf:"ws_base"`

	PingInterval     time.Duration `koanf:"ping_interval"`
	PongWait         time.Duration `koanf:"pong_wait"`
	WriteWait        time.Duration `koanf:"write_wait"`
	HandshakeTimeout time.Duration `koanf:"handshake_timeout"`

	// ReadLimit caps one inbound frame, in bytes.
	ReadLimit int64 `koanf:"read_limit"`

	// QueueSize is the inbound frame queue shared by both channels.
	QueueSize int `koanf:"queue_size"`
}

// APIConfig configures the REST client.
type APIConfig struct {
	BaseURL string        `koanf:"base_url"`
	Timeout time.Duration `koanf:"timeout"`

	// RateLimit is requests per second; zero disables limiting.
	RateLimit float64 `koanf:"rate_limit"`
	RateBurst int     `koanf:"rate_burst"`

	// BreakerFailures consecutive failures open the circuit for
	// BreakerTimeout.
	BreakerFailures uint32        `koanf:"breaker_failures"`
	BreakerTimeout  time.Duration `koanf:"breaker_timeout"`
}

// SessionConfig selects where the session token survives restarts.
type SessionConfig struct {
	// Store is "memory" or "badger".
	Store string `koanf:"store"`

	// StorePath is the badger directory. Empty opens an in-memory badger.
	StorePath string `koanf:"store_path"`

	// TokenSecret keys token-at-rest encryption. Required for badger.
	TokenSecret string `koanf:"token_secret"`
}

// ReconnectConfig is the caller-level reconnect policy. The realtime core
// never reconnects on its own.
type ReconnectConfig struct {
	Enabled        bool          `koanf:"enabled"`
	InitialDelay   time.Duration `koanf:"initial_delay"`
	MaxDelay       time.Duration `koanf:"max_delay"`
	Multiplier     float64       `koanf:"multiplier"`
	ConnectTimeout time.Duration `koanf:"connect_timeout"`
	CheckInterval  time.Duration `koanf:"check_interval"`
}

// StatusConfig configures the local HTTP status surface.
type StatusConfig struct {
	Enabled           bool          `koanf:"enabled"`
	Addr              string        `koanf:"addr"`
	CORSOrigins       []string      `koanf:"cors_origins"`
	RateLimitRequests int           `koanf:"rate_limit_requests"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	ShutdownTimeout   time.Duration `koanf:"shutdown_timeout"`
}

// LoggingConfig mirrors logging.Config.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// VideoConfig names a video whose danmu channel is joined at startup.
type VideoConfig struct {
	ID string `koanf:"id"`
}

// ModerationConfig drives the admin purge tooling.
type ModerationConfig struct {
	Keywords []string `koanf:"keywords"`
	PageSize int      `koanf:"page_size"`
}
