// Temimi Realtime - Messaging and Danmu Synchronization Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/temimi-realtime

package config

import (
	"strings"
	"testing"
	"time"
)

func TestDefaultConfig_Valid(t *testing.T) {
	if err := defaultConfig().Validate(); err != nil {
		t.Fatalf("defaultConfig().Validate() = %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"wss base", func(c *Config) { c.Realtime.WSBase = "wss://api.example.com/ws" }, ""},
		{"https base accepted", func(c *Config) { c.Realtime.WSBase = "https://api.example.com" }, ""},
		{"empty ws base", func(c *Config) { c.Realtime.WSBase = "" }, "TEMIMI_WS_BASE is required"},
		{"ftp ws base", func(c *Config) { c.Realtime.WSBase = "ftp://x" }, "scheme"},
		{"ws base with query", func(c *Config) { c.Realtime.WSBase = "ws://x/?token=a" }, "query"},
		{"pong shorter than ping", func(c *Config) { c.Realtime.PongWait = c.Realtime.PingInterval }, "TEMIMI_PONG_WAIT"},
		{"pings disabled", func(c *Config) { c.Realtime.PingInterval, c.Realtime.PongWait = 0, 0 }, ""},
		{"zero queue", func(c *Config) { c.Realtime.QueueSize = 0 }, "TEMIMI_QUEUE_SIZE"},
		{"ws api base", func(c *Config) { c.API.BaseURL = "ws://x" }, "TEMIMI_API_BASE_URL"},
		{"zero api timeout", func(c *Config) { c.API.Timeout = 0 }, "TEMIMI_API_TIMEOUT"},
		{"rate limit without burst", func(c *Config) { c.API.RateBurst = 0 }, "TEMIMI_API_RATE_BURST"},
		{"rate limit disabled", func(c *Config) { c.API.RateLimit, c.API.RateBurst = 0, 0 }, ""},
		{"badger without secret", func(c *Config) { c.Session.Store = "badger" }, "TEMIMI_TOKEN_SECRET"},
		{"badger with secret", func(c *Config) { c.Session.Store, c.Session.TokenSecret = "badger", "s" }, ""},
		{"unknown store", func(c *Config) { c.Session.Store = "redis" }, "TEMIMI_SESSION_STORE"},
		{"reconnect max below initial", func(c *Config) {
			c.Reconnect.Enabled = true
			c.Reconnect.MaxDelay = time.Millisecond
		}, "max_delay"},
		{"reconnect multiplier", func(c *Config) {
			c.Reconnect.Enabled = true
			c.Reconnect.Multiplier = 0.5
		}, "multiplier"},
		{"reconnect disabled ignores values", func(c *Config) { c.Reconnect.MaxDelay = 0 }, ""},
		{"status bad addr", func(c *Config) { c.Status.Addr = "7071" }, "TEMIMI_STATUS_ADDR"},
		{"status disabled ignores addr", func(c *Config) { c.Status.Enabled, c.Status.Addr = false, "" }, ""},
		{"bad log level", func(c *Config) { c.Logging.Level = "loud" }, "LOG_LEVEL"},
		{"bad log format", func(c *Config) { c.Logging.Format = "xml" }, "LOG_FORMAT"},
		{"page size", func(c *Config) { c.Moderation.PageSize = 0 }, "page_size"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate() = %v, want nil", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("Validate() = %v, want error containing %q", err, tt.wantErr)
			}
		})
	}
}
