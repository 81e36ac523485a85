// Temimi Realtime - Messaging and Danmu Synchronization Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/temimi-realtime

package config

import (
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/tomtom215/temimi-realtime/internal/logging"
)

// Validate checks every section and returns the first problem found.
func (c *Config) Validate() error {
	validators := []func() error{
		c.validateRealtime,
		c.validateAPI,
		c.validateSession,
		c.validateReconnect,
		c.validateStatus,
		c.validateLogging,
		c.validateModeration,
	}
	for _, v := range validators {
		if err := v(); err != nil {
			return err
		}
	}
	return nil
}

func (c *Config) validateRealtime() error {
	r := &c.Realtime
	if err := validateWSURL(r.WSBase, "TEMIMI_WS_BASE"); err != nil {
		return err
	}
	if r.PingInterval < 0 || r.PongWait < 0 {
		return errors.New("TEMIMI_PING_INTERVAL and TEMIMI_PONG_WAIT must not be negative")
	}
	if r.PingInterval > 0 && r.PongWait > 0 && r.PongWait <= r.PingInterval {
		return fmt.Errorf("TEMIMI_PONG_WAIT (%s) must be longer than TEMIMI_PING_INTERVAL (%s)", r.PongWait, r.PingInterval)
	}
	if r.WriteWait <= 0 {
		return errors.New("TEMIMI_WRITE_WAIT must be positive")
	}
	if r.ReadLimit <= 0 {
		return errors.New("TEMIMI_READ_LIMIT must be positive")
	}
	if r.QueueSize <= 0 {
		return errors.New("TEMIMI_QUEUE_SIZE must be positive")
	}
	return nil
}

func (c *Config) validateAPI() error {
	if err := validateHTTPURL(c.API.BaseURL, "TEMIMI_API_BASE_URL"); err != nil {
		return err
	}
	if c.API.Timeout <= 0 {
		return errors.New("TEMIMI_API_TIMEOUT must be positive")
	}
	if c.API.RateLimit < 0 {
		return errors.New("TEMIMI_API_RATE_LIMIT must not be negative")
	}
	if c.API.RateLimit > 0 && c.API.RateBurst < 1 {
		return errors.New("TEMIMI_API_RATE_BURST must be at least 1 when rate limiting is enabled")
	}
	return nil
}

func (c *Config) validateSession() error {
	switch strings.ToLower(c.Session.Store) {
	case "", "memory":
		return nil
	case "badger":
		if c.Session.TokenSecret == "" {
			return errors.New("TEMIMI_TOKEN_SECRET is required when TEMIMI_SESSION_STORE=badger")
		}
		return nil
	default:
		return fmt.Errorf("TEMIMI_SESSION_STORE must be memory or badger, got: %q", c.Session.Store)
	}
}

func (c *Config) validateReconnect() error {
	r := &c.Reconnect
	if !r.Enabled {
		return nil
	}
	if r.InitialDelay <= 0 || r.MaxDelay <= 0 {
		return errors.New("reconnect delays must be positive")
	}
	if r.MaxDelay < r.InitialDelay {
		return fmt.Errorf("reconnect max_delay (%s) is shorter than initial_delay (%s)", r.MaxDelay, r.InitialDelay)
	}
	if r.Multiplier < 1 {
		return fmt.Errorf("reconnect multiplier must be >= 1, got: %v", r.Multiplier)
	}
	if r.ConnectTimeout <= 0 || r.CheckInterval <= 0 {
		return errors.New("reconnect connect_timeout and check_interval must be positive")
	}
	return nil
}

func (c *Config) validateStatus() error {
	s := &c.Status
	if !s.Enabled {
		return nil
	}
	if _, _, err := net.SplitHostPort(s.Addr); err != nil {
		return fmt.Errorf("TEMIMI_STATUS_ADDR %q: %w", s.Addr, err)
	}
	if s.RateLimitRequests < 0 || s.RateLimitWindow < 0 {
		return errors.New("status rate limit must not be negative")
	}
	if s.RateLimitRequests > 0 && s.RateLimitWindow == 0 {
		return errors.New("TEMIMI_STATUS_RATE_LIMIT_WINDOW is required when a request limit is set")
	}
	return nil
}

func (c *Config) validateLogging() error {
	if !logging.ValidLevel(c.Logging.Level) {
		return fmt.Errorf("LOG_LEVEL must be one of trace, debug, info, warn, error; got: %q", c.Logging.Level)
	}
	switch strings.ToLower(c.Logging.Format) {
	case "json", "console":
		return nil
	default:
		return fmt.Errorf("LOG_FORMAT must be json or console, got: %q", c.Logging.Format)
	}
}

func (c *Config) validateModeration() error {
	if c.Moderation.PageSize < 1 || c.Moderation.PageSize > 500 {
		return fmt.Errorf("moderation page_size must be between 1 and 500, got: %d", c.Moderation.PageSize)
	}
	return nil
}
