// Temimi Realtime - Messaging and Danmu Synchronization Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/temimi-realtime

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths are searched in order when CONFIG_PATH is unset.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/temimi/config.yaml",
}

// ConfigPathEnvVar overrides the config file location.
const ConfigPathEnvVar = "CONFIG_PATH"

func defaultConfig() *Config {
	return &Config{
		Realtime: RealtimeConfig{
			WSBase:           "ws://127.0.0.1:7070",
			PingInterval:     30 * time.Second,
			PongWait:         75 * time.Second,
			WriteWait:        10 * time.Second,
			HandshakeTimeout: 10 * time.Second,
			ReadLimit:        1 << 20,
			QueueSize:        256,
		},
		API: APIConfig{
			BaseURL:         "http://127.0.0.1:7070",
			Timeout:         15 * time.Second,
			RateLimit:       10,
			RateBurst:       20,
			BreakerFailures: 5,
			BreakerTimeout:  30 * time.Second,
		},
		Session: SessionConfig{
			Store:     "memory",
			StorePath: "",
		},
		Reconnect: ReconnectConfig{
			Enabled:        false,
			InitialDelay:   time.Second,
			MaxDelay:       time.Minute,
			Multiplier:     2,
			ConnectTimeout: 15 * time.Second,
			CheckInterval:  5 * time.Second,
		},
		Status: StatusConfig{
			Enabled:           true,
			Addr:              "127.0.0.1:7071",
			CORSOrigins:       []string{"http://localhost:5173"},
			RateLimitRequests: 120,
			RateLimitWindow:   time.Minute,
			ShutdownTimeout:   10 * time.Second,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Moderation: ModerationConfig{
			PageSize: 50,
		},
	}
}

// Load builds the configuration from defaults, the config file and the
// environment, then validates it.
func Load() (*Config, error) {
	return load(findConfigFile())
}

func load(configPath string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

func findConfigFile() string {
	if p := os.Getenv(ConfigPathEnvVar); p != "" {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	for _, p := range DefaultConfigPaths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// sliceConfigPaths arrive from the environment as comma-separated strings.
var sliceConfigPaths = []string{
	"status.cors_origins",
	"moderation.keywords",
}

func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		s, ok := k.Get(path).(string)
		if !ok {
			continue
		}
		parts := make([]string, 0, 4)
		for _, p := range strings.Split(s, ",") {
			if p = strings.TrimSpace(p); p != "" {
				parts = append(parts, p)
			}
		}
		if err := k.Set(path, parts); err != nil {
			return fmt.Errorf("failed to set %s: %w", path, err)
		}
	}
	return nil
}

// envMappings maps lowercased environment variable names to koanf paths.
var envMappings = map[string]string{
	"temimi_ws_base":           "realtime.ws_base",
	"temimi_ping_interval":     "realtime.ping_interval",
	"temimi_pong_wait":         "realtime.pong_wait",
	"temimi_write_wait":        "realtime.write_wait",
	"temimi_handshake_timeout": "realtime.handshake_timeout",
	"temimi_read_limit":        "realtime.read_limit",
	"temimi_queue_size":        "realtime.queue_size",

	"temimi_api_base_url":         "api.base_url",
	"temimi_api_timeout":          "api.timeout",
	"temimi_api_rate_limit":       "api.rate_limit",
	"temimi_api_rate_burst":       "api.rate_burst",
	"temimi_api_breaker_failures": "api.breaker_failures",
	"temimi_api_breaker_timeout":  "api.breaker_timeout",

	"temimi_session_store":      "session.store",
	"temimi_session_store_path": "session.store_path",
	"temimi_token_secret":       "session.token_secret",

	"temimi_reconnect_enabled":         "reconnect.enabled",
	"temimi_reconnect_initial_delay":   "reconnect.initial_delay",
	"temimi_reconnect_max_delay":       "reconnect.max_delay",
	"temimi_reconnect_multiplier":      "reconnect.multiplier",
	"temimi_reconnect_connect_timeout": "reconnect.connect_timeout",
	"temimi_reconnect_check_interval":  "reconnect.check_interval",

	"temimi_status_enabled":             "status.enabled",
	"temimi_status_addr":                "status.addr",
	"temimi_status_cors_origins":        "status.cors_origins",
	"temimi_status_rate_limit_requests": "status.rate_limit_requests",
	"temimi_status_rate_limit_window":   "status.rate_limit_window",
	"temimi_status_shutdown_timeout":    "status.shutdown_timeout",

	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",

	"temimi_video_id": "video.id",

	"temimi_moderation_keywords":  "moderation.keywords",
	"temimi_moderation_page_size": "moderation.page_size",
}

// envTransformFunc returns "" for variables outside envMappings, which
// koanf then skips.
func envTransformFunc(key string) string {
	return envMappings[strings.ToLower(key)]
}
