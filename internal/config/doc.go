// Temimi Realtime - Messaging and Danmu Synchronization Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/temimi-realtime

/*
Package config loads and validates temimi-realtime configuration.

Configuration is layered with koanf v2, later layers winning:

 1. Built-in defaults (defaultConfig)
 2. An optional YAML file: $CONFIG_PATH, ./config.yaml, ./config.yml,
    /etc/temimi/config.yaml
 3. Environment variables from an explicit mapping table. Variables that
    are not in the table are ignored.

# Sections

	realtime   websocket base URL and transport timings
	api        REST base URL, timeout, rate limit, circuit breaker
	session    token store (memory or badger) and the token encryption secret
	reconnect  caller-level reconnect policy for the messaging channel
	status     local HTTP status surface (health, state, metrics)
	logging    level, format, caller
	video      optional video to join at startup
	moderation keyword filter and page size for admin tooling

# Environment Variables

	TEMIMI_WS_BASE                realtime.ws_base
	TEMIMI_PING_INTERVAL          realtime.ping_interval
	TEMIMI_PONG_WAIT              realtime.pong_wait
	TEMIMI_API_BASE_URL           api.base_url
	TEMIMI_API_TIMEOUT            api.timeout
	TEMIMI_API_RATE_LIMIT         api.rate_limit
	TEMIMI_SESSION_STORE          session.store
	TEMIMI_SESSION_STORE_PATH     session.store_path
	TEMIMI_TOKEN_SECRET           session.token_secret
	TEMIMI_RECONNECT_ENABLED      reconnect.enabled
	TEMIMI_STATUS_ADDR            status.addr
	TEMIMI_STATUS_CORS_ORIGINS    status.cors_origins (comma separated)
	LOG_LEVEL / LOG_FORMAT        logging.level / logging.format
	TEMIMI_VIDEO_ID               video.id
	TEMIMI_MODERATION_KEYWORDS    moderation.keywords (comma separated)

See envMappings in koanf.go for the full table.

# Token Encryption

CredentialEncryptor seals the session token with AES-256-GCM before the
badger store persists it. The key is derived from session.token_secret with
HKDF-SHA256.
*/
package config
