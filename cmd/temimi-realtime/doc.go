// Temimi Realtime - Messaging and Danmu Synchronization Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/temimi-realtime

/*
Command temimi-realtime is a headless client daemon for the Temimi video
platform. It keeps the unread ledger, the conversation cache and the danmu
timeline of the current video in sync with the backend's two websocket
channels, and exposes the result on a local status server.

# Startup

 1. Configuration: koanf v2 defaults, config.yaml, then environment
 2. Logging: zerolog, json or console
 3. Session: token store (memory or encrypted badger)
 4. State: ledger, conversation cache, danmu timeline, event bus
 5. Transport: REST client (rate limited, circuit breaker) and reconciler
 6. Supervisor tree: reconciler, reconnect policy, status surface
 7. Restore: persisted session, then video.id if set

# Status surface

With status.enabled the daemon serves on status.addr:

	GET /healthz   channel states and breaker
	GET /state     full snapshot (rate limited)
	GET /metrics   Prometheus
	GET /ws        snapshot, then change and notice frames

# Moderation

	temimi-realtime moderate [-video ID] [-keyword TEXT] [-comments] [-dry-run]
	temimi-realtime moderate -review

The moderate subcommand runs one admin pass with the stored session. It
purges danmu (and optionally comments) matching moderation.keywords, or
with -review rejects pending videos that match them.

# Signals

SIGINT and SIGTERM cancel the root context. The supervisor stops every
service, the reconciler closes both channels and the HTTP server drains
within status.shutdown_timeout.
*/
package main
