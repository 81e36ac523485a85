// Temimi Realtime - Messaging and Danmu Synchronization Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/temimi-realtime

/*
Package status serves the local HTTP status surface of the daemon.

Routes:

	GET /healthz   session flag, channel states and breaker state
	GET /state     full client snapshot
	GET /ws        websocket stream: a "state" frame, then "change" and
	               "notice" frames relayed from the events bus
	GET /metrics   Prometheus exposition

Every JSON route answers with models.APIResponse. /state and /ws are rate
limited per client IP. Hub and Relay are long-running and meant to be run
under the supervisor tree alongside the HTTP server.
*/
package status
