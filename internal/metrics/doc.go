// Temimi Realtime - Messaging and Danmu Synchronization Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/temimi-realtime

/*
Package metrics provides the Prometheus collectors for the realtime client.

Collectors are registered with the default registry at init through promauto
and exposed by the status server at /metrics:

	curl http://127.0.0.1:9464/metrics

# Available Metrics

Realtime:
  - realtime_channel_state: 0=closed, 1=connecting, 2=open (gauge)
    Labels: channel
  - realtime_connect_attempts_total (counter)
    Labels: channel, outcome
  - realtime_frames_received_total (counter)
    Labels: channel, type
  - realtime_frame_decode_errors_total (counter)
  - realtime_frames_unroutable_total (counter)
  - realtime_messages_sent_total (counter)
    Labels: channel, outcome

Caches:
  - unread_ledger_count (gauge, label category)
  - conversation_cache_threads (gauge)
  - danmu_timeline_entries (gauge)

REST client:
  - api_client_requests_total, api_client_request_duration_seconds
  - circuit_breaker_state, circuit_breaker_state_transitions_total
*/
package metrics
