// Temimi Realtime - Messaging and Danmu Synchronization Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/temimi-realtime

package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus instrumentation for:
// - Realtime channel lifecycle and frame dispatch
// - Client-side caches (unread ledger, conversations, danmu)
// - Outbound REST calls and the circuit breaker around them
// - The local status surface

var (
	// Realtime Channel Metrics
	ChannelState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "realtime_channel_state",
			Help: "Realtime channel state (0=closed, 1=connecting, 2=open)",
		},
		[]string{"channel"},
	)

	ConnectAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "realtime_connect_attempts_total",
			Help: "Total number of realtime connect attempts by outcome",
		},
		[]string{"channel", "outcome"}, // outcome: "open", "error", "aborted"
	)

	ChannelDisconnects = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "realtime_channel_disconnects_total",
			Help: "Total number of channel closures by reason",
		},
		[]string{"channel", "reason"}, // reason: "closed", "replaced", "transport", "ping"
	)

	FramesReceived = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "realtime_frames_received_total",
			Help: "Total number of inbound frames applied, by decoded type",
		},
		[]string{"channel", "type"},
	)

	FrameDecodeErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "realtime_frame_decode_errors_total",
			Help: "Total number of inbound frames discarded because they could not be decoded",
		},
		[]string{"channel"},
	)

	FramesUnroutable = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "realtime_frames_unroutable_total",
			Help: "Total number of frames that referenced state not present in the caches",
		},
		[]string{"channel", "type"},
	)

	FramesStale = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "realtime_frames_stale_total",
			Help: "Total number of frames dropped because their socket was replaced",
		},
		[]string{"channel"},
	)

	DispatchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "realtime_dispatch_duration_seconds",
			Help:    "Time spent applying one inbound frame",
			Buckets: []float64{.00001, .00005, .0001, .0005, .001, .005, .01, .05},
		},
	)

	DispatchPanics = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "realtime_dispatch_panics_total",
			Help: "Total number of recovered panics in the dispatch loop",
		},
	)

	MessagesSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "realtime_messages_sent_total",
			Help: "Total number of outbound send calls by outcome",
		},
		[]string{"channel", "outcome"}, // outcome: "sent", "not_connected", "invalid", "error"
	)

	SessionExpirations = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "realtime_session_expirations_total",
			Help: "Total number of session-expiry error frames received",
		},
	)

	// Cache Metrics
	UnreadCount = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "unread_ledger_count",
			Help: "Current unread count per notification category",
		},
		[]string{"category"},
	)

	CachedThreads = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "conversation_cache_threads",
			Help: "Current number of cached conversation threads",
		},
	)

	CachedDanmu = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "danmu_timeline_entries",
			Help: "Current number of danmu entries for the open video",
		},
	)

	// Event Bus Metrics
	EventsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "events_published_total",
			Help: "Total number of events published on the in-process bus",
		},
		[]string{"topic"},
	)

	// REST Client Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_client_requests_total",
			Help: "Total number of backend REST requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_client_request_duration_seconds",
			Help:    "Backend REST request latency in seconds",
			Buckets: []float64{.005, .01, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "endpoint"},
	)

	APIRateLimitWaits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "api_client_rate_limit_waits_total",
			Help: "Total number of requests delayed by the client-side rate limiter",
		},
	)

	// Circuit Breaker Metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_requests_total",
			Help: "Total number of requests through circuit breaker",
		},
		[]string{"name", "result"}, // result: "success", "failure", "rejected"
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_state_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from_state", "to_state"},
	)

	// Moderation Metrics
	ModerationActions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "moderation_actions_total",
			Help: "Total number of moderation actions applied",
		},
		[]string{"action"}, // action: "approve", "reject", "skip", "delete_danmu", "delete_comment"
	)

	// Status Surface Metrics
	StatusRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "status_http_requests_total",
			Help: "Total number of requests served by the local status endpoint",
		},
		[]string{"method", "route", "status"},
	)

	StatusStreamClients = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "status_stream_clients",
			Help: "Current number of connected live-state stream clients",
		},
	)

	ReconnectAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reconnect_attempts_total",
			Help: "Total number of caller-level reconnect attempts by outcome",
		},
		[]string{"channel", "outcome"},
	)
)

// RecordAPIRequest records one backend REST call.
func RecordAPIRequest(method, endpoint string, status int, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, strconv.Itoa(status)).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// RecordStatusRequest records one request to the local status endpoint.
func RecordStatusRequest(method, route string, status int) {
	StatusRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
}

// RecordDispatch records the time spent applying a frame.
func RecordDispatch(start time.Time) {
	DispatchDuration.Observe(time.Since(start).Seconds())
}
