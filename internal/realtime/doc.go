// Temimi Realtime - Messaging and Danmu Synchronization Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/temimi-realtime

/*
Package realtime keeps the client's live state in step with the backend's two
websocket channels.

The messaging channel ({wsBase}/im?token=...) is account-wide. It carries
unread counter updates for the reply, at, love, system and dynamic slots,
server errors, and the whisper sub-protocol for private messages. The danmu
channel ({wsBase}/danmu/{videoId}) is opened per video and carries overlay
comments, deletions, and informational broadcasts.

# Architecture

	reader(messaging) ─┐
	                   ├─> queue ─> Serve ─> ledger / conversations / danmu
	reader(danmu) ─────┘                     └─> events (changes, notices)

Each open channel has one reader goroutine that only enqueues raw frames.
Serve is the single consumer: frames are decoded into a tagged union
(MessagingFrame, DanmuFrame) and applied one at a time in arrival order, so
the whisper reconciliation rules never observe a half-applied frame.

Every channel carries a generation counter. Connect, Close and transport
failures bump it, and frames or failures reported under an older generation
are ignored, so a replaced socket cannot affect the one that replaced it.

# Lifecycle

	Closed -> Connecting -> Open -> Closed
	          Connecting -> Closed (dial failed or aborted)

Connect returns once the socket is open and has no timeout of its own. Close
is idempotent and aborts a pending Connect with ErrConnectAborted. Caches
are never cleared by a close; reconnect policy belongs to the caller (see
internal/supervisor).

# Errors

Connect is the only operation that reports failure to its caller. Decode
errors and frames that reference uncached state are logged and counted in
metrics, then dropped. An error frame that signals session expiry clears the
session and closes the messaging channel.
*/
package realtime
