// Temimi Realtime - Messaging and Danmu Synchronization Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/temimi-realtime

// Package services adapts the daemon's long-running components to
// suture.Service: the reconciler dispatch loop, the reconnect policy, the
// status stream hub and the status HTTP server. Each wrapper depends on a
// small interface so it can be tested without the real component.
package services
