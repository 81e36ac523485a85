// Temimi Realtime - Messaging and Danmu Synchronization Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/temimi-realtime

/*
Package app binds the client state to the operations a user interface
performs: logging in and out, restoring a saved session, opening a video's
danmu, posting danmu, browsing conversations and clearing unread counts.

The realtime reconciler applies server pushes to the same ledger,
conversation cache and danmu timeline that App fills from REST fetches.
Every mutation is announced on the events bus so observers can re-read a
Snapshot.

A REST call rejected as unauthorized takes the same path as a session
expiry reported on the messaging channel: the session is cleared, the
messaging channel is closed and an error notice is shown.
*/
package app
