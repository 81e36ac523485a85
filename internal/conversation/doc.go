// Temimi Realtime - Messaging and Danmu Synchronization Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/temimi-realtime

/*
Package conversation caches the user's private-message threads.

The cache holds one ConversationThread per peer, sorted newest first by the
thread's latest activity. It performs no network calls: the realtime
dispatch loop applies push frames to it, and the app layer applies REST
fetch results (ReplaceAll, AppendPage, PrependHistory).

Besides the threads, the cache carries the chat view state that whisper
reconciliation depends on:

  - ViewActive: whether the chat view is on screen. Self-echo messages are
    only appended while it is.
  - OpenPeer: the conversation currently open. Removing that thread clears
    the pointer.

All methods are safe for concurrent use.
*/
package conversation
