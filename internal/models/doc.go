// Temimi Realtime - Messaging and Danmu Synchronization Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/temimi-realtime

/*
Package models defines the wire and cache types shared by the REST client,
the realtime reconciler and the status surface.

Model groups:

  - Messaging: ChatMeta, ChatMessage, ConversationThread, OutgoingChat
  - Danmu: DanmuEntry and its display-mode constants
  - Unread: UnreadCategory, the six ledger slots in backend code order
  - Session: UserProfile, Session
  - Moderation: Video, Comment, Page
  - Envelopes: Envelope for backend replies, APIResponse for the status server

Timestamp accepts every time format the backend emits and always encodes
RFC3339. All JSON goes through github.com/goccy/go-json.
*/
package models
