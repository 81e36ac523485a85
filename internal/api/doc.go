// Temimi Realtime - Messaging and Danmu Synchronization Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/temimi-realtime

/*
Package api is the client for the backend REST API that surrounds the
realtime channels.

Every endpoint answers with the same envelope:

	{"code": 200, "message": "...", "data": ...}

The client unwraps it, returning the decoded data on code 200 and an *Error
carrying code and message otherwise. A rejected token, either HTTP 401 or
envelope code 401, is reported as ErrUnauthorized so callers can run the
same path as a session expiry pushed over the messaging channel.

Request Pipeline:

	call -> circuit breaker -> rate limiter -> HTTP (retry on 429) -> envelope

Stages:

  - Circuit breaker: sony/gobreaker, opened after consecutive transport or
    5xx failures. Business errors never count. While open, calls fail
    fast with ErrCircuitOpen.
  - Rate limiter: golang.org/x/time/rate token bucket shared by all calls.
  - Retries: only HTTP 429, with exponential backoff or Retry-After.

Endpoint Groups:

  - Account: Login, PersonalInfo
  - Chat: RecentChats, CreateChat, MoreHistory, MarkOnline, MarkOffline,
    ClearUnread
  - Danmu: DanmuList, PostDanmu, DeleteDanmu
  - Admin: PendingVideos, ApproveVideo, RejectVideo, AdminDanmuList,
    AdminDeleteDanmu, AdminBatchDeleteDanmu, AdminCommentList,
    AdminDeleteComment

Usage:

	client := api.NewClient(&cfg.API, sessionStore)
	res, err := client.Login(ctx, api.Credentials{Username: u, Password: p})
	if api.IsUnauthorized(err) {
	    // clear the session
	}

The client never touches the caches. Callers apply fetched data through
the cache fetch-side operations.
*/
package api
