// Temimi Realtime - Messaging and Danmu Synchronization Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/temimi-realtime

package realtime

import (
	"errors"
	"strings"
)

var (
	// ErrNoSession is returned by Connect(Messaging) without a session token.
	ErrNoSession = errors.New("realtime: messaging channel requires a session token")

	// ErrMissingContext is returned by Connect(Danmu) without a video id.
	ErrMissingContext = errors.New("realtime: danmu channel requires a video id")

	// ErrConnectAborted is returned by a pending Connect when Close or a
	// newer Connect for the same channel overtakes it.
	ErrConnectAborted = errors.New("realtime: connect aborted")

	// ErrUnknownChannel is returned for a ChannelKind outside Messaging and
	// Danmu.
	ErrUnknownChannel = errors.New("realtime: unknown channel kind")
)

// Phrases that mark an error frame as a terminal session failure.
var sessionExpiryPhrases = []string{
	"登录已过期",
	"未登录",
	"无效的token",
	"token无效",
	"token已过期",
	"not login",
	"expired",
}

// IsSessionExpiry reports whether an error frame message means the session
// is no longer valid.
func IsSessionExpiry(message string) bool {
	lower := strings.ToLower(message)
	for _, phrase := range sessionExpiryPhrases {
		if strings.Contains(lower, strings.ToLower(phrase)) {
			return true
		}
	}
	return false
}
