// Temimi Realtime - Messaging and Danmu Synchronization Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/temimi-realtime

package models

// Session is the login state shared by every component.
//
// Token is the only field that survives a restart. Authenticated is
// re-derived from a profile fetch after the token is loaded.
type Session struct {
	Authenticated bool   `json:"is_authenticated"`
	UserID        int64  `json:"user_id"`
	Token         string `json:"-"`
}

// HasToken reports whether a token is present, regardless of liveness.
func (s Session) HasToken() bool {
	return s.Token != ""
}

// UserProfile is the public identity of a user as the backend reports it.
type UserProfile struct {
	UID      int64  `json:"uid"`
	Nickname string `json:"nickname"`
	Avatar   string `json:"avatar_url"`
	Auth     int    `json:"auth,omitempty"`
}
