// Temimi Realtime - Messaging and Danmu Synchronization Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/temimi-realtime

package logging

import (
	"net/url"
	"strings"
)

// credentialParams are query parameters whose values are never logged.
var credentialParams = []string{"token", "access_token", "authorization", "password"}

// MaskToken keeps the first and last four characters of a credential.
// Short values are replaced entirely.
func MaskToken(token string) string {
	if token == "" {
		return ""
	}
	if len(token) <= 12 {
		return "***"
	}
	return token[:4] + "..." + token[len(token)-4:]
}

// RedactURL replaces credential query values and userinfo in raw with
// "REDACTED". Input that does not parse is returned masked as a whole.
func RedactURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return MaskToken(raw)
	}
	if u.User != nil {
		u.User = url.User("REDACTED")
	}
	if u.RawQuery == "" {
		return u.String()
	}
	q := u.Query()
	changed := false
	for key := range q {
		for _, p := range credentialParams {
			if strings.EqualFold(key, p) {
				q.Set(key, "REDACTED")
				changed = true
			}
		}
	}
	if changed {
		u.RawQuery = q.Encode()
	}
	return u.String()
}
