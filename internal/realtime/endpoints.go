// Temimi Realtime - Messaging and Danmu Synchronization Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/temimi-realtime

package realtime

import (
	"fmt"
	"net/url"
	"strings"
)

// MessagingURL builds {wsBase}/im?token={token}. The second result is the
// same URL without the token, for logs and snapshots.
func MessagingURL(wsBase, token string) (string, string, error) {
	base, err := normalizeBase(wsBase)
	if err != nil {
		return "", "", err
	}
	public := base + "/im"
	return public + "?token=" + url.QueryEscape(token), public, nil
}

// DanmuURL builds {wsBase}/danmu/{videoID}.
func DanmuURL(wsBase, videoID string) (string, error) {
	base, err := normalizeBase(wsBase)
	if err != nil {
		return "", err
	}
	return base + "/danmu/" + url.PathEscape(videoID), nil
}

func normalizeBase(wsBase string) (string, error) {
	u, err := url.Parse(wsBase)
	if err != nil {
		return "", fmt.Errorf("parse ws base: %w", err)
	}
	switch u.Scheme {
	case "ws", "wss":
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	default:
		return "", fmt.Errorf("ws base %q: unsupported scheme %q", wsBase, u.Scheme)
	}
	if u.Host == "" {
		return "", fmt.Errorf("ws base %q: missing host", wsBase)
	}
	u.RawQuery = ""
	u.Fragment = ""
	return strings.TrimRight(u.String(), "/"), nil
}
