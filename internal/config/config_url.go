// Temimi Realtime - Messaging and Danmu Synchronization Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/temimi-realtime

package config

import (
	"fmt"
	"net/url"
)

// validateBaseURL checks that rawURL uses one of schemes and has a host.
// A path prefix is allowed; a query string is not.
func validateBaseURL(rawURL, fieldName string, schemes ...string) error {
	if rawURL == "" {
		return fmt.Errorf("%s is required", fieldName)
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("%s failed to parse URL: %w", fieldName, err)
	}

	ok := false
	for _, s := range schemes {
		if u.Scheme == s {
			ok = true
			break
		}
	}
	if !ok {
		return fmt.Errorf("%s scheme must be one of %v, got: %q", fieldName, schemes, u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("%s host is required", fieldName)
	}
	if u.RawQuery != "" {
		return fmt.Errorf("%s should not contain query parameters, remove: ?%s", fieldName, u.RawQuery)
	}
	return nil
}

func validateWSURL(rawURL, fieldName string) error {
	return validateBaseURL(rawURL, fieldName, "ws", "wss", "http", "https")
}

func validateHTTPURL(rawURL, fieldName string) error {
	return validateBaseURL(rawURL, fieldName, "http", "https")
}
