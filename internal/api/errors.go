// Temimi Realtime - Messaging and Danmu Synchronization Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/temimi-realtime

package api

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrUnauthorized is returned when the backend rejects the session
	// token, either with HTTP 401 or with a 401 envelope code.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrCircuitOpen is returned while the circuit breaker refuses requests.
	ErrCircuitOpen = errors.New("backend circuit open")

	// ErrNoToken is returned by authenticated calls made without a session.
	ErrNoToken = errors.New("no session token")
)

// Error is a failure reported by the backend, either through the response
// envelope (Status 200, Code != 200) or through an HTTP error status.
type Error struct {
	Status  int
	Code    int
	Message string
}

func (e *Error) Error() string {
	if e.Status != 0 && e.Status != http.StatusOK {
		return fmt.Sprintf("backend error (http %d, code %d): %s", e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("backend error (code %d): %s", e.Code, e.Message)
}

// Temporary reports whether the failure is on the server side and worth
// counting against the circuit breaker.
func (e *Error) Temporary() bool {
	return e.Status >= http.StatusInternalServerError || e.Status == http.StatusTooManyRequests
}

// IsUnauthorized reports whether err means the session is no longer valid.
func IsUnauthorized(err error) bool {
	return errors.Is(err, ErrUnauthorized) || errors.Is(err, ErrNoToken)
}
