// Temimi Realtime - Messaging and Danmu Synchronization Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/temimi-realtime

// Package validation checks outbound payloads with go-playground/validator
// before they are written to a socket or posted to the backend.
//
// A single validator is shared process-wide; it caches struct metadata
// after the first use of each type.
//
//	if err := validation.Validate(models.OutgoingChat{AnotherID: peer, Content: text}); err != nil {
//	    // err is a *validation.PayloadError
//	}
package validation
