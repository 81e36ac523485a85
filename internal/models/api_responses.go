// Temimi Realtime - Messaging and Danmu Synchronization Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/temimi-realtime

package models

import (
	"time"

	"github.com/goccy/go-json"
)

// EnvelopeCodeOK is the envelope code of a successful backend response.
// Failures carry any other code (500 for generic failures, 401/403/404
// for their HTTP meaning) while the HTTP status is usually still 200.
const EnvelopeCodeOK = 200

// Envelope is the wrapper every backend REST endpoint responds with.
//
// Example successful response:
//
//	{"code": 200, "message": "操作成功", "data": {"token": "..."}}
//
// Example failure:
//
//	{"code": 500, "message": "登录失败: 密码错误", "data": null}
type Envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// OK reports whether the envelope carries a successful result.
func (e Envelope) OK() bool {
	return e.Code == EnvelopeCodeOK
}

// Page is one page of a paginated admin listing. Records is the page
// content; the remaining fields describe the whole result set.
//
// Example:
//
//	{"records": [...], "total": 42, "size": 20, "current": 1, "pages": 3}
type Page[T any] struct {
	Records []T   `json:"records"`
	Total   int64 `json:"total"`
	Size    int   `json:"size"`
	Current int   `json:"current"`
	Pages   int   `json:"pages"`
}

// HasNext reports whether a page follows this one.
func (p *Page[T]) HasNext() bool {
	if p.Pages > 0 {
		return p.Current < p.Pages
	}
	return p.Size > 0 && int64(p.Current*p.Size) < p.Total
}

// APIResponse is the wrapper used by the local status endpoint.
//
// Status field values:
//   - "success": see Data
//   - "error": see Error
//
// Example:
//
//	{
//	  "status": "success",
//	  "data": {"channels": [...]},
//	  "metadata": {"timestamp": "2026-01-01T12:00:00Z"}
//	}
type APIResponse struct {
	Status   string      `json:"status"`
	Data     interface{} `json:"data,omitempty"`
	Metadata Metadata    `json:"metadata"`
	Error    *APIError   `json:"error,omitempty"`
}

// Metadata is attached to every status response.
type Metadata struct {
	Timestamp time.Time `json:"timestamp"`
}

// APIError is the error body of a failed status response.
//
// Common error codes:
//   - NOT_FOUND: unknown route
//   - RATE_LIMIT_EXCEEDED: too many requests from one address
//   - INTERNAL_ERROR: snapshot could not be produced
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
