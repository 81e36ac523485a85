// Temimi Realtime - Messaging and Danmu Synchronization Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/temimi-realtime

package logging

import (
	"bytes"
	"context"
	"strings"
	"testing"
)

func TestCorrelationID(t *testing.T) {
	ctx := context.Background()
	if got := CorrelationIDFromContext(ctx); got != "" {
		t.Errorf("empty context id = %q", got)
	}

	ctx = ContextWithNewCorrelationID(ctx)
	id := CorrelationIDFromContext(ctx)
	if len(id) != 8 {
		t.Errorf("generated id %q, want 8 characters", id)
	}

	// an existing id is kept
	if again := CorrelationIDFromContext(ContextWithNewCorrelationID(ctx)); again != id {
		t.Errorf("id replaced: %q -> %q", id, again)
	}
}

func TestCtx_AddsCorrelationID(t *testing.T) {
	var buf bytes.Buffer
	ctx := ContextWithLogger(context.Background(), NewTestLogger(&buf))
	ctx = ContextWithCorrelationID(ctx, "abcd1234")

	Ctx(ctx).Info().Msg("login")

	m := decodeLine(t, strings.TrimSpace(buf.String()))
	if m["correlation_id"] != "abcd1234" {
		t.Errorf("correlation_id = %v", m["correlation_id"])
	}
}

func TestCtx_FallsBackToGlobal(t *testing.T) {
	buf := captureGlobal(t)

	Ctx(context.Background()).Warn().Msg("global")

	if !strings.Contains(buf.String(), "global") {
		t.Errorf("output = %q", buf.String())
	}
}
