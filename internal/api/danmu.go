// Temimi Realtime - Messaging and Danmu Synchronization Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/temimi-realtime

package api

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/goccy/go-json"

	"github.com/tomtom215/temimi-realtime/internal/models"
	"github.com/tomtom215/temimi-realtime/internal/validation"
)

// DanmuList fetches every danmu of a video.
func (c *Client) DanmuList(ctx context.Context, videoID int64) ([]models.DanmuEntry, error) {
	var list []models.DanmuEntry
	if err := c.do(ctx, requestConfig{
		method:    http.MethodGet,
		path:      "/api/danmu/" + strconv.FormatInt(videoID, 10),
		route:     "/api/danmu/{vid}",
		anonymous: true,
	}, &list); err != nil {
		return nil, fmt.Errorf("danmu list for video %d: %w", videoID, err)
	}
	if list == nil {
		list = []models.DanmuEntry{}
	}
	return list, nil
}

// PostDanmu submits one danmu. The backend usually answers with a bare
// success message; when it returns the stored entry that entry is
// returned, otherwise the result is the submitted entry with ID 0.
func (c *Client) PostDanmu(ctx context.Context, entry models.DanmuEntry) (models.DanmuEntry, error) {
	out := entry.Outgoing()
	if err := validation.Validate(out); err != nil {
		return models.DanmuEntry{}, fmt.Errorf("post danmu: %w", err)
	}

	var raw json.RawMessage
	if err := c.do(ctx, requestConfig{
		method: http.MethodPost,
		path:   "/api/danmu",
		body:   out,
	}, &raw); err != nil {
		return models.DanmuEntry{}, fmt.Errorf("post danmu: %w", err)
	}

	if trimmed := bytes.TrimSpace(raw); len(trimmed) > 0 && trimmed[0] == '{' {
		var stored models.DanmuEntry
		if err := json.Unmarshal(trimmed, &stored); err == nil && stored.ID != 0 {
			return stored, nil
		}
	}
	return out, nil
}

// DeleteDanmu deletes one of the user's own danmu.
func (c *Client) DeleteDanmu(ctx context.Context, id int64) error {
	if err := c.do(ctx, requestConfig{
		method: http.MethodDelete,
		path:   "/api/danmu/" + strconv.FormatInt(id, 10),
		route:  "/api/danmu/{danmuId}",
	}, nil); err != nil {
		return fmt.Errorf("delete danmu %d: %w", id, err)
	}
	return nil
}
