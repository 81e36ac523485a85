// Temimi Realtime - Messaging and Danmu Synchronization Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/temimi-realtime

package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/tomtom215/temimi-realtime/internal/models"
)

// ListQuery filters the admin danmu and comment listings. Zero values are
// left out of the request.
type ListQuery struct {
	Page     int
	PageSize int
	VideoID  int64
	Keyword  string
}

func (q ListQuery) values() url.Values {
	v := url.Values{}
	if q.Page > 0 {
		v.Set("page", strconv.Itoa(q.Page))
	}
	if q.PageSize > 0 {
		v.Set("pageSize", strconv.Itoa(q.PageSize))
	}
	if q.VideoID != 0 {
		v.Set("videoId", strconv.FormatInt(q.VideoID, 10))
	}
	if kw := strings.TrimSpace(q.Keyword); kw != "" {
		v.Set("keyword", kw)
	}
	return v
}

// PendingVideos lists videos awaiting review. page starts at 1.
func (c *Client) PendingVideos(ctx context.Context, page, size int) (*models.Page[models.Video], error) {
	var p models.Page[models.Video]
	if err := c.do(ctx, requestConfig{
		method: http.MethodGet,
		path:   "/api/admin/videos/pending",
		query: url.Values{
			"pageNum":  {strconv.Itoa(page)},
			"pageSize": {strconv.Itoa(size)},
		},
	}, &p); err != nil {
		return nil, fmt.Errorf("pending videos: %w", err)
	}
	return &p, nil
}

// ApproveVideo publishes a pending video.
func (c *Client) ApproveVideo(ctx context.Context, vid int64) error {
	if err := c.do(ctx, requestConfig{
		method: http.MethodPost,
		path:   "/api/admin/video/" + strconv.FormatInt(vid, 10) + "/approve",
		route:  "/api/admin/video/{vid}/approve",
	}, nil); err != nil {
		return fmt.Errorf("approve video %d: %w", vid, err)
	}
	return nil
}

// RejectVideo rejects a pending video. reason is optional.
func (c *Client) RejectVideo(ctx context.Context, vid int64, reason string) error {
	var q url.Values
	if reason != "" {
		q = url.Values{"reason": {reason}}
	}
	if err := c.do(ctx, requestConfig{
		method: http.MethodPost,
		path:   "/api/admin/video/" + strconv.FormatInt(vid, 10) + "/reject",
		route:  "/api/admin/video/{vid}/reject",
		query:  q,
	}, nil); err != nil {
		return fmt.Errorf("reject video %d: %w", vid, err)
	}
	return nil
}

// AdminDanmuList lists danmu across all videos, newest first.
func (c *Client) AdminDanmuList(ctx context.Context, q ListQuery) (*models.Page[models.DanmuEntry], error) {
	var p models.Page[models.DanmuEntry]
	if err := c.do(ctx, requestConfig{
		method: http.MethodGet,
		path:   "/api/admin/danmu/list",
		query:  q.values(),
	}, &p); err != nil {
		return nil, fmt.Errorf("admin danmu list: %w", err)
	}
	return &p, nil
}

// AdminDeleteDanmu deletes any danmu.
func (c *Client) AdminDeleteDanmu(ctx context.Context, id int64) error {
	if err := c.do(ctx, requestConfig{
		method: http.MethodDelete,
		path:   "/api/admin/danmu/" + strconv.FormatInt(id, 10),
		route:  "/api/admin/danmu/{danmuId}",
	}, nil); err != nil {
		return fmt.Errorf("admin delete danmu %d: %w", id, err)
	}
	return nil
}

// AdminBatchDeleteDanmu deletes several danmu in one call.
func (c *Client) AdminBatchDeleteDanmu(ctx context.Context, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	if err := c.do(ctx, requestConfig{
		method: http.MethodPost,
		path:   "/api/admin/danmu/batch-delete",
		body:   ids,
	}, nil); err != nil {
		return fmt.Errorf("admin batch delete %d danmu: %w", len(ids), err)
	}
	return nil
}

// AdminCommentList lists comments that are not deleted, newest first.
func (c *Client) AdminCommentList(ctx context.Context, q ListQuery) (*models.Page[models.Comment], error) {
	var p models.Page[models.Comment]
	if err := c.do(ctx, requestConfig{
		method: http.MethodGet,
		path:   "/api/admin/comment/list",
		query:  q.values(),
	}, &p); err != nil {
		return nil, fmt.Errorf("admin comment list: %w", err)
	}
	return &p, nil
}

// AdminDeleteComment deletes any comment.
func (c *Client) AdminDeleteComment(ctx context.Context, id int64) error {
	if err := c.do(ctx, requestConfig{
		method: http.MethodDelete,
		path:   "/api/admin/comment/" + strconv.FormatInt(id, 10),
		route:  "/api/admin/comment/{commentId}",
	}, nil); err != nil {
		return fmt.Errorf("admin delete comment %d: %w", id, err)
	}
	return nil
}
