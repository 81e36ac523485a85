// Temimi Realtime - Messaging and Danmu Synchronization Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/temimi-realtime

package moderation

import (
	"context"
	"fmt"

	"github.com/tomtom215/temimi-realtime/internal/api"
	"github.com/tomtom215/temimi-realtime/internal/logging"
	"github.com/tomtom215/temimi-realtime/internal/metrics"
	"github.com/tomtom215/temimi-realtime/internal/models"
)

// DefaultPageSize is used when a page size of zero is configured.
const DefaultPageSize = 50

// PurgeClient is the part of the backend client the Purger needs.
type PurgeClient interface {
	AdminDanmuList(ctx context.Context, q api.ListQuery) (*models.Page[models.DanmuEntry], error)
	AdminDeleteDanmu(ctx context.Context, id int64) error
	AdminBatchDeleteDanmu(ctx context.Context, ids []int64) error
	AdminCommentList(ctx context.Context, q api.ListQuery) (*models.Page[models.Comment], error)
	AdminDeleteComment(ctx context.Context, id int64) error
}

// Filter selects what a purge deletes. VideoID and Keyword narrow the
// listing server-side; Matcher and Match are applied to each listed item
// and both must accept it when set. A filter with neither Matcher nor
// Match selects every listed item.
type Filter struct {
	VideoID int64
	Keyword string
	Matcher *KeywordMatcher
	Match   func(content string) bool
	// DryRun counts matches without deleting anything.
	DryRun bool
}

func (f Filter) accepts(content string) bool {
	if f.Matcher != nil && !f.Matcher.Contains(content) {
		return false
	}
	if f.Match != nil && !f.Match(content) {
		return false
	}
	return true
}

// PurgeSummary counts what one purge did.
type PurgeSummary struct {
	Scanned int
	Matched int
	Deleted int
	Failed  int
}

// Purger deletes listed danmu and comments that match a Filter.
type Purger struct {
	client   PurgeClient
	pageSize int
}

// NewPurger creates a Purger fetching pageSize items per request.
func NewPurger(client PurgeClient, pageSize int) *Purger {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &Purger{client: client, pageSize: pageSize}
}

// PurgeDanmu deletes every listed danmu the filter accepts. Matches of one
// page go out as a single batch delete; when the batch fails each id is
// retried on its own.
func (p *Purger) PurgeDanmu(ctx context.Context, f Filter) (PurgeSummary, error) {
	return purge(ctx, p.pageSize, f,
		func(ctx context.Context, q api.ListQuery) ([]item, bool, error) {
			page, err := p.client.AdminDanmuList(ctx, q)
			if err != nil {
				return nil, false, err
			}
			items := make([]item, len(page.Records))
			for i, d := range page.Records {
				items[i] = item{id: d.ID, content: d.Content}
			}
			return items, page.HasNext(), nil
		},
		func(ctx context.Context, ids []int64) []int64 {
			err := p.client.AdminBatchDeleteDanmu(ctx, ids)
			if err == nil {
				return ids
			}
			logging.Ctx(ctx).Warn().Err(err).Int("count", len(ids)).Msg("Batch danmu delete failed, deleting one by one")
			return deleteEach(ctx, ids, p.client.AdminDeleteDanmu)
		},
		"delete_danmu",
	)
}

// PurgeComments deletes every listed comment the filter accepts.
func (p *Purger) PurgeComments(ctx context.Context, f Filter) (PurgeSummary, error) {
	return purge(ctx, p.pageSize, f,
		func(ctx context.Context, q api.ListQuery) ([]item, bool, error) {
			page, err := p.client.AdminCommentList(ctx, q)
			if err != nil {
				return nil, false, err
			}
			items := make([]item, len(page.Records))
			for i, c := range page.Records {
				items[i] = item{id: c.ID, content: c.Content}
			}
			return items, page.HasNext(), nil
		},
		func(ctx context.Context, ids []int64) []int64 {
			return deleteEach(ctx, ids, p.client.AdminDeleteComment)
		},
		"delete_comment",
	)
}

type item struct {
	id      int64
	content string
}

type listFunc func(ctx context.Context, q api.ListQuery) (items []item, hasNext bool, err error)

// deleteFunc deletes ids and returns the ones that were deleted.
type deleteFunc func(ctx context.Context, ids []int64) []int64

func deleteEach(ctx context.Context, ids []int64, del func(context.Context, int64) error) []int64 {
	deleted := make([]int64, 0, len(ids))
	for _, id := range ids {
		if ctx.Err() != nil {
			break
		}
		if err := del(ctx, id); err != nil {
			logging.Ctx(ctx).Warn().Err(err).Int64("id", id).Msg("Delete failed")
			continue
		}
		deleted = append(deleted, id)
	}
	return deleted
}

// purge pages through a listing. Deleting shifts later items forward, so a
// page is fetched again after something on it was deleted.
func purge(ctx context.Context, pageSize int, f Filter, list listFunc, del deleteFunc, action string) (PurgeSummary, error) {
	var sum PurgeSummary
	seen := make(map[int64]struct{})

	page := 1
	for {
		if err := ctx.Err(); err != nil {
			return sum, err
		}

		items, hasNext, err := list(ctx, api.ListQuery{
			Page:     page,
			PageSize: pageSize,
			VideoID:  f.VideoID,
			Keyword:  f.Keyword,
		})
		if err != nil {
			return sum, fmt.Errorf("list page %d: %w", page, err)
		}
		if len(items) == 0 {
			return sum, nil
		}

		var matched []int64
		for _, it := range items {
			if _, done := seen[it.id]; done {
				continue
			}
			seen[it.id] = struct{}{}
			sum.Scanned++
			if f.accepts(it.content) {
				matched = append(matched, it.id)
			}
		}
		sum.Matched += len(matched)

		deleted := 0
		if len(matched) > 0 && !f.DryRun {
			deleted = len(del(ctx, matched))
			sum.Deleted += deleted
			sum.Failed += len(matched) - deleted
			metrics.ModerationActions.WithLabelValues(action).Add(float64(deleted))
		}

		if deleted == 0 {
			if !hasNext {
				return sum, nil
			}
			page++
		}
	}
}
