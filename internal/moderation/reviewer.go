// Temimi Realtime - Messaging and Danmu Synchronization Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/temimi-realtime

package moderation

import (
	"context"
	"fmt"

	"github.com/tomtom215/temimi-realtime/internal/logging"
	"github.com/tomtom215/temimi-realtime/internal/metrics"
	"github.com/tomtom215/temimi-realtime/internal/models"
)

// ReviewClient is the part of the backend client the Reviewer needs.
type ReviewClient interface {
	PendingVideos(ctx context.Context, page, size int) (*models.Page[models.Video], error)
	ApproveVideo(ctx context.Context, vid int64) error
	RejectVideo(ctx context.Context, vid int64, reason string) error
}

// Verdict is the outcome a DecideFunc picks for one pending video.
type Verdict int

const (
	// Skip leaves the video pending.
	Skip Verdict = iota
	Approve
	Reject
)

func (v Verdict) String() string {
	switch v {
	case Approve:
		return "approve"
	case Reject:
		return "reject"
	default:
		return "skip"
	}
}

// Decision is a Verdict plus the reason sent along with a rejection.
type Decision struct {
	Verdict Verdict
	Reason  string
}

// DecideFunc chooses what to do with one pending video.
type DecideFunc func(models.Video) Decision

// ReviewSummary counts what one Drain did.
type ReviewSummary struct {
	Seen     int
	Approved int
	Rejected int
	Skipped  int
	Failed   int
}

// Reviewer works through the pending-video queue.
type Reviewer struct {
	client   ReviewClient
	pageSize int
}

// NewReviewer creates a Reviewer fetching pageSize videos per request.
func NewReviewer(client ReviewClient, pageSize int) *Reviewer {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &Reviewer{client: client, pageSize: pageSize}
}

// Drain applies decide to every pending video once. Approved and rejected
// videos leave the queue, so a page is fetched again after it changed and
// the next page is only requested when everything on the current one was
// skipped or failed. A failed approve/reject is counted and the video is
// not retried. Listing errors and context cancellation stop the drain and
// are returned with the summary so far.
func (r *Reviewer) Drain(ctx context.Context, decide DecideFunc) (ReviewSummary, error) {
	var sum ReviewSummary
	seen := make(map[int64]struct{})
	log := logging.Ctx(ctx)

	page := 1
	for {
		if err := ctx.Err(); err != nil {
			return sum, err
		}

		p, err := r.client.PendingVideos(ctx, page, r.pageSize)
		if err != nil {
			return sum, fmt.Errorf("list pending videos page %d: %w", page, err)
		}
		if len(p.Records) == 0 {
			return sum, nil
		}

		changed := false
		for _, v := range p.Records {
			if _, done := seen[v.VID]; done {
				continue
			}
			seen[v.VID] = struct{}{}
			sum.Seen++

			d := decide(v)
			switch d.Verdict {
			case Approve:
				err = r.client.ApproveVideo(ctx, v.VID)
			case Reject:
				err = r.client.RejectVideo(ctx, v.VID, d.Reason)
			default:
				sum.Skipped++
				metrics.ModerationActions.WithLabelValues(Skip.String()).Inc()
				continue
			}

			if err != nil {
				sum.Failed++
				log.Warn().Err(err).Int64("vid", v.VID).Str("verdict", d.Verdict.String()).Msg("Review action failed")
				if ctx.Err() != nil {
					return sum, ctx.Err()
				}
				continue
			}

			changed = true
			metrics.ModerationActions.WithLabelValues(d.Verdict.String()).Inc()
			if d.Verdict == Approve {
				sum.Approved++
			} else {
				sum.Rejected++
			}
			log.Info().Int64("vid", v.VID).Str("title", v.Title).Str("verdict", d.Verdict.String()).Msg("Video reviewed")
		}

		if !changed {
			if !p.HasNext() {
				return sum, nil
			}
			page++
		}
	}
}
