// Temimi Realtime - Messaging and Danmu Synchronization Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/temimi-realtime

package moderation

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/tomtom215/temimi-realtime/internal/models"
)

// fakeQueue is a pending-video queue that drops reviewed videos the way
// the backend does.
type fakeQueue struct {
	pending   []models.Video
	approved  []int64
	rejected  map[int64]string
	failOn    map[int64]bool
	listErrAt int
	lists     int
}

func newFakeQueue(titles ...string) *fakeQueue {
	q := &fakeQueue{rejected: map[int64]string{}, failOn: map[int64]bool{}}
	for i, title := range titles {
		q.pending = append(q.pending, models.Video{VID: int64(i + 1), Title: title})
	}
	return q
}

func (q *fakeQueue) PendingVideos(_ context.Context, page, size int) (*models.Page[models.Video], error) {
	q.lists++
	if q.listErrAt > 0 && q.lists == q.listErrAt {
		return nil, errors.New("backend down")
	}
	start := (page - 1) * size
	end := start + size
	if start > len(q.pending) {
		start = len(q.pending)
	}
	if end > len(q.pending) {
		end = len(q.pending)
	}
	records := append([]models.Video(nil), q.pending[start:end]...)
	pages := (len(q.pending) + size - 1) / size
	return &models.Page[models.Video]{Records: records, Total: int64(len(q.pending)), Size: size, Current: page, Pages: pages}, nil
}

func (q *fakeQueue) remove(vid int64) {
	for i, v := range q.pending {
		if v.VID == vid {
			q.pending = append(q.pending[:i], q.pending[i+1:]...)
			return
		}
	}
}

func (q *fakeQueue) ApproveVideo(_ context.Context, vid int64) error {
	if q.failOn[vid] {
		return errors.New("approve failed")
	}
	q.approved = append(q.approved, vid)
	q.remove(vid)
	return nil
}

func (q *fakeQueue) RejectVideo(_ context.Context, vid int64, reason string) error {
	if q.failOn[vid] {
		return errors.New("reject failed")
	}
	q.rejected[vid] = reason
	q.remove(vid)
	return nil
}

func titleRule(v models.Video) Decision {
	switch {
	case strings.HasPrefix(v.Title, "ok"):
		return Decision{Verdict: Approve}
	case strings.HasPrefix(v.Title, "bad"):
		return Decision{Verdict: Reject, Reason: "violates rules"}
	default:
		return Decision{Verdict: Skip}
	}
}

func TestReviewer_DrainVisitsEveryVideoOnce(t *testing.T) {
	q := newFakeQueue("ok-1", "hold-1", "bad-1", "ok-2", "hold-2", "ok-3", "bad-2")
	r := NewReviewer(q, 2)

	visits := map[int64]int{}
	sum, err := r.Drain(context.Background(), func(v models.Video) Decision {
		visits[v.VID]++
		return titleRule(v)
	})
	if err != nil {
		t.Fatalf("Drain() error = %v", err)
	}

	want := ReviewSummary{Seen: 7, Approved: 3, Rejected: 2, Skipped: 2}
	if sum != want {
		t.Errorf("summary = %+v, want %+v", sum, want)
	}
	for vid, n := range visits {
		if n != 1 {
			t.Errorf("video %d decided %d times", vid, n)
		}
	}
	if len(q.pending) != 2 {
		t.Errorf("pending left = %+v, want the two held videos", q.pending)
	}
	if q.rejected[3] != "violates rules" {
		t.Errorf("rejected = %v", q.rejected)
	}
}

func TestReviewer_FailedActionIsCountedNotRetried(t *testing.T) {
	q := newFakeQueue("ok-1", "ok-2")
	q.failOn[1] = true
	r := NewReviewer(q, 10)

	calls := 0
	sum, err := r.Drain(context.Background(), func(v models.Video) Decision {
		calls++
		return titleRule(v)
	})
	if err != nil {
		t.Fatalf("Drain() error = %v", err)
	}
	if sum.Failed != 1 || sum.Approved != 1 || calls != 2 {
		t.Errorf("summary = %+v calls = %d", sum, calls)
	}
}

func TestReviewer_ListErrorStopsDrain(t *testing.T) {
	q := newFakeQueue("ok-1", "ok-2", "ok-3")
	q.listErrAt = 2
	r := NewReviewer(q, 1)

	sum, err := r.Drain(context.Background(), titleRule)
	if err == nil {
		t.Fatal("Drain() error = nil, want list error")
	}
	if sum.Approved != 1 {
		t.Errorf("summary = %+v, want the first approval kept", sum)
	}
}

func TestReviewer_CancelledContext(t *testing.T) {
	q := newFakeQueue("ok-1")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewReviewer(q, 0).Drain(ctx, titleRule)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Drain() error = %v, want context.Canceled", err)
	}
	if q.lists != 0 {
		t.Errorf("listed %d times after cancel", q.lists)
	}
}
