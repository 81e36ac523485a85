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

	"github.com/tomtom215/temimi-realtime/internal/api"
	"github.com/tomtom215/temimi-realtime/internal/models"
)

type fakeAdmin struct {
	danmu     []models.DanmuEntry
	comments  []models.Comment
	failBatch bool
	failID    int64
	batches   [][]int64
}

func paginate[T any](all []T, q api.ListQuery) *models.Page[T] {
	start := (q.Page - 1) * q.PageSize
	end := start + q.PageSize
	if start > len(all) {
		start = len(all)
	}
	if end > len(all) {
		end = len(all)
	}
	pages := (len(all) + q.PageSize - 1) / q.PageSize
	return &models.Page[T]{
		Records: append([]T(nil), all[start:end]...),
		Total:   int64(len(all)),
		Size:    q.PageSize,
		Current: q.Page,
		Pages:   pages,
	}
}

func (f *fakeAdmin) AdminDanmuList(_ context.Context, q api.ListQuery) (*models.Page[models.DanmuEntry], error) {
	var filtered []models.DanmuEntry
	for _, d := range f.danmu {
		if q.VideoID != 0 && d.VideoID != q.VideoID {
			continue
		}
		if q.Keyword != "" && !strings.Contains(d.Content, q.Keyword) {
			continue
		}
		filtered = append(filtered, d)
	}
	return paginate(filtered, q), nil
}

func (f *fakeAdmin) removeDanmu(id int64) bool {
	for i, d := range f.danmu {
		if d.ID == id {
			f.danmu = append(f.danmu[:i], f.danmu[i+1:]...)
			return true
		}
	}
	return false
}

func (f *fakeAdmin) AdminDeleteDanmu(_ context.Context, id int64) error {
	if id == f.failID {
		return errors.New("delete failed")
	}
	f.removeDanmu(id)
	return nil
}

func (f *fakeAdmin) AdminBatchDeleteDanmu(_ context.Context, ids []int64) error {
	f.batches = append(f.batches, append([]int64(nil), ids...))
	if f.failBatch {
		return errors.New("batch failed")
	}
	for _, id := range ids {
		f.removeDanmu(id)
	}
	return nil
}

func (f *fakeAdmin) AdminCommentList(_ context.Context, q api.ListQuery) (*models.Page[models.Comment], error) {
	return paginate(f.comments, q), nil
}

func (f *fakeAdmin) AdminDeleteComment(_ context.Context, id int64) error {
	for i, c := range f.comments {
		if c.ID == id {
			f.comments = append(f.comments[:i], f.comments[i+1:]...)
			return nil
		}
	}
	return errors.New("not found")
}

func danmuFixture(contents ...string) []models.DanmuEntry {
	out := make([]models.DanmuEntry, len(contents))
	for i, c := range contents {
		out[i] = models.DanmuEntry{ID: int64(i + 1), VideoID: 5, Content: c}
	}
	return out
}

func TestPurgeDanmu_DeletesMatchesAcrossPages(t *testing.T) {
	admin := &fakeAdmin{danmu: danmuFixture("好看", "广告一", "哈哈", "广告二", "加微信", "正常", "广告三")}
	p := NewPurger(admin, 2)

	sum, err := p.PurgeDanmu(context.Background(), Filter{
		Matcher: NewKeywordMatcher([]string{"广告", "微信"}),
	})
	if err != nil {
		t.Fatalf("PurgeDanmu() error = %v", err)
	}

	want := PurgeSummary{Scanned: 7, Matched: 4, Deleted: 4}
	if sum != want {
		t.Errorf("summary = %+v, want %+v", sum, want)
	}
	var left []string
	for _, d := range admin.danmu {
		left = append(left, d.Content)
	}
	if strings.Join(left, ",") != "好看,哈哈,正常" {
		t.Errorf("left = %v", left)
	}
}

func TestPurgeDanmu_BatchFailureFallsBackToSingleDeletes(t *testing.T) {
	admin := &fakeAdmin{danmu: danmuFixture("spam a", "spam b", "fine"), failBatch: true, failID: 2}
	p := NewPurger(admin, 10)

	sum, err := p.PurgeDanmu(context.Background(), Filter{Match: func(s string) bool {
		return strings.HasPrefix(s, "spam")
	}})
	if err != nil {
		t.Fatalf("PurgeDanmu() error = %v", err)
	}
	if sum.Deleted != 1 || sum.Failed != 1 || sum.Matched != 2 {
		t.Errorf("summary = %+v", sum)
	}
	if len(admin.batches) != 1 {
		t.Errorf("batches = %v, want one attempt", admin.batches)
	}
}

func TestPurgeDanmu_DryRunDeletesNothing(t *testing.T) {
	admin := &fakeAdmin{danmu: danmuFixture("bad 1", "bad 2", "bad 3")}
	p := NewPurger(admin, 2)

	sum, err := p.PurgeDanmu(context.Background(), Filter{Keyword: "bad", DryRun: true})
	if err != nil {
		t.Fatalf("PurgeDanmu() error = %v", err)
	}
	if sum.Matched != 3 || sum.Deleted != 0 || len(admin.danmu) != 3 {
		t.Errorf("summary = %+v left = %d", sum, len(admin.danmu))
	}
}

func TestPurgeDanmu_ServerSideNarrowing(t *testing.T) {
	admin := &fakeAdmin{danmu: danmuFixture("x", "y")}
	admin.danmu = append(admin.danmu, models.DanmuEntry{ID: 99, VideoID: 6, Content: "x"})
	p := NewPurger(admin, 10)

	sum, err := p.PurgeDanmu(context.Background(), Filter{VideoID: 6})
	if err != nil {
		t.Fatalf("PurgeDanmu() error = %v", err)
	}
	if sum.Deleted != 1 || len(admin.danmu) != 2 {
		t.Errorf("summary = %+v left = %+v", sum, admin.danmu)
	}
}

func TestPurgeComments(t *testing.T) {
	admin := &fakeAdmin{comments: []models.Comment{
		{ID: 1, Content: "nice video"},
		{ID: 2, Content: "BUY NOW"},
		{ID: 3, Content: "buy now cheap"},
	}}
	p := NewPurger(admin, 2)

	sum, err := p.PurgeComments(context.Background(), Filter{Matcher: NewKeywordMatcher([]string{"buy now"})})
	if err != nil {
		t.Fatalf("PurgeComments() error = %v", err)
	}
	if sum.Deleted != 2 || len(admin.comments) != 1 || admin.comments[0].ID != 1 {
		t.Errorf("summary = %+v left = %+v", sum, admin.comments)
	}
}
