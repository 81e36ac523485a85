// Temimi Realtime - Messaging and Danmu Synchronization Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/temimi-realtime

package danmu

import (
	"reflect"
	"testing"

	"github.com/tomtom215/temimi-realtime/internal/models"
)

func entry(id, uid int64, content string, at float64) models.DanmuEntry {
	return models.DanmuEntry{ID: id, SenderID: uid, Content: content, TimeOffset: at}
}

func ids(list []models.DanmuEntry) []int64 {
	out := make([]int64, len(list))
	for i, e := range list {
		out[i] = e.ID
	}
	return out
}

func TestTimeline_RemoveByID(t *testing.T) {
	tests := []struct {
		name   string
		remove int64
		want   []int64
		ok     bool
	}{
		{"middle", 2, []int64{1, 3}, true},
		{"first", 1, []int64{2, 3}, true},
		{"absent", 9, []int64{1, 2, 3}, false},
		{"zero id", 0, []int64{1, 2, 3}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tl := NewTimeline()
			tl.Append(entry(1, 7, "a", 1))
			tl.Append(entry(2, 7, "b", 2))
			tl.Append(entry(3, 8, "c", 3))
			before := tl.All()

			if got := tl.RemoveByID(tt.remove); got != tt.ok {
				t.Errorf("RemoveByID(%d) = %v, want %v", tt.remove, got, tt.ok)
			}
			after := tl.All()
			if !reflect.DeepEqual(ids(after), tt.want) {
				t.Errorf("ids = %v, want %v", ids(after), tt.want)
			}
			// survivors are untouched
			for _, e := range after {
				for _, b := range before {
					if b.ID == e.ID && !reflect.DeepEqual(b, e) {
						t.Errorf("entry %d changed: %+v -> %+v", e.ID, b, e)
					}
				}
			}
		})
	}
}

func TestTimeline_PushReplacesMatchingPending(t *testing.T) {
	tl := NewTimeline()
	tl.Append(entry(1, 8, "first", 0.5))
	localID := tl.AppendPending(entry(0, 7, "hello", 12.5))

	if !tl.Append(entry(40, 7, "hello", 12.5)) {
		t.Fatal("echo did not correlate with the pending entry")
	}
	all := tl.All()
	if len(all) != 2 {
		t.Fatalf("len = %d, want 2", len(all))
	}
	if all[1].ID != 40 || all[1].Pending || all[1].LocalID != "" {
		t.Errorf("replaced entry = %+v", all[1])
	}

	// confirm after the echo finds nothing to replace
	if tl.Confirm(localID, entry(40, 7, "hello", 12.5)) {
		t.Error("Confirm after echo = true")
	}
	if tl.Len() != 2 {
		t.Errorf("len = %d, want 2", tl.Len())
	}
}

func TestTimeline_PushWithoutMatchAppends(t *testing.T) {
	tl := NewTimeline()
	tl.AppendPending(entry(0, 7, "hello", 12.5))

	// different offset: both coexist
	if tl.Append(entry(41, 7, "hello", 13)) {
		t.Error("mismatched push correlated")
	}
	if tl.Len() != 2 {
		t.Errorf("len = %d, want 2", tl.Len())
	}
}

func TestTimeline_ConfirmAndDiscard(t *testing.T) {
	tl := NewTimeline()
	a := tl.AppendPending(entry(0, 7, "keep", 1))
	b := tl.AppendPending(entry(0, 7, "drop", 2))

	if !tl.Confirm(a, entry(100, 7, "keep", 1)) {
		t.Fatal("Confirm(a) = false")
	}
	if !tl.Discard(b) {
		t.Fatal("Discard(b) = false")
	}
	if tl.Discard(b) {
		t.Error("second Discard(b) = true")
	}

	all := tl.All()
	if len(all) != 1 || all[0].ID != 100 || all[0].Pending {
		t.Errorf("timeline = %+v", all)
	}
}

func TestTimeline_ConfirmWithoutServerRow(t *testing.T) {
	tl := NewTimeline()
	id := tl.AppendPending(entry(0, 7, "ack only", 3))

	if !tl.Confirm(id, models.DanmuEntry{}) {
		t.Fatal("Confirm = false")
	}
	got := tl.All()[0]
	if got.Pending || got.Content != "ack only" {
		t.Errorf("entry = %+v", got)
	}

	// the broadcast still carries the id the post did not return
	if !tl.Append(entry(77, 7, "ack only", 3)) {
		t.Fatal("echo did not correlate with the acknowledged entry")
	}
	if all := tl.All(); len(all) != 1 || all[0].ID != 77 {
		t.Errorf("timeline = %+v", all)
	}
}

func TestTimeline_EchoOfConfirmedEntry(t *testing.T) {
	tl := NewTimeline()
	tl.Append(entry(1, 8, "other", 1))
	id := tl.AppendPending(entry(0, 7, "posted", 2))
	if !tl.Confirm(id, entry(55, 7, "posted", 2)) {
		t.Fatal("Confirm = false")
	}

	if !tl.Append(entry(55, 7, "posted", 2)) {
		t.Fatal("echo with a cached id was appended")
	}
	if got := ids(tl.All()); !reflect.DeepEqual(got, []int64{1, 55}) {
		t.Fatalf("ids = %v, want [1 55]", got)
	}

	if !tl.RemoveByID(55) {
		t.Fatal("RemoveByID(55) = false")
	}
	if got := ids(tl.All()); !reflect.DeepEqual(got, []int64{1}) {
		t.Errorf("ids after delete = %v, want [1]", got)
	}
}

func TestTimeline_EchoBeforeConfirm(t *testing.T) {
	tl := NewTimeline()
	id := tl.AppendPending(entry(0, 7, "typed", 2))

	// the server normalized the content, so the echo does not correlate
	tl.Append(entry(60, 7, "typed!", 2))
	if !tl.Confirm(id, entry(60, 7, "typed!", 2)) {
		t.Fatal("Confirm = false")
	}

	all := tl.All()
	if len(all) != 1 || all[0].ID != 60 || all[0].Pending {
		t.Errorf("timeline = %+v, want the echo only", all)
	}
}

func TestTimeline_ReplaceKeepsPending(t *testing.T) {
	tl := NewTimeline()
	tl.Append(entry(1, 8, "stale", 1))
	tl.AppendPending(entry(0, 7, "in flight", 2))

	tl.Replace([]models.DanmuEntry{entry(5, 8, "x", 0), entry(6, 8, "y", 4)})

	all := tl.All()
	if len(all) != 3 {
		t.Fatalf("len = %d, want 3", len(all))
	}
	if !all[2].Pending {
		t.Error("pending entry lost on Replace")
	}
}

func TestTimeline_ResetAndClear(t *testing.T) {
	tl := NewTimeline()
	tl.Reset("12")
	tl.Append(entry(1, 8, "a", 1))
	if tl.VideoID() != "12" {
		t.Errorf("VideoID() = %q", tl.VideoID())
	}

	tl.Clear()
	if tl.Len() != 0 {
		t.Errorf("Len() after Clear = %d", tl.Len())
	}

	tl.Append(entry(2, 8, "b", 1))
	tl.Reset("13")
	if tl.Len() != 0 || tl.VideoID() != "13" {
		t.Errorf("Reset left len=%d video=%q", tl.Len(), tl.VideoID())
	}
}
