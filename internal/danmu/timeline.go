// Temimi Realtime - Messaging and Danmu Synchronization Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/temimi-realtime

// Package danmu caches the overlay comments of the video being watched.
package danmu

import (
	"sync"

	"github.com/google/uuid"

	"github.com/tomtom215/temimi-realtime/internal/metrics"
	"github.com/tomtom215/temimi-realtime/internal/models"
)

// Timeline is the ordered list of danmu entries for one video.
//
// Entries posted through REST are appended optimistically as pending and
// carry a local id until the server id is known. Entries pushed by the
// danmu channel are appended as they arrive, except that a push matching a
// local entry without a server id (same sender, content, and offset)
// replaces it in place.
type Timeline struct {
	mu      sync.RWMutex
	videoID string
	entries []models.DanmuEntry
}

// NewTimeline returns an empty timeline.
func NewTimeline() *Timeline {
	return &Timeline{}
}

// VideoID returns the video the timeline was last reset for.
func (t *Timeline) VideoID() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.videoID
}

// Reset empties the timeline and binds it to videoID.
func (t *Timeline) Reset(videoID string) {
	t.mu.Lock()
	t.videoID = videoID
	t.entries = nil
	t.report()
	t.mu.Unlock()
}

// Append adds a server-pushed entry. It returns true when the entry
// replaced a cached one instead of being appended: the entry with the same
// server id, or else a pending optimistic entry it echoes.
func (t *Timeline) Append(entry models.DanmuEntry) bool {
	entry.LocalID = ""
	entry.Pending = false

	t.mu.Lock()
	defer t.mu.Unlock()
	if i := t.indexByID(entry.ID); i >= 0 {
		t.entries[i] = entry
		return true
	}
	for i := range t.entries {
		if awaitingEcho(t.entries[i]) && t.entries[i].SameEcho(entry) {
			t.entries[i] = entry
			return true
		}
	}
	t.entries = append(t.entries, entry)
	t.report()
	return false
}

// AppendPending adds an optimistic entry and returns the local id used to
// confirm or discard it.
func (t *Timeline) AppendPending(entry models.DanmuEntry) string {
	entry.ID = 0
	entry.LocalID = uuid.NewString()
	entry.Pending = true

	t.mu.Lock()
	t.entries = append(t.entries, entry)
	t.report()
	t.mu.Unlock()
	return entry.LocalID
}

// Confirm replaces the pending entry localID with the server's copy. When
// the push echo already replaced it, Confirm is a no-op and returns false.
func (t *Timeline) Confirm(localID string, confirmed models.DanmuEntry) bool {
	confirmed.LocalID = ""
	confirmed.Pending = false

	t.mu.Lock()
	defer t.mu.Unlock()
	for i := range t.entries {
		if t.entries[i].LocalID == localID {
			if confirmed.ID == 0 {
				// acknowledged without the row; the push echo still
				// supplies the server id
				t.entries[i].Pending = false
				return true
			}
			if j := t.indexByID(confirmed.ID); j >= 0 {
				// the echo arrived first and was appended on its own
				t.entries = append(t.entries[:i], t.entries[i+1:]...)
				t.report()
				return true
			}
			t.entries[i] = confirmed
			return true
		}
	}
	return false
}

// Discard removes the pending entry localID after a failed post.
func (t *Timeline) Discard(localID string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	for i := range t.entries {
		if t.entries[i].LocalID == localID {
			t.entries = append(t.entries[:i], t.entries[i+1:]...)
			t.report()
			return true
		}
	}
	return false
}

// RemoveByID removes the entry with the given server id. Only the first
// match is removed; an unknown id is a no-op.
func (t *Timeline) RemoveByID(id int64) bool {
	if id == 0 {
		return false
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	for i := range t.entries {
		if t.entries[i].ID == id {
			t.entries = append(t.entries[:i], t.entries[i+1:]...)
			t.report()
			return true
		}
	}
	return false
}

// Replace swaps in a fetched list, keeping entries still pending.
func (t *Timeline) Replace(list []models.DanmuEntry) {
	t.mu.Lock()
	defer t.mu.Unlock()
	next := make([]models.DanmuEntry, 0, len(list))
	next = append(next, list...)
	for _, e := range t.entries {
		if e.Pending {
			next = append(next, e)
		}
	}
	t.entries = next
	t.report()
}

// Clear drops every entry.
func (t *Timeline) Clear() {
	t.mu.Lock()
	t.entries = nil
	t.report()
	t.mu.Unlock()
}

// All returns a copy of the entries in arrival order.
func (t *Timeline) All() []models.DanmuEntry {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]models.DanmuEntry, len(t.entries))
	copy(out, t.entries)
	return out
}

// Len returns the number of entries, pending ones included.
func (t *Timeline) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.entries)
}

func (t *Timeline) indexByID(id int64) int {
	if id == 0 {
		return -1
	}
	for i := range t.entries {
		if t.entries[i].ID == id {
			return i
		}
	}
	return -1
}

func awaitingEcho(e models.DanmuEntry) bool {
	return e.ID == 0 && e.LocalID != ""
}

func (t *Timeline) report() {
	metrics.CachedDanmu.Set(float64(len(t.entries)))
}
