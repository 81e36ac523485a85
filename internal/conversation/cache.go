// Temimi Realtime - Messaging and Danmu Synchronization Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/temimi-realtime

package conversation

import (
	"sort"
	"sync"

	"github.com/tomtom215/temimi-realtime/internal/metrics"
	"github.com/tomtom215/temimi-realtime/internal/models"
)

// Cache is the ordered set of conversation threads, keyed by peer id.
//
// Lookups are linear; the list is as long as the user's recent-chat
// sidebar. Every accessor returns deep copies so callers can never mutate
// cached state outside the lock.
type Cache struct {
	mu      sync.RWMutex
	threads []models.ConversationThread

	// activity orders threads promoted by push frames ahead of the rest,
	// most recent promotion first. Server timestamps are kept as sent.
	activity map[int64]uint64
	seq      uint64

	viewActive bool
	openPeer   int64
}

// New returns an empty cache.
func New() *Cache {
	return &Cache{}
}

func (c *Cache) indexByPeer(peer int64) int {
	for i := range c.threads {
		if c.threads[i].PeerID() == peer {
			return i
		}
	}
	return -1
}

func (c *Cache) indexByThread(threadID int64) int {
	for i := range c.threads {
		if c.threads[i].Chat.ThreadID == threadID {
			return i
		}
	}
	return -1
}

// FindByPeer returns a copy of the thread with peer.
func (c *Cache) FindByPeer(peer int64) (models.ConversationThread, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if i := c.indexByPeer(peer); i >= 0 {
		return c.threads[i].Clone(), true
	}
	return models.ConversationThread{}, false
}

// FindByThread returns a copy of the thread whose chat record id is threadID.
func (c *Cache) FindByThread(threadID int64) (models.ConversationThread, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if i := c.indexByThread(threadID); i >= 0 {
		return c.threads[i].Clone(), true
	}
	return models.ConversationThread{}, false
}

// Upsert replaces the thread with the same peer in place, or appends it.
// Ordering is left to SortByRecency.
func (c *Cache) Upsert(thread models.ConversationThread) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.upsertLocked(thread.Clone())
}

func (c *Cache) upsertLocked(thread models.ConversationThread) {
	if i := c.indexByPeer(thread.PeerID()); i >= 0 {
		c.threads[i] = thread
		return
	}
	c.threads = append(c.threads, thread)
	c.report()
}

// RemoveByPeer deletes the thread with peer. When it was the open
// conversation the open pointer is cleared as well.
func (c *Cache) RemoveByPeer(peer int64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.removeAtLocked(c.indexByPeer(peer))
}

// RemoveByThread deletes the thread whose chat record id is threadID and
// returns its peer id.
func (c *Cache) RemoveByThread(threadID int64) (int64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	i := c.indexByThread(threadID)
	if i < 0 {
		return 0, false
	}
	peer := c.threads[i].PeerID()
	c.removeAtLocked(i)
	return peer, true
}

func (c *Cache) removeAtLocked(i int) bool {
	if i < 0 {
		return false
	}
	if c.threads[i].PeerID() == c.openPeer {
		c.openPeer = 0
	}
	delete(c.activity, c.threads[i].PeerID())
	c.threads = append(c.threads[:i], c.threads[i+1:]...)
	c.report()
	return true
}

// SortByRecency orders threads newest first: promoted threads by local
// activity, then the rest by server timestamp. The sort is stable so
// threads with equal keys keep their relative order.
func (c *Cache) SortByRecency() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sortLocked()
}

func (c *Cache) sortLocked() {
	sort.SliceStable(c.threads, func(i, j int) bool {
		ai, aj := c.activity[c.threads[i].PeerID()], c.activity[c.threads[j].PeerID()]
		if ai != aj {
			return ai > aj
		}
		return c.threads[i].Chat.LatestTime.After(c.threads[j].Chat.LatestTime.Time)
	})
}

// MoveToFront moves the thread with peer to index 0 without disturbing the
// relative order of the rest.
func (c *Cache) MoveToFront(peer int64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.moveToFrontLocked(peer)
}

func (c *Cache) moveToFrontLocked(peer int64) bool {
	i := c.indexByPeer(peer)
	if i < 0 {
		return false
	}
	if i == 0 {
		return true
	}
	t := c.threads[i]
	copy(c.threads[1:i+1], c.threads[:i])
	c.threads[0] = t
	return true
}

// Promote records activity on the thread with peer at server time ts and
// places it first, even when ts is older than another thread's.
func (c *Cache) Promote(peer int64, ts models.Timestamp) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	i := c.indexByPeer(peer)
	if i < 0 {
		return false
	}
	if c.activity == nil {
		c.activity = make(map[int64]uint64)
	}
	c.seq++
	c.activity[peer] = c.seq
	c.threads[i].Chat.LatestTime = ts
	c.moveToFrontLocked(peer)
	c.sortLocked()
	return true
}

// AppendMessage appends msg to the thread with peer. A message whose id is
// already present is not appended twice.
func (c *Cache) AppendMessage(peer int64, msg models.ChatMessage) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	i := c.indexByPeer(peer)
	if i < 0 {
		return false
	}
	if msg.ID != 0 {
		for _, m := range c.threads[i].Messages {
			if m.ID == msg.ID {
				return false
			}
		}
	}
	c.threads[i].Messages = append(c.threads[i].Messages, msg)
	return true
}

// Retract flags message msgID in the thread with peer as withdrawn.
// It reports false when either is missing.
func (c *Cache) Retract(peer, msgID int64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	i := c.indexByPeer(peer)
	if i < 0 {
		return false
	}
	for j := range c.threads[i].Messages {
		if c.threads[i].Messages[j].ID == msgID {
			c.threads[i].Messages[j].Retracted = true
			return true
		}
	}
	return false
}

// ZeroUnread clears the unread count of the thread whose chat record id is
// threadID.
func (c *Cache) ZeroUnread(threadID int64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	i := c.indexByThread(threadID)
	if i < 0 {
		return false
	}
	c.threads[i].Chat.Unread = 0
	return true
}

// ZeroAllUnread clears the unread count of every thread.
func (c *Cache) ZeroAllUnread() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.threads {
		c.threads[i].Chat.Unread = 0
	}
}

// All returns a deep copy of every thread in display order.
func (c *Cache) All() []models.ConversationThread {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]models.ConversationThread, len(c.threads))
	for i := range c.threads {
		out[i] = c.threads[i].Clone()
	}
	return out
}

// Len returns the number of cached threads.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.threads)
}

// Clear drops every thread and resets view state.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.threads = nil
	c.activity = nil
	c.openPeer = 0
	c.viewActive = false
	c.report()
}

// ReplaceAll swaps in the result of a recent-list fetch.
func (c *Cache) ReplaceAll(threads []models.ConversationThread) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.threads = make([]models.ConversationThread, 0, len(threads))
	c.activity = nil
	for i := range threads {
		c.upsertLocked(threads[i].Clone())
	}
	c.sortLocked()
	c.report()
}

// AppendPage merges the next recent-list page. Threads already cached keep
// their cached state because push frames may have updated them since the
// first page was fetched.
func (c *Cache) AppendPage(threads []models.ConversationThread) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range threads {
		if c.indexByPeer(threads[i].PeerID()) >= 0 {
			continue
		}
		c.threads = append(c.threads, threads[i].Clone())
	}
	c.sortLocked()
	c.report()
}

// PrependHistory inserts older messages ahead of the cached ones, skipping
// ids the thread already holds.
func (c *Cache) PrependHistory(peer int64, older []models.ChatMessage, hasMore bool) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	i := c.indexByPeer(peer)
	if i < 0 {
		return false
	}
	seen := make(map[int64]struct{}, len(c.threads[i].Messages))
	for _, m := range c.threads[i].Messages {
		seen[m.ID] = struct{}{}
	}
	merged := make([]models.ChatMessage, 0, len(older)+len(c.threads[i].Messages))
	for _, m := range older {
		if _, dup := seen[m.ID]; dup {
			continue
		}
		merged = append(merged, m)
	}
	c.threads[i].Messages = append(merged, c.threads[i].Messages...)
	c.threads[i].HasMoreHistory = hasMore
	return true
}

// SetViewActive records whether the chat view is on screen.
func (c *Cache) SetViewActive(active bool) {
	c.mu.Lock()
	c.viewActive = active
	c.mu.Unlock()
}

// ViewActive reports whether the chat view is on screen.
func (c *Cache) ViewActive() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.viewActive
}

// SetOpenPeer records the conversation currently open in the chat view.
func (c *Cache) SetOpenPeer(peer int64) {
	c.mu.Lock()
	c.openPeer = peer
	c.mu.Unlock()
}

// OpenPeer returns the open conversation's peer id, if any.
func (c *Cache) OpenPeer() (int64, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.openPeer, c.openPeer != 0
}

// ClearOpenPeer forgets the open conversation.
func (c *Cache) ClearOpenPeer() {
	c.SetOpenPeer(0)
}

func (c *Cache) report() {
	metrics.CachedThreads.Set(float64(len(c.threads)))
}
