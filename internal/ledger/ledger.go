// Temimi Realtime - Messaging and Danmu Synchronization Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/temimi-realtime

// Package ledger holds the six-slot unread counter shown next to the
// notification categories.
//
// The ledger is written by the realtime dispatch loop and by the optimistic
// "mark all read" action. A REST fetch never writes it. Every slot is
// clamped at zero.
package ledger

import (
	"sync"

	"github.com/tomtom215/temimi-realtime/internal/metrics"
	"github.com/tomtom215/temimi-realtime/internal/models"
)

// Snapshot is a copy of all slots in category order.
type Snapshot [models.UnreadCategoryCount]int

// Ledger is safe for concurrent use. Readers always observe a fully applied
// mutation.
type Ledger struct {
	mu    sync.RWMutex
	slots Snapshot
}

// New returns a ledger with every slot at zero.
func New() *Ledger {
	return &Ledger{}
}

// Increment adds one to the slot for cat.
func (l *Ledger) Increment(cat models.UnreadCategory) {
	if !cat.Valid() {
		return
	}
	l.mu.Lock()
	l.slots[cat]++
	v := l.slots[cat]
	l.mu.Unlock()
	report(cat, v)
}

// Decrement subtracts n from the slot for cat, stopping at zero.
// Negative n is treated as zero.
func (l *Ledger) Decrement(cat models.UnreadCategory, n int) {
	if !cat.Valid() || n <= 0 {
		return
	}
	l.mu.Lock()
	v := l.slots[cat] - n
	if v < 0 {
		v = 0
	}
	l.slots[cat] = v
	l.mu.Unlock()
	report(cat, v)
}

// Zero sets the slot for cat to zero.
func (l *Ledger) Zero(cat models.UnreadCategory) {
	if !cat.Valid() {
		return
	}
	l.mu.Lock()
	l.slots[cat] = 0
	l.mu.Unlock()
	report(cat, 0)
}

// MarkChannelAllRead zeroes cat ahead of server confirmation. A later
// confirmation zeroes the slot again, which is harmless.
func (l *Ledger) MarkChannelAllRead(cat models.UnreadCategory) {
	l.Zero(cat)
}

// Get returns the slot for cat, or 0 for an unknown category.
func (l *Ledger) Get(cat models.UnreadCategory) int {
	if !cat.Valid() {
		return 0
	}
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.slots[cat]
}

// Snapshot returns a copy of every slot.
func (l *Ledger) Snapshot() Snapshot {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.slots
}

// Total sums every slot.
func (l *Ledger) Total() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	total := 0
	for _, v := range l.slots {
		total += v
	}
	return total
}

// Reset zeroes every slot. Only logout calls this.
func (l *Ledger) Reset() {
	l.mu.Lock()
	l.slots = Snapshot{}
	l.mu.Unlock()
	for _, cat := range models.AllUnreadCategories() {
		report(cat, 0)
	}
}

// Map returns the slots keyed by category wire name.
func (s Snapshot) Map() map[string]int {
	out := make(map[string]int, len(s))
	for i, v := range s {
		out[models.UnreadCategory(i).String()] = v
	}
	return out
}

func report(cat models.UnreadCategory, v int) {
	metrics.UnreadCount.WithLabelValues(cat.String()).Set(float64(v))
}
