// Temimi Realtime - Messaging and Danmu Synchronization Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/temimi-realtime

package models

import "fmt"

// UnreadCategory indexes one slot of the unread ledger. The numeric values
// match the backend's message type codes.
type UnreadCategory int

const (
	UnreadReply UnreadCategory = iota
	UnreadAt
	UnreadLove
	UnreadSystem
	UnreadWhisper
	UnreadDynamic
)

// UnreadCategoryCount is the fixed number of ledger slots.
const UnreadCategoryCount = 6

var unreadCategoryNames = [UnreadCategoryCount]string{
	"reply", "at", "love", "system", "whisper", "dynamic",
}

// AllUnreadCategories lists every category in ledger order.
func AllUnreadCategories() []UnreadCategory {
	return []UnreadCategory{
		UnreadReply, UnreadAt, UnreadLove, UnreadSystem, UnreadWhisper, UnreadDynamic,
	}
}

// Valid reports whether c indexes a ledger slot.
func (c UnreadCategory) Valid() bool {
	return c >= 0 && int(c) < UnreadCategoryCount
}

// String returns the wire name of the category.
func (c UnreadCategory) String() string {
	if !c.Valid() {
		return fmt.Sprintf("unread(%d)", int(c))
	}
	return unreadCategoryNames[c]
}

// ParseUnreadCategory maps a wire name ("reply", "at", ...) to its category.
func ParseUnreadCategory(name string) (UnreadCategory, bool) {
	for i, n := range unreadCategoryNames {
		if n == name {
			return UnreadCategory(i), true
		}
	}
	return 0, false
}
