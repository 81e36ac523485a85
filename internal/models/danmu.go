// Temimi Realtime - Messaging and Danmu Synchronization Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/temimi-realtime

package models

// Danmu display modes as stored by the backend.
const (
	DanmuModeScroll = 1
	DanmuModeTop    = 2
	DanmuModeBottom = 3
)

// DefaultDanmuFontSize is applied by the backend when none is sent.
const DefaultDanmuFontSize = 25

// DanmuEntry is one timed overlay comment on a video.
//
// LocalID and Pending never travel on the wire. They mark an entry that was
// appended optimistically and has not been confirmed by the server yet.
type DanmuEntry struct {
	ID         int64     `json:"id,omitempty"`
	VideoID    int64     `json:"vid,omitempty"`
	SenderID   int64     `json:"uid,omitempty"`
	Content    string    `json:"content" validate:"required,max=100"`
	TimeOffset float64   `json:"time_point" validate:"gte=0"`
	Color      string    `json:"color,omitempty" validate:"omitempty,danmu_color"`
	Mode       int       `json:"mode,omitempty" validate:"omitempty,oneof=1 2 3"`
	FontSize   int       `json:"fontsize,omitempty" validate:"omitempty,gte=12,lte=64"`
	State      int       `json:"state,omitempty"`
	CreatedAt  Timestamp `json:"create_date"`

	LocalID string `json:"-"`
	Pending bool   `json:"-"`
}

// Outgoing strips server-assigned and client-only fields.
func (d DanmuEntry) Outgoing() DanmuEntry {
	out := d
	out.ID = 0
	out.State = 0
	out.CreatedAt = Timestamp{}
	out.LocalID = ""
	out.Pending = false
	return out
}

// SameEcho reports whether other looks like the server echo of d: same
// sender, content and playback offset.
func (d DanmuEntry) SameEcho(other DanmuEntry) bool {
	return d.SenderID == other.SenderID &&
		d.Content == other.Content &&
		d.TimeOffset == other.TimeOffset
}
