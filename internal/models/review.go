// Temimi Realtime - Messaging and Danmu Synchronization Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/temimi-realtime

package models

// Video review states as stored by the backend.
const (
	VideoStatusPending  = 0
	VideoStatusApproved = 1
	VideoStatusRejected = 2
)

// Video is a submitted video as listed by the review endpoints.
type Video struct {
	VID         int64     `json:"vid"`
	UID         int64     `json:"uid"`
	Title       string    `json:"title"`
	Type        int       `json:"type"`
	Tags        string    `json:"tags"`
	Description string    `json:"descr"`
	CoverURL    string    `json:"cover_url"`
	VideoURL    string    `json:"video_url"`
	Duration    float64   `json:"duration"`
	Status      int       `json:"status"`
	UploadDate  Timestamp `json:"upload_date"`
}

// Comment is a video comment as listed by the admin endpoints.
type Comment struct {
	ID         int64     `json:"id"`
	VID        int64     `json:"vid"`
	UID        int64     `json:"uid"`
	RootID     int64     `json:"root_id"`
	ParentID   int64     `json:"parent_id"`
	ToUserID   int64     `json:"to_user_id"`
	Content    string    `json:"content"`
	Love       int       `json:"love"`
	CreateTime Timestamp `json:"create_time"`
	Username   string    `json:"username,omitempty"`
}
