// Temimi Realtime - Messaging and Danmu Synchronization Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/temimi-realtime

package models

// ChatMeta is the per-thread bookkeeping record the backend keeps for one
// side of a conversation. UserID is the owner of the record, AnotherID the
// peer.
type ChatMeta struct {
	ThreadID   int64     `json:"id"`
	UserID     int64     `json:"user_id"`
	AnotherID  int64     `json:"another_id"`
	Deleted    bool      `json:"is_deleted,omitempty"`
	Unread     int       `json:"unread"`
	LatestTime Timestamp `json:"latest_time"`
}

// ChatMessage is one private message. Only Retracted may change after the
// message is cached; a recall never removes the record.
type ChatMessage struct {
	ID          int64     `json:"id"`
	SenderID    int64     `json:"user_id"`
	RecipientID int64     `json:"another_id"`
	Content     string    `json:"content"`
	SentAt      Timestamp `json:"time"`
	Retracted   bool      `json:"withdraw"`
}

// PeerOf returns the participant of m that is not self.
func (m ChatMessage) PeerOf(self int64) int64 {
	if m.SenderID == self {
		return m.RecipientID
	}
	return m.SenderID
}

// ConversationThread is a cached peer-to-peer conversation.
type ConversationThread struct {
	Peer           UserProfile   `json:"user"`
	Chat           ChatMeta      `json:"chat"`
	Messages       []ChatMessage `json:"messages"`
	HasMoreHistory bool          `json:"more"`
}

// PeerID returns the id of the other participant.
func (t *ConversationThread) PeerID() int64 {
	if t.Peer.UID != 0 {
		return t.Peer.UID
	}
	return t.Chat.AnotherID
}

// Clone returns a deep copy of t.
func (t *ConversationThread) Clone() ConversationThread {
	c := *t
	if t.Messages != nil {
		c.Messages = make([]ChatMessage, len(t.Messages))
		copy(c.Messages, t.Messages)
	}
	return c
}

// OutgoingChat is the payload written to the messaging channel when the
// user sends a private message. Server-assigned fields are absent.
type OutgoingChat struct {
	AnotherID int64  `json:"another_id" validate:"required,gt=0"`
	Content   string `json:"content" validate:"required,max=2000"`
}
