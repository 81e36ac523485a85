// Temimi Realtime - Messaging and Danmu Synchronization Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/temimi-realtime

package realtime

import (
	"time"

	"github.com/tomtom215/temimi-realtime/internal/events"
	"github.com/tomtom215/temimi-realtime/internal/logging"
	"github.com/tomtom215/temimi-realtime/internal/metrics"
	"github.com/tomtom215/temimi-realtime/internal/models"
)

func (r *Reconciler) applyMessaging(frame MessagingFrame) {
	switch f := frame.(type) {
	case ErrorFrame:
		r.applyError(f)
	case CounterFrame:
		r.applyCounter(f)
	case WhisperAllRead:
		r.deps.Ledger.Zero(models.UnreadWhisper)
		r.deps.Conversations.ZeroAllUnread()
		r.changed(events.ChangeLedger)
		r.changed(events.ChangeConversations)
	case WhisperRead:
		r.deps.Ledger.Decrement(models.UnreadWhisper, f.Count)
		if !r.deps.Conversations.ZeroUnread(f.ThreadID) {
			r.unroutable(Messaging, f.frameType(), "Read receipt for uncached thread")
		}
		r.changed(events.ChangeLedger)
		r.changed(events.ChangeConversations)
	case WhisperRemove:
		r.deps.Ledger.Decrement(models.UnreadWhisper, f.Count)
		if _, ok := r.deps.Conversations.RemoveByThread(f.ThreadID); !ok {
			r.unroutable(Messaging, f.frameType(), "Remove for uncached thread")
		}
		r.changed(events.ChangeLedger)
		r.changed(events.ChangeConversations)
	case WhisperReceive:
		r.applyReceive(f)
	case WhisperRecall:
		r.applyRecall(f)
	}
}

func (r *Reconciler) applyError(f ErrorFrame) {
	if IsSessionExpiry(f.Message) {
		metrics.SessionExpirations.Inc()
		logging.Warn().Str("message", f.Message).Msg("Session expired, signing out")
		r.deps.Session.Clear()
		r.Close(Messaging)
		r.changed(events.ChangeSession)
	} else {
		logging.Info().Str("message", f.Message).Msg("Server reported an error")
	}
	r.notify(events.NoticeError, f.Message)
}

func (r *Reconciler) applyCounter(f CounterFrame) {
	switch f.Action {
	case CounterAllRead:
		r.deps.Ledger.Zero(f.Category)
	case CounterReceive:
		r.deps.Ledger.Increment(f.Category)
	}
	r.changed(events.ChangeLedger)
}

// applyReceive reconciles one delivered private message.
//
// The echo of the user's own message only lands in the message list while
// the conversation view is active; a peer's message always does. In both
// cases the thread moves to the front.
func (r *Reconciler) applyReceive(f WhisperReceive) {
	self := r.deps.Session.UserID()
	conv := r.deps.Conversations
	echo := self != 0 && f.Detail.SenderID == self

	peer := f.Detail.SenderID
	if echo {
		peer = f.Detail.RecipientID
	}
	if peer == 0 {
		r.unroutable(Messaging, f.frameType(), "Message without a peer")
		return
	}

	if !echo && !f.Online {
		r.deps.Ledger.Increment(models.UnreadWhisper)
		r.changed(events.ChangeLedger)
	}

	appendMsg := !echo || conv.ViewActive()

	if existing, ok := conv.FindByPeer(peer); ok {
		updated := existing
		mergeChat(&updated, f.Chat, peer)
		if f.User.UID == peer {
			updated.Peer = f.User
		}
		conv.Upsert(updated)
		if appendMsg {
			conv.AppendMessage(peer, f.Detail)
		}
	} else {
		thread := models.ConversationThread{
			Peer: f.User,
			Chat: f.Chat,
		}
		if thread.Peer.UID != peer {
			thread.Peer = models.UserProfile{UID: peer}
		}
		if thread.Chat.AnotherID == 0 {
			thread.Chat.AnotherID = peer
		}
		if appendMsg {
			thread.Messages = []models.ChatMessage{f.Detail}
		}
		conv.Upsert(thread)
	}

	conv.Promote(peer, receivedAt(f))
	r.changed(events.ChangeConversations)
}

// mergeChat copies the server's view of the chat record into t when it
// describes the same peer.
func mergeChat(t *models.ConversationThread, incoming models.ChatMeta, peer int64) {
	if incoming.AnotherID != 0 && incoming.AnotherID != peer {
		return
	}
	if incoming.ThreadID != 0 {
		t.Chat.ThreadID = incoming.ThreadID
	}
	if incoming.UserID != 0 {
		t.Chat.UserID = incoming.UserID
	}
	t.Chat.AnotherID = peer
	t.Chat.Deleted = incoming.Deleted
	t.Chat.Unread = incoming.Unread
}

func receivedAt(f WhisperReceive) models.Timestamp {
	switch {
	case !f.Chat.LatestTime.IsZero():
		return f.Chat.LatestTime
	case !f.Detail.SentAt.IsZero():
		return f.Detail.SentAt
	default:
		return models.NewTimestamp(time.Now())
	}
}

func (r *Reconciler) applyRecall(f WhisperRecall) {
	self := r.deps.Session.UserID()
	peer := f.SendID
	if peer == self {
		peer = f.AcceptID
	}
	if !r.deps.Conversations.Retract(peer, f.MessageID) {
		r.unroutable(Messaging, f.frameType(), "Recall for uncached message")
		return
	}
	r.changed(events.ChangeConversations)
}
