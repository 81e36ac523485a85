// Temimi Realtime - Messaging and Danmu Synchronization Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/temimi-realtime

package app

import (
	"context"
	"errors"
	"testing"

	"github.com/tomtom215/temimi-realtime/internal/api"
	"github.com/tomtom215/temimi-realtime/internal/models"
)

func TestLoadConversationsAndMore(t *testing.T) {
	h := newHarness(t)
	h.loggedIn(t, 1)
	h.conv.Upsert(thread(99, 1, 50, 0))
	h.backend.chats = map[int][]models.ConversationThread{
		0: {thread(1, 1, 2, 0), thread(2, 1, 3, 0)},
		2: {thread(3, 1, 4, 0)},
	}
	h.backend.chatsMore = map[int]bool{0: true}

	if err := h.app.LoadConversations(context.Background()); err != nil {
		t.Fatalf("LoadConversations() error = %v", err)
	}
	if h.conv.Len() != 2 {
		t.Fatalf("Len() = %d, want the stale thread replaced", h.conv.Len())
	}

	more, err := h.app.LoadMoreConversations(context.Background())
	if err != nil || more {
		t.Fatalf("LoadMoreConversations() = %v, %v", more, err)
	}
	if h.conv.Len() != 3 || h.backend.called("RecentChats:2") != 1 {
		t.Errorf("Len() = %d calls = %v", h.conv.Len(), h.backend.calls)
	}

	more, err = h.app.LoadMoreConversations(context.Background())
	if err != nil || more || len(h.backend.calls) != 2 {
		t.Errorf("exhausted list fetched again: %v", h.backend.calls)
	}
}

func TestLoadMore(t *testing.T) {
	h := newHarness(t)
	th := thread(1, 1, 2, 0, 10, 11)
	th.HasMoreHistory = true
	h.conv.Upsert(th)
	h.backend.history = &api.HistoryPage{
		Messages: []models.ChatMessage{{ID: 8}, {ID: 9}, {ID: 10}},
		More:     false,
	}

	if err := h.app.LoadMore(context.Background(), 2); err != nil {
		t.Fatalf("LoadMore() error = %v", err)
	}
	if h.backend.historyAt != 2 {
		t.Errorf("offset = %d, want 2", h.backend.historyAt)
	}
	got, _ := h.conv.FindByPeer(2)
	var ids []int64
	for _, m := range got.Messages {
		ids = append(ids, m.ID)
	}
	if len(ids) != 4 || ids[0] != 8 || ids[3] != 11 || got.HasMoreHistory {
		t.Errorf("messages = %v more = %v", ids, got.HasMoreHistory)
	}

	if err := h.app.LoadMore(context.Background(), 2); err != nil {
		t.Fatalf("LoadMore() error = %v", err)
	}
	if h.backend.called("MoreHistory") != 1 {
		t.Error("thread without more history was fetched again")
	}

	if err := h.app.LoadMore(context.Background(), 404); !errors.Is(err, ErrUnknownConversation) {
		t.Errorf("unknown peer: error = %v", err)
	}
}

func TestOpenConversation_CachedThread(t *testing.T) {
	h := newHarness(t)
	h.loggedIn(t, 1)
	for i := 0; i < 5; i++ {
		h.ledger.Increment(models.UnreadWhisper)
	}
	h.conv.Upsert(thread(7, 1, 2, 3))

	if err := h.app.OpenConversation(context.Background(), 2); err != nil {
		t.Fatalf("OpenConversation() error = %v", err)
	}

	if got := h.ledger.Get(models.UnreadWhisper); got != 5 {
		t.Errorf("whisper = %d, want 5 until the read frame arrives", got)
	}
	th, _ := h.conv.FindByPeer(2)
	if th.Chat.Unread != 0 {
		t.Errorf("thread unread = %d", th.Chat.Unread)
	}
	if peer, ok := h.conv.OpenPeer(); !ok || peer != 2 || !h.conv.ViewActive() {
		t.Errorf("open peer = %d %v active = %v", peer, ok, h.conv.ViewActive())
	}
	if h.backend.called("CreateChat") != 0 || h.backend.called("MarkOnline") != 1 {
		t.Errorf("calls = %v", h.backend.calls)
	}
}

func TestOpenConversation_CreatesMissingThread(t *testing.T) {
	h := newHarness(t)
	h.loggedIn(t, 1)
	created := thread(30, 1, 9, 0)
	h.backend.created = &created

	if err := h.app.OpenConversation(context.Background(), 9); err != nil {
		t.Fatalf("OpenConversation() error = %v", err)
	}
	if _, ok := h.conv.FindByPeer(9); !ok {
		t.Error("created thread not cached")
	}

	h.backend.created = nil
	if err := h.app.OpenConversation(context.Background(), 10); !errors.Is(err, ErrUnknownConversation) {
		t.Errorf("empty create: error = %v", err)
	}
}

func TestOpenConversation_RequiresSession(t *testing.T) {
	h := newHarness(t)
	if err := h.app.OpenConversation(context.Background(), 2); !errors.Is(err, ErrNotLoggedIn) {
		t.Errorf("error = %v, want ErrNotLoggedIn", err)
	}
}

func TestCloseConversation(t *testing.T) {
	h := newHarness(t)
	h.loggedIn(t, 1)
	h.conv.Upsert(thread(7, 1, 2, 0))
	if err := h.app.OpenConversation(context.Background(), 2); err != nil {
		t.Fatalf("OpenConversation() error = %v", err)
	}

	if err := h.app.CloseConversation(context.Background()); err != nil {
		t.Fatalf("CloseConversation() error = %v", err)
	}
	if _, ok := h.conv.OpenPeer(); ok || h.conv.ViewActive() {
		t.Error("conversation still open")
	}
	if h.backend.offline != [2]int64{1, 2} {
		t.Errorf("MarkOffline args = %v", h.backend.offline)
	}

	if err := h.app.CloseConversation(context.Background()); err != nil {
		t.Fatalf("second CloseConversation() error = %v", err)
	}
	if h.backend.called("MarkOffline") != 1 {
		t.Error("closing with nothing open reached the backend")
	}
}

func TestSendChat(t *testing.T) {
	tests := []struct {
		name     string
		peer     int64
		text     string
		wantSent bool
	}{
		{name: "valid", peer: 2, text: "hello", wantSent: true},
		{name: "empty text", peer: 2, text: ""},
		{name: "no peer", peer: 0, text: "hello"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			err := h.app.SendChat(tt.peer, tt.text)
			if (err == nil) != tt.wantSent {
				t.Fatalf("SendChat() error = %v", err)
			}
			if (len(h.rt.sent) == 1) != tt.wantSent {
				t.Fatalf("sent = %v", h.rt.sent)
			}
			if tt.wantSent {
				got := h.rt.sent[0].(models.OutgoingChat)
				if got.AnotherID != tt.peer || got.Content != tt.text {
					t.Errorf("payload = %+v", got)
				}
			}
		})
	}
}

func TestMarkAllRead(t *testing.T) {
	tests := []struct {
		name     string
		cat      models.UnreadCategory
		clearErr error
		wantErr  bool
	}{
		{name: "reply", cat: models.UnreadReply},
		{name: "whisper zeroes threads", cat: models.UnreadWhisper},
		{name: "backend failure keeps local zero", cat: models.UnreadLove, clearErr: errors.New("boom"), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			h.loggedIn(t, 1)
			h.ledger.Increment(tt.cat)
			h.ledger.Increment(models.UnreadSystem)
			h.conv.Upsert(thread(1, 1, 2, 4))
			h.backend.clearErr = tt.clearErr

			err := h.app.MarkAllRead(context.Background(), tt.cat)
			if (err != nil) != tt.wantErr {
				t.Fatalf("MarkAllRead() error = %v", err)
			}
			if h.ledger.Get(tt.cat) != 0 || h.ledger.Get(models.UnreadSystem) != 1 {
				t.Errorf("ledger = %v", h.ledger.Snapshot().Map())
			}
			th, _ := h.conv.FindByPeer(2)
			wantUnread := 4
			if tt.cat == models.UnreadWhisper {
				wantUnread = 0
			}
			if th.Chat.Unread != wantUnread {
				t.Errorf("thread unread = %d, want %d", th.Chat.Unread, wantUnread)
			}
			if len(h.backend.cleared) != 1 || h.backend.cleared[0] != tt.cat {
				t.Errorf("cleared = %v", h.backend.cleared)
			}
		})
	}
}

func TestMarkAllRead_InvalidCategory(t *testing.T) {
	h := newHarness(t)
	if err := h.app.MarkAllRead(context.Background(), models.UnreadCategory(42)); err == nil {
		t.Fatal("MarkAllRead() error = nil")
	}
	if h.backend.called("ClearUnread") != 0 {
		t.Error("invalid category reached the backend")
	}
}
