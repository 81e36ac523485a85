// Temimi Realtime - Messaging and Danmu Synchronization Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/temimi-realtime

package app

import (
	"context"
	"fmt"

	"github.com/tomtom215/temimi-realtime/internal/events"
	"github.com/tomtom215/temimi-realtime/internal/logging"
	"github.com/tomtom215/temimi-realtime/internal/models"
	"github.com/tomtom215/temimi-realtime/internal/realtime"
	"github.com/tomtom215/temimi-realtime/internal/validation"
)

// LoadConversations replaces the cached conversation list with the first
// page of recent chats.
func (a *App) LoadConversations(ctx context.Context) error {
	ctx = logging.ContextWithNewCorrelationID(ctx)
	page, err := a.backend.RecentChats(ctx, 0)
	if err != nil {
		return a.fail(ctx, "load conversations", err)
	}
	a.conv.ReplaceAll(page.Threads)
	a.moreList.Store(page.More)
	a.changed(events.ChangeConversations)
	return nil
}

// LoadMoreConversations appends the next page of recent chats. It reports
// whether further pages exist.
func (a *App) LoadMoreConversations(ctx context.Context) (bool, error) {
	if !a.moreList.Load() {
		return false, nil
	}
	ctx = logging.ContextWithNewCorrelationID(ctx)
	page, err := a.backend.RecentChats(ctx, a.conv.Len())
	if err != nil {
		return true, a.fail(ctx, "load conversations", err)
	}
	a.conv.AppendPage(page.Threads)
	a.moreList.Store(page.More)
	a.changed(events.ChangeConversations)
	return page.More, nil
}

// LoadMore fetches the page of history older than what the thread with
// peer holds. A thread without older history is left alone.
func (a *App) LoadMore(ctx context.Context, peer int64) error {
	thread, ok := a.conv.FindByPeer(peer)
	if !ok {
		return ErrUnknownConversation
	}
	if !thread.HasMoreHistory {
		return nil
	}

	ctx = logging.ContextWithNewCorrelationID(ctx)
	page, err := a.backend.MoreHistory(ctx, peer, len(thread.Messages))
	if err != nil {
		return a.fail(ctx, "load history", err)
	}
	if a.conv.PrependHistory(peer, page.Messages, page.More) {
		a.changed(events.ChangeConversations)
	}
	return nil
}

// OpenConversation makes peer the open conversation. A thread missing
// from the cache is created on the backend. The thread's unread count is
// cleared locally and the backend is told the user is reading it.
func (a *App) OpenConversation(ctx context.Context, peer int64) error {
	if peer <= 0 {
		return fmt.Errorf("open conversation: invalid peer %d", peer)
	}
	if a.session.Token() == "" {
		return ErrNotLoggedIn
	}
	ctx = logging.ContextWithNewCorrelationID(ctx)

	thread, ok := a.conv.FindByPeer(peer)
	if !ok {
		created, err := a.backend.CreateChat(ctx, peer)
		if err != nil {
			return a.fail(ctx, "create conversation", err)
		}
		if created == nil {
			return fmt.Errorf("create conversation with %d: %w", peer, ErrUnknownConversation)
		}
		a.conv.Upsert(*created)
		thread = *created
	}

	a.conv.SetOpenPeer(peer)
	a.conv.SetViewActive(true)
	// The whisper slot drops when the backend pushes the matching read frame.
	if thread.Chat.Unread > 0 {
		a.conv.ZeroUnread(thread.Chat.ThreadID)
	}
	a.changed(events.ChangeConversations)

	if err := a.backend.MarkOnline(ctx, peer); err != nil {
		return a.fail(ctx, "mark online", err)
	}
	return nil
}

// CloseConversation clears the open conversation and tells the backend the
// user stopped reading it.
func (a *App) CloseConversation(ctx context.Context) error {
	peer, ok := a.conv.OpenPeer()
	a.conv.ClearOpenPeer()
	a.conv.SetViewActive(false)
	if !ok {
		return nil
	}
	a.changed(events.ChangeConversations)

	self := a.session.UserID()
	if self == 0 {
		return nil
	}
	ctx = logging.ContextWithNewCorrelationID(ctx)
	if err := a.backend.MarkOffline(ctx, self, peer); err != nil {
		return a.fail(ctx, "mark offline", err)
	}
	return nil
}

// SendChat writes a private message to the messaging channel. The message
// enters the cache when the server echoes it back.
func (a *App) SendChat(peer int64, text string) error {
	msg := models.OutgoingChat{AnotherID: peer, Content: text}
	if err := validation.Validate(msg); err != nil {
		a.notify(events.NoticeWarning, err.Error())
		return err
	}
	a.rt.Send(realtime.Messaging, msg)
	return nil
}

// MarkAllRead zeroes cat locally and then clears it on the backend. The
// local zero is kept when the backend call fails; the next counter push
// corrects it.
func (a *App) MarkAllRead(ctx context.Context, cat models.UnreadCategory) error {
	if !cat.Valid() {
		return fmt.Errorf("mark all read: invalid category %d", cat)
	}
	a.ledger.MarkChannelAllRead(cat)
	if cat == models.UnreadWhisper {
		a.conv.ZeroAllUnread()
		a.changed(events.ChangeConversations)
	}
	a.changed(events.ChangeLedger)

	ctx = logging.ContextWithNewCorrelationID(ctx)
	if err := a.backend.ClearUnread(ctx, cat); err != nil {
		return a.fail(ctx, "clear unread", err)
	}
	return nil
}
