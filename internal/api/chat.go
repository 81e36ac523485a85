// Temimi Realtime - Messaging and Danmu Synchronization Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/temimi-realtime

package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/tomtom215/temimi-realtime/internal/models"
)

// ChatPage is one page of the recent-conversation list.
type ChatPage struct {
	Threads []models.ConversationThread
	More    bool
}

// HistoryPage is one page of older messages of a thread.
type HistoryPage struct {
	Messages []models.ChatMessage
	More     bool
}

type messageList struct {
	List []models.ChatMessage `json:"list"`
	More bool                 `json:"more"`
}

// threadItem is the {chat, user, detail} shape of list and create results.
type threadItem struct {
	Chat   models.ChatMeta    `json:"chat"`
	User   models.UserProfile `json:"user"`
	Detail messageList        `json:"detail"`
}

func (t threadItem) thread() models.ConversationThread {
	th := models.ConversationThread{
		Peer:           t.User,
		Chat:           t.Chat,
		Messages:       t.Detail.List,
		HasMoreHistory: t.Detail.More,
	}
	if th.Chat.AnotherID == 0 {
		th.Chat.AnotherID = t.User.UID
	}
	if th.Messages == nil {
		th.Messages = []models.ChatMessage{}
	}
	return th
}

type chatListResponse struct {
	List []threadItem `json:"list"`
	More bool         `json:"more"`
}

// RecentChats fetches the page of recent conversations starting at offset.
func (c *Client) RecentChats(ctx context.Context, offset int) (*ChatPage, error) {
	var resp chatListResponse
	if err := c.do(ctx, requestConfig{
		method: http.MethodGet,
		path:   "/api/chat/recent-list",
		query:  url.Values{"offset": {strconv.Itoa(offset)}},
	}, &resp); err != nil {
		return nil, fmt.Errorf("recent chats: %w", err)
	}

	page := &ChatPage{Threads: make([]models.ConversationThread, 0, len(resp.List)), More: resp.More}
	for _, item := range resp.List {
		page.Threads = append(page.Threads, item.thread())
	}
	return page, nil
}

// CreateChat opens (or restores) the thread with peer. The result is nil
// when the backend reports the thread exists without returning it.
func (c *Client) CreateChat(ctx context.Context, peer int64) (*models.ConversationThread, error) {
	var item *threadItem
	if err := c.do(ctx, requestConfig{
		method: http.MethodGet,
		path:   "/api/chat/create/" + strconv.FormatInt(peer, 10),
		route:  "/api/chat/create/{anotherId}",
	}, &item); err != nil {
		return nil, fmt.Errorf("create chat with %d: %w", peer, err)
	}
	if item == nil {
		return nil, nil
	}
	th := item.thread()
	if th.Peer.UID == 0 {
		th.Peer.UID = peer
	}
	if th.Chat.AnotherID == 0 {
		th.Chat.AnotherID = peer
	}
	return &th, nil
}

// MoreHistory fetches messages older than the offset-th newest message of
// the thread with peer.
func (c *Client) MoreHistory(ctx context.Context, peer int64, offset int) (*HistoryPage, error) {
	var resp messageList
	if err := c.do(ctx, requestConfig{
		method: http.MethodGet,
		path:   "/api/chat/get-more",
		query: url.Values{
			"anotherId": {strconv.FormatInt(peer, 10)},
			"offset":    {strconv.Itoa(offset)},
		},
	}, &resp); err != nil {
		return nil, fmt.Errorf("more history with %d: %w", peer, err)
	}
	if resp.List == nil {
		resp.List = []models.ChatMessage{}
	}
	return &HistoryPage{Messages: resp.List, More: resp.More}, nil
}

// MarkOnline tells the backend the user is viewing the thread with peer,
// which also clears that thread's unread count server-side.
func (c *Client) MarkOnline(ctx context.Context, peer int64) error {
	if err := c.do(ctx, requestConfig{
		method: http.MethodGet,
		path:   "/api/chat/online",
		query:  url.Values{"fromUid": {strconv.FormatInt(peer, 10)}},
	}, nil); err != nil {
		return fmt.Errorf("mark online with %d: %w", peer, err)
	}
	return nil
}

// MarkOffline tells the backend the user left the thread with peer. The
// endpoint does not check the token.
func (c *Client) MarkOffline(ctx context.Context, self, peer int64) error {
	if err := c.do(ctx, requestConfig{
		method: http.MethodGet,
		path:   "/api/chat/outline",
		query: url.Values{
			"fromUid": {strconv.FormatInt(self, 10)},
			"toUid":   {strconv.FormatInt(peer, 10)},
		},
		anonymous: true,
	}, nil); err != nil {
		return fmt.Errorf("mark offline with %d: %w", peer, err)
	}
	return nil
}

// ClearUnread zeroes one unread category server-side.
func (c *Client) ClearUnread(ctx context.Context, cat models.UnreadCategory) error {
	if !cat.Valid() {
		return fmt.Errorf("clear unread: invalid category %d", int(cat))
	}
	if err := c.do(ctx, requestConfig{
		method: http.MethodPost,
		path:   "/api/msg/unread/clear",
		query:  url.Values{"category": {cat.String()}},
	}, nil); err != nil {
		return fmt.Errorf("clear unread %s: %w", cat, err)
	}
	return nil
}
