// Temimi Realtime - Messaging and Danmu Synchronization Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/temimi-realtime

package app

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/tomtom215/temimi-realtime/internal/api"
	"github.com/tomtom215/temimi-realtime/internal/conversation"
	"github.com/tomtom215/temimi-realtime/internal/danmu"
	"github.com/tomtom215/temimi-realtime/internal/events"
	"github.com/tomtom215/temimi-realtime/internal/ledger"
	"github.com/tomtom215/temimi-realtime/internal/models"
	"github.com/tomtom215/temimi-realtime/internal/realtime"
	"github.com/tomtom215/temimi-realtime/internal/session"
)

const noticeSessionExpired = "session expired, please log in again"

var (
	// ErrNotLoggedIn is returned by operations that need a session.
	ErrNotLoggedIn = errors.New("app: not logged in")

	// ErrUnknownConversation is returned when a peer has no cached thread.
	ErrUnknownConversation = errors.New("app: unknown conversation")

	// ErrNoVideo is returned by danmu operations while no video is open.
	ErrNoVideo = errors.New("app: no video open")
)

// Backend is the part of the REST client the bindings call. *api.Client
// satisfies it.
type Backend interface {
	Login(ctx context.Context, creds api.Credentials) (*api.LoginResult, error)
	PersonalInfo(ctx context.Context) (models.UserProfile, error)

	RecentChats(ctx context.Context, offset int) (*api.ChatPage, error)
	CreateChat(ctx context.Context, peer int64) (*models.ConversationThread, error)
	MoreHistory(ctx context.Context, peer int64, offset int) (*api.HistoryPage, error)
	MarkOnline(ctx context.Context, peer int64) error
	MarkOffline(ctx context.Context, self, peer int64) error
	ClearUnread(ctx context.Context, cat models.UnreadCategory) error

	DanmuList(ctx context.Context, videoID int64) ([]models.DanmuEntry, error)
	PostDanmu(ctx context.Context, entry models.DanmuEntry) (models.DanmuEntry, error)
	DeleteDanmu(ctx context.Context, id int64) error
}

// Realtime is the reconciler surface the bindings drive.
// *realtime.Reconciler satisfies it.
type Realtime interface {
	Connect(ctx context.Context, kind realtime.ChannelKind, contextID string) error
	Close(kind realtime.ChannelKind)
	CloseAll()
	State(kind realtime.ChannelKind) realtime.ChannelState
	Channels() []realtime.ChannelInfo
	Send(kind realtime.ChannelKind, payload any)
}

// Events receives notices and change announcements. *events.Bus satisfies
// it.
type Events interface {
	Notify(level events.NoticeLevel, text string)
	PublishChange(kind events.ChangeKind)
}

// Deps wires the bindings to the state holders. Every field except Events
// is required.
type Deps struct {
	Session       *session.Store
	Ledger        *ledger.Ledger
	Conversations *conversation.Cache
	Danmu         *danmu.Timeline
	Realtime      Realtime
	Backend       Backend
	Events        Events

	// ConnectTimeout bounds each channel handshake. Zero leaves it to ctx.
	ConnectTimeout time.Duration
}

// App is the operation surface a UI calls. Push updates are applied by the
// reconciler; App performs the explicit fetches and user actions around
// them and keeps the same caches in step.
type App struct {
	session  *session.Store
	ledger   *ledger.Ledger
	conv     *conversation.Cache
	danmu    *danmu.Timeline
	rt       Realtime
	backend  Backend
	events   Events
	timeout  time.Duration
	moreList atomic.Bool
}

// New creates the bindings.
func New(d Deps) *App {
	return &App{
		session: d.Session,
		ledger:  d.Ledger,
		conv:    d.Conversations,
		danmu:   d.Danmu,
		rt:      d.Realtime,
		backend: d.Backend,
		events:  d.Events,
		timeout: d.ConnectTimeout,
	}
}

// State is a point-in-time view of everything the client tracks.
type State struct {
	Session     models.Session              `json:"session"`
	Profile     models.UserProfile          `json:"profile"`
	Unread      map[string]int              `json:"unread"`
	UnreadTotal int                         `json:"unread_total"`
	Threads     []models.ConversationThread `json:"threads"`
	MoreThreads bool                        `json:"more_threads"`
	VideoID     string                      `json:"video_id,omitempty"`
	Danmu       []models.DanmuEntry         `json:"danmu"`
	Channels    []realtime.ChannelInfo      `json:"channels"`
}

// Snapshot copies the current state. Each part is consistent on its own;
// parts may straddle a concurrent push.
func (a *App) Snapshot() State {
	unread := a.ledger.Snapshot()
	return State{
		Session:     a.session.Snapshot(),
		Profile:     a.session.Profile(),
		Unread:      unread.Map(),
		UnreadTotal: a.ledger.Total(),
		Threads:     a.conv.All(),
		MoreThreads: a.moreList.Load(),
		VideoID:     a.danmu.VideoID(),
		Danmu:       a.danmu.All(),
		Channels:    a.rt.Channels(),
	}
}

func (a *App) notify(level events.NoticeLevel, text string) {
	if a.events != nil {
		a.events.Notify(level, text)
	}
}

func (a *App) changed(kinds ...events.ChangeKind) {
	if a.events == nil {
		return
	}
	for _, k := range kinds {
		a.events.PublishChange(k)
	}
}

func (a *App) connect(ctx context.Context, kind realtime.ChannelKind, contextID string) error {
	if a.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}
	return a.rt.Connect(ctx, kind, contextID)
}
