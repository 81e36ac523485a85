// Temimi Realtime - Messaging and Danmu Synchronization Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/temimi-realtime

package realtime

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"

	"github.com/tomtom215/temimi-realtime/internal/conversation"
	"github.com/tomtom215/temimi-realtime/internal/danmu"
	"github.com/tomtom215/temimi-realtime/internal/events"
	"github.com/tomtom215/temimi-realtime/internal/ledger"
	"github.com/tomtom215/temimi-realtime/internal/logging"
	"github.com/tomtom215/temimi-realtime/internal/metrics"
	"github.com/tomtom215/temimi-realtime/internal/validation"
)

// noticeNotConnected is shown when Send is called on a channel that is not
// open.
const noticeNotConnected = "not connected"

// closeGrace bounds the close handshake write.
const closeGrace = time.Second

// SessionSource is the read side of the session store plus the one
// mutation the reconciler performs on it: clearing it when the server
// reports the session expired.
type SessionSource interface {
	Token() string
	UserID() int64
	Clear()
}

// Notifier shows transient notices to the user.
type Notifier interface {
	Notify(level events.NoticeLevel, text string)
}

// ChangePublisher announces that a piece of client state changed.
type ChangePublisher interface {
	PublishChange(kind events.ChangeKind)
}

// Dialer opens websocket connections. *websocket.Dialer satisfies it.
type Dialer interface {
	DialContext(ctx context.Context, urlStr string, requestHeader http.Header) (*websocket.Conn, *http.Response, error)
}

// Deps are the state holders the reconciler reads and writes. Session,
// Ledger, Conversations and Danmu are required.
type Deps struct {
	Session       SessionSource
	Ledger        *ledger.Ledger
	Conversations *conversation.Cache
	Danmu         *danmu.Timeline
	Notifier      Notifier
	Changes       ChangePublisher
	Dialer        Dialer
}

// Options tune the transport.
type Options struct {
	// WSBase is the ws:// or wss:// base URL of the backend.
	WSBase string

	// PingInterval is how often a ping is written on an open channel. Zero
	// disables keepalive pings.
	PingInterval time.Duration

	// PongWait is how long a channel may stay silent before it is
	// considered dead. Zero disables the read deadline.
	PongWait time.Duration

	// WriteWait bounds every frame write.
	WriteWait time.Duration

	// ReadLimit caps the size of one inbound frame.
	ReadLimit int64

	// QueueSize is the capacity of the inbound frame queue shared by both
	// channels.
	QueueSize int

	// HandshakeTimeout bounds the websocket upgrade when the default
	// dialer is used.
	HandshakeTimeout time.Duration
}

// DefaultOptions returns production transport settings for wsBase.
func DefaultOptions(wsBase string) Options {
	return Options{
		WSBase:           wsBase,
		PingInterval:     30 * time.Second,
		PongWait:         75 * time.Second,
		WriteWait:        10 * time.Second,
		ReadLimit:        1 << 20,
		QueueSize:        256,
		HandshakeTimeout: 10 * time.Second,
	}
}

// inbound is one raw frame waiting for dispatch.
type inbound struct {
	kind ChannelKind
	gen  uint64
	data []byte
}

// Reconciler owns the messaging and danmu channels and applies their
// frames to the caches.
//
// Connect, Send, Close and State may be called from any goroutine. Frames
// are applied only by Serve, one at a time, in arrival order across both
// channels. Each open channel runs one reader goroutine that does nothing
// but enqueue raw frames.
type Reconciler struct {
	deps Deps
	opts Options

	mu       sync.Mutex
	channels [len(channelKinds)]*channel

	queue chan inbound
	wg    sync.WaitGroup
}

// New creates a reconciler. It panics if a required dependency is nil.
func New(deps Deps, opts Options) *Reconciler {
	if deps.Session == nil || deps.Ledger == nil || deps.Conversations == nil || deps.Danmu == nil {
		panic("realtime: Session, Ledger, Conversations and Danmu are required")
	}
	if deps.Dialer == nil {
		deps.Dialer = &websocket.Dialer{
			Proxy:            http.ProxyFromEnvironment,
			HandshakeTimeout: opts.HandshakeTimeout,
		}
	}
	if opts.QueueSize <= 0 {
		opts.QueueSize = 256
	}
	if opts.WriteWait <= 0 {
		opts.WriteWait = 10 * time.Second
	}

	r := &Reconciler{
		deps:  deps,
		opts:  opts,
		queue: make(chan inbound, opts.QueueSize),
	}
	for _, k := range channelKinds {
		r.channels[k] = &channel{kind: k}
		metrics.ChannelState.WithLabelValues(k.String()).Set(float64(StateClosed))
	}
	return r
}

// Connect opens the channel of the given kind. contextID is the video id
// for Danmu and is ignored for Messaging, which authenticates with the
// session token.
//
// A channel of the same kind that is already open, or still connecting, is
// closed first. Connect returns once the socket is open. It has no timeout
// of its own; bound it with ctx. If the dial fails the channel returns to
// Closed and the transport error is returned. If Close or another Connect
// for the same kind overtakes it, Connect returns ErrConnectAborted.
func (r *Reconciler) Connect(ctx context.Context, kind ChannelKind, contextID string) error {
	if !kind.valid() {
		return ErrUnknownChannel
	}

	var dialURL, publicURL string
	switch kind {
	case Messaging:
		token := r.deps.Session.Token()
		if token == "" {
			return ErrNoSession
		}
		u, pub, err := MessagingURL(r.opts.WSBase, token)
		if err != nil {
			return err
		}
		dialURL, publicURL, contextID = u, pub, ""
	case Danmu:
		if contextID == "" {
			return ErrMissingContext
		}
		u, err := DanmuURL(r.opts.WSBase, contextID)
		if err != nil {
			return err
		}
		dialURL, publicURL = u, u
	}

	ch := r.channels[kind]
	dialCtx, cancel := context.WithCancel(ctx)

	r.mu.Lock()
	teardown := r.detachLocked(ch, "replaced")
	ch.gen++
	gen := ch.gen
	ch.url, ch.publicURL, ch.contextID = dialURL, publicURL, contextID
	ch.cancelDial = cancel
	ch.setState(StateConnecting)
	r.mu.Unlock()

	teardown()
	r.changed(events.ChangeChannel)

	log := logging.With().Str("channel", kind.String()).Str("url", publicURL).Logger()
	log.Debug().Msg("Connecting realtime channel")

	conn, resp, err := r.deps.Dialer.DialContext(dialCtx, dialURL, nil)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	cancel()

	r.mu.Lock()
	if ch.gen != gen {
		r.mu.Unlock()
		if conn != nil {
			conn.Close()
		}
		metrics.ConnectAttempts.WithLabelValues(kind.String(), "aborted").Inc()
		log.Debug().Msg("Realtime connect overtaken")
		return ErrConnectAborted
	}
	ch.cancelDial = nil
	if err != nil {
		ch.setState(StateClosed)
		r.mu.Unlock()
		r.changed(events.ChangeChannel)
		metrics.ConnectAttempts.WithLabelValues(kind.String(), "error").Inc()
		if resp != nil {
			err = fmt.Errorf("websocket dial failed (HTTP %d): %w", resp.StatusCode, err)
		}
		log.Warn().Err(err).Msg("Realtime channel failed to open")
		return fmt.Errorf("connect %s: %w", kind, err)
	}

	stop := make(chan struct{})
	ch.conn = conn
	ch.stop = stop
	ch.setState(StateOpen)
	r.mu.Unlock()

	r.changed(events.ChangeChannel)
	metrics.ConnectAttempts.WithLabelValues(kind.String(), "open").Inc()
	log.Info().Msg("Realtime channel open")

	r.wg.Add(1)
	go r.readLoop(kind, gen, conn, stop)
	if r.opts.PingInterval > 0 {
		r.wg.Add(1)
		go r.pingLoop(kind, gen, conn, stop)
	}
	return nil
}

// Close closes the channel of the given kind. Closing a closed channel is a
// no-op. A pending Connect returns ErrConnectAborted. Caches are untouched.
func (r *Reconciler) Close(kind ChannelKind) {
	if !kind.valid() {
		return
	}
	ch := r.channels[kind]

	r.mu.Lock()
	if ch.state == StateClosed {
		r.mu.Unlock()
		return
	}
	teardown := r.detachLocked(ch, "closed")
	ch.gen++
	r.mu.Unlock()

	teardown()
	r.changed(events.ChangeChannel)
	logging.Info().Str("channel", kind.String()).Msg("Realtime channel closed")
}

// CloseAll closes both channels.
func (r *Reconciler) CloseAll() {
	for _, k := range channelKinds {
		r.Close(k)
	}
}

// detachLocked moves ch to Closed and returns the socket teardown, which
// must run after r.mu is released. It does not bump the generation.
func (r *Reconciler) detachLocked(ch *channel, reason string) func() {
	prev := ch.state
	if prev == StateClosed {
		return func() {}
	}

	cancelDial := ch.cancelDial
	conn, stop := ch.conn, ch.stop
	ch.cancelDial, ch.conn, ch.stop = nil, nil, nil
	ch.setState(StateClosed)
	if prev == StateOpen {
		metrics.ChannelDisconnects.WithLabelValues(ch.kind.String(), reason).Inc()
	}

	return func() {
		if cancelDial != nil {
			cancelDial()
		}
		if stop != nil {
			close(stop)
		}
		if conn != nil {
			ch.writeMu.Lock()
			err := conn.WriteControl(
				websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(closeGrace),
			)
			ch.writeMu.Unlock()
			if err != nil {
				logging.Debug().Err(err).Str("channel", ch.kind.String()).Msg("Close handshake not sent")
			}
			conn.Close()
		}
	}
}

// transportClosed handles a socket that failed underneath an open channel.
// It does nothing if the channel has moved on to another socket.
func (r *Reconciler) transportClosed(kind ChannelKind, gen uint64, reason string, cause error) {
	ch := r.channels[kind]

	r.mu.Lock()
	if ch.gen != gen || ch.state != StateOpen {
		r.mu.Unlock()
		return
	}
	teardown := r.detachLocked(ch, reason)
	ch.gen++
	r.mu.Unlock()

	teardown()
	r.changed(events.ChangeChannel)

	ev := logging.Warn()
	if websocket.IsCloseError(cause, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
		ev = logging.Info()
	}
	ev.Err(cause).Str("channel", kind.String()).Str("reason", reason).Msg("Realtime channel lost")
}

// State returns the current state of the channel of the given kind.
func (r *Reconciler) State(kind ChannelKind) ChannelState {
	if !kind.valid() {
		return StateClosed
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.channels[kind].state
}

// Channels returns a snapshot of both channels.
func (r *Reconciler) Channels() []ChannelInfo {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]ChannelInfo, 0, len(r.channels))
	for _, ch := range r.channels {
		out = append(out, ch.info())
	}
	return out
}

// Send validates payload, encodes it as JSON and writes it as one text
// frame. On a channel that is not open it only shows a "not connected"
// notice: nothing is queued or retried. A failed write closes the channel.
func (r *Reconciler) Send(kind ChannelKind, payload any) {
	if !kind.valid() {
		return
	}
	ch := r.channels[kind]

	r.mu.Lock()
	state, conn, gen := ch.state, ch.conn, ch.gen
	r.mu.Unlock()

	if state != StateOpen || conn == nil {
		metrics.MessagesSent.WithLabelValues(kind.String(), "not_connected").Inc()
		r.notify(events.NoticeWarning, noticeNotConnected)
		return
	}

	if err := validation.Validate(payload); err != nil {
		metrics.MessagesSent.WithLabelValues(kind.String(), "invalid").Inc()
		logging.Warn().Err(err).Str("channel", kind.String()).Msg("Outbound payload rejected")
		r.notify(events.NoticeWarning, err.Error())
		return
	}

	data, err := json.Marshal(payload)
	if err != nil {
		metrics.MessagesSent.WithLabelValues(kind.String(), "invalid").Inc()
		logging.Error().Err(err).Str("channel", kind.String()).Msg("Failed to encode outbound payload")
		return
	}

	ch.writeMu.Lock()
	err = conn.SetWriteDeadline(time.Now().Add(r.opts.WriteWait))
	if err == nil {
		err = conn.WriteMessage(websocket.TextMessage, data)
	}
	ch.writeMu.Unlock()

	if err != nil {
		metrics.MessagesSent.WithLabelValues(kind.String(), "error").Inc()
		logging.Warn().Err(err).Str("channel", kind.String()).Msg("Outbound write failed")
		r.transportClosed(kind, gen, "transport", err)
		return
	}
	metrics.MessagesSent.WithLabelValues(kind.String(), "sent").Inc()
}

// readLoop enqueues every frame read from conn until the socket fails or
// stop is closed.
func (r *Reconciler) readLoop(kind ChannelKind, gen uint64, conn *websocket.Conn, stop <-chan struct{}) {
	defer r.wg.Done()

	if r.opts.ReadLimit > 0 {
		conn.SetReadLimit(r.opts.ReadLimit)
	}
	extend := func() {
		if r.opts.PongWait > 0 {
			_ = conn.SetReadDeadline(time.Now().Add(r.opts.PongWait))
		}
	}
	extend()
	conn.SetPongHandler(func(string) error {
		extend()
		return nil
	})

	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			select {
			case <-stop:
				// closed on purpose
			default:
				r.transportClosed(kind, gen, "transport", err)
			}
			return
		}
		extend()
		if msgType != websocket.TextMessage {
			continue
		}

		select {
		case r.queue <- inbound{kind: kind, gen: gen, data: data}:
		case <-stop:
			return
		}
	}
}

// pingLoop keeps the channel alive and detects dead peers.
func (r *Reconciler) pingLoop(kind ChannelKind, gen uint64, conn *websocket.Conn, stop <-chan struct{}) {
	defer r.wg.Done()

	ch := r.channels[kind]
	ticker := time.NewTicker(r.opts.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			ch.writeMu.Lock()
			err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(r.opts.WriteWait))
			ch.writeMu.Unlock()
			if err != nil {
				r.transportClosed(kind, gen, "ping", err)
				return
			}
		}
	}
}

// Serve applies queued frames until ctx is done. Exactly one Serve should
// run per Reconciler.
func (r *Reconciler) Serve(ctx context.Context) error {
	logging.Info().Msg("Realtime dispatch loop started")
	for {
		select {
		case <-ctx.Done():
			logging.Info().Msg("Realtime dispatch loop stopped")
			return ctx.Err()
		case in := <-r.queue:
			r.dispatch(in)
		}
	}
}

// Wait blocks until every reader and pinger goroutine has exited. Call it
// after CloseAll during shutdown.
func (r *Reconciler) Wait() {
	r.wg.Wait()
}

// dispatch applies one frame. It never returns an error and never lets a
// panic escape.
func (r *Reconciler) dispatch(in inbound) {
	start := time.Now()
	defer func() {
		if rec := recover(); rec != nil {
			metrics.DispatchPanics.Inc()
			logging.Error().
				Str("channel", in.kind.String()).
				Interface("panic", rec).
				Msg("Recovered panic while applying frame")
		}
		metrics.RecordDispatch(start)
	}()

	r.mu.Lock()
	current := r.channels[in.kind].gen == in.gen
	contextID := r.channels[in.kind].contextID
	r.mu.Unlock()
	if !current {
		metrics.FramesStale.WithLabelValues(in.kind.String()).Inc()
		return
	}

	switch in.kind {
	case Messaging:
		frame, err := DecodeMessagingFrame(in.data)
		if err != nil {
			r.discard(in, err)
			return
		}
		metrics.FramesReceived.WithLabelValues(in.kind.String(), frame.frameType()).Inc()
		r.applyMessaging(frame)
	case Danmu:
		frame, err := DecodeDanmuFrame(in.data)
		if err != nil {
			r.discard(in, err)
			return
		}
		metrics.FramesReceived.WithLabelValues(in.kind.String(), frame.frameType()).Inc()
		r.applyDanmu(frame, contextID)
	}
}

func (r *Reconciler) discard(in inbound, err error) {
	metrics.FrameDecodeErrors.WithLabelValues(in.kind.String()).Inc()
	ev := logging.Debug()
	if errors.Is(err, ErrMalformedFrame) {
		ev = logging.Warn()
	}
	ev.Err(err).
		Str("channel", in.kind.String()).
		Int("size", len(in.data)).
		Msg("Discarding inbound frame")
}

func (r *Reconciler) unroutable(kind ChannelKind, frameType string, detail string) {
	metrics.FramesUnroutable.WithLabelValues(kind.String(), frameType).Inc()
	logging.Debug().
		Str("channel", kind.String()).
		Str("type", frameType).
		Msg(detail)
}

func (r *Reconciler) notify(level events.NoticeLevel, text string) {
	if r.deps.Notifier != nil {
		r.deps.Notifier.Notify(level, text)
	}
}

func (r *Reconciler) changed(kind events.ChangeKind) {
	if r.deps.Changes != nil {
		r.deps.Changes.PublishChange(kind)
	}
}
