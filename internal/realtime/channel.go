// Temimi Realtime - Messaging and Danmu Synchronization Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/temimi-realtime

package realtime

import (
	"context"
	"fmt"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/tomtom215/temimi-realtime/internal/metrics"
)

// ChannelKind selects one of the two independent realtime channels.
type ChannelKind int

const (
	// Messaging is the account-wide channel carrying unread counters and
	// private messages. One exists per logged-in session.
	Messaging ChannelKind = iota
	// Danmu is the per-video overlay comment channel.
	Danmu
)

var channelKinds = [...]ChannelKind{Messaging, Danmu}

func (k ChannelKind) String() string {
	switch k {
	case Messaging:
		return "messaging"
	case Danmu:
		return "danmu"
	default:
		return fmt.Sprintf("channel(%d)", int(k))
	}
}

func (k ChannelKind) valid() bool {
	return k == Messaging || k == Danmu
}

// ChannelState is the lifecycle state of one channel:
// Closed -> Connecting -> Open -> Closed, with Connecting -> Closed when
// the dial fails or is aborted.
type ChannelState int

const (
	StateClosed ChannelState = iota
	StateConnecting
	StateOpen
)

func (s ChannelState) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateConnecting:
		return "connecting"
	case StateOpen:
		return "open"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// MarshalText renders the state name in JSON snapshots.
func (s ChannelState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// ChannelInfo is a point-in-time view of one channel. URL never contains
// the session token.
type ChannelInfo struct {
	Kind      string       `json:"kind"`
	URL       string       `json:"url,omitempty"`
	ContextID string       `json:"context_id,omitempty"`
	State     ChannelState `json:"state"`
}

// channel is the mutable record for one ChannelKind. Every field except
// writeMu is guarded by Reconciler.mu.
//
// gen increases each time the record is handed to a new socket or torn
// down. Readers, pingers and pending dials remember the generation they
// were started for and lose every race against a newer one.
type channel struct {
	kind      ChannelKind
	url       string
	publicURL string
	contextID string
	state     ChannelState
	gen       uint64

	conn       *websocket.Conn
	stop       chan struct{}
	cancelDial context.CancelFunc

	writeMu sync.Mutex
}

func (c *channel) setState(s ChannelState) {
	c.state = s
	metrics.ChannelState.WithLabelValues(c.kind.String()).Set(float64(s))
}

func (c *channel) info() ChannelInfo {
	return ChannelInfo{
		Kind:      c.kind.String(),
		URL:       c.publicURL,
		ContextID: c.contextID,
		State:     c.state,
	}
}
