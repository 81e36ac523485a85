// Temimi Realtime - Messaging and Danmu Synchronization Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/temimi-realtime

package status

import (
	"context"
	"sort"
	"sync"

	"github.com/tomtom215/temimi-realtime/internal/logging"
	"github.com/tomtom215/temimi-realtime/internal/metrics"
)

// Stream message types.
const (
	MessageTypeState  = "state"
	MessageTypeChange = "change"
	MessageTypeNotice = "notice"
	MessageTypePing   = "ping"
	MessageTypePong   = "pong"
)

// Message is one frame written to stream clients.
type Message struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// Hub fans stream messages out to the connected clients.
type Hub struct {
	clients   map[*Client]bool
	broadcast chan Message
	register  chan *Client
	mu        sync.RWMutex
}

// NewHub creates a hub. It does nothing until RunWithContext is called.
func NewHub() *Hub {
	return &Hub{
		clients:   make(map[*Client]bool),
		broadcast: make(chan Message, 256),
		register:  make(chan *Client),
	}
}

// RunWithContext serves registrations and broadcasts until ctx ends, then
// closes every client. Registrations are handled before broadcasts so a
// client never misses a message queued after it registered.
func (h *Hub) RunWithContext(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			h.shutdown()
			return ctx.Err()
		default:
		}

		select {
		case c := <-h.register:
			h.add(c)
			continue
		default:
		}

		select {
		case <-ctx.Done():
			h.shutdown()
			return ctx.Err()
		case c := <-h.register:
			h.add(c)
		case msg := <-h.broadcast:
			h.broadcastToClients(msg)
		}
	}
}

func (h *Hub) add(c *Client) {
	h.mu.Lock()
	h.clients[c] = true
	n := len(h.clients)
	h.mu.Unlock()
	metrics.StatusStreamClients.Set(float64(n))
	logging.Debug().Uint64("client_id", c.id).Int("total_clients", n).Msg("Status stream client connected")
}

// Register hands c to the running hub. It gives up when ctx ends first.
func (h *Hub) Register(ctx context.Context, c *Client) bool {
	select {
	case h.register <- c:
		return true
	case <-ctx.Done():
		return false
	}
}

// remove drops c and closes its queue. Removing an unknown client is a
// no-op.
func (h *Hub) remove(c *Client) {
	h.mu.Lock()
	if h.clients[c] {
		delete(h.clients, c)
		c.closeSend()
	}
	n := len(h.clients)
	h.mu.Unlock()
	metrics.StatusStreamClients.Set(float64(n))
	logging.Debug().Uint64("client_id", c.id).Int("total_clients", n).Msg("Status stream client disconnected")
}

// sortedLocked returns the clients in id order. h.mu must be held.
func (h *Hub) sortedLocked() []*Client {
	out := make([]*Client, 0, len(h.clients))
	for c := range h.clients {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].id < out[j].id })
	return out
}

// broadcastToClients delivers msg in client id order. A client whose
// buffer is full is dropped.
func (h *Hub) broadcastToClients(msg Message) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, c := range h.sortedLocked() {
		select {
		case c.send <- msg:
		default:
			c.closeSend()
			delete(h.clients, c)
			logging.Warn().Uint64("client_id", c.id).Msg("Status stream client too slow, dropped")
		}
	}
	metrics.StatusStreamClients.Set(float64(len(h.clients)))
}

func (h *Hub) shutdown() {
	h.mu.Lock()
	n := len(h.clients)
	for _, c := range h.sortedLocked() {
		c.closeSend()
		delete(h.clients, c)
	}
	h.mu.Unlock()
	metrics.StatusStreamClients.Set(0)
	logging.Info().Str("component", "status-hub").Int("clients_closed", n).Msg("Status stream hub stopped")
}

// Broadcast queues msg for every client. It never blocks; when the queue is
// full the message is dropped.
func (h *Hub) Broadcast(msgType string, data any) {
	select {
	case h.broadcast <- Message{Type: msgType, Data: data}:
	default:
		logging.Warn().Str("message_type", msgType).Msg("Status broadcast queue full, dropping message")
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
