// Temimi Realtime - Messaging and Danmu Synchronization Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/temimi-realtime

package status

import (
	"context"
	"fmt"

	"github.com/tomtom215/temimi-realtime/internal/events"
	"github.com/tomtom215/temimi-realtime/internal/logging"
)

// EventSource is the subscribe side of the events bus. *events.Bus
// satisfies it.
type EventSource interface {
	Changes(ctx context.Context) (<-chan events.Change, error)
	Notices(ctx context.Context) (<-chan events.Notice, error)
}

// Relay forwards bus changes and notices to the hub's clients.
type Relay struct {
	hub    *Hub
	source EventSource
}

// NewRelay creates a relay from source to hub.
func NewRelay(hub *Hub, source EventSource) *Relay {
	return &Relay{hub: hub, source: source}
}

// Serve forwards until ctx ends. A closed subscription is an error so a
// supervisor restarts the relay.
func (r *Relay) Serve(ctx context.Context) error {
	changes, err := r.source.Changes(ctx)
	if err != nil {
		return fmt.Errorf("subscribe changes: %w", err)
	}
	notices, err := r.source.Notices(ctx)
	if err != nil {
		return fmt.Errorf("subscribe notices: %w", err)
	}
	logging.Debug().Msg("Status relay subscribed")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case c, ok := <-changes:
			if !ok {
				return subscriptionClosed(ctx, "changes")
			}
			r.hub.Broadcast(MessageTypeChange, c)
		case n, ok := <-notices:
			if !ok {
				return subscriptionClosed(ctx, "notices")
			}
			r.hub.Broadcast(MessageTypeNotice, n)
		}
	}
}

func subscriptionClosed(ctx context.Context, topic string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return fmt.Errorf("%s subscription closed", topic)
}

// String names the relay in supervisor logs.
func (r *Relay) String() string {
	return "status-relay"
}
