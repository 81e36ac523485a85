// Temimi Realtime - Messaging and Danmu Synchronization Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/temimi-realtime

package status

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/tomtom215/temimi-realtime/internal/events"
)

type chanSource struct {
	changes chan events.Change
	notices chan events.Notice
	err     error
}

func (s *chanSource) Changes(context.Context) (<-chan events.Change, error) {
	return s.changes, s.err
}

func (s *chanSource) Notices(context.Context) (<-chan events.Notice, error) {
	return s.notices, nil
}

func TestRelayForwardsToHub(t *testing.T) {
	hub := NewHub()
	src := &chanSource{changes: make(chan events.Change, 1), notices: make(chan events.Notice, 1)}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	errCh := make(chan error, 1)
	go func() { errCh <- NewRelay(hub, src).Serve(ctx) }()

	src.changes <- events.Change{Kind: events.ChangeDanmu}
	src.notices <- events.Notice{Level: events.NoticeInfo, Text: "hello"}

	got := make(map[string]any)
	deadline := time.After(2 * time.Second)
	for len(got) < 2 {
		select {
		case msg := <-hub.broadcast:
			got[msg.Type] = msg.Data
		case <-deadline:
			t.Fatalf("relayed %v, want a change and a notice", got)
		}
	}
	if c, ok := got[MessageTypeChange].(events.Change); !ok || c.Kind != events.ChangeDanmu {
		t.Errorf("change = %#v", got[MessageTypeChange])
	}
	if n, ok := got[MessageTypeNotice].(events.Notice); !ok || n.Text != "hello" {
		t.Errorf("notice = %#v", got[MessageTypeNotice])
	}

	cancel()
	if err := <-errCh; !errors.Is(err, context.Canceled) {
		t.Errorf("Serve() error = %v, want context.Canceled", err)
	}
}

func TestRelayClosedSubscriptionIsAnError(t *testing.T) {
	src := &chanSource{changes: make(chan events.Change), notices: make(chan events.Notice)}
	close(src.changes)

	err := NewRelay(NewHub(), src).Serve(context.Background())
	if err == nil || errors.Is(err, context.Canceled) {
		t.Errorf("Serve() error = %v, want a subscription error", err)
	}
}

func TestRelaySubscribeError(t *testing.T) {
	src := &chanSource{err: errors.New("bus closed")}
	if err := NewRelay(NewHub(), src).Serve(context.Background()); err == nil {
		t.Error("Serve() error = nil")
	}
}

func TestHubDropsSlowClient(t *testing.T) {
	hub := NewHub()
	c := &Client{id: 1, hub: hub, send: make(chan Message, 1)}
	hub.add(c)

	hub.broadcastToClients(Message{Type: MessageTypeChange})
	hub.broadcastToClients(Message{Type: MessageTypeChange})

	if hub.ClientCount() != 0 {
		t.Fatalf("ClientCount() = %d, want the slow client dropped", hub.ClientCount())
	}
	if c.Queue(Message{Type: MessageTypePong}) {
		t.Error("Queue() on a dropped client succeeded")
	}
	hub.remove(c)
}

func TestHubShutdownClosesClients(t *testing.T) {
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- hub.RunWithContext(ctx) }()

	c := &Client{id: 2, hub: hub, send: make(chan Message, 4)}
	if !hub.Register(context.Background(), c) {
		t.Fatal("Register() = false")
	}
	cancel()
	if err := <-errCh; !errors.Is(err, context.Canceled) {
		t.Fatalf("RunWithContext() error = %v", err)
	}
	if _, open := <-c.send; open {
		t.Error("client queue still open after shutdown")
	}
}
