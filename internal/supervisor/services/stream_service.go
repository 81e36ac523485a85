// Temimi Realtime - Messaging and Danmu Synchronization Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/temimi-realtime

package services

import "context"

// ContextHub is satisfied by *status.Hub.
type ContextHub interface {
	RunWithContext(ctx context.Context) error
}

// StreamHubService runs the status stream hub under a supervisor.
type StreamHubService struct {
	hub ContextHub
}

// NewStreamHubService wraps hub.
func NewStreamHubService(hub ContextHub) *StreamHubService {
	return &StreamHubService{hub: hub}
}

// Serve implements suture.Service.
func (s *StreamHubService) Serve(ctx context.Context) error {
	return s.hub.RunWithContext(ctx)
}

func (s *StreamHubService) String() string {
	return "status-stream-hub"
}
