// Temimi Realtime - Messaging and Danmu Synchronization Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/temimi-realtime

package services

import (
	"context"
	"errors"
)

// Dispatcher is satisfied by *realtime.Reconciler.
type Dispatcher interface {
	Serve(ctx context.Context) error
	CloseAll()
}

// ReconcilerService runs the reconciler's dispatch loop. When the loop
// stops for good both channels are closed so no socket outlives it.
type ReconcilerService struct {
	rec Dispatcher
}

// NewReconcilerService wraps rec.
func NewReconcilerService(rec Dispatcher) *ReconcilerService {
	return &ReconcilerService{rec: rec}
}

// Serve implements suture.Service.
func (s *ReconcilerService) Serve(ctx context.Context) error {
	err := s.rec.Serve(ctx)
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		s.rec.CloseAll()
	}
	return err
}

func (s *ReconcilerService) String() string {
	return "realtime-reconciler"
}
