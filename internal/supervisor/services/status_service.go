// Temimi Realtime - Messaging and Danmu Synchronization Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/temimi-realtime

package services

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/tomtom215/temimi-realtime/internal/logging"
)

const defaultStatusShutdown = 10 * time.Second

// StatusServer is the part of *http.Server the status service drives.
type StatusServer interface {
	Serve(l net.Listener) error
	Shutdown(ctx context.Context) error
}

// StatusServerService binds the local status address and serves on it until
// the supervisor cancels. The bind happens inside Serve so a port conflict
// surfaces as a restartable service failure.
type StatusServerService struct {
	server          StatusServer
	addr            string
	shutdownTimeout time.Duration
	listen          func(network, address string) (net.Listener, error)
}

// NewStatusServerService serves server on addr. A non-positive
// shutdownTimeout uses ten seconds.
func NewStatusServerService(server StatusServer, addr string, shutdownTimeout time.Duration) *StatusServerService {
	if shutdownTimeout <= 0 {
		shutdownTimeout = defaultStatusShutdown
	}
	return &StatusServerService{
		server:          server,
		addr:            addr,
		shutdownTimeout: shutdownTimeout,
		listen:          net.Listen,
	}
}

// Serve implements suture.Service.
func (s *StatusServerService) Serve(ctx context.Context) error {
	ln, err := s.listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("bind status server on %s: %w", s.addr, err)
	}
	logging.Info().Str("addr", ln.Addr().String()).Msg("Status server listening")

	served := make(chan error, 1)
	go func() { served <- s.server.Serve(ln) }()

	select {
	case err := <-served:
		if err == nil || errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("status server stopped: %w", err)
	case <-ctx.Done():
	}

	began := time.Now()
	drainCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.shutdownTimeout)
	defer cancel()
	if err := s.server.Shutdown(drainCtx); err != nil {
		return fmt.Errorf("status server shutdown: %w", err)
	}
	if err := <-served; err != nil && !errors.Is(err, http.ErrServerClosed) {
		logging.Warn().Err(err).Msg("Status server exited uncleanly")
	}
	logging.Info().Dur("took", time.Since(began)).Msg("Status server drained")
	return ctx.Err()
}

func (s *StatusServerService) String() string {
	return "status-http"
}
