// Temimi Realtime - Messaging and Danmu Synchronization Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/temimi-realtime

package services

import (
	"context"
	"time"

	"github.com/tomtom215/temimi-realtime/internal/config"
	"github.com/tomtom215/temimi-realtime/internal/logging"
	"github.com/tomtom215/temimi-realtime/internal/metrics"
)

// Reconnector reopens channels that should be open. Each method reports
// whether it attempted a connect. *app.App satisfies it.
type Reconnector interface {
	EnsureMessaging(ctx context.Context) (bool, error)
	EnsureDanmu(ctx context.Context) (bool, error)
}

// backoff is the retry schedule of one channel.
type backoff struct {
	initial    time.Duration
	max        time.Duration
	multiplier float64

	failures int
	next     time.Time
}

func (b *backoff) due(now time.Time) bool {
	return !now.Before(b.next)
}

func (b *backoff) reset() {
	b.failures = 0
	b.next = time.Time{}
}

// fail schedules the next attempt and returns the delay.
func (b *backoff) fail(now time.Time) time.Duration {
	delay := b.initial
	for i := 0; i < b.failures && delay < b.max; i++ {
		delay = time.Duration(float64(delay) * b.multiplier)
	}
	if delay > b.max {
		delay = b.max
	}
	b.failures++
	b.next = now.Add(delay)
	return delay
}

type reconnectTarget struct {
	name    string
	ensure  func(ctx context.Context) (bool, error)
	backoff *backoff
}

// ReconnectService polls the channels every CheckInterval and reopens the
// ones that dropped. Failed attempts back off exponentially per channel
// from InitialDelay up to MaxDelay.
type ReconnectService struct {
	cfg     config.ReconnectConfig
	targets []*reconnectTarget
	now     func() time.Time
}

// NewReconnectService creates the policy for r.
func NewReconnectService(r Reconnector, cfg config.ReconnectConfig) *ReconnectService {
	if cfg.Multiplier < 1 {
		cfg.Multiplier = 2
	}
	if cfg.MaxDelay < cfg.InitialDelay {
		cfg.MaxDelay = cfg.InitialDelay
	}
	newBackoff := func() *backoff {
		return &backoff{initial: cfg.InitialDelay, max: cfg.MaxDelay, multiplier: cfg.Multiplier}
	}
	return &ReconnectService{
		cfg: cfg,
		targets: []*reconnectTarget{
			{name: "messaging", ensure: r.EnsureMessaging, backoff: newBackoff()},
			{name: "danmu", ensure: r.EnsureDanmu, backoff: newBackoff()},
		},
		now: time.Now,
	}
}

// Serve implements suture.Service.
func (s *ReconnectService) Serve(ctx context.Context) error {
	interval := s.cfg.CheckInterval
	if interval <= 0 {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.check(ctx)
		}
	}
}

// check runs one pass over the targets.
func (s *ReconnectService) check(ctx context.Context) {
	for _, t := range s.targets {
		if ctx.Err() != nil {
			return
		}
		now := s.now()
		if !t.backoff.due(now) {
			continue
		}

		attemptCtx := ctx
		var cancel context.CancelFunc = func() {}
		if s.cfg.ConnectTimeout > 0 {
			attemptCtx, cancel = context.WithTimeout(ctx, s.cfg.ConnectTimeout)
		}
		tried, err := t.ensure(attemptCtx)
		cancel()

		switch {
		case !tried:
			t.backoff.reset()
		case err != nil:
			delay := t.backoff.fail(s.now())
			metrics.ReconnectAttempts.WithLabelValues(t.name, "failure").Inc()
			logging.Warn().Err(err).
				Str("channel", t.name).
				Int("failures", t.backoff.failures).
				Dur("retry_in", delay).
				Msg("Reconnect failed")
		default:
			t.backoff.reset()
			metrics.ReconnectAttempts.WithLabelValues(t.name, "success").Inc()
			logging.Info().Str("channel", t.name).Msg("Channel reconnected")
		}
	}
}

func (s *ReconnectService) String() string {
	return "realtime-reconnect"
}
