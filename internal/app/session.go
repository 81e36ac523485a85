// Temimi Realtime - Messaging and Danmu Synchronization Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/temimi-realtime

package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/tomtom215/temimi-realtime/internal/api"
	"github.com/tomtom215/temimi-realtime/internal/events"
	"github.com/tomtom215/temimi-realtime/internal/logging"
	"github.com/tomtom215/temimi-realtime/internal/metrics"
	"github.com/tomtom215/temimi-realtime/internal/realtime"
	"github.com/tomtom215/temimi-realtime/internal/validation"
)

// Login authenticates with the backend, records the session and opens the
// messaging channel. A channel that fails to open is reported but leaves
// the session in place.
func (a *App) Login(ctx context.Context, username, password string) error {
	ctx = logging.ContextWithNewCorrelationID(ctx)

	res, err := a.backend.Login(ctx, api.Credentials{Username: username, Password: password})
	if err != nil {
		a.notify(events.NoticeError, errorText(err))
		return fmt.Errorf("login: %w", err)
	}
	if err := a.session.Login(ctx, res.Token, res.Profile); err != nil {
		return fmt.Errorf("login: %w", err)
	}
	a.changed(events.ChangeSession)

	logging.Ctx(ctx).Info().Int64("user_id", a.session.UserID()).Msg("Logged in")
	return a.connectMessaging(ctx)
}

// Restore resumes a session saved by an earlier run. It reports false when
// no usable token was stored or the backend rejected it.
func (a *App) Restore(ctx context.Context) (bool, error) {
	ctx = logging.ContextWithNewCorrelationID(ctx)

	ok, err := a.session.LoadPersisted(ctx)
	if err != nil || !ok {
		return false, err
	}

	profile, err := a.backend.PersonalInfo(ctx)
	if err != nil {
		if a.handleUnauthorized(ctx, err) {
			return false, nil
		}
		return false, fmt.Errorf("restore: %w", err)
	}
	a.session.MarkAuthenticated(profile)
	a.changed(events.ChangeSession)

	logging.Ctx(ctx).Info().Int64("user_id", a.session.UserID()).Msg("Session restored")
	return true, a.connectMessaging(ctx)
}

// Logout closes both channels and drops every piece of per-user state.
func (a *App) Logout() {
	a.rt.CloseAll()
	a.session.Clear()
	a.conv.Clear()
	a.danmu.Reset("")
	a.ledger.Reset()
	a.moreList.Store(false)
	a.changed(events.ChangeSession, events.ChangeConversations, events.ChangeDanmu, events.ChangeLedger)
	logging.Info().Msg("Logged out")
}

// EnsureMessaging opens the messaging channel when a session exists and
// the channel is closed. It reports whether a connect was attempted.
func (a *App) EnsureMessaging(ctx context.Context) (bool, error) {
	if a.session.Token() == "" || a.rt.State(realtime.Messaging) != realtime.StateClosed {
		return false, nil
	}
	return true, a.connectMessaging(ctx)
}

// EnsureDanmu reopens the danmu channel for the open video when it is
// closed. It reports whether a connect was attempted.
func (a *App) EnsureDanmu(ctx context.Context) (bool, error) {
	vid := a.danmu.VideoID()
	if vid == "" || a.rt.State(realtime.Danmu) != realtime.StateClosed {
		return false, nil
	}
	return true, a.connect(ctx, realtime.Danmu, vid)
}

func (a *App) connectMessaging(ctx context.Context) error {
	if err := a.connect(ctx, realtime.Messaging, ""); err != nil {
		logging.Ctx(ctx).Warn().Err(err).Msg("Messaging channel did not open")
		return fmt.Errorf("connect messaging: %w", err)
	}
	return nil
}

// handleUnauthorized takes the session-expiry path when err says the
// backend rejected the token. It reports whether it did.
func (a *App) handleUnauthorized(ctx context.Context, err error) bool {
	if !errors.Is(err, api.ErrUnauthorized) {
		return false
	}
	metrics.SessionExpirations.Inc()
	logging.Ctx(ctx).Warn().Err(err).Msg("Backend rejected the session, signing out")
	a.session.Clear()
	a.rt.Close(realtime.Messaging)
	a.changed(events.ChangeSession)
	a.notify(events.NoticeError, noticeSessionExpired)
	return true
}

// fail reports a failed backend call and returns err wrapped with op.
func (a *App) fail(ctx context.Context, op string, err error) error {
	if !a.handleUnauthorized(ctx, err) && !errors.Is(err, context.Canceled) {
		logging.Ctx(ctx).Warn().Err(err).Str("op", op).Msg("Backend call failed")
		a.notify(events.NoticeError, errorText(err))
	}
	return fmt.Errorf("%s: %w", op, err)
}

// errorText picks the message to show the user for err.
func errorText(err error) string {
	var apiErr *api.Error
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	switch {
	case errors.Is(err, api.ErrCircuitOpen):
		return "server unavailable, try again later"
	case errors.Is(err, api.ErrNoToken):
		return "please log in first"
	}
	var payloadErr *validation.PayloadError
	if errors.As(err, &payloadErr) {
		return payloadErr.Error()
	}
	return "request failed"
}
