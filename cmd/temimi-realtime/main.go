// Temimi Realtime - Messaging and Danmu Synchronization Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/temimi-realtime

package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/tomtom215/temimi-realtime/internal/api"
	"github.com/tomtom215/temimi-realtime/internal/app"
	"github.com/tomtom215/temimi-realtime/internal/config"
	"github.com/tomtom215/temimi-realtime/internal/conversation"
	"github.com/tomtom215/temimi-realtime/internal/danmu"
	"github.com/tomtom215/temimi-realtime/internal/events"
	"github.com/tomtom215/temimi-realtime/internal/ledger"
	"github.com/tomtom215/temimi-realtime/internal/logging"
	"github.com/tomtom215/temimi-realtime/internal/realtime"
	"github.com/tomtom215/temimi-realtime/internal/session"
	"github.com/tomtom215/temimi-realtime/internal/status"
	"github.com/tomtom215/temimi-realtime/internal/supervisor"
	"github.com/tomtom215/temimi-realtime/internal/supervisor/services"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		Caller:    cfg.Logging.Caller,
		Timestamp: true,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if len(os.Args) > 1 && os.Args[1] == "moderate" {
		if err := runModerate(ctx, cfg, os.Args[2:]); err != nil {
			logging.Error().Err(err).Msg("Moderation run failed")
			os.Exit(1)
		}
		return
	}

	if err := run(ctx, cfg); err != nil {
		logging.Error().Err(err).Msg("Daemon stopped with error")
		os.Exit(1)
	}
	logging.Info().Msg("Daemon stopped gracefully")
}

// run builds the client state and serves it until ctx is canceled.
func run(ctx context.Context, cfg *config.Config) error {
	logging.Info().
		Str("ws_base", logging.RedactURL(cfg.Realtime.WSBase)).
		Str("api_base", logging.RedactURL(cfg.API.BaseURL)).
		Str("session_store", cfg.Session.Store).
		Bool("reconnect", cfg.Reconnect.Enabled).
		Bool("status", cfg.Status.Enabled).
		Msg("Configuration loaded")

	tokens, closeTokens, err := session.OpenTokenStore(&cfg.Session)
	if err != nil {
		return err
	}
	defer func() {
		if err := closeTokens(); err != nil {
			logging.Error().Err(err).Msg("Error closing token store")
		}
	}()
	store := session.NewStore(tokens)

	bus := events.NewBus(nil)
	defer func() {
		if err := bus.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing event bus")
		}
	}()

	client := api.NewClient(&cfg.API, store)

	unread := ledger.New()
	threads := conversation.New()
	timeline := danmu.NewTimeline()

	rec := realtime.New(realtime.Deps{
		Session:       store,
		Ledger:        unread,
		Conversations: threads,
		Danmu:         timeline,
		Notifier:      bus,
		Changes:       bus,
	}, realtime.Options{
		WSBase:           cfg.Realtime.WSBase,
		PingInterval:     cfg.Realtime.PingInterval,
		PongWait:         cfg.Realtime.PongWait,
		WriteWait:        cfg.Realtime.WriteWait,
		ReadLimit:        cfg.Realtime.ReadLimit,
		QueueSize:        cfg.Realtime.QueueSize,
		HandshakeTimeout: cfg.Realtime.HandshakeTimeout,
	})

	application := app.New(app.Deps{
		Session:        store,
		Ledger:         unread,
		Conversations:  threads,
		Danmu:          timeline,
		Realtime:       rec,
		Backend:        client,
		Events:         bus,
		ConnectTimeout: cfg.Reconnect.ConnectTimeout,
	})

	tree, err := supervisor.NewTree(logging.NewSlogLogger(), supervisor.TreeConfig{
		ShutdownTimeout: cfg.Status.ShutdownTimeout,
	})
	if err != nil {
		return err
	}

	// Channel readers block on the shared frame queue until this runs.
	tree.AddRealtimeService(services.NewReconcilerService(rec))
	if cfg.Reconnect.Enabled {
		tree.AddRealtimeService(services.NewReconnectService(application, cfg.Reconnect))
	}
	if cfg.Status.Enabled {
		hub := status.NewHub()
		srv := status.NewServer(&cfg.Status, application, client, hub)
		tree.AddAPIService(services.NewStreamHubService(hub))
		tree.AddAPIService(status.NewRelay(hub, bus))
		tree.AddAPIService(services.NewStatusServerService(&http.Server{
			Handler:           srv.Handler(),
			ReadHeaderTimeout: 10 * time.Second,
		}, cfg.Status.Addr, cfg.Status.ShutdownTimeout))
	}

	logging.Info().Msg("Starting supervisor tree")
	errCh := tree.ServeBackground(ctx)

	restore(ctx, application, cfg)

	var runErr error
	for err := range errCh {
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor tree error")
			runErr = err
		}
	}

	unstopped, _ := tree.UnstoppedServiceReport()
	for _, svc := range unstopped {
		logging.Warn().Str("service", svc.Name).Msg("Service failed to stop")
	}
	return runErr
}

// restore resumes a persisted session and joins the configured video.
// Failures are logged; the daemon keeps running logged out.
func restore(ctx context.Context, application *app.App, cfg *config.Config) {
	ok, err := application.Restore(ctx)
	switch {
	case err != nil:
		logging.Warn().Err(err).Msg("Session restore failed")
	case ok:
		logging.Info().Msg("Session restored")
		if err := application.LoadConversations(ctx); err != nil {
			logging.Warn().Err(err).Msg("Initial conversation load failed")
		}
	default:
		logging.Info().Msg("No stored session, waiting for login")
	}

	if cfg.Video.ID == "" {
		return
	}
	vid, err := strconv.ParseInt(cfg.Video.ID, 10, 64)
	if err != nil {
		logging.Warn().Str("video_id", cfg.Video.ID).Msg("Ignoring invalid video id")
		return
	}
	if err := application.OpenVideo(ctx, vid); err != nil {
		logging.Warn().Err(err).Int64("video_id", vid).Msg("Opening video failed")
	}
}
