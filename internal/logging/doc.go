// Temimi Realtime - Messaging and Danmu Synchronization Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/temimi-realtime

/*
Package logging is the zerolog facade shared by every temimi-realtime
component.

Call Init once from main with the values from config; until then a JSON
logger at info level writes to stderr. Package-level helpers (Info, Warn,
Error, Debug) log through the global logger, and Ctx(ctx) adds the
correlation id carried by the context.

	logging.Init(logging.Config{Level: "debug", Format: "console"})
	logging.Info().Str("channel", "messaging").Msg("Realtime channel open")

	ctx = logging.ContextWithNewCorrelationID(ctx)
	logging.Ctx(ctx).Warn().Err(err).Msg("Login failed")

Two adapters route third-party logging into the same sink:

  - NewSlogLogger returns a *slog.Logger for sutureslog (supervisor events).
  - NewWatermillLogger returns a watermill.LoggerAdapter for the events bus.

Tokens must never reach the log. RedactURL strips credentials from URLs
and MaskToken shortens bearer tokens to a recognizable prefix and suffix.
*/
package logging
