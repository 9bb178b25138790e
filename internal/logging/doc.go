// Firetail - EVE Online killmail feed for Discord
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/firetail

// Package logging wraps zerolog as the single logging backend for Firetail.
//
// The package keeps one process-global logger that is configured from
// [Config] at startup and read by every other package through the level
// helpers:
//
//	logging.Init(logging.Config{Level: "info", Format: "json"})
//	logging.Info().Int64("killmail_id", id).Msg("Killmail processed")
//
// Background work that handles one killmail at a time attaches a short
// correlation id to its context so every log line for that killmail can be
// joined:
//
//	ctx = logging.ContextWithNewCorrelationID(ctx)
//	logging.Ctx(ctx).Debug().Msg("Dispatching")
//
// [SlogHandler] bridges zerolog to log/slog for libraries such as
// sutureslog that only accept a *slog.Logger.
//
// Log chains must end in Msg or Send, otherwise nothing is written.
package logging
