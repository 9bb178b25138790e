// Firetail - EVE Online killmail feed for Discord
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/firetail

// Package discord delivers killmail reports through the Discord REST API.
//
// Client implements killmail.ChannelResolver and killmail.Deliverer. A
// channel the bot can no longer see (403 or 404) is reported as
// killmail.ErrChannelUnreachable so the registry can drop its
// subscriptions. Message sends share one token bucket across all channels.
package discord
