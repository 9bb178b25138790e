// Firetail - EVE Online killmail feed for Discord
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/firetail

/*
Package zkill talks to zKillboard.

RedisQ is the killmail event source: each Next call is one long poll that
returns a single package or nothing once the server-side wait (ttw)
elapses. Packages that only reference the ESI document are completed with
the full killmail before they are returned.

Client reads character statistics and recent kill and loss lists from the
zKillboard API for intel reports.
*/
package zkill
