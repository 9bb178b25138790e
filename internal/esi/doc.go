// Firetail - EVE Online killmail feed for Discord
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/firetail

// Package esi resolves EVE ids through the EVE Swagger Interface.
//
// Client implements killmail.Provider. Lookups are memoized in a TTL
// bounded LRU (including "not found" answers) and concurrent requests for
// the same id are collapsed with singleflight, so a burst of killmails from
// one system costs one request.
package esi
