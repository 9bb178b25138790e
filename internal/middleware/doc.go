// Firetail - EVE Online killmail feed for Discord
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/firetail

// Package middleware provides HTTP middleware for the command API.
//
//   - RequestID: request and correlation ids for logging.Ctx
//   - PrometheusMetrics: firetail_api_* metrics labelled by route pattern
//
// Both have the chi signature func(http.Handler) http.Handler. CORS, rate
// limiting, real IP and panic recovery come from chi and its companion
// packages and are composed in internal/api.
package middleware
