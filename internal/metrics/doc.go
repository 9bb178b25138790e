// Firetail - EVE Online killmail feed for Discord
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/firetail

// Package metrics declares Firetail's Prometheus collectors.
//
// Collectors are registered on the default registry through promauto and
// exposed by the API router at /metrics. Packages record through the
// Record* helpers rather than touching the vectors directly.
package metrics
