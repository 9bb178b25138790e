// Firetail - EVE Online killmail feed for Discord
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/firetail

/*
Package httpclient is the JSON HTTP client shared by the ESI, zKillboard,
RedisQ and Discord integrations.

Every request goes through a gobreaker circuit breaker named after the
upstream. Responses with status 429 are retried with the delay given by
Retry-After, falling back to exponential backoff. Other non-2xx responses
become a *StatusError; only 5xx, 429 and transport errors count against the
breaker, so a burst of 404s for deleted characters does not open it.

Usage:

	c := httpclient.New(httpclient.Options{Name: "esi", UserAgent: ua, Timeout: 15 * time.Second})
	var sys models.SystemInfo
	err := c.Do(ctx, http.MethodGet, base+"/universe/systems/30000142/", nil, &sys)
	if httpclient.IsNotFound(err) {
		// unknown id
	}
*/
package httpclient
