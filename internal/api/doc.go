// Firetail - EVE Online killmail feed for Discord
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/firetail

/*
Package api provides the HTTP command surface for Firetail.

The endpoints mirror the bot's chat commands: managing killmail
subscriptions for a channel, reading the processed-killmail counter and
requesting character, corporation and alliance intel reports. A websocket endpoint streams every
processed killmail live.

Routes:

	GET    /api/v1/health/live
	GET    /api/v1/health/ready
	GET    /api/v1/killmail/channels/{channelID}/subscriptions
	DELETE /api/v1/killmail/channels/{channelID}/subscriptions
	POST   /api/v1/killmail/subscriptions
	POST   /api/v1/killmail/subscriptions/global
	DELETE /api/v1/killmail/subscriptions/{id}?guild_id=G
	GET    /api/v1/killmail/counter
	GET    /api/v1/killmail/feed?min_value=ISK&solo_only=bool
	GET    /api/v1/intel/characters/{characterID}
	GET    /api/v1/intel/search?name=...
	GET    /api/v1/intel/groups/{kind}/{groupID}
	GET    /api/v1/intel/groups/search?name=...&kind=corporation|alliance
	GET    /metrics

Every JSON response uses the models.APIResponse envelope:

	{"status":"success","data":{...},"metadata":{"timestamp":"..."}}

Middleware, in order: request id with logging context, real IP, panic
recovery, CORS (go-chi/cors), per-IP rate limiting (go-chi/httprate) and
Prometheus instrumentation. Subscription writes carry a second, stricter
per-IP limit. A limited request gets 429 with code RATE_LIMIT_EXCEEDED.

Permission checks are left to the caller. The only scoping rule is that a
single-subscription delete must name the guild the subscription belongs to.
*/
package api
