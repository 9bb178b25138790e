// Firetail - EVE Online killmail feed for Discord
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/firetail

/*
Package killmail implements killmail ingestion and subscription matching.

Components:

  - Mail: one parsed killmail. Fields taken from the feed are fixed at parse
    time; names, location and the nearest celestial are resolved on demand
    through a Provider and memoized on the Mail.
  - Subscription: a channel's filter (group id, ISK threshold, losses flag)
    and the matching predicate Valid.
  - Registry: the in-memory set of subscriptions, written through to a
    Store. All mutation goes through its methods.
  - Listener: the long-poll loop. Each non-NPC killmail is counted, then
    every subscription in a registry snapshot is matched and delivered in
    its own goroutine.

Dispatch is fire-and-forget. The loop never waits for deliveries of one
killmail before polling the next, so a burst of killmails can leave many
deliveries in flight. RedisQ's rate is low enough that this is not bounded.
*/
package killmail
