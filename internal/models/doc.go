// Firetail - EVE Online killmail feed for Discord
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/firetail

/*
Package models defines the wire types shared across Firetail.

Upstream payloads:
  - Killmail, Attacker, Victim, Item: the ESI killmail document, also
    embedded in RedisQ packages
  - Zkb: zKillboard's metadata block (hash, value, npc/solo/awox flags)
  - Package: one RedisQ long-poll result
  - CharacterStats, TopList: zKillboard statistics
  - KillmailRef: an entry of a zKillboard kills/losses list

Persistence:
  - SubscriptionRecord: one subscription row as the store returns it

HTTP:
  - APIResponse, Metadata, APIError: the command API envelope

Numeric EVE identifiers are int64 everywhere. Zero means absent, which
matches how ESI omits alliance_id, character_id and similar keys.
*/
package models
