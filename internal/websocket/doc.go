// Firetail - EVE Online killmail feed for Discord
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/firetail

/*
Package websocket streams processed killmails to dashboard clients.

The Hub implements killmail.Broadcaster. Every killmail that passes the NPC
filter is sent to each connected client as

	{"type":"killmail","data":{"killmail_id":...,"time":...,"solar_system_id":...,
	 "value":...,"solo":...,"awox":...,"url":...}}

Architecture:

	┌──────────┐
	│   Hub    │ ← BroadcastKillmail from the listener
	└────┬─────┘
	     │
	┌────┴─────┬─────────┐
	│ Client1  │ Client2 │ ...
	└──────────┴─────────┘

Each client has a buffered send queue drained by its writePump. A client
whose queue is full is dropped; broadcasting never blocks the listener.
Clients may send {"type":"ping"} and receive {"type":"pong"}.

Each client carries a Filter. The initial one comes from the min_value and
solo_only query parameters of the upgrade request; a client replaces it by
sending

	{"type":"filter","data":{"min_value":1000000000,"solo_only":true}}

which is echoed back on success. Killmails the filter rejects are never
queued for that client.

The hub runs under the supervisor via RunWithContext. Cancelling the
context closes every client.
*/
package websocket
