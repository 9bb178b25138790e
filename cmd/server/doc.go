// Firetail - EVE Online killmail feed for Discord
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/firetail

/*
Package main is the entry point for the Firetail server.

Firetail follows the zKillboard RedisQ feed and posts every killmail that
matches a channel's subscription to that Discord channel. It also serves
character intel reports and a live websocket feed.

# Application Architecture

	RootSupervisor ("firetail")
	├── IngestSupervisor ("ingest-layer")
	│   └── killmail listener (RedisQ long poll, fan-out)
	├── MessagingSupervisor ("messaging-layer")
	│   └── websocket hub (live feed)
	└── APISupervisor ("api-layer")
	    └── HTTP server (command surface, /metrics)

Component initialization order:

 1. Configuration: koanf with defaults, optional config.yaml, environment
 2. Logging: zerolog
 3. Subscription store: BadgerDB
 4. ESI client and Discord client
 5. Subscription registry, loaded from the store
 6. RedisQ feed and killmail listener
 7. zKillboard client and intel service
 8. HTTP handlers and router
 9. Supervisor tree

# Configuration

Common environment variables:

	DISCORD_TOKEN            bot token used for delivery
	KILLMAIL_QUEUE_ID        RedisQ queue id, unique per bot
	STORE_PATH               BadgerDB directory
	SERVER_PORT              HTTP port (default 8086)
	LOG_LEVEL, LOG_FORMAT    zerolog settings

# Signal Handling

SIGINT and SIGTERM cancel the root context. The supervisor stops the
listener between polls, closes websocket clients and shuts the HTTP server
down gracefully before the store is closed.
*/
package main
