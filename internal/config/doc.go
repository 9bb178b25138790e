// Firetail - EVE Online killmail feed for Discord
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/firetail

// Package config loads Firetail configuration with Koanf v2.
//
// Sources are layered, later layers overriding earlier ones:
//
//  1. Built-in defaults (defaultConfig)
//  2. An optional YAML file: $CONFIG_PATH, config.yaml, config.yml or /etc/firetail/config.yaml
//  3. Environment variables listed in envMappings
//
// Environment variables that are not in the mapping table are ignored so
// unrelated process environment never leaks into the configuration.
//
// Example config.yaml:
//
//	discord:
//	  token: "bot-token"
//	killmail:
//	  queue_id: "firetail_123456"
//	zkill:
//	  loss_sample_size: 50
//	store:
//	  path: /var/lib/firetail
package config
