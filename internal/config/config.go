// Firetail - EVE Online killmail feed for Discord
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/firetail

package config

import (
	"fmt"
	"time"
)

// Config holds all application configuration. It is immutable after
// LoadWithKoanf returns and safe for concurrent reads.
type Config struct {
	Discord  DiscordConfig  `koanf:"discord"`
	Killmail KillmailConfig `koanf:"killmail"`
	ESI      ESIConfig      `koanf:"esi"`
	ZKill    ZKillConfig    `koanf:"zkill"`
	Store    StoreConfig    `koanf:"store"`
	Server   ServerConfig   `koanf:"server"`
	Security SecurityConfig `koanf:"security"`
	Logging  LoggingConfig  `koanf:"logging"`
}

// DiscordConfig configures outbound delivery through the Discord REST API.
type DiscordConfig struct {
	Token             string        `koanf:"token"`
	APIURL            string        `koanf:"api_url"`
	RequestsPerSecond float64       `koanf:"requests_per_second"`
	Burst             int           `koanf:"burst"`
	Timeout           time.Duration `koanf:"timeout"`
}

// KillmailConfig configures the RedisQ event source and the fan-out listener.
type KillmailConfig struct {
	Enabled bool   `koanf:"enabled"`
	FeedURL string `koanf:"feed_url"`

	// QueueID identifies this consumer to RedisQ. Each queue id receives
	// every killmail exactly once, so two bots must not share one.
	QueueID string `koanf:"queue_id"`

	// TimeToWait is sent as RedisQ's ttw parameter: how long the server
	// holds the request open when no killmail is pending.
	TimeToWait     time.Duration `koanf:"time_to_wait"`
	RequestTimeout time.Duration `koanf:"request_timeout"`

	// ErrorPause is slept after a failed poll. The default of zero polls
	// again at once; the long poll sets the pace.
	ErrorPause time.Duration `koanf:"error_pause"`
}

// ESIConfig configures the EVE Swagger Interface data provider.
type ESIConfig struct {
	URL       string        `koanf:"url"`
	UserAgent string        `koanf:"user_agent"`
	Timeout   time.Duration `koanf:"timeout"`
	CacheSize int           `koanf:"cache_size"`
	CacheTTL  time.Duration `koanf:"cache_ttl"`

	// CacheCleanupInterval is how often expired lookups are swept from
	// the caches. Zero leaves them to be evicted on access.
	CacheCleanupInterval time.Duration `koanf:"cache_cleanup_interval"`
}

// ZKillConfig configures the zKillboard statistics API.
type ZKillConfig struct {
	URL     string        `koanf:"url"`
	Timeout time.Duration `koanf:"timeout"`

	// LossSampleSize caps how many recent losses the intel classifier
	// fetches in full.
	LossSampleSize int `koanf:"loss_sample_size"`

	// FetchConcurrency bounds parallel ESI killmail fetches for one report.
	FetchConcurrency int `koanf:"fetch_concurrency"`
}

// StoreConfig configures the BadgerDB subscription store.
type StoreConfig struct {
	Path     string `koanf:"path"`
	InMemory bool   `koanf:"in_memory"`
}

// ServerConfig configures the HTTP command surface.
type ServerConfig struct {
	Host    string        `koanf:"host"`
	Port    int           `koanf:"port"`
	Timeout time.Duration `koanf:"timeout"`
}

// Addr returns host:port for http.Server.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// SecurityConfig holds HTTP-level protections for the command surface.
type SecurityConfig struct {
	CORSOrigins       []string      `koanf:"cors_origins"`
	RateLimitReqs     int           `koanf:"rate_limit_requests"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
}

// LoggingConfig holds logging settings passed to logging.Init.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}
