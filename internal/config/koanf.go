// Firetail - EVE Online killmail feed for Discord
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/firetail

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists config file locations in priority order.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/firetail/config.yaml",
	"/etc/firetail/config.yml",
}

// ConfigPathEnvVar overrides the config file location.
const ConfigPathEnvVar = "CONFIG_PATH"

// DefaultGlobalThreshold is the ISK floor applied to a global subscription
// when the caller does not give one.
const DefaultGlobalThreshold int64 = 2_000_000_000

// DefaultLossSampleSize is how many recent losses feed the intel classifier.
const DefaultLossSampleSize = 50

func defaultConfig() *Config {
	return &Config{
		Discord: DiscordConfig{
			Token:             "",
			APIURL:            "https://discord.com/api/v10",
			RequestsPerSecond: 5,
			Burst:             5,
			Timeout:           15 * time.Second,
		},
		Killmail: KillmailConfig{
			Enabled:        true,
			FeedURL:        "https://redisq.zkillboard.com/listen.php",
			QueueID:        "firetail",
			TimeToWait:     10 * time.Second,
			RequestTimeout: 30 * time.Second,
			ErrorPause:     0,
		},
		ESI: ESIConfig{
			URL:       "https://esi.evetech.net/latest",
			UserAgent: "firetail (https://github.com/tomtom215/firetail)",
			Timeout:   15 * time.Second,
			CacheSize: 10000,
			CacheTTL:  24 * time.Hour,

			CacheCleanupInterval: 10 * time.Minute,
		},
		ZKill: ZKillConfig{
			URL:              "https://zkillboard.com/api",
			Timeout:          20 * time.Second,
			LossSampleSize:   DefaultLossSampleSize,
			FetchConcurrency: 5,
		},
		Store: StoreConfig{
			Path:     "/data/firetail",
			InMemory: false,
		},
		Server: ServerConfig{
			Host:    "0.0.0.0",
			Port:    8086,
			Timeout: 30 * time.Second,
		},
		Security: SecurityConfig{
			CORSOrigins:       []string{"*"},
			RateLimitReqs:     100,
			RateLimitWindow:   time.Minute,
			RateLimitDisabled: false,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
	}
}

// LoadWithKoanf loads defaults, then the optional config file, then the
// environment, and validates the result.
func LoadWithKoanf() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if configPath := findConfigFile(); configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

var sliceConfigPaths = []string{
	"security.cors_origins",
}

// processSliceFields splits comma-separated env values for slice fields.
// Values that came from YAML are already slices and are left alone.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		strVal, ok := k.Get(path).(string)
		if !ok || strVal == "" {
			continue
		}
		var parts []string
		for _, p := range strings.Split(strVal, ",") {
			if p = strings.TrimSpace(p); p != "" {
				parts = append(parts, p)
			}
		}
		if len(parts) == 0 {
			continue
		}
		if err := k.Set(path, parts); err != nil {
			return fmt.Errorf("failed to set %s: %w", path, err)
		}
	}
	return nil
}

// envMappings maps environment variable names (lowercased) to koanf paths.
var envMappings = map[string]string{
	"discord_token":               "discord.token",
	"discord_api_url":             "discord.api_url",
	"discord_requests_per_second": "discord.requests_per_second",
	"discord_burst":               "discord.burst",
	"discord_timeout":             "discord.timeout",

	"killmail_enabled":         "killmail.enabled",
	"killmail_feed_url":        "killmail.feed_url",
	"killmail_queue_id":        "killmail.queue_id",
	"killmail_time_to_wait":    "killmail.time_to_wait",
	"killmail_request_timeout": "killmail.request_timeout",
	"killmail_error_pause":     "killmail.error_pause",

	"esi_url":        "esi.url",
	"esi_user_agent": "esi.user_agent",
	"esi_timeout":    "esi.timeout",
	"esi_cache_size": "esi.cache_size",
	"esi_cache_ttl":  "esi.cache_ttl",

	"esi_cache_cleanup_interval": "esi.cache_cleanup_interval",

	"zkill_url":               "zkill.url",
	"zkill_timeout":           "zkill.timeout",
	"zkill_loss_sample_size":  "zkill.loss_sample_size",
	"zkill_fetch_concurrency": "zkill.fetch_concurrency",

	"store_path":      "store.path",
	"store_in_memory": "store.in_memory",

	"http_host":    "server.host",
	"http_port":    "server.port",
	"http_timeout": "server.timeout",

	"cors_origins":        "security.cors_origins",
	"rate_limit_requests": "security.rate_limit_requests",
	"rate_limit_window":   "security.rate_limit_window",
	"disable_rate_limit":  "security.rate_limit_disabled",

	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",
}

// envTransformFunc maps DISCORD_TOKEN to discord.token and so on. Unknown
// variables map to "" and are skipped.
func envTransformFunc(key string) string {
	return envMappings[strings.ToLower(key)]
}
