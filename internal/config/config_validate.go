// Firetail - EVE Online killmail feed for Discord
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/firetail

package config

import (
	"errors"
	"fmt"
	"net/url"

	"github.com/tomtom215/firetail/internal/logging"
)

// Validate checks that required configuration is present and sane.
func (c *Config) Validate() error {
	if err := c.validateKillmail(); err != nil {
		return err
	}
	if err := c.validateUpstreams(); err != nil {
		return err
	}
	if err := c.validateStore(); err != nil {
		return err
	}
	if err := c.validateServer(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateKillmail() error {
	if !c.Killmail.Enabled {
		return nil
	}
	if c.Discord.Token == "" {
		return errors.New("DISCORD_TOKEN is required when KILLMAIL_ENABLED=true")
	}
	if c.Killmail.QueueID == "" {
		return errors.New("KILLMAIL_QUEUE_ID must not be empty")
	}
	if c.Killmail.RequestTimeout <= c.Killmail.TimeToWait {
		return fmt.Errorf("KILLMAIL_REQUEST_TIMEOUT (%s) must exceed KILLMAIL_TIME_TO_WAIT (%s)",
			c.Killmail.RequestTimeout, c.Killmail.TimeToWait)
	}
	if c.Killmail.ErrorPause < 0 {
		return errors.New("KILLMAIL_ERROR_PAUSE must not be negative")
	}
	if c.Discord.RequestsPerSecond <= 0 {
		return errors.New("DISCORD_REQUESTS_PER_SECOND must be positive")
	}
	return nil
}

func (c *Config) validateUpstreams() error {
	for name, raw := range map[string]string{
		"KILLMAIL_FEED_URL": c.Killmail.FeedURL,
		"ESI_URL":           c.ESI.URL,
		"ZKILL_URL":         c.ZKill.URL,
		"DISCORD_API_URL":   c.Discord.APIURL,
	} {
		u, err := url.Parse(raw)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("%s must be an http(s) URL, got %q", name, raw)
		}
	}
	if c.ZKill.LossSampleSize <= 0 {
		return fmt.Errorf("ZKILL_LOSS_SAMPLE_SIZE must be positive, got %d", c.ZKill.LossSampleSize)
	}
	if c.ZKill.FetchConcurrency <= 0 {
		return fmt.Errorf("ZKILL_FETCH_CONCURRENCY must be positive, got %d", c.ZKill.FetchConcurrency)
	}
	if c.ESI.CacheSize <= 0 {
		return fmt.Errorf("ESI_CACHE_SIZE must be positive, got %d", c.ESI.CacheSize)
	}
	if c.ESI.CacheCleanupInterval < 0 {
		return fmt.Errorf("ESI_CACHE_CLEANUP_INTERVAL must not be negative, got %s", c.ESI.CacheCleanupInterval)
	}
	return nil
}

func (c *Config) validateStore() error {
	if !c.Store.InMemory && c.Store.Path == "" {
		return errors.New("STORE_PATH is required unless STORE_IN_MEMORY=true")
	}
	return nil
}

func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("HTTP_PORT must be between 1 and 65535, got %d", c.Server.Port)
	}
	if !c.Security.RateLimitDisabled && c.Security.RateLimitReqs <= 0 {
		return fmt.Errorf("RATE_LIMIT_REQUESTS must be positive, got %d", c.Security.RateLimitReqs)
	}
	return nil
}

func (c *Config) validateLogging() error {
	if !logging.ValidLevel(c.Logging.Level) {
		return fmt.Errorf("LOG_LEVEL %q is not a valid level", c.Logging.Level)
	}
	if c.Logging.Format != "json" && c.Logging.Format != "console" {
		return fmt.Errorf("LOG_FORMAT must be json or console, got %q", c.Logging.Format)
	}
	return nil
}
