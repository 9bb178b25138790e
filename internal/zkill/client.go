// Firetail - EVE Online killmail feed for Discord
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/firetail

package zkill

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/goccy/go-json"

	"github.com/tomtom215/firetail/internal/config"
	"github.com/tomtom215/firetail/internal/httpclient"
	"github.com/tomtom215/firetail/internal/models"
)

// Client reads the zKillboard API.
type Client struct {
	baseURL string
	http    *httpclient.Client
}

// NewClient creates a zKillboard API client.
func NewClient(cfg *config.ZKillConfig, userAgent string) *Client {
	return &Client{
		baseURL: strings.TrimRight(cfg.URL, "/"),
		http: httpclient.New(httpclient.Options{
			Name:      "zkill",
			UserAgent: userAgent,
			Timeout:   cfg.Timeout,
		}),
	}
}

// statsPresence detects the empty document zKillboard returns for
// entities it has no statistics for.
type statsPresence struct {
	AllTimeSum *int64 `json:"allTimeSum"`
}

// CharacterStats returns aggregate statistics. ok is false when zKillboard
// has none for the character.
func (c *Client) CharacterStats(ctx context.Context, characterID int64) (*models.CharacterStats, bool, error) {
	return c.stats(ctx, "characterID", characterID)
}

// statsKey maps a group kind to zKillboard's stats path segment.
var statsKey = map[models.EntityKind]string{
	models.KindCorporation: "corporationID",
	models.KindAlliance:    "allianceID",
}

// GroupStats returns aggregate statistics of a corporation or alliance.
// ok is false when zKillboard has none.
func (c *Client) GroupStats(ctx context.Context, kind models.EntityKind, id int64) (*models.CharacterStats, bool, error) {
	key, ok := statsKey[kind]
	if !ok {
		return nil, false, fmt.Errorf("zkill: no group statistics for kind %q", kind)
	}
	return c.stats(ctx, key, id)
}

func (c *Client) stats(ctx context.Context, key string, id int64) (*models.CharacterStats, bool, error) {
	var raw json.RawMessage
	if err := c.get(ctx, fmt.Sprintf("/stats/%s/%d/", key, id), &raw); err != nil {
		if httpclient.IsNotFound(err) {
			return nil, false, nil
		}
		return nil, false, err
	}
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] != '{' {
		return nil, false, nil
	}

	var presence statsPresence
	if err := json.Unmarshal(raw, &presence); err != nil {
		return nil, false, fmt.Errorf("decode %s stats for %d: %w", key, id, err)
	}
	if presence.AllTimeSum == nil {
		return nil, false, nil
	}

	var stats models.CharacterStats
	if err := json.Unmarshal(raw, &stats); err != nil {
		return nil, false, fmt.Errorf("decode %s stats for %d: %w", key, id, err)
	}
	return &stats, true, nil
}

// Losses returns the character's most recent losses, newest first.
func (c *Client) Losses(ctx context.Context, characterID int64) ([]models.KillmailRef, error) {
	return c.refs(ctx, fmt.Sprintf("/kills/characterID/%d/losses/no-attackers/", characterID))
}

// Kills returns the character's most recent kills, newest first.
func (c *Client) Kills(ctx context.Context, characterID int64) ([]models.KillmailRef, error) {
	return c.refs(ctx, fmt.Sprintf("/kills/characterID/%d/kills/no-items/", characterID))
}

// Recent returns the character's most recent killmails of either side.
func (c *Client) Recent(ctx context.Context, characterID int64) ([]models.KillmailRef, error) {
	return c.refs(ctx, fmt.Sprintf("/no-items/characterID/%d/", characterID))
}

func (c *Client) refs(ctx context.Context, path string) ([]models.KillmailRef, error) {
	var refs []models.KillmailRef
	if err := c.get(ctx, path, &refs); err != nil {
		if httpclient.IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return refs, nil
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	return c.http.Do(ctx, http.MethodGet, c.baseURL+path, nil, out)
}
