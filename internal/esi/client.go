// Firetail - EVE Online killmail feed for Discord
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/firetail

package esi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/tomtom215/firetail/internal/cache"
	"github.com/tomtom215/firetail/internal/config"
	"github.com/tomtom215/firetail/internal/httpclient"
	"github.com/tomtom215/firetail/internal/logging"
	"github.com/tomtom215/firetail/internal/metrics"
	"github.com/tomtom215/firetail/internal/models"
)

// ErrNotFound is returned by lookups that have no ok result.
var ErrNotFound = errors.New("esi: not found")

// lookup is a memoized answer; ok=false records a 404.
type lookup[T any] struct {
	value T
	ok    bool
}

// Client is safe for concurrent use.
type Client struct {
	baseURL string
	http    *httpclient.Client
	timeout time.Duration

	names          *cache.LRU[string, lookup[string]]
	systems        *cache.LRU[int64, lookup[models.SystemInfo]]
	constellations *cache.LRU[int64, lookup[models.ConstellationInfo]]
	characters     *cache.LRU[int64, lookup[models.CharacterInfo]]
	corporations   *cache.LRU[int64, lookup[models.CorporationInfo]]
	alliances      *cache.LRU[int64, lookup[models.AllianceInfo]]

	group singleflight.Group
}

// NewClient creates an ESI client from configuration.
func NewClient(cfg *config.ESIConfig) *Client {
	return newClient(cfg, httpclient.New(httpclient.Options{
		Name:      "esi",
		UserAgent: cfg.UserAgent,
		Timeout:   cfg.Timeout,
	}))
}

func newClient(cfg *config.ESIConfig, hc *httpclient.Client) *Client {
	size := cfg.CacheSize
	if size <= 0 {
		size = 10000
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		baseURL:        strings.TrimRight(cfg.URL, "/"),
		http:           hc,
		timeout:        timeout,
		names:          cache.NewLRU[string, lookup[string]](size, cfg.CacheTTL),
		systems:        cache.NewLRU[int64, lookup[models.SystemInfo]](size/10+1, cfg.CacheTTL),
		constellations: cache.NewLRU[int64, lookup[models.ConstellationInfo]](size/10+1, cfg.CacheTTL),
		characters:     cache.NewLRU[int64, lookup[models.CharacterInfo]](size/10+1, time.Hour),
		corporations:   cache.NewLRU[int64, lookup[models.CorporationInfo]](size/10+1, time.Hour),
		alliances:      cache.NewLRU[int64, lookup[models.AllianceInfo]](size/10+1, time.Hour),
	}
}

// CleanupExpired sweeps expired entries from every cache and returns how
// many were removed.
func (c *Client) CleanupExpired() int {
	return c.names.CleanupExpired() +
		c.systems.CleanupExpired() +
		c.constellations.CleanupExpired() +
		c.characters.CleanupExpired() +
		c.corporations.CleanupExpired() +
		c.alliances.CleanupExpired()
}

// cached runs fetch once per key across concurrent callers and memoizes
// the answer. Transport errors are returned and not cached.
//
// The flight outlives the caller that started it: fetch runs under the
// caller's values but not its cancellation, bounded by the client timeout.
// A canceled caller stops waiting and the others still get the answer.
func cached[K comparable, T any](ctx context.Context, c *Client, lru *cache.LRU[K, lookup[T]], key K, flightKey string,
	fetch func(ctx context.Context) (T, error),
) (T, bool, error) {
	var zero T
	if hit, ok := lru.Get(key); ok {
		metrics.RecordLookupCache(true)
		return hit.value, hit.ok, nil
	}
	metrics.RecordLookupCache(false)

	ch := c.group.DoChan(flightKey, func() (any, error) {
		// A flight that finished between Get and Do has already filled the cache.
		if hit, ok := lru.Get(key); ok {
			return hit, nil
		}
		fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.timeout)
		defer cancel()
		value, err := fetch(fctx)
		switch {
		case err == nil:
			res := lookup[T]{value: value, ok: true}
			lru.Add(key, res)
			return res, nil
		case httpclient.IsNotFound(err) || errors.Is(err, ErrNotFound):
			res := lookup[T]{}
			lru.Add(key, res)
			return res, nil
		default:
			return nil, err
		}
	})

	select {
	case <-ctx.Done():
		return zero, false, ctx.Err()
	case r := <-ch:
		if r.Err != nil {
			return zero, false, r.Err
		}
		res := r.Val.(lookup[T])
		return res.value, res.ok, nil
	}
}

type nameResponse struct {
	Name string `json:"name"`
}

// namePath maps a kind to its ESI document. Celestials are handled apart.
var namePath = map[models.EntityKind]string{
	models.KindCharacter:     "/characters/%d/",
	models.KindCorporation:   "/corporations/%d/",
	models.KindAlliance:      "/alliances/%d/",
	models.KindSystem:        "/universe/systems/%d/",
	models.KindConstellation: "/universe/constellations/%d/",
	models.KindRegion:        "/universe/regions/%d/",
	models.KindType:          "/universe/types/%d/",
}

// Name resolves the display name of an id. Unknown ids return ok=false.
func (c *Client) Name(ctx context.Context, kind models.EntityKind, id int64) (string, bool, error) {
	if id <= 0 {
		return "", false, nil
	}
	key := fmt.Sprintf("%s:%d", kind, id)
	return cached(ctx, c, c.names, key, "name:"+key, func(ctx context.Context) (string, error) {
		if kind == models.KindCelestial {
			return c.celestialName(ctx, id)
		}
		path, ok := namePath[kind]
		if !ok {
			return "", fmt.Errorf("esi: unsupported entity kind %q", kind)
		}
		var out nameResponse
		if err := c.get(ctx, fmt.Sprintf(path, id), &out); err != nil {
			return "", err
		}
		return out.Name, nil
	})
}

// celestialName resolves a zKillboard locationID. ESI has no generic
// celestial endpoint, so the id range picks the document and planets,
// moons, belts and stars are tried in turn.
func (c *Client) celestialName(ctx context.Context, id int64) (string, error) {
	var candidates []string
	switch {
	case id >= 60000000 && id < 64000000:
		candidates = []string{"/universe/stations/%d/"}
	case id >= 50000000 && id < 60000000:
		candidates = []string{"/universe/stargates/%d/"}
	case id >= 40000000 && id < 50000000:
		candidates = []string{
			"/universe/planets/%d/",
			"/universe/moons/%d/",
			"/universe/asteroid_belts/%d/",
			"/universe/stars/%d/",
		}
	default:
		return "", ErrNotFound
	}

	for _, path := range candidates {
		var out nameResponse
		err := c.get(ctx, fmt.Sprintf(path, id), &out)
		if err == nil {
			return out.Name, nil
		}
		if !httpclient.IsNotFound(err) {
			return "", err
		}
	}
	return "", ErrNotFound
}

// System returns a solar system's name and constellation.
func (c *Client) System(ctx context.Context, id int64) (models.SystemInfo, bool, error) {
	return cached(ctx, c, c.systems, id, fmt.Sprintf("system:%d", id), func(ctx context.Context) (models.SystemInfo, error) {
		var out models.SystemInfo
		err := c.get(ctx, fmt.Sprintf("/universe/systems/%d/", id), &out)
		return out, err
	})
}

// Constellation returns a constellation's name and region.
func (c *Client) Constellation(ctx context.Context, id int64) (models.ConstellationInfo, bool, error) {
	return cached(ctx, c, c.constellations, id, fmt.Sprintf("constellation:%d", id), func(ctx context.Context) (models.ConstellationInfo, error) {
		var out models.ConstellationInfo
		err := c.get(ctx, fmt.Sprintf("/universe/constellations/%d/", id), &out)
		return out, err
	})
}

// Character returns a character's name and current affiliation.
func (c *Client) Character(ctx context.Context, id int64) (models.CharacterInfo, bool, error) {
	return cached(ctx, c, c.characters, id, fmt.Sprintf("character:%d", id), func(ctx context.Context) (models.CharacterInfo, error) {
		var out models.CharacterInfo
		err := c.get(ctx, fmt.Sprintf("/characters/%d/", id), &out)
		return out, err
	})
}

// Corporation returns a corporation's ticker, size and alliance.
func (c *Client) Corporation(ctx context.Context, id int64) (models.CorporationInfo, bool, error) {
	if id <= 0 {
		return models.CorporationInfo{}, false, nil
	}
	return cached(ctx, c, c.corporations, id, fmt.Sprintf("corporation:%d", id), func(ctx context.Context) (models.CorporationInfo, error) {
		var out models.CorporationInfo
		err := c.get(ctx, fmt.Sprintf("/corporations/%d/", id), &out)
		return out, err
	})
}

// Alliance returns an alliance's ticker and executor corporation.
func (c *Client) Alliance(ctx context.Context, id int64) (models.AllianceInfo, bool, error) {
	if id <= 0 {
		return models.AllianceInfo{}, false, nil
	}
	return cached(ctx, c, c.alliances, id, fmt.Sprintf("alliance:%d", id), func(ctx context.Context) (models.AllianceInfo, error) {
		var out models.AllianceInfo
		err := c.get(ctx, fmt.Sprintf("/alliances/%d/", id), &out)
		return out, err
	})
}

// Killmail fetches the full ESI killmail document. It is not cached.
func (c *Client) Killmail(ctx context.Context, id int64, hash string) (*models.Killmail, error) {
	var km models.Killmail
	if err := c.get(ctx, fmt.Sprintf("/killmails/%d/%s/", id, hash), &km); err != nil {
		if httpclient.IsNotFound(err) {
			return nil, fmt.Errorf("killmail %d: %w", id, ErrNotFound)
		}
		return nil, err
	}
	return &km, nil
}

// KillmailURL returns the URL Killmail would fetch.
func (c *Client) KillmailURL(id int64, hash string) string {
	return fmt.Sprintf("%s/killmails/%d/%s/", c.baseURL, id, hash)
}

// CharacterID resolves an exact character name.
func (c *Client) CharacterID(ctx context.Context, name string) (int64, bool, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return 0, false, nil
	}
	out, err := c.universeIDs(ctx, name)
	if err != nil {
		return 0, false, fmt.Errorf("resolve character %q: %w", name, err)
	}
	for _, ch := range out.Characters {
		if strings.EqualFold(ch.Name, name) {
			return ch.ID, true, nil
		}
	}
	return 0, false, nil
}

// GroupIDs resolves an exact corporation or alliance name. A name can
// belong to one corporation and one alliance at once, so every match is
// returned with Category set to its kind, corporations first.
func (c *Client) GroupIDs(ctx context.Context, name string) ([]models.NamedID, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, nil
	}
	out, err := c.universeIDs(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("resolve group %q: %w", name, err)
	}

	var matches []models.NamedID
	for _, corp := range out.Corporations {
		if strings.EqualFold(corp.Name, name) {
			matches = append(matches, models.NamedID{ID: corp.ID, Name: corp.Name, Category: string(models.KindCorporation)})
		}
	}
	for _, alliance := range out.Alliances {
		if strings.EqualFold(alliance.Name, name) {
			matches = append(matches, models.NamedID{ID: alliance.ID, Name: alliance.Name, Category: string(models.KindAlliance)})
		}
	}
	return matches, nil
}

// universeIDs posts one name to /universe/ids/. A 404 is an empty answer.
func (c *Client) universeIDs(ctx context.Context, name string) (models.UniverseIDs, error) {
	var out models.UniverseIDs
	if err := c.http.Do(ctx, http.MethodPost, c.baseURL+"/universe/ids/", []string{name}, &out); err != nil {
		if httpclient.IsNotFound(err) {
			return models.UniverseIDs{}, nil
		}
		return models.UniverseIDs{}, err
	}
	return out, nil
}

// RunCacheCleanup sweeps expired cache entries every interval until ctx
// is canceled. A non-positive interval returns at once.
func (c *Client) RunCacheCleanup(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := c.CleanupExpired(); n > 0 {
				logging.Debug().Int("removed", n).Msg("Expired ESI lookups swept")
			}
		}
	}
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	return c.http.Do(ctx, http.MethodGet, c.baseURL+path, nil, out)
}

// CacheJanitor runs RunCacheCleanup as a supervised service.
type CacheJanitor struct {
	client   *Client
	interval time.Duration
}

// NewCacheJanitor creates a janitor sweeping c every interval.
func NewCacheJanitor(c *Client, interval time.Duration) *CacheJanitor {
	return &CacheJanitor{client: c, interval: interval}
}

// Serve implements suture.Service.
func (j *CacheJanitor) Serve(ctx context.Context) error {
	j.client.RunCacheCleanup(ctx, j.interval)
	return ctx.Err()
}

func (j *CacheJanitor) String() string {
	return "esi-cache-janitor"
}
