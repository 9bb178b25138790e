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
	"net/url"
	"strconv"

	"github.com/goccy/go-json"

	"github.com/tomtom215/firetail/internal/config"
	"github.com/tomtom215/firetail/internal/httpclient"
	"github.com/tomtom215/firetail/internal/models"
)

// KillmailSource fetches a full killmail by id and hash. *esi.Client
// satisfies it.
type KillmailSource interface {
	Killmail(ctx context.Context, id int64, hash string) (*models.Killmail, error)
}

// RedisQ polls the zKillboard RedisQ endpoint. It implements killmail.Feed.
type RedisQ struct {
	url  string
	http *httpclient.Client
	esi  KillmailSource
}

// NewRedisQ creates the event source. esi completes packages that arrive
// without the killmail body; it may be nil if the feed always embeds it.
func NewRedisQ(cfg *config.KillmailConfig, userAgent string, esi KillmailSource) (*RedisQ, error) {
	u, err := url.Parse(cfg.FeedURL)
	if err != nil {
		return nil, fmt.Errorf("parse feed url: %w", err)
	}
	q := u.Query()
	q.Set("queueID", cfg.QueueID)
	if secs := int(cfg.TimeToWait.Seconds()); secs > 0 {
		q.Set("ttw", strconv.Itoa(secs))
	}
	u.RawQuery = q.Encode()

	return &RedisQ{
		url: u.String(),
		// No breaker and no 429 retry: a failed poll is retried by the
		// listener's next iteration.
		http: httpclient.New(httpclient.Options{
			Name:           "redisq",
			UserAgent:      userAgent,
			Timeout:        cfg.RequestTimeout,
			MaxRetries:     -1,
			DisableBreaker: true,
		}),
		esi: esi,
	}, nil
}

// URL returns the poll URL including queue id and ttw.
func (r *RedisQ) URL() string {
	return r.url
}

// Next performs one long poll. It returns nil data when no killmail was
// pending.
func (r *RedisQ) Next(ctx context.Context) ([]byte, error) {
	var env models.RedisQEnvelope
	if err := r.http.Do(ctx, http.MethodGet, r.url, nil, &env); err != nil {
		return nil, err
	}
	pkg := bytes.TrimSpace(env.Package)
	if len(pkg) == 0 || bytes.Equal(pkg, []byte("null")) {
		return nil, nil
	}
	return r.complete(ctx, pkg)
}

// complete fetches the killmail body for packages that carry only killID
// and zkb.hash. Packages that cannot be decoded are passed through for the
// parser to reject.
func (r *RedisQ) complete(ctx context.Context, raw []byte) ([]byte, error) {
	var pkg models.Package
	if err := json.Unmarshal(raw, &pkg); err != nil {
		return raw, nil
	}
	if pkg.Killmail != nil || r.esi == nil || pkg.Zkb == nil || pkg.Zkb.Hash == "" || pkg.KillID == 0 {
		return raw, nil
	}

	km, err := r.esi.Killmail(ctx, pkg.KillID, pkg.Zkb.Hash)
	if err != nil {
		return nil, fmt.Errorf("fetch killmail %d: %w", pkg.KillID, err)
	}
	pkg.Killmail = km

	out, err := json.Marshal(pkg)
	if err != nil {
		return nil, fmt.Errorf("encode killmail %d: %w", pkg.KillID, err)
	}
	return out, nil
}
