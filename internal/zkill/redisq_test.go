// Firetail - EVE Online killmail feed for Discord
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/firetail

package zkill

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/firetail/internal/config"
	"github.com/tomtom215/firetail/internal/models"
)

type fakeKillmails struct {
	calls atomic.Int64
	err   error
}

func (f *fakeKillmails) Killmail(_ context.Context, id int64, hash string) (*models.Killmail, error) {
	f.calls.Add(1)
	if f.err != nil {
		return nil, f.err
	}
	return &models.Killmail{
		KillmailID:    id,
		KillmailTime:  time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		SolarSystemID: 30000142,
		Victim:        &models.Victim{CharacterID: 1, ShipTypeID: 587},
	}, nil
}

func newRedisQ(t *testing.T, handler http.HandlerFunc, esi KillmailSource) *RedisQ {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	r, err := NewRedisQ(&config.KillmailConfig{
		FeedURL:        srv.URL + "/listen.php",
		QueueID:        "firetail-test",
		TimeToWait:     10 * time.Second,
		RequestTimeout: 5 * time.Second,
	}, "firetail-test", esi)
	if err != nil {
		t.Fatal(err)
	}
	return r
}

func TestRedisQ_QueryParameters(t *testing.T) {
	t.Parallel()

	r := newRedisQ(t, func(w http.ResponseWriter, req *http.Request) {
		if req.URL.Path != "/listen.php" {
			t.Errorf("path = %q", req.URL.Path)
		}
		if got := req.URL.Query().Get("queueID"); got != "firetail-test" {
			t.Errorf("queueID = %q", got)
		}
		if got := req.URL.Query().Get("ttw"); got != "10" {
			t.Errorf("ttw = %q", got)
		}
		_, _ = w.Write([]byte(`{"package":null}`))
	}, nil)

	data, err := r.Next(context.Background())
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if data != nil {
		t.Errorf("data = %s, want nil for empty poll", data)
	}
}

func TestRedisQ_EmptyBodies(t *testing.T) {
	t.Parallel()

	for _, body := range []string{`{"package":null}`, `{}`, `{"package": null }`} {
		r := newRedisQ(t, func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(body))
		}, nil)
		data, err := r.Next(context.Background())
		if err != nil || data != nil {
			t.Errorf("body %s: data=%s err=%v", body, data, err)
		}
	}
}

func TestRedisQ_EmbeddedKillmail(t *testing.T) {
	t.Parallel()

	esi := &fakeKillmails{}
	r := newRedisQ(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"package":{"killID":7,"killmail":{"killmail_id":7},"zkb":{"hash":"h","totalValue":5}}}`))
	}, esi)

	data, err := r.Next(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	var pkg models.Package
	if err := json.Unmarshal(data, &pkg); err != nil {
		t.Fatal(err)
	}
	if pkg.Killmail == nil || pkg.Killmail.KillmailID != 7 || pkg.Zkb.TotalValue != 5 {
		t.Errorf("package = %+v", pkg)
	}
	if esi.calls.Load() != 0 {
		t.Error("fetched a killmail that was already embedded")
	}
}

func TestRedisQ_CompletesReferencedKillmail(t *testing.T) {
	t.Parallel()

	esi := &fakeKillmails{}
	r := newRedisQ(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"package":{"killID":8,"zkb":{"hash":"abc","totalValue":1000,
			"href":"https://esi.evetech.net/latest/killmails/8/abc/"}}}`))
	}, esi)

	data, err := r.Next(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	var pkg models.Package
	if err := json.Unmarshal(data, &pkg); err != nil {
		t.Fatal(err)
	}
	if pkg.Killmail == nil || pkg.Killmail.KillmailID != 8 || pkg.Killmail.SolarSystemID != 30000142 {
		t.Errorf("killmail not spliced in: %+v", pkg.Killmail)
	}
	if pkg.Zkb == nil || pkg.Zkb.TotalValue != 1000 {
		t.Errorf("zkb lost: %+v", pkg.Zkb)
	}
}

func TestRedisQ_CompletionError(t *testing.T) {
	t.Parallel()

	esi := &fakeKillmails{err: errors.New("esi down")}
	r := newRedisQ(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"package":{"killID":9,"zkb":{"hash":"abc"}}}`))
	}, esi)

	if _, err := r.Next(context.Background()); err == nil {
		t.Error("expected error when the killmail body cannot be fetched")
	}
}

func TestRedisQ_TransportError(t *testing.T) {
	t.Parallel()

	r := newRedisQ(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}, nil)
	if _, err := r.Next(context.Background()); err == nil {
		t.Error("expected error on 502")
	}
}

func TestRedisQ_PollsAgainAfterServerErrors(t *testing.T) {
	t.Parallel()

	var hits atomic.Int64
	r := newRedisQ(t, func(w http.ResponseWriter, _ *http.Request) {
		if hits.Add(1) <= 10 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(`{"package":null}`))
	}, nil)

	for i := range 10 {
		if _, err := r.Next(context.Background()); err == nil {
			t.Fatalf("poll %d: expected error on 502", i+1)
		}
	}
	data, err := r.Next(context.Background())
	if err != nil {
		t.Fatalf("poll after server errors: %v", err)
	}
	if data != nil {
		t.Errorf("data = %s, want nil for an empty package", data)
	}
	if got := hits.Load(); got != 11 {
		t.Errorf("server hits = %d, want 11", got)
	}
}

func TestRedisQ_RateLimitNotRetried(t *testing.T) {
	t.Parallel()

	var hits atomic.Int64
	r := newRedisQ(t, func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		w.Header().Set("Retry-After", "30")
		w.WriteHeader(http.StatusTooManyRequests)
	}, nil)

	start := time.Now()
	if _, err := r.Next(context.Background()); err == nil {
		t.Fatal("expected error on 429")
	}
	if hits.Load() != 1 {
		t.Errorf("server hits = %d, want 1", hits.Load())
	}
	if time.Since(start) > 5*time.Second {
		t.Error("429 was waited out instead of surfaced")
	}
}

func TestRedisQ_MalformedPassedThrough(t *testing.T) {
	t.Parallel()

	r := newRedisQ(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"package":{"killID":"not a number"}}`))
	}, &fakeKillmails{})

	data, err := r.Next(context.Background())
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if len(data) == 0 {
		t.Error("malformed package dropped before the parser saw it")
	}
}
