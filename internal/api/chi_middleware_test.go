// Firetail - EVE Online killmail feed for Discord
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/firetail

package api

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/tomtom215/firetail/internal/config"
)

func TestNewChiMiddleware_DefaultConfig(t *testing.T) {
	m := NewChiMiddleware(nil)

	if m.config == nil {
		t.Fatal("config is nil")
	}
	// Secure by default: no origins until configured
	if len(m.config.CORSAllowedOrigins) != 0 {
		t.Errorf("CORSAllowedOrigins = %v, want []", m.config.CORSAllowedOrigins)
	}
	if m.config.RateLimitRequests != 100 || m.config.RateLimitWindow != time.Minute {
		t.Errorf("rate limit = %d/%v", m.config.RateLimitRequests, m.config.RateLimitWindow)
	}
}

func TestChiMiddlewareConfigFrom(t *testing.T) {
	c := ChiMiddlewareConfigFrom(config.SecurityConfig{
		CORSOrigins:     []string{"https://firetail.example"},
		RateLimitReqs:   5,
		RateLimitWindow: 30 * time.Second,
	})
	if len(c.CORSAllowedOrigins) != 1 || c.RateLimitRequests != 5 || c.RateLimitWindow != 30*time.Second {
		t.Errorf("config = %+v", c)
	}

	// Zero values keep the defaults
	c = ChiMiddlewareConfigFrom(config.SecurityConfig{})
	if c.RateLimitRequests != 100 || c.RateLimitWindow != time.Minute {
		t.Errorf("defaults not kept: %+v", c)
	}
}

func TestChiMiddleware_RateLimit(t *testing.T) {
	m := NewChiMiddleware(&ChiMiddlewareConfig{
		RateLimitRequests: 2,
		RateLimitWindow:   time.Minute,
	})
	handler := m.RateLimit()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	codes := make([]int, 3)
	var last *httptest.ResponseRecorder
	for i := range codes {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "192.0.2.1:1234"
		last = httptest.NewRecorder()
		handler.ServeHTTP(last, req)
		codes[i] = last.Code
	}

	if codes[0] != http.StatusOK || codes[1] != http.StatusOK {
		t.Errorf("first requests = %v, want 200", codes[:2])
	}
	if codes[2] != http.StatusTooManyRequests {
		t.Errorf("third request = %d, want 429", codes[2])
	}
	if !strings.Contains(last.Body.String(), ErrCodeRateLimited) {
		t.Errorf("429 body = %q, want the %s envelope", last.Body.String(), ErrCodeRateLimited)
	}
}

func TestRouter_MutationRateLimit(t *testing.T) {
	env := newTestEnv(t)
	mwCfg := ChiMiddlewareConfigFrom(config.SecurityConfig{RateLimitReqs: 1000})
	server := NewRouter(env.handler, NewChiMiddleware(mwCfg)).SetupChi()

	var code int
	for i := 0; i <= RateLimitMutations.Requests; i++ {
		req := httptest.NewRequest(http.MethodDelete, "/api/v1/killmail/channels/5/subscriptions", nil)
		req.RemoteAddr = "198.51.100.7:4000"
		rec := httptest.NewRecorder()
		server.ServeHTTP(rec, req)
		code = rec.Code
	}
	if code != http.StatusTooManyRequests {
		t.Errorf("request %d = %d, want 429", RateLimitMutations.Requests+1, code)
	}

	// Reads are not counted against the mutation budget
	req := httptest.NewRequest(http.MethodGet, "/api/v1/killmail/counter", nil)
	req.RemoteAddr = "198.51.100.7:4000"
	rec := httptest.NewRecorder()
	server.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("counter after mutation limit = %d, want 200", rec.Code)
	}
}

func TestChiMiddleware_RateLimitDisabled(t *testing.T) {
	m := NewChiMiddleware(&ChiMiddlewareConfig{RateLimitRequests: 1, RateLimitWindow: time.Minute, RateLimitDisabled: true})
	handler := m.RateLimit()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	for i := 0; i < 5; i++ {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("request %d = %d, want 200", i, rec.Code)
		}
	}
}

func TestChiMiddleware_CORSPreflight(t *testing.T) {
	m := NewChiMiddleware(ChiMiddlewareConfigFrom(config.SecurityConfig{CORSOrigins: []string{"https://firetail.example"}}))
	handler := m.CORS()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/killmail/subscriptions", nil)
	req.Header.Set("Origin", "https://firetail.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "https://firetail.example" {
		t.Errorf("Access-Control-Allow-Origin = %q", got)
	}
}

func TestRouter_Routes(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		method string
		target string
		want   int
	}{
		{http.MethodGet, "/api/v1/health/live", http.StatusOK},
		{http.MethodGet, "/api/v1/killmail/counter", http.StatusOK},
		{http.MethodGet, "/metrics", http.StatusOK},
		{http.MethodGet, "/api/v1/nope", http.StatusNotFound},
		{http.MethodPut, "/api/v1/killmail/counter", http.StatusMethodNotAllowed},
	}
	for _, tt := range tests {
		rec := httptest.NewRecorder()
		env.server.ServeHTTP(rec, httptest.NewRequest(tt.method, tt.target, nil))
		if rec.Code != tt.want {
			t.Errorf("%s %s = %d, want %d", tt.method, tt.target, rec.Code, tt.want)
		}
		if id := rec.Header().Get("X-Request-ID"); id == "" {
			t.Errorf("%s %s: X-Request-ID missing", tt.method, tt.target)
		}
	}
}
