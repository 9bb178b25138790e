// Firetail - EVE Online killmail feed for Discord
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/firetail

package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"

	"github.com/tomtom215/firetail/internal/logging"
)

func TestRequestID_GeneratesNewID(t *testing.T) {
	t.Parallel()

	var capturedID, loggingID, correlationID string
	handler := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		capturedID = GetRequestID(r.Context())
		loggingID = logging.RequestIDFromContext(r.Context())
		correlationID = logging.CorrelationIDFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/test", nil))

	responseID := rec.Header().Get(RequestIDHeader)
	if _, err := uuid.Parse(responseID); err != nil {
		t.Errorf("response id %q is not a UUID: %v", responseID, err)
	}
	if capturedID != responseID || loggingID != responseID {
		t.Errorf("context ids (%q, %q) do not match header %q", capturedID, loggingID, responseID)
	}
	if correlationID == "" {
		t.Error("correlation id not set")
	}
}

func TestRequestID_PreservesUpstreamID(t *testing.T) {
	t.Parallel()

	var capturedID string
	handler := RequestID(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		capturedID = GetRequestID(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.Header.Set(RequestIDHeader, "proxy-abc-123")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if capturedID != "proxy-abc-123" {
		t.Errorf("context id = %q", capturedID)
	}
	if got := rec.Header().Get(RequestIDHeader); got != "proxy-abc-123" {
		t.Errorf("response id = %q", got)
	}
}

func TestRequestID_UniquePerRequest(t *testing.T) {
	t.Parallel()

	handler := RequestID(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/test", nil))
		id := rec.Header().Get(RequestIDHeader)
		if seen[id] {
			t.Fatalf("duplicate request id %q", id)
		}
		seen[id] = true
	}
}

func TestGetRequestID_WithoutID(t *testing.T) {
	t.Parallel()

	if got := GetRequestID(context.Background()); got != "" {
		t.Errorf("GetRequestID() = %q, want empty", got)
	}
}
