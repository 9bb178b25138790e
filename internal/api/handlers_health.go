// Firetail - EVE Online killmail feed for Discord
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/firetail

package api

import (
	"net/http"
	"time"

	"github.com/tomtom215/firetail/internal/models"
)

// HealthLive handles liveness probe requests (Kubernetes-style)
// Returns 200 OK if the process is alive, regardless of dependencies
func (h *Handler) HealthLive(w http.ResponseWriter, r *http.Request) {
	respondSuccess(w, http.StatusOK, map[string]interface{}{
		"alive":  true,
		"uptime": time.Since(h.startTime).Seconds(),
	})
}

// HealthReady handles readiness probe requests (Kubernetes-style).
// The service is ready once the subscription registry has loaded; before
// that, killmails would be dispatched to nobody.
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	registryLoaded := h.registry != nil && h.registry.Loaded()

	subscriptions := 0
	if h.registry != nil {
		subscriptions = h.registry.Len()
	}
	feedClients := 0
	if h.wsHub != nil {
		feedClients = h.wsHub.GetClientCount()
	}

	statusCode := http.StatusOK
	status := "ready"
	if !registryLoaded {
		statusCode = http.StatusServiceUnavailable
		status = "not_ready"
	}

	respondJSON(w, statusCode, &models.APIResponse{
		Status: status,
		Data: map[string]interface{}{
			"registry_loaded": registryLoaded,
			"subscriptions":   subscriptions,
			"feed_clients":    feedClients,
			"ready_to_serve":  registryLoaded,
			"uptime":          time.Since(h.startTime).Seconds(),
		},
		Metadata: models.Metadata{
			Timestamp: time.Now(),
		},
	})
}
