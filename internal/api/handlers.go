// Firetail - EVE Online killmail feed for Discord
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/firetail

package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/tomtom215/firetail/internal/config"
	"github.com/tomtom215/firetail/internal/intel"
	"github.com/tomtom215/firetail/internal/killmail"
	"github.com/tomtom215/firetail/internal/logging"
	"github.com/tomtom215/firetail/internal/models"
	ws "github.com/tomtom215/firetail/internal/websocket"
)

// Counter reports how many killmails the listener has processed.
// *killmail.Listener satisfies it.
type Counter interface {
	Processed() int64
}

// Reporter builds character intel reports. *intel.Service satisfies it.
type Reporter interface {
	Report(ctx context.Context, characterID int64) (*intel.Report, error)
}

// CharacterResolver resolves an exact character name to its id.
// *esi.Client satisfies it.
type CharacterResolver interface {
	CharacterID(ctx context.Context, name string) (int64, bool, error)
}

// GroupReporter builds corporation and alliance reports.
// *intel.GroupService satisfies it.
type GroupReporter interface {
	Report(ctx context.Context, kind models.EntityKind, id int64) (*intel.GroupReport, error)
}

// GroupResolver resolves an exact corporation or alliance name.
// *esi.Client satisfies it.
type GroupResolver interface {
	GroupIDs(ctx context.Context, name string) ([]models.NamedID, error)
}

// Handler handles all HTTP requests
type Handler struct {
	registry   *killmail.Registry
	counter    Counter
	reporter   Reporter
	characters CharacterResolver
	groups     GroupReporter
	groupNames GroupResolver
	config     *config.Config
	wsHub      *ws.Hub
	startTime  time.Time
}

// NewHandler creates a new handler. Any dependency except the registry may
// be nil; the endpoints that need it then answer 503.
func NewHandler(registry *killmail.Registry, counter Counter, reporter Reporter,
	characters CharacterResolver, cfg *config.Config, wsHub *ws.Hub) *Handler {
	return &Handler{
		registry:   registry,
		counter:    counter,
		reporter:   reporter,
		characters: characters,
		config:     cfg,
		wsHub:      wsHub,
		startTime:  time.Now(),
	}
}

// SetGroupIntel enables the group intel endpoints. Without it they answer
// 503.
func (h *Handler) SetGroupIntel(reporter GroupReporter, resolver GroupResolver) {
	h.groups = reporter
	h.groupNames = resolver
}

// getUpgrader creates a WebSocket upgrader with origin checking and a
// handshake timeout.
func (h *Handler) getUpgrader() websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:   1024,
		WriteBufferSize:  1024,
		CheckOrigin:      h.checkWebSocketOrigin,
		HandshakeTimeout: 10 * time.Second,
	}
}

// checkWebSocketOrigin validates WebSocket connection origins
func (h *Handler) checkWebSocketOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")

	// Browsers always send Origin; an empty one would bypass CORS.
	if origin == "" {
		logging.Warn().Msg("WebSocket connection rejected: missing Origin header")
		return false
	}

	// Nil config allows everything (tests)
	if h.config == nil {
		return true
	}

	for _, allowedOrigin := range h.config.Security.CORSOrigins {
		if allowedOrigin == "*" || allowedOrigin == origin {
			return true
		}
	}

	logging.Warn().Str("origin", sanitizeLogValue(origin)).Msg("WebSocket connection rejected from unauthorized origin")
	return false
}
