// Firetail - EVE Online killmail feed for Discord
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/firetail

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tomtom215/firetail/internal/middleware"
)

// Router wires handlers and middleware into a chi mux.
type Router struct {
	handler       *Handler
	chiMiddleware *ChiMiddleware
}

// NewRouter creates a router. A nil mw uses DefaultChiMiddlewareConfig.
func NewRouter(handler *Handler, mw *ChiMiddleware) *Router {
	if mw == nil {
		mw = NewChiMiddleware(nil)
	}
	return &Router{
		handler:       handler,
		chiMiddleware: mw,
	}
}

// SetupChi configures all HTTP routes using Chi router.
func (router *Router) SetupChi() http.Handler {
	r := chi.NewRouter()

	// Global middleware, applied to all routes in order
	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(router.chiMiddleware.CORS()) // global so OPTIONS preflight is answered

	r.Route("/api/v1/health", func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimitHealth())
		r.Use(APISecurityHeaders())
		r.Get("/live", router.handler.HealthLive)
		r.Get("/ready", router.handler.HealthReady)
	})

	r.Route("/api/v1/killmail", func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimit())
		r.Use(APISecurityHeaders())
		r.Use(middleware.PrometheusMetrics)

		r.Get("/channels/{channelID}/subscriptions", router.handler.ListChannelSubscriptions)
		r.Get("/counter", router.handler.KillmailCounter)
		r.Get("/feed", router.handler.KillmailFeed)

		r.Group(func(r chi.Router) {
			r.Use(router.chiMiddleware.RateLimitMutations())
			r.Delete("/channels/{channelID}/subscriptions", router.handler.ClearChannelSubscriptions)
			r.Post("/subscriptions", router.handler.AddSubscription)
			r.Post("/subscriptions/global", router.handler.AddGlobalSubscription)
			r.Delete("/subscriptions/{id}", router.handler.RemoveSubscription)
		})
	})

	r.Route("/api/v1/intel", func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimitIntel())
		r.Use(APISecurityHeaders())
		r.Use(middleware.PrometheusMetrics)

		r.Get("/characters/{characterID}", router.handler.CharacterIntel)
		r.Get("/search", router.handler.CharacterSearch)
		r.Get("/groups/search", router.handler.GroupSearch)
		r.Get("/groups/{kind}/{groupID}", router.handler.GroupIntel)
	})

	r.Handle("/metrics", promhttp.Handler())

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		respondError(w, http.StatusNotFound, ErrCodeNotFound, "Not found", nil)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		respondError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed", nil)
	})

	return r
}
