// Firetail - EVE Online killmail feed for Discord
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/firetail

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Killmail pipeline

	KillmailsReceived = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "firetail_killmails_received_total",
			Help: "Non-empty packages returned by the killmail feed",
		},
	)

	KillmailsProcessed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "firetail_killmails_processed_total",
			Help: "Killmails dispatched to subscriptions",
		},
	)

	KillmailsDiscarded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "firetail_killmails_discarded_total",
			Help: "Killmails dropped before dispatch",
		},
		[]string{"reason"}, // npc, malformed
	)

	FeedErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "firetail_feed_errors_total",
			Help: "Transport failures polling the killmail feed",
		},
	)

	SubscriptionMatches = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "firetail_subscription_matches_total",
			Help: "Subscription predicate matches",
		},
	)

	SubscriptionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "firetail_subscriptions_active",
			Help: "Subscriptions currently held by the registry",
		},
	)

	DeliveriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "firetail_deliveries_total",
			Help: "Outbound killmail deliveries by outcome",
		},
		[]string{"status"}, // success, failure, unreachable
	)

	DeliveryDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "firetail_delivery_duration_seconds",
			Help:    "Time spent enriching and sending one killmail report",
			Buckets: prometheus.DefBuckets,
		},
	)

	// Upstream clients

	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "firetail_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "firetail_circuit_breaker_transitions_total",
			Help: "Circuit breaker state transitions",
		},
		[]string{"name", "from_state", "to_state"},
	)

	LookupCache = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "firetail_lookup_cache_total",
			Help: "Data provider cache lookups",
		},
		[]string{"result"}, // hit, miss
	)

	UpstreamRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "firetail_upstream_requests_total",
			Help: "Requests to third-party APIs",
		},
		[]string{"upstream", "status"},
	)

	// HTTP API

	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "firetail_api_requests_total",
			Help: "HTTP requests served by the command API",
		},
		[]string{"method", "path", "status"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "firetail_api_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "firetail_api_active_requests",
			Help: "HTTP requests in flight",
		},
	)

	WebSocketClients = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "firetail_websocket_clients",
			Help: "Connected live feed clients",
		},
	)
)

// RecordDiscard counts a killmail dropped before dispatch.
func RecordDiscard(reason string) {
	KillmailsDiscarded.WithLabelValues(reason).Inc()
}

// RecordDelivery records the outcome and latency of one delivery.
func RecordDelivery(status string, duration time.Duration) {
	DeliveriesTotal.WithLabelValues(status).Inc()
	DeliveryDuration.Observe(duration.Seconds())
}

// RecordBreakerTransition updates breaker gauges. state is the numeric
// gobreaker state (closed=0, half-open=1, open=2).
func RecordBreakerTransition(name, from, to string, state int) {
	CircuitBreakerState.WithLabelValues(name).Set(float64(state))
	CircuitBreakerTransitions.WithLabelValues(name, from, to).Inc()
}

// RecordLookupCache records a data provider cache hit or miss.
func RecordLookupCache(hit bool) {
	if hit {
		LookupCache.WithLabelValues("hit").Inc()
		return
	}
	LookupCache.WithLabelValues("miss").Inc()
}

// RecordUpstream counts one request to upstream ("esi", "zkill", "redisq", "discord").
func RecordUpstream(upstream, status string) {
	UpstreamRequests.WithLabelValues(upstream, status).Inc()
}

// RecordAPIRequest records an API request.
func RecordAPIRequest(method, path, status string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, path, status).Inc()
	APIRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// TrackActiveRequest adjusts the in-flight request gauge.
func TrackActiveRequest(start bool) {
	if start {
		APIActiveRequests.Inc()
		return
	}
	APIActiveRequests.Dec()
}
