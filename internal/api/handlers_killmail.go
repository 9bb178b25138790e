// Firetail - EVE Online killmail feed for Discord
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/firetail

package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/tomtom215/firetail/internal/killmail"
	"github.com/tomtom215/firetail/internal/logging"
	"github.com/tomtom215/firetail/internal/models"
	ws "github.com/tomtom215/firetail/internal/websocket"
)

const (
	msgNoSubscriptions   = "There's no subs for this channel."
	msgSubscriptionAdded = "Killmail subscription added!"
	msgChannelCleared    = "All killmail subs removed for this channel."
)

// subscriptionView is a subscription row plus its listing line.
type subscriptionView struct {
	models.SubscriptionRecord
	Text string `json:"text"`
}

func newSubscriptionView(sub *killmail.Subscription) subscriptionView {
	return subscriptionView{SubscriptionRecord: sub.Record(), Text: sub.Describe()}
}

// notMatched is the failure for unknown ids and ids of another guild. Both
// read the same so a guild cannot probe for other guilds' subscriptions.
func notMatched(id int64) string {
	return fmt.Sprintf("ID %d does not match any of your killmail subscriptions.", id)
}

// ListChannelSubscriptions handles GET /killmail/channels/{channelID}/subscriptions.
func (h *Handler) ListChannelSubscriptions(w http.ResponseWriter, r *http.Request) {
	if h.registry == nil {
		respondError(w, http.StatusServiceUnavailable, ErrCodeServiceUnavailable, "Subscription registry not available", nil)
		return
	}
	channelID, err := parseIDParam(r, "channelID")
	if err != nil || channelID == 0 {
		respondError(w, http.StatusBadRequest, ErrCodeBadRequest, "channelID must be a positive integer", nil)
		return
	}

	subs := h.registry.ListByChannel(channelID)
	views := make([]subscriptionView, 0, len(subs))
	lines := make([]string, 0, len(subs))
	for _, sub := range subs {
		v := newSubscriptionView(sub)
		views = append(views, v)
		lines = append(lines, v.Text)
	}

	message := msgNoSubscriptions
	if len(lines) > 0 {
		message = strings.Join(lines, "\n")
	}

	respondSuccess(w, http.StatusOK, map[string]interface{}{
		"channel_id":    channelID,
		"subscriptions": views,
		"message":       message,
	})
}

// AddSubscription handles POST /killmail/subscriptions.
func (h *Handler) AddSubscription(w http.ResponseWriter, r *http.Request) {
	if h.registry == nil {
		respondError(w, http.StatusServiceUnavailable, ErrCodeServiceUnavailable, "Subscription registry not available", nil)
		return
	}

	var req AddSubscriptionRequest
	if err := decodeBody(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, ErrCodeBadRequest, err.Error(), nil)
		return
	}
	if apiErr := validateRequest(&req); apiErr != nil {
		respondValidationError(w, apiErr)
		return
	}

	h.addSubscription(w, r, killmail.AddParams{
		ChannelID:     req.ChannelID,
		GuildID:       req.GuildID,
		OwnerID:       req.OwnerID,
		GroupID:       req.GroupID,
		Threshold:     threshold(req.Threshold, 1),
		IncludeLosses: req.IncludeLosses,
	})
}

// AddGlobalSubscription handles POST /killmail/subscriptions/global.
func (h *Handler) AddGlobalSubscription(w http.ResponseWriter, r *http.Request) {
	if h.registry == nil {
		respondError(w, http.StatusServiceUnavailable, ErrCodeServiceUnavailable, "Subscription registry not available", nil)
		return
	}

	var req AddGlobalSubscriptionRequest
	if err := decodeBody(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, ErrCodeBadRequest, err.Error(), nil)
		return
	}
	if apiErr := validateRequest(&req); apiErr != nil {
		respondValidationError(w, apiErr)
		return
	}

	h.addSubscription(w, r, killmail.AddParams{
		ChannelID: req.ChannelID,
		GuildID:   req.GuildID,
		OwnerID:   req.OwnerID,
		GroupID:   models.GlobalGroupID,
		Threshold: threshold(req.Threshold, DefaultGlobalThreshold),
	})
}

func (h *Handler) addSubscription(w http.ResponseWriter, r *http.Request, p killmail.AddParams) {
	sub, err := h.registry.Add(r.Context(), p)
	if err != nil {
		respondError(w, http.StatusInternalServerError, ErrCodeInternalError, "Failed to add killmail subscription", err)
		return
	}

	respondSuccess(w, http.StatusCreated, map[string]interface{}{
		"subscription": newSubscriptionView(sub),
		"message":      msgSubscriptionAdded,
	})
}

// RemoveSubscription handles DELETE /killmail/subscriptions/{id}?guild_id=G.
// The subscription must belong to guild G.
func (h *Handler) RemoveSubscription(w http.ResponseWriter, r *http.Request) {
	if h.registry == nil {
		respondError(w, http.StatusServiceUnavailable, ErrCodeServiceUnavailable, "Subscription registry not available", nil)
		return
	}

	id, err := parseIDParam(r, "id")
	if err != nil {
		respondError(w, http.StatusBadRequest, ErrCodeBadRequest, err.Error(), nil)
		return
	}
	guildID, err := parseID(r.URL.Query().Get("guild_id"), "guild_id")
	if err != nil {
		respondError(w, http.StatusBadRequest, ErrCodeBadRequest, err.Error(), nil)
		return
	}
	req := RemoveSubscriptionRequest{ID: id, GuildID: guildID}
	if apiErr := validateRequest(&req); apiErr != nil {
		respondValidationError(w, apiErr)
		return
	}

	// The Store is checked too: a row it kept across a failed memory update
	// must still be removable.
	rec, ok, err := h.registry.Lookup(r.Context(), req.ID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, ErrCodeInternalError, "Failed to look up killmail subscription", err)
		return
	}
	if !ok || rec.GuildID != req.GuildID {
		respondError(w, http.StatusNotFound, ErrCodeNotFound, notMatched(req.ID), nil)
		return
	}

	if err := h.registry.Remove(r.Context(), req.ID); err != nil {
		if !errors.Is(err, killmail.ErrNotFound) {
			respondError(w, http.StatusInternalServerError, ErrCodeInternalError, "Failed to remove killmail subscription", err)
			return
		}
		// Lookup found it on one side and Remove cleared that side.
		logging.Ctx(r.Context()).Warn().Int64("id", req.ID).Msg("Removed a subscription present on one side only")
	}

	respondSuccess(w, http.StatusOK, map[string]interface{}{
		"id":      req.ID,
		"message": fmt.Sprintf("Killmail %d has been removed.", req.ID),
	})
}

// ClearChannelSubscriptions handles DELETE /killmail/channels/{channelID}/subscriptions.
func (h *Handler) ClearChannelSubscriptions(w http.ResponseWriter, r *http.Request) {
	if h.registry == nil {
		respondError(w, http.StatusServiceUnavailable, ErrCodeServiceUnavailable, "Subscription registry not available", nil)
		return
	}
	channelID, err := parseIDParam(r, "channelID")
	if err != nil || channelID == 0 {
		respondError(w, http.StatusBadRequest, ErrCodeBadRequest, "channelID must be a positive integer", nil)
		return
	}

	removed, err := h.registry.RemoveByChannel(r.Context(), channelID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, ErrCodeInternalError, "Failed to clear killmail subscriptions", err)
		return
	}

	respondSuccess(w, http.StatusOK, map[string]interface{}{
		"channel_id": channelID,
		"removed":    removed,
		"message":    msgChannelCleared,
	})
}

// KillmailCounter handles GET /killmail/counter.
func (h *Handler) KillmailCounter(w http.ResponseWriter, r *http.Request) {
	var processed int64
	if h.counter != nil {
		processed = h.counter.Processed()
	}
	respondSuccess(w, http.StatusOK, map[string]interface{}{
		"processed": processed,
		"message":   "Killmails Processed: " + killmail.FormatISK(processed),
	})
}

// KillmailFeed upgrades to a websocket that receives processed killmails,
// optionally filtered by ?min_value= and ?solo_only=.
func (h *Handler) KillmailFeed(w http.ResponseWriter, r *http.Request) {
	if h.wsHub == nil {
		respondError(w, http.StatusServiceUnavailable, ErrCodeServiceUnavailable, "Live feed not available", nil)
		return
	}

	q := r.URL.Query()
	filter, err := ws.ParseFilter(q.Get("min_value"), q.Get("solo_only"))
	if err != nil {
		respondError(w, http.StatusBadRequest, ErrCodeBadRequest,
			"min_value must be a non-negative number and solo_only a boolean", nil)
		return
	}

	upgrader := h.getUpgrader()
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the failure response
		logging.Ctx(r.Context()).Warn().Err(err).Msg("WebSocket upgrade failed")
		return
	}

	client := ws.NewClient(h.wsHub, conn, filter)
	select {
	case h.wsHub.Register <- client:
	case <-h.wsHub.Done():
		_ = conn.Close()
		return
	}
	client.Start()
}
