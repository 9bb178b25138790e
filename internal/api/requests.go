// Firetail - EVE Online killmail feed for Discord
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/firetail

package api

// DefaultGlobalThreshold is the ISK floor of a global subscription created
// without an explicit threshold.
const DefaultGlobalThreshold int64 = 2_000_000_000

// AddSubscriptionRequest is the body of POST /killmail/subscriptions.
// A missing threshold means every killmail (threshold 1).
type AddSubscriptionRequest struct {
	ChannelID     int64  `json:"channel_id" validate:"required,gt=0"`
	GuildID       int64  `json:"guild_id" validate:"required,gt=0"`
	OwnerID       int64  `json:"owner_id" validate:"gte=0"`
	GroupID       int64  `json:"group_id" validate:"required,gt=0"`
	Threshold     *int64 `json:"threshold" validate:"omitempty,gte=0"`
	IncludeLosses bool   `json:"include_losses"`
}

// AddGlobalSubscriptionRequest is the body of
// POST /killmail/subscriptions/global. A missing threshold means
// DefaultGlobalThreshold.
type AddGlobalSubscriptionRequest struct {
	ChannelID int64  `json:"channel_id" validate:"required,gt=0"`
	GuildID   int64  `json:"guild_id" validate:"required,gt=0"`
	OwnerID   int64  `json:"owner_id" validate:"gte=0"`
	Threshold *int64 `json:"threshold" validate:"omitempty,gte=0"`
}

// RemoveSubscriptionRequest holds the path and query of
// DELETE /killmail/subscriptions/{id}.
type RemoveSubscriptionRequest struct {
	ID      int64 `json:"id" validate:"required,gt=0"`
	GuildID int64 `json:"guild_id" validate:"required,gt=0"`
}

// CharacterSearchRequest holds the query of GET /intel/search.
type CharacterSearchRequest struct {
	Name string `json:"name" validate:"required,eve_name"`
}

// GroupSearchRequest holds the query of GET /intel/groups/search. Kind
// narrows a name shared by a corporation and an alliance.
type GroupSearchRequest struct {
	Name string `json:"name" validate:"required,eve_group_name"`
	Kind string `json:"kind" validate:"omitempty,oneof=corporation alliance"`
}

// threshold returns the requested threshold or def when none was sent.
func threshold(p *int64, def int64) int64 {
	if p == nil {
		return def
	}
	return *p
}
