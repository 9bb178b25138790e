// Firetail - EVE Online killmail feed for Discord
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/firetail

package models

import "time"

// GlobalGroupID is the group id that historically marked a global
// subscription. It is stored as-is and treated as "no filter".
const GlobalGroupID int64 = 6

// SubscriptionRecord is a persisted killmail subscription.
type SubscriptionRecord struct {
	ID            int64     `json:"id"`
	ChannelID     int64     `json:"channel_id"`
	GuildID       int64     `json:"guild_id"`
	OwnerID       int64     `json:"owner_id"`
	GroupID       int64     `json:"group_id"`
	Threshold     int64     `json:"threshold"`
	IncludeLosses bool      `json:"include_losses"`
	CreatedAt     time.Time `json:"created_at"`
}
