// Firetail - EVE Online killmail feed for Discord
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/firetail

package models

import "github.com/goccy/go-json"

// Zkb is zKillboard's metadata attached to every killmail it publishes.
type Zkb struct {
	LocationID     int64    `json:"locationID"`
	Hash           string   `json:"hash"`
	FittedValue    float64  `json:"fittedValue"`
	DroppedValue   float64  `json:"droppedValue"`
	DestroyedValue float64  `json:"destroyedValue"`
	TotalValue     float64  `json:"totalValue"`
	Points         int64    `json:"points"`
	NPC            bool     `json:"npc"`
	Solo           bool     `json:"solo"`
	Awox           bool     `json:"awox"`
	Labels         []string `json:"labels,omitempty"`

	// Href points at the ESI killmail document.
	Href string `json:"href,omitempty"`
}

// Package is the payload of one RedisQ long-poll response.
type Package struct {
	KillID   int64     `json:"killID"`
	Killmail *Killmail `json:"killmail"`
	Zkb      *Zkb      `json:"zkb"`
}

// RedisQEnvelope wraps a RedisQ response. Package is JSON null when no
// killmail arrived before the server's wait time elapsed.
type RedisQEnvelope struct {
	Package json.RawMessage `json:"package"`
}

// KillmailRef is one entry of a zKillboard kills or losses list.
type KillmailRef struct {
	KillmailID int64 `json:"killmail_id"`
	Zkb        Zkb   `json:"zkb"`
}

// CharacterStats is the subset of zKillboard's
// /stats/characterID/{id}/ response Firetail reads. The corporation and
// alliance documents share its shape.
//
// DangerRatio and GangRatio are pointers because zKillboard omits them for
// characters with no recorded activity.
type CharacterStats struct {
	ID             int64     `json:"id"`
	DangerRatio    *float64  `json:"dangerRatio,omitempty"`
	GangRatio      *float64  `json:"gangRatio,omitempty"`
	SoloKills      int64     `json:"soloKills"`
	AllTimeSum     int64     `json:"allTimeSum"`
	ShipsDestroyed int64     `json:"shipsDestroyed"`
	ShipsLost      int64     `json:"shipsLost"`
	ISKDestroyed   float64   `json:"iskDestroyed"`
	ISKLost        float64   `json:"iskLost"`
	TopLists       []TopList `json:"topLists,omitempty"`
}

// TopList is one of zKillboard's "most active" rankings.
type TopList struct {
	Type   string     `json:"type"`
	Title  string     `json:"title"`
	Values []TopValue `json:"values"`
}

// TopValue is one ranked row. Only the fields for the list's Type are set.
type TopValue struct {
	Kills           int64  `json:"kills"`
	SolarSystemID   int64  `json:"solarSystemID,omitempty"`
	SolarSystemName string `json:"solarSystemName,omitempty"`
	RegionName      string `json:"regionName,omitempty"`
	ShipTypeID      int64  `json:"shipTypeID,omitempty"`
	ShipName        string `json:"shipName,omitempty"`
}
