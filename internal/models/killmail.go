// Firetail - EVE Online killmail feed for Discord
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/firetail

package models

import "time"

// Killmail is the ESI killmail document
// (GET /killmails/{killmail_id}/{killmail_hash}/).
type Killmail struct {
	KillmailID    int64      `json:"killmail_id"`
	KillmailTime  time.Time  `json:"killmail_time"`
	SolarSystemID int64      `json:"solar_system_id"`
	MoonID        int64      `json:"moon_id,omitempty"`
	WarID         int64      `json:"war_id,omitempty"`
	Attackers     []Attacker `json:"attackers"`
	Victim        *Victim    `json:"victim"`

	// Zkb is only present on documents that came from zKillboard.
	Zkb *Zkb `json:"zkb,omitempty"`
}

// Attacker is one entry of a killmail's attacker list.
type Attacker struct {
	CharacterID    int64   `json:"character_id,omitempty"`
	CorporationID  int64   `json:"corporation_id,omitempty"`
	AllianceID     int64   `json:"alliance_id,omitempty"`
	FactionID      int64   `json:"faction_id,omitempty"`
	ShipTypeID     int64   `json:"ship_type_id,omitempty"`
	WeaponTypeID   int64   `json:"weapon_type_id,omitempty"`
	DamageDone     int64   `json:"damage_done"`
	FinalBlow      bool    `json:"final_blow"`
	SecurityStatus float64 `json:"security_status"`
}

// Victim is the destroyed party. Structures have no CharacterID.
type Victim struct {
	CharacterID   int64     `json:"character_id,omitempty"`
	CorporationID int64     `json:"corporation_id,omitempty"`
	AllianceID    int64     `json:"alliance_id,omitempty"`
	FactionID     int64     `json:"faction_id,omitempty"`
	ShipTypeID    int64     `json:"ship_type_id"`
	DamageTaken   int64     `json:"damage_taken"`
	Items         []Item    `json:"items,omitempty"`
	Position      *Position `json:"position,omitempty"`
}

// Item is a fitted or carried item. Containers nest their contents in Items.
type Item struct {
	Flag              int64  `json:"flag"`
	ItemTypeID        int64  `json:"item_type_id"`
	QuantityDropped   int64  `json:"quantity_dropped,omitempty"`
	QuantityDestroyed int64  `json:"quantity_destroyed,omitempty"`
	Singleton         int64  `json:"singleton"`
	Items             []Item `json:"items,omitempty"`
}

// Position is the victim's location in metres within the solar system.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}
