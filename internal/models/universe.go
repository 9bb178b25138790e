// Firetail - EVE Online killmail feed for Discord
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/firetail

package models

// EntityKind names the kind of id passed to a name lookup.
type EntityKind string

const (
	KindCharacter     EntityKind = "character"
	KindCorporation   EntityKind = "corporation"
	KindAlliance      EntityKind = "alliance"
	KindSystem        EntityKind = "system"
	KindConstellation EntityKind = "constellation"
	KindRegion        EntityKind = "region"
	KindCelestial     EntityKind = "celestial"
	KindType          EntityKind = "type"
)

// SystemInfo is the part of a solar system document the pipeline reads.
type SystemInfo struct {
	SystemID        int64   `json:"system_id"`
	Name            string  `json:"name"`
	ConstellationID int64   `json:"constellation_id"`
	SecurityStatus  float64 `json:"security_status"`
}

// ConstellationInfo is the part of a constellation document the pipeline reads.
type ConstellationInfo struct {
	ConstellationID int64  `json:"constellation_id"`
	Name            string `json:"name"`
	RegionID        int64  `json:"region_id"`
}

// CharacterInfo is the public part of ESI /characters/{id}/.
type CharacterInfo struct {
	Name          string `json:"name"`
	CorporationID int64  `json:"corporation_id"`
	AllianceID    int64  `json:"alliance_id,omitempty"`
}

// CorporationInfo is the public part of ESI /corporations/{id}/.
type CorporationInfo struct {
	Name        string `json:"name"`
	Ticker      string `json:"ticker"`
	MemberCount int64  `json:"member_count"`
	AllianceID  int64  `json:"alliance_id,omitempty"`
}

// AllianceInfo is the public part of ESI /alliances/{id}/.
type AllianceInfo struct {
	Name                  string `json:"name"`
	Ticker                string `json:"ticker"`
	ExecutorCorporationID int64  `json:"executor_corporation_id,omitempty"`
}

// NamedID is one entry of ESI /universe/names/ and /universe/ids/.
type NamedID struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Category string `json:"category,omitempty"`
}

// UniverseIDs is the response of ESI POST /universe/ids/.
type UniverseIDs struct {
	Characters   []NamedID `json:"characters,omitempty"`
	Corporations []NamedID `json:"corporations,omitempty"`
	Alliances    []NamedID `json:"alliances,omitempty"`
	Systems      []NamedID `json:"systems,omitempty"`
	Regions      []NamedID `json:"regions,omitempty"`
}
