// Firetail - EVE Online killmail feed for Discord
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/firetail

package killmail

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/firetail/internal/models"
)

// UnknownName is shown for any id the provider cannot resolve.
const UnknownName = "Unknown"

// Provider resolves EVE ids to names and universe data. A lookup for an id
// that does not exist returns ok=false and a nil error.
type Provider interface {
	Name(ctx context.Context, kind models.EntityKind, id int64) (name string, ok bool, err error)
	System(ctx context.Context, id int64) (models.SystemInfo, bool, error)
	Constellation(ctx context.Context, id int64) (models.ConstellationInfo, bool, error)
}

// Entity is the id set shared by attackers and victims. Zero ids are absent.
type Entity struct {
	CharacterID   int64
	CorporationID int64
	AllianceID    int64
	ShipTypeID    int64
}

// EntityNames holds the resolved display names of an Entity. Empty strings
// mean the id was absent; UnknownName means it could not be resolved.
type EntityNames struct {
	Name     string
	Corp     string
	Alliance string
	Ship     string
}

// Location is the resolved position of a killmail in the universe.
type Location struct {
	SystemID          int64
	SystemName        string
	ConstellationID   int64
	ConstellationName string
	RegionID          int64
	RegionName        string
}

// Mail is one killmail. Exported fields are set by ParsePackage and must not
// be modified afterwards; lazily resolved data lives in the enrichment
// side-table and is reached through methods.
type Mail struct {
	ID       int64
	Time     time.Time
	SystemID int64

	Attackers []models.Attacker

	// FinalAttacker is nil when no attacker carries the final blow flag.
	FinalAttacker *models.Attacker
	Victim        models.Victim

	// CorpID and AllianceID are the victim's.
	CorpID     int64
	AllianceID int64

	LocationID  int64
	Hash        string
	FittedValue float64
	Value       float64
	Points      int64
	NPC         bool
	Solo        bool
	Awox        bool
	ESIURL      string

	enrich *enrichment
}

// enrichment memoizes provider lookups for one Mail. Lookups that fail with
// an error are not memoized so a later caller can retry them.
type enrichment struct {
	provider Provider

	locMu    sync.Mutex
	location *Location

	celMu     sync.Mutex
	celestial *string

	namesMu sync.Mutex
	names   map[nameKey]string
}

type nameKey struct {
	kind models.EntityKind
	id   int64
}

// ParsePackage parses one RedisQ package. The zkb block may sit beside the
// killmail (RedisQ layout) or inside it. Errors wrap ErrMalformed.
func ParsePackage(data []byte, provider Provider) (*Mail, error) {
	var pkg models.Package
	if err := json.Unmarshal(data, &pkg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if pkg.Killmail == nil {
		return nil, fmt.Errorf("%w: package has no killmail", ErrMalformed)
	}
	zkb := pkg.Zkb
	if zkb == nil {
		zkb = pkg.Killmail.Zkb
	}
	return NewMail(pkg.Killmail, zkb, provider)
}

// NewMail builds a Mail from an ESI killmail document and its zkb block.
func NewMail(km *models.Killmail, zkb *models.Zkb, provider Provider) (*Mail, error) {
	switch {
	case km == nil:
		return nil, fmt.Errorf("%w: nil killmail", ErrMalformed)
	case zkb == nil:
		return nil, fmt.Errorf("%w: killmail %d has no zkb block", ErrMalformed, km.KillmailID)
	case km.KillmailID == 0:
		return nil, fmt.Errorf("%w: missing killmail_id", ErrMalformed)
	case km.KillmailTime.IsZero():
		return nil, fmt.Errorf("%w: killmail %d missing killmail_time", ErrMalformed, km.KillmailID)
	case km.SolarSystemID == 0:
		return nil, fmt.Errorf("%w: killmail %d missing solar_system_id", ErrMalformed, km.KillmailID)
	case km.Victim == nil:
		return nil, fmt.Errorf("%w: killmail %d missing victim", ErrMalformed, km.KillmailID)
	}

	m := &Mail{
		ID:          km.KillmailID,
		Time:        km.KillmailTime.UTC(),
		SystemID:    km.SolarSystemID,
		Attackers:   km.Attackers,
		Victim:      *km.Victim,
		CorpID:      km.Victim.CorporationID,
		AllianceID:  km.Victim.AllianceID,
		LocationID:  zkb.LocationID,
		Hash:        zkb.Hash,
		FittedValue: zkb.FittedValue,
		Value:       zkb.TotalValue,
		Points:      zkb.Points,
		NPC:         zkb.NPC,
		Solo:        zkb.Solo,
		Awox:        zkb.Awox,
		ESIURL:      zkb.Href,
		enrich: &enrichment{
			provider: provider,
			names:    make(map[nameKey]string),
		},
	}
	for i := range m.Attackers {
		if m.Attackers[i].FinalBlow {
			m.FinalAttacker = &m.Attackers[i]
			break
		}
	}
	return m, nil
}

// URL is the zKillboard page for the killmail.
func (m *Mail) URL() string {
	return fmt.Sprintf("https://zkillboard.com/kill/%d/", m.ID)
}

// VictimEntity returns the victim's ids.
func (m *Mail) VictimEntity() Entity {
	return Entity{
		CharacterID:   m.Victim.CharacterID,
		CorporationID: m.Victim.CorporationID,
		AllianceID:    m.Victim.AllianceID,
		ShipTypeID:    m.Victim.ShipTypeID,
	}
}

// AttackerEntity returns an attacker's ids.
func AttackerEntity(a *models.Attacker) Entity {
	return Entity{
		CharacterID:   a.CharacterID,
		CorporationID: a.CorporationID,
		AllianceID:    a.AllianceID,
		ShipTypeID:    a.ShipTypeID,
	}
}

// Location resolves system, constellation and region. Ids that do not
// exist resolve to UnknownName; a transport error is returned and nothing is
// memoized. Concurrent callers share one resolution.
func (m *Mail) Location(ctx context.Context) (Location, error) {
	e := m.enrich
	e.locMu.Lock()
	defer e.locMu.Unlock()

	if e.location != nil {
		return *e.location, nil
	}

	loc := Location{
		SystemID:          m.SystemID,
		SystemName:        UnknownName,
		ConstellationName: UnknownName,
		RegionName:        UnknownName,
	}

	sys, ok, err := e.provider.System(ctx, m.SystemID)
	if err != nil {
		return Location{}, fmt.Errorf("resolve system %d: %w", m.SystemID, err)
	}
	if ok {
		loc.SystemName = sys.Name
		loc.ConstellationID = sys.ConstellationID
	}

	if loc.ConstellationID != 0 {
		con, ok, err := e.provider.Constellation(ctx, loc.ConstellationID)
		if err != nil {
			return Location{}, fmt.Errorf("resolve constellation %d: %w", loc.ConstellationID, err)
		}
		if ok {
			loc.ConstellationName = con.Name
			loc.RegionID = con.RegionID
		}
	}

	if loc.RegionID != 0 {
		name, err := e.lookup(ctx, models.KindRegion, loc.RegionID)
		if err != nil {
			return Location{}, err
		}
		loc.RegionName = name
	}

	e.location = &loc
	return loc, nil
}

// RegionID resolves the killmail's region id; zero when it cannot be determined.
func (m *Mail) RegionID(ctx context.Context) (int64, error) {
	loc, err := m.Location(ctx)
	if err != nil {
		return 0, err
	}
	return loc.RegionID, nil
}

// Celestial resolves the name of the nearest celestial, UnknownName when
// zKillboard gave no location or the id does not resolve.
func (m *Mail) Celestial(ctx context.Context) (string, error) {
	e := m.enrich
	e.celMu.Lock()
	defer e.celMu.Unlock()

	if e.celestial != nil {
		return *e.celestial, nil
	}

	name := UnknownName
	if m.LocationID != 0 {
		var err error
		name, err = e.lookup(ctx, models.KindCelestial, m.LocationID)
		if err != nil {
			return "", err
		}
	}
	e.celestial = &name
	return name, nil
}

// Resolve looks up the display names for an entity of this Mail.
func (m *Mail) Resolve(ctx context.Context, ent Entity) (EntityNames, error) {
	var names EntityNames
	for _, f := range []struct {
		kind models.EntityKind
		id   int64
		dst  *string
	}{
		{models.KindCharacter, ent.CharacterID, &names.Name},
		{models.KindCorporation, ent.CorporationID, &names.Corp},
		{models.KindAlliance, ent.AllianceID, &names.Alliance},
		{models.KindType, ent.ShipTypeID, &names.Ship},
	} {
		if f.id == 0 {
			continue
		}
		name, err := m.enrich.lookup(ctx, f.kind, f.id)
		if err != nil {
			return EntityNames{}, err
		}
		*f.dst = name
	}
	return names, nil
}

func (e *enrichment) lookup(ctx context.Context, kind models.EntityKind, id int64) (string, error) {
	key := nameKey{kind: kind, id: id}

	e.namesMu.Lock()
	name, ok := e.names[key]
	e.namesMu.Unlock()
	if ok {
		return name, nil
	}

	name, found, err := e.provider.Name(ctx, kind, id)
	if err != nil {
		return "", fmt.Errorf("resolve %s %d: %w", kind, id, err)
	}
	if !found || name == "" {
		name = UnknownName
	}

	e.namesMu.Lock()
	e.names[key] = name
	e.namesMu.Unlock()
	return name, nil
}

// String is a compact description for logs.
func (m *Mail) String() string {
	npc := ""
	if m.NPC {
		npc = " NPC"
	}
	return fmt.Sprintf("<Mail %d%s system=%d victim=%d ship=%d value=%.0f>",
		m.ID, npc, m.SystemID, m.Victim.CharacterID, m.Victim.ShipTypeID, m.Value)
}
