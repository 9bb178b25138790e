// Firetail - EVE Online killmail feed for Discord
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/firetail

package intel

import (
	"context"

	"github.com/tomtom215/firetail/internal/logging"
	"github.com/tomtom215/firetail/internal/models"
)

// Item and ship type ids the classifier looks for.
const (
	CovertCynoTypeID int64 = 28646
	CynoTypeID       int64 = 21096
	RorqualTypeID    int64 = 28352
)

var (
	titanTypeIDs = map[int64]bool{
		11567: true, 3764: true, 671: true, 23773: true, 42126: true, 42241: true, 45649: true,
	}
	superTypeIDs = map[int64]bool{
		23919: true, 23917: true, 23913: true, 22852: true, 3514: true, 42125: true,
	}
	probeLauncherTypeIDs = map[int64]bool{
		4258: true, 4260: true, 17901: true, 17938: true, 28756: true, 28758: true,
	}
)

// Labels.
const (
	LabelBlops        = "BLOPS Hotdropper"
	LabelCynoAlt      = "Cyno Alt"
	LabelCombatProber = "Combat Prober / Possible FC"
	LabelExplorer     = "Exploration Pilot"
	LabelHotDropper   = "Possible Hot Dropper"
	LabelRorqual      = "Rorqual Pilot"
	LabelPVE          = "PVE Pilot"
	LabelSoloPVP      = "Solo PVP Pilot"
	LabelFleet        = "Fleet Pilot"
	LabelBalancedPVP  = "Balanced PVP Pilot"
)

// Notes for capital ships seen on the most recent kill.
const (
	NoteTitan = "**This pilot has been seen in a Titan**"
	NoteSuper = "**This pilot has been seen in a Super**"
)

// Sample is the input of Classify.
type Sample struct {
	CharacterID int64

	// Threat is zKillboard's danger ratio (0-100); nil when unknown.
	Threat *float64
	// Solo is 100 - gang ratio; nil when unknown.
	Solo *float64

	// Losses are full killmails, newest first.
	Losses []*models.Killmail
	// LastKill is the most recent kill with its attackers; may be nil.
	LastKill *models.Killmail
}

// Facts are the counts extracted from a Sample.
type Facts struct {
	CovertCynos    int   `json:"covert_cynos"`
	Cynos          int   `json:"cynos"`
	ProbeLaunchers int   `json:"probe_launchers"`
	LostShipTypeID int64 `json:"lost_ship_type_id,omitempty"`
	LossesSampled  int   `json:"losses_sampled"`
}

// Classification is the result of Classify.
type Classification struct {
	Label string `json:"label"`
	Note  string `json:"note,omitempty"`
	Facts Facts  `json:"facts"`
}

// NameResolver resolves the alliance or corporation a BLOPS label is
// qualified with. killmail.Provider satisfies it.
type NameResolver interface {
	Name(ctx context.Context, kind models.EntityKind, id int64) (string, bool, error)
}

// Scan counts cyno and probe launcher items across the loss sample and
// records the ship type of the most recent loss.
func Scan(s Sample) Facts {
	var f Facts
	for _, loss := range s.Losses {
		if loss == nil || loss.Victim == nil {
			continue
		}
		f.LossesSampled++
		countItems(loss.Victim.Items, &f)
		if f.LostShipTypeID == 0 {
			f.LostShipTypeID = loss.Victim.ShipTypeID
		}
	}
	return f
}

func countItems(items []models.Item, f *Facts) {
	for i := range items {
		switch id := items[i].ItemTypeID; {
		case id == CovertCynoTypeID:
			f.CovertCynos++
		case id == CynoTypeID:
			f.Cynos++
		case probeLauncherTypeIDs[id]:
			f.ProbeLaunchers++
		}
	}
}

// Note returns the capital ship note for the target's ship on the most
// recent kill. Titan wins over Super; at most one note is produced.
func Note(s Sample) string {
	if s.LastKill == nil {
		return ""
	}
	for i := range s.LastKill.Attackers {
		a := &s.LastKill.Attackers[i]
		if a.CharacterID != s.CharacterID || a.CharacterID == 0 {
			continue
		}
		if titanTypeIDs[a.ShipTypeID] {
			return NoteTitan
		}
		if superTypeIDs[a.ShipTypeID] {
			return NoteSuper
		}
	}
	return ""
}

// inputs are the values a rule reads. Absent threat and solo read as 0
// for upper bounds and never satisfy a lower bound.
type inputs struct {
	facts              Facts
	threat, solo       float64
	hasThreat, hasSolo bool
}

func (in inputs) threatAtMost(v float64) bool { return !in.hasThreat || in.threat <= v }
func (in inputs) threatAbove(v float64) bool { return in.hasThreat && in.threat > v }
func (in inputs) soloAtLeast(v float64) bool { return in.hasSolo && in.solo >= v }
func (in inputs) soloAtMost(v float64) bool { return !in.hasSolo || in.solo <= v }

type rule struct {
	label string
	match func(in inputs) bool
}

// rules in priority order.
var rules = []rule{
	{LabelBlops, func(in inputs) bool { return in.facts.CovertCynos >= 2 }},
	{LabelCynoAlt, func(in inputs) bool { return in.facts.Cynos >= 5 && in.threatAtMost(30) }},
	{LabelCombatProber, func(in inputs) bool { return in.facts.ProbeLaunchers >= 5 && in.threatAbove(50) }},
	{LabelExplorer, func(in inputs) bool { return in.facts.ProbeLaunchers >= 5 && in.threatAtMost(50) }},
	{LabelHotDropper, func(in inputs) bool { return in.facts.Cynos >= 5 && in.threatAbove(30) }},
	{LabelRorqual, func(in inputs) bool { return in.threatAtMost(30) && in.facts.LostShipTypeID == RorqualTypeID }},
	{LabelPVE, func(in inputs) bool { return in.threatAtMost(30) }},
	{LabelSoloPVP, func(in inputs) bool { return in.soloAtLeast(50) }},
	{LabelFleet, func(in inputs) bool { return in.soloAtMost(15) }},
	{LabelBalancedPVP, func(inputs) bool { return true }},
}

// Label picks the first rule that matches.
func Label(f Facts, threat, solo *float64) string {
	in := inputs{facts: f}
	if threat != nil {
		in.threat, in.hasThreat = *threat, true
	}
	if solo != nil {
		in.solo, in.hasSolo = *solo, true
	}
	for _, r := range rules {
		if r.match(in) {
			return r.label
		}
	}
	return LabelBalancedPVP
}

// Classify labels the sample's pilot. names may be nil, in which case a
// BLOPS label is never qualified.
func Classify(ctx context.Context, s Sample, names NameResolver) Classification {
	facts := Scan(s)
	c := Classification{
		Label: Label(facts, s.Threat, s.Solo),
		Note:  Note(s),
		Facts: facts,
	}
	if c.Label == LabelBlops && names != nil {
		c.Label = qualifyBlops(ctx, s.LastKill, names)
	}
	return c
}

// qualifyBlops names the dominant alliance among the last kill's attackers,
// else the dominant corporation. Lookup failures fall through to the next
// option and finally to the plain label.
func qualifyBlops(ctx context.Context, kill *models.Killmail, names NameResolver) string {
	if kill == nil || len(kill.Attackers) == 0 {
		return LabelBlops
	}

	alliances := make([]int64, 0, len(kill.Attackers))
	corps := make([]int64, 0, len(kill.Attackers))
	for _, a := range kill.Attackers {
		alliances = append(alliances, a.AllianceID)
		corps = append(corps, a.CorporationID)
	}

	for _, group := range []struct {
		kind models.EntityKind
		id   int64
	}{
		{models.KindAlliance, mode(alliances)},
		{models.KindCorporation, mode(corps)},
	} {
		if group.id == 0 {
			continue
		}
		name, ok, err := names.Name(ctx, group.kind, group.id)
		if err != nil {
			logging.Ctx(ctx).Debug().Err(err).Str("kind", string(group.kind)).Int64("id", group.id).
				Msg("BLOPS group lookup failed")
			continue
		}
		if ok && name != "" {
			return LabelBlops + " for " + name
		}
	}
	return LabelBlops
}

// mode returns the most common non-zero id; on a tie the id that reached
// the count first wins.
func mode(ids []int64) int64 {
	counts := make(map[int64]int, len(ids))
	var best int64
	for _, id := range ids {
		if id == 0 {
			continue
		}
		counts[id]++
		if best == 0 || counts[id] > counts[best] {
			best = id
		}
	}
	return best
}
