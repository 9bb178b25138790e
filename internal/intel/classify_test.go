// Firetail - EVE Online killmail feed for Discord
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/firetail

package intel

import (
	"context"
	"errors"
	"testing"

	"github.com/tomtom215/firetail/internal/models"
)

func ptr(v float64) *float64 { return &v }

func TestLabel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		facts  Facts
		threat *float64
		solo   *float64
		want   string
	}{
		{"covert cynos beat cyno alt", Facts{CovertCynos: 2, Cynos: 10}, ptr(10), ptr(50), LabelBlops},
		{"one covert cyno is not enough", Facts{CovertCynos: 1}, ptr(80), ptr(30), LabelBalancedPVP},
		{"cyno alt", Facts{Cynos: 5}, ptr(30), nil, LabelCynoAlt},
		{"cyno alt with absent threat", Facts{Cynos: 5}, nil, nil, LabelCynoAlt},
		{"combat prober", Facts{ProbeLaunchers: 5}, ptr(51), nil, LabelCombatProber},
		{"threat 50 is exploration", Facts{ProbeLaunchers: 5}, ptr(50), nil, LabelExplorer},
		{"exploration with absent threat", Facts{ProbeLaunchers: 7}, nil, nil, LabelExplorer},
		{"hot dropper", Facts{Cynos: 6}, ptr(31), ptr(80), LabelHotDropper},
		{"absent threat is never a hot dropper", Facts{Cynos: 6}, nil, ptr(80), LabelCynoAlt},
		{"rorqual", Facts{LostShipTypeID: RorqualTypeID}, ptr(30), nil, LabelRorqual},
		{"rorqual needs low threat", Facts{LostShipTypeID: RorqualTypeID}, ptr(31), ptr(60), LabelSoloPVP},
		{"pve", Facts{}, ptr(0), ptr(100), LabelPVE},
		{"pve with absent threat", Facts{}, nil, ptr(100), LabelPVE},
		{"solo pvp", Facts{}, ptr(60), ptr(50), LabelSoloPVP},
		{"fleet", Facts{}, ptr(60), ptr(15), LabelFleet},
		{"fleet with absent solo", Facts{}, ptr(60), nil, LabelFleet},
		{"balanced", Facts{}, ptr(60), ptr(16), LabelBalancedPVP},
		{"balanced upper edge", Facts{}, ptr(60), ptr(49.9), LabelBalancedPVP},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := Label(tt.facts, tt.threat, tt.solo); got != tt.want {
				t.Errorf("Label = %q, want %q", got, tt.want)
			}
		})
	}
}

func lossWith(ship int64, items ...int64) *models.Killmail {
	km := &models.Killmail{Victim: &models.Victim{ShipTypeID: ship}}
	for _, id := range items {
		km.Victim.Items = append(km.Victim.Items, models.Item{ItemTypeID: id})
	}
	return km
}

func TestScan(t *testing.T) {
	t.Parallel()

	s := Sample{Losses: []*models.Killmail{
		lossWith(RorqualTypeID, CovertCynoTypeID, CynoTypeID, 4258),
		lossWith(587, CynoTypeID, 17938, 28758, 1234),
		nil,
		{Victim: nil},
	}}
	f := Scan(s)
	want := Facts{CovertCynos: 1, Cynos: 2, ProbeLaunchers: 3, LostShipTypeID: RorqualTypeID, LossesSampled: 2}
	if f != want {
		t.Errorf("Scan = %+v, want %+v", f, want)
	}
}

func TestNote(t *testing.T) {
	t.Parallel()

	kill := func(attackers ...models.Attacker) *models.Killmail {
		return &models.Killmail{Attackers: attackers}
	}
	tests := []struct {
		name string
		s    Sample
		want string
	}{
		{"no kill", Sample{CharacterID: 1}, ""},
		{"titan", Sample{CharacterID: 1, LastKill: kill(models.Attacker{CharacterID: 1, ShipTypeID: 11567})}, NoteTitan},
		{"super", Sample{CharacterID: 1, LastKill: kill(models.Attacker{CharacterID: 1, ShipTypeID: 23919})}, NoteSuper},
		{"someone else's titan", Sample{CharacterID: 1, LastKill: kill(models.Attacker{CharacterID: 2, ShipTypeID: 11567})}, ""},
		{"subcap", Sample{CharacterID: 1, LastKill: kill(models.Attacker{CharacterID: 1, ShipTypeID: 587})}, ""},
	}
	for _, tt := range tests {
		if got := Note(tt.s); got != tt.want {
			t.Errorf("%s: Note = %q, want %q", tt.name, got, tt.want)
		}
	}
}

type fakeNames struct {
	names map[int64]string
	fail  map[int64]bool
}

func (f *fakeNames) Name(_ context.Context, _ models.EntityKind, id int64) (string, bool, error) {
	if f.fail[id] {
		return "", false, errors.New("lookup failed")
	}
	name, ok := f.names[id]
	return name, ok, nil
}

func TestClassify_BlopsQualification(t *testing.T) {
	t.Parallel()

	blopsLosses := []*models.Killmail{lossWith(22430, CovertCynoTypeID), lossWith(22430, CovertCynoTypeID)}
	lastKill := &models.Killmail{Attackers: []models.Attacker{
		{CharacterID: 1, CorporationID: 10, AllianceID: 100},
		{CharacterID: 2, CorporationID: 11, AllianceID: 100},
		{CharacterID: 3, CorporationID: 11, AllianceID: 200},
	}}

	tests := []struct {
		name  string
		kill  *models.Killmail
		names *fakeNames
		want  string
	}{
		{
			name:  "dominant alliance",
			kill:  lastKill,
			names: &fakeNames{names: map[int64]string{100: "Hole Control", 11: "Corp Eleven"}},
			want:  "BLOPS Hotdropper for Hole Control",
		},
		{
			name:  "alliance lookup fails",
			kill:  lastKill,
			names: &fakeNames{names: map[int64]string{11: "Corp Eleven"}, fail: map[int64]bool{100: true}},
			want:  "BLOPS Hotdropper for Corp Eleven",
		},
		{
			name:  "both lookups fail",
			kill:  lastKill,
			names: &fakeNames{fail: map[int64]bool{100: true, 11: true}},
			want:  LabelBlops,
		},
		{
			name:  "no attacker data",
			kill:  nil,
			names: &fakeNames{names: map[int64]string{100: "Hole Control"}},
			want:  LabelBlops,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			c := Classify(context.Background(), Sample{Losses: blopsLosses, LastKill: tt.kill, Threat: ptr(90)}, tt.names)
			if c.Label != tt.want {
				t.Errorf("Label = %q, want %q", c.Label, tt.want)
			}
		})
	}
}

func TestMode(t *testing.T) {
	t.Parallel()

	if got := mode([]int64{0, 0, 5}); got != 5 {
		t.Errorf("mode ignores zero ids: got %d", got)
	}
	if got := mode([]int64{1, 2, 2, 3}); got != 2 {
		t.Errorf("mode = %d, want 2", got)
	}
	if got := mode(nil); got != 0 {
		t.Errorf("mode(nil) = %d", got)
	}
}
