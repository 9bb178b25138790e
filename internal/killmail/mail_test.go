// Firetail - EVE Online killmail feed for Discord
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/firetail

package killmail

import (
	"context"
	"errors"
	"sync"
	"testing"
)

func TestParsePackage(t *testing.T) {
	t.Parallel()

	p := newFakeProvider()
	m := testMail(t, p, mailOpts{value: 1500000000.55, solo: true, victimAlliance: testAllianceA})

	if m.ID != 100000001 {
		t.Errorf("ID = %d", m.ID)
	}
	if m.SystemID != testSystemID {
		t.Errorf("SystemID = %d", m.SystemID)
	}
	if m.CorpID != testCorpVictim || m.AllianceID != testAllianceA {
		t.Errorf("victim ids = %d/%d", m.CorpID, m.AllianceID)
	}
	if m.Value != 1500000000.55 {
		t.Errorf("Value = %v", m.Value)
	}
	if !m.Solo || m.NPC || m.Awox {
		t.Errorf("flags solo=%t npc=%t awox=%t", m.Solo, m.NPC, m.Awox)
	}
	if m.FinalAttacker == nil || m.FinalAttacker.CharacterID != 90000002 {
		t.Errorf("FinalAttacker = %+v", m.FinalAttacker)
	}
	if len(m.Attackers) != 2 {
		t.Errorf("len(Attackers) = %d", len(m.Attackers))
	}
	if m.URL() != "https://zkillboard.com/kill/100000001/" {
		t.Errorf("URL() = %q", m.URL())
	}
	if m.Time.Location().String() != "UTC" {
		t.Errorf("Time not UTC: %v", m.Time)
	}
}

func TestParsePackage_ZkbInsideKillmail(t *testing.T) {
	t.Parallel()

	data := []byte(`{"killID":5,"killmail":{"killmail_id":5,"killmail_time":"2026-01-02T03:04:05Z",
		"solar_system_id":30000142,"attackers":[],"victim":{"ship_type_id":670},
		"zkb":{"totalValue":10000,"npc":true,"hash":"h"}}}`)
	m, err := ParsePackage(data, newFakeProvider())
	if err != nil {
		t.Fatalf("ParsePackage: %v", err)
	}
	if !m.NPC || m.Value != 10000 || m.Hash != "h" {
		t.Errorf("zkb not merged: %+v", m)
	}
	if m.FinalAttacker != nil {
		t.Errorf("FinalAttacker = %+v, want nil for empty attacker list", m.FinalAttacker)
	}
}

func TestParsePackage_NoFinalBlow(t *testing.T) {
	t.Parallel()

	m := testMail(t, newFakeProvider(), mailOpts{noFinalBlow: true})
	if m.FinalAttacker != nil {
		t.Errorf("FinalAttacker = %+v, want nil", m.FinalAttacker)
	}
}

func TestParsePackage_Malformed(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		data string
	}{
		{"invalid json", `{"killID":`},
		{"no killmail", `{"killID":1,"zkb":{"totalValue":1}}`},
		{"no zkb", `{"killID":1,"killmail":{"killmail_id":1,"killmail_time":"2026-01-02T03:04:05Z","solar_system_id":1,"victim":{}}}`},
		{"no id", `{"killmail":{"killmail_time":"2026-01-02T03:04:05Z","solar_system_id":1,"victim":{}},"zkb":{}}`},
		{"no time", `{"killmail":{"killmail_id":1,"solar_system_id":1,"victim":{}},"zkb":{}}`},
		{"no system", `{"killmail":{"killmail_id":1,"killmail_time":"2026-01-02T03:04:05Z","victim":{}},"zkb":{}}`},
		{"no victim", `{"killmail":{"killmail_id":1,"killmail_time":"2026-01-02T03:04:05Z","solar_system_id":1},"zkb":{}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := ParsePackage([]byte(tt.data), newFakeProvider())
			if !errors.Is(err, ErrMalformed) {
				t.Errorf("err = %v, want ErrMalformed", err)
			}
		})
	}
}

func TestMail_Location(t *testing.T) {
	t.Parallel()

	p := newFakeProvider()
	m := testMail(t, p, mailOpts{})
	ctx := context.Background()

	loc, err := m.Location(ctx)
	if err != nil {
		t.Fatalf("Location: %v", err)
	}
	want := Location{
		SystemID:          testSystemID,
		SystemName:        "Amarr",
		ConstellationID:   testConstellationID,
		ConstellationName: "Throne Worlds",
		RegionID:          testRegionID,
		RegionName:        "Domain",
	}
	if loc != want {
		t.Errorf("Location = %+v, want %+v", loc, want)
	}

	if _, err := m.Location(ctx); err != nil {
		t.Fatal(err)
	}
	if got := p.count("system"); got != 1 {
		t.Errorf("system lookups = %d, want 1 (memoized)", got)
	}
}

func TestMail_LocationUnknownSystem(t *testing.T) {
	t.Parallel()

	p := newFakeProvider()
	m := testMail(t, p, mailOpts{systemID: 31000005})

	loc, err := m.Location(context.Background())
	if err != nil {
		t.Fatalf("Location: %v", err)
	}
	if loc.SystemName != UnknownName || loc.RegionName != UnknownName || loc.RegionID != 0 {
		t.Errorf("Location = %+v", loc)
	}
	if got := p.count("constellation"); got != 0 {
		t.Errorf("constellation lookups = %d, want 0", got)
	}
}

func TestMail_LocationErrorNotMemoized(t *testing.T) {
	t.Parallel()

	p := newFakeProvider()
	m := testMail(t, p, mailOpts{})
	ctx := context.Background()

	p.setErr(errTransport)
	if _, err := m.RegionID(ctx); !errors.Is(err, errTransport) {
		t.Fatalf("RegionID err = %v, want transport error", err)
	}

	p.setErr(nil)
	region, err := m.RegionID(ctx)
	if err != nil {
		t.Fatalf("RegionID: %v", err)
	}
	if region != testRegionID {
		t.Errorf("RegionID = %d, want %d", region, testRegionID)
	}
}

func TestMail_Celestial(t *testing.T) {
	t.Parallel()

	p := newFakeProvider()
	m := testMail(t, p, mailOpts{})

	name, err := m.Celestial(context.Background())
	if err != nil {
		t.Fatalf("Celestial: %v", err)
	}
	if name != "Amarr VIII (Oris) - Emperor Family Academy" {
		t.Errorf("Celestial = %q", name)
	}

	m.LocationID = 0
	m.enrich.celestial = nil
	name, err = m.Celestial(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if name != UnknownName {
		t.Errorf("Celestial without location = %q, want %q", name, UnknownName)
	}
}

func TestMail_Resolve(t *testing.T) {
	t.Parallel()

	p := newFakeProvider()
	m := testMail(t, p, mailOpts{attackerAlliance: testAllianceB})
	ctx := context.Background()

	victim, err := m.Resolve(ctx, m.VictimEntity())
	if err != nil {
		t.Fatalf("Resolve victim: %v", err)
	}
	if victim != (EntityNames{Name: "Victim Pilot", Corp: "Victim Corp", Ship: "Rifter"}) {
		t.Errorf("victim names = %+v", victim)
	}

	fb, err := m.Resolve(ctx, AttackerEntity(m.FinalAttacker))
	if err != nil {
		t.Fatalf("Resolve final blow: %v", err)
	}
	want := EntityNames{Name: "Final Blow Pilot", Corp: "Attacker Corp", Alliance: "Alliance B", Ship: "Machariel"}
	if fb != want {
		t.Errorf("final blow names = %+v, want %+v", fb, want)
	}

	// Unresolvable ids become UnknownName.
	unk, err := m.Resolve(ctx, Entity{CharacterID: 1, CorporationID: 2})
	if err != nil {
		t.Fatal(err)
	}
	if unk.Name != UnknownName || unk.Corp != UnknownName {
		t.Errorf("unknown names = %+v", unk)
	}

	before := p.count("character")
	if _, err := m.Resolve(ctx, m.VictimEntity()); err != nil {
		t.Fatal(err)
	}
	if p.count("character") != before {
		t.Error("victim name looked up twice on the same Mail")
	}
}

func TestMail_ConcurrentEnrichment(t *testing.T) {
	t.Parallel()

	p := newFakeProvider()
	m := testMail(t, p, mailOpts{})
	ctx := context.Background()

	var wg sync.WaitGroup
	for range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := m.RegionID(ctx); err != nil {
				t.Error(err)
			}
			if _, err := m.Resolve(ctx, m.VictimEntity()); err != nil {
				t.Error(err)
			}
		}()
	}
	wg.Wait()

	if got := p.count("system"); got != 1 {
		t.Errorf("system lookups = %d, want 1", got)
	}
}

func TestFormatISK(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   float64
		want string
	}{
		{0, "0"},
		{999, "999"},
		{1000, "1,000"},
		{2000000000, "2,000,000,000"},
		{1234567.6, "1,234,568"},
	}
	for _, tt := range tests {
		if got := FormatISK(tt.in); got != tt.want {
			t.Errorf("FormatISK(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
	if got := FormatISK(int64(1000000)); got != "1,000,000" {
		t.Errorf("FormatISK(int64) = %q", got)
	}
}
