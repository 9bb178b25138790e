// Firetail - EVE Online killmail feed for Discord
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/firetail

package killmail

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/firetail/internal/models"
	"github.com/tomtom215/firetail/internal/store"
)

const (
	testSystemID        int64 = 30002187 // Amarr
	testConstellationID int64 = 20000322
	testRegionID        int64 = 10000043 // Domain
	testAllianceA       int64 = 99000001
	testAllianceB       int64 = 99000002
	testCorpVictim      int64 = 98000001
	testCorpAttacker    int64 = 98000002
)

var errTransport = errors.New("connection reset")

// fakeProvider serves names from maps and counts lookups.
type fakeProvider struct {
	mu             sync.Mutex
	names          map[models.EntityKind]map[int64]string
	systems        map[int64]models.SystemInfo
	constellations map[int64]models.ConstellationInfo
	err            error
	calls          map[models.EntityKind]int
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{
		names: map[models.EntityKind]map[int64]string{
			models.KindRegion:      {testRegionID: "Domain"},
			models.KindCharacter:   {90000001: "Victim Pilot", 90000002: "Final Blow Pilot"},
			models.KindCorporation: {testCorpVictim: "Victim Corp", testCorpAttacker: "Attacker Corp"},
			models.KindAlliance:    {testAllianceA: "Alliance A", testAllianceB: "Alliance B"},
			models.KindType:        {587: "Rifter", 17738: "Machariel"},
			models.KindCelestial:   {40139251: "Amarr VIII (Oris) - Emperor Family Academy"},
		},
		systems: map[int64]models.SystemInfo{
			testSystemID: {SystemID: testSystemID, Name: "Amarr", ConstellationID: testConstellationID, SecurityStatus: 1.0},
		},
		constellations: map[int64]models.ConstellationInfo{
			testConstellationID: {ConstellationID: testConstellationID, Name: "Throne Worlds", RegionID: testRegionID},
		},
		calls: make(map[models.EntityKind]int),
	}
}

func (p *fakeProvider) count(kind models.EntityKind) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls[kind]
}

func (p *fakeProvider) setErr(err error) {
	p.mu.Lock()
	p.err = err
	p.mu.Unlock()
}

func (p *fakeProvider) Name(_ context.Context, kind models.EntityKind, id int64) (string, bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls[kind]++
	if p.err != nil {
		return "", false, p.err
	}
	name, ok := p.names[kind][id]
	return name, ok, nil
}

func (p *fakeProvider) System(_ context.Context, id int64) (models.SystemInfo, bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls[models.KindSystem]++
	if p.err != nil {
		return models.SystemInfo{}, false, p.err
	}
	sys, ok := p.systems[id]
	return sys, ok, nil
}

func (p *fakeProvider) Constellation(_ context.Context, id int64) (models.ConstellationInfo, bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls[models.KindConstellation]++
	if p.err != nil {
		return models.ConstellationInfo{}, false, p.err
	}
	con, ok := p.constellations[id]
	return con, ok, nil
}

// mailOpts shapes a test killmail.
type mailOpts struct {
	id               int64
	systemID         int64
	value            float64
	npc              bool
	solo             bool
	victimCorp       int64
	victimAlliance   int64
	attackerCorp     int64
	attackerAlliance int64
	noFinalBlow      bool
}

func testPackage(o mailOpts) models.Package {
	if o.id == 0 {
		o.id = 100000001
	}
	if o.systemID == 0 {
		o.systemID = testSystemID
	}
	if o.victimCorp == 0 {
		o.victimCorp = testCorpVictim
	}
	if o.attackerCorp == 0 {
		o.attackerCorp = testCorpAttacker
	}
	return models.Package{
		KillID: o.id,
		Killmail: &models.Killmail{
			KillmailID:    o.id,
			KillmailTime:  time.Date(2026, 3, 14, 18, 30, 0, 0, time.UTC),
			SolarSystemID: o.systemID,
			Attackers: []models.Attacker{
				{CharacterID: 90000003, CorporationID: 98000003, ShipTypeID: 587, DamageDone: 100},
				{
					CharacterID:   90000002,
					CorporationID: o.attackerCorp,
					AllianceID:    o.attackerAlliance,
					ShipTypeID:    17738,
					DamageDone:    900,
					FinalBlow:     !o.noFinalBlow,
				},
			},
			Victim: &models.Victim{
				CharacterID:   90000001,
				CorporationID: o.victimCorp,
				AllianceID:    o.victimAlliance,
				ShipTypeID:    587,
				DamageTaken:   1000,
			},
		},
		Zkb: &models.Zkb{
			LocationID: 40139251,
			Hash:       "abc123",
			TotalValue: o.value,
			Points:     10,
			NPC:        o.npc,
			Solo:       o.solo,
			Href:       fmt.Sprintf("https://esi.evetech.net/latest/killmails/%d/abc123/", o.id),
		},
	}
}

func testPackageJSON(t *testing.T, o mailOpts) []byte {
	t.Helper()
	data, err := json.Marshal(testPackage(o))
	if err != nil {
		t.Fatalf("marshal package: %v", err)
	}
	return data
}

func testMail(t *testing.T, p Provider, o mailOpts) *Mail {
	t.Helper()
	m, err := ParsePackage(testPackageJSON(t, o), p)
	if err != nil {
		t.Fatalf("ParsePackage: %v", err)
	}
	return m
}

func newTestStore(t *testing.T) *store.BadgerStore {
	t.Helper()
	st, err := store.Open(store.Options{InMemory: true})
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })
	return st
}

// fakeChannels marks some channels unreachable and others as failing
// transiently.
type fakeChannels struct {
	gone      map[int64]bool
	transient map[int64]bool
}

func (f *fakeChannels) ResolveChannel(_ context.Context, channelID int64) error {
	if f.gone[channelID] {
		return fmt.Errorf("channel %d: %w", channelID, ErrChannelUnreachable)
	}
	if f.transient[channelID] {
		return errTransport
	}
	return nil
}

type delivery struct {
	channelID int64
	mailID    int64
	isLoss    bool
}

// fakeDeliverer records deliveries. Channels in fail return an error;
// channels in gone return ErrChannelUnreachable; channels in panic panic.
type fakeDeliverer struct {
	mu     sync.Mutex
	got    []delivery
	fail   map[int64]bool
	gone   map[int64]bool
	panics map[int64]bool
	done   chan delivery
}

func newFakeDeliverer() *fakeDeliverer {
	return &fakeDeliverer{done: make(chan delivery, 64)}
}

func (d *fakeDeliverer) Deliver(_ context.Context, channelID int64, m *Mail, isLoss bool) error {
	if d.panics[channelID] {
		panic("boom")
	}
	if d.gone[channelID] {
		return fmt.Errorf("send: %w", ErrChannelUnreachable)
	}
	if d.fail[channelID] {
		return errTransport
	}
	dl := delivery{channelID: channelID, mailID: m.ID, isLoss: isLoss}
	d.mu.Lock()
	d.got = append(d.got, dl)
	d.mu.Unlock()
	d.done <- dl
	return nil
}

func (d *fakeDeliverer) deliveries() []delivery {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]delivery(nil), d.got...)
}

// queueFeed returns queued payloads in order, then empty polls.
type queueFeed struct {
	mu      sync.Mutex
	items   [][]byte
	errs    []error
	polls   atomic.Int64
	drained chan struct{}
	once    sync.Once
}

func newQueueFeed(items ...[]byte) *queueFeed {
	return &queueFeed{items: items, drained: make(chan struct{})}
}

func (f *queueFeed) Next(ctx context.Context) ([]byte, error) {
	f.polls.Add(1)
	f.mu.Lock()
	if len(f.errs) > 0 {
		err := f.errs[0]
		f.errs = f.errs[1:]
		f.mu.Unlock()
		return nil, err
	}
	if len(f.items) > 0 {
		item := f.items[0]
		f.items = f.items[1:]
		f.mu.Unlock()
		return item, nil
	}
	f.mu.Unlock()
	f.once.Do(func() { close(f.drained) })

	// Behave like a long poll so the loop does not spin.
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(5 * time.Millisecond):
		return nil, nil
	}
}
