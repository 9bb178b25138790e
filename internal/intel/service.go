// Firetail - EVE Online killmail feed for Discord
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/firetail

package intel

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/tomtom215/firetail/internal/logging"
	"github.com/tomtom215/firetail/internal/models"
)

// ErrUnknownCharacter is returned for ids ESI does not know.
var ErrUnknownCharacter = errors.New("unknown character")

// Stats is the zKillboard side of a report. *zkill.Client satisfies it.
type Stats interface {
	CharacterStats(ctx context.Context, characterID int64) (*models.CharacterStats, bool, error)
	Losses(ctx context.Context, characterID int64) ([]models.KillmailRef, error)
	Kills(ctx context.Context, characterID int64) ([]models.KillmailRef, error)
	Recent(ctx context.Context, characterID int64) ([]models.KillmailRef, error)
}

// Universe is the ESI side of a report. *esi.Client satisfies it.
type Universe interface {
	NameResolver
	Character(ctx context.Context, id int64) (models.CharacterInfo, bool, error)
	Killmail(ctx context.Context, id int64, hash string) (*models.Killmail, error)
}

// Config bounds the history fetched per report.
type Config struct {
	LossSampleSize   int
	FetchConcurrency int
}

// Report is a character intel report.
type Report struct {
	CharacterID   int64  `json:"character_id"`
	Name          string `json:"name"`
	CorporationID int64  `json:"corporation_id"`
	Corporation   string `json:"corporation"`
	AllianceID    int64  `json:"alliance_id,omitempty"`
	Alliance      string `json:"alliance,omitempty"`

	Classification

	// Intel is the human readable summary.
	Intel string `json:"intel"`

	Threat     *float64 `json:"threat,omitempty"`
	GangRatio  *float64 `json:"gang_ratio,omitempty"`
	Solo       *float64 `json:"solo,omitempty"`
	SoloKills  int64    `json:"solo_kills"`
	TotalKills int64    `json:"total_kills"`
	TopSystem  string   `json:"top_system,omitempty"`

	LastSeenSystem string `json:"last_seen_system,omitempty"`
	LastSeenShip   string `json:"last_seen_ship,omitempty"`

	ZKillURL string `json:"zkill_url"`
}

// Service builds reports.
type Service struct {
	stats    Stats
	universe Universe
	config   Config
}

// NewService creates a report service.
func NewService(stats Stats, universe Universe, cfg Config) *Service {
	if cfg.LossSampleSize <= 0 {
		cfg.LossSampleSize = 50
	}
	if cfg.FetchConcurrency <= 0 {
		cfg.FetchConcurrency = 5
	}
	return &Service{stats: stats, universe: universe, config: cfg}
}

// Report builds the intel report for a character. Missing statistics or
// history degrade the report; only an unknown character or a failed
// character lookup is an error.
func (s *Service) Report(ctx context.Context, characterID int64) (*Report, error) {
	info, ok, err := s.universe.Character(ctx, characterID)
	if err != nil {
		return nil, fmt.Errorf("character %d: %w", characterID, err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownCharacter, characterID)
	}

	r := &Report{
		CharacterID:   characterID,
		Name:          info.Name,
		CorporationID: info.CorporationID,
		AllianceID:    info.AllianceID,
		ZKillURL:      fmt.Sprintf("https://zkillboard.com/character/%d/", characterID),
	}

	var (
		stats    *models.CharacterStats
		losses   []*models.Killmail
		lastKill *models.Killmail
		recent   *models.Killmail
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		st, ok, err := s.stats.CharacterStats(gctx, characterID)
		if err != nil {
			logging.Ctx(ctx).Warn().Err(err).Int64("character_id", characterID).Msg("zKillboard stats unavailable")
			return nil
		}
		if ok {
			stats = st
		}
		return nil
	})
	g.Go(func() error {
		losses = s.lossSample(gctx, characterID)
		return nil
	})
	g.Go(func() error {
		lastKill = s.latest(gctx, characterID, s.stats.Kills)
		return nil
	})
	g.Go(func() error {
		recent = s.latest(gctx, characterID, s.stats.Recent)
		return nil
	})
	g.Go(func() error {
		r.Corporation = s.name(gctx, models.KindCorporation, info.CorporationID)
		r.Alliance = s.name(gctx, models.KindAlliance, info.AllianceID)
		return nil
	})
	_ = g.Wait()

	sample := Sample{CharacterID: characterID, Losses: losses, LastKill: lastKill}
	if stats != nil {
		sample.Threat = stats.DangerRatio
		if stats.GangRatio != nil {
			solo := 100 - *stats.GangRatio
			sample.Solo = &solo
		}
		r.Threat = stats.DangerRatio
		r.GangRatio = stats.GangRatio
		r.Solo = sample.Solo
		r.SoloKills = stats.SoloKills
		r.TotalKills = stats.AllTimeSum
		r.TopSystem = TopSystem(stats)
	}

	r.Classification = Classify(ctx, sample, s.universe)
	r.Intel = ComposeIntel(r.Name, r.Classification, stats, sample.Solo)
	r.LastSeenSystem, r.LastSeenShip = s.lastSeen(ctx, characterID, recent)

	logging.Ctx(ctx).Info().Int64("character_id", characterID).Str("label", r.Label).
		Int("losses_sampled", r.Facts.LossesSampled).Msg("Intel report built")
	return r, nil
}

// lossSample fetches up to LossSampleSize recent losses in full, keeping
// newest-first order. Losses that fail to load are left out.
func (s *Service) lossSample(ctx context.Context, characterID int64) []*models.Killmail {
	refs, err := s.stats.Losses(ctx, characterID)
	if err != nil {
		logging.Ctx(ctx).Warn().Err(err).Int64("character_id", characterID).Msg("Loss list unavailable")
		return nil
	}
	if len(refs) > s.config.LossSampleSize {
		refs = refs[:s.config.LossSampleSize]
	}

	out := make([]*models.Killmail, len(refs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.config.FetchConcurrency)
	for i, ref := range refs {
		g.Go(func() error {
			km, err := s.universe.Killmail(gctx, ref.KillmailID, ref.Zkb.Hash)
			if err != nil {
				logging.Ctx(ctx).Debug().Err(err).Int64("killmail_id", ref.KillmailID).Msg("Skipping loss")
				return nil
			}
			out[i] = km
			return nil
		})
	}
	_ = g.Wait()

	sample := out[:0]
	for _, km := range out {
		if km != nil {
			sample = append(sample, km)
		}
	}
	return sample
}

// latest fetches the newest killmail of a zKillboard list in full.
func (s *Service) latest(ctx context.Context, characterID int64,
	list func(context.Context, int64) ([]models.KillmailRef, error),
) *models.Killmail {
	refs, err := list(ctx, characterID)
	if err != nil || len(refs) == 0 {
		if err != nil {
			logging.Ctx(ctx).Debug().Err(err).Int64("character_id", characterID).Msg("Kill list unavailable")
		}
		return nil
	}
	km, err := s.universe.Killmail(ctx, refs[0].KillmailID, refs[0].Zkb.Hash)
	if err != nil {
		logging.Ctx(ctx).Debug().Err(err).Int64("killmail_id", refs[0].KillmailID).Msg("Latest killmail unavailable")
		return nil
	}
	return km
}

// lastSeen names the system and ship of the character on km.
func (s *Service) lastSeen(ctx context.Context, characterID int64, km *models.Killmail) (system, ship string) {
	if km == nil {
		return "", ""
	}
	system = s.name(ctx, models.KindSystem, km.SolarSystemID)

	var shipID int64
	if km.Victim != nil && km.Victim.CharacterID == characterID {
		shipID = km.Victim.ShipTypeID
	} else {
		for _, a := range km.Attackers {
			if a.CharacterID == characterID {
				shipID = a.ShipTypeID
				break
			}
		}
	}
	return system, s.name(ctx, models.KindType, shipID)
}

func (s *Service) name(ctx context.Context, kind models.EntityKind, id int64) string {
	if id == 0 {
		return ""
	}
	name, ok, err := s.universe.Name(ctx, kind, id)
	if err != nil || !ok {
		return ""
	}
	return name
}
