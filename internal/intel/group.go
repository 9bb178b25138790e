// Firetail - EVE Online killmail feed for Discord
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/firetail

package intel

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/tomtom215/firetail/internal/killmail"
	"github.com/tomtom215/firetail/internal/logging"
	"github.com/tomtom215/firetail/internal/models"
)

var (
	// ErrUnknownGroup is returned for corporation or alliance ids ESI does
	// not know.
	ErrUnknownGroup = errors.New("unknown group")

	// ErrGroupKind is returned for kinds other than corporation and alliance.
	ErrGroupKind = errors.New("group kind must be corporation or alliance")
)

// GroupStats is the zKillboard side of a group report. *zkill.Client
// satisfies it.
type GroupStats interface {
	GroupStats(ctx context.Context, kind models.EntityKind, id int64) (*models.CharacterStats, bool, error)
}

// GroupUniverse is the ESI side of a group report. *esi.Client satisfies it.
type GroupUniverse interface {
	NameResolver
	Corporation(ctx context.Context, id int64) (models.CorporationInfo, bool, error)
	Alliance(ctx context.Context, id int64) (models.AllianceInfo, bool, error)
}

// GroupReport summarizes a corporation or alliance.
type GroupReport struct {
	Kind   models.EntityKind `json:"kind"`
	ID     int64             `json:"id"`
	Name   string            `json:"name"`
	Ticker string            `json:"ticker"`

	// MemberCount is only known for corporations.
	MemberCount int64 `json:"member_count,omitempty"`

	// Affiliation: the alliance of a corporation, or the executor
	// corporation of an alliance.
	AllianceID            int64  `json:"alliance_id,omitempty"`
	Alliance              string `json:"alliance,omitempty"`
	ExecutorCorporationID int64  `json:"executor_corporation_id,omitempty"`
	ExecutorCorporation   string `json:"executor_corporation,omitempty"`

	Intel string `json:"intel"`

	Threat         *float64 `json:"threat,omitempty"`
	GangRatio      *float64 `json:"gang_ratio,omitempty"`
	Solo           *float64 `json:"solo,omitempty"`
	Efficiency     *float64 `json:"efficiency,omitempty"`
	ShipsDestroyed int64    `json:"ships_destroyed"`
	ShipsLost      int64    `json:"ships_lost"`
	ISKDestroyed   float64  `json:"isk_destroyed"`
	ISKLost        float64  `json:"isk_lost"`
	TopSystem      string   `json:"top_system,omitempty"`

	ZKillURL string `json:"zkill_url"`
}

// GroupService builds corporation and alliance reports.
type GroupService struct {
	stats    GroupStats
	universe GroupUniverse
}

// NewGroupService creates a group report service.
func NewGroupService(stats GroupStats, universe GroupUniverse) *GroupService {
	return &GroupService{stats: stats, universe: universe}
}

// Report builds the report of a corporation or alliance. Missing
// statistics degrade the report; an unknown group or a failed ESI lookup
// is an error.
func (s *GroupService) Report(ctx context.Context, kind models.EntityKind, id int64) (*GroupReport, error) {
	r, err := s.describe(ctx, kind, id)
	if err != nil {
		return nil, err
	}

	var stats *models.CharacterStats
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		st, ok, err := s.stats.GroupStats(gctx, kind, id)
		if err != nil {
			logging.Ctx(ctx).Warn().Err(err).Str("kind", string(kind)).Int64("id", id).Msg("zKillboard group stats unavailable")
			return nil
		}
		if ok {
			stats = st
		}
		return nil
	})
	g.Go(func() error {
		r.Alliance = nameOf(gctx, s.universe, models.KindAlliance, r.AllianceID)
		r.ExecutorCorporation = nameOf(gctx, s.universe, models.KindCorporation, r.ExecutorCorporationID)
		return nil
	})
	_ = g.Wait()

	if stats != nil {
		r.Threat = stats.DangerRatio
		r.GangRatio = stats.GangRatio
		if stats.GangRatio != nil {
			solo := 100 - *stats.GangRatio
			r.Solo = &solo
		}
		if total := stats.ISKDestroyed + stats.ISKLost; total > 0 {
			eff := stats.ISKDestroyed / total * 100
			r.Efficiency = &eff
		}
		r.ShipsDestroyed = stats.ShipsDestroyed
		r.ShipsLost = stats.ShipsLost
		r.ISKDestroyed = stats.ISKDestroyed
		r.ISKLost = stats.ISKLost
		r.TopSystem = TopSystem(stats)
	}
	r.Intel = ComposeGroupIntel(r, stats != nil)

	logging.Ctx(ctx).Info().Str("kind", string(kind)).Int64("id", id).Bool("stats", stats != nil).Msg("Group report built")
	return r, nil
}

// describe loads the ESI document of the group.
func (s *GroupService) describe(ctx context.Context, kind models.EntityKind, id int64) (*GroupReport, error) {
	r := &GroupReport{Kind: kind, ID: id}
	switch kind {
	case models.KindCorporation:
		info, ok, err := s.universe.Corporation(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("corporation %d: %w", id, err)
		}
		if !ok {
			return nil, fmt.Errorf("%w: corporation %d", ErrUnknownGroup, id)
		}
		r.Name, r.Ticker, r.MemberCount, r.AllianceID = info.Name, info.Ticker, info.MemberCount, info.AllianceID
	case models.KindAlliance:
		info, ok, err := s.universe.Alliance(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("alliance %d: %w", id, err)
		}
		if !ok {
			return nil, fmt.Errorf("%w: alliance %d", ErrUnknownGroup, id)
		}
		r.Name, r.Ticker, r.ExecutorCorporationID = info.Name, info.Ticker, info.ExecutorCorporationID
	default:
		return nil, fmt.Errorf("%w: %q", ErrGroupKind, kind)
	}
	r.ZKillURL = fmt.Sprintf("https://zkillboard.com/%s/%d/", kind, id)
	return r, nil
}

// ComposeGroupIntel renders the summary line of a group report.
func ComposeGroupIntel(r *GroupReport, haveStats bool) string {
	var b strings.Builder
	b.WriteString(r.Name)
	if r.Ticker != "" {
		fmt.Fprintf(&b, " [%s]", r.Ticker)
	}
	if r.Alliance != "" {
		fmt.Fprintf(&b, " of %s", r.Alliance)
	}
	if !haveStats {
		b.WriteString(" has no recorded activity.")
		return b.String()
	}

	fmt.Fprintf(&b, " has destroyed %s ships worth %s ISK and lost %s worth %s ISK.",
		killmail.FormatISK(r.ShipsDestroyed), killmail.FormatISK(r.ISKDestroyed),
		killmail.FormatISK(r.ShipsLost), killmail.FormatISK(r.ISKLost))
	if r.TopSystem != "" {
		fmt.Fprintf(&b, " The past week they have been most active in %s.", r.TopSystem)
	}
	if r.Solo != nil {
		fmt.Fprintf(&b, " %s%% of their kills are solo.", strconv.FormatFloat(*r.Solo, 'f', -1, 64))
	}
	return b.String()
}

func nameOf(ctx context.Context, names NameResolver, kind models.EntityKind, id int64) string {
	if id == 0 {
		return ""
	}
	name, ok, err := names.Name(ctx, kind, id)
	if err != nil || !ok {
		return ""
	}
	return name
}
