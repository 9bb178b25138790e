// Firetail - EVE Online killmail feed for Discord
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/firetail

package killmail

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/tomtom215/firetail/internal/models"
)

// Subscription is one channel's killmail filter.
type Subscription struct {
	ID        int64
	ChannelID int64
	GuildID   int64
	OwnerID   int64

	// Threshold is the minimum killmail value in ISK; zero disables it.
	Threshold int64

	IncludeLosses bool

	// GroupID is an alliance, corporation, system or region id. Zero means
	// global: every killmail above the threshold matches.
	GroupID int64

	CreatedAt time.Time
}

// NewSubscription builds a Subscription from a stored row, normalizing the
// global sentinel group id to zero.
func NewSubscription(rec models.SubscriptionRecord) *Subscription {
	return &Subscription{
		ID:            rec.ID,
		ChannelID:     rec.ChannelID,
		GuildID:       rec.GuildID,
		OwnerID:       rec.OwnerID,
		Threshold:     rec.Threshold,
		IncludeLosses: rec.IncludeLosses,
		GroupID:       normalizeGroup(rec.GroupID),
		CreatedAt:     rec.CreatedAt,
	}
}

func normalizeGroup(id int64) int64 {
	if id == models.GlobalGroupID {
		return 0
	}
	return id
}

// Global reports whether the subscription has no group filter.
func (s *Subscription) Global() bool {
	return s.GroupID == 0
}

// Valid reports whether m passes the filter. Rules are checked cheapest
// first; the region is only resolved when nothing else matched. An error is
// returned only when the region lookup fails, in which case the result is
// false.
func (s *Subscription) Valid(ctx context.Context, m *Mail) (bool, error) {
	if s.Threshold != 0 && m.Value < float64(s.Threshold) {
		return false, nil
	}
	if s.Global() {
		return true, nil
	}
	if s.GroupID == m.SystemID {
		return true, nil
	}
	if s.IncludeLosses && (s.GroupID == m.CorpID || s.GroupID == m.AllianceID) {
		return true, nil
	}
	for i := range m.Attackers {
		if m.Attackers[i].CorporationID == s.GroupID {
			return true, nil
		}
	}
	for i := range m.Attackers {
		if m.Attackers[i].AllianceID == s.GroupID {
			return true, nil
		}
	}

	region, err := m.RegionID(ctx)
	if err != nil {
		return false, err
	}
	return region != 0 && region == s.GroupID, nil
}

// IsLoss reports whether m should be reported as a loss for this
// subscription: the group is the victim's corporation or alliance.
// Zero ids never compare equal to a set group.
func (s *Subscription) IsLoss(m *Mail) bool {
	if s.Global() {
		return false
	}
	return s.GroupID == m.CorpID || s.GroupID == m.AllianceID
}

// Record converts the subscription back to its stored shape.
func (s *Subscription) Record() models.SubscriptionRecord {
	group := s.GroupID
	if group == 0 {
		group = models.GlobalGroupID
	}
	return models.SubscriptionRecord{
		ID:            s.ID,
		ChannelID:     s.ChannelID,
		GuildID:       s.GuildID,
		OwnerID:       s.OwnerID,
		GroupID:       group,
		Threshold:     s.Threshold,
		IncludeLosses: s.IncludeLosses,
		CreatedAt:     s.CreatedAt,
	}
}

// Describe is the one-line listing text, e.g.
// "`12`: Kills and Losses over 1,000,000,000 ISK matching ID 99000001".
func (s *Subscription) Describe() string {
	var b strings.Builder
	fmt.Fprintf(&b, "`%d`: Kills", s.ID)
	if s.IncludeLosses {
		b.WriteString(" and Losses")
	}
	if s.Threshold != 0 {
		fmt.Fprintf(&b, " over %s ISK", FormatISK(s.Threshold))
	}
	if !s.Global() {
		fmt.Fprintf(&b, " matching ID %d", s.GroupID)
	}
	return b.String()
}

func (s *Subscription) String() string {
	return fmt.Sprintf("<Subscription %d channel=%d group=%d threshold=%d losses=%t>",
		s.ID, s.ChannelID, s.GroupID, s.Threshold, s.IncludeLosses)
}
