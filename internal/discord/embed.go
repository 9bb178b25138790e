// Firetail - EVE Online killmail feed for Discord
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/firetail

package discord

import (
	"context"
	"fmt"
	"strings"

	"github.com/tomtom215/firetail/internal/killmail"
	"github.com/tomtom215/firetail/internal/logging"
)

const (
	wreckIcon   = "https://zkillboard.com/img/wreck.png"
	colorKill   = 0x2ECC71
	colorLoss   = 0xE74C3C
	footerTimes = "2006-01-02 15:04"
)

// Message is the body of POST /channels/{id}/messages.
type Message struct {
	Content string  `json:"content,omitempty"`
	Embeds  []Embed `json:"embeds,omitempty"`
}

// Embed is a Discord rich embed.
type Embed struct {
	Title       string       `json:"title,omitempty"`
	URL         string       `json:"url,omitempty"`
	Description string       `json:"description,omitempty"`
	Color       int          `json:"color,omitempty"`
	Author      *EmbedAuthor `json:"author,omitempty"`
	Thumbnail   *EmbedImage  `json:"thumbnail,omitempty"`
	Fields      []EmbedField `json:"fields,omitempty"`
	Footer      *EmbedFooter `json:"footer,omitempty"`
}

type EmbedAuthor struct {
	Name    string `json:"name"`
	URL     string `json:"url,omitempty"`
	IconURL string `json:"icon_url,omitempty"`
}

type EmbedImage struct {
	URL string `json:"url"`
}

type EmbedField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline,omitempty"`
}

type EmbedFooter struct {
	Text string `json:"text"`
}

// KillmailEmbed renders m. Names that fail to resolve are shown as
// killmail.UnknownName; rendering itself never fails.
func KillmailEmbed(ctx context.Context, m *killmail.Mail, isLoss bool) Embed {
	log := logging.Ctx(ctx)

	loc, err := m.Location(ctx)
	if err != nil {
		log.Debug().Err(err).Int64("killmail_id", m.ID).Msg("Location unavailable")
		loc = killmail.Location{SystemID: m.SystemID, SystemName: killmail.UnknownName}
	}
	celestial, err := m.Celestial(ctx)
	if err != nil {
		log.Debug().Err(err).Int64("killmail_id", m.ID).Msg("Celestial unavailable")
		celestial = ""
	}

	victim := resolve(ctx, m, m.VictimEntity())

	finalBlow := killmail.UnknownName
	if m.FinalAttacker != nil {
		ent := killmail.AttackerEntity(m.FinalAttacker)
		finalBlow = entityInfo(ent, resolve(ctx, m, ent))
	}

	title, color := "Killmail", colorKill
	if isLoss {
		title, color = "LOSS", colorLoss
	}

	ship := victim.Ship
	if ship == "" {
		ship = killmail.UnknownName
	}

	return Embed{
		Title:       fmt.Sprintf("%s: %s ISK", title, killmail.FormatISK(m.Value)),
		URL:         m.URL(),
		Description: description(m, loc, celestial),
		Color:       color,
		Author: &EmbedAuthor{
			Name:    fmt.Sprintf("%s in %s", ship, loc.SystemName),
			URL:     m.URL(),
			IconURL: wreckIcon,
		},
		Thumbnail: &EmbedImage{
			URL: fmt.Sprintf("https://images.evetech.net/types/%d/render?size=128", m.Victim.ShipTypeID),
		},
		Fields: []EmbedField{
			{Name: "Victim Info", Value: entityInfo(m.VictimEntity(), victim), Inline: true},
			{Name: "Final Blow", Value: finalBlow, Inline: true},
		},
		Footer: &EmbedFooter{Text: "Report created: " + m.Time.UTC().Format(footerTimes) + " EVE"},
	}
}

func resolve(ctx context.Context, m *killmail.Mail, ent killmail.Entity) killmail.EntityNames {
	names, err := m.Resolve(ctx, ent)
	if err != nil {
		logging.Ctx(ctx).Debug().Err(err).Int64("killmail_id", m.ID).Msg("Entity names unavailable")
		return killmail.EntityNames{
			Name:     unknownIfSet(ent.CharacterID),
			Corp:     unknownIfSet(ent.CorporationID),
			Alliance: unknownIfSet(ent.AllianceID),
			Ship:     unknownIfSet(ent.ShipTypeID),
		}
	}
	return names
}

func unknownIfSet(id int64) string {
	if id == 0 {
		return ""
	}
	return killmail.UnknownName
}

func description(m *killmail.Mail, loc killmail.Location, celestial string) string {
	var lines []string
	if m.Solo {
		lines = append(lines, "**SOLO KILL**")
	}
	lines = append(lines, fmt.Sprintf(
		"%s System: [Map](http://evemaps.dotlan.net/search?q=%d) | [Killboard](https://zkillboard.com/system/%d/)",
		loc.SystemName, m.SystemID, m.SystemID))
	if celestial != "" && celestial != killmail.UnknownName {
		lines = append(lines, "Nearest Celestial: "+celestial)
	}
	return strings.Join(lines, "\n")
}

// entityInfo lists an attacker or victim. Entities without a character are
// structures and are shown by their type.
func entityInfo(ent killmail.Entity, names killmail.EntityNames) string {
	var lines []string
	if ent.CharacterID != 0 {
		lines = append(lines, fmt.Sprintf("Name: [%s](https://zkillboard.com/character/%d/)", names.Name, ent.CharacterID))
		if ent.ShipTypeID != 0 {
			lines = append(lines, fmt.Sprintf("Ship: [%s](https://zkillboard.com/ship/%d/)", names.Ship, ent.ShipTypeID))
		}
	} else if ent.ShipTypeID != 0 {
		lines = append(lines, fmt.Sprintf("Structure: [%s](https://zkillboard.com/ship/%d/)", names.Ship, ent.ShipTypeID))
	}
	if ent.CorporationID != 0 {
		lines = append(lines, fmt.Sprintf("Corp: [%s](https://zkillboard.com/corporation/%d/)", names.Corp, ent.CorporationID))
	}
	if ent.AllianceID != 0 {
		lines = append(lines, fmt.Sprintf("Alliance: [%s](https://zkillboard.com/alliance/%d/)", names.Alliance, ent.AllianceID))
	}
	if len(lines) == 0 {
		return killmail.UnknownName
	}
	return strings.Join(lines, "\n")
}
