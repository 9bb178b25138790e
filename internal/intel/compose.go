// Firetail - EVE Online killmail feed for Discord
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/firetail

package intel

import (
	"fmt"
	"strconv"

	"github.com/tomtom215/firetail/internal/models"
)

const notActiveText = "This player has not been active recently"

// TopSystem returns the most active system from zKillboard's weekly top
// lists, or "" when there is none.
func TopSystem(stats *models.CharacterStats) string {
	if stats == nil {
		return ""
	}
	for _, list := range stats.TopLists {
		if list.Type != "solarSystem" {
			continue
		}
		if len(list.Values) > 0 && list.Values[0].SolarSystemName != "" {
			return list.Values[0].SolarSystemName
		}
		return ""
	}
	return ""
}

// ComposeIntel renders the intel paragraph. Without statistics only the
// label is reported.
func ComposeIntel(name string, c Classification, stats *models.CharacterStats, solo *float64) string {
	prefix := ""
	if c.Note != "" {
		prefix = c.Note + "\n"
	}

	if stats == nil || solo == nil {
		return fmt.Sprintf("%s%s is most likely a %s. No further intel available at this time.",
			prefix, name, c.Label)
	}

	top := notActiveText
	if sys := TopSystem(stats); sys != "" {
		top = "The past week they have been most active in " + sys
	}
	return fmt.Sprintf("%s%s is most likely a %s. %s. You have a %s%% chance of encountering this player solo.",
		prefix, name, c.Label, top, strconv.FormatFloat(*solo, 'f', -1, 64))
}
