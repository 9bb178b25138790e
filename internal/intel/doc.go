// Firetail - EVE Online killmail feed for Discord
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/firetail

/*
Package intel builds character intel reports.

Classify infers a pilot's role from zKillboard statistics and a bounded
sample of recent history: the items fitted on their recent losses and the
attackers on their most recent kill. Rules are an ordered list evaluated
top to bottom; the first match wins.

Service gathers the sample (statistics, up to Config.LossSampleSize
losses fetched in full from ESI, the latest kill) and composes the report
text with ComposeIntel.
*/
package intel
