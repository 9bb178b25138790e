// Firetail - EVE Online killmail feed for Discord
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/firetail

package killmail

import (
	"math"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var iskPrinter = message.NewPrinter(language.English)

// FormatISK renders an ISK amount with thousands separators, rounded to
// whole ISK: 2000000000 -> "2,000,000,000".
func FormatISK[T ~int64 | ~float64](v T) string {
	return iskPrinter.Sprintf("%d", int64(math.Round(float64(v))))
}
