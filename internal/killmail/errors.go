// Firetail - EVE Online killmail feed for Discord
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/firetail

package killmail

import "errors"

var (
	// ErrNotFound means a subscription id is unknown to the store or the registry.
	ErrNotFound = errors.New("killmail subscription not found")

	// ErrChannelUnreachable means the destination channel is gone or the bot
	// lost access to it. Subscriptions for such channels are removed.
	ErrChannelUnreachable = errors.New("channel unreachable")

	// ErrMalformed means a feed payload could not be parsed into a Mail.
	ErrMalformed = errors.New("malformed killmail")
)
