// Firetail - EVE Online killmail feed for Discord
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/firetail

// Package validation validates command surface requests with
// go-playground/validator v10.
//
// A single validator instance is shared (it caches struct metadata). Field
// names in messages are taken from json tags so errors name the request
// field the client sent, e.g. "channel_id is required".
//
// Custom tags:
//   - eve_name: an EVE character, corporation or alliance name
//     (3 to 37 characters of letters, digits, spaces, ' . and -).
//   - eve_group_name: a corporation or alliance name (3 to 50 characters,
//     underscores allowed).
//
// Example:
//
//	type addRequest struct {
//	    ChannelID int64 `json:"channel_id" validate:"required,gt=0"`
//	}
//
//	if verr := validation.ValidateStruct(&req); verr != nil {
//	    apiErr := verr.ToAPIError()
//	    respondError(w, http.StatusBadRequest, apiErr.Code, apiErr.Message, apiErr.Details)
//	    return
//	}
package validation
