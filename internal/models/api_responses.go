// Firetail - EVE Online killmail feed for Discord
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/firetail

package models

import "time"

// APIResponse is the envelope for every command API response.
//
//	{"status":"success","data":{...},"metadata":{"timestamp":"2026-01-01T00:00:00Z"}}
//	{"status":"error","error":{"code":"NOT_FOUND","message":"..."},"metadata":{...}}
type APIResponse struct {
	Status   string      `json:"status"`
	Data     interface{} `json:"data"`
	Metadata Metadata    `json:"metadata"`
	Error    *APIError   `json:"error,omitempty"`
}

// Metadata accompanies every response.
type Metadata struct {
	Timestamp time.Time `json:"timestamp"`
}

// APIError describes a failed request.
type APIError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}
