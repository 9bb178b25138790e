// Firetail - EVE Online killmail feed for Discord
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/firetail

package api

// Error codes for API responses
const (
	ErrCodeBadRequest         = "BAD_REQUEST"
	ErrCodeNotFound           = "NOT_FOUND"
	ErrCodeInternalError      = "INTERNAL_ERROR"
	ErrCodeServiceUnavailable = "SERVICE_UNAVAILABLE"
	ErrCodeExternalService    = "EXTERNAL_SERVICE_FAILED"
	ErrCodeRateLimited        = "RATE_LIMIT_EXCEEDED"
	ErrCodeAmbiguousName      = "AMBIGUOUS_NAME"
)
