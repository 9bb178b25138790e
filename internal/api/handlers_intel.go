// Firetail - EVE Online killmail feed for Discord
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/firetail

package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/firetail/internal/intel"
	"github.com/tomtom215/firetail/internal/models"
)

// CharacterIntel handles GET /intel/characters/{characterID}.
func (h *Handler) CharacterIntel(w http.ResponseWriter, r *http.Request) {
	characterID, err := parseIDParam(r, "characterID")
	if err != nil || characterID == 0 {
		respondError(w, http.StatusBadRequest, ErrCodeBadRequest, "characterID must be a positive integer", nil)
		return
	}
	h.respondReport(w, r, characterID)
}

// CharacterSearch handles GET /intel/search?name=... It resolves an exact
// character name through ESI and answers with that character's report.
func (h *Handler) CharacterSearch(w http.ResponseWriter, r *http.Request) {
	if h.characters == nil {
		respondError(w, http.StatusServiceUnavailable, ErrCodeServiceUnavailable, "Character search not available", nil)
		return
	}

	req := CharacterSearchRequest{Name: strings.TrimSpace(r.URL.Query().Get("name"))}
	if apiErr := validateRequest(&req); apiErr != nil {
		respondValidationError(w, apiErr)
		return
	}

	characterID, ok, err := h.characters.CharacterID(r.Context(), req.Name)
	if err != nil {
		respondError(w, http.StatusBadGateway, ErrCodeExternalService, "Character lookup failed", err)
		return
	}
	if !ok {
		respondError(w, http.StatusNotFound, ErrCodeNotFound, fmt.Sprintf("Character %q not found.", req.Name), nil)
		return
	}
	h.respondReport(w, r, characterID)
}

func (h *Handler) respondReport(w http.ResponseWriter, r *http.Request, characterID int64) {
	if h.reporter == nil {
		respondError(w, http.StatusServiceUnavailable, ErrCodeServiceUnavailable, "Intel not available", nil)
		return
	}

	report, err := h.reporter.Report(r.Context(), characterID)
	switch {
	case errors.Is(err, intel.ErrUnknownCharacter):
		respondError(w, http.StatusNotFound, ErrCodeNotFound, fmt.Sprintf("Character %d not found.", characterID), nil)
		return
	case err != nil:
		respondError(w, http.StatusBadGateway, ErrCodeExternalService, "Intel lookup failed", err)
		return
	}

	respondSuccess(w, http.StatusOK, report)
}

// GroupIntel handles GET /intel/groups/{kind}/{groupID} where kind is
// corporation or alliance.
func (h *Handler) GroupIntel(w http.ResponseWriter, r *http.Request) {
	kind := models.EntityKind(chi.URLParam(r, "kind"))
	if kind != models.KindCorporation && kind != models.KindAlliance {
		respondError(w, http.StatusBadRequest, ErrCodeBadRequest, "kind must be corporation or alliance", nil)
		return
	}
	groupID, err := parseIDParam(r, "groupID")
	if err != nil || groupID == 0 {
		respondError(w, http.StatusBadRequest, ErrCodeBadRequest, "groupID must be a positive integer", nil)
		return
	}
	h.respondGroupReport(w, r, kind, groupID)
}

// GroupSearch handles GET /intel/groups/search?name=...&kind=... It resolves
// an exact corporation or alliance name through ESI. A name held by both a
// corporation and an alliance answers 409 with the candidates unless kind
// picks one.
func (h *Handler) GroupSearch(w http.ResponseWriter, r *http.Request) {
	if h.groupNames == nil {
		respondError(w, http.StatusServiceUnavailable, ErrCodeServiceUnavailable, "Group search not available", nil)
		return
	}

	q := r.URL.Query()
	req := GroupSearchRequest{
		Name: strings.TrimSpace(q.Get("name")),
		Kind: strings.ToLower(strings.TrimSpace(q.Get("kind"))),
	}
	if apiErr := validateRequest(&req); apiErr != nil {
		respondValidationError(w, apiErr)
		return
	}

	matches, err := h.groupNames.GroupIDs(r.Context(), req.Name)
	if err != nil {
		respondError(w, http.StatusBadGateway, ErrCodeExternalService, "Group lookup failed", err)
		return
	}
	if req.Kind != "" {
		kept := matches[:0]
		for _, m := range matches {
			if m.Category == req.Kind {
				kept = append(kept, m)
			}
		}
		matches = kept
	}

	switch len(matches) {
	case 0:
		respondError(w, http.StatusNotFound, ErrCodeNotFound, fmt.Sprintf("No corporation or alliance named %q.", req.Name), nil)
	case 1:
		h.respondGroupReport(w, r, models.EntityKind(matches[0].Category), matches[0].ID)
	default:
		respondJSON(w, http.StatusConflict, &models.APIResponse{
			Status:   "error",
			Metadata: models.Metadata{Timestamp: time.Now()},
			Error: &models.APIError{
				Code:    ErrCodeAmbiguousName,
				Message: fmt.Sprintf("%q names more than one group; pass kind=corporation or kind=alliance.", req.Name),
				Details: map[string]interface{}{"candidates": matches},
			},
		})
	}
}

func (h *Handler) respondGroupReport(w http.ResponseWriter, r *http.Request, kind models.EntityKind, id int64) {
	if h.groups == nil {
		respondError(w, http.StatusServiceUnavailable, ErrCodeServiceUnavailable, "Group intel not available", nil)
		return
	}

	report, err := h.groups.Report(r.Context(), kind, id)
	switch {
	case errors.Is(err, intel.ErrUnknownGroup):
		respondError(w, http.StatusNotFound, ErrCodeNotFound, fmt.Sprintf("%s %d not found.", kind, id), nil)
		return
	case errors.Is(err, intel.ErrGroupKind):
		respondError(w, http.StatusBadRequest, ErrCodeBadRequest, err.Error(), nil)
		return
	case err != nil:
		respondError(w, http.StatusBadGateway, ErrCodeExternalService, "Group intel lookup failed", err)
		return
	}

	respondSuccess(w, http.StatusOK, report)
}
