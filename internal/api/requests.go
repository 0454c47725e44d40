// Rhythmix - Media Catalog and Personalization Server
// Copyright 2026 Rhythmix contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/rhythmix/rhythmix

package api

import (
	"fmt"
	"net/http"
	"strconv"

	json "github.com/goccy/go-json"

	"github.com/rhythmix/rhythmix/internal/validation"
)

// registerRequest is the JSON body for POST /api/v1/auth/register.
// The password cap stays under bcrypt's 72-byte input limit.
type registerRequest struct {
	Username string `json:"username" validate:"required,min=3,max=64"`
	Email    string `json:"email" validate:"required,email,max=254"`
	Password string `json:"password" validate:"required,min=8,max=64"`
}

// loginRequest is the JSON body for POST /api/v1/auth/login.
type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// playlistRequest is the JSON body for creating and updating playlists.
// TrackIDs is the full member set; on update it replaces the existing one.
type playlistRequest struct {
	Name        string   `json:"name" validate:"required,min=1,max=128"`
	Description string   `json:"description" validate:"max=1024"`
	TrackIDs    []string `json:"track_ids" validate:"dive,uuid"`
}

// playlistTrackRequest is the JSON body for playlist membership changes.
type playlistTrackRequest struct {
	TrackID string `json:"track_id" validate:"required,uuid4"`
}

// pageParams are the validated pagination query parameters. Absent
// parameters take the defaults; out-of-range values are rejected, not
// clamped. The limit ceiling comes from configuration, so the range check
// lives in parsePageParams instead of struct tags.
type pageParams struct {
	Limit  int
	Offset int
}

// decodeJSONBody decodes and validates a JSON request body into dst.
func decodeJSONBody(r *http.Request, dst interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return fmt.Errorf("malformed JSON body: %w", err)
	}
	if ve := validation.ValidateStruct(dst); ve != nil {
		return ve
	}
	return nil
}

// parsePageParams reads limit and offset from the query string.
func parsePageParams(r *http.Request, defaultLimit, maxLimit int) (pageParams, error) {
	params := pageParams{Limit: defaultLimit, Offset: 0}

	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil {
			return params, fmt.Errorf("limit must be an integer, got %q", raw)
		}
		params.Limit = limit
	}
	if raw := r.URL.Query().Get("offset"); raw != "" {
		offset, err := strconv.Atoi(raw)
		if err != nil {
			return params, fmt.Errorf("offset must be an integer, got %q", raw)
		}
		params.Offset = offset
	}

	if params.Limit < 1 || params.Limit > maxLimit {
		return params, fmt.Errorf("limit must be between 1 and %d, got %d", maxLimit, params.Limit)
	}
	if params.Offset < 0 {
		return params, fmt.Errorf("offset must be non-negative, got %d", params.Offset)
	}
	return params, nil
}
