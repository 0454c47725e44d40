// Rhythmix - Media Catalog and Personalization Server
// Copyright 2026 Rhythmix contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/rhythmix/rhythmix

package api

import (
	"net/http"
	"time"

	json "github.com/goccy/go-json"

	"github.com/rhythmix/rhythmix/internal/logging"
	"github.com/rhythmix/rhythmix/internal/models"
	"github.com/rhythmix/rhythmix/internal/validation"
)

// Error codes returned in the response envelope. Codes are part of the API
// contract; messages are advisory and may change.
const (
	codeValidation   = "VALIDATION_ERROR"
	codeUnauthorized = "UNAUTHORIZED"
	codeForbidden    = "FORBIDDEN"
	codeNotFound     = "NOT_FOUND"
	codeConflict     = "CONFLICT"
	codeRateLimited  = "RATE_LIMITED"
	codeDatabase     = "DATABASE_ERROR"
)

// respondJSON writes a success envelope with the given payload.
func respondJSON(w http.ResponseWriter, r *http.Request, status int, data interface{}) {
	writeResponse(w, r, status, &models.APIResponse{
		Status:   "success",
		Data:     data,
		Metadata: models.Metadata{Timestamp: time.Now().UTC()},
	})
}

// respondJSONTimed is respondJSON with the query duration in the metadata.
func respondJSONTimed(w http.ResponseWriter, r *http.Request, status int, data interface{}, elapsed time.Duration) {
	writeResponse(w, r, status, &models.APIResponse{
		Status: "success",
		Data:   data,
		Metadata: models.Metadata{
			Timestamp:   time.Now().UTC(),
			QueryTimeMS: elapsed.Milliseconds(),
		},
	})
}

// respondError writes an error envelope with a stable machine-readable code.
func respondError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	writeResponse(w, r, status, &models.APIResponse{
		Status:   "error",
		Error:    &models.APIError{Code: code, Message: message},
		Metadata: models.Metadata{Timestamp: time.Now().UTC()},
	})
}

// respondValidationError maps a request validation failure to a 400 with
// per-field details.
func respondValidationError(w http.ResponseWriter, r *http.Request, ve *validation.RequestValidationError) {
	apiErr := ve.ToAPIError()
	writeResponse(w, r, http.StatusBadRequest, &models.APIResponse{
		Status: "error",
		Error: &models.APIError{
			Code:    apiErr.Code,
			Message: apiErr.Message,
			Details: apiErr.Details,
		},
		Metadata: models.Metadata{Timestamp: time.Now().UTC()},
	})
}

func writeResponse(w http.ResponseWriter, r *http.Request, status int, response *models.APIResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(response); err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Msg("Failed to encode response")
	}
}
