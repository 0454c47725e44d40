// Rhythmix - Media Catalog and Personalization Server
// Copyright 2026 Rhythmix contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/rhythmix/rhythmix

package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/rhythmix/rhythmix/internal/auth"
	"github.com/rhythmix/rhythmix/internal/database"
	"github.com/rhythmix/rhythmix/internal/logging"
	"github.com/rhythmix/rhythmix/internal/metrics"
	"github.com/rhythmix/rhythmix/internal/models"
	"github.com/rhythmix/rhythmix/internal/storage"
)

// handleSearchTracks runs a filtered, paginated catalog query.
// GET /api/v1/tracks/search?title=&artist=&genre=&tags=&mood=&limit=&offset=
func (s *Server) handleSearchTracks(w http.ResponseWriter, r *http.Request) {
	params, err := parsePageParams(r, s.cfg.API.DefaultPageSize, s.cfg.API.MaxPageSize)
	if err != nil {
		respondError(w, r, http.StatusBadRequest, codeValidation, err.Error())
		return
	}

	query := r.URL.Query()
	filter := database.TrackFilter{
		Title:  query.Get("title"),
		Artist: query.Get("artist"),
		Genre:  query.Get("genre"),
		Mood:   query.Get("mood"),
		Tags:   query.Get("tags"),
	}

	metrics.SearchRequestsTotal.Inc()
	start := time.Now()
	page, err := s.db.SearchTracks(r.Context(), filter, params.Offset, params.Limit)
	if err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Msg("Search failed")
		respondError(w, r, http.StatusInternalServerError, codeDatabase, "Search failed")
		return
	}
	metrics.SearchResultCount.Observe(float64(len(page.Items)))

	respondJSONTimed(w, r, http.StatusOK, page, time.Since(start))
}

// handleGetTrack fetches a single catalog entry.
// GET /api/v1/tracks/{id}
func (s *Server) handleGetTrack(w http.ResponseWriter, r *http.Request) {
	trackID, ok := parseUUIDParam(w, r, "id")
	if !ok {
		return
	}

	track, err := s.db.GetTrackByID(r.Context(), trackID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			respondError(w, r, http.StatusNotFound, codeNotFound, "Track not found")
			return
		}
		logging.Ctx(r.Context()).Error().Err(err).Msg("Track lookup failed")
		respondError(w, r, http.StatusInternalServerError, codeDatabase, "Track lookup failed")
		return
	}
	respondJSON(w, r, http.StatusOK, track)
}

// handleUploadTrack stores a media file and its metadata.
// POST /api/v1/tracks (multipart/form-data: file, title, artist?, genre?, tags?, mood?)
func (s *Server) handleUploadTrack(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, r, http.StatusUnauthorized, codeUnauthorized, "Missing or invalid access token")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.Storage.MaxUploadBytes+1<<20)
	if err := r.ParseMultipartForm(8 << 20); err != nil {
		respondError(w, r, http.StatusBadRequest, codeValidation, "Malformed multipart body")
		return
	}

	title := r.FormValue("title")
	if title == "" {
		respondError(w, r, http.StatusBadRequest, codeValidation, "title is required")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		respondError(w, r, http.StatusBadRequest, codeValidation, "file is required")
		return
	}
	defer file.Close()

	fileURL, err := s.files.Save(file, header.Filename)
	if err != nil {
		if errors.Is(err, storage.ErrTooLarge) {
			respondError(w, r, http.StatusRequestEntityTooLarge, codeValidation, "Upload exceeds size limit")
			return
		}
		logging.Ctx(r.Context()).Error().Err(err).Msg("Media save failed")
		respondError(w, r, http.StatusInternalServerError, codeDatabase, "Upload failed")
		return
	}

	track := &models.Track{
		ID:         uuid.New(),
		Title:      title,
		Artist:     r.FormValue("artist"),
		Genre:      r.FormValue("genre"),
		Tags:       r.FormValue("tags"),
		Mood:       r.FormValue("mood"),
		FileURL:    fileURL,
		UploadedBy: userID,
		CreatedAt:  time.Now().UTC(),
	}
	if err := s.db.InsertTrack(r.Context(), track); err != nil {
		if removeErr := s.files.Remove(fileURL); removeErr != nil {
			logging.Ctx(r.Context()).Warn().Err(removeErr).Msg("Orphaned media cleanup failed")
		}
		logging.Ctx(r.Context()).Error().Err(err).Msg("Track insert failed")
		respondError(w, r, http.StatusInternalServerError, codeDatabase, "Upload failed")
		return
	}

	logging.Ctx(r.Context()).Info().
		Str("track_id", track.ID.String()).
		Str("user_id", userID.String()).
		Msg("Track uploaded")
	respondJSON(w, r, http.StatusCreated, track)
}

// handlePlayTrack records a consumption event for the authenticated user.
// POST /api/v1/tracks/{id}/play
func (s *Server) handlePlayTrack(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, r, http.StatusUnauthorized, codeUnauthorized, "Missing or invalid access token")
		return
	}
	trackID, ok := parseUUIDParam(w, r, "id")
	if !ok {
		return
	}

	if _, err := s.db.GetTrackByID(r.Context(), trackID); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			respondError(w, r, http.StatusNotFound, codeNotFound, "Track not found")
			return
		}
		logging.Ctx(r.Context()).Error().Err(err).Msg("Track lookup failed")
		respondError(w, r, http.StatusInternalServerError, codeDatabase, "Play recording failed")
		return
	}

	entry := &models.PlayHistory{
		ID:       uuid.New(),
		UserID:   userID,
		TrackID:  trackID,
		PlayedAt: time.Now().UTC(),
	}
	if err := s.db.InsertPlayHistory(r.Context(), entry); err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Msg("Play insert failed")
		respondError(w, r, http.StatusInternalServerError, codeDatabase, "Play recording failed")
		return
	}
	respondJSON(w, r, http.StatusCreated, entry)
}

// handleRecommendations returns personalized tracks for the authenticated
// user.
// GET /api/v1/tracks/recommendations?limit=
func (s *Server) handleRecommendations(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, r, http.StatusUnauthorized, codeUnauthorized, "Missing or invalid access token")
		return
	}
	params, err := parsePageParams(r, s.cfg.Recommend.DefaultLimit, s.cfg.API.MaxPageSize)
	if err != nil {
		respondError(w, r, http.StatusBadRequest, codeValidation, err.Error())
		return
	}

	metrics.RecommendRequestsTotal.Inc()
	start := time.Now()
	tracks, err := s.engine.Recommend(r.Context(), userID, params.Limit)
	if err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Msg("Recommendation failed")
		respondError(w, r, http.StatusInternalServerError, codeDatabase, "Recommendation failed")
		return
	}
	respondJSONTimed(w, r, http.StatusOK, tracks, time.Since(start))
}

// parseUUIDParam reads a UUID path parameter, responding 400 on garbage.
func parseUUIDParam(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	raw := chi.URLParam(r, name)
	id, err := uuid.Parse(raw)
	if err != nil {
		respondError(w, r, http.StatusBadRequest, codeValidation, name+" must be a valid UUID")
		return uuid.Nil, false
	}
	return id, true
}
