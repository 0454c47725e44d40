// Rhythmix - Media Catalog and Personalization Server
// Copyright 2026 Rhythmix contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/rhythmix/rhythmix

package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/rhythmix/rhythmix/internal/auth"
	"github.com/rhythmix/rhythmix/internal/database"
	"github.com/rhythmix/rhythmix/internal/logging"
	"github.com/rhythmix/rhythmix/internal/models"
	"github.com/rhythmix/rhythmix/internal/validation"
)

// handleCreatePlaylist creates a playlist owned by the caller, with its
// initial tracks when track_ids is given.
// POST /api/v1/playlists
func (s *Server) handleCreatePlaylist(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, r, http.StatusUnauthorized, codeUnauthorized, "Missing or invalid access token")
		return
	}

	var req playlistRequest
	if err := decodeJSONBody(r, &req); err != nil {
		var ve *validation.RequestValidationError
		if errors.As(err, &ve) {
			respondValidationError(w, r, ve)
			return
		}
		respondError(w, r, http.StatusBadRequest, codeValidation, err.Error())
		return
	}
	trackIDs, ok := s.resolveTrackIDs(w, r, req.TrackIDs)
	if !ok {
		return
	}

	playlist := &models.Playlist{
		ID:          uuid.New(),
		Name:        req.Name,
		Description: req.Description,
		OwnerID:     userID,
		CreatedAt:   time.Now().UTC(),
		TrackIDs:    trackIDs,
	}
	if err := s.db.InsertPlaylist(r.Context(), playlist); err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Msg("Playlist insert failed")
		respondError(w, r, http.StatusInternalServerError, codeDatabase, "Playlist creation failed")
		return
	}
	respondJSON(w, r, http.StatusCreated, playlist)
}

// handleUpdatePlaylist renames and re-describes one of the caller's
// playlists and replaces its track set.
// PUT /api/v1/playlists/{id}
func (s *Server) handleUpdatePlaylist(w http.ResponseWriter, r *http.Request) {
	playlist, ok := s.ownedPlaylist(w, r)
	if !ok {
		return
	}

	var req playlistRequest
	if err := decodeJSONBody(r, &req); err != nil {
		var ve *validation.RequestValidationError
		if errors.As(err, &ve) {
			respondValidationError(w, r, ve)
			return
		}
		respondError(w, r, http.StatusBadRequest, codeValidation, err.Error())
		return
	}
	trackIDs, ok := s.resolveTrackIDs(w, r, req.TrackIDs)
	if !ok {
		return
	}

	now := time.Now().UTC()
	playlist.Name = req.Name
	playlist.Description = req.Description
	playlist.TrackIDs = trackIDs
	playlist.UpdatedAt = &now
	if err := s.db.UpdatePlaylist(r.Context(), playlist); err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Msg("Playlist update failed")
		respondError(w, r, http.StatusInternalServerError, codeDatabase, "Playlist update failed")
		return
	}
	respondJSON(w, r, http.StatusOK, playlist)
}

// resolveTrackIDs parses and deduplicates a track_ids list, preserving first
// occurrence order, and verifies every referenced track exists. A reference
// to a missing track is a 404, matching the single-track endpoints.
func (s *Server) resolveTrackIDs(w http.ResponseWriter, r *http.Request, raw []string) ([]uuid.UUID, bool) {
	trackIDs := make([]uuid.UUID, 0, len(raw))
	seen := make(map[uuid.UUID]struct{}, len(raw))
	for _, rawID := range raw {
		id, err := uuid.Parse(rawID)
		if err != nil {
			respondError(w, r, http.StatusBadRequest, codeValidation, "track_ids must be valid UUIDs")
			return nil, false
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		trackIDs = append(trackIDs, id)
	}

	if len(trackIDs) > 0 {
		count, err := s.db.CountTracksByIDs(r.Context(), trackIDs)
		if err != nil {
			logging.Ctx(r.Context()).Error().Err(err).Msg("Track existence check failed")
			respondError(w, r, http.StatusInternalServerError, codeDatabase, "Track lookup failed")
			return nil, false
		}
		if count != len(trackIDs) {
			respondError(w, r, http.StatusNotFound, codeNotFound, "Some tracks not found")
			return nil, false
		}
	}
	return trackIDs, true
}

// handleListPlaylists lists the caller's playlists.
// GET /api/v1/playlists
func (s *Server) handleListPlaylists(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, r, http.StatusUnauthorized, codeUnauthorized, "Missing or invalid access token")
		return
	}
	playlists, err := s.db.ListPlaylists(r.Context(), userID)
	if err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Msg("Playlist list failed")
		respondError(w, r, http.StatusInternalServerError, codeDatabase, "Playlist listing failed")
		return
	}
	respondJSON(w, r, http.StatusOK, playlists)
}

// handleGetPlaylist fetches one of the caller's playlists with its tracks.
// GET /api/v1/playlists/{id}
func (s *Server) handleGetPlaylist(w http.ResponseWriter, r *http.Request) {
	playlist, ok := s.ownedPlaylist(w, r)
	if !ok {
		return
	}
	respondJSON(w, r, http.StatusOK, playlist)
}

// handleDeletePlaylist removes one of the caller's playlists.
// DELETE /api/v1/playlists/{id}
func (s *Server) handleDeletePlaylist(w http.ResponseWriter, r *http.Request) {
	playlist, ok := s.ownedPlaylist(w, r)
	if !ok {
		return
	}
	if err := s.db.DeletePlaylist(r.Context(), playlist.ID); err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Msg("Playlist delete failed")
		respondError(w, r, http.StatusInternalServerError, codeDatabase, "Playlist deletion failed")
		return
	}
	respondJSON(w, r, http.StatusOK, map[string]string{"deleted": playlist.ID.String()})
}

// handleAddPlaylistTrack appends a track to one of the caller's playlists.
// POST /api/v1/playlists/{id}/tracks
func (s *Server) handleAddPlaylistTrack(w http.ResponseWriter, r *http.Request) {
	playlist, ok := s.ownedPlaylist(w, r)
	if !ok {
		return
	}

	var req playlistTrackRequest
	if err := decodeJSONBody(r, &req); err != nil {
		var ve *validation.RequestValidationError
		if errors.As(err, &ve) {
			respondValidationError(w, r, ve)
			return
		}
		respondError(w, r, http.StatusBadRequest, codeValidation, err.Error())
		return
	}
	trackID, err := uuid.Parse(req.TrackID)
	if err != nil {
		respondError(w, r, http.StatusBadRequest, codeValidation, "track_id must be a valid UUID")
		return
	}

	if _, err := s.db.GetTrackByID(r.Context(), trackID); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			respondError(w, r, http.StatusNotFound, codeNotFound, "Track not found")
			return
		}
		logging.Ctx(r.Context()).Error().Err(err).Msg("Track lookup failed")
		respondError(w, r, http.StatusInternalServerError, codeDatabase, "Playlist update failed")
		return
	}
	if err := s.db.AddTrackToPlaylist(r.Context(), playlist.ID, trackID); err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Msg("Playlist track add failed")
		respondError(w, r, http.StatusInternalServerError, codeDatabase, "Playlist update failed")
		return
	}
	respondJSON(w, r, http.StatusCreated, map[string]string{
		"playlist_id": playlist.ID.String(),
		"track_id":    trackID.String(),
	})
}

// handleRemovePlaylistTrack removes a track from one of the caller's
// playlists.
// DELETE /api/v1/playlists/{id}/tracks/{trackID}
func (s *Server) handleRemovePlaylistTrack(w http.ResponseWriter, r *http.Request) {
	playlist, ok := s.ownedPlaylist(w, r)
	if !ok {
		return
	}
	trackID, ok := parseUUIDParam(w, r, "trackID")
	if !ok {
		return
	}
	if err := s.db.RemoveTrackFromPlaylist(r.Context(), playlist.ID, trackID); err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Msg("Playlist track remove failed")
		respondError(w, r, http.StatusInternalServerError, codeDatabase, "Playlist update failed")
		return
	}
	respondJSON(w, r, http.StatusOK, map[string]string{
		"playlist_id": playlist.ID.String(),
		"removed":     trackID.String(),
	})
}

// ownedPlaylist resolves the {id} path parameter to a playlist the caller
// owns, writing the error response itself when it cannot.
func (s *Server) ownedPlaylist(w http.ResponseWriter, r *http.Request) (*models.Playlist, bool) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, r, http.StatusUnauthorized, codeUnauthorized, "Missing or invalid access token")
		return nil, false
	}
	playlistID, ok := parseUUIDParam(w, r, "id")
	if !ok {
		return nil, false
	}

	playlist, err := s.db.GetPlaylist(r.Context(), playlistID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			respondError(w, r, http.StatusNotFound, codeNotFound, "Playlist not found")
			return nil, false
		}
		logging.Ctx(r.Context()).Error().Err(err).Msg("Playlist lookup failed")
		respondError(w, r, http.StatusInternalServerError, codeDatabase, "Playlist lookup failed")
		return nil, false
	}
	if playlist.OwnerID != userID {
		respondError(w, r, http.StatusForbidden, codeForbidden, "Playlist belongs to another user")
		return nil, false
	}
	return playlist, true
}
