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

// handleRegister creates a new account.
// POST /api/v1/auth/register
func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSONBody(r, &req); err != nil {
		var ve *validation.RequestValidationError
		if errors.As(err, &ve) {
			respondValidationError(w, r, ve)
			return
		}
		respondError(w, r, http.StatusBadRequest, codeValidation, err.Error())
		return
	}

	hash, err := auth.HashPassword(req.Password, s.cfg.Auth.BcryptCost)
	if err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Msg("Password hashing failed")
		respondError(w, r, http.StatusInternalServerError, codeDatabase, "Registration failed")
		return
	}

	user := &models.User{
		ID:             uuid.New(),
		Username:       req.Username,
		Email:          req.Email,
		HashedPassword: hash,
		CreatedAt:      time.Now().UTC(),
	}
	if err := s.db.InsertUser(r.Context(), user); err != nil {
		if errors.Is(err, database.ErrDuplicateUser) {
			respondError(w, r, http.StatusConflict, codeConflict, "Username or email already registered")
			return
		}
		logging.Ctx(r.Context()).Error().Err(err).Msg("User insert failed")
		respondError(w, r, http.StatusInternalServerError, codeDatabase, "Registration failed")
		return
	}

	logging.Ctx(r.Context()).Info().Str("user_id", user.ID.String()).Msg("Account registered")
	respondJSON(w, r, http.StatusCreated, user)
}

// handleLogin checks credentials and issues an access token.
// POST /api/v1/auth/login
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if !s.loginLimiter.Allow(r) {
		respondError(w, r, http.StatusTooManyRequests, codeRateLimited, "Too many login attempts, slow down")
		return
	}

	var req loginRequest
	if err := decodeJSONBody(r, &req); err != nil {
		var ve *validation.RequestValidationError
		if errors.As(err, &ve) {
			respondValidationError(w, r, ve)
			return
		}
		respondError(w, r, http.StatusBadRequest, codeValidation, err.Error())
		return
	}

	user, err := s.db.GetUserByEmail(r.Context(), req.Email)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			respondError(w, r, http.StatusUnauthorized, codeUnauthorized, "Invalid credentials")
			return
		}
		logging.Ctx(r.Context()).Error().Err(err).Msg("User lookup failed")
		respondError(w, r, http.StatusInternalServerError, codeDatabase, "Login failed")
		return
	}
	if !auth.CheckPassword(user.HashedPassword, req.Password) {
		respondError(w, r, http.StatusUnauthorized, codeUnauthorized, "Invalid credentials")
		return
	}

	token, err := s.tokens.IssueToken(user.ID)
	if err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Msg("Token issuance failed")
		respondError(w, r, http.StatusInternalServerError, codeDatabase, "Login failed")
		return
	}

	respondJSON(w, r, http.StatusOK, models.TokenResponse{
		AccessToken: token,
		TokenType:   "bearer",
	})
}
