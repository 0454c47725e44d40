// Rhythmix - Media Catalog and Personalization Server
// Copyright 2026 Rhythmix contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/rhythmix/rhythmix

package api

import (
	"context"
	"net/http"
	"time"
)

// handleHealth reports liveness and database reachability.
// GET /api/v1/health
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	httpStatus := http.StatusOK

	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := s.db.Ping(ctx); err != nil {
		status = "degraded"
		httpStatus = http.StatusServiceUnavailable
	}

	respondJSON(w, r, httpStatus, map[string]string{
		"status":  status,
		"service": "rhythmix",
	})
}
