// Rhythmix - Media Catalog and Personalization Server
// Copyright 2026 Rhythmix contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/rhythmix/rhythmix

// Package api wires the HTTP surface: routing, request decoding and
// validation, response envelopes, and the handlers for auth, catalog,
// playback, playlists, and recommendations.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/rhythmix/rhythmix/internal/auth"
	"github.com/rhythmix/rhythmix/internal/config"
	"github.com/rhythmix/rhythmix/internal/database"
	"github.com/rhythmix/rhythmix/internal/middleware"
	"github.com/rhythmix/rhythmix/internal/recommend"
	"github.com/rhythmix/rhythmix/internal/storage"
)

// Server holds the handler dependencies and builds the router.
type Server struct {
	cfg          *config.Config
	db           *database.DB
	engine       *recommend.Engine
	tokens       *auth.Manager
	files        *storage.FileStore
	loginLimiter *auth.LoginLimiter
}

// NewServer wires the handlers to their dependencies.
func NewServer(cfg *config.Config, db *database.DB, engine *recommend.Engine, tokens *auth.Manager, files *storage.FileStore) *Server {
	return &Server{
		cfg:          cfg,
		db:           db,
		engine:       engine,
		tokens:       tokens,
		files:        files,
		loginLimiter: auth.NewLoginLimiter(cfg.Auth.LoginRateLimit),
	}
}

// Router builds the chi router with the full middleware stack and all
// routes mounted.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.PrometheusMetrics)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(s.cfg.Server.Timeout))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.cfg.API.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(httprate.LimitByIP(s.cfg.API.RateLimitReqs, s.cfg.API.RateLimitWindow))

	r.Get("/api/v1/health", s.handleHealth)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.Post("/register", s.handleRegister)
		r.Post("/login", s.handleLogin)
	})

	r.Route("/api/v1/tracks", func(r chi.Router) {
		r.Get("/search", s.handleSearchTracks)
		r.Get("/{id}", s.handleGetTrack)

		r.Group(func(r chi.Router) {
			r.Use(s.requireAuth())
			r.Post("/", s.handleUploadTrack)
			r.Post("/{id}/play", s.handlePlayTrack)
			r.Get("/recommendations", s.handleRecommendations)
		})
	})

	r.Route("/api/v1/playlists", func(r chi.Router) {
		r.Use(s.requireAuth())
		r.Post("/", s.handleCreatePlaylist)
		r.Get("/", s.handleListPlaylists)
		r.Get("/{id}", s.handleGetPlaylist)
		r.Put("/{id}", s.handleUpdatePlaylist)
		r.Delete("/{id}", s.handleDeletePlaylist)
		r.Post("/{id}/tracks", s.handleAddPlaylistTrack)
		r.Delete("/{id}/tracks/{trackID}", s.handleRemovePlaylistTrack)
	})

	// Stored media files are served directly from the upload directory.
	fileServer := http.StripPrefix("/media/", http.FileServer(http.Dir(s.files.Dir())))
	r.Get("/media/*", fileServer.ServeHTTP)

	return r
}

func (s *Server) requireAuth() func(http.Handler) http.Handler {
	return auth.RequireAuth(s.tokens, func(w http.ResponseWriter, r *http.Request) {
		respondError(w, r, http.StatusUnauthorized, codeUnauthorized, "Missing or invalid access token")
	})
}
