// Rhythmix - Media Catalog and Personalization Server
// Copyright 2026 Rhythmix contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/rhythmix/rhythmix

// Package main is the entry point for the Rhythmix server.
//
// Rhythmix is a self-hosted media catalog server with filtered search and
// history-based recommendations. Users upload tracks with free-form metadata
// (genre, mood, comma-separated tags), record plays, and get back catalog
// items matching the genres and tags of their recent listening.
//
// The server initializes components in the following order:
//
//  1. Configuration: layered Koanf v2 sources (defaults, config.yaml, env)
//  2. Logging: global zerolog logger
//  3. Database: DuckDB schema and indexes
//  4. Media storage: upload directory for audio files
//  5. Auth: JWT token manager and login rate limiter
//  6. HTTP server: chi router with the REST API under /api/v1
//
// Configuration is loaded via Koanf v2 with layered sources (highest
// priority wins): environment variables, config file, built-in defaults.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rhythmix/rhythmix/internal/api"
	"github.com/rhythmix/rhythmix/internal/auth"
	"github.com/rhythmix/rhythmix/internal/config"
	"github.com/rhythmix/rhythmix/internal/database"
	"github.com/rhythmix/rhythmix/internal/logging"
	"github.com/rhythmix/rhythmix/internal/recommend"
	"github.com/rhythmix/rhythmix/internal/storage"
)

func main() {
	if err := run(); err != nil {
		logging.Error().Err(err).Msg("Server exited with error")
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	})
	logging.Info().
		Str("db_path", cfg.Database.Path).
		Int("port", cfg.Server.Port).
		Msg("Starting Rhythmix server")

	db, err := database.New(&cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			logging.Error().Err(err).Msg("Database close failed")
		}
	}()

	files, err := storage.New(&cfg.Storage)
	if err != nil {
		return fmt.Errorf("failed to initialize media storage: %w", err)
	}

	engine := recommend.NewEngine(db, cfg.Recommend.HistoryWindow)
	tokens := auth.NewManager(&cfg.Auth)
	server := api.NewServer(cfg, db, engine, tokens, files)

	httpServer := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:           server.Router(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.Server.Timeout,
		WriteTimeout:      cfg.Server.Timeout,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logging.Info().Str("addr", httpServer.Addr).Msg("HTTP server listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("http server failed: %w", err)
	case sig := <-stop:
		logging.Info().Str("signal", sig.String()).Msg("Shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}

	logging.Info().Msg("Server stopped")
	return nil
}
