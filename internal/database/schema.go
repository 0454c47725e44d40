// Rhythmix - Media Catalog and Personalization Server
// Copyright 2026 Rhythmix contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/rhythmix/rhythmix

package database

import (
	"context"
	"fmt"
	"time"
)

// schemaContext returns a context with timeout for schema operations.
func schemaContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 60*time.Second)
}

// createTables creates the core database tables.
func (db *DB) createTables() error {
	ctx, cancel := schemaContext()
	defer cancel()

	queries := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id UUID PRIMARY KEY,
			username TEXT NOT NULL UNIQUE,
			email TEXT NOT NULL UNIQUE,
			hashed_password TEXT NOT NULL,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS tracks (
			id UUID PRIMARY KEY,
			title TEXT NOT NULL,
			artist TEXT,
			genre TEXT,
			tags TEXT,
			mood TEXT,
			file_url TEXT NOT NULL,
			cover_url TEXT,
			uploaded_by UUID NOT NULL,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS play_history (
			id UUID PRIMARY KEY,
			user_id UUID NOT NULL,
			track_id UUID NOT NULL,
			played_at TIMESTAMP NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS playlists (
			id UUID PRIMARY KEY,
			name TEXT NOT NULL,
			description TEXT,
			owner_id UUID NOT NULL,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS playlist_tracks (
			playlist_id UUID NOT NULL,
			track_id UUID NOT NULL,
			position INTEGER NOT NULL,
			PRIMARY KEY (playlist_id, track_id)
		)`,
	}

	for _, query := range queries {
		if _, err := db.conn.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("failed to execute query: %s: %w", query, err)
		}
	}

	return nil
}

// createIndexes creates indexes for frequently filtered columns.
func (db *DB) createIndexes() error {
	ctx, cancel := schemaContext()
	defer cancel()

	queries := []string{
		`CREATE INDEX IF NOT EXISTS idx_tracks_created ON tracks (created_at, id)`,
		`CREATE INDEX IF NOT EXISTS idx_tracks_genre ON tracks (genre)`,
		`CREATE INDEX IF NOT EXISTS idx_history_user_played ON play_history (user_id, played_at)`,
		`CREATE INDEX IF NOT EXISTS idx_playlists_owner ON playlists (owner_id)`,
	}

	for _, query := range queries {
		if _, err := db.conn.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("failed to create index: %s: %w", query, err)
		}
	}

	return nil
}
