// Rhythmix - Media Catalog and Personalization Server
// Copyright 2026 Rhythmix contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/rhythmix/rhythmix

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/rhythmix/rhythmix/internal/metrics"
	"github.com/rhythmix/rhythmix/internal/models"
)

// InsertPlaylist creates a playlist owned by the given user, with its
// initial members (playlist.TrackIDs, which may be empty) in slice order.
// The playlist row and its memberships commit atomically.
func (db *DB) InsertPlaylist(ctx context.Context, playlist *models.Playlist) error {
	start := time.Now()
	err := db.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO playlists (id, name, description, owner_id, created_at)
			VALUES (?, ?, ?, ?, ?)`,
			playlist.ID.String(), playlist.Name, nullableString(playlist.Description),
			playlist.OwnerID.String(), playlist.CreatedAt); err != nil {
			return err
		}
		return insertPlaylistTracks(ctx, tx, playlist.ID, playlist.TrackIDs)
	})
	metrics.RecordDBQuery("insert_playlist", time.Since(start), err)
	if err != nil {
		return fmt.Errorf("failed to insert playlist: %w", err)
	}
	return nil
}

// UpdatePlaylist renames and re-describes a playlist and replaces its member
// set with playlist.TrackIDs, atomically.
func (db *DB) UpdatePlaylist(ctx context.Context, playlist *models.Playlist) error {
	start := time.Now()
	err := db.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `
			UPDATE playlists
			SET name = ?, description = ?, updated_at = ?
			WHERE id = ?`,
			playlist.Name, nullableString(playlist.Description),
			playlist.UpdatedAt, playlist.ID.String()); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM playlist_tracks WHERE playlist_id = ?`,
			playlist.ID.String()); err != nil {
			return err
		}
		return insertPlaylistTracks(ctx, tx, playlist.ID, playlist.TrackIDs)
	})
	metrics.RecordDBQuery("update_playlist", time.Since(start), err)
	if err != nil {
		return fmt.Errorf("failed to update playlist: %w", err)
	}
	return nil
}

// GetPlaylist fetches a playlist with its track IDs in position order.
// Returns ErrNotFound when no playlist matches.
func (db *DB) GetPlaylist(ctx context.Context, id uuid.UUID) (*models.Playlist, error) {
	start := time.Now()
	row := db.conn.QueryRowContext(ctx, `
		SELECT id, name, description, owner_id, created_at, updated_at
		FROM playlists
		WHERE id = ?`, id.String())

	var (
		playlist          models.Playlist
		idStr, ownerIDStr string
		description       sql.NullString
	)
	err := row.Scan(&idStr, &playlist.Name, &description, &ownerIDStr, &playlist.CreatedAt, &playlist.UpdatedAt)
	metrics.RecordDBQuery("get_playlist", time.Since(start), err)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get playlist: %w", err)
	}
	if playlist.ID, err = parseUUID(idStr); err != nil {
		return nil, fmt.Errorf("invalid playlist id %q: %w", idStr, err)
	}
	if playlist.OwnerID, err = parseUUID(ownerIDStr); err != nil {
		return nil, fmt.Errorf("invalid owner id %q: %w", ownerIDStr, err)
	}
	playlist.Description = description.String

	playlist.TrackIDs, err = db.playlistTrackIDs(ctx, id)
	if err != nil {
		return nil, err
	}
	return &playlist, nil
}

// ListPlaylists returns all playlists owned by a user, without member tracks.
func (db *DB) ListPlaylists(ctx context.Context, ownerID uuid.UUID) ([]models.Playlist, error) {
	start := time.Now()
	rows, err := db.conn.QueryContext(ctx, `
		SELECT id, name, description, owner_id, created_at, updated_at
		FROM playlists
		WHERE owner_id = ?
		ORDER BY created_at, id`, ownerID.String())
	metrics.RecordDBQuery("list_playlists", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("failed to list playlists: %w", err)
	}
	defer closeWithLog(rows, "playlist rows")

	playlists := make([]models.Playlist, 0)
	for rows.Next() {
		var (
			playlist          models.Playlist
			idStr, ownerIDStr string
			description       sql.NullString
		)
		if err := rows.Scan(&idStr, &playlist.Name, &description, &ownerIDStr, &playlist.CreatedAt, &playlist.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan playlist row: %w", err)
		}
		playlist.Description = description.String
		if playlist.ID, err = parseUUID(idStr); err != nil {
			return nil, fmt.Errorf("invalid playlist id %q: %w", idStr, err)
		}
		if playlist.OwnerID, err = parseUUID(ownerIDStr); err != nil {
			return nil, fmt.Errorf("invalid owner id %q: %w", ownerIDStr, err)
		}
		playlists = append(playlists, playlist)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("playlist row iteration failed: %w", err)
	}
	return playlists, nil
}

// AddTrackToPlaylist appends a track at the next position. Re-adding a track
// already in the playlist is a no-op.
func (db *DB) AddTrackToPlaylist(ctx context.Context, playlistID, trackID uuid.UUID) error {
	start := time.Now()
	_, err := db.conn.ExecContext(ctx, `
		INSERT INTO playlist_tracks (playlist_id, track_id, position)
		SELECT ?, ?, COALESCE(MAX(position), -1) + 1
		FROM playlist_tracks
		WHERE playlist_id = ?`,
		playlistID.String(), trackID.String(), playlistID.String())
	metrics.RecordDBQuery("add_playlist_track", time.Since(start), err)
	if err != nil {
		if isUniqueViolation(err) {
			return nil
		}
		return fmt.Errorf("failed to add track to playlist: %w", err)
	}
	return nil
}

// RemoveTrackFromPlaylist removes a track from a playlist. Removing a track
// that is not a member is a no-op.
func (db *DB) RemoveTrackFromPlaylist(ctx context.Context, playlistID, trackID uuid.UUID) error {
	start := time.Now()
	_, err := db.conn.ExecContext(ctx, `
		DELETE FROM playlist_tracks
		WHERE playlist_id = ? AND track_id = ?`,
		playlistID.String(), trackID.String())
	metrics.RecordDBQuery("remove_playlist_track", time.Since(start), err)
	if err != nil {
		return fmt.Errorf("failed to remove track from playlist: %w", err)
	}
	return nil
}

// DeletePlaylist removes a playlist and its memberships atomically.
func (db *DB) DeletePlaylist(ctx context.Context, id uuid.UUID) error {
	start := time.Now()
	err := db.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM playlist_tracks WHERE playlist_id = ?`, id.String()); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx,
			`DELETE FROM playlists WHERE id = ?`, id.String())
		return err
	})
	metrics.RecordDBQuery("delete_playlist", time.Since(start), err)
	if err != nil {
		return fmt.Errorf("failed to delete playlist: %w", err)
	}
	return nil
}

// insertPlaylistTracks inserts memberships with positions following slice
// order. The caller dedupes IDs; the composite primary key backstops it.
func insertPlaylistTracks(ctx context.Context, tx *sql.Tx, playlistID uuid.UUID, trackIDs []uuid.UUID) error {
	for i, trackID := range trackIDs {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO playlist_tracks (playlist_id, track_id, position)
			VALUES (?, ?, ?)`,
			playlistID.String(), trackID.String(), i); err != nil {
			return err
		}
	}
	return nil
}

func (db *DB) playlistTrackIDs(ctx context.Context, playlistID uuid.UUID) ([]uuid.UUID, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT track_id
		FROM playlist_tracks
		WHERE playlist_id = ?
		ORDER BY position`, playlistID.String())
	if err != nil {
		return nil, fmt.Errorf("failed to query playlist tracks: %w", err)
	}
	defer closeWithLog(rows, "playlist track rows")

	ids := make([]uuid.UUID, 0)
	for rows.Next() {
		var idStr string
		if err := rows.Scan(&idStr); err != nil {
			return nil, fmt.Errorf("failed to scan playlist track row: %w", err)
		}
		id, err := parseUUID(idStr)
		if err != nil {
			return nil, fmt.Errorf("invalid track id %q: %w", idStr, err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("playlist track iteration failed: %w", err)
	}
	return ids, nil
}
