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

// InsertTrack persists a new catalog entry. The caller supplies ID and
// CreatedAt; optional text fields stored as empty strings are written as NULL
// so absent and empty metadata are indistinguishable on read.
func (db *DB) InsertTrack(ctx context.Context, track *models.Track) error {
	start := time.Now()
	_, err := db.conn.ExecContext(ctx, `
		INSERT INTO tracks (id, title, artist, genre, tags, mood, file_url, cover_url, uploaded_by, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		track.ID.String(),
		track.Title,
		nullableString(track.Artist),
		nullableString(track.Genre),
		nullableString(track.Tags),
		nullableString(track.Mood),
		track.FileURL,
		nullableString(track.CoverURL),
		track.UploadedBy.String(),
		track.CreatedAt,
		track.UpdatedAt,
	)
	metrics.RecordDBQuery("insert_track", time.Since(start), err)
	if err != nil {
		return fmt.Errorf("failed to insert track: %w", err)
	}
	return nil
}

// GetTrackByID fetches a single track. Returns ErrNotFound when no row
// matches.
func (db *DB) GetTrackByID(ctx context.Context, id uuid.UUID) (*models.Track, error) {
	start := time.Now()
	row := db.conn.QueryRowContext(ctx, `
		SELECT id, title, artist, genre, tags, mood, file_url, cover_url, uploaded_by, created_at, updated_at
		FROM tracks
		WHERE id = ?`, id.String())

	track, err := scanTrack(row)
	metrics.RecordDBQuery("get_track", time.Since(start), err)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get track: %w", err)
	}
	return track, nil
}

// SearchTracks executes a filtered, paginated catalog query. The same WHERE
// clause drives both the page fetch and the total count, so Total always
// reflects the full match set. Results are ordered by (created_at, id) for a
// stable page sequence.
func (db *DB) SearchTracks(ctx context.Context, filter TrackFilter, offset, limit int) (*models.PaginatedTracks, error) {
	whereClause, args := buildFilterWhereClause(filter)

	start := time.Now()
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM tracks WHERE %s", whereClause)
	var total int
	err := db.conn.QueryRowContext(ctx, countQuery, args...).Scan(&total)
	metrics.RecordDBQuery("search_tracks_count", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("failed to count tracks: %w", err)
	}

	pageQuery := fmt.Sprintf(`
		SELECT id, title, artist, genre, tags, mood, file_url, cover_url, uploaded_by, created_at, updated_at
		FROM tracks
		WHERE %s
		ORDER BY created_at, id
		LIMIT ? OFFSET ?`, whereClause)
	pageArgs := append(append([]interface{}{}, args...), limit, offset)

	start = time.Now()
	rows, err := db.conn.QueryContext(ctx, pageQuery, pageArgs...)
	metrics.RecordDBQuery("search_tracks", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("failed to search tracks: %w", err)
	}
	defer closeWithLog(rows, "search rows")

	items, err := scanTracks(rows)
	if err != nil {
		return nil, err
	}

	return &models.PaginatedTracks{
		Total: total,
		Page:  PageNumber(offset, limit),
		Size:  limit,
		Items: items,
	}, nil
}

// CatalogHead returns the first limit tracks in catalog order. Used for
// cold-start recommendations when a user has no listening history.
func (db *DB) CatalogHead(ctx context.Context, limit int) ([]models.Track, error) {
	start := time.Now()
	rows, err := db.conn.QueryContext(ctx, `
		SELECT id, title, artist, genre, tags, mood, file_url, cover_url, uploaded_by, created_at, updated_at
		FROM tracks
		ORDER BY created_at, id
		LIMIT ?`, limit)
	metrics.RecordDBQuery("catalog_head", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("failed to query catalog head: %w", err)
	}
	defer closeWithLog(rows, "catalog rows")

	return scanTracks(rows)
}

// CountTracksByIDs returns how many of the given track IDs exist in the
// catalog. Callers pass deduplicated IDs and compare against len(ids) to
// detect references to missing tracks.
func (db *DB) CountTracksByIDs(ctx context.Context, ids []uuid.UUID) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	idStrs := make([]string, len(ids))
	for i, id := range ids {
		idStrs[i] = id.String()
	}
	placeholders, args := buildInClause(idStrs)

	start := time.Now()
	var count int
	err := db.conn.QueryRowContext(ctx,
		fmt.Sprintf("SELECT COUNT(*) FROM tracks WHERE id IN (%s)", placeholders),
		args...).Scan(&count)
	metrics.RecordDBQuery("count_tracks_by_ids", time.Since(start), err)
	if err != nil {
		return 0, fmt.Errorf("failed to count tracks: %w", err)
	}
	return count, nil
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanTrack(row rowScanner) (*models.Track, error) {
	var (
		track                              models.Track
		idStr, uploadedByStr               string
		artist, genre, tags, mood, coverURL sql.NullString
	)
	err := row.Scan(&idStr, &track.Title, &artist, &genre, &tags, &mood,
		&track.FileURL, &coverURL, &uploadedByStr, &track.CreatedAt, &track.UpdatedAt)
	if err != nil {
		return nil, err
	}

	track.ID, err = parseUUID(idStr)
	if err != nil {
		return nil, fmt.Errorf("invalid track id %q: %w", idStr, err)
	}
	track.UploadedBy, err = parseUUID(uploadedByStr)
	if err != nil {
		return nil, fmt.Errorf("invalid uploader id %q: %w", uploadedByStr, err)
	}
	track.Artist = artist.String
	track.Genre = genre.String
	track.Tags = tags.String
	track.Mood = mood.String
	track.CoverURL = coverURL.String
	return &track, nil
}

func scanTracks(rows *sql.Rows) ([]models.Track, error) {
	tracks := make([]models.Track, 0)
	for rows.Next() {
		track, err := scanTrack(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan track row: %w", err)
		}
		tracks = append(tracks, *track)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("track row iteration failed: %w", err)
	}
	return tracks, nil
}

// nullableString maps empty strings to SQL NULL for optional columns.
func nullableString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
