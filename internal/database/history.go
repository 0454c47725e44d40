// Rhythmix - Media Catalog and Personalization Server
// Copyright 2026 Rhythmix contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/rhythmix/rhythmix

package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/rhythmix/rhythmix/internal/metrics"
	"github.com/rhythmix/rhythmix/internal/models"
	"github.com/rhythmix/rhythmix/internal/recommend"
)

// InsertPlayHistory appends a consumption event. History is append-only;
// repeated plays each get their own row.
func (db *DB) InsertPlayHistory(ctx context.Context, entry *models.PlayHistory) error {
	start := time.Now()
	_, err := db.conn.ExecContext(ctx, `
		INSERT INTO play_history (id, user_id, track_id, played_at)
		VALUES (?, ?, ?, ?)`,
		entry.ID.String(), entry.UserID.String(), entry.TrackID.String(), entry.PlayedAt)
	metrics.RecordDBQuery("insert_play_history", time.Since(start), err)
	if err != nil {
		return fmt.Errorf("failed to insert play history: %w", err)
	}
	return nil
}

// RecentHistory returns the user's most recent plays, newest first, joined
// with the track features the recommendation engine profiles. Rows whose
// track has been deleted are skipped by the inner join.
func (db *DB) RecentHistory(ctx context.Context, userID uuid.UUID, limit int) ([]recommend.HistoryItem, error) {
	start := time.Now()
	rows, err := db.conn.QueryContext(ctx, `
		SELECT h.track_id, t.genre, t.tags
		FROM play_history h
		JOIN tracks t ON t.id = h.track_id
		WHERE h.user_id = ?
		ORDER BY h.played_at DESC
		LIMIT ?`, userID.String(), limit)
	metrics.RecordDBQuery("recent_history", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent history: %w", err)
	}
	defer closeWithLog(rows, "history rows")

	items := make([]recommend.HistoryItem, 0, limit)
	for rows.Next() {
		var (
			idStr       string
			genre, tags sql.NullString
		)
		if err := rows.Scan(&idStr, &genre, &tags); err != nil {
			return nil, fmt.Errorf("failed to scan history row: %w", err)
		}
		trackID, err := parseUUID(idStr)
		if err != nil {
			return nil, fmt.Errorf("invalid track id %q: %w", idStr, err)
		}
		items = append(items, recommend.HistoryItem{
			TrackID: trackID,
			Genre:   genre.String,
			Tags:    tags.String,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("history row iteration failed: %w", err)
	}
	return items, nil
}
