// Rhythmix - Media Catalog and Personalization Server
// Copyright 2026 Rhythmix contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/rhythmix/rhythmix

package database

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/rhythmix/rhythmix/internal/metrics"
	"github.com/rhythmix/rhythmix/internal/models"
	"github.com/rhythmix/rhythmix/internal/recommend"
)

// Candidates returns up to limit tracks matching the taste profile, excluding
// the given track IDs, in (created_at, id) order.
//
// The match predicate is genre IN (profile genres) OR any profile tag token
// as a case-insensitive substring of the tags column. Genre matching is an
// exact comparison against the lower-cased profile values: a stored genre of
// "Rock" does not match a profile genre "rock". This asymmetry with tag
// matching is intentional and preserved from the original service.
//
// An empty profile yields a guaranteed-empty result rather than the whole
// catalog.
func (db *DB) Candidates(ctx context.Context, profile recommend.FeatureProfile, exclude []uuid.UUID, limit int) ([]models.Track, error) {
	matchClause, args := buildProfileMatchClause(profile)

	var conditions []string
	conditions = append(conditions, matchClause)

	if len(exclude) > 0 {
		excludeStrs := make([]string, len(exclude))
		for i, id := range exclude {
			excludeStrs[i] = id.String()
		}
		placeholders, excludeArgs := buildInClause(excludeStrs)
		conditions = append(conditions, fmt.Sprintf("id NOT IN (%s)", placeholders))
		args = append(args, excludeArgs...)
	}

	query := fmt.Sprintf(`
		SELECT id, title, artist, genre, tags, mood, file_url, cover_url, uploaded_by, created_at, updated_at
		FROM tracks
		WHERE %s
		ORDER BY created_at, id
		LIMIT ?`, strings.Join(conditions, " AND "))
	args = append(args, limit)

	start := time.Now()
	rows, err := db.conn.QueryContext(ctx, query, args...)
	metrics.RecordDBQuery("recommend_candidates", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("failed to query candidates: %w", err)
	}
	defer closeWithLog(rows, "candidate rows")

	return scanTracks(rows)
}

// buildProfileMatchClause builds the OR predicate over profile genres and tag
// tokens. An empty profile produces a constant-false clause so the caller
// never falls through to an unfiltered scan.
func buildProfileMatchClause(profile recommend.FeatureProfile) (string, []interface{}) {
	var clauses []string
	var args []interface{}

	if genres := profile.GenreTokens(); len(genres) > 0 {
		placeholders, genreArgs := buildInClause(genres)
		clauses = append(clauses, fmt.Sprintf("genre IN (%s)", placeholders))
		args = append(args, genreArgs...)
	}

	if tagClause, tagArgs := buildTagConditions(profile.TagTokens(), matchAnyTags); tagClause != "" {
		clauses = append(clauses, tagClause)
		args = append(args, tagArgs...)
	}

	if len(clauses) == 0 {
		return "1=0", nil
	}
	return "(" + strings.Join(clauses, " OR ") + ")", args
}
