// Rhythmix - Media Catalog and Personalization Server
// Copyright 2026 Rhythmix contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/rhythmix/rhythmix

package database

import (
	"strings"

	"github.com/rhythmix/rhythmix/internal/models"
)

// TrackFilter contains the optional search parameters for catalog queries.
//
// All fields are optional; an empty field imposes no constraint (it is not an
// empty-string match). Present fields combine with AND:
//
//   - Title, Artist, Genre, Mood: case-insensitive substring match on the
//     corresponding column.
//   - Tags: comma-separated tokens; each token is a separate case-insensitive
//     substring match against the tags column, and the tokens are AND-ed — an
//     item must contain every listed token. This is deliberate: searching
//     "fast,loud" returns only items tagged both fast and loud.
//
// The same conditions drive both the page query and the total-count query, so
// Total always reflects the full match set regardless of Offset/Limit.
//
// TrackFilter is immutable after creation and safe for concurrent use.
type TrackFilter struct {
	Title  string
	Artist string
	Genre  string
	Mood   string
	Tags   string
}

// tagMatchMode selects how multiple tag tokens combine in a WHERE clause.
// Search requires every token (AND); recommendations accept any token (OR).
// Keeping the asymmetry as a parameter makes it a tested property instead of
// duplicated inline logic.
type tagMatchMode int

const (
	matchAllTags tagMatchMode = iota
	matchAnyTags
)

// buildTrackFilterConditions builds WHERE conditions and args from a
// TrackFilter. The returned conditions are AND-ed by the caller; an empty
// slice means no constraint.
func buildTrackFilterConditions(filter TrackFilter) ([]string, []interface{}) {
	var conditions []string
	var args []interface{}

	appendSubstringClause := func(column, value string) {
		if value == "" {
			return
		}
		conditions = append(conditions, column+" ILIKE ?")
		args = append(args, "%"+value+"%")
	}

	appendSubstringClause("title", filter.Title)
	appendSubstringClause("artist", filter.Artist)
	appendSubstringClause("genre", filter.Genre)
	appendSubstringClause("mood", filter.Mood)

	if tagClause, tagArgs := buildTagConditions(models.ParseTags(filter.Tags), matchAllTags); tagClause != "" {
		conditions = append(conditions, tagClause)
		args = append(args, tagArgs...)
	}

	return conditions, args
}

// buildTagConditions builds a tags-column condition from parsed tokens.
// Each token becomes a case-insensitive substring predicate; mode selects
// whether tokens are AND-ed (search) or OR-ed (recommendation candidates).
// Returns ("", nil) when there are no tokens.
func buildTagConditions(tokens []string, mode tagMatchMode) (string, []interface{}) {
	if len(tokens) == 0 {
		return "", nil
	}

	clauses := make([]string, len(tokens))
	args := make([]interface{}, len(tokens))
	for i, token := range tokens {
		clauses[i] = "tags ILIKE ?"
		args[i] = "%" + token + "%"
	}

	if len(clauses) == 1 {
		return clauses[0], args
	}

	sep := " AND "
	if mode == matchAnyTags {
		sep = " OR "
	}
	return "(" + strings.Join(clauses, sep) + ")", args
}

// buildInClause creates a parameterized IN clause placeholder list.
//
//	placeholders, args := buildInClause([]string{"rock", "jazz"})
//	// placeholders = "?,?"  args = ["rock", "jazz"]
func buildInClause(items []string) (string, []interface{}) {
	placeholders := make([]string, len(items))
	args := make([]interface{}, len(items))
	for i, item := range items {
		placeholders[i] = "?"
		args[i] = item
	}
	return strings.Join(placeholders, ","), args
}

// buildFilterWhereClause wraps buildTrackFilterConditions into a single WHERE
// clause string with a "1=1" base for safe concatenation.
//
//	whereClause, args := buildFilterWhereClause(filter)
//	query := fmt.Sprintf("SELECT * FROM tracks WHERE %s", whereClause)
func buildFilterWhereClause(filter TrackFilter) (string, []interface{}) {
	conditions, args := buildTrackFilterConditions(filter)
	if len(conditions) == 0 {
		return "1=1", args
	}
	return "1=1 AND " + strings.Join(conditions, " AND "), args
}

// PageNumber derives the 1-based display page from offset and limit.
// This mirrors the original behavior faithfully: the value is offset/limit+1
// even when offset is not a multiple of limit, so it can disagree with the
// actual window. It is a display value only and never drives the fetch.
func PageNumber(offset, limit int) int {
	if limit <= 0 {
		return 1
	}
	return offset/limit + 1
}
