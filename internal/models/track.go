// Rhythmix - Media Catalog and Personalization Server
// Copyright 2026 Rhythmix contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/rhythmix/rhythmix

// Package models defines the data structures shared across the Rhythmix
// server: catalog entities, play history, and the API response envelope.
package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Track represents a media item in the catalog.
//
// Tags is stored as a single comma-separated string, mirroring the external
// representation. Tag matching is therefore substring matching per token, not
// set membership: the token "pop" matches a tags field containing "poprock".
// Use ParseTags / ParseTagSet instead of splitting inline.
type Track struct {
	ID         uuid.UUID  `json:"id"`
	Title      string     `json:"title"`
	Artist     string     `json:"artist,omitempty"`
	Genre      string     `json:"genre,omitempty"`
	Tags       string     `json:"tags,omitempty"`
	Mood       string     `json:"mood,omitempty"`
	FileURL    string     `json:"file_url"`
	CoverURL   string     `json:"cover_url,omitempty"`
	UploadedBy uuid.UUID  `json:"uploaded_by"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  *time.Time `json:"updated_at,omitempty"`
}

// PlayHistory records a single consumption event. Entries are append-only;
// repeated plays of the same track each get their own entry.
type PlayHistory struct {
	ID       uuid.UUID `json:"id"`
	UserID   uuid.UUID `json:"user_id"`
	TrackID  uuid.UUID `json:"track_id"`
	PlayedAt time.Time `json:"played_at"`
}

// PaginatedTracks is the search result page. Page is a display value derived
// as offset/limit+1; the fetch itself uses offset and limit directly.
type PaginatedTracks struct {
	Total int     `json:"total"`
	Page  int     `json:"page"`
	Size  int     `json:"size"`
	Items []Track `json:"items"`
}

// TagSet is a set of normalized (lower-cased, trimmed) tag tokens.
type TagSet map[string]struct{}

// Add normalizes a token and inserts it into the set; empty tokens are dropped.
func (s TagSet) Add(token string) {
	token = strings.ToLower(strings.TrimSpace(token))
	if token != "" {
		s[token] = struct{}{}
	}
}

// Contains reports whether the normalized form of token is in the set.
func (s TagSet) Contains(token string) bool {
	_, ok := s[strings.ToLower(strings.TrimSpace(token))]
	return ok
}

// Tokens returns the set members as a slice, in unspecified order.
func (s TagSet) Tokens() []string {
	tokens := make([]string, 0, len(s))
	for t := range s {
		tokens = append(tokens, t)
	}
	return tokens
}

// ParseTags splits a comma-separated tags string into trimmed tokens,
// dropping empties. Case is preserved; matching against the store is
// case-insensitive anyway.
func ParseTags(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	tokens := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			tokens = append(tokens, p)
		}
	}
	return tokens
}

// ParseTagSet splits a comma-separated tags string into a normalized TagSet.
func ParseTagSet(s string) TagSet {
	set := make(TagSet)
	for _, token := range ParseTags(s) {
		set.Add(token)
	}
	return set
}
