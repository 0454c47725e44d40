// Rhythmix - Media Catalog and Personalization Server
// Copyright 2026 Rhythmix contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/rhythmix/rhythmix

// Package recommend implements history-based track recommendations.
//
// The engine profiles a user's recent listening window, then surfaces catalog
// items sharing a genre or tag with that profile, excluding everything the
// window already contains. There is no scoring or ranking model; matching is
// binary and the result ordering is the catalog's stable (created_at, id)
// order.
package recommend

import (
	"sort"

	"github.com/google/uuid"

	"github.com/rhythmix/rhythmix/internal/models"
)

// HistoryItem is one recent play joined with the track features the profile
// is built from.
type HistoryItem struct {
	TrackID uuid.UUID
	Genre   string
	Tags    string
}

// FeatureProfile is the taste summary of a listening window: the set of
// genres and the set of tag tokens seen, both normalized to lower case.
// Frequency is not tracked; a genre heard once weighs the same as one heard
// nineteen times.
type FeatureProfile struct {
	genres models.TagSet
	tags   models.TagSet
}

// BuildProfile derives a FeatureProfile from a listening window. Tracks with
// no genre contribute no genre; tags are split on commas and trimmed, so
// overlapping tokens across tracks collapse into one set member.
func BuildProfile(window []HistoryItem) FeatureProfile {
	profile := FeatureProfile{
		genres: make(models.TagSet),
		tags:   make(models.TagSet),
	}
	for _, item := range window {
		profile.genres.Add(item.Genre)
		for _, token := range models.ParseTags(item.Tags) {
			profile.tags.Add(token)
		}
	}
	return profile
}

// IsEmpty reports whether the profile carries no usable features. An empty
// profile must never match the whole catalog.
func (p FeatureProfile) IsEmpty() bool {
	return len(p.genres) == 0 && len(p.tags) == 0
}

// GenreTokens returns the profile's genres, sorted for deterministic query
// construction.
func (p FeatureProfile) GenreTokens() []string {
	return sortedTokens(p.genres)
}

// TagTokens returns the profile's tag tokens, sorted for deterministic query
// construction.
func (p FeatureProfile) TagTokens() []string {
	return sortedTokens(p.tags)
}

// HasGenre reports whether the normalized genre is in the profile.
func (p FeatureProfile) HasGenre(genre string) bool {
	return p.genres.Contains(genre)
}

// HasTag reports whether the normalized tag token is in the profile.
func (p FeatureProfile) HasTag(token string) bool {
	return p.tags.Contains(token)
}

func sortedTokens(set models.TagSet) []string {
	tokens := set.Tokens()
	sort.Strings(tokens)
	return tokens
}
