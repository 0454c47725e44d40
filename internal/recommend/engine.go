// Rhythmix - Media Catalog and Personalization Server
// Copyright 2026 Rhythmix contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/rhythmix/rhythmix

package recommend

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/rhythmix/rhythmix/internal/logging"
	"github.com/rhythmix/rhythmix/internal/metrics"
	"github.com/rhythmix/rhythmix/internal/models"
)

// Store is the catalog access the engine needs. *database.DB satisfies it.
type Store interface {
	// RecentHistory returns the user's most recent plays, newest first,
	// up to limit entries.
	RecentHistory(ctx context.Context, userID uuid.UUID, limit int) ([]HistoryItem, error)

	// CatalogHead returns the first limit tracks in catalog order.
	CatalogHead(ctx context.Context, limit int) ([]models.Track, error)

	// Candidates returns up to limit tracks matching the profile, with the
	// given track IDs excluded, in catalog order.
	Candidates(ctx context.Context, profile FeatureProfile, exclude []uuid.UUID, limit int) ([]models.Track, error)
}

// Engine produces per-user recommendations from recent listening history.
type Engine struct {
	store         Store
	historyWindow int
}

// NewEngine creates an Engine reading at most historyWindow recent plays per
// request.
func NewEngine(store Store, historyWindow int) *Engine {
	return &Engine{store: store, historyWindow: historyWindow}
}

// Recommend returns up to limit tracks for the user.
//
// A user with no listening history gets the cold-start result: the first
// limit catalog items. Otherwise the engine profiles the recent window,
// excludes every track in it (so a track heard once twenty plays ago can
// reappear once it ages out), and fetches matching candidates. A window whose
// tracks carry no genre or tags yields an empty result, never the whole
// catalog. Fewer than limit matches is not an error; the result is simply
// shorter, possibly empty.
func (e *Engine) Recommend(ctx context.Context, userID uuid.UUID, limit int) ([]models.Track, error) {
	log := logging.Ctx(ctx)

	window, err := e.store.RecentHistory(ctx, userID, e.historyWindow)
	if err != nil {
		return nil, fmt.Errorf("failed to load listening history: %w", err)
	}

	if len(window) == 0 {
		metrics.RecommendColdStarts.Inc()
		log.Debug().Str("user_id", userID.String()).Msg("No history, serving cold-start recommendations")
		tracks, err := e.store.CatalogHead(ctx, limit)
		if err != nil {
			return nil, fmt.Errorf("failed to load cold-start tracks: %w", err)
		}
		return tracks, nil
	}

	profile := BuildProfile(window)
	if profile.IsEmpty() {
		metrics.RecommendEmptyProfiles.Inc()
		log.Debug().Str("user_id", userID.String()).Int("window", len(window)).
			Msg("History carries no features, returning empty recommendations")
		return []models.Track{}, nil
	}

	exclude := make([]uuid.UUID, len(window))
	for i, item := range window {
		exclude[i] = item.TrackID
	}

	tracks, err := e.store.Candidates(ctx, profile, exclude, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to load candidates: %w", err)
	}

	log.Debug().
		Str("user_id", userID.String()).
		Int("window", len(window)).
		Int("genres", len(profile.GenreTokens())).
		Int("tags", len(profile.TagTokens())).
		Int("results", len(tracks)).
		Msg("Recommendations computed")
	return tracks, nil
}
