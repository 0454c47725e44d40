// Rhythmix - Media Catalog and Personalization Server
// Copyright 2026 Rhythmix contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/rhythmix/rhythmix

package api

import (
	"bytes"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	json "github.com/goccy/go-json"

	"github.com/rhythmix/rhythmix/internal/auth"
	"github.com/rhythmix/rhythmix/internal/config"
	"github.com/rhythmix/rhythmix/internal/database"
	"github.com/rhythmix/rhythmix/internal/models"
	"github.com/rhythmix/rhythmix/internal/recommend"
	"github.com/rhythmix/rhythmix/internal/storage"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	cfg := &config.Config{
		Server: config.ServerConfig{Timeout: 10 * time.Second},
		Database: config.DatabaseConfig{
			Path:      ":memory:",
			MaxMemory: "512MB",
			Threads:   2,
		},
		Auth: config.AuthConfig{
			JWTSecret:      "0123456789abcdef0123456789abcdef",
			TokenTTL:       time.Hour,
			BcryptCost:     4,
			LoginRateLimit: 100,
		},
		API: config.APIConfig{
			DefaultPageSize: 10,
			MaxPageSize:     100,
			RateLimitReqs:   1000,
			RateLimitWindow: time.Minute,
			CORSOrigins:     []string{"*"},
		},
		Storage: config.StorageConfig{
			UploadDir:      t.TempDir(),
			MaxUploadBytes: 1 << 20,
		},
		Recommend: config.RecommendConfig{
			HistoryWindow: 20,
			DefaultLimit:  10,
		},
	}

	db, err := database.New(&cfg.Database)
	if err != nil {
		t.Fatalf("database.New() error = %v", err)
	}
	t.Cleanup(func() { db.Close() })

	files, err := storage.New(&cfg.Storage)
	if err != nil {
		t.Fatalf("storage.New() error = %v", err)
	}

	server := NewServer(cfg, db,
		recommend.NewEngine(db, cfg.Recommend.HistoryWindow),
		auth.NewManager(&cfg.Auth), files)

	ts := httptest.NewServer(server.Router())
	t.Cleanup(ts.Close)
	return ts
}

type envelope struct {
	Status string           `json:"status"`
	Data   json.RawMessage  `json:"data"`
	Error  *models.APIError `json:"error"`
}

func doJSON(t *testing.T, method, url, token string, body interface{}) (int, envelope) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	return resp.StatusCode, env
}

func registerAndLogin(t *testing.T, ts *httptest.Server, tag string) string {
	t.Helper()
	status, _ := doJSON(t, http.MethodPost, ts.URL+"/api/v1/auth/register", "", map[string]string{
		"username": "user-" + tag,
		"email":    tag + "@example.com",
		"password": "correct-horse-battery",
	})
	if status != http.StatusCreated {
		t.Fatalf("register status = %d", status)
	}
	status, env := doJSON(t, http.MethodPost, ts.URL+"/api/v1/auth/login", "", map[string]string{
		"email":    tag + "@example.com",
		"password": "correct-horse-battery",
	})
	if status != http.StatusOK {
		t.Fatalf("login status = %d", status)
	}
	var tok models.TokenResponse
	if err := json.Unmarshal(env.Data, &tok); err != nil {
		t.Fatalf("decode token: %v", err)
	}
	return tok.AccessToken
}

func uploadTrack(t *testing.T, ts *httptest.Server, token string, fields map[string]string) models.Track {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for key, value := range fields {
		if err := mw.WriteField(key, value); err != nil {
			t.Fatalf("write field: %v", err)
		}
	}
	fw, err := mw.CreateFormFile("file", "sample.mp3")
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := io.Copy(fw, strings.NewReader("fake audio")); err != nil {
		t.Fatalf("copy file: %v", err)
	}
	mw.Close()

	req, err := http.NewRequest(http.MethodPost, ts.URL+"/api/v1/tracks/", &buf)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		body, _ := io.ReadAll(resp.Body)
		t.Fatalf("upload status = %d: %s", resp.StatusCode, body)
	}
	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	var track models.Track
	if err := json.Unmarshal(env.Data, &track); err != nil {
		t.Fatalf("decode track: %v", err)
	}
	return track
}

func TestHealthEndpoint(t *testing.T) {
	ts := newTestServer(t)
	status, env := doJSON(t, http.MethodGet, ts.URL+"/api/v1/health", "", nil)
	if status != http.StatusOK || env.Status != "success" {
		t.Errorf("health = %d %q", status, env.Status)
	}
}

func TestRegisterValidationAndConflict(t *testing.T) {
	ts := newTestServer(t)

	status, env := doJSON(t, http.MethodPost, ts.URL+"/api/v1/auth/register", "", map[string]string{
		"username": "ab", // too short
		"email":    "not-an-email",
		"password": "short",
	})
	if status != http.StatusBadRequest || env.Error == nil || env.Error.Code != "VALIDATION_ERROR" {
		t.Errorf("bad register = %d %+v", status, env.Error)
	}

	register := func() (int, envelope) {
		return doJSON(t, http.MethodPost, ts.URL+"/api/v1/auth/register", "", map[string]string{
			"username": "dupuser",
			"email":    "dup@example.com",
			"password": "a-long-password",
		})
	}
	if status, _ := register(); status != http.StatusCreated {
		t.Fatalf("first register = %d", status)
	}
	status, env = register()
	if status != http.StatusConflict || env.Error == nil || env.Error.Code != "CONFLICT" {
		t.Errorf("duplicate register = %d %+v", status, env.Error)
	}
}

func TestLoginWrongPassword(t *testing.T) {
	ts := newTestServer(t)
	registerAndLogin(t, ts, "wp")

	status, env := doJSON(t, http.MethodPost, ts.URL+"/api/v1/auth/login", "", map[string]string{
		"email":    "wp@example.com",
		"password": "not-the-password",
	})
	if status != http.StatusUnauthorized || env.Error == nil || env.Error.Code != "UNAUTHORIZED" {
		t.Errorf("wrong password = %d %+v", status, env.Error)
	}
}

func TestSearchValidation(t *testing.T) {
	ts := newTestServer(t)
	tests := []struct {
		query string
	}{
		{"limit=0"},
		{"limit=101"},
		{"limit=abc"},
		{"offset=-1"},
	}
	for _, tt := range tests {
		status, env := doJSON(t, http.MethodGet, ts.URL+"/api/v1/tracks/search?"+tt.query, "", nil)
		if status != http.StatusBadRequest || env.Error == nil || env.Error.Code != "VALIDATION_ERROR" {
			t.Errorf("search?%s = %d %+v, want 400 VALIDATION_ERROR", tt.query, status, env.Error)
		}
	}
}

func TestSearchFlow(t *testing.T) {
	ts := newTestServer(t)
	token := registerAndLogin(t, ts, "search")

	uploadTrack(t, ts, token, map[string]string{"title": "Blue Monday", "genre": "Synthpop", "tags": "dance, retro"})
	uploadTrack(t, ts, token, map[string]string{"title": "Blue Train", "genre": "Jazz", "tags": "sax"})
	uploadTrack(t, ts, token, map[string]string{"title": "Red Rain", "genre": "Rock"})

	status, env := doJSON(t, http.MethodGet, ts.URL+"/api/v1/tracks/search?title=blue&genre=jazz", "", nil)
	if status != http.StatusOK {
		t.Fatalf("search status = %d", status)
	}
	var page models.PaginatedTracks
	if err := json.Unmarshal(env.Data, &page); err != nil {
		t.Fatalf("decode page: %v", err)
	}
	if page.Total != 1 || len(page.Items) != 1 || page.Items[0].Title != "Blue Train" {
		t.Errorf("page = %+v", page)
	}
	if page.Page != 1 || page.Size != 10 {
		t.Errorf("Page/Size = %d/%d, want defaults 1/10", page.Page, page.Size)
	}

	// Multi-token tags must all match.
	status, env = doJSON(t, http.MethodGet, ts.URL+"/api/v1/tracks/search?tags=dance,retro", "", nil)
	if status != http.StatusOK {
		t.Fatalf("search status = %d", status)
	}
	if err := json.Unmarshal(env.Data, &page); err != nil {
		t.Fatalf("decode page: %v", err)
	}
	if page.Total != 1 || page.Items[0].Title != "Blue Monday" {
		t.Errorf("tags search = %+v", page)
	}
}

func TestRecommendationsFlow(t *testing.T) {
	ts := newTestServer(t)
	token := registerAndLogin(t, ts, "rec")

	status, _ := doJSON(t, http.MethodGet, ts.URL+"/api/v1/tracks/recommendations", "", nil)
	if status != http.StatusUnauthorized {
		t.Errorf("unauthenticated recommendations = %d, want 401", status)
	}

	// Genres are lower case here: candidate genre matching is exact against
	// the lower-cased profile, so "Ambient" in the catalog would not match.
	seed := uploadTrack(t, ts, token, map[string]string{"title": "Heard", "genre": "ambient"})
	match := uploadTrack(t, ts, token, map[string]string{"title": "Fresh", "genre": "ambient"})
	uploadTrack(t, ts, token, map[string]string{"title": "Other", "genre": "metal"})

	// Cold start before any plays: catalog head.
	status, env := doJSON(t, http.MethodGet, ts.URL+"/api/v1/tracks/recommendations?limit=2", token, nil)
	if status != http.StatusOK {
		t.Fatalf("recommendations status = %d", status)
	}
	var tracks []models.Track
	if err := json.Unmarshal(env.Data, &tracks); err != nil {
		t.Fatalf("decode tracks: %v", err)
	}
	if len(tracks) != 2 {
		t.Fatalf("cold start returned %d tracks, want 2", len(tracks))
	}

	status, _ = doJSON(t, http.MethodPost, fmt.Sprintf("%s/api/v1/tracks/%s/play", ts.URL, seed.ID), token, nil)
	if status != http.StatusCreated {
		t.Fatalf("play status = %d", status)
	}

	status, env = doJSON(t, http.MethodGet, ts.URL+"/api/v1/tracks/recommendations", token, nil)
	if status != http.StatusOK {
		t.Fatalf("recommendations status = %d", status)
	}
	if err := json.Unmarshal(env.Data, &tracks); err != nil {
		t.Fatalf("decode tracks: %v", err)
	}
	if len(tracks) != 1 || tracks[0].ID != match.ID {
		t.Errorf("recommendations = %+v, want only the unheard ambient track", tracks)
	}
}

func TestPlayUnknownTrack(t *testing.T) {
	ts := newTestServer(t)
	token := registerAndLogin(t, ts, "play404")

	status, env := doJSON(t, http.MethodPost,
		ts.URL+"/api/v1/tracks/00000000-0000-0000-0000-000000000001/play", token, nil)
	if status != http.StatusNotFound || env.Error == nil || env.Error.Code != "NOT_FOUND" {
		t.Errorf("play unknown = %d %+v", status, env.Error)
	}

	status, env = doJSON(t, http.MethodPost, ts.URL+"/api/v1/tracks/garbage/play", token, nil)
	if status != http.StatusBadRequest || env.Error == nil || env.Error.Code != "VALIDATION_ERROR" {
		t.Errorf("play garbage id = %d %+v", status, env.Error)
	}
}

func TestPlaylistOwnership(t *testing.T) {
	ts := newTestServer(t)
	owner := registerAndLogin(t, ts, "owner")
	intruder := registerAndLogin(t, ts, "intruder")

	status, env := doJSON(t, http.MethodPost, ts.URL+"/api/v1/playlists/", owner, map[string]string{
		"name": "mine",
	})
	if status != http.StatusCreated {
		t.Fatalf("create playlist = %d", status)
	}
	var playlist models.Playlist
	if err := json.Unmarshal(env.Data, &playlist); err != nil {
		t.Fatalf("decode playlist: %v", err)
	}

	status, env = doJSON(t, http.MethodGet, ts.URL+"/api/v1/playlists/"+playlist.ID.String(), intruder, nil)
	if status != http.StatusForbidden || env.Error == nil || env.Error.Code != "FORBIDDEN" {
		t.Errorf("foreign playlist read = %d %+v", status, env.Error)
	}

	track := uploadTrack(t, ts, owner, map[string]string{"title": "For The List"})
	status, _ = doJSON(t, http.MethodPost, ts.URL+"/api/v1/playlists/"+playlist.ID.String()+"/tracks", owner,
		map[string]string{"track_id": track.ID.String()})
	if status != http.StatusCreated {
		t.Fatalf("add playlist track = %d", status)
	}

	status, env = doJSON(t, http.MethodGet, ts.URL+"/api/v1/playlists/"+playlist.ID.String(), owner, nil)
	if status != http.StatusOK {
		t.Fatalf("get playlist = %d", status)
	}
	if err := json.Unmarshal(env.Data, &playlist); err != nil {
		t.Fatalf("decode playlist: %v", err)
	}
	if len(playlist.TrackIDs) != 1 || playlist.TrackIDs[0] != track.ID {
		t.Errorf("TrackIDs = %v", playlist.TrackIDs)
	}
}

func TestCreatePlaylistWithTracks(t *testing.T) {
	ts := newTestServer(t)
	token := registerAndLogin(t, ts, "plcreate")
	trackA := uploadTrack(t, ts, token, map[string]string{"title": "First"})
	trackB := uploadTrack(t, ts, token, map[string]string{"title": "Second"})

	// A reference to a missing track fails the whole creation.
	status, env := doJSON(t, http.MethodPost, ts.URL+"/api/v1/playlists/", token, map[string]interface{}{
		"name":      "broken",
		"track_ids": []string{trackA.ID.String(), "00000000-0000-0000-0000-000000000009"},
	})
	if status != http.StatusNotFound || env.Error == nil || env.Error.Code != "NOT_FOUND" {
		t.Errorf("create with missing track = %d %+v, want 404 NOT_FOUND", status, env.Error)
	}

	status, env = doJSON(t, http.MethodPost, ts.URL+"/api/v1/playlists/", token, map[string]interface{}{
		"name":        "seeded",
		"description": "created with members",
		"track_ids":   []string{trackB.ID.String(), trackA.ID.String(), trackB.ID.String()},
	})
	if status != http.StatusCreated {
		t.Fatalf("create playlist = %d", status)
	}
	var playlist models.Playlist
	if err := json.Unmarshal(env.Data, &playlist); err != nil {
		t.Fatalf("decode playlist: %v", err)
	}
	if playlist.Description != "created with members" {
		t.Errorf("Description = %q", playlist.Description)
	}

	status, env = doJSON(t, http.MethodGet, ts.URL+"/api/v1/playlists/"+playlist.ID.String(), token, nil)
	if status != http.StatusOK {
		t.Fatalf("get playlist = %d", status)
	}
	if err := json.Unmarshal(env.Data, &playlist); err != nil {
		t.Fatalf("decode playlist: %v", err)
	}
	// Duplicate reference collapsed; creation order preserved.
	if len(playlist.TrackIDs) != 2 || playlist.TrackIDs[0] != trackB.ID || playlist.TrackIDs[1] != trackA.ID {
		t.Errorf("TrackIDs = %v, want [%s %s]", playlist.TrackIDs, trackB.ID, trackA.ID)
	}
}

func TestUpdatePlaylist(t *testing.T) {
	ts := newTestServer(t)
	token := registerAndLogin(t, ts, "plupdate")
	intruder := registerAndLogin(t, ts, "plintruder")
	trackA := uploadTrack(t, ts, token, map[string]string{"title": "Keep"})
	trackB := uploadTrack(t, ts, token, map[string]string{"title": "Swap"})

	status, env := doJSON(t, http.MethodPost, ts.URL+"/api/v1/playlists/", token, map[string]interface{}{
		"name":      "old name",
		"track_ids": []string{trackA.ID.String()},
	})
	if status != http.StatusCreated {
		t.Fatalf("create playlist = %d", status)
	}
	var playlist models.Playlist
	if err := json.Unmarshal(env.Data, &playlist); err != nil {
		t.Fatalf("decode playlist: %v", err)
	}
	playlistURL := ts.URL + "/api/v1/playlists/" + playlist.ID.String()

	// Only the owner may update.
	status, env = doJSON(t, http.MethodPut, playlistURL, intruder, map[string]interface{}{
		"name": "stolen",
	})
	if status != http.StatusForbidden || env.Error == nil || env.Error.Code != "FORBIDDEN" {
		t.Errorf("foreign update = %d %+v, want 403 FORBIDDEN", status, env.Error)
	}

	// A missing track reference rejects the whole update.
	status, env = doJSON(t, http.MethodPut, playlistURL, token, map[string]interface{}{
		"name":      "new name",
		"track_ids": []string{"00000000-0000-0000-0000-000000000009"},
	})
	if status != http.StatusNotFound || env.Error == nil || env.Error.Code != "NOT_FOUND" {
		t.Errorf("update with missing track = %d %+v, want 404 NOT_FOUND", status, env.Error)
	}

	status, env = doJSON(t, http.MethodPut, playlistURL, token, map[string]interface{}{
		"name":        "new name",
		"description": "fresh",
		"track_ids":   []string{trackB.ID.String()},
	})
	if status != http.StatusOK {
		t.Fatalf("update playlist = %d", status)
	}
	if err := json.Unmarshal(env.Data, &playlist); err != nil {
		t.Fatalf("decode playlist: %v", err)
	}
	if playlist.Name != "new name" || playlist.Description != "fresh" {
		t.Errorf("playlist = %q/%q", playlist.Name, playlist.Description)
	}
	if len(playlist.TrackIDs) != 1 || playlist.TrackIDs[0] != trackB.ID {
		t.Errorf("TrackIDs = %v, want the replaced set [%s]", playlist.TrackIDs, trackB.ID)
	}
	if playlist.UpdatedAt == nil {
		t.Error("UpdatedAt = nil after update")
	}
}

func TestMediaServing(t *testing.T) {
	ts := newTestServer(t)
	token := registerAndLogin(t, ts, "media")
	track := uploadTrack(t, ts, token, map[string]string{"title": "Streamable"})

	resp, err := http.Get(ts.URL + track.FileURL)
	if err != nil {
		t.Fatalf("get media: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("media status = %d", resp.StatusCode)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read media: %v", err)
	}
	if string(data) != "fake audio" {
		t.Errorf("media content = %q", data)
	}
}
