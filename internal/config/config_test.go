// Rhythmix - Media Catalog and Personalization Server
// Copyright 2026 Rhythmix contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/rhythmix/rhythmix

package config

import (
	"strings"
	"testing"
)

// validConfig returns a config that passes Validate, for mutation in tests.
func validConfig() *Config {
	cfg := defaultConfig()
	cfg.Auth.JWTSecret = strings.Repeat("s", 32)
	return cfg
}

func TestDefaultConfigValues(t *testing.T) {
	cfg := defaultConfig()

	if cfg.API.DefaultPageSize != 10 {
		t.Errorf("expected default page size 10, got %d", cfg.API.DefaultPageSize)
	}
	if cfg.API.MaxPageSize != 100 {
		t.Errorf("expected max page size 100, got %d", cfg.API.MaxPageSize)
	}
	if cfg.Recommend.HistoryWindow != 20 {
		t.Errorf("expected history window 20, got %d", cfg.Recommend.HistoryWindow)
	}
	if cfg.Recommend.DefaultLimit != 10 {
		t.Errorf("expected recommend default limit 10, got %d", cfg.Recommend.DefaultLimit)
	}
}

func TestValidateAcceptsValidConfig(t *testing.T) {
	if err := validConfig().Validate(); err != nil {
		t.Errorf("expected valid config, got %v", err)
	}
}

func TestValidateRejectsShortJWTSecret(t *testing.T) {
	cfg := validConfig()
	cfg.Auth.JWTSecret = "short"

	err := cfg.Validate()
	if err == nil || !strings.Contains(err.Error(), "jwt_secret") {
		t.Errorf("expected jwt_secret error, got %v", err)
	}
}

func TestValidateRejectsBadPort(t *testing.T) {
	cfg := validConfig()
	cfg.Server.Port = 0

	if err := cfg.Validate(); err == nil {
		t.Error("expected error for port 0")
	}
}

func TestValidateRejectsPageSizeAboveMax(t *testing.T) {
	cfg := validConfig()
	cfg.API.DefaultPageSize = 500

	if err := cfg.Validate(); err == nil {
		t.Error("expected error for default page size above max")
	}
}

func TestValidateRejectsZeroHistoryWindow(t *testing.T) {
	cfg := validConfig()
	cfg.Recommend.HistoryWindow = 0

	if err := cfg.Validate(); err == nil {
		t.Error("expected error for zero history window")
	}
}

func TestEnvTransformFunc(t *testing.T) {
	tests := []struct {
		env  string
		want string
	}{
		{"JWT_SECRET", "auth.jwt_secret"},
		{"DUCKDB_PATH", "database.path"},
		{"HTTP_PORT", "server.port"},
		{"CORS_ORIGINS", "api.cors_origins"},
		{"RECOMMEND_HISTORY_WINDOW", "recommend.history_window"},
		{"PATH", ""},
		{"HOME", ""},
	}

	for _, tt := range tests {
		if got := envTransformFunc(tt.env); got != tt.want {
			t.Errorf("envTransformFunc(%q) = %q, want %q", tt.env, got, tt.want)
		}
	}
}

func TestLoadWithEnvOverride(t *testing.T) {
	t.Setenv("JWT_SECRET", strings.Repeat("x", 32))
	t.Setenv("DUCKDB_PATH", ":memory:")
	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("CORS_ORIGINS", "http://a.example, http://b.example")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Server.Port != 9090 {
		t.Errorf("expected port 9090, got %d", cfg.Server.Port)
	}
	if cfg.Database.Path != ":memory:" {
		t.Errorf("expected :memory: path, got %s", cfg.Database.Path)
	}
	if len(cfg.API.CORSOrigins) != 2 || cfg.API.CORSOrigins[1] != "http://b.example" {
		t.Errorf("expected parsed CORS origins, got %v", cfg.API.CORSOrigins)
	}
}
