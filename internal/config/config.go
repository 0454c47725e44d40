// Rhythmix - Media Catalog and Personalization Server
// Copyright 2026 Rhythmix contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/rhythmix/rhythmix

// Package config loads and validates the Rhythmix server configuration.
//
// Configuration is layered via Koanf v2 (highest priority wins):
//  1. Built-in defaults
//  2. Config file (config.yaml, or CONFIG_PATH)
//  3. Environment variables (JWT_SECRET, DUCKDB_PATH, HTTP_PORT, ...)
package config

import (
	"fmt"
	"time"
)

// Config is the root configuration for the Rhythmix server.
type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Database  DatabaseConfig  `koanf:"database"`
	Auth      AuthConfig      `koanf:"auth"`
	API       APIConfig       `koanf:"api"`
	Storage   StorageConfig   `koanf:"storage"`
	Recommend RecommendConfig `koanf:"recommend"`
	Logging   LoggingConfig   `koanf:"logging"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host    string        `koanf:"host"`
	Port    int           `koanf:"port"`
	Timeout time.Duration `koanf:"timeout"`
}

// DatabaseConfig holds DuckDB settings.
type DatabaseConfig struct {
	// Path is the DuckDB database file, or ":memory:" for ephemeral storage.
	Path      string `koanf:"path"`
	MaxMemory string `koanf:"max_memory"`
	// Threads is the DuckDB thread count; 0 means runtime.NumCPU().
	Threads int `koanf:"threads"`
}

// AuthConfig holds token issuance and password policy settings.
// The JWT secret and algorithm are injected here rather than read from
// process-wide globals so tests and callers can supply their own.
type AuthConfig struct {
	// JWTSecret signs HS256 access tokens. Minimum 32 characters.
	JWTSecret string `koanf:"jwt_secret"`
	// TokenTTL is the access token lifetime.
	TokenTTL time.Duration `koanf:"token_ttl"`
	// BcryptCost is the bcrypt work factor for password hashing.
	BcryptCost int `koanf:"bcrypt_cost"`
	// LoginRateLimit is allowed login attempts per minute per IP.
	LoginRateLimit int `koanf:"login_rate_limit"`
}

// APIConfig holds request shaping settings.
type APIConfig struct {
	DefaultPageSize int           `koanf:"default_page_size"`
	MaxPageSize     int           `koanf:"max_page_size"`
	RateLimitReqs   int           `koanf:"rate_limit_requests"`
	RateLimitWindow time.Duration `koanf:"rate_limit_window"`
	CORSOrigins     []string      `koanf:"cors_origins"`
}

// StorageConfig holds media file storage settings.
type StorageConfig struct {
	// UploadDir is the directory where uploaded audio files are written.
	UploadDir string `koanf:"upload_dir"`
	// MaxUploadBytes caps multipart upload size.
	MaxUploadBytes int64 `koanf:"max_upload_bytes"`
}

// RecommendConfig holds recommendation engine settings.
type RecommendConfig struct {
	// HistoryWindow is the number of most recent plays used to derive the
	// feature profile. Plays older than the window never influence results.
	HistoryWindow int `koanf:"history_window"`
	// DefaultLimit is the result count when the caller does not specify one.
	DefaultLimit int `koanf:"default_limit"`
}

// LoggingConfig holds log output settings.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// defaultConfig returns a Config with all default values applied.
// Defaults are loaded first, then overridden by config file and env vars.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:    "0.0.0.0",
			Port:    8080,
			Timeout: 30 * time.Second,
		},
		Database: DatabaseConfig{
			Path:      "/data/rhythmix.duckdb",
			MaxMemory: "1GB",
			Threads:   0,
		},
		Auth: AuthConfig{
			JWTSecret:      "",
			TokenTTL:       time.Hour,
			BcryptCost:     12,
			LoginRateLimit: 5,
		},
		API: APIConfig{
			DefaultPageSize: 10,
			MaxPageSize:     100,
			RateLimitReqs:   100,
			RateLimitWindow: time.Minute,
			CORSOrigins:     []string{},
		},
		Storage: StorageConfig{
			UploadDir:      "uploads",
			MaxUploadBytes: 64 << 20,
		},
		Recommend: RecommendConfig{
			HistoryWindow: 20,
			DefaultLimit:  10,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Validate checks configuration invariants that would otherwise surface as
// confusing runtime failures.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be in [1,65535], got %d", c.Server.Port)
	}
	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}
	if len(c.Auth.JWTSecret) < 32 {
		return fmt.Errorf("auth.jwt_secret must be at least 32 characters")
	}
	if c.Auth.TokenTTL <= 0 {
		return fmt.Errorf("auth.token_ttl must be positive")
	}
	if c.API.DefaultPageSize < 1 || c.API.DefaultPageSize > c.API.MaxPageSize {
		return fmt.Errorf("api.default_page_size must be in [1,%d], got %d",
			c.API.MaxPageSize, c.API.DefaultPageSize)
	}
	if c.API.MaxPageSize < 1 {
		return fmt.Errorf("api.max_page_size must be positive")
	}
	if c.Recommend.HistoryWindow < 1 {
		return fmt.Errorf("recommend.history_window must be positive")
	}
	if c.Recommend.DefaultLimit < 1 {
		return fmt.Errorf("recommend.default_limit must be positive")
	}
	if c.Storage.UploadDir == "" {
		return fmt.Errorf("storage.upload_dir is required")
	}
	return nil
}
