// Rhythmix - Media Catalog and Personalization Server
// Copyright 2026 Rhythmix contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/rhythmix/rhythmix

// Package database provides DuckDB-backed persistence for the Rhythmix
// catalog: tracks, users, play history, and playlists. It also compiles
// search filters into parameterized WHERE clauses (filter.go) and implements
// the recommendation engine's store interface (recommend.go).
//
// Result ordering: every user-visible result set is ordered by
// (created_at, id). This is a deliberate, documented choice — the storage
// engine's insertion order is not portable, so the catalog's creation order
// with the id as tiebreak serves as the stable "store-native order"
// throughout search, recommendations, and the cold-start fallback.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	_ "github.com/duckdb/duckdb-go/v2"
	"github.com/google/uuid"

	"github.com/rhythmix/rhythmix/internal/config"
	"github.com/rhythmix/rhythmix/internal/logging"
)

// parseUUID decodes a UUID column value scanned into a string. The DuckDB
// driver surfaces native UUID columns as their 16 raw bytes, which
// database/sql passes through as a 16-byte string; textual forms are parsed
// as usual.
func parseUUID(s string) (uuid.UUID, error) {
	if len(s) == 16 {
		return uuid.FromBytes([]byte(s))
	}
	return uuid.Parse(s)
}

// DB wraps the DuckDB connection and provides data access methods.
// All methods are safe for concurrent use; DB holds no request state.
type DB struct {
	conn *sql.DB
	cfg  *config.DatabaseConfig
}

// New opens the database and initializes the schema.
func New(cfg *config.DatabaseConfig) (*DB, error) {
	numThreads := cfg.Threads
	if numThreads <= 0 {
		numThreads = runtime.NumCPU()
	}

	// Ensure the parent directory exists for file-backed databases.
	if cfg.Path != ":memory:" {
		dbDir := filepath.Dir(cfg.Path)
		if dbDir != "" && dbDir != "." {
			if err := os.MkdirAll(dbDir, 0o750); err != nil {
				return nil, fmt.Errorf("failed to create database directory %s: %w", dbDir, err)
			}
		}
	}

	connStr := fmt.Sprintf("%s?access_mode=read_write&threads=%d&max_memory=%s",
		cfg.Path, numThreads, cfg.MaxMemory)

	conn, err := sql.Open("duckdb", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db := &DB{conn: conn, cfg: cfg}

	if err := db.createTables(); err != nil {
		closeQuietly(conn)
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	if err := db.createIndexes(); err != nil {
		closeQuietly(conn)
		return nil, fmt.Errorf("failed to create indexes: %w", err)
	}

	return db, nil
}

// Conn returns the underlying SQL connection, for packages needing direct
// access (tests, migrations).
func (db *DB) Conn() *sql.DB {
	return db.conn
}

// withTx runs fn inside a transaction, rolling back on error.
func (db *DB) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			logging.Warn().Err(rbErr).Msg("Transaction rollback failed")
		}
		return err
	}
	return tx.Commit()
}

// Ping checks if the database connection is alive.
func (db *DB) Ping(ctx context.Context) error {
	if db.conn == nil {
		return fmt.Errorf("database connection is nil")
	}
	return db.conn.PingContext(ctx)
}

// Close closes the database connection.
func (db *DB) Close() error {
	if db.conn != nil {
		return db.conn.Close()
	}
	return nil
}
