// Rhythmix - Media Catalog and Personalization Server
// Copyright 2026 Rhythmix contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/rhythmix/rhythmix

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/rhythmix/rhythmix/internal/metrics"
	"github.com/rhythmix/rhythmix/internal/models"
)

// ErrDuplicateUser indicates a username or email collision on registration.
var ErrDuplicateUser = errors.New("username or email already registered")

// InsertUser persists a new account. Returns ErrDuplicateUser when the
// username or email is already taken.
func (db *DB) InsertUser(ctx context.Context, user *models.User) error {
	start := time.Now()
	_, err := db.conn.ExecContext(ctx, `
		INSERT INTO users (id, username, email, hashed_password, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		user.ID.String(), user.Username, user.Email, user.HashedPassword, user.CreatedAt)
	metrics.RecordDBQuery("insert_user", time.Since(start), err)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateUser
		}
		return fmt.Errorf("failed to insert user: %w", err)
	}
	return nil
}

// GetUserByEmail fetches an account by email for login.
// Returns ErrNotFound when no account matches.
func (db *DB) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return db.getUser(ctx, "email = ?", email)
}

// GetUserByID fetches an account by primary key.
// Returns ErrNotFound when no account matches.
func (db *DB) GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return db.getUser(ctx, "id = ?", id.String())
}

func (db *DB) getUser(ctx context.Context, condition string, arg interface{}) (*models.User, error) {
	start := time.Now()
	row := db.conn.QueryRowContext(ctx, fmt.Sprintf(`
		SELECT id, username, email, hashed_password, created_at
		FROM users
		WHERE %s`, condition), arg)

	var (
		user  models.User
		idStr string
	)
	err := row.Scan(&idStr, &user.Username, &user.Email, &user.HashedPassword, &user.CreatedAt)
	metrics.RecordDBQuery("get_user", time.Since(start), err)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	user.ID, err = parseUUID(idStr)
	if err != nil {
		return nil, fmt.Errorf("invalid user id %q: %w", idStr, err)
	}
	return &user, nil
}

// isUniqueViolation detects DuckDB constraint errors without depending on
// driver-specific error types.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique") || strings.Contains(msg, "constraint")
}
