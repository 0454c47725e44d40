// Rhythmix - Media Catalog and Personalization Server
// Copyright 2026 Rhythmix contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/rhythmix/rhythmix

// Package storage persists uploaded media files on local disk. Files are
// stored under random UUID names so uploads can never collide or traverse
// outside the upload directory; the original filename survives only as the
// extension.
package storage

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/rhythmix/rhythmix/internal/config"
)

// FileStore writes uploads into a flat directory and serves them back by
// their public URL path.
type FileStore struct {
	dir      string
	maxBytes int64
}

// New creates the upload directory if needed.
func New(cfg *config.StorageConfig) (*FileStore, error) {
	if err := os.MkdirAll(cfg.UploadDir, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create upload directory %s: %w", cfg.UploadDir, err)
	}
	return &FileStore{dir: cfg.UploadDir, maxBytes: cfg.MaxUploadBytes}, nil
}

// ErrTooLarge indicates an upload exceeding the configured size limit.
var ErrTooLarge = errors.New("upload exceeds size limit")

// Save streams an upload to disk under a fresh UUID name, preserving the
// original extension (lower-cased). Returns the public URL path for the
// stored file. Writes beyond the size limit abort with ErrTooLarge and the
// partial file is removed.
func (s *FileStore) Save(src io.Reader, originalName string) (string, error) {
	name := uuid.NewString() + sanitizeExt(originalName)
	path := filepath.Join(s.dir, name)

	dst, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o640)
	if err != nil {
		return "", fmt.Errorf("failed to create media file: %w", err)
	}

	written, err := io.Copy(dst, io.LimitReader(src, s.maxBytes+1))
	closeErr := dst.Close()
	if err == nil && written > s.maxBytes {
		err = ErrTooLarge
	}
	if err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(path)
		if errors.Is(err, ErrTooLarge) {
			return "", err
		}
		return "", fmt.Errorf("failed to write media file: %w", err)
	}

	return "/media/" + name, nil
}

// Open resolves a public URL path back to the stored file. Paths that do not
// resolve inside the upload directory are rejected.
func (s *FileStore) Open(urlPath string) (*os.File, error) {
	name := strings.TrimPrefix(urlPath, "/media/")
	if name == "" || name != filepath.Base(name) {
		return nil, fmt.Errorf("invalid media path %q", urlPath)
	}
	return os.Open(filepath.Join(s.dir, name))
}

// Remove deletes a stored file by its public URL path. Missing files are not
// an error.
func (s *FileStore) Remove(urlPath string) error {
	name := strings.TrimPrefix(urlPath, "/media/")
	if name == "" || name != filepath.Base(name) {
		return fmt.Errorf("invalid media path %q", urlPath)
	}
	if err := os.Remove(filepath.Join(s.dir, name)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove media file: %w", err)
	}
	return nil
}

// Dir returns the upload directory, for static file serving.
func (s *FileStore) Dir() string {
	return s.dir
}

// sanitizeExt returns a safe lower-cased extension from an arbitrary
// client-supplied filename, or "" when none is usable.
func sanitizeExt(name string) string {
	ext := strings.ToLower(filepath.Ext(filepath.Base(name)))
	if len(ext) < 2 || len(ext) > 10 {
		return ""
	}
	for _, r := range ext[1:] {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') {
			return ""
		}
	}
	return ext
}
