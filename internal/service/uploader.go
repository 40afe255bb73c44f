// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/olegiv/ochurch/internal/imaging"
	"github.com/olegiv/ochurch/internal/util"
)

// Upload errors. Handlers show them as inline field errors.
var (
	ErrUploadTooLarge = errors.New("file is too large")
	ErrUploadType     = errors.New("only JPEG, PNG, GIF and WebP images are allowed")
	ErrUploadInvalid  = errors.New("file could not be read as an image")
)

// Upload directories under the uploads root.
const (
	UploadDirSermons   = "sermons"
	UploadDirEvents    = "events"
	UploadDirPosts     = "posts"
	UploadDirCampaigns = "campaigns"
	UploadDirSettings  = "settings"
)

// Uploader stores validated images below a base directory.
type Uploader struct {
	baseDir   string
	maxSize   int64
	processor *imaging.Processor
	now       func() time.Time
}

// NewUploader creates an uploader rooted at baseDir accepting files up to maxSize bytes.
func NewUploader(baseDir string, maxSize int64) *Uploader {
	return &Uploader{
		baseDir:   baseDir,
		maxSize:   maxSize,
		processor: imaging.NewProcessor(imaging.DefaultMaxDimension),
		now:       time.Now,
	}
}

// BaseDir returns the uploads root.
func (u *Uploader) BaseDir() string {
	return u.baseDir
}

// MaxSize returns the upload limit in bytes.
func (u *Uploader) MaxSize() int64 {
	return u.maxSize
}

// Save validates and stores an uploaded image in dir and returns its path
// relative to the uploads root, e.g. "sermons/easter-1767225600-1a2b3c4d.jpg".
// baseName is slugified for the file name.
func (u *Uploader) Save(file multipart.File, header *multipart.FileHeader, dir, baseName string) (string, error) {
	if header != nil && header.Size > u.maxSize {
		return "", ErrUploadTooLarge
	}

	// Read one byte past the limit to catch a lying Content-Length.
	data, err := io.ReadAll(io.LimitReader(file, u.maxSize+1))
	if err != nil {
		return "", fmt.Errorf("reading upload: %w", err)
	}
	if int64(len(data)) > u.maxSize {
		return "", ErrUploadTooLarge
	}
	if len(data) == 0 {
		return "", ErrUploadInvalid
	}

	if !imaging.IsAllowedType(imaging.DetectMimeType(data)) {
		return "", ErrUploadType
	}

	result, err := u.processor.Process(data)
	if err != nil {
		if errors.Is(err, imaging.ErrUnsupportedFormat) {
			return "", ErrUploadType
		}
		slog.Debug("image processing failed", "error", err)
		return "", ErrUploadInvalid
	}

	cleanDir, err := util.CleanRelativePath(dir)
	if err != nil {
		return "", fmt.Errorf("upload directory: %w", err)
	}
	targetDir, err := util.SafeJoinPath(u.baseDir, filepath.FromSlash(cleanDir))
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(targetDir, 0o755); err != nil {
		return "", fmt.Errorf("creating upload directory: %w", err)
	}

	name := u.fileName(baseName, imaging.Extension(result.MimeType))
	if err := os.WriteFile(filepath.Join(targetDir, name), result.Data, 0o644); err != nil {
		return "", fmt.Errorf("writing upload: %w", err)
	}

	return path.Join(cleanDir, name), nil
}

// Remove deletes a stored upload. Failures are logged and otherwise ignored.
func (u *Uploader) Remove(relPath string) {
	if relPath == "" {
		return
	}
	clean, err := util.CleanRelativePath(relPath)
	if err != nil {
		slog.Warn("refusing to remove upload outside uploads dir", "path", relPath)
		return
	}
	full, err := util.SafeJoinPath(u.baseDir, filepath.FromSlash(clean))
	if err != nil {
		slog.Warn("refusing to remove upload outside uploads dir", "path", relPath)
		return
	}
	if err := os.Remove(full); err != nil {
		if os.IsNotExist(err) {
			slog.Debug("upload already gone", "path", relPath)
			return
		}
		slog.Warn("failed to remove upload", "path", relPath, "error", err)
	}
}

// fileName builds "<slug>-<unix>-<8 hex>.<ext>".
func (u *Uploader) fileName(baseName, ext string) string {
	slug := util.Slugify(baseName)
	if len(slug) > 50 {
		slug = strings.TrimRight(slug[:50], "-")
	}
	if slug == "" {
		slug = "image"
	}
	random := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return fmt.Sprintf("%s-%d-%s%s", slug, u.now().Unix(), random, ext)
}
