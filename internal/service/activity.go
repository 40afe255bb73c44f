// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package service holds the business operations that span several queries:
// the donation ledger, the password reset flow, image uploads and the
// activity trail.
package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/olegiv/ochurch/internal/model"
	"github.com/olegiv/ochurch/internal/store"
	"github.com/olegiv/ochurch/internal/util"
)

// RequestInfo carries the request details stored with an activity entry.
type RequestInfo struct {
	IP        string
	UserAgent string
	RequestID string
}

// ActivityService records audit entries in the activity log.
type ActivityService struct {
	queries *store.Queries
}

// NewActivityService creates a new ActivityService.
func NewActivityService(db *sql.DB) *ActivityService {
	return &ActivityService{
		queries: store.New(db),
	}
}

// Log creates an activity entry. Request details are merged into metadata.
func (s *ActivityService) Log(ctx context.Context, level, category, message string, adminID int64, req RequestInfo, metadata map[string]any) error {
	meta := make(map[string]any, len(metadata)+4)
	for k, v := range metadata {
		meta[k] = v
	}
	if req.IP != "" {
		meta["ip"] = req.IP
	}
	if req.RequestID != "" {
		meta["request_id"] = req.RequestID
	}
	if req.UserAgent != "" {
		info := util.ParseUserAgent(req.UserAgent)
		meta["browser"] = info.Browser
		meta["os"] = info.OS
		meta["device"] = info.DeviceType
	}

	metadataJSON := "{}"
	if len(meta) > 0 {
		if b, err := json.Marshal(meta); err == nil {
			metadataJSON = string(b)
		}
	}

	var admin sql.NullInt64
	if adminID > 0 {
		admin = util.NullInt64FromValue(adminID)
	}

	err := s.queries.CreateActivity(ctx, store.CreateActivityParams{
		Level:     level,
		Category:  category,
		Message:   message,
		AdminID:   admin,
		Metadata:  metadataJSON,
		CreatedAt: util.Now(),
	})
	if err != nil {
		// Info level: a failing activity insert must not be mirrored back into
		// the same table by the slog handler.
		slog.Info("failed to record activity", "error", err.Error(), "message", message)
		return err
	}
	return nil
}

// LogInfo records an info-level entry.
func (s *ActivityService) LogInfo(ctx context.Context, category, message string, adminID int64, req RequestInfo, metadata map[string]any) error {
	return s.Log(ctx, model.ActivityLevelInfo, category, message, adminID, req, metadata)
}

// LogWarning records a warning-level entry.
func (s *ActivityService) LogWarning(ctx context.Context, category, message string, adminID int64, req RequestInfo, metadata map[string]any) error {
	return s.Log(ctx, model.ActivityLevelWarning, category, message, adminID, req, metadata)
}

// LogError records an error-level entry.
func (s *ActivityService) LogError(ctx context.Context, category, message string, adminID int64, req RequestInfo, metadata map[string]any) error {
	return s.Log(ctx, model.ActivityLevelError, category, message, adminID, req, metadata)
}

// Prune deletes entries older than olderThan and returns how many were removed.
func (s *ActivityService) Prune(ctx context.Context, olderThan time.Duration) (int64, error) {
	return s.queries.DeleteActivityBefore(ctx, util.Now().Add(-olderThan))
}
