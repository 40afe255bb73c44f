// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/olegiv/ochurch/internal/model"
	"github.com/olegiv/ochurch/internal/store"
)

const settingsKey = "settings:all"

// SettingsCache serves the site settings table from a cache backend.
// Public pages read every setting on each request; the whole table is cached
// as one entry and dropped whenever settings are saved.
type SettingsCache struct {
	backend Cache
	queries *store.Queries
	ttl     time.Duration
}

// NewSettingsCache creates a settings cache over backend.
func NewSettingsCache(backend Cache, queries *store.Queries, ttl time.Duration) *SettingsCache {
	return &SettingsCache{backend: backend, queries: queries, ttl: ttl}
}

// All returns every setting, with defaults filled in for missing keys.
func (s *SettingsCache) All(ctx context.Context) (map[string]string, error) {
	data, err := s.backend.Get(ctx, settingsKey)
	if err == nil {
		var settings map[string]string
		if jsonErr := json.Unmarshal(data, &settings); jsonErr == nil {
			return settings, nil
		}
		slog.Warn("discarding corrupt settings cache entry")
	} else if !errors.Is(err, ErrCacheMiss) {
		slog.Warn("settings cache read failed", "error", err)
	}

	settings, err := s.load(ctx)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(settings); err == nil {
		if err := s.backend.Set(ctx, settingsKey, data, s.ttl); err != nil {
			slog.Warn("settings cache write failed", "error", err)
		}
	}

	return settings, nil
}

// Get returns one setting or its default. Load failures are logged and the
// default is returned so pages still render.
func (s *SettingsCache) Get(ctx context.Context, key string) string {
	settings, err := s.All(ctx)
	if err != nil {
		slog.Error("loading settings", "error", err)
		return model.DefaultSettings[key]
	}
	return settings[key]
}

// Invalidate drops the cached settings.
func (s *SettingsCache) Invalidate(ctx context.Context) error {
	return s.backend.Delete(ctx, settingsKey)
}

func (s *SettingsCache) load(ctx context.Context) (map[string]string, error) {
	rows, err := s.queries.ListSettings(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing settings: %w", err)
	}

	settings := make(map[string]string, len(model.DefaultSettings)+len(rows))
	for k, v := range model.DefaultSettings {
		settings[k] = v
	}
	for _, row := range rows {
		settings[row.Key] = row.Value
	}
	return settings, nil
}
