// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package cache

import (
	"log/slog"
	"time"
)

// memorySweepInterval is how often the memory backend evicts expired entries.
const memorySweepInterval = time.Minute

// Options selects and configures a cache backend.
type Options struct {
	// RedisURL selects Redis when set; otherwise memory is used.
	RedisURL   string
	Prefix     string
	DefaultTTL time.Duration
}

// New creates the configured backend. An unreachable Redis is logged and
// replaced by memory so the site keeps serving.
func New(opts Options) Cache {
	if opts.RedisURL != "" {
		rc, err := NewRedisCache(opts.RedisURL, opts.Prefix, opts.DefaultTTL)
		if err == nil {
			slog.Info("cache backend initialized", "backend", "redis", "prefix", rc.prefix)
			return rc
		}
		slog.Warn("redis unavailable, falling back to memory cache", "error", err)
	}

	slog.Info("cache backend initialized", "backend", "memory")
	return NewMemoryCache(opts.DefaultTTL, memorySweepInterval)
}
