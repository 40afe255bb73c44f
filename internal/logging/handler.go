// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package logging provides a slog handler that mirrors warnings and errors
// into the activity log so administrators can see them in the back office.
package logging

import (
	"context"
	"database/sql"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	"github.com/olegiv/ochurch/internal/model"
	"github.com/olegiv/ochurch/internal/store"
)

// ActivityHandler is a slog.Handler that wraps another handler and also writes
// records at or above its level to the activity_log table.
type ActivityHandler struct {
	inner   slog.Handler
	queries *store.Queries
	level   slog.Level
	attrs   []slog.Attr
}

// NewActivityHandler wraps inner, mirroring WARN and above to the activity log.
func NewActivityHandler(inner slog.Handler, db *sql.DB) *ActivityHandler {
	return NewActivityHandlerWithLevel(inner, db, slog.LevelWarn)
}

// NewActivityHandlerWithLevel wraps inner with a custom mirroring threshold.
func NewActivityHandlerWithLevel(inner slog.Handler, db *sql.DB, level slog.Level) *ActivityHandler {
	return &ActivityHandler{
		inner:   inner,
		queries: store.New(db),
		level:   level,
	}
}

// Enabled implements slog.Handler.
func (h *ActivityHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

// Handle implements slog.Handler.
func (h *ActivityHandler) Handle(ctx context.Context, r slog.Record) error {
	if err := h.inner.Handle(ctx, r); err != nil {
		return err
	}

	if r.Level >= h.level {
		h.writeActivity(r)
	}

	return nil
}

// WithAttrs implements slog.Handler.
func (h *ActivityHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	merged := make([]slog.Attr, 0, len(h.attrs)+len(attrs))
	merged = append(merged, h.attrs...)
	merged = append(merged, attrs...)
	return &ActivityHandler{
		inner:   h.inner.WithAttrs(attrs),
		queries: h.queries,
		level:   h.level,
		attrs:   merged,
	}
}

// WithGroup implements slog.Handler.
func (h *ActivityHandler) WithGroup(name string) slog.Handler {
	return &ActivityHandler{
		inner:   h.inner.WithGroup(name),
		queries: h.queries,
		level:   h.level,
		attrs:   h.attrs,
	}
}

// writeActivity stores the record. A background context keeps the write alive
// when the request that logged it has been cancelled. Failures are dropped;
// logging them would recurse into this handler.
func (h *ActivityHandler) writeActivity(r slog.Record) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	attrs := h.collectAttrs(r)
	created := r.Time
	if created.IsZero() {
		created = time.Now()
	}

	_ = h.queries.CreateActivity(ctx, store.CreateActivityParams{
		Level:     levelName(r.Level),
		Category:  category(r.Message, attrs),
		Message:   r.Message,
		AdminID:   adminID(attrs),
		Metadata:  metadata(attrs),
		CreatedAt: created.UTC().Truncate(time.Second),
	})
}

func (h *ActivityHandler) collectAttrs(r slog.Record) []slog.Attr {
	attrs := make([]slog.Attr, 0, len(h.attrs)+r.NumAttrs())
	attrs = append(attrs, h.attrs...)
	r.Attrs(func(a slog.Attr) bool {
		attrs = append(attrs, a)
		return true
	})
	return attrs
}

func levelName(level slog.Level) string {
	switch {
	case level >= slog.LevelError:
		return model.ActivityLevelError
	case level >= slog.LevelWarn:
		return model.ActivityLevelWarning
	default:
		return model.ActivityLevelInfo
	}
}

// category uses an explicit "category" attribute, otherwise guesses from the message.
func category(message string, attrs []slog.Attr) string {
	for _, a := range attrs {
		if a.Key == "category" {
			if c := a.Value.String(); c != "" {
				return c
			}
		}
	}

	msg := strings.ToLower(message)
	switch {
	case strings.Contains(msg, "login") || strings.Contains(msg, "logout") || strings.Contains(msg, "password"):
		return model.ActivityCategoryAuth
	case strings.Contains(msg, "donation") || strings.Contains(msg, "campaign"):
		return model.ActivityCategoryDonation
	case strings.Contains(msg, "csrf") || strings.Contains(msg, "rate limit") || strings.Contains(msg, "forbidden"):
		return model.ActivityCategorySecurity
	case strings.Contains(msg, "setting"):
		return model.ActivityCategorySettings
	case strings.Contains(msg, "user") || strings.Contains(msg, "admin"):
		return model.ActivityCategoryUser
	default:
		return model.ActivityCategorySystem
	}
}

func adminID(attrs []slog.Attr) sql.NullInt64 {
	for _, a := range attrs {
		if a.Key != "admin_id" {
			continue
		}
		v := a.Value.Resolve()
		switch v.Kind() {
		case slog.KindInt64:
			return sql.NullInt64{Int64: v.Int64(), Valid: v.Int64() > 0}
		case slog.KindUint64:
			return sql.NullInt64{Int64: int64(v.Uint64()), Valid: v.Uint64() > 0}
		}
	}
	return sql.NullInt64{}
}

func metadata(attrs []slog.Attr) string {
	m := make(map[string]string, len(attrs))
	for _, a := range attrs {
		if a.Key == "category" || a.Key == "admin_id" {
			continue
		}
		m[a.Key] = a.Value.Resolve().String()
	}
	if len(m) == 0 {
		return "{}"
	}
	b, err := json.Marshal(m)
	if err != nil {
		return "{}"
	}
	return string(b)
}
