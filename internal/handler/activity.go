// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"database/sql"
	"net/http"

	"github.com/olegiv/ochurch/internal/model"
	"github.com/olegiv/ochurch/internal/render"
	"github.com/olegiv/ochurch/internal/store"
)

// ActivityHandler serves the audit log.
type ActivityHandler struct {
	queries  *store.Queries
	renderer *render.Renderer
}

// NewActivityHandler creates a new ActivityHandler.
func NewActivityHandler(db *sql.DB, renderer *render.Renderer) *ActivityHandler {
	return &ActivityHandler{
		queries:  store.New(db),
		renderer: renderer,
	}
}

// ActivityListData holds data for the activity template.
type ActivityListData struct {
	Entries    []store.ActivityRow
	Level      string
	Category   string
	Levels     []string
	Categories []string
	Pagination AdminPagination
}

var activityLevels = []string{model.ActivityLevelInfo, model.ActivityLevelWarning, model.ActivityLevelError}

// List handles GET /admin/activity with optional ?level= and ?category= filters.
func (h *ActivityHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()

	level := q.Get("level")
	if !model.Contains(activityLevels, level) {
		level = ""
	}
	category := q.Get("category")
	if !model.Contains(model.ActivityCategories, category) {
		category = ""
	}

	total, err := h.queries.CountActivity(ctx, level, category)
	if err != nil {
		logAndInternalError(w, "failed to count activity", "error", err)
		return
	}
	_, offset, pagination := pageWindow(r, total, activityPerPage, redirectAdminActivity)

	entries, err := h.queries.ListActivity(ctx, store.ListActivityParams{
		Level:    level,
		Category: category,
		Limit:    activityPerPage,
		Offset:   offset,
	})
	if err != nil {
		logAndInternalError(w, "failed to list activity", "error", err)
		return
	}

	renderPage(w, r, h.renderer, "admin/activity", render.TemplateData{
		Title: "Activity Log",
		Data: ActivityListData{
			Entries:    entries,
			Level:      level,
			Category:   category,
			Levels:     activityLevels,
			Categories: model.ActivityCategories,
			Pagination: pagination,
		},
	})
}
