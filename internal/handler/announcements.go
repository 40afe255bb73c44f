// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/olegiv/ochurch/internal/middleware"
	"github.com/olegiv/ochurch/internal/model"
	"github.com/olegiv/ochurch/internal/render"
	"github.com/olegiv/ochurch/internal/service"
	"github.com/olegiv/ochurch/internal/store"
	"github.com/olegiv/ochurch/internal/util"
)

// AnnouncementsHandler handles announcement management routes.
type AnnouncementsHandler struct {
	queries  *store.Queries
	renderer *render.Renderer
	activity *service.ActivityService
	location *time.Location
}

// NewAnnouncementsHandler creates a new AnnouncementsHandler.
func NewAnnouncementsHandler(db *sql.DB, renderer *render.Renderer, loc *time.Location) *AnnouncementsHandler {
	return &AnnouncementsHandler{
		queries:  store.New(db),
		renderer: renderer,
		activity: service.NewActivityService(db),
		location: loc,
	}
}

// AnnouncementsListData holds data for the announcements list template.
type AnnouncementsListData struct {
	Announcements []store.Announcement
	Pagination    AdminPagination
}

// AnnouncementInput holds submitted announcement form values.
type AnnouncementInput struct {
	Title            string
	Content          string
	AnnouncementDate string
	IsActive         bool
}

// AnnouncementFormData holds data for the announcement form template.
type AnnouncementFormData struct {
	Announcement *store.Announcement
	Form         AnnouncementInput
	IsEdit       bool
}

// Validate checks the required fields and the date.
func (in AnnouncementInput) Validate() map[string]string {
	errs := make(map[string]string)
	requireField(errs, "title", in.Title, "Title")
	requireField(errs, "content", in.Content, "Content")
	checkDate(errs, "announcement_date", in.AnnouncementDate)
	return errs
}

func (h *AnnouncementsHandler) inputFromRequest(r *http.Request) AnnouncementInput {
	in := AnnouncementInput{
		Title:            formText(r, "title"),
		Content:          formText(r, "content"),
		AnnouncementDate: strings.TrimSpace(r.FormValue("announcement_date")),
		IsActive:         formBool(r, "is_active"),
	}
	if in.AnnouncementDate == "" {
		in.AnnouncementDate = util.Today(h.location)
	}
	return in
}

// List handles GET /admin/announcements.
func (h *AnnouncementsHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	total, err := h.queries.CountAnnouncements(ctx)
	if err != nil {
		logAndInternalError(w, "failed to count announcements", "error", err)
		return
	}
	_, offset, pagination := pageWindow(r, total, adminPerPage, redirectAdminAnnouncements)

	items, err := h.queries.ListAnnouncements(ctx, store.ListAnnouncementsParams{Limit: adminPerPage, Offset: offset})
	if err != nil {
		logAndInternalError(w, "failed to list announcements", "error", err)
		return
	}

	renderPage(w, r, h.renderer, "admin/announcements_list", render.TemplateData{
		Title: "Announcements",
		Data:  AnnouncementsListData{Announcements: items, Pagination: pagination},
	})
}

// NewForm handles GET /admin/announcements/new.
func (h *AnnouncementsHandler) NewForm(w http.ResponseWriter, r *http.Request) {
	h.renderForm(w, r, AnnouncementFormData{
		Form: AnnouncementInput{AnnouncementDate: util.Today(h.location), IsActive: true},
	}, nil)
}

// Create handles POST /admin/announcements.
func (h *AnnouncementsHandler) Create(w http.ResponseWriter, r *http.Request) {
	if !parseFormOrRedirect(w, r, h.renderer, redirectAdminAnnouncementNew) {
		return
	}

	in := h.inputFromRequest(r)
	if errs := in.Validate(); len(errs) > 0 {
		h.renderForm(w, r, AnnouncementFormData{Form: in}, errs)
		return
	}

	now := util.Now()
	item, err := h.queries.CreateAnnouncement(r.Context(), store.CreateAnnouncementParams{
		Title:            in.Title,
		Content:          in.Content,
		AnnouncementDate: in.AnnouncementDate,
		IsActive:         in.IsActive,
		CreatedAt:        now,
		UpdatedAt:        now,
	})
	if err != nil {
		slog.Error("failed to create announcement", "error", err)
		h.renderer.SetFlash(r, genericSaveError, flashTypeError)
		h.renderForm(w, r, AnnouncementFormData{Form: in}, nil)
		return
	}

	slog.Info("announcement created", "announcement_id", item.ID, "created_by", middleware.GetAdminID(r))
	logActivity(r, h.activity, model.ActivityCategoryContent, "Announcement created: "+item.Title, map[string]any{"announcement_id": item.ID})
	flashSuccess(w, r, h.renderer, redirectAdminAnnouncements, "Announcement created successfully")
}

// EditForm handles GET /admin/announcements/{id}.
func (h *AnnouncementsHandler) EditForm(w http.ResponseWriter, r *http.Request) {
	item, ok := h.requireAnnouncement(w, r)
	if !ok {
		return
	}
	h.renderForm(w, r, AnnouncementFormData{
		Announcement: &item,
		Form: AnnouncementInput{
			Title:            item.Title,
			Content:          item.Content,
			AnnouncementDate: item.AnnouncementDate,
			IsActive:         item.IsActive,
		},
		IsEdit: true,
	}, nil)
}

// Update handles POST|PUT /admin/announcements/{id}.
func (h *AnnouncementsHandler) Update(w http.ResponseWriter, r *http.Request) {
	item, ok := h.requireAnnouncement(w, r)
	if !ok {
		return
	}
	editURL := fmt.Sprintf("%s/%d", redirectAdminAnnouncements, item.ID)
	if !parseFormOrRedirect(w, r, h.renderer, editURL) {
		return
	}

	in := h.inputFromRequest(r)
	if errs := in.Validate(); len(errs) > 0 {
		h.renderForm(w, r, AnnouncementFormData{Announcement: &item, Form: in, IsEdit: true}, errs)
		return
	}

	if _, err := h.queries.UpdateAnnouncement(r.Context(), store.UpdateAnnouncementParams{
		Title:            in.Title,
		Content:          in.Content,
		AnnouncementDate: in.AnnouncementDate,
		IsActive:         in.IsActive,
		UpdatedAt:        util.Now(),
		ID:               item.ID,
	}); err != nil {
		slog.Error("failed to update announcement", "error", err, "announcement_id", item.ID)
		flashError(w, r, h.renderer, editURL, genericSaveError)
		return
	}

	logActivity(r, h.activity, model.ActivityCategoryContent, "Announcement updated: "+in.Title, map[string]any{"announcement_id": item.ID})
	flashSuccess(w, r, h.renderer, redirectAdminAnnouncements, "Announcement updated successfully")
}

// Delete handles POST /admin/announcements/{id}/delete and DELETE /admin/announcements/{id}.
func (h *AnnouncementsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	item, ok := h.requireAnnouncement(w, r)
	if !ok {
		return
	}

	if err := h.queries.DeleteAnnouncement(r.Context(), item.ID); err != nil {
		slog.Error("failed to delete announcement", "error", err, "announcement_id", item.ID)
		flashError(w, r, h.renderer, redirectAdminAnnouncements, "Error deleting announcement")
		return
	}

	slog.Info("announcement deleted", "announcement_id", item.ID, "deleted_by", middleware.GetAdminID(r))
	logActivity(r, h.activity, model.ActivityCategoryContent, "Announcement deleted: "+item.Title, map[string]any{"announcement_id": item.ID})
	flashSuccess(w, r, h.renderer, redirectAdminAnnouncements, "Announcement deleted successfully")
}

// ToggleActive handles POST /admin/announcements/{id}/toggle-active.
func (h *AnnouncementsHandler) ToggleActive(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDOrRedirect(w, r, h.renderer, redirectAdminAnnouncements, "announcement")
	if !ok {
		return
	}
	item, ok := requireEntityWithRedirect(w, r, h.renderer, redirectAdminAnnouncements, "Announcement", id,
		func(id int64) (store.Announcement, error) {
			return h.queries.ToggleAnnouncementActive(r.Context(), util.Now(), id)
		})
	if !ok {
		return
	}

	msg := "Announcement hidden"
	if item.IsActive {
		msg = "Announcement activated"
	}
	logActivity(r, h.activity, model.ActivityCategoryContent, msg+": "+item.Title, map[string]any{"announcement_id": item.ID})
	flashSuccess(w, r, h.renderer, redirectAdminAnnouncements, msg)
}

func (h *AnnouncementsHandler) requireAnnouncement(w http.ResponseWriter, r *http.Request) (store.Announcement, bool) {
	id, ok := parseIDOrRedirect(w, r, h.renderer, redirectAdminAnnouncements, "announcement")
	if !ok {
		return store.Announcement{}, false
	}
	return requireEntityWithRedirect(w, r, h.renderer, redirectAdminAnnouncements, "Announcement", id,
		func(id int64) (store.Announcement, error) { return h.queries.GetAnnouncementByID(r.Context(), id) })
}

func (h *AnnouncementsHandler) renderForm(w http.ResponseWriter, r *http.Request, data AnnouncementFormData, errs map[string]string) {
	title := "New Announcement"
	if data.IsEdit {
		title = "Edit Announcement"
	}
	renderPage(w, r, h.renderer, "admin/announcement_form", render.TemplateData{
		Title:  title,
		Data:   data,
		Errors: errs,
	})
}
