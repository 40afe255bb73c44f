// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/olegiv/ochurch/internal/middleware"
	"github.com/olegiv/ochurch/internal/model"
	"github.com/olegiv/ochurch/internal/render"
	"github.com/olegiv/ochurch/internal/service"
	"github.com/olegiv/ochurch/internal/store"
	"github.com/olegiv/ochurch/internal/util"
)

// SermonsHandler handles sermon management routes.
type SermonsHandler struct {
	queries  *store.Queries
	renderer *render.Renderer
	uploader *service.Uploader
	activity *service.ActivityService
}

// NewSermonsHandler creates a new SermonsHandler.
func NewSermonsHandler(db *sql.DB, renderer *render.Renderer, uploader *service.Uploader) *SermonsHandler {
	return &SermonsHandler{
		queries:  store.New(db),
		renderer: renderer,
		uploader: uploader,
		activity: service.NewActivityService(db),
	}
}

// SermonsListData holds data for the sermons list template.
type SermonsListData struct {
	Sermons    []store.Sermon
	Search     string
	Pagination AdminPagination
}

// SermonInput holds submitted sermon form values.
type SermonInput struct {
	Title       string
	Preacher    string
	SermonDate  string
	Scripture   string
	Description string
	VideoURL    string
	AudioURL    string
	IsFeatured  bool
}

// SermonFormData holds data for the sermon form template.
type SermonFormData struct {
	Sermon *store.Sermon
	Form   SermonInput
	IsEdit bool
}

func sermonInputFromRequest(r *http.Request) SermonInput {
	return SermonInput{
		Title:       formText(r, "title"),
		Preacher:    formText(r, "preacher"),
		SermonDate:  strings.TrimSpace(r.FormValue("sermon_date")),
		Scripture:   formText(r, "scripture"),
		Description: formText(r, "description"),
		VideoURL:    strings.TrimSpace(r.FormValue("video_url")),
		AudioURL:    strings.TrimSpace(r.FormValue("audio_url")),
		IsFeatured:  formBool(r, "is_featured"),
	}
}

func sermonInputFromRow(s store.Sermon) SermonInput {
	return SermonInput{
		Title:       s.Title,
		Preacher:    s.Preacher,
		SermonDate:  s.SermonDate,
		Scripture:   s.Scripture,
		Description: s.Description,
		VideoURL:    s.VideoUrl,
		AudioURL:    s.AudioUrl,
		IsFeatured:  s.IsFeatured,
	}
}

// Validate checks required fields, the date and the media URLs.
func (in SermonInput) Validate() map[string]string {
	errs := make(map[string]string)
	requireField(errs, "title", in.Title, "Title")
	requireField(errs, "preacher", in.Preacher, "Preacher")
	requireField(errs, "sermon_date", in.SermonDate, "Date")
	checkDate(errs, "sermon_date", in.SermonDate)
	checkURL(errs, "video_url", in.VideoURL)
	checkURL(errs, "audio_url", in.AudioURL)
	return errs
}

// List handles GET /admin/sermons.
func (h *SermonsHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	search := strings.TrimSpace(r.URL.Query().Get("q"))

	total, err := h.queries.CountSermons(ctx, search)
	if err != nil {
		logAndInternalError(w, "failed to count sermons", "error", err)
		return
	}
	_, offset, pagination := pageWindow(r, total, adminPerPage, redirectAdminSermons)

	sermons, err := h.queries.ListSermons(ctx, store.ListSermonsParams{Search: search, Limit: adminPerPage, Offset: offset})
	if err != nil {
		logAndInternalError(w, "failed to list sermons", "error", err)
		return
	}

	renderPage(w, r, h.renderer, "admin/sermons_list", render.TemplateData{
		Title: "Sermons",
		Data:  SermonsListData{Sermons: sermons, Search: search, Pagination: pagination},
	})
}

// NewForm handles GET /admin/sermons/new.
func (h *SermonsHandler) NewForm(w http.ResponseWriter, r *http.Request) {
	h.renderForm(w, r, SermonFormData{Form: SermonInput{SermonDate: util.Today(nil)}}, nil)
}

// Create handles POST /admin/sermons.
func (h *SermonsHandler) Create(w http.ResponseWriter, r *http.Request) {
	if !parseMultipartOrRedirect(w, r, h.renderer, h.uploader, redirectAdminSermonsNew) {
		return
	}

	in := sermonInputFromRequest(r)
	errs := in.Validate()
	img := processImage(r, h.uploader, errs, "", service.UploadDirSermons, in.Title)
	if len(errs) > 0 {
		h.renderForm(w, r, SermonFormData{Form: in}, errs)
		return
	}

	now := util.Now()
	sermon, err := h.queries.CreateSermon(r.Context(), store.CreateSermonParams{
		Title:       in.Title,
		Preacher:    in.Preacher,
		SermonDate:  in.SermonDate,
		Scripture:   in.Scripture,
		Description: in.Description,
		VideoUrl:    in.VideoURL,
		AudioUrl:    in.AudioURL,
		ImagePath:   img.path,
		IsFeatured:  in.IsFeatured,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if err != nil {
		img.rollback(h.uploader)
		slog.Error("failed to create sermon", "error", err)
		h.renderer.SetFlash(r, genericSaveError, flashTypeError)
		h.renderForm(w, r, SermonFormData{Form: in}, nil)
		return
	}

	slog.Info("sermon created", "sermon_id", sermon.ID, "created_by", middleware.GetAdminID(r))
	logActivity(r, h.activity, model.ActivityCategoryContent, "Sermon created: "+sermon.Title, map[string]any{"sermon_id": sermon.ID})
	flashSuccess(w, r, h.renderer, redirectAdminSermons, "Sermon created successfully")
}

// EditForm handles GET /admin/sermons/{id}.
func (h *SermonsHandler) EditForm(w http.ResponseWriter, r *http.Request) {
	sermon, ok := h.requireSermon(w, r)
	if !ok {
		return
	}
	h.renderForm(w, r, SermonFormData{Sermon: &sermon, Form: sermonInputFromRow(sermon), IsEdit: true}, nil)
}

// Update handles POST|PUT /admin/sermons/{id}.
func (h *SermonsHandler) Update(w http.ResponseWriter, r *http.Request) {
	sermon, ok := h.requireSermon(w, r)
	if !ok {
		return
	}
	editURL := fmt.Sprintf(redirectAdminSermonsID, sermon.ID)
	if !parseMultipartOrRedirect(w, r, h.renderer, h.uploader, editURL) {
		return
	}

	in := sermonInputFromRequest(r)
	errs := in.Validate()
	img := processImage(r, h.uploader, errs, sermon.ImagePath, service.UploadDirSermons, in.Title)
	if len(errs) > 0 {
		h.renderForm(w, r, SermonFormData{Sermon: &sermon, Form: in, IsEdit: true}, errs)
		return
	}

	_, err := h.queries.UpdateSermon(r.Context(), store.UpdateSermonParams{
		Title:       in.Title,
		Preacher:    in.Preacher,
		SermonDate:  in.SermonDate,
		Scripture:   in.Scripture,
		Description: in.Description,
		VideoUrl:    in.VideoURL,
		AudioUrl:    in.AudioURL,
		ImagePath:   img.path,
		IsFeatured:  in.IsFeatured,
		UpdatedAt:   util.Now(),
		ID:          sermon.ID,
	})
	if err != nil {
		img.rollback(h.uploader)
		slog.Error("failed to update sermon", "error", err, "sermon_id", sermon.ID)
		flashError(w, r, h.renderer, editURL, genericSaveError)
		return
	}
	img.commit(h.uploader)

	slog.Info("sermon updated", "sermon_id", sermon.ID, "updated_by", middleware.GetAdminID(r))
	logActivity(r, h.activity, model.ActivityCategoryContent, "Sermon updated: "+in.Title, map[string]any{"sermon_id": sermon.ID})
	flashSuccess(w, r, h.renderer, redirectAdminSermons, "Sermon updated successfully")
}

// Delete handles POST /admin/sermons/{id}/delete and DELETE /admin/sermons/{id}.
func (h *SermonsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	sermon, ok := h.requireSermon(w, r)
	if !ok {
		return
	}

	if err := h.queries.DeleteSermon(r.Context(), sermon.ID); err != nil {
		slog.Error("failed to delete sermon", "error", err, "sermon_id", sermon.ID)
		flashError(w, r, h.renderer, redirectAdminSermons, "Error deleting sermon")
		return
	}
	h.uploader.Remove(sermon.ImagePath)

	slog.Info("sermon deleted", "sermon_id", sermon.ID, "deleted_by", middleware.GetAdminID(r))
	logActivity(r, h.activity, model.ActivityCategoryContent, "Sermon deleted: "+sermon.Title, map[string]any{"sermon_id": sermon.ID})
	flashSuccess(w, r, h.renderer, redirectAdminSermons, "Sermon deleted successfully")
}

// ToggleFeatured handles POST /admin/sermons/{id}/toggle-featured.
func (h *SermonsHandler) ToggleFeatured(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDOrRedirect(w, r, h.renderer, redirectAdminSermons, "sermon")
	if !ok {
		return
	}
	sermon, ok := requireEntityWithRedirect(w, r, h.renderer, redirectAdminSermons, "Sermon", id,
		func(id int64) (store.Sermon, error) { return h.queries.ToggleSermonFeatured(r.Context(), util.Now(), id) })
	if !ok {
		return
	}

	msg := "Sermon removed from featured"
	if sermon.IsFeatured {
		msg = "Sermon marked as featured"
	}
	logActivity(r, h.activity, model.ActivityCategoryContent, msg+": "+sermon.Title, map[string]any{"sermon_id": sermon.ID})
	flashSuccess(w, r, h.renderer, redirectAdminSermons, msg)
}

func (h *SermonsHandler) requireSermon(w http.ResponseWriter, r *http.Request) (store.Sermon, bool) {
	id, ok := parseIDOrRedirect(w, r, h.renderer, redirectAdminSermons, "sermon")
	if !ok {
		return store.Sermon{}, false
	}
	return requireEntityWithRedirect(w, r, h.renderer, redirectAdminSermons, "Sermon", id,
		func(id int64) (store.Sermon, error) { return h.queries.GetSermonByID(r.Context(), id) })
}

func (h *SermonsHandler) renderForm(w http.ResponseWriter, r *http.Request, data SermonFormData, errs map[string]string) {
	title := "New Sermon"
	if data.IsEdit {
		title = "Edit Sermon"
	}
	renderPage(w, r, h.renderer, "admin/sermon_form", render.TemplateData{
		Title:  title,
		Data:   data,
		Errors: errs,
	})
}
