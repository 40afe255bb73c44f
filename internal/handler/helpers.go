// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/olegiv/ochurch/internal/middleware"
	"github.com/olegiv/ochurch/internal/model"
	"github.com/olegiv/ochurch/internal/render"
	"github.com/olegiv/ochurch/internal/service"
)

// multipartMemory is the part of a multipart body kept in memory; the rest spills to disk.
const multipartMemory = 8 << 20

// parseIDParam parses the {id} URL parameter.
func parseIDParam(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", chi.URLParam(r, "id"))
	}
	return id, nil
}

// parseIDOrRedirect parses {id} and redirects with a flash when it is invalid.
func parseIDOrRedirect(w http.ResponseWriter, r *http.Request, renderer *render.Renderer, redirectURL, entityName string) (int64, bool) {
	id, err := parseIDParam(r)
	if err != nil {
		flashError(w, r, renderer, redirectURL, "Invalid "+entityName+" ID")
		return 0, false
	}
	return id, true
}

// requestInfo collects the request details stored with activity entries.
func requestInfo(r *http.Request) service.RequestInfo {
	return service.RequestInfo{
		IP:        middleware.ClientIP(r),
		UserAgent: r.UserAgent(),
		RequestID: chimw.GetReqID(r.Context()),
	}
}

// logActivity records an audit entry for the current admin. Failures are
// logged by the service and otherwise ignored.
func logActivity(r *http.Request, activity *service.ActivityService, category, message string, metadata map[string]any) {
	if activity == nil {
		return
	}
	_ = activity.LogInfo(r.Context(), category, message, middleware.GetAdminID(r), requestInfo(r), metadata)
}

// logSecurity records a warning-level security or auth entry.
func logSecurity(r *http.Request, activity *service.ActivityService, category, message string, adminID int64, metadata map[string]any) {
	if activity == nil {
		return
	}
	_ = activity.LogWarning(r.Context(), category, message, adminID, requestInfo(r), metadata)
}

// =============================================================================
// IMAGE UPLOAD HELPERS
// =============================================================================

// parseMultipartOrRedirect parses a form that may carry an image. Plain
// urlencoded bodies are accepted too. The body is capped well above the
// upload limit so an oversized image still reaches the uploader and comes
// back as an inline field error.
func parseMultipartOrRedirect(w http.ResponseWriter, r *http.Request, renderer *render.Renderer, uploader *service.Uploader, redirectURL string) bool {
	r.Body = http.MaxBytesReader(w, r.Body, 2*uploader.MaxSize()+(1<<20))
	if err := r.ParseMultipartForm(multipartMemory); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		slog.Warn("failed to parse multipart form", "error", err, "path", r.URL.Path)
		flashError(w, r, renderer, redirectURL, "The form could not be read. Images must be smaller than the upload limit.")
		return false
	}
	return true
}

// saveImage stores the "image" file input, if one was chosen, and returns its
// relative path. An empty path with a nil error means no file was sent.
func saveImage(r *http.Request, uploader *service.Uploader, dir, baseName string) (string, error) {
	file, header, err := r.FormFile("image")
	if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
		return "", nil
	}
	if err != nil {
		return "", service.ErrUploadInvalid
	}
	defer func() { _ = file.Close() }()

	if header.Size == 0 && header.Filename == "" {
		return "", nil
	}
	return uploader.Save(file, header, dir, baseName)
}

// uploadErrorMessage turns an upload error into the inline field message.
func uploadErrorMessage(uploader *service.Uploader, err error) string {
	switch {
	case errors.Is(err, service.ErrUploadTooLarge):
		return fmt.Sprintf("Image must be %d MB or smaller", uploader.MaxSize()>>20)
	case errors.Is(err, service.ErrUploadType):
		return "Only JPEG, PNG, GIF and WebP images are allowed"
	case errors.Is(err, service.ErrUploadInvalid):
		return "The file could not be read as an image"
	default:
		slog.Error("failed to store upload", "error", err)
		return "The image could not be saved. Please try again."
	}
}

// imageChange is the outcome of an edit form's image inputs.
type imageChange struct {
	path  string // value to store
	stale string // file to delete once the row is saved
	added string // file written by this request, removed if the save fails
}

// processImage applies the "image" upload and the "remove_image" checkbox to
// current. Upload failures are recorded in errs under "image". Nothing is
// stored when errs already holds a field error.
func processImage(r *http.Request, uploader *service.Uploader, errs map[string]string, current, dir, baseName string) imageChange {
	change := imageChange{path: current}
	if len(errs) > 0 {
		return change
	}

	saved, err := saveImage(r, uploader, dir, baseName)
	if err != nil {
		errs["image"] = uploadErrorMessage(uploader, err)
		return change
	}

	switch {
	case saved != "":
		change.path = saved
		change.added = saved
		if current != "" && current != saved {
			change.stale = current
		}
	case formBool(r, "remove_image") && current != "":
		change.path = ""
		change.stale = current
	}
	return change
}

// commit deletes the replaced file after a successful save.
func (c imageChange) commit(uploader *service.Uploader) {
	uploader.Remove(c.stale)
}

// rollback deletes a file written by a request whose save failed.
func (c imageChange) rollback(uploader *service.Uploader) {
	uploader.Remove(c.added)
}

// canDo reports whether the current admin holds perm. Used to hide
// controls in templates and guard mixed-permission handlers.
func canDo(r *http.Request, perm model.Permission) bool {
	return middleware.Can(r, perm)
}
