// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"database/sql"
	"log/slog"
	"net/http"
	"strings"

	"github.com/alexedwards/scs/v2"

	"github.com/olegiv/ochurch/internal/auth"
	"github.com/olegiv/ochurch/internal/middleware"
	"github.com/olegiv/ochurch/internal/model"
	"github.com/olegiv/ochurch/internal/render"
	"github.com/olegiv/ochurch/internal/service"
	"github.com/olegiv/ochurch/internal/store"
	"github.com/olegiv/ochurch/internal/util"
)

// ProfileHandler lets an admin edit their own account.
type ProfileHandler struct {
	queries        *store.Queries
	renderer       *render.Renderer
	sessionManager *scs.SessionManager
	activity       *service.ActivityService
}

// NewProfileHandler creates a new ProfileHandler.
func NewProfileHandler(db *sql.DB, renderer *render.Renderer, sm *scs.SessionManager) *ProfileHandler {
	return &ProfileHandler{
		queries:        store.New(db),
		renderer:       renderer,
		sessionManager: sm,
		activity:       service.NewActivityService(db),
	}
}

// ProfileFormData holds data for the profile template.
type ProfileFormData struct {
	FullName string
	Email    string
}

// Show handles GET /admin/profile.
func (h *ProfileHandler) Show(w http.ResponseWriter, r *http.Request) {
	admin := middleware.GetAdmin(r)
	if admin == nil {
		http.Redirect(w, r, redirectLogin, http.StatusSeeOther)
		return
	}
	h.render(w, r, ProfileFormData{FullName: admin.FullName, Email: admin.Email}, nil)
}

// Update handles POST /admin/profile. Changing the password requires the
// current one.
func (h *ProfileHandler) Update(w http.ResponseWriter, r *http.Request) {
	admin := middleware.GetAdmin(r)
	if admin == nil {
		http.Redirect(w, r, redirectLogin, http.StatusSeeOther)
		return
	}
	if !parseFormOrRedirect(w, r, h.renderer, redirectAdminProfile) {
		return
	}
	ctx := r.Context()

	form := ProfileFormData{
		FullName: formText(r, "full_name"),
		Email:    strings.ToLower(strings.TrimSpace(r.FormValue("email"))),
	}
	current := r.FormValue("current_password")
	newPassword := r.FormValue("new_password")
	confirm := r.FormValue("password_confirm")

	errs := make(map[string]string)
	switch {
	case form.Email == "":
		errs["email"] = "Email is required"
	case !util.IsValidEmail(form.Email):
		errs["email"] = "Enter a valid email address"
	default:
		if exists, err := h.queries.EmailExists(ctx, form.Email, admin.ID); err != nil {
			slog.Error("failed to check email", "error", err)
			errs["email"] = "Error checking email"
		} else if exists {
			errs["email"] = "Email is already in use"
		}
	}

	changePassword := newPassword != "" || confirm != ""
	if changePassword {
		if valid, err := auth.CheckPassword(current, admin.PasswordHash); err != nil || !valid {
			errs["current_password"] = "Current password is incorrect"
		}
		for k, v := range validateNewPassword(newPassword, confirm) {
			if k == "password" {
				k = "new_password"
			}
			errs[k] = v
		}
	}

	if len(errs) > 0 {
		h.render(w, r, form, errs)
		return
	}

	if _, err := h.queries.UpdateAdmin(ctx, store.UpdateAdminParams{
		Username:  admin.Username,
		Email:     form.Email,
		FullName:  form.FullName,
		Role:      admin.Role,
		UpdatedAt: util.Now(),
		ID:        admin.ID,
	}); err != nil {
		slog.Error("failed to update profile", "error", err, "admin_id", admin.ID)
		flashError(w, r, h.renderer, redirectAdminProfile, genericSaveError)
		return
	}
	h.sessionManager.Put(ctx, middleware.SessionKeyEmail, form.Email)

	if changePassword {
		hash, err := auth.HashPassword(newPassword)
		if err == nil {
			err = h.queries.UpdateAdminPassword(ctx, store.UpdateAdminPasswordParams{
				PasswordHash: hash,
				UpdatedAt:    util.Now(),
				ID:           admin.ID,
			})
		}
		if err != nil {
			slog.Error("failed to change password", "error", err, "admin_id", admin.ID)
			flashError(w, r, h.renderer, redirectAdminProfile, "Profile saved, but the password could not be changed")
			return
		}
		if err := h.sessionManager.RenewToken(ctx); err != nil {
			slog.Error("session renewal error", "error", err)
		}
		logSecurity(r, h.activity, model.ActivityCategorySecurity, "Password changed", admin.ID, nil)
	}

	logActivity(r, h.activity, model.ActivityCategoryUser, "Profile updated", nil)
	flashSuccess(w, r, h.renderer, redirectAdminProfile, "Profile updated")
}

func (h *ProfileHandler) render(w http.ResponseWriter, r *http.Request, data ProfileFormData, errs map[string]string) {
	renderPage(w, r, h.renderer, "admin/profile", render.TemplateData{
		Title:  "My Profile",
		Data:   data,
		Errors: errs,
	})
}
