// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"regexp"
	"strings"

	"github.com/olegiv/ochurch/internal/auth"
	"github.com/olegiv/ochurch/internal/middleware"
	"github.com/olegiv/ochurch/internal/model"
	"github.com/olegiv/ochurch/internal/render"
	"github.com/olegiv/ochurch/internal/service"
	"github.com/olegiv/ochurch/internal/store"
	"github.com/olegiv/ochurch/internal/util"
)

var usernamePattern = regexp.MustCompile(`^[a-z0-9_.-]{3,50}$`)

// UsersHandler handles admin account management routes.
type UsersHandler struct {
	queries  *store.Queries
	renderer *render.Renderer
	activity *service.ActivityService
}

// NewUsersHandler creates a new UsersHandler.
func NewUsersHandler(db *sql.DB, renderer *render.Renderer) *UsersHandler {
	return &UsersHandler{
		queries:  store.New(db),
		renderer: renderer,
		activity: service.NewActivityService(db),
	}
}

// UsersListData holds data for the users list template.
type UsersListData struct {
	Users         []store.Admin
	CurrentUserID int64
	Pagination    AdminPagination
}

// UserInput holds submitted admin account form values.
type UserInput struct {
	Username        string
	Email           string
	FullName        string
	Role            string
	Password        string
	PasswordConfirm string
}

// UserFormData holds data for the user form template.
type UserFormData struct {
	User   *store.Admin
	Form   UserInput
	IsEdit bool
	IsSelf bool
	Roles  []string
}

func userInputFromRequest(r *http.Request) UserInput {
	return UserInput{
		Username:        strings.ToLower(strings.TrimSpace(r.FormValue("username"))),
		Email:           strings.ToLower(strings.TrimSpace(r.FormValue("email"))),
		FullName:        formText(r, "full_name"),
		Role:            r.FormValue("role"),
		Password:        r.FormValue("password"),
		PasswordConfirm: r.FormValue("password_confirm"),
	}
}

// validate checks the form. excludeID is the edited account, 0 on create.
// A password is required on create and optional on edit.
func (h *UsersHandler) validate(r *http.Request, in UserInput, excludeID int64) map[string]string {
	ctx := r.Context()
	errs := make(map[string]string)

	switch {
	case in.Username == "":
		errs["username"] = "Username is required"
	case !usernamePattern.MatchString(in.Username):
		errs["username"] = "Username must be 3-50 characters: lowercase letters, digits, dot, dash or underscore"
	default:
		exists, err := h.queries.UsernameExists(ctx, in.Username, excludeID)
		if err != nil {
			slog.Error("failed to check username", "error", err)
			errs["username"] = "Error checking username"
		} else if exists {
			errs["username"] = "Username is already taken"
		}
	}

	switch {
	case in.Email == "":
		errs["email"] = "Email is required"
	case !util.IsValidEmail(in.Email):
		errs["email"] = "Enter a valid email address"
	default:
		exists, err := h.queries.EmailExists(ctx, in.Email, excludeID)
		if err != nil {
			slog.Error("failed to check email", "error", err)
			errs["email"] = "Error checking email"
		} else if exists {
			errs["email"] = "Email is already in use"
		}
	}

	actor := middleware.GetAdmin(r)
	switch {
	case !model.IsValidRole(in.Role):
		errs["role"] = "Choose a valid role"
	case actor == nil || !model.CanAssignRole(actor.Role, in.Role):
		errs["role"] = "You cannot assign a role above your own"
	}

	if excludeID == 0 || in.Password != "" || in.PasswordConfirm != "" {
		for k, v := range validateNewPassword(in.Password, in.PasswordConfirm) {
			errs[k] = v
		}
	}
	return errs
}

// List handles GET /admin/users.
func (h *UsersHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	total, err := h.queries.CountAdmins(ctx)
	if err != nil {
		logAndInternalError(w, "failed to count admins", "error", err)
		return
	}
	_, offset, pagination := pageWindow(r, total, adminPerPage, redirectAdminUsers)

	users, err := h.queries.ListAdmins(ctx, store.ListAdminsParams{Limit: adminPerPage, Offset: offset})
	if err != nil {
		logAndInternalError(w, "failed to list admins", "error", err)
		return
	}

	renderPage(w, r, h.renderer, "admin/users_list", render.TemplateData{
		Title: "Users",
		Data: UsersListData{
			Users:         users,
			CurrentUserID: middleware.GetAdminID(r),
			Pagination:    pagination,
		},
	})
}

// NewForm handles GET /admin/users/new.
func (h *UsersHandler) NewForm(w http.ResponseWriter, r *http.Request) {
	h.renderForm(w, r, UserFormData{Form: UserInput{Role: model.RoleContentManager}}, nil)
}

// Create handles POST /admin/users.
func (h *UsersHandler) Create(w http.ResponseWriter, r *http.Request) {
	if !parseFormOrRedirect(w, r, h.renderer, redirectAdminUsersNew) {
		return
	}

	in := userInputFromRequest(r)
	if errs := h.validate(r, in, 0); len(errs) > 0 {
		h.renderForm(w, r, UserFormData{Form: in}, errs)
		return
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		slog.Error("failed to hash password", "error", err)
		flashError(w, r, h.renderer, redirectAdminUsersNew, genericSaveError)
		return
	}

	now := util.Now()
	user, err := h.queries.CreateAdmin(r.Context(), store.CreateAdminParams{
		Username:     in.Username,
		PasswordHash: hash,
		Email:        in.Email,
		FullName:     in.FullName,
		Role:         in.Role,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		slog.Error("failed to create admin", "error", err)
		h.renderer.SetFlash(r, genericSaveError, flashTypeError)
		h.renderForm(w, r, UserFormData{Form: in}, nil)
		return
	}

	slog.Info("admin created", "admin_id", user.ID, "username", user.Username, "role", user.Role, "created_by", middleware.GetAdminID(r))
	logActivity(r, h.activity, model.ActivityCategoryUser, "User created: "+user.Username,
		map[string]any{"user_id": user.ID, "role": user.Role})
	flashSuccess(w, r, h.renderer, redirectAdminUsers, "User created successfully")
}

// EditForm handles GET /admin/users/{id}.
func (h *UsersHandler) EditForm(w http.ResponseWriter, r *http.Request) {
	user, ok := h.requireManageable(w, r)
	if !ok {
		return
	}
	h.renderForm(w, r, UserFormData{
		User: &user,
		Form: UserInput{
			Username: user.Username,
			Email:    user.Email,
			FullName: user.FullName,
			Role:     user.Role,
		},
		IsEdit: true,
	}, nil)
}

// Update handles POST|PUT /admin/users/{id}. Admins cannot change their own
// role; that keeps at least one super admin reachable.
func (h *UsersHandler) Update(w http.ResponseWriter, r *http.Request) {
	user, ok := h.requireManageable(w, r)
	if !ok {
		return
	}
	editURL := fmt.Sprintf(redirectAdminUsersID, user.ID)
	if !parseFormOrRedirect(w, r, h.renderer, editURL) {
		return
	}

	in := userInputFromRequest(r)
	isSelf := user.ID == middleware.GetAdminID(r)
	if isSelf {
		in.Role = user.Role
	}

	if errs := h.validate(r, in, user.ID); len(errs) > 0 {
		h.renderForm(w, r, UserFormData{User: &user, Form: in, IsEdit: true}, errs)
		return
	}

	if user.Role == model.RoleSuperAdmin && in.Role != model.RoleSuperAdmin && user.IsActive {
		if last, err := h.isLastActiveSuperAdmin(r); err != nil || last {
			flashError(w, r, h.renderer, editURL, "The last active super admin cannot be demoted")
			return
		}
	}

	ctx := r.Context()
	if _, err := h.queries.UpdateAdmin(ctx, store.UpdateAdminParams{
		Username:  in.Username,
		Email:     in.Email,
		FullName:  in.FullName,
		Role:      in.Role,
		UpdatedAt: util.Now(),
		ID:        user.ID,
	}); err != nil {
		slog.Error("failed to update admin", "error", err, "admin_id", user.ID)
		flashError(w, r, h.renderer, editURL, genericSaveError)
		return
	}

	if in.Password != "" {
		hash, err := auth.HashPassword(in.Password)
		if err == nil {
			err = h.queries.UpdateAdminPassword(ctx, store.UpdateAdminPasswordParams{
				PasswordHash: hash,
				UpdatedAt:    util.Now(),
				ID:           user.ID,
			})
		}
		if err != nil {
			slog.Error("failed to update admin password", "error", err, "admin_id", user.ID)
			flashError(w, r, h.renderer, editURL, "Details saved, but the password could not be changed")
			return
		}
		logSecurity(r, h.activity, model.ActivityCategorySecurity, "Password changed for user: "+in.Username,
			middleware.GetAdminID(r), map[string]any{"user_id": user.ID})
	}

	meta := map[string]any{"user_id": user.ID}
	if in.Role != user.Role {
		meta["old_role"] = user.Role
		meta["new_role"] = in.Role
	}
	slog.Info("admin updated", "admin_id", user.ID, "updated_by", middleware.GetAdminID(r))
	logActivity(r, h.activity, model.ActivityCategoryUser, "User updated: "+in.Username, meta)
	flashSuccess(w, r, h.renderer, redirectAdminUsers, "User updated successfully")
}

// ToggleActive handles POST /admin/users/{id}/toggle-active.
func (h *UsersHandler) ToggleActive(w http.ResponseWriter, r *http.Request) {
	user, ok := h.requireManageable(w, r)
	if !ok {
		return
	}
	if user.ID == middleware.GetAdminID(r) {
		flashError(w, r, h.renderer, redirectAdminUsers, "You cannot deactivate your own account")
		return
	}
	if user.IsActive && user.Role == model.RoleSuperAdmin {
		if last, err := h.isLastActiveSuperAdmin(r); err != nil || last {
			flashError(w, r, h.renderer, redirectAdminUsers, "The last active super admin cannot be deactivated")
			return
		}
	}

	updated, err := h.queries.ToggleAdminActive(r.Context(), util.Now(), user.ID)
	if err != nil {
		slog.Error("failed to toggle admin", "error", err, "admin_id", user.ID)
		flashError(w, r, h.renderer, redirectAdminUsers, genericSaveError)
		return
	}

	msg := "User deactivated"
	if updated.IsActive {
		msg = "User activated"
	}
	logSecurity(r, h.activity, model.ActivityCategoryUser, msg+": "+updated.Username,
		middleware.GetAdminID(r), map[string]any{"user_id": updated.ID})
	flashSuccess(w, r, h.renderer, redirectAdminUsers, msg)
}

// Delete handles POST /admin/users/{id}/delete and DELETE /admin/users/{id}.
// Accounts that authored content or recorded donations are kept and should
// be deactivated instead.
func (h *UsersHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user, ok := h.requireManageable(w, r)
	if !ok {
		return
	}
	ctx := r.Context()

	if user.ID == middleware.GetAdminID(r) {
		flashError(w, r, h.renderer, redirectAdminUsers, "You cannot delete your own account")
		return
	}

	if user.IsActive && user.Role == model.RoleSuperAdmin {
		if last, err := h.isLastActiveSuperAdmin(r); err != nil || last {
			flashError(w, r, h.renderer, redirectAdminUsers, "The last active super admin cannot be deleted")
			return
		}
	}

	refs, err := h.queries.CountAdminReferences(ctx, user.ID)
	if err != nil {
		slog.Error("failed to count admin references", "error", err, "admin_id", user.ID)
		flashError(w, r, h.renderer, redirectAdminUsers, "Error deleting user")
		return
	}
	if refs > 0 {
		flashError(w, r, h.renderer, redirectAdminUsers,
			"This user has authored posts or recorded donations and cannot be deleted. Deactivate the account instead.")
		return
	}

	if err := h.queries.DeleteAdmin(ctx, user.ID); err != nil {
		slog.Error("failed to delete admin", "error", err, "admin_id", user.ID)
		flashError(w, r, h.renderer, redirectAdminUsers, "Error deleting user")
		return
	}

	slog.Info("admin deleted", "admin_id", user.ID, "username", user.Username, "deleted_by", middleware.GetAdminID(r))
	logSecurity(r, h.activity, model.ActivityCategoryUser, "User deleted: "+user.Username,
		middleware.GetAdminID(r), map[string]any{"user_id": user.ID})
	flashSuccess(w, r, h.renderer, redirectAdminUsers, "User deleted successfully")
}

// requireManageable loads {id} and checks that the current admin ranks at
// least as high as the account.
func (h *UsersHandler) requireManageable(w http.ResponseWriter, r *http.Request) (store.Admin, bool) {
	id, ok := parseIDOrRedirect(w, r, h.renderer, redirectAdminUsers, "user")
	if !ok {
		return store.Admin{}, false
	}
	user, ok := requireEntityWithRedirect(w, r, h.renderer, redirectAdminUsers, "User", id,
		func(id int64) (store.Admin, error) { return h.queries.GetAdminByID(r.Context(), id) })
	if !ok {
		return store.Admin{}, false
	}

	actor := middleware.GetAdmin(r)
	if actor == nil || model.RoleLevel(actor.Role) < model.RoleLevel(user.Role) {
		flashError(w, r, h.renderer, redirectAdminUsers, "You cannot manage an account with a higher role")
		return store.Admin{}, false
	}
	return user, true
}

func (h *UsersHandler) isLastActiveSuperAdmin(r *http.Request) (bool, error) {
	n, err := h.queries.CountActiveAdminsByRole(r.Context(), model.RoleSuperAdmin)
	if err != nil {
		slog.Error("failed to count super admins", "error", err)
		return false, err
	}
	return n <= 1, nil
}

func (h *UsersHandler) renderForm(w http.ResponseWriter, r *http.Request, data UserFormData, errs map[string]string) {
	title := "New User"
	if data.IsEdit {
		title = "Edit User"
	}
	if data.User != nil {
		data.IsSelf = data.User.ID == middleware.GetAdminID(r)
	}

	actor := middleware.GetAdmin(r)
	for _, role := range model.Roles {
		if actor != nil && model.CanAssignRole(actor.Role, role) {
			data.Roles = append(data.Roles, role)
		}
	}

	renderPage(w, r, h.renderer, "admin/user_form", render.TemplateData{
		Title:  title,
		Data:   data,
		Errors: errs,
	})
}
