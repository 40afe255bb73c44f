// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/alexedwards/scs/v2"

	"github.com/olegiv/ochurch/internal/auth"
	"github.com/olegiv/ochurch/internal/middleware"
	"github.com/olegiv/ochurch/internal/model"
	"github.com/olegiv/ochurch/internal/render"
	"github.com/olegiv/ochurch/internal/service"
	"github.com/olegiv/ochurch/internal/store"
	"github.com/olegiv/ochurch/internal/util"
)

const msgInvalidCredentials = "Invalid username or password"

// AuthHandler handles login and logout.
type AuthHandler struct {
	queries         *store.Queries
	renderer        *render.Renderer
	sessionManager  *scs.SessionManager
	activity        *service.ActivityService
	loginProtection *middleware.LoginProtection
}

// NewAuthHandler creates a new AuthHandler. lp may be nil.
func NewAuthHandler(db *sql.DB, renderer *render.Renderer, sm *scs.SessionManager, lp *middleware.LoginProtection) *AuthHandler {
	return &AuthHandler{
		queries:         store.New(db),
		renderer:        renderer,
		sessionManager:  sm,
		activity:        service.NewActivityService(db),
		loginProtection: lp,
	}
}

// LoginData holds data for the login template.
type LoginData struct {
	Username string
}

// LoginForm renders the login page. Signed-in admins go to the dashboard.
func (h *AuthHandler) LoginForm(w http.ResponseWriter, r *http.Request) {
	if adminID := h.sessionManager.GetInt64(r.Context(), middleware.SessionKeyAdminID); adminID > 0 {
		if admin, err := h.queries.GetAdminByID(r.Context(), adminID); err == nil && admin.IsActive {
			http.Redirect(w, r, redirectAdmin, http.StatusSeeOther)
			return
		}
	}

	renderPage(w, r, h.renderer, "auth/login", render.TemplateData{
		Title: "Sign in",
		Data:  LoginData{},
	})
}

// Login handles the login form submission.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	if !parseFormOrRedirect(w, r, h.renderer, redirectLogin) {
		return
	}

	username := strings.TrimSpace(r.FormValue("username"))
	password := r.FormValue("password")

	if username == "" || password == "" {
		flashError(w, r, h.renderer, redirectLogin, "Username and password are required")
		return
	}

	if h.loginProtection != nil {
		if locked, remaining := h.loginProtection.IsAccountLocked(username); locked {
			logSecurity(r, h.activity, model.ActivityCategoryAuth, "Login attempt on locked account", 0, map[string]any{"username": username})
			flashError(w, r, h.renderer, redirectLogin, "Too many failed attempts. Try again in "+formatDuration(remaining)+".")
			return
		}
	}

	admin, err := h.queries.GetAdminByUsername(r.Context(), username)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			slog.Debug("login attempt for unknown username", "username", username)
			logSecurity(r, h.activity, model.ActivityCategoryAuth, "Login failed: unknown username", 0, map[string]any{"username": username})
		} else {
			slog.Error("database error during login", "error", err)
		}
		h.failLogin(w, r, username)
		return
	}

	valid, err := auth.CheckPassword(password, admin.PasswordHash)
	if err != nil {
		slog.Error("password check error", "error", err, "admin_id", admin.ID)
		valid = false
	}
	if !valid || !admin.IsActive {
		reason := "Login failed: invalid password"
		if valid {
			reason = "Login failed: account inactive"
		}
		logSecurity(r, h.activity, model.ActivityCategoryAuth, reason, admin.ID, map[string]any{"username": username})
		h.failLogin(w, r, username)
		return
	}

	if h.loginProtection != nil {
		h.loginProtection.RecordSuccessfulLogin(username)
	}

	// Legacy bcrypt hashes and outdated argon2 parameters are upgraded on a successful login.
	if auth.NeedsRehash(admin.PasswordHash) {
		if newHash, err := auth.HashPassword(password); err == nil {
			if err := h.queries.UpdateAdminPassword(r.Context(), store.UpdateAdminPasswordParams{
				PasswordHash: newHash,
				UpdatedAt:    util.Now(),
				ID:           admin.ID,
			}); err != nil {
				slog.Error("failed to re-hash password", "error", err, "admin_id", admin.ID)
			} else {
				slog.Info("password re-hashed with current parameters", "admin_id", admin.ID)
			}
		}
	}

	if err := h.queries.UpdateAdminLastLogin(r.Context(), util.NullTimeFromValue(util.Now()), admin.ID); err != nil {
		slog.Error("failed to update last login time", "error", err, "admin_id", admin.ID)
	}

	// Regenerate session ID to prevent session fixation
	if err := h.sessionManager.RenewToken(r.Context()); err != nil {
		logAndInternalError(w, "session renewal error", "error", err)
		return
	}

	h.sessionManager.Put(r.Context(), middleware.SessionKeyAdminID, admin.ID)
	h.sessionManager.Put(r.Context(), middleware.SessionKeyUsername, admin.Username)
	h.sessionManager.Put(r.Context(), middleware.SessionKeyEmail, admin.Email)
	h.sessionManager.Put(r.Context(), middleware.SessionKeyRole, admin.Role)
	h.sessionManager.Put(r.Context(), middleware.SessionKeyLastActivity, time.Now().Unix())

	slog.Info("admin logged in", "admin_id", admin.ID, "username", admin.Username)
	_ = h.activity.LogInfo(r.Context(), model.ActivityCategoryAuth, "Admin logged in", admin.ID, requestInfo(r), nil)

	name := admin.FullName
	if name == "" {
		name = admin.Username
	}
	flashSuccess(w, r, h.renderer, redirectAdmin, "Welcome back, "+name+"!")
}

// failLogin records a failed attempt and redirects with the matching message.
func (h *AuthHandler) failLogin(w http.ResponseWriter, r *http.Request, username string) {
	if h.loginProtection != nil {
		if locked, lockDuration := h.loginProtection.RecordFailedAttempt(username); locked {
			logSecurity(r, h.activity, model.ActivityCategorySecurity, "Account locked after failed logins", 0,
				map[string]any{"username": username, "duration": lockDuration.String()})
			flashError(w, r, h.renderer, redirectLogin, "Too many failed attempts. Try again in "+formatDuration(lockDuration)+".")
			return
		}
		if remaining := h.loginProtection.RemainingAttempts(username); remaining > 0 && remaining <= 2 {
			flashError(w, r, h.renderer, redirectLogin, fmt.Sprintf("%s. %d attempts remaining.", msgInvalidCredentials, remaining))
			return
		}
	}
	flashError(w, r, h.renderer, redirectLogin, msgInvalidCredentials)
}

// Logout destroys the session.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	adminID := h.sessionManager.GetInt64(r.Context(), middleware.SessionKeyAdminID)
	if adminID > 0 {
		_ = h.activity.LogInfo(r.Context(), model.ActivityCategoryAuth, "Admin logged out", adminID, requestInfo(r), nil)
	}

	if err := h.sessionManager.Destroy(r.Context()); err != nil {
		slog.Error("session destroy error", "error", err)
	}

	slog.Info("admin logged out", "admin_id", adminID)
	flashAndRedirect(w, r, h.renderer, redirectLogin, "You have been logged out.", flashTypeInfo)
}

// formatDuration formats a duration into a human-readable string.
func formatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%d seconds", int(d.Seconds()))
	}
	if d < time.Hour {
		mins := int(d.Minutes())
		if mins == 1 {
			return "1 minute"
		}
		return fmt.Sprintf("%d minutes", mins)
	}
	hours := int(d.Hours())
	if hours == 1 {
		return "1 hour"
	}
	return fmt.Sprintf("%d hours", hours)
}
