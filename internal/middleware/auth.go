// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package middleware provides HTTP middleware for authentication,
// authorization, and request context handling.
package middleware

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/alexedwards/scs/v2"

	"github.com/olegiv/ochurch/internal/cache"
	"github.com/olegiv/ochurch/internal/model"
	"github.com/olegiv/ochurch/internal/store"
)

// ContextKey is a type for context keys to avoid collisions.
type ContextKey string

// Context keys for request-scoped data.
const (
	ContextKeyAdmin    ContextKey = "admin"
	ContextKeySettings ContextKey = "settings"
)

// Session keys. Only identifiers are stored in the session; the admin row is
// reloaded on every request.
const (
	SessionKeyAdminID      = "admin_id"
	SessionKeyUsername     = "admin_username"
	SessionKeyEmail        = "admin_email"
	SessionKeyRole         = "admin_role"
	SessionKeyLastActivity = "last_activity"
	SessionKeyResetID      = "password_reset_id"
)

// LoginPath is where unauthenticated admin requests are sent.
const LoginPath = "/admin/login"

// Auth requires an authenticated admin session and redirects to the login
// page otherwise.
func Auth(sm *scs.SessionManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if sm.GetInt64(r.Context(), SessionKeyAdminID) == 0 {
				http.Redirect(w, r, LoginPath, http.StatusSeeOther)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// LoadAdmin loads the session's admin into the request context. Sessions of
// deleted or deactivated accounts are destroyed. Use after Auth.
func LoadAdmin(sm *scs.SessionManager, db *sql.DB) func(http.Handler) http.Handler {
	queries := store.New(db)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			adminID := sm.GetInt64(r.Context(), SessionKeyAdminID)
			if adminID == 0 {
				next.ServeHTTP(w, r)
				return
			}

			admin, err := queries.GetAdminByID(r.Context(), adminID)
			if err != nil && !errors.Is(err, sql.ErrNoRows) {
				slog.Error("loading session admin", "error", err, "admin_id", adminID)
				http.Error(w, "Internal Server Error", http.StatusInternalServerError)
				return
			}
			if err != nil || !admin.IsActive {
				slog.Info("session rejected for unavailable account", "admin_id", adminID)
				_ = sm.Destroy(r.Context())
				http.Redirect(w, r, LoginPath, http.StatusSeeOther)
				return
			}

			// Role changes made by another admin take effect immediately.
			if sm.GetString(r.Context(), SessionKeyRole) != admin.Role {
				sm.Put(r.Context(), SessionKeyRole, admin.Role)
			}
			sm.Put(r.Context(), SessionKeyLastActivity, time.Now().Unix())

			ctx := context.WithValue(r.Context(), ContextKeyAdmin, admin)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetAdmin returns the admin loaded by LoadAdmin, or nil.
func GetAdmin(r *http.Request) *store.Admin {
	admin, ok := r.Context().Value(ContextKeyAdmin).(store.Admin)
	if !ok {
		return nil
	}
	return &admin
}

// GetAdminID returns the current admin's ID, or 0.
func GetAdminID(r *http.Request) int64 {
	if admin := GetAdmin(r); admin != nil {
		return admin.ID
	}
	return 0
}

// Can reports whether the current admin holds perm.
func Can(r *http.Request, perm model.Permission) bool {
	admin := GetAdmin(r)
	return admin != nil && model.HasPermission(admin.Role, perm)
}

// RequirePermission allows the request only when the current admin's role
// grants perm. Denials are answered with 403 before any handler output.
func RequirePermission(perm model.Permission) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			admin := GetAdmin(r)
			if admin == nil {
				http.Redirect(w, r, LoginPath, http.StatusSeeOther)
				return
			}

			if !model.HasPermission(admin.Role, perm) {
				slog.Warn("access denied",
					"category", model.ActivityCategorySecurity,
					"status", http.StatusForbidden,
					"method", r.Method,
					"path", r.URL.Path,
					"admin_id", admin.ID,
					"role", admin.Role,
					"permission", string(perm),
					"ip", ClientIP(r),
				)
				http.Error(w, "Forbidden: insufficient permissions", http.StatusForbidden)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// LoadSettings puts the site settings into the request context. Failures
// fall back to the defaults so public pages keep rendering.
func LoadSettings(settings *cache.SettingsCache) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			values, err := settings.All(r.Context())
			if err != nil {
				slog.Error("loading site settings", "error", err)
				values = model.DefaultSettingsCopy()
			}
			ctx := context.WithValue(r.Context(), ContextKeySettings, values)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetSettings returns the settings loaded by LoadSettings, or the defaults.
func GetSettings(r *http.Request) map[string]string {
	if values, ok := r.Context().Value(ContextKeySettings).(map[string]string); ok {
		return values
	}
	return model.DefaultSettingsCopy()
}
