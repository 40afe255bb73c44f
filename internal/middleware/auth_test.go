// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"context"
	"database/sql"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alexedwards/scs/v2"

	"github.com/olegiv/ochurch/internal/model"
	"github.com/olegiv/ochurch/internal/store"
	"github.com/olegiv/ochurch/internal/testutil"
)

func createAdmin(t *testing.T, db *sql.DB, username, role string) store.Admin {
	t.Helper()
	ts := time.Now().UTC().Truncate(time.Second)
	admin, err := store.New(db).CreateAdmin(context.Background(), store.CreateAdminParams{
		Username:     username,
		PasswordHash: "hash",
		Email:        username + "@example.com",
		FullName:     username,
		Role:         role,
		IsActive:     true,
		CreatedAt:    ts,
		UpdatedAt:    ts,
	})
	if err != nil {
		t.Fatalf("CreateAdmin: %v", err)
	}
	return admin
}

// withAdmin builds a request carrying admin in its context, as LoadAdmin would.
func withAdmin(r *http.Request, admin store.Admin) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), ContextKeyAdmin, admin))
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestAuth(t *testing.T) {
	sm := scs.New()

	t.Run("no session redirects to login", func(t *testing.T) {
		h := sm.LoadAndSave(Auth(sm)(okHandler()))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/admin", nil))

		if rec.Code != http.StatusSeeOther {
			t.Fatalf("status = %d, want %d", rec.Code, http.StatusSeeOther)
		}
		if loc := rec.Header().Get("Location"); loc != LoginPath {
			t.Errorf("Location = %q, want %q", loc, LoginPath)
		}
	})

	t.Run("session passes", func(t *testing.T) {
		login := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sm.Put(r.Context(), SessionKeyAdminID, int64(7))
			Auth(sm)(okHandler()).ServeHTTP(w, r)
		})
		rec := httptest.NewRecorder()
		sm.LoadAndSave(login).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/admin", nil))

		if rec.Code != http.StatusOK {
			t.Errorf("status = %d, want %d", rec.Code, http.StatusOK)
		}
	})
}

func TestLoadAdmin(t *testing.T) {
	db := testutil.TestMemoryDB(t)
	sm := scs.New()

	active := createAdmin(t, db, "active", model.RoleAdmin)
	inactive := createAdmin(t, db, "inactive", model.RoleViewer)
	if _, err := store.New(db).ToggleAdminActive(context.Background(), time.Now().UTC(), inactive.ID); err != nil {
		t.Fatalf("ToggleAdminActive: %v", err)
	}

	tests := []struct {
		name       string
		adminID    int64
		wantStatus int
		wantAdmin  bool
	}{
		{"active admin loaded", active.ID, http.StatusOK, true},
		{"inactive admin rejected", inactive.ID, http.StatusSeeOther, false},
		{"deleted admin rejected", 9999, http.StatusSeeOther, false},
		{"anonymous passes through", 0, http.StatusOK, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var loaded *store.Admin
			inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				loaded = GetAdmin(r)
				w.WriteHeader(http.StatusOK)
			})
			h := sm.LoadAndSave(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if tt.adminID != 0 {
					sm.Put(r.Context(), SessionKeyAdminID, tt.adminID)
				}
				LoadAdmin(sm, db)(inner).ServeHTTP(w, r)
			}))

			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/admin", nil))

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if (loaded != nil) != tt.wantAdmin {
				t.Errorf("admin loaded = %v, want %v", loaded != nil, tt.wantAdmin)
			}
			if tt.wantAdmin && loaded.ID != tt.adminID {
				t.Errorf("loaded admin ID = %d, want %d", loaded.ID, tt.adminID)
			}
		})
	}
}

func TestGetAdmin(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if GetAdmin(req) != nil {
		t.Error("GetAdmin() without context should be nil")
	}
	if GetAdminID(req) != 0 {
		t.Error("GetAdminID() without context should be 0")
	}

	req = withAdmin(req, store.Admin{ID: 42, Role: model.RoleViewer})
	if got := GetAdminID(req); got != 42 {
		t.Errorf("GetAdminID() = %d, want 42", got)
	}
	if !Can(req, model.PermViewContent) {
		t.Error("viewer should have view_content")
	}
	if Can(req, model.PermCreateContent) {
		t.Error("viewer should not have create_content")
	}
}

func TestRequirePermission(t *testing.T) {
	tests := []struct {
		name string
		role string
		perm model.Permission
		want int
	}{
		{"viewer cannot create content", model.RoleViewer, model.PermCreateContent, http.StatusForbidden},
		{"viewer can view donations", model.RoleViewer, model.PermViewDonations, http.StatusOK},
		{"content manager can create", model.RoleContentManager, model.PermCreateContent, http.StatusOK},
		{"content manager cannot edit settings", model.RoleContentManager, model.PermEditSettings, http.StatusForbidden},
		{"admin can edit settings", model.RoleAdmin, model.PermEditSettings, http.StatusOK},
		{"admin cannot delete users", model.RoleAdmin, model.PermDeleteUsers, http.StatusForbidden},
		{"super admin can delete users", model.RoleSuperAdmin, model.PermDeleteUsers, http.StatusOK},
		{"unknown role denied", "editor", model.PermViewContent, http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			called := false
			h := RequirePermission(tt.perm)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				called = true
				w.WriteHeader(http.StatusOK)
			}))

			req := withAdmin(httptest.NewRequest(http.MethodPost, "/admin/x", nil), store.Admin{ID: 1, Role: tt.role})
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
			if called != (tt.want == http.StatusOK) {
				t.Errorf("handler called = %v", called)
			}
		})
	}

	t.Run("no admin redirects", func(t *testing.T) {
		rec := httptest.NewRecorder()
		RequirePermission(model.PermViewContent)(okHandler()).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/admin", nil))
		if rec.Code != http.StatusSeeOther {
			t.Errorf("status = %d, want %d", rec.Code, http.StatusSeeOther)
		}
	})
}

func TestGetSettingsDefaults(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	settings := GetSettings(req)
	if settings[model.SettingSiteName] != model.DefaultSettings[model.SettingSiteName] {
		t.Errorf("site_name = %q, want default", settings[model.SettingSiteName])
	}

	settings[model.SettingSiteName] = "changed"
	if model.DefaultSettings[model.SettingSiteName] == "changed" {
		t.Error("GetSettings() must not expose the defaults map")
	}
}
