// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package session

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/olegiv/ochurch/internal/testutil"
)

func TestNew_Cookie(t *testing.T) {
	tests := []struct {
		name       string
		isDev      bool
		wantName   string
		wantSecure bool
	}{
		{"development", true, CookieName, false},
		{"production", false, SecureCookieName, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sm := New(testutil.TestMemoryDB(t), tt.isDev)

			if sm.Cookie.Name != tt.wantName {
				t.Errorf("Cookie.Name = %q, want %q", sm.Cookie.Name, tt.wantName)
			}
			if sm.Cookie.Secure != tt.wantSecure {
				t.Errorf("Cookie.Secure = %v, want %v", sm.Cookie.Secure, tt.wantSecure)
			}
			if !sm.Cookie.HttpOnly {
				t.Error("Cookie.HttpOnly should be set")
			}
			if sm.Cookie.SameSite != http.SameSiteLaxMode {
				t.Errorf("Cookie.SameSite = %v, want Lax", sm.Cookie.SameSite)
			}
			if sm.Lifetime != Lifetime || sm.IdleTimeout != IdleTimeout {
				t.Errorf("lifetimes = %v/%v, want %v/%v", sm.Lifetime, sm.IdleTimeout, Lifetime, IdleTimeout)
			}
		})
	}
}

func TestNew_PersistsToSessionsTable(t *testing.T) {
	db := testutil.TestMemoryDB(t)
	sm := New(db, true)

	h := sm.LoadAndSave(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sm.Put(r.Context(), "admin_id", int64(7))
		w.WriteHeader(http.StatusNoContent)
	}))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/admin", nil))

	var cookie *http.Cookie
	for _, c := range w.Result().Cookies() {
		if c.Name == CookieName {
			cookie = c
		}
	}
	if cookie == nil || cookie.Value == "" {
		t.Fatal("expected a session cookie")
	}

	var count int
	if err := db.QueryRow(`SELECT COUNT(*) FROM sessions WHERE token = ?`, cookie.Value).Scan(&count); err != nil {
		t.Fatalf("querying sessions: %v", err)
	}
	if count != 1 {
		t.Errorf("sessions rows for token = %d, want 1", count)
	}
}
