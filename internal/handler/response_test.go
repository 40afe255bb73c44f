// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"database/sql"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestLogAndHTTPError(t *testing.T) {
	tests := []struct {
		name       string
		message    string
		statusCode int
		logMsg     string
	}{
		{"bad request", "Bad Request", http.StatusBadRequest, "validation failed"},
		{"not found", "Not Found", http.StatusNotFound, "resource missing"},
		{"internal error", "Internal Server Error", http.StatusInternalServerError, "database error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			logAndHTTPError(w, tt.message, tt.statusCode, tt.logMsg)

			if w.Code != tt.statusCode {
				t.Errorf("status code = %d, want %d", w.Code, tt.statusCode)
			}

			body := w.Body.String()
			if body == "" {
				t.Error("body should not be empty")
			}
		})
	}
}

func TestLogAndInternalError(t *testing.T) {
	w := httptest.NewRecorder()
	logAndInternalError(w, "database connection failed", "error", errors.New("connection refused"))

	if w.Code != http.StatusInternalServerError {
		t.Errorf("status code = %d, want %d", w.Code, http.StatusInternalServerError)
	}
}

func TestRequireEntityWithRedirect(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name      string
		err       error
		wantOK    bool
		wantFlash string
	}{
		{"found", nil, true, ""},
		{"not found", sql.ErrNoRows, false, "Sermon not found"},
		{"database error", errors.New("connection refused"), false, "Error loading Sermon"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := env.newRequest(t, testRequest{method: http.MethodGet, target: "/admin/sermons/7"})
			w := httptest.NewRecorder()

			got, ok := requireEntityWithRedirect(w, req, env.renderer, redirectAdminSermons, "Sermon", 7,
				func(id int64) (int64, error) { return id, tt.err })

			if ok != tt.wantOK {
				t.Fatalf("ok = %v; want %v", ok, tt.wantOK)
			}
			if ok {
				if got != 7 {
					t.Errorf("entity = %d; want 7", got)
				}
				return
			}
			assertRedirect(t, w, redirectAdminSermons)
			if flash := env.flashOf(req); flash != tt.wantFlash {
				t.Errorf("flash = %q; want %q", flash, tt.wantFlash)
			}
		})
	}
}
