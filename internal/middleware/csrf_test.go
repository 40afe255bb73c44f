// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

var testAuthKey = []byte("12345678901234567890123456789012")

func TestDefaultCSRFConfig(t *testing.T) {
	dev := DefaultCSRFConfig(testAuthKey, true, nil)
	if len(dev.TrustedOrigins) != 2 {
		t.Errorf("dev TrustedOrigins = %v, want 2 local origins", dev.TrustedOrigins)
	}

	prod := DefaultCSRFConfig(testAuthKey, false, []string{"church.example.org"})
	if len(prod.TrustedOrigins) != 1 || prod.TrustedOrigins[0] != "church.example.org" {
		t.Errorf("prod TrustedOrigins = %v", prod.TrustedOrigins)
	}

	for _, origin := range dev.TrustedOrigins {
		if strings.HasPrefix(origin, "http") {
			t.Errorf("TrustedOrigin %q should be host:port, not a URL", origin)
		}
	}
}

func TestCSRF(t *testing.T) {
	h := CSRF(DefaultCSRFConfig(testAuthKey, false, nil))(okHandler())

	tests := []struct {
		name    string
		method  string
		headers map[string]string
		want    int
	}{
		{"safe method passes", http.MethodGet, map[string]string{"Sec-Fetch-Site": "cross-site"}, http.StatusOK},
		{"same origin post passes", http.MethodPost, map[string]string{"Sec-Fetch-Site": "same-origin"}, http.StatusOK},
		{"cross site post rejected", http.MethodPost, map[string]string{"Sec-Fetch-Site": "cross-site"}, http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "/admin/sermons", nil)
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}

func TestSkipCSRF(t *testing.T) {
	h := SkipCSRF("/health")(CSRF(DefaultCSRFConfig(testAuthKey, false, nil))(okHandler()))

	req := httptest.NewRequest(http.MethodPost, "/health", nil)
	req.Header.Set("Sec-Fetch-Site", "cross-site")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("skipped path status = %d, want %d", rec.Code, http.StatusOK)
	}
}
