// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestRateLimiterMiddleware(t *testing.T) {
	rl := NewRateLimiter("contact", 0.001, 1)
	h := rl.Middleware()(okHandler())

	post := func(ip string) int {
		req := httptest.NewRequest(http.MethodPost, "/contact", nil)
		req.RemoteAddr = ip + ":4000"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	if got := post("198.51.100.1"); got != http.StatusOK {
		t.Fatalf("first POST = %d", got)
	}
	if got := post("198.51.100.1"); got != http.StatusTooManyRequests {
		t.Errorf("second POST = %d, want %d", got, http.StatusTooManyRequests)
	}
	if got := post("198.51.100.2"); got != http.StatusOK {
		t.Errorf("other IP POST = %d, want %d", got, http.StatusOK)
	}

	rec := httptest.NewRecorder()
	get := httptest.NewRequest(http.MethodGet, "/contact", nil)
	get.RemoteAddr = "198.51.100.1:4000"
	h.ServeHTTP(rec, get)
	if rec.Code != http.StatusOK {
		t.Errorf("GET = %d, want %d", rec.Code, http.StatusOK)
	}
}

func TestLimiterCacheClear(t *testing.T) {
	lc := newLimiterCache[string](1, 1)
	lc.get("a")
	lc.get("b")
	if lc.clearIfExceeds(5) {
		t.Error("clearIfExceeds(5) cleared a small cache")
	}
	if !lc.clearIfExceeds(1) {
		t.Error("clearIfExceeds(1) should clear")
	}
	if len(lc.limiters) != 0 {
		t.Errorf("entries after clear = %d", len(lc.limiters))
	}
}
