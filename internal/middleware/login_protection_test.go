// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

// newTestLoginProtection returns a protection instance driven by a fake clock.
func newTestLoginProtection(t *testing.T, maxAttempts int) (*LoginProtection, *time.Time) {
	t.Helper()
	lp := NewLoginProtection(LoginProtectionConfig{
		IPRateLimit:       0.01,
		IPBurst:           2,
		MaxFailedAttempts: maxAttempts,
		LockoutDuration:   15 * time.Minute,
		AttemptWindow:     15 * time.Minute,
	})
	t.Cleanup(lp.Stop)

	clock := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	lp.now = func() time.Time { return clock }
	return lp, &clock
}

func TestDefaultLoginProtectionConfig(t *testing.T) {
	cfg := DefaultLoginProtectionConfig()
	if cfg.MaxFailedAttempts != 5 {
		t.Errorf("MaxFailedAttempts = %d, want 5", cfg.MaxFailedAttempts)
	}
	if cfg.LockoutDuration != 15*time.Minute {
		t.Errorf("LockoutDuration = %v, want 15m", cfg.LockoutDuration)
	}

	lp := NewLoginProtection(LoginProtectionConfig{})
	defer lp.Stop()
	if lp.maxFailedAttempts != 5 || lp.lockoutDuration != 15*time.Minute {
		t.Errorf("zero config not defaulted: %d, %v", lp.maxFailedAttempts, lp.lockoutDuration)
	}
}

func TestLoginProtectionLockout(t *testing.T) {
	lp, clock := newTestLoginProtection(t, 5)

	for i := 1; i < 5; i++ {
		if locked, _ := lp.RecordFailedAttempt("pastor"); locked {
			t.Fatalf("attempt %d locked the account", i)
		}
	}
	if got := lp.RemainingAttempts("pastor"); got != 1 {
		t.Errorf("RemainingAttempts() = %d, want 1", got)
	}

	locked, d := lp.RecordFailedAttempt("Pastor")
	if !locked || d != 15*time.Minute {
		t.Fatalf("fifth attempt = (%v, %v), want (true, 15m)", locked, d)
	}

	if locked, remaining := lp.IsAccountLocked("pastor"); !locked || remaining != 15*time.Minute {
		t.Errorf("IsAccountLocked() = (%v, %v)", locked, remaining)
	}

	*clock = clock.Add(15*time.Minute + time.Second)
	if locked, _ := lp.IsAccountLocked("pastor"); locked {
		t.Error("account should unlock after the lockout period")
	}
}

func TestLoginProtectionWindowAndSuccess(t *testing.T) {
	lp, clock := newTestLoginProtection(t, 3)

	lp.RecordFailedAttempt("deacon")
	lp.RecordFailedAttempt("deacon")
	if got := lp.RemainingAttempts("deacon"); got != 1 {
		t.Errorf("RemainingAttempts() = %d, want 1", got)
	}

	*clock = clock.Add(16 * time.Minute)
	if got := lp.RemainingAttempts("deacon"); got != 3 {
		t.Errorf("RemainingAttempts() after window = %d, want 3", got)
	}
	if locked, _ := lp.RecordFailedAttempt("deacon"); locked {
		t.Error("failure after window should start a new count")
	}

	lp.RecordSuccessfulLogin("deacon")
	if got := lp.RemainingAttempts("deacon"); got != 3 {
		t.Errorf("RemainingAttempts() after success = %d, want 3", got)
	}
}

func TestLoginProtectionCleanup(t *testing.T) {
	lp, clock := newTestLoginProtection(t, 3)
	lp.RecordFailedAttempt("elder")

	*clock = clock.Add(time.Hour)
	lp.cleanupStaleEntries()

	lp.attemptsMu.Lock()
	n := len(lp.failedAttempts)
	lp.attemptsMu.Unlock()
	if n != 0 {
		t.Errorf("stale entries = %d, want 0", n)
	}
}

func TestLoginProtectionMiddleware(t *testing.T) {
	lp, _ := newTestLoginProtection(t, 5)
	h := lp.Middleware()(okHandler())

	send := func(method string) int {
		req := httptest.NewRequest(method, "/admin/login", nil)
		req.RemoteAddr = "203.0.113.50:1234"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	if got := send(http.MethodPost); got != http.StatusOK {
		t.Fatalf("first POST = %d", got)
	}
	if got := send(http.MethodPost); got != http.StatusOK {
		t.Fatalf("second POST = %d", got)
	}
	if got := send(http.MethodPost); got != http.StatusTooManyRequests {
		t.Errorf("third POST = %d, want %d", got, http.StatusTooManyRequests)
	}
	if got := send(http.MethodGet); got != http.StatusOK {
		t.Errorf("GET = %d, want %d", got, http.StatusOK)
	}
}
