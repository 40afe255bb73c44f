// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/olegiv/ochurch/internal/auth"
	"github.com/olegiv/ochurch/internal/mail"
	"github.com/olegiv/ochurch/internal/middleware"
	"github.com/olegiv/ochurch/internal/model"
	"github.com/olegiv/ochurch/internal/service"
	"github.com/olegiv/ochurch/internal/store"
)

func newResetHandler(env *testEnv, mailer mail.Sender, dev bool) *PasswordResetHandler {
	resets := service.NewPasswordResetService(env.db, mailer, service.PasswordResetConfig{DevDisclosure: dev})
	return NewPasswordResetHandler(env.renderer, env.sm, resets, service.NewActivityService(env.db))
}

// step sends a request that shares prev's session.
func step(t *testing.T, env *testEnv, prev *http.Request, method string, form url.Values) *http.Request {
	t.Helper()
	req := env.newRequest(t, testRequest{method: method, target: redirectForgotPassword, form: form})
	if prev != nil {
		req = req.WithContext(prev.Context())
	}
	return req
}

func TestPasswordReset_FullFlow(t *testing.T) {
	env := newTestEnv(t)
	admin := createTestAdmin(t, env.db, "pastor", model.RoleAdmin)
	h := newResetHandler(env, nil, true)

	req := step(t, env, nil, http.MethodPost, url.Values{"email": {"Pastor@Example.com"}})
	w := httptest.NewRecorder()
	h.SubmitEmail(w, req)
	assertRedirect(t, w, redirectForgotPassword)
	if flash := env.flashOf(req); flash != msgResetSent {
		t.Fatalf("flash = %q", flash)
	}

	code := env.sm.GetString(req.Context(), sessionKeyResetDevCode)
	if !auth.IsOTPFormat(code) {
		t.Fatalf("dev code = %q; want six digits", code)
	}

	show := step(t, env, req, http.MethodGet, nil)
	w = httptest.NewRecorder()
	h.Show(w, show)
	assertStatus(t, w.Code, http.StatusOK)
	body := w.Body.String()
	if !strings.Contains(body, `<span class="step">`+ResetStepOTP+`</span>`) || !strings.Contains(body, code) {
		t.Errorf("code step not rendered: %s", body)
	}

	wrong := "000000"
	if code == wrong {
		wrong = "111111"
	}
	verify := step(t, env, req, http.MethodPost, url.Values{"otp": {wrong}})
	w = httptest.NewRecorder()
	h.Verify(w, verify)
	if flash := env.flashOf(verify); flash != "Incorrect code. 2 attempts remaining." {
		t.Errorf("flash = %q", flash)
	}

	verify = step(t, env, req, http.MethodPost, url.Values{"otp": {code}})
	w = httptest.NewRecorder()
	h.Verify(w, verify)
	assertRedirect(t, w, redirectForgotPassword)
	if flash := env.flashOf(verify); !strings.HasPrefix(flash, "Code verified") {
		t.Errorf("flash = %q", flash)
	}

	reset := step(t, env, req, http.MethodPost, url.Values{"password": {"short"}, "password_confirm": {"short"}})
	w = httptest.NewRecorder()
	h.Reset(w, reset)
	assertStatus(t, w.Code, http.StatusOK)
	assertFieldError(t, w, "password")

	reset = step(t, env, req, http.MethodPost, url.Values{"password": {"new-secret-1"}, "password_confirm": {"new-secret-1"}})
	w = httptest.NewRecorder()
	h.Reset(w, reset)
	assertStatus(t, w.Code, http.StatusOK)
	if !strings.Contains(w.Body.String(), ResetStepSuccess) {
		t.Errorf("success step not rendered: %s", w.Body.String())
	}
	if id := env.sm.GetString(reset.Context(), middleware.SessionKeyResetID); id != "" {
		t.Errorf("reset id left in session: %q", id)
	}

	got, err := store.New(env.db).GetAdminByID(context.Background(), admin.ID)
	if err != nil {
		t.Fatalf("GetAdminByID: %v", err)
	}
	ok, err := auth.CheckPassword("new-secret-1", got.PasswordHash)
	if err != nil || !ok {
		t.Errorf("new password not accepted: ok=%v err=%v", ok, err)
	}
}

func TestPasswordReset_UnknownEmailSameResponse(t *testing.T) {
	env := newTestEnv(t)
	createTestAdmin(t, env.db, "pastor", model.RoleAdmin)
	mailer := &mail.MemorySender{}
	h := newResetHandler(env, mailer, false)

	for _, email := range []string{"pastor@example.com", "stranger@example.com"} {
		req := step(t, env, nil, http.MethodPost, url.Values{"email": {email}})
		w := httptest.NewRecorder()
		h.SubmitEmail(w, req)

		assertRedirect(t, w, redirectForgotPassword)
		if flash := env.flashOf(req); flash != msgResetSent {
			t.Errorf("%s: flash = %q", email, flash)
		}
		if env.sm.GetString(req.Context(), middleware.SessionKeyResetID) == "" {
			t.Errorf("%s: no reset id in session", email)
		}
		if code := env.sm.GetString(req.Context(), sessionKeyResetDevCode); code != "" {
			t.Errorf("%s: code disclosed with a mailer configured", email)
		}
	}

	h.resets.Wait()
	sent := mailer.Sent()
	if len(sent) != 1 {
		t.Fatalf("sent %d emails; want 1", len(sent))
	}
	if len(sent[0].To) != 1 || sent[0].To[0] != "pastor@example.com" {
		t.Errorf("email sent to %v", sent[0].To)
	}
}

func TestPasswordReset_Unavailable(t *testing.T) {
	env := newTestEnv(t)
	h := newResetHandler(env, nil, false)

	req := step(t, env, nil, http.MethodPost, url.Values{"email": {"pastor@example.com"}})
	w := httptest.NewRecorder()
	h.SubmitEmail(w, req)

	assertRedirect(t, w, redirectForgotPassword)
	if flash := env.flashOf(req); flash != msgResetUnavailable {
		t.Errorf("flash = %q", flash)
	}
}

func TestPasswordReset_VerifyWithoutRequest(t *testing.T) {
	env := newTestEnv(t)
	h := newResetHandler(env, nil, true)

	req := step(t, env, nil, http.MethodPost, url.Values{"otp": {"123456"}})
	w := httptest.NewRecorder()
	h.Verify(w, req)

	assertRedirect(t, w, redirectForgotPassword)
	if flash := env.flashOf(req); flash != msgResetStartOver {
		t.Errorf("flash = %q", flash)
	}
}
