// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/alexedwards/scs/v2"

	"github.com/olegiv/ochurch/internal/auth"
	"github.com/olegiv/ochurch/internal/middleware"
	"github.com/olegiv/ochurch/internal/model"
	"github.com/olegiv/ochurch/internal/render"
	"github.com/olegiv/ochurch/internal/service"
	"github.com/olegiv/ochurch/internal/util"
)

// Steps of the forgot password flow.
const (
	ResetStepEmail   = "email"
	ResetStepOTP     = "otp"
	ResetStepNewPass = "reset"
	ResetStepSuccess = "success"
)

// sessionKeyResetDevCode holds a disclosed code in development.
const sessionKeyResetDevCode = "password_reset_dev_code"

const (
	msgResetSent        = "If an account exists for that address, a code has been sent."
	msgResetUnavailable = "Password reset by email is not available. Please contact an administrator."
	msgResetExpired     = "Your code has expired. Please request a new one."
	msgResetStartOver   = "Your reset request is no longer valid. Please start again."
)

// PasswordResetHandler serves the email, code and new password steps.
// The session only holds the id of the reset request; the step is derived
// from the stored record on every request.
type PasswordResetHandler struct {
	renderer       *render.Renderer
	sessionManager *scs.SessionManager
	resets         *service.PasswordResetService
	activity       *service.ActivityService
}

// NewPasswordResetHandler creates a new PasswordResetHandler.
func NewPasswordResetHandler(renderer *render.Renderer, sm *scs.SessionManager, resets *service.PasswordResetService, activity *service.ActivityService) *PasswordResetHandler {
	return &PasswordResetHandler{
		renderer:       renderer,
		sessionManager: sm,
		resets:         resets,
		activity:       activity,
	}
}

// ForgotPasswordData holds data for the forgot password template.
type ForgotPasswordData struct {
	Step        string
	Email       string
	Remaining   int
	MaxAttempts int
	DevCode     string
	Unavailable bool
}

// Show renders the step matching the session's reset request.
func (h *PasswordResetHandler) Show(w http.ResponseWriter, r *http.Request) {
	data := ForgotPasswordData{
		Step:        ResetStepEmail,
		MaxAttempts: h.resets.MaxAttempts(),
		Unavailable: !h.resets.Available(),
	}

	if id := h.sessionManager.GetString(r.Context(), middleware.SessionKeyResetID); id != "" {
		reset, err := h.resets.Get(r.Context(), id)
		switch {
		case errors.Is(err, service.ErrResetNotFound):
			h.clearSession(r)
		case err != nil:
			logAndInternalError(w, "failed to load reset request", "error", err)
			return
		case service.Expired(reset):
			h.resets.Cancel(r.Context(), id)
			h.clearSession(r)
			data.Step = ResetStepEmail
			h.renderStep(w, r, data, msgResetExpired, flashTypeWarning)
			return
		case reset.State == model.ResetStateVerified:
			data.Step = ResetStepNewPass
			data.Email = reset.Email
		default:
			data.Step = ResetStepOTP
			data.Email = reset.Email
			data.Remaining = max(h.resets.MaxAttempts()-int(reset.Attempts), 0)
			data.DevCode = h.sessionManager.GetString(r.Context(), sessionKeyResetDevCode)
		}
	}

	h.renderStep(w, r, data, "", "")
}

// SubmitEmail starts a reset. Every address gets the same response.
func (h *PasswordResetHandler) SubmitEmail(w http.ResponseWriter, r *http.Request) {
	if !parseFormOrRedirect(w, r, h.renderer, redirectForgotPassword) {
		return
	}

	email := strings.ToLower(strings.TrimSpace(r.FormValue("email")))
	if !util.IsValidEmail(email) {
		flashError(w, r, h.renderer, redirectForgotPassword, "Enter a valid email address")
		return
	}

	// A new request replaces any open one bound to this session.
	h.resets.Cancel(r.Context(), h.sessionManager.GetString(r.Context(), middleware.SessionKeyResetID))
	h.clearSession(r)

	siteName := middleware.GetSettings(r)[model.SettingSiteName]
	req, err := h.resets.Request(r.Context(), email, siteName)
	if errors.Is(err, service.ErrResetUnavailable) {
		slog.Error("password reset requested but no mail sender is configured")
		flashError(w, r, h.renderer, redirectForgotPassword, msgResetUnavailable)
		return
	}
	if err != nil {
		slog.Error("failed to start password reset", "error", err)
		flashError(w, r, h.renderer, redirectForgotPassword, genericSaveError)
		return
	}

	h.sessionManager.Put(r.Context(), middleware.SessionKeyResetID, req.ID)
	if req.DevCode != "" {
		h.sessionManager.Put(r.Context(), sessionKeyResetDevCode, req.DevCode)
	}
	logSecurity(r, h.activity, model.ActivityCategoryAuth, "Password reset requested", 0, nil)

	flashAndRedirect(w, r, h.renderer, redirectForgotPassword, msgResetSent, flashTypeInfo)
}

// Verify checks the submitted code.
func (h *PasswordResetHandler) Verify(w http.ResponseWriter, r *http.Request) {
	if !parseFormOrRedirect(w, r, h.renderer, redirectForgotPassword) {
		return
	}

	id := h.sessionManager.GetString(r.Context(), middleware.SessionKeyResetID)
	if id == "" {
		flashError(w, r, h.renderer, redirectForgotPassword, msgResetStartOver)
		return
	}

	code := strings.TrimSpace(r.FormValue("otp"))
	if !auth.IsOTPFormat(code) {
		flashError(w, r, h.renderer, redirectForgotPassword, "Enter the 6-digit code from the email")
		return
	}

	remaining, err := h.resets.Verify(r.Context(), id, code)
	switch {
	case err == nil:
		flashSuccess(w, r, h.renderer, redirectForgotPassword, "Code verified. Choose a new password.")
	case errors.Is(err, service.ErrOTPInvalid):
		flashError(w, r, h.renderer, redirectForgotPassword, fmt.Sprintf("Incorrect code. %d attempts remaining.", remaining))
	case errors.Is(err, service.ErrOTPAttemptsExceeded):
		h.clearSession(r)
		logSecurity(r, h.activity, model.ActivityCategorySecurity, "Password reset locked after failed attempts", 0, nil)
		flashError(w, r, h.renderer, redirectForgotPassword, "Too many incorrect attempts. Please request a new code.")
	case errors.Is(err, service.ErrOTPExpired):
		h.clearSession(r)
		flashError(w, r, h.renderer, redirectForgotPassword, msgResetExpired)
	case errors.Is(err, service.ErrResetNotFound):
		h.clearSession(r)
		flashError(w, r, h.renderer, redirectForgotPassword, msgResetStartOver)
	default:
		slog.Error("failed to verify reset code", "error", err)
		flashError(w, r, h.renderer, redirectForgotPassword, genericSaveError)
	}
}

// Reset sets the new password of a verified request.
func (h *PasswordResetHandler) Reset(w http.ResponseWriter, r *http.Request) {
	if !parseFormOrRedirect(w, r, h.renderer, redirectForgotPassword) {
		return
	}

	id := h.sessionManager.GetString(r.Context(), middleware.SessionKeyResetID)
	if id == "" {
		flashError(w, r, h.renderer, redirectForgotPassword, msgResetStartOver)
		return
	}

	password := r.FormValue("password")
	errs := validateNewPassword(password, r.FormValue("password_confirm"))
	if len(errs) > 0 {
		renderPage(w, r, h.renderer, "auth/forgot_password", render.TemplateData{
			Title:  "Reset password",
			Errors: errs,
			Data:   ForgotPasswordData{Step: ResetStepNewPass, MaxAttempts: h.resets.MaxAttempts()},
		})
		return
	}

	adminID, err := h.resets.Reset(r.Context(), id, password)
	switch {
	case err == nil:
	case errors.Is(err, service.ErrResetNotVerified):
		flashError(w, r, h.renderer, redirectForgotPassword, "Verify your code first.")
		return
	case errors.Is(err, service.ErrOTPExpired):
		h.clearSession(r)
		flashError(w, r, h.renderer, redirectForgotPassword, msgResetExpired)
		return
	case errors.Is(err, service.ErrResetNotFound):
		h.clearSession(r)
		flashError(w, r, h.renderer, redirectForgotPassword, msgResetStartOver)
		return
	default:
		slog.Error("failed to reset password", "error", err)
		flashError(w, r, h.renderer, redirectForgotPassword, genericSaveError)
		return
	}

	h.clearSession(r)
	slog.Info("password reset completed", "admin_id", adminID)
	_ = h.activity.LogInfo(r.Context(), model.ActivityCategoryAuth, "Password reset completed", adminID, requestInfo(r), nil)

	h.renderStep(w, r, ForgotPasswordData{Step: ResetStepSuccess}, "", "")
}

// Cancel abandons the current request and returns to the email step.
func (h *PasswordResetHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	h.resets.Cancel(r.Context(), h.sessionManager.GetString(r.Context(), middleware.SessionKeyResetID))
	h.clearSession(r)
	http.Redirect(w, r, redirectForgotPassword, http.StatusSeeOther)
}

func (h *PasswordResetHandler) clearSession(r *http.Request) {
	h.sessionManager.Remove(r.Context(), middleware.SessionKeyResetID)
	h.sessionManager.Remove(r.Context(), sessionKeyResetDevCode)
}

func (h *PasswordResetHandler) renderStep(w http.ResponseWriter, r *http.Request, data ForgotPasswordData, flash, flashType string) {
	renderPage(w, r, h.renderer, "auth/forgot_password", render.TemplateData{
		Title:     "Reset password",
		Data:      data,
		Flash:     flash,
		FlashType: flashType,
	})
}

// validateNewPassword checks a new password and its confirmation.
func validateNewPassword(password, confirm string) map[string]string {
	errs := make(map[string]string)
	if len(password) < service.MinPasswordLength {
		errs["password"] = fmt.Sprintf("Password must be at least %d characters", service.MinPasswordLength)
	}
	if password != confirm {
		errs["password_confirm"] = "Passwords do not match"
	}
	return errs
}
