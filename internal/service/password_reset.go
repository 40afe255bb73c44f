// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/olegiv/ochurch/internal/auth"
	"github.com/olegiv/ochurch/internal/mail"
	"github.com/olegiv/ochurch/internal/model"
	"github.com/olegiv/ochurch/internal/store"
	"github.com/olegiv/ochurch/internal/util"
)

// Password reset errors.
var (
	ErrResetUnavailable    = errors.New("password reset by email is not available")
	ErrResetNotFound       = errors.New("reset request not found")
	ErrResetNotVerified    = errors.New("reset code has not been verified")
	ErrOTPExpired          = errors.New("reset code has expired")
	ErrOTPInvalid          = errors.New("reset code is incorrect")
	ErrOTPAttemptsExceeded = errors.New("too many incorrect attempts")
)

// MinPasswordLength is the shortest accepted admin password.
const MinPasswordLength = 8

const mailTimeout = 15 * time.Second

// PasswordResetConfig tunes the reset flow.
type PasswordResetConfig struct {
	Expiry      time.Duration
	MaxAttempts int
	// DevDisclosure returns codes to the caller instead of requiring a mailer.
	DevDisclosure bool
}

// ResetRequest is the outcome of a reset request. DevCode is only set when
// codes are disclosed for local development.
type ResetRequest struct {
	ID      string
	DevCode string
}

// PasswordResetService runs the email, code and new-password steps.
// Requests for unknown or inactive addresses create a record whose hash no
// code can match, so every address gets the same response.
type PasswordResetService struct {
	db      *sql.DB
	queries *store.Queries
	mailer  mail.Sender
	cfg     PasswordResetConfig
	wg      sync.WaitGroup
}

// NewPasswordResetService creates the service. mailer may be nil.
func NewPasswordResetService(db *sql.DB, mailer mail.Sender, cfg PasswordResetConfig) *PasswordResetService {
	if cfg.Expiry <= 0 {
		cfg.Expiry = 10 * time.Minute
	}
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 3
	}
	return &PasswordResetService{
		db:      db,
		queries: store.New(db),
		mailer:  mailer,
		cfg:     cfg,
	}
}

// Available reports whether codes can reach the user.
func (s *PasswordResetService) Available() bool {
	return s.mailer != nil || s.cfg.DevDisclosure
}

// MaxAttempts returns the number of code attempts allowed per request.
func (s *PasswordResetService) MaxAttempts() int {
	return s.cfg.MaxAttempts
}

// Request starts a reset for email. The returned id is bound to the caller's session.
func (s *PasswordResetService) Request(ctx context.Context, email, siteName string) (ResetRequest, error) {
	if !s.Available() {
		return ResetRequest{}, ErrResetUnavailable
	}

	email = strings.ToLower(strings.TrimSpace(email))
	admin, err := s.queries.GetAdminByEmail(ctx, email)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return ResetRequest{}, fmt.Errorf("looking up admin: %w", err)
	}
	known := err == nil && admin.IsActive

	var code, codeHash string
	var adminID sql.NullInt64
	if known {
		code, err = auth.GenerateOTP()
		if err != nil {
			return ResetRequest{}, err
		}
		codeHash, err = auth.HashOTP(code)
		adminID = util.NullInt64FromValue(admin.ID)
	} else {
		codeHash, err = auth.DecoyOTPHash()
	}
	if err != nil {
		return ResetRequest{}, fmt.Errorf("hashing code: %w", err)
	}

	now := util.Now()
	id := uuid.NewString()
	err = store.ExecTx(ctx, s.db, func(q *store.Queries) error {
		if known {
			if err := q.ConsumeOpenPasswordResets(ctx, now, admin.ID); err != nil {
				return err
			}
		}
		_, err := q.CreatePasswordReset(ctx, store.CreatePasswordResetParams{
			ID:        id,
			AdminID:   adminID,
			Email:     email,
			CodeHash:  codeHash,
			ExpiresAt: now.Add(s.cfg.Expiry),
			CreatedAt: now,
			UpdatedAt: now,
		})
		return err
	})
	if err != nil {
		return ResetRequest{}, fmt.Errorf("storing reset request: %w", err)
	}

	result := ResetRequest{ID: id}
	if !known {
		slog.Info("password reset requested for unknown or inactive address")
		return result, nil
	}

	if s.mailer == nil {
		result.DevCode = code
		slog.Warn("password reset code disclosed in page (development only)", "admin_id", admin.ID)
		return result, nil
	}

	s.sendCode(ctx, admin, code, siteName)
	slog.Info("password reset requested", "admin_id", admin.ID)
	return result, nil
}

// sendCode delivers the code in the background so known and unknown
// addresses take the same time to answer.
func (s *PasswordResetService) sendCode(ctx context.Context, admin store.Admin, code, siteName string) {
	name := admin.FullName
	if name == "" {
		name = admin.Username
	}
	msg, err := mail.ResetCodeMessage(siteName, admin.Email, name, code, int(s.cfg.Expiry/time.Minute))
	if err != nil {
		slog.Error("building reset email", "error", err)
		return
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), mailTimeout)
		defer cancel()
		if _, err := s.mailer.Send(sendCtx, msg); err != nil {
			slog.Error("failed to send password reset email", "admin_id", admin.ID, "error", err)
		}
	}()
}

// Wait blocks until queued emails have been handed to the mailer.
func (s *PasswordResetService) Wait() {
	s.wg.Wait()
}

// Get returns an open reset request.
func (s *PasswordResetService) Get(ctx context.Context, id string) (store.PasswordReset, error) {
	if id == "" {
		return store.PasswordReset{}, ErrResetNotFound
	}
	r, err := s.queries.GetPasswordReset(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return r, ErrResetNotFound
	}
	if err != nil {
		return r, fmt.Errorf("loading reset request: %w", err)
	}
	if r.State == model.ResetStateConsumed {
		return r, ErrResetNotFound
	}
	return r, nil
}

// Expired reports whether r can no longer be used.
func Expired(r store.PasswordReset) bool {
	return !util.Now().Before(r.ExpiresAt)
}

// Verify checks a submitted code. On a wrong code it returns ErrOTPInvalid
// and the attempts left; once attempts run out the request is consumed and
// ErrOTPAttemptsExceeded returned.
func (s *PasswordResetService) Verify(ctx context.Context, id, code string) (int, error) {
	r, err := s.Get(ctx, id)
	if err != nil {
		return 0, err
	}
	if r.State == model.ResetStateVerified {
		return 0, nil
	}

	now := util.Now()
	if Expired(r) {
		s.consume(ctx, r.ID, now)
		return 0, ErrOTPExpired
	}

	ok, err := auth.VerifyOTP(code, r.CodeHash)
	if err != nil {
		return 0, fmt.Errorf("verifying code: %w", err)
	}
	if ok && r.AdminID.Valid {
		if err := s.queries.SetPasswordResetState(ctx, model.ResetStateVerified, now, r.ID); err != nil {
			return 0, fmt.Errorf("marking verified: %w", err)
		}
		return 0, nil
	}

	r, err = s.queries.IncrementPasswordResetAttempts(ctx, now, r.ID)
	if err != nil {
		return 0, fmt.Errorf("counting attempt: %w", err)
	}
	remaining := s.cfg.MaxAttempts - int(r.Attempts)
	if remaining <= 0 {
		s.consume(ctx, r.ID, now)
		slog.Warn("password reset locked after failed attempts", "email", r.Email)
		return 0, ErrOTPAttemptsExceeded
	}
	return remaining, ErrOTPInvalid
}

// Reset sets a new password for a verified request and closes it.
// It returns the admin whose password changed.
func (s *PasswordResetService) Reset(ctx context.Context, id, newPassword string) (int64, error) {
	r, err := s.Get(ctx, id)
	if err != nil {
		return 0, err
	}
	if r.State != model.ResetStateVerified || !r.AdminID.Valid {
		return 0, ErrResetNotVerified
	}
	now := util.Now()
	if Expired(r) {
		s.consume(ctx, r.ID, now)
		return 0, ErrOTPExpired
	}
	if len(newPassword) < MinPasswordLength {
		return 0, fmt.Errorf("password must be at least %d characters", MinPasswordLength)
	}

	hash, err := auth.HashPassword(newPassword)
	if err != nil {
		return 0, fmt.Errorf("hashing password: %w", err)
	}

	adminID := r.AdminID.Int64
	err = store.ExecTx(ctx, s.db, func(q *store.Queries) error {
		if err := q.UpdateAdminPassword(ctx, store.UpdateAdminPasswordParams{
			PasswordHash: hash,
			UpdatedAt:    now,
			ID:           adminID,
		}); err != nil {
			return err
		}
		if err := q.SetPasswordResetState(ctx, model.ResetStateConsumed, now, r.ID); err != nil {
			return err
		}
		return q.ConsumeOpenPasswordResets(ctx, now, adminID)
	})
	if err != nil {
		return 0, fmt.Errorf("updating password: %w", err)
	}
	return adminID, nil
}

// Cancel closes a request, e.g. when the user starts over.
func (s *PasswordResetService) Cancel(ctx context.Context, id string) {
	if id != "" {
		s.consume(ctx, id, util.Now())
	}
}

// PurgeStale deletes expired and consumed requests.
func (s *PasswordResetService) PurgeStale(ctx context.Context) (int64, error) {
	return s.queries.DeleteStalePasswordResets(ctx, util.Now())
}

func (s *PasswordResetService) consume(ctx context.Context, id string, now time.Time) {
	if err := s.queries.SetPasswordResetState(ctx, model.ResetStateConsumed, now, id); err != nil {
		slog.Error("failed to close reset request", "error", err)
	}
}
