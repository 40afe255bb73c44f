// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/olegiv/ochurch/internal/auth"
	"github.com/olegiv/ochurch/internal/model"
)

// Initial super admin account.
const (
	DefaultAdminUsername = "admin"
	DefaultAdminEmail    = "admin@example.com"
	DefaultAdminName     = "Administrator"
)

// Seed creates the initial super admin when the admins table is empty and
// inserts default site settings that are missing. An empty seedPassword
// generates a random one, which is logged once.
func Seed(ctx context.Context, db *sql.DB, seedPassword string) error {
	queries := New(db)
	now := time.Now().UTC().Truncate(time.Second)

	for key, value := range model.DefaultSettings {
		if err := queries.InsertSettingIfMissing(ctx, UpsertSettingParams{
			Key:       key,
			Value:     value,
			UpdatedAt: now,
		}); err != nil {
			return fmt.Errorf("seeding setting %s: %w", key, err)
		}
	}

	count, err := queries.CountAdmins(ctx)
	if err != nil {
		return fmt.Errorf("counting admins: %w", err)
	}
	if count > 0 {
		slog.Debug("admins already exist, skipping admin seed")
		return nil
	}

	password := seedPassword
	generated := password == ""
	if generated {
		password, err = auth.GenerateRandomPassword(18)
		if err != nil {
			return fmt.Errorf("generating password: %w", err)
		}
	}

	passwordHash, err := auth.HashPassword(password)
	if err != nil {
		return fmt.Errorf("hashing password: %w", err)
	}

	admin, err := queries.CreateAdmin(ctx, CreateAdminParams{
		Username:     DefaultAdminUsername,
		PasswordHash: passwordHash,
		Email:        DefaultAdminEmail,
		FullName:     DefaultAdminName,
		Role:         model.RoleSuperAdmin,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		return fmt.Errorf("creating admin: %w", err)
	}

	if generated {
		slog.Warn("created initial super admin with a generated password; change it after first login",
			"id", admin.ID,
			"username", admin.Username,
			"password", password,
		)
	} else {
		slog.Info("created initial super admin", "id", admin.ID, "username", admin.Username)
	}

	return nil
}
