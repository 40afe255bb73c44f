// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package logging

import (
	"context"
	"encoding/json"
	"log/slog"
	"testing"
	"time"

	"github.com/olegiv/ochurch/internal/model"
	"github.com/olegiv/ochurch/internal/store"
	"github.com/olegiv/ochurch/internal/testutil"
)

// discardHandler is a slog.Handler that discards all logs.
type discardHandler struct{}

func (h discardHandler) Enabled(context.Context, slog.Level) bool  { return true }
func (h discardHandler) Handle(context.Context, slog.Record) error { return nil }
func (h discardHandler) WithAttrs([]slog.Attr) slog.Handler        { return h }
func (h discardHandler) WithGroup(string) slog.Handler             { return h }

func listAll(t *testing.T, q *store.Queries) []store.ActivityRow {
	t.Helper()
	rows, err := q.ListActivity(context.Background(), store.ListActivityParams{Limit: 50})
	if err != nil {
		t.Fatalf("ListActivity: %v", err)
	}
	return rows
}

func TestActivityHandler_MirrorsWarnAndError(t *testing.T) {
	db, cleanup := testutil.TestDB(t)
	defer cleanup()

	logger := slog.New(NewActivityHandler(discardHandler{}, db))

	logger.Info("routine message")
	logger.Warn("login failed", "username", "ghost")
	logger.Error("database connection failed", "host", "localhost")

	rows := listAll(t, store.New(db))
	if len(rows) != 2 {
		t.Fatalf("got %d activity rows, want 2", len(rows))
	}

	byMessage := map[string]store.ActivityRow{}
	for _, r := range rows {
		byMessage[r.Message] = r
	}

	warn := byMessage["login failed"]
	if warn.Level != model.ActivityLevelWarning || warn.Category != model.ActivityCategoryAuth {
		t.Errorf("warn row = %s/%s", warn.Level, warn.Category)
	}

	errRow := byMessage["database connection failed"]
	if errRow.Level != model.ActivityLevelError || errRow.Category != model.ActivityCategorySystem {
		t.Errorf("error row = %s/%s", errRow.Level, errRow.Category)
	}

	var meta map[string]string
	if err := json.Unmarshal([]byte(errRow.Metadata), &meta); err != nil {
		t.Fatalf("metadata is not JSON: %v", err)
	}
	if meta["host"] != "localhost" {
		t.Errorf("metadata = %v", meta)
	}
}

func TestActivityHandler_ExplicitCategoryAndAdmin(t *testing.T) {
	db, cleanup := testutil.TestDB(t)
	defer cleanup()

	ctx := context.Background()
	q := store.New(db)
	now := testNow()
	admin, err := q.CreateAdmin(ctx, store.CreateAdminParams{
		Username: "carol", PasswordHash: "x", Email: "carol@example.com", Role: model.RoleAdmin,
		IsActive: true, CreatedAt: now, UpdatedAt: now,
	})
	if err != nil {
		t.Fatalf("CreateAdmin: %v", err)
	}

	logger := slog.New(NewActivityHandler(discardHandler{}, db)).With("admin_id", admin.ID)
	logger.Warn("something odd", "category", model.ActivityCategorySettings, "quote", `say "hi"`)

	rows := listAll(t, q)
	if len(rows) != 1 {
		t.Fatalf("got %d rows, want 1", len(rows))
	}
	r := rows[0]
	if r.Category != model.ActivityCategorySettings {
		t.Errorf("Category = %s", r.Category)
	}
	if !r.AdminID.Valid || r.AdminID.Int64 != admin.ID || r.Username.String != "carol" {
		t.Errorf("admin = %+v / %q", r.AdminID, r.Username.String)
	}
	var meta map[string]string
	if err := json.Unmarshal([]byte(r.Metadata), &meta); err != nil || meta["quote"] != `say "hi"` {
		t.Errorf("metadata = %s (%v)", r.Metadata, err)
	}
}

func TestActivityHandler_CustomLevel(t *testing.T) {
	db, cleanup := testutil.TestDB(t)
	defer cleanup()

	logger := slog.New(NewActivityHandlerWithLevel(discardHandler{}, db, slog.LevelError))
	logger.Warn("only a warning")

	if rows := listAll(t, store.New(db)); len(rows) != 0 {
		t.Errorf("got %d rows, want 0", len(rows))
	}
}

func TestCategory(t *testing.T) {
	tests := []struct {
		msg  string
		want string
	}{
		{"password reset requested", model.ActivityCategoryAuth},
		{"donation reassigned", model.ActivityCategoryDonation},
		{"CSRF validation failed", model.ActivityCategorySecurity},
		{"settings saved", model.ActivityCategorySettings},
		{"user created", model.ActivityCategoryUser},
		{"disk full", model.ActivityCategorySystem},
	}
	for _, tt := range tests {
		if got := category(tt.msg, nil); got != tt.want {
			t.Errorf("category(%q) = %s, want %s", tt.msg, got, tt.want)
		}
	}
}

func testNow() time.Time {
	return time.Now().UTC().Truncate(time.Second)
}
