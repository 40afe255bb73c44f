// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olegiv/ochurch/internal/model"
	"github.com/olegiv/ochurch/internal/store"
	"github.com/olegiv/ochurch/internal/testutil"
)

func TestActivityService_Log(t *testing.T) {
	db, cleanup := testutil.TestDB(t)
	defer cleanup()
	ctx := context.Background()

	admin := newAdmin(t, db, "frank", true)
	svc := NewActivityService(db)

	req := RequestInfo{
		IP:        "203.0.113.9",
		RequestID: "req-1",
		UserAgent: "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Safari/537.36",
	}
	err := svc.LogInfo(ctx, model.ActivityCategoryDonation, "donation recorded", admin.ID, req, map[string]any{"amount_cents": 1250})
	require.NoError(t, err)
	require.NoError(t, svc.LogWarning(ctx, model.ActivityCategorySecurity, "login failed", 0, RequestInfo{}, nil))

	rows, err := store.New(db).ListActivity(ctx, store.ListActivityParams{Category: model.ActivityCategoryDonation, Limit: 10})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "frank", rows[0].Username.String)

	var meta map[string]any
	require.NoError(t, json.Unmarshal([]byte(rows[0].Metadata), &meta))
	assert.Equal(t, "203.0.113.9", meta["ip"])
	assert.Equal(t, "req-1", meta["request_id"])
	assert.Equal(t, "Chrome", meta["browser"])
	assert.EqualValues(t, 1250, meta["amount_cents"])

	anon, err := store.New(db).ListActivity(ctx, store.ListActivityParams{Category: model.ActivityCategorySecurity, Limit: 10})
	require.NoError(t, err)
	require.Len(t, anon, 1)
	assert.False(t, anon[0].AdminID.Valid)
	assert.Equal(t, "{}", anon[0].Metadata)
}

func TestActivityService_Prune(t *testing.T) {
	db, cleanup := testutil.TestDB(t)
	defer cleanup()
	ctx := context.Background()

	q := store.New(db)
	old := time.Now().UTC().Add(-100 * 24 * time.Hour).Truncate(time.Second)
	require.NoError(t, q.CreateActivity(ctx, store.CreateActivityParams{
		Level: model.ActivityLevelInfo, Category: model.ActivityCategorySystem, Message: "old", Metadata: "{}", CreatedAt: old,
	}))

	svc := NewActivityService(db)
	require.NoError(t, svc.LogInfo(ctx, model.ActivityCategorySystem, "fresh", 0, RequestInfo{}, nil))

	n, err := svc.Prune(ctx, 90*24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	count, err := q.CountActivity(ctx, "", "")
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}
