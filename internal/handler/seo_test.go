// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"context"
	"database/sql"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/olegiv/ochurch/internal/model"
	"github.com/olegiv/ochurch/internal/store"
	"github.com/olegiv/ochurch/internal/util"
)

func TestSEOHandler_Robots(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name        string
		siteURL     string
		disallowAll bool
		want        []string
	}{
		{"configured site url", "https://church.example", false, []string{"Disallow: /admin", "Sitemap: https://church.example/sitemap.xml"}},
		{"derived from host", "", false, []string{"Sitemap: http://example.com/sitemap.xml"}},
		{"disallow all", "", true, []string{"Disallow: /\n"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewSEOHandler(env.db, tt.siteURL, tt.disallowAll, time.UTC)
			req := httptest.NewRequest(http.MethodGet, RouteRobots, nil)
			w := httptest.NewRecorder()
			h.Robots(w, req)

			assertStatus(t, w.Code, http.StatusOK)
			if ct := w.Header().Get(HeaderContentType); !strings.HasPrefix(ct, "text/plain") {
				t.Errorf("Content-Type = %q", ct)
			}
			for _, s := range tt.want {
				if !strings.Contains(w.Body.String(), s) {
					t.Errorf("robots.txt missing %q:\n%s", s, w.Body.String())
				}
			}
		})
	}
}

func TestSEOHandler_Sitemap(t *testing.T) {
	env := newTestEnv(t)
	q := store.New(env.db)
	ctx := context.Background()
	now := util.Now()

	for _, p := range []struct{ slug, status string }{
		{"easter-service", model.PostStatusPublished},
		{"draft-notes", model.PostStatusDraft},
	} {
		params := store.CreatePostParams{
			Title: p.slug, Slug: p.slug, Content: "<p>x</p>", Status: p.status,
			TargetPages: "[]", CreatedAt: now, UpdatedAt: now,
		}
		if p.status == model.PostStatusPublished {
			params.PublishedAt = sql.NullTime{Time: now, Valid: true}
		}
		if _, err := q.CreatePost(ctx, params); err != nil {
			t.Fatalf("CreatePost(%s): %v", p.slug, err)
		}
	}
	sermon, err := q.CreateSermon(ctx, store.CreateSermonParams{
		Title: "Grace", Preacher: "Pastor Lee", SermonDate: "2026-03-01", CreatedAt: now, UpdatedAt: now,
	})
	if err != nil {
		t.Fatalf("CreateSermon: %v", err)
	}

	h := NewSEOHandler(env.db, "https://church.example/", false, time.UTC)
	req := httptest.NewRequest(http.MethodGet, RouteSitemap, nil)
	w := httptest.NewRecorder()
	h.Sitemap(w, req)

	assertStatus(t, w.Code, http.StatusOK)
	body := w.Body.String()
	for _, s := range []string{
		"<loc>https://church.example/</loc>",
		"<loc>https://church.example/donate</loc>",
		"<loc>https://church.example/blog/easter-service</loc>",
		"<loc>https://church.example/sermons/" + strconv.FormatInt(sermon.ID, 10) + "</loc>",
	} {
		if !strings.Contains(body, s) {
			t.Errorf("sitemap missing %s", s)
		}
	}
	if strings.Contains(body, "draft-notes") {
		t.Error("sitemap should not list draft posts")
	}
}
