// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"database/sql"
	"net/http"
	"strconv"
	"time"

	"github.com/olegiv/ochurch/internal/seo"
	"github.com/olegiv/ochurch/internal/store"
	"github.com/olegiv/ochurch/internal/util"
)

// sitemapLimit caps each content family in the sitemap.
const sitemapLimit = 1000

// SEOHandler serves robots.txt and sitemap.xml.
type SEOHandler struct {
	queries     *store.Queries
	siteURL     string
	disallowAll bool
	location    *time.Location
}

// NewSEOHandler creates the handler. An empty siteURL is derived from each
// request's host. disallowAll blocks every crawler.
func NewSEOHandler(db *sql.DB, siteURL string, disallowAll bool, loc *time.Location) *SEOHandler {
	if loc == nil {
		loc = time.Local
	}
	return &SEOHandler{
		queries:     store.New(db),
		siteURL:     siteURL,
		disallowAll: disallowAll,
		location:    loc,
	}
}

func (h *SEOHandler) baseURL(r *http.Request) string {
	if h.siteURL != "" {
		return h.siteURL
	}
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	return scheme + "://" + r.Host
}

// Robots serves robots.txt.
func (h *SEOHandler) Robots(w http.ResponseWriter, r *http.Request) {
	body := seo.BuildRobots(seo.RobotsConfig{
		SiteURL:     h.baseURL(r),
		DisallowAll: h.disallowAll,
	})
	w.Header().Set(HeaderContentType, "text/plain; charset=utf-8")
	_, _ = w.Write([]byte(body))
}

// Sitemap serves sitemap.xml with the static pages, published posts,
// sermons and upcoming events.
func (h *SEOHandler) Sitemap(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	posts, err := h.queries.ListPublishedPosts(ctx, store.ListPublishedPostsParams{Limit: sitemapLimit})
	if err != nil {
		logAndInternalError(w, "failed to list posts for sitemap", "error", err)
		return
	}
	sermons, err := h.queries.ListSermons(ctx, store.ListSermonsParams{Limit: sitemapLimit})
	if err != nil {
		logAndInternalError(w, "failed to list sermons for sitemap", "error", err)
		return
	}
	events, err := h.queries.ListUpcomingEvents(ctx, store.ListUpcomingEventsParams{
		Today: util.Today(h.location),
		Limit: sitemapLimit,
	})
	if err != nil {
		logAndInternalError(w, "failed to list events for sitemap", "error", err)
		return
	}

	b := seo.NewSitemapBuilder(h.baseURL(r))
	b.AddStaticPages()

	entries := make([]seo.Entry, 0, len(posts))
	for _, p := range posts {
		entries = append(entries, seo.Entry{Path: RouteBlog + "/" + p.Slug, UpdatedAt: p.UpdatedAt})
	}
	b.AddEntries(entries, seo.ChangeFreqMonthly, 0.6)

	entries = make([]seo.Entry, 0, len(sermons))
	for _, s := range sermons {
		entries = append(entries, seo.Entry{Path: RouteSermons + "/" + strconv.FormatInt(s.ID, 10), UpdatedAt: s.UpdatedAt})
	}
	b.AddEntries(entries, seo.ChangeFreqMonthly, 0.6)

	entries = make([]seo.Entry, 0, len(events))
	for _, e := range events {
		entries = append(entries, seo.Entry{Path: RouteEvents + "/" + strconv.FormatInt(e.ID, 10), UpdatedAt: e.UpdatedAt})
	}
	b.AddEntries(entries, seo.ChangeFreqWeekly, 0.7)

	data, err := b.Build()
	if err != nil {
		logAndInternalError(w, "failed to build sitemap", "error", err)
		return
	}

	w.Header().Set(HeaderContentType, "application/xml; charset=utf-8")
	_, _ = w.Write(data)
}
