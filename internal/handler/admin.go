// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package handler implements the HTTP handlers of the public site and the
// admin back-office.
package handler

import (
	"database/sql"
	"log/slog"
	"net/http"
	"time"

	"github.com/olegiv/ochurch/internal/model"
	"github.com/olegiv/ochurch/internal/render"
	"github.com/olegiv/ochurch/internal/store"
	"github.com/olegiv/ochurch/internal/util"
)

// DashboardStats holds the statistics displayed on the dashboard.
type DashboardStats struct {
	Sermons        int64
	UpcomingEvents int64
	PublishedPosts int64
	DraftPosts     int64
	Campaigns      int64
	DonationCount  int64
	DonationTotal  int64
	Messages       int64
	UnreadMessages int64
	Admins         int64
}

// DashboardData holds all dashboard data including stats and recent items.
type DashboardData struct {
	Stats           DashboardStats
	RecentDonations []store.DonationRow
	RecentActivity  []store.ActivityRow
	UpcomingEvents  []store.Event
}

// AdminHandler handles the dashboard.
type AdminHandler struct {
	queries  *store.Queries
	renderer *render.Renderer
	location *time.Location
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(db *sql.DB, renderer *render.Renderer, loc *time.Location) *AdminHandler {
	return &AdminHandler{
		queries:  store.New(db),
		renderer: renderer,
		location: loc,
	}
}

// Dashboard renders the admin dashboard. Failing counters are logged and shown as zero.
func (h *AdminHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	today := util.Today(h.location)
	data := DashboardData{}

	count := func(name string, dst *int64, fn func() (int64, error)) {
		n, err := fn()
		if err != nil {
			slog.Error("failed to count "+name, "error", err)
			return
		}
		*dst = n
	}

	count("sermons", &data.Stats.Sermons, func() (int64, error) { return h.queries.CountSermons(ctx, "") })
	count("upcoming events", &data.Stats.UpcomingEvents, func() (int64, error) { return h.queries.CountUpcomingEvents(ctx, today) })
	count("published posts", &data.Stats.PublishedPosts, func() (int64, error) { return h.queries.CountPosts(ctx, model.PostStatusPublished) })
	count("draft posts", &data.Stats.DraftPosts, func() (int64, error) { return h.queries.CountPosts(ctx, model.PostStatusDraft) })
	count("campaigns", &data.Stats.Campaigns, func() (int64, error) { return h.queries.CountCampaigns(ctx) })
	count("admins", &data.Stats.Admins, func() (int64, error) { return h.queries.CountAdmins(ctx) })

	if summary, err := h.queries.SummarizeDonations(ctx, store.DonationFilterAll); err != nil {
		slog.Error("failed to summarize donations", "error", err)
	} else {
		data.Stats.DonationCount = summary.Count
		data.Stats.DonationTotal = summary.TotalCents
	}

	if canDo(r, model.PermViewMessages) {
		if total, unread, err := h.queries.CountContactMessages(ctx); err != nil {
			slog.Error("failed to count messages", "error", err)
		} else {
			data.Stats.Messages = total
			data.Stats.UnreadMessages = unread
		}
	}

	if donations, err := h.queries.ListDonations(ctx, store.ListDonationsParams{CampaignFilter: store.DonationFilterAll, Limit: 5}); err != nil {
		slog.Error("failed to list recent donations", "error", err)
	} else {
		data.RecentDonations = donations
	}

	if events, err := h.queries.ListUpcomingEvents(ctx, store.ListUpcomingEventsParams{Today: today, Limit: 5}); err != nil {
		slog.Error("failed to list upcoming events", "error", err)
	} else {
		data.UpcomingEvents = events
	}

	if canDo(r, model.PermViewActivity) {
		if activity, err := h.queries.ListActivity(ctx, store.ListActivityParams{Limit: 8}); err != nil {
			slog.Error("failed to list recent activity", "error", err)
		} else {
			data.RecentActivity = activity
		}
	}

	renderPage(w, r, h.renderer, "admin/dashboard", render.TemplateData{
		Title: "Dashboard",
		Data:  data,
	})
}
