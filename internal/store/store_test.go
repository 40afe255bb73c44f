// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"os"
	"testing"
	"time"
)

// testDB creates a temporary migrated database.
func testDB(t *testing.T) (*sql.DB, func()) {
	t.Helper()

	f, err := os.CreateTemp(t.TempDir(), "ochurch-test-*.db")
	if err != nil {
		t.Fatalf("creating temp file: %v", err)
	}
	dbPath := f.Name()
	_ = f.Close()

	db, err := NewDB(dbPath)
	if err != nil {
		t.Fatalf("NewDB: %v", err)
	}

	if err := Migrate(db); err != nil {
		_ = db.Close()
		t.Fatalf("Migrate: %v", err)
	}

	return db, func() { _ = db.Close() }
}

func now() time.Time {
	return time.Now().UTC().Truncate(time.Second)
}

func mustCreateAdmin(t *testing.T, q *Queries, username, role string) Admin {
	t.Helper()
	ts := now()
	admin, err := q.CreateAdmin(context.Background(), CreateAdminParams{
		Username:     username,
		PasswordHash: "hash",
		Email:        username + "@example.com",
		FullName:     username,
		Role:         role,
		IsActive:     true,
		CreatedAt:    ts,
		UpdatedAt:    ts,
	})
	if err != nil {
		t.Fatalf("CreateAdmin: %v", err)
	}
	return admin
}

func mustCreateCampaign(t *testing.T, q *Queries, slug string, mutate func(*CreateCampaignParams)) Campaign {
	t.Helper()
	ts := now()
	arg := CreateCampaignParams{
		Title:        slug,
		Slug:         slug,
		GoalCents:    sql.NullInt64{Int64: 100000, Valid: true},
		IsActive:     true,
		ShowProgress: true,
		CreatedAt:    ts,
		UpdatedAt:    ts,
	}
	if mutate != nil {
		mutate(&arg)
	}
	c, err := q.CreateCampaign(context.Background(), arg)
	if err != nil {
		t.Fatalf("CreateCampaign: %v", err)
	}
	return c
}

func mustCreateDonation(t *testing.T, q *Queries, cents int64, campaignID int64) Donation {
	t.Helper()
	arg := CreateDonationParams{
		DonorName:     "Donor",
		AmountCents:   cents,
		DonationType:  "one_time",
		PaymentMethod: "cash",
		Source:        "offline",
		CreatedAt:     now(),
	}
	if campaignID > 0 {
		arg.CampaignID = sql.NullInt64{Int64: campaignID, Valid: true}
	}
	d, err := q.CreateDonation(context.Background(), arg)
	if err != nil {
		t.Fatalf("CreateDonation: %v", err)
	}
	return d
}

func TestAdmins(t *testing.T) {
	db, cleanup := testDB(t)
	defer cleanup()

	ctx := context.Background()
	q := New(db)

	admin := mustCreateAdmin(t, q, "Pastor", "admin")

	got, err := q.GetAdminByUsername(ctx, "pastor")
	if err != nil {
		t.Fatalf("GetAdminByUsername: %v", err)
	}
	if got.ID != admin.ID {
		t.Errorf("GetAdminByUsername ID = %d, want %d", got.ID, admin.ID)
	}

	exists, err := q.UsernameExists(ctx, "PASTOR", 0)
	if err != nil || !exists {
		t.Errorf("UsernameExists = %v, %v; want true", exists, err)
	}
	exists, _ = q.UsernameExists(ctx, "pastor", admin.ID)
	if exists {
		t.Error("UsernameExists should exclude the admin itself")
	}

	toggled, err := q.ToggleAdminActive(ctx, now(), admin.ID)
	if err != nil {
		t.Fatalf("ToggleAdminActive: %v", err)
	}
	if toggled.IsActive {
		t.Error("ToggleAdminActive did not deactivate")
	}

	n, err := q.CountActiveAdminsByRole(ctx, "admin")
	if err != nil || n != 0 {
		t.Errorf("CountActiveAdminsByRole = %d, %v; want 0", n, err)
	}

	if err := q.UpdateAdminLastLogin(ctx, sql.NullTime{Time: now(), Valid: true}, admin.ID); err != nil {
		t.Fatalf("UpdateAdminLastLogin: %v", err)
	}
	got, _ = q.GetAdminByID(ctx, admin.ID)
	if !got.LastLoginAt.Valid {
		t.Error("LastLoginAt not set")
	}
}

func TestCampaignLedgerQueries(t *testing.T) {
	db, cleanup := testDB(t)
	defer cleanup()

	ctx := context.Background()
	q := New(db)

	c := mustCreateCampaign(t, q, "roof", nil)
	mustCreateDonation(t, q, 2500, c.ID)
	mustCreateDonation(t, q, 1000, c.ID)
	mustCreateDonation(t, q, 700, 0)

	ok, err := q.AdjustCampaignTotal(ctx, 3500, now(), c.ID)
	if err != nil || !ok {
		t.Fatalf("AdjustCampaignTotal = %v, %v", ok, err)
	}
	ok, err = q.AdjustCampaignTotal(ctx, 10, now(), 9999)
	if err != nil || ok {
		t.Errorf("AdjustCampaignTotal(missing) = %v, %v; want false", ok, err)
	}

	got, _ := q.GetCampaignByID(ctx, c.ID)
	if got.CurrentCents != 3500 {
		t.Errorf("CurrentCents = %d, want 3500", got.CurrentCents)
	}

	sum, err := q.SumDonationsByCampaign(ctx, c.ID)
	if err != nil || sum != 3500 {
		t.Errorf("SumDonationsByCampaign = %d, %v", sum, err)
	}

	// Drift the total and rebuild it.
	if _, err := q.AdjustCampaignTotal(ctx, 42, now(), c.ID); err != nil {
		t.Fatal(err)
	}
	rebuilt, err := q.RecalculateCampaignTotal(ctx, now(), c.ID)
	if err != nil {
		t.Fatalf("RecalculateCampaignTotal: %v", err)
	}
	if rebuilt.CurrentCents != 3500 {
		t.Errorf("recalculated = %d, want 3500", rebuilt.CurrentCents)
	}

	all, err := q.SummarizeDonations(ctx, DonationFilterAll)
	if err != nil || all.Count != 3 || all.TotalCents != 4200 {
		t.Errorf("SummarizeDonations(all) = %+v, %v", all, err)
	}
	unassigned, _ := q.SummarizeDonations(ctx, DonationFilterUnassigned)
	if unassigned.Count != 1 || unassigned.TotalCents != 700 {
		t.Errorf("SummarizeDonations(unassigned) = %+v", unassigned)
	}
	one, _ := q.SummarizeDonations(ctx, c.ID)
	if one.Count != 2 {
		t.Errorf("SummarizeDonations(campaign) = %+v", one)
	}

	rows, err := q.ListDonations(ctx, ListDonationsParams{CampaignFilter: c.ID, Limit: 10})
	if err != nil {
		t.Fatalf("ListDonations: %v", err)
	}
	if len(rows) != 2 || rows[0].CampaignTitle.String != "roof" {
		t.Errorf("ListDonations = %+v", rows)
	}

	// The donations foreign key refuses a campaign delete while donations point at it.
	if err := q.DeleteCampaign(ctx, c.ID); err == nil {
		t.Error("DeleteCampaign with donations should fail")
	}
}

func TestVisibleCampaigns(t *testing.T) {
	db, cleanup := testDB(t)
	defer cleanup()

	ctx := context.Background()
	q := New(db)
	today := "2026-06-15"

	mustCreateCampaign(t, q, "open", nil)
	mustCreateCampaign(t, q, "windowed", func(p *CreateCampaignParams) {
		p.StartDate = "2026-06-01"
		p.EndDate = "2026-06-15"
		p.IsFeatured = true
	})
	mustCreateCampaign(t, q, "future", func(p *CreateCampaignParams) { p.StartDate = "2026-07-01" })
	mustCreateCampaign(t, q, "ended", func(p *CreateCampaignParams) { p.EndDate = "2026-06-14" })
	mustCreateCampaign(t, q, "inactive", func(p *CreateCampaignParams) { p.IsActive = false })

	visible, err := q.ListVisibleCampaigns(ctx, today)
	if err != nil {
		t.Fatalf("ListVisibleCampaigns: %v", err)
	}
	if len(visible) != 2 {
		t.Fatalf("visible = %d campaigns, want 2", len(visible))
	}
	if visible[0].Slug != "windowed" {
		t.Errorf("featured campaign should sort first, got %s", visible[0].Slug)
	}

	featured, _ := q.ListFeaturedCampaigns(ctx, today, 3)
	if len(featured) != 1 {
		t.Errorf("featured = %d, want 1", len(featured))
	}

	if _, err := q.GetVisibleCampaignBySlug(ctx, today, "future"); err != sql.ErrNoRows {
		t.Errorf("GetVisibleCampaignBySlug(future) error = %v, want ErrNoRows", err)
	}
}

func TestUpcomingEvents(t *testing.T) {
	db, cleanup := testDB(t)
	defer cleanup()

	ctx := context.Background()
	q := New(db)

	for _, e := range []struct{ title, start, end string }{
		{"past", "2026-06-01", ""},
		{"retreat", "2026-06-10", "2026-06-16"},
		{"today", "2026-06-15", ""},
		{"later", "2026-07-01", ""},
	} {
		ts := now()
		if _, err := q.CreateEvent(ctx, CreateEventParams{
			Title: e.title, EventDate: e.start, EndDate: e.end, CreatedAt: ts, UpdatedAt: ts,
		}); err != nil {
			t.Fatalf("CreateEvent: %v", err)
		}
	}

	events, err := q.ListUpcomingEvents(ctx, ListUpcomingEventsParams{Today: "2026-06-15", Limit: 10})
	if err != nil {
		t.Fatalf("ListUpcomingEvents: %v", err)
	}
	var titles []string
	for _, e := range events {
		titles = append(titles, e.Title)
	}
	want := []string{"retreat", "today", "later"}
	if len(titles) != len(want) {
		t.Fatalf("upcoming = %v, want %v", titles, want)
	}
	for i := range want {
		if titles[i] != want[i] {
			t.Errorf("upcoming[%d] = %s, want %s", i, titles[i], want[i])
		}
	}

	count, _ := q.CountUpcomingEvents(ctx, "2026-06-15")
	if count != 3 {
		t.Errorf("CountUpcomingEvents = %d, want 3", count)
	}
}

func TestPostsForPage(t *testing.T) {
	db, cleanup := testDB(t)
	defer cleanup()

	ctx := context.Background()
	q := New(db)

	mk := func(slug, status, pages string, home bool) Post {
		ts := now()
		p, err := q.CreatePost(ctx, CreatePostParams{
			Title: slug, Slug: slug, Status: status, ShowOnHomepage: home, TargetPages: pages,
			PublishedAt: sql.NullTime{Time: ts, Valid: status == "published"},
			CreatedAt:   ts, UpdatedAt: ts,
		})
		if err != nil {
			t.Fatalf("CreatePost: %v", err)
		}
		return p
	}

	mk("flagged", "published", "[]", true)
	mk("about-only", "published", `["about"]`, false)
	mk("home-target", "published", `["home","donate"]`, false)
	mk("draft", "draft", `["home"]`, true)

	home, err := q.ListPublishedPostsForPage(ctx, "home", 10)
	if err != nil {
		t.Fatalf("ListPublishedPostsForPage: %v", err)
	}
	if len(home) != 2 {
		t.Errorf("home posts = %d, want 2", len(home))
	}

	about, _ := q.ListPublishedPostsForPage(ctx, "about", 10)
	if len(about) != 1 || about[0].Slug != "about-only" {
		t.Errorf("about posts = %+v", about)
	}

	exists, _ := q.PostSlugExists(ctx, "draft", 0)
	if !exists {
		t.Error("PostSlugExists(draft) = false")
	}

	if _, err := q.GetPublishedPostBySlug(ctx, "draft"); err != sql.ErrNoRows {
		t.Errorf("draft must not be publicly resolvable, err = %v", err)
	}
}

func TestSetPostStatusAndSchedule(t *testing.T) {
	db, cleanup := testDB(t)
	defer cleanup()

	ctx := context.Background()
	q := New(db)
	ts := now()

	p, err := q.CreatePost(ctx, CreatePostParams{
		Title: "Later", Slug: "later", Status: "draft", TargetPages: "[]",
		ScheduledAt: sql.NullTime{Time: ts.Add(-time.Minute), Valid: true},
		CreatedAt:   ts, UpdatedAt: ts,
	})
	if err != nil {
		t.Fatalf("CreatePost: %v", err)
	}

	n, err := q.PublishScheduledPosts(ctx, ts)
	if err != nil || n != 1 {
		t.Fatalf("PublishScheduledPosts = %d, %v; want 1", n, err)
	}
	got, _ := q.GetPostByID(ctx, p.ID)
	if got.Status != "published" || !got.PublishedAt.Valid || got.ScheduledAt.Valid {
		t.Errorf("scheduled post after publish = %+v", got)
	}

	firstPublished := got.PublishedAt.Time
	if _, err := q.SetPostStatus(ctx, "draft", ts.Add(time.Hour), p.ID); err != nil {
		t.Fatal(err)
	}
	again, err := q.SetPostStatus(ctx, "published", ts.Add(2*time.Hour), p.ID)
	if err != nil {
		t.Fatal(err)
	}
	if !again.PublishedAt.Time.Equal(firstPublished) {
		t.Errorf("republish changed published_at: %v -> %v", firstPublished, again.PublishedAt.Time)
	}
}

func TestPasswordResets(t *testing.T) {
	db, cleanup := testDB(t)
	defer cleanup()

	ctx := context.Background()
	q := New(db)
	admin := mustCreateAdmin(t, q, "alice", "admin")
	ts := now()

	r, err := q.CreatePasswordReset(ctx, CreatePasswordResetParams{
		ID: "reset-1", AdminID: sql.NullInt64{Int64: admin.ID, Valid: true}, Email: admin.Email,
		CodeHash: "h", ExpiresAt: ts.Add(10 * time.Minute), CreatedAt: ts, UpdatedAt: ts,
	})
	if err != nil {
		t.Fatalf("CreatePasswordReset: %v", err)
	}
	if r.State != "requested" || r.Attempts != 0 {
		t.Errorf("new reset = %+v", r)
	}

	r, err = q.IncrementPasswordResetAttempts(ctx, ts, r.ID)
	if err != nil || r.Attempts != 1 {
		t.Errorf("IncrementPasswordResetAttempts = %d, %v", r.Attempts, err)
	}

	if err := q.ConsumeOpenPasswordResets(ctx, ts, admin.ID); err != nil {
		t.Fatal(err)
	}
	r, _ = q.GetPasswordReset(ctx, r.ID)
	if r.State != "consumed" {
		t.Errorf("state = %s, want consumed", r.State)
	}

	n, err := q.DeleteStalePasswordResets(ctx, ts)
	if err != nil || n != 1 {
		t.Errorf("DeleteStalePasswordResets = %d, %v", n, err)
	}
}

func TestActivityAndMessages(t *testing.T) {
	db, cleanup := testDB(t)
	defer cleanup()

	ctx := context.Background()
	q := New(db)
	admin := mustCreateAdmin(t, q, "bob", "admin")
	ts := now()

	for _, level := range []string{"info", "warning", "error"} {
		if err := q.CreateActivity(ctx, CreateActivityParams{
			Level: level, Category: "auth", Message: level, Metadata: "{}",
			AdminID: sql.NullInt64{Int64: admin.ID, Valid: true}, CreatedAt: ts,
		}); err != nil {
			t.Fatalf("CreateActivity: %v", err)
		}
	}

	rows, err := q.ListActivity(ctx, ListActivityParams{Level: "error", Limit: 10})
	if err != nil || len(rows) != 1 {
		t.Fatalf("ListActivity(error) = %d, %v", len(rows), err)
	}
	if rows[0].Username.String != "bob" {
		t.Errorf("Username = %q", rows[0].Username.String)
	}

	n, _ := q.DeleteActivityBefore(ctx, ts.Add(time.Second))
	if n != 3 {
		t.Errorf("DeleteActivityBefore = %d, want 3", n)
	}

	m, err := q.CreateContactMessage(ctx, CreateContactMessageParams{
		Name: "Ann", Email: "ann@example.com", Message: "Hello", CreatedAt: ts,
	})
	if err != nil {
		t.Fatalf("CreateContactMessage: %v", err)
	}
	total, unread, _ := q.CountContactMessages(ctx)
	if total != 1 || unread != 1 {
		t.Errorf("counts = %d/%d", total, unread)
	}
	_ = q.MarkContactMessageRead(ctx, m.ID)
	_, unread, _ = q.CountContactMessages(ctx)
	if unread != 0 {
		t.Errorf("unread after mark = %d", unread)
	}
}

func TestSeed(t *testing.T) {
	db, cleanup := testDB(t)
	defer cleanup()

	ctx := context.Background()
	q := New(db)

	if err := Seed(ctx, db, "Seed-Passw0rd!"); err != nil {
		t.Fatalf("Seed: %v", err)
	}
	if err := Seed(ctx, db, ""); err != nil {
		t.Fatalf("second Seed: %v", err)
	}

	count, _ := q.CountAdmins(ctx)
	if count != 1 {
		t.Errorf("admins = %d, want 1", count)
	}
	admin, err := q.GetAdminByUsername(ctx, DefaultAdminUsername)
	if err != nil {
		t.Fatalf("GetAdminByUsername: %v", err)
	}
	if admin.Role != "super_admin" || !admin.IsActive {
		t.Errorf("seeded admin = %+v", admin)
	}

	s, err := q.GetSetting(ctx, "site_name")
	if err != nil || s.Value == "" {
		t.Errorf("site_name setting = %+v, %v", s, err)
	}
}
