// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"

	"github.com/olegiv/ochurch/internal/model"
	"github.com/olegiv/ochurch/internal/store"
)

func TestCampaignInputValidate(t *testing.T) {
	tests := []struct {
		name      string
		in        CampaignInput
		wantField string
	}{
		{"valid minimal", CampaignInput{Title: "Roof"}, ""},
		{"missing title", CampaignInput{}, "title"},
		{"zero goal", CampaignInput{Title: "Roof", Goal: "0"}, "goal"},
		{"bad goal", CampaignInput{Title: "Roof", Goal: "lots"}, "goal"},
		{"bad minimum", CampaignInput{Title: "Roof", MinDonation: "x"}, "min_donation"},
		{"bad suggested", CampaignInput{Title: "Roof", SuggestedAmounts: "25, abc"}, "suggested_amounts"},
		{"end before start", CampaignInput{Title: "Roof", StartDate: "2026-05-01", EndDate: "2026-04-01"}, "end_date"},
		{"bad date", CampaignInput{Title: "Roof", StartDate: "01/05/2026"}, "start_date"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, errs := tt.in.Validate()
			if tt.wantField == "" {
				if len(errs) != 0 {
					t.Errorf("unexpected errors: %v", errs)
				}
				return
			}
			if _, ok := errs[tt.wantField]; !ok {
				t.Errorf("expected error for %q, got %v", tt.wantField, errs)
			}
		})
	}
}

func TestCampaignInputValidateAmounts(t *testing.T) {
	v, errs := CampaignInput{Title: "Roof", Goal: "1000", MinDonation: "5.50", SuggestedAmounts: "25, 50,100"}.Validate()
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if !v.goal.Valid || v.goal.Int64 != 100000 {
		t.Errorf("goal = %+v; want 100000 cents", v.goal)
	}
	if v.minimum != 550 {
		t.Errorf("minimum = %d; want 550", v.minimum)
	}
	if v.suggested != "25,50,100" {
		t.Errorf("suggested = %q; want 25,50,100", v.suggested)
	}
}

func TestCampaignCreate_DuplicateSlug(t *testing.T) {
	env := newTestEnv(t)
	admin := createTestAdmin(t, env.db, "boss", model.RoleAdmin)
	createTestCampaign(t, env.db, "spring-fund", 0)
	h := NewCampaignsHandler(env.db, env.renderer, env.uploader, env.ledger)

	req := env.newRequest(t, testRequest{
		method: http.MethodPost,
		target: "/admin/campaigns",
		form:   url.Values{"title": {"Another"}, "slug": {"spring-fund"}},
		admin:  &admin,
	})
	w := httptest.NewRecorder()
	h.Create(w, req)

	assertStatus(t, w.Code, http.StatusOK)
	assertFieldError(t, w, "slug")

	count, err := store.New(env.db).CountCampaigns(context.Background())
	if err != nil {
		t.Fatalf("CountCampaigns: %v", err)
	}
	if count != 1 {
		t.Errorf("campaign count = %d; want 1", count)
	}
}

func TestCampaignCreate_DerivedSlug(t *testing.T) {
	env := newTestEnv(t)
	admin := createTestAdmin(t, env.db, "boss", model.RoleAdmin)
	createTestCampaign(t, env.db, "spring-fund", 0)
	h := NewCampaignsHandler(env.db, env.renderer, env.uploader, env.ledger)

	req := env.newRequest(t, testRequest{
		method: http.MethodPost,
		target: "/admin/campaigns",
		form:   url.Values{"title": {"Spring Fund"}, "goal": {"500"}, "is_active": {"on"}},
		admin:  &admin,
	})
	w := httptest.NewRecorder()
	h.Create(w, req)

	assertRedirect(t, w, redirectAdminCampaigns)
	c, err := store.New(env.db).GetCampaignBySlug(context.Background(), "spring-fund-2")
	if err != nil {
		t.Fatalf("GetCampaignBySlug: %v", err)
	}
	if c.GoalCents.Int64 != 50000 || c.CurrentCents != 0 {
		t.Errorf("campaign = goal %d current %d; want 50000 and 0", c.GoalCents.Int64, c.CurrentCents)
	}
}

func TestCampaignUpdate_Slug(t *testing.T) {
	env := newTestEnv(t)
	admin := createTestAdmin(t, env.db, "boss", model.RoleAdmin)
	owner := createTestCampaign(t, env.db, "spring-fund", 0)
	other := createTestCampaign(t, env.db, "autumn-fund", 0)
	h := NewCampaignsHandler(env.db, env.renderer, env.uploader, env.ledger)

	tests := []struct {
		name     string
		id       int64
		wantCode int
	}{
		{"other campaign cannot take the slug", other.ID, http.StatusOK},
		{"owner keeps its own slug", owner.ID, http.StatusSeeOther},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := env.newRequest(t, testRequest{
				method: http.MethodPost,
				target: "/admin/campaigns/" + strconv.FormatInt(tt.id, 10),
				form:   url.Values{"title": {"Renamed"}, "slug": {"spring-fund"}},
				admin:  &admin,
				params: map[string]string{"id": strconv.FormatInt(tt.id, 10)},
			})
			w := httptest.NewRecorder()
			h.Update(w, req)

			assertStatus(t, w.Code, tt.wantCode)
			if tt.wantCode == http.StatusOK {
				assertFieldError(t, w, "slug")
			}
		})
	}

	got, err := store.New(env.db).GetCampaignByID(context.Background(), other.ID)
	if err != nil {
		t.Fatalf("GetCampaignByID: %v", err)
	}
	if got.Slug != "autumn-fund" {
		t.Errorf("other campaign slug = %q; want autumn-fund", got.Slug)
	}
}

func TestCampaignDelete(t *testing.T) {
	env := newTestEnv(t)
	admin := createTestAdmin(t, env.db, "boss", model.RoleAdmin)
	funded := createTestCampaign(t, env.db, "funded", 0)
	empty := createTestCampaign(t, env.db, "empty", 0)
	recordDonation(t, env.ledger, funded.ID, 2500)
	h := NewCampaignsHandler(env.db, env.renderer, env.uploader, env.ledger)
	q := store.New(env.db)

	t.Run("refused with donations", func(t *testing.T) {
		req := env.newRequest(t, testRequest{
			method: http.MethodPost,
			target: "/admin/campaigns/1/delete",
			admin:  &admin,
			params: map[string]string{"id": strconv.FormatInt(funded.ID, 10)},
		})
		w := httptest.NewRecorder()
		h.Delete(w, req)

		assertRedirect(t, w, redirectAdminCampaigns)
		if flash := env.flashOf(req); !strings.Contains(flash, "has donations") {
			t.Errorf("flash = %q; want refusal", flash)
		}
		got, err := q.GetCampaignByID(context.Background(), funded.ID)
		if err != nil {
			t.Fatalf("campaign should still exist: %v", err)
		}
		if got.CurrentCents != 2500 {
			t.Errorf("current_cents = %d; want 2500", got.CurrentCents)
		}
	})

	t.Run("deleted when empty", func(t *testing.T) {
		req := env.newRequest(t, testRequest{
			method: http.MethodPost,
			target: "/admin/campaigns/2/delete",
			admin:  &admin,
			params: map[string]string{"id": strconv.FormatInt(empty.ID, 10)},
		})
		w := httptest.NewRecorder()
		h.Delete(w, req)

		assertRedirect(t, w, redirectAdminCampaigns)
		if _, err := q.GetCampaignByID(context.Background(), empty.ID); !errors.Is(err, sql.ErrNoRows) {
			t.Errorf("GetCampaignByID err = %v; want sql.ErrNoRows", err)
		}
	})
}

func TestCampaignToggleActive_KeepsTotals(t *testing.T) {
	env := newTestEnv(t)
	admin := createTestAdmin(t, env.db, "boss", model.RoleAdmin)
	c := createTestCampaign(t, env.db, "roof", 0)
	recordDonation(t, env.ledger, c.ID, 1000)
	h := NewCampaignsHandler(env.db, env.renderer, env.uploader, env.ledger)

	req := env.newRequest(t, testRequest{
		method: http.MethodPost,
		target: "/admin/campaigns/1/toggle-active",
		admin:  &admin,
		params: map[string]string{"id": strconv.FormatInt(c.ID, 10)},
	})
	w := httptest.NewRecorder()
	h.ToggleActive(w, req)
	assertRedirect(t, w, redirectAdminCampaigns)

	got, err := store.New(env.db).GetCampaignByID(context.Background(), c.ID)
	if err != nil {
		t.Fatalf("GetCampaignByID: %v", err)
	}
	if got.IsActive {
		t.Error("campaign should be inactive")
	}
	if got.CurrentCents != 1000 || got.Slug != "roof" || got.IsFeatured != c.IsFeatured {
		t.Errorf("toggle changed other fields: %+v", got)
	}
}

func TestCampaignCreate_OversizedImage(t *testing.T) {
	env := newTestEnv(t)
	admin := createTestAdmin(t, env.db, "boss", model.RoleAdmin)
	h := NewCampaignsHandler(env.db, env.renderer, env.uploader, env.ledger)

	req := env.newRequest(t, testRequest{
		method: http.MethodPost,
		target: "/admin/campaigns",
		form:   url.Values{"title": {"Big Picture"}},
		admin:  &admin,
		upload: &testUpload{filename: "big.jpg", data: make([]byte, 6<<20)},
	})
	w := httptest.NewRecorder()
	h.Create(w, req)

	assertStatus(t, w.Code, http.StatusOK)
	assertFieldError(t, w, "image")
	if !strings.Contains(w.Body.String(), "5 MB or smaller") {
		t.Errorf("expected size message, got %s", w.Body.String())
	}

	count, _ := store.New(env.db).CountCampaigns(context.Background())
	if count != 0 {
		t.Errorf("campaign count = %d; want 0", count)
	}
}
