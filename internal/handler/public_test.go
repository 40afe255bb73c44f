// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/olegiv/ochurch/internal/mail"
	"github.com/olegiv/ochurch/internal/model"
	"github.com/olegiv/ochurch/internal/store"
	"github.com/olegiv/ochurch/internal/util"
)

func newPublicHandler(env *testEnv, mailer mail.Sender) *PublicHandler {
	return NewPublicHandler(env.db, env.renderer, env.ledger, PublicConfig{
		Mailer:      mailer,
		NotifyEmail: "office@example.com",
		Location:    time.UTC,
	})
}

func TestPublicPages_Render(t *testing.T) {
	env := newTestEnv(t)
	h := newPublicHandler(env, nil)

	tests := []struct {
		name    string
		target  string
		handler http.HandlerFunc
	}{
		{"home", "/", h.Home},
		{"about", "/about", h.About},
		{"services", "/services", h.Services},
		{"live", "/live", h.Live},
		{"contact", "/contact", h.Contact},
		{"donate", "/donate", h.Donate},
		{"blog", "/blog", h.Blog},
		{"sermons", "/sermons?q=grace", h.Sermons},
		{"events", "/events", h.Events},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := env.newRequest(t, testRequest{method: http.MethodGet, target: tt.target})
			w := httptest.NewRecorder()
			tt.handler(w, req)
			assertStatus(t, w.Code, http.StatusOK)
		})
	}
}

func TestSubmitContact(t *testing.T) {
	env := newTestEnv(t)
	mailer := &mail.MemorySender{}
	h := newPublicHandler(env, mailer)
	q := store.New(env.db)

	t.Run("invalid email", func(t *testing.T) {
		req := env.newRequest(t, testRequest{
			method: http.MethodPost,
			target: RouteContact,
			form:   url.Values{"name": {"Ann"}, "email": {"nope"}, "message": {"Hello"}},
		})
		w := httptest.NewRecorder()
		h.SubmitContact(w, req)

		assertStatus(t, w.Code, http.StatusOK)
		assertFieldError(t, w, "email")
	})

	t.Run("stored and notified", func(t *testing.T) {
		req := env.newRequest(t, testRequest{
			method: http.MethodPost,
			target: RouteContact,
			form: url.Values{
				"name":    {"Ann"},
				"email":   {"ann@example.com"},
				"subject": {"Prayer request"},
				"message": {"Please pray for my family."},
			},
		})
		req.RemoteAddr = "203.0.113.7:5555"
		w := httptest.NewRecorder()
		h.SubmitContact(w, req)
		h.Wait()

		assertRedirect(t, w, RouteContact)
		total, unread, err := q.CountContactMessages(context.Background())
		if err != nil {
			t.Fatalf("CountContactMessages: %v", err)
		}
		if total != 1 || unread != 1 {
			t.Errorf("messages = %d total, %d unread; want 1 and 1", total, unread)
		}

		sent := mailer.Sent()
		if len(sent) != 1 {
			t.Fatalf("sent %d notifications; want 1", len(sent))
		}
		if sent[0].To[0] != "office@example.com" || sent[0].ReplyTo != "ann@example.com" {
			t.Errorf("notification = to %v reply-to %q", sent[0].To, sent[0].ReplyTo)
		}
	})
}

func TestSubmitContact_MailFailureStillStores(t *testing.T) {
	env := newTestEnv(t)
	mailer := &mail.MemorySender{Err: mail.ErrNotConfigured}
	h := newPublicHandler(env, mailer)

	req := env.newRequest(t, testRequest{
		method: http.MethodPost,
		target: RouteContact,
		form:   url.Values{"name": {"Ann"}, "email": {"ann@example.com"}, "message": {"Hello"}},
	})
	w := httptest.NewRecorder()
	h.SubmitContact(w, req)
	h.Wait()

	assertRedirect(t, w, RouteContact)
	total, _, err := store.New(env.db).CountContactMessages(context.Background())
	if err != nil {
		t.Fatalf("CountContactMessages: %v", err)
	}
	if total != 1 {
		t.Errorf("messages = %d; want 1", total)
	}
}

func TestSubmitDonation(t *testing.T) {
	env := newTestEnv(t)
	h := newPublicHandler(env, nil)
	q := store.New(env.db)
	open := createTestCampaign(t, env.db, "roof", 1000)
	closed := createTestCampaign(t, env.db, "organ", 0)
	if _, err := q.ToggleCampaignActive(context.Background(), util.Now(), closed.ID); err != nil {
		t.Fatalf("ToggleCampaignActive: %v", err)
	}

	form := func(slug, amount string) url.Values {
		return url.Values{
			"donor_name":    {"Lydia"},
			"donor_email":   {"lydia@example.com"},
			"amount":        {amount},
			"donation_type": {model.DonationTypeOneTime},
			"campaign_slug": {slug},
		}
	}

	tests := []struct {
		name      string
		form      url.Values
		wantField string
	}{
		{"closed campaign", form("organ", "50"), "campaign_slug"},
		{"unknown campaign", form("nowhere", "50"), "campaign_slug"},
		{"below minimum", form("roof", "5"), "amount"},
		{"bad amount", form("roof", "ten"), "amount"},
		{"valid", form("roof", "$1,200.50"), ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := env.newRequest(t, testRequest{method: http.MethodPost, target: RouteDonate, form: tt.form})
			w := httptest.NewRecorder()
			h.SubmitDonation(w, req)

			if tt.wantField != "" {
				assertStatus(t, w.Code, http.StatusOK)
				assertFieldError(t, w, tt.wantField)
				return
			}
			assertRedirect(t, w, RouteDonate)
		})
	}

	got, err := q.GetCampaignByID(context.Background(), open.ID)
	if err != nil {
		t.Fatalf("GetCampaignByID: %v", err)
	}
	if got.CurrentCents != 120050 {
		t.Errorf("current_cents = %d; want 120050", got.CurrentCents)
	}
	closedNow, _ := q.GetCampaignByID(context.Background(), closed.ID)
	if closedNow.CurrentCents != 0 {
		t.Errorf("closed campaign credited %d", closedNow.CurrentCents)
	}
}

func TestBlogPost_DraftNotFound(t *testing.T) {
	env := newTestEnv(t)
	h := newPublicHandler(env, nil)
	q := store.New(env.db)
	now := util.Now()

	for _, p := range []struct{ slug, status string }{
		{"draft-post", model.PostStatusDraft},
		{"live-post", model.PostStatusPublished},
	} {
		params := store.CreatePostParams{
			Title:       p.slug,
			Slug:        p.slug,
			Content:     "<p>body</p>",
			Status:      p.status,
			TargetPages: "[]",
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if p.status == model.PostStatusPublished {
			params.PublishedAt = util.NullTimeFromValue(now.Add(-time.Hour))
		}
		if _, err := q.CreatePost(context.Background(), params); err != nil {
			t.Fatalf("CreatePost: %v", err)
		}
	}

	tests := []struct {
		slug string
		want int
	}{
		{"draft-post", http.StatusNotFound},
		{"live-post", http.StatusOK},
		{"missing", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.slug, func(t *testing.T) {
			req := env.newRequest(t, testRequest{
				method: http.MethodGet,
				target: RouteBlog + "/" + tt.slug,
				params: map[string]string{"slug": tt.slug},
			})
			w := httptest.NewRecorder()
			h.BlogPost(w, req)
			assertStatus(t, w.Code, tt.want)
		})
	}
}

func TestSermonAndEvent_NotFound(t *testing.T) {
	env := newTestEnv(t)
	h := newPublicHandler(env, nil)

	for _, id := range []string{"42", "abc"} {
		req := env.newRequest(t, testRequest{method: http.MethodGet, target: "/sermons/" + id, params: map[string]string{"id": id}})
		w := httptest.NewRecorder()
		h.Sermon(w, req)
		assertStatus(t, w.Code, http.StatusNotFound)

		req = env.newRequest(t, testRequest{method: http.MethodGet, target: "/events/" + id, params: map[string]string{"id": id}})
		w = httptest.NewRecorder()
		h.Event(w, req)
		assertStatus(t, w.Code, http.StatusNotFound)
		if !strings.Contains(w.Body.String(), "Page not found") {
			t.Errorf("404 page not rendered: %s", w.Body.String())
		}
	}
}
