// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"bytes"
	"context"
	"database/sql"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"testing/fstest"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/go-chi/chi/v5"

	"github.com/olegiv/ochurch/internal/auth"
	"github.com/olegiv/ochurch/internal/middleware"
	"github.com/olegiv/ochurch/internal/model"
	"github.com/olegiv/ochurch/internal/render"
	"github.com/olegiv/ochurch/internal/service"
	"github.com/olegiv/ochurch/internal/store"
	"github.com/olegiv/ochurch/internal/testutil"
	"github.com/olegiv/ochurch/internal/util"
)

const testPassword = "password123"

// testPages lists every template the handlers render.
var testPages = []string{
	"admin/activity", "admin/announcement_form", "admin/announcements_list",
	"admin/campaign_form", "admin/campaigns_list", "admin/dashboard",
	"admin/donation_form", "admin/donations_list", "admin/event_form",
	"admin/events_list", "admin/message_view", "admin/messages_list",
	"admin/post_form", "admin/posts_list", "admin/profile", "admin/sermon_form",
	"admin/sermons_list", "admin/settings", "admin/user_form", "admin/users_list",
	"public/404", "public/about", "public/blog", "public/contact", "public/donate",
	"public/event", "public/events", "public/home", "public/live", "public/post",
	"public/sermon", "public/sermons", "public/services",
}

// stubContent prints the title and every field error so tests can assert
// on them without the real templates.
const stubContent = `<h1>{{.Title}}</h1>{{range $k, $v := .Errors}}<p class="error" data-field="{{$k}}">{{$v}}</p>{{end}}`

func testTemplatesFS() fstest.MapFS {
	fsys := fstest.MapFS{
		"layouts/base.html":   {Data: []byte(`{{define "base"}}{{if .Flash}}<div class="flash {{.FlashType}}">{{.Flash}}</div>{{end}}{{block "body" .}}{{end}}{{end}}`)},
		"layouts/admin.html":  {Data: []byte(`{{define "body"}}{{template "content" .}}{{end}}`)},
		"layouts/public.html": {Data: []byte(`{{define "body"}}{{template "content" .}}{{end}}`)},
		"auth/login.html":     {Data: []byte(`{{define "body"}}` + stubContent + `{{end}}`)},
		"auth/forgot_password.html": {Data: []byte(`{{define "body"}}` + stubContent +
			`<span class="step">{{.Data.Step}}</span>{{with .Data.DevCode}}<code>{{.}}</code>{{end}}{{end}}`)},
	}
	for _, name := range testPages {
		fsys[name+".html"] = &fstest.MapFile{Data: []byte(`{{define "content"}}` + stubContent + `{{end}}`)}
	}
	return fsys
}

// testEnv bundles the collaborators every handler test needs.
type testEnv struct {
	db       *sql.DB
	sm       *scs.SessionManager
	renderer *render.Renderer
	uploader *service.Uploader
	ledger   *service.Ledger
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db := testutil.TestMemoryDB(t)
	sm := scs.New()
	sm.Lifetime = 24 * time.Hour

	renderer, err := render.New(render.Config{TemplatesFS: testTemplatesFS(), SessionManager: sm, IsDev: true})
	if err != nil {
		t.Fatalf("render.New: %v", err)
	}

	return &testEnv{
		db:       db,
		sm:       sm,
		renderer: renderer,
		uploader: service.NewUploader(t.TempDir(), 5<<20),
		ledger:   service.NewLedger(db, time.UTC),
	}
}

// createTestAdmin inserts an active admin with testPassword.
func createTestAdmin(t *testing.T, db *sql.DB, username, role string) store.Admin {
	t.Helper()

	hash, err := auth.HashPassword(testPassword)
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	now := util.Now()
	admin, err := store.New(db).CreateAdmin(context.Background(), store.CreateAdminParams{
		Username:     username,
		PasswordHash: hash,
		Email:        username + "@example.com",
		FullName:     strings.ToUpper(username[:1]) + username[1:],
		Role:         role,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		t.Fatalf("CreateAdmin(%s): %v", username, err)
	}
	return admin
}

// testRequest describes a request built by newRequest.
type testRequest struct {
	method string
	target string
	form   url.Values
	admin  *store.Admin
	params map[string]string
	upload *testUpload
}

// testUpload is a file sent as the "image" field of a multipart body.
type testUpload struct {
	filename string
	data     []byte
}

// newRequest builds a request with a loaded session, optional admin and
// chi URL parameters.
func (e *testEnv) newRequest(t *testing.T, tr testRequest) *http.Request {
	t.Helper()

	var req *http.Request
	switch {
	case tr.upload != nil:
		body := new(bytes.Buffer)
		mw := multipart.NewWriter(body)
		for k, vs := range tr.form {
			for _, v := range vs {
				_ = mw.WriteField(k, v)
			}
		}
		part, err := mw.CreateFormFile("image", tr.upload.filename)
		if err != nil {
			t.Fatalf("CreateFormFile: %v", err)
		}
		_, _ = part.Write(tr.upload.data)
		_ = mw.Close()
		req = httptest.NewRequest(tr.method, tr.target, body)
		req.Header.Set("Content-Type", mw.FormDataContentType())
	case tr.form != nil:
		req = httptest.NewRequest(tr.method, tr.target, strings.NewReader(tr.form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	default:
		req = httptest.NewRequest(tr.method, tr.target, nil)
	}

	ctx, err := e.sm.Load(req.Context(), "")
	if err != nil {
		t.Fatalf("loading session: %v", err)
	}
	if tr.admin != nil {
		ctx = context.WithValue(ctx, middleware.ContextKeyAdmin, *tr.admin)
	}
	if len(tr.params) > 0 {
		rctx := chi.NewRouteContext()
		for k, v := range tr.params {
			rctx.URLParams.Add(k, v)
		}
		ctx = context.WithValue(ctx, chi.RouteCtxKey, rctx)
	}
	return req.WithContext(ctx)
}

// flashOf returns the pending flash message of the request's session.
func (e *testEnv) flashOf(r *http.Request) string {
	return e.sm.GetString(r.Context(), "flash")
}

// createTestCampaign inserts an active campaign.
func createTestCampaign(t *testing.T, db *sql.DB, slug string, minCents int64) store.Campaign {
	t.Helper()
	now := util.Now()
	c, err := store.New(db).CreateCampaign(context.Background(), store.CreateCampaignParams{
		Title:            strings.ToUpper(slug[:1]) + slug[1:],
		Slug:             slug,
		GoalCents:        util.NullInt64FromValue(100000),
		MinDonationCents: minCents,
		IsActive:         true,
		ShowProgress:     true,
		CreatedAt:        now,
		UpdatedAt:        now,
	})
	if err != nil {
		t.Fatalf("CreateCampaign(%s): %v", slug, err)
	}
	return c
}

// recordDonation records an offline cash donation through the ledger.
func recordDonation(t *testing.T, ledger *service.Ledger, campaignID int64, cents int64) store.Donation {
	t.Helper()
	d, err := ledger.Record(context.Background(), service.DonationInput{
		DonorName:     "Donor",
		AmountCents:   cents,
		DonationType:  model.DonationTypeOneTime,
		PaymentMethod: model.PaymentCash,
		Source:        model.DonationSourceOffline,
		CampaignID:    util.NullInt64FromValue(campaignID),
	})
	if err != nil {
		t.Fatalf("Record: %v", err)
	}
	return d
}

// assertStatus checks if the response status code matches the expected value.
func assertStatus(t *testing.T, got, want int) {
	t.Helper()
	if got != want {
		t.Errorf("status = %d; want %d", got, want)
	}
}

// assertRedirect checks for a 303 to the given location.
func assertRedirect(t *testing.T, w *httptest.ResponseRecorder, location string) {
	t.Helper()
	assertStatus(t, w.Code, http.StatusSeeOther)
	if got := w.Header().Get("Location"); got != location {
		t.Errorf("Location = %q; want %q", got, location)
	}
}

// assertFieldError checks that the stub template rendered an error for field.
func assertFieldError(t *testing.T, w *httptest.ResponseRecorder, field string) {
	t.Helper()
	if !strings.Contains(w.Body.String(), `data-field="`+field+`"`) {
		t.Errorf("expected field error for %q in body: %s", field, w.Body.String())
	}
}
