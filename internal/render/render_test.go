// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package render

import (
	"database/sql"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/alexedwards/scs/v2"

	"github.com/olegiv/ochurch/internal/store"
)

func testFS() fstest.MapFS {
	return fstest.MapFS{
		"layouts/base.html":   {Data: []byte(`{{define "base"}}<title>{{.Title}}</title>{{if .Flash}}<p class="{{.FlashType}}">{{.Flash}}</p>{{end}}{{block "body" .}}{{end}}{{end}}`)},
		"layouts/admin.html":  {Data: []byte(`{{define "body"}}<nav>{{if .Admin}}{{.Admin.Username}}{{end}}</nav>{{template "content" .}}{{end}}`)},
		"layouts/public.html": {Data: []byte(`{{define "body"}}<header>{{index .Settings "site_name"}}</header>{{template "content" .}}{{end}}`)},
		"partials/err.html":   {Data: []byte(`{{define "fieldError"}}{{with .}}<span>{{.}}</span>{{end}}{{end}}`)},
		"admin/dashboard.html": {Data: []byte(`{{define "content"}}<h1>Dash</h1>{{template "fieldError" (index .Errors "title")}}{{end}}`)},
		"public/home.html":     {Data: []byte(`{{define "content"}}<p>{{.Data}}</p>{{end}}`)},
		"auth/login.html":      {Data: []byte(`{{define "body"}}<form>login</form>{{end}}`)},
	}
}

func TestNewParsesTemplateSets(t *testing.T) {
	r, err := New(Config{TemplatesFS: testFS()})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	for _, name := range []string{"admin/dashboard", "public/home", "auth/login"} {
		if !r.Has(name) {
			t.Errorf("template %q not parsed", name)
		}
	}
	if r.Has("admin/missing") {
		t.Error("unexpected template admin/missing")
	}
}

func TestRender(t *testing.T) {
	r, err := New(Config{TemplatesFS: testFS()})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	t.Run("public page gets settings", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if err := r.Render(rec, req, "public/home", TemplateData{Title: "Home", Data: "<b>hi</b>"}); err != nil {
			t.Fatalf("Render() error: %v", err)
		}
		body := rec.Body.String()
		if !strings.Contains(body, "<header>Our Church</header>") {
			t.Errorf("body missing default site name: %s", body)
		}
		if !strings.Contains(body, "&lt;b&gt;hi&lt;/b&gt;") {
			t.Errorf("data not escaped: %s", body)
		}
		if ct := rec.Header().Get("Content-Type"); ct != "text/html; charset=utf-8" {
			t.Errorf("Content-Type = %q", ct)
		}
	})

	t.Run("admin page with errors", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/admin", nil)
		data := TemplateData{
			Admin:  &store.Admin{Username: "pastor"},
			Errors: map[string]string{"title": "Title is required"},
		}
		if err := r.RenderStatus(rec, req, http.StatusUnprocessableEntity, "admin/dashboard", data); err != nil {
			t.Fatalf("RenderStatus() error: %v", err)
		}
		if rec.Code != http.StatusUnprocessableEntity {
			t.Errorf("status = %d", rec.Code)
		}
		body := rec.Body.String()
		if !strings.Contains(body, "<nav>pastor</nav>") || !strings.Contains(body, "<span>Title is required</span>") {
			t.Errorf("unexpected body: %s", body)
		}
	})

	t.Run("unknown template writes nothing", func(t *testing.T) {
		rec := httptest.NewRecorder()
		err := r.Render(rec, httptest.NewRequest(http.MethodGet, "/", nil), "public/nope", TemplateData{})
		if err == nil {
			t.Fatal("Render() expected error")
		}
		if rec.Body.Len() != 0 {
			t.Errorf("body written on error: %q", rec.Body.String())
		}
	})
}

func TestRenderExecutionErrorWritesNothing(t *testing.T) {
	fsys := testFS()
	fsys["public/broken.html"] = &fstest.MapFile{Data: []byte(`{{define "content"}}{{.Data.Missing}}{{end}}`)}
	r, err := New(Config{TemplatesFS: fsys})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	rec := httptest.NewRecorder()
	err = r.Render(rec, httptest.NewRequest(http.MethodGet, "/", nil), "public/broken", TemplateData{Data: 5})
	if err == nil {
		t.Fatal("Render() expected execution error")
	}
	if rec.Body.Len() != 0 {
		t.Errorf("partial output written: %q", rec.Body.String())
	}
}

func TestFlash(t *testing.T) {
	sm := scs.New()
	r, err := New(Config{TemplatesFS: testFS(), SessionManager: sm})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	var first, second string
	h := sm.LoadAndSave(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		r.SetFlash(req, "Sermon saved", "success")

		rec := httptest.NewRecorder()
		_ = r.Render(rec, req, "public/home", TemplateData{})
		first = rec.Body.String()

		rec = httptest.NewRecorder()
		_ = r.Render(rec, req, "public/home", TemplateData{})
		second = rec.Body.String()
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	if !strings.Contains(first, `<p class="success">Sermon saved</p>`) {
		t.Errorf("first render missing flash: %s", first)
	}
	if strings.Contains(second, "Sermon saved") {
		t.Error("flash shown twice")
	}
}

func TestFuncs(t *testing.T) {
	goal := sql.NullInt64{Int64: 1000, Valid: true}
	if got := progress(250, goal); got != "25" {
		t.Errorf("progress(250/1000) = %q, want 25", got)
	}
	if got := progress(1200, goal); got != "100" {
		t.Errorf("progress(1200/1000) = %q, want 100", got)
	}
	if hasGoal(sql.NullInt64{}) {
		t.Error("hasGoal(null) = true")
	}
	if got := money("$", 1250); got != "$12.50" {
		t.Errorf("money() = %q", got)
	}
	if got := truncate("héllo world", 5); got != "héllo..." {
		t.Errorf("truncate() = %q", got)
	}
	if got := string(markdown("**bold**<script>x</script>")); !strings.Contains(got, "<strong>bold</strong>") || strings.Contains(got, "<script>") {
		t.Errorf("markdown() = %q", got)
	}
	if got := string(trustedHTML(`<p onclick="x()">hi</p>`)); strings.Contains(got, "onclick") {
		t.Errorf("trustedHTML() kept handler: %q", got)
	}
	if !can(&store.Admin{Role: "admin"}, "edit_settings") || can(&store.Admin{Role: "viewer"}, "edit_settings") || can(nil, "view_content") {
		t.Error("can() wrong")
	}
	if got := officeHours(`[{"day":"Mon","hours":"9-5"}]`); len(got) != 1 || got[0].Day != "Mon" {
		t.Errorf("officeHours() = %v", got)
	}
	if got := socialLinks("not json"); got != nil {
		t.Errorf("socialLinks(invalid) = %v, want nil", got)
	}
}
