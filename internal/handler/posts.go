// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/olegiv/ochurch/internal/middleware"
	"github.com/olegiv/ochurch/internal/model"
	"github.com/olegiv/ochurch/internal/render"
	"github.com/olegiv/ochurch/internal/service"
	"github.com/olegiv/ochurch/internal/store"
	"github.com/olegiv/ochurch/internal/util"
)

// scheduleLayout is the format of an HTML datetime-local input.
const scheduleLayout = "2006-01-02T15:04"

// PostsHandler handles blog post management routes.
type PostsHandler struct {
	queries  *store.Queries
	renderer *render.Renderer
	uploader *service.Uploader
	activity *service.ActivityService
	location *time.Location
}

// NewPostsHandler creates a new PostsHandler. Schedule times are entered in loc.
func NewPostsHandler(db *sql.DB, renderer *render.Renderer, uploader *service.Uploader, loc *time.Location) *PostsHandler {
	if loc == nil {
		loc = time.Local
	}
	return &PostsHandler{
		queries:  store.New(db),
		renderer: renderer,
		uploader: uploader,
		activity: service.NewActivityService(db),
		location: loc,
	}
}

// PostsListData holds data for the posts list template.
type PostsListData struct {
	Posts      []store.Post
	Status     string
	Statuses   []string
	Pagination AdminPagination
}

// PostInput holds submitted post form values.
type PostInput struct {
	Title          string
	Slug           string
	Content        string
	Excerpt        string
	Status         string
	ShowOnHomepage bool
	TargetPages    []string
	ScheduledAt    string
}

// PostFormData holds data for the post form template.
type PostFormData struct {
	Post        *store.Post
	Form        PostInput
	IsEdit      bool
	TargetPages []string
}

func postInputFromRequest(r *http.Request) PostInput {
	return PostInput{
		Title:          formText(r, "title"),
		Slug:           strings.ToLower(strings.TrimSpace(r.FormValue("slug"))),
		Content:        util.SanitizeHTML(r.FormValue("content")),
		Excerpt:        formText(r, "excerpt"),
		Status:         strings.TrimSpace(r.FormValue("status")),
		ShowOnHomepage: formBool(r, "show_on_homepage"),
		TargetPages:    r.Form["target_pages"],
		ScheduledAt:    strings.TrimSpace(r.FormValue("scheduled_at")),
	}
}

func (h *PostsHandler) inputFromRow(p store.Post) PostInput {
	in := PostInput{
		Title:          p.Title,
		Slug:           p.Slug,
		Content:        p.Content,
		Excerpt:        p.Excerpt,
		Status:         p.Status,
		ShowOnHomepage: p.ShowOnHomepage,
		TargetPages:    model.DecodeTargetPages(p.TargetPages),
	}
	if p.ScheduledAt.Valid {
		in.ScheduledAt = p.ScheduledAt.Time.In(h.location).Format(scheduleLayout)
	}
	return in
}

// validate checks the form and returns the parsed schedule time.
func (h *PostsHandler) validate(in PostInput) (sql.NullTime, map[string]string) {
	errs := make(map[string]string)
	requireField(errs, "title", in.Title, "Title")
	if strings.TrimSpace(in.Content) == "" {
		errs["content"] = "Content is required"
	}
	if in.Status != model.PostStatusDraft && in.Status != model.PostStatusPublished {
		errs["status"] = "Invalid status"
	}
	for _, p := range in.TargetPages {
		if !model.IsTargetPage(p) {
			errs["target_pages"] = "Unknown page: " + p
			break
		}
	}

	var scheduled sql.NullTime
	if in.ScheduledAt != "" && in.Status == model.PostStatusDraft {
		t, err := time.ParseInLocation(scheduleLayout, in.ScheduledAt, h.location)
		switch {
		case err != nil:
			errs["scheduled_at"] = "Enter a valid date and time"
		case !t.After(time.Now()):
			errs["scheduled_at"] = "Scheduled time must be in the future"
		default:
			scheduled = util.NullTimeFromValue(t.UTC().Truncate(time.Second))
		}
	}
	return scheduled, errs
}

// List handles GET /admin/posts, optionally filtered by ?status=.
func (h *PostsHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	status := r.URL.Query().Get("status")
	if status != model.PostStatusDraft && status != model.PostStatusPublished {
		status = ""
	}

	total, err := h.queries.CountPosts(ctx, status)
	if err != nil {
		logAndInternalError(w, "failed to count posts", "error", err)
		return
	}
	_, offset, pagination := pageWindow(r, total, adminPerPage, redirectAdminPosts)

	posts, err := h.queries.ListPosts(ctx, store.ListPostsParams{Status: status, Limit: adminPerPage, Offset: offset})
	if err != nil {
		logAndInternalError(w, "failed to list posts", "error", err)
		return
	}

	renderPage(w, r, h.renderer, "admin/posts_list", render.TemplateData{
		Title: "Posts",
		Data: PostsListData{
			Posts:      posts,
			Status:     status,
			Statuses:   []string{model.PostStatusDraft, model.PostStatusPublished},
			Pagination: pagination,
		},
	})
}

// NewForm handles GET /admin/posts/new.
func (h *PostsHandler) NewForm(w http.ResponseWriter, r *http.Request) {
	h.renderForm(w, r, PostFormData{Form: PostInput{Status: model.PostStatusDraft}}, nil)
}

// Create handles POST /admin/posts.
func (h *PostsHandler) Create(w http.ResponseWriter, r *http.Request) {
	if !parseMultipartOrRedirect(w, r, h.renderer, h.uploader, redirectAdminPostsNew) {
		return
	}

	ctx := r.Context()
	in := postInputFromRequest(r)
	scheduled, errs := h.validate(in)

	slug, slugErr := resolveSlug(in.Slug, in.Title, func(s string) (bool, error) {
		return h.queries.PostSlugExists(ctx, s, 0)
	})
	if slugErr != "" {
		errs["slug"] = slugErr
	}
	in.Slug = slug

	img := processImage(r, h.uploader, errs, "", service.UploadDirPosts, in.Title)
	if len(errs) > 0 {
		h.renderForm(w, r, PostFormData{Form: in}, errs)
		return
	}

	now := util.Now()
	var publishedAt sql.NullTime
	if in.Status == model.PostStatusPublished {
		publishedAt = util.NullTimeFromValue(now)
	}

	var authorID sql.NullInt64
	if id := middleware.GetAdminID(r); id > 0 {
		authorID = util.NullInt64FromValue(id)
	}

	post, err := h.queries.CreatePost(ctx, store.CreatePostParams{
		Title:          in.Title,
		Slug:           in.Slug,
		Content:        in.Content,
		Excerpt:        in.Excerpt,
		ImagePath:      img.path,
		AuthorID:       authorID,
		Status:         in.Status,
		ShowOnHomepage: in.ShowOnHomepage,
		TargetPages:    model.EncodeTargetPages(in.TargetPages),
		PublishedAt:    publishedAt,
		ScheduledAt:    scheduled,
		CreatedAt:      now,
		UpdatedAt:      now,
	})
	if err != nil {
		img.rollback(h.uploader)
		slog.Error("failed to create post", "error", err)
		h.renderer.SetFlash(r, genericSaveError, flashTypeError)
		h.renderForm(w, r, PostFormData{Form: in}, nil)
		return
	}

	slog.Info("post created", "post_id", post.ID, "slug", post.Slug, "status", post.Status, "created_by", authorID.Int64)
	logActivity(r, h.activity, model.ActivityCategoryContent, "Post created: "+post.Title, map[string]any{"post_id": post.ID, "status": post.Status})
	flashSuccess(w, r, h.renderer, redirectAdminPosts, "Post created successfully")
}

// EditForm handles GET /admin/posts/{id}.
func (h *PostsHandler) EditForm(w http.ResponseWriter, r *http.Request) {
	post, ok := h.requirePost(w, r)
	if !ok {
		return
	}
	h.renderForm(w, r, PostFormData{Post: &post, Form: h.inputFromRow(post), IsEdit: true}, nil)
}

// Update handles POST|PUT /admin/posts/{id}.
func (h *PostsHandler) Update(w http.ResponseWriter, r *http.Request) {
	post, ok := h.requirePost(w, r)
	if !ok {
		return
	}
	editURL := fmt.Sprintf(redirectAdminPostsID, post.ID)
	if !parseMultipartOrRedirect(w, r, h.renderer, h.uploader, editURL) {
		return
	}

	ctx := r.Context()
	in := postInputFromRequest(r)
	scheduled, errs := h.validate(in)

	slug, slugErr := resolveSlug(in.Slug, in.Title, func(s string) (bool, error) {
		return h.queries.PostSlugExists(ctx, s, post.ID)
	})
	if slugErr != "" {
		errs["slug"] = slugErr
	}
	in.Slug = slug

	img := processImage(r, h.uploader, errs, post.ImagePath, service.UploadDirPosts, in.Title)
	if len(errs) > 0 {
		h.renderForm(w, r, PostFormData{Post: &post, Form: in, IsEdit: true}, errs)
		return
	}

	now := util.Now()
	publishedAt := post.PublishedAt
	if in.Status == model.PostStatusPublished && !publishedAt.Valid {
		publishedAt = util.NullTimeFromValue(now)
	}

	updated, err := h.queries.UpdatePost(ctx, store.UpdatePostParams{
		Title:          in.Title,
		Slug:           in.Slug,
		Content:        in.Content,
		Excerpt:        in.Excerpt,
		ImagePath:      img.path,
		Status:         in.Status,
		ShowOnHomepage: in.ShowOnHomepage,
		TargetPages:    model.EncodeTargetPages(in.TargetPages),
		PublishedAt:    publishedAt,
		ScheduledAt:    scheduled,
		UpdatedAt:      now,
		ID:             post.ID,
	})
	if err != nil {
		img.rollback(h.uploader)
		slog.Error("failed to update post", "error", err, "post_id", post.ID)
		flashError(w, r, h.renderer, editURL, genericSaveError)
		return
	}
	img.commit(h.uploader)

	slog.Info("post updated", "post_id", updated.ID, "status", updated.Status, "updated_by", middleware.GetAdminID(r))
	logActivity(r, h.activity, model.ActivityCategoryContent, "Post updated: "+updated.Title, map[string]any{"post_id": updated.ID, "status": updated.Status})
	flashSuccess(w, r, h.renderer, redirectAdminPosts, "Post updated successfully")
}

// Delete handles POST /admin/posts/{id}/delete and DELETE /admin/posts/{id}.
func (h *PostsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	post, ok := h.requirePost(w, r)
	if !ok {
		return
	}

	if err := h.queries.DeletePost(r.Context(), post.ID); err != nil {
		slog.Error("failed to delete post", "error", err, "post_id", post.ID)
		flashError(w, r, h.renderer, redirectAdminPosts, "Error deleting post")
		return
	}
	h.uploader.Remove(post.ImagePath)

	slog.Info("post deleted", "post_id", post.ID, "deleted_by", middleware.GetAdminID(r))
	logActivity(r, h.activity, model.ActivityCategoryContent, "Post deleted: "+post.Title, map[string]any{"post_id": post.ID})
	flashSuccess(w, r, h.renderer, redirectAdminPosts, "Post deleted successfully")
}

// ToggleStatus handles POST /admin/posts/{id}/toggle-status. Publishing
// clears any pending schedule.
func (h *PostsHandler) ToggleStatus(w http.ResponseWriter, r *http.Request) {
	post, ok := h.requirePost(w, r)
	if !ok {
		return
	}

	next := model.PostStatusPublished
	if post.Status == model.PostStatusPublished {
		next = model.PostStatusDraft
	}

	updated, err := h.queries.SetPostStatus(r.Context(), next, util.Now(), post.ID)
	if err != nil {
		slog.Error("failed to change post status", "error", err, "post_id", post.ID)
		flashError(w, r, h.renderer, redirectAdminPosts, genericSaveError)
		return
	}

	msg := "Post moved to drafts"
	if updated.Status == model.PostStatusPublished {
		msg = "Post published"
	}
	logActivity(r, h.activity, model.ActivityCategoryContent, msg+": "+updated.Title, map[string]any{"post_id": updated.ID, "status": updated.Status})
	flashSuccess(w, r, h.renderer, redirectAdminPosts, msg)
}

// ToggleHomepage handles POST /admin/posts/{id}/toggle-homepage.
func (h *PostsHandler) ToggleHomepage(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDOrRedirect(w, r, h.renderer, redirectAdminPosts, "post")
	if !ok {
		return
	}
	post, ok := requireEntityWithRedirect(w, r, h.renderer, redirectAdminPosts, "Post", id,
		func(id int64) (store.Post, error) { return h.queries.TogglePostHomepage(r.Context(), util.Now(), id) })
	if !ok {
		return
	}

	msg := "Post removed from the homepage"
	if post.ShowOnHomepage {
		msg = "Post shown on the homepage"
	}
	logActivity(r, h.activity, model.ActivityCategoryContent, msg+": "+post.Title, map[string]any{"post_id": post.ID})
	flashSuccess(w, r, h.renderer, redirectAdminPosts, msg)
}

func (h *PostsHandler) requirePost(w http.ResponseWriter, r *http.Request) (store.Post, bool) {
	id, ok := parseIDOrRedirect(w, r, h.renderer, redirectAdminPosts, "post")
	if !ok {
		return store.Post{}, false
	}
	return requireEntityWithRedirect(w, r, h.renderer, redirectAdminPosts, "Post", id,
		func(id int64) (store.Post, error) { return h.queries.GetPostByID(r.Context(), id) })
}

func (h *PostsHandler) renderForm(w http.ResponseWriter, r *http.Request, data PostFormData, errs map[string]string) {
	title := "New Post"
	if data.IsEdit {
		title = "Edit Post"
	}
	data.TargetPages = model.TargetPages
	renderPage(w, r, h.renderer, "admin/post_form", render.TemplateData{
		Title:  title,
		Data:   data,
		Errors: errs,
	})
}
