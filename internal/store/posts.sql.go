// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"time"
)

const postColumns = `id, title, slug, content, excerpt, image_path, author_id, status, show_on_homepage, target_pages,
    published_at, scheduled_at, created_at, updated_at`

func scanPost(row rowScanner) (Post, error) {
	var i Post
	err := row.Scan(
		&i.ID,
		&i.Title,
		&i.Slug,
		&i.Content,
		&i.Excerpt,
		&i.ImagePath,
		&i.AuthorID,
		&i.Status,
		&i.ShowOnHomepage,
		&i.TargetPages,
		&i.PublishedAt,
		&i.ScheduledAt,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

func (q *Queries) queryPosts(ctx context.Context, query string, args ...interface{}) ([]Post, error) {
	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var items []Post
	for rows.Next() {
		i, err := scanPost(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const createPost = `INSERT INTO posts (title, slug, content, excerpt, image_path, author_id, status, show_on_homepage,
    target_pages, published_at, scheduled_at, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
RETURNING ` + postColumns

type CreatePostParams struct {
	Title          string        `json:"title"`
	Slug           string        `json:"slug"`
	Content        string        `json:"content"`
	Excerpt        string        `json:"excerpt"`
	ImagePath      string        `json:"image_path"`
	AuthorID       sql.NullInt64 `json:"author_id"`
	Status         string        `json:"status"`
	ShowOnHomepage bool          `json:"show_on_homepage"`
	TargetPages    string        `json:"target_pages"`
	PublishedAt    sql.NullTime  `json:"published_at"`
	ScheduledAt    sql.NullTime  `json:"scheduled_at"`
	CreatedAt      time.Time     `json:"created_at"`
	UpdatedAt      time.Time     `json:"updated_at"`
}

func (q *Queries) CreatePost(ctx context.Context, arg CreatePostParams) (Post, error) {
	row := q.db.QueryRowContext(ctx, createPost,
		arg.Title,
		arg.Slug,
		arg.Content,
		arg.Excerpt,
		arg.ImagePath,
		arg.AuthorID,
		arg.Status,
		arg.ShowOnHomepage,
		arg.TargetPages,
		arg.PublishedAt,
		arg.ScheduledAt,
		arg.CreatedAt,
		arg.UpdatedAt,
	)
	return scanPost(row)
}

const getPostByID = `SELECT ` + postColumns + ` FROM posts WHERE id = ?`

func (q *Queries) GetPostByID(ctx context.Context, id int64) (Post, error) {
	return scanPost(q.db.QueryRowContext(ctx, getPostByID, id))
}

const getPublishedPostBySlug = `SELECT ` + postColumns + ` FROM posts WHERE slug = ? AND status = 'published'`

func (q *Queries) GetPublishedPostBySlug(ctx context.Context, slug string) (Post, error) {
	return scanPost(q.db.QueryRowContext(ctx, getPublishedPostBySlug, slug))
}

const postSlugExists = `SELECT EXISTS(SELECT 1 FROM posts WHERE slug = ? AND id != ?)`

// PostSlugExists reports whether a post other than excludeID uses slug.
func (q *Queries) PostSlugExists(ctx context.Context, slug string, excludeID int64) (bool, error) {
	var exists bool
	err := q.db.QueryRowContext(ctx, postSlugExists, slug, excludeID).Scan(&exists)
	return exists, err
}

const listPosts = `SELECT ` + postColumns + ` FROM posts
WHERE (?1 = '' OR status = ?1)
ORDER BY created_at DESC, id DESC LIMIT ?2 OFFSET ?3`

type ListPostsParams struct {
	Status string `json:"status"`
	Limit  int64  `json:"limit"`
	Offset int64  `json:"offset"`
}

func (q *Queries) ListPosts(ctx context.Context, arg ListPostsParams) ([]Post, error) {
	return q.queryPosts(ctx, listPosts, arg.Status, arg.Limit, arg.Offset)
}

const countPosts = `SELECT COUNT(*) FROM posts WHERE (?1 = '' OR status = ?1)`

func (q *Queries) CountPosts(ctx context.Context, status string) (int64, error) {
	var count int64
	err := q.db.QueryRowContext(ctx, countPosts, status).Scan(&count)
	return count, err
}

const listPublishedPosts = `SELECT ` + postColumns + ` FROM posts
WHERE status = 'published'
ORDER BY published_at DESC, id DESC LIMIT ? OFFSET ?`

type ListPublishedPostsParams struct {
	Limit  int64 `json:"limit"`
	Offset int64 `json:"offset"`
}

func (q *Queries) ListPublishedPosts(ctx context.Context, arg ListPublishedPostsParams) ([]Post, error) {
	return q.queryPosts(ctx, listPublishedPosts, arg.Limit, arg.Offset)
}

const countPublishedPosts = `SELECT COUNT(*) FROM posts WHERE status = 'published'`

func (q *Queries) CountPublishedPosts(ctx context.Context) (int64, error) {
	var count int64
	err := q.db.QueryRowContext(ctx, countPublishedPosts).Scan(&count)
	return count, err
}

const listPublishedPostsForPage = `SELECT ` + postColumns + ` FROM posts
WHERE status = 'published'
  AND ((?1 = 'home' AND show_on_homepage = 1)
       OR EXISTS (SELECT 1 FROM json_each(posts.target_pages) WHERE json_each.value = ?1))
ORDER BY published_at DESC, id DESC LIMIT ?2`

// ListPublishedPostsForPage returns published posts targeted at page. On the
// home page, posts flagged show-on-homepage are included as well.
func (q *Queries) ListPublishedPostsForPage(ctx context.Context, page string, limit int64) ([]Post, error) {
	return q.queryPosts(ctx, listPublishedPostsForPage, page, limit)
}

const updatePost = `UPDATE posts SET title = ?, slug = ?, content = ?, excerpt = ?, image_path = ?, status = ?,
    show_on_homepage = ?, target_pages = ?, published_at = ?, scheduled_at = ?, updated_at = ?
WHERE id = ?
RETURNING ` + postColumns

type UpdatePostParams struct {
	Title          string       `json:"title"`
	Slug           string       `json:"slug"`
	Content        string       `json:"content"`
	Excerpt        string       `json:"excerpt"`
	ImagePath      string       `json:"image_path"`
	Status         string       `json:"status"`
	ShowOnHomepage bool         `json:"show_on_homepage"`
	TargetPages    string       `json:"target_pages"`
	PublishedAt    sql.NullTime `json:"published_at"`
	ScheduledAt    sql.NullTime `json:"scheduled_at"`
	UpdatedAt      time.Time    `json:"updated_at"`
	ID             int64        `json:"id"`
}

func (q *Queries) UpdatePost(ctx context.Context, arg UpdatePostParams) (Post, error) {
	row := q.db.QueryRowContext(ctx, updatePost,
		arg.Title,
		arg.Slug,
		arg.Content,
		arg.Excerpt,
		arg.ImagePath,
		arg.Status,
		arg.ShowOnHomepage,
		arg.TargetPages,
		arg.PublishedAt,
		arg.ScheduledAt,
		arg.UpdatedAt,
		arg.ID,
	)
	return scanPost(row)
}

const setPostStatus = `UPDATE posts SET status = ?1,
    published_at = CASE WHEN ?1 = 'published' THEN COALESCE(published_at, ?2) ELSE published_at END,
    scheduled_at = CASE WHEN ?1 = 'published' THEN NULL ELSE scheduled_at END,
    updated_at = ?2
WHERE id = ?3
RETURNING ` + postColumns

// SetPostStatus changes the status. The first publish stamps published_at.
func (q *Queries) SetPostStatus(ctx context.Context, status string, now time.Time, id int64) (Post, error) {
	return scanPost(q.db.QueryRowContext(ctx, setPostStatus, status, now, id))
}

const togglePostHomepage = `UPDATE posts SET show_on_homepage = NOT show_on_homepage, updated_at = ? WHERE id = ?
RETURNING ` + postColumns

func (q *Queries) TogglePostHomepage(ctx context.Context, updatedAt time.Time, id int64) (Post, error) {
	return scanPost(q.db.QueryRowContext(ctx, togglePostHomepage, updatedAt, id))
}

const publishScheduledPosts = `UPDATE posts SET status = 'published',
    published_at = COALESCE(published_at, scheduled_at),
    scheduled_at = NULL,
    updated_at = ?1
WHERE status = 'draft' AND scheduled_at IS NOT NULL AND scheduled_at <= ?1`

// PublishScheduledPosts publishes drafts whose schedule is due and returns how many changed.
func (q *Queries) PublishScheduledPosts(ctx context.Context, now time.Time) (int64, error) {
	result, err := q.db.ExecContext(ctx, publishScheduledPosts, now)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const deletePost = `DELETE FROM posts WHERE id = ?`

func (q *Queries) DeletePost(ctx context.Context, id int64) error {
	_, err := q.db.ExecContext(ctx, deletePost, id)
	return err
}
