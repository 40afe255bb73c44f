// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"time"
)

const sermonColumns = `id, title, preacher, sermon_date, scripture, description, video_url, audio_url, image_path, is_featured, created_at, updated_at`

func scanSermon(row rowScanner) (Sermon, error) {
	var i Sermon
	err := row.Scan(
		&i.ID,
		&i.Title,
		&i.Preacher,
		&i.SermonDate,
		&i.Scripture,
		&i.Description,
		&i.VideoUrl,
		&i.AudioUrl,
		&i.ImagePath,
		&i.IsFeatured,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

func (q *Queries) querySermons(ctx context.Context, query string, args ...interface{}) ([]Sermon, error) {
	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var items []Sermon
	for rows.Next() {
		i, err := scanSermon(rows)
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

const createSermon = `INSERT INTO sermons (title, preacher, sermon_date, scripture, description, video_url, audio_url, image_path, is_featured, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
RETURNING ` + sermonColumns

type CreateSermonParams struct {
	Title       string    `json:"title"`
	Preacher    string    `json:"preacher"`
	SermonDate  string    `json:"sermon_date"`
	Scripture   string    `json:"scripture"`
	Description string    `json:"description"`
	VideoUrl    string    `json:"video_url"`
	AudioUrl    string    `json:"audio_url"`
	ImagePath   string    `json:"image_path"`
	IsFeatured  bool      `json:"is_featured"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (q *Queries) CreateSermon(ctx context.Context, arg CreateSermonParams) (Sermon, error) {
	row := q.db.QueryRowContext(ctx, createSermon,
		arg.Title,
		arg.Preacher,
		arg.SermonDate,
		arg.Scripture,
		arg.Description,
		arg.VideoUrl,
		arg.AudioUrl,
		arg.ImagePath,
		arg.IsFeatured,
		arg.CreatedAt,
		arg.UpdatedAt,
	)
	return scanSermon(row)
}

const getSermonByID = `SELECT ` + sermonColumns + ` FROM sermons WHERE id = ?`

func (q *Queries) GetSermonByID(ctx context.Context, id int64) (Sermon, error) {
	return scanSermon(q.db.QueryRowContext(ctx, getSermonByID, id))
}

const listSermons = `SELECT ` + sermonColumns + ` FROM sermons
WHERE (?1 = '' OR title LIKE '%' || ?1 || '%' OR preacher LIKE '%' || ?1 || '%')
ORDER BY sermon_date DESC, id DESC LIMIT ?2 OFFSET ?3`

type ListSermonsParams struct {
	Search string `json:"search"`
	Limit  int64  `json:"limit"`
	Offset int64  `json:"offset"`
}

func (q *Queries) ListSermons(ctx context.Context, arg ListSermonsParams) ([]Sermon, error) {
	return q.querySermons(ctx, listSermons, arg.Search, arg.Limit, arg.Offset)
}

const countSermons = `SELECT COUNT(*) FROM sermons
WHERE (?1 = '' OR title LIKE '%' || ?1 || '%' OR preacher LIKE '%' || ?1 || '%')`

func (q *Queries) CountSermons(ctx context.Context, search string) (int64, error) {
	var count int64
	err := q.db.QueryRowContext(ctx, countSermons, search).Scan(&count)
	return count, err
}

const listRecentSermons = `SELECT ` + sermonColumns + ` FROM sermons
ORDER BY is_featured DESC, sermon_date DESC, id DESC LIMIT ?`

// ListRecentSermons returns the newest sermons with featured ones first.
func (q *Queries) ListRecentSermons(ctx context.Context, limit int64) ([]Sermon, error) {
	return q.querySermons(ctx, listRecentSermons, limit)
}

const updateSermon = `UPDATE sermons SET title = ?, preacher = ?, sermon_date = ?, scripture = ?, description = ?,
    video_url = ?, audio_url = ?, image_path = ?, is_featured = ?, updated_at = ?
WHERE id = ?
RETURNING ` + sermonColumns

type UpdateSermonParams struct {
	Title       string    `json:"title"`
	Preacher    string    `json:"preacher"`
	SermonDate  string    `json:"sermon_date"`
	Scripture   string    `json:"scripture"`
	Description string    `json:"description"`
	VideoUrl    string    `json:"video_url"`
	AudioUrl    string    `json:"audio_url"`
	ImagePath   string    `json:"image_path"`
	IsFeatured  bool      `json:"is_featured"`
	UpdatedAt   time.Time `json:"updated_at"`
	ID          int64     `json:"id"`
}

func (q *Queries) UpdateSermon(ctx context.Context, arg UpdateSermonParams) (Sermon, error) {
	row := q.db.QueryRowContext(ctx, updateSermon,
		arg.Title,
		arg.Preacher,
		arg.SermonDate,
		arg.Scripture,
		arg.Description,
		arg.VideoUrl,
		arg.AudioUrl,
		arg.ImagePath,
		arg.IsFeatured,
		arg.UpdatedAt,
		arg.ID,
	)
	return scanSermon(row)
}

const toggleSermonFeatured = `UPDATE sermons SET is_featured = NOT is_featured, updated_at = ? WHERE id = ?
RETURNING ` + sermonColumns

func (q *Queries) ToggleSermonFeatured(ctx context.Context, updatedAt time.Time, id int64) (Sermon, error) {
	return scanSermon(q.db.QueryRowContext(ctx, toggleSermonFeatured, updatedAt, id))
}

const deleteSermon = `DELETE FROM sermons WHERE id = ?`

func (q *Queries) DeleteSermon(ctx context.Context, id int64) error {
	_, err := q.db.ExecContext(ctx, deleteSermon, id)
	return err
}
