// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"time"
)

const announcementColumns = `id, title, content, announcement_date, is_active, created_at, updated_at`

func scanAnnouncement(row rowScanner) (Announcement, error) {
	var i Announcement
	err := row.Scan(
		&i.ID,
		&i.Title,
		&i.Content,
		&i.AnnouncementDate,
		&i.IsActive,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

func (q *Queries) queryAnnouncements(ctx context.Context, query string, args ...interface{}) ([]Announcement, error) {
	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var items []Announcement
	for rows.Next() {
		i, err := scanAnnouncement(rows)
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

const createAnnouncement = `INSERT INTO announcements (title, content, announcement_date, is_active, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?)
RETURNING ` + announcementColumns

type CreateAnnouncementParams struct {
	Title            string    `json:"title"`
	Content          string    `json:"content"`
	AnnouncementDate string    `json:"announcement_date"`
	IsActive         bool      `json:"is_active"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

func (q *Queries) CreateAnnouncement(ctx context.Context, arg CreateAnnouncementParams) (Announcement, error) {
	row := q.db.QueryRowContext(ctx, createAnnouncement,
		arg.Title,
		arg.Content,
		arg.AnnouncementDate,
		arg.IsActive,
		arg.CreatedAt,
		arg.UpdatedAt,
	)
	return scanAnnouncement(row)
}

const getAnnouncementByID = `SELECT ` + announcementColumns + ` FROM announcements WHERE id = ?`

func (q *Queries) GetAnnouncementByID(ctx context.Context, id int64) (Announcement, error) {
	return scanAnnouncement(q.db.QueryRowContext(ctx, getAnnouncementByID, id))
}

const listAnnouncements = `SELECT ` + announcementColumns + ` FROM announcements
ORDER BY announcement_date DESC, id DESC LIMIT ? OFFSET ?`

type ListAnnouncementsParams struct {
	Limit  int64 `json:"limit"`
	Offset int64 `json:"offset"`
}

func (q *Queries) ListAnnouncements(ctx context.Context, arg ListAnnouncementsParams) ([]Announcement, error) {
	return q.queryAnnouncements(ctx, listAnnouncements, arg.Limit, arg.Offset)
}

const countAnnouncements = `SELECT COUNT(*) FROM announcements`

func (q *Queries) CountAnnouncements(ctx context.Context) (int64, error) {
	var count int64
	err := q.db.QueryRowContext(ctx, countAnnouncements).Scan(&count)
	return count, err
}

const listActiveAnnouncements = `SELECT ` + announcementColumns + ` FROM announcements
WHERE is_active = 1
ORDER BY announcement_date DESC, id DESC LIMIT ?`

func (q *Queries) ListActiveAnnouncements(ctx context.Context, limit int64) ([]Announcement, error) {
	return q.queryAnnouncements(ctx, listActiveAnnouncements, limit)
}

const updateAnnouncement = `UPDATE announcements SET title = ?, content = ?, announcement_date = ?, is_active = ?, updated_at = ?
WHERE id = ?
RETURNING ` + announcementColumns

type UpdateAnnouncementParams struct {
	Title            string    `json:"title"`
	Content          string    `json:"content"`
	AnnouncementDate string    `json:"announcement_date"`
	IsActive         bool      `json:"is_active"`
	UpdatedAt        time.Time `json:"updated_at"`
	ID               int64     `json:"id"`
}

func (q *Queries) UpdateAnnouncement(ctx context.Context, arg UpdateAnnouncementParams) (Announcement, error) {
	row := q.db.QueryRowContext(ctx, updateAnnouncement,
		arg.Title,
		arg.Content,
		arg.AnnouncementDate,
		arg.IsActive,
		arg.UpdatedAt,
		arg.ID,
	)
	return scanAnnouncement(row)
}

const toggleAnnouncementActive = `UPDATE announcements SET is_active = NOT is_active, updated_at = ? WHERE id = ?
RETURNING ` + announcementColumns

func (q *Queries) ToggleAnnouncementActive(ctx context.Context, updatedAt time.Time, id int64) (Announcement, error) {
	return scanAnnouncement(q.db.QueryRowContext(ctx, toggleAnnouncementActive, updatedAt, id))
}

const deleteAnnouncement = `DELETE FROM announcements WHERE id = ?`

func (q *Queries) DeleteAnnouncement(ctx context.Context, id int64) error {
	_, err := q.db.ExecContext(ctx, deleteAnnouncement, id)
	return err
}
