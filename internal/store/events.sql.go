// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"time"
)

const eventColumns = `id, title, event_date, end_date, start_time, end_time, location, description, image_path,
    registration_url, contact_name, contact_email, contact_phone, is_featured, created_at, updated_at`

func scanEvent(row rowScanner) (Event, error) {
	var i Event
	err := row.Scan(
		&i.ID,
		&i.Title,
		&i.EventDate,
		&i.EndDate,
		&i.StartTime,
		&i.EndTime,
		&i.Location,
		&i.Description,
		&i.ImagePath,
		&i.RegistrationUrl,
		&i.ContactName,
		&i.ContactEmail,
		&i.ContactPhone,
		&i.IsFeatured,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

func (q *Queries) queryEvents(ctx context.Context, query string, args ...interface{}) ([]Event, error) {
	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var items []Event
	for rows.Next() {
		i, err := scanEvent(rows)
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

const createEvent = `INSERT INTO events (title, event_date, end_date, start_time, end_time, location, description, image_path,
    registration_url, contact_name, contact_email, contact_phone, is_featured, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
RETURNING ` + eventColumns

type CreateEventParams struct {
	Title           string    `json:"title"`
	EventDate       string    `json:"event_date"`
	EndDate         string    `json:"end_date"`
	StartTime       string    `json:"start_time"`
	EndTime         string    `json:"end_time"`
	Location        string    `json:"location"`
	Description     string    `json:"description"`
	ImagePath       string    `json:"image_path"`
	RegistrationUrl string    `json:"registration_url"`
	ContactName     string    `json:"contact_name"`
	ContactEmail    string    `json:"contact_email"`
	ContactPhone    string    `json:"contact_phone"`
	IsFeatured      bool      `json:"is_featured"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

func (q *Queries) CreateEvent(ctx context.Context, arg CreateEventParams) (Event, error) {
	row := q.db.QueryRowContext(ctx, createEvent,
		arg.Title,
		arg.EventDate,
		arg.EndDate,
		arg.StartTime,
		arg.EndTime,
		arg.Location,
		arg.Description,
		arg.ImagePath,
		arg.RegistrationUrl,
		arg.ContactName,
		arg.ContactEmail,
		arg.ContactPhone,
		arg.IsFeatured,
		arg.CreatedAt,
		arg.UpdatedAt,
	)
	return scanEvent(row)
}

const getEventByID = `SELECT ` + eventColumns + ` FROM events WHERE id = ?`

func (q *Queries) GetEventByID(ctx context.Context, id int64) (Event, error) {
	return scanEvent(q.db.QueryRowContext(ctx, getEventByID, id))
}

const listEvents = `SELECT ` + eventColumns + ` FROM events ORDER BY event_date DESC, start_time DESC, id DESC LIMIT ? OFFSET ?`

type ListEventsParams struct {
	Limit  int64 `json:"limit"`
	Offset int64 `json:"offset"`
}

func (q *Queries) ListEvents(ctx context.Context, arg ListEventsParams) ([]Event, error) {
	return q.queryEvents(ctx, listEvents, arg.Limit, arg.Offset)
}

const countEvents = `SELECT COUNT(*) FROM events`

func (q *Queries) CountEvents(ctx context.Context) (int64, error) {
	var count int64
	err := q.db.QueryRowContext(ctx, countEvents).Scan(&count)
	return count, err
}

// An event stays upcoming until its last day has passed.
const upcomingEventsWhere = `WHERE event_date >= ?1 OR (end_date != '' AND end_date >= ?1)`

const listUpcomingEvents = `SELECT ` + eventColumns + ` FROM events ` + upcomingEventsWhere + `
ORDER BY event_date ASC, start_time ASC, id ASC LIMIT ?2 OFFSET ?3`

type ListUpcomingEventsParams struct {
	Today  string `json:"today"`
	Limit  int64  `json:"limit"`
	Offset int64  `json:"offset"`
}

func (q *Queries) ListUpcomingEvents(ctx context.Context, arg ListUpcomingEventsParams) ([]Event, error) {
	return q.queryEvents(ctx, listUpcomingEvents, arg.Today, arg.Limit, arg.Offset)
}

const countUpcomingEvents = `SELECT COUNT(*) FROM events ` + upcomingEventsWhere

func (q *Queries) CountUpcomingEvents(ctx context.Context, today string) (int64, error) {
	var count int64
	err := q.db.QueryRowContext(ctx, countUpcomingEvents, today).Scan(&count)
	return count, err
}

const updateEvent = `UPDATE events SET title = ?, event_date = ?, end_date = ?, start_time = ?, end_time = ?, location = ?,
    description = ?, image_path = ?, registration_url = ?, contact_name = ?, contact_email = ?, contact_phone = ?,
    is_featured = ?, updated_at = ?
WHERE id = ?
RETURNING ` + eventColumns

type UpdateEventParams struct {
	Title           string    `json:"title"`
	EventDate       string    `json:"event_date"`
	EndDate         string    `json:"end_date"`
	StartTime       string    `json:"start_time"`
	EndTime         string    `json:"end_time"`
	Location        string    `json:"location"`
	Description     string    `json:"description"`
	ImagePath       string    `json:"image_path"`
	RegistrationUrl string    `json:"registration_url"`
	ContactName     string    `json:"contact_name"`
	ContactEmail    string    `json:"contact_email"`
	ContactPhone    string    `json:"contact_phone"`
	IsFeatured      bool      `json:"is_featured"`
	UpdatedAt       time.Time `json:"updated_at"`
	ID              int64     `json:"id"`
}

func (q *Queries) UpdateEvent(ctx context.Context, arg UpdateEventParams) (Event, error) {
	row := q.db.QueryRowContext(ctx, updateEvent,
		arg.Title,
		arg.EventDate,
		arg.EndDate,
		arg.StartTime,
		arg.EndTime,
		arg.Location,
		arg.Description,
		arg.ImagePath,
		arg.RegistrationUrl,
		arg.ContactName,
		arg.ContactEmail,
		arg.ContactPhone,
		arg.IsFeatured,
		arg.UpdatedAt,
		arg.ID,
	)
	return scanEvent(row)
}

const toggleEventFeatured = `UPDATE events SET is_featured = NOT is_featured, updated_at = ? WHERE id = ?
RETURNING ` + eventColumns

func (q *Queries) ToggleEventFeatured(ctx context.Context, updatedAt time.Time, id int64) (Event, error) {
	return scanEvent(q.db.QueryRowContext(ctx, toggleEventFeatured, updatedAt, id))
}

const deleteEvent = `DELETE FROM events WHERE id = ?`

func (q *Queries) DeleteEvent(ctx context.Context, id int64) error {
	_, err := q.db.ExecContext(ctx, deleteEvent, id)
	return err
}
