// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package legacy

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/go-sql-driver/mysql"
)

// Reader reads the previous site's MySQL database.
type Reader struct {
	db *sql.DB
}

// NewReader opens the MySQL database at dsn and checks the connection.
// Dates and timestamps are read as text, so parseTime is not required.
func NewReader(ctx context.Context, dsn string) (*Reader, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening legacy database: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("connecting to legacy database: %w", err)
	}

	return &Reader{db: db}, nil
}

// NewReaderFromDB wraps an already open database.
func NewReaderFromDB(db *sql.DB) *Reader {
	return &Reader{db: db}
}

// Close closes the database connection.
func (r *Reader) Close() error {
	return r.db.Close()
}

// ReadAll loads every table the importer needs.
func (r *Reader) ReadAll(ctx context.Context) (*Snapshot, error) {
	var (
		s   Snapshot
		err error
	)
	if s.Admins, err = r.Admins(ctx); err != nil {
		return nil, err
	}
	if s.Sermons, err = r.Sermons(ctx); err != nil {
		return nil, err
	}
	if s.Events, err = r.Events(ctx); err != nil {
		return nil, err
	}
	if s.Announcements, err = r.Announcements(ctx); err != nil {
		return nil, err
	}
	if s.Posts, err = r.Posts(ctx); err != nil {
		return nil, err
	}
	if s.Campaigns, err = r.Campaigns(ctx); err != nil {
		return nil, err
	}
	if s.Donations, err = r.Donations(ctx); err != nil {
		return nil, err
	}
	if s.Settings, err = r.Settings(ctx); err != nil {
		return nil, err
	}
	return &s, nil
}

// queryAll runs query and scans every row with scan.
func queryAll[T any](ctx context.Context, db *sql.DB, table, query string, scan func(*sql.Rows) (T, error)) ([]T, error) {
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", table, err)
	}
	defer func() { _ = rows.Close() }()

	var out []T
	for rows.Next() {
		item, err := scan(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan %s row: %w", table, err)
		}
		out = append(out, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating %s: %w", table, err)
	}
	return out, nil
}

// Admins returns all admin accounts.
func (r *Reader) Admins(ctx context.Context) ([]Admin, error) {
	const q = `SELECT id, username, password, email, full_name, role, is_active, last_login, created_at
FROM admins ORDER BY id`
	return queryAll(ctx, r.db, "admins", q, func(rows *sql.Rows) (Admin, error) {
		var a Admin
		err := rows.Scan(&a.ID, &a.Username, &a.Password, &a.Email, &a.FullName, &a.Role,
			&a.IsActive, &a.LastLogin, &a.CreatedAt)
		return a, err
	})
}

// Sermons returns all sermons.
func (r *Reader) Sermons(ctx context.Context) ([]Sermon, error) {
	const q = `SELECT id, title, preacher, sermon_date, scripture, description, video_url, audio_url, image,
    is_featured, created_at
FROM sermons ORDER BY id`
	return queryAll(ctx, r.db, "sermons", q, func(rows *sql.Rows) (Sermon, error) {
		var s Sermon
		err := rows.Scan(&s.ID, &s.Title, &s.Preacher, &s.SermonDate, &s.Scripture, &s.Description,
			&s.VideoURL, &s.AudioURL, &s.Image, &s.IsFeatured, &s.CreatedAt)
		return s, err
	})
}

// Events returns all events.
func (r *Reader) Events(ctx context.Context) ([]Event, error) {
	const q = `SELECT id, title, event_date, end_date, start_time, end_time, location, description, image,
    registration_url, contact_name, contact_email, contact_phone, is_featured, created_at
FROM events ORDER BY id`
	return queryAll(ctx, r.db, "events", q, func(rows *sql.Rows) (Event, error) {
		var e Event
		err := rows.Scan(&e.ID, &e.Title, &e.EventDate, &e.EndDate, &e.StartTime, &e.EndTime, &e.Location,
			&e.Description, &e.Image, &e.RegistrationURL, &e.ContactName, &e.ContactEmail, &e.ContactPhone,
			&e.IsFeatured, &e.CreatedAt)
		return e, err
	})
}

// Announcements returns all announcements.
func (r *Reader) Announcements(ctx context.Context) ([]Announcement, error) {
	const q = `SELECT id, title, content, announcement_date, is_active, created_at
FROM announcements ORDER BY id`
	return queryAll(ctx, r.db, "announcements", q, func(rows *sql.Rows) (Announcement, error) {
		var a Announcement
		err := rows.Scan(&a.ID, &a.Title, &a.Content, &a.AnnouncementDate, &a.IsActive, &a.CreatedAt)
		return a, err
	})
}

// Posts returns all posts.
func (r *Reader) Posts(ctx context.Context) ([]Post, error) {
	const q = `SELECT id, title, slug, content, excerpt, image, author_id, status, show_on_homepage,
    target_pages, published_at, created_at
FROM posts ORDER BY id`
	return queryAll(ctx, r.db, "posts", q, func(rows *sql.Rows) (Post, error) {
		var p Post
		err := rows.Scan(&p.ID, &p.Title, &p.Slug, &p.Content, &p.Excerpt, &p.Image, &p.AuthorID, &p.Status,
			&p.ShowOnHomepage, &p.TargetPages, &p.PublishedAt, &p.CreatedAt)
		return p, err
	})
}

// Campaigns returns all donation campaigns.
func (r *Reader) Campaigns(ctx context.Context) ([]Campaign, error) {
	const q = `SELECT id, title, slug, short_description, description, goal_amount, min_donation,
    suggested_amounts, is_active, is_featured, show_progress, show_donor_count, start_date, end_date,
    image, created_at
FROM donation_campaigns ORDER BY id`
	return queryAll(ctx, r.db, "donation_campaigns", q, func(rows *sql.Rows) (Campaign, error) {
		var c Campaign
		err := rows.Scan(&c.ID, &c.Title, &c.Slug, &c.ShortDescription, &c.Description, &c.GoalAmount,
			&c.MinDonation, &c.SuggestedAmounts, &c.IsActive, &c.IsFeatured, &c.ShowProgress,
			&c.ShowDonorCount, &c.StartDate, &c.EndDate, &c.Image, &c.CreatedAt)
		return c, err
	})
}

// Donations returns all donations, oldest first.
func (r *Reader) Donations(ctx context.Context) ([]Donation, error) {
	const q = `SELECT id, donor_name, donor_email, amount, donation_type, payment_method, message,
    is_anonymous, campaign_id, created_at
FROM donations ORDER BY id`
	return queryAll(ctx, r.db, "donations", q, func(rows *sql.Rows) (Donation, error) {
		var d Donation
		err := rows.Scan(&d.ID, &d.DonorName, &d.DonorEmail, &d.Amount, &d.DonationType, &d.PaymentMethod,
			&d.Message, &d.IsAnonymous, &d.CampaignID, &d.CreatedAt)
		return d, err
	})
}

// Settings returns the key/value site settings.
func (r *Reader) Settings(ctx context.Context) ([]Setting, error) {
	const q = `SELECT setting_key, setting_value FROM site_settings ORDER BY setting_key`
	return queryAll(ctx, r.db, "site_settings", q, func(rows *sql.Rows) (Setting, error) {
		var s Setting
		err := rows.Scan(&s.Key, &s.Value)
		return s, err
	})
}
