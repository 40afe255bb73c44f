// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"database/sql"
	"time"
)

type Admin struct {
	ID           int64        `json:"id"`
	Username     string       `json:"username"`
	PasswordHash string       `json:"password_hash"`
	Email        string       `json:"email"`
	FullName     string       `json:"full_name"`
	Role         string       `json:"role"`
	IsActive     bool         `json:"is_active"`
	LastLoginAt  sql.NullTime `json:"last_login_at"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
}

type Sermon struct {
	ID          int64     `json:"id"`
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

type Event struct {
	ID              int64     `json:"id"`
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

type Announcement struct {
	ID               int64     `json:"id"`
	Title            string    `json:"title"`
	Content          string    `json:"content"`
	AnnouncementDate string    `json:"announcement_date"`
	IsActive         bool      `json:"is_active"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

type Post struct {
	ID             int64         `json:"id"`
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

type Campaign struct {
	ID               int64         `json:"id"`
	Title            string        `json:"title"`
	Slug             string        `json:"slug"`
	ShortDescription string        `json:"short_description"`
	Description      string        `json:"description"`
	GoalCents        sql.NullInt64 `json:"goal_cents"`
	CurrentCents     int64         `json:"current_cents"`
	MinDonationCents int64         `json:"min_donation_cents"`
	SuggestedAmounts string        `json:"suggested_amounts"`
	IsActive         bool          `json:"is_active"`
	IsFeatured       bool          `json:"is_featured"`
	ShowProgress     bool          `json:"show_progress"`
	ShowDonorCount   bool          `json:"show_donor_count"`
	StartDate        string        `json:"start_date"`
	EndDate          string        `json:"end_date"`
	ImagePath        string        `json:"image_path"`
	CreatedAt        time.Time     `json:"created_at"`
	UpdatedAt        time.Time     `json:"updated_at"`
}

type Donation struct {
	ID            int64         `json:"id"`
	DonorName     string        `json:"donor_name"`
	DonorEmail    string        `json:"donor_email"`
	AmountCents   int64         `json:"amount_cents"`
	DonationType  string        `json:"donation_type"`
	PaymentMethod string        `json:"payment_method"`
	Source        string        `json:"source"`
	Message       string        `json:"message"`
	IsAnonymous   bool          `json:"is_anonymous"`
	CampaignID    sql.NullInt64 `json:"campaign_id"`
	RecordedBy    sql.NullInt64 `json:"recorded_by"`
	CreatedAt     time.Time     `json:"created_at"`
}

type Setting struct {
	Key       string    `json:"key"`
	Value     string    `json:"value"`
	UpdatedAt time.Time `json:"updated_at"`
}

type PasswordReset struct {
	ID        string        `json:"id"`
	AdminID   sql.NullInt64 `json:"admin_id"`
	Email     string        `json:"email"`
	CodeHash  string        `json:"code_hash"`
	State     string        `json:"state"`
	Attempts  int64         `json:"attempts"`
	ExpiresAt time.Time     `json:"expires_at"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}

type ContactMessage struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	Subject   string    `json:"subject"`
	Message   string    `json:"message"`
	IpAddress string    `json:"ip_address"`
	IsRead    bool      `json:"is_read"`
	CreatedAt time.Time `json:"created_at"`
}

type Activity struct {
	ID        int64         `json:"id"`
	Level     string        `json:"level"`
	Category  string        `json:"category"`
	Message   string        `json:"message"`
	AdminID   sql.NullInt64 `json:"admin_id"`
	Metadata  string        `json:"metadata"`
	CreatedAt time.Time     `json:"created_at"`
}
