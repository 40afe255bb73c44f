// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package legacy

import "database/sql"

// Admin is a row of the previous site's admins table.
type Admin struct {
	ID        int64
	Username  string
	Password  sql.NullString // bcrypt hash
	Email     sql.NullString
	FullName  sql.NullString
	Role      sql.NullString
	IsActive  bool
	LastLogin sql.NullString
	CreatedAt sql.NullString
}

// Sermon is a row of the sermons table.
type Sermon struct {
	ID          int64
	Title       string
	Preacher    sql.NullString
	SermonDate  sql.NullString
	Scripture   sql.NullString
	Description sql.NullString
	VideoURL    sql.NullString
	AudioURL    sql.NullString
	Image       sql.NullString
	IsFeatured  bool
	CreatedAt   sql.NullString
}

// Event is a row of the events table. Times are MySQL TIME values ("19:30:00").
type Event struct {
	ID              int64
	Title           string
	EventDate       sql.NullString
	EndDate         sql.NullString
	StartTime       sql.NullString
	EndTime         sql.NullString
	Location        sql.NullString
	Description     sql.NullString
	Image           sql.NullString
	RegistrationURL sql.NullString
	ContactName     sql.NullString
	ContactEmail    sql.NullString
	ContactPhone    sql.NullString
	IsFeatured      bool
	CreatedAt       sql.NullString
}

// Announcement is a row of the announcements table.
type Announcement struct {
	ID               int64
	Title            string
	Content          sql.NullString
	AnnouncementDate sql.NullString
	IsActive         bool
	CreatedAt        sql.NullString
}

// Post is a row of the posts table. TargetPages is either a JSON array or a
// comma separated list depending on the site version.
type Post struct {
	ID             int64
	Title          string
	Slug           sql.NullString
	Content        sql.NullString
	Excerpt        sql.NullString
	Image          sql.NullString
	AuthorID       sql.NullInt64
	Status         sql.NullString
	ShowOnHomepage bool
	TargetPages    sql.NullString
	PublishedAt    sql.NullString
	CreatedAt      sql.NullString
}

// Campaign is a row of the donation_campaigns table. Amounts are DECIMAL
// columns read as text.
type Campaign struct {
	ID               int64
	Title            string
	Slug             sql.NullString
	ShortDescription sql.NullString
	Description      sql.NullString
	GoalAmount       sql.NullString
	MinDonation      sql.NullString
	SuggestedAmounts sql.NullString
	IsActive         bool
	IsFeatured       bool
	ShowProgress     bool
	ShowDonorCount   bool
	StartDate        sql.NullString
	EndDate          sql.NullString
	Image            sql.NullString
	CreatedAt        sql.NullString
}

// Donation is a row of the donations table.
type Donation struct {
	ID            int64
	DonorName     sql.NullString
	DonorEmail    sql.NullString
	Amount        string
	DonationType  sql.NullString
	PaymentMethod sql.NullString
	Message       sql.NullString
	IsAnonymous   bool
	CampaignID    sql.NullInt64
	CreatedAt     sql.NullString
}

// Setting is a row of the site_settings key/value table.
type Setting struct {
	Key   string
	Value sql.NullString
}

// Snapshot holds everything read from the previous database.
type Snapshot struct {
	Admins        []Admin
	Sermons       []Sermon
	Events        []Event
	Announcements []Announcement
	Posts         []Post
	Campaigns     []Campaign
	Donations     []Donation
	Settings      []Setting
}
