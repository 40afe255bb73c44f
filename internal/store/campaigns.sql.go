// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"time"
)

const campaignColumns = `id, title, slug, short_description, description, goal_cents, current_cents, min_donation_cents,
    suggested_amounts, is_active, is_featured, show_progress, show_donor_count, start_date, end_date, image_path,
    created_at, updated_at`

func scanCampaign(row rowScanner) (Campaign, error) {
	var i Campaign
	err := row.Scan(
		&i.ID,
		&i.Title,
		&i.Slug,
		&i.ShortDescription,
		&i.Description,
		&i.GoalCents,
		&i.CurrentCents,
		&i.MinDonationCents,
		&i.SuggestedAmounts,
		&i.IsActive,
		&i.IsFeatured,
		&i.ShowProgress,
		&i.ShowDonorCount,
		&i.StartDate,
		&i.EndDate,
		&i.ImagePath,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

func (q *Queries) queryCampaigns(ctx context.Context, query string, args ...interface{}) ([]Campaign, error) {
	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var items []Campaign
	for rows.Next() {
		i, err := scanCampaign(rows)
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

const createCampaign = `INSERT INTO campaigns (title, slug, short_description, description, goal_cents, min_donation_cents,
    suggested_amounts, is_active, is_featured, show_progress, show_donor_count, start_date, end_date, image_path,
    created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
RETURNING ` + campaignColumns

type CreateCampaignParams struct {
	Title            string        `json:"title"`
	Slug             string        `json:"slug"`
	ShortDescription string        `json:"short_description"`
	Description      string        `json:"description"`
	GoalCents        sql.NullInt64 `json:"goal_cents"`
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

func (q *Queries) CreateCampaign(ctx context.Context, arg CreateCampaignParams) (Campaign, error) {
	row := q.db.QueryRowContext(ctx, createCampaign,
		arg.Title,
		arg.Slug,
		arg.ShortDescription,
		arg.Description,
		arg.GoalCents,
		arg.MinDonationCents,
		arg.SuggestedAmounts,
		arg.IsActive,
		arg.IsFeatured,
		arg.ShowProgress,
		arg.ShowDonorCount,
		arg.StartDate,
		arg.EndDate,
		arg.ImagePath,
		arg.CreatedAt,
		arg.UpdatedAt,
	)
	return scanCampaign(row)
}

const getCampaignByID = `SELECT ` + campaignColumns + ` FROM campaigns WHERE id = ?`

func (q *Queries) GetCampaignByID(ctx context.Context, id int64) (Campaign, error) {
	return scanCampaign(q.db.QueryRowContext(ctx, getCampaignByID, id))
}

const getCampaignBySlug = `SELECT ` + campaignColumns + ` FROM campaigns WHERE slug = ?`

func (q *Queries) GetCampaignBySlug(ctx context.Context, slug string) (Campaign, error) {
	return scanCampaign(q.db.QueryRowContext(ctx, getCampaignBySlug, slug))
}

const campaignSlugExists = `SELECT EXISTS(SELECT 1 FROM campaigns WHERE slug = ? AND id != ?)`

// CampaignSlugExists reports whether a campaign other than excludeID uses slug.
func (q *Queries) CampaignSlugExists(ctx context.Context, slug string, excludeID int64) (bool, error) {
	var exists bool
	err := q.db.QueryRowContext(ctx, campaignSlugExists, slug, excludeID).Scan(&exists)
	return exists, err
}

const listCampaigns = `SELECT ` + campaignColumns + ` FROM campaigns
ORDER BY is_active DESC, created_at DESC, id DESC LIMIT ? OFFSET ?`

type ListCampaignsParams struct {
	Limit  int64 `json:"limit"`
	Offset int64 `json:"offset"`
}

func (q *Queries) ListCampaigns(ctx context.Context, arg ListCampaignsParams) ([]Campaign, error) {
	return q.queryCampaigns(ctx, listCampaigns, arg.Limit, arg.Offset)
}

const listAllCampaigns = `SELECT ` + campaignColumns + ` FROM campaigns ORDER BY title`

// ListAllCampaigns returns every campaign, for select menus.
func (q *Queries) ListAllCampaigns(ctx context.Context) ([]Campaign, error) {
	return q.queryCampaigns(ctx, listAllCampaigns)
}

const countCampaigns = `SELECT COUNT(*) FROM campaigns`

func (q *Queries) CountCampaigns(ctx context.Context) (int64, error) {
	var count int64
	err := q.db.QueryRowContext(ctx, countCampaigns).Scan(&count)
	return count, err
}

// A campaign is visible while active and inside its optional date window.
const visibleCampaignWhere = `is_active = 1
  AND (start_date = '' OR start_date <= ?1)
  AND (end_date = '' OR end_date >= ?1)`

const listVisibleCampaigns = `SELECT ` + campaignColumns + ` FROM campaigns
WHERE ` + visibleCampaignWhere + `
ORDER BY is_featured DESC, created_at DESC, id DESC`

func (q *Queries) ListVisibleCampaigns(ctx context.Context, today string) ([]Campaign, error) {
	return q.queryCampaigns(ctx, listVisibleCampaigns, today)
}

const listFeaturedCampaigns = `SELECT ` + campaignColumns + ` FROM campaigns
WHERE ` + visibleCampaignWhere + ` AND is_featured = 1
ORDER BY created_at DESC, id DESC LIMIT ?2`

func (q *Queries) ListFeaturedCampaigns(ctx context.Context, today string, limit int64) ([]Campaign, error) {
	return q.queryCampaigns(ctx, listFeaturedCampaigns, today, limit)
}

const getVisibleCampaignBySlug = `SELECT ` + campaignColumns + ` FROM campaigns
WHERE ` + visibleCampaignWhere + ` AND slug = ?2`

func (q *Queries) GetVisibleCampaignBySlug(ctx context.Context, today, slug string) (Campaign, error) {
	return scanCampaign(q.db.QueryRowContext(ctx, getVisibleCampaignBySlug, today, slug))
}

const updateCampaign = `UPDATE campaigns SET title = ?, slug = ?, short_description = ?, description = ?, goal_cents = ?,
    min_donation_cents = ?, suggested_amounts = ?, is_active = ?, is_featured = ?, show_progress = ?,
    show_donor_count = ?, start_date = ?, end_date = ?, image_path = ?, updated_at = ?
WHERE id = ?
RETURNING ` + campaignColumns

// UpdateCampaignParams omits current_cents; the ledger owns that column.
type UpdateCampaignParams struct {
	Title            string        `json:"title"`
	Slug             string        `json:"slug"`
	ShortDescription string        `json:"short_description"`
	Description      string        `json:"description"`
	GoalCents        sql.NullInt64 `json:"goal_cents"`
	MinDonationCents int64         `json:"min_donation_cents"`
	SuggestedAmounts string        `json:"suggested_amounts"`
	IsActive         bool          `json:"is_active"`
	IsFeatured       bool          `json:"is_featured"`
	ShowProgress     bool          `json:"show_progress"`
	ShowDonorCount   bool          `json:"show_donor_count"`
	StartDate        string        `json:"start_date"`
	EndDate          string        `json:"end_date"`
	ImagePath        string        `json:"image_path"`
	UpdatedAt        time.Time     `json:"updated_at"`
	ID               int64         `json:"id"`
}

func (q *Queries) UpdateCampaign(ctx context.Context, arg UpdateCampaignParams) (Campaign, error) {
	row := q.db.QueryRowContext(ctx, updateCampaign,
		arg.Title,
		arg.Slug,
		arg.ShortDescription,
		arg.Description,
		arg.GoalCents,
		arg.MinDonationCents,
		arg.SuggestedAmounts,
		arg.IsActive,
		arg.IsFeatured,
		arg.ShowProgress,
		arg.ShowDonorCount,
		arg.StartDate,
		arg.EndDate,
		arg.ImagePath,
		arg.UpdatedAt,
		arg.ID,
	)
	return scanCampaign(row)
}

const toggleCampaignActive = `UPDATE campaigns SET is_active = NOT is_active, updated_at = ? WHERE id = ?
RETURNING ` + campaignColumns

func (q *Queries) ToggleCampaignActive(ctx context.Context, updatedAt time.Time, id int64) (Campaign, error) {
	return scanCampaign(q.db.QueryRowContext(ctx, toggleCampaignActive, updatedAt, id))
}

const toggleCampaignFeatured = `UPDATE campaigns SET is_featured = NOT is_featured, updated_at = ? WHERE id = ?
RETURNING ` + campaignColumns

func (q *Queries) ToggleCampaignFeatured(ctx context.Context, updatedAt time.Time, id int64) (Campaign, error) {
	return scanCampaign(q.db.QueryRowContext(ctx, toggleCampaignFeatured, updatedAt, id))
}

const adjustCampaignTotal = `UPDATE campaigns SET current_cents = current_cents + ?, updated_at = ? WHERE id = ?`

// AdjustCampaignTotal atomically adds delta (which may be negative) to the running total.
// It reports whether a campaign row was updated.
func (q *Queries) AdjustCampaignTotal(ctx context.Context, delta int64, updatedAt time.Time, id int64) (bool, error) {
	result, err := q.db.ExecContext(ctx, adjustCampaignTotal, delta, updatedAt, id)
	if err != nil {
		return false, err
	}
	n, err := result.RowsAffected()
	return n == 1, err
}

const recalculateCampaignTotal = `UPDATE campaigns SET
    current_cents = (SELECT COALESCE(SUM(amount_cents), 0) FROM donations WHERE campaign_id = campaigns.id),
    updated_at = ?
WHERE id = ?
RETURNING ` + campaignColumns

// RecalculateCampaignTotal rebuilds current_cents from the donations table.
func (q *Queries) RecalculateCampaignTotal(ctx context.Context, updatedAt time.Time, id int64) (Campaign, error) {
	return scanCampaign(q.db.QueryRowContext(ctx, recalculateCampaignTotal, updatedAt, id))
}

const deleteCampaign = `DELETE FROM campaigns WHERE id = ?`

func (q *Queries) DeleteCampaign(ctx context.Context, id int64) error {
	_, err := q.db.ExecContext(ctx, deleteCampaign, id)
	return err
}
