// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"time"
)

const donationColumns = `id, donor_name, donor_email, amount_cents, donation_type, payment_method, source, message,
    is_anonymous, campaign_id, recorded_by, created_at`

func scanDonation(row rowScanner) (Donation, error) {
	var i Donation
	err := row.Scan(
		&i.ID,
		&i.DonorName,
		&i.DonorEmail,
		&i.AmountCents,
		&i.DonationType,
		&i.PaymentMethod,
		&i.Source,
		&i.Message,
		&i.IsAnonymous,
		&i.CampaignID,
		&i.RecordedBy,
		&i.CreatedAt,
	)
	return i, err
}

const createDonation = `INSERT INTO donations (donor_name, donor_email, amount_cents, donation_type, payment_method, source,
    message, is_anonymous, campaign_id, recorded_by, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
RETURNING ` + donationColumns

type CreateDonationParams struct {
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

func (q *Queries) CreateDonation(ctx context.Context, arg CreateDonationParams) (Donation, error) {
	row := q.db.QueryRowContext(ctx, createDonation,
		arg.DonorName,
		arg.DonorEmail,
		arg.AmountCents,
		arg.DonationType,
		arg.PaymentMethod,
		arg.Source,
		arg.Message,
		arg.IsAnonymous,
		arg.CampaignID,
		arg.RecordedBy,
		arg.CreatedAt,
	)
	return scanDonation(row)
}

const getDonationByID = `SELECT ` + donationColumns + ` FROM donations WHERE id = ?`

func (q *Queries) GetDonationByID(ctx context.Context, id int64) (Donation, error) {
	return scanDonation(q.db.QueryRowContext(ctx, getDonationByID, id))
}

// Campaign filter values for donation listings.
const (
	DonationFilterAll        int64 = 0
	DonationFilterUnassigned int64 = -1
)

const donationFilterWhere = `WHERE (?1 = 0 OR (?1 = -1 AND d.campaign_id IS NULL) OR d.campaign_id = ?1)`

// DonationRow is a donation joined with its campaign title.
type DonationRow struct {
	Donation
	CampaignTitle sql.NullString `json:"campaign_title"`
}

const listDonations = `SELECT d.id, d.donor_name, d.donor_email, d.amount_cents, d.donation_type, d.payment_method, d.source,
    d.message, d.is_anonymous, d.campaign_id, d.recorded_by, d.created_at, c.title
FROM donations d
LEFT JOIN campaigns c ON c.id = d.campaign_id
` + donationFilterWhere + `
ORDER BY d.created_at DESC, d.id DESC LIMIT ?2 OFFSET ?3`

type ListDonationsParams struct {
	CampaignFilter int64 `json:"campaign_filter"`
	Limit          int64 `json:"limit"`
	Offset         int64 `json:"offset"`
}

func (q *Queries) ListDonations(ctx context.Context, arg ListDonationsParams) ([]DonationRow, error) {
	rows, err := q.db.QueryContext(ctx, listDonations, arg.CampaignFilter, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var items []DonationRow
	for rows.Next() {
		var i DonationRow
		if err := rows.Scan(
			&i.ID,
			&i.DonorName,
			&i.DonorEmail,
			&i.AmountCents,
			&i.DonationType,
			&i.PaymentMethod,
			&i.Source,
			&i.Message,
			&i.IsAnonymous,
			&i.CampaignID,
			&i.RecordedBy,
			&i.CreatedAt,
			&i.CampaignTitle,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const summarizeDonations = `SELECT COUNT(*), COALESCE(SUM(d.amount_cents), 0) FROM donations d ` + donationFilterWhere

// DonationSummary holds the count and total of a filtered donation set.
type DonationSummary struct {
	Count      int64 `json:"count"`
	TotalCents int64 `json:"total_cents"`
}

func (q *Queries) SummarizeDonations(ctx context.Context, campaignFilter int64) (DonationSummary, error) {
	var s DonationSummary
	err := q.db.QueryRowContext(ctx, summarizeDonations, campaignFilter).Scan(&s.Count, &s.TotalCents)
	return s, err
}

const countDonationsByCampaign = `SELECT COUNT(*) FROM donations WHERE campaign_id = ?`

func (q *Queries) CountDonationsByCampaign(ctx context.Context, campaignID int64) (int64, error) {
	var count int64
	err := q.db.QueryRowContext(ctx, countDonationsByCampaign, campaignID).Scan(&count)
	return count, err
}

const sumDonationsByCampaign = `SELECT COALESCE(SUM(amount_cents), 0) FROM donations WHERE campaign_id = ?`

func (q *Queries) SumDonationsByCampaign(ctx context.Context, campaignID int64) (int64, error) {
	var sum int64
	err := q.db.QueryRowContext(ctx, sumDonationsByCampaign, campaignID).Scan(&sum)
	return sum, err
}

const updateDonationCampaign = `UPDATE donations SET campaign_id = ? WHERE id = ?`

func (q *Queries) UpdateDonationCampaign(ctx context.Context, campaignID sql.NullInt64, id int64) error {
	_, err := q.db.ExecContext(ctx, updateDonationCampaign, campaignID, id)
	return err
}

const deleteDonation = `DELETE FROM donations WHERE id = ?`

func (q *Queries) DeleteDonation(ctx context.Context, id int64) error {
	_, err := q.db.ExecContext(ctx, deleteDonation, id)
	return err
}
