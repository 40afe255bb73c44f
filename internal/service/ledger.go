// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/olegiv/ochurch/internal/model"
	"github.com/olegiv/ochurch/internal/store"
	"github.com/olegiv/ochurch/internal/util"
)

// Ledger errors.
var (
	ErrCampaignHasDonations = errors.New("campaign has donations")
	ErrCampaignNotFound     = errors.New("campaign not found")
	ErrCampaignClosed       = errors.New("campaign is not accepting donations")
	ErrDonationNotFound     = errors.New("donation not found")
	ErrBelowMinimum         = errors.New("amount is below the campaign minimum")
	ErrInvalidAmount        = errors.New("amount must be greater than zero")
)

// DonationInput is a validated donation ready to be recorded.
type DonationInput struct {
	DonorName     string
	DonorEmail    string
	AmountCents   int64
	DonationType  string
	PaymentMethod string
	Source        string
	Message       string
	IsAnonymous   bool
	CampaignID    sql.NullInt64
	RecordedBy    sql.NullInt64
}

// Ledger keeps each campaign's running total equal to the sum of the
// donations assigned to it. Every operation runs in one transaction and
// moves money with relative SQL increments.
type Ledger struct {
	db       *sql.DB
	location *time.Location
}

// NewLedger creates a ledger over db. Campaign date windows are evaluated in loc.
func NewLedger(db *sql.DB, loc *time.Location) *Ledger {
	if loc == nil {
		loc = time.Local
	}
	return &Ledger{db: db, location: loc}
}

// Record inserts a donation and credits its campaign.
// Online donations additionally require the campaign to be publicly visible.
func (l *Ledger) Record(ctx context.Context, in DonationInput) (store.Donation, error) {
	if in.AmountCents <= 0 {
		return store.Donation{}, ErrInvalidAmount
	}

	var donation store.Donation
	err := store.ExecTx(ctx, l.db, func(q *store.Queries) error {
		if in.CampaignID.Valid {
			campaign, err := l.campaign(ctx, q, in.CampaignID.Int64)
			if err != nil {
				return err
			}
			if in.Source == model.DonationSourceOnline && !IsCampaignOpen(campaign, util.Today(l.location)) {
				return ErrCampaignClosed
			}
			if in.AmountCents < campaign.MinDonationCents {
				return ErrBelowMinimum
			}
		}

		var err error
		donation, err = q.CreateDonation(ctx, store.CreateDonationParams{
			DonorName:     in.DonorName,
			DonorEmail:    in.DonorEmail,
			AmountCents:   in.AmountCents,
			DonationType:  in.DonationType,
			PaymentMethod: in.PaymentMethod,
			Source:        in.Source,
			Message:       in.Message,
			IsAnonymous:   in.IsAnonymous,
			CampaignID:    in.CampaignID,
			RecordedBy:    in.RecordedBy,
			CreatedAt:     util.Now(),
		})
		if err != nil {
			return fmt.Errorf("inserting donation: %w", err)
		}

		if in.CampaignID.Valid {
			return adjust(ctx, q, in.CampaignID.Int64, in.AmountCents)
		}
		return nil
	})
	return donation, err
}

// Reassign moves a donation to another campaign, or to none. Reassigning to
// the current campaign changes nothing.
func (l *Ledger) Reassign(ctx context.Context, donationID int64, campaignID sql.NullInt64) (store.Donation, error) {
	var donation store.Donation
	err := store.ExecTx(ctx, l.db, func(q *store.Queries) error {
		var err error
		donation, err = l.donation(ctx, q, donationID)
		if err != nil {
			return err
		}

		if sameCampaign(donation.CampaignID, campaignID) {
			return nil
		}

		if campaignID.Valid {
			if _, err := l.campaign(ctx, q, campaignID.Int64); err != nil {
				return err
			}
		}

		if donation.CampaignID.Valid {
			if err := adjust(ctx, q, donation.CampaignID.Int64, -donation.AmountCents); err != nil {
				return err
			}
		}
		if campaignID.Valid {
			if err := adjust(ctx, q, campaignID.Int64, donation.AmountCents); err != nil {
				return err
			}
		}

		if err := q.UpdateDonationCampaign(ctx, campaignID, donation.ID); err != nil {
			return fmt.Errorf("updating donation: %w", err)
		}
		donation.CampaignID = campaignID
		return nil
	})
	return donation, err
}

// Delete removes a donation after debiting its campaign. The deleted row is returned.
func (l *Ledger) Delete(ctx context.Context, donationID int64) (store.Donation, error) {
	var donation store.Donation
	err := store.ExecTx(ctx, l.db, func(q *store.Queries) error {
		var err error
		donation, err = l.donation(ctx, q, donationID)
		if err != nil {
			return err
		}

		if donation.CampaignID.Valid {
			if err := adjust(ctx, q, donation.CampaignID.Int64, -donation.AmountCents); err != nil {
				return err
			}
		}

		if err := q.DeleteDonation(ctx, donation.ID); err != nil {
			return fmt.Errorf("deleting donation: %w", err)
		}
		return nil
	})
	return donation, err
}

// DeleteCampaign removes a campaign no donation references. The deleted row
// is returned so the caller can remove its image.
func (l *Ledger) DeleteCampaign(ctx context.Context, campaignID int64) (store.Campaign, error) {
	var campaign store.Campaign
	err := store.ExecTx(ctx, l.db, func(q *store.Queries) error {
		var err error
		campaign, err = l.campaign(ctx, q, campaignID)
		if err != nil {
			return err
		}

		count, err := q.CountDonationsByCampaign(ctx, campaignID)
		if err != nil {
			return fmt.Errorf("counting donations: %w", err)
		}
		if count > 0 {
			return ErrCampaignHasDonations
		}

		if err := q.DeleteCampaign(ctx, campaignID); err != nil {
			return fmt.Errorf("deleting campaign: %w", err)
		}
		return nil
	})
	return campaign, err
}

// Recalculate rebuilds a campaign's running total from its donations.
func (l *Ledger) Recalculate(ctx context.Context, campaignID int64) (store.Campaign, error) {
	campaign, err := store.New(l.db).RecalculateCampaignTotal(ctx, util.Now(), campaignID)
	if errors.Is(err, sql.ErrNoRows) {
		return campaign, ErrCampaignNotFound
	}
	return campaign, err
}

// IsCampaignOpen reports whether a campaign is publicly visible on today
// (YYYY-MM-DD): active, started and not ended.
func IsCampaignOpen(c store.Campaign, today string) bool {
	if !c.IsActive {
		return false
	}
	if c.StartDate != "" && c.StartDate > today {
		return false
	}
	if c.EndDate != "" && c.EndDate < today {
		return false
	}
	return true
}

func (l *Ledger) campaign(ctx context.Context, q *store.Queries, id int64) (store.Campaign, error) {
	c, err := q.GetCampaignByID(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return c, ErrCampaignNotFound
	}
	if err != nil {
		return c, fmt.Errorf("loading campaign: %w", err)
	}
	return c, nil
}

func (l *Ledger) donation(ctx context.Context, q *store.Queries, id int64) (store.Donation, error) {
	d, err := q.GetDonationByID(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return d, ErrDonationNotFound
	}
	if err != nil {
		return d, fmt.Errorf("loading donation: %w", err)
	}
	return d, nil
}

func adjust(ctx context.Context, q *store.Queries, campaignID, delta int64) error {
	ok, err := q.AdjustCampaignTotal(ctx, delta, util.Now(), campaignID)
	if err != nil {
		return fmt.Errorf("adjusting campaign total: %w", err)
	}
	if !ok {
		return ErrCampaignNotFound
	}
	return nil
}

func sameCampaign(a, b sql.NullInt64) bool {
	if a.Valid != b.Valid {
		return false
	}
	return !a.Valid || a.Int64 == b.Int64
}
