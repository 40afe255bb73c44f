// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package legacy imports content from the previous church website's MySQL
// database into the SQLite store.
package legacy

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/olegiv/ochurch/internal/auth"
	"github.com/olegiv/ochurch/internal/model"
	"github.com/olegiv/ochurch/internal/store"
	"github.com/olegiv/ochurch/internal/util"
)

// Counts tallies one table's import.
type Counts struct {
	Imported int `json:"imported"`
	Skipped  int `json:"skipped"`
}

// Result summarizes an import run.
type Result struct {
	Admins        Counts `json:"admins"`
	Sermons       Counts `json:"sermons"`
	Events        Counts `json:"events"`
	Announcements Counts `json:"announcements"`
	Posts         Counts `json:"posts"`
	Campaigns     Counts `json:"campaigns"`
	Donations     Counts `json:"donations"`
	Settings      Counts `json:"settings"`
	// PasswordsReset counts accounts whose stored hash could not be used.
	// They get a random password and must use the reset flow.
	PasswordsReset int `json:"passwords_reset"`
}

// Importer copies a Snapshot into the store.
type Importer struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewImporter creates an Importer writing to db.
func NewImporter(db *sql.DB, logger *slog.Logger) *Importer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Importer{db: db, logger: logger}
}

// Run reads everything from reader and imports it.
func (im *Importer) Run(ctx context.Context, reader *Reader) (*Result, error) {
	snap, err := reader.ReadAll(ctx)
	if err != nil {
		return nil, err
	}
	return im.Import(ctx, snap)
}

// Import writes snap in a single transaction. Admins whose username or email
// already exists and posts or campaigns whose slug is taken are skipped.
// Campaign totals are recomputed from the donations afterwards.
func (im *Importer) Import(ctx context.Context, snap *Snapshot) (*Result, error) {
	res := &Result{}
	now := util.Now()

	err := store.ExecTx(ctx, im.db, func(q *store.Queries) error {
		admins, err := im.importAdmins(ctx, q, snap.Admins, now, res)
		if err != nil {
			return err
		}
		if err := im.importSermons(ctx, q, snap.Sermons, now, res); err != nil {
			return err
		}
		if err := im.importEvents(ctx, q, snap.Events, now, res); err != nil {
			return err
		}
		if err := im.importAnnouncements(ctx, q, snap.Announcements, now, res); err != nil {
			return err
		}
		if err := im.importPosts(ctx, q, snap.Posts, admins, now, res); err != nil {
			return err
		}
		campaigns, err := im.importCampaigns(ctx, q, snap.Campaigns, now, res)
		if err != nil {
			return err
		}
		if err := im.importDonations(ctx, q, snap.Donations, campaigns, now, res); err != nil {
			return err
		}
		if err := im.importSettings(ctx, q, snap.Settings, now, res); err != nil {
			return err
		}

		for _, id := range campaigns {
			if _, err := q.RecalculateCampaignTotal(ctx, now, id); err != nil {
				return fmt.Errorf("recalculating campaign %d: %w", id, err)
			}
		}

		meta, _ := json.Marshal(res)
		return q.CreateActivity(ctx, store.CreateActivityParams{
			Level:     model.ActivityLevelInfo,
			Category:  model.ActivityCategorySystem,
			Message:   "Legacy database imported",
			Metadata:  string(meta),
			CreatedAt: now,
		})
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// importAdmins returns a map from legacy admin id to the local id, including
// accounts that already existed locally.
func (im *Importer) importAdmins(ctx context.Context, q *store.Queries, rows []Admin, now time.Time, res *Result) (map[int64]int64, error) {
	ids := make(map[int64]int64, len(rows))
	for _, a := range rows {
		username := strings.ToLower(strings.TrimSpace(a.Username))
		email := strings.ToLower(strings.TrimSpace(a.Email.String))

		existing, err := q.GetAdminByUsername(ctx, username)
		switch {
		case err == nil:
			ids[a.ID] = existing.ID
			res.Admins.Skipped++
			continue
		case !errors.Is(err, sql.ErrNoRows):
			return nil, fmt.Errorf("looking up admin %q: %w", username, err)
		}

		if username == "" || !util.IsValidEmail(email) {
			im.logger.Warn("skipping legacy admin without username or valid email", "legacy_id", a.ID)
			res.Admins.Skipped++
			continue
		}
		taken, err := q.EmailExists(ctx, email, 0)
		if err != nil {
			return nil, fmt.Errorf("checking admin email: %w", err)
		}
		if taken {
			im.logger.Warn("skipping legacy admin with an email already in use", "legacy_id", a.ID, "username", username)
			res.Admins.Skipped++
			continue
		}

		hash := a.Password.String
		if !auth.IsLegacyHash(hash) {
			if hash, err = randomPasswordHash(); err != nil {
				return nil, err
			}
			res.PasswordsReset++
			im.logger.Warn("legacy admin has an unusable password hash, a reset is required", "username", username)
		}

		created := parseTimestamp(a.CreatedAt, now)
		admin, err := q.CreateAdmin(ctx, store.CreateAdminParams{
			Username:     username,
			PasswordHash: hash,
			Email:        email,
			FullName:     text(a.FullName),
			Role:         mapRole(a.Role.String),
			IsActive:     a.IsActive,
			CreatedAt:    created,
			UpdatedAt:    now,
		})
		if err != nil {
			return nil, fmt.Errorf("creating admin %q: %w", username, err)
		}
		if a.LastLogin.Valid {
			if err := q.UpdateAdminLastLogin(ctx, util.NullTimeFromValue(parseTimestamp(a.LastLogin, created)), admin.ID); err != nil {
				return nil, fmt.Errorf("setting last login for %q: %w", username, err)
			}
		}
		ids[a.ID] = admin.ID
		res.Admins.Imported++
	}
	return ids, nil
}

func (im *Importer) importSermons(ctx context.Context, q *store.Queries, rows []Sermon, now time.Time, res *Result) error {
	for _, s := range rows {
		created := parseTimestamp(s.CreatedAt, now)
		_, err := q.CreateSermon(ctx, store.CreateSermonParams{
			Title:       util.SanitizeText(s.Title),
			Preacher:    text(s.Preacher),
			SermonDate:  dateOr(s.SermonDate, created),
			Scripture:   text(s.Scripture),
			Description: text(s.Description),
			VideoUrl:    httpURL(s.VideoURL),
			AudioUrl:    httpURL(s.AudioURL),
			ImagePath:   imagePath(s.Image),
			IsFeatured:  s.IsFeatured,
			CreatedAt:   created,
			UpdatedAt:   now,
		})
		if err != nil {
			return fmt.Errorf("creating sermon %d: %w", s.ID, err)
		}
		res.Sermons.Imported++
	}
	return nil
}

func (im *Importer) importEvents(ctx context.Context, q *store.Queries, rows []Event, now time.Time, res *Result) error {
	for _, e := range rows {
		date := normalizeDate(e.EventDate)
		if date == "" {
			im.logger.Warn("skipping legacy event without a date", "legacy_id", e.ID)
			res.Events.Skipped++
			continue
		}
		end := normalizeDate(e.EndDate)
		if end != "" && end < date {
			end = ""
		}

		_, err := q.CreateEvent(ctx, store.CreateEventParams{
			Title:           util.SanitizeText(e.Title),
			EventDate:       date,
			EndDate:         end,
			StartTime:       normalizeTime(e.StartTime),
			EndTime:         normalizeTime(e.EndTime),
			Location:        text(e.Location),
			Description:     text(e.Description),
			ImagePath:       imagePath(e.Image),
			RegistrationUrl: httpURL(e.RegistrationURL),
			ContactName:     text(e.ContactName),
			ContactEmail:    text(e.ContactEmail),
			ContactPhone:    text(e.ContactPhone),
			IsFeatured:      e.IsFeatured,
			CreatedAt:       parseTimestamp(e.CreatedAt, now),
			UpdatedAt:       now,
		})
		if err != nil {
			return fmt.Errorf("creating event %d: %w", e.ID, err)
		}
		res.Events.Imported++
	}
	return nil
}

func (im *Importer) importAnnouncements(ctx context.Context, q *store.Queries, rows []Announcement, now time.Time, res *Result) error {
	for _, a := range rows {
		created := parseTimestamp(a.CreatedAt, now)
		_, err := q.CreateAnnouncement(ctx, store.CreateAnnouncementParams{
			Title:            util.SanitizeText(a.Title),
			Content:          text(a.Content),
			AnnouncementDate: dateOr(a.AnnouncementDate, created),
			IsActive:         a.IsActive,
			CreatedAt:        created,
			UpdatedAt:        now,
		})
		if err != nil {
			return fmt.Errorf("creating announcement %d: %w", a.ID, err)
		}
		res.Announcements.Imported++
	}
	return nil
}

func (im *Importer) importPosts(ctx context.Context, q *store.Queries, rows []Post, admins map[int64]int64, now time.Time, res *Result) error {
	for _, p := range rows {
		slug := legacySlug(p.Slug.String, p.Title)
		if slug == "" {
			im.logger.Warn("skipping legacy post without a usable slug", "legacy_id", p.ID)
			res.Posts.Skipped++
			continue
		}
		taken, err := q.PostSlugExists(ctx, slug, 0)
		if err != nil {
			return fmt.Errorf("checking post slug: %w", err)
		}
		if taken {
			res.Posts.Skipped++
			continue
		}

		created := parseTimestamp(p.CreatedAt, now)
		status := model.PostStatusDraft
		var publishedAt sql.NullTime
		if strings.EqualFold(p.Status.String, model.PostStatusPublished) {
			status = model.PostStatusPublished
			publishedAt = util.NullTimeFromValue(parseTimestamp(p.PublishedAt, created))
		}

		var author sql.NullInt64
		if id, ok := admins[p.AuthorID.Int64]; ok && p.AuthorID.Valid {
			author = util.NullInt64FromValue(id)
		}

		_, err = q.CreatePost(ctx, store.CreatePostParams{
			Title:          util.SanitizeText(p.Title),
			Slug:           slug,
			Content:        util.SanitizeHTML(p.Content.String),
			Excerpt:        text(p.Excerpt),
			ImagePath:      imagePath(p.Image),
			AuthorID:       author,
			Status:         status,
			ShowOnHomepage: p.ShowOnHomepage,
			TargetPages:    model.EncodeTargetPages(parseList(p.TargetPages.String)),
			PublishedAt:    publishedAt,
			CreatedAt:      created,
			UpdatedAt:      now,
		})
		if err != nil {
			return fmt.Errorf("creating post %q: %w", slug, err)
		}
		res.Posts.Imported++
	}
	return nil
}

// importCampaigns returns a map from legacy campaign id to the local id.
// Campaigns whose slug already exists map onto the existing row.
func (im *Importer) importCampaigns(ctx context.Context, q *store.Queries, rows []Campaign, now time.Time, res *Result) (map[int64]int64, error) {
	ids := make(map[int64]int64, len(rows))
	for _, c := range rows {
		slug := legacySlug(c.Slug.String, c.Title)
		if slug == "" {
			im.logger.Warn("skipping legacy campaign without a usable slug", "legacy_id", c.ID)
			res.Campaigns.Skipped++
			continue
		}

		existing, err := q.GetCampaignBySlug(ctx, slug)
		switch {
		case err == nil:
			ids[c.ID] = existing.ID
			res.Campaigns.Skipped++
			continue
		case !errors.Is(err, sql.ErrNoRows):
			return nil, fmt.Errorf("looking up campaign %q: %w", slug, err)
		}

		var goal sql.NullInt64
		if cents, ok := decimalCents(c.GoalAmount.String); ok && cents > 0 {
			goal = util.NullInt64FromValue(cents)
		}
		minimum, _ := decimalCents(c.MinDonation.String)

		suggested, err := model.ParseSuggestedAmounts(strings.Trim(c.SuggestedAmounts.String, "[] "))
		if err != nil {
			im.logger.Warn("dropping malformed suggested amounts", "slug", slug, "error", err)
			suggested = nil
		}

		start := normalizeDate(c.StartDate)
		end := normalizeDate(c.EndDate)
		if start != "" && end != "" && end < start {
			end = ""
		}

		campaign, err := q.CreateCampaign(ctx, store.CreateCampaignParams{
			Title:            util.SanitizeText(c.Title),
			Slug:             slug,
			ShortDescription: text(c.ShortDescription),
			Description:      text(c.Description),
			GoalCents:        goal,
			MinDonationCents: minimum,
			SuggestedAmounts: model.FormatSuggestedAmounts(suggested),
			IsActive:         c.IsActive,
			IsFeatured:       c.IsFeatured,
			ShowProgress:     c.ShowProgress,
			ShowDonorCount:   c.ShowDonorCount,
			StartDate:        start,
			EndDate:          end,
			ImagePath:        imagePath(c.Image),
			CreatedAt:        parseTimestamp(c.CreatedAt, now),
			UpdatedAt:        now,
		})
		if err != nil {
			return nil, fmt.Errorf("creating campaign %q: %w", slug, err)
		}
		ids[c.ID] = campaign.ID
		res.Campaigns.Imported++
	}
	return ids, nil
}

func (im *Importer) importDonations(ctx context.Context, q *store.Queries, rows []Donation, campaigns map[int64]int64, now time.Time, res *Result) error {
	for _, d := range rows {
		cents, ok := decimalCents(d.Amount)
		if !ok || cents <= 0 {
			im.logger.Warn("skipping legacy donation with an invalid amount", "legacy_id", d.ID, "amount", d.Amount)
			res.Donations.Skipped++
			continue
		}

		var campaign sql.NullInt64
		if d.CampaignID.Valid {
			if id, found := campaigns[d.CampaignID.Int64]; found {
				campaign = util.NullInt64FromValue(id)
			} else {
				im.logger.Warn("legacy donation references an unknown campaign, recording it as general",
					"legacy_id", d.ID, "campaign_id", d.CampaignID.Int64)
			}
		}

		donationType := d.DonationType.String
		if !model.Contains(model.DonationTypes, donationType) {
			donationType = model.DonationTypeOneTime
		}
		method := d.PaymentMethod.String
		if !model.Contains(model.PaymentMethods, method) {
			method = model.PaymentCash
		}
		source := model.DonationSourceOffline
		if method == model.PaymentOnline {
			source = model.DonationSourceOnline
		}

		_, err := q.CreateDonation(ctx, store.CreateDonationParams{
			DonorName:     text(d.DonorName),
			DonorEmail:    strings.TrimSpace(d.DonorEmail.String),
			AmountCents:   cents,
			DonationType:  donationType,
			PaymentMethod: method,
			Source:        source,
			Message:       text(d.Message),
			IsAnonymous:   d.IsAnonymous,
			CampaignID:    campaign,
			CreatedAt:     parseTimestamp(d.CreatedAt, now),
		})
		if err != nil {
			return fmt.Errorf("creating donation %d: %w", d.ID, err)
		}
		res.Donations.Imported++
	}
	return nil
}

// importSettings copies known keys only. List settings must already be JSON
// lists of the shape the site reads.
func (im *Importer) importSettings(ctx context.Context, q *store.Queries, rows []Setting, now time.Time, res *Result) error {
	for _, s := range rows {
		if _, known := model.DefaultSettings[s.Key]; !known {
			res.Settings.Skipped++
			continue
		}
		value := strings.TrimSpace(s.Value.String)
		switch s.Key {
		case model.SettingOfficeHours:
			hours, err := model.ParseOfficeHours(value)
			if err != nil {
				im.logger.Warn("skipping malformed office hours setting", "error", err)
				res.Settings.Skipped++
				continue
			}
			value = model.EncodeJSONList(hours)
		case model.SettingSocialLinks:
			links, err := model.ParseSocialLinks(value)
			if err != nil {
				im.logger.Warn("skipping malformed social links setting", "error", err)
				res.Settings.Skipped++
				continue
			}
			value = model.EncodeJSONList(links)
		case model.SettingHeroImage:
			value = imagePath(s.Value)
		}

		if err := q.UpsertSetting(ctx, store.UpsertSettingParams{Key: s.Key, Value: value, UpdatedAt: now}); err != nil {
			return fmt.Errorf("saving setting %q: %w", s.Key, err)
		}
		res.Settings.Imported++
	}
	return nil
}

func randomPasswordHash() (string, error) {
	pw, err := auth.GenerateRandomPassword(24)
	if err != nil {
		return "", err
	}
	return auth.HashPassword(pw)
}
