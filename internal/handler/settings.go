// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"database/sql"
	"log/slog"
	"net/http"
	"strings"

	"github.com/olegiv/ochurch/internal/cache"
	"github.com/olegiv/ochurch/internal/middleware"
	"github.com/olegiv/ochurch/internal/model"
	"github.com/olegiv/ochurch/internal/render"
	"github.com/olegiv/ochurch/internal/service"
	"github.com/olegiv/ochurch/internal/store"
	"github.com/olegiv/ochurch/internal/util"
)

// maxSettingsRows caps the repeated office hour and social link rows.
const maxSettingsRows = 20

// blankSettingsRows is how many empty rows the form offers for new entries.
const blankSettingsRows = 2

// SettingsHandler handles the site settings page.
type SettingsHandler struct {
	db       *sql.DB
	renderer *render.Renderer
	uploader *service.Uploader
	settings *cache.SettingsCache
	activity *service.ActivityService
}

// NewSettingsHandler creates a new SettingsHandler.
func NewSettingsHandler(db *sql.DB, renderer *render.Renderer, uploader *service.Uploader, settings *cache.SettingsCache) *SettingsHandler {
	return &SettingsHandler{
		db:       db,
		renderer: renderer,
		uploader: uploader,
		settings: settings,
		activity: service.NewActivityService(db),
	}
}

// SettingsFormData holds data for the settings template.
type SettingsFormData struct {
	Values      map[string]string
	TextKeys    []string
	Labels      map[string]string
	OfficeHours []model.OfficeHour
	SocialLinks []model.SocialLink
	BlankRows   []int
}

// settingLabels names the text settings on the form.
var settingLabels = map[string]string{
	model.SettingSiteName:       "Site name",
	model.SettingTagline:        "Tagline",
	model.SettingHeroTitle:      "Hero title",
	model.SettingHeroSubtitle:   "Hero subtitle",
	model.SettingAboutText:      "About text",
	model.SettingServiceTimes:   "Service times",
	model.SettingAddress:        "Address",
	model.SettingPhone:          "Phone",
	model.SettingEmail:          "Email",
	model.SettingLiveStreamURL:  "Live stream URL",
	model.SettingDonateText:     "Donate page text",
	model.SettingCurrencySymbol: "Currency symbol",
}

// Show handles GET /admin/settings.
func (h *SettingsHandler) Show(w http.ResponseWriter, r *http.Request) {
	values, err := h.settings.All(r.Context())
	if err != nil {
		logAndInternalError(w, "failed to load settings", "error", err)
		return
	}

	hours, err := model.ParseOfficeHours(values[model.SettingOfficeHours])
	if err != nil {
		slog.Warn("ignoring malformed office hours setting", "error", err)
	}
	links, err := model.ParseSocialLinks(values[model.SettingSocialLinks])
	if err != nil {
		slog.Warn("ignoring malformed social links setting", "error", err)
	}

	h.render(w, r, SettingsFormData{Values: values, OfficeHours: hours, SocialLinks: links}, nil)
}

// Update handles POST /admin/settings. All keys are written in one
// transaction and the cached copy is dropped afterwards.
func (h *SettingsHandler) Update(w http.ResponseWriter, r *http.Request) {
	if !parseMultipartOrRedirect(w, r, h.renderer, h.uploader, redirectAdminSettings) {
		return
	}
	ctx := r.Context()

	current, err := h.settings.All(ctx)
	if err != nil {
		logAndInternalError(w, "failed to load settings", "error", err)
		return
	}

	values := make(map[string]string, len(model.TextSettingKeys)+3)
	for _, key := range model.TextSettingKeys {
		values[key] = formText(r, key)
	}
	hours := officeHoursFromRequest(r)
	links := socialLinksFromRequest(r)

	errs := validateSettings(values, links)
	img := processImage(r, h.uploader, errs, current[model.SettingHeroImage], service.UploadDirSettings, "hero")
	if len(errs) > 0 {
		values[model.SettingHeroImage] = current[model.SettingHeroImage]
		h.render(w, r, SettingsFormData{Values: values, OfficeHours: hours, SocialLinks: links}, errs)
		return
	}

	values[model.SettingHeroImage] = img.path
	values[model.SettingOfficeHours] = model.EncodeJSONList(hours)
	values[model.SettingSocialLinks] = model.EncodeJSONList(links)

	now := util.Now()
	err = store.ExecTx(ctx, h.db, func(q *store.Queries) error {
		for key, value := range values {
			if err := q.UpsertSetting(ctx, store.UpsertSettingParams{Key: key, Value: value, UpdatedAt: now}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		img.rollback(h.uploader)
		slog.Error("failed to save settings", "error", err)
		flashError(w, r, h.renderer, redirectAdminSettings, genericSaveError)
		return
	}
	img.commit(h.uploader)

	if err := h.settings.Invalidate(ctx); err != nil {
		slog.Warn("failed to invalidate settings cache", "error", err)
	}

	slog.Info("settings updated", "updated_by", middleware.GetAdminID(r))
	logActivity(r, h.activity, model.ActivityCategorySettings, "Site settings updated", nil)
	flashSuccess(w, r, h.renderer, redirectAdminSettings, "Settings saved")
}

func validateSettings(values map[string]string, links []model.SocialLink) map[string]string {
	errs := make(map[string]string)
	requireField(errs, model.SettingSiteName, values[model.SettingSiteName], "Site name")
	checkEmail(errs, model.SettingEmail, values[model.SettingEmail])
	checkURL(errs, model.SettingLiveStreamURL, values[model.SettingLiveStreamURL])
	for _, l := range links {
		if l.Platform == "" {
			errs[model.SettingSocialLinks] = "Each social link needs a platform name"
			break
		}
		if !util.IsHTTPURL(l.URL) {
			errs[model.SettingSocialLinks] = "Social link URLs must start with http:// or https://"
			break
		}
	}
	return errs
}

// formRows pairs two repeated inputs row by row. The shorter list is padded
// with empty values so a missing cell never drops the other one.
func formRows(r *http.Request, left, right string) [][2]string {
	a, b := r.Form[left], r.Form[right]
	n := max(len(a), len(b))
	rows := make([][2]string, 0, n)
	for i := 0; i < n; i++ {
		var row [2]string
		if i < len(a) {
			row[0] = a[i]
		}
		if i < len(b) {
			row[1] = b[i]
		}
		rows = append(rows, row)
	}
	return rows
}

// officeHoursFromRequest reads the parallel office_hours_day and
// office_hours_hours inputs, skipping empty rows.
func officeHoursFromRequest(r *http.Request) []model.OfficeHour {
	var out []model.OfficeHour
	for _, row := range formRows(r, "office_hours_day", "office_hours_hours") {
		if len(out) == maxSettingsRows {
			break
		}
		day := util.SanitizeText(row[0])
		hours := util.SanitizeText(row[1])
		if day == "" && hours == "" {
			continue
		}
		out = append(out, model.OfficeHour{Day: day, Hours: hours})
	}
	return out
}

// socialLinksFromRequest reads the parallel social_platform and social_url
// inputs, skipping rows without a URL. A URL without a platform is kept so
// validation can report it.
func socialLinksFromRequest(r *http.Request) []model.SocialLink {
	var out []model.SocialLink
	for _, row := range formRows(r, "social_platform", "social_url") {
		if len(out) == maxSettingsRows {
			break
		}
		link := strings.TrimSpace(row[1])
		if link == "" {
			continue
		}
		out = append(out, model.SocialLink{Platform: util.SanitizeText(row[0]), URL: link})
	}
	return out
}

func (h *SettingsHandler) render(w http.ResponseWriter, r *http.Request, data SettingsFormData, errs map[string]string) {
	data.TextKeys = model.TextSettingKeys
	data.BlankRows = make([]int, blankSettingsRows)
	data.Labels = settingLabels
	renderPage(w, r, h.renderer, "admin/settings", render.TemplateData{
		Title:  "Settings",
		Data:   data,
		Errors: errs,
	})
}
