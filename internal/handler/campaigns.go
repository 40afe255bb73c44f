// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/olegiv/ochurch/internal/middleware"
	"github.com/olegiv/ochurch/internal/model"
	"github.com/olegiv/ochurch/internal/render"
	"github.com/olegiv/ochurch/internal/service"
	"github.com/olegiv/ochurch/internal/store"
	"github.com/olegiv/ochurch/internal/util"
)

// CampaignsHandler handles donation campaign management routes.
type CampaignsHandler struct {
	queries  *store.Queries
	renderer *render.Renderer
	uploader *service.Uploader
	ledger   *service.Ledger
	activity *service.ActivityService
}

// NewCampaignsHandler creates a new CampaignsHandler.
func NewCampaignsHandler(db *sql.DB, renderer *render.Renderer, uploader *service.Uploader, ledger *service.Ledger) *CampaignsHandler {
	return &CampaignsHandler{
		queries:  store.New(db),
		renderer: renderer,
		uploader: uploader,
		ledger:   ledger,
		activity: service.NewActivityService(db),
	}
}

// CampaignsListData holds data for the campaigns list template.
type CampaignsListData struct {
	Campaigns  []store.Campaign
	Pagination AdminPagination
}

// CampaignInput holds submitted campaign form values. Amounts are kept as
// entered so the form can be redisplayed.
type CampaignInput struct {
	Title            string
	Slug             string
	ShortDescription string
	Description      string
	Goal             string
	MinDonation      string
	SuggestedAmounts string
	IsActive         bool
	IsFeatured       bool
	ShowProgress     bool
	ShowDonorCount   bool
	StartDate        string
	EndDate          string
}

// CampaignFormData holds data for the campaign form template.
type CampaignFormData struct {
	Campaign *store.Campaign
	Form     CampaignInput
	IsEdit   bool
}

// campaignValues are the parsed amounts of a valid CampaignInput.
type campaignValues struct {
	goal      sql.NullInt64
	minimum   int64
	suggested string
}

func campaignInputFromRequest(r *http.Request) CampaignInput {
	return CampaignInput{
		Title:            formText(r, "title"),
		Slug:             strings.ToLower(strings.TrimSpace(r.FormValue("slug"))),
		ShortDescription: formText(r, "short_description"),
		Description:      formText(r, "description"),
		Goal:             strings.TrimSpace(r.FormValue("goal")),
		MinDonation:      strings.TrimSpace(r.FormValue("min_donation")),
		SuggestedAmounts: strings.TrimSpace(r.FormValue("suggested_amounts")),
		IsActive:         formBool(r, "is_active"),
		IsFeatured:       formBool(r, "is_featured"),
		ShowProgress:     formBool(r, "show_progress"),
		ShowDonorCount:   formBool(r, "show_donor_count"),
		StartDate:        strings.TrimSpace(r.FormValue("start_date")),
		EndDate:          strings.TrimSpace(r.FormValue("end_date")),
	}
}

func campaignInputFromRow(c store.Campaign) CampaignInput {
	in := CampaignInput{
		Title:            c.Title,
		Slug:             c.Slug,
		ShortDescription: c.ShortDescription,
		Description:      c.Description,
		MinDonation:      util.FormatCents(c.MinDonationCents),
		IsActive:         c.IsActive,
		IsFeatured:       c.IsFeatured,
		ShowProgress:     c.ShowProgress,
		ShowDonorCount:   c.ShowDonorCount,
		StartDate:        c.StartDate,
		EndDate:          c.EndDate,
	}
	if c.GoalCents.Valid {
		in.Goal = util.FormatCents(c.GoalCents.Int64)
	}
	if c.SuggestedAmounts != "" {
		in.SuggestedAmounts = strings.ReplaceAll(c.SuggestedAmounts, ",", ", ")
	}
	return in
}

// Validate checks the form and parses its amounts.
func (in CampaignInput) Validate() (campaignValues, map[string]string) {
	errs := make(map[string]string)
	var v campaignValues

	requireField(errs, "title", in.Title, "Title")
	checkDate(errs, "start_date", in.StartDate)
	checkDate(errs, "end_date", in.EndDate)
	if _, bad := errs["end_date"]; !bad && in.StartDate != "" && in.EndDate != "" && in.EndDate < in.StartDate {
		errs["end_date"] = "End date cannot be before the start date"
	}

	if in.Goal != "" {
		goal, err := util.ParseAmount(in.Goal)
		if err != nil || goal <= 0 {
			errs["goal"] = "Goal must be a positive amount"
		} else {
			v.goal = util.NullInt64FromValue(goal)
		}
	}

	if in.MinDonation != "" {
		minimum, err := util.ParseAmount(in.MinDonation)
		if err != nil || minimum < 0 {
			errs["min_donation"] = "Minimum donation must be zero or a positive amount"
		} else {
			v.minimum = minimum
		}
	}

	amounts, err := model.ParseSuggestedAmounts(in.SuggestedAmounts)
	if err != nil {
		errs["suggested_amounts"] = "Enter whole amounts separated by commas, e.g. 25, 50, 100"
	} else {
		v.suggested = model.FormatSuggestedAmounts(amounts)
	}
	return v, errs
}

// List handles GET /admin/campaigns.
func (h *CampaignsHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	total, err := h.queries.CountCampaigns(ctx)
	if err != nil {
		logAndInternalError(w, "failed to count campaigns", "error", err)
		return
	}
	_, offset, pagination := pageWindow(r, total, adminPerPage, redirectAdminCampaigns)

	campaigns, err := h.queries.ListCampaigns(ctx, store.ListCampaignsParams{Limit: adminPerPage, Offset: offset})
	if err != nil {
		logAndInternalError(w, "failed to list campaigns", "error", err)
		return
	}

	renderPage(w, r, h.renderer, "admin/campaigns_list", render.TemplateData{
		Title: "Campaigns",
		Data:  CampaignsListData{Campaigns: campaigns, Pagination: pagination},
	})
}

// NewForm handles GET /admin/campaigns/new.
func (h *CampaignsHandler) NewForm(w http.ResponseWriter, r *http.Request) {
	h.renderForm(w, r, CampaignFormData{Form: CampaignInput{IsActive: true, ShowProgress: true}}, nil)
}

// Create handles POST /admin/campaigns.
func (h *CampaignsHandler) Create(w http.ResponseWriter, r *http.Request) {
	if !parseMultipartOrRedirect(w, r, h.renderer, h.uploader, redirectAdminCampaignsNew) {
		return
	}

	ctx := r.Context()
	in := campaignInputFromRequest(r)
	values, errs := in.Validate()

	slug, slugErr := resolveSlug(in.Slug, in.Title, func(s string) (bool, error) {
		return h.queries.CampaignSlugExists(ctx, s, 0)
	})
	if slugErr != "" {
		errs["slug"] = slugErr
	}
	in.Slug = slug

	img := processImage(r, h.uploader, errs, "", service.UploadDirCampaigns, in.Title)
	if len(errs) > 0 {
		h.renderForm(w, r, CampaignFormData{Form: in}, errs)
		return
	}

	now := util.Now()
	campaign, err := h.queries.CreateCampaign(ctx, store.CreateCampaignParams{
		Title:            in.Title,
		Slug:             in.Slug,
		ShortDescription: in.ShortDescription,
		Description:      in.Description,
		GoalCents:        values.goal,
		MinDonationCents: values.minimum,
		SuggestedAmounts: values.suggested,
		IsActive:         in.IsActive,
		IsFeatured:       in.IsFeatured,
		ShowProgress:     in.ShowProgress,
		ShowDonorCount:   in.ShowDonorCount,
		StartDate:        in.StartDate,
		EndDate:          in.EndDate,
		ImagePath:        img.path,
		CreatedAt:        now,
		UpdatedAt:        now,
	})
	if err != nil {
		img.rollback(h.uploader)
		slog.Error("failed to create campaign", "error", err)
		h.renderer.SetFlash(r, genericSaveError, flashTypeError)
		h.renderForm(w, r, CampaignFormData{Form: in}, nil)
		return
	}

	slog.Info("campaign created", "campaign_id", campaign.ID, "slug", campaign.Slug, "created_by", middleware.GetAdminID(r))
	logActivity(r, h.activity, model.ActivityCategoryDonation, "Campaign created: "+campaign.Title, map[string]any{"campaign_id": campaign.ID})
	flashSuccess(w, r, h.renderer, redirectAdminCampaigns, "Campaign created successfully")
}

// EditForm handles GET /admin/campaigns/{id}.
func (h *CampaignsHandler) EditForm(w http.ResponseWriter, r *http.Request) {
	campaign, ok := h.requireCampaign(w, r)
	if !ok {
		return
	}
	h.renderForm(w, r, CampaignFormData{Campaign: &campaign, Form: campaignInputFromRow(campaign), IsEdit: true}, nil)
}

// Update handles POST|PUT /admin/campaigns/{id}. The running total is not
// editable; it only changes through donations.
func (h *CampaignsHandler) Update(w http.ResponseWriter, r *http.Request) {
	campaign, ok := h.requireCampaign(w, r)
	if !ok {
		return
	}
	editURL := fmt.Sprintf(redirectAdminCampaignsID, campaign.ID)
	if !parseMultipartOrRedirect(w, r, h.renderer, h.uploader, editURL) {
		return
	}

	ctx := r.Context()
	in := campaignInputFromRequest(r)
	values, errs := in.Validate()

	slug, slugErr := resolveSlug(in.Slug, in.Title, func(s string) (bool, error) {
		return h.queries.CampaignSlugExists(ctx, s, campaign.ID)
	})
	if slugErr != "" {
		errs["slug"] = slugErr
	}
	in.Slug = slug

	img := processImage(r, h.uploader, errs, campaign.ImagePath, service.UploadDirCampaigns, in.Title)
	if len(errs) > 0 {
		h.renderForm(w, r, CampaignFormData{Campaign: &campaign, Form: in, IsEdit: true}, errs)
		return
	}

	if _, err := h.queries.UpdateCampaign(ctx, store.UpdateCampaignParams{
		Title:            in.Title,
		Slug:             in.Slug,
		ShortDescription: in.ShortDescription,
		Description:      in.Description,
		GoalCents:        values.goal,
		MinDonationCents: values.minimum,
		SuggestedAmounts: values.suggested,
		IsActive:         in.IsActive,
		IsFeatured:       in.IsFeatured,
		ShowProgress:     in.ShowProgress,
		ShowDonorCount:   in.ShowDonorCount,
		StartDate:        in.StartDate,
		EndDate:          in.EndDate,
		ImagePath:        img.path,
		UpdatedAt:        util.Now(),
		ID:               campaign.ID,
	}); err != nil {
		img.rollback(h.uploader)
		slog.Error("failed to update campaign", "error", err, "campaign_id", campaign.ID)
		flashError(w, r, h.renderer, editURL, genericSaveError)
		return
	}
	img.commit(h.uploader)

	slog.Info("campaign updated", "campaign_id", campaign.ID, "updated_by", middleware.GetAdminID(r))
	logActivity(r, h.activity, model.ActivityCategoryDonation, "Campaign updated: "+in.Title, map[string]any{"campaign_id": campaign.ID})
	flashSuccess(w, r, h.renderer, redirectAdminCampaigns, "Campaign updated successfully")
}

// Delete handles POST /admin/campaigns/{id}/delete and DELETE /admin/campaigns/{id}.
// Campaigns with donations are kept; their donations must be reassigned first.
func (h *CampaignsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDOrRedirect(w, r, h.renderer, redirectAdminCampaigns, "campaign")
	if !ok {
		return
	}

	campaign, err := h.ledger.DeleteCampaign(r.Context(), id)
	switch {
	case err == nil:
	case errors.Is(err, service.ErrCampaignNotFound):
		flashError(w, r, h.renderer, redirectAdminCampaigns, "Campaign not found")
		return
	case errors.Is(err, service.ErrCampaignHasDonations):
		flashError(w, r, h.renderer, redirectAdminCampaigns,
			"This campaign has donations and cannot be deleted. Reassign its donations or deactivate it instead.")
		return
	default:
		slog.Error("failed to delete campaign", "error", err, "campaign_id", id)
		flashError(w, r, h.renderer, redirectAdminCampaigns, "Error deleting campaign")
		return
	}
	h.uploader.Remove(campaign.ImagePath)

	slog.Info("campaign deleted", "campaign_id", campaign.ID, "deleted_by", middleware.GetAdminID(r))
	logActivity(r, h.activity, model.ActivityCategoryDonation, "Campaign deleted: "+campaign.Title, map[string]any{"campaign_id": campaign.ID})
	flashSuccess(w, r, h.renderer, redirectAdminCampaigns, "Campaign deleted successfully")
}

// ToggleActive handles POST /admin/campaigns/{id}/toggle-active.
func (h *CampaignsHandler) ToggleActive(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDOrRedirect(w, r, h.renderer, redirectAdminCampaigns, "campaign")
	if !ok {
		return
	}
	campaign, ok := requireEntityWithRedirect(w, r, h.renderer, redirectAdminCampaigns, "Campaign", id,
		func(id int64) (store.Campaign, error) { return h.queries.ToggleCampaignActive(r.Context(), util.Now(), id) })
	if !ok {
		return
	}

	msg := "Campaign deactivated"
	if campaign.IsActive {
		msg = "Campaign activated"
	}
	logActivity(r, h.activity, model.ActivityCategoryDonation, msg+": "+campaign.Title, map[string]any{"campaign_id": campaign.ID})
	flashSuccess(w, r, h.renderer, redirectAdminCampaigns, msg)
}

// ToggleFeatured handles POST /admin/campaigns/{id}/toggle-featured.
func (h *CampaignsHandler) ToggleFeatured(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDOrRedirect(w, r, h.renderer, redirectAdminCampaigns, "campaign")
	if !ok {
		return
	}
	campaign, ok := requireEntityWithRedirect(w, r, h.renderer, redirectAdminCampaigns, "Campaign", id,
		func(id int64) (store.Campaign, error) { return h.queries.ToggleCampaignFeatured(r.Context(), util.Now(), id) })
	if !ok {
		return
	}

	msg := "Campaign removed from featured"
	if campaign.IsFeatured {
		msg = "Campaign marked as featured"
	}
	logActivity(r, h.activity, model.ActivityCategoryDonation, msg+": "+campaign.Title, map[string]any{"campaign_id": campaign.ID})
	flashSuccess(w, r, h.renderer, redirectAdminCampaigns, msg)
}

// Recalculate handles POST /admin/campaigns/{id}/recalculate.
func (h *CampaignsHandler) Recalculate(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDOrRedirect(w, r, h.renderer, redirectAdminCampaigns, "campaign")
	if !ok {
		return
	}

	campaign, err := h.ledger.Recalculate(r.Context(), id)
	if errors.Is(err, service.ErrCampaignNotFound) {
		flashError(w, r, h.renderer, redirectAdminCampaigns, "Campaign not found")
		return
	}
	if err != nil {
		slog.Error("failed to recalculate campaign", "error", err, "campaign_id", id)
		flashError(w, r, h.renderer, redirectAdminCampaigns, genericSaveError)
		return
	}

	slog.Info("campaign total recalculated", "campaign_id", campaign.ID, "current_cents", campaign.CurrentCents)
	logActivity(r, h.activity, model.ActivityCategoryDonation, "Campaign total recalculated: "+campaign.Title,
		map[string]any{"campaign_id": campaign.ID, "current_cents": campaign.CurrentCents})
	flashSuccess(w, r, h.renderer, redirectAdminCampaigns, "Campaign total recalculated")
}

func (h *CampaignsHandler) requireCampaign(w http.ResponseWriter, r *http.Request) (store.Campaign, bool) {
	id, ok := parseIDOrRedirect(w, r, h.renderer, redirectAdminCampaigns, "campaign")
	if !ok {
		return store.Campaign{}, false
	}
	return requireEntityWithRedirect(w, r, h.renderer, redirectAdminCampaigns, "Campaign", id,
		func(id int64) (store.Campaign, error) { return h.queries.GetCampaignByID(r.Context(), id) })
}

func (h *CampaignsHandler) renderForm(w http.ResponseWriter, r *http.Request, data CampaignFormData, errs map[string]string) {
	title := "New Campaign"
	if data.IsEdit {
		title = "Edit Campaign"
	}
	renderPage(w, r, h.renderer, "admin/campaign_form", render.TemplateData{
		Title:  title,
		Data:   data,
		Errors: errs,
	})
}
