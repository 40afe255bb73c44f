// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/olegiv/ochurch/internal/middleware"
	"github.com/olegiv/ochurch/internal/model"
	"github.com/olegiv/ochurch/internal/render"
	"github.com/olegiv/ochurch/internal/service"
	"github.com/olegiv/ochurch/internal/store"
	"github.com/olegiv/ochurch/internal/util"
)

// campaignFilterNone selects donations without a campaign.
const campaignFilterNone = "none"

// DonationsHandler handles the donation ledger routes.
type DonationsHandler struct {
	queries  *store.Queries
	renderer *render.Renderer
	ledger   *service.Ledger
	activity *service.ActivityService
}

// NewDonationsHandler creates a new DonationsHandler.
func NewDonationsHandler(db *sql.DB, renderer *render.Renderer, ledger *service.Ledger) *DonationsHandler {
	return &DonationsHandler{
		queries:  store.New(db),
		renderer: renderer,
		ledger:   ledger,
		activity: service.NewActivityService(db),
	}
}

// DonationsListData holds data for the donations list template.
type DonationsListData struct {
	Donations  []store.DonationRow
	Summary    store.DonationSummary
	Campaigns  []store.Campaign
	Filter     string
	Pagination AdminPagination
}

// DonationInput holds submitted offline donation form values.
type DonationInput struct {
	DonorName     string
	DonorEmail    string
	Amount        string
	DonationType  string
	PaymentMethod string
	Message       string
	IsAnonymous   bool
	CampaignID    string
}

// DonationFormData holds data for the offline donation form template.
type DonationFormData struct {
	Form           DonationInput
	Campaigns      []store.Campaign
	DonationTypes  []string
	PaymentMethods []string
}

// parseCampaignFilter maps the ?campaign= query value to a store filter.
func parseCampaignFilter(v string) int64 {
	if v == campaignFilterNone {
		return store.DonationFilterUnassigned
	}
	if id, err := strconv.ParseInt(v, 10, 64); err == nil && id > 0 {
		return id
	}
	return store.DonationFilterAll
}

// List handles GET /admin/donations.
func (h *DonationsHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	filterParam := strings.TrimSpace(r.URL.Query().Get("campaign"))
	filter := parseCampaignFilter(filterParam)

	summary, err := h.queries.SummarizeDonations(ctx, filter)
	if err != nil {
		logAndInternalError(w, "failed to summarize donations", "error", err)
		return
	}

	_, offset, pagination := pageWindow(r, summary.Count, adminPerPage, redirectAdminDonations)

	donations, err := h.queries.ListDonations(ctx, store.ListDonationsParams{
		CampaignFilter: filter,
		Limit:          adminPerPage,
		Offset:         offset,
	})
	if err != nil {
		logAndInternalError(w, "failed to list donations", "error", err)
		return
	}

	campaigns, err := h.queries.ListAllCampaigns(ctx)
	if err != nil {
		logAndInternalError(w, "failed to list campaigns", "error", err)
		return
	}

	renderPage(w, r, h.renderer, "admin/donations_list", render.TemplateData{
		Title: "Donations",
		Data: DonationsListData{
			Donations:  donations,
			Summary:    summary,
			Campaigns:  campaigns,
			Filter:     filterParam,
			Pagination: pagination,
		},
	})
}

// NewForm handles GET /admin/donations/new.
func (h *DonationsHandler) NewForm(w http.ResponseWriter, r *http.Request) {
	h.renderForm(w, r, DonationInput{
		DonationType:  model.DonationTypeOneTime,
		PaymentMethod: model.PaymentCash,
		CampaignID:    r.URL.Query().Get("campaign"),
	}, nil)
}

// validate checks an offline donation and builds the ledger input.
func (in DonationInput) validate() (service.DonationInput, map[string]string) {
	errs := make(map[string]string)
	out := service.DonationInput{
		DonorName:     in.DonorName,
		DonorEmail:    in.DonorEmail,
		DonationType:  in.DonationType,
		PaymentMethod: in.PaymentMethod,
		Source:        model.DonationSourceOffline,
		Message:       in.Message,
		IsAnonymous:   in.IsAnonymous,
	}

	amount, err := util.ParseAmount(in.Amount)
	if err != nil || amount <= 0 {
		errs["amount"] = "Enter an amount greater than zero"
	}
	out.AmountCents = amount

	if !in.IsAnonymous {
		requireField(errs, "donor_name", in.DonorName, "Donor name")
	}
	checkEmail(errs, "donor_email", in.DonorEmail)
	if !model.Contains(model.DonationTypes, in.DonationType) {
		errs["donation_type"] = "Choose a donation type"
	}
	if !model.Contains(model.PaymentMethods, in.PaymentMethod) {
		errs["payment_method"] = "Choose a payment method"
	}

	if in.CampaignID != "" {
		out.CampaignID = util.ParseNullInt64Positive(in.CampaignID)
		if !out.CampaignID.Valid {
			errs["campaign_id"] = "Choose a valid campaign"
		}
	}
	return out, errs
}

// Create handles POST /admin/donations. Offline donations may be recorded
// against campaigns that are not currently open.
func (h *DonationsHandler) Create(w http.ResponseWriter, r *http.Request) {
	if !parseFormOrRedirect(w, r, h.renderer, redirectAdminDonationsNew) {
		return
	}

	in := DonationInput{
		DonorName:     formText(r, "donor_name"),
		DonorEmail:    strings.TrimSpace(r.FormValue("donor_email")),
		Amount:        strings.TrimSpace(r.FormValue("amount")),
		DonationType:  r.FormValue("donation_type"),
		PaymentMethod: r.FormValue("payment_method"),
		Message:       formText(r, "message"),
		IsAnonymous:   formBool(r, "is_anonymous"),
		CampaignID:    strings.TrimSpace(r.FormValue("campaign_id")),
	}

	record, errs := in.validate()
	if len(errs) > 0 {
		h.renderForm(w, r, in, errs)
		return
	}

	adminID := middleware.GetAdminID(r)
	if adminID > 0 {
		record.RecordedBy = util.NullInt64FromValue(adminID)
	}

	donation, err := h.ledger.Record(r.Context(), record)
	switch {
	case err == nil:
	case errors.Is(err, service.ErrCampaignNotFound):
		h.renderForm(w, r, in, map[string]string{"campaign_id": "Campaign not found"})
		return
	case errors.Is(err, service.ErrBelowMinimum):
		h.renderForm(w, r, in, map[string]string{"amount": "Amount is below the campaign minimum"})
		return
	case errors.Is(err, service.ErrInvalidAmount):
		h.renderForm(w, r, in, map[string]string{"amount": "Enter an amount greater than zero"})
		return
	default:
		slog.Error("failed to record donation", "error", err)
		h.renderer.SetFlash(r, genericSaveError, flashTypeError)
		h.renderForm(w, r, in, nil)
		return
	}

	slog.Info("donation recorded", "donation_id", donation.ID, "amount_cents", donation.AmountCents,
		"campaign_id", donation.CampaignID.Int64, "recorded_by", adminID)
	logActivity(r, h.activity, model.ActivityCategoryDonation, "Offline donation recorded: "+util.FormatCents(donation.AmountCents),
		map[string]any{"donation_id": donation.ID, "amount_cents": donation.AmountCents})
	flashSuccess(w, r, h.renderer, redirectAdminDonations, "Donation recorded successfully")
}

// Reassign handles POST /admin/donations/{id}/reassign. An empty
// campaign_id detaches the donation from its campaign.
func (h *DonationsHandler) Reassign(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDOrRedirect(w, r, h.renderer, redirectAdminDonations, "donation")
	if !ok {
		return
	}
	if !parseFormOrRedirect(w, r, h.renderer, redirectAdminDonations) {
		return
	}

	var target sql.NullInt64
	if raw := strings.TrimSpace(r.FormValue("campaign_id")); raw != "" {
		target = util.ParseNullInt64Positive(raw)
		if !target.Valid {
			flashError(w, r, h.renderer, redirectAdminDonations, "Invalid campaign")
			return
		}
	}

	donation, err := h.ledger.Reassign(r.Context(), id, target)
	switch {
	case err == nil:
	case errors.Is(err, service.ErrDonationNotFound):
		flashError(w, r, h.renderer, redirectAdminDonations, "Donation not found")
		return
	case errors.Is(err, service.ErrCampaignNotFound):
		flashError(w, r, h.renderer, redirectAdminDonations, "Campaign not found")
		return
	default:
		slog.Error("failed to reassign donation", "error", err, "donation_id", id)
		flashError(w, r, h.renderer, redirectAdminDonations, genericSaveError)
		return
	}

	slog.Info("donation reassigned", "donation_id", donation.ID, "campaign_id", target.Int64, "by", middleware.GetAdminID(r))
	logActivity(r, h.activity, model.ActivityCategoryDonation, "Donation reassigned",
		map[string]any{"donation_id": donation.ID, "campaign_id": target.Int64})
	flashSuccess(w, r, h.renderer, redirectAdminDonations, "Donation reassigned")
}

// Delete handles POST /admin/donations/{id}/delete and DELETE /admin/donations/{id}.
func (h *DonationsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDOrRedirect(w, r, h.renderer, redirectAdminDonations, "donation")
	if !ok {
		return
	}

	donation, err := h.ledger.Delete(r.Context(), id)
	if errors.Is(err, service.ErrDonationNotFound) {
		flashError(w, r, h.renderer, redirectAdminDonations, "Donation not found")
		return
	}
	if err != nil {
		slog.Error("failed to delete donation", "error", err, "donation_id", id)
		flashError(w, r, h.renderer, redirectAdminDonations, "Error deleting donation")
		return
	}

	slog.Info("donation deleted", "donation_id", donation.ID, "amount_cents", donation.AmountCents, "deleted_by", middleware.GetAdminID(r))
	logActivity(r, h.activity, model.ActivityCategoryDonation, "Donation deleted: "+util.FormatCents(donation.AmountCents),
		map[string]any{"donation_id": donation.ID, "amount_cents": donation.AmountCents})
	flashSuccess(w, r, h.renderer, redirectAdminDonations, "Donation deleted successfully")
}

func (h *DonationsHandler) renderForm(w http.ResponseWriter, r *http.Request, in DonationInput, errs map[string]string) {
	campaigns, err := h.queries.ListAllCampaigns(r.Context())
	if err != nil {
		logAndInternalError(w, "failed to list campaigns", "error", err)
		return
	}
	renderPage(w, r, h.renderer, "admin/donation_form", render.TemplateData{
		Title: "Record Donation",
		Data: DonationFormData{
			Form:           in,
			Campaigns:      campaigns,
			DonationTypes:  model.DonationTypes,
			PaymentMethods: model.PaymentMethods,
		},
		Errors: errs,
	})
}
