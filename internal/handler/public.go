// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/olegiv/ochurch/internal/mail"
	"github.com/olegiv/ochurch/internal/middleware"
	"github.com/olegiv/ochurch/internal/model"
	"github.com/olegiv/ochurch/internal/render"
	"github.com/olegiv/ochurch/internal/service"
	"github.com/olegiv/ochurch/internal/store"
	"github.com/olegiv/ochurch/internal/util"
)

const notifyTimeout = 15 * time.Second

// PublicConfig holds the optional collaborators of the public site.
type PublicConfig struct {
	Mailer      mail.Sender // nil disables contact notifications
	NotifyEmail string
	Location    *time.Location
}

// PublicHandler serves the public website.
type PublicHandler struct {
	queries     *store.Queries
	renderer    *render.Renderer
	ledger      *service.Ledger
	mailer      mail.Sender
	notifyEmail string
	location    *time.Location
	wg          sync.WaitGroup
}

// NewPublicHandler creates a new PublicHandler.
func NewPublicHandler(db *sql.DB, renderer *render.Renderer, ledger *service.Ledger, cfg PublicConfig) *PublicHandler {
	loc := cfg.Location
	if loc == nil {
		loc = time.Local
	}
	return &PublicHandler{
		queries:     store.New(db),
		renderer:    renderer,
		ledger:      ledger,
		mailer:      cfg.Mailer,
		notifyEmail: cfg.NotifyEmail,
		location:    loc,
	}
}

// Wait blocks until pending notification emails have been handed to the mailer.
func (h *PublicHandler) Wait() {
	h.wg.Wait()
}

// HomeData holds data for the home page.
type HomeData struct {
	Announcements []store.Announcement
	Events        []store.Event
	Sermons       []store.Sermon
	Campaigns     []store.Campaign
	Posts         []store.Post
}

// PageData holds data for settings-driven pages.
type PageData struct {
	Posts []store.Post
}

// ContactInput holds submitted contact form values.
type ContactInput struct {
	Name    string
	Email   string
	Phone   string
	Subject string
	Message string
}

// ContactPageData holds data for the contact page.
type ContactPageData struct {
	Posts []store.Post
	Form  ContactInput
}

// DonateCampaign is a campaign shown on the donate page.
type DonateCampaign struct {
	store.Campaign
	Suggested []int64
}

// DonateInput holds submitted donation form values.
type DonateInput struct {
	DonorName    string
	DonorEmail   string
	Amount       string
	DonationType string
	Message      string
	IsAnonymous  bool
	CampaignSlug string
}

// DonatePageData holds data for the donate page.
type DonatePageData struct {
	Campaigns     []DonateCampaign
	Posts         []store.Post
	Form          DonateInput
	DonationTypes []string
}

// BlogListData holds data for the blog index.
type BlogListData struct {
	Posts      []store.Post
	Pagination AdminPagination
}

// SermonsPageData holds data for the public sermon archive.
type SermonsPageData struct {
	Sermons    []store.Sermon
	Search     string
	Pagination AdminPagination
}

// EventsPageData holds data for the upcoming events page.
type EventsPageData struct {
	Events     []store.Event
	Pagination AdminPagination
}

// Home handles GET /.
func (h *PublicHandler) Home(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	today := util.Today(h.location)
	data := HomeData{}
	var err error

	if data.Announcements, err = h.queries.ListActiveAnnouncements(ctx, 5); err != nil {
		logAndInternalError(w, "failed to list announcements", "error", err)
		return
	}
	if data.Events, err = h.queries.ListUpcomingEvents(ctx, store.ListUpcomingEventsParams{Today: today, Limit: homeListLimit}); err != nil {
		logAndInternalError(w, "failed to list upcoming events", "error", err)
		return
	}
	if data.Sermons, err = h.queries.ListRecentSermons(ctx, homeListLimit); err != nil {
		logAndInternalError(w, "failed to list sermons", "error", err)
		return
	}
	if data.Campaigns, err = h.queries.ListFeaturedCampaigns(ctx, today, homeListLimit); err != nil {
		logAndInternalError(w, "failed to list featured campaigns", "error", err)
		return
	}
	if data.Posts, err = h.queries.ListPublishedPostsForPage(ctx, model.PageHome, homeListLimit); err != nil {
		logAndInternalError(w, "failed to list home posts", "error", err)
		return
	}

	renderPage(w, r, h.renderer, "public/home", render.TemplateData{Data: data})
}

// About handles GET /about.
func (h *PublicHandler) About(w http.ResponseWriter, r *http.Request) {
	h.settingsPage(w, r, model.PageAbout, "public/about", "About Us")
}

// Services handles GET /services.
func (h *PublicHandler) Services(w http.ResponseWriter, r *http.Request) {
	h.settingsPage(w, r, model.PageServices, "public/services", "Services")
}

// Live handles GET /live.
func (h *PublicHandler) Live(w http.ResponseWriter, r *http.Request) {
	h.settingsPage(w, r, model.PageLive, "public/live", "Watch Live")
}

func (h *PublicHandler) settingsPage(w http.ResponseWriter, r *http.Request, page, tmpl, title string) {
	posts, err := h.queries.ListPublishedPostsForPage(r.Context(), page, homeListLimit)
	if err != nil {
		logAndInternalError(w, "failed to list page posts", "error", err, "page", page)
		return
	}
	renderPage(w, r, h.renderer, tmpl, render.TemplateData{Title: title, Data: PageData{Posts: posts}})
}

// Contact handles GET /contact.
func (h *PublicHandler) Contact(w http.ResponseWriter, r *http.Request) {
	h.renderContact(w, r, ContactInput{}, nil)
}

// SubmitContact handles POST /contact.
func (h *PublicHandler) SubmitContact(w http.ResponseWriter, r *http.Request) {
	if !parseFormOrRedirect(w, r, h.renderer, RouteContact) {
		return
	}

	in := ContactInput{
		Name:    formText(r, "name"),
		Email:   strings.TrimSpace(r.FormValue("email")),
		Phone:   formText(r, "phone"),
		Subject: formText(r, "subject"),
		Message: formText(r, "message"),
	}

	errs := make(map[string]string)
	requireField(errs, "name", in.Name, "Name")
	requireField(errs, "email", in.Email, "Email")
	checkEmail(errs, "email", in.Email)
	requireField(errs, "message", in.Message, "Message")
	if len(in.Message) > 5000 {
		errs["message"] = "Message is too long"
	}
	if len(errs) > 0 {
		h.renderContact(w, r, in, errs)
		return
	}

	msg, err := h.queries.CreateContactMessage(r.Context(), store.CreateContactMessageParams{
		Name:      in.Name,
		Email:     in.Email,
		Phone:     in.Phone,
		Subject:   in.Subject,
		Message:   in.Message,
		IpAddress: middleware.ClientIP(r),
		CreatedAt: util.Now(),
	})
	if err != nil {
		slog.Error("failed to store contact message", "error", err)
		h.renderer.SetFlash(r, "Your message could not be sent. Please try again.", flashTypeError)
		h.renderContact(w, r, in, nil)
		return
	}
	slog.Info("contact message received", "message_id", msg.ID)

	h.notifyContact(r, in)
	flashSuccess(w, r, h.renderer, RouteContact, "Thank you! Your message has been sent.")
}

// notifyContact mails the configured staff address in the background.
// Delivery failures are logged only; the message is already stored.
func (h *PublicHandler) notifyContact(r *http.Request, in ContactInput) {
	if h.mailer == nil || h.notifyEmail == "" {
		return
	}
	site := middleware.GetSettings(r)[model.SettingSiteName]
	msg, err := mail.ContactNotification(site, h.notifyEmail, mail.ContactInfo{
		Name:    in.Name,
		Email:   in.Email,
		Phone:   in.Phone,
		Subject: in.Subject,
		Body:    in.Message,
	})
	if err != nil {
		slog.Error("failed to build contact notification", "error", err)
		return
	}

	ctx := r.Context()
	h.wg.Add(1)
	go func() {
		defer h.wg.Done()
		sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), notifyTimeout)
		defer cancel()
		if _, err := h.mailer.Send(sendCtx, msg); err != nil {
			slog.Warn("failed to send contact notification", "error", err)
		}
	}()
}

func (h *PublicHandler) renderContact(w http.ResponseWriter, r *http.Request, in ContactInput, errs map[string]string) {
	posts, err := h.queries.ListPublishedPostsForPage(r.Context(), model.PageContact, homeListLimit)
	if err != nil {
		logAndInternalError(w, "failed to list page posts", "error", err, "page", model.PageContact)
		return
	}
	renderPage(w, r, h.renderer, "public/contact", render.TemplateData{
		Title:  "Contact Us",
		Data:   ContactPageData{Posts: posts, Form: in},
		Errors: errs,
	})
}

// Donate handles GET /donate. ?campaign=<slug> preselects a campaign.
func (h *PublicHandler) Donate(w http.ResponseWriter, r *http.Request) {
	h.renderDonate(w, r, DonateInput{
		DonationType: model.DonationTypeOneTime,
		CampaignSlug: r.URL.Query().Get("campaign"),
	}, nil)
}

// SubmitDonation handles POST /donate and records an online pledge.
func (h *PublicHandler) SubmitDonation(w http.ResponseWriter, r *http.Request) {
	if !parseFormOrRedirect(w, r, h.renderer, RouteDonate) {
		return
	}
	ctx := r.Context()

	in := DonateInput{
		DonorName:    formText(r, "donor_name"),
		DonorEmail:   strings.TrimSpace(r.FormValue("donor_email")),
		Amount:       strings.TrimSpace(r.FormValue("amount")),
		DonationType: r.FormValue("donation_type"),
		Message:      formText(r, "message"),
		IsAnonymous:  formBool(r, "is_anonymous"),
		CampaignSlug: strings.TrimSpace(r.FormValue("campaign_slug")),
	}

	errs := make(map[string]string)
	amount, err := util.ParseAmount(in.Amount)
	if err != nil || amount <= 0 {
		errs["amount"] = "Enter an amount greater than zero"
	}
	if !in.IsAnonymous {
		requireField(errs, "donor_name", in.DonorName, "Name")
	}
	requireField(errs, "donor_email", in.DonorEmail, "Email")
	checkEmail(errs, "donor_email", in.DonorEmail)
	if !model.Contains(model.DonationTypes, in.DonationType) {
		errs["donation_type"] = "Choose a donation type"
	}

	var campaignID sql.NullInt64
	if in.CampaignSlug != "" {
		campaign, err := h.queries.GetVisibleCampaignBySlug(ctx, util.Today(h.location), in.CampaignSlug)
		switch {
		case errors.Is(err, sql.ErrNoRows):
			errs["campaign_slug"] = "This campaign is not accepting donations"
		case err != nil:
			logAndInternalError(w, "failed to load campaign", "error", err, "slug", in.CampaignSlug)
			return
		default:
			campaignID = util.NullInt64FromValue(campaign.ID)
		}
	}

	if len(errs) > 0 {
		h.renderDonate(w, r, in, errs)
		return
	}

	donation, err := h.ledger.Record(ctx, service.DonationInput{
		DonorName:     in.DonorName,
		DonorEmail:    in.DonorEmail,
		AmountCents:   amount,
		DonationType:  in.DonationType,
		PaymentMethod: model.PaymentOnline,
		Source:        model.DonationSourceOnline,
		Message:       in.Message,
		IsAnonymous:   in.IsAnonymous,
		CampaignID:    campaignID,
	})
	switch {
	case err == nil:
	case errors.Is(err, service.ErrBelowMinimum):
		h.renderDonate(w, r, in, map[string]string{"amount": "Amount is below the minimum for this campaign"})
		return
	case errors.Is(err, service.ErrCampaignClosed), errors.Is(err, service.ErrCampaignNotFound):
		h.renderDonate(w, r, in, map[string]string{"campaign_slug": "This campaign is not accepting donations"})
		return
	default:
		slog.Error("failed to record online donation", "error", err)
		h.renderer.SetFlash(r, "Your donation could not be recorded. Please try again.", flashTypeError)
		h.renderDonate(w, r, in, nil)
		return
	}

	slog.Info("online donation recorded", "donation_id", donation.ID, "amount_cents", donation.AmountCents,
		"campaign_id", donation.CampaignID.Int64)
	flashSuccess(w, r, h.renderer, RouteDonate, "Thank you for your generosity! Your donation has been recorded.")
}

func (h *PublicHandler) renderDonate(w http.ResponseWriter, r *http.Request, in DonateInput, errs map[string]string) {
	ctx := r.Context()
	campaigns, err := h.queries.ListVisibleCampaigns(ctx, util.Today(h.location))
	if err != nil {
		logAndInternalError(w, "failed to list campaigns", "error", err)
		return
	}
	posts, err := h.queries.ListPublishedPostsForPage(ctx, model.PageDonate, homeListLimit)
	if err != nil {
		logAndInternalError(w, "failed to list page posts", "error", err, "page", model.PageDonate)
		return
	}

	data := DonatePageData{Posts: posts, Form: in, DonationTypes: model.DonationTypes}
	for _, c := range campaigns {
		suggested, err := model.ParseSuggestedAmounts(c.SuggestedAmounts)
		if err != nil {
			slog.Warn("ignoring malformed suggested amounts", "campaign_id", c.ID, "error", err)
		}
		data.Campaigns = append(data.Campaigns, DonateCampaign{Campaign: c, Suggested: suggested})
	}

	renderPage(w, r, h.renderer, "public/donate", render.TemplateData{
		Title:  "Give",
		Data:   data,
		Errors: errs,
	})
}

// Blog handles GET /blog.
func (h *PublicHandler) Blog(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	total, err := h.queries.CountPublishedPosts(ctx)
	if err != nil {
		logAndInternalError(w, "failed to count posts", "error", err)
		return
	}
	_, offset, pagination := pageWindow(r, total, publicPerPage, RouteBlog)

	posts, err := h.queries.ListPublishedPosts(ctx, store.ListPublishedPostsParams{Limit: publicPerPage, Offset: offset})
	if err != nil {
		logAndInternalError(w, "failed to list posts", "error", err)
		return
	}

	renderPage(w, r, h.renderer, "public/blog", render.TemplateData{
		Title: "Blog",
		Data:  BlogListData{Posts: posts, Pagination: pagination},
	})
}

// BlogPost handles GET /blog/{slug}. Drafts are not found.
func (h *PublicHandler) BlogPost(w http.ResponseWriter, r *http.Request) {
	post, err := h.queries.GetPublishedPostBySlug(r.Context(), chi.URLParam(r, "slug"))
	if errors.Is(err, sql.ErrNoRows) {
		h.NotFound(w, r)
		return
	}
	if err != nil {
		logAndInternalError(w, "failed to load post", "error", err)
		return
	}
	renderPage(w, r, h.renderer, "public/post", render.TemplateData{Title: post.Title, Data: post})
}

// Sermons handles GET /sermons.
func (h *PublicHandler) Sermons(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	search := strings.TrimSpace(r.URL.Query().Get("q"))

	total, err := h.queries.CountSermons(ctx, search)
	if err != nil {
		logAndInternalError(w, "failed to count sermons", "error", err)
		return
	}
	_, offset, pagination := pageWindow(r, total, publicPerPage, RouteSermons)

	sermons, err := h.queries.ListSermons(ctx, store.ListSermonsParams{Search: search, Limit: publicPerPage, Offset: offset})
	if err != nil {
		logAndInternalError(w, "failed to list sermons", "error", err)
		return
	}

	renderPage(w, r, h.renderer, "public/sermons", render.TemplateData{
		Title: "Sermons",
		Data:  SermonsPageData{Sermons: sermons, Search: search, Pagination: pagination},
	})
}

// Sermon handles GET /sermons/{id}.
func (h *PublicHandler) Sermon(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		h.NotFound(w, r)
		return
	}
	sermon, err := h.queries.GetSermonByID(r.Context(), id)
	if errors.Is(err, sql.ErrNoRows) {
		h.NotFound(w, r)
		return
	}
	if err != nil {
		logAndInternalError(w, "failed to load sermon", "error", err)
		return
	}
	renderPage(w, r, h.renderer, "public/sermon", render.TemplateData{Title: sermon.Title, Data: sermon})
}

// Events handles GET /events and lists events that have not ended.
func (h *PublicHandler) Events(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	today := util.Today(h.location)

	total, err := h.queries.CountUpcomingEvents(ctx, today)
	if err != nil {
		logAndInternalError(w, "failed to count events", "error", err)
		return
	}
	_, offset, pagination := pageWindow(r, total, publicPerPage, RouteEvents)

	events, err := h.queries.ListUpcomingEvents(ctx, store.ListUpcomingEventsParams{Today: today, Limit: publicPerPage, Offset: offset})
	if err != nil {
		logAndInternalError(w, "failed to list events", "error", err)
		return
	}

	renderPage(w, r, h.renderer, "public/events", render.TemplateData{
		Title: "Events",
		Data:  EventsPageData{Events: events, Pagination: pagination},
	})
}

// Event handles GET /events/{id}.
func (h *PublicHandler) Event(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		h.NotFound(w, r)
		return
	}
	event, err := h.queries.GetEventByID(r.Context(), id)
	if errors.Is(err, sql.ErrNoRows) {
		h.NotFound(w, r)
		return
	}
	if err != nil {
		logAndInternalError(w, "failed to load event", "error", err)
		return
	}
	renderPage(w, r, h.renderer, "public/event", render.TemplateData{Title: event.Title, Data: event})
}

// NotFound renders the public 404 page.
func (h *PublicHandler) NotFound(w http.ResponseWriter, r *http.Request) {
	renderStatus(w, r, h.renderer, http.StatusNotFound, "public/404", render.TemplateData{Title: "Page not found"})
}
