// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"database/sql"
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

// EventsHandler handles event management routes.
type EventsHandler struct {
	queries  *store.Queries
	renderer *render.Renderer
	uploader *service.Uploader
	activity *service.ActivityService
}

// NewEventsHandler creates a new EventsHandler.
func NewEventsHandler(db *sql.DB, renderer *render.Renderer, uploader *service.Uploader) *EventsHandler {
	return &EventsHandler{
		queries:  store.New(db),
		renderer: renderer,
		uploader: uploader,
		activity: service.NewActivityService(db),
	}
}

// EventsListData holds data for the events list template.
type EventsListData struct {
	Events     []store.Event
	Pagination AdminPagination
}

// EventInput holds submitted event form values.
type EventInput struct {
	Title           string
	EventDate       string
	EndDate         string
	StartTime       string
	EndTime         string
	Location        string
	Description     string
	RegistrationURL string
	ContactName     string
	ContactEmail    string
	ContactPhone    string
	IsFeatured      bool
}

// EventFormData holds data for the event form template.
type EventFormData struct {
	Event  *store.Event
	Form   EventInput
	IsEdit bool
}

func eventInputFromRequest(r *http.Request) EventInput {
	return EventInput{
		Title:           formText(r, "title"),
		EventDate:       strings.TrimSpace(r.FormValue("event_date")),
		EndDate:         strings.TrimSpace(r.FormValue("end_date")),
		StartTime:       strings.TrimSpace(r.FormValue("start_time")),
		EndTime:         strings.TrimSpace(r.FormValue("end_time")),
		Location:        formText(r, "location"),
		Description:     formText(r, "description"),
		RegistrationURL: strings.TrimSpace(r.FormValue("registration_url")),
		ContactName:     formText(r, "contact_name"),
		ContactEmail:    strings.TrimSpace(r.FormValue("contact_email")),
		ContactPhone:    formText(r, "contact_phone"),
		IsFeatured:      formBool(r, "is_featured"),
	}
}

func eventInputFromRow(e store.Event) EventInput {
	return EventInput{
		Title:           e.Title,
		EventDate:       e.EventDate,
		EndDate:         e.EndDate,
		StartTime:       e.StartTime,
		EndTime:         e.EndTime,
		Location:        e.Location,
		Description:     e.Description,
		RegistrationURL: e.RegistrationUrl,
		ContactName:     e.ContactName,
		ContactEmail:    e.ContactEmail,
		ContactPhone:    e.ContactPhone,
		IsFeatured:      e.IsFeatured,
	}
}

// Validate checks required fields and the date and time ordering. An end
// time must follow the start time when the event ends on the day it starts.
func (in EventInput) Validate() map[string]string {
	errs := make(map[string]string)
	requireField(errs, "title", in.Title, "Title")
	requireField(errs, "event_date", in.EventDate, "Date")
	checkDate(errs, "event_date", in.EventDate)
	checkDate(errs, "end_date", in.EndDate)
	checkTime(errs, "start_time", in.StartTime)
	checkTime(errs, "end_time", in.EndTime)
	checkURL(errs, "registration_url", in.RegistrationURL)
	checkEmail(errs, "contact_email", in.ContactEmail)

	if _, bad := errs["end_date"]; !bad && in.EndDate != "" && in.EventDate != "" && in.EndDate < in.EventDate {
		errs["end_date"] = "End date cannot be before the start date"
	}

	sameDay := in.EndDate == "" || in.EndDate == in.EventDate
	_, badStart := errs["start_time"]
	_, badEnd := errs["end_time"]
	if sameDay && !badStart && !badEnd && in.StartTime != "" && in.EndTime != "" && in.EndTime <= in.StartTime {
		errs["end_time"] = "End time must be after the start time"
	}
	return errs
}

// List handles GET /admin/events.
func (h *EventsHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	total, err := h.queries.CountEvents(ctx)
	if err != nil {
		logAndInternalError(w, "failed to count events", "error", err)
		return
	}
	_, offset, pagination := pageWindow(r, total, adminPerPage, redirectAdminEvents)

	events, err := h.queries.ListEvents(ctx, store.ListEventsParams{Limit: adminPerPage, Offset: offset})
	if err != nil {
		logAndInternalError(w, "failed to list events", "error", err)
		return
	}

	renderPage(w, r, h.renderer, "admin/events_list", render.TemplateData{
		Title: "Events",
		Data:  EventsListData{Events: events, Pagination: pagination},
	})
}

// NewForm handles GET /admin/events/new.
func (h *EventsHandler) NewForm(w http.ResponseWriter, r *http.Request) {
	h.renderForm(w, r, EventFormData{}, nil)
}

// Create handles POST /admin/events.
func (h *EventsHandler) Create(w http.ResponseWriter, r *http.Request) {
	if !parseMultipartOrRedirect(w, r, h.renderer, h.uploader, redirectAdminEventsNew) {
		return
	}

	in := eventInputFromRequest(r)
	errs := in.Validate()
	img := processImage(r, h.uploader, errs, "", service.UploadDirEvents, in.Title)
	if len(errs) > 0 {
		h.renderForm(w, r, EventFormData{Form: in}, errs)
		return
	}

	now := util.Now()
	event, err := h.queries.CreateEvent(r.Context(), store.CreateEventParams{
		Title:           in.Title,
		EventDate:       in.EventDate,
		EndDate:         in.EndDate,
		StartTime:       in.StartTime,
		EndTime:         in.EndTime,
		Location:        in.Location,
		Description:     in.Description,
		ImagePath:       img.path,
		RegistrationUrl: in.RegistrationURL,
		ContactName:     in.ContactName,
		ContactEmail:    in.ContactEmail,
		ContactPhone:    in.ContactPhone,
		IsFeatured:      in.IsFeatured,
		CreatedAt:       now,
		UpdatedAt:       now,
	})
	if err != nil {
		img.rollback(h.uploader)
		slog.Error("failed to create event", "error", err)
		h.renderer.SetFlash(r, genericSaveError, flashTypeError)
		h.renderForm(w, r, EventFormData{Form: in}, nil)
		return
	}

	slog.Info("event created", "event_id", event.ID, "created_by", middleware.GetAdminID(r))
	logActivity(r, h.activity, model.ActivityCategoryContent, "Event created: "+event.Title, map[string]any{"event_id": event.ID})
	flashSuccess(w, r, h.renderer, redirectAdminEvents, "Event created successfully")
}

// EditForm handles GET /admin/events/{id}.
func (h *EventsHandler) EditForm(w http.ResponseWriter, r *http.Request) {
	event, ok := h.requireEvent(w, r)
	if !ok {
		return
	}
	h.renderForm(w, r, EventFormData{Event: &event, Form: eventInputFromRow(event), IsEdit: true}, nil)
}

// Update handles POST|PUT /admin/events/{id}.
func (h *EventsHandler) Update(w http.ResponseWriter, r *http.Request) {
	event, ok := h.requireEvent(w, r)
	if !ok {
		return
	}
	editURL := fmt.Sprintf(redirectAdminEventsID, event.ID)
	if !parseMultipartOrRedirect(w, r, h.renderer, h.uploader, editURL) {
		return
	}

	in := eventInputFromRequest(r)
	errs := in.Validate()
	img := processImage(r, h.uploader, errs, event.ImagePath, service.UploadDirEvents, in.Title)
	if len(errs) > 0 {
		h.renderForm(w, r, EventFormData{Event: &event, Form: in, IsEdit: true}, errs)
		return
	}

	_, err := h.queries.UpdateEvent(r.Context(), store.UpdateEventParams{
		Title:           in.Title,
		EventDate:       in.EventDate,
		EndDate:         in.EndDate,
		StartTime:       in.StartTime,
		EndTime:         in.EndTime,
		Location:        in.Location,
		Description:     in.Description,
		ImagePath:       img.path,
		RegistrationUrl: in.RegistrationURL,
		ContactName:     in.ContactName,
		ContactEmail:    in.ContactEmail,
		ContactPhone:    in.ContactPhone,
		IsFeatured:      in.IsFeatured,
		UpdatedAt:       util.Now(),
		ID:              event.ID,
	})
	if err != nil {
		img.rollback(h.uploader)
		slog.Error("failed to update event", "error", err, "event_id", event.ID)
		flashError(w, r, h.renderer, editURL, genericSaveError)
		return
	}
	img.commit(h.uploader)

	slog.Info("event updated", "event_id", event.ID, "updated_by", middleware.GetAdminID(r))
	logActivity(r, h.activity, model.ActivityCategoryContent, "Event updated: "+in.Title, map[string]any{"event_id": event.ID})
	flashSuccess(w, r, h.renderer, redirectAdminEvents, "Event updated successfully")
}

// Delete handles POST /admin/events/{id}/delete and DELETE /admin/events/{id}.
func (h *EventsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	event, ok := h.requireEvent(w, r)
	if !ok {
		return
	}

	if err := h.queries.DeleteEvent(r.Context(), event.ID); err != nil {
		slog.Error("failed to delete event", "error", err, "event_id", event.ID)
		flashError(w, r, h.renderer, redirectAdminEvents, "Error deleting event")
		return
	}
	h.uploader.Remove(event.ImagePath)

	slog.Info("event deleted", "event_id", event.ID, "deleted_by", middleware.GetAdminID(r))
	logActivity(r, h.activity, model.ActivityCategoryContent, "Event deleted: "+event.Title, map[string]any{"event_id": event.ID})
	flashSuccess(w, r, h.renderer, redirectAdminEvents, "Event deleted successfully")
}

// ToggleFeatured handles POST /admin/events/{id}/toggle-featured.
func (h *EventsHandler) ToggleFeatured(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDOrRedirect(w, r, h.renderer, redirectAdminEvents, "event")
	if !ok {
		return
	}
	event, ok := requireEntityWithRedirect(w, r, h.renderer, redirectAdminEvents, "Event", id,
		func(id int64) (store.Event, error) { return h.queries.ToggleEventFeatured(r.Context(), util.Now(), id) })
	if !ok {
		return
	}

	msg := "Event removed from featured"
	if event.IsFeatured {
		msg = "Event marked as featured"
	}
	logActivity(r, h.activity, model.ActivityCategoryContent, msg+": "+event.Title, map[string]any{"event_id": event.ID})
	flashSuccess(w, r, h.renderer, redirectAdminEvents, msg)
}

func (h *EventsHandler) requireEvent(w http.ResponseWriter, r *http.Request) (store.Event, bool) {
	id, ok := parseIDOrRedirect(w, r, h.renderer, redirectAdminEvents, "event")
	if !ok {
		return store.Event{}, false
	}
	return requireEntityWithRedirect(w, r, h.renderer, redirectAdminEvents, "Event", id,
		func(id int64) (store.Event, error) { return h.queries.GetEventByID(r.Context(), id) })
}

func (h *EventsHandler) renderForm(w http.ResponseWriter, r *http.Request, data EventFormData, errs map[string]string) {
	title := "New Event"
	if data.IsEdit {
		title = "Edit Event"
	}
	renderPage(w, r, h.renderer, "admin/event_form", render.TemplateData{
		Title:  title,
		Data:   data,
		Errors: errs,
	})
}
