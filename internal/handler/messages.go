// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"database/sql"
	"log/slog"
	"net/http"

	"github.com/olegiv/ochurch/internal/middleware"
	"github.com/olegiv/ochurch/internal/model"
	"github.com/olegiv/ochurch/internal/render"
	"github.com/olegiv/ochurch/internal/service"
	"github.com/olegiv/ochurch/internal/store"
)

// MessagesHandler handles the contact message inbox.
type MessagesHandler struct {
	queries  *store.Queries
	renderer *render.Renderer
	activity *service.ActivityService
}

// NewMessagesHandler creates a new MessagesHandler.
func NewMessagesHandler(db *sql.DB, renderer *render.Renderer) *MessagesHandler {
	return &MessagesHandler{
		queries:  store.New(db),
		renderer: renderer,
		activity: service.NewActivityService(db),
	}
}

// MessagesListData holds data for the inbox template.
type MessagesListData struct {
	Messages   []store.ContactMessage
	Unread     int64
	Pagination AdminPagination
}

// List handles GET /admin/messages.
func (h *MessagesHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	total, unread, err := h.queries.CountContactMessages(ctx)
	if err != nil {
		logAndInternalError(w, "failed to count messages", "error", err)
		return
	}
	_, offset, pagination := pageWindow(r, total, adminPerPage, redirectAdminMessages)

	messages, err := h.queries.ListContactMessages(ctx, store.ListContactMessagesParams{Limit: adminPerPage, Offset: offset})
	if err != nil {
		logAndInternalError(w, "failed to list messages", "error", err)
		return
	}

	renderPage(w, r, h.renderer, "admin/messages_list", render.TemplateData{
		Title: "Messages",
		Data:  MessagesListData{Messages: messages, Unread: unread, Pagination: pagination},
	})
}

// View handles GET /admin/messages/{id} and marks the message read.
func (h *MessagesHandler) View(w http.ResponseWriter, r *http.Request) {
	msg, ok := h.requireMessage(w, r)
	if !ok {
		return
	}

	if !msg.IsRead {
		if err := h.queries.MarkContactMessageRead(r.Context(), msg.ID); err != nil {
			slog.Error("failed to mark message read", "error", err, "message_id", msg.ID)
		} else {
			msg.IsRead = true
		}
	}

	renderPage(w, r, h.renderer, "admin/message_view", render.TemplateData{
		Title: msg.Subject,
		Data:  msg,
	})
}

// MarkRead handles POST /admin/messages/{id}/read.
func (h *MessagesHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	msg, ok := h.requireMessage(w, r)
	if !ok {
		return
	}
	if err := h.queries.MarkContactMessageRead(r.Context(), msg.ID); err != nil {
		slog.Error("failed to mark message read", "error", err, "message_id", msg.ID)
		flashError(w, r, h.renderer, redirectAdminMessages, genericSaveError)
		return
	}
	flashSuccess(w, r, h.renderer, redirectAdminMessages, "Message marked as read")
}

// Delete handles POST /admin/messages/{id}/delete and DELETE /admin/messages/{id}.
func (h *MessagesHandler) Delete(w http.ResponseWriter, r *http.Request) {
	msg, ok := h.requireMessage(w, r)
	if !ok {
		return
	}

	if err := h.queries.DeleteContactMessage(r.Context(), msg.ID); err != nil {
		slog.Error("failed to delete message", "error", err, "message_id", msg.ID)
		flashError(w, r, h.renderer, redirectAdminMessages, "Error deleting message")
		return
	}

	slog.Info("contact message deleted", "message_id", msg.ID, "deleted_by", middleware.GetAdminID(r))
	logActivity(r, h.activity, model.ActivityCategoryContent, "Contact message deleted from "+msg.Email,
		map[string]any{"message_id": msg.ID})
	flashSuccess(w, r, h.renderer, redirectAdminMessages, "Message deleted")
}

func (h *MessagesHandler) requireMessage(w http.ResponseWriter, r *http.Request) (store.ContactMessage, bool) {
	id, ok := parseIDOrRedirect(w, r, h.renderer, redirectAdminMessages, "message")
	if !ok {
		return store.ContactMessage{}, false
	}
	return requireEntityWithRedirect(w, r, h.renderer, redirectAdminMessages, "Message", id,
		func(id int64) (store.ContactMessage, error) { return h.queries.GetContactMessage(r.Context(), id) })
}
