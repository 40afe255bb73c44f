// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package render

import (
	"database/sql"
	"fmt"
	"html/template"
	"log/slog"
	"time"

	"github.com/olegiv/ochurch/internal/model"
	"github.com/olegiv/ochurch/internal/store"
	"github.com/olegiv/ochurch/internal/util"
)

func templateFuncs() template.FuncMap {
	return template.FuncMap{
		"formatDate":     util.FormatDate,
		"formatTime":     util.FormatTime,
		"formatDateTime": formatDateTime,
		"formatNullTime": formatNullTime,
		"formatCents":    util.FormatCents,
		"money":          money,
		"progress":       progress,
		"hasGoal":        hasGoal,
		"markdown":       markdown,
		"trustedHTML":    trustedHTML,
		"truncate":       truncate,
		"nullString":     nullString,
		"nullInt":        nullInt,
		"can":            can,
		"roleLabel":      model.RoleLabel,
		"contains":       model.Contains,
		"officeHours":    officeHours,
		"socialLinks":    socialLinks,
		"add":            func(a, b int) int { return a + b },
		"sub":            func(a, b int) int { return a - b },
	}
}

func formatDateTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("Jan 2, 2006 3:04 PM")
}

func formatNullTime(t sql.NullTime) string {
	if !t.Valid {
		return ""
	}
	return formatDateTime(t.Time)
}

// money renders cents with the site's currency symbol, e.g. "$12.50".
func money(symbol string, cents int64) string {
	return symbol + util.FormatCents(cents)
}

// progress returns the campaign percentage rounded for a progress bar width.
func progress(current int64, goal sql.NullInt64) string {
	pct, ok := model.Progress(current, goal)
	if !ok {
		return "0"
	}
	return fmt.Sprintf("%.0f", pct)
}

func hasGoal(goal sql.NullInt64) bool {
	_, ok := model.Progress(0, goal)
	return ok
}

// markdown renders description fields. Output is sanitized by util.RenderMarkdown.
func markdown(s string) template.HTML {
	out, err := util.RenderMarkdown(s)
	if err != nil {
		slog.Warn("rendering markdown", "error", err)
		return template.HTML(template.HTMLEscapeString(s))
	}
	return template.HTML(out)
}

// trustedHTML outputs post bodies, which are sanitized on write and again here.
func trustedHTML(s string) template.HTML {
	return template.HTML(util.SanitizeHTML(s))
}

func truncate(s string, length int) string {
	r := []rune(s)
	if len(r) <= length {
		return s
	}
	return string(r[:length]) + "..."
}

func nullString(s sql.NullString) string {
	if !s.Valid {
		return ""
	}
	return s.String
}

func nullInt(n sql.NullInt64) int64 {
	if !n.Valid {
		return 0
	}
	return n.Int64
}

// can reports whether admin holds the named permission. Used to hide
// actions the current role cannot perform.
func can(admin *store.Admin, perm string) bool {
	return admin != nil && model.HasPermission(admin.Role, model.Permission(perm))
}

func officeHours(s string) []model.OfficeHour {
	hours, err := model.ParseOfficeHours(s)
	if err != nil {
		slog.Warn("invalid office_hours setting", "error", err)
		return nil
	}
	return hours
}

func socialLinks(s string) []model.SocialLink {
	links, err := model.ParseSocialLinks(s)
	if err != nil {
		slog.Warn("invalid social_links setting", "error", err)
		return nil
	}
	return links
}
