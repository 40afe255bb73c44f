// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package legacy

import (
	"database/sql"
	"encoding/json"
	"strings"
	"time"

	"github.com/olegiv/ochurch/internal/model"
	"github.com/olegiv/ochurch/internal/util"
)

// timestampLayouts are tried in order. MySQL returns DATETIME as the first
// form unless the DSN sets parseTime, in which case values arrive as RFC 3339.
var timestampLayouts = []string{
	"2006-01-02 15:04:05",
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	util.DateLayout,
}

// parseTimestamp reads a DATETIME column, falling back to def for NULL,
// zero dates and garbage.
func parseTimestamp(ns sql.NullString, def time.Time) time.Time {
	s := strings.TrimSpace(ns.String)
	if !ns.Valid || s == "" || strings.HasPrefix(s, "0000-00-00") {
		return def
	}
	for _, layout := range timestampLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t.UTC()
		}
	}
	return def
}

// normalizeDate returns the YYYY-MM-DD part of a DATE or DATETIME column, or
// "" when it is missing or invalid.
func normalizeDate(ns sql.NullString) string {
	s := strings.TrimSpace(ns.String)
	if len(s) < len(util.DateLayout) {
		return ""
	}
	s = s[:len(util.DateLayout)]
	if !util.IsValidDate(s) || s == "0000-00-00" {
		return ""
	}
	return s
}

// dateOr is normalizeDate with the date of fallback when the column is empty.
func dateOr(ns sql.NullString, fallback time.Time) string {
	if d := normalizeDate(ns); d != "" {
		return d
	}
	return fallback.Format(util.DateLayout)
}

// normalizeTime turns a TIME value such as "19:30:00" into "19:30".
func normalizeTime(ns sql.NullString) string {
	s := strings.TrimSpace(ns.String)
	if len(s) > len(util.TimeLayout) {
		s = s[:len(util.TimeLayout)]
	}
	if !util.IsValidTime(s) {
		return ""
	}
	return s
}

// text returns the trimmed plain text of a nullable column.
func text(ns sql.NullString) string {
	return util.SanitizeText(ns.String)
}

// httpURL keeps only http and https links.
func httpURL(ns sql.NullString) string {
	s := strings.TrimSpace(ns.String)
	if !util.IsHTTPURL(s) {
		return ""
	}
	return s
}

// imagePath converts a stored upload reference like "/uploads/sermons/a.jpg"
// into the relative form kept in the store. The files themselves are not
// copied.
func imagePath(ns sql.NullString) string {
	s := strings.TrimSpace(ns.String)
	s = strings.TrimPrefix(s, "/")
	s = strings.TrimPrefix(s, "uploads/")
	if s == "" {
		return ""
	}
	cleaned, err := util.CleanRelativePath(s)
	if err != nil {
		return ""
	}
	return cleaned
}

// legacySlug keeps a valid stored slug and derives one from the title otherwise.
func legacySlug(slug, title string) string {
	slug = strings.ToLower(strings.TrimSpace(slug))
	if util.IsValidSlug(slug) {
		return slug
	}
	return util.Slugify(title)
}

// parseList reads either a JSON string array or a comma separated list.
func parseList(s string) []string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	var list []string
	if strings.HasPrefix(s, "[") && json.Unmarshal([]byte(s), &list) == nil {
		return list
	}
	list = nil
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			list = append(list, part)
		}
	}
	return list
}

// decimalCents converts a DECIMAL column such as "1200.5000" into cents.
// Digits past the second decimal place must be zero.
func decimalCents(s string) (int64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	if whole, frac, ok := strings.Cut(s, "."); ok && len(frac) > 2 {
		if strings.Trim(frac[2:], "0") != "" {
			return 0, false
		}
		s = whole + "." + frac[:2]
	}
	cents, err := util.ParseAmount(s)
	if err != nil {
		return 0, false
	}
	return cents, true
}

// legacyRoles maps the previous site's role names. Anything unknown becomes
// a viewer.
var legacyRoles = map[string]string{
	"super_admin":     model.RoleSuperAdmin,
	"superadmin":      model.RoleSuperAdmin,
	"admin":           model.RoleAdmin,
	"administrator":   model.RoleAdmin,
	"content_manager": model.RoleContentManager,
	"editor":          model.RoleContentManager,
	"viewer":          model.RoleViewer,
}

func mapRole(role string) string {
	if r, ok := legacyRoles[strings.ToLower(strings.TrimSpace(role))]; ok {
		return r
	}
	return model.RoleViewer
}
