// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/olegiv/ochurch/internal/util"
)

// SlugExistsFunc reports whether slug is taken by another row.
type SlugExistsFunc func(slug string) (bool, error)

// ValidateSlugWithChecker validates an explicitly entered slug.
// Returns an error message string if validation fails, or empty string if valid.
func ValidateSlugWithChecker(slug string, checkExists SlugExistsFunc) string {
	if msg := ValidateSlugFormat(slug); msg != "" {
		return msg
	}
	exists, err := checkExists(slug)
	if err != nil {
		slog.Error("database error checking slug", "error", err)
		return "Error checking slug"
	}
	if exists {
		return "Slug already exists"
	}
	return ""
}

// ValidateSlugFormat validates only the slug format without checking existence.
func ValidateSlugFormat(slug string) string {
	if slug == "" {
		return "Slug is required"
	}
	if !util.IsValidSlug(slug) {
		return "Invalid slug format (use lowercase letters, numbers, and hyphens)"
	}
	return ""
}

// resolveSlug returns the slug to store. An explicit slug must be valid and
// free; an empty one is derived from title and disambiguated with "-N".
func resolveSlug(explicit, title string, checkExists SlugExistsFunc) (slug, errMsg string) {
	if explicit != "" {
		return explicit, ValidateSlugWithChecker(explicit, checkExists)
	}

	base := util.Slugify(title)
	if base == "" {
		return "", "Slug could not be derived from the title"
	}
	slug, err := util.UniqueSlug(base, checkExists)
	if err != nil {
		slog.Error("failed to derive slug", "error", err, "base", base)
		return base, "Error checking slug"
	}
	return slug, ""
}

// formText returns a sanitized plain text form value.
func formText(r *http.Request, key string) string {
	return util.SanitizeText(r.FormValue(key))
}

// formBool reports whether a checkbox was ticked.
func formBool(r *http.Request, key string) bool {
	switch strings.ToLower(r.FormValue(key)) {
	case "on", "1", "true", "yes":
		return true
	}
	return false
}

// requireField records a "<label> is required" error when value is empty.
func requireField(errs map[string]string, key, value, label string) {
	if value == "" {
		errs[key] = label + " is required"
	}
}

// checkDate validates an optional YYYY-MM-DD value.
func checkDate(errs map[string]string, key, value string) {
	if value != "" && !util.IsValidDate(value) {
		errs[key] = "Enter a valid date (YYYY-MM-DD)"
	}
}

// checkTime validates an optional HH:MM value.
func checkTime(errs map[string]string, key, value string) {
	if value != "" && !util.IsValidTime(value) {
		errs[key] = "Enter a valid time (HH:MM)"
	}
}

// checkURL validates an optional http(s) URL.
func checkURL(errs map[string]string, key, value string) {
	if value != "" && !util.IsHTTPURL(value) {
		errs[key] = "Enter a valid http or https URL"
	}
}

// checkEmail validates an optional email address.
func checkEmail(errs map[string]string, key, value string) {
	if value != "" && !util.IsValidEmail(value) {
		errs[key] = "Enter a valid email address"
	}
}
