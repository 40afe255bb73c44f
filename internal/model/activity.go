// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

// Activity levels
const (
	ActivityLevelInfo    = "info"
	ActivityLevelWarning = "warning"
	ActivityLevelError   = "error"
)

// Activity categories
const (
	ActivityCategoryAuth     = "auth"
	ActivityCategoryContent  = "content"
	ActivityCategoryDonation = "donation"
	ActivityCategoryUser     = "user"
	ActivityCategorySettings = "settings"
	ActivityCategorySecurity = "security"
	ActivityCategorySystem   = "system"
)

// ActivityCategories lists the filterable categories.
var ActivityCategories = []string{
	ActivityCategoryAuth,
	ActivityCategoryContent,
	ActivityCategoryDonation,
	ActivityCategoryUser,
	ActivityCategorySettings,
	ActivityCategorySecurity,
	ActivityCategorySystem,
}
