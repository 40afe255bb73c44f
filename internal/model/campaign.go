// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import (
	"database/sql"
	"fmt"
	"strconv"
	"strings"
)

// Progress returns the share of goal raised as a percentage capped at 100.
// ok is false for open-ended campaigns (no goal or a non-positive goal).
func Progress(currentCents int64, goalCents sql.NullInt64) (pct float64, ok bool) {
	if !goalCents.Valid || goalCents.Int64 <= 0 {
		return 0, false
	}
	pct = float64(currentCents) / float64(goalCents.Int64) * 100
	if pct > 100 {
		pct = 100
	}
	if pct < 0 {
		pct = 0
	}
	return pct, true
}

// ParseSuggestedAmounts parses a comma-separated list of whole currency
// amounts such as "25, 50, 100". Empty input yields nil.
func ParseSuggestedAmounts(s string) ([]int64, error) {
	var amounts []int64
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		n, err := strconv.ParseInt(part, 10, 64)
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("invalid suggested amount %q", part)
		}
		amounts = append(amounts, n)
	}
	return amounts, nil
}

// FormatSuggestedAmounts renders amounts back to the stored form.
func FormatSuggestedAmounts(amounts []int64) string {
	parts := make([]string, len(amounts))
	for i, a := range amounts {
		parts[i] = strconv.FormatInt(a, 10)
	}
	return strings.Join(parts, ",")
}
