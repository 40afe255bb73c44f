// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package util

import (
	"time"
)

// Storage layouts for calendar dates and wall-clock times.
const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04"
)

// ParseDate parses a YYYY-MM-DD form value.
func ParseDate(s string) (time.Time, error) {
	return time.Parse(DateLayout, s)
}

// IsValidDate reports whether s is a valid YYYY-MM-DD date.
func IsValidDate(s string) bool {
	_, err := ParseDate(s)
	return err == nil
}

// IsValidTime reports whether s is a valid HH:MM time.
func IsValidTime(s string) bool {
	_, err := time.Parse(TimeLayout, s)
	return err == nil
}

// Today returns the current date in loc as YYYY-MM-DD.
func Today(loc *time.Location) string {
	if loc == nil {
		loc = time.Local
	}
	return time.Now().In(loc).Format(DateLayout)
}

// FormatDate renders a stored YYYY-MM-DD date for display, e.g. "Mar 5, 2026".
// Unparseable input is returned unchanged.
func FormatDate(s string) string {
	t, err := ParseDate(s)
	if err != nil {
		return s
	}
	return t.Format("Jan 2, 2006")
}

// FormatTime renders a stored HH:MM time as "3:04 PM". Unparseable input is returned unchanged.
func FormatTime(s string) string {
	t, err := time.Parse(TimeLayout, s)
	if err != nil {
		return s
	}
	return t.Format("3:04 PM")
}

// Now returns the current UTC time truncated to whole seconds, the
// resolution used for stored timestamps.
func Now() time.Time {
	return time.Now().UTC().Truncate(time.Second)
}
