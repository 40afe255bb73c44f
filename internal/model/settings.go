// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import "encoding/json"

// Site setting keys.
const (
	SettingSiteName       = "site_name"
	SettingTagline        = "tagline"
	SettingHeroTitle      = "hero_title"
	SettingHeroSubtitle   = "hero_subtitle"
	SettingHeroImage      = "hero_image"
	SettingAboutText      = "about_text"
	SettingServiceTimes   = "service_times"
	SettingAddress        = "address"
	SettingPhone          = "phone"
	SettingEmail          = "email"
	SettingLiveStreamURL  = "live_stream_url"
	SettingOfficeHours    = "office_hours"
	SettingSocialLinks    = "social_links"
	SettingDonateText     = "donate_text"
	SettingCurrencySymbol = "currency_symbol"
)

// DefaultSettings are inserted on first start when missing.
var DefaultSettings = map[string]string{
	SettingSiteName:       "Our Church",
	SettingTagline:        "A place to belong",
	SettingHeroTitle:      "Welcome Home",
	SettingHeroSubtitle:   "Join us this Sunday",
	SettingHeroImage:      "",
	SettingAboutText:      "",
	SettingServiceTimes:   "Sunday 10:00",
	SettingAddress:        "",
	SettingPhone:          "",
	SettingEmail:          "",
	SettingLiveStreamURL:  "",
	SettingOfficeHours:    "[]",
	SettingSocialLinks:    "[]",
	SettingDonateText:     "",
	SettingCurrencySymbol: "$",
}

// DefaultSettingsCopy returns a copy of DefaultSettings safe to modify.
func DefaultSettingsCopy() map[string]string {
	out := make(map[string]string, len(DefaultSettings))
	for k, v := range DefaultSettings {
		out[k] = v
	}
	return out
}

// TextSettingKeys are the plain text settings edited on the settings form, in display order.
var TextSettingKeys = []string{
	SettingSiteName,
	SettingTagline,
	SettingHeroTitle,
	SettingHeroSubtitle,
	SettingAboutText,
	SettingServiceTimes,
	SettingAddress,
	SettingPhone,
	SettingEmail,
	SettingLiveStreamURL,
	SettingDonateText,
	SettingCurrencySymbol,
}

// OfficeHour is one row of the office_hours setting.
type OfficeHour struct {
	Day   string `json:"day"`
	Hours string `json:"hours"`
}

// SocialLink is one row of the social_links setting.
type SocialLink struct {
	Platform string `json:"platform"`
	URL      string `json:"url"`
}

// ParseOfficeHours decodes the office_hours JSON list.
func ParseOfficeHours(s string) ([]OfficeHour, error) {
	var hours []OfficeHour
	if s == "" {
		return nil, nil
	}
	if err := json.Unmarshal([]byte(s), &hours); err != nil {
		return nil, err
	}
	return hours, nil
}

// ParseSocialLinks decodes the social_links JSON list.
func ParseSocialLinks(s string) ([]SocialLink, error) {
	var links []SocialLink
	if s == "" {
		return nil, nil
	}
	if err := json.Unmarshal([]byte(s), &links); err != nil {
		return nil, err
	}
	return links, nil
}

// EncodeJSONList serializes a settings list, writing [] for an empty one.
func EncodeJSONList[T any](items []T) string {
	if len(items) == 0 {
		return "[]"
	}
	b, err := json.Marshal(items)
	if err != nil {
		return "[]"
	}
	return string(b)
}
