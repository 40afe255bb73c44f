// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import "testing"

func TestEncodeTargetPages(t *testing.T) {
	got := EncodeTargetPages([]string{PageAbout, "bogus", PageHome, PageAbout})
	if got != `["about","home"]` {
		t.Errorf("EncodeTargetPages() = %s", got)
	}
	if EncodeTargetPages(nil) != "[]" {
		t.Errorf("EncodeTargetPages(nil) = %s, want []", EncodeTargetPages(nil))
	}
}

func TestDecodeTargetPages(t *testing.T) {
	pages := DecodeTargetPages(`["live","blog"]`)
	if len(pages) != 2 || pages[0] != PageLive || pages[1] != PageBlog {
		t.Errorf("DecodeTargetPages() = %v", pages)
	}
	if DecodeTargetPages("not json") != nil {
		t.Error("DecodeTargetPages(invalid) should be nil")
	}
}

func TestSettingsLists(t *testing.T) {
	hours, err := ParseOfficeHours(`[{"day":"Mon","hours":"9-5"}]`)
	if err != nil || len(hours) != 1 || hours[0].Day != "Mon" {
		t.Fatalf("ParseOfficeHours() = %v, %v", hours, err)
	}
	if _, err := ParseSocialLinks("{broken"); err == nil {
		t.Error("ParseSocialLinks(invalid) expected error")
	}
	if EncodeJSONList([]SocialLink{}) != "[]" {
		t.Error("EncodeJSONList(empty) should be []")
	}
	if got := EncodeJSONList(hours); got != `[{"day":"Mon","hours":"9-5"}]` {
		t.Errorf("EncodeJSONList() = %s", got)
	}
}
