// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import "encoding/json"

// Post statuses
const (
	PostStatusDraft     = "draft"
	PostStatusPublished = "published"
)

// Public page keys a post can target.
const (
	PageHome     = "home"
	PageAbout    = "about"
	PageServices = "services"
	PageDonate   = "donate"
	PageContact  = "contact"
	PageLive     = "live"
	PageBlog     = "blog"
)

// TargetPages lists the pages a post may be shown on.
var TargetPages = []string{PageHome, PageAbout, PageServices, PageDonate, PageContact, PageLive, PageBlog}

// IsTargetPage reports whether page is a known public page key.
func IsTargetPage(page string) bool {
	return Contains(TargetPages, page)
}

// EncodeTargetPages serializes a page list for storage, keeping only known pages.
func EncodeTargetPages(pages []string) string {
	kept := make([]string, 0, len(pages))
	seen := make(map[string]bool, len(pages))
	for _, p := range pages {
		if IsTargetPage(p) && !seen[p] {
			kept = append(kept, p)
			seen[p] = true
		}
	}
	b, _ := json.Marshal(kept)
	return string(b)
}

// DecodeTargetPages parses a stored page list. Invalid input yields nil.
func DecodeTargetPages(s string) []string {
	var pages []string
	if err := json.Unmarshal([]byte(s), &pages); err != nil {
		return nil
	}
	return pages
}

// Donation types
const (
	DonationTypeOneTime  = "one_time"
	DonationTypeTithe    = "tithe"
	DonationTypeOffering = "offering"
	DonationTypePledge   = "pledge"
)

// DonationTypes lists the accepted donation types.
var DonationTypes = []string{DonationTypeOneTime, DonationTypeTithe, DonationTypeOffering, DonationTypePledge}

// Payment methods
const (
	PaymentCash         = "cash"
	PaymentCheck        = "check"
	PaymentCard         = "card"
	PaymentBankTransfer = "bank_transfer"
	PaymentOnline       = "online"
)

// PaymentMethods lists the accepted payment methods.
var PaymentMethods = []string{PaymentCash, PaymentCheck, PaymentCard, PaymentBankTransfer, PaymentOnline}

// Donation sources
const (
	DonationSourceOnline  = "online"
	DonationSourceOffline = "offline"
)

// Password reset states
const (
	ResetStateRequested = "requested"
	ResetStateVerified  = "verified"
	ResetStateConsumed  = "consumed"
)

// Contains reports whether list holds value.
func Contains(list []string, value string) bool {
	for _, v := range list {
		if v == value {
			return true
		}
	}
	return false
}
