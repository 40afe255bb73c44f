// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

// Route pattern constants for chi router registration.
const (
	// RouteRoot is the root path.
	RouteRoot = "/"
	// RouteSuffixNew is the suffix for "new" routes.
	RouteSuffixNew = "/new"
	// RouteSuffixDelete is the suffix for POST delete routes.
	RouteSuffixDelete = "/delete"

	// RouteParamID is the ID parameter pattern.
	RouteParamID = "/{id}"
	// RouteParamSlug is the slug parameter pattern.
	RouteParamSlug = "/{slug}"

	RouteLogin          = "/login"
	RouteLogout         = "/logout"
	RouteForgotPassword = "/forgot-password"
	RouteProfile        = "/profile"
	RouteSettings       = "/settings"
	RouteMessages       = "/messages"
	RouteActivity       = "/activity"

	RouteSermons       = "/sermons"
	RouteEvents        = "/events"
	RouteAnnouncements = "/announcements"
	RoutePosts         = "/posts"
	RouteCampaigns     = "/campaigns"
	RouteDonations     = "/donations"
	RouteUsers         = "/users"

	RouteAbout    = "/about"
	RouteServices = "/services"
	RouteLive     = "/live"
	RouteContact  = "/contact"
	RouteDonate   = "/donate"
	RouteBlog     = "/blog"
	RouteHealth   = "/health"
	RouteUploads  = "/uploads"
	RouteRobots   = "/robots.txt"
	RouteSitemap  = "/sitemap.xml"
)

const (
	redirectAdmin                = "/admin"
	redirectLogin                = redirectAdmin + RouteLogin
	redirectForgotPassword       = redirectAdmin + RouteForgotPassword
	redirectAdminProfile         = redirectAdmin + RouteProfile
	redirectAdminSettings        = redirectAdmin + RouteSettings
	redirectAdminMessages        = redirectAdmin + RouteMessages
	redirectAdminActivity        = redirectAdmin + RouteActivity
	redirectAdminSermons         = redirectAdmin + RouteSermons
	redirectAdminSermonsNew      = redirectAdminSermons + RouteSuffixNew
	redirectAdminEvents          = redirectAdmin + RouteEvents
	redirectAdminEventsNew       = redirectAdminEvents + RouteSuffixNew
	redirectAdminAnnouncements   = redirectAdmin + RouteAnnouncements
	redirectAdminAnnouncementNew = redirectAdminAnnouncements + RouteSuffixNew
	redirectAdminPosts           = redirectAdmin + RoutePosts
	redirectAdminPostsNew        = redirectAdminPosts + RouteSuffixNew
	redirectAdminCampaigns       = redirectAdmin + RouteCampaigns
	redirectAdminCampaignsNew    = redirectAdminCampaigns + RouteSuffixNew
	redirectAdminDonations       = redirectAdmin + RouteDonations
	redirectAdminDonationsNew    = redirectAdminDonations + RouteSuffixNew
	redirectAdminUsers           = redirectAdmin + RouteUsers
	redirectAdminUsersNew        = redirectAdminUsers + RouteSuffixNew

	redirectAdminSermonsID   = redirectAdminSermons + "/%d"
	redirectAdminEventsID    = redirectAdminEvents + "/%d"
	redirectAdminPostsID     = redirectAdminPosts + "/%d"
	redirectAdminCampaignsID = redirectAdminCampaigns + "/%d"
	redirectAdminUsersID     = redirectAdminUsers + "/%d"
)

// Page sizes.
const (
	adminPerPage    = 20
	activityPerPage = 50
	publicPerPage   = 9
	homeListLimit   = 3
)

// UploadsURLPrefix is the public URL prefix of stored uploads.
const UploadsURLPrefix = RouteUploads + "/"

// HeaderContentType is the Content-Type header name.
const HeaderContentType = "Content-Type"
