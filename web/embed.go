// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package web bundles the html/template sources and the built CSS/JS into
// the binary so a deployment is a single file plus the database.
package web

import "embed"

// Templates holds layouts, partials and page templates, parsed by render.New.
//
//go:embed all:templates
var Templates embed.FS

// Static holds the files served under /static/.
//
//go:embed all:static/dist
var Static embed.FS
