// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package session configures the admin cookie session, stored in the
// sessions table so sign-ins survive restarts.
package session

import (
	"database/sql"
	"net/http"
	"time"

	"github.com/alexedwards/scs/sqlite3store"
	"github.com/alexedwards/scs/v2"
)

// Session lifetimes. An idle session expires before its absolute lifetime.
const (
	Lifetime    = 24 * time.Hour
	IdleTimeout = 2 * time.Hour
)

// Cookie names. The __Host- prefix needs a Secure cookie, so development
// over plain HTTP uses the bare name.
const (
	CookieName       = "ochurch_session"
	SecureCookieName = "__Host-" + CookieName
)

// New returns a session manager persisting to db.
func New(db *sql.DB, isDev bool) *scs.SessionManager {
	sm := scs.New()
	sm.Store = sqlite3store.New(db)
	sm.Lifetime = Lifetime
	sm.IdleTimeout = IdleTimeout

	sm.Cookie.Name = CookieName
	sm.Cookie.HttpOnly = true
	sm.Cookie.SameSite = http.SameSiteLaxMode
	sm.Cookie.Path = "/"
	sm.Cookie.Persist = true
	if !isDev {
		sm.Cookie.Secure = true
		sm.Cookie.Name = SecureCookieName
	}

	return sm
}
