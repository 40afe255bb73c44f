// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"

	"github.com/olegiv/ochurch/internal/cache"
	"github.com/olegiv/ochurch/internal/config"
	"github.com/olegiv/ochurch/internal/handler"
	"github.com/olegiv/ochurch/internal/legacy"
	"github.com/olegiv/ochurch/internal/logging"
	"github.com/olegiv/ochurch/internal/mail"
	"github.com/olegiv/ochurch/internal/middleware"
	"github.com/olegiv/ochurch/internal/model"
	"github.com/olegiv/ochurch/internal/render"
	"github.com/olegiv/ochurch/internal/scheduler"
	"github.com/olegiv/ochurch/internal/service"
	"github.com/olegiv/ochurch/internal/session"
	"github.com/olegiv/ochurch/internal/store"
	"github.com/olegiv/ochurch/internal/version"
	"github.com/olegiv/ochurch/web"
)

// Version information - injected at build time via ldflags
var (
	appVersion   = "dev"
	appGitCommit = "unknown"
	appBuildTime = "unknown"
)

// Cache lifetimes for served files.
const (
	staticMaxAge  = 31536000 // 1 year
	uploadsMaxAge = 604800   // 1 week
)

// contentRoutes holds the handlers of an admin content family.
type contentRoutes struct {
	List     http.HandlerFunc
	NewForm  http.HandlerFunc
	Create   http.HandlerFunc
	EditForm http.HandlerFunc
	Update   http.HandlerFunc
	Delete   http.HandlerFunc
	// Toggles maps a route suffix such as "/toggle-featured" to its handler.
	Toggles map[string]http.HandlerFunc
}

// contentPerms names the permission each action of a family requires.
type contentPerms struct {
	View, Create, Edit, Delete model.Permission
}

// registerContent registers list, create, edit, toggle and delete routes.
// Routes: GET /, GET /new, POST /, GET /{id}, POST /{id}, POST /{id}/<toggle>, POST /{id}/delete
func registerContent(r chi.Router, base string, h contentRoutes, p contentPerms) {
	baseID := base + handler.RouteParamID
	r.With(middleware.RequirePermission(p.View)).Get(base, h.List)
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequirePermission(p.Create))
		r.Get(base+handler.RouteSuffixNew, h.NewForm)
		r.Post(base, h.Create)
	})
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequirePermission(p.Edit))
		r.Get(baseID, h.EditForm)
		r.Post(baseID, h.Update) // HTML forms can't send PUT
		for suffix, fn := range h.Toggles {
			r.Post(baseID+suffix, fn)
		}
	})
	r.With(middleware.RequirePermission(p.Delete)).Post(baseID+handler.RouteSuffixDelete, h.Delete)
}

func main() {
	showVersion := flag.Bool("version", false, "Show version information")
	flag.BoolVar(showVersion, "v", false, "Show version information (shorthand)")
	showHelp := flag.Bool("help", false, "Show help information")
	flag.BoolVar(showHelp, "h", false, "Show help information (shorthand)")
	importLegacy := flag.String("import-legacy", "", "Import the previous site's MySQL database (DSN) and exit")

	flag.Usage = func() {
		_, _ = fmt.Fprintf(os.Stderr, "ochurch - church website and admin back-office\n\n")
		_, _ = fmt.Fprintf(os.Stderr, "Usage: %s [options]\n\n", os.Args[0])
		_, _ = fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		_, _ = fmt.Fprintf(os.Stderr, "\nEnvironment Variables:\n")
		_, _ = fmt.Fprintf(os.Stderr, "  OCHURCH_SESSION_SECRET    Session encryption key (required, min 32 bytes)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  OCHURCH_DB_PATH           SQLite database path (default: ./data/ochurch.db)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  OCHURCH_SERVER_PORT       Server port (default: 8080)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  OCHURCH_ENV               Environment: development|production (default: development)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  OCHURCH_UPLOADS_DIR       Uploaded images directory (default: ./uploads)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  OCHURCH_REDIS_URL         Redis URL for the settings cache (optional)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  OCHURCH_RESEND_API_KEY    Resend API key for outbound email (optional)\n")
		_, _ = fmt.Fprintf(os.Stderr, "\nExample legacy import:\n")
		_, _ = fmt.Fprintf(os.Stderr, "  %s -import-legacy \"user:pass@tcp(127.0.0.1:3306)/church\"\n", os.Args[0])
	}

	flag.Parse()

	if *showHelp {
		flag.Usage()
		os.Exit(0)
	}

	if *showVersion {
		_, _ = fmt.Printf("ochurch %s (commit: %s, built: %s)\n", appVersion, appGitCommit, appBuildTime)
		os.Exit(0)
	}

	if err := run(*importLegacy); err != nil {
		slog.Error("application error", "error", err)
		os.Exit(1)
	}
}

func run(legacyDSN string) error {
	// Load .env files if present (development)
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	versionInfo := version.Info{
		Version:   appVersion,
		GitCommit: appGitCommit,
		BuildTime: appBuildTime,
	}

	logLevel := slog.LevelInfo
	switch cfg.LogLevel {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	}

	textHandler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})
	logger := slog.New(textHandler)
	slog.SetDefault(logger)

	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0755); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}

	slog.Info("initializing database", "path", cfg.DBPath)
	db, err := store.NewDB(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("initializing database: %w", err)
	}
	defer func(db *sql.DB) {
		if err := db.Close(); err != nil {
			slog.Error("error closing database connection", "error", err)
		}
	}(db)

	slog.Info("running database migrations")
	if err := store.Migrate(db); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	slog.Info("database ready")

	// Mirror WARN and ERROR records into the activity log
	logger = slog.New(logging.NewActivityHandler(textHandler, db))
	slog.SetDefault(logger)

	ctx := context.Background()
	if err := store.Seed(ctx, db, cfg.AdminSeedPassword); err != nil {
		return fmt.Errorf("seeding database: %w", err)
	}

	if legacyDSN != "" {
		return importLegacy(ctx, db, logger, legacyDSN)
	}

	if err := middleware.SetTrustedProxies(cfg.TrustedProxies); err != nil {
		return fmt.Errorf("configuring trusted proxies: %w", err)
	}

	loc := time.Local

	sessionManager := session.New(db, cfg.IsDevelopment())
	slog.Info("session manager initialized")

	cacheBackend := cache.New(cache.Options{
		RedisURL:   cfg.RedisURL,
		Prefix:     cfg.CachePrefix,
		DefaultTTL: time.Duration(cfg.CacheTTL) * time.Second,
	})
	defer func() { _ = cacheBackend.Close() }()
	settingsCache := cache.NewSettingsCache(cacheBackend, store.New(db), time.Duration(cfg.CacheTTL)*time.Second)
	if _, err := settingsCache.All(ctx); err != nil {
		slog.Warn("failed to preload settings", "error", err)
	}

	templatesFS, err := fs.Sub(web.Templates, "templates")
	if err != nil {
		return fmt.Errorf("getting templates fs: %w", err)
	}
	renderer, err := render.New(render.Config{
		TemplatesFS:    templatesFS,
		SessionManager: sessionManager,
		IsDev:          cfg.IsDevelopment(),
	})
	if err != nil {
		return fmt.Errorf("initializing renderer: %w", err)
	}
	slog.Info("template renderer initialized")

	mailer := mail.New(cfg.ResendAPIKey, cfg.MailFrom)
	if mailer == nil {
		slog.Warn("no mail transport configured; password reset codes and contact notifications will not be emailed")
	}

	uploader := service.NewUploader(cfg.UploadsDir, cfg.MaxUploadSize())
	ledger := service.NewLedger(db, loc)
	activity := service.NewActivityService(db)
	resets := service.NewPasswordResetService(db, mailer, service.PasswordResetConfig{
		Expiry:        time.Duration(cfg.OTPExpiryMinutes) * time.Minute,
		MaxAttempts:   cfg.OTPMaxAttempts,
		DevDisclosure: cfg.OTPDevDisclosureEnabled(),
	})

	loginProtection := middleware.NewLoginProtection(middleware.LoginProtectionConfig{
		IPRateLimit: cfg.LoginRateLimit,
		IPBurst:     cfg.LoginRateBurst,
	})
	defer loginProtection.Stop()
	slog.Info("login protection initialized",
		"ip_rate_limit", cfg.LoginRateLimit,
		"ip_burst", cfg.LoginRateBurst,
	)

	contactLimiter := middleware.NewRateLimiter("contact", cfg.FormRateLimit, cfg.FormRateBurst)
	donateLimiter := middleware.NewRateLimiter("donate", cfg.FormRateLimit, cfg.FormRateBurst)
	resetLimiter := middleware.NewRateLimiter("forgot_password", cfg.FormRateLimit, cfg.FormRateBurst)

	sched := scheduler.New(db, logger, cfg.ActivityRetentionDays)
	if err := sched.Add("sweep_rate_limiters", "*/10 * * * *", func(context.Context) error {
		contactLimiter.Sweep()
		donateLimiter.Sweep()
		resetLimiter.Sweep()
		return nil
	}); err != nil {
		return fmt.Errorf("registering limiter sweep: %w", err)
	}
	if err := sched.Start(); err != nil {
		return fmt.Errorf("starting scheduler: %w", err)
	}
	defer sched.Stop()

	authHandler := handler.NewAuthHandler(db, renderer, sessionManager, loginProtection)
	resetHandler := handler.NewPasswordResetHandler(renderer, sessionManager, resets, activity)
	adminHandler := handler.NewAdminHandler(db, renderer, loc)
	profileHandler := handler.NewProfileHandler(db, renderer, sessionManager)
	sermonsHandler := handler.NewSermonsHandler(db, renderer, uploader)
	eventsHandler := handler.NewEventsHandler(db, renderer, uploader)
	announcementsHandler := handler.NewAnnouncementsHandler(db, renderer, loc)
	postsHandler := handler.NewPostsHandler(db, renderer, uploader, loc)
	campaignsHandler := handler.NewCampaignsHandler(db, renderer, uploader, ledger)
	donationsHandler := handler.NewDonationsHandler(db, renderer, ledger)
	messagesHandler := handler.NewMessagesHandler(db, renderer)
	usersHandler := handler.NewUsersHandler(db, renderer)
	settingsHandler := handler.NewSettingsHandler(db, renderer, uploader, settingsCache)
	activityHandler := handler.NewActivityHandler(db, renderer)
	healthHandler := handler.NewHealthHandler(db, cfg.UploadsDir, versionInfo)
	// Development copies are kept out of search indexes
	seoHandler := handler.NewSEOHandler(db, cfg.SiteURL, cfg.IsDevelopment(), loc)
	publicHandler := handler.NewPublicHandler(db, renderer, ledger, handler.PublicConfig{
		Mailer:      mailer,
		NotifyEmail: cfg.ContactNotifyEmail,
		Location:    loc,
	})

	csrfMiddleware := middleware.CSRF(middleware.DefaultCSRFConfig(
		[]byte(cfg.SessionSecret), cfg.IsDevelopment(), cfg.CSRFTrustedOrigins))
	slog.Info("CSRF protection initialized", "trusted_origins", len(cfg.CSRFTrustedOrigins))

	loadSettings := middleware.LoadSettings(settingsCache)

	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Compress(5))
	r.Use(chimw.GetHead)
	r.Use(chimw.Timeout(30 * time.Second))
	r.Use(chimw.StripSlashes)
	r.Use(middleware.SecurityHeaders(middleware.DefaultSecurityHeadersConfig(cfg.IsDevelopment())))
	r.Use(sessionManager.LoadAndSave)

	// Health check (details for admins who may read the activity log)
	r.With(middleware.LoadAdmin(sessionManager, db)).Get(handler.RouteHealth, healthHandler.Health)

	r.Get(handler.RouteRobots, seoHandler.Robots)
	r.Get(handler.RouteSitemap, seoHandler.Sitemap)

	staticFS, err := fs.Sub(web.Static, "static/dist")
	if err != nil {
		return fmt.Errorf("getting static fs: %w", err)
	}
	r.Handle("/static/*", middleware.StaticCache(staticMaxAge)(
		http.StripPrefix("/static/", http.FileServer(http.FS(staticFS)))))
	r.Handle(handler.UploadsURLPrefix+"*", middleware.StaticCache(uploadsMaxAge)(
		http.StripPrefix(handler.UploadsURLPrefix, http.FileServer(http.Dir(cfg.UploadsDir)))))

	// Public site
	r.Group(func(r chi.Router) {
		r.Use(csrfMiddleware)
		r.Use(loadSettings)

		r.Get(handler.RouteRoot, publicHandler.Home)
		r.Get(handler.RouteAbout, publicHandler.About)
		r.Get(handler.RouteServices, publicHandler.Services)
		r.Get(handler.RouteLive, publicHandler.Live)
		r.Get(handler.RouteContact, publicHandler.Contact)
		r.With(contactLimiter.Middleware()).Post(handler.RouteContact, publicHandler.SubmitContact)
		r.Get(handler.RouteDonate, publicHandler.Donate)
		r.With(donateLimiter.Middleware()).Post(handler.RouteDonate, publicHandler.SubmitDonation)
		r.Get(handler.RouteBlog, publicHandler.Blog)
		r.Get(handler.RouteBlog+handler.RouteParamSlug, publicHandler.BlogPost)
		r.Get(handler.RouteSermons, publicHandler.Sermons)
		r.Get(handler.RouteSermons+handler.RouteParamID, publicHandler.Sermon)
		r.Get(handler.RouteEvents, publicHandler.Events)
		r.Get(handler.RouteEvents+handler.RouteParamID, publicHandler.Event)
	})

	r.Route("/admin", func(r chi.Router) {
		r.Use(csrfMiddleware)
		r.Use(middleware.NoStore)

		// Sign-in and password reset (no session required)
		r.Group(func(r chi.Router) {
			r.Get(handler.RouteLogin, authHandler.LoginForm)
			r.With(loginProtection.Middleware()).Post(handler.RouteLogin, authHandler.Login)

			r.Get(handler.RouteForgotPassword, resetHandler.Show)
			r.With(resetLimiter.Middleware()).Post(handler.RouteForgotPassword, resetHandler.SubmitEmail)
			r.With(resetLimiter.Middleware()).Post(handler.RouteForgotPassword+"/verify", resetHandler.Verify)
			r.Post(handler.RouteForgotPassword+"/reset", resetHandler.Reset)
			r.Post(handler.RouteForgotPassword+"/cancel", resetHandler.Cancel)
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(sessionManager))
			r.Use(middleware.LoadAdmin(sessionManager, db))
			r.Use(loadSettings)

			r.Get(handler.RouteRoot, adminHandler.Dashboard)
			r.Post(handler.RouteLogout, authHandler.Logout)
			r.Get(handler.RouteProfile, profileHandler.Show)
			r.Post(handler.RouteProfile, profileHandler.Update)

			contentPermissions := contentPerms{
				View:   model.PermViewContent,
				Create: model.PermCreateContent,
				Edit:   model.PermEditContent,
				Delete: model.PermDeleteContent,
			}
			registerContent(r, handler.RouteSermons, contentRoutes{
				List: sermonsHandler.List, NewForm: sermonsHandler.NewForm, Create: sermonsHandler.Create,
				EditForm: sermonsHandler.EditForm, Update: sermonsHandler.Update, Delete: sermonsHandler.Delete,
				Toggles: map[string]http.HandlerFunc{"/toggle-featured": sermonsHandler.ToggleFeatured},
			}, contentPermissions)
			registerContent(r, handler.RouteEvents, contentRoutes{
				List: eventsHandler.List, NewForm: eventsHandler.NewForm, Create: eventsHandler.Create,
				EditForm: eventsHandler.EditForm, Update: eventsHandler.Update, Delete: eventsHandler.Delete,
				Toggles: map[string]http.HandlerFunc{"/toggle-featured": eventsHandler.ToggleFeatured},
			}, contentPermissions)
			registerContent(r, handler.RouteAnnouncements, contentRoutes{
				List: announcementsHandler.List, NewForm: announcementsHandler.NewForm, Create: announcementsHandler.Create,
				EditForm: announcementsHandler.EditForm, Update: announcementsHandler.Update, Delete: announcementsHandler.Delete,
				Toggles: map[string]http.HandlerFunc{"/toggle-active": announcementsHandler.ToggleActive},
			}, contentPermissions)
			registerContent(r, handler.RoutePosts, contentRoutes{
				List: postsHandler.List, NewForm: postsHandler.NewForm, Create: postsHandler.Create,
				EditForm: postsHandler.EditForm, Update: postsHandler.Update, Delete: postsHandler.Delete,
				Toggles: map[string]http.HandlerFunc{
					"/toggle-status":   postsHandler.ToggleStatus,
					"/toggle-homepage": postsHandler.ToggleHomepage,
				},
			}, contentPermissions)

			registerContent(r, handler.RouteCampaigns, contentRoutes{
				List: campaignsHandler.List, NewForm: campaignsHandler.NewForm, Create: campaignsHandler.Create,
				EditForm: campaignsHandler.EditForm, Update: campaignsHandler.Update, Delete: campaignsHandler.Delete,
				Toggles: map[string]http.HandlerFunc{
					"/toggle-active":   campaignsHandler.ToggleActive,
					"/toggle-featured": campaignsHandler.ToggleFeatured,
					"/recalculate":     campaignsHandler.Recalculate,
				},
			}, contentPerms{
				View:   model.PermViewDonations,
				Create: model.PermManageCampaigns,
				Edit:   model.PermManageCampaigns,
				Delete: model.PermManageCampaigns,
			})

			// Donations are recorded, reassigned and removed, never edited
			r.With(middleware.RequirePermission(model.PermViewDonations)).Get(handler.RouteDonations, donationsHandler.List)
			r.Group(func(r chi.Router) {
				r.Use(middleware.RequirePermission(model.PermManageDonations))
				r.Get(handler.RouteDonations+handler.RouteSuffixNew, donationsHandler.NewForm)
				r.Post(handler.RouteDonations, donationsHandler.Create)
				r.Post(handler.RouteDonations+handler.RouteParamID+"/reassign", donationsHandler.Reassign)
				r.Post(handler.RouteDonations+handler.RouteParamID+handler.RouteSuffixDelete, donationsHandler.Delete)
			})

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequirePermission(model.PermViewMessages))
				r.Get(handler.RouteMessages, messagesHandler.List)
				r.Get(handler.RouteMessages+handler.RouteParamID, messagesHandler.View)
				r.Post(handler.RouteMessages+handler.RouteParamID+"/read", messagesHandler.MarkRead)
				r.Post(handler.RouteMessages+handler.RouteParamID+handler.RouteSuffixDelete, messagesHandler.Delete)
			})

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequirePermission(model.PermEditSettings))
				r.Get(handler.RouteSettings, settingsHandler.Show)
				r.Post(handler.RouteSettings, settingsHandler.Update)
			})

			r.With(middleware.RequirePermission(model.PermViewActivity)).Get(handler.RouteActivity, activityHandler.List)

			registerContent(r, handler.RouteUsers, contentRoutes{
				List: usersHandler.List, NewForm: usersHandler.NewForm, Create: usersHandler.Create,
				EditForm: usersHandler.EditForm, Update: usersHandler.Update, Delete: usersHandler.Delete,
				Toggles: map[string]http.HandlerFunc{"/toggle-active": usersHandler.ToggleActive},
			}, contentPerms{
				View:   model.PermEditUsers,
				Create: model.PermCreateUsers,
				Edit:   model.PermEditUsers,
				Delete: model.PermDeleteUsers,
			})
		})
	})

	r.NotFound(loadSettings(http.HandlerFunc(publicHandler.NotFound)).ServeHTTP)

	srv := &http.Server{
		Addr:              cfg.ServerAddr(),
		Handler:           r,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      60 * time.Second, // Longer to allow for image uploads on slow connections
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	go func() {
		slog.Info("starting server", "addr", cfg.ServerAddr(), "env", cfg.Env, "version", versionInfo.String())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	// Let queued notification and reset emails go out
	publicHandler.Wait()
	resets.Wait()

	slog.Info("server stopped")
	return nil
}

// importLegacy copies the previous site's data into the database and exits.
func importLegacy(ctx context.Context, db *sql.DB, logger *slog.Logger, dsn string) error {
	reader, err := legacy.NewReader(ctx, dsn)
	if err != nil {
		return err
	}
	defer func() { _ = reader.Close() }()

	result, err := legacy.NewImporter(db, logger).Run(ctx, reader)
	if err != nil {
		return fmt.Errorf("importing legacy database: %w", err)
	}

	summary, _ := json.MarshalIndent(result, "", "  ")
	_, _ = fmt.Printf("Legacy import finished:\n%s\n", summary)
	if result.PasswordsReset > 0 {
		_, _ = fmt.Printf("%d account(s) need a password reset before they can sign in.\n", result.PasswordsReset)
	}
	return nil
}
