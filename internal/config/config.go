// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package config

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/caarlos0/env/v11"
)

// knownWeakSecrets contains default/example secrets that must be rejected.
var knownWeakSecrets = []string{
	"change-me-to-32-byte-secret-key!",
	"REPLACE_WITH_YOUR_OWN_SECRET_KEY!",
}

// Config holds the application configuration loaded from environment variables.
type Config struct {
	DBPath        string `env:"OCHURCH_DB_PATH" envDefault:"./data/ochurch.db"`
	SessionSecret string `env:"OCHURCH_SESSION_SECRET,required"`
	ServerHost    string `env:"OCHURCH_SERVER_HOST" envDefault:"localhost"`
	ServerPort    int    `env:"OCHURCH_SERVER_PORT" envDefault:"8080"`
	Env           string `env:"OCHURCH_ENV" envDefault:"development"`
	LogLevel      string `env:"OCHURCH_LOG_LEVEL" envDefault:"info"`
	SiteURL       string `env:"OCHURCH_SITE_URL"` // Public base URL for robots.txt and sitemap.xml; derived from the request when empty

	// Uploads
	UploadsDir      string `env:"OCHURCH_UPLOADS_DIR" envDefault:"./uploads"`
	MaxUploadSizeMB int    `env:"OCHURCH_MAX_UPLOAD_MB" envDefault:"5"`

	// Cache configuration
	RedisURL    string `env:"OCHURCH_REDIS_URL"`                          // Optional Redis URL for the settings cache
	CachePrefix string `env:"OCHURCH_CACHE_PREFIX" envDefault:"ochurch:"` // Redis key prefix
	CacheTTL    int    `env:"OCHURCH_CACHE_TTL" envDefault:"300"`         // Settings cache TTL in seconds

	// Outbound email (Resend API)
	ResendAPIKey       string `env:"OCHURCH_RESEND_API_KEY"`
	MailFrom           string `env:"OCHURCH_MAIL_FROM" envDefault:"Church Office <office@localhost>"`
	ContactNotifyEmail string `env:"OCHURCH_CONTACT_NOTIFY_EMAIL"`

	// Password reset
	OTPExpiryMinutes int `env:"OCHURCH_OTP_EXPIRY_MINUTES" envDefault:"10"`
	OTPMaxAttempts   int `env:"OCHURCH_OTP_MAX_ATTEMPTS" envDefault:"3"`
	// OTPDevDisclosure shows reset codes in the page when no mail transport is
	// configured. Honored only in development.
	OTPDevDisclosure bool `env:"OCHURCH_OTP_DEV_DISCLOSURE" envDefault:"false"`

	// Rate limiting (requests per second and burst, per client IP)
	LoginRateLimit float64 `env:"OCHURCH_LOGIN_RATE_LIMIT" envDefault:"0.5"`
	LoginRateBurst int     `env:"OCHURCH_LOGIN_RATE_BURST" envDefault:"5"`
	FormRateLimit  float64 `env:"OCHURCH_FORM_RATE_LIMIT" envDefault:"0.2"`
	FormRateBurst  int     `env:"OCHURCH_FORM_RATE_BURST" envDefault:"5"`

	TrustedProxies     []string `env:"OCHURCH_TRUSTED_PROXIES" envSeparator:","`
	CSRFTrustedOrigins []string `env:"OCHURCH_CSRF_TRUSTED_ORIGINS" envSeparator:","`

	ActivityRetentionDays int `env:"OCHURCH_ACTIVITY_RETENTION_DAYS" envDefault:"90"`

	// Seeding configuration
	AdminSeedPassword string `env:"OCHURCH_ADMIN_SEED_PASSWORD"` // Initial super admin password; random when empty
}

// IsDevelopment returns true if the application is running in development mode.
func (c Config) IsDevelopment() bool {
	return c.Env == "development"
}

// ServerAddr returns the full server address in host:port format.
func (c Config) ServerAddr() string {
	return fmt.Sprintf("%s:%d", c.ServerHost, c.ServerPort)
}

// UseRedisCache returns true if Redis caching is configured.
func (c Config) UseRedisCache() bool {
	return c.RedisURL != ""
}

// MailConfigured returns true if an email transport is available.
func (c Config) MailConfigured() bool {
	return c.ResendAPIKey != ""
}

// OTPDevDisclosureEnabled reports whether reset codes may be shown in the page.
// Requires the explicit flag, development mode and no mail transport.
func (c Config) OTPDevDisclosureEnabled() bool {
	return c.OTPDevDisclosure && c.IsDevelopment() && !c.MailConfigured()
}

// MaxUploadSize returns the upload limit in bytes.
func (c Config) MaxUploadSize() int64 {
	return int64(c.MaxUploadSizeMB) << 20
}

// MinSessionSecretLength is the minimum required length for the session secret.
const MinSessionSecretLength = 32

// Load parses environment variables and returns a Config struct.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	if !hasMinimumEntropy(cfg.SessionSecret) {
		slog.Warn("OCHURCH_SESSION_SECRET has low character diversity; " +
			"consider generating a random secret with: openssl rand -base64 32")
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if len(c.SessionSecret) < MinSessionSecretLength {
		return fmt.Errorf("OCHURCH_SESSION_SECRET must be at least %d bytes long, got %d bytes; "+
			"generate a secure secret with: openssl rand -base64 32",
			MinSessionSecretLength, len(c.SessionSecret))
	}

	for _, weak := range knownWeakSecrets {
		if c.SessionSecret == weak {
			return fmt.Errorf("OCHURCH_SESSION_SECRET is a known default value and must not be used; " +
				"generate a secure secret with: openssl rand -base64 32")
		}
	}

	switch c.Env {
	case "development", "production":
	default:
		return fmt.Errorf("OCHURCH_ENV must be development or production, got %q", c.Env)
	}

	if c.OTPMaxAttempts < 1 {
		return fmt.Errorf("OCHURCH_OTP_MAX_ATTEMPTS must be at least 1, got %d", c.OTPMaxAttempts)
	}
	if c.OTPExpiryMinutes < 1 {
		return fmt.Errorf("OCHURCH_OTP_EXPIRY_MINUTES must be at least 1, got %d", c.OTPExpiryMinutes)
	}
	if c.MaxUploadSizeMB < 1 {
		return fmt.Errorf("OCHURCH_MAX_UPLOAD_MB must be at least 1, got %d", c.MaxUploadSizeMB)
	}

	return nil
}

// hasMinimumEntropy checks that a secret contains at least 3 character classes
// (lowercase, uppercase, digits, special characters).
func hasMinimumEntropy(s string) bool {
	charTypes := 0
	if strings.ContainsAny(s, "abcdefghijklmnopqrstuvwxyz") {
		charTypes++
	}
	if strings.ContainsAny(s, "ABCDEFGHIJKLMNOPQRSTUVWXYZ") {
		charTypes++
	}
	if strings.ContainsAny(s, "0123456789") {
		charTypes++
	}
	if strings.ContainsAny(s, "!@#$%^&*()-_=+[]{}|;:,.<>?/~`'\"\\") {
		charTypes++
	}
	return charTypes >= 3
}
