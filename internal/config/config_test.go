// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package config

import (
	"os"
	"strings"
	"testing"
)

const testSecret = "test-secret-key-32-bytes-long!!!"

func setEnv(t *testing.T, key, value string) {
	t.Helper()
	if err := os.Setenv(key, value); err != nil {
		t.Fatalf("failed to set %s: %v", key, err)
	}
}

func TestLoad_Defaults(t *testing.T) {
	os.Clearenv()
	setEnv(t, "OCHURCH_SESSION_SECRET", testSecret)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.DBPath != "./data/ochurch.db" {
		t.Errorf("DBPath = %q, want %q", cfg.DBPath, "./data/ochurch.db")
	}
	if cfg.ServerPort != 8080 {
		t.Errorf("ServerPort = %d, want %d", cfg.ServerPort, 8080)
	}
	if cfg.Env != "development" {
		t.Errorf("Env = %q, want %q", cfg.Env, "development")
	}
	if cfg.OTPMaxAttempts != 3 {
		t.Errorf("OTPMaxAttempts = %d, want 3", cfg.OTPMaxAttempts)
	}
	if cfg.OTPExpiryMinutes != 10 {
		t.Errorf("OTPExpiryMinutes = %d, want 10", cfg.OTPExpiryMinutes)
	}
	if cfg.MaxUploadSize() != 5<<20 {
		t.Errorf("MaxUploadSize() = %d, want %d", cfg.MaxUploadSize(), 5<<20)
	}
	if cfg.OTPDevDisclosure {
		t.Error("OTPDevDisclosure should default to false")
	}
}

func TestLoad_CustomValues(t *testing.T) {
	os.Clearenv()
	setEnv(t, "OCHURCH_SESSION_SECRET", testSecret)
	setEnv(t, "OCHURCH_DB_PATH", "/custom/path.db")
	setEnv(t, "OCHURCH_SERVER_HOST", "0.0.0.0")
	setEnv(t, "OCHURCH_SERVER_PORT", "3000")
	setEnv(t, "OCHURCH_ENV", "production")
	setEnv(t, "OCHURCH_TRUSTED_PROXIES", "10.0.0.0/8,192.168.0.0/16")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.DBPath != "/custom/path.db" {
		t.Errorf("DBPath = %q, want %q", cfg.DBPath, "/custom/path.db")
	}
	if cfg.ServerAddr() != "0.0.0.0:3000" {
		t.Errorf("ServerAddr() = %q, want %q", cfg.ServerAddr(), "0.0.0.0:3000")
	}
	if cfg.IsDevelopment() {
		t.Error("IsDevelopment() = true for production")
	}
	if len(cfg.TrustedProxies) != 2 {
		t.Errorf("TrustedProxies = %v, want 2 entries", cfg.TrustedProxies)
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr string
	}{
		{
			name:    "missing secret",
			env:     map[string]string{},
			wantErr: "OCHURCH_SESSION_SECRET",
		},
		{
			name:    "short secret",
			env:     map[string]string{"OCHURCH_SESSION_SECRET": "short"},
			wantErr: "at least 32 bytes",
		},
		{
			name:    "known weak secret",
			env:     map[string]string{"OCHURCH_SESSION_SECRET": "change-me-to-32-byte-secret-key!"},
			wantErr: "known default",
		},
		{
			name:    "bad env",
			env:     map[string]string{"OCHURCH_SESSION_SECRET": testSecret, "OCHURCH_ENV": "staging"},
			wantErr: "OCHURCH_ENV",
		},
		{
			name:    "zero attempts",
			env:     map[string]string{"OCHURCH_SESSION_SECRET": testSecret, "OCHURCH_OTP_MAX_ATTEMPTS": "0"},
			wantErr: "OCHURCH_OTP_MAX_ATTEMPTS",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			os.Clearenv()
			for k, v := range tt.env {
				setEnv(t, k, v)
			}

			_, err := Load()
			if err == nil {
				t.Fatal("Load() expected error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %q, want it to contain %q", err.Error(), tt.wantErr)
			}
		})
	}
}

func TestOTPDevDisclosureEnabled(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		want bool
	}{
		{"flag off", Config{Env: "development"}, false},
		{"flag on in development", Config{Env: "development", OTPDevDisclosure: true}, true},
		{"flag on in production", Config{Env: "production", OTPDevDisclosure: true}, false},
		{"flag on with mail configured", Config{Env: "development", OTPDevDisclosure: true, ResendAPIKey: "re_x"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.cfg.OTPDevDisclosureEnabled(); got != tt.want {
				t.Errorf("OTPDevDisclosureEnabled() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestHasMinimumEntropy(t *testing.T) {
	if hasMinimumEntropy("aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa") {
		t.Error("single character class should fail")
	}
	if !hasMinimumEntropy(testSecret) {
		t.Error("mixed secret should pass")
	}
}
