// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import "testing"

func TestHasPermission(t *testing.T) {
	tests := []struct {
		name string
		role string
		perm Permission
		want bool
	}{
		{"viewer can view", RoleViewer, PermViewContent, true},
		{"viewer cannot create", RoleViewer, PermCreateContent, false},
		{"content manager creates", RoleContentManager, PermCreateContent, true},
		{"content manager deletes content", RoleContentManager, PermDeleteContent, true},
		{"content manager cannot edit settings", RoleContentManager, PermEditSettings, false},
		{"content manager cannot manage donations", RoleContentManager, PermManageDonations, false},
		{"admin edits settings", RoleAdmin, PermEditSettings, true},
		{"admin creates users", RoleAdmin, PermCreateUsers, true},
		{"admin cannot delete users", RoleAdmin, PermDeleteUsers, false},
		{"super admin deletes users", RoleSuperAdmin, PermDeleteUsers, true},
		{"super admin views content", RoleSuperAdmin, PermViewContent, true},
		{"unknown role", "editor", PermViewContent, false},
		{"empty role", "", PermViewContent, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := HasPermission(tt.role, tt.perm); got != tt.want {
				t.Errorf("HasPermission(%q, %q) = %v, want %v", tt.role, tt.perm, got, tt.want)
			}
		})
	}
}

func TestCanAssignRole(t *testing.T) {
	tests := []struct {
		actor  string
		target string
		want   bool
	}{
		{RoleSuperAdmin, RoleSuperAdmin, true},
		{RoleAdmin, RoleSuperAdmin, false},
		{RoleAdmin, RoleAdmin, true},
		{RoleAdmin, RoleViewer, true},
		{RoleContentManager, RoleAdmin, false},
		{RoleAdmin, "owner", false},
	}

	for _, tt := range tests {
		t.Run(tt.actor+"->"+tt.target, func(t *testing.T) {
			if got := CanAssignRole(tt.actor, tt.target); got != tt.want {
				t.Errorf("CanAssignRole(%q, %q) = %v, want %v", tt.actor, tt.target, got, tt.want)
			}
		})
	}
}

func TestRoleLabel(t *testing.T) {
	if got := RoleLabel(RoleContentManager); got != "Content Manager" {
		t.Errorf("RoleLabel() = %q", got)
	}
	if got := RoleLabel("custom"); got != "custom" {
		t.Errorf("RoleLabel(unknown) = %q, want passthrough", got)
	}
}
