// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package model defines domain constants and small value types shared by the
// store, services and handlers: roles and permissions, content statuses,
// donation vocabularies, site setting keys and campaign progress.
package model

// Admin roles, highest first.
const (
	RoleSuperAdmin     = "super_admin"
	RoleAdmin          = "admin"
	RoleContentManager = "content_manager"
	RoleViewer         = "viewer"
)

// Roles lists the assignable roles, highest first.
var Roles = []string{RoleSuperAdmin, RoleAdmin, RoleContentManager, RoleViewer}

// Permission is a named capability checked before a protected action runs.
type Permission string

const (
	PermViewContent     Permission = "view_content"
	PermCreateContent   Permission = "create_content"
	PermEditContent     Permission = "edit_content"
	PermDeleteContent   Permission = "delete_content"
	PermViewDonations   Permission = "view_donations"
	PermManageDonations Permission = "manage_donations"
	PermManageCampaigns Permission = "manage_campaigns"
	PermEditSettings    Permission = "edit_settings"
	PermCreateUsers     Permission = "create_users"
	PermEditUsers       Permission = "edit_users"
	PermDeleteUsers     Permission = "delete_users"
	PermViewMessages    Permission = "view_messages"
	PermViewActivity    Permission = "view_activity"
)

var (
	viewerPerms = []Permission{PermViewContent, PermViewDonations}

	contentManagerPerms = append(append([]Permission{}, viewerPerms...),
		PermCreateContent, PermEditContent, PermDeleteContent)

	adminPerms = append(append([]Permission{}, contentManagerPerms...),
		PermManageDonations, PermManageCampaigns, PermEditSettings,
		PermCreateUsers, PermEditUsers, PermViewMessages, PermViewActivity)

	superAdminPerms = append(append([]Permission{}, adminPerms...), PermDeleteUsers)
)

// rolePermissions is the fixed role to permission lookup table.
var rolePermissions = map[string]map[Permission]bool{
	RoleViewer:         permSet(viewerPerms),
	RoleContentManager: permSet(contentManagerPerms),
	RoleAdmin:          permSet(adminPerms),
	RoleSuperAdmin:     permSet(superAdminPerms),
}

func permSet(perms []Permission) map[Permission]bool {
	set := make(map[Permission]bool, len(perms))
	for _, p := range perms {
		set[p] = true
	}
	return set
}

// HasPermission reports whether role grants perm. Unknown roles grant nothing.
func HasPermission(role string, perm Permission) bool {
	return rolePermissions[role][perm]
}

// roleLevels orders roles for assignment checks.
var roleLevels = map[string]int{
	RoleViewer:         1,
	RoleContentManager: 2,
	RoleAdmin:          3,
	RoleSuperAdmin:     4,
}

// IsValidRole reports whether role is one of the known roles.
func IsValidRole(role string) bool {
	_, ok := roleLevels[role]
	return ok
}

// RoleLevel returns the rank of role, 0 when unknown.
func RoleLevel(role string) int {
	return roleLevels[role]
}

// CanAssignRole reports whether an admin with actorRole may grant target.
// Nobody can grant a role above their own.
func CanAssignRole(actorRole, target string) bool {
	return IsValidRole(target) && RoleLevel(actorRole) >= RoleLevel(target)
}

// RoleLabel returns a human readable role name.
func RoleLabel(role string) string {
	switch role {
	case RoleSuperAdmin:
		return "Super Admin"
	case RoleAdmin:
		return "Admin"
	case RoleContentManager:
		return "Content Manager"
	case RoleViewer:
		return "Viewer"
	default:
		return role
	}
}
