// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"time"
)

const adminColumns = `id, username, password_hash, email, full_name, role, is_active, last_login_at, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanAdmin(row rowScanner) (Admin, error) {
	var i Admin
	err := row.Scan(
		&i.ID,
		&i.Username,
		&i.PasswordHash,
		&i.Email,
		&i.FullName,
		&i.Role,
		&i.IsActive,
		&i.LastLoginAt,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const createAdmin = `INSERT INTO admins (username, password_hash, email, full_name, role, is_active, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
RETURNING ` + adminColumns

type CreateAdminParams struct {
	Username     string    `json:"username"`
	PasswordHash string    `json:"password_hash"`
	Email        string    `json:"email"`
	FullName     string    `json:"full_name"`
	Role         string    `json:"role"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (q *Queries) CreateAdmin(ctx context.Context, arg CreateAdminParams) (Admin, error) {
	row := q.db.QueryRowContext(ctx, createAdmin,
		arg.Username,
		arg.PasswordHash,
		arg.Email,
		arg.FullName,
		arg.Role,
		arg.IsActive,
		arg.CreatedAt,
		arg.UpdatedAt,
	)
	return scanAdmin(row)
}

const getAdminByID = `SELECT ` + adminColumns + ` FROM admins WHERE id = ?`

func (q *Queries) GetAdminByID(ctx context.Context, id int64) (Admin, error) {
	return scanAdmin(q.db.QueryRowContext(ctx, getAdminByID, id))
}

const getAdminByUsername = `SELECT ` + adminColumns + ` FROM admins WHERE username = ? COLLATE NOCASE`

func (q *Queries) GetAdminByUsername(ctx context.Context, username string) (Admin, error) {
	return scanAdmin(q.db.QueryRowContext(ctx, getAdminByUsername, username))
}

const getAdminByEmail = `SELECT ` + adminColumns + ` FROM admins WHERE email = ? COLLATE NOCASE`

func (q *Queries) GetAdminByEmail(ctx context.Context, email string) (Admin, error) {
	return scanAdmin(q.db.QueryRowContext(ctx, getAdminByEmail, email))
}

const listAdmins = `SELECT ` + adminColumns + ` FROM admins ORDER BY username LIMIT ? OFFSET ?`

type ListAdminsParams struct {
	Limit  int64 `json:"limit"`
	Offset int64 `json:"offset"`
}

func (q *Queries) ListAdmins(ctx context.Context, arg ListAdminsParams) ([]Admin, error) {
	rows, err := q.db.QueryContext(ctx, listAdmins, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var items []Admin
	for rows.Next() {
		i, err := scanAdmin(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const countAdmins = `SELECT COUNT(*) FROM admins`

func (q *Queries) CountAdmins(ctx context.Context) (int64, error) {
	var count int64
	err := q.db.QueryRowContext(ctx, countAdmins).Scan(&count)
	return count, err
}

const countActiveAdminsByRole = `SELECT COUNT(*) FROM admins WHERE role = ? AND is_active = 1`

func (q *Queries) CountActiveAdminsByRole(ctx context.Context, role string) (int64, error) {
	var count int64
	err := q.db.QueryRowContext(ctx, countActiveAdminsByRole, role).Scan(&count)
	return count, err
}

const countAdminReferences = `SELECT
    (SELECT COUNT(*) FROM posts WHERE author_id = ?1) +
    (SELECT COUNT(*) FROM donations WHERE recorded_by = ?1)`

// CountAdminReferences returns how many posts and donations point at the admin.
func (q *Queries) CountAdminReferences(ctx context.Context, id int64) (int64, error) {
	var count int64
	err := q.db.QueryRowContext(ctx, countAdminReferences, id).Scan(&count)
	return count, err
}

const usernameExists = `SELECT EXISTS(SELECT 1 FROM admins WHERE username = ? COLLATE NOCASE AND id != ?)`

// UsernameExists reports whether another admin (id != excludeID) uses username.
func (q *Queries) UsernameExists(ctx context.Context, username string, excludeID int64) (bool, error) {
	var exists bool
	err := q.db.QueryRowContext(ctx, usernameExists, username, excludeID).Scan(&exists)
	return exists, err
}

const emailExists = `SELECT EXISTS(SELECT 1 FROM admins WHERE email = ? COLLATE NOCASE AND id != ?)`

// EmailExists reports whether another admin (id != excludeID) uses email.
func (q *Queries) EmailExists(ctx context.Context, email string, excludeID int64) (bool, error) {
	var exists bool
	err := q.db.QueryRowContext(ctx, emailExists, email, excludeID).Scan(&exists)
	return exists, err
}

const updateAdmin = `UPDATE admins SET username = ?, email = ?, full_name = ?, role = ?, updated_at = ?
WHERE id = ?
RETURNING ` + adminColumns

type UpdateAdminParams struct {
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	FullName  string    `json:"full_name"`
	Role      string    `json:"role"`
	UpdatedAt time.Time `json:"updated_at"`
	ID        int64     `json:"id"`
}

func (q *Queries) UpdateAdmin(ctx context.Context, arg UpdateAdminParams) (Admin, error) {
	row := q.db.QueryRowContext(ctx, updateAdmin,
		arg.Username,
		arg.Email,
		arg.FullName,
		arg.Role,
		arg.UpdatedAt,
		arg.ID,
	)
	return scanAdmin(row)
}

const updateAdminPassword = `UPDATE admins SET password_hash = ?, updated_at = ? WHERE id = ?`

type UpdateAdminPasswordParams struct {
	PasswordHash string    `json:"password_hash"`
	UpdatedAt    time.Time `json:"updated_at"`
	ID           int64     `json:"id"`
}

func (q *Queries) UpdateAdminPassword(ctx context.Context, arg UpdateAdminPasswordParams) error {
	_, err := q.db.ExecContext(ctx, updateAdminPassword, arg.PasswordHash, arg.UpdatedAt, arg.ID)
	return err
}

const updateAdminLastLogin = `UPDATE admins SET last_login_at = ? WHERE id = ?`

func (q *Queries) UpdateAdminLastLogin(ctx context.Context, lastLoginAt sql.NullTime, id int64) error {
	_, err := q.db.ExecContext(ctx, updateAdminLastLogin, lastLoginAt, id)
	return err
}

const toggleAdminActive = `UPDATE admins SET is_active = NOT is_active, updated_at = ? WHERE id = ?
RETURNING ` + adminColumns

func (q *Queries) ToggleAdminActive(ctx context.Context, updatedAt time.Time, id int64) (Admin, error) {
	return scanAdmin(q.db.QueryRowContext(ctx, toggleAdminActive, updatedAt, id))
}

const deleteAdmin = `DELETE FROM admins WHERE id = ?`

func (q *Queries) DeleteAdmin(ctx context.Context, id int64) error {
	_, err := q.db.ExecContext(ctx, deleteAdmin, id)
	return err
}
