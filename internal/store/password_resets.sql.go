// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"time"
)

const passwordResetColumns = `id, admin_id, email, code_hash, state, attempts, expires_at, created_at, updated_at`

func scanPasswordReset(row rowScanner) (PasswordReset, error) {
	var i PasswordReset
	err := row.Scan(
		&i.ID,
		&i.AdminID,
		&i.Email,
		&i.CodeHash,
		&i.State,
		&i.Attempts,
		&i.ExpiresAt,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const createPasswordReset = `INSERT INTO password_resets (id, admin_id, email, code_hash, state, attempts, expires_at, created_at, updated_at)
VALUES (?, ?, ?, ?, 'requested', 0, ?, ?, ?)
RETURNING ` + passwordResetColumns

type CreatePasswordResetParams struct {
	ID        string        `json:"id"`
	AdminID   sql.NullInt64 `json:"admin_id"`
	Email     string        `json:"email"`
	CodeHash  string        `json:"code_hash"`
	ExpiresAt time.Time     `json:"expires_at"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}

func (q *Queries) CreatePasswordReset(ctx context.Context, arg CreatePasswordResetParams) (PasswordReset, error) {
	row := q.db.QueryRowContext(ctx, createPasswordReset,
		arg.ID,
		arg.AdminID,
		arg.Email,
		arg.CodeHash,
		arg.ExpiresAt,
		arg.CreatedAt,
		arg.UpdatedAt,
	)
	return scanPasswordReset(row)
}

const getPasswordReset = `SELECT ` + passwordResetColumns + ` FROM password_resets WHERE id = ?`

func (q *Queries) GetPasswordReset(ctx context.Context, id string) (PasswordReset, error) {
	return scanPasswordReset(q.db.QueryRowContext(ctx, getPasswordReset, id))
}

const incrementPasswordResetAttempts = `UPDATE password_resets SET attempts = attempts + 1, updated_at = ? WHERE id = ?
RETURNING ` + passwordResetColumns

func (q *Queries) IncrementPasswordResetAttempts(ctx context.Context, updatedAt time.Time, id string) (PasswordReset, error) {
	return scanPasswordReset(q.db.QueryRowContext(ctx, incrementPasswordResetAttempts, updatedAt, id))
}

const setPasswordResetState = `UPDATE password_resets SET state = ?, updated_at = ? WHERE id = ?`

func (q *Queries) SetPasswordResetState(ctx context.Context, state string, updatedAt time.Time, id string) error {
	_, err := q.db.ExecContext(ctx, setPasswordResetState, state, updatedAt, id)
	return err
}

const consumeOpenPasswordResets = `UPDATE password_resets SET state = 'consumed', updated_at = ?
WHERE admin_id = ? AND state != 'consumed'`

// ConsumeOpenPasswordResets closes every pending reset for an admin.
func (q *Queries) ConsumeOpenPasswordResets(ctx context.Context, updatedAt time.Time, adminID int64) error {
	_, err := q.db.ExecContext(ctx, consumeOpenPasswordResets, updatedAt, adminID)
	return err
}

const deleteStalePasswordResets = `DELETE FROM password_resets WHERE expires_at < ? OR state = 'consumed'`

// DeleteStalePasswordResets removes expired and consumed reset records.
func (q *Queries) DeleteStalePasswordResets(ctx context.Context, now time.Time) (int64, error) {
	result, err := q.db.ExecContext(ctx, deleteStalePasswordResets, now)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
