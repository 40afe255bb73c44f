// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"time"
)

const createActivity = `INSERT INTO activity_log (level, category, message, admin_id, metadata, created_at)
VALUES (?, ?, ?, ?, ?, ?)`

type CreateActivityParams struct {
	Level     string        `json:"level"`
	Category  string        `json:"category"`
	Message   string        `json:"message"`
	AdminID   sql.NullInt64 `json:"admin_id"`
	Metadata  string        `json:"metadata"`
	CreatedAt time.Time     `json:"created_at"`
}

func (q *Queries) CreateActivity(ctx context.Context, arg CreateActivityParams) error {
	_, err := q.db.ExecContext(ctx, createActivity,
		arg.Level,
		arg.Category,
		arg.Message,
		arg.AdminID,
		arg.Metadata,
		arg.CreatedAt,
	)
	return err
}

// ActivityRow is an activity entry joined with the acting admin's username.
type ActivityRow struct {
	Activity
	Username sql.NullString `json:"username"`
}

const activityFilterWhere = `WHERE (?1 = '' OR a.level = ?1) AND (?2 = '' OR a.category = ?2)`

const listActivity = `SELECT a.id, a.level, a.category, a.message, a.admin_id, a.metadata, a.created_at, ad.username
FROM activity_log a
LEFT JOIN admins ad ON ad.id = a.admin_id
` + activityFilterWhere + `
ORDER BY a.created_at DESC, a.id DESC LIMIT ?3 OFFSET ?4`

type ListActivityParams struct {
	Level    string `json:"level"`
	Category string `json:"category"`
	Limit    int64  `json:"limit"`
	Offset   int64  `json:"offset"`
}

func (q *Queries) ListActivity(ctx context.Context, arg ListActivityParams) ([]ActivityRow, error) {
	rows, err := q.db.QueryContext(ctx, listActivity, arg.Level, arg.Category, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var items []ActivityRow
	for rows.Next() {
		var i ActivityRow
		if err := rows.Scan(
			&i.ID,
			&i.Level,
			&i.Category,
			&i.Message,
			&i.AdminID,
			&i.Metadata,
			&i.CreatedAt,
			&i.Username,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const countActivity = `SELECT COUNT(*) FROM activity_log a ` + activityFilterWhere

func (q *Queries) CountActivity(ctx context.Context, level, category string) (int64, error) {
	var count int64
	err := q.db.QueryRowContext(ctx, countActivity, level, category).Scan(&count)
	return count, err
}

const deleteActivityBefore = `DELETE FROM activity_log WHERE created_at < ?`

func (q *Queries) DeleteActivityBefore(ctx context.Context, before time.Time) (int64, error) {
	result, err := q.db.ExecContext(ctx, deleteActivityBefore, before)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
