// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"time"
)

const contactMessageColumns = `id, name, email, phone, subject, message, ip_address, is_read, created_at`

func scanContactMessage(row rowScanner) (ContactMessage, error) {
	var i ContactMessage
	err := row.Scan(
		&i.ID,
		&i.Name,
		&i.Email,
		&i.Phone,
		&i.Subject,
		&i.Message,
		&i.IpAddress,
		&i.IsRead,
		&i.CreatedAt,
	)
	return i, err
}

const createContactMessage = `INSERT INTO contact_messages (name, email, phone, subject, message, ip_address, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?)
RETURNING ` + contactMessageColumns

type CreateContactMessageParams struct {
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	Subject   string    `json:"subject"`
	Message   string    `json:"message"`
	IpAddress string    `json:"ip_address"`
	CreatedAt time.Time `json:"created_at"`
}

func (q *Queries) CreateContactMessage(ctx context.Context, arg CreateContactMessageParams) (ContactMessage, error) {
	row := q.db.QueryRowContext(ctx, createContactMessage,
		arg.Name,
		arg.Email,
		arg.Phone,
		arg.Subject,
		arg.Message,
		arg.IpAddress,
		arg.CreatedAt,
	)
	return scanContactMessage(row)
}

const getContactMessage = `SELECT ` + contactMessageColumns + ` FROM contact_messages WHERE id = ?`

func (q *Queries) GetContactMessage(ctx context.Context, id int64) (ContactMessage, error) {
	return scanContactMessage(q.db.QueryRowContext(ctx, getContactMessage, id))
}

const listContactMessages = `SELECT ` + contactMessageColumns + ` FROM contact_messages
ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`

type ListContactMessagesParams struct {
	Limit  int64 `json:"limit"`
	Offset int64 `json:"offset"`
}

func (q *Queries) ListContactMessages(ctx context.Context, arg ListContactMessagesParams) ([]ContactMessage, error) {
	rows, err := q.db.QueryContext(ctx, listContactMessages, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var items []ContactMessage
	for rows.Next() {
		i, err := scanContactMessage(rows)
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

const countContactMessages = `SELECT COUNT(*), COALESCE(SUM(CASE WHEN is_read = 0 THEN 1 ELSE 0 END), 0) FROM contact_messages`

// CountContactMessages returns the total and unread message counts.
func (q *Queries) CountContactMessages(ctx context.Context) (total int64, unread int64, err error) {
	err = q.db.QueryRowContext(ctx, countContactMessages).Scan(&total, &unread)
	return total, unread, err
}

const markContactMessageRead = `UPDATE contact_messages SET is_read = 1 WHERE id = ?`

func (q *Queries) MarkContactMessageRead(ctx context.Context, id int64) error {
	_, err := q.db.ExecContext(ctx, markContactMessageRead, id)
	return err
}

const deleteContactMessage = `DELETE FROM contact_messages WHERE id = ?`

func (q *Queries) DeleteContactMessage(ctx context.Context, id int64) error {
	_, err := q.db.ExecContext(ctx, deleteContactMessage, id)
	return err
}
