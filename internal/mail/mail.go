// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package mail sends transactional email: password reset codes and contact
// form notifications.
package mail

import (
	"bytes"
	"context"
	"errors"
	"html/template"
	"sync"
	"time"
)

// ErrNotConfigured is returned when no mail transport is available.
var ErrNotConfigured = errors.New("mail transport not configured")

// Message is a single outgoing email.
type Message struct {
	To      []string
	Subject string
	HTML    string
	ReplyTo string
}

// Result describes an accepted message.
type Result struct {
	MessageID string
	SentAt    time.Time
}

// Sender delivers email.
type Sender interface {
	Send(ctx context.Context, msg Message) (Result, error)
}

// MemorySender keeps messages in memory instead of delivering them.
// Used in tests.
type MemorySender struct {
	mu   sync.Mutex
	sent []Message
	Err  error
}

// Send records msg, or returns Err when set.
func (s *MemorySender) Send(_ context.Context, msg Message) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return Result{}, s.Err
	}
	s.sent = append(s.sent, msg)
	return Result{MessageID: "memory", SentAt: time.Now()}, nil
}

// Sent returns a copy of the recorded messages.
func (s *MemorySender) Sent() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Message(nil), s.sent...)
}

var resetCodeTmpl = template.Must(template.New("reset").Parse(`<p>Hello {{.Name}},</p>
<p>Your password reset code for {{.Site}} is:</p>
<p style="font-size:24px;font-weight:bold;letter-spacing:4px">{{.Code}}</p>
<p>The code expires in {{.Minutes}} minutes. If you did not request it, you can ignore this email.</p>`))

var contactTmpl = template.Must(template.New("contact").Parse(`<p>New message from the {{.Site}} contact form.</p>
<p><strong>From:</strong> {{.Name}} &lt;{{.Email}}&gt;{{if .Phone}}<br><strong>Phone:</strong> {{.Phone}}{{end}}</p>
{{if .Subject}}<p><strong>Subject:</strong> {{.Subject}}</p>{{end}}
<p style="white-space:pre-wrap">{{.Body}}</p>`))

// ResetCodeMessage builds the password reset email.
func ResetCodeMessage(site, to, name, code string, minutes int) (Message, error) {
	var buf bytes.Buffer
	err := resetCodeTmpl.Execute(&buf, map[string]any{
		"Site": site, "Name": name, "Code": code, "Minutes": minutes,
	})
	if err != nil {
		return Message{}, err
	}
	return Message{
		To:      []string{to},
		Subject: site + " password reset code",
		HTML:    buf.String(),
	}, nil
}

// ContactInfo is the submitted contact form content.
type ContactInfo struct {
	Name    string
	Email   string
	Phone   string
	Subject string
	Body    string
}

// ContactNotification builds the staff notification for a contact form message.
func ContactNotification(site, to string, c ContactInfo) (Message, error) {
	var buf bytes.Buffer
	err := contactTmpl.Execute(&buf, map[string]any{
		"Site": site, "Name": c.Name, "Email": c.Email, "Phone": c.Phone,
		"Subject": c.Subject, "Body": c.Body,
	})
	if err != nil {
		return Message{}, err
	}
	subject := "Contact form: " + c.Name
	if c.Subject != "" {
		subject = "Contact form: " + c.Subject
	}
	return Message{
		To:      []string{to},
		Subject: subject,
		HTML:    buf.String(),
		ReplyTo: c.Email,
	}, nil
}
