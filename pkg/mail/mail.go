// Package mail delivers extraction reports by e-mail through Resend.
package mail

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/resend/resend-go/v2"
)

// ErrNotConfigured is returned when no API key was provided
var ErrNotConfigured = errors.New("mail delivery is not configured")

// Attachment is a file sent with a message
type Attachment struct {
	Filename    string
	ContentType string
	Content     []byte
}

// Message is a report e-mail
type Message struct {
	To          []string
	Subject     string
	Text        string
	Attachments []Attachment
}

// emailSender is the part of the Resend client the mailer uses.
type emailSender interface {
	SendWithContext(ctx context.Context, params *resend.SendEmailRequest) (*resend.SendEmailResponse, error)
}

// Mailer sends messages from a fixed address, copying the configured cc list.
type Mailer struct {
	client emailSender
	from   string
	cc     []string
	logger *slog.Logger
}

// NewMailer creates a mailer. Without an API key every Send returns ErrNotConfigured.
func NewMailer(apiKey, from string, cc []string, logger *slog.Logger) *Mailer {
	m := &Mailer{from: from, cc: cc, logger: logger}
	if apiKey != "" {
		m.client = resend.NewClient(apiKey).Emails
	}
	return m
}

// Enabled reports whether messages can be delivered
func (m *Mailer) Enabled() bool {
	return m.client != nil
}

// Send delivers a message and returns the provider's message ID.
func (m *Mailer) Send(ctx context.Context, msg Message) (string, error) {
	if m.client == nil {
		return "", ErrNotConfigured
	}
	if len(msg.To) == 0 {
		return "", errors.New("message has no recipients")
	}

	req := &resend.SendEmailRequest{
		From:    m.from,
		To:      msg.To,
		Cc:      m.cc,
		Subject: msg.Subject,
		Text:    msg.Text,
	}
	for _, a := range msg.Attachments {
		req.Attachments = append(req.Attachments, &resend.Attachment{
			Filename:    a.Filename,
			ContentType: a.ContentType,
			Content:     a.Content,
		})
	}

	resp, err := m.client.SendWithContext(ctx, req)
	if err != nil {
		return "", fmt.Errorf("failed to send email: %w", err)
	}

	m.logger.Info("report email sent",
		slog.String("message_id", resp.Id),
		slog.Int("recipients", len(msg.To)),
		slog.Int("attachments", len(msg.Attachments)),
	)
	return resp.Id, nil
}
