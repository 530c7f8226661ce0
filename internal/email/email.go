// Package email sends transactional notifications through the Resend API.
package email

import (
	"fmt"
	"html"

	"github.com/resendlabs/resend-go"

	"github.com/nuklias/crm/internal/model"
)

// Service is the notification boundary; tests and unconfigured deployments
// substitute their own implementations.
type Service interface {
	NotifyNewLead(lead *model.Lead) error
}

type Config struct {
	APIKey    string
	FromEmail string
	NotifyTo  string
}

// ResendClient is the concrete Service backed by Resend.
type ResendClient struct {
	client    *resend.Client
	fromEmail string
	notifyTo  string
}

// NewService builds the Resend-backed notifier. Returns an error when the
// API key or recipient is missing; callers treat that as "disabled".
func NewService(cfg Config) (Service, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("resend API key is required")
	}
	if cfg.NotifyTo == "" {
		return nil, fmt.Errorf("notification recipient is required")
	}
	from := cfg.FromEmail
	if from == "" {
		from = "noreply@nuklias.com"
	}
	return &ResendClient{
		client:    resend.NewClient(cfg.APIKey),
		fromEmail: from,
		notifyTo:  cfg.NotifyTo,
	}, nil
}

// NotifyNewLead sends a short summary of a freshly created lead to the
// configured inbox.
func (c *ResendClient) NotifyNewLead(lead *model.Lead) error {
	subject, body := leadEmail(lead)

	params := &resend.SendEmailRequest{
		From:    fmt.Sprintf("CRM <%s>", c.fromEmail),
		To:      []string{c.notifyTo},
		Subject: subject,
		Html:    body,
	}

	if _, err := c.client.Emails.Send(params); err != nil {
		return fmt.Errorf("send lead notification: %w", err)
	}
	return nil
}

func leadEmail(lead *model.Lead) (subject, body string) {
	subject = fmt.Sprintf("New lead: %s (%s)", lead.Name, lead.Industry)

	body = fmt.Sprintf(
		`<h2>New lead received</h2>
<p><strong>Name:</strong> %s<br>
<strong>Email:</strong> %s<br>
<strong>Location:</strong> %s<br>
<strong>Industry:</strong> %s<br>
<strong>Business type:</strong> %s<br>
<strong>Challenge:</strong> %s</p>
<p>%s</p>`,
		html.EscapeString(lead.Name),
		html.EscapeString(lead.Email),
		html.EscapeString(lead.Location),
		html.EscapeString(lead.Industry),
		html.EscapeString(lead.BusinessType),
		html.EscapeString(lead.Challenge),
		html.EscapeString(lead.Message),
	)
	return subject, body
}
