package scheduler

import (
	"context"
	"fmt"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"go.uber.org/zap"
)

// Mailer delivers a single email
type Mailer interface {
	Send(ctx context.Context, toEmail, toName, subject, htmlContent, plainText string) error
}

// SendgridMailer sends through the SendGrid v3 API
type SendgridMailer struct {
	client   *sendgrid.Client
	fromName string
	fromAddr string
}

// NewSendgridMailer creates a mailer sending from fromAddr
func NewSendgridMailer(apiKey, fromName, fromAddr string) *SendgridMailer {
	return &SendgridMailer{
		client:   sendgrid.NewSendClient(apiKey),
		fromName: fromName,
		fromAddr: fromAddr,
	}
}

// Send delivers the message; a 4xx or 5xx reply from SendGrid is an error
func (m *SendgridMailer) Send(ctx context.Context, toEmail, toName, subject, htmlContent, plainText string) error {
	from := mail.NewEmail(m.fromName, m.fromAddr)
	to := mail.NewEmail(toName, toEmail)
	message := mail.NewSingleEmail(from, subject, to, plainText, htmlContent)
	response, err := m.client.SendWithContext(ctx, message)
	if err != nil {
		return err
	}
	if response.StatusCode >= 400 {
		zap.S().Errorw("sendgrid returned error status",
			"status", response.StatusCode,
			"body", response.Body)
		return fmt.Errorf("sendgrid status %d", response.StatusCode)
	}
	return nil
}
