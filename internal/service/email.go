package service

import (
	"context"
	"fmt"
	"time"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"

	"campus-backend/internal/domain"
	"campus-backend/internal/logger"
	"campus-backend/internal/paths"
)

type emailService struct {
	enabled   bool
	apiKey    string
	fromEmail string
	fromName  string
}

// NewEmailService returns a SendGrid sender. A disabled sender only logs.
func NewEmailService(enabled bool, apiKey, fromEmail, fromName string) EmailService {
	return &emailService{
		enabled:   enabled,
		apiKey:    apiKey,
		fromEmail: fromEmail,
		fromName:  fromName,
	}
}

func (s *emailService) SendNotification(ctx context.Context, to, toName, subject, body string) error {
	return s.send(ctx, to, toName, subject, body)
}

func (s *emailService) SendLeaveReminder(ctx context.Context, to, toName string, req *domain.LeaveRequest, pendingFor time.Duration) error {
	subject := fmt.Sprintf("Reminder: leave request awaiting %s approval", req.CurrentApprovalLevel)

	name := req.RequesterName
	if name == "" {
		name = req.Key()
	}
	body := fmt.Sprintf("Hello %s,\n\nThe leave request from %s (%s to %s) has been waiting for your decision for %d hours.\n\nReason: %s\n\nRequest ID: %s",
		toName, name,
		paths.FormatDate(req.FromDate), paths.FormatDate(req.ToDate),
		int(pendingFor.Hours()), req.Reason, req.ID)

	return s.send(ctx, to, toName, subject, body)
}

func (s *emailService) send(ctx context.Context, to, toName, subject, body string) error {
	if !s.enabled {
		logger.Info("Email delivery disabled, skipping", "to", to, "subject", subject)
		return nil
	}

	from := mail.NewEmail(s.fromName, s.fromEmail)
	recipient := mail.NewEmail(toName, to)
	message := mail.NewSingleEmail(from, subject, recipient, body, "")

	logger.ExternalServiceCall("SendGrid", "Send", "to", to, "subject", subject)
	client := sendgrid.NewSendClient(s.apiKey)
	response, err := client.SendWithContext(ctx, message)
	if err != nil {
		logger.ExternalServiceResult("SendGrid", "Send", err)
		return fmt.Errorf("failed to send email: %w", err)
	}
	if response.StatusCode >= 400 {
		err = fmt.Errorf("sendgrid error: status %d, body: %s", response.StatusCode, response.Body)
		logger.ExternalServiceResult("SendGrid", "Send", err)
		return err
	}
	logger.ExternalServiceResult("SendGrid", "Send", nil, "status", response.StatusCode)
	return nil
}
