package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"campus-backend/internal/domain"
	"campus-backend/internal/logger"
	"campus-backend/internal/repository"
)

type notificationService struct {
	store  repository.DocumentStore
	mirror Mirror
	email  EmailService
	now    func() time.Time
}

func NewNotificationService(store repository.DocumentStore, mirror Mirror, email EmailService) NotificationService {
	return &notificationService{
		store:  store,
		mirror: mirror,
		email:  email,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Notify writes the notification to its flat and division locations and
// e-mails the recipient when an address is known. Every step is
// best-effort and reported in the returned Report.
func (s *notificationService) Notify(ctx context.Context, in NotificationInput) *Report {
	logger.EnterMethod("notificationService.Notify", "userID", in.UserID, "type", in.Type)

	n := &domain.Notification{
		ID:         uuid.New().String(),
		UserID:     in.UserID,
		RollNumber: in.RollNumber,
		Email:      in.Email,
		Type:       in.Type,
		Title:      in.Title,
		Message:    in.Message,
		Attributes: in.Attributes,
	}
	fields := n.Fields()
	fields["createdAt"] = s.store.ServerTimestamp()

	report := s.mirror.Mirror(ctx, NotificationFact(in.Placement, s.now(), n.ID), fields)

	if in.Email != "" && s.email != nil {
		err := s.email.SendNotification(ctx, in.Email, in.Name, in.Title, in.Message)
		if err != nil {
			logger.Warn("Notification e-mail failed", "userID", in.UserID, "email", in.Email, "error", err)
		}
		report.Add("email:"+in.Email, err)
	}

	logger.ExitMethod("notificationService.Notify", "notificationID", n.ID, "failed", report.Failed())
	return report
}
