package jobs

import (
	"context"
	"fmt"
	"time"

	"campus-backend/internal/domain"
	"campus-backend/internal/paths"
	"campus-backend/internal/repository"
	"campus-backend/internal/service"
)

// SendPendingLeaveReminders reminds assignees of requests that have been
// pending longer than the configured threshold.
func (jr *JobRunner) SendPendingLeaveReminders() {
	jr.runWithRecovery("SendPendingLeaveReminders", func() {
		ctx := context.Background()
		staleAfter := time.Duration(jr.config.Scheduler.StaleAfterHours) * time.Hour
		now := jr.now()

		docs, err := jr.store.Query(ctx, paths.LeaveRequests,
			[]repository.Filter{{Field: "status", Value: string(domain.LeaveStatusPending)}},
			repository.QueryOptions{})
		if err != nil {
			jr.log.Error("Failed to query pending leave requests", "error", err)
			return
		}

		sent, failed := 0, 0
		for _, d := range docs {
			req := domain.LeaveRequestFromDocument(d.ID, d.Data)
			since := req.UpdatedAt
			if since.IsZero() {
				since = req.CreatedAt
			}
			if since.IsZero() || now.Sub(since) < staleAfter {
				continue
			}
			a := req.AssignedTo
			if a == nil || a.Email == "" {
				jr.log.Debug("Pending leave has no reachable assignee", "leave_id", req.ID)
				continue
			}

			pendingFor := now.Sub(since)
			if err := jr.services.Email.SendLeaveReminder(ctx, a.Email, a.Name, req, pendingFor); err != nil {
				jr.log.Error("Failed to send leave reminder email",
					"leave_id", req.ID,
					"assignee_id", a.ID,
					"email", a.Email,
					"error", err)
				failed++
				continue
			}

			if jr.services.Notifications != nil {
				jr.services.Notifications.Notify(ctx, service.NotificationInput{
					UserID:     a.ID,
					Placement:  req.Placement,
					Type:       domain.NotificationLeaveReminder,
					Title:      "Leave request awaiting your decision",
					Message:    fmt.Sprintf("Leave request %s has been pending at the %s stage for %d hours.", req.ID, req.CurrentApprovalLevel, int(pendingFor.Hours())),
					Attributes: map[string]string{"leaveId": req.ID},
				})
			}

			sent++
			jr.log.Debug("Sent leave reminder", "leave_id", req.ID, "assignee_id", a.ID)
		}

		jr.log.Info("Pending leave reminders processed", "pending", len(docs), "sent", sent, "failed", failed)
	})
}
