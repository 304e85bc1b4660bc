package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"campus-backend/internal/domain"
	"campus-backend/internal/logger"
	"campus-backend/internal/paths"
	"campus-backend/internal/repository"
)

// FactKind names the fact types that are stored in more than one place.
type FactKind string

const (
	FactAttendance   FactKind = "attendance"
	FactLeave        FactKind = "leave"
	FactNotification FactKind = "notification"
	FactAudit        FactKind = "audit"
)

// Target is one storage location of a fact.
type Target struct {
	Collection string
	ID         string
}

func (t Target) String() string { return repository.DocPath(t.Collection, t.ID) }

// FactRef lists every location a fact is replicated to.
type FactRef struct {
	Kind    FactKind
	Targets []Target
}

// LeaveFact locates the flat and hierarchical copies of a leave request.
func LeaveFact(r *domain.LeaveRequest) FactRef {
	path, id := r.MirrorRef()
	return FactRef{
		Kind: FactLeave,
		Targets: []Target{
			{Collection: paths.Leaves, ID: r.ID},
			{Collection: path, ID: id},
		},
	}
}

// AttendanceFact locates the subject and batch-wise copies of an attendance
// record. The flat record is the authoritative write and is not mirrored.
func AttendanceFact(p paths.Placement, subject string, date time.Time, compositeID string) FactRef {
	return FactRef{
		Kind: FactAttendance,
		Targets: []Target{
			{Collection: paths.SubjectAttendance(p, subject, date), ID: compositeID},
			{Collection: paths.BatchAttendance(p.BatchYear, p.Department, date), ID: compositeID},
		},
	}
}

// NotificationFact locates a notification written on day.
func NotificationFact(p paths.Placement, day time.Time, id string) FactRef {
	return FactRef{
		Kind: FactNotification,
		Targets: []Target{
			{Collection: paths.Notifications, ID: id},
			{Collection: paths.Notification(p, day), ID: id},
		},
	}
}

// AuditFact locates an audit entry written on day.
func AuditFact(p paths.Placement, day time.Time, id string) FactRef {
	return FactRef{
		Kind: FactAudit,
		Targets: []Target{
			{Collection: paths.AuditLogs, ID: id},
			{Collection: paths.AuditLog(p, day), ID: id},
		},
	}
}

type mirror struct {
	store repository.DocumentStore
	limit int
}

func NewMirror(store repository.DocumentStore, grid *domain.ProbeGrid) Mirror {
	return &mirror{store: store, limit: grid.MaxConcurrency()}
}

// Mirror merges patch into every target of fact. Each target is written
// independently; a failure on one never prevents the others.
func (m *mirror) Mirror(ctx context.Context, fact FactRef, patch map[string]any) *Report {
	logger.EnterMethod("mirror.Mirror", "fact", fact.Kind, "targets", len(fact.Targets))

	errs := make([]error, len(fact.Targets))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(m.limit)
	for i, t := range fact.Targets {
		g.Go(func() error {
			errs[i] = m.store.Set(gctx, t.Collection, t.ID, patch, true)
			return nil
		})
	}
	_ = g.Wait()

	report := NewReport()
	for i, t := range fact.Targets {
		if errs[i] != nil {
			logger.Warn("Mirror write failed", "fact", fact.Kind, "target", t.String(), "error", errs[i])
		}
		report.Add(t.String(), errs[i])
	}

	logger.ExitMethod("mirror.Mirror", "fact", fact.Kind, "succeeded", report.Succeeded(), "failed", report.Failed())
	return report
}

// EnqueueApproverInbox appends an entry to the approver's inbox. Entries for
// the same leave are never merged.
func (m *mirror) EnqueueApproverInbox(ctx context.Context, approverID string, summary domain.InboxEntry) (string, error) {
	if approverID == "" {
		return "", domain.NewValidationError("approverId", "is required")
	}
	id := uuid.New().String()
	summary.ID = id
	summary.ApproverID = approverID

	fields := summary.Fields()
	fields["createdAt"] = m.store.ServerTimestamp()

	collection := paths.Inbox(approverID)
	if err := m.store.Set(ctx, collection, id, fields, false); err != nil {
		logger.Warn("Inbox enqueue failed", "approverID", approverID, "leaveID", summary.LeaveID, "error", err)
		return "", fmt.Errorf("enqueue inbox entry for %s: %w", approverID, err)
	}
	logger.Info("Inbox entry enqueued", "approverID", approverID, "leaveID", summary.LeaveID, "entryID", id)
	return id, nil
}
