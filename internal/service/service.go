package service

import (
	"context"
	"time"

	"campus-backend/internal/domain"
	"campus-backend/internal/paths"
)

type WorkflowService interface {
	CreateLeave(ctx context.Context, in CreateLeaveInput) (string, error)
	Decide(ctx context.Context, in DecideInput) (*DecisionResult, error)
	GetLeave(ctx context.Context, id string) (*domain.LeaveRequest, error)
	FacultyForDepartment(ctx context.Context, code string) ([]domain.Faculty, error)
	HeadForDepartment(ctx context.Context, code string) (*domain.Faculty, error)
	ApproverInbox(ctx context.Context, approverID string) ([]domain.InboxItem, error)
}

type Mirror interface {
	Mirror(ctx context.Context, fact FactRef, patch map[string]any) *Report
	EnqueueApproverInbox(ctx context.Context, approverID string, summary domain.InboxEntry) (string, error)
}

type NotificationService interface {
	Notify(ctx context.Context, in NotificationInput) *Report
}

type AttendanceService interface {
	Mark(ctx context.Context, in MarkAttendanceInput) (string, *Report, error)
}

type MigrationService interface {
	Migrate(ctx context.Context, in MigrateInput) (*MigrationSummary, error)
}

type UserService interface {
	ChangeRollNumber(ctx context.Context, in ChangeRollNumberInput) (*MigrationSummary, error)
	DetectDepartment(ctx context.Context, userID string, role domain.Role) string
}

type EmailService interface {
	SendNotification(ctx context.Context, to, toName, subject, body string) error
	SendLeaveReminder(ctx context.Context, to, toName string, req *domain.LeaveRequest, pendingFor time.Duration) error
}

// CreateLeaveInput is a new leave request as submitted by the requester.
// Dates are YYYY-MM-DD. An empty Department triggers auto-detection and an
// empty ApprovalFlow selects the policy default for the requester role.
type CreateLeaveInput struct {
	RequesterID    string   `json:"requesterId"`
	RollNumber     string   `json:"rollNumber"`
	RequesterName  string   `json:"requesterName"`
	RequesterEmail string   `json:"requesterEmail"`
	RequesterRole  string   `json:"requesterRole"`
	Department     string   `json:"department"`
	BatchYear      string   `json:"batchYear"`
	Year           string   `json:"year"`
	Semester       string   `json:"semester"`
	Division       string   `json:"division"`
	Subject        string   `json:"subject"`
	FromDate       string   `json:"fromDate"`
	ToDate         string   `json:"toDate"`
	LeaveType      string   `json:"leaveType"`
	Reason         string   `json:"reason"`
	ApprovalFlow   []string `json:"approvalFlow"`
}

// DecideInput is one approver verdict. ActorID may be empty for system
// decisions, which skip the stage ownership check.
type DecideInput struct {
	RequestID string          `json:"-"`
	Decision  domain.Decision `json:"decision"`
	ActorID   string          `json:"actorId"`
	Comments  string          `json:"comments"`
}

// DecisionResult is the request state after a decision together with the
// outcome of its fan-out.
type DecisionResult struct {
	Request     *domain.LeaveRequest `json:"request"`
	Replication *Report              `json:"replication"`
}

// NotificationInput addresses one notification.
type NotificationInput struct {
	UserID     string
	RollNumber string
	Email      string
	Name       string
	Placement  paths.Placement
	Type       domain.NotificationType
	Title      string
	Message    string
	Attributes map[string]string
}

// MarkAttendanceInput records one student's attendance for one day.
type MarkAttendanceInput struct {
	UserID     string `json:"userId"`
	RollNumber string `json:"rollNumber"`
	Name       string `json:"name"`
	BatchYear  string `json:"batchYear"`
	Department string `json:"department"`
	Year       string `json:"year"`
	Semester   string `json:"semester"`
	Division   string `json:"division"`
	Subject    string `json:"subject"`
	Date       string `json:"date"`
	Status     string `json:"status"`
	MarkedBy   string `json:"markedBy"`
}

// MigrateInput describes one roll number change. From and To optionally
// widen the set of days probed in hierarchical partitions.
type MigrateInput struct {
	UserID        string
	OldRollNumber string
	NewRollNumber string
	Placement     paths.Placement
	From          time.Time
	To            time.Time
}

// ChangeRollNumberInput updates a profile and migrates its derived copies.
type ChangeRollNumberInput struct {
	UserID        string `json:"-"`
	NewRollNumber string `json:"newRollNumber"`
	BatchYear     string `json:"batchYear"`
	Department    string `json:"department"`
	Year          string `json:"year"`
	Semester      string `json:"semester"`
	Division      string `json:"division"`
	From          string `json:"from"`
	To            string `json:"to"`
}
