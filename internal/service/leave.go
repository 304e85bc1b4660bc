package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"campus-backend/internal/department"
	"campus-backend/internal/domain"
	"campus-backend/internal/logger"
	"campus-backend/internal/paths"
	"campus-backend/internal/repository"
)

type workflowService struct {
	store         repository.DocumentStore
	policy        *domain.ApprovalPolicy
	departments   *department.Resolver
	grid          *domain.ProbeGrid
	mirror        Mirror
	notifications NotificationService
	now           func() time.Time
}

func NewWorkflowService(
	store repository.DocumentStore,
	policy *domain.ApprovalPolicy,
	departments *department.Resolver,
	grid *domain.ProbeGrid,
	mirror Mirror,
	notifications NotificationService,
) WorkflowService {
	return &workflowService{
		store:         store,
		policy:        policy,
		departments:   departments,
		grid:          grid,
		mirror:        mirror,
		notifications: notifications,
		now:           func() time.Time { return time.Now().UTC() },
	}
}

func (s *workflowService) CreateLeave(ctx context.Context, in CreateLeaveInput) (string, error) {
	logger.EnterMethod("workflowService.CreateLeave", "requesterID", in.RequesterID, "department", in.Department)

	req, err := s.buildRequest(in)
	if err != nil {
		logger.ExitMethodWithError("workflowService.CreateLeave", err, "reason", "validation")
		return "", err
	}

	s.fillFromProfile(ctx, req)

	if strings.TrimSpace(in.Department) != "" {
		req.Placement.Department = s.departments.Table().Normalize(in.Department)
	} else {
		req.Placement.Department = s.departments.AutoDetect(ctx, req.UserID, req.RequesterRole)
	}

	req.AssignedTo = s.initialAssignee(ctx, req.Placement.Department)
	s.placeMirror(ctx, req)

	fields := req.Fields()
	fields["createdAt"] = s.store.ServerTimestamp()
	fields["updatedAt"] = s.store.ServerTimestamp()

	if err := s.store.Set(ctx, paths.LeaveRequests, req.ID, fields, false); err != nil {
		logger.Error("Failed to persist leave request", "leaveID", req.ID, "error", err)
		logger.ExitMethodWithError("workflowService.CreateLeave", err, "leaveID", req.ID)
		return "", fmt.Errorf("create leave request: %w", err)
	}
	logger.Info("Leave request created", "leaveID", req.ID, "department", req.Placement.Department, "stage", req.CurrentApprovalLevel)

	report := s.mirror.Mirror(ctx, LeaveFact(req), fields)

	if a := req.AssignedTo; a != nil {
		if _, err := s.mirror.EnqueueApproverInbox(ctx, a.ID, inboxSummary(req)); err != nil {
			report.Add("inbox:"+a.ID, err)
		}
		report.Merge(s.notifications.Notify(ctx, NotificationInput{
			UserID:    a.ID,
			Email:     a.Email,
			Name:      a.Name,
			Placement: req.Placement,
			Type:      domain.NotificationLeaveAssigned,
			Title:     "New leave request",
			Message: fmt.Sprintf("%s requested leave from %s to %s and awaits your %s approval.",
				requesterLabel(req), paths.FormatDate(req.FromDate), paths.FormatDate(req.ToDate), req.CurrentApprovalLevel),
			Attributes: map[string]string{"leaveId": req.ID},
		}))
	}

	if report.Failed() > 0 {
		logger.Warn("Leave request created with partial replication", "leaveID", req.ID, "failedTargets", report.Failures())
	}
	logger.ExitMethod("workflowService.CreateLeave", "leaveID", req.ID)
	return req.ID, nil
}

func (s *workflowService) buildRequest(in CreateLeaveInput) (*domain.LeaveRequest, error) {
	var fieldErrs []domain.FieldError
	require := func(field, value string) {
		if strings.TrimSpace(value) == "" {
			fieldErrs = append(fieldErrs, domain.FieldError{Field: field, Message: "is required"})
		}
	}
	require("requesterId", in.RequesterID)
	require("batchYear", in.BatchYear)
	require("year", in.Year)
	require("semester", in.Semester)
	require("division", in.Division)

	from, err := paths.ParseDate(in.FromDate)
	if err != nil {
		fieldErrs = append(fieldErrs, domain.FieldError{Field: "fromDate", Message: err.Error()})
	}
	to, err := paths.ParseDate(in.ToDate)
	if err != nil {
		fieldErrs = append(fieldErrs, domain.FieldError{Field: "toDate", Message: err.Error()})
	}
	if !from.IsZero() && !to.IsZero() && to.Before(from) {
		fieldErrs = append(fieldErrs, domain.FieldError{Field: "toDate", Message: "must not be before fromDate"})
	}

	role := domain.ParseRole(in.RequesterRole)
	if role == "" {
		role = domain.RoleStudent
	}
	flow := s.policy.FlowFor(role)
	if len(in.ApprovalFlow) > 0 {
		flow = domain.ChainFromStrings(in.ApprovalFlow)
		if err := flow.Validate(); err != nil {
			var ve *domain.ValidationError
			if errors.As(err, &ve) {
				fieldErrs = append(fieldErrs, ve.Errors...)
			}
		}
	}

	if len(fieldErrs) > 0 {
		return nil, &domain.ValidationError{Errors: fieldErrs}
	}

	return &domain.LeaveRequest{
		ID:             uuid.New().String(),
		UserID:         strings.TrimSpace(in.RequesterID),
		RollNumber:     strings.TrimSpace(in.RollNumber),
		RequesterName:  in.RequesterName,
		RequesterEmail: in.RequesterEmail,
		RequesterRole:  role,
		Placement: paths.Placement{
			BatchYear: strings.TrimSpace(in.BatchYear),
			Year:      strings.TrimSpace(in.Year),
			Semester:  strings.TrimSpace(in.Semester),
			Division:  strings.TrimSpace(in.Division),
			Subject:   strings.TrimSpace(in.Subject),
		},
		FromDate:             from,
		ToDate:               to,
		LeaveType:            in.LeaveType,
		Reason:               in.Reason,
		Status:               domain.LeaveStatusPending,
		CurrentApprovalLevel: flow.First(),
		ApprovalFlow:         flow,
	}, nil
}

// placeMirror fixes the hierarchical copy's location for the life of the
// request. When another request of the same student already holds the
// composite id for that day, the leave id is appended to keep both copies.
func (s *workflowService) placeMirror(ctx context.Context, req *domain.LeaveRequest) {
	req.MirrorPath, req.MirrorID = req.HierarchicalPath(), req.CompositeID()

	doc, err := s.store.Get(ctx, req.MirrorPath, req.MirrorID)
	if err != nil {
		logger.Warn("Hierarchical leave slot lookup failed", "leaveID", req.ID, "path", req.MirrorPath, "error", err)
		return
	}
	if doc != nil && doc.Data["id"] != req.ID {
		req.MirrorID = req.MirrorID + "_" + req.ID
	}
}

// fillFromProfile completes requester details the caller left out. The
// profile is optional; read failures are logged only.
func (s *workflowService) fillFromProfile(ctx context.Context, req *domain.LeaveRequest) {
	if req.RollNumber != "" && req.RequesterName != "" && req.RequesterEmail != "" {
		return
	}
	doc, err := s.store.Get(ctx, paths.Users, req.UserID)
	if err != nil {
		logger.Warn("Requester profile lookup failed", "userID", req.UserID, "error", err)
		return
	}
	if doc == nil {
		return
	}
	p := domain.UserProfileFromDocument(doc.ID, doc.Data)
	if req.RollNumber == "" {
		req.RollNumber = p.RollNumber
	}
	if req.RequesterName == "" {
		req.RequesterName = p.Name
	}
	if req.RequesterEmail == "" {
		req.RequesterEmail = p.Email
	}
}

// initialAssignee prefers a regular teacher, then the department head,
// then anyone on the faculty. Lookup failures leave the request unassigned.
func (s *workflowService) initialAssignee(ctx context.Context, code string) *domain.Assignee {
	faculty, err := s.FacultyForDepartment(ctx, code)
	if err != nil {
		logger.Warn("Faculty lookup failed, leaving request unassigned", "department", code, "error", err)
	}
	for _, f := range faculty {
		if !f.IsHead {
			return f.Assignee()
		}
	}

	head, err := s.HeadForDepartment(ctx, code)
	if err != nil {
		logger.Warn("Head lookup failed", "department", code, "error", err)
	}
	if head != nil {
		return head.Assignee()
	}
	if len(faculty) > 0 {
		return faculty[0].Assignee()
	}
	logger.Warn("No faculty found for department, leaving request unassigned", "department", code)
	return nil
}

func (s *workflowService) GetLeave(ctx context.Context, id string) (*domain.LeaveRequest, error) {
	doc, err := s.store.Get(ctx, paths.LeaveRequests, id)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, fmt.Errorf("leave request %s: %w", id, domain.ErrNotFound)
	}
	return domain.LeaveRequestFromDocument(doc.ID, doc.Data), nil
}

func (s *workflowService) Decide(ctx context.Context, in DecideInput) (*DecisionResult, error) {
	logger.EnterMethod("workflowService.Decide", "leaveID", in.RequestID, "decision", in.Decision, "actorID", in.ActorID)

	doc, err := s.store.Get(ctx, paths.LeaveRequests, in.RequestID)
	if err != nil {
		logger.ExitMethodWithError("workflowService.Decide", err, "leaveID", in.RequestID)
		return nil, err
	}
	if doc == nil {
		err := fmt.Errorf("leave request %s: %w", in.RequestID, domain.ErrNotFound)
		logger.ExitMethodWithError("workflowService.Decide", err)
		return nil, err
	}
	req := domain.LeaveRequestFromDocument(doc.ID, doc.Data)
	_, versioned := doc.Data["stageVersion"]
	_, indexed := doc.Data["currentStageIndex"]

	if !in.Decision.IsValid() {
		err := domain.NewValidationError("decision", fmt.Sprintf("must be approved, rejected or returned (got %q)", in.Decision))
		logger.ExitMethodWithError("workflowService.Decide", err)
		return nil, err
	}

	actor, err := s.authorize(ctx, req, in.ActorID)
	if err != nil {
		logger.ExitMethodWithError("workflowService.Decide", err, "leaveID", req.ID)
		return nil, err
	}

	prevStatus, prevStage, prevVersion, prevIndex := req.Status, req.CurrentApprovalLevel, req.StageVersion, req.StageIndex
	now := s.now()

	hint := int(prevIndex)
	if !indexed {
		hint = req.ApprovedStages()
	}
	pos := req.ApprovalFlow.Locate(prevStage, hint)
	if pos >= 0 {
		req.StageIndex = int64(pos)
	}

	event := domain.ApprovalEvent{
		Stage:    prevStage,
		Decision: in.Decision,
		ActorID:  in.ActorID,
		Comments: in.Comments,
		At:       now,
	}
	if actor != nil {
		event.ActorName = actor.Name
		event.ActorRole = actor.EffectiveRole()
	}

	advanced := false
	switch in.Decision {
	case domain.DecisionApproved:
		next, nextPos, final := req.ApprovalFlow.NextAt(pos)
		if final {
			req.Status = domain.LeaveStatusApproved
		} else {
			req.CurrentApprovalLevel = next
			req.StageIndex = int64(nextPos)
			advanced = true
		}
	case domain.DecisionRejected:
		req.Status = domain.LeaveStatusRejected
	case domain.DecisionReturned:
		req.Status = domain.LeaveStatusReturned
		req.ActionRequired = true
	}
	req.Comments = in.Comments
	req.ApprovalHistory = append(req.ApprovalHistory, event)
	req.StageVersion = prevVersion + 1

	var head *domain.Faculty
	if advanced {
		if s.policy.IsHeadStage(req.CurrentApprovalLevel) {
			head, err = s.HeadForDepartment(ctx, req.Placement.Department)
			if err != nil {
				logger.Warn("Head lookup failed on stage advance", "leaveID", req.ID, "department", req.Placement.Department, "error", err)
			}
		}
		req.AssignedTo = nil
		if head != nil {
			a := head.Assignee()
			a.Role = req.CurrentApprovalLevel
			req.AssignedTo = a
		}
	}

	patch := map[string]any{
		"status":               string(req.Status),
		"currentApprovalLevel": string(req.CurrentApprovalLevel),
		"currentStageIndex":    req.StageIndex,
		"stageVersion":         req.StageVersion,
		"comments":             req.Comments,
		"actionRequired":       req.ActionRequired,
		"approvalHistory":      req.HistoryFields(),
		"lastDecision": map[string]any{
			"decision": string(in.Decision),
			"stage":    string(prevStage),
			"actorId":  in.ActorID,
			"at":       now,
		},
		"assignedTo": domain.AssigneeFields(req.AssignedTo),
		"updatedAt":  s.store.ServerTimestamp(),
	}
	if req.Status != domain.LeaveStatusPending {
		patch["decidedAt"] = s.store.ServerTimestamp()
	}

	expect := map[string]any{
		"status":               string(prevStatus),
		"currentApprovalLevel": string(prevStage),
	}
	if versioned {
		expect["stageVersion"] = prevVersion
	}
	if indexed {
		expect["currentStageIndex"] = prevIndex
	}
	if err := s.store.UpdateIf(ctx, paths.LeaveRequests, req.ID, expect, patch); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			err = fmt.Errorf("leave request %s changed while deciding: %w", req.ID, domain.ErrConflict)
		} else {
			logger.Error("Failed to persist decision", "leaveID", req.ID, "error", err)
		}
		logger.ExitMethodWithError("workflowService.Decide", err, "leaveID", req.ID)
		return nil, err
	}
	logger.Info("Leave decision recorded", "leaveID", req.ID, "decision", in.Decision,
		"fromStage", prevStage, "toStage", req.CurrentApprovalLevel, "status", req.Status)

	report := s.mirror.Mirror(ctx, LeaveFact(req), patch)
	report.Merge(s.audit(ctx, req, event))
	report.Merge(s.notifications.Notify(ctx, NotificationInput{
		UserID:     req.UserID,
		RollNumber: req.RollNumber,
		Email:      req.RequesterEmail,
		Name:       req.RequesterName,
		Placement:  req.Placement,
		Type:       domain.NotificationLeaveStatus,
		Title:      "Leave request update",
		Message:    statusMessage(req, in.Decision, prevStage),
		Attributes: map[string]string{"leaveId": req.ID, "status": string(req.Status)},
	}))
	if head != nil {
		if _, err := s.mirror.EnqueueApproverInbox(ctx, head.ID, inboxSummary(req)); err != nil {
			report.Add("inbox:"+head.ID, err)
		}
	}

	logger.ExitMethod("workflowService.Decide", "leaveID", req.ID, "status", req.Status, "failedTargets", report.Failed())
	return &DecisionResult{Request: req, Replication: report}, nil
}

// authorize checks that actorID owns the current stage of a pending
// request. An empty actor skips the ownership check but still requires the
// request to be pending.
func (s *workflowService) authorize(ctx context.Context, req *domain.LeaveRequest, actorID string) (*domain.UserProfile, error) {
	if actorID == "" {
		if req.Status != domain.LeaveStatusPending {
			return nil, fmt.Errorf("leave request %s is %s: %w", req.ID, req.Status, domain.ErrNotPending)
		}
		return nil, nil
	}

	stageErr := &domain.StageError{
		RequestID:    req.ID,
		ActorID:      actorID,
		CurrentStage: req.CurrentApprovalLevel,
		Status:       req.Status,
	}

	doc, err := s.store.Get(ctx, paths.Users, actorID)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, stageErr
	}
	actor := domain.UserProfileFromDocument(doc.ID, doc.Data)
	stage, ok := s.policy.StageFor(actor.EffectiveRole())
	stageErr.ActorStage = stage

	if req.Status != domain.LeaveStatusPending || !ok || stage != req.CurrentApprovalLevel {
		return nil, stageErr
	}
	return actor, nil
}

func (s *workflowService) audit(ctx context.Context, req *domain.LeaveRequest, event domain.ApprovalEvent) *Report {
	id := uuid.New().String()
	entry := map[string]any{
		"id":         id,
		"userId":     req.UserID,
		"rollNumber": req.RollNumber,
		"leaveId":    req.ID,
		"action":     "leave." + string(event.Decision),
		"actorId":    event.ActorID,
		"actorRole":  string(event.ActorRole),
		"stage":      string(event.Stage),
		"status":     string(req.Status),
		"comments":   event.Comments,
		"createdAt":  s.store.ServerTimestamp(),
	}
	return s.mirror.Mirror(ctx, AuditFact(req.Placement, event.At, id), entry)
}

func (s *workflowService) ApproverInbox(ctx context.Context, approverID string) ([]domain.InboxItem, error) {
	logger.EnterMethod("workflowService.ApproverInbox", "approverID", approverID)

	docs, err := s.store.Query(ctx, paths.Inbox(approverID), nil, repository.QueryOptions{OrderBy: "createdAt", Descending: true})
	if err != nil {
		logger.ExitMethodWithError("workflowService.ApproverInbox", err)
		return nil, err
	}

	items := make([]domain.InboxItem, len(docs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.grid.MaxConcurrency())
	for i, d := range docs {
		items[i].Entry = domain.InboxEntryFromDocument(d.ID, d.Data)
		leaveID := items[i].Entry.LeaveID
		g.Go(func() error {
			doc, err := s.store.Get(gctx, paths.LeaveRequests, leaveID)
			if err != nil {
				logger.Warn("Inbox entry could not be resolved", "leaveID", leaveID, "error", err)
				return nil
			}
			if doc != nil {
				items[i].Request = domain.LeaveRequestFromDocument(doc.ID, doc.Data)
			}
			return nil
		})
	}
	_ = g.Wait()

	logger.ExitMethod("workflowService.ApproverInbox", "approverID", approverID, "entries", len(items))
	return items, nil
}

func inboxSummary(req *domain.LeaveRequest) domain.InboxEntry {
	return domain.InboxEntry{
		LeaveID:       req.ID,
		RequesterID:   req.UserID,
		RequesterName: req.RequesterName,
		RollNumber:    req.RollNumber,
		Department:    req.Placement.Department,
		Year:          req.Placement.Year,
		Semester:      req.Placement.Semester,
		Division:      req.Placement.Division,
		FromDate:      paths.FormatDate(req.FromDate),
		ToDate:        paths.FormatDate(req.ToDate),
		Stage:         req.CurrentApprovalLevel,
		Status:        req.Status,
	}
}

func requesterLabel(req *domain.LeaveRequest) string {
	if req.RequesterName != "" {
		return req.RequesterName
	}
	return req.Key()
}

func statusMessage(req *domain.LeaveRequest, d domain.Decision, stage domain.Stage) string {
	switch {
	case req.Status == domain.LeaveStatusApproved:
		return fmt.Sprintf("Your leave from %s to %s has been approved.", paths.FormatDate(req.FromDate), paths.FormatDate(req.ToDate))
	case req.Status == domain.LeaveStatusPending:
		return fmt.Sprintf("Your leave was approved at the %s stage and now awaits %s approval.", stage, req.CurrentApprovalLevel)
	case d == domain.DecisionReturned:
		return fmt.Sprintf("Your leave was returned at the %s stage and needs your attention.", stage)
	default:
		return fmt.Sprintf("Your leave was rejected at the %s stage.", stage)
	}
}
