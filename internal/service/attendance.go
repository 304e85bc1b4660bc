package service

import (
	"context"
	"fmt"
	"strings"

	"campus-backend/internal/department"
	"campus-backend/internal/domain"
	"campus-backend/internal/logger"
	"campus-backend/internal/paths"
	"campus-backend/internal/repository"
)

var attendanceStatuses = map[string]bool{
	"present": true,
	"absent":  true,
	"late":    true,
	"leave":   true,
}

type attendanceService struct {
	store       repository.DocumentStore
	departments *department.Resolver
	mirror      Mirror
}

func NewAttendanceService(store repository.DocumentStore, departments *department.Resolver, mirror Mirror) AttendanceService {
	return &attendanceService{store: store, departments: departments, mirror: mirror}
}

// Mark writes the attendance of one student for one day. The record id is
// derived from the student key and the date, so marking the same student
// on the same day again overwrites the earlier record in every location.
func (s *attendanceService) Mark(ctx context.Context, in MarkAttendanceInput) (string, *Report, error) {
	logger.EnterMethod("attendanceService.Mark", "userID", in.UserID, "date", in.Date)

	var fieldErrs []domain.FieldError
	require := func(field, value string) {
		if strings.TrimSpace(value) == "" {
			fieldErrs = append(fieldErrs, domain.FieldError{Field: field, Message: "is required"})
		}
	}
	require("userId", in.UserID)
	require("batchYear", in.BatchYear)
	require("year", in.Year)
	require("semester", in.Semester)
	require("division", in.Division)

	date, err := paths.ParseDate(in.Date)
	if err != nil {
		fieldErrs = append(fieldErrs, domain.FieldError{Field: "date", Message: err.Error()})
	}
	status := strings.ToLower(strings.TrimSpace(in.Status))
	if !attendanceStatuses[status] {
		fieldErrs = append(fieldErrs, domain.FieldError{Field: "status", Message: fmt.Sprintf("unknown status %q", in.Status)})
	}
	if len(fieldErrs) > 0 {
		err := &domain.ValidationError{Errors: fieldErrs}
		logger.ExitMethodWithError("attendanceService.Mark", err)
		return "", nil, err
	}

	dept := s.departments.Table().Normalize(in.Department)
	if strings.TrimSpace(in.Department) == "" {
		dept = s.departments.AutoDetect(ctx, in.UserID, domain.RoleStudent)
	}
	subject := strings.TrimSpace(in.Subject)
	if subject == "" {
		subject = domain.DefaultSubject
	}
	placement := paths.Placement{
		BatchYear:  in.BatchYear,
		Department: dept,
		Year:       in.Year,
		Semester:   in.Semester,
		Division:   in.Division,
		Subject:    subject,
	}

	key := strings.TrimSpace(in.RollNumber)
	if key == "" {
		key = in.UserID
	}
	id := paths.CompositeID(key, date)

	fields := map[string]any{
		"id":         id,
		"userId":     in.UserID,
		"rollNumber": in.RollNumber,
		"name":       in.Name,
		"batchYear":  placement.BatchYear,
		"department": placement.Department,
		"year":       placement.Year,
		"semester":   placement.Semester,
		"division":   placement.Division,
		"subject":    subject,
		"date":       paths.FormatDate(date),
		"status":     status,
		"markedBy":   in.MarkedBy,
		"updatedAt":  s.store.ServerTimestamp(),
	}

	if err := s.store.Set(ctx, paths.Attendance, id, fields, false); err != nil {
		logger.Error("Failed to persist attendance", "attendanceID", id, "error", err)
		logger.ExitMethodWithError("attendanceService.Mark", err)
		return "", nil, fmt.Errorf("mark attendance: %w", err)
	}

	report := s.mirror.Mirror(ctx, AttendanceFact(placement, subject, date, id), fields)

	logger.ExitMethod("attendanceService.Mark", "attendanceID", id, "failedTargets", report.Failed())
	return id, report, nil
}
