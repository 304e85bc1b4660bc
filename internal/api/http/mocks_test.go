package http_test

import (
	"context"

	"github.com/stretchr/testify/mock"

	"campus-backend/internal/domain"
	"campus-backend/internal/service"
)

// MockWorkflowService
type MockWorkflowService struct {
	mock.Mock
}

func (m *MockWorkflowService) CreateLeave(ctx context.Context, in service.CreateLeaveInput) (string, error) {
	args := m.Called(ctx, in)
	return args.String(0), args.Error(1)
}
func (m *MockWorkflowService) Decide(ctx context.Context, in service.DecideInput) (*service.DecisionResult, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.DecisionResult), args.Error(1)
}
func (m *MockWorkflowService) GetLeave(ctx context.Context, id string) (*domain.LeaveRequest, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.LeaveRequest), args.Error(1)
}
func (m *MockWorkflowService) FacultyForDepartment(ctx context.Context, code string) ([]domain.Faculty, error) {
	args := m.Called(ctx, code)
	return args.Get(0).([]domain.Faculty), args.Error(1)
}
func (m *MockWorkflowService) HeadForDepartment(ctx context.Context, code string) (*domain.Faculty, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Faculty), args.Error(1)
}
func (m *MockWorkflowService) ApproverInbox(ctx context.Context, approverID string) ([]domain.InboxItem, error) {
	args := m.Called(ctx, approverID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.InboxItem), args.Error(1)
}

// MockAttendanceService
type MockAttendanceService struct {
	mock.Mock
}

func (m *MockAttendanceService) Mark(ctx context.Context, in service.MarkAttendanceInput) (string, *service.Report, error) {
	args := m.Called(ctx, in)
	if args.Get(1) == nil {
		return args.String(0), nil, args.Error(2)
	}
	return args.String(0), args.Get(1).(*service.Report), args.Error(2)
}

// MockUserService
type MockUserService struct {
	mock.Mock
}

func (m *MockUserService) ChangeRollNumber(ctx context.Context, in service.ChangeRollNumberInput) (*service.MigrationSummary, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.MigrationSummary), args.Error(1)
}
func (m *MockUserService) DetectDepartment(ctx context.Context, userID string, role domain.Role) string {
	args := m.Called(ctx, userID, role)
	return args.String(0)
}
