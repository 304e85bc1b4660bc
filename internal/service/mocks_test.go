package service_test

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"campus-backend/internal/domain"
)

// MockEmailService
type MockEmailService struct {
	mock.Mock
}

func (m *MockEmailService) SendNotification(ctx context.Context, to, toName, subject, body string) error {
	args := m.Called(ctx, to, toName, subject, body)
	return args.Error(0)
}

func (m *MockEmailService) SendLeaveReminder(ctx context.Context, to, toName string, req *domain.LeaveRequest, pendingFor time.Duration) error {
	args := m.Called(ctx, to, toName, req, pendingFor)
	return args.Error(0)
}
