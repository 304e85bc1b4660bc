package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"campus-backend/internal/department"
	"campus-backend/internal/domain"
	"campus-backend/internal/logger"
	"campus-backend/internal/paths"
	"campus-backend/internal/repository"
)

type userService struct {
	store       repository.DocumentStore
	departments *department.Resolver
	migrator    MigrationService
}

func NewUserService(store repository.DocumentStore, departments *department.Resolver, migrator MigrationService) UserService {
	return &userService{store: store, departments: departments, migrator: migrator}
}

// ChangeRollNumber updates the profile, which is the source of truth, and
// only then migrates the derived copies. A failed profile write aborts
// before any copy is touched.
func (s *userService) ChangeRollNumber(ctx context.Context, in ChangeRollNumberInput) (*MigrationSummary, error) {
	logger.EnterMethod("userService.ChangeRollNumber", "userID", in.UserID, "newRoll", in.NewRollNumber)

	newRoll := strings.TrimSpace(in.NewRollNumber)
	if newRoll == "" {
		err := domain.NewValidationError("newRollNumber", "is required")
		logger.ExitMethodWithError("userService.ChangeRollNumber", err)
		return nil, err
	}
	var from, to time.Time
	var err error
	if in.From != "" {
		if from, err = paths.ParseDate(in.From); err != nil {
			return nil, domain.NewValidationError("from", err.Error())
		}
	}
	if in.To != "" {
		if to, err = paths.ParseDate(in.To); err != nil {
			return nil, domain.NewValidationError("to", err.Error())
		}
	}

	doc, err := s.store.Get(ctx, paths.Users, in.UserID)
	if err != nil {
		logger.ExitMethodWithError("userService.ChangeRollNumber", err)
		return nil, err
	}
	if doc == nil {
		err := fmt.Errorf("user %s: %w", in.UserID, domain.ErrNotFound)
		logger.ExitMethodWithError("userService.ChangeRollNumber", err)
		return nil, err
	}
	profile := domain.UserProfileFromDocument(doc.ID, doc.Data)
	oldRoll := profile.RollNumber
	if oldRoll == newRoll {
		err := domain.NewValidationError("newRollNumber", "matches the current roll number")
		logger.ExitMethodWithError("userService.ChangeRollNumber", err)
		return nil, err
	}

	update := map[string]any{
		"rollNumber": newRoll,
		"updatedAt":  s.store.ServerTimestamp(),
	}
	if err := s.store.Set(ctx, paths.Users, in.UserID, update, true); err != nil {
		logger.Error("Failed to update profile roll number", "userID", in.UserID, "error", err)
		logger.ExitMethodWithError("userService.ChangeRollNumber", err)
		return nil, fmt.Errorf("update roll number: %w", err)
	}
	logger.Info("Profile roll number updated", "userID", in.UserID, "oldRoll", oldRoll, "newRoll", newRoll)

	dept := in.Department
	if dept == "" {
		dept = profile.Department
	}
	placement := paths.Placement{
		BatchYear: in.BatchYear,
		Year:      in.Year,
		Semester:  in.Semester,
		Division:  in.Division,
	}
	if dept != "" {
		placement.Department = s.departments.Table().Normalize(dept)
	}
	if placement.Year == "" && placement.Semester != "" {
		placement.Year = paths.YearForSemester(placement.Semester)
	}

	summary, err := s.migrator.Migrate(ctx, MigrateInput{
		UserID:        in.UserID,
		OldRollNumber: oldRoll,
		NewRollNumber: newRoll,
		Placement:     placement,
		From:          from,
		To:            to,
	})
	if err != nil {
		logger.ExitMethodWithError("userService.ChangeRollNumber", err)
		return summary, err
	}

	logger.ExitMethod("userService.ChangeRollNumber", "userID", in.UserID)
	return summary, nil
}

func (s *userService) DetectDepartment(ctx context.Context, userID string, role domain.Role) string {
	return s.departments.AutoDetect(ctx, userID, role)
}
