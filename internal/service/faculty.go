package service

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"campus-backend/internal/domain"
	"campus-backend/internal/logger"
	"campus-backend/internal/paths"
	"campus-backend/internal/repository"
)

func teacherFilters(code string) []repository.Filter {
	return []repository.Filter{
		{Field: "role", Value: string(domain.RoleTeacher)},
		{Field: "department", Value: code},
	}
}

// FacultyForDepartment collects the teachers of a department from the
// teacher rosters of the probe grid and from the flat user profiles,
// keeping the first record seen for each id. It fails only when every
// query failed.
func (s *workflowService) FacultyForDepartment(ctx context.Context, code string) ([]domain.Faculty, error) {
	logger.EnterMethod("workflowService.FacultyForDepartment", "department", code)

	placements := s.grid.Placements(code)
	type partial struct {
		docs []repository.Document
		err  error
	}
	results := make([]partial, len(placements)+1)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.grid.MaxConcurrency())
	for i, p := range placements {
		collection := paths.TeacherRoster(p)
		g.Go(func() error {
			docs, err := s.store.Query(gctx, collection, teacherFilters(code), repository.QueryOptions{})
			if err != nil {
				logger.Warn("Teacher roster query failed", "collection", collection, "error", err)
			}
			results[i] = partial{docs: docs, err: err}
			return nil
		})
	}
	_ = g.Wait()

	docs, err := s.store.Query(ctx, paths.Users, teacherFilters(code), repository.QueryOptions{})
	if err != nil {
		logger.Warn("Flat faculty query failed", "department", code, "error", err)
	}
	results[len(placements)] = partial{docs: docs, err: err}

	var (
		faculty []domain.Faculty
		seen    = make(map[string]bool)
		errs    []error
	)
	for _, r := range results {
		if r.err != nil {
			errs = append(errs, r.err)
			continue
		}
		for _, d := range r.docs {
			f := domain.FacultyFromDocument(d.ID, d.Data)
			if seen[f.ID] {
				continue
			}
			seen[f.ID] = true
			faculty = append(faculty, f)
		}
	}

	if len(errs) == len(results) {
		err := fmt.Errorf("faculty lookup for %s: %w", code, errors.Join(errs...))
		logger.ExitMethodWithError("workflowService.FacultyForDepartment", err)
		return nil, err
	}

	logger.ExitMethod("workflowService.FacultyForDepartment", "department", code, "faculty", len(faculty), "failedQueries", len(errs))
	return faculty, nil
}

// HeadForDepartment returns the flagged department head, or the first
// faculty member when no head is flagged. It returns nil when the
// department has no faculty at all.
func (s *workflowService) HeadForDepartment(ctx context.Context, code string) (*domain.Faculty, error) {
	logger.EnterMethod("workflowService.HeadForDepartment", "department", code)

	filters := append(teacherFilters(code), repository.Filter{Field: "isDepartmentHead", Value: true})
	docs, err := s.store.Query(ctx, paths.Users, filters, repository.QueryOptions{Limit: 1})
	if err != nil {
		logger.Warn("Department head query failed, falling back to faculty", "department", code, "error", err)
	} else if len(docs) > 0 {
		head := domain.FacultyFromDocument(docs[0].ID, docs[0].Data)
		head.IsHead = true
		logger.ExitMethod("workflowService.HeadForDepartment", "headID", head.ID, "source", "profile")
		return &head, nil
	}

	faculty, ferr := s.FacultyForDepartment(ctx, code)
	if ferr != nil {
		if err != nil {
			ferr = errors.Join(err, ferr)
		}
		logger.ExitMethodWithError("workflowService.HeadForDepartment", ferr)
		return nil, ferr
	}
	if len(faculty) == 0 {
		logger.ExitMethod("workflowService.HeadForDepartment", "headID", "", "source", "none")
		return nil, nil
	}
	head := faculty[0]
	logger.ExitMethod("workflowService.HeadForDepartment", "headID", head.ID, "source", "faculty")
	return &head, nil
}
