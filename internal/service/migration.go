package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"campus-backend/internal/domain"
	"campus-backend/internal/logger"
	"campus-backend/internal/paths"
	"campus-backend/internal/repository"
)

// maxBatchWrites is the Firestore limit on writes per batch.
const maxBatchWrites = 500

// flatCollections lists the flat copies of every fact type that carries a
// roll number.
var flatCollections = []struct {
	kind       FactKind
	collection string
}{
	{FactAttendance, paths.Attendance},
	{FactLeave, paths.LeaveRequests},
	{FactLeave, paths.Leaves},
	{FactNotification, paths.Notifications},
	{FactAudit, paths.AuditLogs},
}

// FactCount is the per fact type result of a migration.
type FactCount struct {
	Migrated int `json:"migrated"`
	Errors   int `json:"errors"`
}

// MigrationSummary reports what a roll number migration touched.
type MigrationSummary struct {
	UserID         string                  `json:"userId"`
	OldRollNumber  string                  `json:"oldRollNumber"`
	NewRollNumber  string                  `json:"newRollNumber"`
	Facts          map[FactKind]*FactCount `json:"facts"`
	ProbedDates    int                     `json:"probedDates"`
	MappingWritten bool                    `json:"mappingWritten"`

	mu sync.Mutex
}

func newMigrationSummary(in MigrateInput) *MigrationSummary {
	s := &MigrationSummary{
		UserID:        in.UserID,
		OldRollNumber: in.OldRollNumber,
		NewRollNumber: in.NewRollNumber,
		Facts:         make(map[FactKind]*FactCount),
	}
	for _, k := range []FactKind{FactAttendance, FactLeave, FactNotification, FactAudit} {
		s.Facts[k] = &FactCount{}
	}
	return s
}

func (s *MigrationSummary) count(kind FactKind, migrated, failed int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Facts[kind].Migrated += migrated
	s.Facts[kind].Errors += failed
}

// Total sums the counts over every fact type.
func (s *MigrationSummary) Total() FactCount {
	s.mu.Lock()
	defer s.mu.Unlock()
	var t FactCount
	for _, c := range s.Facts {
		t.Migrated += c.Migrated
		t.Errors += c.Errors
	}
	return t
}

type migrationService struct {
	store repository.DocumentStore
	grid  *domain.ProbeGrid
}

func NewMigrationService(store repository.DocumentStore, grid *domain.ProbeGrid) MigrationService {
	return &migrationService{store: store, grid: grid}
}

// Migrate rewrites the roll number on every derived copy of the user's
// facts and records the change. The caller must already have updated the
// profile. Per-record failures are counted; the call only fails when none
// of the flat collections could be read.
func (s *migrationService) Migrate(ctx context.Context, in MigrateInput) (*MigrationSummary, error) {
	logger.EnterMethod("migrationService.Migrate", "userID", in.UserID, "oldRoll", in.OldRollNumber, "newRoll", in.NewRollNumber)

	if strings.TrimSpace(in.UserID) == "" || strings.TrimSpace(in.NewRollNumber) == "" {
		err := domain.NewValidationError("userId", "userId and newRollNumber are required")
		logger.ExitMethodWithError("migrationService.Migrate", err)
		return nil, err
	}

	summary := newMigrationSummary(in)
	patch := map[string]any{
		"rollNumber":          in.NewRollNumber,
		"rollNumberChanged":   true,
		"previousRollNumber":  in.OldRollNumber,
		"rollNumberChangedAt": s.store.ServerTimestamp(),
	}
	byUser := []repository.Filter{{Field: "userId", Value: in.UserID}}

	// Step 1: flat collections.
	found := make([][]repository.Document, len(flatCollections))
	queryErrs := make([]error, len(flatCollections))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.grid.MaxConcurrency())
	for i, fc := range flatCollections {
		g.Go(func() error {
			found[i], queryErrs[i] = s.store.Query(gctx, fc.collection, byUser, repository.QueryOptions{})
			return nil
		})
	}
	_ = g.Wait()

	var failedQueries []error
	var knownDates []time.Time
	for i, fc := range flatCollections {
		if queryErrs[i] != nil {
			logger.Warn("Migration query failed", "collection", fc.collection, "error", queryErrs[i])
			failedQueries = append(failedQueries, queryErrs[i])
			summary.count(fc.kind, 0, 1)
			continue
		}
		knownDates = append(knownDates, factDates(found[i])...)
	}
	if len(failedQueries) == len(flatCollections) {
		err := fmt.Errorf("roll number migration for %s: no flat collection readable: %w", in.UserID, errors.Join(failedQueries...))
		logger.ExitMethodWithError("migrationService.Migrate", err)
		return summary, err
	}

	for i, fc := range flatCollections {
		if queryErrs[i] == nil && len(found[i]) > 0 {
			migrated, failed := s.patchAll(ctx, found[i], patch)
			summary.count(fc.kind, migrated, failed)
		}
	}

	// Step 2: hierarchical attendance and leave partitions.
	if complete(in.Placement) {
		dates := s.grid.ProbeDates(knownDates, in.From, in.To)
		summary.ProbedDates = len(dates)
		s.migratePartitions(ctx, in, dates, byUser, patch, summary)
	} else {
		logger.Warn("Placement incomplete, skipping hierarchical migration", "userID", in.UserID, "placement", in.Placement)
	}

	// Step 3: single-slot mapping, last write wins.
	mapping := map[string]any{
		"userId":        in.UserID,
		"oldRollNumber": in.OldRollNumber,
		"newRollNumber": in.NewRollNumber,
		"changedAt":     s.store.ServerTimestamp(),
	}
	if err := s.store.Set(ctx, paths.RollNumberMappings, in.UserID, mapping, false); err != nil {
		logger.Warn("Roll number mapping write failed", "userID", in.UserID, "error", err)
	} else {
		summary.MappingWritten = true
	}

	total := summary.Total()
	logger.ExitMethod("migrationService.Migrate", "userID", in.UserID, "migrated", total.Migrated, "errors", total.Errors, "mapping", summary.MappingWritten)
	return summary, nil
}

func (s *migrationService) migratePartitions(ctx context.Context, in MigrateInput, dates []time.Time, byUser []repository.Filter, patch map[string]any, summary *MigrationSummary) {
	subjects := s.grid.Subjects()
	if in.Placement.Subject != "" && !contains(subjects, in.Placement.Subject) {
		subjects = append(subjects, in.Placement.Subject)
	}

	type partition struct {
		kind       FactKind
		collection string
	}
	var partitions []partition
	for _, d := range dates {
		partitions = append(partitions, partition{FactAttendance, paths.BatchAttendance(in.Placement.BatchYear, in.Placement.Department, d)})
		for _, subj := range subjects {
			partitions = append(partitions,
				partition{FactAttendance, paths.SubjectAttendance(in.Placement, subj, d)},
				partition{FactLeave, paths.Leave(in.Placement, subj, d)},
			)
		}
	}
	logger.Debug("Probing hierarchical partitions", "userID", in.UserID, "partitions", len(partitions))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.grid.MaxConcurrency())
	for _, p := range partitions {
		g.Go(func() error {
			docs, err := s.store.Query(gctx, p.collection, byUser, repository.QueryOptions{})
			if err != nil {
				logger.Warn("Partition probe failed", "collection", p.collection, "error", err)
				summary.count(p.kind, 0, 1)
				return nil
			}
			if len(docs) == 0 {
				return nil
			}
			migrated, failed := s.patchAll(gctx, docs, patch)
			summary.count(p.kind, migrated, failed)
			return nil
		})
	}
	_ = g.Wait()
}

// patchAll merges patch into docs of one collection in batches. A failed
// batch is retried document by document so one bad record does not hold
// back the rest.
func (s *migrationService) patchAll(ctx context.Context, docs []repository.Document, patch map[string]any) (migrated, failed int) {
	for start := 0; start < len(docs); start += maxBatchWrites {
		end := min(start+maxBatchWrites, len(docs))
		chunk := docs[start:end]

		ops := make([]repository.WriteOp, len(chunk))
		for i, d := range chunk {
			ops[i] = repository.WriteOp{Kind: repository.WriteMerge, Collection: d.Collection, ID: d.ID, Fields: patch}
		}
		err := s.store.BatchCommit(ctx, ops)
		if err == nil {
			migrated += len(chunk)
			continue
		}
		logger.Warn("Migration batch failed, retrying per document", "collection", chunk[0].Collection, "documents", len(chunk), "error", err)

		for _, d := range chunk {
			if err := s.store.Set(ctx, d.Collection, d.ID, patch, true); err != nil {
				logger.Warn("Migration write failed", "document", repository.DocPath(d.Collection, d.ID), "error", err)
				failed++
				continue
			}
			migrated++
		}
	}
	return migrated, failed
}

// factDates extracts the days a set of facts are filed under.
func factDates(docs []repository.Document) []time.Time {
	var out []time.Time
	for _, d := range docs {
		for _, field := range []string{"date", "fromDate"} {
			if s, ok := d.Data[field].(string); ok {
				if t, err := paths.ParseDate(s); err == nil {
					out = append(out, t)
				}
			}
		}
	}
	return out
}

func complete(p paths.Placement) bool {
	return p.BatchYear != "" && p.Department != "" && p.Year != "" && p.Semester != "" && p.Division != ""
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}
