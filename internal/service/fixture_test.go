package service_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"campus-backend/internal/department"
	"campus-backend/internal/domain"
	"campus-backend/internal/paths"
	"campus-backend/internal/repository"
	"campus-backend/internal/repository/memory"
	"campus-backend/internal/service"
)

var csDivision = paths.Placement{BatchYear: "2021", Department: "CS", Year: "2", Semester: "3", Division: "A"}

type fixture struct {
	store         *memory.Store
	email         *MockEmailService
	grid          *domain.ProbeGrid
	resolver      *department.Resolver
	mirror        service.Mirror
	notifications service.NotificationService
	workflow      service.WorkflowService
	attendance    service.AttendanceService
	migration     service.MigrationService
	users         service.UserService
}

func newFixture(t *testing.T) *fixture {
	mem := memory.New()
	return newFixtureWith(t, mem, mem)
}

// newFixtureWith wires the services on top of store, which may wrap mem.
func newFixtureWith(t *testing.T, mem *memory.Store, store repository.DocumentStore) *fixture {
	t.Helper()

	grid := domain.NewProbeGrid(domain.ProbeGridConfig{
		BatchYears:     []string{"2021"},
		Semesters:      []string{"3"},
		Divisions:      []string{"A"},
		Subjects:       []string{"general", "dbms"},
		MaxConcurrency: 4,
		MaxProbeDays:   31,
		MaxPartitions:  16,
	})
	table := department.NewTable([]string{"CS", "IT", "ENTC", "MECH", "CIVIL"}, "CS", map[string]string{
		"computer science":       "CS",
		"information technology": "IT",
	})
	resolver := department.NewResolver(store, table, grid)

	email := new(MockEmailService)
	email.On("SendNotification", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil).Maybe()

	mirror := service.NewMirror(store, grid)
	notifications := service.NewNotificationService(store, mirror, email)
	migration := service.NewMigrationService(store, grid)

	f := &fixture{
		store:         mem,
		email:         email,
		grid:          grid,
		resolver:      resolver,
		mirror:        mirror,
		notifications: notifications,
		workflow:      service.NewWorkflowService(store, domain.DefaultApprovalPolicy(), resolver, grid, mirror, notifications),
		attendance:    service.NewAttendanceService(store, resolver, mirror),
		migration:     migration,
		users:         service.NewUserService(store, resolver, migration),
	}
	f.seed(t)
	return f
}

func (f *fixture) seed(t *testing.T) {
	ctx := context.Background()
	put := func(collection, id string, data map[string]any) {
		require.NoError(t, f.store.Set(ctx, collection, id, data, false))
	}

	put(paths.Users, "u123", map[string]any{"name": "Asha", "email": "asha@campus.edu", "role": "student", "department": "CS", "rollNumber": "21CS01"})
	put(paths.Users, "u200", map[string]any{"name": "Ravi", "email": "ravi@campus.edu", "role": "student", "rollNumber": "21IT07"})
	put(paths.Users, "t1", map[string]any{"name": "Tara", "email": "t1@campus.edu", "role": "teacher", "department": "CS"})
	put(paths.Users, "h1", map[string]any{"name": "Hari", "email": "h1@campus.edu", "role": "teacher", "department": "CS", "isDepartmentHead": true})
	put(paths.Users, "p1", map[string]any{"name": "Priya", "email": "p1@campus.edu", "role": "principal"})
	put(paths.Users, "r1", map[string]any{"name": "Rohan", "email": "r1@campus.edu", "role": "registrar"})
	put(paths.Users, "t2", map[string]any{"name": "Tejas", "email": "t2@campus.edu", "role": "teacher", "department": "IT"})

	put(paths.TeacherRoster(csDivision), "t1", map[string]any{"name": "Tara", "email": "t1@campus.edu", "role": "teacher", "department": "CS"})
	put(paths.TeacherRoster(csDivision), "t3", map[string]any{"name": "Tom", "email": "t3@campus.edu", "role": "teacher", "department": "CS"})

	itDivision := csDivision
	itDivision.Department = "IT"
	put(paths.StudentRoster(itDivision), "u200", map[string]any{"name": "Ravi", "rollNumber": "21IT07"})
}

func leaveInput() service.CreateLeaveInput {
	return service.CreateLeaveInput{
		RequesterID: "u123",
		Department:  "CS",
		BatchYear:   "2021",
		Year:        "2",
		Semester:    "3",
		Division:    "A",
		FromDate:    "2024-03-04",
		ToDate:      "2024-03-06",
		LeaveType:   "medical",
		Reason:      "fever",
	}
}

func (f *fixture) createLeave(t *testing.T, in service.CreateLeaveInput) string {
	t.Helper()
	id, err := f.workflow.CreateLeave(context.Background(), in)
	require.NoError(t, err)
	return id
}

func (f *fixture) leaveDoc(id string) map[string]any {
	return f.store.Collection(paths.LeaveRequests)[id]
}

func failOn(op, prefix string) func(string, string) error {
	return func(gotOp, path string) error {
		if gotOp == op && strings.HasPrefix(path, prefix) {
			return memory.ErrInjected
		}
		return nil
	}
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
