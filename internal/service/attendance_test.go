package service_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"campus-backend/internal/domain"
	"campus-backend/internal/paths"
	"campus-backend/internal/service"
)

func markInput(date, status string) service.MarkAttendanceInput {
	return service.MarkAttendanceInput{
		UserID:     "u123",
		RollNumber: "21CS01",
		Name:       "Asha",
		BatchYear:  "2021",
		Department: "CS",
		Year:       "2",
		Semester:   "3",
		Division:   "A",
		Date:       date,
		Status:     status,
		MarkedBy:   "t1",
	}
}

func TestAttendanceService_Mark(t *testing.T) {
	ctx := context.Background()

	t.Run("Same student and day overwrites everywhere", func(t *testing.T) {
		f := newFixture(t)

		id, report, err := f.attendance.Mark(ctx, markInput("2024-03-04", "present"))
		require.NoError(t, err)
		assert.Equal(t, "21CS01_2024-03-04", id)
		assert.Zero(t, report.Failed())

		id2, _, err := f.attendance.Mark(ctx, markInput("2024-03-04", "Absent"))
		require.NoError(t, err)
		assert.Equal(t, id, id2)

		date := day(2024, 3, 4)
		for _, collection := range []string{
			paths.Attendance,
			paths.SubjectAttendance(csDivision, "general", date),
			paths.BatchAttendance("2021", "CS", date),
		} {
			docs := f.store.Collection(collection)
			require.Len(t, docs, 1, collection)
			assert.Equal(t, "absent", docs[id]["status"], collection)
			assert.Equal(t, "2024-03-04", docs[id]["date"], collection)
		}
	})

	t.Run("User id is the key without a roll number", func(t *testing.T) {
		f := newFixture(t)
		in := markInput("2024-03-05", "late")
		in.RollNumber = ""
		in.Subject = "dbms"

		id, _, err := f.attendance.Mark(ctx, in)
		require.NoError(t, err)
		assert.Equal(t, "u123_2024-03-05", id)
		assert.Contains(t, f.store.Collection(paths.SubjectAttendance(csDivision, "dbms", day(2024, 3, 5))), id)
	})

	t.Run("Missing department is detected", func(t *testing.T) {
		f := newFixture(t)
		in := markInput("2024-03-05", "present")
		in.UserID, in.RollNumber, in.Department = "u200", "21IT07", ""

		id, _, err := f.attendance.Mark(ctx, in)
		require.NoError(t, err)
		assert.Equal(t, "IT", f.store.Collection(paths.Attendance)[id]["department"])
	})

	t.Run("Validation", func(t *testing.T) {
		f := newFixture(t)

		_, _, err := f.attendance.Mark(ctx, markInput("2024-13-40", "present"))
		assert.ErrorIs(t, err, domain.ErrValidation)

		_, _, err = f.attendance.Mark(ctx, markInput("2024-03-04", "sleeping"))
		assert.ErrorIs(t, err, domain.ErrValidation)
		assert.Empty(t, f.store.Collection(paths.Attendance))
	})

	t.Run("Authoritative write failure skips copies", func(t *testing.T) {
		f := newFixture(t)
		f.store.FailWith(failOn("set", paths.Attendance+"/"))

		_, _, err := f.attendance.Mark(ctx, markInput("2024-03-04", "present"))
		require.ErrorIs(t, err, domain.ErrStore)
		assert.Empty(t, f.store.Collections("attendance_records/"))
		assert.Empty(t, f.store.Collections("batch_attendance/"))
	})
}
