package paths

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var placement = Placement{
	BatchYear:  "2021",
	Department: "CS",
	Year:       "2",
	Semester:   "3",
	Division:   "A",
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestTemplates(t *testing.T) {
	date := day(2024, time.March, 5)

	assert.Equal(t, "attendance_records/batch/2021/CS/year/2/sems/3/divs/A/subjects/dbms/2024/03/05",
		SubjectAttendance(placement, "dbms", date))
	assert.Equal(t, "leave_records/batch/2021/CS/year/2/sems/3/divs/A/subjects/general/2024/03/05",
		Leave(placement, "general", date))
	assert.Equal(t, "rosters/batch/2021/CS/year/2/sems/3/divs/A/students", StudentRoster(placement))
	assert.Equal(t, "rosters/batch/2021/CS/year/2/sems/3/divs/A/teachers", TeacherRoster(placement))
	assert.Equal(t, "notification_records/batch/2021/CS/year/2/sems/3/divs/A/2024/03/05", Notification(placement, date))
	assert.Equal(t, "audit_records/batch/2021/CS/year/2/sems/3/divs/A/2024/03/05", AuditLog(placement, date))
	assert.Equal(t, "results/batch/2021/CS/year/2/sems/3/divs/A/subjects/dbms/marks", Result(placement, "dbms"))
	assert.Equal(t, "batch_attendance/batch/2021/CS/2024/03/05", BatchAttendance("2021", "CS", date))
	assert.Equal(t, "approver_inbox/t1/items", Inbox("t1"))
}

func TestCollectionPathsHaveOddSegments(t *testing.T) {
	date := day(2024, time.December, 31)
	for _, p := range []string{
		SubjectAttendance(placement, "x", date),
		Leave(placement, "x", date),
		StudentRoster(placement),
		TeacherRoster(placement),
		Notification(placement, date),
		AuditLog(placement, date),
		Result(placement, "x"),
		BatchAttendance("2021", "CS", date),
		Inbox("a"),
	} {
		segments := len(strings.Split(p, "/"))
		assert.Equal(t, 1, segments%2, "collection path %s", p)
	}
}

func TestMalformedInputIsConcatenatedVerbatim(t *testing.T) {
	p := Placement{BatchYear: "", Department: "c s", Year: "x", Semester: "", Division: "A/B"}
	assert.Equal(t, "rosters/batch//c s/year/x/sems//divs/A/B/students", StudentRoster(p))
}

func TestDateSegments(t *testing.T) {
	y, m, d := DateSegments(day(2024, time.January, 9))
	assert.Equal(t, "2024", y)
	assert.Equal(t, "01", m)
	assert.Equal(t, "09", d)
}

func TestCompositeID(t *testing.T) {
	date := day(2024, time.February, 29)

	first := CompositeID("21CS01", date)
	second := CompositeID("21CS01", date)

	assert.Equal(t, "21CS01_2024-02-29", first)
	assert.Equal(t, first, second)
	assert.NotEqual(t, first, CompositeID("21CS01", date.AddDate(0, 0, 1)))
}

func TestParseDate(t *testing.T) {
	t.Run("Valid date", func(t *testing.T) {
		date, err := ParseDate("2024-01-15")
		require.NoError(t, err)
		assert.Equal(t, day(2024, time.January, 15), date)
	})

	t.Run("Invalid format", func(t *testing.T) {
		_, err := ParseDate("2024/01/15")
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "invalid date format")
	})

	t.Run("Round trip", func(t *testing.T) {
		date, err := ParseDate(FormatDate(day(2023, time.November, 2)))
		require.NoError(t, err)
		assert.Equal(t, "2023-11-02", FormatDate(date))
	})
}

func TestYearForSemester(t *testing.T) {
	cases := map[string]string{"1": "1", "2": "1", "3": "2", "7": "4", "8": "4", "x": "x"}
	for sem, want := range cases {
		assert.Equal(t, want, YearForSemester(sem), "semester %s", sem)
	}
}
