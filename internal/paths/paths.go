// Package paths formats the canonical storage locations of every fact type.
//
// The resolver is deliberately dumb: it never validates its inputs and never
// touches the store. Malformed values are concatenated verbatim, so callers
// validate placement fields before asking for a path. Segment order is an
// external contract shared with data that already exists in the store.
package paths

import (
	"fmt"
	"strings"
	"time"
)

// Flat collections.
const (
	Users              = "users"
	LeaveRequests      = "leave_requests"
	Leaves             = "leaves"
	Attendance         = "attendance"
	Notifications      = "notifications"
	AuditLogs          = "audit_logs"
	RollNumberMappings = "roll_number_mappings"
)

// Roots of the hierarchical collections.
const (
	attendanceRoot      = "attendance_records"
	leaveRoot           = "leave_records"
	rosterRoot          = "rosters"
	notificationRoot    = "notification_records"
	auditRoot           = "audit_records"
	resultRoot          = "results"
	batchAttendanceRoot = "batch_attendance"
	inboxRoot           = "approver_inbox"

	studentLeaf = "students"
	teacherLeaf = "teachers"
	marksLeaf   = "marks"
	inboxLeaf   = "items"
)

// DateLayout is the ISO date format used in composite ids and stored dates.
const DateLayout = "2006-01-02"

// Placement locates a fact inside the academic hierarchy.
type Placement struct {
	BatchYear  string `json:"batchYear"`
	Department string `json:"department"`
	Year       string `json:"year"`
	Semester   string `json:"semester"`
	Division   string `json:"division"`
	Subject    string `json:"subject,omitempty"`
}

// division returns <root>/batch/<by>/<dept>/year/<y>/sems/<s>/divs/<d>.
func division(root string, p Placement) string {
	return strings.Join([]string{
		root,
		"batch", p.BatchYear, p.Department,
		"year", p.Year,
		"sems", p.Semester,
		"divs", p.Division,
	}, "/")
}

// DateSegments splits a date into YYYY, MM and DD.
func DateSegments(date time.Time) (string, string, string) {
	return fmt.Sprintf("%04d", date.Year()),
		fmt.Sprintf("%02d", int(date.Month())),
		fmt.Sprintf("%02d", date.Day())
}

func dated(prefix string, date time.Time) string {
	y, m, d := DateSegments(date)
	return prefix + "/" + y + "/" + m + "/" + d
}

// SubjectAttendance returns the attendance partition for a subject on a day.
func SubjectAttendance(p Placement, subject string, date time.Time) string {
	return dated(division(attendanceRoot, p)+"/subjects/"+subject, date)
}

// Leave returns the leave partition for a subject on a day.
func Leave(p Placement, subject string, date time.Time) string {
	return dated(division(leaveRoot, p)+"/subjects/"+subject, date)
}

// StudentRoster returns the student roster collection of a division.
func StudentRoster(p Placement) string {
	return division(rosterRoot, p) + "/" + studentLeaf
}

// TeacherRoster returns the teacher roster collection of a division.
func TeacherRoster(p Placement) string {
	return division(rosterRoot, p) + "/" + teacherLeaf
}

// Notification returns the notification partition of a division on a day.
func Notification(p Placement, date time.Time) string {
	return dated(division(notificationRoot, p), date)
}

// AuditLog returns the audit partition of a division on a day.
func AuditLog(p Placement, date time.Time) string {
	return dated(division(auditRoot, p), date)
}

// Result returns the marks collection of a subject.
func Result(p Placement, subject string) string {
	return division(resultRoot, p) + "/subjects/" + subject + "/" + marksLeaf
}

// BatchAttendance returns the batch-wide attendance partition on a day.
func BatchAttendance(batchYear, department string, date time.Time) string {
	return dated(strings.Join([]string{batchAttendanceRoot, "batch", batchYear, department}, "/"), date)
}

// Inbox returns the inbox collection of an approver.
func Inbox(approverID string) string {
	return inboxRoot + "/" + approverID + "/" + inboxLeaf
}

// CompositeID derives the deterministic id of an attendance-like fact.
// The same key and day always produce the same id, so repeated writes
// overwrite instead of duplicating.
func CompositeID(key string, date time.Time) string {
	return key + "_" + FormatDate(date)
}

// FormatDate renders a date as YYYY-MM-DD.
func FormatDate(date time.Time) string {
	return date.Format(DateLayout)
}

// ParseDate parses a YYYY-MM-DD date in UTC.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date format %q, expected YYYY-MM-DD", s)
	}
	return t, nil
}

// YearForSemester derives the academic year from a semester number
// (two semesters per year). Non-numeric input is returned unchanged.
func YearForSemester(semester string) string {
	var n int
	if _, err := fmt.Sscanf(semester, "%d", &n); err != nil || n <= 0 {
		return semester
	}
	return fmt.Sprintf("%d", (n+1)/2)
}
