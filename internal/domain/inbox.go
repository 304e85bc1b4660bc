package domain

import "time"

// InboxEntry is one row of an approver's inbox. Entries are append-only
// snapshots; the authoritative state is always read through LeaveID.
type InboxEntry struct {
	ID            string      `json:"id"`
	LeaveID       string      `json:"leaveId"`
	ApproverID    string      `json:"approverId"`
	RequesterID   string      `json:"requesterId"`
	RequesterName string      `json:"requesterName,omitempty"`
	RollNumber    string      `json:"rollNumber,omitempty"`
	Department    string      `json:"department"`
	Year          string      `json:"year"`
	Semester      string      `json:"semester"`
	Division      string      `json:"division"`
	FromDate      string      `json:"fromDate"`
	ToDate        string      `json:"toDate"`
	Stage         Stage       `json:"stage"`
	Status        LeaveStatus `json:"status"`
	CreatedAt     time.Time   `json:"createdAt"`
}

// Fields renders the stored representation without timestamps.
func (e *InboxEntry) Fields() map[string]any {
	return map[string]any{
		"id":            e.ID,
		"leaveId":       e.LeaveID,
		"approverId":    e.ApproverID,
		"requesterId":   e.RequesterID,
		"requesterName": e.RequesterName,
		"rollNumber":    e.RollNumber,
		"department":    e.Department,
		"year":          e.Year,
		"semester":      e.Semester,
		"division":      e.Division,
		"fromDate":      e.FromDate,
		"toDate":        e.ToDate,
		"stage":         string(e.Stage),
		"status":        string(e.Status),
	}
}

// InboxEntryFromDocument decodes a stored inbox entry.
func InboxEntryFromDocument(id string, data map[string]any) InboxEntry {
	return InboxEntry{
		ID:            id,
		LeaveID:       getString(data, "leaveId"),
		ApproverID:    getString(data, "approverId"),
		RequesterID:   getString(data, "requesterId"),
		RequesterName: getString(data, "requesterName"),
		RollNumber:    getString(data, "rollNumber"),
		Department:    getString(data, "department"),
		Year:          getString(data, "year"),
		Semester:      getString(data, "semester"),
		Division:      getString(data, "division"),
		FromDate:      getString(data, "fromDate"),
		ToDate:        getString(data, "toDate"),
		Stage:         Stage(getString(data, "stage")),
		Status:        LeaveStatus(getString(data, "status")),
		CreatedAt:     getTime(data, "createdAt"),
	}
}

// InboxItem pairs an inbox entry with the request it points to. Request is
// nil when the authoritative record could not be read.
type InboxItem struct {
	Entry   InboxEntry    `json:"entry"`
	Request *LeaveRequest `json:"request,omitempty"`
}
