package domain

import (
	"time"

	"campus-backend/internal/paths"
)

// Assignee is the faculty member currently responsible for a request.
type Assignee struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  Stage  `json:"role"`
}

func (a *Assignee) fields() map[string]any {
	if a == nil {
		return nil
	}
	return map[string]any{
		"id":    a.ID,
		"name":  a.Name,
		"email": a.Email,
		"role":  string(a.Role),
	}
}

func assigneeFrom(m map[string]any) *Assignee {
	if m == nil || getString(m, "id") == "" {
		return nil
	}
	return &Assignee{
		ID:    getString(m, "id"),
		Name:  getString(m, "name"),
		Email: getString(m, "email"),
		Role:  Stage(getString(m, "role")),
	}
}

// ApprovalEvent records one decision taken on a request.
type ApprovalEvent struct {
	Stage     Stage     `json:"stage"`
	Decision  Decision  `json:"decision"`
	ActorID   string    `json:"actorId,omitempty"`
	ActorName string    `json:"actorName,omitempty"`
	ActorRole Role      `json:"actorRole,omitempty"`
	Comments  string    `json:"comments,omitempty"`
	At        time.Time `json:"at"`
}

func (e ApprovalEvent) fields() map[string]any {
	return map[string]any{
		"stage":     string(e.Stage),
		"decision":  string(e.Decision),
		"actorId":   e.ActorID,
		"actorName": e.ActorName,
		"actorRole": string(e.ActorRole),
		"comments":  e.Comments,
		"at":        e.At,
	}
}

// LeaveRequest is the authoritative leave record.
type LeaveRequest struct {
	ID             string          `json:"id"`
	UserID         string          `json:"userId"`
	RollNumber     string          `json:"rollNumber,omitempty"`
	RequesterName  string          `json:"requesterName,omitempty"`
	RequesterEmail string          `json:"requesterEmail,omitempty"`
	RequesterRole  Role            `json:"requesterRole"`
	Placement      paths.Placement `json:"placement"`
	FromDate       time.Time       `json:"fromDate"`
	ToDate         time.Time       `json:"toDate"`
	LeaveType      string          `json:"leaveType,omitempty"`
	Reason         string          `json:"reason"`

	Status               LeaveStatus     `json:"status"`
	CurrentApprovalLevel Stage           `json:"currentApprovalLevel"`
	ApprovalFlow         ApprovalChain   `json:"approvalFlow"`
	AssignedTo           *Assignee       `json:"assignedTo,omitempty"`
	StageIndex           int64           `json:"currentStageIndex"`
	StageVersion         int64           `json:"stageVersion"`
	ActionRequired       bool            `json:"actionRequired"`
	Comments             string          `json:"comments,omitempty"`
	ApprovalHistory      []ApprovalEvent `json:"approvalHistory,omitempty"`

	// Location of the hierarchical copy, fixed when the request is created.
	MirrorPath string `json:"mirrorPath,omitempty"`
	MirrorID   string `json:"mirrorId,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Key is the identity used in composite ids: roll number when known,
// user id otherwise.
func (r *LeaveRequest) Key() string {
	if r.RollNumber != "" {
		return r.RollNumber
	}
	return r.UserID
}

// CompositeID is the id of the request's hierarchical copy.
func (r *LeaveRequest) CompositeID() string {
	return paths.CompositeID(r.Key(), r.FromDate)
}

// MirrorRef returns where the hierarchical copy lives. Records written
// before the location was stored fall back to the computed one.
func (r *LeaveRequest) MirrorRef() (string, string) {
	if r.MirrorPath != "" && r.MirrorID != "" {
		return r.MirrorPath, r.MirrorID
	}
	return r.HierarchicalPath(), r.CompositeID()
}

// ApprovedStages counts the approvals recorded in the history.
func (r *LeaveRequest) ApprovedStages() int {
	n := 0
	for _, e := range r.ApprovalHistory {
		if e.Decision == DecisionApproved {
			n++
		}
	}
	return n
}

// Subject returns the subject partition of the request.
func (r *LeaveRequest) Subject() string {
	if r.Placement.Subject != "" {
		return r.Placement.Subject
	}
	return DefaultSubject
}

// HierarchicalPath is the leave partition the request is mirrored into.
func (r *LeaveRequest) HierarchicalPath() string {
	return paths.Leave(r.Placement, r.Subject(), r.FromDate)
}

// DefaultSubject is used for facts that are not tied to a subject.
const DefaultSubject = "general"

// Fields renders the full stored representation. Timestamps are left to
// the caller so they can be stamped by the store.
func (r *LeaveRequest) Fields() map[string]any {
	history := make([]any, 0, len(r.ApprovalHistory))
	for _, e := range r.ApprovalHistory {
		history = append(history, e.fields())
	}
	f := map[string]any{
		"id":                   r.ID,
		"userId":               r.UserID,
		"rollNumber":           r.RollNumber,
		"requesterName":        r.RequesterName,
		"requesterEmail":       r.RequesterEmail,
		"requesterRole":        string(r.RequesterRole),
		"batchYear":            r.Placement.BatchYear,
		"department":           r.Placement.Department,
		"year":                 r.Placement.Year,
		"semester":             r.Placement.Semester,
		"division":             r.Placement.Division,
		"subject":              r.Placement.Subject,
		"fromDate":             paths.FormatDate(r.FromDate),
		"toDate":               paths.FormatDate(r.ToDate),
		"leaveType":            r.LeaveType,
		"reason":               r.Reason,
		"status":               string(r.Status),
		"currentApprovalLevel": string(r.CurrentApprovalLevel),
		"approvalFlow":         r.ApprovalFlow.Strings(),
		"currentStageIndex":    r.StageIndex,
		"stageVersion":         r.StageVersion,
		"actionRequired":       r.ActionRequired,
		"comments":             r.Comments,
		"approvalHistory":      history,
	}
	if r.MirrorID != "" {
		f["mirrorPath"] = r.MirrorPath
		f["mirrorId"] = r.MirrorID
	}
	if r.AssignedTo != nil {
		f["assignedTo"] = r.AssignedTo.fields()
	}
	return f
}

// HistoryFields renders the approval history for a patch.
func (r *LeaveRequest) HistoryFields() []any {
	out := make([]any, 0, len(r.ApprovalHistory))
	for _, e := range r.ApprovalHistory {
		out = append(out, e.fields())
	}
	return out
}

// AssigneeFields renders an assignee for a patch; nil clears the field.
func AssigneeFields(a *Assignee) any {
	if a == nil {
		return nil
	}
	return a.fields()
}

// LeaveRequestFromDocument decodes a stored leave request.
func LeaveRequestFromDocument(id string, data map[string]any) *LeaveRequest {
	from, _ := paths.ParseDate(getString(data, "fromDate"))
	to, _ := paths.ParseDate(getString(data, "toDate"))

	var history []ApprovalEvent
	for _, m := range getMaps(data, "approvalHistory") {
		history = append(history, ApprovalEvent{
			Stage:     Stage(getString(m, "stage")),
			Decision:  Decision(getString(m, "decision")),
			ActorID:   getString(m, "actorId"),
			ActorName: getString(m, "actorName"),
			ActorRole: Role(getString(m, "actorRole")),
			Comments:  getString(m, "comments"),
			At:        getTime(m, "at"),
		})
	}

	return &LeaveRequest{
		ID:             id,
		UserID:         getString(data, "userId"),
		RollNumber:     getString(data, "rollNumber"),
		RequesterName:  getString(data, "requesterName"),
		RequesterEmail: getString(data, "requesterEmail"),
		RequesterRole:  Role(getString(data, "requesterRole")),
		Placement: paths.Placement{
			BatchYear:  getString(data, "batchYear"),
			Department: getString(data, "department"),
			Year:       getString(data, "year"),
			Semester:   getString(data, "semester"),
			Division:   getString(data, "division"),
			Subject:    getString(data, "subject"),
		},
		FromDate:             from,
		ToDate:               to,
		LeaveType:            getString(data, "leaveType"),
		Reason:               getString(data, "reason"),
		Status:               LeaveStatus(getString(data, "status")),
		CurrentApprovalLevel: Stage(getString(data, "currentApprovalLevel")),
		ApprovalFlow:         ChainFromStrings(getStrings(data, "approvalFlow")),
		AssignedTo:           assigneeFrom(getMap(data, "assignedTo")),
		StageIndex:           getInt64(data, "currentStageIndex"),
		StageVersion:         getInt64(data, "stageVersion"),
		ActionRequired:       getBool(data, "actionRequired"),
		Comments:             getString(data, "comments"),
		ApprovalHistory:      history,
		MirrorPath:           getString(data, "mirrorPath"),
		MirrorID:             getString(data, "mirrorId"),
		CreatedAt:            getTime(data, "createdAt"),
		UpdatedAt:            getTime(data, "updatedAt"),
	}
}
