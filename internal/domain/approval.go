package domain

import (
	"fmt"
	"strings"
)

// Role is the role string stored on a user profile.
type Role string

const (
	RoleStudent   Role = "student"
	RoleStaff     Role = "staff"
	RoleTeacher   Role = "teacher"
	RoleHOD       Role = "hod"
	RoleRegistrar Role = "registrar"
	RolePrincipal Role = "principal"
	RoleAdmin     Role = "admin"
)

// ParseRole normalizes a free-form role string.
func ParseRole(s string) Role {
	return Role(strings.ToLower(strings.TrimSpace(s)))
}

// Stage is one named step of an approval chain.
type Stage string

const (
	StageTeacher   Stage = "Teacher"
	StageHOD       Stage = "HOD"
	StageRegistrar Stage = "Registrar"
	StagePrincipal Stage = "Principal"
	StageAdmin     Stage = "Admin"
)

func (s Stage) String() string { return string(s) }

// LeaveStatus is the lifecycle status of a leave request.
type LeaveStatus string

const (
	LeaveStatusPending  LeaveStatus = "pending"
	LeaveStatusApproved LeaveStatus = "approved"
	LeaveStatusRejected LeaveStatus = "rejected"
	LeaveStatusReturned LeaveStatus = "returned"
)

func (s LeaveStatus) String() string { return string(s) }

// Decision is the verdict an approver records at a stage.
type Decision string

const (
	DecisionApproved Decision = "approved"
	DecisionRejected Decision = "rejected"
	DecisionReturned Decision = "returned"
)

func (d Decision) IsValid() bool {
	switch d {
	case DecisionApproved, DecisionRejected, DecisionReturned:
		return true
	}
	return false
}

// ApprovalChain is the ordered list of stages a request passes through.
type ApprovalChain []Stage

// Validate enforces a non-empty chain with no repeated consecutive stage.
func (c ApprovalChain) Validate() error {
	if len(c) == 0 {
		return NewValidationError("approvalFlow", "must contain at least one stage")
	}
	for i, s := range c {
		if strings.TrimSpace(string(s)) == "" {
			return NewValidationError("approvalFlow", fmt.Sprintf("stage %d is empty", i))
		}
		if i > 0 && c[i-1] == s {
			return NewValidationError("approvalFlow", fmt.Sprintf("stage %q repeated consecutively", s))
		}
	}
	return nil
}

// Index returns the position of the first occurrence of s, or -1.
func (c ApprovalChain) Index(s Stage) int {
	for i, st := range c {
		if st == s {
			return i
		}
	}
	return -1
}

// Contains reports whether s is a stage of the chain.
func (c ApprovalChain) Contains(s Stage) bool { return c.Index(s) >= 0 }

// First returns the initial stage.
func (c ApprovalChain) First() Stage {
	if len(c) == 0 {
		return ""
	}
	return c[0]
}

// Last returns the final stage.
func (c ApprovalChain) Last() Stage {
	if len(c) == 0 {
		return ""
	}
	return c[len(c)-1]
}

// Next returns the stage after the first occurrence of current and whether
// current was the final stage. A stage not in the chain is reported as final.
func (c ApprovalChain) Next(current Stage) (Stage, bool) {
	next, _, final := c.NextAt(c.Index(current))
	if final {
		return current, true
	}
	return next, false
}

// Locate returns the position of current, trusting hint when it still
// points at current. Stages may recur in a chain, so the first occurrence
// is only used when the hint is stale.
func (c ApprovalChain) Locate(current Stage, hint int) int {
	if hint >= 0 && hint < len(c) && c[hint] == current {
		return hint
	}
	return c.Index(current)
}

// NextAt returns the stage following position i, its position, and whether
// i was the final position.
func (c ApprovalChain) NextAt(i int) (Stage, int, bool) {
	if i < 0 || i >= len(c)-1 {
		return "", i, true
	}
	return c[i+1], i + 1, false
}

// Strings returns the chain as plain strings for storage.
func (c ApprovalChain) Strings() []string {
	out := make([]string, len(c))
	for i, s := range c {
		out[i] = string(s)
	}
	return out
}

// ChainFromStrings builds a chain from stored stage labels.
func ChainFromStrings(ss []string) ApprovalChain {
	out := make(ApprovalChain, 0, len(ss))
	for _, s := range ss {
		out = append(out, Stage(strings.TrimSpace(s)))
	}
	return out
}

// ApprovalPolicy holds the workflow tables. It is built once at startup and
// shared read-only; accessors return copies.
type ApprovalPolicy struct {
	defaultFlow ApprovalChain
	staffFlow   ApprovalChain
	roleStages  map[Role]Stage
	headStages  map[Stage]bool
}

// NewApprovalPolicy validates and copies the given tables.
func NewApprovalPolicy(defaultFlow, staffFlow ApprovalChain, roleStages map[Role]Stage, headStages []Stage) (*ApprovalPolicy, error) {
	if err := defaultFlow.Validate(); err != nil {
		return nil, fmt.Errorf("default flow: %w", err)
	}
	if len(staffFlow) == 0 {
		staffFlow = defaultFlow
	}
	if err := staffFlow.Validate(); err != nil {
		return nil, fmt.Errorf("staff flow: %w", err)
	}

	p := &ApprovalPolicy{
		defaultFlow: append(ApprovalChain(nil), defaultFlow...),
		staffFlow:   append(ApprovalChain(nil), staffFlow...),
		roleStages:  make(map[Role]Stage, len(roleStages)),
		headStages:  make(map[Stage]bool, len(headStages)),
	}
	for r, s := range roleStages {
		p.roleStages[ParseRole(string(r))] = s
	}
	for _, s := range headStages {
		p.headStages[s] = true
	}
	return p, nil
}

// DefaultApprovalPolicy returns the student Teacher→HOD policy with the
// standard role table.
func DefaultApprovalPolicy() *ApprovalPolicy {
	p, _ := NewApprovalPolicy(
		ApprovalChain{StageTeacher, StageHOD},
		ApprovalChain{StageHOD, StagePrincipal},
		map[Role]Stage{
			RoleTeacher:   StageTeacher,
			RoleHOD:       StageHOD,
			RoleRegistrar: StageRegistrar,
			RolePrincipal: StagePrincipal,
			RoleAdmin:     StageAdmin,
		},
		[]Stage{StageHOD},
	)
	return p
}

// FlowFor returns the default chain for a requester role.
func (p *ApprovalPolicy) FlowFor(requester Role) ApprovalChain {
	if requester == RoleStaff || requester == RoleTeacher {
		return append(ApprovalChain(nil), p.staffFlow...)
	}
	return append(ApprovalChain(nil), p.defaultFlow...)
}

// StageFor maps an actor role to the stage that role owns.
func (p *ApprovalPolicy) StageFor(r Role) (Stage, bool) {
	s, ok := p.roleStages[r]
	return s, ok
}

// IsHeadStage reports whether s is owned by a department head.
func (p *ApprovalPolicy) IsHeadStage(s Stage) bool {
	return p.headStages[s]
}
