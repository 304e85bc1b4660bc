package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApprovalChainValidate(t *testing.T) {
	assert.NoError(t, ApprovalChain{StageTeacher}.Validate())
	assert.NoError(t, ApprovalChain{StageTeacher, StageHOD, StageTeacher}.Validate())

	err := ApprovalChain{}.Validate()
	assert.True(t, errors.Is(err, ErrValidation))

	err = ApprovalChain{StageTeacher, StageTeacher}.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "repeated")

	assert.Error(t, ApprovalChain{StageTeacher, " "}.Validate())
}

func TestApprovalChainNext(t *testing.T) {
	chain := ApprovalChain{StageTeacher, StageHOD, StagePrincipal}

	next, final := chain.Next(StageTeacher)
	assert.Equal(t, StageHOD, next)
	assert.False(t, final)

	next, final = chain.Next(StageHOD)
	assert.Equal(t, StagePrincipal, next)
	assert.False(t, final)

	next, final = chain.Next(StagePrincipal)
	assert.Equal(t, StagePrincipal, next)
	assert.True(t, final)

	_, final = chain.Next(StageAdmin)
	assert.True(t, final)
}

func TestApprovalChainRecurringStage(t *testing.T) {
	chain := ApprovalChain{StageTeacher, StageHOD, StageTeacher}

	assert.Equal(t, 2, chain.Locate(StageTeacher, 2))
	assert.Equal(t, 0, chain.Locate(StageTeacher, 1))
	assert.Equal(t, 0, chain.Locate(StageTeacher, 9))
	assert.Equal(t, -1, chain.Locate(StageAdmin, 0))

	next, pos, final := chain.NextAt(1)
	assert.Equal(t, StageTeacher, next)
	assert.Equal(t, 2, pos)
	assert.False(t, final)

	_, _, final = chain.NextAt(2)
	assert.True(t, final)
	_, _, final = chain.NextAt(-1)
	assert.True(t, final)
}

func TestDefaultApprovalPolicy(t *testing.T) {
	p := DefaultApprovalPolicy()

	assert.Equal(t, ApprovalChain{StageTeacher, StageHOD}, p.FlowFor(RoleStudent))
	assert.Equal(t, ApprovalChain{StageHOD, StagePrincipal}, p.FlowFor(RoleStaff))

	for role, want := range map[Role]Stage{
		RoleTeacher:   StageTeacher,
		RoleHOD:       StageHOD,
		RoleRegistrar: StageRegistrar,
		RolePrincipal: StagePrincipal,
		RoleAdmin:     StageAdmin,
	} {
		got, ok := p.StageFor(role)
		assert.True(t, ok, "role %s", role)
		assert.Equal(t, want, got)
	}

	_, ok := p.StageFor(RoleStudent)
	assert.False(t, ok)

	assert.True(t, p.IsHeadStage(StageHOD))
	assert.False(t, p.IsHeadStage(StageTeacher))
}

func TestApprovalPolicyReturnsCopies(t *testing.T) {
	p := DefaultApprovalPolicy()

	flow := p.FlowFor(RoleStudent)
	flow[0] = StageAdmin

	assert.Equal(t, StageTeacher, p.FlowFor(RoleStudent).First())
}

func TestNewApprovalPolicyRejectsBadFlow(t *testing.T) {
	_, err := NewApprovalPolicy(ApprovalChain{StageHOD, StageHOD}, nil, nil, nil)
	assert.Error(t, err)
}

func TestEffectiveRole(t *testing.T) {
	head := &UserProfile{Role: RoleTeacher, IsDepartmentHead: true}
	assert.Equal(t, RoleHOD, head.EffectiveRole())

	teacher := &UserProfile{Role: RoleTeacher}
	assert.Equal(t, RoleTeacher, teacher.EffectiveRole())
}

func TestStageErrorMatching(t *testing.T) {
	pending := &StageError{RequestID: "l1", Status: LeaveStatusPending}
	assert.True(t, errors.Is(pending, ErrUnauthorized))
	assert.False(t, errors.Is(pending, ErrNotPending))

	rejected := &StageError{RequestID: "l1", Status: LeaveStatusRejected}
	assert.True(t, errors.Is(rejected, ErrUnauthorized))
	assert.True(t, errors.Is(rejected, ErrNotPending))
}
