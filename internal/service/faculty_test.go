package service_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"campus-backend/internal/domain"
	"campus-backend/internal/paths"
)

func facultyIDs(faculty []domain.Faculty) []string {
	ids := make([]string, len(faculty))
	for i, f := range faculty {
		ids[i] = f.ID
	}
	return ids
}

func TestWorkflowService_FacultyForDepartment(t *testing.T) {
	ctx := context.Background()

	t.Run("Rosters first then profiles without duplicates", func(t *testing.T) {
		f := newFixture(t)

		faculty, err := f.workflow.FacultyForDepartment(ctx, "CS")
		require.NoError(t, err)
		assert.Equal(t, []string{"t1", "t3", "h1"}, facultyIDs(faculty))
		assert.True(t, faculty[2].IsHead)
	})

	t.Run("Partial query failure still returns results", func(t *testing.T) {
		f := newFixture(t)
		f.store.FailWith(failOn("query", paths.Users))

		faculty, err := f.workflow.FacultyForDepartment(ctx, "CS")
		require.NoError(t, err)
		assert.Equal(t, []string{"t1", "t3"}, facultyIDs(faculty))
	})

	t.Run("Every query failing is an error", func(t *testing.T) {
		f := newFixture(t)
		f.store.FailWith(failOn("query", ""))

		_, err := f.workflow.FacultyForDepartment(ctx, "CS")
		assert.ErrorIs(t, err, domain.ErrStore)
	})

	t.Run("Unknown department is empty", func(t *testing.T) {
		f := newFixture(t)

		faculty, err := f.workflow.FacultyForDepartment(ctx, "CIVIL")
		require.NoError(t, err)
		assert.Empty(t, faculty)
	})
}

func TestWorkflowService_HeadForDepartment(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	head, err := f.workflow.HeadForDepartment(ctx, "CS")
	require.NoError(t, err)
	require.NotNil(t, head)
	assert.Equal(t, "h1", head.ID)
	assert.True(t, head.IsHead)

	// No flagged head: first faculty member.
	head, err = f.workflow.HeadForDepartment(ctx, "IT")
	require.NoError(t, err)
	require.NotNil(t, head)
	assert.Equal(t, "t2", head.ID)

	head, err = f.workflow.HeadForDepartment(ctx, "MECH")
	require.NoError(t, err)
	assert.Nil(t, head)
}
