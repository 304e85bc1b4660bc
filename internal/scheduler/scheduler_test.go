package scheduler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"campus-backend/internal/config"
	"campus-backend/internal/jobs"
	"campus-backend/internal/repository/memory"
)

func runner(schedule string) *jobs.JobRunner {
	cfg := &config.Config{Scheduler: config.SchedulerConfig{PendingLeaveReminders: schedule, StaleAfterHours: 48}}
	return jobs.NewJobRunner(memory.New(), &jobs.Services{}, cfg)
}

func TestNewScheduler(t *testing.T) {
	s, err := NewScheduler(runner("0 0 8 * * *"))
	require.NoError(t, err)
	assert.Equal(t, 1, s.Entries())

	s.Start()
	s.Stop()
}

func TestNewSchedulerRejectsBadSchedule(t *testing.T) {
	_, err := NewScheduler(runner("every morning"))
	assert.Error(t, err)

	// Five-field specs lack the seconds column.
	_, err = NewScheduler(runner("0 8 * * *"))
	assert.Error(t, err)
}
