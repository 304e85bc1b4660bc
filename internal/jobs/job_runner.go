package jobs

import (
	"log/slog"
	"time"

	"campus-backend/internal/config"
	"campus-backend/internal/logger"
	"campus-backend/internal/repository"
	"campus-backend/internal/service"
)

// JobRunner coordinates all scheduled jobs
type JobRunner struct {
	store    repository.DocumentStore
	services *Services
	config   *config.Config
	log      *slog.Logger
	now      func() time.Time
}

// Services holds all service dependencies needed by jobs
type Services struct {
	Email         service.EmailService
	Notifications service.NotificationService
}

// NewJobRunner creates a new job runner with all dependencies
func NewJobRunner(store repository.DocumentStore, services *Services, cfg *config.Config) *JobRunner {
	return &JobRunner{
		store:    store,
		services: services,
		config:   cfg,
		log:      logger.WithService("jobs"),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Config exposes the configuration the jobs were built with.
func (jr *JobRunner) Config() *config.Config {
	return jr.config
}

// runWithRecovery wraps job execution with panic recovery
func (jr *JobRunner) runWithRecovery(jobName string, jobFunc func()) {
	defer func() {
		if r := recover(); r != nil {
			jr.log.Error("Job panicked", "job", jobName, "panic", r)
		}
	}()

	jr.log.Info("Starting job", "job", jobName)
	jobFunc()
	jr.log.Info("Job completed", "job", jobName)
}

// RunAllDailyJobs runs all daily jobs (for manual execution)
func (jr *JobRunner) RunAllDailyJobs() {
	jr.SendPendingLeaveReminders()
}
