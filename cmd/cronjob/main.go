package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"campus-backend/internal/config"
	"campus-backend/internal/jobs"
	"campus-backend/internal/logger"
	"campus-backend/internal/repository/firestore"
	"campus-backend/internal/scheduler"
	"campus-backend/internal/service"
)

func main() {
	// Parse command-line flags
	configPath := flag.String("config", "config/config.dev.yaml", "Path to configuration file")
	runOnce := flag.String("run-once", "", "Run a specific job once and exit (e.g., 'pending-leave-reminders', 'all-daily')")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	logger.Initialize(cfg.Log.Level, cfg.Log.Format)
	logger.Info("Starting campus cronjob runner...", "log_level", cfg.Log.Level)

	if cfg.Firestore.ProjectID == "" {
		log.Fatalf("firestore.project_id is required for scheduled jobs")
	}

	// Initialize document store
	ctx := context.Background()
	logger.Info("Connecting to Firestore...", "project_id", cfg.Firestore.ProjectID)
	store, err := firestore.New(ctx, firestore.Config{
		ProjectID:       cfg.Firestore.ProjectID,
		CredentialsFile: cfg.Firestore.CredentialsFile,
		EmulatorHost:    cfg.Firestore.EmulatorHost,
	})
	if err != nil {
		logger.Error("Failed to connect to Firestore", "error", err)
		log.Fatalf("Failed to connect to Firestore: %v", err)
	}
	defer store.Close()
	logger.Info("Firestore connection established")

	// Initialize Services
	emailService := service.NewEmailService(cfg.SendGrid.Enabled, cfg.SendGrid.APIKey, cfg.SendGrid.FromEmail, cfg.SendGrid.FromName)
	mirror := service.NewMirror(store, cfg.ProbeGrid())

	jobServices := &jobs.Services{
		Email:         emailService,
		Notifications: service.NewNotificationService(store, mirror, nil),
	}

	// Initialize Job Runner
	jobRunner := jobs.NewJobRunner(store, jobServices, cfg)

	// Check if running a single job
	if *runOnce != "" {
		logger.Info("Running job once", "job", *runOnce)
		runJobOnce(jobRunner, *runOnce)
		logger.Info("Job execution completed", "job", *runOnce)
		return
	}

	// Initialize Scheduler
	cronScheduler, err := scheduler.NewScheduler(jobRunner)
	if err != nil {
		log.Fatalf("Failed to register jobs: %v", err)
	}

	// Start scheduler
	cronScheduler.Start()
	logger.Info("Cronjob scheduler is running. Press Ctrl+C to stop.")

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	// Graceful shutdown
	logger.Info("Shutting down cronjob scheduler...")
	cronScheduler.Stop()
	logger.Info("Cronjob scheduler stopped. Goodbye!")
}

// runJobOnce runs a specific job once and exits
func runJobOnce(jobRunner *jobs.JobRunner, jobName string) {
	switch jobName {
	case "pending-leave-reminders":
		jobRunner.SendPendingLeaveReminders()
	case "all-daily":
		jobRunner.RunAllDailyJobs()
	default:
		logger.Error("Unknown job name", "job", jobName)
		fmt.Printf("Available jobs:\n")
		fmt.Printf("  - pending-leave-reminders\n")
		fmt.Printf("  - all-daily\n")
		os.Exit(1)
	}
}
