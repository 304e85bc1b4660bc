package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"

	httpapi "campus-backend/internal/api/http"
	"campus-backend/internal/config"
	"campus-backend/internal/department"
	"campus-backend/internal/logger"
	"campus-backend/internal/repository"
	"campus-backend/internal/repository/firestore"
	"campus-backend/internal/repository/memory"
	"campus-backend/internal/service"
)

func main() {
	// Parse command-line flags
	configPath := flag.String("config", "config/config.dev.yaml", "Path to configuration file")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	logger.Initialize(cfg.Log.Level, cfg.Log.Format)
	logger.Info("Starting campus backend...", "log_level", cfg.Log.Level, "log_format", cfg.Log.Format)
	logger.Info("Server configuration", "address", cfg.GetServerAddress())
	logger.Info("Firestore configuration", "project_id", cfg.Firestore.ProjectID, "emulator", cfg.Firestore.EmulatorHost)
	logger.Info("SendGrid configuration", "enabled", cfg.SendGrid.Enabled, "from", cfg.SendGrid.FromEmail)

	ctx := context.Background()

	// Initialize document store
	store, err := openStore(ctx, cfg)
	if err != nil {
		logger.Error("Failed to open document store", "error", err)
		log.Fatalf("Failed to open document store: %v", err)
	}
	defer store.Close()

	// Immutable workflow tables
	policy, err := cfg.ApprovalPolicy()
	if err != nil {
		log.Fatalf("Invalid workflow configuration: %v", err)
	}
	grid := cfg.ProbeGrid()
	table := department.NewTable(cfg.Departments.Codes, cfg.Departments.Default, cfg.Departments.Aliases)
	resolver := department.NewResolver(store, table, grid)

	// Initialize Services
	emailSvc := service.NewEmailService(cfg.SendGrid.Enabled, cfg.SendGrid.APIKey, cfg.SendGrid.FromEmail, cfg.SendGrid.FromName)
	mirror := service.NewMirror(store, grid)
	noteSvc := service.NewNotificationService(store, mirror, emailSvc)
	workflowSvc := service.NewWorkflowService(store, policy, resolver, grid, mirror, noteSvc)
	attendanceSvc := service.NewAttendanceService(store, resolver, mirror)
	migrationSvc := service.NewMigrationService(store, grid)
	userSvc := service.NewUserService(store, resolver, migrationSvc)

	// Set up HTTP server
	router := mux.NewRouter()
	httpapi.RegisterRoutes(router, httpapi.NewHandler(workflowSvc, attendanceSvc, userSvc))

	srv := &http.Server{
		Addr:              cfg.GetServerAddress(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ErrorLog:          slog.NewLogLogger(logger.Get().Handler(), slog.LevelError),
	}

	go func() {
		logger.Info("HTTP server listening", "address", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("HTTP server error", "error", err)
			log.Fatalf("Failed to serve: %v", err)
		}
	}()

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down HTTP server...")
	shutdownCtx, cancel := context.WithTimeout(ctx, time.Duration(cfg.Server.ShutdownTimeoutSeconds)*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Graceful shutdown failed", "error", err)
	}
	logger.Info("HTTP server stopped. Goodbye!")
}

// openStore connects to Firestore, or falls back to the in-memory store
// when no project is configured.
func openStore(ctx context.Context, cfg *config.Config) (repository.DocumentStore, error) {
	if cfg.Firestore.ProjectID == "" {
		logger.Warn("No Firestore project configured, using in-memory store (data is not persisted)")
		return memory.New(), nil
	}
	return firestore.New(ctx, firestore.Config{
		ProjectID:       cfg.Firestore.ProjectID,
		CredentialsFile: cfg.Firestore.CredentialsFile,
		EmulatorHost:    cfg.Firestore.EmulatorHost,
	})
}
