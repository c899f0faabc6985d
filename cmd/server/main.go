package main

import (
	"log"

	"go.uber.org/zap"

	"github.com/ualog/activity-tracker/internal/adapters/database"
	"github.com/ualog/activity-tracker/internal/config"
	"github.com/ualog/activity-tracker/internal/domain/session"
	"github.com/ualog/activity-tracker/internal/export"
	"github.com/ualog/activity-tracker/internal/handlers"
	"github.com/ualog/activity-tracker/internal/infrastructure/redis"
	"github.com/ualog/activity-tracker/internal/logging"
	"github.com/ualog/activity-tracker/internal/middleware"
	"github.com/ualog/activity-tracker/internal/presentation"
	"github.com/ualog/activity-tracker/internal/repositories/postgres"
	"github.com/ualog/activity-tracker/internal/server"
	"github.com/ualog/activity-tracker/internal/services"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := logging.New(cfg.Logging)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer func() {
		_ = logger.Sync()
	}()

	logger.Info("Starting activity tracker",
		zap.String("environment", cfg.Server.Environment),
		zap.Int("port", cfg.Server.Port))

	db, err := database.Connect(cfg.Database)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		_ = db.Close()
	}()

	if err := database.Migrate(db); err != nil {
		logger.Fatal("Failed to run migrations", zap.Error(err))
	}
	logger.Info("Database ready")

	sessionRepo := postgres.NewSessionRepository(db)
	activityRepo := postgres.NewActivityRepository(db)

	var stateRepo session.StateRepository
	if cfg.Redis.Enabled {
		stateRepo = redis.NewStateRepository(cfg.Redis.Addr, cfg.Redis.DB, cfg.Redis.Password)
		logger.Info("Using redis user-state store", zap.String("addr", cfg.Redis.Addr))
	} else {
		stateRepo = postgres.NewStateRepository(db)
	}

	lifecycle := services.NewLifecycleService(sessionRepo, stateRepo, services.LifecycleConfig{
		IdleTimeout: cfg.Tracking.IdleTimeout,
		StaleAfter:  cfg.Tracking.StaleAfter,
	}, logger)

	recorder := services.NewRecorderService(activityRepo, lifecycle, middleware.ContextIPResolver{}, logger)
	reports := services.NewReportService(sessionRepo, activityRepo)

	formatter := presentation.NewFormatter()
	exporter := export.NewPDFExporter(formatter)

	httpServer := server.New(cfg, &server.Handlers{
		Signals: handlers.NewSignalsHandler(lifecycle, recorder, logger),
		Reports: handlers.NewReportsHandler(reports, exporter, formatter),
	}, logger)
	httpServer.Setup()

	if err := httpServer.Start(); err != nil {
		logger.Fatal("Server failed", zap.Error(err))
	}
}
