package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"time"

	"go.uber.org/zap"

	"github.com/PatrikBaldon/RegiFarm-sub000/internal/config"
	"github.com/PatrikBaldon/RegiFarm-sub000/internal/repository/mongodb"
	"github.com/PatrikBaldon/RegiFarm-sub000/internal/repository/sheets"
	"github.com/PatrikBaldon/RegiFarm-sub000/internal/scheduler"
	"github.com/PatrikBaldon/RegiFarm-sub000/internal/server/handlers"
	"github.com/PatrikBaldon/RegiFarm-sub000/internal/server/router"
	"github.com/PatrikBaldon/RegiFarm-sub000/internal/service/settlement"
	"github.com/PatrikBaldon/RegiFarm-sub000/pkg/clients/notify"
	"github.com/PatrikBaldon/RegiFarm-sub000/pkg/logger"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		panic(err)
	}

	baseLogger := logger.Must(logger.New())
	defer func() { _ = baseLogger.Sync() }()

	zap.ReplaceGlobals(baseLogger)

	mongoRepo, err := mongodb.NewMongoDBRepository(context.Background(), cfg.MongoDB.URI, cfg.MongoDB.DBName)
	if err != nil {
		baseLogger.Fatal("failed to init mongodb repository", zap.Error(err))
	}
	defer func() {
		if err := mongoRepo.Close(context.Background()); err != nil {
			baseLogger.Error("failed to close mongodb connection", zap.Error(err))
		}
	}()

	settlementSvc := settlement.NewService(mongoRepo, baseLogger.Named("svc.settlement"))
	settlementHandler := handlers.NewSettlementHandler(settlementSvc, baseLogger.Named("handlers.settlement"))
	engine := router.New(settlementHandler, baseLogger.Named("router"))

	// Sheets export is optional; without credentials the scheduler just
	// skips the export step.
	var exporter sheets.Exporter
	if cfg.Sheets.CredentialsPath != "" {
		exporter, err = sheets.NewGoogleSheetExporter(context.Background(), cfg.Sheets, baseLogger.Named("repo.sheets"))
		if err != nil {
			baseLogger.Fatal("failed to init sheets exporter", zap.Error(err))
		}
		baseLogger.Info("sheets export enabled")
	} else {
		baseLogger.Warn("sheets credentials missing, report export disabled")
	}

	var notifier notify.Client
	if cfg.Notify.WebhookURL != "" {
		notifier = notify.NewClient(cfg.Notify)
		baseLogger.Info("report webhook notifications enabled")
	} else {
		baseLogger.Warn("report webhook url missing, notifications disabled")
	}

	// Initialize Scheduler
	sched := scheduler.NewScheduler(*cfg, settlementSvc, exporter, notifier, baseLogger.Named("scheduler"))
	sched.Start()
	defer sched.Stop()

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      engine,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	go func() {
		baseLogger.Info("server starting", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			baseLogger.Fatal("http server crashed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	baseLogger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		baseLogger.Error("graceful shutdown failed", zap.Error(err))
	}
}
