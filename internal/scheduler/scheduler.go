package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/PatrikBaldon/RegiFarm-sub000/internal/config"
	"github.com/PatrikBaldon/RegiFarm-sub000/internal/repository/sheets"
	"github.com/PatrikBaldon/RegiFarm-sub000/internal/service/settlement"
	"github.com/PatrikBaldon/RegiFarm-sub000/pkg/clients/notify"
)

// Scheduler runs the periodic settlement snapshots. Export and notification
// are optional collaborators; a nil exporter or notifier just skips that
// step. A failing farm never blocks the others.
type Scheduler struct {
	cron     *cron.Cron
	svc      *settlement.Service
	exporter sheets.Exporter
	notifier notify.Client
	cfg      config.Config
	logger   *zap.Logger
}

// NewScheduler creates a new scheduler instance.
func NewScheduler(cfg config.Config, svc *settlement.Service, exporter sheets.Exporter, notifier notify.Client, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}

	loc, err := time.LoadLocation(cfg.Reporting.Timezone)
	if err != nil {
		logger.Warn("invalid timezone, falling back to local", zap.String("tz", cfg.Reporting.Timezone), zap.Error(err))
		loc = time.Local
	}

	return &Scheduler{
		cron:     cron.New(cron.WithLocation(loc)),
		svc:      svc,
		exporter: exporter,
		notifier: notifier,
		cfg:      cfg,
		logger:   logger,
	}
}

// Start registers the settlement snapshot job and starts the cron loop.
func (s *Scheduler) Start() {
	s.logger.Info("starting scheduler", zap.String("schedule", s.cfg.Reporting.CronSchedule))

	if _, err := s.cron.AddFunc(s.cfg.Reporting.CronSchedule, s.runSnapshots); err != nil {
		s.logger.Error("failed to schedule settlement snapshots", zap.Error(err))
	}

	s.cron.Start()
}

// Stop stops the scheduler.
func (s *Scheduler) Stop() {
	s.logger.Info("stopping scheduler")
	s.cron.Stop()
}

func (s *Scheduler) runSnapshots() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	now := time.Now()
	for _, farmID := range s.cfg.Reporting.FarmIDs {
		s.logger.Info("generating settlement snapshot", zap.String("farm_id", farmID))

		report, err := s.svc.MonthlySnapshot(ctx, farmID, now)
		if err != nil {
			s.logger.Error("failed to generate settlement snapshot",
				zap.String("farm_id", farmID), zap.Error(err))
			continue
		}

		if s.exporter != nil {
			if err := s.exporter.ExportReport(ctx, report); err != nil {
				s.logger.Error("failed to export settlement report",
					zap.String("report_id", report.ID), zap.Error(err))
			}
		}

		if s.notifier != nil {
			if err := s.notifier.NotifyReport(ctx, report); err != nil {
				s.logger.Error("failed to notify settlement report",
					zap.String("report_id", report.ID), zap.Error(err))
			}
		}
	}
}
