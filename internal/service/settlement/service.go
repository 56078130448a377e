package settlement

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/PatrikBaldon/RegiFarm-sub000/internal/domain/models"
)

// Repository is the persistence surface the service needs: a snapshot load
// and an atomic write of the finished report plus the invoice-utilization
// rows it consumed. The write must be one transaction, otherwise two
// concurrent runs can double-consume the same invoice balance.
type Repository interface {
	LoadSnapshot(ctx context.Context, farmID string, from, to time.Time) (*Snapshot, error)
	SaveReportWithUtilizations(ctx context.Context, report *models.SettlementReport, rows []models.InvoiceUtilization) error
	FindReport(ctx context.Context, id string) (*models.SettlementReport, error)
}

// Service orchestrates settlement runs: load the snapshot, run the pure
// computation, persist the outcome. The computation itself never touches
// shared state, so concurrent runs only meet inside the repository.
type Service struct {
	repo   Repository
	logger *zap.Logger
}

// NewService wires a settlement service instance.
func NewService(repo Repository, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{repo: repo, logger: logger}
}

// GenerateReport executes one settlement run end to end and returns the
// stored report.
func (s *Service) GenerateReport(ctx context.Context, p Params) (*models.SettlementReport, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	snap, err := s.repo.LoadSnapshot(ctx, p.FarmID, p.From, p.To)
	if err != nil {
		return nil, fmt.Errorf("load settlement snapshot: %w", err)
	}

	res, err := Compute(snap, p)
	if err != nil {
		return nil, err
	}

	report := res.Report
	report.ID = uuid.NewString()
	report.GeneratedAt = time.Now().UTC()
	for i := range res.NewUtilizations {
		res.NewUtilizations[i].ID = uuid.NewString()
	}

	if err := s.repo.SaveReportWithUtilizations(ctx, report, res.NewUtilizations); err != nil {
		return nil, fmt.Errorf("persist settlement report: %w", err)
	}

	s.logger.Info("settlement report generated",
		zap.String("report_id", report.ID),
		zap.String("farm_id", p.FarmID),
		zap.String("period", report.PeriodLabel),
		zap.Int("contracts", len(report.ContractSummaries)),
		zap.Int("warnings", len(report.Warnings)))

	return report, nil
}

// FindReport fetches a previously generated report.
func (s *Service) FindReport(ctx context.Context, id string) (*models.SettlementReport, error) {
	return s.repo.FindReport(ctx, id)
}

// MonthlySnapshot settles the calendar month preceding asOf in automatic
// advance mode; the scheduler uses it for its periodic runs.
func (s *Service) MonthlySnapshot(ctx context.Context, farmID string, asOf time.Time) (*models.SettlementReport, error) {
	firstOfMonth := time.Date(asOf.Year(), asOf.Month(), 1, 0, 0, 0, 0, asOf.Location())
	from := firstOfMonth.AddDate(0, -1, 0)
	to := firstOfMonth.AddDate(0, 0, -1)

	return s.GenerateReport(ctx, Params{
		FarmID:      farmID,
		From:        from,
		To:          to,
		AdvanceMode: AdvanceAutomatic,
	})
}
