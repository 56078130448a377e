package sheets

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"google.golang.org/api/option"
	sheetsapi "google.golang.org/api/sheets/v4"

	"github.com/PatrikBaldon/RegiFarm-sub000/internal/config"
	"github.com/PatrikBaldon/RegiFarm-sub000/internal/domain/models"
)

const (
	dateLayout         = "2006-01-02"
	contractsDataRange = "Contracts!A:J"
	ownedDataRange     = "Owned!A:H"
)

// Exporter defines the spreadsheet operations the settlement workflow uses.
type Exporter interface {
	ExportReport(ctx context.Context, report *models.SettlementReport) error
}

// GoogleSheetExporter appends settlement report rows to a back-office
// spreadsheet through the official Google Sheets API.
type GoogleSheetExporter struct {
	service       *sheetsapi.Service
	spreadsheetID string
	logger        *zap.Logger
}

// NewGoogleSheetExporter builds a Google Sheets backed exporter instance.
func NewGoogleSheetExporter(ctx context.Context, cfg config.SheetsConfig, logger *zap.Logger) (Exporter, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	service, err := sheetsapi.NewService(ctx, option.WithCredentialsFile(cfg.CredentialsPath), option.WithScopes(sheetsapi.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize sheets client: %w", err)
	}

	return &GoogleSheetExporter{
		service:       service,
		spreadsheetID: cfg.SpreadsheetID,
		logger:        logger,
	}, nil
}

// ExportReport appends one row per contract summary plus one owned-summary
// row. Rows align with the header rows maintained in the spreadsheet itself.
func (e *GoogleSheetExporter) ExportReport(ctx context.Context, report *models.SettlementReport) error {
	if report == nil {
		return fmt.Errorf("report must not be nil")
	}

	for _, cs := range report.ContractSummaries {
		row := []interface{}{
			report.GeneratedAt.Format(dateLayout),
			report.PeriodLabel,
			cs.ContractID,
			cs.HolderName,
			string(cs.Model),
			cs.HeadCount,
			cs.Owed.StringFixed(2),
			cs.AdvanceAllocated.StringFixed(2),
			cs.MortalityLiability.StringFixed(2),
			cs.SettlementValue.StringFixed(2),
		}
		if err := e.appendRow(ctx, contractsDataRange, row); err != nil {
			return err
		}
	}

	owned := report.OwnedSummary
	row := []interface{}{
		report.GeneratedAt.Format(dateLayout),
		report.PeriodLabel,
		owned.HeadCount,
		owned.EntryWeight,
		owned.ExitWeight,
		owned.WeightDelta,
		owned.EntryValue.StringFixed(2),
		owned.ValueDelta.StringFixed(2),
	}
	if err := e.appendRow(ctx, ownedDataRange, row); err != nil {
		return err
	}

	e.logger.Debug("settlement report exported",
		zap.String("report_id", report.ID),
		zap.Int("contract_rows", len(report.ContractSummaries)))
	return nil
}

func (e *GoogleSheetExporter) appendRow(ctx context.Context, sheetRange string, values []interface{}) error {
	if sheetRange == "" {
		return fmt.Errorf("sheetRange must not be empty")
	}

	payload := &sheetsapi.ValueRange{Values: [][]interface{}{values}}

	call := e.service.Spreadsheets.Values.Append(e.spreadsheetID, sheetRange, payload).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx)

	if _, err := call.Do(); err != nil {
		return fmt.Errorf("append row into range %s: %w", sheetRange, err)
	}
	return nil
}
