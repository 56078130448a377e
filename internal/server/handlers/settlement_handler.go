package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/PatrikBaldon/RegiFarm-sub000/internal/repository/mongodb"
	"github.com/PatrikBaldon/RegiFarm-sub000/internal/service/settlement"
)

// SettlementHandler exposes the settlement engine over HTTP. It only binds
// parameters and serializes results; all semantics live in the service.
type SettlementHandler struct {
	svc    *settlement.Service
	logger *zap.Logger
}

// NewSettlementHandler constructs the HTTP handler adapter.
func NewSettlementHandler(svc *settlement.Service, logger *zap.Logger) *SettlementHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SettlementHandler{svc: svc, logger: logger}
}

// generateRequest is the JSON body of a settlement run request. Dates use
// the 2006-01-02 layout.
type generateRequest struct {
	FarmID     string `json:"farm_id" binding:"required"`
	From       string `json:"from" binding:"required"`
	To         string `json:"to" binding:"required"`
	ContractID string `json:"contract_id"`

	AdvanceMode        string                         `json:"advance_mode"`
	ManualAdvance      string                         `json:"manual_advance"`
	MovementIDs        []string                       `json:"movement_ids"`
	InvoiceAllocations []settlement.InvoiceAllocation `json:"invoice_allocations"`
}

const dateLayout = "2006-01-02"

func (r generateRequest) params() (settlement.Params, error) {
	from, err := time.Parse(dateLayout, r.From)
	if err != nil {
		return settlement.Params{}, err
	}
	to, err := time.Parse(dateLayout, r.To)
	if err != nil {
		return settlement.Params{}, err
	}

	manual := decimal.Zero
	if r.ManualAdvance != "" {
		if manual, err = decimal.NewFromString(r.ManualAdvance); err != nil {
			return settlement.Params{}, err
		}
	}

	return settlement.Params{
		FarmID:             r.FarmID,
		From:               from,
		To:                 to,
		ContractID:         r.ContractID,
		AdvanceMode:        settlement.AdvanceMode(r.AdvanceMode),
		ManualAdvance:      manual,
		MovementIDs:        r.MovementIDs,
		InvoiceAllocations: r.InvoiceAllocations,
	}, nil
}

// Generate runs a settlement report for the requested farm and period.
func (h *SettlementHandler) Generate(c *gin.Context) {
	var req generateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid settlement request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	params, err := req.params()
	if err != nil {
		h.logger.Warn("invalid settlement parameters", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	report, err := h.svc.GenerateReport(c.Request.Context(), params)
	if err != nil {
		if isValidationError(err) {
			h.logger.Warn("settlement validation failed", zap.Error(err))
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		h.logger.Error("failed generating settlement report", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to generate report"})
		return
	}

	c.JSON(http.StatusOK, report)
}

// Fetch returns a previously generated report by id.
func (h *SettlementHandler) Fetch(c *gin.Context) {
	report, err := h.svc.FindReport(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, mongodb.ErrReportNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "report not found"})
			return
		}
		h.logger.Error("failed fetching settlement report", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch report"})
		return
	}

	c.JSON(http.StatusOK, report)
}

func isValidationError(err error) bool {
	return errors.Is(err, settlement.ErrNoFarmScope) ||
		errors.Is(err, settlement.ErrInvalidRange) ||
		errors.Is(err, settlement.ErrMissingDates) ||
		errors.Is(err, settlement.ErrUnknownAdvMode)
}
