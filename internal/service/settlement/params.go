package settlement

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// AdvanceMode selects how previously received advances are allocated against
// the computed settlement.
type AdvanceMode string

const (
	// AdvanceNone skips advance allocation entirely.
	AdvanceNone AdvanceMode = "none"
	// AdvanceAutomatic prorates each entry batch's recorded advance
	// movements across the heads leaving in this run.
	AdvanceAutomatic AdvanceMode = "automatic"
	// AdvanceManual uses a caller-supplied override amount as-is.
	AdvanceManual AdvanceMode = "manual"
	// AdvanceMovements sums the explicitly listed ledger movements.
	AdvanceMovements AdvanceMode = "movements"
	// AdvanceInvoices consumes the explicitly listed invoice balances,
	// capped by what the utilization ledger says is still available.
	AdvanceInvoices AdvanceMode = "invoices"
)

// InvoiceAllocation asks the run to consume part of an invoice as advance.
type InvoiceAllocation struct {
	InvoiceID string          `json:"invoice_id"`
	Amount    decimal.Decimal `json:"amount"`
}

// Params bound one settlement run. FarmID and a coherent date range are
// mandatory; everything else narrows or tunes the computation.
type Params struct {
	FarmID     string    `json:"farm_id"`
	From       time.Time `json:"from"`
	To         time.Time `json:"to"`
	ContractID string    `json:"contract_id,omitempty"`

	AdvanceMode        AdvanceMode         `json:"advance_mode,omitempty"`
	ManualAdvance      decimal.Decimal     `json:"manual_advance,omitempty"`
	MovementIDs        []string            `json:"movement_ids,omitempty"`
	InvoiceAllocations []InvoiceAllocation `json:"invoice_allocations,omitempty"`
}

// Caller-contract violations. These reject the run before any computation.
var (
	ErrNoFarmScope     = errors.New("settlement: farm scope identifier is required")
	ErrInvalidRange    = errors.New("settlement: date range end precedes start")
	ErrMissingDates    = errors.New("settlement: both range dates are required")
	ErrUnknownAdvMode  = errors.New("settlement: unknown advance mode")
	ErrMissingSnapshot = errors.New("settlement: nil snapshot")
)

// Validate enforces the caller contract. Any error here is fatal; data-level
// inconsistencies are handled later by degrading the output instead.
func (p Params) Validate() error {
	if p.FarmID == "" {
		return ErrNoFarmScope
	}
	if p.From.IsZero() || p.To.IsZero() {
		return ErrMissingDates
	}
	if p.To.Before(p.From) {
		return fmt.Errorf("%w: %s > %s", ErrInvalidRange, p.From.Format(dateLayout), p.To.Format(dateLayout))
	}
	switch p.AdvanceMode {
	case "", AdvanceNone, AdvanceAutomatic, AdvanceManual, AdvanceMovements, AdvanceInvoices:
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrUnknownAdvMode, p.AdvanceMode)
	}
}

// mode normalizes the advance mode; an empty value means automatic.
func (p Params) mode() AdvanceMode {
	if p.AdvanceMode == "" {
		return AdvanceAutomatic
	}
	return p.AdvanceMode
}

// PeriodLabel renders the run's human-readable period.
func (p Params) PeriodLabel() string {
	return fmt.Sprintf("%s - %s", p.From.Format(dateLayout), p.To.Format(dateLayout))
}

// inRange reports whether a date falls inside the (inclusive) run period.
func (p Params) inRange(t time.Time) bool {
	return !t.Before(p.From) && !t.After(p.To)
}
