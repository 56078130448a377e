package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// DateRange bounds a settlement run. Both ends are inclusive.
type DateRange struct {
	From time.Time `bson:"from" json:"from"`
	To   time.Time `bson:"to" json:"to"`
}

// OwnedSummary aggregates weight and value deltas for animals the farm owns
// outright (no raising contract).
type OwnedSummary struct {
	HeadCount   int             `bson:"head_count" json:"head_count"`
	EntryWeight float64         `bson:"entry_weight" json:"entry_weight"`
	EntryValue  decimal.Decimal `bson:"entry_value" json:"entry_value"`
	ExitWeight  float64         `bson:"exit_weight" json:"exit_weight"`
	ExitValue   decimal.Decimal `bson:"exit_value" json:"exit_value"`
	WeightDelta float64         `bson:"weight_delta" json:"weight_delta"`
	ValueDelta  decimal.Decimal `bson:"value_delta" json:"value_delta"`
}

// AnimalDetail is one settled head inside a contract summary.
type AnimalDetail struct {
	TagID       string    `bson:"tag_id" json:"tag_id"`
	EntryDate   time.Time `bson:"entry_date" json:"entry_date"`
	ExitDate    time.Time `bson:"exit_date" json:"exit_date"`
	EntryWeight float64   `bson:"entry_weight" json:"entry_weight"`
	ExitWeight  float64   `bson:"exit_weight" json:"exit_weight"`
	WeightGain  float64   `bson:"weight_gain" json:"weight_gain"`
	DaysManaged int       `bson:"days_managed" json:"days_managed"`
}

// InvoiceReconciliation cross-checks an invoiced contract's linked invoices
// against the computed owed amount. A mismatch is flagged, never fatal.
type InvoiceReconciliation struct {
	TotalInvoiced decimal.Decimal `bson:"total_invoiced" json:"total_invoiced"`
	ComputedOwed  decimal.Decimal `bson:"computed_owed" json:"computed_owed"`
	Consistent    bool            `bson:"consistent" json:"consistent"`
}

// ContractSummary is the per-contract settlement result.
type ContractSummary struct {
	ContractID string            `bson:"contract_id" json:"contract_id"`
	HolderName string            `bson:"holder_name" json:"holder_name"`
	Model      RemunerationModel `bson:"model" json:"model"`
	Invoiced   bool              `bson:"invoiced" json:"invoiced"`

	HeadCount      int            `bson:"head_count" json:"head_count"`
	TotalGainKg    float64        `bson:"total_gain_kg" json:"total_gain_kg"`
	AvgGainPerHead float64        `bson:"avg_gain_per_head" json:"avg_gain_per_head"`
	Animals        []AnimalDetail `bson:"animals" json:"animals"`

	Owed               decimal.Decimal `bson:"owed" json:"owed"`
	GainBonusApplied   bool            `bson:"gain_bonus_applied" json:"gain_bonus_applied"`
	AdvanceAllocated   decimal.Decimal `bson:"advance_allocated" json:"advance_allocated"`
	MortalityLiability decimal.Decimal `bson:"mortality_liability" json:"mortality_liability"`
	SettlementValue    decimal.Decimal `bson:"settlement_value" json:"settlement_value"`

	InvoiceReconciliation *InvoiceReconciliation `bson:"invoice_reconciliation,omitempty" json:"invoice_reconciliation,omitempty"`
}

// MortalitySummary aggregates death figures across the settled set.
type MortalitySummary struct {
	Count                int             `bson:"count" json:"count"`
	LiabilityToFarm      decimal.Decimal `bson:"liability_to_farm" json:"liability_to_farm"`
	CompensationReceived decimal.Decimal `bson:"compensation_received" json:"compensation_received"`
}

// BatchSummary traces one originating entry batch: where its animals are now
// and what they weighed on the way in and out.
type BatchSummary struct {
	BatchID       string    `bson:"batch_id" json:"batch_id"`
	Date          time.Time `bson:"date" json:"date"`
	FacilityCode  string    `bson:"facility_code,omitempty" json:"facility_code,omitempty"`
	EnteredCount  int       `bson:"entered_count" json:"entered_count"`
	ExitedCount   int       `bson:"exited_count" json:"exited_count"`
	DeceasedCount int       `bson:"deceased_count" json:"deceased_count"`
	PresentCount  int       `bson:"present_count" json:"present_count"`

	ExitedTags   []string `bson:"exited_tags,omitempty" json:"exited_tags,omitempty"`
	DeceasedTags []string `bson:"deceased_tags,omitempty" json:"deceased_tags,omitempty"`
	PresentTags  []string `bson:"present_tags,omitempty" json:"present_tags,omitempty"`

	EntryWeight float64 `bson:"entry_weight" json:"entry_weight"`
	ExitWeight  float64 `bson:"exit_weight" json:"exit_weight"`

	// Destinations counts exited heads per destination facility code; heads
	// with no recorded destination land in the "unknown" bucket.
	Destinations map[string]int `bson:"destinations,omitempty" json:"destinations,omitempty"`
}

// SettlementReport is the engine's output: three parallel views over one
// input snapshot, assembled without re-querying between them.
type SettlementReport struct {
	ID          string    `bson:"_id" json:"id"`
	FarmID      string    `bson:"farm_id" json:"farm_id"`
	PeriodLabel string    `bson:"period_label" json:"period_label"`
	DateRange   DateRange `bson:"date_range" json:"date_range"`
	GeneratedAt time.Time `bson:"generated_at" json:"generated_at"`

	OwnedSummary      OwnedSummary      `bson:"owned_summary" json:"owned_summary"`
	ContractSummaries []ContractSummary `bson:"contract_summaries" json:"contract_summaries"`
	MortalitySummary  MortalitySummary  `bson:"mortality_summary" json:"mortality_summary"`
	PerBatchSummary   []BatchSummary    `bson:"per_batch_summary" json:"per_batch_summary"`

	// Warnings lists rows skipped over missing batch or contract references.
	Warnings []string `bson:"warnings,omitempty" json:"warnings,omitempty"`
}
