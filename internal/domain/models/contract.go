package models

import "github.com/shopspring/decimal"

// RemunerationModel selects how a raising contract is paid out. The set is
// closed; settlement dispatches over it with no other polymorphism.
type RemunerationModel string

const (
	ModelPricePerKg  RemunerationModel = "price_per_kg"
	ModelDailyQuota  RemunerationModel = "daily_quota"
	ModelPercentage  RemunerationModel = "percentage"
	ModelProfitShare RemunerationModel = "profit_share"
)

// Contract is a third-party livestock-raising agreement. Exactly one
// remuneration model applies, and at most one of each bonus rule is active.
type Contract struct {
	ID         string            `bson:"_id" json:"id"`
	FarmID     string            `bson:"farm_id" json:"farm_id"`
	HolderName string            `bson:"holder_name" json:"holder_name"`
	Model      RemunerationModel `bson:"model" json:"model"`

	// Invoiced contracts settle against linked invoices instead of direct
	// monetized amounts; their reports carry a reconciliation check.
	Invoiced bool `bson:"invoiced" json:"invoiced"`

	PricePerKg          decimal.Decimal `bson:"price_per_kg,omitempty" json:"price_per_kg,omitempty"`
	QuotaPerHeadDay     decimal.Decimal `bson:"quota_per_head_day,omitempty" json:"quota_per_head_day,omitempty"`
	RevenueSharePct     decimal.Decimal `bson:"revenue_share_pct,omitempty" json:"revenue_share_pct,omitempty"`
	HolderSharePct      decimal.Decimal `bson:"holder_share_pct,omitempty" json:"holder_share_pct,omitempty"`
	ReferencePricePerKg decimal.Decimal `bson:"reference_price_per_kg,omitempty" json:"reference_price_per_kg,omitempty"`

	// Weight corrections applied only to animals under this contract:
	// entry weights grow by EntryWeightAddPct, exit weights shrink by
	// ExitWeightSubPct, both before any formula runs.
	EntryWeightAddPct float64 `bson:"entry_weight_add_pct,omitempty" json:"entry_weight_add_pct,omitempty"`
	ExitWeightSubPct  float64 `bson:"exit_weight_sub_pct,omitempty" json:"exit_weight_sub_pct,omitempty"`

	MortalityBonusPct    decimal.Decimal `bson:"mortality_bonus_pct,omitempty" json:"mortality_bonus_pct,omitempty"`
	GainBonusThresholdKg float64         `bson:"gain_bonus_threshold_kg,omitempty" json:"gain_bonus_threshold_kg,omitempty"`
	GainBonusPct         decimal.Decimal `bson:"gain_bonus_pct,omitempty" json:"gain_bonus_pct,omitempty"`

	Active bool `bson:"active" json:"active"`
}
