package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// MovementKind classifies a financial ledger event tied to a batch.
type MovementKind string

const (
	MovementAdvance    MovementKind = "advance"
	MovementSettlement MovementKind = "settlement"
	MovementMortality  MovementKind = "mortality"
	MovementOther      MovementKind = "other"
)

// MovementDirection tells whether money flowed into or out of the farm.
type MovementDirection string

const (
	DirectionIn  MovementDirection = "in"
	DirectionOut MovementDirection = "out"
)

// FinancialMovement is a ledger or invoice-linked event referencing a batch.
// Soft-voided movements keep their row with Active cleared and are skipped by
// allocation.
type FinancialMovement struct {
	ID        string            `bson:"_id" json:"id"`
	FarmID    string            `bson:"farm_id" json:"farm_id"`
	BatchID   string            `bson:"batch_id" json:"batch_id"`
	InvoiceID string            `bson:"invoice_id,omitempty" json:"invoice_id,omitempty"`
	Kind      MovementKind      `bson:"kind" json:"kind"`
	Direction MovementDirection `bson:"direction" json:"direction"`
	Amount    decimal.Decimal   `bson:"amount" json:"amount"`
	Date      time.Time         `bson:"date" json:"date"`
	Active    bool              `bson:"active" json:"active"`
}

// DeathResponsibility attributes a death's monetary value.
type DeathResponsibility string

const (
	ResponsibilityFarm           DeathResponsibility = "farm"
	ResponsibilityContractHolder DeathResponsibility = "contract_holder"
)

// DeathRecord documents a single animal's death and its value at that time.
type DeathRecord struct {
	ID             string              `bson:"_id" json:"id"`
	FarmID         string              `bson:"farm_id" json:"farm_id"`
	AnimalTag      string              `bson:"animal_tag" json:"animal_tag"`
	Date           time.Time           `bson:"date" json:"date"`
	Cause          string              `bson:"cause,omitempty" json:"cause,omitempty"`
	Value          decimal.Decimal     `bson:"value" json:"value"`
	Responsibility DeathResponsibility `bson:"responsibility" json:"responsibility"`
}

// Invoice is the financial document a batch or movement may reference.
type Invoice struct {
	ID     string          `bson:"_id" json:"id"`
	FarmID string          `bson:"farm_id" json:"farm_id"`
	Number string          `bson:"number" json:"number"`
	Date   time.Time       `bson:"date" json:"date"`
	Amount decimal.Decimal `bson:"amount" json:"amount"`
}

// InvoiceUtilization records how much of an invoice's amount a prior
// settlement run already consumed for a contract. Successive runs consult
// these rows so the same invoice balance is never allocated twice.
type InvoiceUtilization struct {
	ID         string          `bson:"_id,omitempty" json:"id,omitempty"`
	FarmID     string          `bson:"farm_id" json:"farm_id"`
	InvoiceID  string          `bson:"invoice_id" json:"invoice_id"`
	ContractID string          `bson:"contract_id" json:"contract_id"`
	Date       time.Time       `bson:"date" json:"date"`
	AmountUsed decimal.Decimal `bson:"amount_used" json:"amount_used"`
}
