package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// BatchKind distinguishes animals arriving from animals leaving.
type BatchKind string

const (
	BatchEntry BatchKind = "entry"
	BatchExit  BatchKind = "exit"
)

// Batch is a dated group movement of animals recorded as one unit. Per-head
// weights, when present, are the source of truth over the aggregate fields.
type Batch struct {
	ID                 string             `bson:"_id" json:"id"`
	FarmID             string             `bson:"farm_id" json:"farm_id"`
	Date               time.Time          `bson:"date" json:"date"`
	Kind               BatchKind          `bson:"kind" json:"kind"`
	HeadCount          int                `bson:"head_count" json:"head_count"`
	TotalWeight        float64            `bson:"total_weight,omitempty" json:"total_weight,omitempty"`
	AvgWeight          float64            `bson:"avg_weight,omitempty" json:"avg_weight,omitempty"`
	HeadWeights        map[string]float64 `bson:"head_weights,omitempty" json:"head_weights,omitempty"`
	Value              *decimal.Decimal   `bson:"value,omitempty" json:"value,omitempty"`
	InvoiceID          string             `bson:"invoice_id,omitempty" json:"invoice_id,omitempty"`
	ContractID         string             `bson:"contract_id,omitempty" json:"contract_id,omitempty"`
	FacilityCode       string             `bson:"facility_code,omitempty" json:"facility_code,omitempty"`
	IsInternalTransfer bool               `bson:"is_internal_transfer" json:"is_internal_transfer"`
	ClosedAt           *time.Time         `bson:"closed_at,omitempty" json:"closed_at,omitempty"`
}

// Closed reports whether the batch has been marked fully settled and must be
// excluded from further advance and mortality allocation runs.
func (b Batch) Closed() bool {
	return b.ClosedAt != nil
}

// AverageWeight resolves the batch's average per-head weight, preferring the
// per-head list, then the aggregate total, then the stored average.
func (b Batch) AverageWeight() float64 {
	if len(b.HeadWeights) > 0 {
		var sum float64
		for _, w := range b.HeadWeights {
			sum += w
		}
		return sum / float64(len(b.HeadWeights))
	}
	if b.TotalWeight > 0 && b.HeadCount > 0 {
		return b.TotalWeight / float64(b.HeadCount)
	}
	return b.AvgWeight
}

// AnimalBatchLink joins one animal to one batch, optionally carrying a
// per-head weight recorded at movement time. One link exists per
// (batch, animal) pair.
type AnimalBatchLink struct {
	BatchID        string   `bson:"batch_id" json:"batch_id"`
	AnimalTag      string   `bson:"animal_tag" json:"animal_tag"`
	WeightOverride *float64 `bson:"weight_override,omitempty" json:"weight_override,omitempty"`
}
