package models

import "time"

// AnimalState describes where an animal currently is in its lifecycle.
type AnimalState string

const (
	AnimalPresent     AnimalState = "present"
	AnimalSold        AnimalState = "sold"
	AnimalTransferred AnimalState = "transferred"
	AnimalDeceased    AnimalState = "deceased"
	AnimalSlaughtered AnimalState = "slaughtered"
)

// Animal is a single head identified by its ear tag. Animals are never
// deleted; once gone they keep their record with Retired set.
type Animal struct {
	TagID         string      `bson:"tag_id" json:"tag_id"`
	FarmID        string      `bson:"farm_id" json:"farm_id"`
	State         AnimalState `bson:"state" json:"state"`
	ContractID    string      `bson:"contract_id,omitempty" json:"contract_id,omitempty"`
	CurrentWeight float64     `bson:"current_weight,omitempty" json:"current_weight,omitempty"`
	WeighedAt     time.Time   `bson:"weighed_at,omitempty" json:"weighed_at,omitempty"`
	ArrivalWeight float64     `bson:"arrival_weight,omitempty" json:"arrival_weight,omitempty"`
	Retired       bool        `bson:"retired" json:"retired"`
}

// WeightField names an animal attribute usable as a weight fallback when a
// batch carries no per-head figure for it.
type WeightField string

const (
	WeightFieldCurrent WeightField = "current_weight"
	WeightFieldArrival WeightField = "arrival_weight"
)

// FallbackWeight returns the named stored weight, zero when unset.
func (a Animal) FallbackWeight(field WeightField) float64 {
	switch field {
	case WeightFieldArrival:
		return a.ArrivalWeight
	default:
		return a.CurrentWeight
	}
}
