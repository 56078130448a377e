package settlement

import (
	"fmt"
	"time"

	"github.com/PatrikBaldon/RegiFarm-sub000/internal/domain/models"
)

// Shared fixture builders for the engine tests.

const testFarm = "farm-1"

func day(year int, month time.Month, d int) time.Time {
	return time.Date(year, month, d, 0, 0, 0, 0, time.UTC)
}

func entryBatch(id string, date time.Time, heads int, avgWeight float64) models.Batch {
	return models.Batch{
		ID:        id,
		FarmID:    testFarm,
		Date:      date,
		Kind:      models.BatchEntry,
		HeadCount: heads,
		AvgWeight: avgWeight,
	}
}

func exitBatch(id string, date time.Time, heads int, avgWeight float64) models.Batch {
	return models.Batch{
		ID:        id,
		FarmID:    testFarm,
		Date:      date,
		Kind:      models.BatchExit,
		HeadCount: heads,
		AvgWeight: avgWeight,
	}
}

func withValue(b models.Batch, value string) models.Batch {
	v := dec(value)
	b.Value = &v
	return b
}

func internal(b models.Batch) models.Batch {
	b.IsInternalTransfer = true
	return b
}

func link(batchID, tag string) models.AnimalBatchLink {
	return models.AnimalBatchLink{BatchID: batchID, AnimalTag: tag}
}

func animal(tag string, state models.AnimalState, contractID string) models.Animal {
	return models.Animal{TagID: tag, FarmID: testFarm, State: state, ContractID: contractID}
}

func advanceMovement(id, batchID, amount string) models.FinancialMovement {
	return models.FinancialMovement{
		ID:        id,
		FarmID:    testFarm,
		BatchID:   batchID,
		Kind:      models.MovementAdvance,
		Direction: models.DirectionIn,
		Amount:    dec(amount),
		Active:    true,
	}
}

func death(tag, value string, responsibility models.DeathResponsibility, date time.Time) models.DeathRecord {
	return models.DeathRecord{
		ID:             "death-" + tag,
		FarmID:         testFarm,
		AnimalTag:      tag,
		Date:           date,
		Value:          dec(value),
		Responsibility: responsibility,
	}
}

func tags(prefix string, n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("%s-%03d", prefix, i+1)
	}
	return out
}

// herdSnapshot builds the canonical round-trip herd: n animals entering in
// batchIn and exiting in batchOut under the given contract.
func herdSnapshot(contract models.Contract, batchIn, batchOut models.Batch, n int) *Snapshot {
	snap := &Snapshot{FarmID: testFarm, Contracts: []models.Contract{contract}}
	batchIn.ContractID = contract.ID
	snap.Batches = append(snap.Batches, batchIn, batchOut)

	for _, tag := range tags("cow", n) {
		snap.Animals = append(snap.Animals, animal(tag, models.AnimalSold, contract.ID))
		snap.Links = append(snap.Links, link(batchIn.ID, tag), link(batchOut.ID, tag))
	}
	return snap
}

func pricePerKgContract(id, price string) models.Contract {
	return models.Contract{
		ID:         id,
		FarmID:     testFarm,
		HolderName: "Azienda Rossi",
		Model:      models.ModelPricePerKg,
		PricePerKg: dec(price),
		Active:     true,
	}
}

func defaultParams() Params {
	return Params{
		FarmID:      testFarm,
		From:        day(2025, time.January, 1),
		To:          day(2025, time.December, 31),
		AdvanceMode: AdvanceNone,
	}
}

func floatPtr(f float64) *float64 { return &f }
