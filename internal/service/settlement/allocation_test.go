package settlement

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PatrikBaldon/RegiFarm-sub000/internal/domain/models"
)

func talliesFor(batch *models.Batch, entered, exitedTotal, deceasedTotal int) map[string]*batchTally {
	return map[string]*batchTally{
		batch.ID: {
			batch:         batch,
			entered:       entered,
			exitedTotal:   exitedTotal,
			deceasedTotal: deceasedTotal,
		},
	}
}

func TestAllocateAdvance_AutomaticProration(t *testing.T) {
	// 500 advance over 10 heads; 4 leave in this run.
	batch := entryBatch("in-1", day(2025, time.January, 1), 10, 300)
	idx := buildIndexes(&Snapshot{
		FarmID:    testFarm,
		Batches:   []models.Batch{batch},
		Movements: []models.FinancialMovement{advanceMovement("mv-1", "in-1", "500")},
	})
	contract := pricePerKgContract("ctr-1", "2")
	tallies := talliesFor(&batch, 10, 4, 0)

	p := defaultParams()
	p.AdvanceMode = AdvanceAutomatic
	res := allocateAdvance(idx, &contract, tallies, map[string]int{"in-1": 4}, p)

	assertMoney(t, "200", res.allocated)
	assert.Empty(t, res.utilizations)
}

func TestAllocateAdvance_AutomaticCountsOnlyThisContractsHeads(t *testing.T) {
	// Ten heads leave the batch farm-wide, but only three settle under
	// this contract; the other seven heads' share stays unallocated here.
	batch := entryBatch("in-1", day(2025, time.January, 1), 10, 300)
	idx := buildIndexes(&Snapshot{
		FarmID:    testFarm,
		Batches:   []models.Batch{batch},
		Movements: []models.FinancialMovement{advanceMovement("mv-1", "in-1", "500")},
	})
	contract := pricePerKgContract("ctr-1", "2")
	tallies := talliesFor(&batch, 10, 10, 0)

	p := defaultParams()
	p.AdvanceMode = AdvanceAutomatic
	res := allocateAdvance(idx, &contract, tallies, map[string]int{"in-1": 3}, p)

	assertMoney(t, "150", res.allocated)
}

func TestAllocateAdvance_AutomaticIsIdempotent(t *testing.T) {
	batch := entryBatch("in-1", day(2025, time.January, 1), 10, 300)
	idx := buildIndexes(&Snapshot{
		FarmID:    testFarm,
		Batches:   []models.Batch{batch},
		Movements: []models.FinancialMovement{advanceMovement("mv-1", "in-1", "500")},
	})
	contract := pricePerKgContract("ctr-1", "2")
	tallies := talliesFor(&batch, 10, 4, 0)
	leaving := map[string]int{"in-1": 4}
	p := defaultParams()
	p.AdvanceMode = AdvanceAutomatic

	first := allocateAdvance(idx, &contract, tallies, leaving, p)
	second := allocateAdvance(idx, &contract, tallies, leaving, p)

	assert.True(t, first.allocated.Equal(second.allocated))
}

func TestAllocateAdvance_RunsNeverExceedBatchTotal(t *testing.T) {
	// Three runs emptying the batch: 4 + 3 + 3 heads.
	batch := entryBatch("in-1", day(2025, time.January, 1), 10, 300)
	idx := buildIndexes(&Snapshot{
		FarmID:    testFarm,
		Batches:   []models.Batch{batch},
		Movements: []models.FinancialMovement{advanceMovement("mv-1", "in-1", "500")},
	})
	contract := pricePerKgContract("ctr-1", "2")
	p := defaultParams()
	p.AdvanceMode = AdvanceAutomatic

	total := dec("0")
	for _, heads := range []int{4, 3, 3} {
		res := allocateAdvance(idx, &contract, talliesFor(&batch, 10, heads, 0), map[string]int{"in-1": heads}, p)
		total = total.Add(res.allocated)
	}

	assertMoney(t, "500", total)
}

func TestAllocateAdvance_VoidedAndClosedAreSkipped(t *testing.T) {
	voided := advanceMovement("mv-void", "in-1", "900")
	voided.Active = false
	batch := entryBatch("in-1", day(2025, time.January, 1), 10, 300)
	closedAt := day(2025, time.June, 1)
	closedBatch := entryBatch("in-closed", day(2025, time.January, 1), 10, 300)
	closedBatch.ClosedAt = &closedAt

	idx := buildIndexes(&Snapshot{
		FarmID:  testFarm,
		Batches: []models.Batch{batch, closedBatch},
		Movements: []models.FinancialMovement{
			advanceMovement("mv-1", "in-1", "500"),
			voided,
			advanceMovement("mv-2", "in-closed", "700"),
		},
	})
	contract := pricePerKgContract("ctr-1", "2")
	tallies := talliesFor(&batch, 10, 10, 0)
	tallies[closedBatch.ID] = &batchTally{batch: &closedBatch, entered: 10, exitedTotal: 10}
	leaving := map[string]int{"in-1": 10, "in-closed": 10}

	p := defaultParams()
	p.AdvanceMode = AdvanceAutomatic
	res := allocateAdvance(idx, &contract, tallies, leaving, p)

	// Only the active movement of the open batch counts.
	assertMoney(t, "500", res.allocated)
}

func TestAllocateAdvance_ManualOverride(t *testing.T) {
	idx := buildIndexes(&Snapshot{FarmID: testFarm})
	contract := pricePerKgContract("ctr-1", "2")

	p := defaultParams()
	p.AdvanceMode = AdvanceManual
	p.ManualAdvance = dec("123.45")
	res := allocateAdvance(idx, &contract, nil, nil, p)

	assertMoney(t, "123.45", res.allocated)
}

func TestAllocateAdvance_ExplicitMovements(t *testing.T) {
	voided := advanceMovement("mv-2", "in-1", "100")
	voided.Active = false
	idx := buildIndexes(&Snapshot{
		FarmID:    testFarm,
		Movements: []models.FinancialMovement{advanceMovement("mv-1", "in-1", "300"), voided},
	})
	contract := pricePerKgContract("ctr-1", "2")

	p := defaultParams()
	p.AdvanceMode = AdvanceMovements
	p.MovementIDs = []string{"mv-1", "mv-2", "mv-missing"}
	res := allocateAdvance(idx, &contract, nil, nil, p)

	assertMoney(t, "300", res.allocated)
}

func TestAllocateAdvance_InvoicesConsultUtilizationLedger(t *testing.T) {
	idx := buildIndexes(&Snapshot{
		FarmID:   testFarm,
		Invoices: []models.Invoice{{ID: "inv-1", FarmID: testFarm, Number: "7/2025", Amount: dec("1000")}},
		Utilizations: []models.InvoiceUtilization{{
			FarmID:     testFarm,
			InvoiceID:  "inv-1",
			ContractID: "ctr-1",
			Date:       day(2025, time.February, 1),
			AmountUsed: dec("600"),
		}},
	})
	contract := pricePerKgContract("ctr-1", "2")

	p := defaultParams()
	p.AdvanceMode = AdvanceInvoices
	p.InvoiceAllocations = []InvoiceAllocation{{InvoiceID: "inv-1", Amount: dec("700")}}
	res := allocateAdvance(idx, &contract, nil, nil, p)

	// Only 400 of the requested 700 is still unconsumed.
	assertMoney(t, "400", res.allocated)
	require.Len(t, res.utilizations, 1)
	assertMoney(t, "400", res.utilizations[0].AmountUsed)
	assert.Equal(t, "inv-1", res.utilizations[0].InvoiceID)
	assert.Equal(t, "ctr-1", res.utilizations[0].ContractID)
	assert.Equal(t, p.To, res.utilizations[0].Date)
}

func TestAllocateAdvance_InvoiceFullyConsumedYieldsNothing(t *testing.T) {
	idx := buildIndexes(&Snapshot{
		FarmID:   testFarm,
		Invoices: []models.Invoice{{ID: "inv-1", FarmID: testFarm, Amount: dec("1000")}},
		Utilizations: []models.InvoiceUtilization{{
			FarmID: testFarm, InvoiceID: "inv-1", ContractID: "ctr-1", AmountUsed: dec("1000"),
		}},
	})
	contract := pricePerKgContract("ctr-1", "2")

	p := defaultParams()
	p.AdvanceMode = AdvanceInvoices
	p.InvoiceAllocations = []InvoiceAllocation{{InvoiceID: "inv-1"}}
	res := allocateAdvance(idx, &contract, nil, nil, p)

	assert.True(t, res.allocated.IsZero())
	assert.Empty(t, res.utilizations)
}

func TestAllocateMortality_OnlyFullyAccountedBatches(t *testing.T) {
	batch := entryBatch("in-1", day(2025, time.January, 1), 10, 300)
	idx := buildIndexes(&Snapshot{
		FarmID:  testFarm,
		Batches: []models.Batch{batch},
		Animals: []models.Animal{
			animal("cow-001", models.AnimalDeceased, "ctr-1"),
			animal("cow-002", models.AnimalDeceased, "ctr-1"),
		},
		Links: []models.AnimalBatchLink{link("in-1", "cow-001"), link("in-1", "cow-002")},
		Deaths: []models.DeathRecord{
			death("cow-001", "150", models.ResponsibilityFarm, day(2025, time.April, 1)),
			death("cow-002", "180", models.ResponsibilityContractHolder, day(2025, time.April, 2)),
		},
	})
	contract := pricePerKgContract("ctr-1", "2")

	t.Run("open batch excluded", func(t *testing.T) {
		res := allocateMortality(idx, &contract, talliesFor(&batch, 10, 7, 2), nil)
		assert.Zero(t, res.count)
		assert.True(t, res.liabilityToFarm.IsZero())
	})

	t.Run("fully accounted batch included", func(t *testing.T) {
		res := allocateMortality(idx, &contract, talliesFor(&batch, 10, 8, 2), nil)
		assert.Equal(t, 2, res.count)
		assertMoney(t, "150", res.liabilityToFarm)
		assertMoney(t, "180", res.compensation)
	})
}

func TestAllocateMortality_BonusScalesCompensation(t *testing.T) {
	batch := entryBatch("in-1", day(2025, time.January, 1), 1, 300)
	idx := buildIndexes(&Snapshot{
		FarmID:  testFarm,
		Batches: []models.Batch{batch},
		Animals: []models.Animal{animal("cow-001", models.AnimalDeceased, "ctr-1")},
		Links:   []models.AnimalBatchLink{link("in-1", "cow-001")},
		Deaths: []models.DeathRecord{
			death("cow-001", "200", models.ResponsibilityContractHolder, day(2025, time.April, 1)),
		},
	})
	contract := pricePerKgContract("ctr-1", "2")
	contract.MortalityBonusPct = dec("50")

	res := allocateMortality(idx, &contract, talliesFor(&batch, 1, 0, 1), nil)

	assertMoney(t, "100", res.compensation)
}

func TestAllocateMortality_BelongsFilter(t *testing.T) {
	// A mixed batch: the other contract's death must stay out.
	batch := entryBatch("in-1", day(2025, time.January, 1), 2, 300)
	idx := buildIndexes(&Snapshot{
		FarmID:  testFarm,
		Batches: []models.Batch{batch},
		Animals: []models.Animal{
			animal("cow-001", models.AnimalDeceased, "ctr-1"),
			animal("cow-002", models.AnimalDeceased, "ctr-2"),
		},
		Links: []models.AnimalBatchLink{link("in-1", "cow-001"), link("in-1", "cow-002")},
		Deaths: []models.DeathRecord{
			death("cow-001", "150", models.ResponsibilityFarm, day(2025, time.April, 1)),
			death("cow-002", "180", models.ResponsibilityFarm, day(2025, time.April, 2)),
		},
	})
	contract := pricePerKgContract("ctr-1", "2")

	res := allocateMortality(idx, &contract, talliesFor(&batch, 2, 0, 2), func(tag string) bool {
		return tag == "cow-001"
	})

	assert.Equal(t, 1, res.count)
	assertMoney(t, "150", res.liabilityToFarm)
}
