package settlement

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/PatrikBaldon/RegiFarm-sub000/internal/domain/models"
)

// batchTally tracks one originating entry batch across the whole snapshot:
// how many heads it brought in and how many have exited or died overall.
// Mortality eligibility reads these counts; advance proration instead counts
// the settling contract's own leaving heads, supplied separately, so a batch
// feeding two contracts never pays the same advance twice.
type batchTally struct {
	batch *models.Batch

	entered       int
	exitedTotal   int
	deceasedTotal int
}

// fullyAccounted reports whether no head of the batch is still present.
// Only then does the batch's mortality enter a settlement; a batch with
// animals on the ground stays out even if some have already died.
func (t *batchTally) fullyAccounted() bool {
	return t.entered > 0 && t.entered == t.exitedTotal+t.deceasedTotal
}

// advanceResult is what the allocator hands back: the amount offset against
// the owed figure plus any invoice-utilization rows the caller must persist
// in the same transaction as the report.
type advanceResult struct {
	allocated    decimal.Decimal
	utilizations []models.InvoiceUtilization
}

// allocateAdvance resolves the advance portion attributable to the heads
// leaving in this run, according to the requested mode. Automatic mode
// prorates per entry batch: total active advance movements divided by head
// count, times this contract's heads exiting or dying now (the leaving map,
// keyed by batch id). Closed batches are skipped; their advances were
// consumed by the run that closed them.
func allocateAdvance(idx *indexes, contract *models.Contract, tallies map[string]*batchTally, leaving map[string]int, p Params) advanceResult {
	switch p.mode() {
	case AdvanceNone:
		return advanceResult{allocated: decimal.Zero}

	case AdvanceManual:
		return advanceResult{allocated: p.ManualAdvance}

	case AdvanceMovements:
		total := decimal.Zero
		for _, id := range p.MovementIDs {
			m, ok := idx.movementByID[id]
			if !ok || !m.Active {
				continue
			}
			total = total.Add(m.Amount)
		}
		return advanceResult{allocated: total}

	case AdvanceInvoices:
		return allocateInvoiceAdvances(idx, contract, p)
	}

	// Automatic proration.
	total := decimal.Zero
	for _, t := range sortedTallies(tallies) {
		if t.batch.Closed() || t.entered == 0 {
			continue
		}
		heads := leaving[t.batch.ID]
		if heads == 0 {
			continue
		}
		batchAdvance := activeAdvanceTotal(idx, t.batch.ID)
		if batchAdvance.IsZero() {
			continue
		}
		perHead := batchAdvance.Div(decimal.NewFromInt(int64(t.entered)))
		total = total.Add(perHead.Mul(decimal.NewFromInt(int64(heads))))
	}
	return advanceResult{allocated: total}
}

// activeAdvanceTotal sums a batch's non-voided advance movements. Several
// rows may exist; they behave as one logical advance total.
func activeAdvanceTotal(idx *indexes, batchID string) decimal.Decimal {
	total := decimal.Zero
	for _, m := range idx.movementsByBatch[batchID] {
		if !m.Active || m.Kind != models.MovementAdvance {
			continue
		}
		total = total.Add(m.Amount)
	}
	return total
}

// allocateInvoiceAdvances consumes the requested invoice balances, capped at
// what the utilization ledger says is still unconsumed for this contract.
// The returned rows record the consumption; persisting them atomically with
// the report is the caller's transaction, not the engine's.
func allocateInvoiceAdvances(idx *indexes, contract *models.Contract, p Params) advanceResult {
	res := advanceResult{allocated: decimal.Zero}
	for _, alloc := range p.InvoiceAllocations {
		inv, ok := idx.invoiceByID[alloc.InvoiceID]
		if !ok {
			continue
		}
		remaining := inv.Amount.Sub(idx.utilizedAmount(inv.ID, contract.ID))
		if !remaining.IsPositive() {
			continue
		}
		take := alloc.Amount
		if take.IsZero() || take.GreaterThan(remaining) {
			take = remaining
		}
		res.allocated = res.allocated.Add(take)
		res.utilizations = append(res.utilizations, models.InvoiceUtilization{
			FarmID:     p.FarmID,
			InvoiceID:  inv.ID,
			ContractID: contract.ID,
			Date:       p.To,
			AmountUsed: take,
		})
	}
	return res
}

// mortalityResult splits eligible deaths by responsibility. Farm-side value
// subtracts from the holder's settlement; holder-side value is informational
// compensation, scaled by the contract's mortality bonus when one is set.
type mortalityResult struct {
	count           int
	liabilityToFarm decimal.Decimal
	compensation    decimal.Decimal
}

// allocateMortality counts every death whose originating entry batch is
// fully accounted and not yet closed. Open batches keep their deaths out of
// the settlement until the last head leaves. The belongs predicate keeps a
// mixed batch from leaking another contract's deaths into this summary.
func allocateMortality(idx *indexes, contract *models.Contract, tallies map[string]*batchTally, belongs func(tag string) bool) mortalityResult {
	res := mortalityResult{liabilityToFarm: decimal.Zero, compensation: decimal.Zero}

	for _, t := range sortedTallies(tallies) {
		if t.batch.Closed() || !t.fullyAccounted() {
			continue
		}
		for _, l := range idx.linksByBatch[t.batch.ID] {
			death, ok := idx.deathByTag[l.AnimalTag]
			if !ok {
				continue
			}
			if belongs != nil && !belongs(l.AnimalTag) {
				continue
			}
			res.count++
			switch death.Responsibility {
			case models.ResponsibilityFarm:
				res.liabilityToFarm = res.liabilityToFarm.Add(death.Value)
			default:
				comp := death.Value
				if contract != nil && contract.MortalityBonusPct.IsPositive() {
					comp = comp.Mul(contract.MortalityBonusPct.Div(hundred))
				}
				res.compensation = res.compensation.Add(comp)
			}
		}
	}
	return res
}

// sortedTallies orders tallies by batch date then id so allocation output is
// deterministic across runs on the same snapshot.
func sortedTallies(tallies map[string]*batchTally) []*batchTally {
	out := make([]*batchTally, 0, len(tallies))
	for _, t := range tallies {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].batch.Date.Equal(out[j].batch.Date) {
			return out[i].batch.ID < out[j].batch.ID
		}
		return out[i].batch.Date.Before(out[j].batch.Date)
	})
	return out
}
