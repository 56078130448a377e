package settlement

import (
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/PatrikBaldon/RegiFarm-sub000/internal/domain/models"
)

const dateLayout = "2006-01-02"

// reconcileTolerance is the rounding slack allowed between an invoiced
// contract's linked invoices and the computed owed amount.
var reconcileTolerance = decimal.NewFromFloat(0.01)

// Result is one settlement run's complete output. NewUtilizations lists the
// invoice-utilization rows the run consumed; the caller must persist them in
// the same transaction as the report or the next run will re-consume the
// same invoice balance.
type Result struct {
	Report          *models.SettlementReport
	NewUtilizations []models.InvoiceUtilization
}

// Compute runs the full settlement pipeline over one snapshot: resolve every
// animal's movement history, split the period's exits into owned and
// per-contract sets, price each contract, offset advances and mortality, and
// assemble the three report views. It reads the snapshot and nothing else.
func Compute(snap *Snapshot, p Params) (*Result, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if snap == nil {
		return nil, ErrMissingSnapshot
	}

	run := newRun(snap, p)
	run.resolveAnimals()
	run.partition()

	report := &models.SettlementReport{
		FarmID:      p.FarmID,
		PeriodLabel: p.PeriodLabel(),
		DateRange:   models.DateRange{From: p.From, To: p.To},
	}
	report.OwnedSummary = run.ownedSummary()

	summaries, utilizations := run.contractSummaries()
	report.ContractSummaries = summaries
	report.MortalitySummary = run.mortalitySummary()
	report.PerBatchSummary = run.perBatchSummaries()
	report.Warnings = run.warnings

	return &Result{Report: report, NewUtilizations: utilizations}, nil
}

// run holds the per-computation working state. Everything derives from the
// snapshot indexes built at construction; the three views never re-query.
type run struct {
	idx      *indexes
	p        Params
	warnings []string

	resolved map[string]animalLinks

	// contractOf caches each animal's resolved contract id; tags whose
	// contract reference is broken are absent and listed in badContract.
	contractOf  map[string]string
	badContract map[string]bool

	// tallies tracks every originating entry batch touched by any animal.
	tallies map[string]*batchTally

	// ownedExits and contractExits partition the period's external exits.
	ownedExits    []string
	contractExits map[string][]string // contract id -> tags

	// deadInRun lists animals whose death falls inside the period, per
	// contract ("" for owned ones).
	deadInRun map[string][]string
}

func newRun(snap *Snapshot, p Params) *run {
	return &run{
		idx:           buildIndexes(snap),
		p:             p,
		resolved:      make(map[string]animalLinks, len(snap.Animals)),
		contractOf:    make(map[string]string, len(snap.Animals)),
		badContract:   make(map[string]bool),
		tallies:       make(map[string]*batchTally),
		contractExits: make(map[string][]string),
		deadInRun:     make(map[string][]string),
	}
}

func (r *run) warn(msg string) {
	r.warnings = append(r.warnings, msg)
}

func (r *run) resolveAnimals() {
	for i := range r.idx.snap.Animals {
		a := &r.idx.snap.Animals[i]
		r.resolved[a.TagID] = resolveAnimalLinks(r.idx, a.TagID, r.warn)
	}
}

// originTally finds (or creates) the tally of the animal's originating entry
// batch: the chronologically first entry of its history.
func (r *run) originTally(al animalLinks) *batchTally {
	if al.earliestEntry == nil {
		return nil
	}
	b := al.earliestEntry.batch
	t, ok := r.tallies[b.ID]
	if !ok {
		t = &batchTally{batch: b, entered: r.idx.enteredCount(b.ID)}
		r.tallies[b.ID] = t
	}
	return t
}

// contractFor resolves which contract an animal settles under: its own
// reference first, then the one on its entry batch. The second return is
// false when the animal references a contract that no longer exists; such
// rows are skipped with a warning rather than failing the report. Results
// are cached so repeated lookups never duplicate warnings.
func (r *run) contractFor(a *models.Animal, al animalLinks) (string, bool) {
	if r.badContract[a.TagID] {
		return "", false
	}
	if id, ok := r.contractOf[a.TagID]; ok {
		return id, true
	}

	id := a.ContractID
	if id == "" && al.latestEntry != nil {
		id = al.latestEntry.batch.ContractID
	}
	if id == "" && al.earliestEntry != nil {
		id = al.earliestEntry.batch.ContractID
	}
	if id != "" {
		if _, ok := r.idx.contractByID[id]; !ok {
			r.badContract[a.TagID] = true
			r.warn(fmt.Sprintf("animal %s: contract %s not found, row skipped", a.TagID, id))
			return "", false
		}
	}
	r.contractOf[a.TagID] = id
	return id, true
}

// partition walks every animal once, updating the global batch tallies and
// splitting the period's exits and deaths into owned and per-contract sets.
func (r *run) partition() {
	for i := range r.idx.snap.Animals {
		a := &r.idx.snap.Animals[i]
		al := r.resolved[a.TagID]
		tally := r.originTally(al)

		contractID, ok := r.contractFor(a, al)

		if death, dead := r.idx.deathByTag[a.TagID]; dead || a.State == models.AnimalDeceased {
			if tally != nil {
				tally.deceasedTotal++
			}
			if dead && r.p.inRange(death.Date) && ok {
				r.deadInRun[contractID] = append(r.deadInRun[contractID], a.TagID)
			}
			continue
		}

		if exited(a, al) {
			if tally != nil {
				tally.exitedTotal++
			}
			exit := al.latestExternalExit
			if exit == nil || !r.p.inRange(exit.batch.Date) {
				continue
			}
			if !ok {
				continue
			}
			if contractID == "" {
				r.ownedExits = append(r.ownedExits, a.TagID)
			} else {
				r.contractExits[contractID] = append(r.contractExits[contractID], a.TagID)
			}
		}
	}

	sort.Strings(r.ownedExits)
	for _, tags := range r.contractExits {
		sort.Strings(tags)
	}
}

// exited reports whether an animal has left the farm for good, by link
// history first and lifecycle state as fallback.
func exited(a *models.Animal, al animalLinks) bool {
	if al.latestExternalExit != nil {
		return true
	}
	switch a.State {
	case models.AnimalSold, models.AnimalTransferred, models.AnimalSlaughtered:
		return true
	}
	return false
}

// ownedSummary builds the contract-free view: a plain weight and value delta
// between each animal's earliest entry and latest exit. Internal transfers
// in between do not move the result.
func (r *run) ownedSummary() models.OwnedSummary {
	sum := models.OwnedSummary{
		EntryValue: decimal.Zero,
		ExitValue:  decimal.Zero,
		ValueDelta: decimal.Zero,
	}

	for _, tag := range r.ownedExits {
		a := r.idx.animalByTag[tag]
		al := r.resolved[tag]

		entryW := effectiveWeight(al.earliestEntry, a, models.WeightFieldArrival)
		exitW := effectiveWeight(al.latestExternalExit, a, models.WeightFieldCurrent)
		var entryV, exitV decimal.Decimal
		if al.earliestEntry != nil {
			entryV = effectiveHeadValue(r.idx, al.earliestEntry.batch)
		}
		if al.latestExternalExit != nil {
			exitV = effectiveHeadValue(r.idx, al.latestExternalExit.batch)
		}

		sum.HeadCount++
		sum.EntryWeight += entryW
		sum.ExitWeight += exitW
		sum.EntryValue = sum.EntryValue.Add(entryV)
		sum.ExitValue = sum.ExitValue.Add(exitV)
	}

	sum.WeightDelta = sum.ExitWeight - sum.EntryWeight
	sum.EntryValue = sum.EntryValue.Round(2)
	sum.ExitValue = sum.ExitValue.Round(2)
	sum.ValueDelta = sum.ExitValue.Sub(sum.EntryValue)
	return sum
}

// contractSummaries prices every active contract touched in the period and
// offsets its advances and mortality. Monetary figures round to two decimals
// here, at the reporting edge only.
func (r *run) contractSummaries() ([]models.ContractSummary, []models.InvoiceUtilization) {
	ids := make([]string, 0, len(r.contractExits))
	seen := make(map[string]struct{})
	for id := range r.contractExits {
		ids = append(ids, id)
		seen[id] = struct{}{}
	}
	for id := range r.deadInRun {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; !ok {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)

	var summaries []models.ContractSummary
	var utilizations []models.InvoiceUtilization

	for _, id := range ids {
		if r.p.ContractID != "" && id != r.p.ContractID {
			continue
		}
		contract := r.idx.contractByID[id]
		if !contract.Active {
			r.warn(fmt.Sprintf("contract %s inactive, exits in period left unsettled", id))
			continue
		}

		summary, newRows := r.settleContract(contract)
		summaries = append(summaries, summary)
		utilizations = append(utilizations, newRows...)
	}
	return summaries, utilizations
}

// settleContract runs the calculator and allocator for one contract.
func (r *run) settleContract(contract *models.Contract) (models.ContractSummary, []models.InvoiceUtilization) {
	summary := models.ContractSummary{
		ContractID: contract.ID,
		HolderName: contract.HolderName,
		Model:      contract.Model,
		Invoiced:   contract.Invoiced,
	}

	var (
		basis        settlementBasis
		minEntryDate time.Time
		maxExitDate  time.Time
	)
	// leaving counts this contract's heads exiting or dying per entry
	// batch; a batch shared with another contract prorates its advance
	// over these counts, never the farm-wide ones.
	tallies := make(map[string]*batchTally)
	leaving := make(map[string]int)
	exitBatchIDs := make(map[string]struct{})

	for _, tag := range r.contractExits[contract.ID] {
		a := r.idx.animalByTag[tag]
		al := r.resolved[tag]
		exit := al.latestExternalExit
		if exit == nil {
			continue
		}

		// Entry weight baseline comes from the most recent entry so
		// corrections applied at the last internal movement count; the
		// holding period starts at the earliest entry.
		rawEntryW := effectiveWeight(al.latestEntry, a, models.WeightFieldArrival)
		rawExitW := effectiveWeight(exit, a, models.WeightFieldCurrent)
		adjEntryW := adjustEntryWeight(contract, rawEntryW)
		adjExitW := adjustExitWeight(contract, rawExitW)

		entryDate := exit.batch.Date
		if al.earliestEntry != nil {
			entryDate = al.earliestEntry.batch.Date
		}
		days := int(exit.batch.Date.Sub(entryDate).Hours() / 24)
		if days < 0 {
			days = 0
		}

		summary.Animals = append(summary.Animals, models.AnimalDetail{
			TagID:       tag,
			EntryDate:   entryDate,
			ExitDate:    exit.batch.Date,
			EntryWeight: adjEntryW,
			ExitWeight:  adjExitW,
			WeightGain:  adjExitW - adjEntryW,
			DaysManaged: days,
		})

		basis.headCount++
		basis.entryWeight += adjEntryW
		basis.exitWeight += adjExitW
		basis.rawExitWeight += rawExitW
		basis.exitValue = basis.exitValue.Add(effectiveHeadValue(r.idx, exit.batch))
		exitBatchIDs[exit.batch.ID] = struct{}{}

		if minEntryDate.IsZero() || entryDate.Before(minEntryDate) {
			minEntryDate = entryDate
		}
		if exit.batch.Date.After(maxExitDate) {
			maxExitDate = exit.batch.Date
		}

		if t := r.originTally(al); t != nil {
			tallies[t.batch.ID] = t
			leaving[t.batch.ID]++
		}
	}

	for _, tag := range r.deadInRun[contract.ID] {
		if t := r.originTally(r.resolved[tag]); t != nil {
			tallies[t.batch.ID] = t
			leaving[t.batch.ID]++
		}
	}

	if !minEntryDate.IsZero() && maxExitDate.After(minEntryDate) {
		basis.daysManaged = int(maxExitDate.Sub(minEntryDate).Hours() / 24)
	}

	owed, bonus := computeOwed(contract, basis)
	adv := allocateAdvance(r.idx, contract, tallies, leaving, r.p)
	mort := allocateMortality(r.idx, contract, tallies, r.belongsTo(contract.ID))

	summary.HeadCount = basis.headCount
	summary.TotalGainKg = basis.gain()
	summary.AvgGainPerHead = basis.avgGainPerHead()
	summary.GainBonusApplied = bonus
	summary.Owed = owed.Round(2)
	summary.AdvanceAllocated = adv.allocated.Round(2)
	summary.MortalityLiability = mort.liabilityToFarm.Round(2)
	summary.SettlementValue = owed.Sub(adv.allocated).Sub(mort.liabilityToFarm).Round(2)

	if contract.Invoiced {
		total := r.invoicedTotal(exitBatchIDs)
		summary.InvoiceReconciliation = &models.InvoiceReconciliation{
			TotalInvoiced: total.Round(2),
			ComputedOwed:  summary.Owed,
			Consistent:    total.Sub(owed).Abs().LessThanOrEqual(reconcileTolerance),
		}
	}

	return summary, adv.utilizations
}

// belongsTo narrows batch links to animals settling under one contract, so
// a mixed batch never leaks one contract's deaths into another's summary.
func (r *run) belongsTo(contractID string) func(tag string) bool {
	return func(tag string) bool {
		a, ok := r.idx.animalByTag[tag]
		if !ok {
			return false
		}
		id, valid := r.contractFor(a, r.resolved[tag])
		return valid && id == contractID
	}
}

// invoicedTotal sums the invoices referenced by active settlement movements
// on the contract's exit batches. Advances reconcile through the utilization
// ledger instead, so they never enter this comparison.
func (r *run) invoicedTotal(exitBatchIDs map[string]struct{}) decimal.Decimal {
	total := decimal.Zero
	for batchID := range exitBatchIDs {
		for _, m := range r.idx.movementsByBatch[batchID] {
			if !m.Active || m.Kind != models.MovementSettlement {
				continue
			}
			if m.InvoiceID != "" {
				if inv, ok := r.idx.invoiceByID[m.InvoiceID]; ok {
					total = total.Add(inv.Amount)
					continue
				}
			}
			total = total.Add(m.Amount)
		}
	}
	return total
}

// mortalitySummary aggregates eligible deaths farm-wide in a single pass, so
// no death is counted twice no matter how contracts share batches.
func (r *run) mortalitySummary() models.MortalitySummary {
	sum := models.MortalitySummary{
		LiabilityToFarm:      decimal.Zero,
		CompensationReceived: decimal.Zero,
	}

	for i := range r.idx.snap.Deaths {
		death := &r.idx.snap.Deaths[i]
		a, ok := r.idx.animalByTag[death.AnimalTag]
		if !ok {
			r.warn(fmt.Sprintf("death record %s: animal %s not found", death.ID, death.AnimalTag))
			continue
		}
		al := r.resolved[a.TagID]
		tally := r.originTally(al)
		if tally == nil || tally.batch.Closed() || !tally.fullyAccounted() {
			continue
		}

		sum.Count++
		if death.Responsibility == models.ResponsibilityFarm {
			sum.LiabilityToFarm = sum.LiabilityToFarm.Add(death.Value)
			continue
		}
		comp := death.Value
		if id, valid := r.contractFor(a, al); valid && id != "" {
			if c := r.idx.contractByID[id]; c.MortalityBonusPct.IsPositive() {
				comp = comp.Mul(c.MortalityBonusPct.Div(hundred))
			}
		}
		sum.CompensationReceived = sum.CompensationReceived.Add(comp)
	}

	sum.LiabilityToFarm = sum.LiabilityToFarm.Round(2)
	sum.CompensationReceived = sum.CompensationReceived.Round(2)
	return sum
}

// perBatchSummaries lists every originating entry batch with the current
// whereabouts of its animals, independent of the run's date filter.
func (r *run) perBatchSummaries() []models.BatchSummary {
	var out []models.BatchSummary

	for i := range r.idx.snap.Batches {
		b := &r.idx.snap.Batches[i]
		if b.Kind != models.BatchEntry || b.IsInternalTransfer {
			continue
		}

		row := models.BatchSummary{
			BatchID:      b.ID,
			Date:         b.Date,
			FacilityCode: b.FacilityCode,
			EnteredCount: r.idx.enteredCount(b.ID),
		}
		exitedSet := make(map[string]struct{})
		deceasedSet := make(map[string]struct{})
		presentSet := make(map[string]struct{})

		for _, l := range r.idx.linksByBatch[b.ID] {
			a, ok := r.idx.animalByTag[l.AnimalTag]
			if !ok {
				r.warn(fmt.Sprintf("batch %s: link references missing animal %s", b.ID, l.AnimalTag))
				continue
			}
			al := r.resolved[a.TagID]
			lb := linkedBatch{link: l, batch: b}
			row.EntryWeight += effectiveWeight(&lb, a, models.WeightFieldArrival)

			if _, dead := r.idx.deathByTag[a.TagID]; dead || a.State == models.AnimalDeceased {
				deceasedSet[a.TagID] = struct{}{}
				continue
			}
			if exited(a, al) {
				exitedSet[a.TagID] = struct{}{}
				row.ExitWeight += effectiveWeight(al.latestExternalExit, a, models.WeightFieldCurrent)
				dest := "unknown"
				if al.latestExternalExit != nil && al.latestExternalExit.batch.FacilityCode != "" {
					dest = al.latestExternalExit.batch.FacilityCode
				}
				if row.Destinations == nil {
					row.Destinations = make(map[string]int)
				}
				row.Destinations[dest]++
				continue
			}
			presentSet[a.TagID] = struct{}{}
		}

		row.ExitedCount = len(exitedSet)
		row.DeceasedCount = len(deceasedSet)
		row.PresentCount = len(presentSet)
		row.ExitedTags = sortedTags(exitedSet)
		row.DeceasedTags = sortedTags(deceasedSet)
		row.PresentTags = sortedTags(presentSet)

		out = append(out, row)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Date.Equal(out[j].Date) {
			return out[i].BatchID < out[j].BatchID
		}
		return out[i].Date.Before(out[j].Date)
	})
	return out
}
