package settlement

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/PatrikBaldon/RegiFarm-sub000/internal/domain/models"
)

// Snapshot is the engine's complete input: every collection the computation
// needs, already scoped to one farm and materialized by the caller. The
// engine only reads it, so concurrent runs on separate snapshots need no
// coordination.
type Snapshot struct {
	FarmID       string
	Batches      []models.Batch
	Links        []models.AnimalBatchLink
	Animals      []models.Animal
	Contracts    []models.Contract
	Movements    []models.FinancialMovement
	Deaths       []models.DeathRecord
	Invoices     []models.Invoice
	Utilizations []models.InvoiceUtilization
}

// indexes holds the lookup maps the computation traverses. Built once per
// run; traversal is always by key, never a graph walk.
type indexes struct {
	snap *Snapshot

	batchByID        map[string]*models.Batch
	animalByTag      map[string]*models.Animal
	contractByID     map[string]*models.Contract
	invoiceByID      map[string]*models.Invoice
	movementByID     map[string]*models.FinancialMovement
	linksByAnimal    map[string][]models.AnimalBatchLink
	linksByBatch     map[string][]models.AnimalBatchLink
	movementsByBatch map[string][]models.FinancialMovement
	deathByTag       map[string]*models.DeathRecord
	usedByInvoice    map[string]decimal.Decimal // invoiceID + "|" + contractID
}

func buildIndexes(snap *Snapshot) *indexes {
	idx := &indexes{
		snap:             snap,
		batchByID:        make(map[string]*models.Batch, len(snap.Batches)),
		animalByTag:      make(map[string]*models.Animal, len(snap.Animals)),
		contractByID:     make(map[string]*models.Contract, len(snap.Contracts)),
		invoiceByID:      make(map[string]*models.Invoice, len(snap.Invoices)),
		movementByID:     make(map[string]*models.FinancialMovement, len(snap.Movements)),
		linksByAnimal:    make(map[string][]models.AnimalBatchLink),
		linksByBatch:     make(map[string][]models.AnimalBatchLink),
		movementsByBatch: make(map[string][]models.FinancialMovement),
		deathByTag:       make(map[string]*models.DeathRecord, len(snap.Deaths)),
		usedByInvoice:    make(map[string]decimal.Decimal),
	}

	for i := range snap.Batches {
		b := &snap.Batches[i]
		idx.batchByID[b.ID] = b
	}
	for i := range snap.Animals {
		a := &snap.Animals[i]
		idx.animalByTag[a.TagID] = a
	}
	for i := range snap.Contracts {
		c := &snap.Contracts[i]
		idx.contractByID[c.ID] = c
	}
	for i := range snap.Invoices {
		inv := &snap.Invoices[i]
		idx.invoiceByID[inv.ID] = inv
	}
	for i := range snap.Movements {
		m := &snap.Movements[i]
		idx.movementByID[m.ID] = m
		idx.movementsByBatch[m.BatchID] = append(idx.movementsByBatch[m.BatchID], *m)
	}
	for _, l := range snap.Links {
		idx.linksByAnimal[l.AnimalTag] = append(idx.linksByAnimal[l.AnimalTag], l)
		idx.linksByBatch[l.BatchID] = append(idx.linksByBatch[l.BatchID], l)
	}
	for i := range snap.Deaths {
		d := &snap.Deaths[i]
		// One death per animal; keep the first on duplicates.
		if _, ok := idx.deathByTag[d.AnimalTag]; !ok {
			idx.deathByTag[d.AnimalTag] = d
		}
	}
	for _, u := range snap.Utilizations {
		key := utilizationKey(u.InvoiceID, u.ContractID)
		idx.usedByInvoice[key] = idx.usedByInvoice[key].Add(u.AmountUsed)
	}

	return idx
}

func utilizationKey(invoiceID, contractID string) string {
	return invoiceID + "|" + contractID
}

// utilizedAmount returns how much of an invoice prior settlement runs already
// consumed for the given contract.
func (idx *indexes) utilizedAmount(invoiceID, contractID string) decimal.Decimal {
	return idx.usedByInvoice[utilizationKey(invoiceID, contractID)]
}

// enteredCount resolves how many heads a batch brought in, preferring the
// recorded head count over the number of links.
func (idx *indexes) enteredCount(batchID string) int {
	if b, ok := idx.batchByID[batchID]; ok && b.HeadCount > 0 {
		return b.HeadCount
	}
	return len(idx.linksByBatch[batchID])
}

// sortedTags returns the map's keys in stable order for report output.
func sortedTags(set map[string]struct{}) []string {
	if len(set) == 0 {
		return nil
	}
	tags := make([]string, 0, len(set))
	for t := range set {
		tags = append(tags, t)
	}
	sort.Strings(tags)
	return tags
}
