package settlement

import (
	"fmt"
	"sort"

	"github.com/PatrikBaldon/RegiFarm-sub000/internal/domain/models"
)

// linkedBatch pairs a link with its resolved batch.
type linkedBatch struct {
	link  models.AnimalBatchLink
	batch *models.Batch
}

// animalLinks is the resolved movement history of one animal, reduced to the
// three reference points the downstream calculations need. An animal may
// cross several internal transfer batches between its true entry and exit;
// keeping both the earliest and the most recent entry lets the owned-animal
// delta ignore those transfers while the contract baseline still sees weight
// corrections applied at the last internal movement.
type animalLinks struct {
	earliestEntry *linkedBatch
	latestEntry   *linkedBatch
	latestExit    *linkedBatch

	// latestExternalExit is the most recent exit that actually left the
	// farm; nil while the animal only moved between own facilities.
	latestExternalExit *linkedBatch
}

// resolveAnimalLinks walks the animal's links, partitions them by batch kind
// and selects the chronological extremes. Links pointing at a missing batch
// are reported through warn and skipped; one broken row must not take down
// the rest of the report.
func resolveAnimalLinks(idx *indexes, tag string, warn func(string)) animalLinks {
	var entries, exits []linkedBatch

	for _, l := range idx.linksByAnimal[tag] {
		batch, ok := idx.batchByID[l.BatchID]
		if !ok {
			if warn != nil {
				warn(fmt.Sprintf("animal %s: link references missing batch %s", tag, l.BatchID))
			}
			continue
		}
		lb := linkedBatch{link: l, batch: batch}
		switch batch.Kind {
		case models.BatchEntry:
			entries = append(entries, lb)
		case models.BatchExit:
			exits = append(exits, lb)
		}
	}

	byDate := func(s []linkedBatch) func(i, j int) bool {
		return func(i, j int) bool {
			if s[i].batch.Date.Equal(s[j].batch.Date) {
				return s[i].batch.ID < s[j].batch.ID
			}
			return s[i].batch.Date.Before(s[j].batch.Date)
		}
	}
	sort.Slice(entries, byDate(entries))
	sort.Slice(exits, byDate(exits))

	var res animalLinks
	if len(entries) > 0 {
		first, last := entries[0], entries[len(entries)-1]
		res.earliestEntry = &first
		res.latestEntry = &last
	}
	if len(exits) > 0 {
		last := exits[len(exits)-1]
		res.latestExit = &last
		for i := len(exits) - 1; i >= 0; i-- {
			if !exits[i].batch.IsInternalTransfer {
				ext := exits[i]
				res.latestExternalExit = &ext
				break
			}
		}
	}
	return res
}
