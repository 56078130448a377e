package settlement

import (
	"github.com/shopspring/decimal"

	"github.com/PatrikBaldon/RegiFarm-sub000/internal/domain/models"
)

// effectiveWeight resolves the weight of one animal inside one batch.
// Precedence: the link's own per-head override, the batch's per-head weight
// list, the named attribute stored on the animal, and finally the batch
// average. Missing data degrades to the next step, never to an error.
func effectiveWeight(lb *linkedBatch, animal *models.Animal, fallback models.WeightField) float64 {
	if lb == nil {
		if animal != nil {
			return animal.FallbackWeight(fallback)
		}
		return 0
	}
	if lb.link.WeightOverride != nil {
		return *lb.link.WeightOverride
	}
	if w, ok := lb.batch.HeadWeights[lb.link.AnimalTag]; ok && w > 0 {
		return w
	}
	if animal != nil {
		if w := animal.FallbackWeight(fallback); w > 0 {
			return w
		}
	}
	return lb.batch.AverageWeight()
}

// effectiveHeadValue resolves a batch's per-head monetary value: the batch's
// own value divided by head count, else its linked invoice amount divided by
// head count. A zero head count or absent value yields zero.
func effectiveHeadValue(idx *indexes, batch *models.Batch) decimal.Decimal {
	if batch == nil || batch.HeadCount <= 0 {
		return decimal.Zero
	}
	heads := decimal.NewFromInt(int64(batch.HeadCount))
	if batch.Value != nil && batch.Value.IsPositive() {
		return batch.Value.Div(heads)
	}
	if batch.InvoiceID != "" {
		if inv, ok := idx.invoiceByID[batch.InvoiceID]; ok {
			return inv.Amount.Div(heads)
		}
	}
	return decimal.Zero
}
