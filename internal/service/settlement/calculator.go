package settlement

import (
	"github.com/shopspring/decimal"

	"github.com/PatrikBaldon/RegiFarm-sub000/internal/domain/models"
)

var hundred = decimal.NewFromInt(100)

// settlementBasis carries the aggregated figures a contract formula runs on.
// Entry and exit weights already carry the contract's percentage adjustments
// (entry grown by the addition %, exit shrunk by the subtraction %).
type settlementBasis struct {
	headCount   int
	entryWeight float64 // adjusted, summed over heads
	exitWeight  float64 // adjusted, summed over heads
	daysManaged int     // latest exit minus earliest entry, floored at zero

	// exitValue and rawExitWeight back the implied unit price for the
	// revenue-based models; both unadjusted.
	exitValue     decimal.Decimal
	rawExitWeight float64
}

func (b settlementBasis) gain() float64 {
	return b.exitWeight - b.entryWeight
}

func (b settlementBasis) avgGainPerHead() float64 {
	if b.headCount == 0 {
		return 0
	}
	return b.gain() / float64(b.headCount)
}

// computeOwed dispatches over the contract's remuneration model and returns
// the raw owed amount plus whether the weight-gain bonus fired. The set of
// models is closed; a new formula is a new case, nothing else. No rounding
// happens here: intermediate amounts keep full precision until the report
// is assembled.
func computeOwed(c *models.Contract, basis settlementBasis) (decimal.Decimal, bool) {
	var owed decimal.Decimal

	switch c.Model {
	case models.ModelPricePerKg:
		owed = decimal.NewFromFloat(basis.gain()).Mul(c.PricePerKg)

	case models.ModelDailyQuota:
		owed = c.QuotaPerHeadDay.
			Mul(decimal.NewFromInt(int64(basis.headCount))).
			Mul(decimal.NewFromInt(int64(basis.daysManaged)))

	case models.ModelPercentage:
		owed = estimatedRevenue(c, basis).Mul(c.RevenueSharePct.Div(hundred))

	case models.ModelProfitShare:
		share := c.RevenueSharePct
		if share.IsZero() {
			share = hundred.Sub(c.HolderSharePct)
		}
		owed = estimatedRevenue(c, basis).Mul(share.Div(hundred))

	default:
		return decimal.Zero, false
	}

	if c.GainBonusThresholdKg > 0 && basis.avgGainPerHead() > c.GainBonusThresholdKg {
		owed = owed.Add(owed.Mul(c.GainBonusPct.Div(hundred)))
		return owed, true
	}
	return owed, false
}

// estimatedRevenue prices the weight gain at the exit batches' implied unit
// price, falling back to the contract's configured reference price when the
// exits carry no value information.
func estimatedRevenue(c *models.Contract, basis settlementBasis) decimal.Decimal {
	unit := decimal.Zero
	if basis.rawExitWeight > 0 && basis.exitValue.IsPositive() {
		unit = basis.exitValue.Div(decimal.NewFromFloat(basis.rawExitWeight))
	}
	if !unit.IsPositive() {
		unit = c.ReferencePricePerKg
	}
	if !unit.IsPositive() {
		return decimal.Zero
	}
	return decimal.NewFromFloat(basis.gain()).Mul(unit)
}

// adjustEntryWeight applies the contract's entry-weight addition percentage.
func adjustEntryWeight(c *models.Contract, w float64) float64 {
	return w * (1 + c.EntryWeightAddPct/100)
}

// adjustExitWeight applies the contract's exit-weight subtraction percentage.
func adjustExitWeight(c *models.Contract, w float64) float64 {
	return w * (1 - c.ExitWeightSubPct/100)
}
