// Package balance derives a product's on-hand quantity from its ledger.
// Balances are never stored; callers recompute them from ledger totals.
package balance

import (
	"github.com/shopspring/decimal"

	"github.com/iliyamo/sponge-stock-api/internal/model"
)

// Tally accumulates ledger quantities per movement type.  Decimal keeps
// repeated fractional movements (0.1 m3 and the like) exact.
type Tally struct {
	In     decimal.Decimal
	Out    decimal.Decimal
	Return decimal.Decimal
}

// Add folds one movement into the tally.
func (t *Tally) Add(typ model.MovementType, qty float64) {
	t.AddAmount(typ, decimal.NewFromFloat(qty))
}

// AddAmount is Add for totals already summed by the store.
func (t *Tally) AddAmount(typ model.MovementType, q decimal.Decimal) {
	switch typ {
	case model.MovementIn:
		t.In = t.In.Add(q)
	case model.MovementOut:
		t.Out = t.Out.Add(q)
	case model.MovementReturn:
		t.Return = t.Return.Add(q)
	}
}

// Balance is in + return - out.  An empty tally is zero.
func (t Tally) Balance() decimal.Decimal {
	return t.In.Add(t.Return).Sub(t.Out)
}

// Inbound is in + return, the figure reports show as "total in".
func (t Tally) Inbound() decimal.Decimal {
	return t.In.Add(t.Return)
}

// FromEntries tallies a slice of ledger rows.
func FromEntries(entries []model.StockEntry) Tally {
	var t Tally
	for _, e := range entries {
		t.Add(e.Type, e.Quantity)
	}
	return t
}

// IsCritical is true when balance is at or below threshold.
func IsCritical(balance decimal.Decimal, threshold float64) bool {
	return balance.LessThanOrEqual(decimal.NewFromFloat(threshold))
}

// Covers reports whether balance can satisfy an outbound quantity in full.
func Covers(balance decimal.Decimal, qty float64) bool {
	return balance.GreaterThanOrEqual(decimal.NewFromFloat(qty))
}

// Float converts for JSON responses.
func Float(d decimal.Decimal) float64 {
	return d.InexactFloat64()
}
