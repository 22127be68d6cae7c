package promo

import "github.com/shopspring/decimal"

// Reconcile splits target across lines in proportion to their subtotals and
// rounds every share to cents. Rounding drift is folded into the line with
// the largest raw share, so the returned shares always add up to target
// rounded to two decimals. A zero or negative cart total yields zero shares.
func Reconcile(target decimal.Decimal, subtotals []decimal.Decimal) []decimal.Decimal {
	rounded := make([]decimal.Decimal, len(subtotals))
	for i := range rounded {
		rounded[i] = decimal.Zero
	}
	cartTotal := decimal.Zero
	for _, s := range subtotals {
		cartTotal = cartTotal.Add(s)
	}
	if len(subtotals) == 0 || cartTotal.Sign() <= 0 {
		return rounded
	}
	target = target.Round(2)

	raw := make([]decimal.Decimal, len(subtotals))
	sum := decimal.Zero
	for i, s := range subtotals {
		raw[i] = target.Mul(s).Div(cartTotal)
		rounded[i] = raw[i].Round(2)
		sum = sum.Add(rounded[i])
	}

	diff := target.Sub(sum).Round(2)
	if !diff.IsZero() {
		largest := 0
		for i := range raw {
			if raw[i].Abs().GreaterThan(raw[largest].Abs()) {
				largest = i
			}
		}
		rounded[largest] = rounded[largest].Add(diff).Round(2)
	}
	return rounded
}
