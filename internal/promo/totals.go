package promo

import "github.com/shopspring/decimal"

var hundred = decimal.NewFromInt(100)

// Total sums precio × cantidad over the cart. Lines without a positive
// quantity contribute nothing. The result is not rounded.
func Total(items []CartLineItem) decimal.Decimal {
	total := decimal.Zero
	for _, it := range items {
		total = total.Add(lineSubtotal(it))
	}
	return total
}

func lineSubtotal(it CartLineItem) decimal.Decimal {
	if it.Cantidad <= 0 {
		return decimal.Zero
	}
	return it.Precio.Mul(decimal.NewFromInt(int64(it.Cantidad)))
}

// amountOff computes the discount on base for a valor expressed in unit,
// never exceeding base and never negative.
func amountOff(base, valor decimal.Decimal, unit ValueUnit) decimal.Decimal {
	var off decimal.Decimal
	if unit == UnitPercent {
		off = base.Mul(valor).Div(hundred)
	} else {
		off = decimal.Min(valor, base)
	}
	if off.GreaterThan(base) {
		off = base
	}
	return decimal.Max(decimal.Zero, off)
}
