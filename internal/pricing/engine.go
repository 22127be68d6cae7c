package pricing

import (
	"encoding/json"

	"github.com/shopspring/decimal"

	"github.com/noah-isme/backend-promo/internal/promo"
)

// Summary aggregates the pricing of a stored cart.
type Summary struct {
	Units    int
	Subtotal decimal.Decimal
	Discount decimal.Decimal
	Total    decimal.Decimal
}

// MarshalJSON writes amounts as JSON numbers with two decimals.
func (s Summary) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Units    int         `json:"unidades"`
		Subtotal json.Number `json:"subtotal"`
		Discount json.Number `json:"descuento"`
		Total    json.Number `json:"total"`
	}{
		Units:    s.Units,
		Subtotal: json.Number(s.Subtotal.StringFixed(2)),
		Discount: json.Number(s.Discount.StringFixed(2)),
		Total:    json.Number(s.Total.StringFixed(2)),
	})
}

// Compute prices a cart. Subtotal uses precio_original when a promotion has
// already been applied, so Discount reports the accumulated savings.
func Compute(items []promo.CartLineItem) Summary {
	subtotal := decimal.Zero
	units := 0
	for _, it := range items {
		if it.Cantidad <= 0 {
			continue
		}
		units += it.Cantidad
		base := it.Precio
		if it.PrecioOriginal != nil {
			base = *it.PrecioOriginal
		}
		subtotal = subtotal.Add(base.Mul(decimal.NewFromInt(int64(it.Cantidad))))
	}
	total := promo.Total(items)
	discount := subtotal.Sub(total)
	if discount.IsNegative() {
		discount = decimal.Zero
	}
	return Summary{
		Units:    units,
		Subtotal: subtotal.Round(2),
		Discount: discount.Round(2),
		Total:    total.Round(2),
	}
}
