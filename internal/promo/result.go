package promo

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// Outcome classifies why a rule did or did not apply.
type Outcome int

const (
	outcomeUnknown Outcome = iota
	// OutcomeApplied means the cart was transformed.
	OutcomeApplied
	// OutcomeConditionNotMet means the promotion is valid but the cart does not qualify yet.
	OutcomeConditionNotMet
	// OutcomeMisconfigured means the rule is missing data its strategy requires.
	OutcomeMisconfigured
	// OutcomeUnsupportedAction means the rule names an unknown tipo_accion.
	OutcomeUnsupportedAction
)

func (o Outcome) String() string {
	switch o {
	case OutcomeApplied:
		return "applied"
	case OutcomeConditionNotMet:
		return "condition_not_met"
	case OutcomeMisconfigured:
		return "misconfigured"
	case OutcomeUnsupportedAction:
		return "unsupported_action"
	default:
		return "unknown"
	}
}

// Result is the uniform outcome of applying a rule to a cart.
type Result struct {
	Aplicado         bool
	Productos        []CartLineItem
	DescuentoTotal   *decimal.Decimal
	Mensaje          string
	ProductoAgregado bool
	TotalOriginal    *decimal.Decimal
	TotalFinal       *decimal.Decimal
	Motivo           Outcome
}

// IsConfigError reports whether the rule itself is at fault rather than the cart.
func (r Result) IsConfigError() bool {
	return r.Motivo == OutcomeMisconfigured || r.Motivo == OutcomeUnsupportedAction
}

type resultJSON struct {
	Aplicado         bool           `json:"aplicado"`
	Productos        []CartLineItem `json:"productos"`
	DescuentoTotal   *json.Number   `json:"descuento_total,omitempty"`
	Mensaje          string         `json:"mensaje,omitempty"`
	ProductoAgregado bool           `json:"producto_agregado,omitempty"`
	TotalOriginal    *json.Number   `json:"total_original,omitempty"`
	TotalFinal       *json.Number   `json:"total_final,omitempty"`
}

// MarshalJSON writes reported amounts as numbers with two decimals.
func (r Result) MarshalJSON() ([]byte, error) {
	productos := r.Productos
	if productos == nil {
		productos = []CartLineItem{}
	}
	return json.Marshal(resultJSON{
		Aplicado:         r.Aplicado,
		Productos:        productos,
		DescuentoTotal:   fixed(r.DescuentoTotal),
		Mensaje:          r.Mensaje,
		ProductoAgregado: r.ProductoAgregado,
		TotalOriginal:    fixed(r.TotalOriginal),
		TotalFinal:       fixed(r.TotalFinal),
	})
}

func fixed(d *decimal.Decimal) *json.Number {
	if d == nil {
		return nil
	}
	n := json.Number(d.StringFixed(2))
	return &n
}

func applied(items []CartLineItem, before, after, discount decimal.Decimal) Result {
	return Result{
		Aplicado:       true,
		Productos:      items,
		DescuentoTotal: ptr(discount.Round(2)),
		TotalOriginal:  ptr(before.Round(2)),
		TotalFinal:     ptr(after.Round(2)),
		Motivo:         OutcomeApplied,
	}
}

func notApplied(items []CartLineItem, outcome Outcome, mensaje string) Result {
	return Result{
		Aplicado:  false,
		Productos: cloneAll(items),
		Mensaje:   mensaje,
		Motivo:    outcome,
	}
}

func cloneAll(items []CartLineItem) []CartLineItem {
	out := make([]CartLineItem, len(items))
	for i, it := range items {
		out[i] = it.Clone()
	}
	return out
}

// withOriginalPrices copies items and stamps precio_original on every line.
func withOriginalPrices(items []CartLineItem) []CartLineItem {
	out := cloneAll(items)
	for i := range out {
		out[i].PrecioOriginal = ptr(out[i].Precio)
	}
	return out
}
