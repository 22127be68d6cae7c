package promo

import "github.com/shopspring/decimal"

const (
	msgNoTargetInCart   = "Ningún producto del carrito participa en esta promoción."
	msgNoSecondUnitLine = "Agrega al menos 2 unidades de un producto participante para obtener el descuento en la segunda unidad."
)

// Apply implements Action.
func (a GlobalDiscount) Apply(items []CartLineItem) Result {
	before := Total(items)
	conds := Conditions{MontoMinimoCarrito: a.MontoMinimoCarrito}
	if msg, ok := conds.checkMinimumAmount(before); !ok {
		return notApplied(items, OutcomeConditionNotMet, msg)
	}

	target := amountOff(before, a.Valor, a.Unidad)
	subtotals := make([]decimal.Decimal, len(items))
	for i, it := range items {
		subtotals[i] = lineSubtotal(it)
	}
	shares := Reconcile(target, subtotals)

	out := withOriginalPrices(items)
	for i := range out {
		line := &out[i]
		share := shares[i]
		if line.Cantidad > 0 {
			perUnit := share.Div(decimal.NewFromInt(int64(line.Cantidad)))
			line.Precio = decimal.Max(decimal.Zero, line.Precio.Sub(perUnit))
		} else {
			share = decimal.Zero
		}
		line.DescuentoAplicado = ptr(share)
	}
	after := Total(out)
	return applied(out, before, after, before.Sub(after))
}

// Apply implements Action.
func (a ProductDiscount) Apply(items []CartLineItem) Result {
	before := Total(items)
	if msg, ok := a.Condiciones.checkMinimumAmount(before); !ok {
		return notApplied(items, OutcomeConditionNotMet, msg)
	}
	if msg, ok := a.Condiciones.checkTrigger(items, a.Condiciones.ProductoTriggerKeywords); !ok {
		return notApplied(items, OutcomeConditionNotMet, msg)
	}

	out := withOriginalPrices(items)
	discount := decimal.Zero
	matched := 0
	for i := range out {
		line := &out[i]
		if !Matches(*line, a.Targets) {
			continue
		}
		matched++
		original := line.Precio
		line.Precio = original.Sub(amountOff(original, a.Valor, a.Unidad))
		lineDiscount := decimal.Zero
		if line.Cantidad > 0 {
			lineDiscount = original.Sub(line.Precio).Mul(decimal.NewFromInt(int64(line.Cantidad))).Round(2)
		}
		line.DescuentoAplicado = ptr(lineDiscount)
		discount = discount.Add(lineDiscount)
	}
	if matched == 0 {
		return notApplied(items, OutcomeConditionNotMet, msgNoTargetInCart)
	}
	return applied(out, before, Total(out), discount)
}

// Apply implements Action.
func (a SecondUnitDiscount) Apply(items []CartLineItem) Result {
	before := Total(items)
	conds := Conditions{CantidadTrigger: a.CantidadTrigger}
	if msg, ok := conds.checkTrigger(items, a.Keywords); !ok {
		return notApplied(items, OutcomeConditionNotMet, msg)
	}

	out := withOriginalPrices(items)
	discount := decimal.Zero
	qualifying := 0
	for i := range out {
		line := &out[i]
		if line.Cantidad < 2 || !Matches(*line, a.Keywords) {
			continue
		}
		qualifying++
		original := line.Precio
		qty := decimal.NewFromInt(int64(line.Cantidad))
		unitOff := amountOff(original, a.Valor, a.Unidad)
		line.Precio = original.Mul(qty).Sub(unitOff).Div(qty)
		line.DescuentoSegundaUnidad = ptr(unitOff.Round(2))
		discount = discount.Add(unitOff)
	}
	if qualifying == 0 {
		return notApplied(items, OutcomeConditionNotMet, msgNoSecondUnitLine)
	}
	return applied(out, before, Total(out), discount)
}

// Apply implements Action.
func (a FreeGift) Apply(items []CartLineItem) Result {
	before := Total(items)
	if msg, ok := checkTriggerQuantity(items, a.Triggers, a.CantidadTrigger); !ok {
		return notApplied(items, OutcomeConditionNotMet, msg)
	}

	out := withOriginalPrices(items)
	for i := range out {
		line := &out[i]
		if !Matches(*line, a.Targets) {
			continue
		}
		gifted := lineSubtotal(*line)
		line.Precio = decimal.Zero
		line.EsRegalo = true
		line.DescuentoAplicado = ptr(gifted.Round(2))
		return applied(out, before, Total(out), gifted)
	}

	out = append(out, CartLineItem{
		Nombre:         a.Targets[0],
		Precio:         decimal.Zero,
		Cantidad:       1,
		PrecioOriginal: ptr(decimal.Zero),
		EsRegalo:       true,
	})
	res := applied(out, before, Total(out), decimal.Zero)
	res.ProductoAgregado = true
	return res
}
