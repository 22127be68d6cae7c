package promo

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// checkMinimumAmount fails when a minimum cart amount is configured and the
// cart total is strictly below it.
func (c Conditions) checkMinimumAmount(total decimal.Decimal) (string, bool) {
	if c.MontoMinimoCarrito == nil {
		return "", true
	}
	minimo := *c.MontoMinimoCarrito
	if total.LessThan(minimo) {
		faltante := minimo.Sub(total)
		return fmt.Sprintf("El monto mínimo para esta promoción es $%s. Te faltan $%s.",
			minimo.StringFixed(2), faltante.StringFixed(2)), false
	}
	return "", true
}

// checkTriggerQuantity requires at least required units across the lines
// matching keywords.
func checkTriggerQuantity(items []CartLineItem, keywords []string, required int) (string, bool) {
	have := quantityMatching(items, keywords)
	if have < required {
		return fmt.Sprintf("Necesitas al menos %d unidad(es) de los productos de la promoción en tu carrito (tienes %d).",
			required, have), false
	}
	return "", true
}

// checkTrigger evaluates the trigger-quantity condition only when cantidad_trigger is set.
func (c Conditions) checkTrigger(items []CartLineItem, keywords []string) (string, bool) {
	if c.CantidadTrigger == nil {
		return "", true
	}
	return checkTriggerQuantity(items, keywords, *c.CantidadTrigger)
}
