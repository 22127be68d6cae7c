package promo

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Action is one of the four discount strategies. The set is closed: only
// GlobalDiscount, ProductDiscount, SecondUnitDiscount and FreeGift implement it.
type Action interface {
	Type() ActionType
	// Apply evaluates the strategy against items without mutating them.
	Apply(items []CartLineItem) Result
	sealed()
}

// ConfigError describes a rule that cannot be evaluated because of its own
// configuration rather than the cart contents.
type ConfigError struct {
	Outcome Outcome
	Mensaje string
}

func (e *ConfigError) Error() string { return e.Mensaje }

// Action converts the rule into its strategy. Unknown action types and
// rules missing required data return a *ConfigError.
func (r DiscountRule) Action() (Action, error) {
	if r.TipoAccion == ActionGift {
		return r.giftAction()
	}
	switch r.TipoAccion {
	case ActionGlobal, ActionProduct, ActionSecondUnit:
	default:
		return nil, &ConfigError{
			Outcome: OutcomeUnsupportedAction,
			Mensaje: fmt.Sprintf("Tipo de acción no soportado: %s", r.TipoAccion),
		}
	}
	unit, err := r.unit()
	if err != nil {
		return nil, err
	}
	if r.Valor.IsNegative() {
		return nil, misconfigured("El valor de la promoción no puede ser negativo.")
	}
	switch r.TipoAccion {
	case ActionProduct:
		if len(r.Efecto.ProductoTargetKeywords) == 0 {
			return nil, misconfigured("La promoción no define los productos a los que aplica el descuento.")
		}
		return ProductDiscount{
			Valor:       r.Valor,
			Unidad:      unit,
			Targets:     r.Efecto.ProductoTargetKeywords,
			Condiciones: r.Condiciones,
		}, nil
	case ActionSecondUnit:
		keywords := r.Condiciones.ProductoTriggerKeywords
		if len(keywords) == 0 {
			keywords = r.Efecto.ProductoTargetKeywords
		}
		if len(keywords) == 0 {
			return nil, misconfigured("La promoción de segunda unidad no define productos participantes.")
		}
		return SecondUnitDiscount{
			Valor:           r.Valor,
			Unidad:          unit,
			Keywords:        keywords,
			CantidadTrigger: r.Condiciones.CantidadTrigger,
		}, nil
	default:
		return GlobalDiscount{
			Valor:              r.Valor,
			Unidad:             unit,
			MontoMinimoCarrito: r.Condiciones.MontoMinimoCarrito,
		}, nil
	}
}

func (r DiscountRule) giftAction() (Action, error) {
	if len(r.Condiciones.ProductoTriggerKeywords) == 0 || len(r.Efecto.ProductoTargetKeywords) == 0 {
		return nil, misconfigured("La promoción de regalo requiere productos que la activen y un producto a regalar.")
	}
	required := 1
	if r.Condiciones.CantidadTrigger != nil {
		required = *r.Condiciones.CantidadTrigger
	}
	return FreeGift{
		Triggers:        r.Condiciones.ProductoTriggerKeywords,
		Targets:         r.Efecto.ProductoTargetKeywords,
		CantidadTrigger: required,
	}, nil
}

func (r DiscountRule) unit() (ValueUnit, error) {
	switch r.UnidadValor {
	case UnitPercent:
		return UnitPercent, nil
	case UnitAmount, "":
		return UnitAmount, nil
	default:
		return "", misconfigured(fmt.Sprintf("Unidad de valor no soportada: %s", r.UnidadValor))
	}
}

func misconfigured(mensaje string) *ConfigError {
	return &ConfigError{Outcome: OutcomeMisconfigured, Mensaje: mensaje}
}

// Apply dispatches the rule to its strategy. It never fails: configuration
// problems are reported through Result.Motivo with the cart returned unchanged.
func Apply(items []CartLineItem, rule DiscountRule) Result {
	action, err := rule.Action()
	if err != nil {
		outcome := OutcomeMisconfigured
		var cfgErr *ConfigError
		if errors.As(err, &cfgErr) {
			outcome = cfgErr.Outcome
		}
		return notApplied(items, outcome, err.Error())
	}
	return action.Apply(items)
}

// GlobalDiscount takes a discount off the whole cart and spreads it over every line.
type GlobalDiscount struct {
	Valor              decimal.Decimal
	Unidad             ValueUnit
	MontoMinimoCarrito *decimal.Decimal
}

// ProductDiscount discounts each line matching Targets independently.
type ProductDiscount struct {
	Valor       decimal.Decimal
	Unidad      ValueUnit
	Targets     []string
	Condiciones Conditions
}

// SecondUnitDiscount discounts exactly one unit of every matching line with two or more units.
type SecondUnitDiscount struct {
	Valor           decimal.Decimal
	Unidad          ValueUnit
	Keywords        []string
	CantidadTrigger *int
}

// FreeGift zeroes the price of the target product, adding it when the cart lacks it.
type FreeGift struct {
	Triggers        []string
	Targets         []string
	CantidadTrigger int
}

func (GlobalDiscount) sealed()     {}
func (ProductDiscount) sealed()    {}
func (SecondUnitDiscount) sealed() {}
func (FreeGift) sealed()           {}

// Type implements Action.
func (GlobalDiscount) Type() ActionType { return ActionGlobal }

// Type implements Action.
func (ProductDiscount) Type() ActionType { return ActionProduct }

// Type implements Action.
func (SecondUnitDiscount) Type() ActionType { return ActionSecondUnit }

// Type implements Action.
func (FreeGift) Type() ActionType { return ActionGift }
