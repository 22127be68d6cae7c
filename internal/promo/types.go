package promo

import (
	"bytes"
	"encoding/json"

	"github.com/shopspring/decimal"
)

// ActionType identifies the discount strategy a rule selects.
type ActionType string

const (
	// ActionGlobal distributes a discount across the whole cart.
	ActionGlobal ActionType = "descuento_global"
	// ActionProduct discounts every line matching the target keywords.
	ActionProduct ActionType = "descuento_producto"
	// ActionSecondUnit discounts one unit of every matching line holding two or more units.
	ActionSecondUnit ActionType = "segunda_unidad"
	// ActionGift grants a free product.
	ActionGift ActionType = "producto_regalo"
)

// ValueUnit describes how a rule's Valor is interpreted.
type ValueUnit string

const (
	// UnitPercent means Valor is a percentage between 0 and 100.
	UnitPercent ValueUnit = "porcentaje"
	// UnitAmount means Valor is an absolute currency amount.
	UnitAmount ValueUnit = "monto"
)

// Keywords is a list of product name fragments. Any JSON value other than an
// array decodes to an empty list, and non-string array elements are dropped.
type Keywords []string

// UnmarshalJSON implements json.Unmarshaler.
func (k *Keywords) UnmarshalJSON(data []byte) error {
	*k = nil
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil
	}
	out := make(Keywords, 0, len(raw))
	for _, el := range raw {
		var s string
		if err := json.Unmarshal(el, &s); err == nil {
			out = append(out, s)
		}
	}
	if len(out) > 0 {
		*k = out
	}
	return nil
}

// Conditions are the optional preconditions of a rule.
type Conditions struct {
	MontoMinimoCarrito      *decimal.Decimal `json:"monto_minimo_carrito,omitempty"`
	ProductoTriggerKeywords Keywords         `json:"producto_trigger_keywords,omitempty"`
	CantidadTrigger         *int             `json:"cantidad_trigger,omitempty"`
}

// Effect describes which lines receive the discount or which product is gifted.
type Effect struct {
	ProductoTargetKeywords Keywords `json:"producto_target_keywords,omitempty"`
}

// DiscountRule is the declarative, data-only description of one promotional action.
type DiscountRule struct {
	TipoAccion  ActionType      `json:"tipo_accion"`
	Valor       decimal.Decimal `json:"valor"`
	UnidadValor ValueUnit       `json:"unidad_valor"`
	Condiciones Conditions      `json:"condiciones"`
	Efecto      Effect          `json:"efecto"`
}

const (
	fieldID                     = "id"
	fieldNombre                 = "nombre"
	fieldPrecio                 = "precio"
	fieldCantidad               = "cantidad"
	fieldPrecioOriginal         = "precio_original"
	fieldDescuentoAplicado      = "descuento_aplicado"
	fieldDescuentoSegundaUnidad = "descuento_segunda_unidad"
	fieldEsRegalo               = "es_regalo"
)

// CartLineItem is one product line of a cart. Fields the engine does not know
// about are kept in Extra and written back untouched.
type CartLineItem struct {
	// ID is the raw catalog identifier; nil means an unresolved gift line.
	ID                     json.RawMessage
	Nombre                 string
	Precio                 decimal.Decimal
	Cantidad               int
	PrecioOriginal         *decimal.Decimal
	DescuentoAplicado      *decimal.Decimal
	DescuentoSegundaUnidad *decimal.Decimal
	EsRegalo               bool
	Extra                  map[string]json.RawMessage
}

// HasID reports whether the line carries a catalog identifier.
func (it CartLineItem) HasID() bool {
	return len(it.ID) > 0 && !isNull(it.ID)
}

// Clone returns a deep copy that shares no memory with it.
func (it CartLineItem) Clone() CartLineItem {
	out := it
	if it.ID != nil {
		out.ID = append(json.RawMessage(nil), it.ID...)
	}
	out.PrecioOriginal = copyDecimal(it.PrecioOriginal)
	out.DescuentoAplicado = copyDecimal(it.DescuentoAplicado)
	out.DescuentoSegundaUnidad = copyDecimal(it.DescuentoSegundaUnidad)
	if it.Extra != nil {
		out.Extra = make(map[string]json.RawMessage, len(it.Extra))
		for k, v := range it.Extra {
			out.Extra[k] = append(json.RawMessage(nil), v...)
		}
	}
	return out
}

// UnmarshalJSON decodes a line leniently: numeric fields accept numbers or
// numeric strings and fall back to zero for anything else.
func (it *CartLineItem) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*it = CartLineItem{}
	for key, value := range raw {
		switch key {
		case fieldID:
			if !isNull(value) {
				it.ID = append(json.RawMessage(nil), value...)
			}
		case fieldNombre:
			it.Nombre = lenientString(value)
		case fieldPrecio:
			it.Precio = decimal.Max(decimal.Zero, lenientDecimal(value))
		case fieldCantidad:
			qty := lenientDecimal(value).IntPart()
			if qty < 0 {
				qty = 0
			}
			it.Cantidad = int(qty)
		case fieldPrecioOriginal:
			it.PrecioOriginal = optionalDecimal(value)
		case fieldDescuentoAplicado:
			it.DescuentoAplicado = optionalDecimal(value)
		case fieldDescuentoSegundaUnidad:
			it.DescuentoSegundaUnidad = optionalDecimal(value)
		case fieldEsRegalo:
			it.EsRegalo = lenientBool(value)
		default:
			if it.Extra == nil {
				it.Extra = make(map[string]json.RawMessage)
			}
			it.Extra[key] = append(json.RawMessage(nil), value...)
		}
	}
	return nil
}

// MarshalJSON implements json.Marshaler. Amounts are written as JSON numbers.
func (it CartLineItem) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(it.Extra)+8)
	for k, v := range it.Extra {
		out[k] = v
	}
	if it.HasID() {
		out[fieldID] = it.ID
	} else {
		out[fieldID] = nil
	}
	out[fieldNombre] = it.Nombre
	out[fieldPrecio] = number(it.Precio)
	out[fieldCantidad] = it.Cantidad
	if it.PrecioOriginal != nil {
		out[fieldPrecioOriginal] = number(*it.PrecioOriginal)
	}
	if it.DescuentoAplicado != nil {
		out[fieldDescuentoAplicado] = number(*it.DescuentoAplicado)
	}
	if it.DescuentoSegundaUnidad != nil {
		out[fieldDescuentoSegundaUnidad] = number(*it.DescuentoSegundaUnidad)
	}
	if it.EsRegalo {
		out[fieldEsRegalo] = true
	}
	return json.Marshal(out)
}

func number(d decimal.Decimal) json.Number {
	return json.Number(d.String())
}

func isNull(value json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(value), []byte("null"))
}

func lenientString(value json.RawMessage) string {
	var s string
	if err := json.Unmarshal(value, &s); err == nil {
		return s
	}
	if isNull(value) {
		return ""
	}
	var n json.Number
	if err := json.Unmarshal(value, &n); err == nil {
		return n.String()
	}
	return ""
}

func lenientDecimal(value json.RawMessage) decimal.Decimal {
	text := string(bytes.TrimSpace(value))
	var s string
	if err := json.Unmarshal(value, &s); err == nil {
		text = s
	}
	d, err := decimal.NewFromString(text)
	if err != nil {
		return decimal.Zero
	}
	return d
}

func optionalDecimal(value json.RawMessage) *decimal.Decimal {
	if isNull(value) {
		return nil
	}
	d := lenientDecimal(value)
	return &d
}

func lenientBool(value json.RawMessage) bool {
	var b bool
	if err := json.Unmarshal(value, &b); err == nil {
		return b
	}
	switch lenientString(value) {
	case "1", "true":
		return true
	}
	return false
}

func copyDecimal(d *decimal.Decimal) *decimal.Decimal {
	if d == nil {
		return nil
	}
	v := *d
	return &v
}

func ptr(d decimal.Decimal) *decimal.Decimal {
	return &d
}
