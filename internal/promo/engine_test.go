package promo

import (
	"encoding/json"
	"math/rand"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func dec(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

func intPtr(v int) *int { return &v }

func requireAmount(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	require.Truef(t, dec(want).Equal(got), "expected %s, got %s", want, got.String())
}

func line(nombre, precio string, cantidad int) CartLineItem {
	return CartLineItem{
		ID:       json.RawMessage(`"` + nombre + `-id"`),
		Nombre:   nombre,
		Precio:   dec(precio),
		Cantidad: cantidad,
	}
}

func TestApplyGlobalPercentScenario(t *testing.T) {
	cart := []CartLineItem{line("Croquetas", "100", 3)}
	rule := DiscountRule{TipoAccion: ActionGlobal, Valor: dec("10"), UnidadValor: UnitPercent}

	res := Apply(cart, rule)

	require.True(t, res.Aplicado)
	require.Equal(t, OutcomeApplied, res.Motivo)
	requireAmount(t, "30", *res.DescuentoTotal)
	require.Len(t, res.Productos, 1)
	requireAmount(t, "90", res.Productos[0].Precio)
	requireAmount(t, "100", *res.Productos[0].PrecioOriginal)
	requireAmount(t, "30", *res.Productos[0].DescuentoAplicado)
	requireAmount(t, "300", *res.TotalOriginal)
	requireAmount(t, "270", *res.TotalFinal)
}

func TestApplyGlobalMinimumAmountNotMet(t *testing.T) {
	cart := []CartLineItem{line("Arena Gato", "50", 1)}
	minimo := dec("100")
	rule := DiscountRule{
		TipoAccion:  ActionGlobal,
		Valor:       dec("10"),
		UnidadValor: UnitPercent,
		Condiciones: Conditions{MontoMinimoCarrito: &minimo},
	}

	res := Apply(cart, rule)

	require.False(t, res.Aplicado)
	require.Equal(t, OutcomeConditionNotMet, res.Motivo)
	require.False(t, res.IsConfigError())
	require.Contains(t, res.Mensaje, "$100.00")
	require.Contains(t, res.Mensaje, "$50.00")
	require.Equal(t, cart, res.Productos)
	require.Nil(t, res.DescuentoTotal)
}

func TestApplyGlobalAmountCappedAtCartTotal(t *testing.T) {
	cart := []CartLineItem{line("Correa", "20", 1), line("Collar", "10", 2)}
	rule := DiscountRule{TipoAccion: ActionGlobal, Valor: dec("500"), UnidadValor: UnitAmount}

	res := Apply(cart, rule)

	require.True(t, res.Aplicado)
	requireAmount(t, "40", *res.DescuentoTotal)
	for _, it := range res.Productos {
		requireAmount(t, "0", it.Precio)
	}
}

func TestApplyGlobalPatchesLargestShare(t *testing.T) {
	cart := []CartLineItem{line("A", "10", 1), line("B", "10", 1), line("C", "10", 1)}
	rule := DiscountRule{TipoAccion: ActionGlobal, Valor: dec("10"), UnidadValor: UnitAmount}

	res := Apply(cart, rule)

	require.True(t, res.Aplicado)
	requireAmount(t, "10", *res.DescuentoTotal)
	requireAmount(t, "3.34", *res.Productos[0].DescuentoAplicado)
	requireAmount(t, "3.33", *res.Productos[1].DescuentoAplicado)
	requireAmount(t, "3.33", *res.Productos[2].DescuentoAplicado)
	requireAmount(t, "6.66", res.Productos[0].Precio)
	requireAmount(t, "20", *res.TotalFinal)
}

func TestApplyGlobalZeroQuantityLine(t *testing.T) {
	cart := []CartLineItem{line("Hueso", "15", 0), line("Cama", "200", 1)}
	rule := DiscountRule{TipoAccion: ActionGlobal, Valor: dec("25"), UnidadValor: UnitPercent}

	res := Apply(cart, rule)

	require.True(t, res.Aplicado)
	requireAmount(t, "0", *res.Productos[0].DescuentoAplicado)
	requireAmount(t, "15", res.Productos[0].Precio)
	requireAmount(t, "50", *res.Productos[1].DescuentoAplicado)
	requireAmount(t, "150", res.Productos[1].Precio)
}

func TestApplyGlobalExactness(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 500; i++ {
		n := 1 + rng.Intn(6)
		cart := make([]CartLineItem, n)
		for j := range cart {
			cents := decimal.NewFromInt(int64(1 + rng.Intn(50000))).Shift(-2)
			cart[j] = CartLineItem{Nombre: "item", Precio: cents, Cantidad: 1 + rng.Intn(5)}
		}
		rule := DiscountRule{TipoAccion: ActionGlobal, UnidadValor: UnitPercent, Valor: decimal.NewFromInt(int64(1 + rng.Intn(99)))}
		if i%2 == 1 {
			rule.UnidadValor = UnitAmount
			rule.Valor = decimal.NewFromInt(int64(rng.Intn(20000))).Shift(-2)
		}

		res := Apply(cart, rule)
		require.True(t, res.Aplicado)

		sum := decimal.Zero
		for _, it := range res.Productos {
			require.False(t, it.Precio.IsNegative())
			sum = sum.Add(*it.DescuentoAplicado)
		}
		require.Truef(t, sum.Equal(*res.DescuentoTotal), "case %d: lines %s total %s", i, sum, res.DescuentoTotal)
		require.Truef(t, res.TotalOriginal.Sub(*res.DescuentoTotal).Equal(*res.TotalFinal), "case %d", i)
	}
}

func TestApplyProductPercent(t *testing.T) {
	cart := []CartLineItem{line("Alimento Premium Perro", "250", 2), line("Juguete", "80", 1)}
	rule := DiscountRule{
		TipoAccion:  ActionProduct,
		Valor:       dec("20"),
		UnidadValor: UnitPercent,
		Efecto:      Effect{ProductoTargetKeywords: Keywords{"premium"}},
	}

	res := Apply(cart, rule)

	require.True(t, res.Aplicado)
	requireAmount(t, "200", res.Productos[0].Precio)
	requireAmount(t, "100", *res.Productos[0].DescuentoAplicado)
	requireAmount(t, "80", res.Productos[1].Precio)
	requireAmount(t, "80", *res.Productos[1].PrecioOriginal)
	require.Nil(t, res.Productos[1].DescuentoAplicado)
	requireAmount(t, "100", *res.DescuentoTotal)
}

func TestApplyProductAmountNeverNegative(t *testing.T) {
	cart := []CartLineItem{line("Snack Gato", "30", 3)}
	rule := DiscountRule{
		TipoAccion:  ActionProduct,
		Valor:       dec("45"),
		UnidadValor: UnitAmount,
		Efecto:      Effect{ProductoTargetKeywords: Keywords{"snack"}},
	}

	res := Apply(cart, rule)

	require.True(t, res.Aplicado)
	requireAmount(t, "0", res.Productos[0].Precio)
	requireAmount(t, "90", *res.DescuentoTotal)
}

func TestApplyProductTriggerQuantity(t *testing.T) {
	cart := []CartLineItem{line("Arena Gato", "120", 1), line("Pelota", "40", 1)}
	rule := DiscountRule{
		TipoAccion:  ActionProduct,
		Valor:       dec("50"),
		UnidadValor: UnitPercent,
		Condiciones: Conditions{ProductoTriggerKeywords: Keywords{"arena"}, CantidadTrigger: intPtr(2)},
		Efecto:      Effect{ProductoTargetKeywords: Keywords{"pelota"}},
	}

	res := Apply(cart, rule)
	require.False(t, res.Aplicado)
	require.Equal(t, OutcomeConditionNotMet, res.Motivo)
	require.Contains(t, res.Mensaje, "tienes 1")

	cart[0].Cantidad = 2
	res = Apply(cart, rule)
	require.True(t, res.Aplicado)
	requireAmount(t, "20", res.Productos[1].Precio)
}

func TestApplyProductWithoutTargets(t *testing.T) {
	cart := []CartLineItem{line("Pelota", "40", 1)}
	rule := DiscountRule{TipoAccion: ActionProduct, Valor: dec("10"), UnidadValor: UnitPercent}

	res := Apply(cart, rule)

	require.False(t, res.Aplicado)
	require.Equal(t, OutcomeMisconfigured, res.Motivo)
	require.True(t, res.IsConfigError())
	require.Equal(t, cart, res.Productos)
}

func TestApplyProductNoMatchingLine(t *testing.T) {
	cart := []CartLineItem{line("Pelota", "40", 1)}
	rule := DiscountRule{
		TipoAccion:  ActionProduct,
		Valor:       dec("10"),
		UnidadValor: UnitPercent,
		Efecto:      Effect{ProductoTargetKeywords: Keywords{"premium"}},
	}

	res := Apply(cart, rule)

	require.False(t, res.Aplicado)
	require.Equal(t, OutcomeConditionNotMet, res.Motivo)
}

func TestApplySecondUnitScenario(t *testing.T) {
	cart := []CartLineItem{line("Shampoo Perro", "40", 2)}
	rule := DiscountRule{
		TipoAccion:  ActionSecondUnit,
		Valor:       dec("50"),
		UnidadValor: UnitPercent,
		Condiciones: Conditions{ProductoTriggerKeywords: Keywords{"shampoo"}},
	}

	res := Apply(cart, rule)

	require.True(t, res.Aplicado)
	got := res.Productos[0]
	requireAmount(t, "20", *got.DescuentoSegundaUnidad)
	requireAmount(t, "30", got.Precio)
	requireAmount(t, "60", got.Precio.Mul(decimal.NewFromInt(int64(got.Cantidad))))
	requireAmount(t, "20", *res.DescuentoTotal)
	require.Nil(t, got.DescuentoAplicado)
}

func TestApplySecondUnitSingleUnitLineUntouched(t *testing.T) {
	cart := []CartLineItem{line("Shampoo Gato", "35", 1), line("Shampoo Perro", "40", 3)}
	rule := DiscountRule{
		TipoAccion:  ActionSecondUnit,
		Valor:       dec("15"),
		UnidadValor: UnitAmount,
		Condiciones: Conditions{ProductoTriggerKeywords: Keywords{"shampoo"}, CantidadTrigger: intPtr(2)},
	}

	res := Apply(cart, rule)

	require.True(t, res.Aplicado)
	requireAmount(t, "35", res.Productos[0].Precio)
	require.Nil(t, res.Productos[0].DescuentoSegundaUnidad)
	requireAmount(t, "35", *res.Productos[0].PrecioOriginal)
	requireAmount(t, "35", res.Productos[1].Precio)
	requireAmount(t, "15", *res.DescuentoTotal)
}

func TestApplySecondUnitNoQualifyingLine(t *testing.T) {
	cart := []CartLineItem{line("Shampoo Perro", "40", 1)}
	rule := DiscountRule{
		TipoAccion:  ActionSecondUnit,
		Valor:       dec("50"),
		UnidadValor: UnitPercent,
		Condiciones: Conditions{ProductoTriggerKeywords: Keywords{"shampoo"}},
	}

	res := Apply(cart, rule)

	require.False(t, res.Aplicado)
	require.Equal(t, OutcomeConditionNotMet, res.Motivo)
}

func TestApplySecondUnitRequiresKeywords(t *testing.T) {
	res := Apply([]CartLineItem{line("Shampoo", "40", 2)}, DiscountRule{TipoAccion: ActionSecondUnit, Valor: dec("50"), UnidadValor: UnitPercent})
	require.True(t, res.IsConfigError())
}

func TestApplyGiftAddsPlaceholderScenario(t *testing.T) {
	cart := []CartLineItem{line("Croquetas Perro Adulto", "100", 2)}
	rule := DiscountRule{
		TipoAccion:  ActionGift,
		Condiciones: Conditions{ProductoTriggerKeywords: Keywords{"croquetas"}, CantidadTrigger: intPtr(2)},
		Efecto:      Effect{ProductoTargetKeywords: Keywords{"juguete gratis"}},
	}

	res := Apply(cart, rule)

	require.True(t, res.Aplicado)
	require.True(t, res.ProductoAgregado)
	require.Len(t, res.Productos, 2)
	gift := res.Productos[1]
	require.False(t, gift.HasID())
	require.Equal(t, "juguete gratis", gift.Nombre)
	requireAmount(t, "0", gift.Precio)
	require.Equal(t, 1, gift.Cantidad)
	require.True(t, gift.EsRegalo)
	requireAmount(t, "100", *res.Productos[0].PrecioOriginal)

	raw, err := json.Marshal(gift)
	require.NoError(t, err)
	require.JSONEq(t, `{"id":null,"nombre":"juguete gratis","precio":0,"cantidad":1,"precio_original":0,"es_regalo":true}`, string(raw))
}

func TestApplyGiftZeroesExistingLine(t *testing.T) {
	cart := []CartLineItem{line("Croquetas", "100", 2), line("Juguete Gratis Hueso", "25", 1)}
	cart[1].Extra = map[string]json.RawMessage{"sku": json.RawMessage(`"JG-1"`)}
	rule := DiscountRule{
		TipoAccion:  ActionGift,
		Condiciones: Conditions{ProductoTriggerKeywords: Keywords{"croquetas"}},
		Efecto:      Effect{ProductoTargetKeywords: Keywords{"juguete"}},
	}

	res := Apply(cart, rule)

	require.True(t, res.Aplicado)
	require.False(t, res.ProductoAgregado)
	require.Len(t, res.Productos, 2)
	gift := res.Productos[1]
	require.Equal(t, cart[1].ID, gift.ID)
	require.Equal(t, cart[1].Extra, gift.Extra)
	requireAmount(t, "0", gift.Precio)
	requireAmount(t, "25", *gift.PrecioOriginal)
	require.True(t, gift.EsRegalo)
	requireAmount(t, "25", *res.DescuentoTotal)
}

func TestApplyGiftTriggerNotMet(t *testing.T) {
	cart := []CartLineItem{line("Arena", "60", 1)}
	rule := DiscountRule{
		TipoAccion:  ActionGift,
		Condiciones: Conditions{ProductoTriggerKeywords: Keywords{"croquetas"}},
		Efecto:      Effect{ProductoTargetKeywords: Keywords{"juguete"}},
	}

	res := Apply(cart, rule)

	require.False(t, res.Aplicado)
	require.Equal(t, OutcomeConditionNotMet, res.Motivo)
	require.Equal(t, cart, res.Productos)
}

func TestApplyGiftRequiresBothKeywordLists(t *testing.T) {
	rule := DiscountRule{TipoAccion: ActionGift, Efecto: Effect{ProductoTargetKeywords: Keywords{"juguete"}}}
	res := Apply([]CartLineItem{line("Croquetas", "100", 1)}, rule)
	require.Equal(t, OutcomeMisconfigured, res.Motivo)
}

func TestApplyUnsupportedAction(t *testing.T) {
	cart := []CartLineItem{line("Croquetas", "100", 1)}
	res := Apply(cart, DiscountRule{TipoAccion: "envio_gratis", UnidadValor: "puntos"})

	require.False(t, res.Aplicado)
	require.Equal(t, OutcomeUnsupportedAction, res.Motivo)
	require.Equal(t, "Tipo de acción no soportado: envio_gratis", res.Mensaje)
	require.Equal(t, cart, res.Productos)
}

func TestApplyRejectsUnknownUnitAndNegativeValue(t *testing.T) {
	cart := []CartLineItem{line("Croquetas", "100", 1)}
	res := Apply(cart, DiscountRule{TipoAccion: ActionGlobal, Valor: dec("10"), UnidadValor: "puntos"})
	require.Equal(t, OutcomeMisconfigured, res.Motivo)

	res = Apply(cart, DiscountRule{TipoAccion: ActionGlobal, Valor: dec("-10"), UnidadValor: UnitAmount})
	require.Equal(t, OutcomeMisconfigured, res.Motivo)
}

func TestApplyDoesNotAliasInput(t *testing.T) {
	cart := []CartLineItem{line("Croquetas", "100", 2)}
	cart[0].Extra = map[string]json.RawMessage{"imagen": json.RawMessage(`"a.png"`)}
	snapshot := cart[0].Clone()

	res := Apply(cart, DiscountRule{TipoAccion: ActionGlobal, Valor: dec("10"), UnidadValor: UnitPercent})
	require.True(t, res.Aplicado)
	res.Productos[0].Extra["imagen"] = json.RawMessage(`"b.png"`)
	res.Productos[0].ID[1] = 'X'

	require.Equal(t, snapshot, cart[0])

	failed := Apply(cart, DiscountRule{TipoAccion: "desconocido"})
	failed.Productos[0].Extra["imagen"] = json.RawMessage(`"c.png"`)
	require.Equal(t, snapshot, cart[0])
}

func TestApplyNonNegativeAcrossStrategies(t *testing.T) {
	cart := []CartLineItem{line("Shampoo Premium", "12.5", 3), line("Hueso", "0.99", 1)}
	rules := []DiscountRule{
		{TipoAccion: ActionGlobal, Valor: dec("100"), UnidadValor: UnitPercent},
		{TipoAccion: ActionProduct, Valor: dec("150"), UnidadValor: UnitPercent, Efecto: Effect{ProductoTargetKeywords: Keywords{"premium"}}},
		{TipoAccion: ActionSecondUnit, Valor: dec("999"), UnidadValor: UnitAmount, Condiciones: Conditions{ProductoTriggerKeywords: Keywords{"shampoo"}}},
		{TipoAccion: ActionGift, Condiciones: Conditions{ProductoTriggerKeywords: Keywords{"shampoo"}}, Efecto: Effect{ProductoTargetKeywords: Keywords{"hueso"}}},
	}
	for _, rule := range rules {
		res := Apply(cart, rule)
		require.Truef(t, res.Aplicado, "rule %s", rule.TipoAccion)
		for _, it := range res.Productos {
			require.Falsef(t, it.Precio.IsNegative(), "rule %s produced %s", rule.TipoAccion, it.Precio)
		}
	}
}

func TestResultMarshalJSON(t *testing.T) {
	res := Apply([]CartLineItem{line("Croquetas", "100", 3)}, DiscountRule{TipoAccion: ActionGlobal, Valor: dec("10"), UnidadValor: UnitPercent})

	raw, err := json.Marshal(res)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(raw, &decoded))
	require.Equal(t, true, decoded["aplicado"])
	require.Equal(t, 30.0, decoded["descuento_total"])
	require.NotContains(t, decoded, "mensaje")

	empty, err := json.Marshal(Result{Mensaje: "x"})
	require.NoError(t, err)
	require.Contains(t, string(empty), `"productos":[]`)
}
