package promotion

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-promo/internal/promo"
)

const samplePromotions = `
promociones:
  - codigo: verano10
    descripcion: 10% en todo el carrito
    tipo_accion: descuento_global
    valor: 10
    unidad_valor: porcentaje
    condiciones:
      monto_minimo_carrito: 500
    fecha_inicio: 2026-06-01
    fecha_fin: 2026-06-30
    ciudades: [Guadalajara, Monterrey]
  - codigo: REGALO-JUGUETE
    tipo_accion: producto_regalo
    valor: 0
    condiciones:
      producto_trigger_keywords: [croquetas]
      cantidad_trigger: 2
    efecto:
      producto_target_keywords: [juguete]
    activo: false
  - codigo: SEGUNDA50
    tipo_accion: segunda_unidad
    valor: "50"
    unidad_valor: porcentaje
    efecto:
      producto_target_keywords: shampoo
    fecha_fin: 2026-12-31T18:00:00Z
`

func TestParseYAML(t *testing.T) {
	repo, err := ParseYAML([]byte(samplePromotions), mexico)
	require.NoError(t, err)
	require.Equal(t, 3, repo.Len())

	verano, err := repo.FindByCode(context.Background(), " Verano10 ")
	require.NoError(t, err)
	require.Equal(t, "VERANO10", verano.Codigo)
	require.Equal(t, promo.ActionGlobal, verano.Rule.TipoAccion)
	require.Equal(t, promo.UnitPercent, verano.Rule.UnidadValor)
	require.Equal(t, "10", verano.Rule.Valor.String())
	require.Equal(t, "500", verano.Rule.Condiciones.MontoMinimoCarrito.String())
	require.True(t, verano.Activo)
	require.True(t, verano.FechaInicio.Equal(time.Date(2026, 6, 1, 0, 0, 0, 0, mexico)))
	require.True(t, verano.FechaFin.Equal(time.Date(2026, 7, 1, 0, 0, 0, 0, mexico).Add(-time.Nanosecond)))
	require.Equal(t, []string{"Guadalajara", "Monterrey"}, verano.Ciudades)

	regalo, err := repo.FindByCode(context.Background(), "regalo-juguete")
	require.NoError(t, err)
	require.False(t, regalo.Activo)
	require.Equal(t, 2, *regalo.Rule.Condiciones.CantidadTrigger)
	require.Equal(t, promo.Keywords{"juguete"}, regalo.Rule.Efecto.ProductoTargetKeywords)

	segunda, err := repo.FindByCode(context.Background(), "SEGUNDA50")
	require.NoError(t, err)
	require.Empty(t, segunda.Rule.Efecto.ProductoTargetKeywords)
	require.True(t, segunda.FechaFin.Equal(time.Date(2026, 12, 31, 18, 0, 0, 0, time.UTC)))

	_, err = repo.FindByCode(context.Background(), "NOEXISTE")
	require.ErrorIs(t, err, ErrNotFound)

	all := repo.All()
	require.Len(t, all, 3)
	require.Equal(t, "REGALO-JUGUETE", all[0].Codigo)
	require.Equal(t, "VERANO10", all[2].Codigo)
}

func TestParseYAMLTopLevelList(t *testing.T) {
	repo, err := ParseYAML([]byte("- codigo: a\n  tipo_accion: descuento_global\n  valor: 5\n"), time.UTC)
	require.NoError(t, err)
	require.Equal(t, 1, repo.Len())
}

func TestParseYAMLRejectsBadRecords(t *testing.T) {
	_, err := ParseYAML([]byte("- codigo: a\n  valor: 1\n- codigo: A\n  valor: 2\n"), time.UTC)
	require.ErrorIs(t, err, ErrInvalidRecord)

	_, err = ParseYAML([]byte("- tipo_accion: descuento_global\n  valor: 1\n"), time.UTC)
	require.ErrorIs(t, err, ErrInvalidRecord)

	_, err = ParseYAML([]byte("- codigo: a\n  valor: 1\n  fecha_fin: mañana\n"), time.UTC)
	require.ErrorIs(t, err, ErrInvalidRecord)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "promociones.yaml")
	require.NoError(t, os.WriteFile(path, []byte(samplePromotions), 0o600))
	repo, err := LoadFile(path, mexico)
	require.NoError(t, err)
	require.Equal(t, 3, repo.Len())

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.yaml"), mexico)
	require.Error(t, err)
}
