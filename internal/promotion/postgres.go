package promotion

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/backend-promo/internal/promo"
)

type queryRower interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PGRepository reads promotions from the promociones table. condiciones and
// efecto are jsonb columns holding the same shapes as the rule payloads.
type PGRepository struct {
	DB queryRower
}

const findPromotionSQL = `
SELECT codigo, coalesce(descripcion, ''), tipo_accion, valor::text, coalesce(unidad_valor, ''),
       condiciones, efecto, fecha_inicio, fecha_fin, ciudades, activo
FROM promociones
WHERE upper(codigo) = $1
LIMIT 1`

// FindByCode implements Repository.
func (r PGRepository) FindByCode(ctx context.Context, code string) (Promotion, error) {
	if r.DB == nil {
		return Promotion{}, errors.New("promotion database not configured")
	}
	var (
		p                  Promotion
		tipo, valor, unit  string
		condiciones, efect []byte
		start, end         *time.Time
	)
	err := r.DB.QueryRow(ctx, findPromotionSQL, NormalizeCode(code)).Scan(
		&p.Codigo, &p.Descripcion, &tipo, &valor, &unit,
		&condiciones, &efect, &start, &end, &p.Ciudades, &p.Activo,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Promotion{}, ErrNotFound
		}
		return Promotion{}, fmt.Errorf("find promotion: %w", err)
	}

	amount, err := decimal.NewFromString(valor)
	if err != nil {
		return Promotion{}, fmt.Errorf("%w: %s valor %q", ErrInvalidRecord, p.Codigo, valor)
	}
	p.Rule = promo.DiscountRule{
		TipoAccion:  promo.ActionType(tipo),
		Valor:       amount,
		UnidadValor: promo.ValueUnit(unit),
	}
	if err := decodeJSONB(condiciones, &p.Rule.Condiciones); err != nil {
		return Promotion{}, fmt.Errorf("%w: %s condiciones: %v", ErrInvalidRecord, p.Codigo, err)
	}
	if err := decodeJSONB(efect, &p.Rule.Efecto); err != nil {
		return Promotion{}, fmt.Errorf("%w: %s efecto: %v", ErrInvalidRecord, p.Codigo, err)
	}
	p.Codigo = NormalizeCode(p.Codigo)
	p.FechaInicio = start
	p.FechaFin = end
	return p, nil
}

func decodeJSONB(raw []byte, dst any) error {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil
	}
	return json.Unmarshal(trimmed, dst)
}

type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// PGWriter upserts promotions into the promociones table.
type PGWriter struct {
	DB execer
}

const upsertPromotionSQL = `
INSERT INTO promociones (codigo, descripcion, tipo_accion, valor, unidad_valor,
                         condiciones, efecto, fecha_inicio, fecha_fin, ciudades, activo)
VALUES ($1, $2, $3, $4::numeric, $5, $6::jsonb, $7::jsonb, $8, $9, $10, $11)
ON CONFLICT (codigo) DO UPDATE SET
    descripcion = EXCLUDED.descripcion,
    tipo_accion = EXCLUDED.tipo_accion,
    valor = EXCLUDED.valor,
    unidad_valor = EXCLUDED.unidad_valor,
    condiciones = EXCLUDED.condiciones,
    efecto = EXCLUDED.efecto,
    fecha_inicio = EXCLUDED.fecha_inicio,
    fecha_fin = EXCLUDED.fecha_fin,
    ciudades = EXCLUDED.ciudades,
    activo = EXCLUDED.activo`

// Save inserts p or replaces the row with the same code.
func (w PGWriter) Save(ctx context.Context, p Promotion) error {
	if w.DB == nil {
		return errors.New("promotion database not configured")
	}
	code := NormalizeCode(p.Codigo)
	if code == "" {
		return fmt.Errorf("%w: empty codigo", ErrInvalidRecord)
	}
	condiciones, err := json.Marshal(p.Rule.Condiciones)
	if err != nil {
		return fmt.Errorf("encode condiciones: %w", err)
	}
	efecto, err := json.Marshal(p.Rule.Efecto)
	if err != nil {
		return fmt.Errorf("encode efecto: %w", err)
	}
	ciudades := p.Ciudades
	if ciudades == nil {
		ciudades = []string{}
	}
	_, err = w.DB.Exec(ctx, upsertPromotionSQL,
		code, p.Descripcion, string(p.Rule.TipoAccion), p.Rule.Valor.String(), string(p.Rule.UnidadValor),
		string(condiciones), string(efecto), p.FechaInicio, p.FechaFin, ciudades, p.Activo,
	)
	if err != nil {
		return fmt.Errorf("upsert promotion %s: %w", code, err)
	}
	return nil
}
