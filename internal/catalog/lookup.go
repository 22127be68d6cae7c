package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// ErrNotFound indicates no active product matches the keywords.
var ErrNotFound = errors.New("product not found")

// Product is the catalog view needed to resolve a gift line.
type Product struct {
	ID     string          `json:"id"`
	Nombre string          `json:"nombre"`
	Precio decimal.Decimal `json:"precio"`
}

// Lookup resolves a product from promotion keywords.
type Lookup interface {
	FindByKeywords(ctx context.Context, keywords []string) (Product, error)
}

type queryRower interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PGLookup searches the productos table.
type PGLookup struct {
	DB queryRower
}

// An exact (case-insensitive) name match wins over a substring match; among
// substring matches the shortest name wins.
const findProductSQL = `
SELECT id::text, nombre, precio::text
FROM productos
WHERE activo AND lower(nombre) LIKE '%' || $1 || '%' ESCAPE '\'
ORDER BY (lower(nombre) = $2) DESC, length(nombre), nombre
LIMIT 1`

// FindByKeywords tries each keyword in order and returns the first hit.
func (l PGLookup) FindByKeywords(ctx context.Context, keywords []string) (Product, error) {
	if l.DB == nil {
		return Product{}, errors.New("catalog database not configured")
	}
	for _, kw := range normalizeKeywords(keywords) {
		var (
			id, nombre, precio string
		)
		err := l.DB.QueryRow(ctx, findProductSQL, escapeLike(kw), kw).Scan(&id, &nombre, &precio)
		if errors.Is(err, pgx.ErrNoRows) {
			continue
		}
		if err != nil {
			return Product{}, fmt.Errorf("find product %q: %w", kw, err)
		}
		price, err := decimal.NewFromString(precio)
		if err != nil {
			price = decimal.Zero
		}
		if parsed, err := uuid.Parse(id); err == nil {
			id = parsed.String()
		}
		return Product{ID: id, Nombre: nombre, Precio: price}, nil
	}
	return Product{}, ErrNotFound
}

func normalizeKeywords(keywords []string) []string {
	out := make([]string, 0, len(keywords))
	for _, kw := range keywords {
		if kw = strings.ToLower(strings.TrimSpace(kw)); kw != "" {
			out = append(out, kw)
		}
	}
	return out
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
