package catalog

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/require"
)

type stubRow struct {
	values []string
	err    error
}

func (r stubRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	for i, d := range dest {
		*(d.(*string)) = r.values[i]
	}
	return nil
}

type stubDB struct {
	rows  map[string]stubRow
	calls [][]any
}

func (s *stubDB) QueryRow(_ context.Context, _ string, args ...any) pgx.Row {
	s.calls = append(s.calls, args)
	if row, ok := s.rows[args[1].(string)]; ok {
		return row
	}
	return stubRow{err: pgx.ErrNoRows}
}

func TestPGLookupTriesKeywordsInOrder(t *testing.T) {
	db := &stubDB{rows: map[string]stubRow{
		"juguete": {values: []string{"6F9619FF-8B86-D011-B42D-00C04FC964FF", "Juguete Mordedera", "89.90"}},
	}}
	product, err := PGLookup{DB: db}.FindByKeywords(context.Background(), []string{" Pelota_Roja ", "", "JUGUETE"})
	require.NoError(t, err)
	require.Equal(t, "6f9619ff-8b86-d011-b42d-00c04fc964ff", product.ID)
	require.Equal(t, "Juguete Mordedera", product.Nombre)
	require.Equal(t, "89.9", product.Precio.String())

	require.Len(t, db.calls, 2)
	require.Equal(t, []any{`pelota\_roja`, "pelota_roja"}, db.calls[0])
	require.Equal(t, []any{"juguete", "juguete"}, db.calls[1])
}

func TestPGLookupNotFound(t *testing.T) {
	_, err := PGLookup{DB: &stubDB{}}.FindByKeywords(context.Background(), []string{"nada"})
	require.ErrorIs(t, err, ErrNotFound)
}

func TestPGLookupDatabaseError(t *testing.T) {
	db := &stubDB{rows: map[string]stubRow{"x": {err: errors.New("conn reset")}}}
	_, err := PGLookup{DB: db}.FindByKeywords(context.Background(), []string{"x"})
	require.Error(t, err)
	require.NotErrorIs(t, err, ErrNotFound)
}
