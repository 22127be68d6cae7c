package cart

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-promo/internal/promo"
)

func newRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return client, mr
}

func TestRedisStoreMissingCartIsEmpty(t *testing.T) {
	client, _ := newRedis(t)
	items, err := RedisStore{Client: client}.Load(context.Background(), "c-1")
	require.NoError(t, err)
	require.NotNil(t, items)
	require.Empty(t, items)
}

func TestRedisStoreRoundTrip(t *testing.T) {
	client, mr := newRedis(t)
	store := RedisStore{Client: client, Prefix: "carrito:", TTL: time.Hour}

	original := decimal.RequireFromString("100")
	items := []promo.CartLineItem{
		{ID: []byte(`"p-1"`), Nombre: "Croquetas", Precio: decimal.RequireFromString("90"), Cantidad: 2, PrecioOriginal: &original},
	}
	require.NoError(t, store.Save(context.Background(), "c-1", items))
	require.Equal(t, time.Hour, mr.TTL("carrito:c-1"))

	raw, err := mr.Get("carrito:c-1")
	require.NoError(t, err)
	require.JSONEq(t, `[{"id":"p-1","nombre":"Croquetas","precio":90,"cantidad":2,"precio_original":100}]`, raw)

	loaded, err := store.Load(context.Background(), "c-1")
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	require.Equal(t, "Croquetas", loaded[0].Nombre)
	require.True(t, loaded[0].Precio.Equal(decimal.NewFromInt(90)))
	require.True(t, loaded[0].PrecioOriginal.Equal(original))
}

func TestRedisStoreKeepsForeignFields(t *testing.T) {
	client, mr := newRedis(t)
	require.NoError(t, mr.Set("carrito:c-2", `[{"id":9,"nombre":"Arena","precio":"50","cantidad":1,"sku":"AR-1"}]`))
	store := RedisStore{Client: client}

	items, err := store.Load(context.Background(), "c-2")
	require.NoError(t, err)
	require.NoError(t, store.Save(context.Background(), "c-2", items))

	raw, err := mr.Get("carrito:c-2")
	require.NoError(t, err)
	require.JSONEq(t, `[{"id":9,"nombre":"Arena","precio":50,"cantidad":1,"sku":"AR-1"}]`, raw)
}

func TestRedisStoreCorruptCart(t *testing.T) {
	client, mr := newRedis(t)
	require.NoError(t, mr.Set("carrito:c-3", `{"productos":[]}`))
	_, err := RedisStore{Client: client}.Load(context.Background(), "c-3")
	require.ErrorIs(t, err, ErrCorruptCart)
}
