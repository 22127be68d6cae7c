package catalog

import (
	"context"
	"errors"

	"github.com/rs/zerolog"
)

// CachedLookup memoises FindByKeywords results, including misses, in Redis.
// Cache failures are logged and fall through to Next.
type CachedLookup struct {
	Next    Lookup
	Cache   *Cache
	Logger  zerolog.Logger
	Observe func(result string)
}

type cachedProduct struct {
	Found   bool     `json:"found"`
	Product *Product `json:"product,omitempty"`
}

// FindByKeywords implements Lookup.
func (c CachedLookup) FindByKeywords(ctx context.Context, keywords []string) (Product, error) {
	key := keywordsKey(keywords)
	if key == "" {
		c.observe("miss")
		return Product{}, ErrNotFound
	}

	var cached cachedProduct
	hit, err := c.Cache.GetJSON(ctx, key, &cached)
	if err != nil {
		c.Logger.Warn().Err(err).Str("key", key).Msg("catalog cache read failed")
	}
	if hit {
		c.observe("cache_hit")
		if !cached.Found || cached.Product == nil {
			return Product{}, ErrNotFound
		}
		return *cached.Product, nil
	}

	product, err := c.Next.FindByKeywords(ctx, keywords)
	switch {
	case errors.Is(err, ErrNotFound):
		c.observe("miss")
		c.store(ctx, key, cachedProduct{Found: false})
		return Product{}, err
	case err != nil:
		c.observe("error")
		return Product{}, err
	}
	c.observe("found")
	c.store(ctx, key, cachedProduct{Found: true, Product: &product})
	return product, nil
}

func (c CachedLookup) store(ctx context.Context, key string, v cachedProduct) {
	if err := c.Cache.SetJSON(ctx, key, v); err != nil {
		c.Logger.Warn().Err(err).Str("key", key).Msg("catalog cache write failed")
	}
}

func (c CachedLookup) observe(result string) {
	if c.Observe != nil {
		c.Observe(result)
	}
}
