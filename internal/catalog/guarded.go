package catalog

import (
	"context"
	"errors"

	"github.com/noah-isme/backend-promo/internal/resilience"
)

// GuardedLookup routes lookups through a circuit breaker so a failing
// database stops being queried for a while. ErrNotFound is not a failure.
type GuardedLookup struct {
	Next    Lookup
	Breaker *resilience.Breaker
}

// NewGuardedLookup wraps next with breaker and marks ErrNotFound as healthy.
func NewGuardedLookup(next Lookup, breaker *resilience.Breaker) GuardedLookup {
	breaker.IsFailure = func(err error) bool { return !errors.Is(err, ErrNotFound) }
	return GuardedLookup{Next: next, Breaker: breaker}
}

// FindByKeywords implements Lookup.
func (g GuardedLookup) FindByKeywords(ctx context.Context, keywords []string) (Product, error) {
	if g.Breaker == nil {
		return g.Next.FindByKeywords(ctx, keywords)
	}
	var product Product
	err := g.Breaker.Do(ctx, func(ctx context.Context) error {
		var err error
		product, err = g.Next.FindByKeywords(ctx, keywords)
		return err
	})
	return product, err
}
