package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/noah-isme/backend-promo/internal/promo"
)

// ErrCorruptCart is returned when a stored cart is not a JSON array of line items.
var ErrCorruptCart = errors.New("stored cart is unreadable")

// Store persists carts keyed by customer. Read-modify-write atomicity per
// customer is assumed to be provided by the caller.
type Store interface {
	Load(ctx context.Context, customerID string) ([]promo.CartLineItem, error)
	Save(ctx context.Context, customerID string, items []promo.CartLineItem) error
}

// RedisStore keeps each cart as a JSON array under Prefix+customerID.
type RedisStore struct {
	Client redis.UniversalClient
	Prefix string
	TTL    time.Duration
}

func (s RedisStore) key(customerID string) string {
	prefix := s.Prefix
	if prefix == "" {
		prefix = "carrito:"
	}
	return prefix + strings.TrimSpace(customerID)
}

// Load returns the stored cart, or an empty cart when none exists.
func (s RedisStore) Load(ctx context.Context, customerID string) ([]promo.CartLineItem, error) {
	if s.Client == nil {
		return nil, errors.New("cart store not configured")
	}
	data, err := s.Client.Get(ctx, s.key(customerID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return []promo.CartLineItem{}, nil
		}
		return nil, fmt.Errorf("load cart: %w", err)
	}
	var items []promo.CartLineItem
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptCart, err)
	}
	if items == nil {
		items = []promo.CartLineItem{}
	}
	return items, nil
}

// Save overwrites the stored cart and refreshes its TTL.
func (s RedisStore) Save(ctx context.Context, customerID string, items []promo.CartLineItem) error {
	if s.Client == nil {
		return errors.New("cart store not configured")
	}
	if items == nil {
		items = []promo.CartLineItem{}
	}
	data, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("encode cart: %w", err)
	}
	ttl := s.TTL
	if ttl <= 0 {
		ttl = 7 * 24 * time.Hour
	}
	if err := s.Client.Set(ctx, s.key(customerID), data, ttl).Err(); err != nil {
		return fmt.Errorf("save cart: %w", err)
	}
	return nil
}
