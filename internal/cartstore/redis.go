// Package cartstore provides cart.Store implementations: redis for
// production terminals and an in-memory map for development and tests.
package cartstore

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-redis/redis/v8"

	"github.com/farmapos/pos-api/internal/domain/cart"
)

var _ cart.Store = (*Redis)(nil)

const cartKeyPrefix = "pos:cart:"

// Redis stores active carts as JSON values with a TTL. An abandoned cart
// simply ages out; held transactions are persisted elsewhere and are not
// subject to this TTL.
type Redis struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedis creates a redis-backed cart store. A zero ttl means carts never
// expire.
func NewRedis(client *redis.Client, ttl time.Duration) *Redis {
	return &Redis{client: client, ttl: ttl}
}

// Get loads the cart for id. Returns cart.ErrCartNotFound when the key is
// absent or has expired.
func (r *Redis) Get(ctx context.Context, id string) (*cart.Cart, error) {
	data, err := r.client.Get(ctx, cartKeyPrefix+id).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, cart.ErrCartNotFound
		}
		return nil, errors.Wrapf(err, "get cart %q", id)
	}

	var c cart.Cart
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, errors.Wrapf(err, "decode cart %q", id)
	}
	return &c, nil
}

// Save writes the cart, refreshing its TTL.
func (r *Redis) Save(ctx context.Context, c *cart.Cart) error {
	data, err := json.Marshal(c)
	if err != nil {
		return errors.Wrapf(err, "encode cart %q", c.ID)
	}
	if err := r.client.Set(ctx, cartKeyPrefix+c.ID, data, r.ttl).Err(); err != nil {
		return errors.Wrapf(err, "set cart %q", c.ID)
	}
	return nil
}

// Delete removes the cart for id. Deleting an absent cart is not an error.
func (r *Redis) Delete(ctx context.Context, id string) error {
	if err := r.client.Del(ctx, cartKeyPrefix+id).Err(); err != nil {
		return errors.Wrapf(err, "delete cart %q", id)
	}
	return nil
}
