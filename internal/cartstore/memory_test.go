package cartstore

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/farmapos/pos-api/internal/domain/cart"
)

func TestMemory_RoundTrip(t *testing.T) {
	store := NewMemory()
	ctx := context.Background()

	c := &cart.Cart{
		ID: "c1",
		Items: []cart.LineItem{{
			ProductID: "p1",
			Price:     decimal.RequireFromString("9.75"),
			Quantity:  3,
		}},
	}
	require.NoError(t, store.Save(ctx, c))

	got, err := store.Get(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, c.Items, got.Items)

	// Mutating the returned copy must not leak into the store.
	got.Items[0].Quantity = 99
	again, err := store.Get(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, 3, again.Items[0].Quantity)
}

func TestMemory_GetMissing(t *testing.T) {
	store := NewMemory()
	_, err := store.Get(context.Background(), "ghost")
	require.ErrorIs(t, err, cart.ErrCartNotFound)
}

func TestMemory_Delete(t *testing.T) {
	store := NewMemory()
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, &cart.Cart{ID: "c1"}))
	require.NoError(t, store.Delete(ctx, "c1"))

	_, err := store.Get(ctx, "c1")
	require.ErrorIs(t, err, cart.ErrCartNotFound)

	// Deleting twice is fine.
	require.NoError(t, store.Delete(ctx, "c1"))
}
