package hold

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/farmapos/pos-api/internal/domain/cart"
	"github.com/farmapos/pos-api/internal/domain/pricing"
)

// --- Mock implementations ---

type mockRepo struct {
	held      []HeldTransaction
	insertErr error
}

func (m *mockRepo) Insert(_ context.Context, ht *HeldTransaction) error {
	if m.insertErr != nil {
		return m.insertErr
	}
	m.held = append(m.held, *ht)
	return nil
}

func (m *mockRepo) List(_ context.Context) ([]HeldTransaction, error) {
	out := make([]HeldTransaction, len(m.held))
	copy(out, m.held)
	return out, nil
}

func (m *mockRepo) Remove(_ context.Context, id string) (*HeldTransaction, error) {
	for i, ht := range m.held {
		if ht.ID == id {
			m.held = append(m.held[:i], m.held[i+1:]...)
			return &ht, nil
		}
	}
	return nil, ErrNotFound
}

func (m *mockRepo) Clear(_ context.Context) error {
	m.held = nil
	return nil
}

type mockCartStore struct {
	carts map[string]cart.Cart
}

func newMockCartStore() *mockCartStore {
	return &mockCartStore{carts: make(map[string]cart.Cart)}
}

func (m *mockCartStore) Get(_ context.Context, id string) (*cart.Cart, error) {
	c, ok := m.carts[id]
	if !ok {
		return nil, cart.ErrCartNotFound
	}
	cp := c.Snapshot()
	return &cp, nil
}

func (m *mockCartStore) Save(_ context.Context, c *cart.Cart) error {
	m.carts[c.ID] = c.Snapshot()
	return nil
}

func (m *mockCartStore) Delete(_ context.Context, id string) error {
	delete(m.carts, id)
	return nil
}

// --- Helpers ---

func seedCart(t *testing.T, store *mockCartStore, id string, items ...cart.LineItem) {
	t.Helper()
	c := cart.Cart{
		ID:     id,
		Items:  items,
		Policy: pricing.Policy{Kind: pricing.PolicyNone},
	}
	for _, it := range items {
		if it.RequiresPrescription {
			c.PrescriptionRequired = true
		}
	}
	require.NoError(t, store.Save(context.Background(), &c))
}

func item(id, price string, qty int) cart.LineItem {
	return cart.LineItem{
		ProductID: id,
		Name:      "item " + id,
		Price:     decimal.RequireFromString(price),
		Quantity:  qty,
	}
}

// --- Tests ---

func TestHold_EmptyCart(t *testing.T) {
	repo := &mockRepo{}
	carts := newMockCartStore()
	seedCart(t, carts, "c1")
	svc := NewService(repo, carts)

	_, err := svc.Hold(context.Background(), "c1", Options{})
	require.ErrorIs(t, err, ErrEmptyCart)
	assert.Empty(t, repo.held, "held list must not change on a failed hold")
}

func TestHold_UnknownCart(t *testing.T) {
	svc := NewService(&mockRepo{}, newMockCartStore())

	_, err := svc.Hold(context.Background(), "ghost", Options{})
	require.ErrorIs(t, err, cart.ErrCartNotFound)
}

func TestHold_SnapshotsAndClearsCart(t *testing.T) {
	repo := &mockRepo{}
	carts := newMockCartStore()
	seedCart(t, carts, "c1", item("p1", "100", 2))
	svc := NewService(repo, carts)
	ctx := context.Background()

	ht, err := svc.Hold(ctx, "c1", Options{Note: "customer stepped out", CustomerName: "Dela Cruz"})
	require.NoError(t, err)

	assert.Contains(t, ht.ID, "HOLD-")
	assert.True(t, decimal.RequireFromString("224").Equal(ht.Total)) // 200 + 12% VAT
	assert.Equal(t, "customer stepped out", ht.Note)
	require.Len(t, ht.Items, 1)

	// Active cart is gone.
	_, err = carts.Get(ctx, "c1")
	require.ErrorIs(t, err, cart.ErrCartNotFound)

	list, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, ht.ID, list[0].ID)
}

func TestRecall_RoundTrip(t *testing.T) {
	repo := &mockRepo{}
	carts := newMockCartStore()
	seedCart(t, carts, "c1", item("p1", "50", 3), item("p2", "20", 1))
	svc := NewService(repo, carts)
	ctx := context.Background()

	original, err := carts.Get(ctx, "c1")
	require.NoError(t, err)

	ht, err := svc.Hold(ctx, "c1", Options{})
	require.NoError(t, err)

	recalled, restored, err := svc.Recall(ctx, ht.ID)
	require.NoError(t, err)

	// Items round-trip deep-equal.
	assert.Equal(t, original.Items, recalled.Items)
	assert.Equal(t, original.Items, restored.Items)
	require.NotEmpty(t, restored.ID)

	// The recalled ID is no longer listed.
	list, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)

	// Second recall of the same ID loses the race.
	_, _, err = svc.Recall(ctx, ht.ID)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestRecall_PreservesPrescriptionFlags(t *testing.T) {
	repo := &mockRepo{}
	carts := newMockCartStore()
	rx := item("rx1", "75", 1)
	rx.RequiresPrescription = true
	seedCart(t, carts, "c1", rx)
	svc := NewService(repo, carts)
	ctx := context.Background()

	ht, err := svc.Hold(ctx, "c1", Options{})
	require.NoError(t, err)
	assert.True(t, ht.PrescriptionRequired)
	assert.False(t, ht.PrescriptionVerified)

	_, restored, err := svc.Recall(ctx, ht.ID)
	require.NoError(t, err)
	assert.True(t, restored.PrescriptionRequired)
	assert.False(t, restored.PrescriptionVerified)
}

func TestClear(t *testing.T) {
	repo := &mockRepo{}
	carts := newMockCartStore()
	seedCart(t, carts, "c1", item("p1", "10", 1))
	svc := NewService(repo, carts)
	ctx := context.Background()

	_, err := svc.Hold(ctx, "c1", Options{})
	require.NoError(t, err)

	require.NoError(t, svc.Clear(ctx))

	list, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
}
