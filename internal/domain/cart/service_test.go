package cart

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/farmapos/pos-api/internal/domain/catalog"
	"github.com/farmapos/pos-api/internal/domain/pricing"
)

// --- Mock implementations ---

type mockStore struct {
	carts   map[string]Cart
	saveErr error
}

func newMockStore() *mockStore {
	return &mockStore{carts: make(map[string]Cart)}
}

func (m *mockStore) Get(_ context.Context, id string) (*Cart, error) {
	c, ok := m.carts[id]
	if !ok {
		return nil, ErrCartNotFound
	}
	cp := c.Snapshot()
	return &cp, nil
}

func (m *mockStore) Save(_ context.Context, c *Cart) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.carts[c.ID] = c.Snapshot()
	return nil
}

func (m *mockStore) Delete(_ context.Context, id string) error {
	delete(m.carts, id)
	return nil
}

type mockCatalog struct {
	byID map[string]*catalog.Product
}

func (m *mockCatalog) List(_ context.Context) ([]catalog.Product, error) { return nil, nil }

func (m *mockCatalog) GetByID(_ context.Context, id string) (*catalog.Product, error) {
	p, ok := m.byID[id]
	if !ok {
		return nil, catalog.ErrNotFound
	}
	return p, nil
}

// --- Helpers ---

func testProduct(id, price string, stock int, rx bool) *catalog.Product {
	return &catalog.Product{
		ID:      id,
		Name:    "product " + id,
		Price:   decimal.RequireFromString(price),
		Stock:   stock,
		SKUKind: catalog.SKUPiece,

		RequiresPrescription: rx,
	}
}

func newTestService(products ...*catalog.Product) (*Service, *mockStore) {
	byID := make(map[string]*catalog.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}
	store := newMockStore()
	return NewService(store, &mockCatalog{byID: byID}), store
}

// --- Tests ---

func TestService_CreateAndGet(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	c, err := svc.Create(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, c.ID)

	got, err := svc.Get(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, c.ID, got.ID)
	assert.Empty(t, got.Items)
}

func TestService_GetUnknownCart(t *testing.T) {
	svc, _ := newTestService()
	_, err := svc.Get(context.Background(), "missing")
	require.ErrorIs(t, err, ErrCartNotFound)
}

func TestService_AddItemSnapshotsPrice(t *testing.T) {
	p := testProduct("p1", "12.50", 10, false)
	svc, _ := newTestService(p)
	ctx := context.Background()

	c, err := svc.Create(ctx)
	require.NoError(t, err)

	got, err := svc.AddItem(ctx, c.ID, "p1", 2)
	require.NoError(t, err)
	require.Len(t, got.Items, 1)

	// Catalog price changes do not affect lines already in the cart.
	p.Price = decimal.RequireFromString("99.99")
	got, err = svc.Get(ctx, c.ID)
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("12.50").Equal(got.Items[0].Price))
}

func TestService_AddItemMergedStockCheck(t *testing.T) {
	svc, _ := newTestService(testProduct("p1", "10", 5, false))
	ctx := context.Background()

	c, err := svc.Create(ctx)
	require.NoError(t, err)

	_, err = svc.AddItem(ctx, c.ID, "p1", 3)
	require.NoError(t, err)

	// 3 already in the cart; 3 more would exceed the 5 on hand.
	_, err = svc.AddItem(ctx, c.ID, "p1", 3)
	var stockErr *catalog.InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, 6, stockErr.Requested)
	assert.Equal(t, 5, stockErr.Available)

	got, err := svc.Get(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, got.Quantity("p1"))
}

func TestService_AddItemUnknownProduct(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	c, err := svc.Create(ctx)
	require.NoError(t, err)

	_, err = svc.AddItem(ctx, c.ID, "ghost", 1)
	require.ErrorIs(t, err, catalog.ErrNotFound)
}

func TestService_UpdateQuantity(t *testing.T) {
	svc, _ := newTestService(testProduct("p1", "10", 5, false))
	ctx := context.Background()

	c, err := svc.Create(ctx)
	require.NoError(t, err)
	_, err = svc.AddItem(ctx, c.ID, "p1", 1)
	require.NoError(t, err)

	got, err := svc.UpdateQuantity(ctx, c.ID, "p1", 4)
	require.NoError(t, err)
	assert.Equal(t, 4, got.Quantity("p1"))

	_, err = svc.UpdateQuantity(ctx, c.ID, "p1", 0)
	require.ErrorIs(t, err, ErrInvalidQuantity)

	_, err = svc.UpdateQuantity(ctx, c.ID, "p1", 6)
	var stockErr *catalog.InsufficientStockError
	require.ErrorAs(t, err, &stockErr)

	// Failed updates leave the cart untouched.
	got, err = svc.Get(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, 4, got.Quantity("p1"))
}

func TestService_SetDiscount(t *testing.T) {
	svc, _ := newTestService(testProduct("p1", "100", 10, false))
	ctx := context.Background()

	c, err := svc.Create(ctx)
	require.NoError(t, err)
	_, err = svc.AddItem(ctx, c.ID, "p1", 2)
	require.NoError(t, err)

	got, err := svc.SetDiscount(ctx, c.ID, pricing.Policy{Kind: pricing.PolicySenior})
	require.NoError(t, err)

	totals, err := got.Totals()
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("179.2").Equal(totals.Total))

	_, err = svc.SetDiscount(ctx, c.ID, pricing.Policy{
		Kind:          pricing.PolicyCustom,
		CustomPercent: decimal.RequireFromString("120"),
	})
	require.ErrorIs(t, err, pricing.ErrInvalidDiscountValue)
}

func TestService_VerifyPrescription(t *testing.T) {
	svc, _ := newTestService(
		testProduct("otc", "10", 10, false),
		testProduct("rx", "50", 10, true),
	)
	ctx := context.Background()

	c, err := svc.Create(ctx)
	require.NoError(t, err)

	// No-op while nothing requires a prescription.
	got, err := svc.VerifyPrescription(ctx, c.ID, true)
	require.NoError(t, err)
	assert.False(t, got.PrescriptionVerified)

	_, err = svc.AddItem(ctx, c.ID, "rx", 1)
	require.NoError(t, err)

	got, err = svc.VerifyPrescription(ctx, c.ID, true)
	require.NoError(t, err)
	assert.True(t, got.PrescriptionVerified)
}

func TestService_Clear(t *testing.T) {
	svc, _ := newTestService(testProduct("p1", "10", 10, false))
	ctx := context.Background()

	c, err := svc.Create(ctx)
	require.NoError(t, err)
	_, err = svc.AddItem(ctx, c.ID, "p1", 2)
	require.NoError(t, err)

	got, err := svc.Clear(ctx, c.ID)
	require.NoError(t, err)
	assert.Empty(t, got.Items)

	totals, err := got.Totals()
	require.NoError(t, err)
	assert.True(t, totals.Total.IsZero())
}
