package cartstore

import (
	"context"
	"sync"

	"github.com/farmapos/pos-api/internal/domain/cart"
)

var _ cart.Store = (*Memory)(nil)

// Memory is a mutex-guarded in-process cart store. Used when no redis is
// configured (single-terminal dev setups) and as the store in tests.
type Memory struct {
	mu    sync.RWMutex
	carts map[string]cart.Cart
}

// NewMemory creates an empty in-memory cart store.
func NewMemory() *Memory {
	return &Memory{carts: make(map[string]cart.Cart)}
}

func (m *Memory) Get(_ context.Context, id string) (*cart.Cart, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	c, ok := m.carts[id]
	if !ok {
		return nil, cart.ErrCartNotFound
	}
	cp := c.Snapshot()
	return &cp, nil
}

func (m *Memory) Save(_ context.Context, c *cart.Cart) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.carts[c.ID] = c.Snapshot()
	return nil
}

func (m *Memory) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.carts, id)
	return nil
}
