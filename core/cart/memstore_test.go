package cart

import (
	"context"
	"sync"
	"time"

	"github.com/rfebrian/storefront/core/subproduct"
	"github.com/rfebrian/storefront/validate"
	"github.com/shopspring/decimal"
)

// memStore is a concurrency-safe in-memory Storer used to exercise the
// service without a database. Quantities are only touched under the
// store lock, mirroring the atomic upsert of the SQL implementation.
type memStore struct {
	mu      sync.Mutex
	catalog *memCatalog
	byOwner map[string]string          // owner key -> cart id
	carts   map[string]Cart            // cart id -> cart (without items)
	items   map[string]map[string]Item // cart id -> subproduct id -> item
}

func newMemStore(catalog *memCatalog) *memStore {
	return &memStore{
		catalog: catalog,
		byOwner: make(map[string]string),
		carts:   make(map[string]Cart),
		items:   make(map[string]map[string]Item),
	}
}

func (m *memStore) Fetch(ctx context.Context, owner Owner) (Cart, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.fetchLocked(owner)
}

func (m *memStore) fetchLocked(owner Owner) (Cart, error) {
	id, ok := m.byOwner[owner.key()]
	if !ok {
		return Cart{}, ErrNoCart
	}

	c := m.carts[id]
	c.Items = []Item{}
	for _, it := range m.items[id] {
		// Live price: re-read from the catalog at fetch time.
		if s, ok := m.catalog.variants[it.SubproductID]; ok {
			it.UnitPrice = s.Price
			it.Variant = s.Variant
		}
		c.Items = append(c.Items, it)
	}

	return c, nil
}

func (m *memStore) Create(ctx context.Context, owner Owner) (Cart, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now().UTC()
	c := Cart{
		ID:        validate.GenerateID(),
		OwnerKind: owner.Kind,
		OwnerID:   owner.ID,
		CreatedAt: now,
		UpdatedAt: now,
		Items:     []Item{},
	}

	m.byOwner[owner.key()] = c.ID
	m.carts[c.ID] = c
	m.items[c.ID] = make(map[string]Item)
	return c, nil
}

func (m *memStore) UpsertItem(ctx context.Context, cartID string, subproductID string, qty int) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	items := m.items[cartID]
	it, ok := items[subproductID]
	if !ok {
		it = Item{CartID: cartID, SubproductID: subproductID, CreatedAt: time.Now().UTC()}
	}
	it.Quantity += qty
	it.UpdatedAt = time.Now().UTC()
	items[subproductID] = it

	return it.Quantity, nil
}

func (m *memStore) SetQuantity(ctx context.Context, cartID string, subproductID string, qty int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	items := m.items[cartID]
	it, ok := items[subproductID]
	if !ok {
		return ErrItemNotFound
	}
	it.Quantity = qty
	items[subproductID] = it
	return nil
}

func (m *memStore) RemoveItem(ctx context.Context, cartID string, subproductID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.items[cartID], subproductID)
	return nil
}

func (m *memStore) Rekey(ctx context.Context, from Owner, to Owner) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	id, ok := m.byOwner[from.key()]
	if !ok {
		return ErrNoCart
	}

	delete(m.byOwner, from.key())
	m.byOwner[to.key()] = id

	c := m.carts[id]
	c.OwnerKind = to.Kind
	c.OwnerID = to.ID
	m.carts[id] = c
	return nil
}

func (m *memStore) MergeInto(ctx context.Context, srcCartID string, dstCartID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	dst := m.items[dstCartID]
	for subID, it := range m.items[srcCartID] {
		if cur, ok := dst[subID]; ok {
			cur.Quantity += it.Quantity
			dst[subID] = cur
			continue
		}
		it.CartID = dstCartID
		dst[subID] = it
	}

	src := m.carts[srcCartID]
	delete(m.byOwner, Owner{Kind: src.OwnerKind, ID: src.OwnerID}.key())
	delete(m.carts, srcCartID)
	delete(m.items, srcCartID)
	return nil
}

// clear empties a cart's items, standing in for ClearTx.
func (m *memStore) clear(cartID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[cartID] = make(map[string]Item)
}

func (m *memStore) Clear(ctx context.Context, cartID string) error {
	m.clear(cartID)
	return nil
}

type memCatalog struct {
	variants map[string]subproduct.Subproduct
}

func newMemCatalog() *memCatalog {
	return &memCatalog{variants: make(map[string]subproduct.Subproduct)}
}

func (m *memCatalog) add(price string, stock int) string {
	id := validate.GenerateID()
	m.variants[id] = subproduct.Subproduct{
		ID:        id,
		SKU:       id[:8],
		Variant:   "M",
		Price:     decimal.RequireFromString(price),
		Stock:     stock,
		Available: true,
	}
	return id
}

func (m *memCatalog) Variant(ctx context.Context, subproductID string) (subproduct.Subproduct, error) {
	s, ok := m.variants[subproductID]
	if !ok {
		return subproduct.Subproduct{}, subproduct.ErrNotFound
	}
	return s, nil
}
