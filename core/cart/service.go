package cart

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/jmoiron/sqlx"
	"github.com/rfebrian/storefront/core/subproduct"
)

// Catalog resolves subproduct ids to purchasable variants. The cart
// never caches what it returns; prices stay live.
type Catalog interface {
	Variant(ctx context.Context, subproductID string) (subproduct.Subproduct, error)
}

type SQLCatalog struct {
	DB *sqlx.DB
}

func (c SQLCatalog) Variant(ctx context.Context, subproductID string) (subproduct.Subproduct, error) {
	return subproduct.Fetch(ctx, c.DB, subproductID)
}

// Service owns the cart lifecycle. Mutations on the same owner key are
// serialized by a per-owner lock; the merge additionally locks both
// keys involved so concurrent adds on either side cannot be dropped.
type Service struct {
	store   Storer
	catalog Catalog
	locks   ownerLocks
}

func NewService(store Storer, catalog Catalog) *Service {
	return &Service{
		store:   store,
		catalog: catalog,
		locks:   ownerLocks{held: make(map[string]*ownerLock)},
	}
}

// GetOrCreate returns the open cart for owner, lazily creating an
// empty one. Repeated calls with the same key return the same cart.
func (s *Service) GetOrCreate(ctx context.Context, owner Owner) (Cart, error) {
	unlock := s.locks.lock(owner.key())
	defer unlock()

	return s.getOrCreate(ctx, owner)
}

// AddItem adds qty units of a purchasable variant to the owner's cart,
// accumulating on an existing line instead of duplicating it.
func (s *Service) AddItem(ctx context.Context, owner Owner, subproductID string, qty int) (Cart, error) {
	if qty < 1 {
		return Cart{}, errors.New("quantity must be at least 1")
	}

	variant, err := s.catalog.Variant(ctx, subproductID)
	if err != nil {
		if errors.Is(err, subproduct.ErrNotFound) {
			return Cart{}, ErrItemUnavailable
		}
		return Cart{}, fmt.Errorf("resolving subproduct[%s]: %w", subproductID, err)
	}

	if !variant.Purchasable() {
		return Cart{}, ErrItemUnavailable
	}

	unlock := s.locks.lock(owner.key())
	defer unlock()

	c, err := s.getOrCreate(ctx, owner)
	if err != nil {
		return Cart{}, err
	}

	if _, err := s.store.UpsertItem(ctx, c.ID, subproductID, qty); err != nil {
		return Cart{}, fmt.Errorf("upserting item[%s] of cart[%s]: %w", subproductID, c.ID, err)
	}

	return s.store.Fetch(ctx, owner)
}

// UpdateQuantity applies a signed delta to an item. A result of zero
// or less removes the line; a negative delta on an absent item is
// ErrItemNotFound.
func (s *Service) UpdateQuantity(ctx context.Context, owner Owner, subproductID string, delta int) (Cart, error) {
	if delta > 0 {
		return s.AddItem(ctx, owner, subproductID, delta)
	}

	unlock := s.locks.lock(owner.key())
	defer unlock()

	c, err := s.store.Fetch(ctx, owner)
	if err != nil {
		if errors.Is(err, ErrNoCart) {
			return Cart{}, ErrItemNotFound
		}
		return Cart{}, err
	}

	it, ok := c.item(subproductID)
	if !ok {
		return Cart{}, ErrItemNotFound
	}

	if next := it.Quantity + delta; next >= 1 {
		if err := s.store.SetQuantity(ctx, c.ID, subproductID, next); err != nil {
			return Cart{}, fmt.Errorf("setting quantity of item[%s]: %w", subproductID, err)
		}
	} else {
		if err := s.store.RemoveItem(ctx, c.ID, subproductID); err != nil {
			return Cart{}, fmt.Errorf("removing item[%s]: %w", subproductID, err)
		}
	}

	return s.store.Fetch(ctx, owner)
}

// RemoveItem drops a line regardless of its quantity.
func (s *Service) RemoveItem(ctx context.Context, owner Owner, subproductID string) (Cart, error) {
	unlock := s.locks.lock(owner.key())
	defer unlock()

	c, err := s.store.Fetch(ctx, owner)
	if err != nil {
		if errors.Is(err, ErrNoCart) {
			return Cart{}, ErrItemNotFound
		}
		return Cart{}, err
	}

	if _, ok := c.item(subproductID); !ok {
		return Cart{}, ErrItemNotFound
	}

	if err := s.store.RemoveItem(ctx, c.ID, subproductID); err != nil {
		return Cart{}, fmt.Errorf("removing item[%s]: %w", subproductID, err)
	}

	return s.store.Fetch(ctx, owner)
}

// Clear drops every line of the owner's cart, keeping the cart
// itself. With no cart yet it lazily creates an empty one.
func (s *Service) Clear(ctx context.Context, owner Owner) (Cart, error) {
	unlock := s.locks.lock(owner.key())
	defer unlock()

	c, err := s.store.Fetch(ctx, owner)
	if err != nil {
		if errors.Is(err, ErrNoCart) {
			return s.getOrCreate(ctx, owner)
		}
		return Cart{}, err
	}

	if err := s.store.Clear(ctx, c.ID); err != nil {
		return Cart{}, fmt.Errorf("clearing cart[%s]: %w", c.ID, err)
	}

	return s.store.Fetch(ctx, owner)
}

// Merge folds the pre-login guest cart into the user's cart. With no
// user cart the guest cart is rekeyed in place; with both, overlapping
// lines sum their quantities and the guest cart is deleted in the same
// transaction that absorbs it. Callers observe either the pre-merge or
// the post-merge state, never a partial one.
func (s *Service) Merge(ctx context.Context, sessionToken string, userID string) (Cart, error) {
	guest := GuestOwner(sessionToken)
	user := UserOwner(userID)

	unlock := s.locks.lockBoth(guest.key(), user.key())
	defer unlock()

	gc, err := s.store.Fetch(ctx, guest)
	if err != nil {
		if errors.Is(err, ErrNoCart) {
			return s.getOrCreate(ctx, user)
		}
		return Cart{}, fmt.Errorf("fetching guest cart: %w", err)
	}

	uc, err := s.store.Fetch(ctx, user)
	if err != nil {
		if errors.Is(err, ErrNoCart) {
			if err := s.store.Rekey(ctx, guest, user); err != nil {
				return Cart{}, fmt.Errorf("rekeying guest cart[%s]: %w", gc.ID, err)
			}
			return s.store.Fetch(ctx, user)
		}
		return Cart{}, fmt.Errorf("fetching user cart: %w", err)
	}

	if err := s.store.MergeInto(ctx, gc.ID, uc.ID); err != nil {
		return Cart{}, fmt.Errorf("merging cart[%s] into cart[%s]: %w", gc.ID, uc.ID, err)
	}

	return s.store.Fetch(ctx, user)
}

// PlaceFunc persists an order from a finalized cart. It is expected to
// clear the cart's items in the same transaction.
type PlaceFunc func(ctx context.Context, c Cart) error

// Checkout hands the owner's cart to the order subsystem. The owner
// lock is held across the call, so the cart cannot change between the
// read and the clear.
func (s *Service) Checkout(ctx context.Context, owner Owner, place PlaceFunc) (Cart, error) {
	unlock := s.locks.lock(owner.key())
	defer unlock()

	c, err := s.store.Fetch(ctx, owner)
	if err != nil {
		if errors.Is(err, ErrNoCart) {
			return Cart{}, ErrEmptyCart
		}
		return Cart{}, err
	}

	if len(c.Items) == 0 {
		return Cart{}, ErrEmptyCart
	}

	if err := place(ctx, c); err != nil {
		return Cart{}, err
	}

	return s.store.Fetch(ctx, owner)
}

func (s *Service) getOrCreate(ctx context.Context, owner Owner) (Cart, error) {
	c, err := s.store.Fetch(ctx, owner)
	if err == nil {
		return c, nil
	}
	if !errors.Is(err, ErrNoCart) {
		return Cart{}, fmt.Errorf("fetching cart: %w", err)
	}

	c, err = s.store.Create(ctx, owner)
	if err != nil {
		return Cart{}, fmt.Errorf("creating cart: %w", err)
	}

	return c, nil
}

// ownerLocks hands out one mutex per owner key, dropping entries when
// the last holder releases them.
type ownerLocks struct {
	mu   sync.Mutex
	held map[string]*ownerLock
}

type ownerLock struct {
	mu   sync.Mutex
	refs int
}

func (l *ownerLocks) lock(key string) func() {
	l.mu.Lock()
	ol, ok := l.held[key]
	if !ok {
		ol = &ownerLock{}
		l.held[key] = ol
	}
	ol.refs++
	l.mu.Unlock()

	ol.mu.Lock()

	return func() {
		ol.mu.Unlock()

		l.mu.Lock()
		ol.refs--
		if ol.refs == 0 {
			delete(l.held, key)
		}
		l.mu.Unlock()
	}
}

// lockBoth acquires two owner locks in sorted key order so two merges
// touching the same pair cannot deadlock.
func (l *ownerLocks) lockBoth(a string, b string) func() {
	keys := []string{a, b}
	sort.Strings(keys)

	first := l.lock(keys[0])
	second := l.lock(keys[1])

	return func() {
		second()
		first()
	}
}
