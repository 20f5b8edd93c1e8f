package cart

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/rfebrian/storefront/database"
	"github.com/rfebrian/storefront/validate"
)

// Storer is the persistence contract of the cart service. The SQL
// implementation below is authoritative; tests substitute an
// in-memory one.
type Storer interface {
	// Fetch returns the open cart for owner with its items, or
	// ErrNoCart.
	Fetch(ctx context.Context, owner Owner) (Cart, error)

	// Create opens an empty cart bound to owner.
	Create(ctx context.Context, owner Owner) (Cart, error)

	// UpsertItem atomically adds qty to the item's quantity, inserting
	// the row when absent, and returns the resulting quantity.
	UpsertItem(ctx context.Context, cartID string, subproductID string, qty int) (int, error)

	// SetQuantity overwrites the quantity of an existing item.
	SetQuantity(ctx context.Context, cartID string, subproductID string, qty int) error

	// RemoveItem deletes an item row.
	RemoveItem(ctx context.Context, cartID string, subproductID string) error

	// Clear deletes every item of a cart, keeping the cart row.
	Clear(ctx context.Context, cartID string) error

	// Rekey renames the owner of a cart without touching its items.
	Rekey(ctx context.Context, from Owner, to Owner) error

	// MergeInto folds every item of the source cart into the target
	// cart, summing quantities on overlap, and deletes the source.
	// Both steps happen in a single transaction.
	MergeInto(ctx context.Context, srcCartID string, dstCartID string) error
}

type SQLStore struct {
	DB *sqlx.DB
}

func NewSQLStore(db *sqlx.DB) *SQLStore {
	return &SQLStore{DB: db}
}

func (s *SQLStore) Fetch(ctx context.Context, owner Owner) (Cart, error) {
	const q = `SELECT * FROM carts WHERE owner_kind = $1 AND owner_id = $2`

	var c Cart
	if err := sqlx.GetContext(ctx, s.DB, &c, q, owner.Kind, owner.ID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Cart{}, ErrNoCart
		}
		return Cart{}, err
	}

	items, err := fetchItems(ctx, s.DB, c.ID)
	if err != nil {
		return Cart{}, fmt.Errorf("fetching items of cart[%s]: %w", c.ID, err)
	}

	c.Items = items
	return c, nil
}

func (s *SQLStore) Create(ctx context.Context, owner Owner) (Cart, error) {
	const q = `
	INSERT INTO carts (cart_id, owner_kind, owner_id, created_at, updated_at)
	VALUES (:cart_id, :owner_kind, :owner_id, :created_at, :updated_at)`

	now := time.Now().UTC()
	c := Cart{
		ID:        validate.GenerateID(),
		OwnerKind: owner.Kind,
		OwnerID:   owner.ID,
		CreatedAt: now,
		UpdatedAt: now,
		Items:     []Item{},
	}

	if _, err := sqlx.NamedExecContext(ctx, s.DB, q, c); err != nil {
		return Cart{}, err
	}

	return c, nil
}

func (s *SQLStore) UpsertItem(ctx context.Context, cartID string, subproductID string, qty int) (int, error) {
	const q = `
	INSERT INTO cart_items (cart_id, subproduct_id, quantity, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $4)
	ON CONFLICT (cart_id, subproduct_id)
	DO UPDATE SET quantity = cart_items.quantity + EXCLUDED.quantity, updated_at = EXCLUDED.updated_at
	RETURNING quantity`

	var out int
	if err := s.DB.QueryRowxContext(ctx, q, cartID, subproductID, qty, time.Now().UTC()).Scan(&out); err != nil {
		return 0, err
	}

	return out, nil
}

func (s *SQLStore) SetQuantity(ctx context.Context, cartID string, subproductID string, qty int) error {
	const q = `
	UPDATE cart_items SET quantity = $3, updated_at = $4
	WHERE cart_id = $1 AND subproduct_id = $2`

	res, err := s.DB.ExecContext(ctx, q, cartID, subproductID, qty, time.Now().UTC())
	if err != nil {
		return err
	}

	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrItemNotFound
	}

	return nil
}

func (s *SQLStore) RemoveItem(ctx context.Context, cartID string, subproductID string) error {
	const q = `DELETE FROM cart_items WHERE cart_id = $1 AND subproduct_id = $2`

	_, err := s.DB.ExecContext(ctx, q, cartID, subproductID)
	return err
}

func (s *SQLStore) Rekey(ctx context.Context, from Owner, to Owner) error {
	const q = `
	UPDATE carts SET owner_kind = $3, owner_id = $4, updated_at = $5
	WHERE owner_kind = $1 AND owner_id = $2`

	res, err := s.DB.ExecContext(ctx, q, from.Kind, from.ID, to.Kind, to.ID, time.Now().UTC())
	if err != nil {
		return err
	}

	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNoCart
	}

	return nil
}

func (s *SQLStore) MergeInto(ctx context.Context, srcCartID string, dstCartID string) error {
	return database.Transaction(s.DB, func(tx sqlx.ExtContext) error {
		const merge = `
		INSERT INTO cart_items (cart_id, subproduct_id, quantity, created_at, updated_at)
		SELECT $2, subproduct_id, quantity, created_at, $3 FROM cart_items WHERE cart_id = $1
		ON CONFLICT (cart_id, subproduct_id)
		DO UPDATE SET quantity = cart_items.quantity + EXCLUDED.quantity, updated_at = EXCLUDED.updated_at`

		if _, err := tx.ExecContext(ctx, merge, srcCartID, dstCartID, time.Now().UTC()); err != nil {
			return fmt.Errorf("folding cart[%s] into cart[%s]: %w", srcCartID, dstCartID, err)
		}

		const drop = `DELETE FROM carts WHERE cart_id = $1`

		if _, err := tx.ExecContext(ctx, drop, srcCartID); err != nil {
			return fmt.Errorf("deleting merged cart[%s]: %w", srcCartID, err)
		}

		return nil
	})
}

func fetchItems(ctx context.Context, db sqlx.ExtContext, cartID string) ([]Item, error) {
	const q = `
	SELECT ci.cart_id, ci.subproduct_id, ci.quantity, ci.created_at, ci.updated_at,
	       p.name, s.variant, s.price AS unit_price
	FROM cart_items ci
	JOIN subproducts s ON s.subproduct_id = ci.subproduct_id
	JOIN products p ON p.product_id = s.product_id
	WHERE ci.cart_id = $1
	ORDER BY ci.created_at`

	items := []Item{}
	if err := sqlx.SelectContext(ctx, db, &items, q, cartID); err != nil {
		return nil, err
	}

	return items, nil
}

func (s *SQLStore) Clear(ctx context.Context, cartID string) error {
	return ClearTx(ctx, s.DB, cartID)
}

// ClearTx removes every item of a cart. It takes the caller's
// transaction so order creation and cart clearing commit together.
func ClearTx(ctx context.Context, tx sqlx.ExtContext, cartID string) error {
	const q = `DELETE FROM cart_items WHERE cart_id = $1`

	_, err := tx.ExecContext(ctx, q, cartID)
	return err
}
