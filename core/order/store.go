package order

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
)

var ErrNotFound = errors.New("order not found")

func Create(ctx context.Context, db sqlx.ExtContext, ord Order) error {
	const q = `
	INSERT INTO orders (order_id, number, user_id, status, name, email, street, postcode, city, country, total, created_at, updated_at)
	VALUES (:order_id, :number, :user_id, :status, :name, :email, :street, :postcode, :city, :country, :total, :created_at, :updated_at)`

	_, err := sqlx.NamedExecContext(ctx, db, q, ord)
	return err
}

func CreateItem(ctx context.Context, db sqlx.ExtContext, it Item) error {
	const q = `
	INSERT INTO order_items (order_id, subproduct_id, name, variant, quantity, price, created_at)
	VALUES (:order_id, :subproduct_id, :name, :variant, :quantity, :price, :created_at)`

	_, err := sqlx.NamedExecContext(ctx, db, q, it)
	return err
}

func Fetch(ctx context.Context, db sqlx.ExtContext, id string) (Order, error) {
	const q = `SELECT * FROM orders WHERE order_id = $1`

	var ord Order
	if err := sqlx.GetContext(ctx, db, &ord, q, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Order{}, ErrNotFound
		}
		return Order{}, err
	}

	items, err := FetchItems(ctx, db, ord.ID)
	if err != nil {
		return Order{}, err
	}

	ord.Items = items
	return ord, nil
}

func FetchByUser(ctx context.Context, db sqlx.ExtContext, userID string) ([]Order, error) {
	const q = `SELECT * FROM orders WHERE user_id = $1 ORDER BY created_at DESC`

	orders := []Order{}
	if err := sqlx.SelectContext(ctx, db, &orders, q, userID); err != nil {
		return nil, err
	}

	return orders, nil
}

func FetchItems(ctx context.Context, db sqlx.ExtContext, orderID string) ([]Item, error) {
	const q = `SELECT * FROM order_items WHERE order_id = $1 ORDER BY created_at`

	items := []Item{}
	if err := sqlx.SelectContext(ctx, db, &items, q, orderID); err != nil {
		return nil, err
	}

	return items, nil
}

func UpdateStatus(ctx context.Context, db sqlx.ExtContext, id string, status Status) error {
	const q = `UPDATE orders SET status = $2, updated_at = now() WHERE order_id = $1`

	_, err := db.ExecContext(ctx, q, id, status)
	return err
}
