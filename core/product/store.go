package product

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
)

var ErrNotFound = errors.New("product not found")

func Create(ctx context.Context, db sqlx.ExtContext, p Product) error {
	const q = `
	INSERT INTO products (product_id, brand_id, category_id, name, slug, description, image_url, created_at, updated_at)
	VALUES (:product_id, :brand_id, :category_id, :name, :slug, :description, :image_url, :created_at, :updated_at)`

	_, err := sqlx.NamedExecContext(ctx, db, q, p)
	return err
}

func Update(ctx context.Context, db sqlx.ExtContext, p Product) error {
	const q = `
	UPDATE products SET
		brand_id = :brand_id,
		category_id = :category_id,
		name = :name,
		slug = :slug,
		description = :description,
		image_url = :image_url,
		updated_at = :updated_at,
		version = version + 1
	WHERE product_id = :product_id AND version = :version`

	res, err := sqlx.NamedExecContext(ctx, db, q, p)
	if err != nil {
		return err
	}

	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}

	return nil
}

func Fetch(ctx context.Context, db sqlx.ExtContext, id string) (Product, error) {
	const q = `SELECT * FROM products WHERE product_id = $1`

	var p Product
	if err := sqlx.GetContext(ctx, db, &p, q, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Product{}, ErrNotFound
		}
		return Product{}, err
	}

	return p, nil
}

func FetchAll(ctx context.Context, db sqlx.ExtContext) ([]Product, error) {
	const q = `SELECT * FROM products ORDER BY created_at DESC`

	products := []Product{}
	if err := sqlx.SelectContext(ctx, db, &products, q); err != nil {
		return nil, err
	}

	return products, nil
}
