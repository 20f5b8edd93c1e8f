package subproduct

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
)

var ErrNotFound = errors.New("subproduct not found")

func Create(ctx context.Context, db sqlx.ExtContext, s Subproduct) error {
	const q = `
	INSERT INTO subproducts (subproduct_id, product_id, sku, variant, price, stock, available, created_at, updated_at)
	VALUES (:subproduct_id, :product_id, :sku, :variant, :price, :stock, :available, :created_at, :updated_at)`

	_, err := sqlx.NamedExecContext(ctx, db, q, s)
	return err
}

func Update(ctx context.Context, db sqlx.ExtContext, s Subproduct) error {
	const q = `
	UPDATE subproducts SET
		variant = :variant,
		price = :price,
		stock = :stock,
		available = :available,
		updated_at = :updated_at,
		version = version + 1
	WHERE subproduct_id = :subproduct_id AND version = :version`

	res, err := sqlx.NamedExecContext(ctx, db, q, s)
	if err != nil {
		return err
	}

	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}

	return nil
}

func Fetch(ctx context.Context, db sqlx.ExtContext, id string) (Subproduct, error) {
	const q = `SELECT * FROM subproducts WHERE subproduct_id = $1`

	var s Subproduct
	if err := sqlx.GetContext(ctx, db, &s, q, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Subproduct{}, ErrNotFound
		}
		return Subproduct{}, err
	}

	return s, nil
}

func FetchByProduct(ctx context.Context, db sqlx.ExtContext, productID string) ([]Subproduct, error) {
	const q = `SELECT * FROM subproducts WHERE product_id = $1 ORDER BY variant`

	subs := []Subproduct{}
	if err := sqlx.SelectContext(ctx, db, &subs, q, productID); err != nil {
		return nil, err
	}

	return subs, nil
}
