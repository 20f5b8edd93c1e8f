package brand

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/rfebrian/storefront/api/web"
	"github.com/rfebrian/storefront/api/weberr"
	"github.com/rfebrian/storefront/validate"
)

var ErrNotFound = errors.New("brand not found")

func Create(ctx context.Context, db sqlx.ExtContext, b Brand) error {
	const q = `
	INSERT INTO brands (brand_id, name, slug, created_at, updated_at)
	VALUES (:brand_id, :name, :slug, :created_at, :updated_at)`

	_, err := sqlx.NamedExecContext(ctx, db, q, b)
	return err
}

func FetchAll(ctx context.Context, db sqlx.ExtContext) ([]Brand, error) {
	const q = `SELECT * FROM brands ORDER BY name`

	brands := []Brand{}
	if err := sqlx.SelectContext(ctx, db, &brands, q); err != nil {
		return nil, err
	}

	return brands, nil
}

func Fetch(ctx context.Context, db sqlx.ExtContext, id string) (Brand, error) {
	const q = `SELECT * FROM brands WHERE brand_id = $1`

	var b Brand
	if err := sqlx.GetContext(ctx, db, &b, q, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Brand{}, ErrNotFound
		}
		return Brand{}, err
	}

	return b, nil
}

func Delete(ctx context.Context, db sqlx.ExtContext, id string) error {
	const q = `DELETE FROM brands WHERE brand_id = $1`

	_, err := db.ExecContext(ctx, q, id)
	return err
}

func HandleShow(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		id := web.Param(r, "id")

		if err := validate.CheckID(id); err != nil {
			return weberr.BadRequest(err)
		}

		b, err := Fetch(ctx, db, id)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				return weberr.NotFound(err)
			}
			return fmt.Errorf("fetching brand[%s]: %w", id, err)
		}

		return web.Respond(ctx, w, b, http.StatusOK)
	}
}

func HandleList(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		brands, err := FetchAll(ctx, db)
		if err != nil {
			return fmt.Errorf("fetching brands: %w", err)
		}

		return web.Respond(ctx, w, brands, http.StatusOK)
	}
}

func HandleCreate(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		var bn BrandNew
		if err := web.Decode(w, r, &bn); err != nil {
			return weberr.BadRequest(fmt.Errorf("unable to decode payload: %w", err))
		}

		if err := validate.Check(bn); err != nil {
			return weberr.BadRequest(err)
		}

		now := time.Now().UTC()
		b := Brand{
			ID:        validate.GenerateID(),
			Name:      bn.Name,
			Slug:      bn.Slug,
			CreatedAt: now,
			UpdatedAt: now,
		}

		if err := Create(ctx, db, b); err != nil {
			return fmt.Errorf("creating brand: %w", err)
		}

		return web.Respond(ctx, w, b, http.StatusCreated)
	}
}

func HandleDelete(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		id := web.Param(r, "id")

		if err := validate.CheckID(id); err != nil {
			return weberr.BadRequest(err)
		}

		if err := Delete(ctx, db, id); err != nil {
			return fmt.Errorf("deleting brand[%s]: %w", id, err)
		}

		return web.Respond(ctx, w, nil, http.StatusNoContent)
	}
}
