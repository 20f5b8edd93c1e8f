package subproduct

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/rfebrian/storefront/api/web"
	"github.com/rfebrian/storefront/api/weberr"
	"github.com/rfebrian/storefront/validate"
)

func HandleListByProduct(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		productID := web.Param(r, "product_id")

		if err := validate.CheckID(productID); err != nil {
			return weberr.BadRequest(err)
		}

		subs, err := FetchByProduct(ctx, db, productID)
		if err != nil {
			return fmt.Errorf("fetching subproducts of product[%s]: %w", productID, err)
		}

		return web.Respond(ctx, w, subs, http.StatusOK)
	}
}

func HandleCreate(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		var sn SubproductNew
		if err := web.Decode(w, r, &sn); err != nil {
			return weberr.BadRequest(fmt.Errorf("unable to decode payload: %w", err))
		}

		if err := validate.Check(sn); err != nil {
			return weberr.BadRequest(err)
		}

		if sn.Price.IsNegative() {
			return weberr.BadRequest(errors.New("price must not be negative"))
		}

		now := time.Now().UTC()
		s := Subproduct{
			ID:        validate.GenerateID(),
			ProductID: sn.ProductID,
			SKU:       sn.SKU,
			Variant:   sn.Variant,
			Price:     sn.Price,
			Stock:     sn.Stock,
			Available: sn.Available,
			CreatedAt: now,
			UpdatedAt: now,
			Version:   1,
		}

		if err := Create(ctx, db, s); err != nil {
			return fmt.Errorf("creating subproduct: %w", err)
		}

		return web.Respond(ctx, w, s, http.StatusCreated)
	}
}

func HandleUpdate(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		id := web.Param(r, "id")

		if err := validate.CheckID(id); err != nil {
			return weberr.BadRequest(err)
		}

		var su SubproductUp
		if err := web.Decode(w, r, &su); err != nil {
			return weberr.BadRequest(fmt.Errorf("unable to decode payload: %w", err))
		}

		if err := validate.Check(su); err != nil {
			return weberr.BadRequest(err)
		}

		s, err := Fetch(ctx, db, id)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				return weberr.NotFound(err)
			}
			return fmt.Errorf("fetching subproduct[%s]: %w", id, err)
		}

		if su.Variant != nil {
			s.Variant = *su.Variant
		}
		if su.Price != nil {
			if su.Price.IsNegative() {
				return weberr.BadRequest(errors.New("price must not be negative"))
			}
			s.Price = *su.Price
		}
		if su.Stock != nil {
			s.Stock = *su.Stock
		}
		if su.Available != nil {
			s.Available = *su.Available
		}
		s.UpdatedAt = time.Now().UTC()

		if err := Update(ctx, db, s); err != nil {
			if errors.Is(err, ErrNotFound) {
				return weberr.NotFound(err)
			}
			return fmt.Errorf("updating subproduct[%s]: %w", id, err)
		}

		return web.Respond(ctx, w, s, http.StatusOK)
	}
}
